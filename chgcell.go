// chgcell.go --  This file is part of goGDF project.
// goGDF authors, 2026
//
//	goGDF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package gogdf

import (
	"fmt"
	"math"
)

// MakeChargeBasis builds the smooth model-charge cell for an auxiliary
// cell: one single-primitive shell of exponent eta per (atom, angular
// momentum) combination present in aux, normalized so the model
// function carries the same multipole moment as a unit-multipole
// auxiliary function. Shells come out atom-major, l ascending.
func MakeChargeBasis(aux *Cell, eta float64) (*Cell, error) {
	if eta <= 0 {
		return nil, fmt.Errorf("%w: model charge exponent %g", ErrBadConfig, eta)
	}
	chg := aux.Copy()
	chg.Shells = nil
	lmax := aux.LMaxUsed()
	norms := make([]float64, lmax+1)
	for l := range norms {
		norms[l] = halfSphNorm / gaussianInt(2*l+2, eta)
	}
	for ia := range aux.Atoms {
		var seen [LMax + 1]bool
		for _, sh := range aux.Shells {
			if sh.Atom == ia {
				seen[sh.L] = true
			}
		}
		for l := 0; l <= lmax; l++ {
			if !seen[l] {
				continue
			}
			chg.Shells = append(chg.Shells, Shell{
				Atom:  ia,
				L:     l,
				Exps:  []float64{eta},
				Coefs: []float64{norms[l]},
			})
		}
	}
	// The overlap-based estimate is too tight for the model charge;
	// the function value at rcut is what matters.
	const rmax = 15.0
	chg.Rcut = math.Sqrt(math.Log(4*math.Pi*rmax*rmax/aux.Precision) / eta)
	InfoLogger.Printf("model charge basis: %d shells, %d functions, rcut = %.3f",
		len(chg.Shells), chg.NFunc(), chg.Rcut)
	return chg, nil
}
