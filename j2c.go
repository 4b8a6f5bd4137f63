// j2c.go --  This file is part of goGDF project.
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

import "math"

// j2cHermTol flags lattice sums whose truncation left a visible
// asymmetry before symmetrization.
const j2cHermTol = 1e-6

// hermDefect is the largest deviation of M from its conjugate
// transpose.
func hermDefect(m *ZMat) float64 {
	n, _ := m.Dims()
	d := 0.0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			re := m.Re.At(i, j) - m.Re.At(j, i)
			im := 0.0
			if m.Im != nil {
				im = m.Im.At(i, j) + m.Im.At(j, i)
			}
			if v := math.Hypot(re, im); v > d {
				d = v
			}
		}
	}
	return d
}

func j2cBlocksize(maxMemoryMB, nfused int) int {
	b := int(float64(maxMemoryMB) * .4e6 / 16 / float64(nfused))
	if b < 2048 {
		b = 2048
	}
	return b
}

// buildMetric assembles the Coulomb metric (P|Q) for one momentum
// transfer q. The real-space lattice sum over the fused cell carries
// the compact part; the planewave sum then removes the smooth Coulomb
// field of the model-charge rows, and the matching columns through the
// conjugate transpose. The lattice-summed integrals alone are not
// exactly hermitian when the translation range is tight, so the matrix
// is hermitized before both axes are contracted down to the auxiliary
// functions.
func buildMetric(fused *Cell, fz *Fuse, grid *GGrid, eng IntegralEngine,
	ftev FTEvaluator, q [3]float64, maxMemoryMB int) (*ZMat, error) {
	j2c, err := eng.Int2c2e(fused, q)
	if err != nil {
		return nil, err
	}
	naux := fz.NAux()
	nfused := fz.NFused()
	nchg := nfused - naux
	zone := IsZeroK(q)
	if nchg > 0 {
		if !zone {
			j2c.EnsureIm()
		}
		w := WeightedCoulG(fused, q, grid)
		ngrids := grid.NG()
		blk := j2cBlocksize(maxMemoryMB, nfused)
		for g0 := 0; g0 < ngrids; g0 += blk {
			g1 := g0 + blk
			if g1 > ngrids {
				g1 = ngrids
			}
			ft, err := ftev.FTBasis(fused, grid, g0, g1, 0, len(fused.Shells), q)
			if err != nil {
				return nil, err
			}
			wchg := NewZMat(g1-g0, nchg, true)
			for g := 0; g < g1-g0; g++ {
				wg := w[g0+g]
				for j := 0; j < nchg; j++ {
					wchg.Re.Set(g, j, wg*ft.Re.At(g, naux+j))
					wchg.Im.Set(g, j, wg*ft.Im.At(g, naux+j))
				}
			}
			p := NewZMat(nchg, nfused, !zone)
			if zone {
				// G and -G pair up on the odd mesh, the total is real
				gemmAcc(p.Re, wchg.Re.T(), ft.Re, 1)
				gemmAcc(p.Re, wchg.Im.T(), ft.Im, 1)
			} else {
				zmul(p, wchg, true, true, ft, false, false, 1)
			}
			j2c.SliceRows(naux, nfused).Sub(p)
			for i := 0; i < naux; i++ {
				for j := 0; j < nchg; j++ {
					j2c.Re.Set(i, naux+j, j2c.Re.At(i, naux+j)-p.Re.At(j, i))
					if j2c.Im != nil {
						j2c.Im.Set(i, naux+j, j2c.Im.At(i, naux+j)+p.Im.At(j, i))
					}
				}
			}
		}
	}
	if d := hermDefect(j2c); d > j2cHermTol {
		WarningLogger.Printf("metric asymmetry %.3e before symmetrization, widen the lattice sum", d)
	}
	j2c.Hermitize()
	m, err := fz.Apply(j2c)
	if err != nil {
		return nil, err
	}
	return fz.ApplyT(m)
}
