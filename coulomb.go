// coulomb.go --  This file is part of goGDF project.
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

// WeightedCoulG evaluates the Coulomb kernel 4 pi/|G+q|^2 on the grid,
// premultiplied by the quadrature weight 1/vol. The |G+q| = 0 point is
// 0 for the full-range kernel; with range separation it takes the
// finite limit -pi/omega^2 (long-range) or +pi/omega^2 (short-range).
// Omega attenuation multiplies the long-range kernel by
// exp(-|G+q|^2/(4 omega^2)) and the short-range one by its complement.
func WeightedCoulG(c *Cell, q [3]float64, grid *GGrid) []float64 {
	omega := c.Omega
	w := grid.W
	out := make([]float64, grid.NG())
	for i, g := range grid.Gv {
		gx := g[0] + q[0]
		gy := g[1] + q[1]
		gz := g[2] + q[2]
		absG2 := gx*gx + gy*gy + gz*gz
		if absG2 < 1e-14 {
			switch {
			case omega > 0:
				out[i] = -math.Pi / (omega * omega) * w
			case omega < 0:
				out[i] = math.Pi / (omega * omega) * w
			default:
				out[i] = 0
			}
			continue
		}
		v := 4 * math.Pi / absG2
		if omega > 0 {
			v *= math.Exp(-absG2 / (4 * omega * omega))
		} else if omega < 0 {
			v *= 1 - math.Exp(-absG2/(4*omega*omega))
		}
		out[i] = v * w
	}
	return out
}
