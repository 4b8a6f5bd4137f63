// kpts.go --  This file is part of goGDF project.
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
	"math"

	"golang.org/x/exp/slices"
)

// kptDiffTol decides when two k-vectors (or a momentum transfer and
// zero) are considered equal, in 1/bohr.
const kptDiffTol = 1e-9

// IsZeroK reports whether k is the zone center within kptDiffTol.
func IsZeroK(k [3]float64) bool {
	return math.Abs(k[0]) < kptDiffTol &&
		math.Abs(k[1]) < kptDiffTol &&
		math.Abs(k[2]) < kptDiffTol
}

func subK(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func sameK(a, b [3]float64) bool {
	return IsZeroK(subK(a, b))
}

// KPair is an ordered k-point pair (ki, kj) by index.
type KPair struct {
	I, J int
}

// Index flattens the pair to the storage key ki*nkpts + kj.
func (p KPair) Index(nkpts int) int {
	return p.I*nkpts + p.J
}

// QGroup collects every ordered pair sharing one momentum transfer
// q = kj - ki.
type QGroup struct {
	Q     [3]float64
	Pairs []KPair
}

// uniqueQ groups all nkpts^2 ordered pairs by momentum transfer, in
// order of first appearance (ki-major). The tensor needs one two-center
// metric per group rather than one per pair.
func uniqueQ(kpts [][3]float64) []QGroup {
	var groups []QGroup
	for i := range kpts {
		for j := range kpts {
			q := subK(kpts[j], kpts[i])
			g := slices.IndexFunc(groups, func(gr QGroup) bool { return sameK(gr.Q, q) })
			if g < 0 {
				groups = append(groups, QGroup{Q: q})
				g = len(groups) - 1
			}
			groups[g].Pairs = append(groups[g].Pairs, KPair{i, j})
		}
	}
	return groups
}
