// c2s.go --  This file is part of goGDF project.
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

	"gonum.org/v1/gonum/floats"
)

// cart2sphTab[l] maps Cartesian monomial components to real solid
// harmonics. Rows run m = -l..l, columns follow the lexicographic
// Cartesian order with x-power descending (xx, xy, xz, yy, yz, zz for
// l = 2). Coefficients carry the spherical-harmonic normalization, so
// a bare monomial basis combines into unit-normalized harmonics.
var cart2sphTab = [5][][]float64{
	// l = 0: (1)
	{
		{0.282094791773878143},
	},
	// l = 1: (x, y, z)
	{
		{0, 0.488602511902919921, 0},
		{0, 0, 0.488602511902919921},
		{0.488602511902919921, 0, 0},
	},
	// l = 2: (xx, xy, xz, yy, yz, zz)
	{
		{0, 1.092548430592079070, 0, 0, 0, 0},
		{0, 0, 0, 0, 1.092548430592079070, 0},
		{-0.315391565252520002, 0, 0, -0.315391565252520002, 0, 0.630783130505040012},
		{0, 0, 1.092548430592079070, 0, 0, 0},
		{0.546274215296039535, 0, 0, -0.546274215296039535, 0, 0},
	},
	// l = 3: (xxx, xxy, xxz, xyy, xyz, xzz, yyy, yyz, yzz, zzz)
	{
		{0, 1.770130769779930531, 0, 0, 0, 0, -0.590043589926643510, 0, 0, 0},
		{0, 0, 0, 0, 2.890611442640554055, 0, 0, 0, 0, 0},
		{0, -0.457045799464465739, 0, 0, 0, 0, -0.457045799464465739, 0, 1.828183197857862944, 0},
		{0, 0, -1.119528997770346174, 0, 0, 0, 0, -1.119528997770346174, 0, 0.746352665180230782},
		{-0.457045799464465739, 0, 0, -0.457045799464465739, 0, 1.828183197857862944, 0, 0, 0, 0},
		{0, 0, 1.445305721320277020, 0, 0, 0, 0, -1.445305721320277020, 0, 0},
		{0.590043589926643510, 0, 0, -1.770130769779930531, 0, 0, 0, 0, 0, 0},
	},
	// l = 4: (xxxx, xxxy, xxxz, xxyy, xxyz, xxzz, xyyy, xyyz, xyzz,
	//         xzzz, yyyy, yyyz, yyzz, yzzz, zzzz)
	{
		{0, 2.503342941796704538, 0, 0, 0, 0, -2.503342941796704538, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 5.310392309339791593, 0, 0, 0, 0, 0, 0, -1.770130769779930530, 0, 0, 0},
		{0, -0.946174695757560054, 0, 0, 0, 0, -0.946174695757560054, 0, 5.677048174545360320, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, -2.007139630671867500, 0, 0, 0, 0, 0, 0, -2.007139630671867500, 0, 2.676186174229156667, 0},
		{0.317356640745613383, 0, 0, 0.634713281491226766, 0, -2.538853125964907064, 0, 0, 0, 0, 0.317356640745613383, 0, -2.538853125964907064, 0, 0.846284375321635688},
		{0, 0, -2.007139630671867500, 0, 0, 0, 0, -2.007139630671867500, 0, 2.676186174229156667, 0, 0, 0, 0, 0},
		{-0.473087347878780009, 0, 0, 0, 0, 2.838524087272680054, 0, 0, 0, 0, 0.473087347878780009, 0, -2.838524087272680054, 0, 0},
		{0, 0, 1.770130769779930530, 0, 0, 0, 0, -5.310392309339791593, 0, 0, 0, 0, 0, 0, 0},
		{0.625835735449176134, 0, 0, -3.755014412695056807, 0, 0, 0, 0, 0, 0, 0.625835735449176134, 0, 0, 0, 0},
	},
}

func cartDim(l int) int { return (l + 1) * (l + 2) / 2 }

func cart2sphCoef(l int) ([][]float64, error) {
	if l < 0 || l >= len(cart2sphTab) {
		return nil, fmt.Errorf("%w: cart2sph table for l = %d", ErrUnsupportedShell, l)
	}
	return cart2sphTab[l], nil
}

// applyC2S combines the cartDim(l) Cartesian rows of src starting at s0
// into 2l+1 spherical rows of dst starting at d0.
func applyC2S(dst *ZMat, d0 int, src *ZMat, s0, l int) error {
	coef, err := cart2sphCoef(l)
	if err != nil {
		return err
	}
	nd := cartDim(l)
	if src.Im != nil {
		dst.EnsureIm()
	}
	for m := 0; m < 2*l+1; m++ {
		dr := dst.Re.RawRowView(d0 + m)
		for i := range dr {
			dr[i] = 0
		}
		for c := 0; c < nd; c++ {
			if coef[m][c] == 0 {
				continue
			}
			floats.AddScaled(dr, coef[m][c], src.Re.RawRowView(s0+c))
		}
		if src.Im == nil {
			continue
		}
		di := dst.Im.RawRowView(d0 + m)
		for i := range di {
			di[i] = 0
		}
		for c := 0; c < nd; c++ {
			if coef[m][c] == 0 {
				continue
			}
			floats.AddScaled(di, coef[m][c], src.Im.RawRowView(s0+c))
		}
	}
	return nil
}
