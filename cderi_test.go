// cderi_test.go --  This file is part of goGDF project.
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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spdReal2(t *testing.T) *ZMat {
	t.Helper()
	m := NewZMat(2, 2, false)
	m.Re.Set(0, 0, 4)
	m.Re.Set(0, 1, 2)
	m.Re.Set(1, 0, 2)
	m.Re.Set(1, 1, 3)
	return m
}

func diagReal(t *testing.T, d ...float64) *ZMat {
	t.Helper()
	m := NewZMat(len(d), len(d), false)
	for i, v := range d {
		m.Re.Set(i, i, v)
	}
	return m
}

func TestDecomposeMetricCDReal(t *testing.T) {
	f, err := decomposeMetric(spdReal2(t), 3, 1e-9, false)
	require.NoError(t, err)
	assert.Equal(t, TagCD, f.Tag)
	require.NotNil(t, f.LReal)
	assert.Nil(t, f.L)
	assert.Equal(t, 2, f.Kept)

	// L = [[2, 0], [1, sqrt(2)]]
	assert.InDelta(t, 2, f.LReal.At(0, 0), 1e-14)
	assert.InDelta(t, 1, f.LReal.At(1, 0), 1e-14)
	assert.InDelta(t, math.Sqrt2, f.LReal.At(1, 1), 1e-14)
}

func TestSolveCDRealHalfSolve(t *testing.T) {
	f, err := decomposeMetric(spdReal2(t), 3, 1e-9, false)
	require.NoError(t, err)

	b := NewZMat(2, 1, false)
	b.Re.Set(0, 0, 1)
	b.Re.Set(1, 0, 2)
	got, neg, err := f.Solve(b)
	require.NoError(t, err)
	assert.Nil(t, neg)
	assert.Same(t, b, got, "the half-solve runs in place")

	// forward substitution against L above
	assert.InDelta(t, 0.5, got.Re.At(0, 0), 1e-14)
	assert.InDelta(t, 1.5/math.Sqrt2, got.Re.At(1, 0), 1e-14)
}

func TestSolveCDComplex(t *testing.T) {
	j2c := hermitian2(2, 2, complex(0, 1))
	f, err := decomposeMetric(j2c, 3, 1e-9, false)
	require.NoError(t, err)
	assert.Equal(t, TagCD, f.Tag)
	require.NotNil(t, f.L)
	assert.Nil(t, f.LReal)

	b := NewZMat(2, 1, true)
	b.Set(0, 0, complex(1, 2))
	b.Set(1, 0, complex(-1, 0.5))
	want0, want1 := b.At(0, 0), b.At(1, 0)

	x, _, err := f.Solve(b)
	require.NoError(t, err)

	// L x reproduces the right-hand side
	recon := NewZMat(2, 1, true)
	zdotNN(recon, f.L, x, 1)
	assert.InDelta(t, real(want0), real(recon.At(0, 0)), 1e-12)
	assert.InDelta(t, imag(want0), imag(recon.At(0, 0)), 1e-12)
	assert.InDelta(t, real(want1), real(recon.At(1, 0)), 1e-12)
	assert.InDelta(t, imag(want1), imag(recon.At(1, 0)), 1e-12)
}

// Whatever the decomposition, b^H J^-1 b must come out the same. For
// b = I that Gram matrix is J^-1 itself.
func TestSolveCDAndEDAgree(t *testing.T) {
	eye := func() *ZMat {
		m := NewZMat(2, 2, false)
		m.Re.Set(0, 0, 1)
		m.Re.Set(1, 1, 1)
		return m
	}

	cd, err := decomposeMetric(spdReal2(t), 3, 1e-9, false)
	require.NoError(t, err)
	xcd, _, err := cd.Solve(eye())
	require.NoError(t, err)

	ed, err := decomposeMetric(spdReal2(t), 3, 1e-9, true)
	require.NoError(t, err)
	assert.Equal(t, TagED, ed.Tag)
	assert.Equal(t, 2, ed.Kept)
	xed, _, err := ed.Solve(eye())
	require.NoError(t, err)

	gcd := NewZMat(2, 2, false)
	zmul(gcd, xcd, false, true, xcd, false, false, 1)
	ged := NewZMat(2, 2, false)
	zmul(ged, xed, false, true, xed, false, false, 1)

	// J^-1 = [[0.375, -0.25], [-0.25, 0.5]]
	want := [][]float64{{0.375, -0.25}, {-0.25, 0.5}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, want[i][j], gcd.Re.At(i, j), 1e-12)
			assert.InDelta(t, want[i][j], ged.Re.At(i, j), 1e-12)
		}
	}
}

func TestDecomposeMetricIndefiniteFallsBack(t *testing.T) {
	f, err := decomposeMetric(diagReal(t, 1, -1), 1, 1e-9, false)
	require.NoError(t, err)
	assert.Equal(t, TagED, f.Tag)
	assert.Equal(t, 1, f.Kept)
	require.NotNil(t, f.FNeg, "negative branch kept outside 3D")
	nr, nc := f.FNeg.Dims()
	assert.Equal(t, 1, nr)
	assert.Equal(t, 2, nc)
}

func TestDecomposeMetricNegativeNoiseIn3D(t *testing.T) {
	f, err := decomposeMetric(diagReal(t, 1, -1), 3, 1e-9, false)
	require.NoError(t, err)
	assert.Equal(t, TagED, f.Tag)
	assert.Nil(t, f.FNeg, "3D cells discard negative eigenvalues")
	assert.Equal(t, 1, f.Kept)
}

func TestDecomposeMetricAllNegative(t *testing.T) {
	_, err := decomposeMetric(diagReal(t, -2, -1), 3, 1e-9, false)
	assert.ErrorIs(t, err, ErrLinearDependence)
}

func TestDecomposeMetricRelativeCut(t *testing.T) {
	f, err := decomposeMetric(diagReal(t, 1, 1e-12), 3, 1e-9, true)
	require.NoError(t, err)
	assert.Equal(t, TagED, f.Tag)
	assert.Equal(t, 1, f.Kept, "cut scales with the largest eigenvalue")
	assert.Nil(t, f.FNeg)
}

func TestSolveEDPseudoInverse(t *testing.T) {
	f, err := decomposeMetric(diagReal(t, 2, -3), 1, 1e-9, false)
	require.NoError(t, err)
	require.NotNil(t, f.FNeg)

	b := NewZMat(2, 2, false)
	b.Re.Set(0, 0, 1)
	b.Re.Set(1, 1, 1)
	out, neg, err := f.Solve(b)
	require.NoError(t, err)
	require.NotNil(t, neg)

	// out^T out - neg^T neg = J^-1 = diag(1/2, -1/3)
	pos := NewZMat(2, 2, false)
	zmul(pos, out, false, true, out, false, false, 1)
	nn := NewZMat(2, 2, false)
	zmul(nn, neg, false, true, neg, false, false, 1)
	assert.InDelta(t, 0.5, pos.Re.At(0, 0)-nn.Re.At(0, 0), 1e-12)
	assert.InDelta(t, -1.0/3, pos.Re.At(1, 1)-nn.Re.At(1, 1), 1e-12)
	assert.InDelta(t, 0, pos.Re.At(0, 1)-nn.Re.At(0, 1), 1e-12)
}
