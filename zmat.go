// zmat.go --  This file is part of goGDF project.
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

	"gonum.org/v1/gonum/mat"
)

// ZMat is a complex matrix held as separate real and imaginary parts so
// every contraction runs through real GEMMs. Im == nil marks an exactly
// real matrix; zone-center quantities stay on that fast path and every
// kernel treats a nil Im as zero.
type ZMat struct {
	Re *mat.Dense
	Im *mat.Dense
}

// NewZMat allocates an r x c zero matrix, with an imaginary part only
// when withIm is set.
func NewZMat(r, c int, withIm bool) *ZMat {
	z := &ZMat{Re: mat.NewDense(r, c, nil)}
	if withIm {
		z.Im = mat.NewDense(r, c, nil)
	}
	return z
}

func (m *ZMat) Dims() (int, int) { return m.Re.Dims() }

func (m *ZMat) IsReal() bool { return m.Im == nil }

// EnsureIm allocates a zero imaginary part if the matrix is real.
func (m *ZMat) EnsureIm() {
	if m.Im == nil {
		r, c := m.Re.Dims()
		m.Im = mat.NewDense(r, c, nil)
	}
}

func (m *ZMat) At(i, j int) complex128 {
	if m.Im == nil {
		return complex(m.Re.At(i, j), 0)
	}
	return complex(m.Re.At(i, j), m.Im.At(i, j))
}

func (m *ZMat) Set(i, j int, v complex128) {
	m.Re.Set(i, j, real(v))
	if imag(v) != 0 || m.Im != nil {
		m.EnsureIm()
		m.Im.Set(i, j, imag(v))
	}
}

func (m *ZMat) Copy() *ZMat {
	r, c := m.Dims()
	out := NewZMat(r, c, m.Im != nil)
	out.Re.Copy(m.Re)
	if m.Im != nil {
		out.Im.Copy(m.Im)
	}
	return out
}

// SliceRows returns a view of rows [i0, i1). Writes through the view
// modify the parent.
func (m *ZMat) SliceRows(i0, i1 int) *ZMat {
	_, c := m.Dims()
	out := &ZMat{Re: m.Re.Slice(i0, i1, 0, c).(*mat.Dense)}
	if m.Im != nil {
		out.Im = m.Im.Slice(i0, i1, 0, c).(*mat.Dense)
	}
	return out
}

func (m *ZMat) Scale(a float64) {
	m.Re.Scale(a, m.Re)
	if m.Im != nil {
		m.Im.Scale(a, m.Im)
	}
}

// Sub subtracts x in place. x must have the same shape; a complex x
// promotes a real receiver.
func (m *ZMat) Sub(x *ZMat) {
	m.Re.Sub(m.Re, x.Re)
	if x.Im != nil {
		m.EnsureIm()
		m.Im.Sub(m.Im, x.Im)
	}
}

// Hermitize replaces M by (M + M^H)/2 in place. M must be square.
func (m *ZMat) Hermitize() {
	n, c := m.Dims()
	if n != c {
		panic("gogdf: Hermitize of non-square matrix")
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			re := 0.5 * (m.Re.At(i, j) + m.Re.At(j, i))
			m.Re.Set(i, j, re)
			m.Re.Set(j, i, re)
		}
	}
	if m.Im == nil {
		return
	}
	for i := 0; i < n; i++ {
		m.Im.Set(i, i, 0)
		for j := i + 1; j < n; j++ {
			im := 0.5 * (m.Im.At(i, j) - m.Im.At(j, i))
			m.Im.Set(i, j, im)
			m.Im.Set(j, i, -im)
		}
	}
}

// MaxAbsIm is the largest |imag| entry, 0 for a real matrix.
func (m *ZMat) MaxAbsIm() float64 {
	if m.Im == nil {
		return 0
	}
	r, c := m.Im.Dims()
	v := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if a := math.Abs(m.Im.At(i, j)); a > v {
				v = a
			}
		}
	}
	return v
}

// DropIm discards an imaginary part that is pure numerical noise,
// logging a warning when it is not.
func (m *ZMat) DropIm(tol float64) {
	if m.Im == nil {
		return
	}
	if mx := m.MaxAbsIm(); mx > tol {
		WarningLogger.Printf("discarding imaginary part |Im|max = %.3e above %.1e", mx, tol)
	}
	m.Im = nil
}

func gemmAcc(dst *mat.Dense, a, b mat.Matrix, alpha float64) {
	var t mat.Dense
	t.Mul(a, b)
	if alpha != 1 {
		t.Scale(alpha, &t)
	}
	if dst.IsEmpty() {
		dst.CloneFrom(&t)
		return
	}
	dst.Add(dst, &t)
}

// zmul accumulates dst += alpha * opA(a) . opB(b) where opX optionally
// conjugates and transposes. All complex arithmetic decomposes into
// real products:
//
//	Re += alpha (Ar Br - sa sb Ai Bi)
//	Im += alpha (sa Ai Br + sb Ar Bi)
//
// with sa, sb = -1 under conjugation. Terms with a nil imaginary factor
// drop out; dst grows an imaginary part only when one survives.
func zmul(dst *ZMat, a *ZMat, conjA, transA bool, b *ZMat, conjB, transB bool, alpha float64) {
	opp := func(m *mat.Dense, trans bool) mat.Matrix {
		if m == nil {
			return nil
		}
		if trans {
			return m.T()
		}
		return m
	}
	sa, sb := 1.0, 1.0
	if conjA {
		sa = -1
	}
	if conjB {
		sb = -1
	}
	ar, ai := opp(a.Re, transA), opp(a.Im, transA)
	br, bi := opp(b.Re, transB), opp(b.Im, transB)

	gemmAcc(dst.Re, ar, br, alpha)
	if ai != nil && bi != nil {
		gemmAcc(dst.Re, ai, bi, -sa*sb*alpha)
	}
	if ai != nil {
		dst.EnsureIm()
		gemmAcc(dst.Im, ai, br, sa*alpha)
	}
	if bi != nil {
		dst.EnsureIm()
		gemmAcc(dst.Im, ar, bi, sb*alpha)
	}
}

// Named contraction flavors: plain, conjugated left, conjugated right.
func zdotNN(dst, a, b *ZMat, alpha float64) { zmul(dst, a, false, false, b, false, false, alpha) }
func zdotCN(dst, a, b *ZMat, alpha float64) { zmul(dst, a, true, false, b, false, false, alpha) }
func zdotNC(dst, a, b *ZMat, alpha float64) { zmul(dst, a, false, false, b, true, false, alpha) }

// packTrilZ packs the lower triangle of a square matrix row-major into
// flat slices, imaginary part nil for a real input.
func packTrilZ(m *ZMat) (re, im []float64) {
	n, _ := m.Dims()
	np := n * (n + 1) / 2
	re = make([]float64, np)
	k := 0
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			re[k] = m.Re.At(i, j)
			k++
		}
	}
	if m.Im == nil {
		return re, nil
	}
	im = make([]float64, np)
	k = 0
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			im[k] = m.Im.At(i, j)
			k++
		}
	}
	return re, im
}

// ravelZ flattens a matrix row-major.
func ravelZ(m *ZMat) (re, im []float64) {
	r, c := m.Dims()
	re = make([]float64, r*c)
	for i := 0; i < r; i++ {
		copy(re[i*c:(i+1)*c], m.Re.RawRowView(i))
	}
	if m.Im == nil {
		return re, nil
	}
	im = make([]float64, r*c)
	for i := 0; i < r; i++ {
		copy(im[i*c:(i+1)*c], m.Im.RawRowView(i))
	}
	return re, im
}
