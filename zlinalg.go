// zlinalg.go --  This file is part of goGDF project.
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

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// cholReal returns the lower Cholesky factor of a real symmetric
// positive definite matrix.
func cholReal(a *mat.Dense) (*mat.TriDense, error) {
	n, _ := a.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, a.At(i, j))
		}
	}
	var ch mat.Cholesky
	if !ch.Factorize(sym) {
		return nil, ErrLinearDependence
	}
	l := mat.NewTriDense(n, mat.Lower, nil)
	ch.LTo(l)
	return l, nil
}

// trsmLower solves L X = B in place of B for a real lower triangular L.
func trsmLower(l *mat.TriDense, b *mat.Dense) {
	blas64.Trsm(blas.Left, blas.NoTrans, 1, l.RawTriangular(), b.RawMatrix())
}

// cholZ is the left-looking lower Cholesky factorization of a Hermitian
// positive definite split-complex matrix. A non-positive pivot reports
// ErrLinearDependence.
func cholZ(m *ZMat) (*ZMat, error) {
	n, c := m.Dims()
	if n != c {
		panic("gogdf: cholZ of non-square matrix")
	}
	l := m.Copy()
	l.EnsureIm()
	for j := 0; j < n; j++ {
		d := l.Re.At(j, j)
		for k := 0; k < j; k++ {
			ar, ai := l.Re.At(j, k), l.Im.At(j, k)
			d -= ar*ar + ai*ai
		}
		if d <= 0 || math.IsNaN(d) {
			return nil, fmt.Errorf("%w: pivot %d = %g", ErrLinearDependence, j, d)
		}
		ljj := math.Sqrt(d)
		l.Re.Set(j, j, ljj)
		l.Im.Set(j, j, 0)
		for i := j + 1; i < n; i++ {
			sr, si := l.Re.At(i, j), l.Im.At(i, j)
			for k := 0; k < j; k++ {
				ar, ai := l.Re.At(i, k), l.Im.At(i, k)
				br, bi := l.Re.At(j, k), l.Im.At(j, k)
				sr -= ar*br + ai*bi
				si -= ai*br - ar*bi
			}
			l.Re.Set(i, j, sr/ljj)
			l.Im.Set(i, j, si/ljj)
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			l.Re.Set(i, j, 0)
			l.Im.Set(i, j, 0)
		}
	}
	return l, nil
}

// trisolveZ solves L X = B in place of B for a split-complex lower
// triangular L with a real positive diagonal.
func trisolveZ(l *ZMat, b *ZMat) {
	n, _ := l.Dims()
	b.EnsureIm()
	for i := 0; i < n; i++ {
		bri := b.Re.RawRowView(i)
		bii := b.Im.RawRowView(i)
		for k := 0; k < i; k++ {
			lr := l.Re.At(i, k)
			li := 0.0
			if l.Im != nil {
				li = l.Im.At(i, k)
			}
			brk := b.Re.RawRowView(k)
			bik := b.Im.RawRowView(k)
			if lr != 0 {
				floats.AddScaled(bri, -lr, brk)
				floats.AddScaled(bii, -lr, bik)
			}
			if li != 0 {
				floats.AddScaled(bri, li, bik)
				floats.AddScaled(bii, -li, brk)
			}
		}
		inv := 1 / l.Re.At(i, i)
		floats.Scale(inv, bri)
		floats.Scale(inv, bii)
	}
}

// hermEigZ diagonalizes a Hermitian split-complex matrix. A real input
// goes straight to EigenSym. A complex one is embedded into the real
// symmetric 2n x 2n matrix [[A, -B], [B, A]]: each complex eigenpair
// shows up twice in the embedding, once as (p; q) and once as the phase
// copy (-q; p), so walking the eigenvectors in ascending eigenvalue
// order and Gram-Schmidt-rejecting duplicates recovers exactly n
// orthonormal complex eigenvectors. Eigenvalues come back ascending.
func hermEigZ(m *ZMat) (vals []float64, vecs *ZMat, err error) {
	n, c := m.Dims()
	if n != c {
		panic("gogdf: hermEigZ of non-square matrix")
	}
	if m.Im == nil {
		sym := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				sym.SetSym(i, j, m.Re.At(i, j))
			}
		}
		var eig mat.EigenSym
		if !eig.Factorize(sym, true) {
			return nil, nil, fmt.Errorf("%w: eigendecomposition failed", ErrLinearDependence)
		}
		var v mat.Dense
		eig.VectorsTo(&v)
		return eig.Values(nil), &ZMat{Re: &v}, nil
	}

	big := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			big.SetSym(i, j, m.Re.At(i, j))
			big.SetSym(n+i, n+j, m.Re.At(i, j))
		}
		for j := 0; j < n; j++ {
			big.SetSym(i, n+j, -m.Im.At(i, j))
		}
	}
	var eig mat.EigenSym
	if !eig.Factorize(big, true) {
		return nil, nil, fmt.Errorf("%w: eigendecomposition failed", ErrLinearDependence)
	}
	var v mat.Dense
	eig.VectorsTo(&v)
	ew := eig.Values(nil)

	vecs = NewZMat(n, n, true)
	vals = make([]float64, 0, n)
	vr := make([]float64, n)
	vi := make([]float64, n)
	for idx := 0; idx < 2*n && len(vals) < n; idx++ {
		for i := 0; i < n; i++ {
			vr[i] = v.At(i, idx)
			vi[i] = v.At(n+i, idx)
		}
		// project out the already accepted vectors
		for k := 0; k < len(vals); k++ {
			cr, ci := 0.0, 0.0
			for i := 0; i < n; i++ {
				ur, ui := vecs.Re.At(i, k), vecs.Im.At(i, k)
				cr += ur*vr[i] + ui*vi[i]
				ci += ur*vi[i] - ui*vr[i]
			}
			for i := 0; i < n; i++ {
				ur, ui := vecs.Re.At(i, k), vecs.Im.At(i, k)
				vr[i] -= cr*ur - ci*ui
				vi[i] -= cr*ui + ci*ur
			}
		}
		nrm2 := floats.Dot(vr, vr) + floats.Dot(vi, vi)
		if nrm2 <= 0.5 {
			continue // phase copy of an accepted vector
		}
		inv := 1 / math.Sqrt(nrm2)
		k := len(vals)
		for i := 0; i < n; i++ {
			vecs.Re.Set(i, k, vr[i]*inv)
			vecs.Im.Set(i, k, vi[i]*inv)
		}
		vals = append(vals, ew[idx])
	}
	if len(vals) < n {
		return nil, nil, fmt.Errorf("%w: embedded eigenbasis incomplete", ErrLinearDependence)
	}
	return vals, vecs, nil
}
