// cderi.go --  This file is part of goGDF project.
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

// Decomposition tags of a stabilized metric.
const (
	TagCD = "CD"
	TagED = "ED"
)

// MetricFactor is the stabilized decomposition of a Coulomb metric.
// CD holds a lower-triangular Cholesky factor, on the real fast path
// in LReal. ED holds F with rows w^-1/2 conj(v)^T over the retained
// positive eigenpairs, and FNeg likewise over negative eigenpairs for
// cells that are not 3D-periodic.
type MetricFactor struct {
	Tag   string
	LReal *mat.TriDense
	L     *ZMat
	F     *ZMat
	FNeg  *ZMat
	Kept  int
}

// decomposeMetric stabilizes a Hermitian metric. Cholesky is attempted
// first; an indefinite matrix falls back to the eigenbasis, dropping
// eigenvalues below thr times the largest one. Negative eigenvalues
// beyond that cut form a separate branch when dim != 3; in a 3D cell
// they are noise and are discarded with a warning.
func decomposeMetric(j2c *ZMat, dim int, thr float64, eigAlways bool) (*MetricFactor, error) {
	n, _ := j2c.Dims()
	if !eigAlways {
		if j2c.IsReal() {
			if l, err := cholReal(j2c.Re); err == nil {
				return &MetricFactor{Tag: TagCD, LReal: l, Kept: n}, nil
			}
		} else {
			if l, err := cholZ(j2c); err == nil {
				return &MetricFactor{Tag: TagCD, L: l, Kept: n}, nil
			}
		}
		InfoLogger.Printf("metric not positive definite, switching to eigendecomposition")
	}

	w, v, err := hermEigZ(j2c)
	if err != nil {
		return nil, err
	}
	wmax := w[n-1]
	if wmax <= 0 {
		return nil, ErrLinearDependence
	}
	cut := thr * wmax
	var pos, neg []int
	for i, wi := range w {
		switch {
		case wi > cut:
			pos = append(pos, i)
		case wi < -cut:
			neg = append(neg, i)
		}
	}
	if dropped := n - len(pos) - len(neg); dropped > 0 {
		InfoLogger.Printf("cond = %.4g, drop %d auxiliary functions", wmax/w[0], dropped)
	}

	factorRows := func(idx []int, sign float64) *ZMat {
		f := NewZMat(len(idx), n, !v.IsReal())
		for r, i := range idx {
			s := 1 / math.Sqrt(sign*w[i])
			for j := 0; j < n; j++ {
				f.Re.Set(r, j, s*v.Re.At(j, i))
				if f.Im != nil {
					f.Im.Set(r, j, -s*v.Im.At(j, i))
				}
			}
		}
		return f
	}
	mf := &MetricFactor{Tag: TagED, F: factorRows(pos, 1), Kept: len(pos)}
	if len(neg) > 0 {
		if dim != 3 {
			mf.FNeg = factorRows(neg, -1)
		} else {
			WarningLogger.Printf("%d negative metric eigenvalues in a 3D cell, discarded as noise", len(neg))
		}
	}
	return mf, nil
}

// Solve maps one fused-and-reduced column block to fitting
// coefficients. CD overwrites b through a triangular half-solve; ED
// projects through the pseudo-inverse square root, with a second
// output for the negative branch when one exists.
func (f *MetricFactor) Solve(b *ZMat) (*ZMat, *ZMat, error) {
	switch f.Tag {
	case TagCD:
		if f.LReal != nil {
			trsmLower(f.LReal, b.Re)
			if b.Im != nil {
				trsmLower(f.LReal, b.Im)
			}
			return b, nil, nil
		}
		trisolveZ(f.L, b)
		return b, nil, nil
	case TagED:
		_, ncols := b.Dims()
		out := NewZMat(f.Kept, ncols, false)
		zdotNN(out, f.F, b, 1)
		var negOut *ZMat
		if f.FNeg != nil {
			nr, _ := f.FNeg.Dims()
			negOut = NewZMat(nr, ncols, false)
			zdotNN(negOut, f.FNeg, b, 1)
		}
		return out, negOut, nil
	}
	return nil, nil, ErrBuilderState
}
