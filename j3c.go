// j3c.go --  This file is part of goGDF project.
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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// auxbar is the interaction of each fused-cell function with the
// uniform background charge. Only 3D cells with a regular or long-range
// kernel carry it; the short-range Coulomb sum never sees the
// background. Nonzero entries appear on l = 0 functions only, each
// primitive contributing -1/exponent per unit of charge it carries.
func auxbar(fused *Cell) []float64 {
	loc := fused.AOLoc()
	vbar := make([]float64, loc[len(loc)-1])
	if fused.Dimension != 3 || fused.Omega < 0 {
		return vbar
	}
	for i, sh := range fused.Shells {
		if sh.L != 0 {
			continue
		}
		if len(sh.Exps) == 1 {
			vbar[loc[i]] = -1 / sh.Exps[0]
			continue
		}
		v := 0.0
		for p, a := range sh.Exps {
			// strip the unit-charge normalization to recover the
			// primitive charge weights
			v += sh.Coefs[p] * gaussianInt(2, a) / halfSphNorm * (-1 / a)
		}
		vbar[loc[i]] = v
	}
	floats.Scale(math.Pi/fused.Volume(), vbar)
	return vbar
}

// funcSmoothMask expands a per-shell smoothness mask to functions.
func funcSmoothMask(cell *Cell, smooth []bool) []bool {
	loc := cell.AOLoc()
	out := make([]bool, cell.NFunc())
	for i := range cell.Shells {
		for f := loc[i]; f < loc[i+1]; f++ {
			out[f] = smooth[i]
		}
	}
	return out
}

// ovlpColumns flattens the overlap matrices into the column layout of
// the three-center buffer, one slice pair per k-point. Smooth-smooth
// entries are zeroed when those pairs were excluded from the real-space
// integrals, so the background correction matches what the buffer holds.
func ovlpColumns(cell *Cell, eng IntegralEngine, kjs [][3]float64, smooth []bool, s2 bool) (re, im [][]float64, err error) {
	mats, err := eng.Ovlp(cell, kjs)
	if err != nil {
		return nil, nil, err
	}
	if smooth != nil {
		fsm := funcSmoothMask(cell, smooth)
		for _, m := range mats {
			for p := range fsm {
				if !fsm[p] {
					continue
				}
				for q := range fsm {
					if !fsm[q] {
						continue
					}
					m.Re.Set(p, q, 0)
					if m.Im != nil {
						m.Im.Set(p, q, 0)
					}
				}
			}
		}
	}
	re = make([][]float64, len(mats))
	im = make([][]float64, len(mats))
	for k, m := range mats {
		if s2 {
			re[k], im[k] = packTrilZ(m)
		} else {
			re[k], im[k] = ravelZ(m)
		}
	}
	return re, im, nil
}

// applyVbar subtracts the background term vbar[p] * ovlp[pq] from the
// buffer rows with nonzero vbar, over one column window.
func applyVbar(m *ZMat, vbar []float64, idx []int, ovR, ovI []float64, pr PairRange) {
	for _, p := range idx {
		for c := pr.Col0; c < pr.Col1; c++ {
			m.Re.Set(p, c-pr.Col0, m.Re.At(p, c-pr.Col0)-vbar[p]*ovR[c])
			if m.Im != nil && ovI != nil {
				m.Im.Set(p, c-pr.Col0, m.Im.At(p, c-pr.Col0)-vbar[p]*ovI[c])
			}
		}
	}
}

// weightedChgFT evaluates the model-charge planewave transforms over
// the whole grid and folds in the weighted Coulomb kernel, giving the
// left factor of every long-range contraction at this q.
func weightedChgFT(fused *Cell, nAuxShells int, grid *GGrid, ftev FTEvaluator, q [3]float64) (*ZMat, error) {
	ft, err := ftev.FTBasis(fused, grid, 0, grid.NG(), nAuxShells, len(fused.Shells), q)
	if err != nil {
		return nil, err
	}
	w := WeightedCoulG(fused, q, grid)
	_, nchg := ft.Dims()
	for g, wg := range w {
		for j := 0; j < nchg; j++ {
			ft.Re.Set(g, j, wg*ft.Re.At(g, j))
			ft.Im.Set(g, j, wg*ft.Im.At(g, j))
		}
	}
	return ft, nil
}

// addFTJ3C folds one planewave block into the model-charge rows of the
// buffers:
//
//	j3c[naux:] -= sum_G conj(wcoulG FT(chg, G)) FT(pq, G)
//
// A real buffer drops the imaginary accumulation; at the zone center it
// cancels between G and -G on the odd mesh.
func addFTJ3C(j3c, gpq []*ZMat, gchg *ZMat, g0, g1, naux int) {
	_, nchg := gchg.Dims()
	cR := gchg.Re.Slice(g0, g1, 0, nchg).(*mat.Dense)
	cI := gchg.Im.Slice(g0, g1, 0, nchg).(*mat.Dense)
	for k := range j3c {
		r, _ := j3c[k].Dims()
		dst := j3c[k].SliceRows(naux, r)
		gemmAcc(dst.Re, cR.T(), gpq[k].Re, -1)
		gemmAcc(dst.Re, cI.T(), gpq[k].Im, -1)
		if dst.Im != nil {
			gemmAcc(dst.Im, cR.T(), gpq[k].Im, -1)
			gemmAcc(dst.Im, cI.T(), gpq[k].Re, 1)
		}
	}
}

// pairBatches carves the orbital-pair columns into shell-aligned
// batches of at most budget columns, one shell minimum per batch.
func pairBatches(cell *Cell, s2 bool, budget int) []PairRange {
	loc := cell.AOLoc()
	nao := loc[len(loc)-1]
	colAt := func(i int) int {
		if s2 {
			return loc[i] * (loc[i] + 1) / 2
		}
		return loc[i] * nao
	}
	var out []PairRange
	for i := 0; i < len(cell.Shells); {
		j := i + 1
		for j < len(cell.Shells) && colAt(j+1)-colAt(i) <= budget {
			j++
		}
		out = append(out, PairRange{Ish0: i, Ish1: j, Col0: colAt(i), Col1: colAt(j)})
		i = j
	}
	return out
}

func ftBlocksize(maxMemoryMB, ncols, nk int) int {
	b := int(float64(maxMemoryMB) * .2e6 / 16 / float64(ncols*(nk+1)))
	if b < 2048 {
		b = 2048
	}
	return b
}

// j3cTask assembles and solves the fitting tensor for one group of
// k-point pairs sharing a momentum transfer.
type j3cTask struct {
	cell        *Cell
	fused       *Cell
	fz          *Fuse
	grid        *GGrid
	eng         IntegralEngine
	ftev        FTEvaluator
	factor      *MetricFactor
	group       QGroup
	kpts        [][3]float64
	smooth      []bool // nil keeps smooth-smooth pairs in real space
	nAuxShells  int
	maxMemoryMB int
}

func (t *j3cTask) run(store CderiStore) error {
	cell := t.cell
	naux := t.fz.NAux()
	nfused := t.fz.NFused()
	zone := IsZeroK(t.group.Q)
	s2 := zone
	kjs := make([][3]float64, len(t.group.Pairs))
	for i, p := range t.group.Pairs {
		kjs[i] = t.kpts[p.J]
	}

	var vbarIdx []int
	var vbar []float64
	var ovR, ovI [][]float64
	if zone && cell.Dimension == 3 {
		vbar = auxbar(t.fused)
		for i, v := range vbar {
			if v != 0 {
				vbarIdx = append(vbarIdx, i)
			}
		}
		if len(vbarIdx) > 0 {
			var err error
			ovR, ovI, err = ovlpColumns(cell, t.eng, kjs, t.smooth, s2)
			if err != nil {
				return err
			}
		}
	}

	gchg, err := weightedChgFT(t.fused, t.nAuxShells, t.grid, t.ftev, t.group.Q)
	if err != nil {
		return err
	}

	budget := int(float64(t.maxMemoryMB) * .3e6 / 16 / float64(nfused*(len(kjs)+1)))
	if budget < 1 {
		budget = 1
	}
	batches := pairBatches(cell, s2, budget)
	widest := 1
	for _, pr := range batches {
		if w := pr.Col1 - pr.Col0; w > widest {
			widest = w
		}
	}
	gBlk := ftBlocksize(t.maxMemoryMB, widest, len(kjs))
	ngrids := t.grid.NG()

	for _, pr := range batches {
		j3c, err := t.eng.Int3c2e(cell, t.fused, pr, t.group.Q, kjs, s2, t.smooth)
		if err != nil {
			return err
		}
		if len(vbarIdx) > 0 {
			for k := range j3c {
				applyVbar(j3c[k], vbar, vbarIdx, ovR[k], ovI[k], pr)
			}
		}
		for g0 := 0; g0 < ngrids; g0 += gBlk {
			g1 := g0 + gBlk
			if g1 > ngrids {
				g1 = ngrids
			}
			gpq, err := t.ftev.FTPairs(cell, t.grid, g0, g1, pr, t.group.Q, kjs, s2)
			if err != nil {
				return err
			}
			addFTJ3C(j3c, gpq, gchg, g0, g1, naux)
		}
		for k, pair := range t.group.Pairs {
			blk, err := t.fz.Apply(j3c[k])
			if err != nil {
				return err
			}
			cderi, neg, err := t.factor.Solve(blk)
			if err != nil {
				return err
			}
			kk := pair.Index(len(t.kpts))
			if err := putCderi(store, kk, pr.Col0, cderi, neg); err != nil {
				return err
			}
		}
	}
	return nil
}

func putCderi(store CderiStore, kk, col0 int, cderi, neg *ZMat) error {
	wrap := func(err error) error {
		if err != nil {
			return fmt.Errorf("%w: cderi block kk=%d col=%d: %v", ErrResource, kk, col0, err)
		}
		return nil
	}
	if err := wrap(store.PutReal(kk, col0, cderi.Re)); err != nil {
		return err
	}
	if cderi.Im != nil {
		if err := wrap(store.PutImag(kk, col0, cderi.Im)); err != nil {
			return err
		}
	}
	if neg != nil {
		if err := wrap(store.PutNegReal(kk, col0, neg.Re)); err != nil {
			return err
		}
		if neg.Im != nil {
			if err := wrap(store.PutNegImag(kk, col0, neg.Im)); err != nil {
				return err
			}
		}
	}
	return nil
}
