// fuse.go --  This file is part of goGDF project.
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
	"gonum.org/v1/gonum/floats"
)

// Fuse eliminates the model-charge degrees of freedom from quantities
// computed in the fused basis. It is a pure value object: Apply and
// ApplyT allocate their results and never share scratch, so one Fuse
// may serve concurrent workers.
type Fuse struct {
	naux    int // aux function count in the cell's component convention
	nauxSph int // spherical aux count, the output row count
	nfused  int
	cart    bool
	shells  []fuseShell
}

type fuseShell struct {
	l      int
	auxOff int // into the aux block, cell convention
	sphOff int // into the output, spherical convention
	chgOff int // into the charge block, -1 when no matching model shell
}

// BuildFusedCell concatenates aux with its model-charge basis and
// returns the fused cell together with the Fuse operator that maps
// fused-basis rows back onto (spherical) auxiliary rows.
func BuildFusedCell(aux *Cell, eta float64) (*Cell, *Fuse, error) {
	chg, err := MakeChargeBasis(aux, eta)
	if err != nil {
		return nil, nil, err
	}
	fused := aux.Copy()
	fused.Shells = append(fused.Shells, chg.Shells...)
	if chg.Rcut > fused.Rcut {
		fused.Rcut = chg.Rcut
	}

	// charge-row offset per (atom, l)
	var offset [][LMax + 1]int
	offset = make([][LMax + 1]int, len(aux.Atoms))
	for ia := range offset {
		for l := range offset[ia] {
			offset[ia][l] = -1
		}
	}
	chgLoc := chg.AOLoc()
	for i, sh := range chg.Shells {
		offset[sh.Atom][sh.L] = chgLoc[i]
	}

	f := &Fuse{
		naux:   aux.NFunc(),
		nfused: fused.NFunc(),
		cart:   aux.Cart,
	}
	auxLoc := aux.AOLoc()
	sph := 0
	for i, sh := range aux.Shells {
		f.shells = append(f.shells, fuseShell{
			l:      sh.L,
			auxOff: auxLoc[i],
			sphOff: sph,
			chgOff: offset[sh.Atom][sh.L],
		})
		sph += 2*sh.L + 1
	}
	f.nauxSph = sph
	return fused, f, nil
}

func (f *Fuse) NAux() int    { return f.naux }
func (f *Fuse) NAuxSph() int { return f.nauxSph }
func (f *Fuse) NFused() int  { return f.nfused }

// Apply maps a (nfused x m) block to (nauxSph x m): each auxiliary row
// loses the model-charge row of its (atom, l), and Cartesian cells are
// rotated to spherical components after the subtraction. The input is
// left untouched.
func (f *Fuse) Apply(src *ZMat) (*ZMat, error) {
	r, cols := src.Dims()
	if r != f.nfused {
		panic("gogdf: Fuse.Apply row count mismatch")
	}
	out := NewZMat(f.nauxSph, cols, src.Im != nil)
	if !f.cart {
		sub := func(dst, s, c []float64) {
			if c == nil {
				copy(dst, s)
				return
			}
			floats.SubTo(dst, s, c)
		}
		for _, sh := range f.shells {
			nd := 2*sh.l + 1
			for m := 0; m < nd; m++ {
				var chgRe, chgIm []float64
				if sh.chgOff >= 0 {
					chgRe = src.Re.RawRowView(f.naux + sh.chgOff + m)
					if src.Im != nil {
						chgIm = src.Im.RawRowView(f.naux + sh.chgOff + m)
					}
				}
				sub(out.Re.RawRowView(sh.sphOff+m), src.Re.RawRowView(sh.auxOff+m), chgRe)
				if src.Im != nil {
					sub(out.Im.RawRowView(sh.sphOff+m), src.Im.RawRowView(sh.auxOff+m), chgIm)
				}
			}
		}
		return out, nil
	}

	// Cartesian: subtract on Cartesian components, then rotate the
	// difference. Normalization differs per component, so the order
	// matters.
	for _, sh := range f.shells {
		nd := cartDim(sh.l)
		diff := NewZMat(nd, cols, src.Im != nil)
		for m := 0; m < nd; m++ {
			copy(diff.Re.RawRowView(m), src.Re.RawRowView(sh.auxOff+m))
			if src.Im != nil {
				copy(diff.Im.RawRowView(m), src.Im.RawRowView(sh.auxOff+m))
			}
			if sh.chgOff >= 0 {
				floats.Sub(diff.Re.RawRowView(m), src.Re.RawRowView(f.naux+sh.chgOff+m))
				if src.Im != nil {
					floats.Sub(diff.Im.RawRowView(m), src.Im.RawRowView(f.naux+sh.chgOff+m))
				}
			}
		}
		if err := applyC2S(out, sh.sphOff, diff, 0, sh.l); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ApplyT fuses along columns: out = Apply(src^T)^T.
func (f *Fuse) ApplyT(src *ZMat) (*ZMat, error) {
	t := transposeZ(src)
	ft, err := f.Apply(t)
	if err != nil {
		return nil, err
	}
	return transposeZ(ft), nil
}

func transposeZ(m *ZMat) *ZMat {
	r, c := m.Dims()
	out := NewZMat(c, r, m.Im != nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Re.Set(j, i, m.Re.At(i, j))
		}
	}
	if m.Im != nil {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				out.Im.Set(j, i, m.Im.At(i, j))
			}
		}
	}
	return out
}
