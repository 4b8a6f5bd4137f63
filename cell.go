// cell.go --  This file is part of goGDF project.
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

	"gonum.org/v1/gonum/mat"
)

// LMax is the highest angular momentum a shell may carry.
const LMax = 7

const halfSphNorm = 0.28209479177387814 // 0.5/sqrt(pi)

// Atom is a nucleus position in bohr.
type Atom struct {
	Element string
	Coord   [3]float64
}

// Shell is one contracted Gaussian shell sitting on an atom. Coefs are
// weights of L2-normalized primitives until one of the Normalize
// methods folds the normalization in.
type Shell struct {
	Atom  int // index into Cell.Atoms
	L     int
	Exps  []float64
	Coefs []float64
}

// Cell is a periodic simulation cell carrying a Gaussian basis. Lattice
// rows are the direct lattice vectors in bohr; Dimension counts the
// periodic directions (non-periodic directions still carry a vacuum
// lattice vector so the cell volume is always defined).
type Cell struct {
	Lattice   [3][3]float64
	Dimension int
	Atoms     []Atom
	Shells    []Shell
	Cart      bool    // Cartesian shell components instead of pure spherical
	Precision float64 // integral accuracy target
	Rcut      float64 // real-space lattice sum radius, bohr
	Omega     float64 // range separation: 0 full, >0 long-range erf, <0 short-range erfc
}

// NewCell fills in defaults and validates. Shells may be appended
// afterwards with AddShell; Rcut is estimated lazily by EnsureRcut.
func NewCell(lattice [3][3]float64, dimension int, atoms []Atom) (*Cell, error) {
	c := &Cell{
		Lattice:   lattice,
		Dimension: dimension,
		Atoms:     atoms,
		Precision: 1e-8,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cell) AddShell(atom, l int, exps, coefs []float64) {
	c.Shells = append(c.Shells, Shell{Atom: atom, L: l, Exps: exps, Coefs: coefs})
}

func (c *Cell) Validate() error {
	if c.Dimension < 0 || c.Dimension > 3 {
		return fmt.Errorf("%w: dimension %d", ErrBadConfig, c.Dimension)
	}
	if c.Precision <= 0 {
		return fmt.Errorf("%w: precision %g", ErrBadConfig, c.Precision)
	}
	if v := c.Volume(); v <= 0 || math.IsNaN(v) {
		return fmt.Errorf("%w: singular lattice", ErrBadConfig)
	}
	for i, sh := range c.Shells {
		if sh.Atom < 0 || sh.Atom >= len(c.Atoms) {
			return fmt.Errorf("%w: shell %d on missing atom %d", ErrBadConfig, i, sh.Atom)
		}
		if sh.L < 0 || sh.L > LMax {
			return fmt.Errorf("%w: shell %d angular momentum %d", ErrBadConfig, i, sh.L)
		}
		if len(sh.Exps) == 0 || len(sh.Exps) != len(sh.Coefs) {
			return fmt.Errorf("%w: shell %d has %d exponents, %d coefficients",
				ErrBadConfig, i, len(sh.Exps), len(sh.Coefs))
		}
		for _, a := range sh.Exps {
			if a <= 0 {
				return fmt.Errorf("%w: shell %d exponent %g", ErrBadConfig, i, a)
			}
		}
	}
	return nil
}

// Copy returns a deep copy sharing no backing storage.
func (c *Cell) Copy() *Cell {
	cp := *c
	cp.Atoms = append([]Atom(nil), c.Atoms...)
	cp.Shells = make([]Shell, len(c.Shells))
	for i, sh := range c.Shells {
		cp.Shells[i] = Shell{
			Atom:  sh.Atom,
			L:     sh.L,
			Exps:  append([]float64(nil), sh.Exps...),
			Coefs: append([]float64(nil), sh.Coefs...),
		}
	}
	return &cp
}

func (c *Cell) Volume() float64 {
	a := c.Lattice
	det := a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])
	return math.Abs(det)
}

// RecipVectors returns the reciprocal lattice vectors as rows,
// b = 2*pi*inv(a)^T, so that dot(a_i, b_j) = 2*pi*delta_ij.
func (c *Cell) RecipVectors() [3][3]float64 {
	a := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a.Set(i, j, c.Lattice[i][j])
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		ErrorLogger.Println("singular lattice in RecipVectors:", err)
		return [3][3]float64{}
	}
	var b [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			b[i][j] = 2 * math.Pi * inv.At(j, i)
		}
	}
	return b
}

// ShellDim is the number of basis functions the shell spans.
func (c *Cell) ShellDim(i int) int {
	l := c.Shells[i].L
	if c.Cart {
		return (l + 1) * (l + 2) / 2
	}
	return 2*l + 1
}

// AOLoc returns the shell-to-function offset table, len(Shells)+1 long.
func (c *Cell) AOLoc() []int {
	loc := make([]int, len(c.Shells)+1)
	for i := range c.Shells {
		loc[i+1] = loc[i] + c.ShellDim(i)
	}
	return loc
}

// NFunc is the total basis function count.
func (c *Cell) NFunc() int {
	n := 0
	for i := range c.Shells {
		n += c.ShellDim(i)
	}
	return n
}

func (c *Cell) LMaxUsed() int {
	l := 0
	for _, sh := range c.Shells {
		if sh.L > l {
			l = sh.L
		}
	}
	return l
}

func (c *Cell) ShellCoord(i int) [3]float64 {
	return c.Atoms[c.Shells[i].Atom].Coord
}

// gaussianInt is int_0^inf r^n exp(-alpha r^2) dr.
func gaussianInt(n int, alpha float64) float64 {
	n1 := (float64(n) + 1) / 2
	return math.Gamma(n1) / (2 * math.Pow(alpha, n1))
}

// GTONorm is the L2 norm factor of the radial primitive r^l exp(-a r^2)
// against a unit-normalized spherical harmonic.
func GTONorm(l int, a float64) float64 {
	return 1 / math.Sqrt(gaussianInt(2*l+2, 2*a))
}

// NormalizeL2 folds primitive norms into the coefficients and scales
// every contraction to unit L2 norm. Meant for orbital cells.
func (c *Cell) NormalizeL2() {
	for si := range c.Shells {
		sh := &c.Shells[si]
		for p, a := range sh.Exps {
			sh.Coefs[p] *= GTONorm(sh.L, a)
		}
		s2 := 0.0
		for p, ap := range sh.Exps {
			for q, aq := range sh.Exps {
				s2 += sh.Coefs[p] * sh.Coefs[q] * gaussianInt(2*sh.L+2, ap+aq)
			}
		}
		if s2 > 0 {
			inv := 1 / math.Sqrt(s2)
			for p := range sh.Coefs {
				sh.Coefs[p] *= inv
			}
		}
	}
}

// NormalizeAux folds primitive norms in and rescales each contraction
// so its multipole integral equals halfSphNorm. With that convention an
// l=0 function carries unit charge and its planewave transform at G=0
// is exactly one, which the fused-metric construction relies on.
func (c *Cell) NormalizeAux() {
	for si := range c.Shells {
		sh := &c.Shells[si]
		for p, a := range sh.Exps {
			sh.Coefs[p] *= GTONorm(sh.L, a)
		}
		s := 0.0
		for p, a := range sh.Exps {
			s += sh.Coefs[p] * gaussianInt(2*sh.L+2, a)
		}
		if s != 0 {
			scale := halfSphNorm / s
			for p := range sh.Coefs {
				sh.Coefs[p] *= scale
			}
		}
	}
}

// SmoothShells classifies shells whose most compact primitive is below
// the planewave resolution, i.e. functions fully representable on the
// mesh. The threshold follows exp(-ke/(2 theta)) ~ precision.
func (c *Cell) SmoothShells(keCutoff float64) []bool {
	thr := keCutoff / (2 * math.Log(1/c.Precision))
	out := make([]bool, len(c.Shells))
	for i, sh := range c.Shells {
		amax := 0.0
		for _, a := range sh.Exps {
			if a > amax {
				amax = a
			}
		}
		out[i] = amax <= thr
	}
	return out
}

// EnsureRcut fills Rcut from the most diffuse primitive when unset.
// Two fixed-point rounds of r = sqrt(log(4 pi r^2 c^2 / precision) / a)
// on the shell with the smallest exponent.
func (c *Cell) EnsureRcut() {
	if c.Rcut > 0 || c.Dimension == 0 {
		return
	}
	r := 10.0
	for _, sh := range c.Shells {
		for p, a := range sh.Exps {
			cc := math.Abs(sh.Coefs[p])
			if cc == 0 {
				cc = 1
			}
			ri := 10.0
			for it := 0; it < 2; it++ {
				arg := 4 * math.Pi * ri * ri * cc * cc / c.Precision
				if arg < math.E {
					arg = math.E
				}
				ri = math.Sqrt(math.Log(arg) / a)
			}
			if ri > r {
				r = ri
			}
		}
	}
	c.Rcut = r
}

// LatticeTranslations enumerates lattice vectors with |L| <= rcut over
// the periodic directions. The set is inversion symmetric, which keeps
// lattice-summed one- and two-center matrices exactly Hermitian.
func (c *Cell) LatticeTranslations(rcut float64) [][3]float64 {
	if c.Dimension == 0 || rcut <= 0 {
		return [][3]float64{{0, 0, 0}}
	}
	b := c.RecipVectors()
	var nmax [3]int
	for i := 0; i < c.Dimension; i++ {
		bn := math.Sqrt(b[i][0]*b[i][0] + b[i][1]*b[i][1] + b[i][2]*b[i][2])
		nmax[i] = int(math.Ceil(rcut*bn/(2*math.Pi))) + 1
	}
	var ls [][3]float64
	for nx := -nmax[0]; nx <= nmax[0]; nx++ {
		for ny := -nmax[1]; ny <= nmax[1]; ny++ {
			for nz := -nmax[2]; nz <= nmax[2]; nz++ {
				var v [3]float64
				for d := 0; d < 3; d++ {
					v[d] = float64(nx)*c.Lattice[0][d] +
						float64(ny)*c.Lattice[1][d] +
						float64(nz)*c.Lattice[2][d]
				}
				r := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
				if r <= rcut {
					ls = append(ls, v)
				}
			}
		}
	}
	return ls
}
