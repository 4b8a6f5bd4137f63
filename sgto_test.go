// sgto_test.go --  This file is part of goGDF project.
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

// vacuumCell is a molecular (dimension 0) cell: the lattice only sets
// the volume, no translation images enter any sum.
func vacuumCell(t *testing.T, atoms ...Atom) *Cell {
	t.Helper()
	c, err := NewCell(cubicLattice(60), 0, atoms)
	require.NoError(t, err)
	return c
}

func TestBoys(t *testing.T) {
	assert.Equal(t, 1.0, boys(0, 0))
	assert.Equal(t, 0.2, boys(0, 2))

	// F0(1) = sqrt(pi)/2 erf(1)
	assert.InDelta(t, 0.7468241328, boys(1, 0), 1e-9)
	// downward recurrence F1(t) = (F0(t) - exp(-t)) / (2t)
	want := (boys(1, 0) - math.Exp(-1)) / 2
	assert.InDelta(t, want, boys(1, 1), 1e-12)

	assert.Less(t, boys(2, 0), boys(1, 0), "decreasing in the argument")
}

func TestBoysRangeSeparation(t *testing.T) {
	const tt, rho, w = 0.7, 0.9, 0.6
	assert.Equal(t, boys(tt, 0), boys0RS(tt, rho, 0))

	lr := boys0RS(tt, rho, w)
	sr := boys0RS(tt, rho, -w)
	assert.InDelta(t, boys(tt, 0), lr+sr, 1e-14, "erf and erfc parts sum to the bare kernel")
	assert.Greater(t, lr, 0.0)
	assert.Greater(t, sr, 0.0)
}

func TestCheckSOnly(t *testing.T) {
	eng := NewSGTOEngine()

	c := vacuumCell(t, Atom{Element: "H"})
	c.AddShell(0, 1, []float64{1}, []float64{1})
	_, err := eng.Ovlp(c, [][3]float64{{0, 0, 0}})
	assert.ErrorIs(t, err, ErrUnsupportedShell)
	_, err = eng.Int2c2e(c, [3]float64{})
	assert.ErrorIs(t, err, ErrUnsupportedShell)

	c2 := vacuumCell(t, Atom{Element: "H"})
	c2.Cart = true
	c2.AddShell(0, 0, []float64{1}, []float64{1})
	_, err = eng.Int2c2e(c2, [3]float64{})
	assert.ErrorIs(t, err, ErrUnsupportedShell)
}

func TestOvlpNormalizedDiagonal(t *testing.T) {
	c := vacuumCell(t, Atom{Element: "H"})
	c.AddShell(0, 0, []float64{1.2}, []float64{1})
	c.AddShell(0, 0, []float64{1.5, 0.4}, []float64{0.6, 0.5})
	c.NormalizeL2()

	s, err := NewSGTOEngine().Ovlp(c, [][3]float64{{0, 0, 0}})
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.True(t, s[0].IsReal())
	assert.InDelta(t, 1, s[0].Re.At(0, 0), 1e-12)
	assert.InDelta(t, 1, s[0].Re.At(1, 1), 1e-12)
	assert.InDelta(t, s[0].Re.At(0, 1), s[0].Re.At(1, 0), 1e-14)
}

func TestOvlpHermitianAtK(t *testing.T) {
	c, err := NewCell(cubicLattice(4), 3, []Atom{
		{Element: "H"}, {Element: "H", Coord: [3]float64{1, 0.5, 0.3}},
	})
	require.NoError(t, err)
	c.AddShell(0, 0, []float64{0.9}, []float64{1})
	c.AddShell(1, 0, []float64{0.7}, []float64{1})
	c.NormalizeL2()

	s, err := NewSGTOEngine().Ovlp(c, [][3]float64{{0.3, 0.1, -0.2}})
	require.NoError(t, err)
	require.False(t, s[0].IsReal())
	assert.Less(t, hermDefect(s[0]), 1e-12, "inversion-symmetric sum keeps S(k) Hermitian")
}

func TestInt2c2ePointChargeLimit(t *testing.T) {
	c := vacuumCell(t,
		Atom{Element: "X"},
		Atom{Element: "X", Coord: [3]float64{20, 0, 0}},
	)
	c.AddShell(0, 0, []float64{1}, []float64{1})
	c.AddShell(1, 0, []float64{1}, []float64{1})
	c.NormalizeAux()

	j, err := NewSGTOEngine().Int2c2e(c, [3]float64{})
	require.NoError(t, err)
	assert.True(t, j.IsReal())

	// unit charges far apart interact like points
	assert.InDelta(t, 1.0/20, j.Re.At(0, 1), 1e-13)
	assert.InDelta(t, j.Re.At(0, 1), j.Re.At(1, 0), 1e-14)
	// self-interaction of a unit Gaussian charge: sqrt(2 a / pi)
	assert.InDelta(t, math.Sqrt(2/math.Pi), j.Re.At(0, 0), 1e-12)
}

func TestInt2c2eHermitianAtQ(t *testing.T) {
	c, err := NewCell(cubicLattice(5), 3, []Atom{
		{Element: "X"}, {Element: "X", Coord: [3]float64{1.2, 0, 0.4}},
	})
	require.NoError(t, err)
	c.AddShell(0, 0, []float64{1.1}, []float64{1})
	c.AddShell(1, 0, []float64{0.9}, []float64{1})
	c.NormalizeAux()

	j, err := NewSGTOEngine().Int2c2e(c, [3]float64{0.2, -0.1, 0.3})
	require.NoError(t, err)
	require.False(t, j.IsReal())
	assert.Less(t, hermDefect(j), 1e-12)
}

func TestInt3c2eChargeLimit(t *testing.T) {
	cell := vacuumCell(t, Atom{Element: "H"})
	cell.AddShell(0, 0, []float64{1}, []float64{1})
	cell.NormalizeL2()

	aux := vacuumCell(t, Atom{Element: "X", Coord: [3]float64{25, 0, 0}})
	aux.AddShell(0, 0, []float64{1}, []float64{1})
	aux.NormalizeAux()

	pr := PairRange{Ish0: 0, Ish1: 1, Col0: 0, Col1: 1}
	out, err := NewSGTOEngine().Int3c2e(cell, aux, pr, [3]float64{}, [][3]float64{{0, 0, 0}}, true, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsReal())

	// the pair density carries charge S_pp = 1, the far auxiliary
	// function sees it as a point charge
	assert.InDelta(t, 1.0/25, out[0].Re.At(0, 0), 1e-13)
}

func TestInt3c2eS2MatchesFull(t *testing.T) {
	cell := vacuumCell(t, Atom{Element: "H"}, Atom{Element: "H", Coord: [3]float64{1.5, 0, 0}})
	cell.AddShell(0, 0, []float64{1.0}, []float64{1})
	cell.AddShell(1, 0, []float64{0.8}, []float64{1})
	cell.NormalizeL2()

	aux := vacuumCell(t, Atom{Element: "X", Coord: [3]float64{0.5, 1, 0}})
	aux.AddShell(0, 0, []float64{1.2}, []float64{1})
	aux.NormalizeAux()

	eng := NewSGTOEngine()
	kj := [][3]float64{{0, 0, 0}}
	nao := cell.NFunc()

	full, err := eng.Int3c2e(cell, aux, PairRange{0, 2, 0, nao * nao}, [3]float64{}, kj, false, nil)
	require.NoError(t, err)
	packed, err := eng.Int3c2e(cell, aux, PairRange{0, 2, 0, nao * (nao + 1) / 2}, [3]float64{}, kj, true, nil)
	require.NoError(t, err)

	// packed column (p, q), p >= q, equals full column p*nao + q
	for p := 0; p < nao; p++ {
		for q := 0; q <= p; q++ {
			want := full[0].Re.At(0, p*nao+q)
			got := packed[0].Re.At(0, p*(p+1)/2+q)
			assert.InDelta(t, want, got, 1e-14)
		}
	}
	// and the full buffer itself is symmetric in (p, q) at the zone center
	assert.InDelta(t, full[0].Re.At(0, 1), full[0].Re.At(0, nao), 1e-14)
}

func TestInt3c2eSkipSmooth(t *testing.T) {
	cell := vacuumCell(t, Atom{Element: "H"})
	cell.AddShell(0, 0, []float64{0.3}, []float64{1})
	cell.NormalizeL2()

	aux := vacuumCell(t, Atom{Element: "X"})
	aux.AddShell(0, 0, []float64{1.0}, []float64{1})
	aux.NormalizeAux()

	eng := NewSGTOEngine()
	pr := PairRange{0, 1, 0, 1}
	kj := [][3]float64{{0, 0, 0}}

	kept, err := eng.Int3c2e(cell, aux, pr, [3]float64{}, kj, true, nil)
	require.NoError(t, err)
	assert.NotZero(t, kept[0].Re.At(0, 0))

	skipped, err := eng.Int3c2e(cell, aux, pr, [3]float64{}, kj, true, []bool{true})
	require.NoError(t, err)
	assert.Zero(t, skipped[0].Re.At(0, 0), "smooth-smooth pairs drop out of the real-space sum")
}

func TestFTBasisUnitCharge(t *testing.T) {
	aux := vacuumCell(t, Atom{Element: "X"})
	aux.AddShell(0, 0, []float64{0.9}, []float64{1})
	aux.NormalizeAux()
	grid := NewGGrid(aux, [3]int{3, 3, 3})

	ft, err := NewSGTOEngine().FTBasis(aux, grid, 0, grid.NG(), 0, 1, [3]float64{})
	require.NoError(t, err)
	r, c := ft.Dims()
	assert.Equal(t, grid.NG(), r)
	assert.Equal(t, 1, c)

	// G = 0 sees the total charge
	assert.InDelta(t, 1, ft.Re.At(0, 0), 1e-12)
	assert.InDelta(t, 0, ft.Im.At(0, 0), 1e-14)

	// finite G decays like the Gaussian form factor
	g1 := grid.Gv[1]
	want := math.Exp(-dot3(g1, g1) / (4 * 0.9))
	assert.InDelta(t, want, ft.Re.At(1, 0), 1e-12)
}

func TestFTBasisPhase(t *testing.T) {
	r0 := [3]float64{0.7, -0.3, 1.1}
	aux := vacuumCell(t, Atom{Element: "X", Coord: r0})
	aux.AddShell(0, 0, []float64{0.9}, []float64{1})
	aux.NormalizeAux()
	grid := NewGGrid(aux, [3]int{3, 3, 3})

	ft, err := NewSGTOEngine().FTBasis(aux, grid, 0, grid.NG(), 0, 1, [3]float64{})
	require.NoError(t, err)

	for _, g := range []int{1, 5, 13} {
		gv := grid.Gv[g]
		amp := math.Exp(-dot3(gv, gv) / (4 * 0.9))
		ph := -dot3(gv, r0)
		assert.InDelta(t, amp*math.Cos(ph), ft.Re.At(g, 0), 1e-12)
		assert.InDelta(t, amp*math.Sin(ph), ft.Im.At(g, 0), 1e-12)
	}
}

func TestFTPairsOverlapAtG0(t *testing.T) {
	cell := vacuumCell(t, Atom{Element: "H"})
	cell.AddShell(0, 0, []float64{1.1}, []float64{1})
	cell.NormalizeL2()
	grid := NewGGrid(cell, [3]int{3, 3, 3})

	pr := PairRange{0, 1, 0, 1}
	ft, err := NewSGTOEngine().FTPairs(cell, grid, 0, grid.NG(), pr, [3]float64{}, [][3]float64{{0, 0, 0}}, true)
	require.NoError(t, err)
	require.Len(t, ft, 1)

	// the pair transform at G = 0 is the overlap
	assert.InDelta(t, 1, ft[0].Re.At(0, 0), 1e-12)
	assert.InDelta(t, 0, ft[0].Im.At(0, 0), 1e-14)
}

func TestInt3c2eScreeningConsistent(t *testing.T) {
	cell, err := NewCell(cubicLattice(5), 3, []Atom{{Element: "H"}})
	require.NoError(t, err)
	cell.AddShell(0, 0, []float64{1.0}, []float64{1})
	cell.NormalizeL2()

	aux, err := NewCell(cubicLattice(5), 3, []Atom{{Element: "X"}})
	require.NoError(t, err)
	aux.AddShell(0, 0, []float64{1.5}, []float64{1})
	aux.NormalizeAux()
	aux.EnsureRcut()

	eng := NewSGTOEngine()
	pr := PairRange{0, 1, 0, 1}
	kj := [][3]float64{{0, 0, 0}}

	loose, err := eng.Int3c2e(cell, aux, pr, [3]float64{}, kj, true, nil)
	require.NoError(t, err)

	tight := cell.Copy()
	tight.Precision = 1e-12
	tight.Rcut = 0
	tightOut, err := eng.Int3c2e(tight, aux, pr, [3]float64{}, kj, true, nil)
	require.NoError(t, err)

	assert.InDelta(t, tightOut[0].Re.At(0, 0), loose[0].Re.At(0, 0), 1e-7,
		"pair screening only drops negligible translations")
}

func TestRunColChunksCoversAll(t *testing.T) {
	cols := make([][3]int, 100)
	for i := range cols {
		cols[i] = [3]int{i, i + 1, i}
	}
	out := make([]int, len(cols))
	runColChunks(cols, func(chunk [][3]int) {
		for _, pc := range chunk {
			out[pc[2]] = pc[0] + pc[1]
		}
	})
	for i := range out {
		assert.Equal(t, 2*i+1, out[i])
	}
}
