// gdf_test.go --  This file is part of goGDF project.
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
	"errors"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	SilenceLog()
	os.Exit(m.Run())
}

// memStore collects the solved blocks in maps keyed by k-point pair and
// first column, deep-copied like a file-backed store would.
type memStore struct {
	meta    map[string]string
	re      map[[2]int]*mat.Dense
	im      map[[2]int]*mat.Dense
	negRe   map[[2]int]*mat.Dense
	negIm   map[[2]int]*mat.Dense
	failPut bool
}

func newMemStore() *memStore {
	return &memStore{
		meta:  map[string]string{},
		re:    map[[2]int]*mat.Dense{},
		im:    map[[2]int]*mat.Dense{},
		negRe: map[[2]int]*mat.Dense{},
		negIm: map[[2]int]*mat.Dense{},
	}
}

func (s *memStore) SetMeta(key, value string) error {
	s.meta[key] = value
	return nil
}

func (s *memStore) put(dst map[[2]int]*mat.Dense, kk, col0 int, m *mat.Dense) error {
	if s.failPut {
		return errors.New("disk full")
	}
	dst[[2]int{kk, col0}] = mat.DenseCopyOf(m)
	return nil
}

func (s *memStore) PutReal(kk, col0 int, m *mat.Dense) error { return s.put(s.re, kk, col0, m) }
func (s *memStore) PutImag(kk, col0 int, m *mat.Dense) error { return s.put(s.im, kk, col0, m) }
func (s *memStore) PutNegReal(kk, col0 int, m *mat.Dense) error {
	return s.put(s.negRe, kk, col0, m)
}
func (s *memStore) PutNegImag(kk, col0 int, m *mat.Dense) error {
	return s.put(s.negIm, kk, col0, m)
}

func scenarioCells(t *testing.T) (*Cell, *Cell) {
	t.Helper()
	cell, err := NewCell(cubicLattice(6), 3, []Atom{{Element: "H"}})
	require.NoError(t, err)
	cell.AddShell(0, 0, []float64{1.3}, []float64{1})
	cell.AddShell(0, 0, []float64{0.5}, []float64{1})
	cell.NormalizeL2()

	aux, err := NewCell(cubicLattice(6), 3, []Atom{{Element: "H"}})
	require.NoError(t, err)
	aux.AddShell(0, 0, []float64{2.0}, []float64{1})
	aux.AddShell(0, 0, []float64{0.8}, []float64{1})
	return cell, aux
}

func gammaBuilder(t *testing.T) *Builder {
	t.Helper()
	cell, aux := scenarioCells(t)
	b, err := NewBuilder(cell, aux, nil)
	require.NoError(t, err)
	b.Eta = 0.9
	b.Mesh = [3]int{11, 11, 11}
	return b
}

func TestNewBuilderDefaults(t *testing.T) {
	cell, aux := scenarioCells(t)
	rawCoef := aux.Shells[0].Coefs[0]

	b, err := NewBuilder(cell, aux, nil)
	require.NoError(t, err)

	require.Len(t, b.Kpts, 1)
	assert.True(t, IsZeroK(b.Kpts[0]))
	assert.Equal(t, DefaultLinearDepThreshold, b.LinearDepThreshold)
	assert.Equal(t, DefaultMaxMemoryMB, b.MaxMemoryMB)
	assert.True(t, b.ExcludeDDBlock)
	assert.NotNil(t, b.Engine)
	assert.NotNil(t, b.FT)

	assert.Equal(t, rawCoef, aux.Shells[0].Coefs[0], "caller's auxiliary cell stays as given")
	assert.NotEqual(t, rawCoef, b.Aux.Shells[0].Coefs[0], "builder works on a renormalized copy")
	assert.Nil(t, b.FusedCell())
	assert.Zero(t, b.NAux())
}

func TestBuildGamma(t *testing.T) {
	b := gammaBuilder(t)
	st := newMemStore()
	require.NoError(t, b.Build(st))

	assert.Equal(t, 3, b.FusedCell().NFunc())
	assert.Equal(t, 2, b.NAux())
	assert.Equal(t, "2", st.meta["nao"])
	assert.Equal(t, "2", st.meta["naux"])
	assert.Equal(t, "1", st.meta["nkpts"])

	require.Len(t, st.re, 1)
	assert.Empty(t, st.im, "zone-center tensor is real")
	assert.Empty(t, st.negRe)

	blk := st.re[[2]int{0, 0}]
	require.NotNil(t, blk)
	r, c := blk.Dims()
	assert.Equal(t, 2, r, "auxiliary rows")
	assert.Equal(t, 3, c, "packed orbital pairs")

	norm := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := blk.At(i, j)
			require.False(t, math.IsNaN(v))
			require.False(t, math.IsInf(v, 0))
			norm += v * v
		}
	}
	assert.Greater(t, norm, 0.0)
}

func TestBuildDeterministic(t *testing.T) {
	s1 := newMemStore()
	require.NoError(t, gammaBuilder(t).Build(s1))
	s2 := newMemStore()
	require.NoError(t, gammaBuilder(t).Build(s2))

	a, b := s1.re[[2]int{0, 0}], s2.re[[2]int{0, 0}]
	require.NotNil(t, a)
	require.NotNil(t, b)
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.InDelta(t, a.At(i, j), b.At(i, j), 1e-14)
		}
	}
}

// The Cholesky and eigenbasis routes factor the same metric, so the
// fitted products cderi^T cderi must agree even though the individual
// rows differ by an orthogonal mix.
func TestBuildCDAndEDGramAgree(t *testing.T) {
	cd := newMemStore()
	require.NoError(t, gammaBuilder(t).Build(cd))

	bed := gammaBuilder(t)
	bed.J2CEigAlways = true
	ed := newMemStore()
	require.NoError(t, bed.Build(ed))

	a, b := cd.re[[2]int{0, 0}], ed.re[[2]int{0, 0}]
	require.NotNil(t, a)
	require.NotNil(t, b)

	var ga, gb mat.Dense
	ga.Mul(a.T(), a)
	gb.Mul(b.T(), b)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, ga.At(i, j), gb.At(i, j), 1e-8)
		}
	}
}

func TestBuildTwoKpoints(t *testing.T) {
	cell, aux := scenarioCells(t)
	kpts := [][3]float64{{0, 0, 0}, {0.11, 0.07, -0.05}}
	b, err := NewBuilder(cell, aux, kpts)
	require.NoError(t, err)
	b.Eta = 0.9
	b.Mesh = [3]int{11, 11, 11}

	st := newMemStore()
	require.NoError(t, b.Build(st))
	assert.Equal(t, "2", st.meta["nkpts"])

	require.Len(t, st.re, 4)
	require.Len(t, st.im, 3)
	_, hasGammaIm := st.im[[2]int{0, 0}]
	assert.False(t, hasGammaIm, "k_i = k_j = 0 stays real")

	// zone-center pairs pack the triangle, the rest keep all pairs
	for kk, wantCols := range map[int]int{0: 3, 3: 3, 1: 4, 2: 4} {
		blk := st.re[[2]int{kk, 0}]
		require.NotNil(t, blk, "pair index %d", kk)
		r, c := blk.Dims()
		assert.Equal(t, 2, r)
		assert.Equal(t, wantCols, c, "pair index %d", kk)
	}

	// exchanging the pair conjugates the tensor and transposes the
	// orbital indices
	nao := 2
	re01, im01 := st.re[[2]int{1, 0}], st.im[[2]int{1, 0}]
	re10, im10 := st.re[[2]int{2, 0}], st.im[[2]int{2, 0}]
	naux, _ := re01.Dims()
	for p := 0; p < nao; p++ {
		for q := 0; q < nao; q++ {
			for mu := 0; mu < naux; mu++ {
				assert.InDelta(t, re01.At(mu, q*nao+p), re10.At(mu, p*nao+q), 1e-10)
				assert.InDelta(t, -im01.At(mu, q*nao+p), im10.At(mu, p*nao+q), 1e-10)
			}
		}
	}
}

func TestBuildStateMachine(t *testing.T) {
	b := gammaBuilder(t)
	first := newMemStore()
	require.NoError(t, b.Build(first))

	err := b.Build(newMemStore())
	require.ErrorIs(t, err, ErrBuilderState)

	b.Reset()
	assert.Nil(t, b.FusedCell())
	again := newMemStore()
	require.NoError(t, b.Build(again))

	a, c := first.re[[2]int{0, 0}], again.re[[2]int{0, 0}]
	require.NotNil(t, c)
	assert.InDelta(t, a.At(0, 0), c.At(0, 0), 1e-14)
}

func TestBuildConfigErrors(t *testing.T) {
	cases := map[string]func(*Builder){
		"exclude d aux":      func(b *Builder) { b.ExcludeDAux = true },
		"bad threshold":      func(b *Builder) { b.LinearDepThreshold = -1 },
		"no memory":          func(b *Builder) { b.MaxMemoryMB = 0 },
		"no engine":          func(b *Builder) { b.Engine = nil },
		"negative eta":       func(b *Builder) { b.Eta = -0.5 },
		"negative mesh":      func(b *Builder) { b.Mesh = [3]int{-1, 11, 11} },
		"negative ke cutoff": func(b *Builder) { b.KeCutoff = -2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := gammaBuilder(t)
			mutate(b)
			err := b.Build(newMemStore())
			require.ErrorIs(t, err, ErrBadConfig)
		})
	}
}

func TestBuildStoreFailure(t *testing.T) {
	st := newMemStore()
	st.failPut = true
	err := gammaBuilder(t).Build(st)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResource)
}
