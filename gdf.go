// gdf.go --  This file is part of goGDF project.
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
	"time"

	"gonum.org/v1/gonum/mat"
)

// Defaults of the numerical knobs.
const (
	DefaultLinearDepThreshold = 1e-9
	DefaultMaxMemoryMB        = 4000
)

// CderiStore receives the solved fitting tensor, keyed by k-point-pair
// index and first column of each block. Writes arrive once per block
// in ascending column order within a pair.
type CderiStore interface {
	SetMeta(key, value string) error
	PutReal(kk, col0 int, m *mat.Dense) error
	PutImag(kk, col0 int, m *mat.Dense) error
	PutNegReal(kk, col0 int, m *mat.Dense) error
	PutNegImag(kk, col0 int, m *mat.Dense) error
}

type buildState int

const (
	stInit buildState = iota
	stMesh
	stFused
	stMetric
	stSolved
)

// Builder drives the compensated-charge density-fitting pipeline:
// select eta and the planewave mesh, fuse the auxiliary basis with its
// model charges, stabilize the two-center metric per unique momentum
// transfer, then stream three-center blocks through the solve into the
// store. A Builder is single-use; Reset discards the derived state for
// a fresh run with the same cells.
type Builder struct {
	Cell *Cell
	Aux  *Cell
	Kpts [][3]float64

	Eta      float64 // 0 selects automatically
	Mesh     [3]int  // zero selects automatically
	KeCutoff float64

	LinearDepThreshold float64
	J2CEigAlways       bool
	ExcludeDDBlock     bool
	ExcludeDAux        bool // recognized, must stay false
	MaxMemoryMB        int

	Engine IntegralEngine
	FT     FTEvaluator

	state  buildState
	fused  *Cell
	fz     *Fuse
	grid   *GGrid
	smooth []bool
}

// NewBuilder validates the cells and prepares a builder with the
// default knobs. The auxiliary cell is copied and renormalized so each
// function carries unit multipole moment; the orbital cell is used as
// given.
func NewBuilder(cell, aux *Cell, kpts [][3]float64) (*Builder, error) {
	if err := cell.Validate(); err != nil {
		return nil, err
	}
	if err := aux.Validate(); err != nil {
		return nil, err
	}
	auxN := aux.Copy()
	auxN.NormalizeAux()
	if len(kpts) == 0 {
		kpts = [][3]float64{{0, 0, 0}}
	}
	b := &Builder{
		Cell:               cell,
		Aux:                auxN,
		Kpts:               append([][3]float64(nil), kpts...),
		LinearDepThreshold: DefaultLinearDepThreshold,
		ExcludeDDBlock:     cell.Dimension > 0,
		MaxMemoryMB:        DefaultMaxMemoryMB,
		Engine:             NewSGTOEngine(),
		FT:                 NewSGTOEngine(),
	}
	return b, nil
}

// FusedCell is the working basis of the current build, nil before the
// fusing stage has run.
func (b *Builder) FusedCell() *Cell { return b.fused }

// NAux is the auxiliary function count of the final tensor rows before
// any eigenvalue dropping, valid once the fusing stage has run.
func (b *Builder) NAux() int {
	if b.fz == nil {
		return 0
	}
	return b.fz.NAuxSph()
}

func (b *Builder) checkConfig() error {
	if b.Engine == nil || b.FT == nil {
		return fmt.Errorf("%w: integral engine and FT evaluator are required", ErrBadConfig)
	}
	if b.ExcludeDAux {
		return fmt.Errorf("%w: smooth auxiliary functions must stay in the real-space integrals", ErrBadConfig)
	}
	if b.Eta < 0 || b.KeCutoff < 0 {
		return fmt.Errorf("%w: negative eta or ke_cutoff", ErrBadConfig)
	}
	for _, n := range b.Mesh {
		if n < 0 {
			return fmt.Errorf("%w: negative mesh dimension", ErrBadConfig)
		}
	}
	if b.LinearDepThreshold <= 0 {
		return fmt.Errorf("%w: linear dependence threshold must be positive", ErrBadConfig)
	}
	if b.MaxMemoryMB <= 0 {
		return fmt.Errorf("%w: memory budget must be positive", ErrBadConfig)
	}
	return nil
}

func (b *Builder) selectMeshEta() error {
	switch {
	case b.Eta == 0:
		var mesh *[3]int
		if b.Mesh != [3]int{} {
			m := b.Mesh
			mesh = &m
		}
		b.Eta, b.KeCutoff, b.Mesh = GuessEta(b.Cell, mesh)
	case b.Mesh == [3]int{}:
		b.KeCutoff = cutoffForEta(b.Eta, b.Cell.Precision)
		b.Mesh = RoundToOddMesh(CutoffToMesh(b.Cell.Lattice, b.KeCutoff))
	case b.KeCutoff == 0:
		b.KeCutoff = minCutoff(MeshToCutoff(b.Cell.Lattice, b.Mesh), b.Cell.Dimension)
	}
	if b.Eta <= 0 {
		return fmt.Errorf("%w: mesh/eta selection produced eta = %g", ErrBadConfig, b.Eta)
	}
	b.grid = NewGGrid(b.Cell, b.Mesh)
	InfoLogger.Printf("mesh = %v (%d planewaves)", b.Mesh, b.grid.NG())
	InfoLogger.Printf("eta = %.6g, ke_cutoff = %.6g", b.Eta, b.KeCutoff)
	InfoLogger.Printf("j2c_eig_always = %v", b.J2CEigAlways)
	b.state = stMesh
	return nil
}

func (b *Builder) buildFused() error {
	fused, fz, err := BuildFusedCell(b.Aux, b.Eta)
	if err != nil {
		return err
	}
	b.fused = fused
	b.fz = fz
	b.Cell.EnsureRcut()
	b.fused.EnsureRcut()
	if b.ExcludeDDBlock {
		b.smooth = b.Cell.SmoothShells(b.KeCutoff)
	}
	InfoLogger.Printf("fused basis: %d functions (%d aux + %d chg)",
		fz.NFused(), fz.NAux(), fz.NFused()-fz.NAux())
	b.state = stFused
	return nil
}

// Build runs the whole pipeline and writes every k-point-pair tensor
// into store. The builder must be freshly constructed or Reset.
func (b *Builder) Build(store CderiStore) error {
	if b.state != stInit {
		return fmt.Errorf("%w: build already ran, call Reset first", ErrBuilderState)
	}
	if err := b.checkConfig(); err != nil {
		return err
	}
	if err := b.selectMeshEta(); err != nil {
		return err
	}
	if err := b.buildFused(); err != nil {
		return err
	}

	groups := uniqueQ(b.Kpts)
	factors := make([]*MetricFactor, len(groups))
	tstart := time.Now()
	for i, qg := range groups {
		j2c, err := buildMetric(b.fused, b.fz, b.grid, b.Engine, b.FT, qg.Q, b.MaxMemoryMB)
		if err != nil {
			return err
		}
		factors[i], err = decomposeMetric(j2c, b.Cell.Dimension, b.LinearDepThreshold, b.J2CEigAlways)
		if err != nil {
			return err
		}
		InfoLogger.Printf("metric %d/%d: %s, kept %d of %d",
			i+1, len(groups), factors[i].Tag, factors[i].Kept, b.fz.NAuxSph())
	}
	tstop := time.Now()
	InfoLogger.Println("2c2e metric done...", tstop.Sub(tstart))
	tstart = tstop
	b.state = stMetric

	for i, qg := range groups {
		t := &j3cTask{
			cell:        b.Cell,
			fused:       b.fused,
			fz:          b.fz,
			grid:        b.grid,
			eng:         b.Engine,
			ftev:        b.FT,
			factor:      factors[i],
			group:       qg,
			kpts:        b.Kpts,
			smooth:      b.smooth,
			nAuxShells:  len(b.Aux.Shells),
			maxMemoryMB: b.MaxMemoryMB,
		}
		if err := t.run(store); err != nil {
			return err
		}
	}
	tstop = time.Now()
	InfoLogger.Println("3c2e tensor done...", tstop.Sub(tstart))

	meta := map[string]string{
		"nao":   fmt.Sprintf("%d", b.Cell.NFunc()),
		"naux":  fmt.Sprintf("%d", b.fz.NAuxSph()),
		"nkpts": fmt.Sprintf("%d", len(b.Kpts)),
	}
	for k, v := range meta {
		if err := store.SetMeta(k, v); err != nil {
			return fmt.Errorf("%w: store meta %q: %v", ErrResource, k, err)
		}
	}
	b.state = stSolved
	return nil
}

// Reset discards the fused basis and every derived quantity, keeping
// the cells and resolved knobs, so the next Build starts from scratch.
func (b *Builder) Reset() {
	b.fused = nil
	b.fz = nil
	b.grid = nil
	b.smooth = nil
	b.state = stInit
}
