// sgto.go --  This file is part of goGDF project.
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
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mathext"
)

// SGTOEngine is the bundled analytic integral engine for pure s-type
// Gaussian bases. All integrals are closed-form, lattice sums run over
// inversion-symmetric translation sets, and pair screening drops
// translations whose Gaussian product prefactor is negligible. Shells
// with l > 0 or Cartesian cells report ErrUnsupportedShell; production
// setups inject an engine wrapping a full integral library instead.
type SGTOEngine struct{}

func NewSGTOEngine() *SGTOEngine { return &SGTOEngine{} }

var (
	_ IntegralEngine = (*SGTOEngine)(nil)
	_ FTEvaluator    = (*SGTOEngine)(nil)
)

// boys is the Boys function F_n(x) through the regularized incomplete
// gamma function.
func boys(x, n float64) float64 {
	if x < 1e-13 {
		return 1 / (2*n + 1)
	}
	return mathext.GammaIncReg(n+0.5, x) * math.Gamma(n+0.5) / (2 * math.Pow(x, n+0.5))
}

// boys0RS is F_0 with optional range separation of the Coulomb kernel:
// the erf (omega > 0) and erfc (omega < 0) kernels rescale the argument
// by s = omega^2/(omega^2 + rho) and the value by sqrt(s).
func boys0RS(t, rho, omega float64) float64 {
	if omega == 0 {
		return boys(t, 0)
	}
	s := omega * omega / (omega*omega + rho)
	lr := math.Sqrt(s) * boys(t*s, 0)
	if omega > 0 {
		return lr
	}
	return boys(t, 0) - lr
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func add3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func dist2(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}

func checkSOnly(c *Cell) error {
	if c.Cart {
		return fmt.Errorf("%w: analytic engine handles spherical cells only", ErrUnsupportedShell)
	}
	for i, sh := range c.Shells {
		if sh.L != 0 {
			return fmt.Errorf("%w: analytic engine got l = %d in shell %d", ErrUnsupportedShell, sh.L, i)
		}
	}
	return nil
}

// Primitive kernels over bare radial Gaussians; angular factors and
// contraction coefficients are applied by the callers.

func ovlpPrimSS(a, b, r2 float64) float64 {
	p := a + b
	return math.Pow(math.Pi/p, 1.5) * math.Exp(-a*b/p*r2)
}

func v2cPrimSS(a, b, r2, omega float64) float64 {
	p := a + b
	rho := a * b / p
	return 2 * math.Pow(math.Pi, 2.5) / (a * b * math.Sqrt(p)) * boys0RS(rho*r2, rho, omega)
}

// v3cPrimSSS is (g_a g_b | g_c) by the product-Gaussian theorem: the
// a,b pair collapses onto center P with prefactor kab, leaving a
// two-center Coulomb integral between exponents p and c.
func v3cPrimSSS(a float64, ra [3]float64, b float64, rb [3]float64,
	c float64, rc [3]float64, omega float64) float64 {
	p := a + b
	kab := math.Exp(-a * b / p * dist2(ra, rb))
	if kab == 0 {
		return 0
	}
	var rp [3]float64
	for d := 0; d < 3; d++ {
		rp[d] = (a*ra[d] + b*rb[d]) / p
	}
	rho := p * c / (p + c)
	return kab * 2 * math.Pow(math.Pi, 2.5) / (p * c * math.Sqrt(p+c)) *
		boys0RS(rho*dist2(rp, rc), rho, omega)
}

// Ovlp returns Bloch-phased overlap matrices, one per k-point.
func (e *SGTOEngine) Ovlp(cell *Cell, kpts [][3]float64) ([]*ZMat, error) {
	if err := checkSOnly(cell); err != nil {
		return nil, err
	}
	cell.EnsureRcut()
	ls := cell.LatticeTranslations(2 * cell.Rcut)
	nao := cell.NFunc()
	out := make([]*ZMat, len(kpts))
	for k, kpt := range kpts {
		out[k] = NewZMat(nao, nao, !IsZeroK(kpt))
	}
	for p, shp := range cell.Shells {
		rp := cell.ShellCoord(p)
		for q, shq := range cell.Shells {
			rq := cell.ShellCoord(q)
			for _, l := range ls {
				rql := add3(rq, l)
				s := 0.0
				for ip, ap := range shp.Exps {
					for iq, aq := range shq.Exps {
						s += shp.Coefs[ip] * shq.Coefs[iq] * ovlpPrimSS(ap, aq, dist2(rp, rql))
					}
				}
				s *= halfSphNorm * halfSphNorm
				if s == 0 {
					continue
				}
				for k, kpt := range kpts {
					ph := dot3(kpt, l)
					out[k].Re.Set(p, q, out[k].Re.At(p, q)+s*math.Cos(ph))
					if out[k].Im != nil {
						out[k].Im.Set(p, q, out[k].Im.At(p, q)+s*math.Sin(ph))
					}
				}
			}
		}
	}
	return out, nil
}

// Int2c2e returns the lattice-summed two-center Coulomb matrix at one
// momentum transfer. The translation set is shared by every function
// pair; the charge-compensated combinations downstream rely on that
// for their term-by-term monopole cancellation.
func (e *SGTOEngine) Int2c2e(cell *Cell, q [3]float64) (*ZMat, error) {
	if err := checkSOnly(cell); err != nil {
		return nil, err
	}
	cell.EnsureRcut()
	ls := cell.LatticeTranslations(cell.Rcut)
	n := cell.NFunc()
	out := NewZMat(n, n, !IsZeroK(q))
	for mu, shm := range cell.Shells {
		rm := cell.ShellCoord(mu)
		for nu, shn := range cell.Shells {
			rn := cell.ShellCoord(nu)
			for _, l := range ls {
				rnl := add3(rn, l)
				v := 0.0
				for im, am := range shm.Exps {
					for in, an := range shn.Exps {
						v += shm.Coefs[im] * shn.Coefs[in] *
							v2cPrimSS(am, an, dist2(rm, rnl), cell.Omega)
					}
				}
				v *= halfSphNorm * halfSphNorm
				ph := dot3(q, l)
				out.Re.Set(mu, nu, out.Re.At(mu, nu)+v*math.Cos(ph))
				if out.Im != nil {
					out.Im.Set(mu, nu, out.Im.At(mu, nu)+v*math.Sin(ph))
				}
			}
		}
	}
	return out, nil
}

// pairCols enumerates the (p shell, q shell) function columns of a
// PairRange under the s2 or s1 convention as (pFunc, qFunc, col).
func pairCols(cell *Cell, pr PairRange, s2 bool) [][3]int {
	loc := cell.AOLoc()
	nao := cell.NFunc()
	var cols [][3]int
	for p := loc[pr.Ish0]; p < loc[pr.Ish1]; p++ {
		if s2 {
			for q := 0; q <= p; q++ {
				cols = append(cols, [3]int{p, q, p*(p+1)/2 + q - pr.Col0})
			}
		} else {
			for q := 0; q < nao; q++ {
				cols = append(cols, [3]int{p, q, p*nao + q - pr.Col0})
			}
		}
	}
	return cols
}

// runColChunks spreads per-column work over the available threads.
// Workers touch disjoint columns of the shared outputs, so no merge
// pass is needed.
func runColChunks(cols [][3]int, work func(chunk [][3]int)) {
	maxGoroutines := runtime.GOMAXPROCS(-1)
	if maxGoroutines <= 1 || len(cols) < 2*maxGoroutines {
		work(cols)
		return
	}
	var wg sync.WaitGroup
	listSize := (len(cols) + maxGoroutines - 1) / maxGoroutines
	for j := 0; j < len(cols); j += listSize {
		hi := j + listSize
		if hi > len(cols) {
			hi = len(cols)
		}
		wg.Add(1)
		go func(chunk [][3]int) {
			defer wg.Done()
			work(chunk)
		}(cols[j:hi])
	}
	wg.Wait()
}

// funcShell maps function index to shell index.
func funcShell(cell *Cell) []int {
	loc := cell.AOLoc()
	out := make([]int, cell.NFunc())
	for i := range cell.Shells {
		for f := loc[i]; f < loc[i+1]; f++ {
			out[f] = i
		}
	}
	return out
}

// Int3c2e computes the double-lattice-sum three-center blocks
//
//	sum_{L1,L2} exp(i kj.L1) exp(-i q.L2) (p,0 q,L1 | mu,L2)
//
// for every kj at fixed q = kj - ki. The pair translation L1 is
// screened on the Gaussian product prefactor; the auxiliary
// translation L2 runs over the full inversion-symmetric set so that
// the charge-compensated row differences converge term by term.
func (e *SGTOEngine) Int3c2e(cell, fused *Cell, pr PairRange, q [3]float64,
	kptjs [][3]float64, s2 bool, skipSmooth []bool) ([]*ZMat, error) {
	if err := checkSOnly(cell); err != nil {
		return nil, err
	}
	if err := checkSOnly(fused); err != nil {
		return nil, err
	}
	cell.EnsureRcut()
	fused.EnsureRcut()
	lsPair := cell.LatticeTranslations(2 * cell.Rcut)
	lsAux := fused.LatticeTranslations(fused.Rcut)
	nfused := fused.NFunc()
	ncols := pr.Col1 - pr.Col0
	cols := pairCols(cell, pr, s2)
	f2s := funcShell(cell)

	out := make([]*ZMat, len(kptjs))
	withIm := false
	if !IsZeroK(q) {
		withIm = true
	}
	for k, kj := range kptjs {
		out[k] = NewZMat(nfused, ncols, withIm || !IsZeroK(kj))
	}

	screen := cell.Precision * 1e-2
	runColChunks(cols, func(chunk [][3]int) {
		for _, pc := range chunk {
			pf, qf, col := pc[0], pc[1], pc[2]
			if col < 0 || col >= ncols {
				continue
			}
			psh, qsh := f2s[pf], f2s[qf]
			if skipSmooth != nil && skipSmooth[psh] && skipSmooth[qsh] {
				continue
			}
			shp, shq := cell.Shells[psh], cell.Shells[qsh]
			rp := cell.ShellCoord(psh)
			rq := cell.ShellCoord(qsh)
			for _, l1 := range lsPair {
				rql := add3(rq, l1)
				// screen on the most diffuse primitive pair
				apMin, aqMin := shp.Exps[0], shq.Exps[0]
				for _, a := range shp.Exps {
					if a < apMin {
						apMin = a
					}
				}
				for _, a := range shq.Exps {
					if a < aqMin {
						aqMin = a
					}
				}
				kab := math.Exp(-apMin * aqMin / (apMin + aqMin) * dist2(rp, rql))
				if kab < screen {
					continue
				}
				for mu, shm := range fused.Shells {
					rm := fused.ShellCoord(mu)
					for _, l2 := range lsAux {
						rml := add3(rm, l2)
						v := 0.0
						for ip, ap := range shp.Exps {
							for iq, aq := range shq.Exps {
								for im, am := range shm.Exps {
									v += shp.Coefs[ip] * shq.Coefs[iq] * shm.Coefs[im] *
										v3cPrimSSS(ap, rp, aq, rql, am, rml, cell.Omega)
								}
							}
						}
						v *= halfSphNorm * halfSphNorm * halfSphNorm
						if v == 0 {
							continue
						}
						ph2 := -dot3(q, l2)
						for k, kj := range kptjs {
							ph := dot3(kj, l1) + ph2
							out[k].Re.Set(mu, col, out[k].Re.At(mu, col)+v*math.Cos(ph))
							if out[k].Im != nil {
								out[k].Im.Set(mu, col, out[k].Im.At(mu, col)+v*math.Sin(ph))
							}
						}
					}
				}
			}
		}
	})
	return out, nil
}

// FTBasis evaluates single-function planewave transforms at G+q for
// fused-cell shells [sh0, sh1) on grid rows [g0, g1).
func (e *SGTOEngine) FTBasis(cell *Cell, grid *GGrid, g0, g1, sh0, sh1 int, q [3]float64) (*ZMat, error) {
	if err := checkSOnly(cell); err != nil {
		return nil, err
	}
	nfn := sh1 - sh0 // one function per s shell
	out := NewZMat(g1-g0, nfn, true)
	for g := g0; g < g1; g++ {
		gq := add3(grid.Gv[g], q)
		g2 := dot3(gq, gq)
		for si := sh0; si < sh1; si++ {
			sh := cell.Shells[si]
			r := cell.ShellCoord(si)
			amp := 0.0
			for ip, a := range sh.Exps {
				amp += sh.Coefs[ip] * math.Pow(math.Pi/a, 1.5) * math.Exp(-g2/(4*a))
			}
			amp *= halfSphNorm
			ph := -dot3(gq, r)
			out.Re.Set(g-g0, si-sh0, amp*math.Cos(ph))
			out.Im.Set(g-g0, si-sh0, amp*math.Sin(ph))
		}
	}
	return out, nil
}

// FTPairs evaluates pair-density transforms for a column window, one
// (nG x ncols) block per kj. Every pair is included; smooth-pair
// exclusion concerns only the real-space integrals.
func (e *SGTOEngine) FTPairs(cell *Cell, grid *GGrid, g0, g1 int, pr PairRange,
	q [3]float64, kptjs [][3]float64, s2 bool) ([]*ZMat, error) {
	if err := checkSOnly(cell); err != nil {
		return nil, err
	}
	cell.EnsureRcut()
	ls := cell.LatticeTranslations(2 * cell.Rcut)
	ncols := pr.Col1 - pr.Col0
	nG := g1 - g0
	cols := pairCols(cell, pr, s2)
	f2s := funcShell(cell)

	out := make([]*ZMat, len(kptjs))
	for k := range kptjs {
		out[k] = NewZMat(nG, ncols, true)
	}
	screen := cell.Precision * 1e-2
	runColChunks(cols, func(chunk [][3]int) {
		for _, pc := range chunk {
			pf, qf, col := pc[0], pc[1], pc[2]
			if col < 0 || col >= ncols {
				continue
			}
			shp := cell.Shells[f2s[pf]]
			shq := cell.Shells[f2s[qf]]
			rp := cell.ShellCoord(f2s[pf])
			rq := cell.ShellCoord(f2s[qf])
			for _, l := range ls {
				rql := add3(rq, l)
				for ip, ap := range shp.Exps {
					for iq, aq := range shq.Exps {
						p := ap + aq
						kab := shp.Coefs[ip] * shq.Coefs[iq] *
							math.Exp(-ap*aq/p*dist2(rp, rql))
						if math.Abs(kab) < screen {
							continue
						}
						var rc [3]float64
						for d := 0; d < 3; d++ {
							rc[d] = (ap*rp[d] + aq*rql[d]) / p
						}
						pref := kab * halfSphNorm * halfSphNorm * math.Pow(math.Pi/p, 1.5)
						for g := g0; g < g1; g++ {
							gq := add3(grid.Gv[g], q)
							amp := pref * math.Exp(-dot3(gq, gq)/(4*p))
							phG := -dot3(gq, rc)
							for k, kj := range kptjs {
								ph := phG + dot3(kj, l)
								out[k].Re.Set(g-g0, col, out[k].Re.At(g-g0, col)+amp*math.Cos(ph))
								out[k].Im.Set(g-g0, col, out[k].Im.At(g-g0, col)+amp*math.Sin(ph))
							}
						}
					}
				}
			}
		}
	})
	return out, nil
}
