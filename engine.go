// engine.go --  This file is part of goGDF project.
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

// PairRange addresses a contiguous run of orbital shells and the flat
// tensor column window their pairs span. Under s2 symmetry the window
// covers packed lower-triangle pairs (i >= j with i inside the shell
// run), under s1 all nao columns per row function.
type PairRange struct {
	Ish0, Ish1 int
	Col0, Col1 int
}

// IntegralEngine supplies lattice-summed real-space integrals. The
// bundled analytic engine covers s shells; production engines wrap a
// full Gaussian integral library behind the same conventions:
//
//	Ovlp[k](p,q)      = sum_L exp(i kj.L) <p,0|q,L>
//	Int2c2e(q)(mu,nu) = sum_L exp(i q.L) (mu,0|nu,L)
//	Int3c2e(pq,mu)    = sum_{L1,L2} exp(i kj.L1) exp(-i q.L2)
//	                    (p,0 q,L1|mu,L2)
//
// with q = kj - ki and all basis functions real. Translation sets must
// be inversion symmetric so lattice-summed matrices stay Hermitian.
type IntegralEngine interface {
	// Ovlp returns one Bloch-phased overlap matrix per k-point.
	Ovlp(cell *Cell, kpts [][3]float64) ([]*ZMat, error)

	// Int2c2e returns the (nfunc x nfunc) Coulomb matrix of cell at
	// momentum transfer q, real when q is the zone center.
	Int2c2e(cell *Cell, q [3]float64) (*ZMat, error)

	// Int3c2e returns short-range three-center blocks over the fused
	// auxiliary cell, one (nfused x ncols) block per kj in kptjs.
	// Columns follow pr under the s2/s1 convention. Shell pairs whose
	// two orbital shells are both marked in skipSmooth are left zero;
	// a nil skipSmooth computes everything.
	Int3c2e(cell, fused *Cell, pr PairRange, q [3]float64, kptjs [][3]float64,
		s2 bool, skipSmooth []bool) ([]*ZMat, error)
}

// FTEvaluator supplies analytic planewave transforms on a reciprocal
// grid, evaluated at G+q:
//
//	FTBasis(mu; G)  = integral chi_mu(r - R_mu) exp(-i(G+q).r) dr
//	FTPairs(pq; G)  = sum_L exp(i kj.L) integral chi_p(r - R_p)
//	                  chi_q(r - R_q - L) exp(-i(G+q).r) dr
//
// FTPairs covers every pair in the window; smooth-pair exclusion is a
// real-space concern only.
type FTEvaluator interface {
	// FTBasis evaluates transforms of fused-cell shells [sh0, sh1) on
	// grid rows [g0, g1), shape (g1-g0 x functions of the shell run).
	FTBasis(cell *Cell, grid *GGrid, g0, g1, sh0, sh1 int, q [3]float64) (*ZMat, error)

	// FTPairs evaluates pair-density transforms for the column window,
	// one (g1-g0 x ncols) block per kj.
	FTPairs(cell *Cell, grid *GGrid, g0, g1 int, pr PairRange, q [3]float64,
		kptjs [][3]float64, s2 bool) ([]*ZMat, error)
}
