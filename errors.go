// errors.go --  This file is part of goGDF project.
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

import "errors"

// Error classes of the builder. Numerical warnings (discarded negative
// metric eigenvalues in 3D, unexpected imaginary parts at the zone
// center) are reported through WarningLogger and never returned.
var (
	// ErrLinearDependence means the two-center Coulomb metric is
	// numerically singular. The metric factorization recovers from it
	// internally by switching to an eigenvalue decomposition; callers
	// see it only when the fallback finds no usable spectrum either.
	ErrLinearDependence = errors.New("gogdf: linearly dependent auxiliary basis")

	// ErrBadConfig means an invalid cell, basis, k-point list or
	// parameter value. Raised before any heavy computation starts.
	ErrBadConfig = errors.New("gogdf: invalid configuration")

	// ErrResource means storage or memory gave out mid-build. The build
	// aborts; blocks already written are left as-is.
	ErrResource = errors.New("gogdf: resource exhausted")

	// ErrBuilderState means a builder method was called out of order,
	// or a finished builder was reused without Reset.
	ErrBuilderState = errors.New("gogdf: builder state")

	// ErrUnsupportedShell means an angular momentum beyond what the
	// bundled analytic engine or the conversion tables cover.
	ErrUnsupportedShell = errors.New("gogdf: unsupported angular momentum")
)
