// mesh.go --  This file is part of goGDF project.
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

import "math"

// GGrid is the uniform reciprocal-space grid spanned by a mesh. Points
// follow FFT frequency order per axis with the last axis fastest, so
// G = 0 sits at index 0. W is the uniform quadrature weight 1/vol.
type GGrid struct {
	Mesh [3]int
	Gv   [][3]float64
	W    float64
}

func NewGGrid(c *Cell, mesh [3]int) *GGrid {
	b := c.RecipVectors()
	freq := func(n int) []int {
		f := make([]int, n)
		for i := 0; i <= (n-1)/2; i++ {
			f[i] = i
		}
		for i := (n-1)/2 + 1; i < n; i++ {
			f[i] = i - n
		}
		return f
	}
	fx, fy, fz := freq(mesh[0]), freq(mesh[1]), freq(mesh[2])
	gv := make([][3]float64, 0, len(fx)*len(fy)*len(fz))
	for _, ix := range fx {
		for _, iy := range fy {
			for _, iz := range fz {
				var g [3]float64
				for d := 0; d < 3; d++ {
					g[d] = float64(ix)*b[0][d] + float64(iy)*b[1][d] + float64(iz)*b[2][d]
				}
				gv = append(gv, g)
			}
		}
	}
	return &GGrid{Mesh: mesh, Gv: gv, W: 1 / c.Volume()}
}

func (g *GGrid) NG() int { return len(g.Gv) }

func recipNorms(lattice [3][3]float64) [3]float64 {
	c := Cell{Lattice: lattice, Dimension: 3}
	b := c.RecipVectors()
	var n [3]float64
	for i := 0; i < 3; i++ {
		n[i] = math.Sqrt(b[i][0]*b[i][0] + b[i][1]*b[i][1] + b[i][2]*b[i][2])
	}
	return n
}

// MeshToCutoff gives the per-axis kinetic energy cutoff a mesh can
// resolve, ke_i = (|b_i| (mesh_i-1)/2)^2 / 2.
func MeshToCutoff(lattice [3][3]float64, mesh [3]int) [3]float64 {
	bn := recipNorms(lattice)
	var ke [3]float64
	for i := 0; i < 3; i++ {
		gmax := bn[i] * float64((mesh[i]-1)/2)
		ke[i] = gmax * gmax / 2
	}
	return ke
}

// CutoffToMesh inverts MeshToCutoff: the smallest odd mesh resolving ke
// on every axis.
func CutoffToMesh(lattice [3][3]float64, ke float64) [3]int {
	bn := recipNorms(lattice)
	gmax := math.Sqrt(2 * ke)
	var mesh [3]int
	for i := 0; i < 3; i++ {
		mesh[i] = 2*int(math.Ceil(gmax/bn[i])) + 1
	}
	return mesh
}

// RoundToOddMesh rounds each axis to an odd point count, never
// decreasing it. Odd meshes keep +G and -G points paired so the
// conjugation symmetry between k and -k holds exactly on the grid;
// even meshes break it.
func RoundToOddMesh(mesh [3]int) [3]int {
	return [3]int{mesh[0]/2*2 + 1, mesh[1]/2*2 + 1, mesh[2]/2*2 + 1}
}

func minCutoff(ke [3]float64, dim int) float64 {
	if dim == 0 {
		dim = 3
	}
	min := ke[0]
	for i := 1; i < dim; i++ {
		if ke[i] < min {
			min = ke[i]
		}
	}
	return min
}

// truncated reciprocal tail of a Gaussian charge against a point
// charge: err(kmax, eta) = 4 eta/(pi kmax) exp(-kmax^2/(4 eta)).

// etaForCutoff is the largest model-charge exponent whose reciprocal
// tail beyond ke stays under precision. Two fixed-point rounds.
func etaForCutoff(ke, precision float64) float64 {
	kmax := math.Sqrt(2 * ke)
	if kmax <= 0 {
		return 0.2
	}
	logp := math.Log(1 / precision)
	if logp < 2 {
		logp = 2
	}
	eta := kmax * kmax / (4 * logp)
	for it := 0; it < 2; it++ {
		den := math.Log(4 * eta / (math.Pi * kmax * precision))
		if den < 2 {
			den = 2
		}
		eta = kmax * kmax / (4 * den)
	}
	return eta
}

// cutoffForEta inverts etaForCutoff.
func cutoffForEta(eta, precision float64) float64 {
	logp := math.Log(1 / precision)
	if logp < 2 {
		logp = 2
	}
	kmax := math.Sqrt(4 * eta * logp)
	for it := 0; it < 2; it++ {
		den := math.Log(4 * eta / (math.Pi * kmax * precision))
		if den < 2 {
			den = 2
		}
		kmax = math.Sqrt(4 * eta * den)
	}
	return kmax * kmax / 2
}

// etaBoundary requires the model density to decay below precision at
// the cell boundary: 4 pi rmax^(lmax+2) exp(-eta rmax^2 / 2) ~ prec.
func etaBoundary(c *Cell) float64 {
	lmax := c.LMaxUsed()
	if lmax > 4 {
		lmax = 4
	}
	rmax := 0.0
	for i := 0; i < 3; i++ {
		a := c.Lattice[i]
		r := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
		if r > rmax {
			rmax = r
		}
	}
	if rmax <= 0 {
		return 0.2
	}
	eta := 2 * math.Log(4*math.Pi*math.Pow(rmax, float64(lmax+2))/c.Precision) / (rmax * rmax)
	if eta < 0.1 {
		eta = 0.1
	}
	return eta
}

// defaultMesh estimates the mesh resolving the densest basis product,
// ke = 4 amax log(1/precision), rounded to odd.
func defaultMesh(c *Cell) [3]int {
	amax := 1.0
	for _, sh := range c.Shells {
		for _, a := range sh.Exps {
			if a > amax {
				amax = a
			}
		}
	}
	ke := 4 * amax * math.Log(1/c.Precision)
	return RoundToOddMesh(CutoffToMesh(c.Lattice, ke))
}

// GuessEta picks the model-charge exponent and the planewave mesh for
// a cell. With mesh == nil both are chosen from the cell alone: the
// mesh-limited eta is tightened to the boundary estimate and the mesh
// shrunk accordingly. A non-nil mesh fixes the grid and only eta is
// derived. Molecular (dimension 0) cells get a fixed diffuse eta.
func GuessEta(c *Cell, mesh *[3]int) (eta, keCutoff float64, meshOut [3]int) {
	if c.Dimension == 0 {
		if mesh != nil {
			meshOut = *mesh
		} else {
			meshOut = defaultMesh(c)
		}
		ke := MeshToCutoff(c.Lattice, meshOut)
		return 0.2, minCutoff(ke, 3), meshOut
	}
	if mesh == nil {
		meshOut = defaultMesh(c)
		keCutoff = minCutoff(MeshToCutoff(c.Lattice, meshOut), c.Dimension)
		eta = etaForCutoff(keCutoff, c.Precision)
		if guess := etaBoundary(c); eta > guess {
			eta = guess
			keCutoff = cutoffForEta(eta, c.Precision)
			meshOut = CutoffToMesh(c.Lattice, keCutoff)
		}
		meshOut = RoundToOddMesh(meshOut)
		return eta, keCutoff, meshOut
	}
	meshOut = *mesh
	keCutoff = minCutoff(MeshToCutoff(c.Lattice, meshOut), c.Dimension)
	eta = etaForCutoff(keCutoff, c.Precision)
	return eta, keCutoff, meshOut
}
