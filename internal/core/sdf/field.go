package sdf

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"windtunnel/internal/core/geom"
	"windtunnel/internal/core/grid"
)

// Field holds one signed distance per lattice point in the domain's
// axis-major order. Approximate is true when the centroid-heuristic
// fallback ran instead of the exact proximity query; callers surface that
// on the result artifact so consumers can tell the two apart.
type Field struct {
	Values      []float64
	Res         int
	Approximate bool
}

// At returns the field value at lattice indices (i, j, k).
func (f *Field) At(i, j, k int) float64 {
	return f.Values[(i*f.Res+j)*f.Res+k]
}

// Sample returns the nearest-neighbor field value at an arbitrary point.
// Deliberately not trilinear: streamline collision tests depend on the
// same lookup rule as velocity interpolation.
func (f *Field) Sample(d *grid.Domain, p r3.Vec) float64 {
	i, j, k := d.NearestIndex(p)
	return f.At(i, j, k)
}

// Compute builds the boundary field for a mesh over a domain. Watertight
// meshes take the exact path: nearest-triangle distance with a ray-parity
// inside test. Anything else falls back to the nearest-vertex distance
// signed by the centroid heuristic, a cruder approximation that callers
// are told about via Field.Approximate.
func Compute(m *geom.Mesh, d *grid.Domain) *Field {
	f := &Field{Values: make([]float64, len(d.Points)), Res: d.Res}
	if m.Watertight {
		tree := buildBVH(m)
		for i, p := range d.Points {
			dist := math.Sqrt(tree.nearest(p))
			if tree.inside(p) {
				dist = -dist
			}
			f.Values[i] = dist
		}
		return f
	}
	f.Approximate = true
	computeApprox(m, d, f)
	return f
}

// computeApprox signs the nearest-vertex distance negative whenever the
// query point sits closer to the mesh centroid than the mean vertex
// radius. Wrong near concavities, but stable for arbitrary triangle soup.
func computeApprox(m *geom.Mesh, d *grid.Domain, f *Field) {
	meanR := m.MeanVertexRadius()
	for i, p := range d.Points {
		min := math.Inf(1)
		for _, v := range m.Verts {
			if dd := r3.Norm2(r3.Sub(v, p)); dd < min {
				min = dd
			}
		}
		dist := math.Sqrt(min)
		if r3.Norm(r3.Sub(p, m.Centroid)) < meanR {
			dist = -dist
		}
		f.Values[i] = dist
	}
}
