// Package geom owns triangle mesh ingestion: decoding uploaded bytes,
// watertight repair, and face-count decimation. Every simulation starts
// from exactly one Mesh produced here; downstream packages treat it as
// read-only.
package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoFaces reports geometry that has no usable surface, either as
// uploaded or after repair.
var ErrNoFaces = errors.New("geometry has no faces")

// Bounds is an axis-aligned box.
type Bounds struct {
	Min r3.Vec
	Max r3.Vec
}

// Extent returns the per-axis size of the box.
func (b Bounds) Extent() r3.Vec { return r3.Sub(b.Max, b.Min) }

// Contains reports whether p lies inside the box (inclusive).
func (b Bounds) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Mesh is a triangle surface mesh. Verts are positions, Faces index into
// Verts in triplets. Bounds and Centroid are derived at construction.
// Watertight is set by Repair and gates the exact signed-distance path.
type Mesh struct {
	Verts      []r3.Vec
	Faces      [][3]int
	Bounds     Bounds
	Centroid   r3.Vec
	Watertight bool
}

// NewMesh builds a Mesh from vertices and faces, validating indices and
// deriving bounds and the area-weighted face centroid.
func NewMesh(verts []r3.Vec, faces [][3]int) (*Mesh, error) {
	if len(faces) == 0 {
		return nil, ErrNoFaces
	}
	for fi, f := range faces {
		for _, v := range f {
			if v < 0 || v >= len(verts) {
				return nil, fmt.Errorf("face %d references vertex %d of %d", fi, v, len(verts))
			}
		}
	}
	m := &Mesh{Verts: verts, Faces: faces}
	m.refresh()
	return m, nil
}

// refresh recomputes derived state after construction or repair.
func (m *Mesh) refresh() {
	min := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range m.Verts {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		min.Z = math.Min(min.Z, v.Z)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
		max.Z = math.Max(max.Z, v.Z)
	}
	m.Bounds = Bounds{Min: min, Max: max}

	// Area-weighted centroid over faces; falls back to the vertex mean
	// when the surface is degenerate (all faces zero area).
	var acc r3.Vec
	var area float64
	for _, f := range m.Faces {
		a, b, c := m.Verts[f[0]], m.Verts[f[1]], m.Verts[f[2]]
		w := triangleArea(a, b, c)
		ctr := r3.Scale(1.0/3.0, r3.Add(a, r3.Add(b, c)))
		acc = r3.Add(acc, r3.Scale(w, ctr))
		area += w
	}
	if area > 0 {
		m.Centroid = r3.Scale(1/area, acc)
		return
	}
	var sum r3.Vec
	for _, v := range m.Verts {
		sum = r3.Add(sum, v)
	}
	m.Centroid = r3.Scale(1/float64(len(m.Verts)), sum)
}

// Triangle returns the three corner positions of face i.
func (m *Mesh) Triangle(i int) (a, b, c r3.Vec) {
	f := m.Faces[i]
	return m.Verts[f[0]], m.Verts[f[1]], m.Verts[f[2]]
}

// Concat merges disjoint sub-meshes into one, offsetting face indices.
// Multi-primitive GLB scenes and grouped OBJ files arrive this way.
func Concat(parts []*Mesh) (*Mesh, error) {
	if len(parts) == 1 {
		return parts[0], nil
	}
	var verts []r3.Vec
	var faces [][3]int
	for _, p := range parts {
		off := len(verts)
		verts = append(verts, p.Verts...)
		for _, f := range p.Faces {
			faces = append(faces, [3]int{f[0] + off, f[1] + off, f[2] + off})
		}
	}
	return NewMesh(verts, faces)
}

// MeanVertexRadius is the mean vertex-to-centroid distance, used by the
// approximate signed-distance fallback.
func (m *Mesh) MeanVertexRadius() float64 {
	var sum float64
	for _, v := range m.Verts {
		sum += r3.Norm(r3.Sub(v, m.Centroid))
	}
	return sum / float64(len(m.Verts))
}

func triangleArea(a, b, c r3.Vec) float64 {
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}
