// Package grid builds the discretized flow domain: a padded axis-aligned
// box around the geometry with a regular lattice of sample points. Every
// consumer that flattens or reshapes lattice data must use this package's
// ordering: x varies slowest, then y, then z.
package grid

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"windtunnel/internal/core/geom"
)

// PadFrac is the per-axis padding applied around the mesh bounds,
// expressed as a fraction of that axis's own extent. Proportional padding
// keeps clearance scale-consistent across tiny and huge uploads.
const PadFrac = 0.3

// minPad keeps the padded box strictly larger than the raw bounds even
// for flat geometry with a zero extent on some axis.
const minPad = 1e-3

// Domain is the padded box plus its R x R x R lattice.
type Domain struct {
	Bounds geom.Bounds
	Res    int

	// X, Y, Z are the per-axis coordinate arrays, each of length Res,
	// evenly spaced and inclusive of the padded bounds.
	X, Y, Z []float64

	// Points holds the full lattice in axis-major order:
	// index = (i*Res + j)*Res + k for coordinates (X[i], Y[j], Z[k]).
	Points []r3.Vec
}

// Build constructs the domain around the given mesh bounds. res must be
// at least 2; request validation rejects smaller values before compute,
// so a violation here is a programming error.
func Build(bounds geom.Bounds, res int) *Domain {
	if res < 2 {
		panic(fmt.Sprintf("grid: resolution %d < 2", res))
	}
	ext := bounds.Extent()
	pad := r3.Vec{
		X: maxf(PadFrac*ext.X, minPad),
		Y: maxf(PadFrac*ext.Y, minPad),
		Z: maxf(PadFrac*ext.Z, minPad),
	}
	d := &Domain{
		Bounds: geom.Bounds{
			Min: r3.Sub(bounds.Min, pad),
			Max: r3.Add(bounds.Max, pad),
		},
		Res: res,
	}
	d.X = floats.Span(make([]float64, res), d.Bounds.Min.X, d.Bounds.Max.X)
	d.Y = floats.Span(make([]float64, res), d.Bounds.Min.Y, d.Bounds.Max.Y)
	d.Z = floats.Span(make([]float64, res), d.Bounds.Min.Z, d.Bounds.Max.Z)

	d.Points = make([]r3.Vec, 0, res*res*res)
	for i := 0; i < res; i++ {
		for j := 0; j < res; j++ {
			for k := 0; k < res; k++ {
				d.Points = append(d.Points, r3.Vec{X: d.X[i], Y: d.Y[j], Z: d.Z[k]})
			}
		}
	}
	return d
}

// Shape returns the lattice shape [R, R, R].
func (d *Domain) Shape() [3]int { return [3]int{d.Res, d.Res, d.Res} }

// FlatIndex maps lattice indices to the flat point index.
func (d *Domain) FlatIndex(i, j, k int) int { return (i*d.Res+j)*d.Res + k }

// Contains reports whether p lies inside the padded box.
func (d *Domain) Contains(p r3.Vec) bool { return d.Bounds.Contains(p) }

// NearestIndex returns the lattice indices of the grid cell containing p:
// per axis, the rightmost coordinate not greater than the query, clamped
// to the lattice. This is the nearest-neighbor rule shared by velocity
// and SDF lookups during streamline integration.
func (d *Domain) NearestIndex(p r3.Vec) (i, j, k int) {
	return searchAxis(d.X, p.X), searchAxis(d.Y, p.Y), searchAxis(d.Z, p.Z)
}

func searchAxis(coords []float64, v float64) int {
	i := sort.SearchFloat64s(coords, v)
	// SearchFloat64s gives the insertion point; step back unless v is an
	// exact grid coordinate, then clamp
	if i >= len(coords) || coords[i] != v {
		i--
	}
	if i < 0 {
		return 0
	}
	if i > len(coords)-1 {
		return len(coords) - 1
	}
	return i
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
