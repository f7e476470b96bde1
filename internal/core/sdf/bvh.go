// Package sdf computes the signed distance boundary field: one scalar per
// lattice point, negative inside the solid, positive outside, magnitude
// equal to the distance to the nearest surface point.
package sdf

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"windtunnel/internal/core/geom"
)

// bvh is a median-split AABB tree over mesh triangles. It serves both the
// nearest-triangle distance query and the +x ray parity inside test.
type bvh struct {
	mesh  *geom.Mesh
	nodes []bvhNode
	tris  []int // triangle ids, leaves reference contiguous ranges
}

type bvhNode struct {
	min, max    r3.Vec
	left, right int // child node ids; -1 for leaves
	start, n    int // leaf triangle range in tris
}

const leafSize = 4

func buildBVH(m *geom.Mesh) *bvh {
	t := &bvh{mesh: m, tris: make([]int, len(m.Faces))}
	cents := make([]r3.Vec, len(m.Faces))
	for i := range m.Faces {
		a, b, c := m.Triangle(i)
		t.tris[i] = i
		cents[i] = r3.Scale(1.0/3.0, r3.Add(a, r3.Add(b, c)))
	}
	t.build(cents, 0, len(t.tris))
	return t
}

// build appends the node covering tris[start:end] and returns its id.
func (t *bvh) build(cents []r3.Vec, start, end int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, bvhNode{left: -1, right: -1})

	min := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, ti := range t.tris[start:end] {
		a, b, c := t.mesh.Triangle(ti)
		for _, p := range [3]r3.Vec{a, b, c} {
			min = vecMin(min, p)
			max = vecMax(max, p)
		}
	}
	t.nodes[id].min, t.nodes[id].max = min, max

	if end-start <= leafSize {
		t.nodes[id].start, t.nodes[id].n = start, end-start
		return id
	}

	// split on the widest axis at the median centroid
	ext := r3.Sub(max, min)
	axis := 0
	if ext.Y > ext.X && ext.Y >= ext.Z {
		axis = 1
	} else if ext.Z > ext.X && ext.Z > ext.Y {
		axis = 2
	}
	seg := t.tris[start:end]
	sort.Slice(seg, func(i, j int) bool {
		return axisVal(cents[seg[i]], axis) < axisVal(cents[seg[j]], axis)
	})
	mid := start + (end-start)/2

	left := t.build(cents, start, mid)
	right := t.build(cents, mid, end)
	t.nodes[id].left, t.nodes[id].right = left, right
	return id
}

// nearest returns the squared distance from p to the closest triangle.
func (t *bvh) nearest(p r3.Vec) float64 {
	best := math.Inf(1)
	t.nearestNode(0, p, &best)
	return best
}

func (t *bvh) nearestNode(id int, p r3.Vec, best *float64) {
	n := &t.nodes[id]
	if boxDist2(n.min, n.max, p) >= *best {
		return
	}
	if n.left < 0 {
		for _, ti := range t.tris[n.start : n.start+n.n] {
			a, b, c := t.mesh.Triangle(ti)
			q := geom.ClosestPointTriangle(p, a, b, c)
			if d := r3.Norm2(r3.Sub(p, q)); d < *best {
				*best = d
			}
		}
		return
	}
	// visit the closer child first for tighter pruning
	dl := boxDist2(t.nodes[n.left].min, t.nodes[n.left].max, p)
	dr := boxDist2(t.nodes[n.right].min, t.nodes[n.right].max, p)
	if dl <= dr {
		t.nearestNode(n.left, p, best)
		t.nearestNode(n.right, p, best)
	} else {
		t.nearestNode(n.right, p, best)
		t.nearestNode(n.left, p, best)
	}
}

// maxRecasts bounds the grazing retries per query point. Each retry tilts
// the ray further, so a handful always clears mesh edges in practice.
const maxRecasts = 8

// inside reports whether p is inside the closed surface by the parity of
// ray crossings. A cast that grazes an edge or vertex would count every
// incident triangle, throwing the parity off, so grazed casts are
// discarded and retried with a deterministically nudged direction.
func (t *bvh) inside(p r3.Vec) bool {
	dir := r3.Vec{X: 1}
	for attempt := 0; ; attempt++ {
		hits, grazed := t.countCrossings(0, p, dir)
		if !grazed || attempt == maxRecasts {
			return hits%2 == 1
		}
		tilt := 1e-4 * float64(attempt+1)
		dir = r3.Unit(r3.Vec{X: 1, Y: tilt, Z: tilt * 0.7})
	}
}

func (t *bvh) countCrossings(id int, orig, dir r3.Vec) (hits int, grazed bool) {
	n := &t.nodes[id]
	if !rayHitsBox(n.min, n.max, orig, dir) {
		return 0, false
	}
	if n.left < 0 {
		for _, ti := range t.tris[n.start : n.start+n.n] {
			a, b, c := t.mesh.Triangle(ti)
			_, ok, graze := geom.RayTriangle(orig, dir, a, b, c)
			if ok {
				hits++
			}
			if graze {
				grazed = true
			}
		}
		return hits, grazed
	}
	lh, lg := t.countCrossings(n.left, orig, dir)
	rh, rg := t.countCrossings(n.right, orig, dir)
	return lh + rh, lg || rg
}

// rayHitsBox is the slab test for a forward ray against an AABB.
func rayHitsBox(min, max, orig, dir r3.Vec) bool {
	tmin, tmax := 0.0, math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		o, d := axisVal(orig, axis), axisVal(dir, axis)
		lo, hi := axisVal(min, axis), axisVal(max, axis)
		if math.Abs(d) < 1e-18 {
			if o < lo || o > hi {
				return false
			}
			continue
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return false
		}
	}
	return true
}

func boxDist2(min, max, p r3.Vec) float64 {
	var d float64
	for axis := 0; axis < 3; axis++ {
		v := axisVal(p, axis)
		lo, hi := axisVal(min, axis), axisVal(max, axis)
		if v < lo {
			d += (lo - v) * (lo - v)
		} else if v > hi {
			d += (v - hi) * (v - hi)
		}
	}
	return d
}

func axisVal(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func vecMin(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func vecMax(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
