package geom

import (
	"container/heap"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MaxFaces is the face-count ceiling applied at ingestion. Above it the
// mesh is decimated to DecimateTarget, trading signed-distance accuracy
// near thin features for per-point query cost.
const (
	MaxFaces       = 5000
	DecimateTarget = 5000
)

// quadric is a symmetric 4x4 plane quadric stored as its upper triangle:
// [a2 ab ac ad b2 bc bd c2 cd d2] for the plane ax+by+cz+d=0.
type quadric [10]float64

func (q *quadric) add(p *quadric) {
	for i := range q {
		q[i] += p[i]
	}
}

func planeQuadric(a, b, c r3.Vec) quadric {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l == 0 {
		return quadric{}
	}
	n = r3.Scale(1/l, n)
	d := -r3.Dot(n, a)
	return quadric{
		n.X * n.X, n.X * n.Y, n.X * n.Z, n.X * d,
		n.Y * n.Y, n.Y * n.Z, n.Y * d,
		n.Z * n.Z, n.Z * d,
		d * d,
	}
}

// eval computes v^T Q v for v=(x,y,z,1).
func (q *quadric) eval(v r3.Vec) float64 {
	return q[0]*v.X*v.X + 2*q[1]*v.X*v.Y + 2*q[2]*v.X*v.Z + 2*q[3]*v.X +
		q[4]*v.Y*v.Y + 2*q[5]*v.Y*v.Z + 2*q[6]*v.Y +
		q[7]*v.Z*v.Z + 2*q[8]*v.Z +
		q[9]
}

type collapse struct {
	u, v    int
	cost    float64
	pos     r3.Vec
	stamp   uint64 // vertex stamps at push time, for lazy invalidation
	uv, vv  uint64
	heapIdx int
}

type collapseHeap []*collapse

func (h collapseHeap) Len() int            { return len(h) }
func (h collapseHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h collapseHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].heapIdx = i; h[j].heapIdx = j }
func (h *collapseHeap) Push(x any)         { c := x.(*collapse); c.heapIdx = len(*h); *h = append(*h, c) }
func (h *collapseHeap) Pop() any           { old := *h; n := len(old); c := old[n-1]; *h = old[:n-1]; return c }

// Decimate reduces the face count to at most target using quadric error
// metric edge collapses (Garland & Heckbert). Candidate positions are the
// two endpoints and the midpoint; the cheapest under the summed quadric
// wins. Returns the input unchanged when already small enough.
func Decimate(m *Mesh, target int) (*Mesh, error) {
	if len(m.Faces) <= target {
		return m, nil
	}

	verts := append([]r3.Vec(nil), m.Verts...)
	faces := append([][3]int(nil), m.Faces...)

	quads := make([]quadric, len(verts))
	for _, f := range faces {
		q := planeQuadric(verts[f[0]], verts[f[1]], verts[f[2]])
		for _, vi := range f {
			quads[vi].add(&q)
		}
	}

	// vertex -> incident face ids
	incident := make([]map[int]struct{}, len(verts))
	for i := range incident {
		incident[i] = make(map[int]struct{}, 6)
	}
	alive := make([]bool, len(faces))
	nAlive := len(faces)
	for fi, f := range faces {
		alive[fi] = true
		for _, vi := range f {
			incident[vi][fi] = struct{}{}
		}
	}

	stamp := make([]uint64, len(verts))
	h := &collapseHeap{}

	push := func(u, v int) {
		if u == v {
			return
		}
		if u > v {
			u, v = v, u
		}
		sum := quads[u]
		sum.add(&quads[v])
		best := verts[u]
		cost := sum.eval(best)
		if c := sum.eval(verts[v]); c < cost {
			cost, best = c, verts[v]
		}
		mid := r3.Scale(0.5, r3.Add(verts[u], verts[v]))
		if c := sum.eval(mid); c < cost {
			cost, best = c, mid
		}
		heap.Push(h, &collapse{u: u, v: v, cost: cost, pos: best, uv: stamp[u], vv: stamp[v]})
	}

	seen := make(map[edge]struct{})
	for _, f := range faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			if _, ok := seen[edge{a, b}]; ok {
				continue
			}
			seen[edge{a, b}] = struct{}{}
			push(a, b)
		}
	}

	remap := make([]int, len(verts))
	for i := range remap {
		remap[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if remap[i] != i {
			remap[i] = find(remap[i])
		}
		return remap[i]
	}

	for nAlive > target && h.Len() > 0 {
		c := heap.Pop(h).(*collapse)
		u, v := find(c.u), find(c.v)
		if u == v || c.uv != stamp[c.u] || c.vv != stamp[c.v] {
			continue // stale entry
		}
		if math.IsNaN(c.cost) || math.IsInf(c.cost, 0) {
			continue
		}

		// collapse v into u at the optimal position
		verts[u] = c.pos
		quads[u].add(&quads[v])
		remap[v] = u
		stamp[u]++
		stamp[v]++

		neighbors := make(map[int]struct{})
		for fi := range incident[v] {
			incident[u][fi] = struct{}{}
		}
		for fi := range incident[u] {
			if !alive[fi] {
				delete(incident[u], fi)
				continue
			}
			f := &faces[fi]
			for i := 0; i < 3; i++ {
				f[i] = find(f[i])
			}
			if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
				alive[fi] = false
				nAlive--
				delete(incident[u], fi)
				continue
			}
			for _, vi := range f {
				if vi != u {
					neighbors[vi] = struct{}{}
				}
			}
		}
		incident[v] = nil
		for n := range neighbors {
			push(u, n)
		}
	}

	// compact surviving vertices and faces
	newID := make(map[int]int)
	var outVerts []r3.Vec
	var outFaces [][3]int
	for fi, f := range faces {
		if !alive[fi] {
			continue
		}
		var nf [3]int
		for i := 0; i < 3; i++ {
			vi := find(f[i])
			id, ok := newID[vi]
			if !ok {
				id = len(outVerts)
				outVerts = append(outVerts, verts[vi])
				newID[vi] = id
			}
			nf[i] = id
		}
		if nf[0] == nf[1] || nf[1] == nf[2] || nf[0] == nf[2] {
			continue
		}
		outFaces = append(outFaces, nf)
	}
	out, err := NewMesh(outVerts, outFaces)
	if err != nil {
		return nil, err
	}
	out.Watertight = isWatertight(outFaces)
	return out, nil
}
