package geom

import (
	geor3 "github.com/golang/geo/r3"
	quickhull "github.com/markus-wa/quickhull-go/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

// RepairReport records what Repair had to do. Hole filling and the convex
// hull fallback are tolerated degradations: the caller logs them and keeps
// going, it does not fail the request.
type RepairReport struct {
	WasWatertight bool
	FilledLoops   int
	ConvexHull    bool
}

type edge [2]int

// Repair returns a watertight version of m where possible. Open boundary
// loops are closed by fan triangulation; if the surface still is not
// closed the convex hull of the vertices replaces it, which is lossy but
// always yields a valid inside/outside test. The input mesh is not
// modified.
func Repair(m *Mesh) (*Mesh, RepairReport, error) {
	if isWatertight(m.Faces) {
		out := *m
		out.Watertight = true
		return &out, RepairReport{WasWatertight: true}, nil
	}

	faces := append([][3]int(nil), m.Faces...)
	loops := boundaryLoops(faces)
	filled := 0
	for _, loop := range loops {
		if len(loop) < 3 {
			continue
		}
		// fan fill; winding reversed against the boundary so normals stay
		// consistent with the surrounding surface
		for i := 1; i < len(loop)-1; i++ {
			faces = append(faces, [3]int{loop[0], loop[i+1], loop[i]})
		}
		filled++
	}
	if filled > 0 && isWatertight(faces) {
		out, err := NewMesh(m.Verts, faces)
		if err != nil {
			return nil, RepairReport{}, err
		}
		out.Watertight = true
		return out, RepairReport{FilledLoops: filled}, nil
	}

	hull, err := convexHull(m.Verts)
	if err != nil {
		return nil, RepairReport{}, err
	}
	hull.Watertight = true
	return hull, RepairReport{FilledLoops: filled, ConvexHull: true}, nil
}

// isWatertight reports whether every directed edge has exactly one
// opposite-direction partner (closed orientable 2-manifold).
func isWatertight(faces [][3]int) bool {
	if len(faces) == 0 {
		return false
	}
	dir := make(map[edge]int, len(faces)*3)
	for _, f := range faces {
		for i := 0; i < 3; i++ {
			dir[edge{f[i], f[(i+1)%3]}]++
		}
	}
	for e, n := range dir {
		if n != 1 || dir[edge{e[1], e[0]}] != 1 {
			return false
		}
	}
	return true
}

// boundaryLoops chains boundary edges (directed edges without a reverse
// partner) into closed vertex loops. Unchainable stretches are dropped;
// the hull fallback picks those meshes up.
func boundaryLoops(faces [][3]int) [][]int {
	dir := make(map[edge]bool, len(faces)*3)
	for _, f := range faces {
		for i := 0; i < 3; i++ {
			dir[edge{f[i], f[(i+1)%3]}] = true
		}
	}
	next := make(map[int]int)
	for e := range dir {
		if !dir[edge{e[1], e[0]}] {
			next[e[0]] = e[1]
		}
	}
	var loops [][]int
	seen := make(map[int]bool)
	for start := range next {
		if seen[start] {
			continue
		}
		loop := []int{start}
		seen[start] = true
		cur := start
		for {
			n, ok := next[cur]
			if !ok {
				loop = nil // open chain, cannot close
				break
			}
			if n == start {
				break
			}
			if seen[n] {
				loop = nil
				break
			}
			loop = append(loop, n)
			seen[n] = true
			cur = n
		}
		if len(loop) >= 3 {
			loops = append(loops, loop)
		}
	}
	return loops
}

// convexHull rebuilds the surface as the convex hull of the vertex cloud.
func convexHull(verts []r3.Vec) (*Mesh, error) {
	cloud := make([]geor3.Vector, len(verts))
	for i, v := range verts {
		cloud[i] = geor3.Vector{X: v.X, Y: v.Y, Z: v.Z}
	}
	hull := new(quickhull.QuickHull).ConvexHull(cloud, true, false, 0)
	if len(hull.Indices) < 3 {
		return nil, ErrNoFaces
	}
	hverts := make([]r3.Vec, len(hull.Vertices))
	for i, v := range hull.Vertices {
		hverts[i] = r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
	}
	faces := make([][3]int, 0, len(hull.Indices)/3)
	for i := 0; i+2 < len(hull.Indices); i += 3 {
		faces = append(faces, [3]int{hull.Indices[i], hull.Indices[i+1], hull.Indices[i+2]})
	}
	return NewMesh(hverts, faces)
}
