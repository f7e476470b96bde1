package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Built-in demo geometries matching what the marketplace demo endpoint
// offers. Sphere, box and cylinder are generated watertight; the airfoil
// is an open strip and exercises the repair path.

// Icosphere returns a subdivided icosahedron of the given radius centered
// at the origin. subdivisions=2 gives 320 faces.
func Icosphere(subdivisions int, radius float64) *Mesh {
	t := (1 + math.Sqrt(5)) / 2
	verts := []r3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	midpoint := func(cache map[edge]int, a, b int) int {
		key := edge{a, b}
		if a > b {
			key = edge{b, a}
		}
		if id, ok := cache[key]; ok {
			return id
		}
		m := r3.Scale(0.5, r3.Add(verts[a], verts[b]))
		verts = append(verts, m)
		cache[key] = len(verts) - 1
		return len(verts) - 1
	}

	for s := 0; s < subdivisions; s++ {
		cache := make(map[edge]int)
		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			ab := midpoint(cache, f[0], f[1])
			bc := midpoint(cache, f[1], f[2])
			ca := midpoint(cache, f[2], f[0])
			next = append(next,
				[3]int{f[0], ab, ca},
				[3]int{f[1], bc, ab},
				[3]int{f[2], ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		faces = next
	}

	for i, v := range verts {
		verts[i] = r3.Scale(radius/r3.Norm(v), v)
	}
	m, _ := NewMesh(verts, faces)
	m.Watertight = true
	return m
}

// Box returns an axis-aligned box with the given extents centered at the
// origin.
func Box(ex, ey, ez float64) *Mesh {
	hx, hy, hz := ex/2, ey/2, ez/2
	verts := []r3.Vec{
		{X: -hx, Y: -hy, Z: -hz}, {X: hx, Y: -hy, Z: -hz},
		{X: hx, Y: hy, Z: -hz}, {X: -hx, Y: hy, Z: -hz},
		{X: -hx, Y: -hy, Z: hz}, {X: hx, Y: -hy, Z: hz},
		{X: hx, Y: hy, Z: hz}, {X: -hx, Y: hy, Z: hz},
	}
	faces := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom (z-)
		{4, 5, 6}, {4, 6, 7}, // top (z+)
		{0, 1, 5}, {0, 5, 4}, // front (y-)
		{2, 3, 7}, {2, 7, 6}, // back (y+)
		{1, 2, 6}, {1, 6, 5}, // right (x+)
		{3, 0, 4}, {3, 4, 7}, // left (x-)
	}
	m, _ := NewMesh(verts, faces)
	m.Watertight = true
	return m
}

// Cylinder returns a closed cylinder along z, centered at the origin.
func Cylinder(radius, height float64, segments int) *Mesh {
	if segments < 3 {
		segments = 32
	}
	hz := height / 2
	var verts []r3.Vec
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		x, y := radius*math.Cos(a), radius*math.Sin(a)
		verts = append(verts, r3.Vec{X: x, Y: y, Z: -hz}, r3.Vec{X: x, Y: y, Z: hz})
	}
	bot := len(verts)
	verts = append(verts, r3.Vec{Z: -hz})
	top := len(verts)
	verts = append(verts, r3.Vec{Z: hz})

	var faces [][3]int
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		b0, t0 := 2*i, 2*i+1
		b1, t1 := 2*j, 2*j+1
		faces = append(faces,
			[3]int{b0, b1, t1}, [3]int{b0, t1, t0}, // wall
			[3]int{bot, b1, b0}, // bottom cap
			[3]int{top, t0, t1}, // top cap
		)
	}
	m, _ := NewMesh(verts, faces)
	m.Watertight = true
	return m
}

// Airfoil returns a flat NACA 0012 strip (unit chord in the xy plane).
// It is intentionally not watertight so the demo path exercises repair.
func Airfoil() *Mesh {
	const thickness = 0.12
	var verts []r3.Vec
	for i := 0; i <= 20; i++ {
		x := float64(i) / 20
		yt := 5 * thickness * (0.2969*math.Sqrt(x) - 0.1260*x - 0.3516*x*x + 0.2843*x*x*x - 0.1015*x*x*x*x)
		verts = append(verts, r3.Vec{X: x, Y: yt})
		if i > 0 && i < 20 {
			verts = append(verts, r3.Vec{X: x, Y: -yt})
		}
	}
	var faces [][3]int
	for i := 0; i+2 < len(verts); i++ {
		faces = append(faces, [3]int{i, i + 1, i + 2})
	}
	m, _ := NewMesh(verts, faces)
	return m
}
