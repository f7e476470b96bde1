package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	triA = r3.Vec{}
	triB = r3.Vec{X: 1}
	triC = r3.Vec{Y: 1}
)

func TestClosestPointTriangle(t *testing.T) {
	cases := []struct {
		name string
		p    r3.Vec
		want r3.Vec
	}{
		{"face interior", r3.Vec{X: 0.25, Y: 0.25, Z: 1}, r3.Vec{X: 0.25, Y: 0.25}},
		{"vertex region", r3.Vec{X: -1, Y: -1}, r3.Vec{}},
		{"edge ab", r3.Vec{X: 0.5, Y: -2}, r3.Vec{X: 0.5}},
		{"edge bc", r3.Vec{X: 2, Y: 2}, r3.Vec{X: 0.5, Y: 0.5}},
		{"on the triangle", r3.Vec{X: 0.1, Y: 0.1}, r3.Vec{X: 0.1, Y: 0.1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClosestPointTriangle(tc.p, triA, triB, triC)
			assert.InDelta(t, tc.want.X, got.X, 1e-12)
			assert.InDelta(t, tc.want.Y, got.Y, 1e-12)
			assert.InDelta(t, tc.want.Z, got.Z, 1e-12)
		})
	}
}

func TestRayTriangle(t *testing.T) {
	orig := r3.Vec{X: 0.25, Y: 0.25, Z: -1}
	dir := r3.Vec{Z: 1}

	dist, hit, grazing := RayTriangle(orig, dir, triA, triB, triC)
	require.True(t, hit)
	assert.False(t, grazing)
	assert.InDelta(t, 1.0, dist, 1e-12)

	// ray pointing away never hits
	_, hit, _ = RayTriangle(orig, r3.Vec{Z: -1}, triA, triB, triC)
	assert.False(t, hit)

	// parallel to the plane
	_, hit, _ = RayTriangle(orig, r3.Vec{X: 1}, triA, triB, triC)
	assert.False(t, hit)

	// passes outside the triangle
	_, hit, _ = RayTriangle(r3.Vec{X: 2, Y: 2, Z: -1}, dir, triA, triB, triC)
	assert.False(t, hit)
}

func TestRayTriangle_GrazingFlagged(t *testing.T) {
	dir := r3.Vec{Z: 1}
	cases := []struct {
		name string
		orig r3.Vec
	}{
		{"through vertex a", r3.Vec{Z: -1}},
		{"through vertex b", r3.Vec{X: 1, Z: -1}},
		{"on edge ab", r3.Vec{X: 0.5, Z: -1}},
		{"on hypotenuse", r3.Vec{X: 0.5, Y: 0.5, Z: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, grazing := RayTriangle(tc.orig, dir, triA, triB, triC)
			assert.True(t, grazing)
		})
	}

	// a hair outside an edge still grazes, so the parity caller re-casts
	// instead of silently missing
	_, hit, grazing := RayTriangle(r3.Vec{X: 0.5, Y: -1e-11, Z: -1}, dir, triA, triB, triC)
	assert.False(t, hit)
	assert.True(t, grazing)
}
