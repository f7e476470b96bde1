package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepair_AlreadyWatertight(t *testing.T) {
	box := Box(1, 1, 1)
	out, report, err := Repair(box)
	require.NoError(t, err)

	assert.True(t, report.WasWatertight)
	assert.Zero(t, report.FilledLoops)
	assert.False(t, report.ConvexHull)
	assert.True(t, out.Watertight)
	assert.Len(t, out.Faces, len(box.Faces))
}

func TestRepair_FillsTriangularHole(t *testing.T) {
	box := Box(1, 1, 1)
	holed, err := NewMesh(box.Verts, box.Faces[1:]) // drop one triangle
	require.NoError(t, err)

	out, report, err := Repair(holed)
	require.NoError(t, err)

	assert.False(t, report.WasWatertight)
	assert.Equal(t, 1, report.FilledLoops)
	assert.False(t, report.ConvexHull)
	assert.True(t, out.Watertight)
	assert.Len(t, out.Faces, len(box.Faces))
}

func TestRepair_HullFallbackOnOpenStrip(t *testing.T) {
	strip := Airfoil()
	require.False(t, strip.Watertight)

	out, report, err := Repair(strip)
	require.NoError(t, err)

	assert.True(t, report.ConvexHull)
	assert.True(t, out.Watertight)
	assert.NotEmpty(t, out.Faces)
}

func TestRepair_DoesNotMutateInput(t *testing.T) {
	box := Box(1, 1, 1)
	holed, err := NewMesh(box.Verts, box.Faces[1:])
	require.NoError(t, err)
	before := len(holed.Faces)

	_, _, err = Repair(holed)
	require.NoError(t, err)
	assert.Len(t, holed.Faces, before)
	assert.False(t, holed.Watertight)
}

func TestGeneratedShapesAreClosed(t *testing.T) {
	for name, m := range map[string]*Mesh{
		"sphere":   Icosphere(2, 0.5),
		"cube":     Box(1.0, 0.5, 0.3),
		"cylinder": Cylinder(0.3, 2.0, 32),
	} {
		t.Run(name, func(t *testing.T) {
			_, report, err := Repair(m)
			require.NoError(t, err)
			assert.True(t, report.WasWatertight)
		})
	}
}
