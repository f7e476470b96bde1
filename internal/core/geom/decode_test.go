package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"stl", "STL", "Stl"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, FormatSTL, f)
	}
	_, err := ParseFormat("step")
	require.Error(t, err)
	_, err = ParseFormat("")
	require.Error(t, err)
}

const asciiSTL = `solid tri
facet normal 0 0 1
 outer loop
  vertex 0 0 0
  vertex 1 0 0
  vertex 0 1 0
 endloop
endfacet
endsolid tri
`

func TestDecode_STL(t *testing.T) {
	m, err := Decode([]byte(asciiSTL), FormatSTL)
	require.NoError(t, err)
	assert.Len(t, m.Faces, 1)
	assert.Len(t, m.Verts, 3)
}

func TestDecode_STLWeldsSharedVertices(t *testing.T) {
	two := `solid quad
facet normal 0 0 1
 outer loop
  vertex 0 0 0
  vertex 1 0 0
  vertex 0 1 0
 endloop
endfacet
facet normal 0 0 1
 outer loop
  vertex 1 0 0
  vertex 1 1 0
  vertex 0 1 0
 endloop
endfacet
endsolid quad
`
	m, err := Decode([]byte(two), FormatSTL)
	require.NoError(t, err)
	assert.Len(t, m.Faces, 2)
	// the shared diagonal vertices are welded, not duplicated
	assert.Len(t, m.Verts, 4)
}

func TestDecode_OBJ(t *testing.T) {
	obj := `# tetra
v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1 2 3
f 1 2 4
f 1 3 4
f 2 3 4
`
	m, err := Decode([]byte(obj), FormatOBJ)
	require.NoError(t, err)
	assert.Len(t, m.Verts, 4)
	assert.Len(t, m.Faces, 4)
}

func TestDecode_OBJQuadFanAndRefs(t *testing.T) {
	obj := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1
f 1/1/1 2/1/1 3/1/1 4/1/1
`
	m, err := Decode([]byte(obj), FormatOBJ)
	require.NoError(t, err)
	// quad triangulated as a fan
	assert.Len(t, m.Faces, 2)
	assert.Equal(t, [3]int{0, 1, 2}, m.Faces[0])
	assert.Equal(t, [3]int{0, 2, 3}, m.Faces[1])
}

func TestDecode_OBJNegativeIndices(t *testing.T) {
	obj := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	m, err := Decode([]byte(obj), FormatOBJ)
	require.NoError(t, err)
	require.Len(t, m.Faces, 1)
	assert.Equal(t, [3]int{0, 1, 2}, m.Faces[0])
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("not a mesh"), FormatSTL)
	require.Error(t, err)
	_, err = Decode([]byte("v 0 0 0"), FormatOBJ)
	require.Error(t, err) // vertices but no faces
	_, err = Decode([]byte("junk"), FormatGLB)
	require.Error(t, err)
}
