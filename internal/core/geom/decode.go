package geom

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/hschendel/stl"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"gonum.org/v1/gonum/spatial/r3"
)

// Format is the declared upload format. Sniffing is not attempted; the
// caller resolves the variant once at ingestion.
type Format string

const (
	// FormatSTL is stereolithography, binary or ASCII.
	FormatSTL Format = "stl"
	// FormatOBJ is Wavefront OBJ, vertices and faces only.
	FormatOBJ Format = "obj"
	// FormatGLB is binary glTF.
	FormatGLB Format = "glb"
)

// ParseFormat validates a declared format string.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSTL, FormatOBJ, FormatGLB:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// Decode parses raw mesh bytes in the declared format. Disjoint sub-meshes
// (glTF primitives, OBJ groups) are concatenated into a single Mesh.
func Decode(data []byte, format Format) (*Mesh, error) {
	switch format {
	case FormatSTL:
		return decodeSTL(data)
	case FormatOBJ:
		return decodeOBJ(data)
	case FormatGLB:
		return decodeGLB(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func decodeSTL(data []byte) (*Mesh, error) {
	solid, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}
	if len(solid.Triangles) == 0 {
		return nil, ErrNoFaces
	}
	// STL repeats vertices per triangle; weld identical positions so the
	// repair pass can see shared edges.
	index := make(map[r3.Vec]int, len(solid.Triangles))
	var verts []r3.Vec
	faces := make([][3]int, 0, len(solid.Triangles))
	for _, t := range solid.Triangles {
		var f [3]int
		for i, v := range t.Vertices {
			p := r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
			id, ok := index[p]
			if !ok {
				id = len(verts)
				verts = append(verts, p)
				index[p] = id
			}
			f[i] = id
		}
		faces = append(faces, f)
	}
	return NewMesh(verts, faces)
}

func decodeOBJ(data []byte) (*Mesh, error) {
	var verts []r3.Vec
	var faces [][3]int
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: short vertex", line)
			}
			var p [3]float64
			for i := 0; i < 3; i++ {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				p[i] = v
			}
			verts = append(verts, r3.Vec{X: p[0], Y: p[1], Z: p[2]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs 3+ vertices", line)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				i, err := objIndex(ref, len(verts))
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				idx = append(idx, i)
			}
			// fan-triangulate polygons
			for i := 1; i < len(idx)-1; i++ {
				faces = append(faces, [3]int{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}
	if len(faces) == 0 {
		return nil, ErrNoFaces
	}
	return NewMesh(verts, faces)
}

// objIndex resolves a face vertex reference ("7", "7/1", "7//3", "-1").
func objIndex(ref string, nverts int) (int, error) {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		ref = ref[:i]
	}
	v, err := strconv.Atoi(ref)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		v = nverts + v + 1
	}
	if v < 1 || v > nverts {
		return 0, fmt.Errorf("vertex index %d out of range", v)
	}
	return v - 1, nil
}

func decodeGLB(data []byte) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("glb: %w", err)
	}
	var parts []*Mesh
	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			pos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("glb positions: %w", err)
			}
			verts := make([]r3.Vec, len(pos))
			for i, p := range pos {
				verts[i] = r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
			}
			var faces [][3]int
			if prim.Indices != nil {
				idx, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
				if err != nil {
					return nil, fmt.Errorf("glb indices: %w", err)
				}
				for i := 0; i+2 < len(idx); i += 3 {
					faces = append(faces, [3]int{int(idx[i]), int(idx[i+1]), int(idx[i+2])})
				}
			} else {
				for i := 0; i+2 < len(verts); i += 3 {
					faces = append(faces, [3]int{i, i + 1, i + 2})
				}
			}
			if len(faces) == 0 {
				continue
			}
			part, err := NewMesh(verts, faces)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return nil, ErrNoFaces
	}
	return Concat(parts)
}
