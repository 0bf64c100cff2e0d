package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

// OBJ format errors.
var (
	ErrOBJSyntax     = errors.New("malformed OBJ statement")
	ErrOBJIndexRange = errors.New("OBJ index out of range")
)

var objFormat = Format{
	Name:       "obj",
	Extensions: []string{".obj"},
	Match:      matchOBJ,
	Decode:     ParseOBJ,
}

func matchOBJ(head []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(head))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		for _, kw := range []string{"v ", "vn ", "vt ", "o ", "g ", "mtllib ", "f "} {
			if strings.HasPrefix(line, kw) {
				return true
			}
		}
		return false
	}
	return false
}

// objCorner is one face corner: position and optional normal index.
type objCorner struct {
	pos, norm int // resolved, zero based; norm < 0 when absent
}

// objBuilder accumulates the mesh currently being read.
type objBuilder struct {
	positions []math.Vec3
	normals   []math.Vec3

	meshes  []*scene.Mesh
	current *scene.Mesh
	// allNormals stays true while every corner of the current mesh had a normal.
	allNormals bool
}

func (b *objBuilder) begin(name string) {
	if b.current != nil && len(b.current.Faces) == 0 {
		// Reuse an empty mesh so "o"/"g" pairs don't leave holes.
		if name != "" {
			b.current.Name = name
		}
		return
	}
	b.finish()
	b.current = &scene.Mesh{Name: name}
	b.allNormals = true
}

func (b *objBuilder) finish() {
	m := b.current
	if m == nil || len(m.Faces) == 0 {
		return
	}
	if !b.allNormals {
		m.Normals = nil
	}
	m.UpdatePrimitiveTypes()
	b.meshes = append(b.meshes, m)
	b.current = nil
}

func (b *objBuilder) addFace(corners []objCorner) {
	if b.current == nil {
		b.begin("")
	}
	m := b.current
	face := scene.Face{Indices: make([]uint32, len(corners))}
	for i, c := range corners {
		face.Indices[i] = uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, b.positions[c.pos])
		if c.norm >= 0 {
			m.Normals = append(m.Normals, b.normals[c.norm])
		} else {
			b.allNormals = false
			m.Normals = append(m.Normals, math.Vec3{})
		}
	}
	m.Faces = append(m.Faces, face)
}

// ParseOBJ parses Wavefront OBJ geometry. Each "o" or "g" statement starts
// a new mesh; every face corner becomes its own vertex.
func ParseOBJ(data []byte) (*scene.Scene, error) {
	b := &objBuilder{}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	var pending string
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.HasSuffix(line, "\\") {
			pending += strings.TrimSuffix(line, "\\") + " "
			continue
		}
		line = pending + line
		pending = ""

		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if err := b.statement(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	b.finish()

	// A file with vertices but no faces is a point cloud.
	if len(b.meshes) == 0 && len(b.positions) > 0 {
		m := &scene.Mesh{Name: "points", Vertices: append([]math.Vec3(nil), b.positions...)}
		for i := range m.Vertices {
			m.Faces = append(m.Faces, scene.Face{Indices: []uint32{uint32(i)}})
		}
		m.UpdatePrimitiveTypes()
		b.meshes = append(b.meshes, m)
	}

	return scene.Single("obj", b.meshes...), nil
}

func (b *objBuilder) statement(fields []string) error {
	switch fields[0] {
	case "v":
		v, err := parseVec3(fields[1:])
		if err != nil {
			return err
		}
		b.positions = append(b.positions, v)
	case "vn":
		v, err := parseVec3(fields[1:])
		if err != nil {
			return err
		}
		b.normals = append(b.normals, v)
	case "o", "g":
		b.begin(strings.Join(fields[1:], " "))
	case "f", "l", "p":
		need := map[string]int{"f": 3, "l": 2, "p": 1}[fields[0]]
		if len(fields)-1 < need {
			return fmt.Errorf("%w: %q needs at least %d indices", ErrOBJSyntax, fields[0], need)
		}
		corners := make([]objCorner, 0, len(fields)-1)
		for _, tok := range fields[1:] {
			c, err := b.parseCorner(tok)
			if err != nil {
				return err
			}
			corners = append(corners, c)
		}
		if fields[0] == "l" {
			// A polyline becomes a run of segments.
			for i := 0; i+1 < len(corners); i++ {
				b.addFace(corners[i : i+2])
			}
			return nil
		}
		if fields[0] == "p" {
			for i := range corners {
				b.addFace(corners[i : i+1])
			}
			return nil
		}
		b.addFace(corners)
	default:
		// vt, s, usemtl, mtllib and friends carry nothing we keep.
	}
	return nil
}

// parseCorner parses "v", "v/t", "v//n" or "v/t/n".
func (b *objBuilder) parseCorner(tok string) (objCorner, error) {
	parts := strings.Split(tok, "/")
	pos, err := resolveOBJIndex(parts[0], len(b.positions))
	if err != nil {
		return objCorner{}, err
	}
	c := objCorner{pos: pos, norm: -1}
	if len(parts) >= 3 && parts[2] != "" {
		c.norm, err = resolveOBJIndex(parts[2], len(b.normals))
		if err != nil {
			return objCorner{}, err
		}
	}
	return c, nil
}

// resolveOBJIndex converts a 1-based or negative relative index.
func resolveOBJIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad index %q", ErrOBJSyntax, s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, fmt.Errorf("%w: %d (have %d)", ErrOBJIndexRange, i, count)
}

func parseVec3(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("%w: expected 3 components, got %d", ErrOBJSyntax, len(fields))
	}
	var c [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: bad number %q", ErrOBJSyntax, fields[i])
		}
		c[i] = float32(f)
	}
	return math.V3(c), nil
}
