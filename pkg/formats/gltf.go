package formats

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

// glTF format errors.
var (
	ErrGLTFNoPosition = errors.New("glTF primitive has no POSITION attribute")
	ErrGLTFBadIndex   = errors.New("glTF index out of range")
)

var gltfFormat = Format{
	Name:       "gltf",
	Extensions: []string{".gltf", ".glb"},
	Match: func(head []byte) bool {
		if bytes.HasPrefix(head, []byte("glTF")) {
			return true
		}
		trimmed := bytes.TrimLeft(head, " \t\r\n")
		return bytes.HasPrefix(trimmed, []byte("{")) && bytes.Contains(head, []byte(`"asset"`))
	},
	Decode: ParseGLTF,
	Open:   OpenGLTF,
}

// OpenGLTF reads a .gltf or .glb file from disk, resolving external
// buffers relative to the file.
func OpenGLTF(path string) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return convertGLTF(doc)
}

// ParseGLTF decodes a glTF document held in memory. Only GLB files and
// documents with embedded (data URI) buffers can be decoded this way.
func ParseGLTF(data []byte) (*scene.Scene, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, err
	}
	return convertGLTF(doc)
}

func convertGLTF(doc *gltf.Document) (*scene.Scene, error) {
	s := &scene.Scene{Format: "gltf", Root: scene.NewNode("root")}

	// One scene mesh per primitive; meshMap maps glTF mesh index to them.
	meshMap := make([][]int, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := convertPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			m.Name = gm.Name
			meshMap[mi] = append(meshMap[mi], s.AddMesh(m))
		}
	}

	roots := gltfRootNodes(doc)
	visited := make(map[int]bool)
	var build func(idx int) (*scene.Node, error)
	build = func(idx int) (*scene.Node, error) {
		if idx < 0 || idx >= len(doc.Nodes) {
			return nil, fmt.Errorf("node index %d out of range", idx)
		}
		if visited[idx] {
			return nil, fmt.Errorf("node %d appears twice in the hierarchy", idx)
		}
		visited[idx] = true

		gn := doc.Nodes[idx]
		n := scene.NewNode(gn.Name)
		n.Transform = gltfNodeTransform(gn)
		if gn.Mesh != nil {
			if *gn.Mesh < 0 || *gn.Mesh >= len(meshMap) {
				return nil, fmt.Errorf("node %d: mesh index %d out of range", idx, *gn.Mesh)
			}
			n.Meshes = append(n.Meshes, meshMap[*gn.Mesh]...)
		}
		for _, c := range gn.Children {
			child, err := build(c)
			if err != nil {
				return nil, err
			}
			n.AddChild(child)
		}
		return n, nil
	}
	for _, idx := range roots {
		n, err := build(idx)
		if err != nil {
			return nil, err
		}
		s.Root.AddChild(n)
	}

	// Documents without nodes still expose their meshes.
	if len(roots) == 0 {
		for i := range s.Meshes {
			s.Root.Meshes = append(s.Root.Meshes, i)
		}
	}
	return s, nil
}

// gltfRootNodes returns the nodes of the default scene, or of the first
// scene, or every parentless node when the document declares none.
func gltfRootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}
	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func gltfNodeTransform(n *gltf.Node) math.Mat4 {
	if n.Matrix != gltf.DefaultMatrix && n.Matrix != [16]float64{} {
		return math.Mat4FromFloat64(n.Matrix)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	sc := n.ScaleOrDefault()
	rot := math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])}
	return math.Translate(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul(rot.ToMat4()).
		Mul(math.Scale(float32(sc[0]), float32(sc[1]), float32(sc[2])))
}

func convertPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*scene.Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, ErrGLTFNoPosition
	}
	if posIdx < 0 || posIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("position accessor %d out of range", posIdx)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	m := &scene.Mesh{Vertices: make([]math.Vec3, len(positions))}
	for i, p := range positions {
		m.Vertices[i] = math.V3(p)
	}

	if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok && nIdx >= 0 && nIdx < len(doc.Accessors) {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[nIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		if len(normals) == len(positions) {
			m.Normals = make([]math.Vec3, len(normals))
			for i, n := range normals {
				m.Normals[i] = math.V3(n)
			}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if *prim.Indices < 0 || *prim.Indices >= len(doc.Accessors) {
			return nil, fmt.Errorf("index accessor %d out of range", *prim.Indices)
		}
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("%w: %d (have %d vertices)", ErrGLTFBadIndex, idx, len(positions))
		}
	}

	m.Faces = gltfFaces(prim.Mode, indices)
	m.UpdatePrimitiveTypes()
	return m, nil
}

// gltfFaces expands an index stream into faces according to the primitive
// topology. Strips and fans are unrolled into triangles; loops are closed.
func gltfFaces(mode gltf.PrimitiveMode, idx []uint32) []scene.Face {
	var faces []scene.Face
	add := func(ix ...uint32) {
		faces = append(faces, scene.Face{Indices: ix})
	}

	switch mode {
	case gltf.PrimitivePoints:
		for _, i := range idx {
			add(i)
		}
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(idx); i += 2 {
			add(idx[i], idx[i+1])
		}
	case gltf.PrimitiveLineStrip, gltf.PrimitiveLineLoop:
		for i := 0; i+1 < len(idx); i++ {
			add(idx[i], idx[i+1])
		}
		if mode == gltf.PrimitiveLineLoop && len(idx) > 2 {
			add(idx[len(idx)-1], idx[0])
		}
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(idx); i++ {
			if i%2 == 0 {
				add(idx[i], idx[i+1], idx[i+2])
			} else {
				add(idx[i+1], idx[i], idx[i+2])
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(idx); i++ {
			add(idx[0], idx[i], idx[i+1])
		}
	default:
		for i := 0; i+2 < len(idx); i += 3 {
			add(idx[i], idx[i+1], idx[i+2])
		}
	}
	return faces
}
