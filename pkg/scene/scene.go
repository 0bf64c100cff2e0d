// Package scene holds the in-memory result of importing a model file.
package scene

import (
	"fmt"
	"strings"

	"github.com/Faultbox/meshport/pkg/math"
)

// PrimitiveType is a bit set describing which face kinds a mesh contains.
type PrimitiveType uint8

const (
	PrimitivePoint    PrimitiveType = 1 << iota // 1 index per face
	PrimitiveLine                               // 2 indices per face
	PrimitiveTriangle                           // 3 indices per face
	PrimitivePolygon                            // 4+ indices per face
)

// PrimitiveTypes lists the single primitive types in canonical order.
var PrimitiveTypes = []PrimitiveType{PrimitivePoint, PrimitiveLine, PrimitiveTriangle, PrimitivePolygon}

// PrimitiveFor returns the primitive type of a face with n indices.
func PrimitiveFor(n int) PrimitiveType {
	switch {
	case n <= 1:
		return PrimitivePoint
	case n == 2:
		return PrimitiveLine
	case n == 3:
		return PrimitiveTriangle
	default:
		return PrimitivePolygon
	}
}

// String returns the set members joined by "|".
func (p PrimitiveType) String() string {
	if p == 0 {
		return "none"
	}
	var names []string
	for _, t := range PrimitiveTypes {
		if p&t == 0 {
			continue
		}
		switch t {
		case PrimitivePoint:
			names = append(names, "point")
		case PrimitiveLine:
			names = append(names, "line")
		case PrimitiveTriangle:
			names = append(names, "triangle")
		case PrimitivePolygon:
			names = append(names, "polygon")
		}
	}
	if rest := p &^ (PrimitivePoint | PrimitiveLine | PrimitiveTriangle | PrimitivePolygon); rest != 0 {
		names = append(names, fmt.Sprintf("Unknown(%d)", uint8(rest)))
	}
	return strings.Join(names, "|")
}

// ParsePrimitiveType converts a single type name.
func ParsePrimitiveType(name string) (PrimitiveType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "point", "points":
		return PrimitivePoint, true
	case "line", "lines":
		return PrimitiveLine, true
	case "triangle", "triangles":
		return PrimitiveTriangle, true
	case "polygon", "polygons":
		return PrimitivePolygon, true
	}
	return 0, false
}

// Face is one primitive given as indices into the mesh vertex array.
type Face struct {
	Indices []uint32
}

// Mesh is a single geometric surface.
type Mesh struct {
	Name           string
	Vertices       []math.Vec3
	Normals        []math.Vec3 // nil when absent, else parallel to Vertices
	Faces          []Face
	PrimitiveTypes PrimitiveType
}

// HasNormals reports whether the mesh carries one normal per vertex.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Vertices)
}

// UpdatePrimitiveTypes recomputes PrimitiveTypes from the faces.
func (m *Mesh) UpdatePrimitiveTypes() {
	var t PrimitiveType
	for _, f := range m.Faces {
		t |= PrimitiveFor(len(f.Indices))
	}
	m.PrimitiveTypes = t
}

// IsTriangulated reports whether every face has exactly three indices.
func (m *Mesh) IsTriangulated() bool {
	for _, f := range m.Faces {
		if len(f.Indices) != 3 {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() Bounds {
	b := EmptyBounds()
	for _, v := range m.Vertices {
		b.Extend(v)
	}
	return b
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:           m.Name,
		Vertices:       append([]math.Vec3(nil), m.Vertices...),
		PrimitiveTypes: m.PrimitiveTypes,
		Faces:          make([]Face, len(m.Faces)),
	}
	if m.Normals != nil {
		c.Normals = append([]math.Vec3(nil), m.Normals...)
	}
	for i, f := range m.Faces {
		c.Faces[i] = Face{Indices: append([]uint32(nil), f.Indices...)}
	}
	return c
}

// Node places meshes in the scene hierarchy.
type Node struct {
	Name      string
	Transform math.Mat4 // local, relative to the parent
	Meshes    []int     // indices into Scene.Meshes
	Children  []*Node
}

// NewNode returns a node with an identity transform.
func NewNode(name string) *Node {
	return &Node{Name: name, Transform: math.Identity()}
}

// AddChild appends a child node and returns it.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Scene is the imported content of one file.
type Scene struct {
	Format string
	Meshes []*Mesh
	Root   *Node
}

// Mesh returns the mesh at index i.
func (s *Scene) Mesh(i int) (*Mesh, bool) {
	if s == nil || i < 0 || i >= len(s.Meshes) {
		return nil, false
	}
	return s.Meshes[i], true
}

// AddMesh appends a mesh and returns its index.
func (s *Scene) AddMesh(m *Mesh) int {
	s.Meshes = append(s.Meshes, m)
	return len(s.Meshes) - 1
}

// Walk visits every node depth-first with its accumulated world transform.
func (s *Scene) Walk(fn func(n *Node, world math.Mat4)) {
	if s.Root == nil {
		return
	}
	var visit func(n *Node, parent math.Mat4)
	visit = func(n *Node, parent math.Mat4) {
		world := parent.Mul(n.Transform)
		fn(n, world)
		for _, c := range n.Children {
			visit(c, world)
		}
	}
	visit(s.Root, math.Identity())
}

// VertexCount returns the number of vertices across all meshes.
func (s *Scene) VertexCount() int {
	total := 0
	for _, m := range s.Meshes {
		total += len(m.Vertices)
	}
	return total
}

// FaceCount returns the number of faces across all meshes.
func (s *Scene) FaceCount() int {
	total := 0
	for _, m := range s.Meshes {
		total += len(m.Faces)
	}
	return total
}

// Single wraps meshes in a scene whose root references all of them.
func Single(format string, meshes ...*Mesh) *Scene {
	s := &Scene{Format: format, Root: NewNode("root")}
	for _, m := range meshes {
		s.Root.Meshes = append(s.Root.Meshes, s.AddMesh(m))
	}
	return s
}
