package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/meshport/pkg/encoding"
	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
	ErrRSMIndexRange         = errors.New("RSM face vertex index out of range")
)

// Sanity limits for counts read from RSM files.
const (
	rsmMaxNodes    = 10000
	rsmMaxElements = 100000
	rsmMaxKeys     = 10000
	rsmNameLen     = 40
)

var rsmFormat = Format{
	Name:       "rsm",
	Extensions: []string{".rsm"},
	Match: func(head []byte) bool {
		return bytes.HasPrefix(head, []byte("GRSM"))
	},
	Decode: decodeRSM,
}

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMShadingType is the shading mode stored in the header.
type RSMShadingType int32

const (
	RSMShadingNone   RSMShadingType = 0
	RSMShadingFlat   RSMShadingType = 1
	RSMShadingSmooth RSMShadingType = 2
)

// String returns a human-readable shading type name.
func (s RSMShadingType) String() string {
	switch s {
	case RSMShadingNone:
		return "None"
	case RSMShadingFlat:
		return "Flat"
	case RSMShadingSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// RSMFace is a triangle referencing the node's vertex array.
type RSMFace struct {
	VertexIDs   [3]uint16
	TwoSide     bool
	SmoothGroup int32 // v1.2+
}

// RSMNode is one node of the model hierarchy with its static pose.
type RSMNode struct {
	Name   string
	Parent string // empty for the root

	Matrix   [9]float32 // vertex-only 3x3 transform
	Offset   [3]float32 // vertex-only pivot offset
	Position [3]float32
	RotAngle float32 // radians
	RotAxis  [3]float32
	Scale    [3]float32

	// RestRotation is the first rotation keyframe, if any. It replaces
	// the axis-angle rotation.
	RestRotation *[4]float32

	Vertices [][3]float32
	Faces    []RSMFace
}

// RSM is a parsed Ragnarok Online resource model.
type RSM struct {
	Version  RSMVersion
	Shading  RSMShadingType
	Alpha    float32
	Textures []string
	RootNode string
	Nodes    []RSMNode
}

// rsmReader wraps a byte reader and remembers the first error, so a run
// of reads can be checked once.
type rsmReader struct {
	r   *bytes.Reader
	err error
}

func (r *rsmReader) read(v any) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		r.err = ErrTruncatedRSMData
	}
}

func (r *rsmReader) skip(n int64) {
	if r.err != nil {
		return
	}
	if n < 0 || n > int64(r.r.Len()) {
		r.err = ErrTruncatedRSMData
		return
	}
	r.r.Seek(n, io.SeekCurrent)
}

func (r *rsmReader) count(limit int32) int {
	var n int32
	r.read(&n)
	if r.err == nil && (n < 0 || n > limit) {
		r.err = fmt.Errorf("%w: count %d exceeds %d", ErrTruncatedRSMData, n, limit)
	}
	if r.err != nil {
		return 0
	}
	return int(n)
}

// name reads a fixed-length NUL-terminated EUC-KR string.
func (r *rsmReader) name() string {
	buf := make([]byte, rsmNameLen)
	r.read(buf)
	return encoding.FixedString(buf)
}

// ParseRSM parses RSM data from a byte slice. Texture coordinates and
// animation beyond the rest pose are skipped.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	rsm := &RSM{Version: RSMVersion{Major: data[4], Minor: data[5]}, Alpha: 1}
	if rsm.Version.Major != 1 || rsm.Version.Minor < 1 || rsm.Version.Minor > 5 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	r := &rsmReader{r: bytes.NewReader(data[6:])}
	var animLength int32
	r.read(&animLength)
	r.read(&rsm.Shading)
	if rsm.Version.AtLeast(1, 4) {
		var alpha uint8
		r.read(&alpha)
		rsm.Alpha = float32(alpha) / 255
	}
	r.skip(16) // reserved

	rsm.Textures = make([]string, r.count(rsmMaxElements))
	for i := range rsm.Textures {
		rsm.Textures[i] = r.name()
	}
	rsm.RootNode = r.name()

	var nodeCount int32
	r.read(&nodeCount)
	if r.err != nil {
		return nil, r.err
	}
	if nodeCount < 0 || nodeCount > rsmMaxNodes {
		return nil, ErrInvalidNodeCount
	}

	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		parseRSMNode(r, rsm.Version, &rsm.Nodes[i])
		if r.err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, r.err)
		}
	}
	// Volume boxes may follow; they carry no geometry.
	return rsm, nil
}

func parseRSMNode(r *rsmReader, version RSMVersion, node *RSMNode) {
	node.Name = r.name()
	node.Parent = r.name()
	r.skip(4 * int64(r.count(rsmMaxElements))) // texture ids

	r.read(&node.Matrix)
	r.read(&node.Offset)
	r.read(&node.Position)
	r.read(&node.RotAngle)
	r.read(&node.RotAxis)
	r.read(&node.Scale)

	node.Vertices = make([][3]float32, r.count(rsmMaxElements))
	r.read(node.Vertices)

	texCoordSize := int64(8)
	if version.AtLeast(1, 2) {
		texCoordSize += 4 // RGBA color
	}
	r.skip(texCoordSize * int64(r.count(rsmMaxElements)))

	node.Faces = make([]RSMFace, r.count(rsmMaxElements))
	for i := range node.Faces {
		f := &node.Faces[i]
		var texCoordIDs [3]uint16
		var textureID, padding uint16
		var twoSide int32
		r.read(&f.VertexIDs)
		r.read(&texCoordIDs)
		r.read(&textureID)
		r.read(&padding)
		r.read(&twoSide)
		f.TwoSide = twoSide != 0
		if version.AtLeast(1, 2) {
			r.read(&f.SmoothGroup)
		}
	}

	if !version.AtLeast(1, 5) {
		r.skip(16 * int64(r.count(rsmMaxKeys))) // position keys: frame + vec3
	}

	if n := r.count(rsmMaxKeys); n > 0 {
		var frame int32
		var q [4]float32
		r.read(&frame)
		r.read(&q)
		node.RestRotation = &q
		r.skip(20 * int64(n-1))
	}

	if version.AtLeast(1, 5) {
		r.skip(16 * int64(r.count(rsmMaxKeys))) // scale keys
	}
}

// NodeByName returns a node by its name, or nil if not found.
func (rsm *RSM) NodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// ChildNodes returns the indices of nodes whose parent is name.
func (rsm *RSM) ChildNodes(name string) []int {
	var children []int
	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		if n.Parent == name && n.Name != name {
			children = append(children, i)
		}
	}
	return children
}

// localTransform is Position * Rotation * Scale, the part children inherit.
func (n *RSMNode) localTransform() math.Mat4 {
	m := math.Translate(n.Position[0], n.Position[1], n.Position[2])
	if n.RestRotation != nil {
		q := n.RestRotation
		m = m.Mul(math.Quat{X: q[0], Y: q[1], Z: q[2], W: q[3]}.ToMat4())
	} else if n.RotAngle != 0 {
		axis := math.V3(n.RotAxis)
		if axis.Length() > 1e-6 {
			m = m.Mul(math.RotateAxis(axis.Normalize().Array(), n.RotAngle))
		}
	}
	return m.Mul(math.Scale(n.Scale[0], n.Scale[1], n.Scale[2]))
}

// vertexTransform is Offset * Matrix, applied to this node's vertices only.
func (n *RSMNode) vertexTransform() math.Mat4 {
	return math.Translate(n.Offset[0], n.Offset[1], n.Offset[2]).Mul(math.FromMat3x3(n.Matrix))
}

// Scene converts the model into a scene. Each node with geometry becomes
// one mesh with its vertex-only transform baked in; the node hierarchy
// keeps the inherited transforms.
func (rsm *RSM) Scene() (*scene.Scene, error) {
	s := &scene.Scene{Format: "rsm", Root: scene.NewNode("root")}
	visited := make(map[int]bool)

	var build func(idx int) (*scene.Node, error)
	build = func(idx int) (*scene.Node, error) {
		visited[idx] = true
		rn := &rsm.Nodes[idx]
		n := scene.NewNode(rn.Name)
		n.Transform = rn.localTransform()

		if len(rn.Faces) > 0 {
			m, err := rn.mesh()
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", rn.Name, err)
			}
			n.Meshes = append(n.Meshes, s.AddMesh(m))
		}
		for _, c := range rsm.ChildNodes(rn.Name) {
			if visited[c] {
				continue
			}
			child, err := build(c)
			if err != nil {
				return nil, err
			}
			n.AddChild(child)
		}
		return n, nil
	}

	// Start at the declared root, then orphans, then anything stuck in a
	// parent cycle.
	order := make([]int, 0, len(rsm.Nodes))
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == rsm.RootNode {
			order = append(order, i)
		}
	}
	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		if n.Parent == "" || n.Parent == n.Name || rsm.NodeByName(n.Parent) == nil {
			order = append(order, i)
		}
	}
	for i := range rsm.Nodes {
		order = append(order, i)
	}
	for _, i := range order {
		if visited[i] {
			continue
		}
		n, err := build(i)
		if err != nil {
			return nil, err
		}
		s.Root.AddChild(n)
	}
	return s, nil
}

func (n *RSMNode) mesh() (*scene.Mesh, error) {
	vt := n.vertexTransform()
	m := &scene.Mesh{
		Name:     n.Name,
		Vertices: make([]math.Vec3, len(n.Vertices)),
		Faces:    make([]scene.Face, 0, len(n.Faces)),
	}
	for i, v := range n.Vertices {
		m.Vertices[i] = vt.TransformPoint(math.V3(v))
	}
	for _, f := range n.Faces {
		for _, id := range f.VertexIDs {
			if int(id) >= len(n.Vertices) {
				return nil, fmt.Errorf("%w: %d (have %d vertices)", ErrRSMIndexRange, id, len(n.Vertices))
			}
		}
		m.Faces = append(m.Faces, scene.Face{Indices: []uint32{
			uint32(f.VertexIDs[0]), uint32(f.VertexIDs[1]), uint32(f.VertexIDs[2]),
		}})
	}
	m.UpdatePrimitiveTypes()
	return m, nil
}

func decodeRSM(data []byte) (*scene.Scene, error) {
	rsm, err := ParseRSM(data)
	if err != nil {
		return nil, err
	}
	return rsm.Scene()
}
