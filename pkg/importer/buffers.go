package importer

import (
	"fmt"

	"github.com/Faultbox/meshport/pkg/math"
)

// CopyVertices writes 3 × VertexCount floats, x,y,z per vertex, into dst
// and returns how many it wrote. Nothing is written when dst is too short.
func (im *Importer) CopyVertices(dst []float32) (int, error) {
	m, err := im.Mesh()
	if err != nil {
		return 0, err
	}
	return copyVec3(dst, m.Vertices)
}

// CopyNormals writes 3 × VertexCount floats of normals into dst.
func (im *Importer) CopyNormals(dst []float32) (int, error) {
	m, err := im.Mesh()
	if err != nil {
		return 0, err
	}
	if !m.HasNormals() {
		return 0, ErrNoNormals
	}
	return copyVec3(dst, m.Normals)
}

// CopyIndices writes 3 × TriangleCount indices into dst in face order.
// Every face must be a triangle.
func (im *Importer) CopyIndices(dst []int32) (int, error) {
	m, err := im.Mesh()
	if err != nil {
		return 0, err
	}
	need := 3 * len(m.Faces)
	if len(dst) < need {
		return 0, fmt.Errorf("%w: need %d indices, have %d", ErrShortBuffer, need, len(dst))
	}
	if !m.IsTriangulated() {
		return 0, ErrNotTriangulated
	}
	for i, f := range m.Faces {
		dst[3*i] = int32(f.Indices[0])
		dst[3*i+1] = int32(f.Indices[1])
		dst[3*i+2] = int32(f.Indices[2])
	}
	return need, nil
}

// Vertices returns a newly allocated copy of the vertex positions.
func (im *Importer) Vertices() ([]float32, error) {
	buf := make([]float32, 3*im.VertexCount())
	n, err := im.CopyVertices(buf)
	return buf[:n], err
}

// Normals returns a newly allocated copy of the vertex normals.
func (im *Importer) Normals() ([]float32, error) {
	buf := make([]float32, 3*im.VertexCount())
	n, err := im.CopyNormals(buf)
	return buf[:n], err
}

// Indices returns a newly allocated copy of the triangle indices.
func (im *Importer) Indices() ([]int32, error) {
	buf := make([]int32, 3*im.TriangleCount())
	n, err := im.CopyIndices(buf)
	return buf[:n], err
}

func copyVec3(dst []float32, src []math.Vec3) (int, error) {
	need := 3 * len(src)
	if len(dst) < need {
		return 0, fmt.Errorf("%w: need %d floats, have %d", ErrShortBuffer, need, len(dst))
	}
	for i, v := range src {
		dst[3*i] = v.X
		dst[3*i+1] = v.Y
		dst[3*i+2] = v.Z
	}
	return need, nil
}
