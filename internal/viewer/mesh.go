package viewer

import (
	"errors"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/meshport/pkg/importer"
)

// gpuMesh is one importer mesh uploaded to the GPU.
type gpuMesh struct {
	vao, positions, normals, ebo uint32
	indexCount                   int32
}

// uploadMesh copies the importer's flat buffers into GPU buffers. A mesh
// without normals gets zero normals, which the shader treats as facing the
// camera.
func uploadMesh(im *importer.Importer) (*gpuMesh, error) {
	verts, err := im.Vertices()
	if err != nil {
		return nil, err
	}
	indices, err := im.Indices()
	if err != nil {
		return nil, err
	}
	norms, err := im.Normals()
	if errors.Is(err, importer.ErrNoNormals) {
		norms = make([]float32, len(verts))
	} else if err != nil {
		return nil, err
	}
	if len(verts) == 0 || len(indices) == 0 {
		return nil, importer.ErrNoMesh
	}

	m := &gpuMesh{indexCount: int32(len(indices))}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.positions)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.positions)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &m.normals)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.normals)
	gl.BufferData(gl.ARRAY_BUFFER, len(norms)*4, unsafe.Pointer(&norms[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(1)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return m, nil
}

func (m *gpuMesh) draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

func (m *gpuMesh) release() {
	buffers := []uint32{m.positions, m.normals, m.ebo}
	gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
	gl.DeleteVertexArrays(1, &m.vao)
}
