package postprocess

import (
	gomath "math"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

// vertexKey identifies a vertex by the bit patterns of its position and
// normal, so -0 and 0 stay distinct and NaNs compare equal to themselves.
type vertexKey [6]uint32

func keyOf(p, n math.Vec3) vertexKey {
	return vertexKey{
		gomath.Float32bits(p.X), gomath.Float32bits(p.Y), gomath.Float32bits(p.Z),
		gomath.Float32bits(n.X), gomath.Float32bits(n.Y), gomath.Float32bits(n.Z),
	}
}

// joinIdenticalVertices merges vertices with identical position and normal.
// Vertices are renumbered in the order faces first reference them;
// unreferenced vertices are dropped.
func joinIdenticalVertices(m *scene.Mesh) {
	hasNormals := m.HasNormals()
	index := make(map[vertexKey]uint32, len(m.Vertices))
	remap := make([]int64, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}

	vertices := make([]math.Vec3, 0, len(m.Vertices))
	var normals []math.Vec3
	if hasNormals {
		normals = make([]math.Vec3, 0, len(m.Vertices))
	}

	for _, f := range m.Faces {
		for i, old := range f.Indices {
			if r := remap[old]; r >= 0 {
				f.Indices[i] = uint32(r)
				continue
			}
			var n math.Vec3
			if hasNormals {
				n = m.Normals[old]
			}
			key := keyOf(m.Vertices[old], n)
			ni, ok := index[key]
			if !ok {
				ni = uint32(len(vertices))
				index[key] = ni
				vertices = append(vertices, m.Vertices[old])
				if hasNormals {
					normals = append(normals, n)
				}
			}
			remap[old] = int64(ni)
			f.Indices[i] = ni
		}
	}

	m.Vertices = vertices
	if hasNormals {
		m.Normals = normals
	} else {
		m.Normals = nil
	}
}
