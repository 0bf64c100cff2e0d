package postprocess

import "github.com/Faultbox/meshport/pkg/scene"

// sortByPType splits meshes holding several primitive types into one mesh
// per type, ordered point, line, triangle, polygon. Types in removed are
// dropped, as are meshes left without faces. Node references follow.
func sortByPType(s *scene.Scene, removed scene.PrimitiveType) {
	remap := make([][]int, len(s.Meshes))
	var out []*scene.Mesh

	for mi, m := range s.Meshes {
		m.UpdatePrimitiveTypes()
		kept := m.PrimitiveTypes &^ removed
		if kept == m.PrimitiveTypes && isSingleType(kept) {
			remap[mi] = []int{len(out)}
			out = append(out, m)
			continue
		}
		for _, t := range scene.PrimitiveTypes {
			if kept&t == 0 {
				continue
			}
			remap[mi] = append(remap[mi], len(out))
			out = append(out, extractType(m, t))
		}
	}

	s.Meshes = out
	walkNodes(s.Root, func(n *scene.Node) {
		var meshes []int
		for _, mi := range n.Meshes {
			meshes = append(meshes, remap[mi]...)
		}
		n.Meshes = meshes
	})
}

func isSingleType(t scene.PrimitiveType) bool {
	return t != 0 && t&(t-1) == 0
}

// extractType copies the faces of type t into a new mesh holding only the
// vertices they use, in first-use order.
func extractType(m *scene.Mesh, t scene.PrimitiveType) *scene.Mesh {
	out := &scene.Mesh{Name: m.Name, PrimitiveTypes: t}
	newIndex := make(map[uint32]uint32)
	hasNormals := m.HasNormals()

	for _, f := range m.Faces {
		if scene.PrimitiveFor(len(f.Indices)) != t {
			continue
		}
		face := scene.Face{Indices: make([]uint32, len(f.Indices))}
		for i, old := range f.Indices {
			ni, ok := newIndex[old]
			if !ok {
				ni = uint32(len(out.Vertices))
				newIndex[old] = ni
				out.Vertices = append(out.Vertices, m.Vertices[old])
				if hasNormals {
					out.Normals = append(out.Normals, m.Normals[old])
				}
			}
			face.Indices[i] = ni
		}
		out.Faces = append(out.Faces, face)
	}
	return out
}
