package postprocess

import (
	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

// optimizeGraph bakes node transforms into the meshes and collapses the
// hierarchy into a single root. A mesh instanced by several nodes is
// duplicated once per instance; meshes no node references are kept as is.
func optimizeGraph(s *scene.Scene) {
	refs := make([]int, len(s.Meshes))
	walkNodes(s.Root, func(n *scene.Node) {
		for _, mi := range n.Meshes {
			refs[mi]++
		}
	})

	var out []*scene.Mesh
	s.Walk(func(n *scene.Node, world math.Mat4) {
		for _, mi := range n.Meshes {
			m := s.Meshes[mi]
			if refs[mi] > 1 {
				m = m.Clone()
			}
			bakeTransform(m, world)
			out = append(out, m)
		}
	})
	for mi, m := range s.Meshes {
		if refs[mi] == 0 {
			out = append(out, m)
		}
	}

	name := "root"
	if s.Root != nil && s.Root.Name != "" {
		name = s.Root.Name
	}
	root := scene.NewNode(name)
	for i := range out {
		root.Meshes = append(root.Meshes, i)
	}
	s.Meshes = out
	s.Root = root
}

// bakeTransform applies world to positions and its inverse-transpose to
// normals. Mirroring transforms flip the winding so faces stay front-facing.
func bakeTransform(m *scene.Mesh, world math.Mat4) {
	if world.IsIdentity() {
		return
	}
	for i, v := range m.Vertices {
		m.Vertices[i] = world.TransformPoint(v)
	}
	if m.Normals != nil {
		nm := world.NormalMatrix()
		for i, n := range m.Normals {
			m.Normals[i] = nm.TransformDirection(n).Normalize()
		}
	}
	if world.Det3() < 0 {
		for _, f := range m.Faces {
			for i, j := 0, len(f.Indices)-1; i < j; i, j = i+1, j-1 {
				f.Indices[i], f.Indices[j] = f.Indices[j], f.Indices[i]
			}
		}
	}
}
