package postprocess

import (
	"fmt"

	"github.com/Faultbox/meshport/pkg/scene"
)

// Apply runs the enabled steps over s in place. The order is fixed:
// OptimizeGraph, Triangulate, SortByPType, GenSmoothNormals,
// JoinIdenticalVertices.
func Apply(s *scene.Scene, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := Validate(s); err != nil {
		return err
	}

	if cfg.OptimizeGraph {
		optimizeGraph(s)
	}
	if cfg.Triangulate {
		for _, m := range s.Meshes {
			triangulateMesh(m)
		}
	}
	if cfg.SortByPType {
		removed, _ := cfg.removed()
		sortByPType(s, removed)
	}
	if cfg.GenSmoothNormals {
		for _, m := range s.Meshes {
			if cfg.ForceGenNormals || !m.HasNormals() {
				genSmoothNormals(m, cfg.SmoothingAngle)
			}
		}
	}
	if cfg.JoinIdenticalVertices {
		for _, m := range s.Meshes {
			joinIdenticalVertices(m)
		}
	}
	return nil
}

// Validate checks that every face index addresses a vertex and every node
// references an existing mesh. Empty faces are dropped and a normal array
// of the wrong length is discarded.
func Validate(s *scene.Scene) error {
	for mi, m := range s.Meshes {
		if m.Normals != nil && len(m.Normals) != len(m.Vertices) {
			m.Normals = nil
		}
		faces := m.Faces[:0]
		for fi, f := range m.Faces {
			if len(f.Indices) == 0 {
				continue
			}
			for _, idx := range f.Indices {
				if int(idx) >= len(m.Vertices) {
					return fmt.Errorf("%w: mesh %d face %d index %d (have %d vertices)",
						ErrInvalidIndex, mi, fi, idx, len(m.Vertices))
				}
			}
			faces = append(faces, f)
		}
		m.Faces = faces
		m.UpdatePrimitiveTypes()
	}

	var err error
	walkNodes(s.Root, func(n *scene.Node) {
		for _, mi := range n.Meshes {
			if err == nil && (mi < 0 || mi >= len(s.Meshes)) {
				err = fmt.Errorf("%w: node %q references mesh %d (have %d)", ErrInvalidIndex, n.Name, mi, len(s.Meshes))
			}
		}
	})
	return err
}

func walkNodes(n *scene.Node, fn func(*scene.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		walkNodes(c, fn)
	}
}
