package formats

import (
	"bytes"
	"fmt"

	"github.com/hschendel/stl"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

var stlFormat = Format{
	Name:       "stl",
	Extensions: []string{".stl"},
	Match: func(head []byte) bool {
		return hasPrefixFold(head, "solid") && bytes.Contains(bytes.ToLower(head), []byte("facet"))
	},
	Decode: ParseSTL,
}

// ParseSTL parses ASCII or binary STL. Each facet contributes three
// unshared vertices carrying the facet normal.
func ParseSTL(data []byte) (*scene.Scene, error) {
	solid, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading STL: %w", err)
	}

	m := &scene.Mesh{
		Name:     solid.Name,
		Vertices: make([]math.Vec3, 0, len(solid.Triangles)*3),
		Normals:  make([]math.Vec3, 0, len(solid.Triangles)*3),
		Faces:    make([]scene.Face, 0, len(solid.Triangles)),
	}

	usable := true
	for _, tri := range solid.Triangles {
		n := math.V3(tri.Normal)
		if n == (math.Vec3{}) {
			usable = false
		}
		base := uint32(len(m.Vertices))
		for _, v := range tri.Vertices {
			m.Vertices = append(m.Vertices, math.V3(v))
			m.Normals = append(m.Normals, n)
		}
		m.Faces = append(m.Faces, scene.Face{Indices: []uint32{base, base + 1, base + 2}})
	}
	// Exporters often write zero normals; let normal generation fill them.
	if !usable {
		m.Normals = nil
	}
	m.UpdatePrimitiveTypes()

	return scene.Single("stl", m), nil
}
