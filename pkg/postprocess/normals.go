package postprocess

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

// up is the normal given to vertices with no usable surface around them.
var up = math.Vec3{Y: 1}

// genSmoothNormals replaces the mesh normals with area-independent
// averages of the face normals meeting at each position. Faces whose
// normal is more than maxAngle degrees away from the vertex's own face
// normal are left out of the average. Meshes without triangles or
// polygons are skipped.
func genSmoothNormals(m *scene.Mesh, maxAngle float32) {
	if m.PrimitiveTypes&(scene.PrimitiveTriangle|scene.PrimitivePolygon) == 0 {
		return
	}

	faceNormals := make([]math.Vec3, len(m.Faces))
	ownSum := make([]math.Vec3, len(m.Vertices))
	for fi, f := range m.Faces {
		if len(f.Indices) < 3 {
			continue
		}
		fn := newellNormal(m.Vertices, f.Indices).Normalize()
		faceNormals[fi] = fn
		for _, vi := range f.Indices {
			ownSum[vi] = ownSum[vi].Add(fn)
		}
	}

	// Group faces by quantized corner position.
	grid := newPositionGrid(m)
	quantize := grid.key
	posFaces := make(map[[3]int64][]int)
	for fi, f := range m.Faces {
		if faceNormals[fi] == (math.Vec3{}) {
			continue
		}
		for _, vi := range f.Indices {
			key := quantize(m.Vertices[vi])
			list := posFaces[key]
			if n := len(list); n > 0 && list[n-1] == fi {
				continue
			}
			posFaces[key] = append(list, fi)
		}
	}

	limit := math32.Cos(maxAngle * math32.Pi / 180)
	normals := make([]math.Vec3, len(m.Vertices))
	for vi, v := range m.Vertices {
		own := ownSum[vi].Normalize()
		if own == (math.Vec3{}) {
			normals[vi] = up
			continue
		}
		var sum math.Vec3
		seen := make(map[int]bool)
		for _, fi := range posFaces[quantize(v)] {
			if seen[fi] {
				continue
			}
			seen[fi] = true
			if faceNormals[fi].Dot(own) >= limit {
				sum = sum.Add(faceNormals[fi])
			}
		}
		normals[vi] = sum.NormalizeOr(own)
	}
	m.Normals = normals
}

// positionGrid snaps positions to cells of eps, measured from the bounds
// minimum so keys stay small however far the mesh sits from the origin.
type positionGrid struct {
	origin math.Vec3
	eps    float32
}

// newPositionGrid sizes the cells relative to the mesh diagonal.
func newPositionGrid(m *scene.Mesh) positionGrid {
	const rel = 1e-5
	b := m.Bounds()
	if b.IsEmpty() {
		return positionGrid{eps: rel}
	}
	g := positionGrid{origin: b.Min, eps: rel}
	if d := b.Diagonal(); d > 0 && !math32.IsInf(d, 0) && !math32.IsNaN(d) {
		g.eps = d * rel
	}
	return g
}

func (g positionGrid) key(v math.Vec3) [3]int64 {
	return [3]int64{
		int64(math32.Round((v.X - g.origin.X) / g.eps)),
		int64(math32.Round((v.Y - g.origin.Y) / g.eps)),
		int64(math32.Round((v.Z - g.origin.Z) / g.eps)),
	}
}
