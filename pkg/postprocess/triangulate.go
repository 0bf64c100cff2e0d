package postprocess

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

// triangulateMesh splits every polygon with more than three corners into
// triangles. Points and lines are left alone.
func triangulateMesh(m *scene.Mesh) {
	if m.PrimitiveTypes&scene.PrimitivePolygon == 0 {
		return
	}
	faces := make([]scene.Face, 0, len(m.Faces))
	for _, f := range m.Faces {
		if len(f.Indices) <= 3 {
			faces = append(faces, f)
			continue
		}
		for _, tri := range triangulatePolygon(m.Vertices, f.Indices) {
			faces = append(faces, scene.Face{Indices: []uint32{tri[0], tri[1], tri[2]}})
		}
	}
	m.Faces = faces
	m.UpdatePrimitiveTypes()
}

// newellNormal returns the (unnormalized) normal of a possibly non-planar
// polygon. Its length is twice the projected area.
func newellNormal(verts []math.Vec3, idx []uint32) math.Vec3 {
	var n math.Vec3
	for i := range idx {
		a := verts[idx[i]]
		b := verts[idx[(i+1)%len(idx)]]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

type point2 struct{ x, y float32 }

func cross2(o, a, b point2) float32 {
	return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
}

// inTriangle reports whether p lies inside or on the counter-clockwise
// triangle abc.
func inTriangle(p, a, b, c point2) bool {
	return cross2(a, b, p) >= 0 && cross2(b, c, p) >= 0 && cross2(c, a, p) >= 0
}

// triangulatePolygon ear-clips a polygon after projecting it onto the
// plane of its Newell normal. Winding of the output matches the input.
// Degenerate polygons fall back to a fan.
func triangulatePolygon(verts []math.Vec3, idx []uint32) [][3]uint32 {
	n := newellNormal(verts, idx)
	ax, ay, az := math32.Abs(n.X), math32.Abs(n.Y), math32.Abs(n.Z)
	if ax+ay+az < 1e-12 {
		return fanTriangles(idx)
	}

	// Drop the dominant axis; swap the remaining two when needed so the
	// projected polygon is counter-clockwise.
	pts := make([]point2, len(idx))
	for i, vi := range idx {
		v := verts[vi]
		switch {
		case az >= ax && az >= ay:
			pts[i] = point2{v.X, v.Y}
			if n.Z < 0 {
				pts[i] = point2{v.Y, v.X}
			}
		case ax >= ay:
			pts[i] = point2{v.Y, v.Z}
			if n.X < 0 {
				pts[i] = point2{v.Z, v.Y}
			}
		default:
			pts[i] = point2{v.Z, v.X}
			if n.Y < 0 {
				pts[i] = point2{v.X, v.Z}
			}
		}
	}

	// remaining holds positions into idx/pts of the corners still present.
	remaining := make([]int, len(idx))
	for i := range remaining {
		remaining[i] = i
	}

	tris := make([][3]uint32, 0, len(idx)-2)
	for len(remaining) > 3 {
		clipped := false
		for i := range remaining {
			prev := remaining[(i+len(remaining)-1)%len(remaining)]
			cur := remaining[i]
			next := remaining[(i+1)%len(remaining)]
			if cross2(pts[prev], pts[cur], pts[next]) <= 0 {
				continue // reflex or collinear
			}
			if earBlocked(pts, remaining, prev, cur, next) {
				continue
			}
			tris = append(tris, [3]uint32{idx[prev], idx[cur], idx[next]})
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Self-intersecting or collinear leftovers: finish with a fan.
			rest := make([]uint32, len(remaining))
			for i, r := range remaining {
				rest[i] = idx[r]
			}
			return append(tris, fanTriangles(rest)...)
		}
	}
	return append(tris, [3]uint32{idx[remaining[0]], idx[remaining[1]], idx[remaining[2]]})
}

func earBlocked(pts []point2, remaining []int, prev, cur, next int) bool {
	for _, r := range remaining {
		if r == prev || r == cur || r == next {
			continue
		}
		p := pts[r]
		// Corners coincident with the ear's own corners don't block it.
		if p == pts[prev] || p == pts[cur] || p == pts[next] {
			continue
		}
		if inTriangle(p, pts[prev], pts[cur], pts[next]) {
			return true
		}
	}
	return false
}

func fanTriangles(idx []uint32) [][3]uint32 {
	tris := make([][3]uint32, 0, len(idx)-2)
	for i := 1; i+1 < len(idx); i++ {
		tris = append(tris, [3]uint32{idx[0], idx[i], idx[i+1]})
	}
	return tris
}
