package preview

import (
	"image"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/chewxy/math32"
)

// frameBuffer holds color and depth as flat slices.
type frameBuffer struct {
	width, height int
	color         []uint8   // RGBA interleaved
	depth         []float32 // larger is closer, starts at -inf
}

func newFrameBuffer(w, h int) *frameBuffer {
	depth := make([]float32, w*h)
	for i := range depth {
		depth[i] = math32.Inf(-1)
	}
	return &frameBuffer{
		width:  w,
		height: h,
		color:  make([]uint8, w*h*4),
		depth:  depth,
	}
}

func (fb *frameBuffer) image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.width, fb.height))
	copy(img.Pix, fb.color)
	return img
}

// drawTriangle rasterizes one triangle. screen holds pixel-space x,y and
// view depth; view holds the rotated positions used for the face normal
// when normals is nil.
func (fb *frameBuffer) drawTriangle(screen, view, normals []math.Vec3, tri [3]int, lc *light) {
	p0, p1, p2 := screen[tri[0]], screen[tri[1]], screen[tri[2]]

	det := (p1.Y-p2.Y)*(p0.X-p2.X) + (p2.X-p1.X)*(p0.Y-p2.Y)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1 / det

	var flat math.Vec3
	if normals == nil {
		a, b, c := view[tri[0]], view[tri[1]], view[tri[2]]
		flat = b.Sub(a).Cross(c.Sub(a)).Normalize()
	}

	minX := clampInt(int(math32.Floor(min(p0.X, p1.X, p2.X))), 0, fb.width-1)
	maxX := clampInt(int(math32.Ceil(max(p0.X, p1.X, p2.X))), 0, fb.width-1)
	minY := clampInt(int(math32.Floor(min(p0.Y, p1.Y, p2.Y))), 0, fb.height-1)
	maxY := clampInt(int(math32.Ceil(max(p0.Y, p1.Y, p2.Y))), 0, fb.height-1)

	dy12 := p1.Y - p2.Y
	dx21 := p2.X - p1.X
	dy20 := p2.Y - p0.Y
	dx02 := p0.X - p2.X

	for sy := minY; sy <= maxY; sy++ {
		dsy := float32(sy) + 0.5 - p2.Y
		row := sy * fb.width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float32(sx) + 0.5 - p2.X
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -1e-4 || w1 < -1e-4 || w2 < -1e-4 {
				continue
			}

			z := w0*p0.Z + w1*p1.Z + w2*p2.Z
			i := row + sx
			if z <= fb.depth[i] {
				continue
			}
			fb.depth[i] = z

			n := flat
			if normals != nil {
				n = normals[tri[0]].Scale(w0).
					Add(normals[tri[1]].Scale(w1)).
					Add(normals[tri[2]].Scale(w2)).
					Normalize()
			}
			r, g, b := lc.shade(n)
			fb.color[4*i] = r
			fb.color[4*i+1] = g
			fb.color[4*i+2] = b
			fb.color[4*i+3] = 255
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
