// Package preview renders imported meshes to images without a GPU.
//
// The renderer is an orthographic, z-buffered rasterizer with per-pixel
// interpolated normals. Output is supersampled and filtered down to the
// requested size.
package preview

import (
	"errors"
	"fmt"
	"image"

	"github.com/Faultbox/meshport/pkg/importer"
	"github.com/Faultbox/meshport/pkg/math"
	"github.com/chewxy/math32"
)

var (
	ErrEmptyMesh      = errors.New("mesh has no triangles")
	ErrInvalidOptions = errors.New("invalid preview options")
)

// Options controls the camera and output size.
type Options struct {
	Size        int     // output width and height in pixels
	Supersample int     // render at Size*Supersample, then downscale
	Yaw         float32 // degrees around +Y
	Pitch       float32 // degrees around +X, applied after yaw
}

// DefaultOptions returns a three-quarter view at 512px.
func DefaultOptions() Options {
	return Options{Size: 512, Supersample: 2, Yaw: 35, Pitch: 25}
}

func (o Options) validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: size %d", ErrInvalidOptions, o.Size)
	}
	if o.Supersample < 1 || o.Supersample > 8 {
		return fmt.Errorf("%w: supersample %d", ErrInvalidOptions, o.Supersample)
	}
	return nil
}

// Mesh is the flat buffer form the importer hands out.
// Normals may be empty, in which case faces are flat shaded.
type Mesh struct {
	Vertices []float32
	Normals  []float32
	Indices  []int32
}

// FromImporter copies the buffers of the importer's selected mesh.
// A mesh without normals is accepted and rendered flat.
func FromImporter(im *importer.Importer) (Mesh, error) {
	verts, err := im.Vertices()
	if err != nil {
		return Mesh{}, err
	}
	idx, err := im.Indices()
	if err != nil {
		return Mesh{}, err
	}
	norms, err := im.Normals()
	if err != nil && !errors.Is(err, importer.ErrNoNormals) {
		return Mesh{}, err
	}
	return Mesh{Vertices: verts, Normals: norms, Indices: idx}, nil
}

func (m Mesh) vertexCount() int { return len(m.Vertices) / 3 }

func (m Mesh) hasNormals() bool {
	return len(m.Normals) == len(m.Vertices) && len(m.Normals) > 0
}

func (m Mesh) vertex(i int) math.Vec3 {
	return math.Vec3{X: m.Vertices[3*i], Y: m.Vertices[3*i+1], Z: m.Vertices[3*i+2]}
}

func (m Mesh) normal(i int) math.Vec3 {
	return math.Vec3{X: m.Normals[3*i], Y: m.Normals[3*i+1], Z: m.Normals[3*i+2]}
}

// Render draws the mesh and returns an NRGBA image of opts.Size square.
// Uncovered pixels are fully transparent.
func Render(m Mesh, opts Options) (*image.NRGBA, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(m.Indices) < 3 || m.vertexCount() == 0 {
		return nil, ErrEmptyMesh
	}

	rot := math.RotateX(opts.Pitch * math32.Pi / 180).Mul(math.RotateY(opts.Yaw * math32.Pi / 180))

	n := m.vertexCount()
	view := make([]math.Vec3, n)
	lo := math.Vec3{X: math32.Inf(1), Y: math32.Inf(1), Z: math32.Inf(1)}
	hi := lo.Neg()
	for i := 0; i < n; i++ {
		v := rot.TransformDirection(m.vertex(i))
		view[i] = v
		lo = lo.Min(v)
		hi = hi.Max(v)
	}

	var normals []math.Vec3
	if m.hasNormals() {
		normals = make([]math.Vec3, n)
		for i := range normals {
			normals[i] = rot.TransformDirection(m.normal(i)).Normalize()
		}
	}

	renderSize := opts.Size * opts.Supersample
	center := lo.Add(hi).Scale(0.5)
	span := math32.Max(hi.X-lo.X, hi.Y-lo.Y)
	if span < 1e-3 {
		span = 1e-3
	}
	margin := float32(renderSize) / 16
	scale := (float32(renderSize) - 2*margin) / span
	half := float32(renderSize) / 2

	screen := make([]math.Vec3, n)
	for i, v := range view {
		d := v.Sub(center)
		screen[i] = math.Vec3{
			X: half + d.X*scale,
			Y: half - d.Y*scale,
			Z: d.Z,
		}
	}

	fb := newFrameBuffer(renderSize, renderSize)
	light := defaultLight()
	for t := 0; t+2 < len(m.Indices); t += 3 {
		tri := [3]int{int(m.Indices[t]), int(m.Indices[t+1]), int(m.Indices[t+2])}
		if !inRange(tri, n) {
			continue
		}
		fb.drawTriangle(screen, view, normals, tri, &light)
	}

	img := fb.image()
	if opts.Supersample > 1 {
		img = downsample(img, opts.Size)
	}
	return img, nil
}

func inRange(tri [3]int, n int) bool {
	for _, i := range tri {
		if i < 0 || i >= n {
			return false
		}
	}
	return true
}
