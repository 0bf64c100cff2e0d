package preview

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/meshport/pkg/importer"
	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/postprocess"
)

// quad returns a 2×2 square at depth z with every normal set to n.
func quad(z float32, n math.Vec3) Mesh {
	m := Mesh{
		Vertices: []float32{-1, -1, z, 1, -1, z, 1, 1, z, -1, 1, z},
		Indices:  []int32{0, 1, 2, 0, 2, 3},
	}
	for i := 0; i < 4; i++ {
		m.Normals = append(m.Normals, n.X, n.Y, n.Z)
	}
	return m
}

func merge(a, b Mesh) Mesh {
	off := int32(len(a.Vertices) / 3)
	out := Mesh{
		Vertices: append(append([]float32{}, a.Vertices...), b.Vertices...),
		Normals:  append(append([]float32{}, a.Normals...), b.Normals...),
		Indices:  append([]int32{}, a.Indices...),
	}
	for _, i := range b.Indices {
		out.Indices = append(out.Indices, i+off)
	}
	return out
}

var front = Options{Size: 32, Supersample: 1}

func TestRenderCoverage(t *testing.T) {
	img, err := Render(quad(0, math.Vec3{Z: 1}), front)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Fatalf("size = %v", img.Bounds())
	}
	if a := img.NRGBAAt(16, 16).A; a != 255 {
		t.Errorf("center alpha = %d, want 255", a)
	}
	if a := img.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha = %d, want 0", a)
	}
}

func TestRenderDepthOrder(t *testing.T) {
	near := quad(1, math.Vec3{Z: 1})
	far := quad(0, math.Vec3{X: 1})
	lc := defaultLight()
	wr, wg, wb := lc.shade(math.Vec3{Z: 1})

	tests := []struct {
		name string
		mesh Mesh
	}{
		{"far first", merge(far, near)},
		{"near first", merge(near, far)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Render(tt.mesh, front)
			if err != nil {
				t.Fatal(err)
			}
			c := img.NRGBAAt(16, 16)
			if c.R != wr || c.G != wg || c.B != wb {
				t.Errorf("center = %v, want near face shade (%d,%d,%d)", c, wr, wg, wb)
			}
		})
	}
}

func TestRenderFlatMatchesSmoothOnPlane(t *testing.T) {
	smooth := quad(0, math.Vec3{Z: 1})
	flat := smooth
	flat.Normals = nil

	a, err := Render(smooth, front)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Render(flat, front)
	if err != nil {
		t.Fatal(err)
	}
	if a.NRGBAAt(16, 16) != b.NRGBAAt(16, 16) {
		t.Errorf("flat %v != smooth %v", b.NRGBAAt(16, 16), a.NRGBAAt(16, 16))
	}
}

func TestRenderSupersampled(t *testing.T) {
	// Lower-left half of the square; the upper-right corner stays empty.
	m := Mesh{
		Vertices: []float32{-1, -1, 0, 1, -1, 0, -1, 1, 0},
		Indices:  []int32{0, 1, 2},
	}
	img, err := Render(m, Options{Size: 16, Supersample: 4})
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 16 {
		t.Fatalf("width = %d", img.Bounds().Dx())
	}
	if a := img.NRGBAAt(3, 12).A; a != 255 {
		t.Errorf("covered alpha = %d", a)
	}
	if a := img.NRGBAAt(15, 0).A; a != 0 {
		t.Errorf("empty corner alpha = %d", a)
	}
}

func TestRenderRotationKeepsCoverage(t *testing.T) {
	img, err := Render(quad(0, math.Vec3{Z: 1}), Options{Size: 32, Supersample: 1, Yaw: 35, Pitch: 25})
	if err != nil {
		t.Fatal(err)
	}
	if a := img.NRGBAAt(16, 16).A; a != 255 {
		t.Errorf("center alpha = %d", a)
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		mesh Mesh
		opts Options
		want error
	}{
		{"no indices", Mesh{Vertices: []float32{0, 0, 0}}, front, ErrEmptyMesh},
		{"no vertices", Mesh{Indices: []int32{0, 1, 2}}, front, ErrEmptyMesh},
		{"zero size", quad(0, math.Vec3{Z: 1}), Options{Supersample: 1}, ErrInvalidOptions},
		{"zero supersample", quad(0, math.Vec3{Z: 1}), Options{Size: 8}, ErrInvalidOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Render(tt.mesh, tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRenderSkipsBadIndices(t *testing.T) {
	m := quad(0, math.Vec3{Z: 1})
	m.Indices = append(m.Indices, 0, 1, 99)
	if _, err := Render(m, front); err != nil {
		t.Fatal(err)
	}
}

func TestFromImporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.obj")
	if err := os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		steps       postprocess.Step
		wantNormals int
	}{
		{"default pipeline", postprocess.DefaultSteps, 9},
		{"no normals", postprocess.Triangulate, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := importer.DefaultOptions()
			opts.PostProcess = postprocess.FromSteps(tt.steps)
			im := importer.Open(path, opts)
			defer im.Close()

			m, err := FromImporter(im)
			if err != nil {
				t.Fatal(err)
			}
			if len(m.Vertices) != 9 || len(m.Indices) != 3 || len(m.Normals) != tt.wantNormals {
				t.Fatalf("buffers = %d/%d/%d", len(m.Vertices), len(m.Normals), len(m.Indices))
			}
			if _, err := Render(m, Options{Size: 8, Supersample: 2}); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestFromImporterInvalid(t *testing.T) {
	im := importer.Open(filepath.Join(t.TempDir(), "missing.obj"), importer.DefaultOptions())
	defer im.Close()
	if _, err := FromImporter(im); err == nil {
		t.Fatal("expected error for failed import")
	}
}

func TestSave(t *testing.T) {
	img, err := Render(quad(0, math.Vec3{Z: 1}), front)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "out", "q.png")
	if err := Save(pngPath, img); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("png bounds = %v", decoded.Bounds())
	}

	webpPath := filepath.Join(dir, "q.webp")
	if err := Save(webpPath, img); err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(webpPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		t.Errorf("not a webp container: % x", data[:min(len(data), 12)])
	}

	if err := Save(filepath.Join(dir, "q.bmp"), img); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("bmp err = %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		src, out, format, want string
	}{
		{"models/cube.obj", "previews", "webp", filepath.Join("previews", "cube.webp")},
		{"cube.stl", "out/", "png", filepath.Join("out", "cube.png")},
		{"cube.stl", "shot.PNG", "webp", "shot.PNG"},
		{"a/b/tree.glb", ".", ".webp", "tree.webp"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.src, tt.out, tt.format); got != tt.want {
			t.Errorf("OutputPath(%q, %q, %q) = %q, want %q", tt.src, tt.out, tt.format, got, tt.want)
		}
	}
}
