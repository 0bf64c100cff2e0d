package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/meshport/internal/config"
	"github.com/Faultbox/meshport/pkg/grf"
	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

const (
	triangleOBJ = "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	quadOBJ     = "o quad\nv 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"
)

// isolate keeps user config files and chatty logging out of the tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvLogLevel, "error")
	return dir
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runTool(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunDispatch(t *testing.T) {
	isolate(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"no args", nil, 1, "Usage:"},
		{"help", []string{"help"}, 0, ""},
		{"unknown", []string{"frobnicate"}, 1, "Unknown command: frobnicate"},
		{"missing file arg", []string{"info"}, 2, "meshtool info <file>"},
		{"bad flag", []string{"dump", "-nope"}, 2, "usage"},
		{"bad steps", []string{"info", "-steps", "bogus", "x.obj"}, 1, "Error:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runTool(tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d (stderr %q)", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr %q lacks %q", stderr, tt.wantErr)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	dir := isolate(t)
	path := write(t, dir, "quad.obj", quadOBJ)

	code, out, stderr := runTool("info", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{
		"Valid:    true",
		"Format:   obj",
		"Meshes:   1",
		"Faces:    2",
		`* [0] "quad"`,
		"types=triangle",
		"bounds=(0 0 0)..(1 1 0)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("info output lacks %q:\n%s", want, out)
		}
	}
}

func TestInfoInvalid(t *testing.T) {
	dir := isolate(t)
	code, out, stderr := runTool("info", filepath.Join(dir, "missing.obj"))
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if !strings.Contains(out, "Valid:    false") || !strings.Contains(stderr, "Error:") {
		t.Errorf("stdout %q stderr %q", out, stderr)
	}
}

func TestDump(t *testing.T) {
	dir := isolate(t)
	path := write(t, dir, "tri.obj", triangleOBJ)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "default pipeline",
			args: []string{"dump", path},
			want: "vertices 3\n0 0 0\n1 0 0\n0 1 0\nnormals 3\n0 0 1\n0 0 1\n0 0 1\ntriangles 1\n0 1 2\n",
		},
		{
			name: "no steps",
			args: []string{"dump", "-steps", "none", path},
			want: "vertices 3\n0 0 0\n1 0 0\n0 1 0\nnormals 0\ntriangles 1\n0 1 2\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, stderr := runTool(tt.args...)
			if code != 0 {
				t.Fatalf("exit %d: %s", code, stderr)
			}
			if out != tt.want {
				t.Errorf("dump =\n%s\nwant\n%s", out, tt.want)
			}
		})
	}
}

func TestDumpMeshOutOfRange(t *testing.T) {
	dir := isolate(t)
	path := write(t, dir, "tri.obj", triangleOBJ)
	if code, _, stderr := runTool("dump", "-mesh", "3", path); code != 1 || !strings.Contains(stderr, "no mesh") {
		t.Errorf("exit %d stderr %q", code, stderr)
	}
}

func TestExportRoundTrip(t *testing.T) {
	dir := isolate(t)
	in := write(t, dir, "quad.obj", quadOBJ)
	out := filepath.Join(dir, "out", "quad.obj")

	code, stdout, stderr := runTool("export", in, out)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "1 meshes") {
		t.Errorf("stdout = %q", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if strings.Count(text, "\nv ") != 4 || strings.Count(text, "\nvn ") != 4 || strings.Count(text, "\nf ") != 2 {
		t.Errorf("unexpected export:\n%s", text)
	}

	code, info, stderr := runTool("info", out)
	if code != 0 {
		t.Fatalf("re-import exit %d: %s", code, stderr)
	}
	if !strings.Contains(info, "Faces:    2") {
		t.Errorf("re-import info:\n%s", info)
	}
}

func TestWriteOBJ(t *testing.T) {
	tri := &scene.Mesh{
		Name:     "tri",
		Vertices: []math.Vec3{{}, {X: 1}, {Y: 1}},
		Normals:  []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}},
		Faces:    []scene.Face{{Indices: []uint32{0, 1, 2}}},
	}
	wire := &scene.Mesh{
		Vertices: []math.Vec3{{Z: 1}, {X: 1, Z: 1}, {X: 2, Z: 1}},
		Faces: []scene.Face{
			{Indices: []uint32{0, 1}},
			{Indices: []uint32{2}},
		},
	}

	var buf bytes.Buffer
	if err := writeOBJ(&buf, "src.glb", []*scene.Mesh{tri, wire}); err != nil {
		t.Fatal(err)
	}
	want := `# exported by meshtool from src.glb
o tri
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
vn 0 0 1
vn 0 0 1
f 1//1 2//2 3//3
o mesh1
v 0 0 1
v 1 0 1
v 2 0 1
l 4 5
p 6
`
	if buf.String() != want {
		t.Errorf("writeOBJ =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestPreview(t *testing.T) {
	dir := isolate(t)
	a := write(t, dir, "a.obj", triangleOBJ)
	b := write(t, dir, "b.obj", quadOBJ)
	outDir := filepath.Join(dir, "previews")

	code, out, stderr := runTool("preview", "-size", "16", "-ss", "1", "-j", "2", "-format", "png", "-o", outDir, a, b)
	if code != 0 {
		t.Fatalf("exit %d: %s\n%s", code, stderr, out)
	}
	for _, name := range []string{"a.png", "b.png"} {
		info, err := os.Stat(filepath.Join(outDir, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
	if strings.Count(out, "ok   ") != 2 {
		t.Errorf("output:\n%s", out)
	}
}

func TestPreviewFailures(t *testing.T) {
	dir := isolate(t)
	a := write(t, dir, "a.obj", triangleOBJ)

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"missing input", []string{"preview", "-o", dir, filepath.Join(dir, "nope.obj")}, 1},
		{"same output twice", []string{"preview", "-o", filepath.Join(dir, "one.webp"), a, a}, 2},
		{"bad format", []string{"preview", "-format", "gif", a}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, out, stderr := runTool(tt.args...); code != tt.wantCode {
				t.Errorf("exit = %d, want %d\n%s%s", code, tt.wantCode, out, stderr)
			}
		})
	}
}

func TestListArchive(t *testing.T) {
	dir := isolate(t)
	var buf bytes.Buffer
	err := grf.Write(&buf, []grf.File{
		{Name: `data\model\Prontera\Fountain.rsm`, Data: []byte("GRSM")},
		{Name: "data/model/tree.obj", Data: []byte(triangleOBJ)},
		{Name: "data/readme.txt", Data: []byte("hi")},
	})
	if err != nil {
		t.Fatal(err)
	}
	archive := write(t, dir, "data.grf", buf.String())

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"models", []string{"list", archive}, []string{
			archive + "#data/model/prontera/fountain.rsm",
			archive + "#data/model/tree.obj",
		}},
		{"all", []string{"list", "-all", archive}, []string{
			archive + "#data/model/prontera/fountain.rsm",
			archive + "#data/model/tree.obj",
			archive + "#data/readme.txt",
		}},
		{"pattern", []string{"list", archive, "prontera"}, []string{
			archive + "#data/model/prontera/fountain.rsm",
		}},
		{"limit", []string{"list", "-n", "1", archive}, []string{
			archive + "#data/model/prontera/fountain.rsm",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, stderr := runTool(tt.args...)
			if code != 0 {
				t.Fatalf("exit %d: %s", code, stderr)
			}
			want := strings.Join(tt.want, "\n") + "\n"
			if out != want {
				t.Errorf("list =\n%s\nwant\n%s", out, want)
			}
		})
	}

	code, out, stderr := runTool("info", archive+"#data/model/tree.obj")
	if code != 0 || !strings.Contains(out, "Format:   obj") {
		t.Errorf("info on archive entry: exit %d\n%s%s", code, out, stderr)
	}
}
