package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

const plyASCIITriangle = `ply
format ascii 1.0
comment single triangle
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2
`

// binaryPLY writes a quad with normals and an extra element to skip.
func binaryPLY(order binary.ByteOrder, keyword string) []byte {
	var buf bytes.Buffer
	buf.WriteString("ply\r\nformat " + keyword + " 1.0\r\n")
	buf.WriteString("element vertex 4\r\n")
	buf.WriteString("property float x\r\nproperty float y\r\nproperty float z\r\n")
	buf.WriteString("property float nx\r\nproperty float ny\r\nproperty float nz\r\n")
	buf.WriteString("property uchar red\r\n")
	buf.WriteString("element face 1\r\n")
	buf.WriteString("property list uchar uint vertex_index\r\n")
	buf.WriteString("element edge 1\r\n")
	buf.WriteString("property int vertex1\r\nproperty int vertex2\r\n")
	buf.WriteString("end_header\r\n")

	corners := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for _, c := range corners {
		binary.Write(&buf, order, c)
		binary.Write(&buf, order, [3]float32{0, 0, 1})
		buf.WriteByte(200)
	}
	buf.WriteByte(4)
	binary.Write(&buf, order, [4]uint32{0, 1, 2, 3})
	binary.Write(&buf, order, [2]int32{0, 1})
	return buf.Bytes()
}

func TestParsePLY_ASCII(t *testing.T) {
	s, err := ParsePLY([]byte(plyASCIITriangle))
	if err != nil {
		t.Fatalf("ParsePLY failed: %v", err)
	}
	m := s.Meshes[0]
	if len(m.Vertices) != 3 || len(m.Faces) != 1 {
		t.Fatalf("got %d vertices, %d faces", len(m.Vertices), len(m.Faces))
	}
	if m.HasNormals() {
		t.Error("ASCII triangle should have no normals")
	}
	if m.Vertices[2] != (math.Vec3{Y: 1}) {
		t.Errorf("vertex 2 = %v", m.Vertices[2])
	}
}

func TestParsePLY_Binary(t *testing.T) {
	tests := []struct {
		name    string
		order   binary.ByteOrder
		keyword string
	}{
		{"little endian", binary.LittleEndian, "binary_little_endian"},
		{"big endian", binary.BigEndian, "binary_big_endian"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParsePLY(binaryPLY(tt.order, tt.keyword))
			if err != nil {
				t.Fatalf("ParsePLY failed: %v", err)
			}
			m := s.Meshes[0]
			if len(m.Vertices) != 4 {
				t.Fatalf("vertex count = %d, want 4", len(m.Vertices))
			}
			if m.Vertices[2] != (math.Vec3{X: 1, Y: 1}) {
				t.Errorf("vertex 2 = %v", m.Vertices[2])
			}
			if !m.HasNormals() || m.Normals[3] != (math.Vec3{Z: 1}) {
				t.Errorf("normals = %v", m.Normals)
			}
			if m.PrimitiveTypes != scene.PrimitivePolygon {
				t.Errorf("PrimitiveTypes = %v, want polygon", m.PrimitiveTypes)
			}
		})
	}
}

func TestParsePLY_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"no end_header", "ply\nformat ascii 1.0\n", ErrInvalidPLYHeader},
		{"no magic", "plx\nformat ascii 1.0\nend_header\n", ErrInvalidPLYHeader},
		{"no format", "ply\nelement vertex 0\nend_header\n", ErrInvalidPLYHeader},
		{"unknown storage", "ply\nformat binary_middle_endian 1.0\nend_header\n", ErrUnsupportedPLYFmt},
		{"unknown type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n", ErrInvalidPLYHeader},
		{"property first", "ply\nformat ascii 1.0\nproperty float x\nend_header\n", ErrInvalidPLYHeader},
		{
			"short body",
			"ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n1 1\n",
			ErrTruncatedPLYData,
		},
		{
			"index out of range",
			"ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\n" +
				"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n3 0 1 2\n",
			ErrPLYIndexRange,
		},
		{
			"count beyond body",
			"ply\nformat ascii 1.0\nelement vertex 99999999999999\nproperty float x\nproperty float y\nproperty float z\n" +
				"end_header\n0 0 0\n",
			ErrTruncatedPLYData,
		},
		{
			"face count beyond body",
			"ply\nformat binary_little_endian 1.0\nelement face 4000000000\nproperty list uchar int vertex_indices\n" +
				"end_header\n\x00\x00",
			ErrTruncatedPLYData,
		},
		{
			"fractional index",
			"ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
				"element face 1\nproperty list uchar double vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1.5 2\n",
			ErrPLYIndexRange,
		},
		{
			"index beyond 32 bits",
			"ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
				"element face 1\nproperty list uchar double vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 4294967296 2\n",
			ErrPLYIndexRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePLY([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePLY_TruncatedBinary(t *testing.T) {
	data := binaryPLY(binary.LittleEndian, "binary_little_endian")
	_, err := ParsePLY(data[:len(data)-12])
	if !errors.Is(err, ErrTruncatedPLYData) {
		t.Errorf("error = %v, want ErrTruncatedPLYData", err)
	}
}

func TestPLYStorage_String(t *testing.T) {
	if got := PLYBinaryBigEndian.String(); got != "binary_big_endian" {
		t.Errorf("String() = %q", got)
	}
	if got := PLYStorage(9).String(); got != "Unknown(9)" {
		t.Errorf("String() = %q", got)
	}
}
