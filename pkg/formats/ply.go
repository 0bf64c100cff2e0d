package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"strconv"
	"strings"

	"github.com/Faultbox/meshport/pkg/math"
	"github.com/Faultbox/meshport/pkg/scene"
)

// PLY format errors.
var (
	ErrInvalidPLYHeader  = errors.New("invalid PLY header")
	ErrTruncatedPLYData  = errors.New("truncated PLY data")
	ErrPLYIndexRange     = errors.New("PLY face index out of range")
	ErrUnsupportedPLYFmt = errors.New("unsupported PLY storage format")
)

var plyFormat = Format{
	Name:       "ply",
	Extensions: []string{".ply"},
	Match: func(head []byte) bool {
		return bytes.HasPrefix(head, []byte("ply\n")) || bytes.HasPrefix(head, []byte("ply\r\n"))
	},
	Decode: ParsePLY,
}

// PLYStorage is the body encoding declared in the header.
type PLYStorage int

const (
	PLYASCII PLYStorage = iota
	PLYBinaryLittleEndian
	PLYBinaryBigEndian
)

// String returns the header keyword for the storage format.
func (s PLYStorage) String() string {
	switch s {
	case PLYASCII:
		return "ascii"
	case PLYBinaryLittleEndian:
		return "binary_little_endian"
	case PLYBinaryBigEndian:
		return "binary_big_endian"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// plyProperty is one declared property; list properties carry a count type.
type plyProperty struct {
	name      string
	valueType string
	countType string // empty for scalar properties
}

type plyElement struct {
	name       string
	count      int
	properties []plyProperty
}

type plyHeader struct {
	storage  PLYStorage
	elements []plyElement
}

var plyTypeSizes = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4, "double": 8, "float64": 8,
}

// ParsePLY parses a PLY polygon file. Vertex positions and optional
// normals are read from the "vertex" element, faces from the "face"
// element; all other elements are skipped.
func ParsePLY(data []byte) (*scene.Scene, error) {
	hdr, body, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}

	var src plyValueSource
	switch hdr.storage {
	case PLYASCII:
		src = newPLYASCIISource(body)
	case PLYBinaryLittleEndian:
		src = &plyBinarySource{r: bytes.NewReader(body), order: binary.LittleEndian}
	case PLYBinaryBigEndian:
		src = &plyBinarySource{r: bytes.NewReader(body), order: binary.BigEndian}
	}

	m := &scene.Mesh{}
	hasNormals := false

	for _, el := range hdr.elements {
		switch el.name {
		case "vertex":
			hasNormals, err = readPLYVertices(src, el, m)
		case "face":
			err = readPLYFaces(src, el, m)
		default:
			err = skipPLYElement(src, el)
		}
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", el.name, err)
		}
	}

	if !hasNormals {
		m.Normals = nil
	}
	for _, f := range m.Faces {
		for _, idx := range f.Indices {
			if int(idx) >= len(m.Vertices) {
				return nil, fmt.Errorf("%w: %d (have %d vertices)", ErrPLYIndexRange, idx, len(m.Vertices))
			}
		}
	}
	m.UpdatePrimitiveTypes()

	return scene.Single("ply", m), nil
}

func parsePLYHeader(data []byte) (*plyHeader, []byte, error) {
	end := bytes.Index(data, []byte("end_header"))
	if end < 0 {
		return nil, nil, fmt.Errorf("%w: missing end_header", ErrInvalidPLYHeader)
	}
	bodyStart := end + len("end_header")
	if bodyStart < len(data) && data[bodyStart] == '\r' {
		bodyStart++
	}
	if bodyStart < len(data) && data[bodyStart] == '\n' {
		bodyStart++
	}

	hdr := &plyHeader{}
	sc := bufio.NewScanner(bytes.NewReader(data[:end]))
	first := true
	sawFormat := false
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if first {
			if len(fields) != 1 || fields[0] != "ply" {
				return nil, nil, fmt.Errorf("%w: missing magic", ErrInvalidPLYHeader)
			}
			first = false
			continue
		}
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return nil, nil, fmt.Errorf("%w: bad format line", ErrInvalidPLYHeader)
			}
			switch fields[1] {
			case "ascii":
				hdr.storage = PLYASCII
			case "binary_little_endian":
				hdr.storage = PLYBinaryLittleEndian
			case "binary_big_endian":
				hdr.storage = PLYBinaryBigEndian
			default:
				return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedPLYFmt, fields[1])
			}
			sawFormat = true
		case "element":
			if len(fields) != 3 {
				return nil, nil, fmt.Errorf("%w: bad element line", ErrInvalidPLYHeader)
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, nil, fmt.Errorf("%w: bad element count %q", ErrInvalidPLYHeader, fields[2])
			}
			hdr.elements = append(hdr.elements, plyElement{name: fields[1], count: n})
		case "property":
			if len(hdr.elements) == 0 {
				return nil, nil, fmt.Errorf("%w: property before element", ErrInvalidPLYHeader)
			}
			el := &hdr.elements[len(hdr.elements)-1]
			var p plyProperty
			if len(fields) == 5 && fields[1] == "list" {
				p = plyProperty{name: fields[4], countType: fields[2], valueType: fields[3]}
			} else if len(fields) == 3 {
				p = plyProperty{name: fields[2], valueType: fields[1]}
			} else {
				return nil, nil, fmt.Errorf("%w: bad property line", ErrInvalidPLYHeader)
			}
			if _, ok := plyTypeSizes[p.valueType]; !ok {
				return nil, nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPLYHeader, p.valueType)
			}
			if _, ok := plyTypeSizes[p.countType]; p.countType != "" && !ok {
				return nil, nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPLYHeader, p.countType)
			}
			el.properties = append(el.properties, p)
		case "comment", "obj_info":
		default:
			return nil, nil, fmt.Errorf("%w: unexpected %q", ErrInvalidPLYHeader, fields[0])
		}
	}
	if first || !sawFormat {
		return nil, nil, fmt.Errorf("%w: missing format", ErrInvalidPLYHeader)
	}
	body := data[bodyStart:]
	// Every property value takes at least one byte in either storage.
	for _, el := range hdr.elements {
		if len(el.properties) > 0 && el.count > len(body)/len(el.properties) {
			return nil, nil, fmt.Errorf("%w: element %q declares %d records in %d bytes",
				ErrTruncatedPLYData, el.name, el.count, len(body))
		}
	}
	return hdr, body, nil
}

// plyValueSource yields property values one at a time.
type plyValueSource interface {
	next(typ string) (float64, error)
}

type plyASCIISource struct {
	sc *bufio.Scanner
}

func newPLYASCIISource(body []byte) *plyASCIISource {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Split(bufio.ScanWords)
	return &plyASCIISource{sc: sc}
}

func (s *plyASCIISource) next(string) (float64, error) {
	if !s.sc.Scan() {
		return 0, ErrTruncatedPLYData
	}
	v, err := strconv.ParseFloat(s.sc.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrTruncatedPLYData, s.sc.Text())
	}
	return v, nil
}

type plyBinarySource struct {
	r     *bytes.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (s *plyBinarySource) next(typ string) (float64, error) {
	n := plyTypeSizes[typ]
	b := s.buf[:n]
	if _, err := io.ReadFull(s.r, b); err != nil {
		return 0, ErrTruncatedPLYData
	}
	switch typ {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(s.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(s.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(s.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(s.order.Uint32(b)), nil
	case "float", "float32":
		return float64(gomath.Float32frombits(s.order.Uint32(b))), nil
	default:
		return gomath.Float64frombits(s.order.Uint64(b)), nil
	}
}

// readPLYRecord reads one element instance; list values are returned in lists.
func readPLYRecord(src plyValueSource, el plyElement, scalars []float64, lists [][]float64) error {
	for i, p := range el.properties {
		if p.countType == "" {
			v, err := src.next(p.valueType)
			if err != nil {
				return err
			}
			scalars[i] = v
			continue
		}
		n, err := src.next(p.countType)
		if err != nil {
			return err
		}
		if n < 0 || n > 1<<16 {
			return fmt.Errorf("%w: list length %v", ErrTruncatedPLYData, n)
		}
		lists[i] = lists[i][:0]
		for j := 0; j < int(n); j++ {
			v, err := src.next(p.valueType)
			if err != nil {
				return err
			}
			lists[i] = append(lists[i], v)
		}
	}
	return nil
}

func propertyIndex(el plyElement, names ...string) int {
	for i, p := range el.properties {
		for _, n := range names {
			if p.name == n {
				return i
			}
		}
	}
	return -1
}

func readPLYVertices(src plyValueSource, el plyElement, m *scene.Mesh) (bool, error) {
	ix, iy, iz := propertyIndex(el, "x"), propertyIndex(el, "y"), propertyIndex(el, "z")
	if ix < 0 || iy < 0 || iz < 0 {
		return false, fmt.Errorf("%w: vertex element lacks x/y/z", ErrInvalidPLYHeader)
	}
	inx, iny, inz := propertyIndex(el, "nx"), propertyIndex(el, "ny"), propertyIndex(el, "nz")
	hasNormals := inx >= 0 && iny >= 0 && inz >= 0

	scalars := make([]float64, len(el.properties))
	lists := make([][]float64, len(el.properties))
	m.Vertices = make([]math.Vec3, 0, el.count)
	m.Normals = make([]math.Vec3, 0, el.count)
	for i := 0; i < el.count; i++ {
		if err := readPLYRecord(src, el, scalars, lists); err != nil {
			return false, fmt.Errorf("vertex %d: %w", i, err)
		}
		m.Vertices = append(m.Vertices, math.Vec3{
			X: float32(scalars[ix]), Y: float32(scalars[iy]), Z: float32(scalars[iz]),
		})
		if hasNormals {
			m.Normals = append(m.Normals, math.Vec3{
				X: float32(scalars[inx]), Y: float32(scalars[iny]), Z: float32(scalars[inz]),
			})
		}
	}
	return hasNormals, nil
}

func readPLYFaces(src plyValueSource, el plyElement, m *scene.Mesh) error {
	idx := propertyIndex(el, "vertex_indices", "vertex_index")
	if idx < 0 || el.properties[idx].countType == "" {
		return fmt.Errorf("%w: face element lacks a vertex index list", ErrInvalidPLYHeader)
	}

	scalars := make([]float64, len(el.properties))
	lists := make([][]float64, len(el.properties))
	m.Faces = make([]scene.Face, 0, el.count)
	for i := 0; i < el.count; i++ {
		if err := readPLYRecord(src, el, scalars, lists); err != nil {
			return fmt.Errorf("face %d: %w", i, err)
		}
		if len(lists[idx]) == 0 {
			continue
		}
		face := scene.Face{Indices: make([]uint32, len(lists[idx]))}
		for j, v := range lists[idx] {
			if v < 0 || v > gomath.MaxUint32 || v != gomath.Trunc(v) {
				return fmt.Errorf("%w: %v", ErrPLYIndexRange, v)
			}
			face.Indices[j] = uint32(v)
		}
		m.Faces = append(m.Faces, face)
	}
	return nil
}

func skipPLYElement(src plyValueSource, el plyElement) error {
	if len(el.properties) == 0 {
		return nil
	}
	scalars := make([]float64, len(el.properties))
	lists := make([][]float64, len(el.properties))
	for i := 0; i < el.count; i++ {
		if err := readPLYRecord(src, el, scalars, lists); err != nil {
			return err
		}
	}
	return nil
}
