// Package formats provides readers that turn model files into scenes.
//
// Supported: Wavefront OBJ, STL (ASCII and binary), PLY (ASCII and binary),
// glTF 2.0 (.gltf and .glb) and Ragnarok Online RSM models, read from disk
// or from inside GRF archives.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/meshport/pkg/scene"
)

// Registry errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported model format")
	ErrEmptyFile         = errors.New("empty model file")
)

// sniffLen is how many leading bytes Match functions get to look at.
const sniffLen = 512

// Format describes one readable file format.
type Format struct {
	Name       string
	Extensions []string // lower case, with the leading dot

	// Match reports whether the leading bytes look like this format.
	Match func(head []byte) bool

	// Decode parses a complete file held in memory.
	Decode func(data []byte) (*scene.Scene, error)

	// Open, when set, reads from disk directly. Formats that reference
	// sibling files (glTF buffers) need the path.
	Open func(path string) (*scene.Scene, error)
}

var registry = []Format{
	objFormat,
	stlFormat,
	plyFormat,
	gltfFormat,
	rsmFormat,
}

// All returns the registered formats.
func All() []Format {
	return append([]Format(nil), registry...)
}

// Extensions returns every supported file extension, sorted.
func Extensions() []string {
	var exts []string
	for _, f := range registry {
		exts = append(exts, f.Extensions...)
	}
	sort.Strings(exts)
	return exts
}

// Lookup finds the format for a file, by extension first and then by
// sniffing the leading bytes.
func Lookup(path string, head []byte) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range registry {
		for _, e := range f.Extensions {
			if e == ext {
				return f, nil
			}
		}
	}
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	for _, f := range registry {
		if f.Match != nil && f.Match(head) {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// ReadFile imports a model file from disk. Paths of the form
// "archive.grf#entry" read the entry from a GRF archive.
func ReadFile(path string) (*scene.Scene, error) {
	if archive, entry, ok := SplitArchivePath(path); ok {
		return readArchiveEntry(archive, entry)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, filepath.Base(path))
	}

	f, err := Lookup(path, data)
	if err != nil {
		return nil, err
	}

	var s *scene.Scene
	if f.Open != nil {
		s, err = f.Open(path)
	} else {
		s, err = f.Decode(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
	}
	s.Format = f.Name
	return s, nil
}

// Decode imports a model held in memory; name is used for format lookup.
func Decode(name string, data []byte) (*scene.Scene, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}
	f, err := Lookup(name, data)
	if err != nil {
		return nil, err
	}
	s, err := f.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
	}
	s.Format = f.Name
	return s, nil
}

// hasPrefixFold reports whether head starts with prefix, ignoring leading
// whitespace and ASCII case.
func hasPrefixFold(head []byte, prefix string) bool {
	head = bytes.TrimLeft(head, " \t\r\n")
	if len(head) < len(prefix) {
		return false
	}
	return strings.EqualFold(string(head[:len(prefix)]), prefix)
}
