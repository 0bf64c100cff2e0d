// Package grf reads Ragnarok Online GRF archives (version 0x200), the
// container RSM models ship in.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Faultbox/meshport/pkg/encoding"
)

const (
	grfMagic   = "Master of Magic"
	headerSize = 46
	version200 = 0x200

	flagFile      = 0x01
	flagEncrypted = 0x02 | 0x04 // mixed or header-only DES

	// maxInflateRatio is the best compression ratio deflate can reach.
	maxInflateRatio = 1032
	// MaxEntrySize bounds the uncompressed size Read will allocate.
	MaxEntrySize = 256 << 20
)

// GRF errors.
var (
	ErrInvalidMagic       = errors.New("invalid GRF magic")
	ErrUnsupportedVersion = errors.New("unsupported GRF version")
	ErrCorrupt            = errors.New("corrupt GRF archive")
	ErrNotFound           = errors.New("file not found in archive")
	ErrEncrypted          = errors.New("encrypted GRF entries are not supported")
)

// Header contains GRF file header information.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry describes one file stored in the archive.
type Entry struct {
	Name             string // UTF-8, as listed in the archive
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Archive is an opened GRF archive. Reads are safe for concurrent use.
type Archive struct {
	r       io.ReaderAt
	size    int64
	closer  io.Closer
	header  Header
	entries map[string]*Entry // keyed by encoding.ArchivePath
}

// Open opens the GRF archive at path.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	a, err := NewReader(f, st.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.closer = f
	return a, nil
}

// NewReader reads the archive header and file table from r.
func NewReader(r io.ReaderAt, size int64) (*Archive, error) {
	a := &Archive{r: r, size: size, entries: make(map[string]*Entry)}
	if err := a.readHeader(); err != nil {
		return nil, err
	}
	if err := a.readFileTable(); err != nil {
		return nil, err
	}
	return a, nil
}

// Close closes the underlying file, if Open created it.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	sr := io.NewSectionReader(a.r, 0, a.size)
	if err := binary.Read(sr, binary.LittleEndian, &a.header); err != nil {
		return fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if string(a.header.Magic[:]) != grfMagic {
		return ErrInvalidMagic
	}
	if a.header.Version != version200 {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}
	return nil
}

func (a *Archive) readFileTable() error {
	tableOffset := int64(a.header.TableOffset) + headerSize
	var sizes [8]byte
	if _, err := a.r.ReadAt(sizes[:], tableOffset); err != nil {
		return fmt.Errorf("%w: table header: %v", ErrCorrupt, err)
	}
	compressedSize := int64(binary.LittleEndian.Uint32(sizes[0:]))
	uncompressedSize := int64(binary.LittleEndian.Uint32(sizes[4:]))
	if tableOffset+8+compressedSize > a.size {
		return fmt.Errorf("%w: table extends past end of file", ErrCorrupt)
	}

	table, err := inflate(io.NewSectionReader(a.r, tableOffset+8, compressedSize), uncompressedSize)
	if err != nil {
		return fmt.Errorf("%w: table: %v", ErrCorrupt, err)
	}

	count := int64(a.header.FileCount) - int64(a.header.Seed) - 7
	if count < 0 {
		return fmt.Errorf("%w: file count %d", ErrCorrupt, count)
	}

	offset := 0
	for i := int64(0); i < count; i++ {
		nameEnd := bytes.IndexByte(table[offset:], 0)
		if nameEnd < 0 || offset+nameEnd+1+17 > len(table) {
			return fmt.Errorf("%w: table entry %d truncated", ErrCorrupt, i)
		}
		name := encoding.EUCKRToUTF8(table[offset : offset+nameEnd])
		offset += nameEnd + 1

		rec := table[offset : offset+17]
		offset += 17
		e := &Entry{
			Name:             name,
			CompressedSize:   binary.LittleEndian.Uint32(rec[0:]),
			AlignedSize:      binary.LittleEndian.Uint32(rec[4:]),
			UncompressedSize: binary.LittleEndian.Uint32(rec[8:]),
			Flags:            rec[12],
			Offset:           binary.LittleEndian.Uint32(rec[13:]),
		}
		// Directories carry no file flag.
		if e.Flags&flagFile != 0 {
			a.entries[encoding.ArchivePath(name)] = e
		}
	}
	return nil
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	return len(a.entries)
}

// List returns every file path in the archive, normalized and sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for path := range a.entries {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Contains reports whether path names a file. Lookup ignores case and
// slash direction.
func (a *Archive) Contains(path string) bool {
	_, ok := a.entries[encoding.ArchivePath(path)]
	return ok
}

// Stat returns the table entry for path.
func (a *Archive) Stat(path string) (Entry, error) {
	e, ok := a.entries[encoding.ArchivePath(path)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return *e, nil
}

// Read returns the uncompressed contents of path.
func (a *Archive) Read(path string) ([]byte, error) {
	e, ok := a.entries[encoding.ArchivePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if e.Flags&flagEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, path)
	}

	start := int64(e.Offset) + headerSize
	if start+int64(e.CompressedSize) > a.size {
		return nil, fmt.Errorf("%w: %s extends past end of file", ErrCorrupt, path)
	}
	section := io.NewSectionReader(a.r, start, int64(e.CompressedSize))

	if e.CompressedSize == e.UncompressedSize {
		data := make([]byte, e.UncompressedSize)
		if _, err := io.ReadFull(section, data); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
		}
		return data, nil
	}

	if e.UncompressedSize > MaxEntrySize ||
		uint64(e.UncompressedSize) > uint64(e.CompressedSize)*maxInflateRatio {
		return nil, fmt.Errorf("%w: %s declares %d bytes from %d compressed",
			ErrCorrupt, path, e.UncompressedSize, e.CompressedSize)
	}
	data, err := inflate(section, int64(e.UncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return data, nil
}

func inflate(r io.Reader, size int64) ([]byte, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	return out, nil
}
