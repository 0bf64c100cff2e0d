package formats

import (
	"fmt"
	"strings"

	"github.com/Faultbox/meshport/pkg/grf"
	"github.com/Faultbox/meshport/pkg/scene"
)

// ArchiveSep separates a GRF archive from the entry inside it, as in
// "data.grf#data/model/prontera/fountain.rsm".
const ArchiveSep = "#"

// SplitArchivePath splits an archive entry path. ok is false for plain
// file paths.
func SplitArchivePath(path string) (archive, entry string, ok bool) {
	marker := ".grf" + ArchiveSep
	i := strings.Index(strings.ToLower(path), marker)
	if i < 0 {
		return "", "", false
	}
	archive, entry = path[:i+4], path[i+len(marker):]
	if entry == "" {
		return "", "", false
	}
	return archive, entry, true
}

// readArchiveEntry decodes one model stored in a GRF archive.
func readArchiveEntry(archive, entry string) (*scene.Scene, error) {
	a, err := grf.Open(archive)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	data, err := a.Read(entry)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	return Decode(entry, data)
}
