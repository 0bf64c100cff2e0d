// Package importer loads a model file, runs the post-processing pipeline
// and exposes one mesh of the result as flat vertex, normal and index
// buffers.
//
// An Importer is created with Open, which never returns nil: a failed load
// yields an invalid Importer whose Err reports why. Importers are not safe
// for concurrent use with their own Close; distinct Importers share no
// state.
package importer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/meshport/pkg/formats"
	"github.com/Faultbox/meshport/pkg/postprocess"
	"github.com/Faultbox/meshport/pkg/scene"
)

// Importer errors.
var (
	ErrClosed          = errors.New("importer is closed")
	ErrNoMesh          = errors.New("scene has no mesh at the requested index")
	ErrShortBuffer     = errors.New("destination buffer too small")
	ErrNoNormals       = errors.New("mesh has no normals")
	ErrNotTriangulated = errors.New("mesh contains non-triangle faces")
)

// FirstMesh selects the first mesh of the scene, the only one the flat
// accessors look at by default.
const FirstMesh = 0

// Options controls how a file is loaded.
type Options struct {
	PostProcess postprocess.Config
	MeshIndex   int
	Logger      *zap.Logger // nil means silent
}

// DefaultOptions returns the default pipeline on the first mesh.
func DefaultOptions() Options {
	return Options{
		PostProcess: postprocess.DefaultConfig(),
		MeshIndex:   FirstMesh,
	}
}

// Importer owns one loaded scene.
type Importer struct {
	id        uuid.UUID
	path      string
	meshIndex int
	log       *zap.Logger

	scene  *scene.Scene
	err    error
	closed bool
}

// Open reads path, runs the configured pipeline and returns the Importer.
// The result is never nil; check Valid or Err.
func Open(path string, opts Options) *Importer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	im := &Importer{
		id:        uuid.New(),
		path:      path,
		meshIndex: opts.MeshIndex,
	}
	im.log = log.With(zap.String("import_id", im.id.String()))

	start := time.Now()
	s, err := load(path, opts.PostProcess)
	if err != nil {
		im.err = err
		im.log.Warn("import failed", zap.String("path", path), zap.Error(err))
		return im
	}
	im.scene = s

	im.log.Debug("import complete",
		zap.String("path", path),
		zap.String("format", s.Format),
		zap.Int("meshes", len(s.Meshes)),
		zap.Int("vertices", s.VertexCount()),
		zap.Int("faces", s.FaceCount()),
		zap.Stringer("steps", opts.PostProcess.Steps()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return im
}

func load(path string, cfg postprocess.Config) (*scene.Scene, error) {
	s, err := formats.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := postprocess.Apply(s, cfg); err != nil {
		return nil, fmt.Errorf("post-processing: %w", err)
	}
	return s, nil
}

// ID returns the identifier used in log records for this import.
func (im *Importer) ID() uuid.UUID { return im.id }

// Path returns the file the Importer was opened with.
func (im *Importer) Path() string { return im.path }

// Valid reports whether a scene was loaded and the Importer is open. It
// does not check that the scene has a mesh.
func (im *Importer) Valid() bool {
	return !im.closed && im.scene != nil
}

// Err returns the load error, or ErrClosed after Close.
func (im *Importer) Err() error {
	if im.closed {
		return ErrClosed
	}
	return im.err
}

// ErrorString returns the text of Err, or "" when there is none.
func (im *Importer) ErrorString() string {
	if err := im.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// Scene returns the loaded scene, or nil.
func (im *Importer) Scene() *scene.Scene {
	if im.closed {
		return nil
	}
	return im.scene
}

// Mesh returns the mesh the accessors read from.
func (im *Importer) Mesh() (*scene.Mesh, error) {
	if im.closed {
		return nil, ErrClosed
	}
	if im.scene == nil {
		return nil, im.err
	}
	m, ok := im.scene.Mesh(im.meshIndex)
	if !ok {
		return nil, fmt.Errorf("%w: %d (scene has %d)", ErrNoMesh, im.meshIndex, len(im.scene.Meshes))
	}
	return m, nil
}

// TriangleCount returns the number of faces of the mesh, or 0 when there
// is no mesh.
func (im *Importer) TriangleCount() int {
	m, err := im.Mesh()
	if err != nil {
		return 0
	}
	return len(m.Faces)
}

// VertexCount returns the number of vertices of the mesh, or 0 when there
// is no mesh.
func (im *Importer) VertexCount() int {
	m, err := im.Mesh()
	if err != nil {
		return 0
	}
	return len(m.Vertices)
}

// Bounds returns the axis-aligned bounding box of the mesh.
func (im *Importer) Bounds() (scene.Bounds, error) {
	m, err := im.Mesh()
	if err != nil {
		return scene.EmptyBounds(), err
	}
	return m.Bounds(), nil
}

// Close releases the scene. Closing twice returns ErrClosed.
func (im *Importer) Close() error {
	if im.closed {
		return ErrClosed
	}
	im.closed = true
	im.scene = nil
	im.log.Debug("importer closed")
	return nil
}
