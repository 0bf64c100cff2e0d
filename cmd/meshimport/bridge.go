package main

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/config"
	"github.com/Faultbox/meshport/internal/logger"
	"github.com/Faultbox/meshport/pkg/importer"
)

// bridge holds the process-wide state behind the C exports.
type bridge struct {
	reg  *importer.Registry
	opts importer.Options
	log  *zap.Logger
}

var (
	bridgeOnce sync.Once
	shared     *bridge
)

// instance returns the bridge, loading configuration and starting the
// logger on first use.
func instance() *bridge {
	bridgeOnce.Do(func() {
		shared = loadBridge()
	})
	return shared
}

func loadBridge() *bridge {
	cfg, cfgErr := config.Load(nil)
	if cfgErr != nil {
		cfg = config.Default()
	}
	logErr := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	log := logger.Named("meshimport")
	if cfgErr != nil {
		log.Warn("config load failed, using defaults", zap.Error(cfgErr))
	}
	if logErr != nil {
		log.Warn("log file unavailable, logging to console only", zap.Error(logErr))
	}
	return newBridge(cfg.ImportOptions(log), log)
}

func newBridge(opts importer.Options, log *zap.Logger) *bridge {
	return &bridge{reg: importer.NewRegistry(), opts: opts, log: log}
}

func (b *bridge) open(path string) uint64 {
	return uint64(b.reg.Open(path, b.opts))
}

func (b *bridge) get(h uint64) *importer.Importer {
	im, err := b.reg.Get(importer.Handle(h))
	if err != nil {
		b.log.Warn("unknown importer handle", zap.Uint64("handle", h))
		return nil
	}
	return im
}

func (b *bridge) valid(h uint64) bool {
	im := b.get(h)
	return im != nil && im.Valid()
}

func (b *bridge) triangleCount(h uint64) int {
	if im := b.get(h); im != nil {
		return im.TriangleCount()
	}
	return 0
}

func (b *bridge) vertexCount(h uint64) int {
	if im := b.get(h); im != nil {
		return im.VertexCount()
	}
	return 0
}

// copyVertices, copyNormals and copyIndices return the number of values
// written, or -1 after logging the reason.

func (b *bridge) copyVertices(h uint64, dst []float32) int {
	im := b.get(h)
	if im == nil {
		return -1
	}
	n, err := im.CopyVertices(dst)
	return b.written(h, "vertices", n, err)
}

func (b *bridge) copyNormals(h uint64, dst []float32) int {
	im := b.get(h)
	if im == nil {
		return -1
	}
	n, err := im.CopyNormals(dst)
	return b.written(h, "normals", n, err)
}

func (b *bridge) copyIndices(h uint64, dst []int32) int {
	im := b.get(h)
	if im == nil {
		return -1
	}
	n, err := im.CopyIndices(dst)
	return b.written(h, "indices", n, err)
}

func (b *bridge) written(h uint64, what string, n int, err error) int {
	if err != nil {
		b.log.Warn("copy failed",
			zap.Uint64("handle", h),
			zap.String("buffer", what),
			zap.Error(err),
		)
		return -1
	}
	return n
}

// errorString returns the load error text; ok is false for unknown handles.
func (b *bridge) errorString(h uint64) (msg string, ok bool) {
	im := b.get(h)
	if im == nil {
		return "", false
	}
	return im.ErrorString(), true
}

func (b *bridge) release(h uint64) {
	if err := b.reg.Release(importer.Handle(h)); err != nil {
		if errors.Is(err, importer.ErrInvalidHandle) {
			b.log.Warn("delete_importer on unknown or released handle", zap.Uint64("handle", h))
			return
		}
		b.log.Warn("delete_importer failed", zap.Uint64("handle", h), zap.Error(err))
	}
}
