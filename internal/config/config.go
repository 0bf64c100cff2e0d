// Package config handles meshport configuration loading and management.
package config

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshport/pkg/importer"
	"github.com/Faultbox/meshport/pkg/postprocess"
)

// Config holds all settings shared by the bridge and the tools.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Preview PreviewConfig `yaml:"preview"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig controls how files are loaded.
type ImportConfig struct {
	PostProcess postprocess.Config `yaml:"post_process"`
	MeshIndex   int                `yaml:"mesh_index"`
}

// PreviewConfig holds software preview rendering settings.
type PreviewConfig struct {
	Size        int     `yaml:"size"`        // output edge length in pixels
	Supersample int     `yaml:"supersample"` // render scale before downsampling
	Yaw         float32 `yaml:"yaw"`         // degrees
	Pitch       float32 `yaml:"pitch"`       // degrees
	Format      string  `yaml:"format"`      // "webp" or "png"
	Workers     int     `yaml:"workers"`     // 0 means one per CPU
}

// ViewerConfig holds interactive viewer settings.
type ViewerConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	VSync      bool       `yaml:"vsync"`
	FOV        float32    `yaml:"fov"` // vertical, degrees
	Background [3]float32 `yaml:"background"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			PostProcess: postprocess.DefaultConfig(),
			MeshIndex:   importer.FirstMesh,
		},
		Preview: PreviewConfig{
			Size:        512,
			Supersample: 2,
			Yaw:         35,
			Pitch:       25,
			Format:      "webp",
		},
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			VSync:      true,
			FOV:        45,
			Background: [3]float32{0.12, 0.12, 0.15},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ImportOptions returns importer options for these settings.
func (c *Config) ImportOptions(log *zap.Logger) importer.Options {
	return importer.Options{
		PostProcess: c.Import.PostProcess,
		MeshIndex:   c.Import.MeshIndex,
		Logger:      log,
	}
}
