package postprocess

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshport/pkg/scene"
)

// Pipeline errors.
var (
	ErrInvalidConfig    = errors.New("invalid post-process config")
	ErrUnknownPrimitive = errors.New("unknown primitive type")
	ErrInvalidIndex     = errors.New("face index out of range")
)

// DefaultSmoothingAngle is the largest angle, in degrees, between face
// normals that are still averaged together.
const DefaultSmoothingAngle = 175

// Config selects the steps Apply runs and tunes them.
type Config struct {
	Triangulate           bool `yaml:"triangulate"`
	JoinIdenticalVertices bool `yaml:"join_identical_vertices"`
	GenSmoothNormals      bool `yaml:"gen_smooth_normals"`
	ForceGenNormals       bool `yaml:"force_gen_normals"`
	OptimizeGraph         bool `yaml:"optimize_graph"`
	SortByPType           bool `yaml:"sort_by_ptype"`

	SmoothingAngle   float32  `yaml:"smoothing_angle"`
	RemovePrimitives []string `yaml:"remove_primitives"`
}

// DefaultConfig returns the configuration for DefaultSteps.
func DefaultConfig() Config {
	return FromSteps(DefaultSteps)
}

// FromSteps returns a config enabling exactly the given steps.
func FromSteps(s Step) Config {
	return Config{
		Triangulate:           s&Triangulate != 0,
		JoinIdenticalVertices: s&JoinIdenticalVertices != 0,
		GenSmoothNormals:      s&GenSmoothNormals != 0,
		ForceGenNormals:       s&ForceGenNormals != 0,
		OptimizeGraph:         s&OptimizeGraph != 0,
		SortByPType:           s&SortByPType != 0,
		SmoothingAngle:        DefaultSmoothingAngle,
	}
}

// Steps returns the enabled steps as a bit set.
func (c Config) Steps() Step {
	var s Step
	flags := []struct {
		on   bool
		step Step
	}{
		{c.Triangulate, Triangulate},
		{c.JoinIdenticalVertices, JoinIdenticalVertices},
		{c.GenSmoothNormals, GenSmoothNormals},
		{c.ForceGenNormals, ForceGenNormals},
		{c.OptimizeGraph, OptimizeGraph},
		{c.SortByPType, SortByPType},
	}
	for _, f := range flags {
		if f.on {
			s |= f.step
		}
	}
	return s
}

// Validate checks the tuning values.
func (c Config) Validate() error {
	if c.SmoothingAngle <= 0 || c.SmoothingAngle > 180 {
		return fmt.Errorf("%w: smoothing_angle %v must be in (0, 180]", ErrInvalidConfig, c.SmoothingAngle)
	}
	removed, err := c.removed()
	if err != nil {
		return err
	}
	if removed == scene.PrimitivePoint|scene.PrimitiveLine|scene.PrimitiveTriangle|scene.PrimitivePolygon {
		return fmt.Errorf("%w: remove_primitives drops every primitive type", ErrInvalidConfig)
	}
	return nil
}

func (c Config) removed() (scene.PrimitiveType, error) {
	var t scene.PrimitiveType
	for _, name := range c.RemovePrimitives {
		p, ok := scene.ParsePrimitiveType(name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownPrimitive, name)
		}
		t |= p
	}
	return t, nil
}
