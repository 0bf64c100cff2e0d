// Package postprocess implements the geometry pipeline run over a freshly
// imported scene: graph flattening, triangulation, primitive sorting,
// normal generation and vertex joining.
package postprocess

import (
	"fmt"
	"strings"
)

// Step is a bit set of pipeline steps.
type Step uint32

const (
	Triangulate Step = 1 << iota
	JoinIdenticalVertices
	GenSmoothNormals
	ForceGenNormals
	OptimizeGraph
	SortByPType
)

// DefaultSteps is the pipeline every importer runs unless told otherwise.
const DefaultSteps = Triangulate | JoinIdenticalVertices | GenSmoothNormals |
	ForceGenNormals | OptimizeGraph | SortByPType

var stepNames = []struct {
	step Step
	name string
}{
	{OptimizeGraph, "optimize-graph"},
	{Triangulate, "triangulate"},
	{SortByPType, "sort-by-ptype"},
	{GenSmoothNormals, "gen-smooth-normals"},
	{ForceGenNormals, "force-gen-normals"},
	{JoinIdenticalVertices, "join-identical-vertices"},
}

// String lists the steps in execution order, comma separated.
func (s Step) String() string {
	if s == 0 {
		return "none"
	}
	var names []string
	for _, sn := range stepNames {
		if s&sn.step != 0 {
			names = append(names, sn.name)
		}
	}
	var known Step
	for _, sn := range stepNames {
		known |= sn.step
	}
	if rest := s &^ known; rest != 0 {
		names = append(names, fmt.Sprintf("Unknown(%#x)", uint32(rest)))
	}
	return strings.Join(names, ",")
}

// ParseSteps parses a comma separated step list. "default" and "none" are
// accepted as shorthands.
func ParseSteps(list string) (Step, error) {
	var s Step
	for _, tok := range strings.Split(list, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		switch tok {
		case "":
			continue
		case "default":
			s |= DefaultSteps
			continue
		case "none":
			continue
		}
		found := false
		for _, sn := range stepNames {
			if sn.name == tok {
				s |= sn.step
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown step %q", ErrInvalidConfig, tok)
		}
	}
	return s, nil
}
