package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/Faultbox/meshport/pkg/importer"
	"github.com/Faultbox/meshport/pkg/math"
)

func cmdInfo(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	cfg, log, err := setup(fs, args)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1, "info <file>"); err != nil {
		return err
	}

	path := fs.Arg(0)
	im := importer.Open(path, cfg.ImportOptions(log))
	defer im.Close()

	fmt.Fprintf(stdout, "File:     %s\n", path)
	fmt.Fprintf(stdout, "Steps:    %s\n", cfg.Import.PostProcess.Steps())
	fmt.Fprintf(stdout, "Valid:    %t\n", im.Valid())
	if !im.Valid() {
		return im.Err()
	}

	s := im.Scene()
	fmt.Fprintf(stdout, "Format:   %s\n", s.Format)
	fmt.Fprintf(stdout, "Meshes:   %d\n", len(s.Meshes))
	fmt.Fprintf(stdout, "Vertices: %d\n", s.VertexCount())
	fmt.Fprintf(stdout, "Faces:    %d\n", s.FaceCount())
	fmt.Fprintln(stdout)

	for i, m := range s.Meshes {
		marker := " "
		if i == cfg.Import.MeshIndex {
			marker = "*"
		}
		b := m.Bounds()
		fmt.Fprintf(stdout, "%s [%d] %-16q vertices=%-7d faces=%-7d types=%-14s normals=%-5t bounds=%s..%s\n",
			marker, i, m.Name, len(m.Vertices), len(m.Faces), m.PrimitiveTypes, m.HasNormals(),
			vec(b.Min), vec(b.Max))
	}

	if _, err := im.Mesh(); err != nil {
		fmt.Fprintf(stdout, "\nSelected mesh: %v\n", err)
	}
	return nil
}

func vec(v math.Vec3) string {
	return fmt.Sprintf("(%g %g %g)", v.X, v.Y, v.Z)
}
