package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Faultbox/meshport/pkg/importer"
	"github.com/Faultbox/meshport/pkg/scene"
)

func cmdExport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	all := fs.Bool("all", false, "Export every mesh instead of the selected one")
	cfg, log, err := setup(fs, args)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 2, "export [-all] <in> <out.obj>"); err != nil {
		return err
	}

	in, out := fs.Arg(0), fs.Arg(1)
	im := importer.Open(in, cfg.ImportOptions(log))
	defer im.Close()
	if !im.Valid() {
		return im.Err()
	}

	var meshes []*scene.Mesh
	if *all {
		meshes = im.Scene().Meshes
	} else {
		m, err := im.Mesh()
		if err != nil {
			return err
		}
		meshes = []*scene.Mesh{m}
	}

	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := writeOBJ(f, filepath.Base(in), meshes); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Wrote %s (%d meshes)\n", out, len(meshes))
	return nil
}

// writeOBJ writes meshes as OBJ objects with shared, 1-based numbering.
// Faces reference normals only when the mesh has them.
func writeOBJ(w io.Writer, source string, meshes []*scene.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# exported by meshtool from %s\n", source)

	base := 1
	for i, m := range meshes {
		name := m.Name
		if name == "" {
			name = "mesh" + strconv.Itoa(i)
		}
		fmt.Fprintf(bw, "o %s\n", name)
		for _, v := range m.Vertices {
			fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
		}
		normals := m.HasNormals()
		if normals {
			for _, n := range m.Normals {
				fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
			}
		}

		for _, f := range m.Faces {
			switch scene.PrimitiveFor(len(f.Indices)) {
			case scene.PrimitivePoint:
				bw.WriteString("p")
			case scene.PrimitiveLine:
				bw.WriteString("l")
			default:
				bw.WriteString("f")
			}
			for _, idx := range f.Indices {
				ref := strconv.Itoa(base + int(idx))
				if normals && len(f.Indices) >= 3 {
					fmt.Fprintf(bw, " %s//%s", ref, ref)
				} else {
					fmt.Fprintf(bw, " %s", ref)
				}
			}
			bw.WriteByte('\n')
		}
		base += len(m.Vertices)
	}
	return bw.Flush()
}
