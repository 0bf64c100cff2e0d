package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/Faultbox/meshport/pkg/importer"
)

// cmdDump prints the flat buffers exactly as the C bridge hands them out.
func cmdDump(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	cfg, log, err := setup(fs, args)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1, "dump <file>"); err != nil {
		return err
	}

	im := importer.Open(fs.Arg(0), cfg.ImportOptions(log))
	defer im.Close()
	if !im.Valid() {
		return im.Err()
	}

	verts, err := im.Vertices()
	if err != nil {
		return err
	}
	norms, err := im.Normals()
	if err != nil && !errors.Is(err, importer.ErrNoNormals) {
		return err
	}
	indices, err := im.Indices()
	if err != nil {
		return err
	}

	w := bufio.NewWriter(stdout)
	fmt.Fprintf(w, "vertices %d\n", len(verts)/3)
	for i := 0; i+2 < len(verts); i += 3 {
		fmt.Fprintf(w, "%g %g %g\n", verts[i], verts[i+1], verts[i+2])
	}
	fmt.Fprintf(w, "normals %d\n", len(norms)/3)
	for i := 0; i+2 < len(norms); i += 3 {
		fmt.Fprintf(w, "%g %g %g\n", norms[i], norms[i+1], norms[i+2])
	}
	fmt.Fprintf(w, "triangles %d\n", len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		fmt.Fprintf(w, "%d %d %d\n", indices[i], indices[i+1], indices[i+2])
	}
	return w.Flush()
}
