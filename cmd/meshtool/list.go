package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshport/pkg/formats"
	"github.com/Faultbox/meshport/pkg/grf"
)

// cmdList prints the importable models stored in a GRF archive, as paths
// the other commands accept.
func cmdList(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	all := fs.Bool("all", false, "List every file, not only models")
	if _, _, err := setup(fs, args); err != nil {
		return err
	}
	if err := needArgs(fs, 1, "list <file.grf> [pattern]"); err != nil {
		return err
	}

	archivePath := fs.Arg(0)
	archive, err := grf.Open(archivePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	pattern := strings.ToLower(fs.Arg(1))
	models := make(map[string]bool)
	for _, ext := range formats.Extensions() {
		models[ext] = true
	}

	count := 0
	for _, name := range archive.List() {
		if !*all && !models[filepath.Ext(name)] {
			continue
		}
		if pattern != "" {
			matched, _ := filepath.Match(pattern, filepath.Base(name))
			if !matched && !strings.Contains(name, pattern) {
				continue
			}
		}
		fmt.Fprintln(stdout, archivePath+formats.ArchiveSep+name)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}
	return nil
}
