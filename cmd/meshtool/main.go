// meshtool is a CLI for inspecting, previewing and converting meshes
// through the meshport importer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/config"
	"github.com/Faultbox/meshport/internal/logger"
)

// errUsage is returned after usage has been printed for bad arguments.
var errUsage = errors.New("usage")

type command struct {
	name string
	run  func(args []string, stdout io.Writer) error
}

var commands = []command{
	{"info", cmdInfo},
	{"dump", cmdDump},
	{"preview", cmdPreview},
	{"export", cmdExport},
	{"list", cmdList},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	name := args[0]
	switch name {
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		err := c.run(args[1:], stdout)
		logger.Sync()
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errUsage):
			fmt.Fprintln(stderr, err)
			return 2
		default:
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	fmt.Fprintf(stderr, "Unknown command: %s\n", name)
	printUsage(stderr)
	return 1
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `meshtool - mesh import utility

Usage:
  meshtool <command> [options]

Commands:
  info <file>                      Show format, meshes, primitive types and bounds
  dump <file>                      Print vertex, normal and index buffers
  preview [options] <files...>     Render previews (-size -ss -yaw -pitch -j -o -format)
  export [-all] <in> <out.obj>     Write the processed mesh as Wavefront OBJ
  list [-n N] [-all] <file.grf> [pattern]
                                   List models stored in a GRF archive

Common options:
  -config <path>   Config file (default: ./meshport.yaml or user config dir)
  -debug           Enable debug logging
  -log-file <path> Also write logs to this file
  -mesh <n>        Mesh index to read
  -steps <list>    Post-process steps (default, none, triangulate,...)

Files inside GRF archives are addressed as archive.grf#path/in/archive.rsm.

Examples:
  meshtool info model.glb
  meshtool list data.grf prontera
  meshtool preview -o previews/ "data.grf#data/model/prontera/fountain.rsm"
  meshtool preview -j 8 -o previews/ models/*.obj
  meshtool export -steps triangulate,gen-smooth-normals scan.ply scan.obj`)
}

// setup parses the shared and command flags, then loads configuration and
// starts logging.
func setup(fs *flag.FlagSet, args []string) (*config.Config, *zap.Logger, error) {
	fs.SetOutput(io.Discard)
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, logger.Named("meshtool"), nil
}

func needArgs(fs *flag.FlagSet, n int, usage string) error {
	if fs.NArg() < n {
		return fmt.Errorf("%w: meshtool %s", errUsage, usage)
	}
	return nil
}
