// meshview is an interactive viewer for meshes loaded through meshport.
//
// Drag with the left mouse button to orbit, scroll to zoom, drop a file on
// the window to open it, Esc to quit.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/Faultbox/meshport/internal/config"
	"github.com/Faultbox/meshport/internal/logger"
	"github.com/Faultbox/meshport/internal/viewer"
)

func init() {
	// SDL and OpenGL calls must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: meshview [options] [file]")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.Named("meshview")
	v, err := viewer.New(cfg.Viewer, cfg.ImportOptions(log), log)
	if err != nil {
		log.Error("failed to start viewer", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	defer v.Close()

	if path := flag.Arg(0); path != "" {
		if err := v.Load(path); err != nil {
			log.Error("failed to load mesh", zap.String("path", path), zap.Error(err))
		}
	} else {
		log.Info("no file given, drop one onto the window")
	}

	v.Run()
}
