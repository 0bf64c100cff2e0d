package config

import "flag"

// Flags are the command-line overrides shared by every meshport command.
type Flags struct {
	Config  string
	Debug   bool
	LogFile string
	Mesh    int
	Steps   string
}

// RegisterFlags defines the shared flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
	fs.IntVar(&f.Mesh, "mesh", -1, "Mesh index to read (default from config)")
	fs.StringVar(&f.Steps, "steps", "", "Post-process steps, comma separated (default, none, triangulate, ...)")
	return f
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) error {
	if f == nil {
		return nil
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Mesh >= 0 {
		cfg.Import.MeshIndex = f.Mesh
	}
	if f.Steps != "" {
		if err := setSteps(cfg, f.Steps); err != nil {
			return err
		}
	}
	return nil
}
