package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshport/pkg/postprocess"
)

// Environment overrides.
const (
	EnvConfig   = "MESHPORT_CONFIG"
	EnvLogLevel = "MESHPORT_LOG_LEVEL"
)

// Load loads configuration with priority: defaults < file < env < flags.
// flags may be nil.
func Load(flags *Flags) (*Config, error) {
	cfg := Default()

	configPath := ""
	if flags != nil {
		configPath = flags.Config
	}
	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.Logging.Level = lvl
	}

	if err := flags.apply(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Import.PostProcess.Validate(); err != nil {
		return nil, fmt.Errorf("import.post_process: %w", err)
	}
	return cfg, nil
}

// setSteps replaces the enabled pipeline steps, keeping the tuning values.
func setSteps(cfg *Config, list string) error {
	steps, err := postprocess.ParseSteps(list)
	if err != nil {
		return err
	}
	pp := postprocess.FromSteps(steps)
	pp.SmoothingAngle = cfg.Import.PostProcess.SmoothingAngle
	pp.RemovePrimitives = cfg.Import.PostProcess.RemovePrimitives
	cfg.Import.PostProcess = pp
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./meshport.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "meshport")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "meshport")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "meshport")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "meshport")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
