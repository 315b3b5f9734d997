// Package project loads tyco.toml, the optional per-project configuration
// file. Every field has a default; an absent file means all defaults.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"tyco/internal/trace"
)

// ConfigFileName is the manifest looked up in the working directory.
const ConfigFileName = "tyco.toml"

// Config is the resolved project configuration.
type Config struct {
	Inference InferenceConfig
	Trace     TraceConfig
}

// InferenceConfig mirrors the [inference] section.
type InferenceConfig struct {
	// Jobs is the analysis parallelism. 0 means one goroutine per CPU.
	Jobs int `toml:"jobs"`
	// MaxDiagnostics caps each function's diagnostic bag.
	MaxDiagnostics int `toml:"max-diagnostics"`
}

// TraceConfig mirrors the [trace] section.
type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Default returns the configuration used when no manifest is present.
func Default() Config {
	return Config{
		Inference: InferenceConfig{
			Jobs:           1,
			MaxDiagnostics: 100,
		},
		Trace: TraceConfig{
			Level:  trace.LevelOff.String(),
			Output: "-",
		},
	}
}

type fileConfig struct {
	Inference InferenceConfig `toml:"inference"`
	Trace     TraceConfig     `toml:"trace"`
}

// Load reads the manifest at path. Fields absent from the file keep their
// defaults; a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	if meta.IsDefined("inference", "jobs") {
		if raw.Inference.Jobs < 0 {
			return cfg, fmt.Errorf("%s: [inference].jobs must be >= 0", path)
		}
		cfg.Inference.Jobs = raw.Inference.Jobs
	}
	if meta.IsDefined("inference", "max-diagnostics") {
		if raw.Inference.MaxDiagnostics <= 0 {
			return cfg, fmt.Errorf("%s: [inference].max-diagnostics must be > 0", path)
		}
		cfg.Inference.MaxDiagnostics = raw.Inference.MaxDiagnostics
	}
	if meta.IsDefined("trace", "level") {
		if _, err := trace.ParseLevel(raw.Trace.Level); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
		cfg.Trace.Level = raw.Trace.Level
	}
	if meta.IsDefined("trace", "output") {
		cfg.Trace.Output = raw.Trace.Output
	}
	return cfg, nil
}

// LoadFromDir loads the manifest from dir, falling back to defaults when no
// manifest exists there.
func LoadFromDir(dir string) (Config, error) {
	return Load(filepath.Join(dir, ConfigFileName))
}
