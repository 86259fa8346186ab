// Package config loads pycc.toml, the per-project analysis settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"pycc/internal/trace"
)

// FileName is looked up from the working directory towards the root.
const FileName = "pycc.toml"

// Config mirrors pycc.toml. Path and Root are empty when no file was found.
type Config struct {
	Path string `toml:"-"`
	Root string `toml:"-"`

	Analysis Analysis `toml:"analysis"`
	Trace    Trace    `toml:"trace"`
	Cache    Cache    `toml:"cache"`
}

type Analysis struct {
	MaxDiagnostics   int  `toml:"max_diagnostics"`
	MaxIterations    int  `toml:"max_iterations"`
	ReportShadowing  bool `toml:"report_shadowing"`
	WarningsAsErrors bool `toml:"warnings_as_errors"`
}

type Trace struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
	Format string `toml:"format"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default is the configuration used without a pycc.toml.
func Default() Config {
	return Config{
		Analysis: Analysis{MaxDiagnostics: 100},
		Trace:    Trace{Level: "off", Mode: "stream", Output: "-", Format: "auto"},
	}
}

// Find walks up from startDir and returns the first pycc.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and reads pycc.toml, falling back to Default.
func Load(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile reads one file over the defaults; keys it leaves out keep their
// default values. Unknown keys are errors so typos do not pass silently.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	cfg.Root = filepath.Dir(path)
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if meta.IsDefined("cache", "dir") && cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(cfg.Root, cfg.Cache.Dir)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Analysis.MaxDiagnostics < 0 {
		errs = append(errs, fmt.Errorf("[analysis].max_diagnostics must be >= 0, got %d", c.Analysis.MaxDiagnostics))
	}
	if c.Analysis.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("[analysis].max_iterations must be >= 0, got %d", c.Analysis.MaxIterations))
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		errs = append(errs, fmt.Errorf("[trace].level: %w", err))
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		errs = append(errs, fmt.Errorf("[trace].mode: %w", err))
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		errs = append(errs, fmt.Errorf("[trace].format: %w", err))
	}
	return errors.Join(errs...)
}

// TraceConfig converts the [trace] section for trace.New.
func (c *Config) TraceConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(c.Trace.Format)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{Level: level, Mode: mode, OutputPath: c.Trace.Output, Format: format}, nil
}
