// Package config loads the optional loom.yaml used by the loom CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/loom/pkg/core"
	loomerrors "github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/idle"
)

// FileName is the config file looked up when no path is given.
const FileName = "loom.yaml"

// SchemaVersion is the newest config schema this build understands.
const SchemaVersion = "v1.1.0"

// ErrUnsupportedSchema is returned for config files written for another
// major schema version or a newer minor one.
var ErrUnsupportedSchema = errors.New("unsupported config schema")

// Config represents the optional loom.yaml configuration.
type Config struct {
	Schema string       `yaml:"schema,omitempty"`
	Debug  bool         `yaml:"debug,omitempty"`
	Render RenderConfig `yaml:"render"`
	Bench  BenchConfig  `yaml:"bench"`
}

// RenderConfig contains scheduler settings for loom render.
type RenderConfig struct {
	// Budget is the idle slice length, as a Go duration.
	Budget string `yaml:"budget,omitempty"`
	// Units, when set, makes every slice perform exactly that many units
	// instead of measuring time.
	Units int `yaml:"units,omitempty"`
	// MinRemaining is the slice time below which the walk yields.
	MinRemaining string `yaml:"minRemaining,omitempty"`
}

// BenchConfig contains defaults for loom bench. Added in schema v1.1.0.
type BenchConfig struct {
	Width      int    `yaml:"width,omitempty"`
	Depth      int    `yaml:"depth,omitempty"`
	Iterations int    `yaml:"iterations,omitempty"`
	Budget     string `yaml:"budget,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Path         string
	Schema       string
	Debug        bool
	Budget       time.Duration
	Units        int
	MinRemaining time.Duration
	Bench        ResolvedBench
}

// ResolvedBench contains resolved bench defaults.
type ResolvedBench struct {
	Width      int
	Depth      int
	Iterations int
	Budget     time.Duration
}

// LoadOptional reads the config at path if present. A missing file yields
// an empty Config.
func LoadOptional(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Resolve loads the config at path (if present) and resolves defaults.
// An empty path means FileName in the working directory. Failures are
// returned as *errors.LoomError of kind KindConfig.
func Resolve(path string) (*Resolved, error) {
	if path == "" {
		path = FileName
	}
	cfg, err := LoadOptional(path)
	if err != nil {
		return nil, configError(err)
	}
	res, err := cfg.Resolve()
	if err != nil {
		return nil, configError(fmt.Errorf("%s: %w", path, err))
	}
	res.Path = path
	return res, nil
}

func configError(err error) error {
	return &loomerrors.LoomError{Op: "config.Resolve", Kind: loomerrors.KindConfig, Err: err}
}

// Resolve validates cfg and fills in defaults.
func (cfg *Config) Resolve() (*Resolved, error) {
	schema, err := checkSchema(cfg.Schema)
	if err != nil {
		return nil, err
	}

	budget, err := duration("render.budget", cfg.Render.Budget, idle.DefaultBudget)
	if err != nil {
		return nil, err
	}
	minRemaining, err := duration("render.minRemaining", cfg.Render.MinRemaining, core.DefaultMinRemaining)
	if err != nil {
		return nil, err
	}
	if cfg.Render.Units < 0 {
		return nil, fmt.Errorf("render.units must not be negative (got %d)", cfg.Render.Units)
	}

	bench := ResolvedBench{
		Width:      positive(cfg.Bench.Width, 100),
		Depth:      positive(cfg.Bench.Depth, 3),
		Iterations: positive(cfg.Bench.Iterations, 50),
	}
	if bench.Budget, err = duration("bench.budget", cfg.Bench.Budget, budget); err != nil {
		return nil, err
	}
	if semver.Compare(schema, "v1.1.0") < 0 && cfg.Bench != (BenchConfig{}) {
		return nil, fmt.Errorf("bench settings need schema v1.1.0 or later (got %s)", schema)
	}

	return &Resolved{
		Schema:       schema,
		Debug:        cfg.Debug,
		Budget:       budget,
		Units:        cfg.Render.Units,
		MinRemaining: minRemaining,
		Bench:        bench,
	}, nil
}

// checkSchema normalizes a schema version and checks that this build can
// read it. The "v" prefix is optional in the file.
func checkSchema(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SchemaVersion, nil
	}
	v := raw
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("schema %q is not a semantic version", raw)
	}
	v = semver.Canonical(v)
	if semver.Major(v) != semver.Major(SchemaVersion) {
		return "", fmt.Errorf("%w: %s (this build reads %s.x)", ErrUnsupportedSchema, v, semver.Major(SchemaVersion))
	}
	if semver.Compare(v, SchemaVersion) > 0 {
		return "", fmt.Errorf("%w: %s is newer than %s", ErrUnsupportedSchema, v, SchemaVersion)
	}
	return v, nil
}

func duration(field, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive (got %s)", field, raw)
	}
	return d, nil
}

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
