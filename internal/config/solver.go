package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SolverConfig controls how the axiom verifier drives the external SMT
// solver. It is loaded from kleis.yaml when present; every field has a
// working default so the zero configuration is usable.
type SolverConfig struct {
	// Path is the solver binary (an SMT-LIB2 compatible solver such as z3).
	Path string `yaml:"path"`

	// TimeoutMS bounds each solver invocation in milliseconds. Exceeding it
	// yields an Unknown verdict, never a hang.
	TimeoutMS int `yaml:"timeout_ms"`

	// Args are extra command-line arguments passed to the solver before the
	// script is written to stdin.
	Args []string `yaml:"args,omitempty"`
}

const (
	DefaultSolverPath    = "z3"
	DefaultSolverTimeout = 5000 * time.Millisecond
)

// DefaultSolverConfig returns the configuration used when no kleis.yaml
// overrides are present.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Path:      DefaultSolverPath,
		TimeoutMS: int(DefaultSolverTimeout / time.Millisecond),
		Args:      []string{"-smt2", "-in"},
	}
}

// Timeout returns the per-call solver deadline as a duration.
func (c SolverConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return DefaultSolverTimeout
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// fileConfig is the top-level kleis.yaml shape. Only the solver section is
// owned by this core; other sections belong to sibling subsystems and are
// ignored here.
type fileConfig struct {
	Solver SolverConfig `yaml:"solver"`
}

// LoadSolverConfig reads the solver section from a kleis.yaml file, filling
// missing fields with defaults. A missing file is not an error: defaults are
// returned so the verifier works out of the box.
func LoadSolverConfig(path string) (SolverConfig, error) {
	cfg := DefaultSolverConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	if file.Solver.Path != "" {
		cfg.Path = file.Solver.Path
	}
	if file.Solver.TimeoutMS > 0 {
		cfg.TimeoutMS = file.Solver.TimeoutMS
	}
	if len(file.Solver.Args) > 0 {
		cfg.Args = file.Solver.Args
	}
	return cfg, nil
}
