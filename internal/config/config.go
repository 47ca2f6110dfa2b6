package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/daekit/internal/integrator"
	"github.com/san-kum/daekit/internal/rootfinder"
)

const (
	DefaultT0             = 0.0
	DefaultTF             = 1.0
	DefaultFiniteElements = 20
	DefaultScheme         = "rk4"
	DefaultRootfinder     = "newton"
)

type Config struct {
	Problem    string `yaml:"problem"`
	Scheme     string `yaml:"scheme"`
	Rootfinder string `yaml:"rootfinder"`

	T0             float64   `yaml:"t0"`
	TF             float64   `yaml:"tf"`
	Grid           []float64 `yaml:"grid,omitempty"`
	OutputT0       bool      `yaml:"output_t0"`
	FiniteElements int       `yaml:"finite_elements"`

	MaxIter int     `yaml:"max_iter"`
	Tol     float64 `yaml:"tol"`

	Expand     bool `yaml:"expand"`
	PrintStats bool `yaml:"print_stats"`

	// Input overrides; empty slices fall back to the problem defaults.
	X0  []float64 `yaml:"x0,omitempty"`
	Z0  []float64 `yaml:"z0,omitempty"`
	P   []float64 `yaml:"p,omitempty"`
	RX0 []float64 `yaml:"rx0,omitempty"`
	RP  []float64 `yaml:"rp,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:        "decay",
		Scheme:         DefaultScheme,
		Rootfinder:     DefaultRootfinder,
		T0:             DefaultT0,
		TF:             DefaultTF,
		FiniteElements: DefaultFiniteElements,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Options maps the file-level settings onto integrator options.
func (c *Config) Options() integrator.Options {
	return integrator.Options{
		Expand:         c.Expand,
		PrintStats:     c.PrintStats,
		T0:             c.T0,
		TF:             c.TF,
		Grid:           c.Grid,
		OutputT0:       c.OutputT0,
		FiniteElements: c.FiniteElements,
		Rootfinder:     c.Rootfinder,
		RootfinderOptions: rootfinder.Options{
			MaxIter: c.MaxIter,
			Tol:     c.Tol,
		},
	}
}
