package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"stateflow/internal/engine"
)

const (
	DefaultModel     = "counter"
	DefaultTimesteps = 100
	DefaultRuns      = 1
)

// Config is the YAML run configuration. Params values may be scalars or
// lists; a list denotes a parameter-sweep axis.
type Config struct {
	Model     string         `yaml:"model"`
	Timesteps int            `yaml:"timesteps"`
	Runs      int            `yaml:"runs"`
	Workers   int            `yaml:"workers"`
	Params    map[string]any `yaml:"params"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:     DefaultModel,
		Timesteps: DefaultTimesteps,
		Runs:      DefaultRuns,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// EngineParams converts the YAML params into engine parameter overrides.
// YAML lists arrive as []any, which the engine already treats as sweep
// axes, so values pass through as-is.
func (c *Config) EngineParams() engine.Params {
	if len(c.Params) == 0 {
		return nil
	}
	params := make(engine.Params, len(c.Params))
	for k, v := range c.Params {
		params[k] = v
	}
	return params
}
