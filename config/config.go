// Package config loads the fleetsizer configuration from a YAML or JSON file,
// a .env file and K_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fleetsizer/core/benchmark"
	"github.com/kilianp07/fleetsizer/core/factory"
	"github.com/kilianp07/fleetsizer/core/metrics"
	"github.com/kilianp07/fleetsizer/core/simulation"
	"github.com/kilianp07/fleetsizer/infra/cache"
	"github.com/kilianp07/fleetsizer/infra/logger"
	"github.com/kilianp07/fleetsizer/infra/tracing"
)

// EnvPrefix prefixes environment overrides; K_SOLVER__TIME_LIMIT sets solver.time_limit.
const EnvPrefix = "K_"

type Config struct {
	Logging    logger.Config         `json:"logging"`
	Solver     SolverConfig          `json:"solver"`
	Simulation simulation.Config     `json:"simulation"`
	Batch      benchmark.BatchConfig `json:"batch"`
	Metrics    metrics.Config        `json:"metrics"`
	Tracing    tracing.Config        `json:"tracing"`
	Cache      cache.Config          `json:"cache"`
	RunLog     factory.ModuleConfig  `json:"runlog"`
	Output     OutputConfig          `json:"output"`
	API        APIConfig             `json:"api"`
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// Load reads path when it exists, then the .env file found next to it or in
// the working directory, then the environment. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(path); err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			parser, err := parserFor(path)
			if err != nil {
				return nil, err
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

// loadDotEnv exports the variables of the first .env file found. Variables
// already set in the environment win.
func loadDotEnv(path string) error {
	candidates := []string{".env"}
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			candidates = append([]string{filepath.Join(dir, ".env")}, candidates...)
		}
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err != nil {
			continue
		}
		if err := godotenv.Load(c); err != nil {
			return fmt.Errorf("load %s: %w", c, err)
		}
		return nil
	}
	return nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	c.Solver.SetDefaults()
	c.Batch.SetDefaults()
	c.Tracing.SetDefaults()
	c.Cache.SetDefaults()
	c.Output.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		name string
		err  func() error
	}{
		{"logging", c.Logging.Validate},
		{"solver", c.Solver.Validate},
		{"simulation", c.Simulation.Validate},
		{"metrics", c.Metrics.Validate},
		{"tracing", c.Tracing.Validate},
		{"cache", c.Cache.Validate},
		{"output", c.Output.Validate},
		{"api", c.API.Validate},
	}
	for _, ch := range checks {
		if err := ch.err(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}
