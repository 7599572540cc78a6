package engine

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/wildfunctions/factory_numbers/pkg/logging"
	"github.com/wildfunctions/factory_numbers/pkg/pool"
	"github.com/wildfunctions/factory_numbers/pkg/strategy"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all parameters for a search run.
type Config struct {
	MaxNumber   int64  `yaml:"max_number" json:"max_number"`
	MaxSize     int    `yaml:"max_size" json:"max_size"`
	Operations  string `yaml:"operations" json:"operations"` // comma-separated subset of + - * /, or a preset name
	Strategy    string `yaml:"strategy" json:"strategy"`
	Workers     int    `yaml:"workers" json:"workers"`
	Format      string `yaml:"format" json:"format"` // "text" or "json"
	ShowMissing bool   `yaml:"show_missing" json:"show_missing"`
	Limit       int    `yaml:"limit" json:"limit"` // max representations printed per value, 0 = all
	LogLevel    string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns a config with sensible defaults. MaxNumber and
// MaxSize have no default and must be set.
func DefaultConfig() Config {
	return Config{
		Operations: "+,-,*,/",
		Strategy:   "parallel",
		Workers:    runtime.NumCPU(),
		Format:     "text",
		LogLevel:   "info",
	}
}

// Validate checks the config and returns an ErrInvalidConfig error
// describing the first problem.
func (c Config) Validate() error {
	if c.MaxNumber < 1 {
		return fmt.Errorf("%w: max_number must be > 0, was %d", ErrInvalidConfig, c.MaxNumber)
	}
	if c.MaxSize < 1 {
		return fmt.Errorf("%w: max_size must be > 0, was %d", ErrInvalidConfig, c.MaxSize)
	}
	if _, err := pool.ResolveOperators(c.Operations); err != nil {
		return fmt.Errorf("%w: operations: %v", ErrInvalidConfig, err)
	}
	if c.Workers < 0 || c.Workers > strategy.MaxWorkers {
		return fmt.Errorf("%w: workers must be in [0, %d], was %d", ErrInvalidConfig, strategy.MaxWorkers, c.Workers)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%w: limit must be >= 0, was %d", ErrInvalidConfig, c.Limit)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown format %q (text, json)", ErrInvalidConfig, c.Format)
	}
	if _, err := strategy.Get(c.Strategy, strategy.Options{Workers: c.Workers}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfig starts from DefaultConfig, applies the YAML file at path (a
// missing file or empty path leaves the defaults) and then the FACTORY_*
// environment variables. The result is not validated; New does that after
// command-line overrides are applied.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := loadConfigFromEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadConfigFromEnv(cfg *Config) error {
	if v := os.Getenv("FACTORY_MAX_NUMBER"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FACTORY_MAX_NUMBER: %w", err)
		}
		cfg.MaxNumber = n
	}
	if v := os.Getenv("FACTORY_MAX_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FACTORY_MAX_SIZE: %w", err)
		}
		cfg.MaxSize = n
	}
	if v := os.Getenv("FACTORY_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FACTORY_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("FACTORY_OPERATIONS"); v != "" {
		cfg.Operations = v
	}
	if v := os.Getenv("FACTORY_STRATEGY"); v != "" {
		cfg.Strategy = v
	}
	return nil
}
