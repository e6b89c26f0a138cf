// Package config loads timestore service configuration from the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the service settings
type Config struct {
	GRPCPort         int    `env:"GRPC_PORT" envDefault:"50051"`
	MetricsPort      int    `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty        bool   `env:"LOG_PRETTY" envDefault:"false"`
	SnapshotInterval int    `env:"SNAPSHOT_INTERVAL" envDefault:"20"`
	MaxMessageBytes  int    `env:"MAX_MESSAGE_BYTES" envDefault:"4194304"`
}

// Prefix is prepended to every variable name
const Prefix = "TIMESTORE_"

// Load reads envFile if it exists and parses the TIMESTORE_ variables.
// Variables already set in the process environment take precedence over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable
func (c Config) Validate() error {
	var errs []error
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid grpc port %d", c.GRPCPort))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid metrics port %d", c.MetricsPort))
	}
	if c.SnapshotInterval < 1 {
		errs = append(errs, fmt.Errorf("snapshot interval must be positive, got %d", c.SnapshotInterval))
	}
	if c.MaxMessageBytes < 1 {
		errs = append(errs, fmt.Errorf("max message bytes must be positive, got %d", c.MaxMessageBytes))
	}
	return errors.Join(errs...)
}
