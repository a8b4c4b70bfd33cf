// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads daemon configuration from environment variables.
package config

import (
	"github.com/caarlos0/env/v11"
)

// Config is the daemon configuration, populated from environment
// variables. Flags may override individual fields after loading.
type Config struct {
	// Env is the deployment environment (development or production).
	Env string `env:"BOARD_ENV" envDefault:"development"`

	// API is the service API listen address.
	APIAddr string `env:"BOARD_API_ADDR" envDefault:":8080"`

	// OpsAddr is the operational server listen address (health,
	// Prometheus metrics, maintenance).
	OpsAddr string `env:"BOARD_OPS_ADDR" envDefault:":9090"`

	// LogLevel sets the zap level: debug, info, warn, error.
	LogLevel string `env:"BOARD_LOG_LEVEL" envDefault:"info"`

	// DBType selects the archival backend: memdb or badgerdb.
	DBType string `env:"BOARD_DB_TYPE" envDefault:"memdb"`

	// DBPath is the on-disk database directory for badgerdb.
	DBPath string `env:"BOARD_DB_PATH" envDefault:"/tmp/boardroom"`

	// AdminAuthority and TreasuryAuthority bootstrap the marketplace
	// config record at startup when both are set (hex IDs).
	AdminAuthority    string `env:"BOARD_ADMIN" envDefault:""`
	TreasuryAuthority string `env:"BOARD_TREASURY" envDefault:""`

	// FeeBps is the platform fee in basis points applied at
	// settlement when the config record is bootstrapped locally.
	FeeBps uint16 `env:"BOARD_FEE_BPS" envDefault:"250"`

	// ShutdownGraceSeconds bounds graceful HTTP shutdown.
	ShutdownGraceSeconds int `env:"BOARD_SHUTDOWN_GRACE" envDefault:"5"`
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Production reports whether the daemon runs in release mode.
func (c Config) Production() bool {
	return c.Env == "production"
}
