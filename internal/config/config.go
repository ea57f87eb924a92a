// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds daemon configuration
type Config struct {
	Server ServerConfig `env:",prefix=SERVER_"`
	DB     DBConfig     `env:",prefix=DB_"`
	App    AppConfig    `env:",prefix=APP_"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// DBConfig holds account-store configuration
type DBConfig struct {
	Type string `env:"TYPE,default=badger"` // badger or memory
	Path string `env:"PATH,default=/var/lib/admarket"`
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Environment  string `env:"ENVIRONMENT,default=development"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
	EnableFaucet bool   `env:"ENABLE_FAUCET,default=false"`
}

// Load reads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// GetServerAddr returns the listen address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment reports whether the daemon runs in development mode
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
