package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file and expands environment variables.
// A missing file is not an error: the server then runs on defaults,
// which matches a bare development checkout.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects configs the server cannot start with.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port %q is not numeric", c.Server.Port)
	}
	if c.Server.TLS.Enabled {
		if _, err := strconv.Atoi(c.Server.TLS.Port); err != nil {
			return fmt.Errorf("server.tls.port %q is not numeric", c.Server.TLS.Port)
		}
	}
	if c.Database.MinConns < 0 || c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database conns: min=%d max=%d", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Socket.ReadLimit <= 0 {
		return fmt.Errorf("socket.read_limit must be positive, got %d", c.Socket.ReadLimit)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	return nil
}
