// Package config provides configuration management for durad.
package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Mode selects which service flavour the core runs as.
type Mode string

const (
	ModeQueue Mode = "queue"
	ModeKV    Mode = "kv"
)

// Config holds the durad server configuration.
type Config struct {
	// Transport
	Addr      string `json:"addr"`       // queue/KV TCP listen address
	AdminAddr string `json:"admin_addr"` // HTTP admin listen address

	// Persistence
	DataDir string `json:"data_dir"`
	Mode    Mode   `json:"mode"`

	// B+ tree
	Degree int `json:"degree"`

	// Admission control — max requests/sec, 0 = unlimited.
	RateLimit int `json:"rate_limit"`

	// Logging
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:      ":7070",
		AdminAddr: ":7071",
		DataDir:   "data",
		Mode:      ModeQueue,
		Degree:    64,
		RateLimit: 0,
		LogLevel:  "info",
	}
}

// Load builds a Config in three layers: JSON file defaults (a missing
// file is not an error — DefaultConfig survives it), a ".env" overlay
// loaded via godotenv the way cc-backend's server loads its own .env
// before reading configuration, and finally real environment variable
// overrides on top of both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DURAQ_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DURAQ_ADMIN_ADDR"); v != "" {
		cfg.AdminAddr = v
	}
	if v := os.Getenv("DURAQ_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("DURAQ_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("DURAQ_DEGREE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Degree = n
		}
	}
	if v := os.Getenv("DURAQ_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit = n
		}
	}
	if v := os.Getenv("DURAQ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Save saves the configuration to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
