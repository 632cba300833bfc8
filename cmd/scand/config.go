// config.go - Configuration management for the scanner daemon.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the daemon configuration.
type Config struct {
	// Identity
	ContractAddress  string `json:"contract_address"`  // decimal field element
	RecipientAddress string `json:"recipient_address"` // decimal field element
	KeyFile          string `json:"key_file"`          // recipient private scalar, decimal

	// Storage
	StatePath string `json:"state_path"` // persisted client state (JSON)

	// Scanning
	ScanIntervalSeconds int `json:"scan_interval_seconds"`

	// Logging
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContractAddress:     "1",
		RecipientAddress:    "1",
		KeyFile:             "scand.key",
		StatePath:           "scand_state.json",
		ScanIntervalSeconds: 10,
		LogLevel:            "info",
	}
}

// LoadConfig loads configuration from a JSON file, falling back to defaults
// when the file does not exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.ContractAddress == "" {
		return fmt.Errorf("contract_address must be set")
	}
	if c.RecipientAddress == "" {
		return fmt.Errorf("recipient_address must be set")
	}
	if c.ScanIntervalSeconds < 1 {
		return fmt.Errorf("scan_interval_seconds must be at least 1, got %d", c.ScanIntervalSeconds)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Save writes the configuration to a JSON file, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
