// Package config loads and saves the daemon's on-disk configuration,
// adapted from the teacher's config.go — same JSON-file-under-a-dotfile-
// directory shape, repurposed from packet-builder templates and UI
// settings to the handful of knobs a routing daemon needs: which
// interfaces to run OSPF on, timer overrides, and the metrics listener.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the daemon's persisted configuration.
type Config struct {
	// Interfaces lists the names of interfaces to run OSPF on. Empty means
	// "every non-loopback interface with an IPv4 address", per
	// router.ListInterfaces.
	Interfaces []string `json:"interfaces"`

	HelloIntervalSeconds int `json:"helloIntervalSeconds"`
	DeadIntervalSeconds  int `json:"deadIntervalSeconds"`
	LSAMaxAgeSeconds     int `json:"lsaMaxAgeSeconds"`

	MetricsAddr string `json:"metricsAddr"`
	Verbose     bool    `json:"verbose"`
}

// Default returns the configuration matching spec.md §6's constants.
func Default() *Config {
	return &Config{
		HelloIntervalSeconds: 5,
		DeadIntervalSeconds:  20,
		LSAMaxAgeSeconds:     20,
		MetricsAddr:          ":9091",
	}
}

// Dir returns the directory configuration files live in, creating it if
// necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home directory: %w", err)
	}
	dir := filepath.Join(home, ".ospfd")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.Mkdir(dir, 0o755); err != nil {
			return "", fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return dir, nil
}

// Load reads the configuration from path, or returns Default if path does
// not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
