package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HelloIntervalSeconds != 5 || cfg.DeadIntervalSeconds != 20 {
		t.Fatalf("default config = %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ospfd.json")
	cfg := Default()
	cfg.Interfaces = []string{"eth0", "eth1"}
	cfg.Verbose = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Interfaces) != 2 || got.Interfaces[0] != "eth0" || !got.Verbose {
		t.Fatalf("loaded config = %+v", got)
	}
}
