// Package config resolves tool configuration from an optional YAML file and
// environment variables. Environment always wins over the file; built-in
// defaults fill the rest, so a missing config file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultExportQuality = 85
	DefaultBurstWindow   = 2 // seconds
)

type Config struct {
	// CatalogPath locates the SQLite catalog database.
	CatalogPath string       `yaml:"catalog"`
	Scan        ScanConfig   `yaml:"scan"`
	Export      ExportConfig `yaml:"export"`
}

type ScanConfig struct {
	// Workers bounds the parallel hashing stage; 0 means one per CPU.
	Workers int `yaml:"workers"`
	// BurstWindowSec is the capture-time proximity for burst grouping.
	BurstWindowSec int `yaml:"burst_window_sec"`
}

type ExportConfig struct {
	// Quality is the HEIC encoder quality, 1-100.
	Quality int `yaml:"quality"`
}

// Load builds the effective configuration. The YAML file is looked up at
// PHOTOVAULT_CONFIG, falling back to ~/.photovault/config.yaml; a missing
// file is fine, a malformed one is an error.
func Load() (*Config, error) {
	cfg := &Config{
		CatalogPath: defaultCatalogPath(),
		Scan:        ScanConfig{BurstWindowSec: DefaultBurstWindow},
		Export:      ExportConfig{Quality: DefaultExportQuality},
	}

	path := os.Getenv("PHOTOVAULT_CONFIG")
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".photovault", "config.yaml")
		}
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("PHOTOVAULT_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}
	cfg.Scan.Workers = envInt("PHOTOVAULT_SCAN_WORKERS", cfg.Scan.Workers)
	cfg.Scan.BurstWindowSec = envInt("PHOTOVAULT_BURST_WINDOW_SEC", cfg.Scan.BurstWindowSec)
	cfg.Export.Quality = envInt("PHOTOVAULT_EXPORT_QUALITY", cfg.Export.Quality)

	if cfg.Export.Quality < 1 || cfg.Export.Quality > 100 {
		return nil, fmt.Errorf("export quality %d out of range 1-100", cfg.Export.Quality)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func defaultCatalogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "photovault.db"
	}
	return filepath.Join(home, ".photovault", "catalog.db")
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}
