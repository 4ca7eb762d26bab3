package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PHOTOVAULT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PHOTOVAULT_CATALOG", "")
	t.Setenv("PHOTOVAULT_SCAN_WORKERS", "")
	t.Setenv("PHOTOVAULT_BURST_WINDOW_SEC", "")
	t.Setenv("PHOTOVAULT_EXPORT_QUALITY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if cfg.CatalogPath == "" {
		t.Error("expected a default catalog path")
	}
	if cfg.Scan.BurstWindowSec != DefaultBurstWindow {
		t.Errorf("burst window: got %d, want %d", cfg.Scan.BurstWindowSec, DefaultBurstWindow)
	}
	if cfg.Export.Quality != DefaultExportQuality {
		t.Errorf("quality: got %d, want %d", cfg.Export.Quality, DefaultExportQuality)
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	yaml := `
catalog: /from/file.db
scan:
  workers: 4
  burst_window_sec: 5
export:
  quality: 70
`
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PHOTOVAULT_CONFIG", file)
	t.Setenv("PHOTOVAULT_CATALOG", "/from/env.db")
	t.Setenv("PHOTOVAULT_SCAN_WORKERS", "")
	t.Setenv("PHOTOVAULT_BURST_WINDOW_SEC", "")
	t.Setenv("PHOTOVAULT_EXPORT_QUALITY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if cfg.CatalogPath != "/from/env.db" {
		t.Errorf("env must beat file: got %s", cfg.CatalogPath)
	}
	if cfg.Scan.Workers != 4 || cfg.Scan.BurstWindowSec != 5 {
		t.Errorf("file values not applied: %+v", cfg.Scan)
	}
	if cfg.Export.Quality != 70 {
		t.Errorf("file quality not applied: %d", cfg.Export.Quality)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte("catalog: [not: valid"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PHOTOVAULT_CONFIG", file)

	if _, err := Load(); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestLoad_QualityOutOfRange(t *testing.T) {
	t.Setenv("PHOTOVAULT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PHOTOVAULT_EXPORT_QUALITY", "150")

	if _, err := Load(); err == nil {
		t.Error("expected error for out-of-range quality")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("PHOTOVAULT_TEST_INT", "")
	if got := envInt("PHOTOVAULT_TEST_INT", 7); got != 7 {
		t.Errorf("unset: got %d, want 7", got)
	}
	t.Setenv("PHOTOVAULT_TEST_INT", "12")
	if got := envInt("PHOTOVAULT_TEST_INT", 7); got != 12 {
		t.Errorf("set: got %d, want 12", got)
	}
	t.Setenv("PHOTOVAULT_TEST_INT", "banana")
	if got := envInt("PHOTOVAULT_TEST_INT", 7); got != 7 {
		t.Errorf("invalid: got %d, want 7", got)
	}
	t.Setenv("PHOTOVAULT_TEST_INT", "-3")
	if got := envInt("PHOTOVAULT_TEST_INT", 7); got != 7 {
		t.Errorf("negative: got %d, want 7", got)
	}
}
