package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
run:
  start_ns: 1000
  stop_ns: 2000
  cached: false
container:
  quote_sources:
    - symbol: EURUSD
      venue: SIM
      path: quotes.csv
storage:
  db_path: backtest.db
logging:
  level: info
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.StartNs != 1000 || cfg.Run.StopNs != 2000 {
		t.Errorf("run window = [%d, %d], want [1000, 2000]", cfg.Run.StartNs, cfg.Run.StopNs)
	}
	if len(cfg.Container.QuoteSources) != 1 {
		t.Fatalf("quote_sources len = %d, want 1", len(cfg.Container.QuoteSources))
	}
	if cfg.Container.QuoteSources[0].Symbol != "EURUSD" {
		t.Errorf("quote source symbol = %q, want EURUSD", cfg.Container.QuoteSources[0].Symbol)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoad_EnvOverridesDBPath(t *testing.T) {
	path := writeConfig(t, validConfig)
	t.Setenv("BACKTEST_DB_PATH", "/tmp/override.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.DBPath != "/tmp/override.db" {
		t.Errorf("DBPath = %q, want env override", cfg.Storage.DBPath)
	}
}

func TestValidate_RejectsReversedWindow(t *testing.T) {
	path := writeConfig(t, `
run:
  start_ns: 2000
  stop_ns: 1000
container:
  quote_sources:
    - symbol: EURUSD
      venue: SIM
      path: quotes.csv
`)
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for start_ns > stop_ns")
	}
}

func TestValidate_RejectsNoSources(t *testing.T) {
	path := writeConfig(t, `
run:
  start_ns: 0
  stop_ns: 100
`)
	if _, err := Load(path); err == nil {
		t.Error("expected validation error when no quote or trade sources are configured")
	}
}
