package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.DB.Path == "" {
		t.Fatal("expected a default DB path")
	}
	if cfg.Ingest.ChainID == "" {
		t.Fatal("expected a default chain id")
	}
	if !cfg.App.IsDev() {
		t.Fatalf("expected default env to be dev, got %q", cfg.App.Env)
	}
}

func TestDBConfigDSNCarriesPragmas(t *testing.T) {
	db := DBConfig{Path: "prices.db", BusyTimeout: 5000}
	dsn := db.DSN()
	for _, want := range []string{"file:prices.db", "_journal_mode=WAL", "_foreign_keys=on", "_busy_timeout=5000"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}
