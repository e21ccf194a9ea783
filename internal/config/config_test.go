package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Store.IOVReduction {
		t.Fatal("expected IOV reduction on by default")
	}
	if cfg.Postgres.Enabled {
		t.Fatal("expected audit disabled by default")
	}
	if cfg.Observability.Metrics.Namespace != "gitconddb" {
		t.Fatalf("unexpected namespace: %s", cfg.Observability.Metrics.Namespace)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"store":{"uri":"git:/srv/conddb","iov_reduction":false}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Store.URI != "git:/srv/conddb" {
		t.Fatalf("unexpected uri: %s", cfg.Store.URI)
	}
	if cfg.Store.IOVReduction {
		t.Fatal("expected iov_reduction overridden to false")
	}
	// Untouched fields keep their defaults.
	if cfg.Observability.Metrics.Namespace != "gitconddb" {
		t.Fatalf("unexpected namespace: %s", cfg.Observability.Metrics.Namespace)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GITCONDDB_STORE_URI", "s3://bucket/prefix")
	t.Setenv("GITCONDDB_REDIS_ADDR", "localhost:6380")
	t.Setenv("GITCONDDB_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.Store.URI != "s3://bucket/prefix" {
		t.Fatalf("unexpected uri: %s", cfg.Store.URI)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "localhost:6380" {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.Observability.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Observability.Logging.Level)
	}
}
