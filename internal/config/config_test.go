package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VELLUM_CONFIG_DIR", dir)
	t.Setenv("VELLUM_DATA_DIR", filepath.Join(dir, "data"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backup.RetentionCount != DefaultRetentionCount {
		t.Fatalf("expected default retention %d, got %d", DefaultRetentionCount, cfg.Backup.RetentionCount)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.DatabasePath() != filepath.Join(cfg.DataDir, DBFileName) {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VELLUM_CONFIG_DIR", dir)
	t.Setenv("VELLUM_DATA_DIR", "")

	content := "data_dir = \"" + filepath.ToSlash(filepath.Join(dir, "store")) + "\"\nlog_level = \"debug\"\n\n[backup]\nretention_count = 3\n"
	if err := os.WriteFile(filepath.Join(dir, ".vellum.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backup.RetentionCount != 3 {
		t.Fatalf("expected retention 3, got %d", cfg.Backup.RetentionCount)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.BlobsDir() != filepath.Join(dir, "store", BlobsDirName) {
		t.Fatalf("unexpected blobs dir %q", cfg.BlobsDir())
	}
}

func TestGetAllowedKeys(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/tmp/x"
	for _, key := range AllowedKeys() {
		if !IsAllowedKey(key) {
			t.Fatalf("key %q should be allowed", key)
		}
		if _, err := cfg.Get(key); err != nil {
			t.Fatalf("get %q: %v", key, err)
		}
	}
	if _, err := cfg.Get("nope"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if IsAllowedKey("nope") {
		t.Fatalf("unknown key reported as allowed")
	}
}
