package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Ingest.BucketSeconds != 300 {
		t.Fatalf("bucket_seconds = %d, want 300", cfg.Ingest.BucketSeconds)
	}
	if cfg.Ingest.BatchSize != 8 {
		t.Fatalf("batch_size = %d, want 8", cfg.Ingest.BatchSize)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[study]
language = "KO"

[ingest]
batch_size = 4

[logging]
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("exists = false")
	}
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Study.Language != "ko" {
		t.Fatalf("language = %q, want ko (normalized)", cfg.Study.Language)
	}
	if cfg.Ingest.BatchSize != 4 {
		t.Fatalf("batch_size = %d, want 4", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.BucketSeconds != 300 {
		t.Fatalf("bucket_seconds = %d, defaults must survive partial files", cfg.Ingest.BucketSeconds)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Ingest.BucketSeconds = 0
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "bucket_seconds") || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("error missing details: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("exists = true for missing file")
	}
	if cfg.Study.Language != "ja" {
		t.Fatalf("language = %q, want default ja", cfg.Study.Language)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample not found after CreateSample")
	}
	if cfg.Ingest.BucketCooldownSeconds != 60 {
		t.Fatalf("bucket_cooldown_seconds = %d, want 60", cfg.Ingest.BucketCooldownSeconds)
	}
}
