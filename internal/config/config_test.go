package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.SQLitePath != "pantrycore.db" {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Blob.Driver != "fs" || cfg.Blob.FSRoot != "photos" {
		t.Fatalf("unexpected blob defaults: %+v", cfg.Blob)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pantrycore.yaml")
	raw := `
storage:
  driver: postgres
  postgres_dsn: postgres://db.internal/pantry
blob:
  driver: s3
  s3:
    bucket: pantry-photos
    region: eu-west-1
    path_style: true
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.PostgresDSN != "postgres://db.internal/pantry" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Storage.SQLitePath != "pantrycore.db" {
		t.Fatalf("expected default sqlite path preserved, got %q", cfg.Storage.SQLitePath)
	}
	if cfg.Blob.S3.Bucket != "pantry-photos" || !cfg.Blob.S3.PathStyle {
		t.Fatalf("unexpected blob config: %+v", cfg.Blob)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PANTRYCORE_STORAGE_DRIVER", "memory")
	t.Setenv("PANTRYCORE_S3_BUCKET", "override-bucket")
	t.Setenv("PANTRYCORE_S3_PATH_STYLE", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("expected env to override driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Blob.S3.Bucket != "override-bucket" || !cfg.Blob.S3.PathStyle {
		t.Fatalf("unexpected s3 config: %+v", cfg.Blob.S3)
	}
}

func TestLoadMissingFileIsNotFatal(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("expected missing file to be skipped: %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("storage: [not a map"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
