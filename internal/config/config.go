// Package config loads pantrycore configuration from an optional YAML file
// and applies PANTRYCORE_* environment overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Storage selects the persistent store backend.
type Storage struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// S3 holds connection parameters for the s3 blob driver.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Blob selects the photo blob store backend.
type Blob struct {
	Driver string `yaml:"driver"`
	FSRoot string `yaml:"fs_root"`
	S3     S3     `yaml:"s3"`
}

// Config is the full pantrycore configuration.
type Config struct {
	Storage Storage `yaml:"storage"`
	Blob    Blob    `yaml:"blob"`
}

// Default returns the configuration used when no file and no overrides
// are present.
func Default() Config {
	return Config{
		Storage: Storage{Driver: "sqlite", SQLitePath: "pantrycore.db"},
		Blob:    Blob{Driver: "fs", FSRoot: "photos"},
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist) and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Storage.Driver, "PANTRYCORE_STORAGE_DRIVER")
	setString(&cfg.Storage.SQLitePath, "PANTRYCORE_SQLITE_PATH")
	setString(&cfg.Storage.PostgresDSN, "PANTRYCORE_POSTGRES_DSN")
	setString(&cfg.Blob.Driver, "PANTRYCORE_BLOB_DRIVER")
	setString(&cfg.Blob.FSRoot, "PANTRYCORE_BLOB_FS_ROOT")
	setString(&cfg.Blob.S3.Bucket, "PANTRYCORE_S3_BUCKET")
	setString(&cfg.Blob.S3.Region, "PANTRYCORE_S3_REGION")
	setString(&cfg.Blob.S3.Endpoint, "PANTRYCORE_S3_ENDPOINT")
	setString(&cfg.Blob.S3.AccessKey, "PANTRYCORE_S3_ACCESS_KEY")
	setString(&cfg.Blob.S3.SecretKey, "PANTRYCORE_S3_SECRET_KEY")
	setBool(&cfg.Blob.S3.PathStyle, "PANTRYCORE_S3_PATH_STYLE")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}
