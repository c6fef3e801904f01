// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Storage backends accepted in STORAGE_TYPE.
const (
	StorageMemory     = "memory"
	StorageFilesystem = "filesystem"
	StorageSQLite     = "sqlite"
	StorageS3         = "s3"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":3002"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	StorageType      string `env:"STORAGE_TYPE" envDefault:"memory"`
	LocalStoragePath string `env:"LOCAL_STORAGE_PATH" envDefault:"./data"`
	DataSourceName   string `env:"DATA_SOURCE_NAME" envDefault:"badges.db"`
	S3BucketName     string `env:"S3_BUCKET_NAME"`

	// Hosted gallery limits.
	GalleryMaxEntries int   `env:"GALLERY_MAX_ENTRIES" envDefault:"500"`
	MaxUploadBytes    int64 `env:"MAX_UPLOAD_BYTES" envDefault:"15728640"`

	// Client side. An empty or placeholder endpoint keeps the gallery on the device.
	GalleryEndpoint string `env:"GALLERY_ENDPOINT"`
	LocalQuotaBytes int    `env:"LOCAL_QUOTA_BYTES" envDefault:"5242880"`
	CampaignURL     string `env:"CAMPAIGN_URL" envDefault:"https://badge.up-renouveau.bj"`
	TemplatePath    string `env:"TEMPLATE_PATH"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads .env when present, then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory, StorageFilesystem, StorageSQLite:
	case StorageS3:
		if c.S3BucketName == "" {
			return fmt.Errorf("S3_BUCKET_NAME must be set for s3 storage type")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.StorageType)
	}
	if c.GalleryMaxEntries <= 0 {
		return fmt.Errorf("GALLERY_MAX_ENTRIES must be positive, got %d", c.GalleryMaxEntries)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}
