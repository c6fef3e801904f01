package stores

import (
	"badge-studio/config"
	"badge-studio/core"
	"badge-studio/stores/aws"
	"badge-studio/stores/filesystem"
	"badge-studio/stores/memory"
	"badge-studio/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// Store is a union interface that includes all store types.
type Store interface {
	core.BadgeRepository
	core.KeyValueStore
}

func GetStore(cfg config.Config) Store {
	var store Store

	storageField := logrus.Fields{
		"storageType": cfg.StorageType,
	}

	switch cfg.StorageType {
	case config.StorageFilesystem:
		storageField["basePath"] = cfg.LocalStoragePath
		store = filesystem.NewStore(cfg.LocalStoragePath)
	case config.StorageSQLite:
		storageField["dataSourceName"] = cfg.DataSourceName
		store = sqlite.NewStore(cfg.DataSourceName)
	case config.StorageS3:
		if cfg.S3BucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = cfg.S3BucketName
		store = aws.NewStore(cfg.S3BucketName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
