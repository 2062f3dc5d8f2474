// Package storage fetches map files from and publishes reports to object
// storage. A local directory and Tencent Cloud COS are supported.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/linkmap-analysis/pkg/config"
	apperrors "github.com/linkmap-analysis/pkg/errors"
)

// Storage defines the object operations the analyzer needs.
type Storage interface {
	// Upload writes the content of reader to key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile writes a local file to key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download opens the object at key. A missing object yields an error
	// matching apperrors.ErrNotFound.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Deleting a missing object succeeds.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns where key can be reached.
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage creates the backend selected by cfg.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid storage config", err)
	}

	if StorageType(cfg.Type) == StorageTypeCOS {
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	}
	return NewLocalStorage(cfg.LocalPath)
}

// ValidateConfig validates the storage configuration. An empty type means
// local storage.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	case StorageTypeLocal, "":
		if cfg.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	return nil
}

func notFound(key string) error {
	return apperrors.New(apperrors.CodeNotFound, "object not found: "+key)
}
