// Package storage persists uploaded attachment files on local disk or in MinIO.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"ngelmak/internal/config"
)

var (
	// ErrStorage wraps every I/O failure of a backend.
	ErrStorage = errors.New("storage error")
	// ErrFileNotFound is returned when a key has no stored object.
	ErrFileNotFound = errors.New("file not found")
)

// Storage stores objects under slash-separated keys.
type Storage interface {
	Store(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeleteDir(ctx context.Context, prefix string) error
}

// New builds the backend selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMinio:
		return NewMinioStorage(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return NewLocalStorage(cfg.StorageRoot)
	}
}

// Key joins directories and a filename into an object key.
// It fails when any segment would escape its parent.
func Key(filename string, dirs ...string) (string, error) {
	parts := make([]string, 0, len(dirs)+1)
	for _, d := range append(dirs, filename) {
		if err := checkSegment(d); err != nil {
			return "", err
		}
		parts = append(parts, d)
	}
	return path.Join(parts...), nil
}

// Dir joins directories into a key prefix.
func Dir(dirs ...string) (string, error) {
	for _, d := range dirs {
		if err := checkSegment(d); err != nil {
			return "", err
		}
	}
	return path.Join(dirs...), nil
}

func checkSegment(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) || strings.ContainsRune(s, 0) {
		return fmt.Errorf("%w: invalid path segment %q", ErrStorage, s)
	}
	return nil
}
