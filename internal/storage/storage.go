// Package storage holds the backends that keep uploaded bytes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"fileax/internal/config"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// PutObjectOptions define optional parameters for storing objects.
// Size should be the exact number of bytes if known, or -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a flat key/value store for file bytes. Keys are single path
// elements; objects are written once and never modified.
type Storage interface {
	// Ready verifies the backend can accept writes, creating its container if needed.
	Ready(ctx context.Context) error
	// Put writes the full stream under key and returns once it is durable.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get opens an object for streaming. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
}

// New opens the backend selected by cfg.Storage.Driver.
func New(cfg *config.AppConfig) (Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverDisk, "":
		return NewDisk(cfg.Storage.Dir)
	case config.StorageDriverMinIO:
		return NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
