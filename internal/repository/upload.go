// Package repository contains data access abstractions for the upload audit ledger.
package repository

import (
	"context"
	"time"

	"fileax/internal/model"
)

// UploadRepository records accepted uploads for operators. It is write-mostly and
// never consulted when serving files; the storage backend stays the source of truth.
type UploadRepository interface {
	// Create inserts one audit row for a stored file.
	Create(ctx context.Context, f *model.StoredFile) error

	// Stats summarizes uploads recorded since the given time.
	Stats(ctx context.Context, since time.Time) (*UploadStats, error)
}

// UploadStats aggregates audit rows.
type UploadStats struct {
	Count      int   `json:"count"`
	TotalBytes int64 `json:"total_bytes"`
}
