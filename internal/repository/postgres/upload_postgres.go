package postgres

import (
	"context"
	"database/sql"
	"time"

	"fileax/internal/model"
	"fileax/internal/repository"
)

// UploadPostgres is a PostgreSQL implementation of repository.UploadRepository.
type UploadPostgres struct {
	db *sql.DB
}

// NewUploadPostgres creates a new UploadPostgres repository.
func NewUploadPostgres(db *sql.DB) *UploadPostgres {
	return &UploadPostgres{db: db}
}

var _ repository.UploadRepository = (*UploadPostgres)(nil)

// Create inserts a new audit row.
func (r *UploadPostgres) Create(ctx context.Context, f *model.StoredFile) error {
	const q = `
		INSERT INTO uploads (stored_name, original_name, extension, size, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, q,
		f.StoredName,
		f.OriginalName,
		f.Extension,
		f.Size,
		f.ContentType,
		f.CreatedAt,
	)
	return err
}

// Stats counts rows and sums sizes for uploads created at or after since.
func (r *UploadPostgres) Stats(ctx context.Context, since time.Time) (*repository.UploadStats, error) {
	const q = `
		SELECT COUNT(*), COALESCE(SUM(size), 0)
		FROM uploads
		WHERE created_at >= $1
	`
	var s repository.UploadStats
	if err := r.db.QueryRowContext(ctx, q, since).Scan(&s.Count, &s.TotalBytes); err != nil {
		return nil, err
	}
	return &s, nil
}
