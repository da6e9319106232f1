package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fileax/internal/logging"
	"fileax/internal/model"
	"fileax/internal/repository"
	"fileax/internal/storage"
)

var (
	ErrMissingFile  = errors.New("no file uploaded")
	ErrStorageWrite = errors.New("storage write failed")
	ErrNotFound     = errors.New("file not found")
)

var tracer = otel.Tracer("fileax/internal/service")

// FileService defines the use cases for hosting files.
type FileService interface {
	// Upload stores the stream under a freshly generated name.
	// originalFilename is used only to derive the extension.
	Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.StoredFile, error)

	// Open returns the bytes stored under storedName. The caller closes the reader.
	Open(ctx context.Context, storedName string) (io.ReadCloser, storage.ObjectInfo, error)

	// Ready reports whether the storage backend accepts writes.
	Ready(ctx context.Context) error
}

// Option customizes a fileService.
type Option func(*fileService)

// WithAudit records every stored file in repo. Recording is best effort:
// failures are logged and do not fail the upload.
func WithAudit(repo repository.UploadRepository) Option {
	return func(s *fileService) { s.audit = repo }
}

// WithLogger sets the logger used for audit failures.
func WithLogger(l *logging.Logger) Option {
	return func(s *fileService) { s.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *fileService) { s.now = now }
}

// WithRandom replaces the source of the random name suffix. intn must return a value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(s *fileService) { s.intn = intn }
}

type fileService struct {
	store storage.Storage
	audit repository.UploadRepository
	log   *logging.Logger
	now   func() time.Time
	intn  func(int) int
}

// NewFileService constructs a new FileService.
func NewFileService(store storage.Storage, opts ...Option) FileService {
	s := &fileService{
		store: store,
		log:   logging.Default(),
		now:   time.Now,
		intn:  rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload never checks for an existing object under the generated name; a
// collision needs the same millisecond and the same 1-in-1e9 draw.
func (s *fileService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.StoredFile, error) {
	if r == nil {
		return nil, ErrMissingFile
	}

	now := s.now()
	ext := Extension(originalFilename)
	name := StoredName(now, s.intn(maxRandomSuffix), ext)

	ctx, span := tracer.Start(ctx, "FileService.Upload", trace.WithAttributes(
		attribute.String("file.stored_name", name),
		attribute.Int64("file.size", size),
	))
	defer span.End()

	info, err := s.store.Put(ctx, name, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	f := &model.StoredFile{
		StoredName:   name,
		OriginalName: originalFilename,
		Extension:    ext,
		Size:         info.Size,
		ContentType:  contentType,
		CreatedAt:    now.UTC(),
	}

	if s.audit != nil {
		if err := s.audit.Create(ctx, f); err != nil {
			s.log.Warn("upload_audit_failed", logging.Fields{
				"stored_name": name,
				"error":       err,
			})
		}
	}
	return f, nil
}

func (s *fileService) Open(ctx context.Context, storedName string) (io.ReadCloser, storage.ObjectInfo, error) {
	if storedName == "" {
		return nil, storage.ObjectInfo{}, ErrNotFound
	}
	rc, info, err := s.store.Get(ctx, storedName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storage.ObjectInfo{}, ErrNotFound
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("open from storage: %w", err)
	}
	return rc, info, nil
}

func (s *fileService) Ready(ctx context.Context) error {
	return s.store.Ready(ctx)
}
