package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// diskStorage keeps every object as a file directly under dir.
type diskStorage struct {
	dir string
}

// NewDisk returns a Storage rooted at dir and creates dir if it is missing.
// The parent of dir must already exist.
func NewDisk(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	d := &diskStorage{dir: dir}
	if err := d.Ready(context.Background()); err != nil {
		return nil, err
	}
	return d, nil
}

// Ready creates the storage directory (non-recursively) if it does not exist.
// Safe to call repeatedly; it also recovers from the directory being removed.
func (d *diskStorage) Ready(_ context.Context) error {
	err := os.Mkdir(d.dir, 0o755)
	if err == nil || errors.Is(err, fs.ErrExist) {
		st, statErr := os.Stat(d.dir)
		if statErr != nil {
			return fmt.Errorf("stat storage dir: %w", statErr)
		}
		if !st.IsDir() {
			return fmt.Errorf("storage path %s is not a directory", d.dir)
		}
		return nil
	}
	return fmt.Errorf("create storage dir: %w", err)
}

// Put ensures the directory exists, then copies r into dir/key.
// An existing file with the same key is truncated. If the copy fails the
// partial file is removed.
func (d *diskStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if !validKey(key) {
		return ObjectInfo{}, fmt.Errorf("invalid key %q", key)
	}
	if err := d.Ready(ctx); err != nil {
		return ObjectInfo{}, err
	}

	path := filepath.Join(d.dir, key)
	f, err := os.Create(path)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		_ = os.Remove(path)
		return ObjectInfo{}, fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return ObjectInfo{}, fmt.Errorf("close file: %w", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat file: %w", err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         n,
		ContentType:  opt.ContentType,
		LastModified: st.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

// Get opens dir/key. Keys that are not a single path element are reported as not found.
func (d *diskStorage) Get(_ context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if !validKey(key) {
		return nil, ObjectInfo{}, ErrNotFound
	}

	f, err := os.Open(filepath.Join(d.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrNotFound
		}
		return nil, ObjectInfo{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, ErrNotFound
	}

	ct, err := detectContentType(key, f)
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}

	return f, ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  ct,
		LastModified: st.ModTime(),
	}, nil
}

// detectContentType maps the extension to a MIME type and sniffs the content
// when the extension is unknown. The reader is rewound afterwards.
func detectContentType(key string, r io.ReadSeeker) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct, nil
	}
	m, err := mimetype.DetectReader(r)
	if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
		return "", seekErr
	}
	if err != nil || m == nil {
		return "application/octet-stream", nil
	}
	return m.String(), nil
}

func validKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`) && !strings.ContainsRune(key, 0)
}
