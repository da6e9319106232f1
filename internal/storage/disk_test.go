package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileax/internal/config"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func newDisk(t *testing.T) (Storage, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewDisk(dir)
	require.NoError(t, err)
	return s, dir
}

func TestNewDisk_CreatesDirectory(t *testing.T) {
	_, dir := newDisk(t)

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}

func TestNewDisk_Errors(t *testing.T) {
	t.Run("empty dir", func(t *testing.T) {
		_, err := NewDisk("")
		assert.Error(t, err)
	})

	t.Run("parent missing", func(t *testing.T) {
		_, err := NewDisk(filepath.Join(t.TempDir(), "a", "b"))
		assert.ErrorContains(t, err, "create storage dir")
	})

	t.Run("path is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		_, err := NewDisk(path)
		assert.ErrorContains(t, err, "not a directory")
	})
}

func TestDisk_PutGetRoundTrip(t *testing.T) {
	s, dir := newDisk(t)
	ctx := context.Background()
	payload := bytes.Repeat([]byte{0x00, 0xFF, 'a', '\n'}, 4096)

	info, err := s.Put(ctx, "1700000000000-42.bin", bytes.NewReader(payload), PutObjectOptions{Size: int64(len(payload))})
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-42.bin", info.Key)
	assert.Equal(t, int64(len(payload)), info.Size)

	onDisk, err := os.ReadFile(filepath.Join(dir, "1700000000000-42.bin"))
	require.NoError(t, err)
	assert.Equal(t, payload, onDisk)

	rc, got, err := s.Get(ctx, "1700000000000-42.bin")
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, b)
	assert.Equal(t, int64(len(payload)), got.Size)
}

func TestDisk_PutRecreatesRemovedDirectory(t *testing.T) {
	s, dir := newDisk(t)
	require.NoError(t, os.Remove(dir))

	_, err := s.Put(context.Background(), "1-1.txt", strings.NewReader("again"), PutObjectOptions{})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "1-1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "again", string(b))
}

func TestDisk_ReadyIsIdempotent(t *testing.T) {
	s, _ := newDisk(t)
	ctx := context.Background()

	assert.NoError(t, s.Ready(ctx))
	assert.NoError(t, s.Ready(ctx))
}

func TestDisk_PutFailureRemovesPartialFile(t *testing.T) {
	s, dir := newDisk(t)

	_, err := s.Put(context.Background(), "1-1.txt", io.MultiReader(strings.NewReader("partial"), failingReader{}), PutObjectOptions{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "write file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDisk_PutRejectsInvalidKeys(t *testing.T) {
	s, _ := newDisk(t)

	for _, key := range []string{"", ".", "..", "../escape.txt", `a\b`, "a/b", "nul\x00.txt"} {
		_, err := s.Put(context.Background(), key, strings.NewReader("x"), PutObjectOptions{})
		assert.Error(t, err, "key %q", key)
	}
}

func TestDisk_GetNotFound(t *testing.T) {
	s, dir := newDisk(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	for _, key := range []string{"missing.txt", "..", ".", "../uploads", "subdir", ""} {
		_, _, err := s.Get(context.Background(), key)
		assert.ErrorIs(t, err, ErrNotFound, "key %q", key)
	}
}

func TestDisk_GetContentType(t *testing.T) {
	s, _ := newDisk(t)
	ctx := context.Background()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

	tests := []struct {
		key     string
		content []byte
		want    string
	}{
		{key: "1-1.json", content: []byte(`{"a":1}`), want: "application/json"},
		{key: "1-2.PNG", content: png, want: "image/png"},
		{key: "1-3", content: png, want: "image/png"},
		{key: "1-4.zzzunknown", content: []byte("plain words"), want: "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := s.Put(ctx, tt.key, bytes.NewReader(tt.content), PutObjectOptions{})
			require.NoError(t, err)

			rc, info, err := s.Get(ctx, tt.key)
			require.NoError(t, err)
			defer rc.Close()

			assert.Equal(t, tt.want, info.ContentType)

			// sniffing must not consume the stream
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, tt.content, b)
		})
	}
}

func TestNew(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Dir = filepath.Join(t.TempDir(), "files")

	s, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, s)

	cfg.Storage.Driver = "tape"
	_, err = New(cfg)
	assert.Error(t, err)
}
