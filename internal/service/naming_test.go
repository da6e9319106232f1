package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "notes.txt", want: ".txt"},
		{name: "case preserved", in: "photo.JPG", want: ".JPG"},
		{name: "no extension", in: "README", want: ""},
		{name: "last dot wins", in: "archive.tar.gz", want: ".gz"},
		{name: "trailing dot", in: "weird.", want: "."},
		{name: "dotfile", in: ".bashrc", want: ""},
		{name: "dotfile with extension", in: ".config.yaml", want: ".yaml"},
		{name: "unix path", in: "dir.d/../../etc/passwd", want: ""},
		{name: "windows path", in: `C:\Users\me\report.PDF`, want: ".PDF"},
		{name: "dot only in windows directory", in: `dir.v2\file`, want: ""},
		{name: "dot only in directory", in: "some.dir/file", want: ""},
		{name: "unicode", in: "résumé.pdf", want: ".pdf"},
		{name: "spaces kept verbatim", in: "my file.tar gz", want: ".tar gz"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.in))
		})
	}
}

func TestStoredName(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	assert.Equal(t, "1700000000123-42.JPG", StoredName(now, 42, ".JPG"))
	assert.Equal(t, "1700000000123-0", StoredName(now, 0, ""))
	assert.Equal(t, "1700000000123-999999999.gz", StoredName(now, maxRandomSuffix-1, ".gz"))
}
