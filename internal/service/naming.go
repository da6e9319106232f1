package service

import (
	"strconv"
	"strings"
	"time"
)

// maxRandomSuffix bounds the random part of a stored name: [0, 1e9).
const maxRandomSuffix = 1_000_000_000

// Extension returns the suffix of the final path element of name starting at
// its last dot, dot included. Names without a dot, and dotfiles such as
// ".bashrc" whose only dot is the leading one, have no extension. Case is kept.
func Extension(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i:]
}

// StoredName renders {unix_millis}-{n}{ext}.
func StoredName(now time.Time, n int, ext string) string {
	var b strings.Builder
	b.Grow(32 + len(ext))
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(n))
	b.WriteString(ext)
	return b.String()
}
