package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"fileax/internal/storage"
)

// readCloser keeps the Close of the underlying object when the reader is narrowed to a range.
type readCloser struct {
	io.Reader
	io.Closer
}

// sendContent writes rc as the response body. It sets the validators
// (Last-Modified, ETag), answers conditional requests with 304 and a single
// byte range with 206. Multiple ranges and units other than bytes are ignored
// and the whole object is sent. rc is always closed.
func sendContent(c *fiber.Ctx, rc io.ReadCloser, info storage.ObjectInfo) error {
	ct := info.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Set(fiber.HeaderContentType, ct)
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")

	etag := info.ETag
	if etag == "" && !info.LastModified.IsZero() {
		etag = weakETag(info.Size, info.LastModified)
	}
	if etag != "" {
		c.Set(fiber.HeaderETag, etag)
	}
	if !info.LastModified.IsZero() {
		c.Set(fiber.HeaderLastModified, info.LastModified.UTC().Format(http.TimeFormat))
	}

	rs, seekable := rc.(io.ReadSeeker)
	if seekable {
		c.Set(fiber.HeaderAcceptRanges, "bytes")
	}

	if notModified(c, etag, info.LastModified) {
		rc.Close()
		c.Status(fiber.StatusNotModified)
		return nil
	}

	rangeHeader := c.Get(fiber.HeaderRange)
	if !seekable || !strings.HasPrefix(rangeHeader, "bytes=") || info.Size <= 0 || strings.Contains(rangeHeader, ",") ||
		!ifRangeMatches(c.Get(fiber.HeaderIfRange), etag, info.LastModified) {
		// fasthttp closes rc once the body has been written
		return c.SendStream(rc, int(info.Size))
	}

	start, end, err := fasthttp.ParseByteRange([]byte(rangeHeader), int(info.Size))
	if err != nil || start > end {
		rc.Close()
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes */%d", info.Size))
		return writeError(c, fiber.StatusRequestedRangeNotSatisfiable, "RANGE_NOT_SATISFIABLE", "requested range not satisfiable")
	}
	if _, err := rs.Seek(int64(start), io.SeekStart); err != nil {
		rc.Close()
		return fmt.Errorf("seek to range start: %w", err)
	}

	n := end - start + 1
	c.Status(fiber.StatusPartialContent)
	c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, info.Size))
	return c.SendStream(readCloser{Reader: io.LimitReader(rs, int64(n)), Closer: rc}, n)
}

// weakETag derives a validator from size and modification time.
func weakETag(size int64, mod time.Time) string {
	return `W/"` + strconv.FormatInt(size, 16) + "-" + strconv.FormatInt(mod.UnixMilli(), 16) + `"`
}

// notModified evaluates If-None-Match, and If-Modified-Since only when
// If-None-Match is absent.
func notModified(c *fiber.Ctx, etag string, mod time.Time) bool {
	if inm := c.Get(fiber.HeaderIfNoneMatch); inm != "" {
		return etag != "" && etagListMatches(inm, etag)
	}
	ims := c.Get(fiber.HeaderIfModifiedSince)
	if ims == "" || mod.IsZero() {
		return false
	}
	t, err := fasthttp.ParseHTTPDate([]byte(ims))
	if err != nil {
		return false
	}
	return !mod.Truncate(time.Second).After(t)
}

// ifRangeMatches reports whether a Range header may be honoured. An absent
// If-Range always matches; an entity tag must match strongly.
func ifRangeMatches(ifRange, etag string, mod time.Time) bool {
	if ifRange == "" {
		return true
	}
	if strings.HasPrefix(ifRange, `"`) {
		return etag != "" && !strings.HasPrefix(etag, "W/") && ifRange == etag
	}
	t, err := fasthttp.ParseHTTPDate([]byte(ifRange))
	if err != nil || mod.IsZero() {
		return false
	}
	return mod.Truncate(time.Second).Equal(t)
}

// etagListMatches applies the weak comparison of If-None-Match.
func etagListMatches(list, etag string) bool {
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(list, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
