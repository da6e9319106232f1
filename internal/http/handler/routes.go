package handler

import (
	"context"
	"database/sql"
	"errors"
	"mime/multipart"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"fileax/internal/logging"
	"fileax/internal/origin"
	"fileax/internal/repository"
	"fileax/internal/service"
)

const (
	// UploadField is the multipart field carrying the file.
	UploadField = "file"
	// FilesPrefix is the URL prefix stored files are served under.
	FilesPrefix = "/files/"

	healthTimeout = 2 * time.Second
	statsWindow   = 24 * time.Hour
)

var errTooManyFiles = errors.New("more than one file in upload field")

// Deps are the collaborators the routes need. DB and Audit are nil when the
// audit ledger is disabled.
type Deps struct {
	Files  service.FileService
	Origin origin.Resolver
	DB     *sql.DB
	Audit  repository.UploadRepository
	Log    *logging.Logger
}

// uploadResponse is the success body of POST /upload.
type uploadResponse struct {
	URL string `json:"url"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Log == nil {
		d.Log = logging.Default()
	}

	app.Get("/", Index())
	app.Post("/upload", Upload(d.Files, d.Origin, d.Log))
	app.Get(FilesPrefix+":name", ServeFile(d.Files, d.Log))
	app.Get("/health", HealthCheck(d.Files, d.DB, d.Audit))
	app.Get("/healthz", LivenessProbe())
}

// Upload accepts multipart/form-data with exactly one file under UploadField
// and answers with the public URL of the stored copy.
//
// @Summary  Upload a file
// @Accept   multipart/form-data
// @Produce  json
// @Param    file formData file true "file to host"
// @Success  200 {object} uploadResponse
// @Failure  400 {object} errorPayload
// @Failure  413 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /upload [post]
func Upload(files service.FileService, resolver origin.Resolver, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := singleFile(c, UploadField)
		if err != nil {
			if errors.Is(err, errTooManyFiles) {
				return writeError(c, fiber.StatusBadRequest, "TOO_MANY_FILES", "Only one file may be uploaded")
			}
			log.Info("upload_rejected", logging.Fields{
				"request_id": requestIDFromCtx(c),
				"code":       "FILE_REQUIRED",
			})
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "No file uploaded")
		}

		f, err := fh.Open()
		if err != nil {
			log.Error("upload_failed", logging.Fields{
				"request_id": requestIDFromCtx(c),
				"code":       "FILE_OPEN_ERROR",
				"error":      err,
			})
			return writeError(c, fiber.StatusInternalServerError, "FILE_OPEN_ERROR", "Error uploading file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		stored, err := files.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size)
		if err != nil {
			log.Error("upload_failed", logging.Fields{
				"request_id": requestIDFromCtx(c),
				"code":       "STORAGE_WRITE_FAULT",
				"error":      err,
			})
			return writeError(c, fiber.StatusInternalServerError, "STORAGE_WRITE_FAULT", "Error uploading file")
		}

		u := RequestOrigin(c, resolver).URL(FilesPrefix + stored.StoredName)
		log.Info("upload_stored", logging.Fields{
			"request_id":  requestIDFromCtx(c),
			"stored_name": stored.StoredName,
			"size":        stored.Size,
		})
		return c.JSON(uploadResponse{URL: u})
	}
}

// ServeFile streams a stored file by name with an inferred content type.
// Single byte ranges and conditional requests are honoured.
//
// @Summary  Download a stored file
// @Produce  octet-stream
// @Param    name  path   string true  "stored name"
// @Param    Range header string false "single byte range"
// @Success  200 {file} binary
// @Success  206 {file} binary
// @Success  304
// @Failure  404 {object} errorPayload
// @Failure  416 {object} errorPayload
// @Router   /files/{name} [get]
func ServeFile(files service.FileService, log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// issued URLs percent-encode the name; Params is still encoded
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "File not found")
		}

		rc, info, err := files.Open(c.UserContext(), name)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "File not found")
			}
			log.Error("serve_failed", logging.Fields{
				"request_id":  requestIDFromCtx(c),
				"stored_name": name,
				"error":       err,
			})
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		return sendContent(c, rc, info)
	}
}

// HealthCheck reports readiness: the storage backend, plus the audit database when enabled.
//
// @Summary  Readiness check
// @Produce  json
// @Success  200 {object} object
// @Failure  503 {object} errorPayload
// @Router   /health [get]
func HealthCheck(files service.FileService, db *sql.DB, audit repository.UploadRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		if err := files.Ready(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		body := fiber.Map{"status": "healthy"}

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		if audit != nil {
			stats, err := audit.Stats(ctx, time.Now().Add(-statsWindow))
			if err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
			body["uploads_24h"] = stats
		}
		return c.Status(fiber.StatusOK).JSON(body)
	}
}

// LivenessProbe always answers 200.
//
// @Summary  Liveness probe
// @Success  200
// @Router   /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// RequestOrigin feeds the request's connection scheme, Host and forwarded
// headers to resolver. Values are copied out of fasthttp's reusable buffers.
func RequestOrigin(c *fiber.Ctx, resolver origin.Resolver) origin.Origin {
	scheme := "http"
	if c.Context().IsTLS() {
		scheme = "https"
	}
	return resolver.Resolve(origin.Request{
		Scheme:         scheme,
		Host:           string(c.Request().Host()),
		ForwardedProto: strings.Clone(c.Get(origin.HeaderForwardedProto)),
		ForwardedHost:  strings.Clone(c.Get(origin.HeaderForwardedHost)),
	})
}

// singleFile returns the only file under field. A request that is not
// multipart, or has no file part under field, is missing its file.
func singleFile(c *fiber.Ctx, field string) (*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, service.ErrMissingFile
	}
	files := form.File[field]
	switch len(files) {
	case 0:
		return nil, service.ErrMissingFile
	case 1:
		return files[0], nil
	default:
		return nil, errTooManyFiles
	}
}
