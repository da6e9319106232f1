package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"fileax/internal/logging"
)

// LoggerWithWriter logs each HTTP request as one JSON line to w.
// Fields: ts, level, msg, request_id (from RequestID), method, path, status, latency (ms).
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	log := logging.New(w, loc)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the app error handler has not run yet
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		level := logging.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = logging.LevelError
		}

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		log.Log(level, "http_request", logging.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		})

		return err
	}
}
