package handler

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed index.html
var indexHTML []byte

// Index serves the upload page.
func Index() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Type("html").Send(indexHTML)
	}
}
