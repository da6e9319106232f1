package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/swaggo/swag"

	"fileax/internal/origin"
)

// SwaggerPrefix is where the Swagger UI and doc.json are mounted.
const SwaggerPrefix = "/swagger/"

// Swagger serves the UI for info. The host and schemes in info are fixed here,
// once: a Static resolver pins them, any other resolver clears them so the UI
// falls back to the origin the page itself was loaded from. Request headers
// never reach info.
func Swagger(info *swag.Spec, resolver origin.Resolver) fiber.Handler {
	info.Host = ""
	info.Schemes = []string{}
	if s, ok := resolver.(*origin.Static); ok {
		o := s.Resolve(origin.Request{})
		info.Host = o.Host
		info.Schemes = []string{o.Scheme}
	}

	ui := swagger.New(swagger.Config{
		URL:          SwaggerPrefix + "doc.json",
		InstanceName: info.InstanceName(),
	})
	return func(c *fiber.Ctx) error {
		// the UI remembers the prefix of the first request it sees
		c.Request().Header.Del("X-Forwarded-Prefix")
		return ui(c)
	}
}
