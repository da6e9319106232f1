package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fileax/docs"
	"fileax/internal/origin"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type swaggerDoc struct {
	Host    string   `json:"host"`
	Schemes []string `json:"schemes"`
}

func fetchDoc(t *testing.T, app *fiber.App, headers map[string]string) swaggerDoc {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, SwaggerPrefix+"doc.json", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc swaggerDoc
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	return doc
}

func TestSwagger_StaticOriginPinned(t *testing.T) {
	app := fiber.New()
	app.Get(SwaggerPrefix+"*", Swagger(docs.SwaggerInfo, origin.NewStatic("https", "files.example", "8443")))

	doc := fetchDoc(t, app, map[string]string{origin.HeaderForwardedHost: "evil.example"})
	assert.Equal(t, "files.example:8443", doc.Host)
	assert.Equal(t, []string{"https"}, doc.Schemes)
}

func TestSwagger_ForwardedHeadersNeverReachDoc(t *testing.T) {
	docs.SwaggerInfo.Host = "stale.example"

	app := fiber.New()
	app.Get(SwaggerPrefix+"*", Swagger(docs.SwaggerInfo, origin.NewForwarded()))
	assert.Empty(t, docs.SwaggerInfo.Host)

	for _, host := range []string{"a.example", "b.example"} {
		doc := fetchDoc(t, app, map[string]string{
			origin.HeaderForwardedHost:  host,
			origin.HeaderForwardedProto: "https",
		})
		assert.Empty(t, doc.Host)
	}

	doc := fetchDoc(t, app, nil)
	assert.Empty(t, doc.Host)
	assert.Empty(t, doc.Schemes)
}
