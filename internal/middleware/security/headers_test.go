package security

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headersFor(t *testing.T, cfg HeadersConfig) map[string]string {
	t.Helper()
	app := fiber.New()
	app.Use(HeadersMiddleware(cfg))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)

	out := map[string]string{}
	for _, name := range []string{"X-Frame-Options", "X-Content-Type-Options", "Strict-Transport-Security", "Content-Security-Policy"} {
		out[name] = resp.Header.Get(name)
	}
	return out
}

func TestHeadersMiddlewareProduction(t *testing.T) {
	h := headersFor(t, HeadersConfig{AllowedOrigins: []string{"https://rentalqa.example"}})

	assert.Equal(t, "DENY", h["X-Frame-Options"])
	assert.Equal(t, "nosniff", h["X-Content-Type-Options"])
	assert.NotEmpty(t, h["Strict-Transport-Security"])
	assert.Contains(t, h["Content-Security-Policy"], "connect-src 'self' https://rentalqa.example;")
}

func TestHeadersMiddlewareDevelopment(t *testing.T) {
	h := headersFor(t, HeadersConfig{IsDevelopment: true})

	assert.Empty(t, h["Strict-Transport-Security"])
	assert.Contains(t, h["Content-Security-Policy"], "connect-src 'self';")
}

func TestBuildConnectSrcSkipsWildcard(t *testing.T) {
	assert.Equal(t, "'self' http://localhost:5173", buildConnectSrc([]string{"*", " http://localhost:5173 ", ""}))
}
