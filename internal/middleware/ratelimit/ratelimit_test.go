package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(max int) *fiber.App {
	app := fiber.New()
	app.Use(New(Config{MaxRequestsPerMinute: max}))
	app.Get("/api/digest", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func status(t *testing.T, app *fiber.App, path, user string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestLimitsPerKey(t *testing.T) {
	app := newApp(2)

	assert.Equal(t, 200, status(t, app, "/api/digest", "alice"))
	assert.Equal(t, 200, status(t, app, "/api/digest", "alice"))
	assert.Equal(t, fiber.StatusTooManyRequests, status(t, app, "/api/digest", "alice"))

	assert.Equal(t, 200, status(t, app, "/api/digest", "bob"))
}

func TestSkipsHealth(t *testing.T) {
	app := newApp(1)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, status(t, app, "/health", ""))
	}
}
