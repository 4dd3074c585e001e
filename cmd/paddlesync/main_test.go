package main

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fluxbyte/paddlesync/internal/pkg/weblog"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiberApp_PanicBecomesGeneric500(t *testing.T) {
	ring := weblog.New(weblog.DefaultCapacity)
	app := newFiberApp(ring)
	app.Post("/boom", func(c *fiber.Ctx) error {
		panic("secret connection string leaked in panic")
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "internal server error", out["error"])
	assert.NotEmpty(t, out["requestId"])

	// The internal detail is logged, not returned.
	logged := false
	for _, e := range ring.Recent() {
		if strings.Contains(e.Message, "secret connection string") {
			logged = true
		}
	}
	assert.True(t, logged, "expected panic detail in the log ring")
}

func TestNewFiberApp_HandlerErrorBecomesGeneric500(t *testing.T) {
	ring := weblog.New(weblog.DefaultCapacity)
	app := newFiberApp(ring)
	app.Get("/fail", func(c *fiber.Ctx) error {
		return assert.AnError
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "internal server error", out["error"])
	assert.NotEmpty(t, out["requestId"])
}

func TestNewFiberApp_NotFoundKeepsStatusCode(t *testing.T) {
	ring := weblog.New(weblog.DefaultCapacity)
	app := newFiberApp(ring)

	resp, err := app.Test(httptest.NewRequest("GET", "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
