package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHealthHandler_Ready(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := NewHealthHandler("svc", "1.0.0", map[string]Probe{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp 10.0.0.7:6379: connection refused") },
	}, nil, zap.New(core))

	app := fiber.New()
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Detail string `json:"detail"`
		Error  struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", body.Error.Code)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "unavailable"}, body.Error.Details)

	entries := logs.FilterField(zap.String("dependency", "redis")).All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "connection refused")
}

func TestHealthHandler_ReadyWithoutProbes(t *testing.T) {
	app := fiber.New()
	app.Get("/health/ready", NewHealthHandler("svc", "1.0.0", nil, nil, nil).Ready)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
