package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maestro-api/internal/config"
	"github.com/noah-isme/maestro-api/internal/handler"
)

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Maestro API", resp.Header.Get("X-Application"))

	var payload envelope[handler.HealthResponse]
	decodeResponse(t, resp, &payload)
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, "Maestro API", payload.Data.Service)
	assert.Equal(t, "test", payload.Data.Environment)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
	assert.Equal(t, []handler.ComponentHealth{
		{Name: "postgres", Status: handler.ComponentUp},
		{Name: "redis", Status: handler.ComponentUp},
		{Name: "nats", Status: handler.ComponentDisabled},
	}, payload.Data.Components)
}

func TestHealthCheckReportsDependencyOutages(t *testing.T) {
	cfg := config.Config{AppName: "Maestro API", AppEnv: "test"}
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name    string
		checks  []handler.DependencyCheck
		status  int
		overall string
	}{
		{
			name: "optional cache down",
			checks: []handler.DependencyCheck{
				{Name: "postgres", Required: true, Check: up},
				{Name: "redis", Check: down},
			},
			status:  fiber.StatusOK,
			overall: "degraded",
		},
		{
			name: "schedule store down",
			checks: []handler.DependencyCheck{
				{Name: "postgres", Required: true, Check: down},
				{Name: "redis", Check: up},
			},
			status:  fiber.StatusServiceUnavailable,
			overall: "unavailable",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", handler.HealthCheck(cfg, tc.checks...))

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var payload struct {
				Success bool                   `json:"success"`
				Code    string                 `json:"code"`
				Data    handler.HealthResponse `json:"data"`
			}
			decodeResponse(t, resp, &payload)
			assert.Equal(t, tc.status == fiber.StatusOK, payload.Success)
			assert.Equal(t, tc.overall, payload.Data.Status)
			require.Len(t, payload.Data.Components, 2)

			for _, component := range payload.Data.Components {
				if component.Status == handler.ComponentDown {
					assert.Equal(t, "connection refused", component.Error)
				}
			}
			if tc.status == fiber.StatusServiceUnavailable {
				assert.Equal(t, "dependency_unavailable", payload.Code)
			}
		})
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/metrics", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
