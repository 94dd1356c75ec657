package router_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradx-api/internal/config"
	"github.com/noah-isme/gradx-api/internal/router"
	"github.com/noah-isme/gradx-api/internal/utils"
)

func TestRegisterHealthAndMetrics(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "GradX API", AppEnv: "test", StorageDriver: "sqlite", AIProvider: "gemini", RateLimitPerMinute: 5}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "GradX API", resp.Header.Get("X-Application"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope utils.APIResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.True(t, envelope.Success)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
