package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradx-api/internal/dto"
)

func TestNotificationHandlerCurrent(t *testing.T) {
	server := newTestServer(t, serverOptions{})

	resp, envelope := server.do(t, http.MethodGet, "/api/v1/notifications/current", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "no notification", envelope.Message)
	require.Nil(t, envelope.Data)

	server.prepareForGrading(t)
	resp, _ = server.do(t, http.MethodPost, "/api/v1/session/grade", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = server.do(t, http.MethodPost, "/api/v1/session/accept", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, envelope = server.do(t, http.MethodGet, "/api/v1/notifications/current", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var notification dto.NotificationResponse
	dataAs(t, envelope, &notification)
	require.Equal(t, "accepted", notification.Kind)
	require.Equal(t, "Grade Accepted", notification.Title)
	require.Equal(t, "Student identified as Rohan Sharma.", notification.Message)

	resp, _ = server.do(t, http.MethodPost, "/api/v1/session/submit", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, envelope = server.do(t, http.MethodGet, "/api/v1/notifications/current", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	notification = dto.NotificationResponse{}
	dataAs(t, envelope, &notification)
	require.Equal(t, "submitted", notification.Kind)
	require.Equal(t, "Grade Submitted", notification.Title)
}
