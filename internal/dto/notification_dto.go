package dto

import (
	"time"

	"github.com/noah-isme/gradx-api/internal/models"
)

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		Kind:      string(model.Kind),
		Title:     model.Title,
		Message:   model.Message,
		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}
}

// NotificationEventResponse is pushed to stream subscribers when a notification appears or expires.
type NotificationEventResponse struct {
	Type         string               `json:"type"`
	Notification NotificationResponse `json:"notification"`
}
