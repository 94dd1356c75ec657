package models

import "time"

// NotificationKind enumerates the transient acknowledgements a session can raise.
type NotificationKind string

const (
	NotificationAccepted  NotificationKind = "accepted"
	NotificationSubmitted NotificationKind = "submitted"
)

// Notification is a short-lived acknowledgement shown after a session action.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}
