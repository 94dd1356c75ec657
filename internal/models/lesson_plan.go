package models

import "time"

// LessonPlan is a generated plan together with the inputs that produced it.
type LessonPlan struct {
	Topic       string    `json:"topic"`
	Grade       string    `json:"grade"`
	Language    string    `json:"language"`
	Context     string    `json:"context"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}
