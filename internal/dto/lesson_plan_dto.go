package dto

import (
	"time"

	"github.com/noah-isme/gradx-api/internal/models"
)

// LessonPlanRequest describes the plan to generate. Blank optional fields take defaults.
type LessonPlanRequest struct {
	Topic    string `json:"topic" validate:"required,max=300"`
	Grade    string `json:"grade" validate:"max=100"`
	Language string `json:"language" validate:"max=100"`
	Context  string `json:"context" validate:"max=200"`
}

// LessonPlanResponse is a generated plan.
type LessonPlanResponse struct {
	Topic       string    `json:"topic"`
	Grade       string    `json:"grade"`
	Language    string    `json:"language"`
	Context     string    `json:"context"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewLessonPlanResponse converts a lesson plan model to DTO.
func NewLessonPlanResponse(plan models.LessonPlan) LessonPlanResponse {
	return LessonPlanResponse{
		Topic:       plan.Topic,
		Grade:       plan.Grade,
		Language:    plan.Language,
		Context:     plan.Context,
		Content:     plan.Content,
		GeneratedAt: plan.GeneratedAt,
	}
}

// LessonPlanExportRequest asks for a plan rendered for sharing.
type LessonPlanExportRequest struct {
	Format  string `json:"format" validate:"required,oneof=text email html"`
	Topic   string `json:"topic" validate:"required,max=300"`
	Grade   string `json:"grade" validate:"max=100"`
	Content string `json:"content" validate:"required"`
}

// LessonPlanExportResponse carries the exported representation.
type LessonPlanExportResponse struct {
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}
