package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gradx-api/internal/dto"
	"github.com/noah-isme/gradx-api/internal/models"
	"github.com/noah-isme/gradx-api/internal/observability"
	"github.com/noah-isme/gradx-api/pkg/ai"
)

const (
	DefaultLessonGrade    = "5th Grade"
	DefaultLessonLanguage = "English"
	DefaultLessonContext  = "Urban School"
	// DefaultLessonPlanTimeout bounds plan generation.
	DefaultLessonPlanTimeout = 90 * time.Second
)

// LessonPlanService generates lesson plans.
type LessonPlanService interface {
	Generate(ctx context.Context, req dto.LessonPlanRequest) (models.LessonPlan, error)
}

type lessonPlanService struct {
	planner   ai.Planner
	validator *validator.Validate
	timeout   time.Duration
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewLessonPlanService constructs a lesson plan service backed by planner.
func NewLessonPlanService(planner ai.Planner, validate *validator.Validate, timeout time.Duration, logger zerolog.Logger) LessonPlanService {
	if timeout <= 0 {
		timeout = DefaultLessonPlanTimeout
	}
	return &lessonPlanService{
		planner:   planner,
		validator: validate,
		timeout:   timeout,
		logger:    logger.With().Str("component", "lesson_plan_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gradx-api/internal/service/lesson_plan"),
		now:       time.Now,
	}
}

func (s *lessonPlanService) Generate(ctx context.Context, req dto.LessonPlanRequest) (models.LessonPlan, error) {
	req = withLessonDefaults(req)
	if err := s.validator.Struct(req); err != nil {
		return models.LessonPlan{}, err
	}

	ctx, span := s.tracer.Start(ctx, "lesson_plans.generate", trace.WithAttributes(
		attribute.String("lesson.grade", req.Grade),
		attribute.String("lesson.language", req.Language),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.planner.GeneratePlan(callCtx, ai.PlanRequest{
		Topic:    req.Topic,
		Grade:    req.Grade,
		Language: req.Language,
		Context:  req.Context,
	})
	if err == nil && strings.TrimSpace(content) == "" {
		err = ai.ErrUnusableResponse
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		observability.LessonPlans().WithLabelValues("failure").Inc()
		s.logger.Error().Err(err).Str("topic", req.Topic).Msg("lesson plan generation failed")
		return models.LessonPlan{}, ErrLessonPlanFailed
	}

	observability.LessonPlans().WithLabelValues("success").Inc()
	return models.LessonPlan{
		Topic:       req.Topic,
		Grade:       req.Grade,
		Language:    req.Language,
		Context:     req.Context,
		Content:     strings.TrimSpace(content),
		GeneratedAt: s.now().UTC(),
	}, nil
}

func withLessonDefaults(req dto.LessonPlanRequest) dto.LessonPlanRequest {
	req.Topic = strings.TrimSpace(req.Topic)
	req.Grade = defaultString(req.Grade, DefaultLessonGrade)
	req.Language = defaultString(req.Language, DefaultLessonLanguage)
	req.Context = defaultString(req.Context, DefaultLessonContext)
	return req
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
