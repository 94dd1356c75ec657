package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradx-api/internal/dto"
	"github.com/noah-isme/gradx-api/internal/service"
	"github.com/noah-isme/gradx-api/internal/utils"
)

// LessonPlanHandler serves lesson plan generation and export.
type LessonPlanHandler struct {
	service   service.LessonPlanService
	exporter  service.LessonPlanExporter
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewLessonPlanHandler constructs the handler.
func NewLessonPlanHandler(service service.LessonPlanService, exporter service.LessonPlanExporter, validator *validator.Validate, logger zerolog.Logger) *LessonPlanHandler {
	return &LessonPlanHandler{
		service:   service,
		exporter:  exporter,
		validator: validator,
		logger:    logger.With().Str("component", "lesson_plan_handler").Logger(),
	}
}

// Register binds lesson plan routes. generate carries middleware applied to plan generation.
func (h *LessonPlanHandler) Register(router fiber.Router, generate ...fiber.Handler) {
	router.Post("", append(generate, h.generate)...)
	router.Post("/export", h.export)
}

func (h *LessonPlanHandler) generate(c *fiber.Ctx) error {
	var payload dto.LessonPlanRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return sendServiceError(c, h.logger, err)
	}

	plan, err := h.service.Generate(requestContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson plan generated", dto.NewLessonPlanResponse(plan))
}

func (h *LessonPlanHandler) export(c *fiber.Ctx) error {
	var payload dto.LessonPlanExportRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return sendServiceError(c, h.logger, err)
	}

	exported, err := h.exporter.Export(payload)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "lesson plan exported", exported)
}
