package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradx-api/internal/middleware"
	"github.com/noah-isme/gradx-api/internal/service"
	"github.com/noah-isme/gradx-api/internal/utils"
)

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
	}
	return details
}

// sendServiceError maps service sentinels to HTTP responses. Unexpected errors are logged and
// reported without their text.
func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendValidationError(c, "invalid payload", validationDetails(err))
	case errors.Is(err, service.ErrArtifactTooLarge):
		return utils.SendErrorCode(c, fiber.StatusRequestEntityTooLarge, "artifact_too_large", err.Error())
	case errors.Is(err, service.ErrUnsupportedFormat):
		return utils.SendErrorCode(c, fiber.StatusUnsupportedMediaType, "unsupported_format", err.Error())
	case errors.Is(err, service.ErrArtifactEmpty):
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "artifact_empty", err.Error())
	case errors.Is(err, service.ErrUnknownSlot):
		return utils.SendErrorCode(c, fiber.StatusNotFound, "unknown_slot", err.Error())
	case service.IsValidationError(err):
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, service.ErrEmptyMessage):
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "empty_message", err.Error())
	case errors.Is(err, service.ErrUnknownExportFormat):
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "unknown_format", err.Error())
	case errors.Is(err, service.ErrHistoryItemNotFound):
		return utils.SendErrorCode(c, fiber.StatusNotFound, "history_not_found", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendErrorCode(c, fiber.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, service.ErrSessionNotReady):
		return utils.SendErrorCode(c, fiber.StatusConflict, "session_not_ready", err.Error())
	case errors.Is(err, service.ErrStaleGrading):
		return utils.SendErrorCode(c, fiber.StatusConflict, "stale_grading", err.Error())
	case errors.Is(err, service.ErrStaleChat):
		return utils.SendErrorCode(c, fiber.StatusConflict, "stale_chat", err.Error())
	case errors.Is(err, service.ErrNoActiveResult):
		return utils.SendErrorCode(c, fiber.StatusConflict, "no_active_result", err.Error())
	case errors.Is(err, service.ErrGradingFailed):
		return utils.SendErrorCode(c, fiber.StatusBadGateway, "grading_failed", service.GradingFailureMessage)
	case errors.Is(err, service.ErrChatTurnFailed):
		return utils.SendErrorCode(c, fiber.StatusBadGateway, "chat_failed", "The assistant could not answer. Please try again.")
	case errors.Is(err, service.ErrLessonPlanFailed):
		return utils.SendErrorCode(c, fiber.StatusBadGateway, "lesson_plan_failed", err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Msg("unexpected service error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
