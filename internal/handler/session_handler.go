package handler

import (
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradx-api/internal/dto"
	"github.com/noah-isme/gradx-api/internal/models"
	"github.com/noah-isme/gradx-api/internal/service"
	"github.com/noah-isme/gradx-api/internal/utils"
)

// SessionHandler exposes the grading session workflow.
type SessionHandler struct {
	session   service.GradingSession
	validator *validator.Validate
	maxBytes  int64
	logger    zerolog.Logger
}

// NewSessionHandler constructs a session handler accepting uploads up to maxUploadMB.
func NewSessionHandler(session service.GradingSession, validator *validator.Validate, maxUploadMB int, logger zerolog.Logger) *SessionHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &SessionHandler{
		session:   session,
		validator: validator,
		maxBytes:  int64(maxUploadMB) * 1024 * 1024,
		logger:    logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register binds the session routes. grading carries middleware applied to grading calls.
func (h *SessionHandler) Register(router fiber.Router, grading ...fiber.Handler) {
	router.Get("", h.snapshot)
	router.Put("/test-name", h.setTestName)
	router.Put("/rubric", h.setRubric)
	router.Put("/artifacts/:slot", h.setArtifact)
	router.Delete("/artifacts/:slot", h.clearArtifact)
	router.Post("/grade", append(grading, h.grade)...)
	router.Post("/redo", append(grading, h.redo)...)
	router.Post("/accept", h.accept)
	router.Post("/submit", h.submit)
	router.Post("/reset", h.reset)
	router.Post("/history/:id/load", h.loadHistory)
}

func (h *SessionHandler) snapshot(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "session", dto.NewSessionResponse(h.session.Snapshot()))
}

func (h *SessionHandler) setTestName(c *fiber.Ctx) error {
	var payload dto.TestNameRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return sendServiceError(c, h.logger, err)
	}
	if err := h.session.SetTestName(payload.TestName); err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return h.snapshot(c)
}

func (h *SessionHandler) setRubric(c *fiber.Ctx) error {
	var payload dto.RubricRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return sendServiceError(c, h.logger, err)
	}
	if payload.Mode != nil {
		if err := h.session.SetRubricMode(models.RubricMode(*payload.Mode)); err != nil {
			return sendServiceError(c, h.logger, err)
		}
	}
	if payload.Text != nil {
		if err := h.session.SetRubricText(*payload.Text); err != nil {
			return sendServiceError(c, h.logger, err)
		}
	}
	return h.snapshot(c)
}

func (h *SessionHandler) setArtifact(c *fiber.Ctx) error {
	slot := models.ArtifactSlot(c.Params("slot"))

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	if file.Size > h.maxBytes {
		return sendServiceError(c, h.logger, service.ErrArtifactTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read file")
	}
	defer handle.Close()

	data, err := io.ReadAll(io.LimitReader(handle, h.maxBytes+1))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read file")
	}

	artifact, err := h.session.SetArtifact(slot, service.RawFile{
		Name:         file.Filename,
		DeclaredType: file.Header.Get(fiber.HeaderContentType),
		Data:         data,
	})
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().Str("slot", string(slot)).Int64("size_bytes", artifact.SizeBytes).Msg("artifact stored")
	return h.snapshot(c)
}

func (h *SessionHandler) clearArtifact(c *fiber.Ctx) error {
	if err := h.session.ClearArtifact(models.ArtifactSlot(c.Params("slot"))); err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return h.snapshot(c)
}

func (h *SessionHandler) grade(c *fiber.Ctx) error {
	if _, err := h.session.StartGrading(requestContext(c)); err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grading complete", dto.NewSessionResponse(h.session.Snapshot()))
}

func (h *SessionHandler) redo(c *fiber.Ctx) error {
	if _, err := h.session.RedoEvaluation(requestContext(c)); err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grading complete", dto.NewSessionResponse(h.session.Snapshot()))
}

func (h *SessionHandler) accept(c *fiber.Ctx) error {
	var payload dto.AcceptGradeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
		if err := h.validator.Struct(payload); err != nil {
			return sendServiceError(c, h.logger, err)
		}
	}

	if _, err := h.session.AcceptGrade(requestContext(c), payload.StudentName); err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grade accepted", dto.NewSessionResponse(h.session.Snapshot()))
}

func (h *SessionHandler) submit(c *fiber.Ctx) error {
	if _, err := h.session.SubmitGrade(requestContext(c)); err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grade submitted", dto.NewSessionResponse(h.session.Snapshot()))
}

func (h *SessionHandler) reset(c *fiber.Ctx) error {
	h.session.Reset()
	return utils.SendSuccess(c, "session reset", dto.NewSessionResponse(h.session.Snapshot()))
}

func (h *SessionHandler) loadHistory(c *fiber.Ctx) error {
	if _, err := h.session.LoadFromHistory(c.Params("id")); err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "history loaded", dto.NewSessionResponse(h.session.Snapshot()))
}
