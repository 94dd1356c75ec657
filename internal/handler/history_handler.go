package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gradx-api/internal/dto"
	"github.com/noah-isme/gradx-api/internal/service"
	"github.com/noah-isme/gradx-api/internal/utils"
)

// HistoryHandler lists the local grading history.
type HistoryHandler struct {
	session service.GradingSession
}

// NewHistoryHandler constructs a history handler.
func NewHistoryHandler(session service.GradingSession) *HistoryHandler {
	return &HistoryHandler{session: session}
}

// Register binds the history routes.
func (h *HistoryHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *HistoryHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "history", dto.NewHistoryItemResponseSlice(h.session.History()))
}
