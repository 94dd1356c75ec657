package handler

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradx-api/internal/dto"
	"github.com/noah-isme/gradx-api/internal/middleware"
	"github.com/noah-isme/gradx-api/internal/service"
	"github.com/noah-isme/gradx-api/internal/utils"
)

const (
	chatFrameMessage = "message"
	chatFrameReply   = "reply"
	chatFrameError   = "error"
)

// ChatHandler wires the refinement chat endpoints including the websocket upgrade.
type ChatHandler struct {
	session   service.GradingSession
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(session service.GradingSession, validator *validator.Validate, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		session:   session,
		validator: validator,
		logger:    logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group. send carries middleware applied
// to message submission.
func (h *ChatHandler) Register(router fiber.Router, send ...fiber.Handler) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
	router.Get("", h.thread)
	router.Post("", append(send, h.send)...)
}

func (h *ChatHandler) thread(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "chat thread", dto.NewChatMessageResponseSlice(h.session.Thread()))
}

func (h *ChatHandler) send(c *fiber.Ctx) error {
	var payload dto.ChatSendRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return sendServiceError(c, h.logger, err)
	}

	reply, err := h.session.SendMessage(requestContext(c), payload.Text)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "chat reply", dto.NewChatMessageResponse(reply))
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	ctx, _ := conn.Locals("request_ctx").(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	logger := h.logger.With().Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).Logger()

	logger.Info().Msg("chat websocket connected")
	defer logger.Info().Msg("chat websocket disconnected")

	for {
		var frame dto.ChatSocketFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(err).Msg("chat websocket read failed")
			}
			return
		}

		if frame.Type != chatFrameMessage {
			if err := conn.WriteJSON(dto.ChatSocketFrame{Type: chatFrameError, Error: "unsupported frame type"}); err != nil {
				return
			}
			continue
		}

		response := h.reply(ctx, frame.Text)
		if err := conn.WriteJSON(response); err != nil {
			logger.Debug().Err(err).Msg("chat websocket write failed")
			return
		}
	}
}

func (h *ChatHandler) reply(ctx context.Context, text string) dto.ChatSocketFrame {
	text = strings.TrimSpace(text)
	if text == "" {
		return dto.ChatSocketFrame{Type: chatFrameError, Error: service.ErrEmptyMessage.Error()}
	}
	if err := h.validator.Struct(dto.ChatSendRequest{Text: text}); err != nil {
		return dto.ChatSocketFrame{Type: chatFrameError, Error: "message is too long"}
	}

	message, err := h.session.SendMessage(ctx, text)
	if err != nil {
		return dto.ChatSocketFrame{Type: chatFrameError, Error: socketErrorText(err)}
	}

	response := dto.NewChatMessageResponse(message)
	return dto.ChatSocketFrame{Type: chatFrameReply, Message: &response}
}

func socketErrorText(err error) string {
	switch {
	case service.IsValidationError(err),
		errorIsAny(err, service.ErrEmptyMessage, service.ErrNoActiveResult, service.ErrStaleChat):
		return err.Error()
	default:
		return "The assistant could not answer. Please try again."
	}
}
