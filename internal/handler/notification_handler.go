package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradx-api/internal/dto"
	"github.com/noah-isme/gradx-api/internal/service"
	"github.com/noah-isme/gradx-api/internal/utils"
)

// NotificationHandler exposes the transient notification and its SSE stream.
type NotificationHandler struct {
	queue     service.NotificationQueue
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(queue service.NotificationQueue, logger zerolog.Logger, keepAlive time.Duration) *NotificationHandler {
	return &NotificationHandler{
		queue:     queue,
		logger:    logger.With().Str("component", "notification_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/current", h.current)
	router.Get("/stream", h.stream)
}

func (h *NotificationHandler) current(c *fiber.Ctx) error {
	notification, ok := h.queue.Current()
	if !ok {
		return utils.SendSuccess(c, "no notification", nil)
	}
	return utils.SendSuccess(c, "notification", dto.NewNotificationResponse(notification))
}

func (h *NotificationHandler) stream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))
	stream, cleanup := h.queue.Subscribe()
	pending, visible := h.queue.Current()

	keepAliveInterval := h.keepAlive
	if keepAliveInterval <= 0 {
		keepAliveInterval = 30 * time.Second
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		if visible {
			if err := writeNotificationEvent(w, toEventResponse(service.NotificationEvent{Type: service.NotificationShown, Notification: pending})); err != nil {
				h.logger.Debug().Err(err).Msg("failed to write notification event")
				return
			}
		}

		ticker := time.NewTicker(keepAliveInterval / 2)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-stream:
				if !ok {
					return
				}
				if err := writeNotificationEvent(w, toEventResponse(event)); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write notification event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write notification keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func toEventResponse(event service.NotificationEvent) dto.NotificationEventResponse {
	return dto.NotificationEventResponse{
		Type:         string(event.Type),
		Notification: dto.NewNotificationResponse(event.Notification),
	}
}

func writeNotificationEvent(w *bufio.Writer, event dto.NotificationEventResponse) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: notification\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
