package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gradx-api/internal/config"
	"github.com/noah-isme/gradx-api/internal/handler"
	"github.com/noah-isme/gradx-api/internal/middleware"
	"github.com/noah-isme/gradx-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SessionHandler      *handler.SessionHandler
	HistoryHandler      *handler.HistoryHandler
	ChatHandler         *handler.ChatHandler
	NotificationHandler *handler.NotificationHandler
	LessonPlanHandler   *handler.LessonPlanHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Model-backed calls share one budget per client.
	modelLimiter := middleware.RateLimit("model", cfg.RateLimitPerMinute, time.Minute)

	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(api.Group("/session"), modelLimiter)
	}

	if deps.ChatHandler != nil {
		deps.ChatHandler.Register(api.Group("/session/chat"), modelLimiter)
	}

	if deps.HistoryHandler != nil {
		deps.HistoryHandler.Register(api.Group("/history"))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications"))
	}

	if deps.LessonPlanHandler != nil {
		deps.LessonPlanHandler.Register(api.Group("/lesson-plans"), modelLimiter)
	}
}
