package middleware

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradx-api/internal/utils"
)

// Config customises the middleware registration pipeline.
type Config struct {
	Logger       *zerolog.Logger
	AccessLog    bool
	AllowOrigins string
}

// Register attaches the middlewares every GradX request passes through.
func Register(app *fiber.App, cfg Config) {
	base := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		base = *cfg.Logger
	}
	origins := cfg.AllowOrigins
	if origins == "" {
		origins = "*"
	}

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			base.Error().
				Str("correlation_id", GetCorrelationID(c)).
				Str("path", c.Path()).
				Str("panic", fmt.Sprint(e)).
				Msg("request panicked")
		},
	}))
	app.Use(CorrelationID())
	app.Use(Observability(base))
	if cfg.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, " + CorrelationHeader,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: CorrelationHeader,
	}))
}

// ErrorHandler renders errors that escape handlers (unmatched routes, body limit, panics)
// in the GradX envelope instead of fiber's plain-text default.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			message = fiberErr.Message
		}
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Str("path", c.Path()).Msg("unhandled request error")
		}

		return utils.SendError(c, status, message)
	}
}
