package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/gradx-api/internal/utils"
)

// RateLimit caps model-backed calls (grading, chat, lesson plans) per client IP.
// Every handler sharing one returned limiter draws from the same budget.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return fmt.Sprintf("%s:%s", identifier, c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			retryAfter, _ := strconv.Atoi(string(c.Response().Header.Peek(fiber.HeaderRetryAfter)))
			return utils.SendErrorDetails(c, fiber.StatusTooManyRequests, utils.CodeRateLimited,
				"too many model requests, try again shortly",
				fiber.Map{"limit": max, "retry_after_seconds": retryAfter},
			)
		},
	})
}
