package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit creates a per-caller rate limiter middleware instance. Keys are
// derived from the authenticated identity when present, falling back to the
// client IP for anonymous endpoints such as login.
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
			if id, ok := IdentityFromCtx(c); ok {
				return fmt.Sprintf("%s:%d", identifier, id.ID)
			}
			return fmt.Sprintf("%s:%s", identifier, c.IP())
		},
	})
}
