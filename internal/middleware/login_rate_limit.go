package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const signInWindow = time.Minute

// SignInRateLimit limits sign-in attempts per email, or per IP when the body
// carries none, using a one-minute Redis counter.
func SignInRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Email string `json:"email" form:"email"`
		}
		_ = c.BodyParser(&req)
		subject := strings.ToLower(strings.TrimSpace(req.Email))
		if subject == "" {
			subject = c.IP()
		}
		key := "rl:signin:" + subject
		// EXPIRE NX runs on every attempt so a counter that lost its TTL
		// still expires.
		var incr *redis.IntCmd
		_, err := cache.TxPipelined(c.UserContext(), func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(c.UserContext(), key)
			pipe.ExpireNX(c.UserContext(), key, signInWindow)
			return nil
		})
		if err != nil {
			logger.Warn("sign-in rate limit unavailable", slog.Any("error", err))
			return c.Next()
		}
		cnt := incr.Val()
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "Too many sign-in attempts. Please try again in a minute.")
		}
		return c.Next()
	}
}
