package ratelimit

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

type Config struct {
	MaxRequestsPerMinute int
	WindowDuration       time.Duration
	// Storage shares counters between instances; nil keeps them in memory.
	Storage fiber.Storage
	Logger  *zap.Logger
}

// New limits requests per client key, the X-User-ID header when present
// and the client IP otherwise. Health and metrics checks are not limited.
func New(cfg Config) fiber.Handler {
	if cfg.MaxRequestsPerMinute == 0 {
		cfg.MaxRequestsPerMinute = 60
	}
	if cfg.WindowDuration == 0 {
		cfg.WindowDuration = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return limiter.New(limiter.Config{
		Max:          cfg.MaxRequestsPerMinute,
		Expiration:   cfg.WindowDuration,
		Storage:      cfg.Storage,
		KeyGenerator: clientKey,
		Next: func(c *fiber.Ctx) bool {
			path := c.Path()
			return path == "/health" || path == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			cfg.Logger.Warn("Rate limit exceeded",
				zap.String("key", clientKey(c)),
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	})
}

func clientKey(c *fiber.Ctx) string {
	if userID := c.Get("X-User-ID"); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.IP()
}
