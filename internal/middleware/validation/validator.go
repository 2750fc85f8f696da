package validation

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var xssPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)

type Config struct {
	MaxMessageLength     int
	MaxDescriptionLength int
	AllowedContentTypes  []string
	Logger               *zap.Logger
}

// textField names a free-text request field checked on a route.
type textField struct {
	name   string
	maxLen int
}

// Middleware checks content type on writes, and the length and content of
// the free-text fields of the chat and discovery endpoints. Presence of the
// fields is left to the handlers.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = 1000
	}
	if cfg.MaxDescriptionLength == 0 {
		cfg.MaxDescriptionLength = 2000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	routes := map[string][]textField{
		"/api/chat":                 {{name: "message", maxLen: cfg.MaxMessageLength}},
		"/api/competitors/discover": {{name: "description", maxLen: cfg.MaxDescriptionLength}, {name: "startup_type", maxLen: 64}},
		"/api/digest/personalized":  {{name: "description", maxLen: cfg.MaxDescriptionLength}},
		"/api/run":                  {{name: "persona", maxLen: 200}},
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		if contentType := c.Get(fiber.HeaderContentType); contentType != "" && !allowed(contentType, cfg.AllowedContentTypes) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		fields, ok := routes[strings.TrimRight(c.Path(), "/")]
		body := c.Body()
		if !ok || len(body) == 0 {
			return c.Next()
		}

		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		for _, field := range fields {
			raw, present := req[field.name]
			if !present || raw == nil {
				continue
			}
			value, isString := raw.(string)
			if !isString {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": field.name + " must be a string",
				})
			}
			if utf8.RuneCountInString(value) > field.maxLen {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": field.name + " exceeds maximum length",
				})
			}
			if xssPattern.MatchString(value) {
				cfg.Logger.Warn("Potential XSS attempt",
					zap.String("ip", c.IP()),
					zap.String("path", c.Path()),
					zap.String("field", field.name),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid " + field.name + " content",
				})
			}
		}

		return c.Next()
	}
}

func allowed(contentType string, types []string) bool {
	for _, t := range types {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}
