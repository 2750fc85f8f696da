package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/competitive-radar/backend/pkg/logger"
)

type ChatResponder interface {
	Answer(ctx context.Context, message string) (string, string)
}

type ChatHandler struct {
	responder ChatResponder
}

func NewChatHandler(responder ChatResponder) *ChatHandler {
	return &ChatHandler{responder: responder}
}

// HandleChat answers a landing-page visitor. Error replies keep the
// "response" key so the chat widget can show them inline.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Warn("Failed to parse chat request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"response": "Invalid request format. Please try again!",
		})
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"response": "Please ask me a question!",
		})
	}

	answer, source := h.responder.Answer(c.Context(), message)
	return c.JSON(fiber.Map{
		"response": answer,
		"source":   source,
	})
}
