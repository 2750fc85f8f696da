package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/pipeline"
	"github.com/competitive-radar/backend/pkg/logger"
)

type WebSocketHandler struct {
	service DigestService
}

func NewWebSocketHandler(service DigestService) *WebSocketHandler {
	return &WebSocketHandler{service: service}
}

// RequireUpgrade rejects plain HTTP requests on websocket routes.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleConnection runs the pipeline for every {"type":"run"} message and
// streams stage progress back before the final digest.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type    string `json:"type"`
			Persona string `json:"persona"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "run" {
			continue
		}

		logger.Info("Processing WebSocket run", zap.String("persona", msg.Persona))

		if err := h.streamRun(c, msg.Persona); err != nil {
			logger.Error("Failed to stream run", zap.Error(err))
			h.sendError(c, "Failed to run pipeline")
		}
	}
}

func (h *WebSocketHandler) streamRun(c *websocket.Conn, persona string) error {
	var writeErr error
	progress := func(ev pipeline.StageEvent) {
		if writeErr != nil {
			return
		}
		writeErr = c.WriteJSON(progressMessage(ev))
	}

	digest, err := h.service.RunFromSource(context.Background(), pipeline.RunOptions{
		Persona:  persona,
		Progress: progress,
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}

	return c.WriteJSON(map[string]interface{}{
		"type":       "complete",
		"id":         digest.ID,
		"mode":       digest.Mode,
		"content":    digest.Content,
		"latency_ms": digest.LatencyMS,
	})
}

func progressMessage(ev pipeline.StageEvent) map[string]interface{} {
	msg := map[string]interface{}{
		"type":   "progress",
		"stage":  ev.Stage,
		"status": ev.Status,
		"count":  ev.Count,
	}
	if ev.Message != "" {
		msg["message"] = ev.Message
	}
	return msg
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}

	c.WriteJSON(msg)
}
