package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/api/render"
	"github.com/competitive-radar/backend/internal/engagement"
	"github.com/competitive-radar/backend/internal/pipeline"
	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// DigestService is the part of the pipeline orchestrator the web layer uses.
type DigestService interface {
	Latest(ctx context.Context, persona string) (*models.Digest, error)
	RunFromSource(ctx context.Context, opts pipeline.RunOptions) (*models.Digest, error)
	RunCounts(ctx context.Context) (map[models.DigestMode]int64, error)
	Persona() string
	Mode() models.DigestMode
}

type RunHistory interface {
	ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	CompetitorCounts(ctx context.Context) (map[string]int, error)
}

type DigestHandler struct {
	service    DigestService
	history    RunHistory
	renderer   *render.Renderer
	engagement *engagement.Simulator
}

// NewDigestHandler wires the digest endpoints. history may be nil when run
// history is disabled.
func NewDigestHandler(service DigestService, history RunHistory, renderer *render.Renderer, sim *engagement.Simulator) *DigestHandler {
	if sim == nil {
		sim = engagement.Default()
	}
	return &DigestHandler{
		service:    service,
		history:    history,
		renderer:   renderer,
		engagement: sim,
	}
}

func (h *DigestHandler) Landing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":      "CompetitiveRadar",
		"tagline":   "Competitor tracking turned into a 30-second weekly digest",
		"persona":   h.service.Persona(),
		"mode":      h.service.Mode(),
		"demo_mode": h.service.Mode() == models.ModeOffline,
		"endpoints": []string{
			"GET /digest",
			"GET /api/digest",
			"POST /api/run",
			"GET /ws/run",
			"GET /api/onboarding/startup-types",
			"POST /api/competitors/discover",
			"POST /api/digest/personalized",
			"POST /api/chat",
			"GET /api/runs",
			"GET /api/runs/:id",
		},
	})
}

// DigestPage serves the latest digest as an HTML page.
func (h *DigestHandler) DigestPage(c *fiber.Ctx) error {
	digest, err := h.service.Latest(c.Context(), c.Query("persona"))
	if err != nil {
		logger.Error("Failed to get digest", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate digest",
		})
	}

	page, err := h.renderer.DigestPage(digest.Content, string(digest.Mode), false)
	if err != nil {
		logger.Error("Failed to render digest page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render digest",
		})
	}

	c.Type("html", "utf-8")
	return c.Send(page)
}

func (h *DigestHandler) GetDigest(c *fiber.Ctx) error {
	digest, err := h.service.Latest(c.Context(), c.Query("persona"))
	if err != nil {
		logger.Error("Failed to get digest", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate digest",
		})
	}

	return c.JSON(h.digestPayload(digest))
}

// RunDigest forces a fresh pipeline run.
func (h *DigestHandler) RunDigest(c *fiber.Ctx) error {
	var req struct {
		Persona string `json:"persona"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	digest, err := h.service.RunFromSource(c.Context(), pipeline.RunOptions{Persona: req.Persona})
	if err != nil {
		logger.Error("Pipeline run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to run pipeline",
		})
	}

	payload := h.digestPayload(digest)
	payload["top"] = digest.Top
	payload["latency_ms"] = digest.LatencyMS
	return c.JSON(payload)
}

func (h *DigestHandler) ListRuns(c *fiber.Ctx) error {
	if h.history == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Run history is disabled",
		})
	}

	limit := c.QueryInt("limit", defaultRunsLimit)
	if limit <= 0 || limit > maxRunsLimit {
		limit = defaultRunsLimit
	}

	runs, err := h.history.ListRuns(c.Context(), limit)
	if err != nil {
		logger.Error("Failed to list runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list runs",
		})
	}

	counts, err := h.history.CompetitorCounts(c.Context())
	if err != nil {
		logger.Error("Failed to count competitors", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list runs",
		})
	}

	// counts are informational; the run list is served without them
	modeCounts, err := h.service.RunCounts(c.Context())
	if err != nil {
		logger.Warn("Failed to read run counters", zap.Error(err))
	}

	if runs == nil {
		runs = []models.RunRecord{}
	}
	return c.JSON(fiber.Map{
		"runs":        runs,
		"competitors": counts,
		"mode_counts": modeCounts,
	})
}

// GetRun returns one stored run with its digest.
func (h *DigestHandler) GetRun(c *fiber.Ctx) error {
	if h.history == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Run history is disabled",
		})
	}

	run, err := h.history.GetRun(c.Context(), c.Params("id"))
	if errors.Is(err, models.ErrRunNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Run not found",
		})
	}
	if err != nil {
		logger.Error("Failed to get run", zap.String("run_id", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get run",
		})
	}

	return c.JSON(run)
}

func (h *DigestHandler) digestPayload(digest *models.Digest) fiber.Map {
	generated := digest.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	return fiber.Map{
		"id":        digest.ID,
		"digest":    digest.Content,
		"metrics":   h.engagement.Next(),
		"mode":      digest.Mode,
		"demo_mode": h.service.Mode() == models.ModeOffline,
		"timestamp": generated.Format(time.RFC3339),
	}
}
