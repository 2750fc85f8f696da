package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/competitive-radar/backend/internal/agents/summarize"
	"github.com/competitive-radar/backend/internal/api/render"
	"github.com/competitive-radar/backend/internal/onboarding"
	"github.com/competitive-radar/backend/internal/storage/models"
)

type CompetitorDiscoverer interface {
	Discover(ctx context.Context, startupType, description string) ([]models.Competitor, string)
}

type OnboardingHandler struct {
	discoverer CompetitorDiscoverer
	renderer   *render.Renderer
	now        func() time.Time
}

func NewOnboardingHandler(discoverer CompetitorDiscoverer, renderer *render.Renderer) *OnboardingHandler {
	return &OnboardingHandler{
		discoverer: discoverer,
		renderer:   renderer,
		now:        time.Now,
	}
}

func (h *OnboardingHandler) StartupTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"startup_types": onboarding.StartupTypes(),
	})
}

func (h *OnboardingHandler) DiscoverCompetitors(c *fiber.Ctx) error {
	var req struct {
		StartupType string `json:"startup_type"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Description required",
		})
	}

	startupType := strings.TrimSpace(req.StartupType)
	if startupType == "" {
		startupType = "other"
	}

	competitors, source := h.discoverer.Discover(c.Context(), startupType, description)
	return c.JSON(fiber.Map{
		"competitors": competitors,
		"source":      source,
	})
}

// PersonalizedDigest renders a digest for the competitors the visitor
// picked from a discovery result.
func (h *OnboardingHandler) PersonalizedDigest(c *fiber.Ctx) error {
	var req struct {
		Competitors []models.Competitor `json:"competitors"`
		Selected    []int              `json:"selected"`
		Description string             `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	chosen := onboarding.Select(req.Competitors, req.Selected)
	if len(chosen) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No competitors selected",
		})
	}

	digest := summarize.RenderPersonalized(chosen, strings.TrimSpace(req.Description), h.now())
	return c.JSON(fiber.Map{
		"digest":      digest,
		"html":        h.renderer.HTML(digest),
		"competitors": chosen,
	})
}
