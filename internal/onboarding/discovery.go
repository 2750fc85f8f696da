package onboarding

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/demo"
	"github.com/competitive-radar/backend/internal/llm"
	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
)

const (
	SourceLLM  = "llm"
	SourceDemo = "demo"

	maxDiscovered = 12
)

type StartupType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var startupTypes = []StartupType{
	{ID: "saas", Name: "SaaS / Software", Description: "Cloud software & tools"},
	{ID: "ecommerce", Name: "E-commerce / Retail", Description: "Online stores & marketplaces"},
	{ID: "fintech", Name: "FinTech / Finance", Description: "Financial services & payments"},
	{ID: "healthtech", Name: "HealthTech / Medical", Description: "Healthcare & wellness"},
	{ID: "edtech", Name: "EdTech / Education", Description: "Learning & education platforms"},
	{ID: "marketplace", Name: "Marketplace / Platform", Description: "Two-sided marketplaces"},
	{ID: "ai_ml", Name: "AI / Machine Learning", Description: "AI-powered products"},
	{ID: "devtools", Name: "Developer Tools", Description: "Tools for developers"},
	{ID: "productivity", Name: "Productivity / Workflow", Description: "Team collaboration & productivity"},
	{ID: "other", Name: "Other", Description: "Something else"},
}

func StartupTypes() []StartupType {
	out := make([]StartupType, len(startupTypes))
	copy(out, startupTypes)
	return out
}

type Discoverer struct {
	client llm.Completer
}

func NewDiscoverer(client llm.Completer) *Discoverer {
	return &Discoverer{client: client}
}

type rawCompetitor struct {
	Name           llm.Text `json:"name"`
	Category       string   `json:"category"`
	Description    llm.Text `json:"description"`
	Differentiator llm.Text `json:"differentiator"`
}

// Discover asks the model for competitors of the described startup. When
// the model is unavailable or returns nothing usable the demo list for
// startupType is returned instead. The second result names the source.
func (d *Discoverer) Discover(ctx context.Context, startupType, description string) ([]models.Competitor, string) {
	competitors, err := d.discover(ctx, startupType, description)
	if err != nil {
		logger.Warn("AI competitor discovery failed, using demo competitors",
			zap.String("startup_type", startupType),
			zap.Error(err),
		)
		metrics.CompetitorDiscoveries.WithLabelValues(SourceDemo).Inc()
		return demo.Competitors(startupType), SourceDemo
	}

	metrics.CompetitorDiscoveries.WithLabelValues(SourceLLM).Inc()
	return competitors, SourceLLM
}

func (d *Discoverer) discover(ctx context.Context, startupType, description string) ([]models.Competitor, error) {
	if d.client == nil {
		return nil, llm.ErrNotConfigured
	}

	resp, err := d.client.Complete(ctx, llm.CompletionRequest{
		UserPrompt:  buildPrompt(startupType, description),
		Temperature: 0.7,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	raw, err := decodeCompetitors(resp.Content)
	if err != nil {
		return nil, err
	}

	competitors := make([]models.Competitor, 0, len(raw))
	for _, r := range raw {
		category, ok := models.ParseCompetitorCategory(r.Category)
		if !ok || r.Name == "" {
			logger.Debug("Skipping discovered competitor",
				zap.String("name", string(r.Name)),
				zap.String("category", r.Category),
			)
			continue
		}
		competitors = append(competitors, models.Competitor{
			Name:           string(r.Name),
			Category:       category,
			Description:    string(r.Description),
			Differentiator: string(r.Differentiator),
		})
		if len(competitors) == maxDiscovered {
			break
		}
	}

	if len(competitors) == 0 {
		return nil, fmt.Errorf("%w: no usable competitors in reply", llm.ErrInvalidJSON)
	}
	return competitors, nil
}

// decodeCompetitors accepts a bare array or an object wrapping one under
// "competitors", since JSON mode forces an object on some providers.
func decodeCompetitors(content string) ([]rawCompetitor, error) {
	var wrapped struct {
		Competitors []rawCompetitor `json:"competitors"`
	}
	if err := llm.DecodeJSON(content, &wrapped); err == nil {
		return wrapped.Competitors, nil
	}

	var list []rawCompetitor
	if err := llm.DecodeJSON(content, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func buildPrompt(startupType, description string) string {
	var b strings.Builder
	b.WriteString("You are a competitive intelligence analyst. Based on this startup description, identify 10-12 real competitors.\n\n")
	fmt.Fprintf(&b, "Startup Type: %s\n", startupType)
	fmt.Fprintf(&b, "Description: %s\n\n", description)
	b.WriteString("For each competitor, provide:\n")
	b.WriteString("1. Company name (real, existing companies)\n")
	b.WriteString(`2. Category: "Direct Competitor" (immediate rivals), "Market Leader" (established players), "Emerging Threat" (fast-growing startups), or "Adjacent Player" (related market)` + "\n")
	b.WriteString("3. Brief description (1 sentence)\n")
	b.WriteString("4. Key differentiator\n\n")
	b.WriteString("Return ONLY valid JSON in this format:\n")
	b.WriteString(`{"competitors": [{"name": "CompanyName", "category": "Direct Competitor", "description": "Brief description", "differentiator": "Key strength"}]}`)
	return b.String()
}

// Select picks competitors by index, ignoring indexes out of range and
// duplicates, in the order given.
func Select(all []models.Competitor, indexes []int) []models.Competitor {
	seen := make(map[int]bool, len(indexes))
	out := make([]models.Competitor, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= len(all) || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, all[i])
	}
	return out
}
