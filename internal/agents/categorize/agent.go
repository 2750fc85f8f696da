package categorize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/llm"
	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
)

const stage = "categorize"

const (
	systemPrompt     = "You are a business strategist categorizing competitive intelligence. Always respond with valid JSON."
	failureReasoning = "Error in categorization"
	// defaultConfidence applies when a valid label comes without a confidence.
	defaultConfidence = 0.8
)

var errMalformed = errors.New("malformed categorization")

type reply struct {
	Category   string   `json:"category"`
	Reasoning  llm.Text `json:"reasoning"`
	Confidence *float64 `json:"confidence"`
}

type result struct {
	category   models.Category
	reasoning  string
	confidence float64
}

// Agent labels each insight Product, Pricing or Marketing.
type Agent struct {
	client llm.Completer
}

func New(client llm.Completer) *Agent {
	return &Agent{client: client}
}

// Run returns one CategorizedInsight per input, in input order. A record the
// model fails on is labelled Unknown rather than dropped.
func (a *Agent) Run(ctx context.Context, insights []models.Insight) ([]models.CategorizedInsight, error) {
	logger.Info("Categorization agent classifying updates", zap.Int("count", len(insights)))

	out := make([]models.CategorizedInsight, 0, len(insights))
	for _, insight := range insights {
		res, err := a.classify(ctx, insight)
		if err != nil {
			if llm.IsFatal(err) {
				return nil, fmt.Errorf("categorization aborted at update %d: %w", insight.ID, err)
			}
			logger.Warn("Error categorizing update",
				zap.Int("id", insight.ID),
				zap.Error(err),
			)
			metrics.StageRecords.WithLabelValues(stage, "fallback").Inc()
			res = result{category: models.CategoryUnknown, reasoning: failureReasoning}
		} else {
			metrics.StageRecords.WithLabelValues(stage, "ok").Inc()
		}

		out = append(out, apply(insight, res))
	}

	logger.Info("Categorization agent classified updates", zap.Int("count", len(out)))
	return out, nil
}

func (a *Agent) classify(ctx context.Context, insight models.Insight) (result, error) {
	prompt, err := buildPrompt(insight)
	if err != nil {
		return result{}, err
	}

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		JSON:         true,
	})
	if err != nil {
		return result{}, err
	}

	var r reply
	if err := llm.DecodeJSON(resp.Content, &r); err != nil {
		return result{}, err
	}

	category, ok := models.ParseCategory(r.Category)
	if !ok {
		return result{}, fmt.Errorf("%w: category %q is not one of Product, Pricing, Marketing", errMalformed, r.Category)
	}
	confidence := defaultConfidence
	if r.Confidence != nil {
		confidence = clamp(*r.Confidence)
	}

	return result{
		category:   category,
		reasoning:  string(r.Reasoning),
		confidence: confidence,
	}, nil
}

// apply attaches a classification to an insight. An external label on the
// record always wins; the classifier's own label is kept as the suggestion.
func apply(insight models.Insight, res result) models.CategorizedInsight {
	ci := models.CategorizedInsight{
		Insight:            insight,
		Category:           res.category,
		CategoryReasoning:  res.reasoning,
		CategoryConfidence: res.confidence,
	}
	if override, ok := insight.CategoryOverride(); ok {
		ci.Category = models.Category(override)
		ci.SuggestedCategory = res.category
	}
	return ci
}

func buildPrompt(insight models.Insight) (string, error) {
	analysis, err := json.Marshal(insight.Analysis)
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis: %w", err)
	}

	var b strings.Builder
	b.WriteString("Classify this competitor update into ONE primary category:\n\n")
	fmt.Fprintf(&b, "Competitor: %s\n", insight.Competitor)
	fmt.Fprintf(&b, "Update: %s\n", insight.Update)
	fmt.Fprintf(&b, "Analysis: %s\n\n", analysis)
	b.WriteString("Categories:\n")
	b.WriteString("- Product: New features, product launches, technical updates, integrations\n")
	b.WriteString("- Pricing: Pricing changes, new pricing tiers, discounts, pricing strategy\n")
	b.WriteString("- Marketing: Campaigns, branding, content marketing, partnerships, PR\n\n")
	b.WriteString("Respond in JSON format with keys: category, reasoning, confidence (0-1)")
	return b.String(), nil
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
