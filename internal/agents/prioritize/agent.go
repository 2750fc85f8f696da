package prioritize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/llm"
	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
)

const stage = "prioritize"

// TopN is how many insights make it into the digest.
const TopN = 3

const (
	systemPrompt         = "You are a strategic advisor for startup founders, evaluating competitive threats and opportunities. Always respond with valid JSON."
	failureScore         = 5
	failureImplication   = "Error in prioritization"
	defaultFailedUrgency = models.UrgencyMedium
)

var errMalformed = errors.New("malformed prioritization")

type reply struct {
	PriorityScore        *float64 `json:"priority_score"`
	ImpactAreas          []string `json:"impact_areas"`
	UrgencyLevel         string   `json:"urgency_level"`
	StrategicImplication llm.Text `json:"strategic_implication"`
}

type score struct {
	value       int
	areas       []string
	urgency     models.Urgency
	implication string
}

// Agent scores every insight for founder impact and keeps the top three.
type Agent struct {
	client llm.Completer
}

func New(client llm.Completer) *Agent {
	return &Agent{client: client}
}

func (a *Agent) Run(ctx context.Context, insights []models.CategorizedInsight) ([]models.RankedInsight, error) {
	logger.Info("Prioritization agent scoring updates", zap.Int("count", len(insights)))

	ranked := make([]models.RankedInsight, 0, len(insights))
	for _, insight := range insights {
		s, err := a.score(ctx, insight)
		if err != nil {
			if llm.IsFatal(err) {
				return nil, fmt.Errorf("prioritization aborted at update %d: %w", insight.ID, err)
			}
			logger.Warn("Error prioritizing update",
				zap.Int("id", insight.ID),
				zap.Error(err),
			)
			metrics.StageRecords.WithLabelValues(stage, "fallback").Inc()
			s = score{value: failureScore, areas: []string{}, urgency: defaultFailedUrgency, implication: failureImplication}
		} else {
			metrics.StageRecords.WithLabelValues(stage, "ok").Inc()
		}

		ranked = append(ranked, models.RankedInsight{
			CategorizedInsight:   insight,
			PriorityScore:        s.value,
			ImpactAreas:          s.areas,
			UrgencyLevel:         s.urgency,
			StrategicImplication: s.implication,
		})
	}

	top := Top(ranked)
	for i, r := range top {
		logger.Info("Prioritization agent selected update",
			zap.Int("rank", i+1),
			zap.String("competitor", r.Competitor),
			zap.Int("score", r.PriorityScore),
		)
	}
	return top, nil
}

// Top stable-sorts by score, highest first, and truncates to TopN. Equal
// scores keep their input order.
func Top(ranked []models.RankedInsight) []models.RankedInsight {
	sorted := make([]models.RankedInsight, len(ranked))
	copy(sorted, ranked)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriorityScore > sorted[j].PriorityScore
	})
	if len(sorted) > TopN {
		sorted = sorted[:TopN]
	}
	return sorted
}

func (a *Agent) score(ctx context.Context, insight models.CategorizedInsight) (score, error) {
	prompt, err := buildPrompt(insight)
	if err != nil {
		return score{}, err
	}

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		JSON:         true,
	})
	if err != nil {
		return score{}, err
	}

	var r reply
	if err := llm.DecodeJSON(resp.Content, &r); err != nil {
		return score{}, err
	}
	if r.PriorityScore == nil {
		return score{}, fmt.Errorf("%w: priority_score is missing", errMalformed)
	}
	urgency, ok := models.ParseUrgency(r.UrgencyLevel)
	if !ok {
		return score{}, fmt.Errorf("%w: urgency_level %q is not low, medium or high", errMalformed, r.UrgencyLevel)
	}

	areas := r.ImpactAreas
	if areas == nil {
		areas = []string{}
	}

	return score{
		value:       int(math.Round(*r.PriorityScore)),
		areas:       areas,
		urgency:     urgency,
		implication: string(r.StrategicImplication),
	}, nil
}

func buildPrompt(insight models.CategorizedInsight) (string, error) {
	analysis, err := json.Marshal(insight.Analysis)
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis: %w", err)
	}

	var b strings.Builder
	b.WriteString("Score this competitor update from 1-10 based on its potential impact on a startup founder's decisions.\n\n")
	fmt.Fprintf(&b, "Competitor: %s\n", insight.Competitor)
	fmt.Fprintf(&b, "Category: %s\n", insight.Category)
	fmt.Fprintf(&b, "Update: %s\n", insight.Update)
	fmt.Fprintf(&b, "Analysis: %s\n\n", analysis)
	b.WriteString("Consider:\n")
	b.WriteString("- Strategic threat level (does this change the competitive landscape?)\n")
	b.WriteString("- Urgency (how quickly should the founder respond?)\n")
	b.WriteString("- Impact on roadmap, pricing, or positioning decisions\n")
	b.WriteString("- Market signal strength (what does this indicate about market trends?)\n\n")
	b.WriteString("Respond in JSON format with keys:\n")
	b.WriteString("- priority_score (1-10, where 10 is highest priority)\n")
	b.WriteString("- impact_areas (list of affected areas: roadmap, pricing, positioning, marketing)\n")
	b.WriteString("- urgency_level (low, medium, high)\n")
	b.WriteString("- strategic_implication (brief explanation)")
	return b.String(), nil
}
