package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/llm"
	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
)

const stage = "research"

const systemPrompt = "You are a business intelligence analyst extracting key insights from competitor updates. Always respond with valid JSON."

type analysisReply struct {
	MainPoint llm.Text `json:"main_point"`
	Metrics   llm.Text `json:"metrics"`
	Target    llm.Text `json:"target"`
	Impact    llm.Text `json:"impact"`
}

// Agent extracts a structured Analysis from each raw update.
type Agent struct {
	client llm.Completer
}

func New(client llm.Completer) *Agent {
	return &Agent{client: client}
}

// Run analyzes updates one at a time, in order. Records whose analysis
// cannot be obtained are logged and dropped. Errors that would fail every
// remaining record abort the run.
func (a *Agent) Run(ctx context.Context, updates []models.RawUpdate) ([]models.Insight, error) {
	logger.Info("Research agent analyzing competitor updates", zap.Int("count", len(updates)))

	insights := make([]models.Insight, 0, len(updates))
	for _, update := range updates {
		analysis, err := a.analyze(ctx, update)
		if err != nil {
			if llm.IsFatal(err) {
				return nil, fmt.Errorf("research aborted at update %d: %w", update.ID, err)
			}
			logger.Warn("Error processing update",
				zap.Int("id", update.ID),
				zap.Error(err),
			)
			metrics.StageRecords.WithLabelValues(stage, "dropped").Inc()
			continue
		}

		metrics.StageRecords.WithLabelValues(stage, "ok").Inc()
		insights = append(insights, models.Insight{RawUpdate: update, Analysis: analysis})
	}

	logger.Info("Research agent processed updates",
		zap.Int("kept", len(insights)),
		zap.Int("dropped", len(updates)-len(insights)),
	)
	return insights, nil
}

func (a *Agent) analyze(ctx context.Context, update models.RawUpdate) (models.Analysis, error) {
	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildPrompt(update),
		JSON:         true,
	})
	if err != nil {
		return models.Analysis{}, err
	}

	var reply analysisReply
	if err := llm.DecodeJSON(resp.Content, &reply); err != nil {
		return models.Analysis{}, err
	}
	if reply.MainPoint == "" {
		return models.Analysis{}, fmt.Errorf("%w: main_point is missing", llm.ErrInvalidJSON)
	}

	analysis := models.Analysis{
		MainPoint: string(reply.MainPoint),
		Metrics:   string(reply.Metrics),
		Target:    string(reply.Target),
		Impact:    string(reply.Impact),
	}
	if analysis.Metrics == "" {
		analysis.Metrics = NoMetrics
	}
	return analysis, nil
}

func buildPrompt(update models.RawUpdate) string {
	var b strings.Builder
	b.WriteString("Analyze this competitor update and extract the key details:\n\n")
	fmt.Fprintf(&b, "Competitor: %s\n", update.Competitor)
	fmt.Fprintf(&b, "Update: %s\n", update.Update)
	fmt.Fprintf(&b, "Date: %s\n", update.Date)
	fmt.Fprintf(&b, "Source: %s\n\n", update.Source)
	b.WriteString("Extract:\n")
	b.WriteString("1. Main feature/change/announcement\n")
	b.WriteString("2. Key metrics or numbers mentioned\n")
	b.WriteString("3. Target audience or market\n")
	b.WriteString("4. Potential business impact\n\n")
	b.WriteString("Respond in JSON format with keys: main_point, metrics, target, impact")
	return b.String()
}
