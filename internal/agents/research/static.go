package research

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
)

const (
	NoMetrics       = "N/A"
	maxMainPointLen = 100
	staticTarget    = "Startup founders"
	staticImpact    = "Strategic decision-making"
)

// Static builds insights without a model: the first sentence of the update
// as the main point and any numbers prose tags as metrics. Nothing is dropped.
func Static(updates []models.RawUpdate) []models.Insight {
	insights := make([]models.Insight, 0, len(updates))
	for _, update := range updates {
		insights = append(insights, models.Insight{
			RawUpdate: update,
			Analysis:  staticAnalysis(update.Update),
		})
	}
	metrics.StageRecords.WithLabelValues(stage, "static").Add(float64(len(insights)))
	return insights
}

func staticAnalysis(text string) models.Analysis {
	analysis := models.Analysis{
		MainPoint: truncate(strings.TrimSpace(text), maxMainPointLen),
		Metrics:   NoMetrics,
		Target:    staticTarget,
		Impact:    staticImpact,
	}
	if strings.TrimSpace(text) == "" {
		return analysis
	}

	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		logger.Debug("prose could not parse update", zap.Error(err))
		return analysis
	}

	if sentences := doc.Sentences(); len(sentences) > 0 {
		analysis.MainPoint = truncate(strings.TrimSpace(sentences[0].Text), maxMainPointLen)
	}
	if figures := extractFigures(doc.Tokens()); len(figures) > 0 {
		analysis.Metrics = strings.Join(figures, ", ")
	}
	return analysis
}

// extractFigures keeps cardinal-number tokens, joined with a preceding "$"
// or a following "%" so "$10" and "40%" survive as one figure.
func extractFigures(tokens []prose.Token) []string {
	var figures []string
	seen := make(map[string]bool)
	for i, tok := range tokens {
		if tok.Tag != "CD" {
			continue
		}
		figure := tok.Text
		if i > 0 && tokens[i-1].Text == "$" {
			figure = "$" + figure
		}
		if i+1 < len(tokens) && tokens[i+1].Text == "%" {
			figure += "%"
		}
		if !seen[figure] {
			seen[figure] = true
			figures = append(figures, figure)
		}
	}
	return figures
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
