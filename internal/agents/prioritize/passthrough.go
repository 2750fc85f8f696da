package prioritize

import (
	"fmt"

	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/internal/storage/models"
)

const (
	defaultImpactScore = 5
	highUrgencyScore   = 8
)

// PassThrough scores each insight with its supplied impact_score and keeps
// the top three, without a model.
func PassThrough(insights []models.CategorizedInsight) []models.RankedInsight {
	ranked := make([]models.RankedInsight, 0, len(insights))
	for _, insight := range insights {
		value := insight.ImpactScoreOr(defaultImpactScore)
		urgency := models.UrgencyMedium
		if value >= highUrgencyScore {
			urgency = models.UrgencyHigh
		}

		ranked = append(ranked, models.RankedInsight{
			CategorizedInsight:   insight,
			PriorityScore:        value,
			ImpactAreas:          []string{"roadmap", "positioning"},
			UrgencyLevel:         urgency,
			StrategicImplication: fmt.Sprintf("High-impact update from %s", insight.CompetitorCategoryOr("competitor")),
		})
	}
	metrics.StageRecords.WithLabelValues(stage, "passthrough").Add(float64(len(ranked)))
	return Top(ranked)
}
