package categorize

import (
	"strings"

	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/internal/storage/models"
)

const (
	keywordReasoning  = "Based on update content"
	keywordConfidence = 0.9
)

var (
	productKeywords = []string{"product", "feature", "launch"}
	pricingKeywords = []string{"pricing", "price", "$"}
)

// Keyword classifies by substring match on the update text. Product terms
// are checked before pricing terms; anything else is Marketing.
func Keyword(insights []models.Insight) []models.CategorizedInsight {
	out := make([]models.CategorizedInsight, 0, len(insights))
	for _, insight := range insights {
		out = append(out, apply(insight, result{
			category:   Classify(insight.Update),
			reasoning:  keywordReasoning,
			confidence: keywordConfidence,
		}))
	}
	metrics.StageRecords.WithLabelValues(stage, "keyword").Add(float64(len(out)))
	return out
}

func Classify(text string) models.Category {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, productKeywords):
		return models.CategoryProduct
	case containsAny(lower, pricingKeywords):
		return models.CategoryPricing
	default:
		return models.CategoryMarketing
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
