package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competitive-radar/backend/internal/storage/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want models.Category
	}{
		{"Launched AI-powered analytics", models.CategoryProduct},
		{"New Feature: offline sync", models.CategoryProduct},
		{"Our PRODUCT roadmap", models.CategoryProduct},
		{"New pricing tier at $10/user", models.CategoryPricing},
		{"Price cut for teams", models.CategoryPricing},
		{"Now only $5", models.CategoryPricing},
		{"Launch of the $5 plan", models.CategoryProduct},
		{"Super Bowl ad campaign", models.CategoryMarketing},
		{"", models.CategoryMarketing},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestKeyword(t *testing.T) {
	overridden := insight(2, "Launched a new product")
	overridden.Category = ptr("Marketing")

	out := Keyword([]models.Insight{insight(1, "Raised prices"), overridden})
	require.Len(t, out, 2)

	assert.Equal(t, models.CategoryPricing, out[0].Category)
	assert.Equal(t, keywordReasoning, out[0].CategoryReasoning)
	assert.Equal(t, keywordConfidence, out[0].CategoryConfidence)

	assert.Equal(t, models.Category("Marketing"), out[1].Category)
	assert.Equal(t, models.CategoryProduct, out[1].SuggestedCategory)
}
