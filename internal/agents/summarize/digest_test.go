package summarize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/competitive-radar/backend/internal/storage/models"
)

var fixedDate = time.Date(2025, time.October, 4, 9, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func ranked(competitor string, category models.Category, score int) models.RankedInsight {
	return models.RankedInsight{
		CategorizedInsight: models.CategorizedInsight{
			Insight: models.Insight{
				RawUpdate: models.RawUpdate{
					Competitor:         competitor,
					CompetitorCategory: ptr("Direct Competitor"),
					Update:             competitor + " shipped something",
					Source:             "Press release",
					SourceType:         ptr("News"),
				},
			},
			Category: category,
		},
		PriorityScore: score,
		UrgencyLevel:  models.UrgencyHigh,
	}
}

func TestRenderFullDigest(t *testing.T) {
	top := []models.RankedInsight{
		ranked("Airtable", models.CategoryProduct, 9),
		ranked("NotionAI", models.CategoryPricing, 8),
		ranked("ClickUp", models.CategoryMarketing, 7),
	}

	out := Render(top, "Tech Startup Founder", fixedDate)

	assert.True(t, strings.HasPrefix(out, "# CompetitiveRadar – Weekly Digest\n"))
	assert.Contains(t, out, "**For:** Tech Startup Founder | **Date:** October 04, 2025")
	assert.Contains(t, out, "## Top 3 Competitive Insights (Multi-Source Scan)")
	assert.Contains(t, out, "### 1. **Airtable** - Product")
	assert.Contains(t, out, "### 3. **ClickUp** - Marketing")
	assert.Contains(t, out, "**Competitor Category:** Direct Competitor | **Source:** Press release (News)")
	assert.Contains(t, out, "**Impact Score:** 9/10 | **Urgency:** high")
	assert.Contains(t, out, "Track Airtable (Direct Competitor) - their product move signals market shift")
	assert.Contains(t, out, "Review how NotionAI's strategy impacts your positioning")
	assert.True(t, strings.HasSuffix(out, Attribution+"\n"))

	assert.Less(t, strings.Index(out, "Airtable"), strings.Index(out, "NotionAI"))
}

func TestRenderIsDeterministic(t *testing.T) {
	top := []models.RankedInsight{ranked("A", models.CategoryProduct, 9), ranked("B", models.CategoryProduct, 2)}
	later := fixedDate.Add(8 * time.Hour)

	assert.Equal(t, Render(top, "Founder", fixedDate), Render(top, "Founder", later))
}

func TestRenderSingleInsightCollapsesTakeaway(t *testing.T) {
	out := Render([]models.RankedInsight{ranked("Solo", models.CategoryPricing, 6)}, "Founder", fixedDate)

	assert.Contains(t, out, "## Top 1 Competitive Insights")
	assert.Contains(t, out, "Track Solo (Direct Competitor) - their pricing move")
	assert.Contains(t, out, "2. **Competitive Analysis** → Review how this move impacts your positioning")
	assert.NotContains(t, out, "### 2.")
}

func TestRenderEmptyOmitsTakeaway(t *testing.T) {
	out := Render(nil, "Founder", fixedDate)

	assert.Contains(t, out, noUpdates)
	assert.NotContains(t, out, "Founder Takeaway")
	assert.True(t, strings.HasSuffix(out, Attribution+"\n"))
}

func TestRenderDefaultsMissingMetadata(t *testing.T) {
	insight := ranked("Bare", models.CategoryUnknown, 5)
	insight.CompetitorCategory = nil
	insight.SourceType = nil
	insight.Source = ""

	out := Render([]models.RankedInsight{insight}, "Founder", fixedDate)
	assert.Contains(t, out, "**Competitor Category:** Unknown | **Source:** Unknown (Unknown)")
}

func TestRenderPersonalized(t *testing.T) {
	competitors := []models.Competitor{
		{Name: "Salesforce", Category: models.MarketLeader, Description: "Leading CRM platform", Differentiator: "Ecosystem"},
		{Name: "Pipedrive", Category: models.DirectCompetitor, Description: "Sales CRM"},
		{Name: "Attio", Category: models.EmergingThreat, Description: "Modern CRM"},
		{Name: "Close", Category: models.DirectCompetitor, Description: "Calling"},
	}

	out := RenderPersonalized(competitors, "CRM for agencies", fixedDate)

	assert.Contains(t, out, "# Your Personalized CompetitiveRadar Digest")
	assert.Contains(t, out, "**Date:** October 04, 2025")
	assert.Contains(t, out, "## Your Startup Focus\nCRM for agencies")
	assert.Contains(t, out, "## Top 3 Competitors to Track")
	assert.Contains(t, out, "### 1. **Salesforce** - Market Leader")
	assert.Contains(t, out, "**Key Differentiator:** "+defaultDifferentiator)
	assert.Contains(t, out, "Monitor Salesforce's product launches")
	assert.Contains(t, out, "against Pipedrive's positioning")
	assert.Contains(t, out, "Track Attio's pricing")
	assert.NotContains(t, out, "Close")
}

func TestRenderPersonalizedCollapses(t *testing.T) {
	one := RenderPersonalized([]models.Competitor{{Name: "Stripe", Category: models.MarketLeader}}, "payments", fixedDate)
	assert.Contains(t, one, "Monitor Stripe's")
	assert.Contains(t, one, "against the wider market's positioning")
	assert.Contains(t, one, "across your category")

	none := RenderPersonalized(nil, "payments", fixedDate)
	assert.NotContains(t, none, "Founder Takeaway")
	assert.Contains(t, none, "No competitors were selected")
}
