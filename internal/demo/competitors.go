package demo

import (
	"strings"

	"github.com/competitive-radar/backend/internal/storage/models"
)

const maxCompetitors = 10

var competitorsByType = map[string][]models.Competitor{
	"saas": {
		{Name: "Salesforce", Category: models.MarketLeader, Description: "Leading CRM platform", Differentiator: "Ecosystem & enterprise features"},
		{Name: "HubSpot", Category: models.MarketLeader, Description: "Marketing & sales platform", Differentiator: "All-in-one solution"},
		{Name: "Pipedrive", Category: models.DirectCompetitor, Description: "Sales CRM for small teams", Differentiator: "Simple pipeline management"},
		{Name: "Close", Category: models.DirectCompetitor, Description: "Sales engagement platform", Differentiator: "Built-in calling"},
		{Name: "Attio", Category: models.EmergingThreat, Description: "Modern CRM for startups", Differentiator: "Flexible data model"},
	},
	"ecommerce": {
		{Name: "Shopify", Category: models.MarketLeader, Description: "E-commerce platform", Differentiator: "Ease of use & app ecosystem"},
		{Name: "WooCommerce", Category: models.MarketLeader, Description: "WordPress e-commerce plugin", Differentiator: "Open source & customizable"},
		{Name: "BigCommerce", Category: models.DirectCompetitor, Description: "SaaS e-commerce platform", Differentiator: "Enterprise features"},
	},
	"fintech": {
		{Name: "Stripe", Category: models.MarketLeader, Description: "Payment processing platform", Differentiator: "Developer experience"},
		{Name: "PayPal", Category: models.MarketLeader, Description: "Digital payments", Differentiator: "Consumer trust & reach"},
		{Name: "Plaid", Category: models.DirectCompetitor, Description: "Financial data connectivity", Differentiator: "Bank integration API"},
	},
}

var adjacentPlayers = []models.Competitor{
	{Name: "Monday.com", Category: models.AdjacentPlayer, Description: "Work management platform", Differentiator: "Visual workflows"},
	{Name: "Notion", Category: models.AdjacentPlayer, Description: "All-in-one workspace", Differentiator: "Flexibility & collaboration"},
	{Name: "Airtable", Category: models.AdjacentPlayer, Description: "Low-code platform", Differentiator: "Database flexibility"},
}

// Competitors returns sample competitors for a startup type. Unknown types
// get the SaaS list. The result always ends with the adjacent players and is
// capped at ten entries.
func Competitors(startupType string) []models.Competitor {
	base, ok := competitorsByType[strings.ToLower(strings.TrimSpace(startupType))]
	if !ok {
		base = competitorsByType["saas"]
	}

	out := make([]models.Competitor, 0, len(base)+len(adjacentPlayers))
	out = append(out, base...)
	out = append(out, adjacentPlayers...)
	if len(out) > maxCompetitors {
		out = out[:maxCompetitors]
	}
	return out
}
