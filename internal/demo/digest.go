// Package demo holds the pre-baked content served when the live pipeline
// cannot run, and the sample competitors used by onboarding.
package demo

import "github.com/competitive-radar/backend/internal/storage/models"

// Digest is the static report used as the live-mode fallback.
const Digest = `# 🧭 CompetitiveRadar – Weekly Digest
**For:** Tech Startup Founder | **Date:** October 04, 2025

---

## 🔥 Top Competitive Insights This Week

### 1. 🤝 **Airtable Locks In Salesforce Partnership** | Product
Competitor F (Airtable) just announced a major strategic partnership with Salesforce, featuring native bi-directional CRM integration and automated workflow triggers. The announcement was made at a major industry conference with significant media coverage, signaling a serious enterprise push.

**Why it matters:** This creates a powerful integration moat that will be hard to replicate. Enterprise customers now have a seamless path from CRM to workflow automation, strengthening Airtable's position in the sales operations space.

---

### 2. 🤖 **NotionAI Ships AI-Powered Analytics Dashboard** | Product
Competitor A (NotionAI) launched an AI-powered dashboard that automatically generates insights from workspace data. The feature uses machine learning to identify productivity patterns and suggest optimizations. Early beta users are reporting a 40% efficiency increase.

**Why it matters:** This sets a new bar for AI-native features in productivity tools. Customers will start expecting intelligent, proactive insights rather than passive data storage. This is a roadmap forcing function.

---

### 3. 💰 **ClickUp Raises Enterprise Pricing 31%** | Pricing
Competitor B (ClickUp) increased their enterprise tier from $19/user to $25/user, a 31% jump. The new pricing bundles advanced automation and priority support. They're grandfathering existing customers for 6 months.

**Why it matters:** This validates that enterprise customers will pay premium prices for automation capabilities. It also creates a pricing gap opportunity for competitors who can deliver similar value at the old $19 price point.

---

## 💡 **Founder Takeaway**

**Immediate Actions:**
1. **Partnerships** → Evaluate strategic integration opportunities with major platforms (CRM, communication tools). Ecosystem depth is becoming a competitive requirement for enterprise deals.

2. **Product Roadmap** → Prioritize AI-native features that provide proactive insights, not just reactive data. The market expectation has shifted from "storage + search" to "intelligence + recommendations."

3. **Pricing Strategy** → Review your enterprise pricing model. ClickUp's 31% increase validates premium pricing for automation. Consider whether you're capturing the value you deliver, especially if you have automation features.

**Strategic Insight:** The market is bifurcating into AI-native platforms with deep integrations (premium) vs. traditional tools (commodity). Position accordingly within the next 2 quarters.

---

*Generated by CompetitiveRadar Agentic AI System*
`

// TopInsights returns the ranked insights the static digest was written
// from. Each call returns fresh values.
func TopInsights() []models.RankedInsight {
	airtable := models.RankedInsight{
		CategorizedInsight: models.CategorizedInsight{
			Insight: models.Insight{
				RawUpdate: models.RawUpdate{
					ID:         6,
					Competitor: "Competitor F (Airtable)",
					Update:     "Partnered with Salesforce for native CRM integration. Integration allows bi-directional data sync and automated workflow triggers. Partnership announced at major industry conference with significant media coverage.",
					Date:       "2025-10-03",
					Source:     "Press release",
				},
				Analysis: models.Analysis{
					MainPoint: "Strategic Salesforce partnership with native CRM integration",
					Metrics:   "Bi-directional sync, automated triggers, major conference announcement",
					Target:    "Enterprise CRM users, sales teams, data-driven organizations",
					Impact:    "Strengthens enterprise positioning, creates integration moat, pressures competitors on ecosystem depth",
				},
			},
			Category:           models.CategoryProduct,
			CategoryReasoning:  "Strategic partnership creating new product integration capability",
			CategoryConfidence: 0.88,
		},
		PriorityScore:        9,
		ImpactAreas:          []string{"roadmap", "positioning", "partnerships"},
		UrgencyLevel:         models.UrgencyHigh,
		StrategicImplication: "Major enterprise play that strengthens competitive moat through ecosystem integration",
	}

	notion := models.RankedInsight{
		CategorizedInsight: models.CategorizedInsight{
			Insight: models.Insight{
				RawUpdate: models.RawUpdate{
					ID:         1,
					Competitor: "Competitor A (NotionAI)",
					Update:     "Launched AI-powered dashboard analytics feature that automatically generates insights from workspace data. The feature uses machine learning to identify productivity patterns and suggest workflow optimizations. Early beta users report 40% increase in team efficiency.",
					Date:       "2025-10-01",
					Source:     "Product Hunt launch",
				},
				Analysis: models.Analysis{
					MainPoint: "AI-powered dashboard analytics with ML-driven productivity insights",
					Metrics:   "40% efficiency increase among beta users",
					Target:    "Teams seeking workflow optimization and productivity gains",
					Impact:    "Sets new standard for AI-native productivity tools, pressures competitors to add similar features",
				},
			},
			Category:           models.CategoryProduct,
			CategoryReasoning:  "Launch of new AI-powered feature with technical capabilities",
			CategoryConfidence: 0.95,
		},
		PriorityScore:        8,
		ImpactAreas:          []string{"roadmap", "product", "positioning"},
		UrgencyLevel:         models.UrgencyHigh,
		StrategicImplication: "AI-native feature sets new market expectation, requires product roadmap response",
	}

	clickup := models.RankedInsight{
		CategorizedInsight: models.CategorizedInsight{
			Insight: models.Insight{
				RawUpdate: models.RawUpdate{
					ID:         2,
					Competitor: "Competitor B (ClickUp)",
					Update:     "Increased enterprise pricing tier from $19/user to $25/user (31% increase). New pricing includes advanced automation features and priority support. Grandfathering existing customers for 6 months.",
					Date:       "2025-09-28",
					Source:     "Pricing page update",
				},
				Analysis: models.Analysis{
					MainPoint: "31% enterprise pricing increase with enhanced feature bundle",
					Metrics:   "$19 to $25/user, 6-month grandfather period",
					Target:    "Enterprise customers, signals premium positioning",
					Impact:    "Creates pricing gap opportunity for mid-tier competitors, validates premium automation value",
				},
			},
			Category:           models.CategoryPricing,
			CategoryReasoning:  "Direct pricing strategy change with tier restructuring",
			CategoryConfidence: 0.98,
		},
		PriorityScore:        7,
		ImpactAreas:          []string{"pricing", "positioning"},
		UrgencyLevel:         models.UrgencyMedium,
		StrategicImplication: "Premium pricing increase validates higher willingness-to-pay for automation features",
	}

	return []models.RankedInsight{airtable, notion, clickup}
}
