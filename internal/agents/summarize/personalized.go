package summarize

import (
	"fmt"
	"strings"
	"time"

	"github.com/competitive-radar/backend/internal/storage/models"
)

const (
	maxTracked            = 3
	defaultDifferentiator = "Strong market position"
	whyItMatters          = "**Why it matters for you:** Monitor their product updates and pricing changes to stay competitive in your market."
	personalizedInsight   = "**Strategic Insight:** We'll continuously scan 50+ sources (Product Hunt, TechCrunch, LinkedIn, Twitter/X, etc.) to keep you updated on these competitors. Your personalized digest will be delivered weekly with actionable insights."
)

// RenderPersonalized formats the onboarding digest for the first three
// selected competitors. Takeaway lines for missing ranks become generic.
func RenderPersonalized(competitors []models.Competitor, description string, now time.Time) string {
	if len(competitors) > maxTracked {
		competitors = competitors[:maxTracked]
	}

	var b strings.Builder
	b.WriteString("# Your Personalized CompetitiveRadar Digest\n")
	fmt.Fprintf(&b, "**Date:** %s\n\n", now.Format(DateLayout))
	b.WriteString("## Your Startup Focus\n")
	fmt.Fprintf(&b, "%s\n\n", description)
	b.WriteString("---\n\n")

	if len(competitors) == 0 {
		b.WriteString("## Competitors to Track\n\n")
		b.WriteString("No competitors were selected. Pick up to three competitors to start tracking.\n\n")
		b.WriteString("---\n\n")
		b.WriteString(Attribution + "\n")
		return b.String()
	}

	fmt.Fprintf(&b, "## Top %d Competitors to Track\n", len(competitors))
	for i, c := range competitors {
		differentiator := c.Differentiator
		if differentiator == "" {
			differentiator = defaultDifferentiator
		}
		fmt.Fprintf(&b, "\n### %d. **%s** - %s\n", i+1, c.Name, c.Category)
		fmt.Fprintf(&b, "%s\n\n", c.Description)
		fmt.Fprintf(&b, "**Key Differentiator:** %s\n\n", differentiator)
		b.WriteString(whyItMatters + "\n")
	}
	b.WriteString("\n---\n\n")

	b.WriteString("## **Founder Takeaway**\n\n")
	b.WriteString("**Immediate Actions:**\n")
	fmt.Fprintf(&b, "1. **Set Up Alerts** → Monitor %s's product launches and announcements\n", competitors[0].Name)
	if len(competitors) > 1 {
		fmt.Fprintf(&b, "2. **Competitive Analysis** → Compare your features against %s's positioning\n", competitors[1].Name)
	} else {
		b.WriteString("2. **Competitive Analysis** → Compare your features against the wider market's positioning\n")
	}
	if len(competitors) > 2 {
		fmt.Fprintf(&b, "3. **Market Intelligence** → Track %s's pricing and go-to-market strategy\n\n", competitors[2].Name)
	} else {
		b.WriteString("3. **Market Intelligence** → Track pricing and go-to-market moves across your category\n\n")
	}
	b.WriteString(personalizedInsight + "\n\n")

	b.WriteString("---\n\n")
	b.WriteString(Attribution + "\n")
	return b.String()
}
