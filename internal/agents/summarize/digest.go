// Package summarize renders ranked insights into the Markdown digest.
// Rendering is pure: the same input and date always give the same text.
package summarize

import (
	"fmt"
	"strings"
	"time"

	"github.com/competitive-radar/backend/internal/storage/models"
)

const (
	DateLayout  = "January 02, 2006"
	Attribution = "*Generated by CompetitiveRadar Agentic AI System*"

	strategicInsight = "**Strategic Insight:** These insights from 50+ sources (Social Media, Press Releases, Product Launches, etc.) show the competitive landscape is evolving. Stay ahead by monitoring multi-source intelligence daily."
	noUpdates        = "No competitor updates were found for this scan. Check that the input feed contains records and run the pipeline again."
)

// Render formats the top insights for persona. With fewer than two insights
// the takeaway refers only to #1; with none it is left out.
func Render(top []models.RankedInsight, persona string, now time.Time) string {
	var b strings.Builder

	b.WriteString("# CompetitiveRadar – Weekly Digest\n")
	fmt.Fprintf(&b, "**For:** %s | **Date:** %s\n\n", persona, now.Format(DateLayout))
	b.WriteString("---\n\n")

	if len(top) == 0 {
		b.WriteString("## Competitive Insights (Multi-Source Scan)\n\n")
		b.WriteString(noUpdates + "\n\n")
		b.WriteString("---\n\n")
		b.WriteString(Attribution + "\n")
		return b.String()
	}

	fmt.Fprintf(&b, "## Top %d Competitive Insights (Multi-Source Scan)\n", len(top))
	for i, insight := range top {
		writeInsight(&b, i+1, insight)
	}
	b.WriteString("\n---\n\n")

	writeTakeaway(&b, top)

	b.WriteString("---\n\n")
	b.WriteString(Attribution + "\n")
	return b.String()
}

func writeInsight(b *strings.Builder, rank int, insight models.RankedInsight) {
	fmt.Fprintf(b, "\n### %d. **%s** - %s\n", rank, insight.Competitor, insight.Category)
	fmt.Fprintf(b, "**Competitor Category:** %s | **Source:** %s (%s)\n\n",
		insight.CompetitorCategoryOr("Unknown"),
		orUnknown(insight.Source),
		insight.SourceTypeOr("Unknown"),
	)
	fmt.Fprintf(b, "%s\n\n", insight.Update)
	fmt.Fprintf(b, "**Impact Score:** %d/10 | **Urgency:** %s\n", insight.PriorityScore, insight.UrgencyLevel)
}

func writeTakeaway(b *strings.Builder, top []models.RankedInsight) {
	first := top[0]

	b.WriteString("## **Founder Takeaway**\n\n")
	b.WriteString("**Immediate Actions:**\n")
	fmt.Fprintf(b, "1. **Monitor Competitors** → Track %s (%s) - their %s move signals market shift\n",
		first.Competitor,
		first.CompetitorCategoryOr("Unknown"),
		strings.ToLower(string(first.Category)),
	)
	if len(top) > 1 {
		fmt.Fprintf(b, "2. **Competitive Analysis** → Review how %s's strategy impacts your positioning\n", top[1].Competitor)
	} else {
		b.WriteString("2. **Competitive Analysis** → Review how this move impacts your positioning against the rest of the market\n")
	}
	b.WriteString("3. **Strategic Response** → Evaluate opportunities to differentiate based on these competitive signals\n\n")
	b.WriteString(strategicInsight + "\n\n")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
