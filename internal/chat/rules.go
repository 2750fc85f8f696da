package chat

import "strings"

type rule struct {
	keywords []string
	answer   string
}

// rules are checked in order; the first matching keyword wins.
var rules = []rule{
	{
		keywords: []string{"price", "pricing", "cost", "plan"},
		answer:   "CompetitiveRadar offers 3 plans: Starter ($49/mo) for solo founders, Growth ($149/mo) for growing teams, and Enterprise (custom pricing) for large organizations. All plans include a 14-day free trial with no credit card required!",
	},
	{
		keywords: []string{"how", "work", "process"},
		answer:   "CompetitiveRadar uses 4 AI agents: 1) Research Agent extracts key details from competitor updates, 2) Categorization Agent tags updates (Product/Pricing/Marketing), 3) Prioritization Agent scores impact 1-10, 4) Summarization Agent creates actionable weekly digests. It transforms hours of manual work into 30-second insights!",
	},
	{
		keywords: []string{"start", "begin", "signup", "sign up", "trial"},
		answer:   "Getting started is easy! Click 'Get Started' in the navigation to begin your 14-day free trial. No credit card required. You'll be analyzing competitor updates in minutes!",
	},
	{
		keywords: []string{"feature", "capability", "can do"},
		answer:   "Key features include: Multi-agent AI analysis, automated competitor tracking, priority scoring, category classification, beautiful Markdown digests, and actionable founder takeaways. All powered by Google Gemini AI!",
	},
	{
		keywords: []string{"agent", "ai"},
		answer:   "We use 4 specialized AI agents powered by Google Gemini: Research Agent (extracts insights), Categorization Agent (tags updates), Prioritization Agent (scores impact), and Summarization Agent (creates digests). They work together to give you actionable intelligence!",
	},
	{
		keywords: []string{"demo", "try", "test"},
		answer:   "Try our live demo! Click 'Demo' in the navigation to see all 4 AI agents in action. Watch how we transform scattered competitor updates into a concise, actionable digest in under 30 seconds!",
	},
}

const defaultAnswer = "I can help you with: how CompetitiveRadar works, pricing plans, getting started, features, or trying the demo. What would you like to know?"

func RuleAnswer(message string) string {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.answer
			}
		}
	}
	return defaultAnswer
}
