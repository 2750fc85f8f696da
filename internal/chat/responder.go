package chat

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/llm"
	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/pkg/logger"
)

const (
	SourceLLM   = "llm"
	SourceRules = "rules"

	maxAnswerTokens = 150
)

const systemContext = `You are a helpful assistant for CompetitiveRadar, an AI-powered competitor intelligence platform for startup founders.

KEY INFORMATION:
- CompetitiveRadar transforms 3-5 hours of competitor tracking into 30-second actionable insights
- Uses 4 specialized AI agents: Research, Categorization, Prioritization, and Summarization
- Pricing: Starter ($49/mo), Growth ($149/mo), Enterprise (custom)
- Free trial available with no credit card required
- Powered by Google Gemini AI (free tier available)
- Key features: Multi-agent analysis, automated digest generation, actionable insights

Answer questions concisely and professionally in plain text. If asked about getting started, guide them to the sign-up page. Keep responses under 100 words.`

type Responder struct {
	client llm.Completer
}

func NewResponder(client llm.Completer) *Responder {
	return &Responder{client: client}
}

// Answer replies to a visitor question with the model, falling back to the
// keyword rules when the model fails or says nothing.
func (r *Responder) Answer(ctx context.Context, message string) (string, string) {
	if r.client != nil {
		resp, err := r.client.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: systemContext,
			UserPrompt:   "User question: " + message,
			Temperature:  0.7,
			MaxTokens:    maxAnswerTokens,
		})
		if err == nil {
			if answer := PlainText(resp.Content); answer != "" {
				metrics.ChatResponses.WithLabelValues(SourceLLM).Inc()
				return answer, SourceLLM
			}
		} else {
			logger.Warn("AI chat failed, using rule-based answer", zap.Error(err))
		}
	}

	metrics.ChatResponses.WithLabelValues(SourceRules).Inc()
	return RuleAnswer(message), SourceRules
}

// PlainText drops any HTML markup a model put in its answer.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<>") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, li, div").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})

	return strings.Join(strings.Fields(doc.Text()), " ")
}
