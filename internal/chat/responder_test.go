package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/competitive-radar/backend/internal/llm/llmtest"
)

func TestAnswerUsesModel(t *testing.T) {
	fake := llmtest.NewFake(llmtest.JSON("<p>Starter is <b>$49/mo</b>.</p><p>Try it!</p>"))

	answer, src := NewResponder(fake).Answer(context.Background(), "what does it cost?")
	assert.Equal(t, SourceLLM, src)
	assert.Equal(t, "Starter is $49/mo. Try it!", answer)

	req := fake.Requests[0]
	assert.Contains(t, req.SystemPrompt, "CompetitiveRadar")
	assert.Equal(t, "User question: what does it cost?", req.UserPrompt)
	assert.Equal(t, maxAnswerTokens, req.MaxTokens)
	assert.False(t, req.JSON)
}

func TestAnswerFallsBackToRules(t *testing.T) {
	answer, src := NewResponder(llmtest.NewFake(llmtest.Fail(errors.New("down")))).Answer(context.Background(), "Pricing?")
	assert.Equal(t, SourceRules, src)
	assert.Contains(t, answer, "Starter ($49/mo)")

	answer, src = NewResponder(nil).Answer(context.Background(), "hello")
	assert.Equal(t, SourceRules, src)
	assert.Equal(t, defaultAnswer, answer)
}

func TestRuleAnswerOrder(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"How much does the plan cost?", rules[0].answer},
		{"how does it work", rules[1].answer},
		{"I want to sign up", rules[2].answer},
		{"what features exist", rules[3].answer},
		{"tell me about the agents", rules[4].answer},
		{"can I get a demo", rules[5].answer},
		{"hello there", defaultAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, RuleAnswer(tt.message))
		})
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "plain answer", PlainText("  plain answer "))
	assert.Equal(t, "a b", PlainText("<script>x()</script><div>a<br>b</div>"))
}
