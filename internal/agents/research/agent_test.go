package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jdkato/prose/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competitive-radar/backend/internal/llm"
	"github.com/competitive-radar/backend/internal/llm/llmtest"
	"github.com/competitive-radar/backend/internal/storage/models"
)

func updates(n int) []models.RawUpdate {
	out := make([]models.RawUpdate, n)
	for i := range out {
		out[i] = models.RawUpdate{
			ID:         i + 1,
			Competitor: "Competitor " + string(rune('A'+i)),
			Update:     "Launched a new AI analytics dashboard",
			Date:       "2025-10-01",
			Source:     "Product Hunt launch",
		}
	}
	return out
}

func TestRunKeepsOrderAndAnalysis(t *testing.T) {
	fake := llmtest.NewFake(
		llmtest.JSON(`{"main_point":"AI dashboard","metrics":"40% faster","target":"SMBs","impact":"high"}`),
		llmtest.JSON(`{"main_point":"Second","metrics":"","target":"Enterprise","impact":"medium"}`),
	)

	insights, err := New(fake).Run(context.Background(), updates(2))
	require.NoError(t, err)
	require.Len(t, insights, 2)

	assert.Equal(t, 1, insights[0].ID)
	assert.Equal(t, models.Analysis{MainPoint: "AI dashboard", Metrics: "40% faster", Target: "SMBs", Impact: "high"}, insights[0].Analysis)
	assert.Equal(t, 2, insights[1].ID)
	assert.Equal(t, NoMetrics, insights[1].Analysis.Metrics)
	assert.Equal(t, "Competitor B", insights[1].Competitor)
}

func TestRunPromptCarriesRecordFields(t *testing.T) {
	fake := llmtest.NewFake(llmtest.JSON(`{"main_point":"x"}`))

	_, err := New(fake).Run(context.Background(), updates(1))
	require.NoError(t, err)
	require.Len(t, fake.Requests, 1)

	req := fake.Requests[0]
	assert.True(t, req.JSON)
	assert.Contains(t, req.SystemPrompt, "valid JSON")
	for _, want := range []string{"Competitor: Competitor A", "Update: Launched a new AI analytics dashboard", "Date: 2025-10-01", "Source: Product Hunt launch", "main_point, metrics, target, impact"} {
		assert.Contains(t, req.UserPrompt, want)
	}
}

func TestRunDropsFailedRecords(t *testing.T) {
	fake := llmtest.NewFake(
		llmtest.Fail(errors.New("boom")),
		llmtest.JSON("not json"),
		llmtest.JSON(`{"main_point":"","metrics":"3"}`),
		llmtest.Fail(llm.ErrEmptyResponse),
		llmtest.JSON(`{"main_point":"kept"}`),
	)

	insights, err := New(fake).Run(context.Background(), updates(5))
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, 5, insights[0].ID)
	assert.Equal(t, "kept", insights[0].Analysis.MainPoint)
}

func TestRunEmptyInputMakesNoCalls(t *testing.T) {
	fake := llmtest.NewFake()

	insights, err := New(fake).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, insights)
	assert.Zero(t, fake.Calls())
}

func TestRunAbortsOnFatalError(t *testing.T) {
	fake := llmtest.NewFake(llmtest.Fail(llm.ErrNotConfigured))

	_, err := New(fake).Run(context.Background(), updates(3))
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
	assert.Equal(t, 1, fake.Calls())
}

func TestStaticKeepsEveryRecord(t *testing.T) {
	in := updates(3)
	in[1].Update = ""
	in[2].Update = strings.Repeat("word ", 40)

	insights := Static(in)
	require.Len(t, insights, 3)

	assert.Equal(t, staticTarget, insights[0].Analysis.Target)
	assert.Equal(t, staticImpact, insights[0].Analysis.Impact)
	assert.Equal(t, "", insights[1].Analysis.MainPoint)
	assert.Equal(t, NoMetrics, insights[1].Analysis.Metrics)
	assert.LessOrEqual(t, len([]rune(insights[2].Analysis.MainPoint)), maxMainPointLen)
}

func TestStaticUsesFirstSentence(t *testing.T) {
	analysis := staticAnalysis("Launched AI analytics. Rolling out to everyone next month.")
	assert.Equal(t, "Launched AI analytics.", analysis.MainPoint)
}

func TestExtractFigures(t *testing.T) {
	tokens := []prose.Token{
		{Text: "$", Tag: "$"},
		{Text: "10", Tag: "CD"},
		{Text: "for", Tag: "IN"},
		{Text: "40", Tag: "CD"},
		{Text: "%", Tag: "NN"},
		{Text: "10", Tag: "CD"},
	}
	assert.Equal(t, []string{"$10", "40%", "10"}, extractFigures(tokens))
}
