package categorize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competitive-radar/backend/internal/llm"
	"github.com/competitive-radar/backend/internal/llm/llmtest"
	"github.com/competitive-radar/backend/internal/storage/models"
)

func ptr[T any](v T) *T { return &v }

func insight(id int, update string) models.Insight {
	return models.Insight{
		RawUpdate: models.RawUpdate{ID: id, Competitor: "Competitor A", Update: update},
		Analysis:  models.Analysis{MainPoint: update, Metrics: "N/A"},
	}
}

func TestRunLabelsEachInsight(t *testing.T) {
	fake := llmtest.NewFake(
		llmtest.JSON(`{"category":"Pricing","reasoning":"new tier","confidence":0.85}`),
		llmtest.JSON(`{"category":"product","reasoning":"launch","confidence":1.7}`),
	)

	out, err := New(fake).Run(context.Background(), []models.Insight{
		insight(1, "New $10 tier"),
		insight(2, "Launched AI"),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, models.CategoryPricing, out[0].Category)
	assert.Equal(t, "new tier", out[0].CategoryReasoning)
	assert.InDelta(t, 0.85, out[0].CategoryConfidence, 1e-9)

	assert.Equal(t, models.CategoryProduct, out[1].Category)
	assert.Equal(t, 1.0, out[1].CategoryConfidence, "confidence is clamped")
}

func TestRunFallsBackToUnknown(t *testing.T) {
	fake := llmtest.NewFake(
		llmtest.Fail(errors.New("timeout")),
		llmtest.JSON(`{"category":"Sales","reasoning":"x","confidence":0.5}`),
		llmtest.JSON(`definitely not json`),
		llmtest.Fail(llm.ErrEmptyResponse),
	)

	in := make([]models.Insight, 4)
	for i := range in {
		in[i] = insight(i+1, "anything")
	}

	out, err := New(fake).Run(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	for i, ci := range out {
		assert.Equal(t, i+1, ci.ID, "order is preserved")
		assert.Equal(t, models.CategoryUnknown, ci.Category)
		assert.Equal(t, failureReasoning, ci.CategoryReasoning)
		assert.Zero(t, ci.CategoryConfidence)
	}
}

func TestRunDefaultsMissingConfidence(t *testing.T) {
	fake := llmtest.NewFake(llmtest.JSON(`{"category":"Product","reasoning":"launch"}`))

	out, err := New(fake).Run(context.Background(), []models.Insight{insight(1, "New editor")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.CategoryProduct, out[0].Category)
	assert.Equal(t, "launch", out[0].CategoryReasoning)
	assert.InDelta(t, defaultConfidence, out[0].CategoryConfidence, 1e-9)
}

func TestRunOverrideAlwaysWins(t *testing.T) {
	overridden := insight(1, "Launched a feature")
	overridden.Category = ptr("Pricing")
	failing := insight(2, "Launched a feature")
	failing.Category = ptr("Marketing")

	fake := llmtest.NewFake(
		llmtest.JSON(`{"category":"Product","reasoning":"it is a feature","confidence":0.95}`),
		llmtest.Fail(errors.New("boom")),
	)

	out, err := New(fake).Run(context.Background(), []models.Insight{overridden, failing})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, models.CategoryPricing, out[0].Category)
	assert.Equal(t, models.CategoryProduct, out[0].SuggestedCategory)
	assert.Equal(t, "it is a feature", out[0].CategoryReasoning)
	assert.InDelta(t, 0.95, out[0].CategoryConfidence, 1e-9)

	assert.Equal(t, models.Category("Marketing"), out[1].Category)
	assert.Equal(t, failureReasoning, out[1].CategoryReasoning)
}

func TestRunAbortsOnFatalError(t *testing.T) {
	fake := llmtest.NewFake(llmtest.Fail(context.Canceled))

	_, err := New(fake).Run(context.Background(), []models.Insight{insight(1, "x"), insight(2, "y")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunPrompt(t *testing.T) {
	fake := llmtest.NewFake(llmtest.JSON(`{"category":"Marketing","reasoning":"","confidence":0.4}`))

	_, err := New(fake).Run(context.Background(), []models.Insight{insight(7, "Rebranded")})
	require.NoError(t, err)
	require.Len(t, fake.Requests, 1)

	assert.True(t, fake.Requests[0].JSON)
	assert.Contains(t, fake.Requests[0].UserPrompt, "Update: Rebranded")
	assert.Contains(t, fake.Requests[0].UserPrompt, `"main_point":"Rebranded"`)
	assert.Contains(t, fake.Requests[0].UserPrompt, "category, reasoning, confidence (0-1)")
}
