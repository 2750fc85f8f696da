package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competitive-radar/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())
	return client
}

func digest(id string, at time.Time, competitors ...string) *models.Digest {
	top := make([]models.RankedInsight, len(competitors))
	for i, name := range competitors {
		top[i].ID = i + 1
		top[i].Competitor = name
		top[i].Category = models.CategoryProduct
		top[i].PriorityScore = 9 - i
		top[i].UrgencyLevel = models.UrgencyHigh
	}
	return &models.Digest{
		ID:               id,
		Persona:          "Tech Startup Founder",
		Mode:             models.ModeOffline,
		Content:          "# digest " + id,
		Top:              top,
		InputCount:       5,
		InputFingerprint: "abc123",
		LatencyMS:        42,
		GeneratedAt:      at,
	}
}

func TestSaveDigestAndGetRun(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	at := time.Unix(1759569000, 0)

	require.NoError(t, client.SaveDigest(ctx, digest("run-1", at, "Airtable", "NotionAI")))

	run, err := client.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Tech Startup Founder", run.Persona)
	assert.Equal(t, models.ModeOffline, run.Mode)
	assert.Equal(t, 5, run.InputCount)
	assert.Equal(t, []string{"Airtable", "NotionAI"}, run.TopCompetitors)
	assert.Equal(t, "# digest run-1", run.Content)
	assert.Equal(t, 42, run.LatencyMS)
	assert.True(t, at.Equal(run.CreatedAt))
}

func TestListRunsNewestFirst(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	base := time.Unix(1759569000, 0)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, client.SaveDigest(ctx, digest(id, base.Add(time.Duration(i)*time.Minute), "X")))
	}

	runs, err := client.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Empty(t, runs[0].Content)
}

func TestSaveDigestRejectsDuplicateID(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	d := digest("dup", time.Now(), "X", "Y")

	require.NoError(t, client.SaveDigest(ctx, d))
	assert.Error(t, client.SaveDigest(ctx, d))

	// the failed transaction leaves no extra insight rows behind
	counts, err := client.CompetitorCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"X": 1, "Y": 1}, counts)
}

func TestLatestRunByPersona(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	base := time.Unix(1759569000, 0)

	none, err := client.LatestRun(ctx, "Tech Startup Founder")
	require.NoError(t, err)
	assert.Nil(t, none)

	older := digest("older", base, "X")
	newer := digest("newer", base.Add(time.Minute), "Y")
	newer.Mode = models.ModeFallback
	other := digest("other", base.Add(2*time.Minute), "Z")
	other.Persona = "Agency Owner"
	for _, d := range []*models.Digest{older, newer, other} {
		require.NoError(t, client.SaveDigest(ctx, d))
	}

	run, err := client.LatestRun(ctx, "Tech Startup Founder")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "newer", run.ID)
	assert.Equal(t, models.ModeFallback, run.Mode)
	assert.Equal(t, "# digest newer", run.Content)
	assert.Equal(t, []string{"Y"}, run.TopCompetitors)

	missing, err := client.LatestRun(ctx, "Bank CFO")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCompetitorCounts(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, client.SaveDigest(ctx, digest("1", now, "Airtable", "ClickUp")))
	require.NoError(t, client.SaveDigest(ctx, digest("2", now, "Airtable")))

	counts, err := client.CompetitorCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Airtable": 2, "ClickUp": 1}, counts)
}

func TestGetRunMissing(t *testing.T) {
	client := newTestClient(t)
	_, err := client.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
