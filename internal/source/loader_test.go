package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseBatch = `[
  {"id": 1, "competitor": "Competitor A (NotionAI)", "update": "Launched AI analytics", "date": "2025-10-01", "source": "Product Hunt launch", "impact_score": 8},
  {"id": 2, "competitor": "Competitor B (ClickUp)", "competitor_category": "Market Leader", "update": "Raised pricing", "date": "2025-09-28", "source": "Pricing page update", "source_type": "Website"}
]`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPrefersEarlierCandidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "competitor_updates.json", baseBatch)
	realtime := writeFile(t, dir, "competitor_updates_realtime.json",
		`[{"id": 9, "competitor": "Realtime Co", "update": "x", "date": "2025-10-05", "source": "X"}]`)

	loader := NewLoader([]string{
		filepath.Join(dir, "competitor_updates_realtime.json"),
		filepath.Join(dir, "competitor_updates_extended.json"),
		filepath.Join(dir, "competitor_updates.json"),
	})

	updates, path, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, realtime, path)
	require.Len(t, updates, 1)
	assert.Equal(t, "Realtime Co", updates[0].Competitor)
}

func TestLoadFallsThroughToBase(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "competitor_updates.json", baseBatch)

	updates, path, err := NewLoader([]string{
		filepath.Join(dir, "competitor_updates_realtime.json"),
		base,
	}).Load()
	require.NoError(t, err)

	assert.Equal(t, base, path)
	require.Len(t, updates, 2)
	assert.Equal(t, 8, updates[0].ImpactScoreOr(5))
	assert.Equal(t, 5, updates[1].ImpactScoreOr(5))
	assert.Equal(t, "Unknown", updates[0].CompetitorCategoryOr("Unknown"))
	assert.Equal(t, "Market Leader", updates[1].CompetitorCategoryOr("Unknown"))
	assert.Equal(t, "Website", updates[1].SourceTypeOr("Unknown"))
}

func TestLoadNoInput(t *testing.T) {
	_, _, err := NewLoader([]string{filepath.Join(t.TempDir(), "missing.json")}).Load()
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "competitor_updates.json", `{"not": "an array"}`)

	_, _, err := NewLoader([]string{path}).Load()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoInput)
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	_, err := Parse([]byte(`[{"id": 1, "competitor": "A"}, {"id": 1, "competitor": "B"}]`))
	assert.ErrorContains(t, err, "duplicate update id 1")
}
