package redis

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ fiber.Storage = (*LimiterStorage)(nil)

func TestLimiterStorage(t *testing.T) {
	client, mr := newTestClient(t)
	storage := client.LimiterStorage()

	got, err := storage.Get("ip:1.2.3.4")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, storage.Set("ip:1.2.3.4", []byte("3"), time.Minute))
	got, err = storage.Get("ip:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
	assert.True(t, mr.Exists("ratelimit:ip:1.2.3.4"))

	mr.FastForward(2 * time.Minute)
	got, err = storage.Get("ip:1.2.3.4")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLimiterStorageResetKeepsDigests(t *testing.T) {
	client, mr := newTestClient(t)
	storage := client.LimiterStorage()

	require.NoError(t, client.IncrementMetric(context.Background(), "runs"))
	require.NoError(t, storage.Set("a", []byte("1"), time.Minute))
	require.NoError(t, storage.Set("b", []byte("1"), time.Minute))

	require.NoError(t, storage.Reset())
	assert.False(t, mr.Exists("ratelimit:a"))
	assert.False(t, mr.Exists("ratelimit:b"))
	assert.True(t, mr.Exists("metric:runs"))

	require.NoError(t, storage.Delete("missing"))
}
