package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
)

const (
	latestKeyPrefix = "digest:latest:"
	metricKeyPrefix = "metric:"
	modeKey         = "config:mode"
	cacheType       = "digest"
)

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr), zap.Duration("ttl", ttl))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SaveDigest caches the digest as the latest one for its persona.
func (c *Client) SaveDigest(ctx context.Context, digest *models.Digest) error {
	data, err := json.Marshal(digest)
	if err != nil {
		return fmt.Errorf("failed to marshal digest: %w", err)
	}

	if err := c.client.Set(ctx, latestKeyPrefix+digest.Persona, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set digest cache: %w", err)
	}

	logger.Debug("Digest cached", zap.String("persona", digest.Persona), zap.Duration("ttl", c.ttl))
	return nil
}

// LatestDigest returns the cached digest for persona, or nil on a miss.
func (c *Client) LatestDigest(ctx context.Context, persona string) (*models.Digest, error) {
	data, err := c.client.Get(ctx, latestKeyPrefix+persona).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues(cacheType).Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get digest cache: %w", err)
	}

	var digest models.Digest
	if err := json.Unmarshal(data, &digest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal digest: %w", err)
	}

	metrics.CacheHits.WithLabelValues(cacheType).Inc()
	logger.Debug("Digest cache hit", zap.String("persona", persona))
	return &digest, nil
}

// Invalidate drops every cached digest.
func (c *Client) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, latestKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Digest cache invalidated")
	return nil
}

// SwapMode records the pipeline mode this process serves and returns the one
// recorded before it, or "" on first use.
func (c *Client) SwapMode(ctx context.Context, mode string) (string, error) {
	prev, err := c.client.GetSet(ctx, modeKey, mode).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to swap mode: %w", err)
	}
	return prev, nil
}

// ResetOnModeChange records mode and drops cached digests if a different
// mode produced them. It reports whether the cache was invalidated.
func (c *Client) ResetOnModeChange(ctx context.Context, mode string) (bool, error) {
	prev, err := c.SwapMode(ctx, mode)
	if err != nil {
		return false, err
	}
	if prev == mode {
		return false, nil
	}

	logger.Info("Pipeline mode changed, dropping cached digests",
		zap.String("from", prev),
		zap.String("to", mode),
	)
	if err := c.Invalidate(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) IncrementMetric(ctx context.Context, metricName string) error {
	return c.client.Incr(ctx, metricKeyPrefix+metricName).Err()
}

func (c *Client) GetMetric(ctx context.Context, metricName string) (int64, error) {
	val, err := c.client.Get(ctx, metricKeyPrefix+metricName).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
