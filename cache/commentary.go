package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"ai-market-coach/analytics"
)

// DefaultCommentaryTTL bounds how long generated commentary is reused
const DefaultCommentaryTTL = 6 * time.Hour

// CommentaryCache caches LLM commentary keyed by a hash of the metrics it describes
type CommentaryCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewCommentaryCache creates a commentary cache; a nil redis makes every lookup miss
func NewCommentaryCache(redis *RedisClient, ttl time.Duration) *CommentaryCache {
	if ttl <= 0 {
		ttl = DefaultCommentaryTTL
	}
	return &CommentaryCache{redis: redis, ttl: ttl}
}

// GetCommentary returns cached text for key
func (c *CommentaryCache) GetCommentary(ctx context.Context, key string) (string, bool) {
	if c == nil || c.redis == nil {
		return "", false
	}

	var text string
	if err := c.redis.Get(ctx, key, &text); err != nil {
		return "", false
	}
	return text, text != ""
}

// SetCommentary stores text under key
func (c *CommentaryCache) SetCommentary(ctx context.Context, key, text string) error {
	if c == nil || c.redis == nil {
		return fmt.Errorf("redis client not available")
	}
	return c.redis.Set(ctx, key, text, c.ttl)
}

// CommentaryKey builds the cache key for commentary on m at a learner level.
// Identical metrics for the same ticker and level share one entry.
func CommentaryKey(ticker, level string, m *analytics.MetricsReport) string {
	return fmt.Sprintf("coach:commentary:%s:%s:%s", ticker, level, GenerateDataHash(m))
}

// GenerateDataHash creates a short hash of data to detect changed inputs
func GenerateDataHash(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf("%x", hash[:8])
}
