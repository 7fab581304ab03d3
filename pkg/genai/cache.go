package genai

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache caches parsed recommendation lines by prompt hash so
// repeated assessments of an unchanged profile skip the external call.
type ResponseCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewResponseCache creates a response cache from a Redis URL.
func NewResponseCache(redisURL string, defaultTTL time.Duration) (*ResponseCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ResponseCache{redis: client, defaultTTL: defaultTTL}, nil
}

// CachedRecommendations wraps cached lines with cache metadata.
type CachedRecommendations struct {
	Lines     []string  `json:"lines"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves cached lines for the model+prompt pair. The bool result
// reports a hit; corrupt or expired entries are removed and treated as
// misses.
func (c *ResponseCache) Get(ctx context.Context, model, prompt string) ([]string, bool, error) {
	key := c.generateKey(model, prompt)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get recommendation cache: %w", err)
	}

	var cached CachedRecommendations
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return cached.Lines, true, nil
}

// Set caches lines for the model+prompt pair. A zero ttl uses the
// default.
func (c *ResponseCache) Set(ctx context.Context, model, prompt string, lines []string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	cached := CachedRecommendations{
		Lines:     lines,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cached recommendations: %w", err)
	}

	return c.redis.Set(ctx, c.generateKey(model, prompt), data, ttl).Err()
}

// Close closes the underlying Redis connection.
func (c *ResponseCache) Close() error {
	return c.redis.Close()
}

func (c *ResponseCache) generateKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return fmt.Sprintf("genai:rec:%x", sum)
}
