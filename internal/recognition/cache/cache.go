// Package cache stores recognition results in Redis keyed by document content
// hash and language, so re-submitting the same file skips the OCR pass.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"civis/internal/domain"
)

const keyPrefix = "ocr:sha256:"

// ErrMiss reports an absent cache entry.
var ErrMiss = errors.New("recognition cache miss")

// Cache is a Redis-backed recognition result cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a cache over an existing client with the given entry TTL.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Key derives the cache key for a document payload and language.
func Key(image []byte, language string) string {
	sum := sha256.Sum256(image)
	return keyPrefix + hex.EncodeToString(sum[:]) + ":" + language
}

// Get returns the cached result for key, or ErrMiss.
func (c *Cache) Get(ctx context.Context, key string) (domain.RecognitionResult, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RecognitionResult{}, ErrMiss
	}
	if err != nil {
		return domain.RecognitionResult{}, err
	}
	var res domain.RecognitionResult
	if err := json.Unmarshal(payload, &res); err != nil {
		// A corrupt entry behaves like a miss so the pipeline re-runs OCR.
		return domain.RecognitionResult{}, ErrMiss
	}
	return res, nil
}

// Set stores a successful result under key with the configured TTL. Failed
// results are never cached; a transient OCR failure should not stick.
func (c *Cache) Set(ctx context.Context, key string, res domain.RecognitionResult) error {
	if !res.Success {
		return nil
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}
