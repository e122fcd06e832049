// Package cache keeps downloaded image bytes in Redis so repeated fetches of
// the same URL skip the network.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "image:"

type ImageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewImageCache(client *redis.Client, ttl time.Duration) *ImageCache {
	return &ImageCache{client: client, ttl: ttl}
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Key returns the cache key of an image URL.
func Key(url string) string {
	sum := sha1.Sum([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached bytes of url. Errors are logged and reported as a miss.
func (c *ImageCache) Get(ctx context.Context, url string) ([]byte, bool) {
	data, err := c.client.Get(ctx, Key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("image cache read failed", "url", url, "error", err)
		return nil, false
	}
	return data, true
}

// Set stores data for url with the configured TTL. Errors are logged.
func (c *ImageCache) Set(ctx context.Context, url string, data []byte) {
	if err := c.client.Set(ctx, Key(url), data, c.ttl).Err(); err != nil {
		slog.Warn("image cache write failed", "url", url, "error", err)
	}
}

func (c *ImageCache) Close() error {
	return c.client.Close()
}
