// Package redis is the dedup cache: a durable marker per processed
// source object so queue redeliveries skip a second inference pass.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Address  string
	Password string
	DB       int
	// TTL bounds how long a processed marker lives. Matches the result
	// store's 90-day record retention.
	TTL time.Duration
}

func DefaultOptions() Options {
	return Options{
		Address: "localhost:6379",
		TTL:     90 * 24 * time.Hour,
	}
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(options Options) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       options.DB,
	})
	return &Cache{client: client, ttl: options.TTL}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// SeenDocumentID returns the document id a source object was processed
// under, if any.
func (c *Cache) SeenDocumentID(ctx context.Context, bucket, key string) (string, bool, error) {
	id, err := c.client.Get(ctx, markerKey(bucket, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("dedup get: %w", err)
	}
	return id, true, nil
}

func (c *Cache) MarkProcessed(ctx context.Context, bucket, key, documentID string) error {
	if err := c.client.Set(ctx, markerKey(bucket, key), documentID, c.ttl).Err(); err != nil {
		return fmt.Errorf("dedup set: %w", err)
	}
	return nil
}

func markerKey(bucket, key string) string {
	sum := sha256.Sum256([]byte(bucket + "/" + key))
	return "tradedocs:processed:" + hex.EncodeToString(sum[:])
}
