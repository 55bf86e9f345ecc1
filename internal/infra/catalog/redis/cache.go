// Package rediscatalog implements the catalog cache collaborator on Redis.
package rediscatalog

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"matchroom/internal/catalog"
	"matchroom/internal/domain"
	"matchroom/internal/repository"
)

// RedisCatalogCache is the Redis implementation of catalog.Cache.
type RedisCatalogCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// compile-time interface check
var _ catalog.Cache = (*RedisCatalogCache)(nil)

// NewRedisCatalogCache creates a RedisCatalogCache instance.
func NewRedisCatalogCache(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisCatalogCache {
	if client == nil {
		panic("redis client cannot be nil for RedisCatalogCache")
	}
	if keyPrefix == "" {
		keyPrefix = "mr:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCatalogCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// --- Key generation helpers ---

func (c *RedisCatalogCache) candidatesKey(filters domain.Filters) string {
	// Filter specs are small structs; a digest of their JSON form makes a
	// stable key without worrying about field ordering in user input.
	raw, _ := json.Marshal(filters)
	return fmt.Sprintf("%scatalog:candidates:%x", c.keyPrefix, sha1.Sum(raw))
}

func (c *RedisCatalogCache) contentKey(id domain.ContentID) string {
	return fmt.Sprintf("%scatalog:content:%s", c.keyPrefix, id)
}

// --- catalog.Cache implementation ---

// GetCandidates returns the last good candidate set for a filter spec.
func (c *RedisCatalogCache) GetCandidates(ctx context.Context, filters domain.Filters) ([]domain.ContentItem, error) {
	key := c.candidatesKey(filters)
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis: failed to get candidate cache from %s: %w", key, err)
	}
	var items []domain.ContentItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal candidate cache from %s: %w", key, err)
	}
	return items, nil
}

// SetCandidates stores the candidate set for a filter spec.
func (c *RedisCatalogCache) SetCandidates(ctx context.Context, filters domain.Filters, items []domain.ContentItem) error {
	key := c.candidatesKey(filters)
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal candidate cache: %w", err)
	}
	if err := c.client.Set(ctx, key, string(raw), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set candidate cache on %s: %w", key, err)
	}
	return nil
}

// GetContent returns cached detail for one content id.
func (c *RedisCatalogCache) GetContent(ctx context.Context, id domain.ContentID) (*domain.ContentItem, error) {
	key := c.contentKey(id)
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis: failed to get content cache from %s: %w", key, err)
	}
	var item domain.ContentItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal content cache from %s: %w", key, err)
	}
	return &item, nil
}

// SetContent stores detail for one item.
func (c *RedisCatalogCache) SetContent(ctx context.Context, item *domain.ContentItem) error {
	key := c.contentKey(item.ID)
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal content cache for %s: %w", item.ID, err)
	}
	if err := c.client.Set(ctx, key, string(raw), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set content cache on %s: %w", key, err)
	}
	return nil
}
