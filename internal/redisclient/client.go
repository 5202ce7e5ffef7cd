package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"urbangear/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func catalogKey(category string) string {
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("catalog:%s", category)
}

// GetCachedProducts returns the cached product list for a category.
// The second return value reports a cache hit.
func (c *Client) GetCachedProducts(ctx context.Context, category string) ([]models.Product, bool, error) {
	data, err := c.rdb.Get(ctx, catalogKey(category)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached catalog: %w", err)
	}
	return products, true, nil
}

// SetCachedProducts stores a category's product list with a TTL
func (c *Client) SetCachedProducts(ctx context.Context, category string, products []models.Product, ttl time.Duration) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return c.rdb.Set(ctx, catalogKey(category), data, ttl).Err()
}

// InvalidateCategory drops the cached product list for a category
func (c *Client) InvalidateCategory(ctx context.Context, category string) error {
	return c.rdb.Del(ctx, catalogKey(category)).Err()
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// ClaimEvent atomically claims an event id so its side effects run at
// most once across consumers. Returns true when this caller won the
// claim.
func (c *Client) ClaimEvent(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("event-claim:%s", eventID), "1", ttl).Result()
}

// ReleaseClaim releases an event claim, e.g. when processing failed
// and the event should be retried.
func (c *Client) ReleaseClaim(ctx context.Context, eventID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("event-claim:%s", eventID)).Err()
}
