package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carshop/internal/models"

	"github.com/go-redis/redis/v8"
)

const catalogKey = "catalog:cars"

// Client caches the car catalog in Redis. The catalog is read-mostly and
// a staleness window on price display is acceptable; the purchase
// transaction always reads the live price inside the database transaction.
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

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetCatalog returns the cached catalog. The second return value is false
// on a cache miss.
func (c *Client) GetCatalog(ctx context.Context) ([]models.Car, bool, error) {
	raw, err := c.rdb.Get(ctx, catalogKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog cache read failed: %w", err)
	}

	var cars []models.Car
	if err := json.Unmarshal(raw, &cars); err != nil {
		return nil, false, fmt.Errorf("catalog cache decode failed: %w", err)
	}
	return cars, true, nil
}

// SetCatalog stores the catalog listing with a TTL
func (c *Client) SetCatalog(ctx context.Context, cars []models.Car, ttl time.Duration) error {
	raw, err := json.Marshal(cars)
	if err != nil {
		return fmt.Errorf("catalog cache encode failed: %w", err)
	}
	return c.rdb.Set(ctx, catalogKey, raw, ttl).Err()
}

// InvalidateCatalog drops the cached listing after a catalog write
func (c *Client) InvalidateCatalog(ctx context.Context) error {
	return c.rdb.Del(ctx, catalogKey).Err()
}
