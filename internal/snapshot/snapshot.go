// Package snapshot caches the latest run outputs in redis for read-side
// consumers (dashboard, alert delivery). The cache is best-effort: a redis
// outage degrades readers to the database, never the pipeline.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sawpanic/leakradar/internal/domain"
)

const (
	keyScores      = "leakradar:latest:scores"
	keyComparisons = "leakradar:latest:comparisons"
	keyHealth      = "leakradar:latest:health"

	ttl = 48 * time.Hour
)

// Cache wraps one redis client.
type Cache struct {
	rdb *redis.Client
}

func New(addr string) *Cache {
	return &Cache{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// NewWithClient wraps an existing client. Used by tests with redismock.
func NewWithClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) set(ctx context.Context, key string, v interface{}) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, key, blob, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", key, err)
	}
	return nil
}

// StoreScores caches the latest day's score rows.
func (c *Cache) StoreScores(ctx context.Context, rows []domain.ScoreRow) error {
	return c.set(ctx, keyScores, rows)
}

// StoreComparisons caches the latest hype/reality snapshot.
func (c *Cache) StoreComparisons(ctx context.Context, rows []domain.ComparisonRow) error {
	return c.set(ctx, keyComparisons, rows)
}

// StoreHealth caches collector health for the status endpoint.
func (c *Cache) StoreHealth(ctx context.Context, statuses []domain.CollectorStatus) error {
	return c.set(ctx, keyHealth, statuses)
}

// Scores reads the cached latest score rows.
func (c *Cache) Scores(ctx context.Context) ([]domain.ScoreRow, error) {
	blob, err := c.rdb.Get(ctx, keyScores).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read score snapshot: %w", err)
	}
	var rows []domain.ScoreRow
	if err := json.Unmarshal(blob, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal score snapshot: %w", err)
	}
	return rows, nil
}

func (c *Cache) Close() error { return c.rdb.Close() }
