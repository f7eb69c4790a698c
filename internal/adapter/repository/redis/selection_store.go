package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/iho/expensesplit/internal/infrastructure/metrics"
)

const backend = "redis"

// SelectionStore implements usecase.SelectionStore using Redis.
// Keys are stored as given and never expire.
type SelectionStore struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// NewSelectionStore creates a new SelectionStore.
func NewSelectionStore(client *redis.Client, m *metrics.Metrics) *SelectionStore {
	return &SelectionStore{
		client:  client,
		metrics: m,
	}
}

// Get retrieves a value by key.
func (s *SelectionStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		s.metrics.StoreOp(backend, "get", nil)
		return "", false, nil
	}
	s.metrics.StoreOp(backend, "get", err)
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores a value without TTL.
func (s *SelectionStore) Set(ctx context.Context, key, value string) error {
	err := s.client.Set(ctx, key, value, 0).Err()
	s.metrics.StoreOp(backend, "set", err)
	return err
}

// Ping checks the connection.
func (s *SelectionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
