package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/mintpass/ports"
)

// DefaultKeyPrefix namespaces every key written by the service
const DefaultKeyPrefix = "mintpass:"

const maxUpdateRetries = 32

// ErrTooManyConflicts is returned when optimistic updates keep losing to concurrent writers
var ErrTooManyConflicts = errors.New("too many concurrent updates")

// RedisStore is a Redis implementation of the Store interface
type RedisStore struct {
	client *redis.Client
	prefix string
}

// Compile-time interface compliance check
var _ ports.Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis store. An empty prefix selects DefaultKeyPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Get returns the value stored under key
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Update watches keys, applies fn and commits its writes in a MULTI/EXEC
// transaction. The transaction is retried when a watched key changes.
func (s *RedisStore) Update(ctx context.Context, keys []string, fn ports.UpdateFunc) error {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.prefix + key
	}

	var fnErr error
	txf := func(tx *redis.Tx) error {
		values, err := tx.MGet(ctx, prefixed...).Result()
		if err != nil {
			return err
		}

		current := make(map[string]string, len(keys))
		for i, value := range values {
			if str, ok := value.(string); ok {
				current[keys[i]] = str
			}
		}

		updates, err := fn(current)
		if err != nil {
			fnErr = err
			return err
		}
		if len(updates) == 0 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, value := range updates {
				pipe.Set(ctx, s.prefix+key, value, 0)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		fnErr = nil
		err := s.client.Watch(ctx, txf, prefixed...)
		if fnErr != nil {
			return fnErr
		}
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("failed to update %v: %w", keys, err)
	}
	return fmt.Errorf("failed to update %v: %w", keys, ErrTooManyConflicts)
}
