package ports

import "context"

// UpdateFunc receives the current values of the watched keys (missing keys
// are absent) and returns the values to write. It may run more than once
// when a concurrent writer wins, so it must not have side effects.
type UpdateFunc func(current map[string]string) (map[string]string, error)

// Store is the durable key-value store backing replay, cooldown and binding state
type Store interface {
	// Get returns the value of key and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Update atomically reads keys, applies fn and writes its result.
	// An error returned by fn aborts the update and is returned as is.
	Update(ctx context.Context, keys []string, fn UpdateFunc) error
}
