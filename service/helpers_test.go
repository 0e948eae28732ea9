package service

import (
	"context"
	"errors"

	"github.com/layer-3/mintpass/ports"
)

var errStoreDown = errors.New("connection reset by peer")

// brokenStore fails every operation
type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errStoreDown
}

func (brokenStore) Update(ctx context.Context, keys []string, fn ports.UpdateFunc) error {
	return errStoreDown
}
