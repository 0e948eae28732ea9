package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/ports"
)

// ReplayGuard keeps the newest accepted claim timestamp per wallet so an
// older captured signature cannot be replayed once a newer one was seen
type ReplayGuard struct {
	store ports.Store
}

func NewReplayGuard(store ports.Store) *ReplayGuard {
	return &ReplayGuard{store: store}
}

// CheckAndAdvance rejects timestamps older than the stored one and advances
// the stored value to newer ones. An equal timestamp passes without a write.
func (g *ReplayGuard) CheckAndAdvance(ctx context.Context, chainTicker, address string, timestamp int64) error {
	key := walletTimestampKey(chainTicker, address)

	err := g.store.Update(ctx, []string{key}, func(current map[string]string) (map[string]string, error) {
		raw, ok := current[key]
		if !ok {
			return map[string]string{key: strconv.FormatInt(timestamp, 10)}, nil
		}

		stored, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt wallet timestamp %q: %w", raw, err)
		}
		switch {
		case stored > timestamp:
			return nil, core.NewVerificationError(core.ErrStaleSignature, core.MsgStaleSignature, nil)
		case stored == timestamp:
			return nil, nil
		default:
			return map[string]string{key: strconv.FormatInt(timestamp, 10)}, nil
		}
	})
	if err != nil {
		var verr *core.VerificationError
		if errors.As(err, &verr) {
			return err
		}
		return core.StorageError(err)
	}
	return nil
}
