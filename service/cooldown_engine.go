package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/ports"
)

// CredentialUse describes one attempt to use a credential in a community
type CredentialUse struct {
	Contract   string
	Subplebbit string
	Author     string // pseudonymous author, never the wallet
	Cooldown   time.Duration
	Bind       bool
}

var (
	errBoundElsewhere = errors.New("bound to another author")
	errCoolingDown    = errors.New("cooling down")
)

// CooldownBindingEngine enforces the transfer cooldown and first-author
// binding policies over a wallet's candidate tokens
type CooldownBindingEngine struct {
	store  ports.Store
	clock  ports.Clock
	logger *zap.Logger
}

func NewCooldownBindingEngine(store ports.Store, clock ports.Clock, logger *zap.Logger) *CooldownBindingEngine {
	return &CooldownBindingEngine{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Claim tries candidates in ascending token id and records the use of the
// first one both policies allow. Each token's records are read and written in
// one store transaction, so concurrent authors cannot both claim it.
func (e *CooldownBindingEngine) Claim(ctx context.Context, use CredentialUse, candidates []core.CredentialToken) (*core.CredentialToken, error) {
	ordered := slices.Clone(candidates)
	slices.SortFunc(ordered, func(a, b core.CredentialToken) int {
		return a.TokenID.Cmp(b.TokenID)
	})

	var cooling bool
	for i := range ordered {
		token := ordered[i]
		err := e.claimToken(ctx, use, token.TokenID)
		switch {
		case err == nil:
			return &token, nil
		case errors.Is(err, errCoolingDown):
			cooling = true
		case errors.Is(err, errBoundElsewhere):
		default:
			return nil, core.StorageError(err)
		}

		e.logger.Debug("credential token unavailable",
			zap.String("author", use.Author),
			zap.String("token_id", token.TokenID.String()),
			zap.Error(err),
		)
	}

	// cooldown wins when any candidate failed on cooldown alone
	if cooling {
		return nil, core.CooldownError(int64(use.Cooldown / time.Second))
	}
	return nil, core.NewVerificationError(core.ErrBindingConflict, core.MsgBindingConflict, nil)
}

func (e *CooldownBindingEngine) claimToken(ctx context.Context, use CredentialUse, tokenID *big.Int) error {
	cdKey := cooldownKey(use.Contract, tokenID)
	keys := []string{cdKey}
	var bKey string
	if use.Bind {
		bKey = bindingKey(use.Subplebbit, use.Contract, tokenID)
		keys = append(keys, bKey)
	}

	now := e.clock.Now().Unix()
	cooldown := int64(use.Cooldown / time.Second)

	return e.store.Update(ctx, keys, func(current map[string]string) (map[string]string, error) {
		if use.Bind {
			if bound, ok := current[bKey]; ok && bound != use.Author {
				return nil, errBoundElsewhere
			}
		}

		var record core.CooldownRecord
		if raw, ok := current[cdKey]; ok {
			if err := json.Unmarshal([]byte(raw), &record); err != nil {
				return nil, fmt.Errorf("corrupt cooldown record %s: %w", cdKey, err)
			}
			if record.AuthorAddress != use.Author && now-record.Timestamp < cooldown {
				return nil, errCoolingDown
			}
		}

		payload, err := json.Marshal(core.CooldownRecord{
			AuthorAddress: use.Author,
			Timestamp:     max(now, record.Timestamp),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal cooldown record: %w", err)
		}

		updates := map[string]string{cdKey: string(payload)}
		if use.Bind {
			if _, ok := current[bKey]; !ok {
				updates[bKey] = use.Author
			}
		}
		return updates, nil
	})
}
