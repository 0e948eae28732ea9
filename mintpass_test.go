package mintpass

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/layer-3/mintpass/adapters/store"
	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/internal/chaintest"
	"github.com/layer-3/mintpass/service"
)

const contract = "0x9a9f2CCfdE556A7E9Ff0848998Aa4a0CFD8863AE"

func newVerifier(chain *chaintest.Chain) *service.ChallengeService {
	provider := chaintest.NewProvider(map[string]*chaintest.Chain{"base": chain, "eth": chaintest.NewChain()})
	return service.NewChallengeService(provider, store.NewMemoryStore(), zap.NewNop())
}

func TestNewChallengeRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]string
	}{
		{name: "missing contract", options: map[string]string{}},
		{name: "bad token type", options: map[string]string{core.OptionContractAddress: contract, core.OptionRequiredTokenType: "x"}},
		{name: "bad cooldown", options: map[string]string{core.OptionContractAddress: contract, core.OptionTransferCooldownSeconds: "1.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChallenge(tt.options, newVerifier(chaintest.NewChain()))
			assert.ErrorIs(t, err, core.ErrInvalidConfig)
		})
	}
}

func TestChallengeVerify(t *testing.T) {
	chain := chaintest.NewChain()
	wallet := chaintest.NewWallet()
	challenge, err := NewChallenge(map[string]string{core.OptionContractAddress: contract}, newVerifier(chain))
	require.NoError(t, err)
	assert.Equal(t, "base", challenge.Config().ChainTicker)
	assert.Equal(t, "text/plain", challenge.Descriptor().Type)

	req := core.ChallengeRequest{
		CommentEdit: &core.CommentEdit{
			PublicationBase: core.PublicationBase{
				Author: core.Author{
					Address: "12D3KooWAlice",
					Wallets: map[string]core.WalletClaim{"base": wallet.Claim("12D3KooWAlice", 10)},
				},
				SubplebbitAddress: "community.eth",
			},
			CommentCID: "QmComment",
		},
	}

	result, err := challenge.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "You need a MintPass NFT")

	chain.Mint(wallet.Address, 1, 0)
	result, err = challenge.Verify(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, Result{Success: true}, result)
}

func TestChallengeVerifyUnknownChain(t *testing.T) {
	challenge, err := NewChallenge(map[string]string{
		core.OptionContractAddress: contract,
		core.OptionChainTicker:     "sol",
	}, newVerifier(chaintest.NewChain()))
	require.NoError(t, err)

	_, err = challenge.Verify(context.Background(), core.ChallengeRequest{Vote: &core.Vote{}})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
