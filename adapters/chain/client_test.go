package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/internal/eth"
)

var (
	contractAddr = common.HexToAddress("0x9a9f2CCfdE556A7E9Ff0848998Aa4a0CFD8863AE")
	resolverAddr = common.HexToAddress("0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63")
)

// fakeEthClient answers contract calls by method selector
type fakeEthClient struct {
	mu       sync.Mutex
	handlers map[string]func(to common.Address, args []interface{}) ([]byte, error)
	code     map[common.Address][]byte
	codeErr  error
	calls    []string
	closed   bool
}

func newFakeEthClient() *fakeEthClient {
	return &fakeEthClient{
		handlers: make(map[string]func(common.Address, []interface{}) ([]byte, error)),
		code:     make(map[common.Address][]byte),
	}
}

func (f *fakeEthClient) handle(contractABI abi.ABI, method string, fn func(to common.Address, args []interface{}) ([]byte, error)) {
	f.handlers[string(contractABI.Methods[method].ID)] = fn
}

func (f *fakeEthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, contractABI := range []abi.ABI{MintPassABI, ENSRegistryABI, ENSResolverABI, ERC1271ABI} {
		method, err := contractABI.MethodById(msg.Data[:4])
		if err != nil {
			continue
		}
		f.calls = append(f.calls, method.Name)
		handler, ok := f.handlers[string(method.ID)]
		if !ok {
			return nil, fmt.Errorf("execution reverted")
		}
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		return handler(*msg.To, args)
	}
	return nil, fmt.Errorf("unknown selector")
}

func (f *fakeEthClient) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	if f.codeErr != nil {
		return nil, f.codeErr
	}
	return f.code[account], nil
}

func (f *fakeEthClient) Close() { f.closed = true }

func pack(t *testing.T, contractABI abi.ABI, method string, values ...interface{}) []byte {
	t.Helper()
	out, err := contractABI.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

func TestOwnsTokenType(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	fake := newFakeEthClient()
	fake.handle(MintPassABI, "ownsTokenType", func(to common.Address, args []interface{}) ([]byte, error) {
		assert.Equal(t, contractAddr, to)
		assert.Equal(t, owner, args[0].(common.Address))
		return pack(t, MintPassABI, "ownsTokenType", args[1].(uint16) == 0), nil
	})
	client := NewCredentialClient("base", fake, zap.NewNop())

	owns, err := client.OwnsTokenType(context.Background(), contractAddr.Hex(), owner.Hex(), 0)
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = client.OwnsTokenType(context.Background(), contractAddr.Hex(), owner.Hex(), 1)
	require.NoError(t, err)
	assert.False(t, owns)
}

func TestTokensOfOwner(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	fake := newFakeEthClient()
	fake.handle(MintPassABI, "tokensOfOwner", func(to common.Address, args []interface{}) ([]byte, error) {
		return pack(t, MintPassABI, "tokensOfOwner", []tokenInfo{
			{TokenId: big.NewInt(7), TokenType: 0},
			{TokenId: big.NewInt(12), TokenType: 3},
		}), nil
	})
	client := NewCredentialClient("base", fake, zap.NewNop())

	tokens, err := client.TokensOfOwner(context.Background(), contractAddr.Hex(), owner.Hex())
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "7", tokens[0].TokenID.String())
	assert.Equal(t, uint16(0), tokens[0].TokenType)
	assert.Equal(t, "12", tokens[1].TokenID.String())
	assert.Equal(t, uint16(3), tokens[1].TokenType)
	assert.Equal(t, owner.Hex(), tokens[0].Owner)
}

func TestRPCFailuresAreNetworkErrors(t *testing.T) {
	owner := "0x1111111111111111111111111111111111111111"

	t.Run("call error", func(t *testing.T) {
		fake := newFakeEthClient()
		fake.handle(MintPassABI, "ownsTokenType", func(common.Address, []interface{}) ([]byte, error) {
			return nil, errors.New("dial tcp: connection refused")
		})
		client := NewCredentialClient("base", fake, zap.NewNop())

		_, err := client.OwnsTokenType(context.Background(), contractAddr.Hex(), owner, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNetwork)
		assert.Equal(t, core.MsgNetwork, core.UserMessage(err))
		assert.NotContains(t, core.UserMessage(err), "connection refused")
	})

	t.Run("malformed response", func(t *testing.T) {
		fake := newFakeEthClient()
		fake.handle(MintPassABI, "tokensOfOwner", func(common.Address, []interface{}) ([]byte, error) {
			return []byte{0x01, 0x02}, nil
		})
		client := NewCredentialClient("base", fake, zap.NewNop())

		_, err := client.TokensOfOwner(context.Background(), contractAddr.Hex(), owner)
		assert.ErrorIs(t, err, core.ErrNetwork)
	})
}

func TestResolveENSAddress(t *testing.T) {
	target := common.HexToAddress("0x2222222222222222222222222222222222222222")
	node := eth.NameHash("alice.eth")

	fake := newFakeEthClient()
	fake.handle(ENSRegistryABI, "resolver", func(to common.Address, args []interface{}) ([]byte, error) {
		assert.Equal(t, eth.ENSRegistryAddress, to)
		if common.Hash(args[0].([32]byte)) == node {
			return pack(t, ENSRegistryABI, "resolver", resolverAddr), nil
		}
		return pack(t, ENSRegistryABI, "resolver", common.Address{}), nil
	})
	fake.handle(ENSResolverABI, "addr", func(to common.Address, args []interface{}) ([]byte, error) {
		assert.Equal(t, resolverAddr, to)
		return pack(t, ENSResolverABI, "addr", target), nil
	})
	client := NewCredentialClient("eth", fake, zap.NewNop())

	addr, err := client.ResolveENSAddress(context.Background(), "alice.eth")
	require.NoError(t, err)
	assert.Equal(t, target.Hex(), addr)

	addr, err = client.ResolveENSAddress(context.Background(), "nobody.eth")
	require.NoError(t, err)
	assert.Empty(t, addr)
}

func TestVerifyMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	message := []byte("hello")
	sig, err := eth.SignMessage(key, message)
	require.NoError(t, err)

	t.Run("eoa signer", func(t *testing.T) {
		client := NewCredentialClient("base", newFakeEthClient(), zap.NewNop())
		ok, err := client.VerifyMessage(context.Background(), signer.Hex(), message, sig)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong eoa", func(t *testing.T) {
		client := NewCredentialClient("base", newFakeEthClient(), zap.NewNop())
		ok, err := client.VerifyMessage(context.Background(), "0x3333333333333333333333333333333333333333", message, sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("smart contract wallet", func(t *testing.T) {
		wallet := common.HexToAddress("0x4444444444444444444444444444444444444444")
		fake := newFakeEthClient()
		fake.code[wallet] = []byte{0x60, 0x80}
		fake.handle(ERC1271ABI, "isValidSignature", func(to common.Address, args []interface{}) ([]byte, error) {
			assert.Equal(t, wallet, to)
			return pack(t, ERC1271ABI, "isValidSignature", erc1271MagicValue), nil
		})
		client := NewCredentialClient("base", fake, zap.NewNop())

		ok, err := client.VerifyMessage(context.Background(), wallet.Hex(), message, sig)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("code lookup fails", func(t *testing.T) {
		fake := newFakeEthClient()
		fake.codeErr = errors.New("timeout")
		client := NewCredentialClient("base", fake, zap.NewNop())

		_, err := client.VerifyMessage(context.Background(), "0x3333333333333333333333333333333333333333", message, sig)
		assert.ErrorIs(t, err, core.ErrNetwork)
	})
}
