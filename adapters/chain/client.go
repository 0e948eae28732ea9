package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/internal/eth"
	"github.com/layer-3/mintpass/ports"
)

// tokenInfo mirrors the TokenInfo struct returned by tokensOfOwner
type tokenInfo struct {
	TokenId   *big.Int
	TokenType uint16
}

// CredentialClient reads MintPass state from one RPC endpoint
type CredentialClient struct {
	chainTicker string
	client      EthClient
	logger      *zap.Logger
}

// Compile-time interface compliance check
var _ ports.CredentialClient = (*CredentialClient)(nil)

// NewCredentialClient creates a credential client over an Ethereum client
func NewCredentialClient(chainTicker string, client EthClient, logger *zap.Logger) *CredentialClient {
	return &CredentialClient{
		chainTicker: chainTicker,
		client:      client,
		logger:      logger,
	}
}

// OwnsTokenType calls ownsTokenType(address,uint16) on the MintPass contract
func (c *CredentialClient) OwnsTokenType(ctx context.Context, contract, owner string, tokenType uint16) (bool, error) {
	results, err := c.call(ctx, MintPassABI, common.HexToAddress(contract), "ownsTokenType", common.HexToAddress(owner), tokenType)
	if err != nil {
		return false, err
	}

	owns, ok := results[0].(bool)
	if !ok {
		return false, c.networkError("ownsTokenType", fmt.Errorf("unexpected result type %T", results[0]))
	}
	return owns, nil
}

// TokensOfOwner calls tokensOfOwner(address) on the MintPass contract
func (c *CredentialClient) TokensOfOwner(ctx context.Context, contract, owner string) ([]core.CredentialToken, error) {
	results, err := c.call(ctx, MintPassABI, common.HexToAddress(contract), "tokensOfOwner", common.HexToAddress(owner))
	if err != nil {
		return nil, err
	}

	infos := *abi.ConvertType(results[0], new([]tokenInfo)).(*[]tokenInfo)
	tokens := make([]core.CredentialToken, 0, len(infos))
	for _, info := range infos {
		tokens = append(tokens, core.CredentialToken{
			TokenID:   info.TokenId,
			TokenType: info.TokenType,
			Owner:     owner,
		})
	}
	return tokens, nil
}

// ResolveENSAddress resolves name through the ENS registry and its resolver
func (c *CredentialClient) ResolveENSAddress(ctx context.Context, name string) (string, error) {
	node := eth.NameHash(name)

	results, err := c.call(ctx, ENSRegistryABI, eth.ENSRegistryAddress, "resolver", node)
	if err != nil {
		return "", err
	}
	resolver, ok := results[0].(common.Address)
	if !ok {
		return "", c.networkError("resolver", fmt.Errorf("unexpected result type %T", results[0]))
	}
	if resolver == (common.Address{}) {
		return "", nil
	}

	results, err = c.call(ctx, ENSResolverABI, resolver, "addr", node)
	if err != nil {
		return "", err
	}
	addr, ok := results[0].(common.Address)
	if !ok {
		return "", c.networkError("addr", fmt.Errorf("unexpected result type %T", results[0]))
	}
	if addr == (common.Address{}) {
		return "", nil
	}
	return addr.Hex(), nil
}

// VerifyMessage checks an EIP-191 signature. When the recovered signer is not
// address and address is a contract, the contract is asked via ERC-1271.
func (c *CredentialClient) VerifyMessage(ctx context.Context, address string, message, signature []byte) (bool, error) {
	expected := common.HexToAddress(address)

	recovered, err := eth.RecoverAddress(message, signature)
	if err == nil && recovered == expected {
		return true, nil
	}

	code, err := c.client.CodeAt(ctx, expected, nil)
	if err != nil {
		return false, c.networkError("eth_getCode", err)
	}
	if len(code) == 0 {
		return false, nil
	}

	var hash [32]byte
	copy(hash[:], eth.HashMessage(message))
	results, err := c.call(ctx, ERC1271ABI, expected, "isValidSignature", hash, signature)
	if err != nil {
		// a reverting wallet contract rejects the signature
		c.logger.Debug("isValidSignature call failed",
			zap.String("chain", c.chainTicker),
			zap.String("address", address),
			zap.Error(err),
		)
		return false, nil
	}
	magic, ok := results[0].([4]byte)
	return ok && magic == erc1271MagicValue, nil
}

// call packs, executes and unpacks a read-only contract call
func (c *CredentialClient) call(ctx context.Context, contractABI abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	output, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &to,
		Data: data,
	}, nil)
	if err != nil {
		return nil, c.networkError(method, err)
	}

	results, err := contractABI.Unpack(method, output)
	if err != nil {
		return nil, c.networkError(method, fmt.Errorf("failed to unpack result: %w", err))
	}
	if len(results) == 0 {
		return nil, c.networkError(method, fmt.Errorf("empty result"))
	}
	return results, nil
}

func (c *CredentialClient) networkError(method string, err error) error {
	c.logger.Warn("credential rpc call failed",
		zap.String("chain", c.chainTicker),
		zap.String("method", method),
		zap.Error(err),
	)
	return core.NetworkError(fmt.Errorf("%s on %s: %w", method, c.chainTicker, err))
}
