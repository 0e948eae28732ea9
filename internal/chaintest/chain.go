// Package chaintest provides an in-memory credential chain for tests.
package chaintest

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/internal/eth"
	"github.com/layer-3/mintpass/ports"
)

// ErrUnavailable is the cause of every forced RPC failure
var ErrUnavailable = errors.New("rpc endpoint unavailable")

// Chain holds token ownership and ENS records for one chain
type Chain struct {
	mu      sync.Mutex
	tokens  map[string]core.CredentialToken // by token id
	ens     map[string]string
	failing bool
	calls   map[string]int
}

// Compile-time interface compliance check
var _ ports.CredentialClient = (*Chain)(nil)

func NewChain() *Chain {
	return &Chain{
		tokens: make(map[string]core.CredentialToken),
		ens:    make(map[string]string),
		calls:  make(map[string]int),
	}
}

// Mint assigns a token to owner, replacing any previous owner
func (c *Chain) Mint(owner string, tokenID int64, tokenType uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[big.NewInt(tokenID).String()] = core.CredentialToken{
		TokenID:   big.NewInt(tokenID),
		TokenType: tokenType,
		Owner:     common.HexToAddress(owner).Hex(),
	}
}

// Transfer moves an existing token to a new owner
func (c *Chain) Transfer(tokenID int64, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := big.NewInt(tokenID).String()
	token := c.tokens[key]
	token.Owner = common.HexToAddress(to).Hex()
	c.tokens[key] = token
}

// SetENS points name at address
func (c *Chain) SetENS(name, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ens[eth.NormalizeENSName(name)] = address
}

// SetFailing makes every RPC call fail with a network error
func (c *Chain) SetFailing(failing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing = failing
}

// Calls returns how many times method was called
func (c *Chain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *Chain) enter(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method]++
	if c.failing {
		return core.NetworkError(ErrUnavailable)
	}
	return nil
}

func (c *Chain) OwnsTokenType(ctx context.Context, contract, owner string, tokenType uint16) (bool, error) {
	tokens, err := c.owned("ownsTokenType", owner)
	if err != nil {
		return false, err
	}
	for _, token := range tokens {
		if token.TokenType == tokenType {
			return true, nil
		}
	}
	return false, nil
}

func (c *Chain) TokensOfOwner(ctx context.Context, contract, owner string) ([]core.CredentialToken, error) {
	return c.owned("tokensOfOwner", owner)
}

func (c *Chain) owned(method, owner string) ([]core.CredentialToken, error) {
	if err := c.enter(method); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	want := common.HexToAddress(owner).Hex()
	var tokens []core.CredentialToken
	for _, token := range c.tokens {
		if token.Owner == want {
			tokens = append(tokens, token)
		}
	}
	// descending, so callers cannot depend on enumeration order
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].TokenID.Cmp(tokens[j].TokenID) > 0 })
	return tokens, nil
}

func (c *Chain) ResolveENSAddress(ctx context.Context, name string) (string, error) {
	if err := c.enter("resolveENSAddress"); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ens[eth.NormalizeENSName(name)], nil
}

func (c *Chain) VerifyMessage(ctx context.Context, address string, message, signature []byte) (bool, error) {
	if err := c.enter("verifyMessage"); err != nil {
		return false, err
	}

	recovered, err := eth.RecoverAddress(message, signature)
	if err != nil {
		return false, nil
	}
	return strings.EqualFold(recovered.Hex(), address), nil
}

// Provider hands out chains by ticker
type Provider struct {
	mu       sync.Mutex
	chains   map[string]*Chain
	requests []string
}

// Compile-time interface compliance check
var _ ports.CredentialClientProvider = (*Provider)(nil)

func NewProvider(chains map[string]*Chain) *Provider {
	return &Provider{chains: chains}
}

func (p *Provider) Client(ctx context.Context, chainTicker, rpcURL string) (ports.CredentialClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, chainTicker+"|"+rpcURL)
	chain, ok := p.chains[chainTicker]
	if !ok {
		return nil, core.ConfigError("no rpc endpoint known for chain %q", chainTicker)
	}
	return chain, nil
}

// Requests returns every ticker|rpcUrl pair clients were requested for
func (p *Provider) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.requests...)
}

// Wallet is a secp256k1 key that signs wallet claims
type Wallet struct {
	Key     *ecdsa.PrivateKey
	Address string
}

func NewWallet() *Wallet {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &Wallet{Key: key, Address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

// Claim signs the canonical wallet message for authorAddress at timestamp
func (w *Wallet) Claim(authorAddress string, timestamp int64) core.WalletClaim {
	message, err := core.WalletMessage(core.WalletSignedFields, authorAddress, timestamp)
	if err != nil {
		panic(err)
	}
	sig, err := eth.SignMessage(w.Key, message)
	if err != nil {
		panic(err)
	}
	return core.WalletClaim{
		Address:   w.Address,
		Timestamp: timestamp,
		Signature: core.WalletSignature{
			Signature:        hexutil.Encode(sig),
			PublicKey:        hexutil.Encode(crypto.FromECDSAPub(&w.Key.PublicKey)),
			Type:             core.SignatureTypeEIP191,
			SignedFieldNames: append([]string(nil), core.WalletSignedFields...),
		},
	}
}

// Clock is a manually advanced clock
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Compile-time interface compliance check
var _ ports.Clock = (*Clock)(nil)

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
