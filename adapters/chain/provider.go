package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/ports"
)

// DefaultRPCURLs are public endpoints used when no provider is configured for a chain
var DefaultRPCURLs = map[string]string{
	"eth":          "https://ethereum-rpc.publicnode.com",
	"sepolia":      "https://ethereum-sepolia-rpc.publicnode.com",
	"base":         "https://mainnet.base.org",
	"base-sepolia": "https://sepolia.base.org",
	"matic":        "https://polygon-rpc.com",
}

const defaultDialRetries = 2

// Provider resolves chain tickers to RPC endpoints and caches one client per endpoint
type Provider struct {
	dialer    EthClientDialer
	providers map[string][]string
	logger    *zap.Logger

	mu      sync.RWMutex
	clients map[string]*CredentialClient
	dials   singleflight.Group
}

// Compile-time interface compliance check
var _ ports.CredentialClientProvider = (*Provider)(nil)

// NewProvider creates a provider. providers maps a chain ticker to its
// configured RPC urls, the first one being used.
func NewProvider(dialer EthClientDialer, providers map[string][]string, logger *zap.Logger) *Provider {
	normalized := make(map[string][]string, len(providers))
	for ticker, urls := range providers {
		normalized[strings.ToLower(ticker)] = urls
	}
	return &Provider{
		dialer:    dialer,
		providers: normalized,
		logger:    logger,
		clients:   make(map[string]*CredentialClient),
	}
}

// ResolveRPCURL picks the endpoint for a chain: explicit override, then the
// configured provider list, then the public default.
func (p *Provider) ResolveRPCURL(chainTicker, rpcURL string) (string, error) {
	if rpcURL != "" {
		return rpcURL, nil
	}
	ticker := strings.ToLower(chainTicker)
	for _, url := range p.providers[ticker] {
		if url != "" {
			return url, nil
		}
	}
	if url, ok := DefaultRPCURLs[ticker]; ok {
		return url, nil
	}
	return "", core.ConfigError("no rpc endpoint known for chain %q", chainTicker)
}

// Client returns the credential client for a chain, dialing it on first use
func (p *Provider) Client(ctx context.Context, chainTicker, rpcURL string) (ports.CredentialClient, error) {
	url, err := p.ResolveRPCURL(chainTicker, rpcURL)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	client, ok := p.clients[url]
	p.mu.RUnlock()
	if ok {
		return client, nil
	}

	v, err, _ := p.dials.Do(url, func() (interface{}, error) {
		p.mu.RLock()
		existing, ok := p.clients[url]
		p.mu.RUnlock()
		if ok {
			return existing, nil
		}

		ethClient, err := p.dial(ctx, url)
		if err != nil {
			return nil, err
		}

		client := NewCredentialClient(strings.ToLower(chainTicker), ethClient, p.logger)
		p.mu.Lock()
		p.clients[url] = client
		p.mu.Unlock()

		p.logger.Info("connected to chain rpc",
			zap.String("chain", chainTicker),
			zap.String("url", url),
		)
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CredentialClient), nil
}

// Close closes every cached connection
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for url, client := range p.clients {
		client.client.Close()
		delete(p.clients, url)
	}
}

func (p *Provider) dial(ctx context.Context, url string) (EthClient, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second

	ethClient, err := backoff.RetryWithData(func() (EthClient, error) {
		return p.dialer.Dial(ctx, url)
	}, backoff.WithContext(backoff.WithMaxRetries(b, defaultDialRetries), ctx))
	if err != nil {
		p.logger.Warn("failed to dial chain rpc",
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, core.NetworkError(fmt.Errorf("dial %s: %w", url, err))
	}
	return ethClient, nil
}
