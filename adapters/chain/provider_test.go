package chain

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/layer-3/mintpass/core"
)

type fakeDialer struct {
	dials atomic.Int32
	err   error
	urls  sync.Map
}

func (d *fakeDialer) Dial(ctx context.Context, rawurl string) (EthClient, error) {
	d.dials.Add(1)
	d.urls.Store(rawurl, true)
	if d.err != nil {
		return nil, d.err
	}
	return newFakeEthClient(), nil
}

func TestResolveRPCURL(t *testing.T) {
	provider := NewProvider(&fakeDialer{}, map[string][]string{
		"Base":  {"https://base.example.org", "https://base-backup.example.org"},
		"local": {"", "http://localhost:8545"},
	}, zap.NewNop())

	tests := []struct {
		name     string
		ticker   string
		override string
		expected string
		wantErr  bool
	}{
		{name: "override wins", ticker: "base", override: "https://override.example.org", expected: "https://override.example.org"},
		{name: "configured provider", ticker: "base", expected: "https://base.example.org"},
		{name: "skips empty entries", ticker: "local", expected: "http://localhost:8545"},
		{name: "public default", ticker: "eth", expected: DefaultRPCURLs["eth"]},
		{name: "unknown chain", ticker: "sol", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := provider.ResolveRPCURL(tt.ticker, tt.override)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, url)
		})
	}
}

func TestProviderCachesClients(t *testing.T) {
	dialer := &fakeDialer{}
	provider := NewProvider(dialer, nil, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := provider.Client(ctx, "base", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	first, err := provider.Client(ctx, "base", "")
	require.NoError(t, err)
	second, err := provider.Client(ctx, "base", "")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), dialer.dials.Load())

	_, err = provider.Client(ctx, "base", "https://override.example.org")
	require.NoError(t, err)
	assert.Equal(t, int32(2), dialer.dials.Load())

	provider.Close()
	assert.Empty(t, provider.clients)
}

func TestProviderDialFailure(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("no route to host")}
	provider := NewProvider(dialer, nil, zap.NewNop())

	_, err := provider.Client(context.Background(), "base", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNetwork)
	assert.Equal(t, int32(defaultDialRetries+1), dialer.dials.Load())
}
