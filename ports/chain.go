package ports

import (
	"context"

	"github.com/layer-3/mintpass/core"
)

// CredentialClient reads credential state from one chain. Every RPC failure
// is returned as a core.ErrNetwork verification error.
type CredentialClient interface {
	// OwnsTokenType reports whether owner holds at least one token of tokenType
	OwnsTokenType(ctx context.Context, contract, owner string, tokenType uint16) (bool, error)

	// TokensOfOwner lists every token held by owner
	TokensOfOwner(ctx context.Context, contract, owner string) ([]core.CredentialToken, error)

	// ResolveENSAddress returns the address a name points to, or "" when unset
	ResolveENSAddress(ctx context.Context, name string) (string, error)

	// VerifyMessage checks an EIP-191 signature, including smart-contract wallets
	VerifyMessage(ctx context.Context, address string, message, signature []byte) (bool, error)
}

// CredentialClientProvider returns a client bound to the endpoint resolved for
// a chain ticker: rpcURL override, then configured providers, then public default.
type CredentialClientProvider interface {
	Client(ctx context.Context, chainTicker, rpcURL string) (CredentialClient, error)
}
