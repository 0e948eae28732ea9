package tokenizer

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/ports"
)

const (
	AudienceReceipt = "mintpass:receipt"
	Issuer          = "mintpass"

	DefaultReceiptTTL = 24 * time.Hour
)

// JWTTokenizer implements the ReceiptTokenizer interface using ES256 JWTs
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	ttl     time.Duration
}

// Compile-time interface compliance check
var _ ports.ReceiptTokenizer = (*JWTTokenizer)(nil)

// NewJWTTokenizer creates a new JWT tokenizer. A zero ttl selects DefaultReceiptTTL.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, ttl time.Duration) *JWTTokenizer {
	if ttl <= 0 {
		ttl = DefaultReceiptTTL
	}
	return &JWTTokenizer{signKey: signKey, ttl: ttl}
}

// TTL returns how long issued receipts stay valid
func (j *JWTTokenizer) TTL() time.Duration {
	return j.ttl
}

// ReceiptToToken signs a receipt. A zero ExpiresAt is filled from the ttl.
func (j *JWTTokenizer) ReceiptToToken(receipt *core.Receipt) (string, error) {
	expiresAt := receipt.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = receipt.IssuedAt.Add(j.ttl)
	}

	claims := ReceiptClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   receipt.AuthorAddress,
			ID:        receipt.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(receipt.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceReceipt},
		},
		Subplebbit: receipt.SubplebbitAddress,
		Chain:      receipt.ChainTicker,
		Contract:   receipt.ContractAddress,
		TokenID:    receipt.TokenID,
		Path:       string(receipt.Path),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign receipt: %w", err)
	}

	return signedToken, nil
}

// TokenToReceipt verifies a receipt token and returns the attested receipt
func (j *JWTTokenizer) TokenToReceipt(tokenStr string) (*core.Receipt, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ReceiptClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceReceipt), jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidReceipt, err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidReceipt
	}

	claims, ok := token.Claims.(*ReceiptClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims type", core.ErrInvalidReceipt)
	}

	receipt := &core.Receipt{
		ID:                claims.ID,
		AuthorAddress:     claims.Subject,
		SubplebbitAddress: claims.Subplebbit,
		ChainTicker:       claims.Chain,
		ContractAddress:   claims.Contract,
		TokenID:           claims.TokenID,
		Path:              core.VerificationPath(claims.Path),
		ExpiresAt:         claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		receipt.IssuedAt = claims.IssuedAt.Time
	}

	return receipt, nil
}
