package tokenizer

import "github.com/golang-jwt/jwt/v5"

// ReceiptClaims combines standard claims with the verdict being attested.
// The subject is the author address, the id the verdict id.
type ReceiptClaims struct {
	jwt.RegisteredClaims
	Subplebbit string `json:"sub_addr"`
	Chain      string `json:"chain"`
	Contract   string `json:"contract"`
	TokenID    string `json:"tid,omitempty"`
	Path       string `json:"path"`
}
