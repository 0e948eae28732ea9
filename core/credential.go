package core

import (
	"math/big"
	"time"
)

// CredentialToken is a MintPass NFT as read from the credential contract
type CredentialToken struct {
	TokenID   *big.Int // uint256 token id
	TokenType uint16   // credential type, e.g. 0 for SMS verification
	Owner     string   // wallet address holding the token
}

// CooldownRecord tracks the last author that used a token
type CooldownRecord struct {
	AuthorAddress string `json:"authorAddress"`
	Timestamp     int64  `json:"timestamp"` // unix seconds of the last accepted use
}

// VerificationPath names the branch of the challenge that produced a verdict
type VerificationPath string

const (
	PathWallet VerificationPath = "wallet"
	PathENS    VerificationPath = "ens"
)

// Verdict is the outcome of one challenge evaluation
type Verdict struct {
	ID                string           `json:"id"`
	Success           bool             `json:"success"`
	Error             string           `json:"error,omitempty"`
	Reason            string           `json:"reason,omitempty"` // taxonomy kind of the returned error
	Path              VerificationPath `json:"path,omitempty"`
	AuthorAddress     string           `json:"authorAddress"`
	SubplebbitAddress string           `json:"subplebbitAddress"`
	ChainTicker       string           `json:"chainTicker"`
	ContractAddress   string           `json:"contractAddress"`
	TokenID           string           `json:"tokenId,omitempty"`
	EvaluatedAt       time.Time        `json:"evaluatedAt"`
	Receipt           string           `json:"receipt,omitempty"`
}

// Receipt attests that a verdict succeeded
type Receipt struct {
	ID                string           // receipt identifier, equal to the verdict id
	AuthorAddress     string           // pseudonymous author that passed the challenge
	SubplebbitAddress string           // community the publication targeted
	ChainTicker       string           // chain the credential was checked on
	ContractAddress   string           // credential contract
	TokenID           string           // token that satisfied the challenge
	Path              VerificationPath // wallet or ens
	IssuedAt          time.Time
	ExpiresAt         time.Time
}
