package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig    = errors.New("invalid challenge options")
	ErrInvalidRequest   = errors.New("invalid challenge request")
	ErrClaimMissing     = errors.New("wallet claim missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStaleSignature   = errors.New("stale signature")
	ErrNetwork          = errors.New("rpc call failed")
	ErrStorage          = errors.New("store operation failed")
	ErrNotOwner         = errors.New("credential not owned")
	ErrCooldown         = errors.New("credential in cooldown")
	ErrBindingConflict  = errors.New("credential bound to another author")
	ErrNotENS           = errors.New("author address is not an ens name")
	ErrENSUnresolved    = errors.New("ens name does not resolve")
	ErrInvalidReceipt   = errors.New("invalid receipt")
)

// User-facing messages. Each verdict carries exactly one of these.
const (
	MsgInvalidRequest         = "The challenge request does not contain a publication"
	MsgWalletNotDefined       = "wallet address is not defined"
	MsgInvalidWalletAddress   = "Invalid wallet address format"
	MsgInvalidSignatureFormat = "Invalid wallet signature format"
	MsgInvalidSignature       = "The signature of the wallet is invalid"
	MsgStaleSignature         = "The wallet signature is older than a previously used signature for this wallet"
	MsgNetwork                = "Failed to check MintPass NFT ownership. Please try again."
	MsgStorage                = "Failed to record MintPass NFT usage. Please try again."
	MsgBindingConflict        = "This MintPass NFT is already bound to another author in this community."
	MsgNotENS                 = "Author address is not an ENS domain"
	MsgENSUnresolved          = "Author ENS name does not resolve to an address"
)

// VerificationError is a per-author failure. Message is safe to show to the
// author; Cause is kept for logs only.
type VerificationError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *VerificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *VerificationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// NewVerificationError builds a per-author failure of the given kind.
func NewVerificationError(kind error, message string, cause error) *VerificationError {
	return &VerificationError{Kind: kind, Message: message, Cause: cause}
}

// NetworkError maps any RPC failure to the single retry-suggesting message.
func NetworkError(cause error) *VerificationError {
	return NewVerificationError(ErrNetwork, MsgNetwork, cause)
}

// StorageError maps a store failure to a retry-suggesting message.
func StorageError(cause error) *VerificationError {
	return NewVerificationError(ErrStorage, MsgStorage, cause)
}

// CooldownError reports the wait in whole days, rounded up.
func CooldownError(cooldownSeconds int64) *VerificationError {
	days := (cooldownSeconds + 86399) / 86400
	return NewVerificationError(ErrCooldown, fmt.Sprintf(
		"This MintPass NFT was recently used by another author and is in a cooldown period. Please wait %d day(s) before using it with a different author.",
		days,
	), nil)
}

var reasons = []struct {
	kind error
	code string
}{
	{ErrInvalidConfig, "invalid_config"},
	{ErrInvalidRequest, "invalid_request"},
	{ErrClaimMissing, "claim_missing"},
	{ErrInvalidFormat, "invalid_format"},
	{ErrInvalidSignature, "invalid_signature"},
	{ErrStaleSignature, "stale_signature"},
	{ErrNetwork, "network"},
	{ErrStorage, "storage"},
	{ErrNotOwner, "not_owner"},
	{ErrCooldown, "cooldown"},
	{ErrBindingConflict, "binding_conflict"},
	{ErrNotENS, "not_ens"},
	{ErrENSUnresolved, "ens_unresolved"},
}

// Reason returns the stable taxonomy code of err, used in metrics and events
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.kind) {
			return r.code
		}
	}
	return "internal"
}

// UserMessage returns the author-facing sentence for err. Errors that are not
// verification errors never leak their text.
func UserMessage(err error) string {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return MsgNetwork
}

// ConfigError reports an unusable challenge option. It is fatal for the
// challenge, not a per-author failure.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
