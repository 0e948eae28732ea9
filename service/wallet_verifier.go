package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/layer-3/mintpass/core"
	"github.com/layer-3/mintpass/ports"
)

// WalletVerifier checks that a wallet claim was signed by the claimed wallet
// for the author presenting it
type WalletVerifier struct {
	logger *zap.Logger
}

func NewWalletVerifier(logger *zap.Logger) *WalletVerifier {
	return &WalletVerifier{logger: logger}
}

// Verify returns the author's claim for chainTicker once its signature checks out
func (v *WalletVerifier) Verify(ctx context.Context, client ports.CredentialClient, author core.Author, chainTicker string) (core.WalletClaim, error) {
	claim, ok := author.Wallet(chainTicker)
	if !ok || claim.Address == "" {
		return core.WalletClaim{}, core.NewVerificationError(core.ErrClaimMissing, core.MsgWalletNotDefined, nil)
	}
	if !common.IsHexAddress(claim.Address) {
		return core.WalletClaim{}, core.NewVerificationError(core.ErrInvalidFormat, core.MsgInvalidWalletAddress, nil)
	}
	if claim.Signature.Type != core.SignatureTypeEIP191 {
		return core.WalletClaim{}, core.NewVerificationError(core.ErrInvalidFormat, core.MsgInvalidSignatureFormat, nil)
	}

	message, err := core.WalletMessage(claim.Signature.SignedFieldNames, author.Address, claim.Timestamp)
	if err != nil {
		return core.WalletClaim{}, err
	}

	signature, err := hexutil.Decode(claim.Signature.Signature)
	if err != nil {
		return core.WalletClaim{}, core.NewVerificationError(core.ErrInvalidFormat, core.MsgInvalidSignatureFormat, err)
	}

	valid, err := client.VerifyMessage(ctx, claim.Address, message, signature)
	if err != nil {
		return core.WalletClaim{}, err
	}
	if !valid {
		v.logger.Debug("wallet signature rejected",
			zap.String("author", author.Address),
			zap.String("wallet", claim.Address),
		)
		return core.WalletClaim{}, core.NewVerificationError(core.ErrInvalidSignature, core.MsgInvalidSignature, nil)
	}

	return claim, nil
}
