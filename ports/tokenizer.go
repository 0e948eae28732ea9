package ports

import "github.com/layer-3/mintpass/core"

// ReceiptTokenizer converts between verdict receipts and signed tokens
type ReceiptTokenizer interface {
	ReceiptToToken(receipt *core.Receipt) (string, error)
	TokenToReceipt(token string) (*core.Receipt, error)
}
