package core

import (
	"bytes"
	"encoding/json"
	"slices"
)

// WalletDomainSeparator namespaces wallet claims so a signature made for
// another purpose can never be presented as one.
const WalletDomainSeparator = "plebbit-author-wallet"

// WalletSignedFields is the exact, ordered field list a wallet claim must sign
var WalletSignedFields = []string{"domainSeparator", "authorAddress", "timestamp"}

// WalletMessage builds the canonical JSON message a wallet signs for an
// author. The declared field list must equal WalletSignedFields, order included.
func WalletMessage(signedFields []string, authorAddress string, timestamp int64) ([]byte, error) {
	if !slices.Equal(signedFields, WalletSignedFields) {
		return nil, NewVerificationError(ErrInvalidFormat, MsgInvalidSignatureFormat, nil)
	}

	values := map[string]any{
		"domainSeparator": WalletDomainSeparator,
		"authorAddress":   authorAddress,
		"timestamp":       timestamp,
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range signedFields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, field); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, values[field]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSON encodes v like JSON.stringify does: no HTML escaping, no newline.
func writeJSON(buf *bytes.Buffer, v any) error {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(out.Bytes(), []byte("\n")))
	return nil
}
