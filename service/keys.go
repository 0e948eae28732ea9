package service

import (
	"math/big"
	"strings"
)

// Store key namespaces
const (
	walletTimestampNamespace = "wallet-timestamp"
	cooldownNamespace        = "cooldown"
	bindingNamespace         = "binding"
)

func walletTimestampKey(chainTicker, address string) string {
	return walletTimestampNamespace + ":" + strings.ToLower(chainTicker) + ":" + strings.ToLower(address)
}

func cooldownKey(contract string, tokenID *big.Int) string {
	return cooldownNamespace + ":" + strings.ToLower(contract) + ":" + tokenID.String()
}

func bindingKey(subplebbit, contract string, tokenID *big.Int) string {
	return bindingNamespace + ":" + subplebbit + ":" + strings.ToLower(contract) + ":" + tokenID.String()
}
