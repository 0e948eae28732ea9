package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ENSRegistryAddress is the ENS registry, deployed at the same address on mainnet and testnets
var ENSRegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

// ENSChainTicker is the chain ENS names are resolved on
const ENSChainTicker = "eth"

// NormalizeENSName lower-cases and trims a name. Full UTS-46 normalization is
// not applied; names outside ASCII resolve only if already normalized.
func NormalizeENSName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsENSName reports whether name is a .eth domain
func IsENSName(name string) bool {
	name = NormalizeENSName(name)
	return len(name) > len(".eth") && strings.HasSuffix(name, ".eth")
}

// NameHash implements the ENS namehash algorithm (EIP-137)
func NameHash(name string) common.Hash {
	var node common.Hash
	name = NormalizeENSName(name)
	if name == "" {
		return node
	}

	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = common.BytesToHash(crypto.Keccak256(node.Bytes(), labelHash))
	}
	return node
}
