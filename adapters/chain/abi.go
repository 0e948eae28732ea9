package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const mintPassABIJSON = `[
	{"inputs":[{"name":"owner","type":"address"},{"name":"tokenType","type":"uint16"}],"name":"ownsTokenType","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"owner","type":"address"}],"name":"tokensOfOwner","outputs":[{"components":[{"name":"tokenId","type":"uint256"},{"name":"tokenType","type":"uint16"}],"name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"}
]`

const ensRegistryABIJSON = `[{"inputs":[{"name":"node","type":"bytes32"}],"name":"resolver","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}]`

const ensResolverABIJSON = `[{"inputs":[{"name":"node","type":"bytes32"}],"name":"addr","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}]`

const erc1271ABIJSON = `[{"inputs":[{"name":"hash","type":"bytes32"},{"name":"signature","type":"bytes"}],"name":"isValidSignature","outputs":[{"name":"magicValue","type":"bytes4"}],"stateMutability":"view","type":"function"}]`

// erc1271MagicValue is returned by isValidSignature for a valid signature
var erc1271MagicValue = [4]byte{0x16, 0x26, 0xba, 0x7e}

var (
	MintPassABI    = mustParseABI(mintPassABIJSON)
	ENSRegistryABI = mustParseABI(ensRegistryABIJSON)
	ENSResolverABI = mustParseABI(ensResolverABIJSON)
	ERC1271ABI     = mustParseABI(erc1271ABIJSON)
)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return parsed
}
