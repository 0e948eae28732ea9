package core

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Option names as declared by a community's challenge settings
const (
	OptionChainTicker             = "chainTicker"
	OptionContractAddress         = "contractAddress"
	OptionRequiredTokenType       = "requiredTokenType"
	OptionTransferCooldownSeconds = "transferCooldownSeconds"
	OptionBindToFirstAuthor       = "bindToFirstAuthor"
	OptionError                   = "error"
	OptionRPCURL                  = "rpcUrl"
)

const (
	DefaultChainTicker             = "base"
	DefaultRequiredTokenType       = "0"
	DefaultTransferCooldownSeconds = "604800" // 1 week
	DefaultBindToFirstAuthor       = "true"
	DefaultErrorTemplate           = "You need a MintPass NFT to post in this community. Visit https://mintpass.org/request/{authorAddress} to get verified."

	// AuthorAddressPlaceholder is substituted in the error template
	AuthorAddressPlaceholder = "{authorAddress}"
)

// Config is the validated form of a community's challenge options
type Config struct {
	ChainTicker       string
	ContractAddress   common.Address
	RequiredTokenType uint16
	TransferCooldown  time.Duration
	BindToFirstAuthor bool
	ErrorTemplate     string
	RPCURL            string // optional per-challenge override
}

// ParseOptions validates raw string options and applies defaults. Any error
// wraps ErrInvalidConfig: the challenge cannot run for this community.
func ParseOptions(options map[string]string) (Config, error) {
	get := func(name, def string) string {
		if v, ok := options[name]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		ChainTicker:   strings.ToLower(get(OptionChainTicker, DefaultChainTicker)),
		ErrorTemplate: get(OptionError, DefaultErrorTemplate),
	}

	contract := get(OptionContractAddress, "")
	if contract == "" {
		return Config{}, ConfigError("%s is required", OptionContractAddress)
	}
	if !common.IsHexAddress(contract) {
		return Config{}, ConfigError("%s %q is not a valid address", OptionContractAddress, contract)
	}
	cfg.ContractAddress = common.HexToAddress(contract)

	tokenType, err := strconv.ParseUint(get(OptionRequiredTokenType, DefaultRequiredTokenType), 10, 16)
	if err != nil {
		return Config{}, ConfigError("%s must be an integer between 0 and 65535", OptionRequiredTokenType)
	}
	cfg.RequiredTokenType = uint16(tokenType)

	cooldown, err := strconv.ParseInt(get(OptionTransferCooldownSeconds, DefaultTransferCooldownSeconds), 10, 64)
	if err != nil || cooldown < 0 {
		return Config{}, ConfigError("%s must be a non-negative integer", OptionTransferCooldownSeconds)
	}
	if cooldown > int64(time.Duration(1<<63-1)/time.Second) {
		return Config{}, ConfigError("%s is too large", OptionTransferCooldownSeconds)
	}
	cfg.TransferCooldown = time.Duration(cooldown) * time.Second

	switch strings.ToLower(get(OptionBindToFirstAuthor, DefaultBindToFirstAuthor)) {
	case "true":
		cfg.BindToFirstAuthor = true
	case "false":
		cfg.BindToFirstAuthor = false
	default:
		return Config{}, ConfigError("%s must be \"true\" or \"false\"", OptionBindToFirstAuthor)
	}

	if rpcURL := get(OptionRPCURL, ""); rpcURL != "" {
		u, err := url.Parse(rpcURL)
		if err != nil || u.Host == "" {
			return Config{}, ConfigError("%s %q is not a valid url", OptionRPCURL, rpcURL)
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return Config{}, ConfigError("%s scheme %q is not supported", OptionRPCURL, u.Scheme)
		}
		cfg.RPCURL = rpcURL
	}

	return cfg, nil
}

// CooldownSeconds returns the transfer cooldown in whole seconds
func (c Config) CooldownSeconds() int64 {
	return int64(c.TransferCooldown / time.Second)
}

// OwnershipMessage renders the community's error template for an author
func (c Config) OwnershipMessage(authorAddress string) string {
	return strings.ReplaceAll(c.ErrorTemplate, AuthorAddressPlaceholder, authorAddress)
}
