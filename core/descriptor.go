package core

// OptionInput describes one challenge option for community admin tooling
type OptionInput struct {
	Option      string `json:"option"`
	Label       string `json:"label"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// ChallengeDescriptor is the static description of the challenge
type ChallengeDescriptor struct {
	Type         string        `json:"type"`
	Description  string        `json:"description"`
	OptionInputs []OptionInput `json:"optionInputs"`
}

// Descriptor returns the MintPass challenge description
func Descriptor() ChallengeDescriptor {
	return ChallengeDescriptor{
		Type:        "text/plain",
		Description: "Verify that the author holds a MintPass NFT.",
		OptionInputs: []OptionInput{
			{
				Option:      OptionChainTicker,
				Label:       "Chain Ticker",
				Default:     DefaultChainTicker,
				Description: "The chain the MintPass contract is deployed on.",
				Placeholder: "base",
			},
			{
				Option:      OptionContractAddress,
				Label:       "Contract Address",
				Description: "The MintPass NFT contract address.",
				Placeholder: "0x...",
				Required:    true,
			},
			{
				Option:      OptionRequiredTokenType,
				Label:       "Required Token Type",
				Default:     DefaultRequiredTokenType,
				Description: "The token type the author must hold (0 = SMS verification).",
				Placeholder: "0",
			},
			{
				Option:      OptionTransferCooldownSeconds,
				Label:       "Transfer Cooldown Seconds",
				Default:     DefaultTransferCooldownSeconds,
				Description: "How long a token stays unusable by a different author after it was used.",
				Placeholder: "604800",
			},
			{
				Option:      OptionBindToFirstAuthor,
				Label:       "Bind To First Author",
				Default:     DefaultBindToFirstAuthor,
				Description: "Permanently bind each token to the first author that uses it in this community.",
				Placeholder: "true",
			},
			{
				Option:      OptionError,
				Label:       "Error",
				Default:     DefaultErrorTemplate,
				Description: "The error shown to authors without a MintPass NFT. {authorAddress} is replaced.",
			},
			{
				Option:      OptionRPCURL,
				Label:       "RPC URL",
				Description: "Optional RPC endpoint overriding the configured chain provider.",
				Placeholder: "https://mainnet.base.org",
			},
		},
	}
}
