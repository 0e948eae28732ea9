package mintpass

import (
	"context"

	"github.com/layer-3/mintpass/core"
)

// Challenge is the MintPass challenge configured for one community
type Challenge struct {
	config   core.Config
	verifier Verifier
}

// NewChallenge validates a community's raw options. Invalid options are a
// configuration error: the challenge cannot be set up for that community.
func NewChallenge(options map[string]string, verifier Verifier) (*Challenge, error) {
	cfg, err := core.ParseOptions(options)
	if err != nil {
		return nil, err
	}
	return &Challenge{config: cfg, verifier: verifier}, nil
}

// Config returns the validated options
func (c *Challenge) Config() core.Config {
	return c.config
}

// Descriptor returns the challenge type, description and option inputs
func (c *Challenge) Descriptor() core.ChallengeDescriptor {
	return core.Descriptor()
}

// Verify evaluates req. Author-specific failures are a Result with Success
// false; only configuration errors are returned as an error.
func (c *Challenge) Verify(ctx context.Context, req core.ChallengeRequest) (Result, error) {
	verdict, err := c.verifier.Verify(ctx, c.config, req)
	if err != nil {
		return Result{}, err
	}
	return Result{Success: verdict.Success, Error: verdict.Error}, nil
}
