package mintpass

import (
	"context"

	"github.com/layer-3/mintpass/core"
)

// Verifier evaluates challenge requests; *service.ChallengeService implements it
type Verifier interface {
	// Verify returns the verdict for req, or an error when the options cannot run at all
	Verify(ctx context.Context, cfg core.Config, req core.ChallengeRequest) (*core.Verdict, error)
}

// Result is what the publishing transport receives for one challenge request
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
