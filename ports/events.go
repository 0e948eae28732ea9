package ports

import (
	"context"

	"github.com/layer-3/mintpass/core"
)

// VerdictPublisher publishes challenge verdicts to other services
type VerdictPublisher interface {
	PublishVerdict(ctx context.Context, verdict *core.Verdict) error
}
