package provisioning

import (
	"context"

	"go.uber.org/zap"

	"github.com/hearthhq/hearth/internal/domain/model"
)

// NoopDispatcher logs jobs instead of enqueuing them.
// Use in development or when Redis is not configured.
type NoopDispatcher struct {
	logger *zap.Logger
}

// NewNoopDispatcher creates a NoopDispatcher backed by the given logger.
func NewNoopDispatcher(logger *zap.Logger) *NoopDispatcher {
	return &NoopDispatcher{logger: logger}
}

// Dispatch logs the would-be job and returns nil.
func (d *NoopDispatcher) Dispatch(_ context.Context, claim *model.Claim, kind string) error {
	d.logger.Info("provisioning job (noop — not enqueued)",
		zap.String("hostname", claim.Hostname),
		zap.String("kind", kind),
	)
	return nil
}
