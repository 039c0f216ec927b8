package notify

import (
	"context"

	"go.uber.org/zap"
)

// NoopNotifier logs notices to zap instead of delivering them.
// Use in development or when SMTP is not configured.
type NoopNotifier struct {
	logger *zap.Logger
}

// NewNoopNotifier creates a NoopNotifier backed by the given logger.
func NewNoopNotifier(logger *zap.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

// DomainSecured logs the notice and returns nil.
func (n *NoopNotifier) DomainSecured(_ context.Context, to, hostname, previousHostname string) error {
	n.logger.Info("notification (noop — not sent)",
		zap.String("to", to),
		zap.String("hostname", hostname),
		zap.String("previous_hostname", previousHostname),
	)
	return nil
}
