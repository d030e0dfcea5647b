package noop

import (
	"context"

	"go.uber.org/zap"

	"finguard/internal/domain"
	"finguard/internal/port"
)

type noopNotifier struct {
	logger *zap.Logger
}

// NewNoopNotifier creates an EscalationNotifier that only logs escalations.
func NewNoopNotifier(logger *zap.Logger) port.EscalationNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &noopNotifier{logger: logger}
}

func (n *noopNotifier) NotifyEscalation(_ context.Context, result *domain.ValidationResult) error {
	n.logger.Info("noop.Notifier: invoice escalated",
		zap.String("run_id", result.RunID),
		zap.String("invoice_id", result.InvoiceID),
		zap.String("status", string(result.OverallStatus)),
		zap.Strings("reasons", result.EscalationReasons),
	)
	return nil
}
