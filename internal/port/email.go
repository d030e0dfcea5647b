package port

import (
	"context"

	"finguard/internal/domain"
)

// EscalationNotifier tells human reviewers that an invoice was escalated.
// Delivery is best-effort; callers log and ignore errors.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, result *domain.ValidationResult) error
}
