package validator

import (
	"context"

	"finguard/internal/domain"
)

// Validator runs every check of one category against a normalized invoice.
// Implementations must be safe for concurrent use; per-run state is passed in
// at construction time.
type Validator interface {
	Category() string
	Name() string
	Validate(ctx context.Context, inv *domain.Invoice) []domain.CheckResult
}

type runIDKey struct{}

// WithRunID attaches the per-invoice run identifier to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run identifier stored in ctx, or "".
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
