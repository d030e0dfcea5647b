package port

import (
	"context"

	"finguard/internal/domain"
)

// ValidationRunRepository persists validation results.
type ValidationRunRepository interface {
	Save(ctx context.Context, sellerGSTIN string, result *domain.ValidationResult) error
	GetByRunID(ctx context.Context, runID string) (*domain.ValidationResult, error)
	ListRecent(ctx context.Context, offset, limit int) ([]domain.ValidationResult, int, error)
}

// ReferenceDataRepository stores rate schedule, HSN master and vendor tables.
type ReferenceDataRepository interface {
	LoadRates(ctx context.Context) ([]domain.RateEntry, error)
	LoadHSN(ctx context.Context) ([]domain.HSNEntry, error)
	LoadVendors(ctx context.Context) ([]domain.Vendor, error)
	UpsertRates(ctx context.Context, entries []domain.RateEntry) (int, error)
	UpsertHSN(ctx context.Context, entries []domain.HSNEntry) (int, error)
}
