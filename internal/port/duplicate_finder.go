package port

import (
	"context"
	"time"
)

// DuplicateMatch describes an earlier validation run of the same invoice.
type DuplicateMatch struct {
	RunID       string    `db:"run_id"`
	ValidatedAt time.Time `db:"validated_at"`
	TotalAmount float64   `db:"total_amount"`
}

// DuplicateInvoiceFinder looks up prior runs with the same seller GSTIN and
// invoice number outside the current batch.
type DuplicateInvoiceFinder interface {
	FindPrior(ctx context.Context, sellerGSTIN, invoiceNumber string) ([]DuplicateMatch, error)
}
