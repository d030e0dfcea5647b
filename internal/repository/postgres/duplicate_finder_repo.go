package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"finguard/internal/port"
)

type duplicateFinderRepo struct {
	db *sqlx.DB
}

// NewDuplicateFinderRepo creates a new PostgreSQL-backed DuplicateInvoiceFinder.
func NewDuplicateFinderRepo(db *sqlx.DB) port.DuplicateInvoiceFinder {
	return &duplicateFinderRepo{db: db}
}

func (r *duplicateFinderRepo) FindPrior(ctx context.Context, sellerGSTIN, invoiceNumber string) ([]port.DuplicateMatch, error) {
	var matches []port.DuplicateMatch
	err := r.db.SelectContext(ctx, &matches, `
		SELECT run_id, validated_at, total_amount
		FROM validation_runs
		WHERE seller_gstin = $1
		  AND invoice_id = $2
		  AND overall_status <> 'REJECTED'
		ORDER BY validated_at DESC
		LIMIT 5`,
		strings.ToUpper(strings.TrimSpace(sellerGSTIN)), strings.TrimSpace(invoiceNumber),
	)
	if err != nil {
		return nil, fmt.Errorf("duplicateFinderRepo.FindPrior: %w", err)
	}
	return matches, nil
}
