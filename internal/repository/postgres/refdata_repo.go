package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"finguard/internal/domain"
	"finguard/internal/port"
)

type refDataRepo struct {
	db *sqlx.DB
}

// NewRefDataRepo creates a new PostgreSQL-backed ReferenceDataRepository.
func NewRefDataRepo(db *sqlx.DB) port.ReferenceDataRepository {
	return &refDataRepo{db: db}
}

func (r *refDataRepo) LoadRates(ctx context.Context) ([]domain.RateEntry, error) {
	var entries []domain.RateEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT hsn_sac_code, description, rate_cgst, rate_sgst, rate_igst, effective_from, effective_to
		 FROM gst_rates
		 ORDER BY hsn_sac_code, effective_from`)
	if err != nil {
		return nil, fmt.Errorf("refDataRepo.LoadRates: %w", err)
	}
	return entries, nil
}

func (r *refDataRepo) LoadHSN(ctx context.Context) ([]domain.HSNEntry, error) {
	var entries []domain.HSNEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT code, description, gst_rate, is_service
		 FROM hsn_codes
		 ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("refDataRepo.LoadHSN: %w", err)
	}
	return entries, nil
}

// LoadVendors returns nil when the table is empty, which the registry treats
// as "not loaded".
func (r *refDataRepo) LoadVendors(ctx context.Context) ([]domain.Vendor, error) {
	var vendors []domain.Vendor
	err := r.db.SelectContext(ctx, &vendors,
		`SELECT vendor_id, gstin, legal_name, pan, state, status,
		        composition_scheme, msme_registered, resident_status, vendor_type,
		        suspension_date, suspension_reason
		 FROM vendors
		 ORDER BY vendor_id`)
	if err != nil {
		return nil, fmt.Errorf("refDataRepo.LoadVendors: %w", err)
	}
	return vendors, nil
}

func (r *refDataRepo) UpsertRates(ctx context.Context, entries []domain.RateEntry) (int, error) {
	query := `
		INSERT INTO gst_rates (
			hsn_sac_code, description, rate_cgst, rate_sgst, rate_igst, effective_from, effective_to
		) VALUES (
			:hsn_sac_code, :description, :rate_cgst, :rate_sgst, :rate_igst, :effective_from, :effective_to
		)
		ON CONFLICT (hsn_sac_code, effective_from) DO UPDATE SET
			description = EXCLUDED.description,
			rate_cgst = EXCLUDED.rate_cgst,
			rate_sgst = EXCLUDED.rate_sgst,
			rate_igst = EXCLUDED.rate_igst,
			effective_to = EXCLUDED.effective_to`
	return upsertAll(ctx, r.db, "refDataRepo.UpsertRates", query, entries)
}

func (r *refDataRepo) UpsertHSN(ctx context.Context, entries []domain.HSNEntry) (int, error) {
	query := `
		INSERT INTO hsn_codes (code, description, gst_rate, is_service)
		VALUES (:code, :description, :gst_rate, :is_service)
		ON CONFLICT (code) DO UPDATE SET
			description = EXCLUDED.description,
			gst_rate = EXCLUDED.gst_rate,
			is_service = EXCLUDED.is_service`
	return upsertAll(ctx, r.db, "refDataRepo.UpsertHSN", query, entries)
}

// upsertAll runs query for every entry in one transaction.
func upsertAll[T any](ctx context.Context, db *sqlx.DB, op, query string, entries []T) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s begin: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s prepare: %w", op, err)
	}
	defer stmt.Close()

	for i := range entries {
		if _, err := stmt.ExecContext(ctx, entries[i]); err != nil {
			return 0, fmt.Errorf("%s row %d: %w", op, i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s commit: %w", op, err)
	}
	return len(entries), nil
}
