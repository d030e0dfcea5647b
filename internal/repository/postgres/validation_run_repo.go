package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"finguard/internal/domain"
	"finguard/internal/port"
)

type validationRunRepo struct {
	db *sqlx.DB
}

// NewValidationRunRepo creates a new PostgreSQL-backed ValidationRunRepository.
func NewValidationRunRepo(db *sqlx.DB) port.ValidationRunRepository {
	return &validationRunRepo{db: db}
}

func (r *validationRunRepo) Save(ctx context.Context, sellerGSTIN string, result *domain.ValidationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("validationRunRepo.Save marshal: %w", err)
	}
	validatedAt := result.Timestamp
	if validatedAt.IsZero() {
		validatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO validation_runs (
			run_id, invoice_id, seller_gstin, overall_status, escalated,
			total_amount, average_confidence, result, validated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			overall_status = EXCLUDED.overall_status,
			escalated = EXCLUDED.escalated,
			average_confidence = EXCLUDED.average_confidence,
			result = EXCLUDED.result`,
		result.RunID, result.InvoiceID, strings.ToUpper(strings.TrimSpace(sellerGSTIN)),
		string(result.OverallStatus), result.Escalated,
		result.TotalAmount, result.AverageConfidence, payload, validatedAt)
	if err != nil {
		return fmt.Errorf("validationRunRepo.Save: %w", err)
	}
	return nil
}

func (r *validationRunRepo) GetByRunID(ctx context.Context, runID string) (*domain.ValidationResult, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload,
		"SELECT result FROM validation_runs WHERE run_id = $1", runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("validationRunRepo.GetByRunID: %w", err)
	}

	var result domain.ValidationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("validationRunRepo.GetByRunID decode: %w", err)
	}
	return &result, nil
}

func (r *validationRunRepo) ListRecent(ctx context.Context, offset, limit int) ([]domain.ValidationResult, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM validation_runs"); err != nil {
		return nil, 0, fmt.Errorf("validationRunRepo.ListRecent count: %w", err)
	}

	var payloads [][]byte
	err := r.db.SelectContext(ctx, &payloads,
		`SELECT result FROM validation_runs
		 ORDER BY validated_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("validationRunRepo.ListRecent: %w", err)
	}

	results := make([]domain.ValidationResult, 0, len(payloads))
	for _, p := range payloads {
		var res domain.ValidationResult
		if err := json.Unmarshal(p, &res); err != nil {
			return nil, 0, fmt.Errorf("validationRunRepo.ListRecent decode: %w", err)
		}
		results = append(results, res)
	}
	return results, total, nil
}
