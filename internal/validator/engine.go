package validator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"finguard/internal/aggregate"
	"finguard/internal/domain"
	"finguard/internal/history"
	"finguard/internal/intake"
	"finguard/internal/port"
)

// Suite builds a registry whose validators share the history of one batch run.
type Suite func(state *history.RunState) *Registry

// Engine orchestrates invoice validation: intake, normalization, concurrent
// category fan-out, aggregation and the post-run side effects.
type Engine struct {
	intake     *intake.Validator
	suite      Suite
	aggregator *aggregate.Aggregator
	notifier   port.EscalationNotifier
	runs       port.ValidationRunRepository
	logger     *zap.Logger
}

// NewEngine creates a new validation engine. notifier and runs may be nil.
func NewEngine(
	intakeValidator *intake.Validator,
	suite Suite,
	aggregator *aggregate.Aggregator,
	notifier port.EscalationNotifier,
	runs port.ValidationRunRepository,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		intake:     intakeValidator,
		suite:      suite,
		aggregator: aggregator,
		notifier:   notifier,
		runs:       runs,
		logger:     logger,
	}
}

// Run is one batch run: a registry plus the duplicate and aggregate history
// shared by every invoice validated through it.
type Run struct {
	engine   *Engine
	state    *history.RunState
	registry *Registry
}

// NewRun starts a run with empty history.
func (e *Engine) NewRun() *Run {
	state := history.NewRunState()
	return &Run{engine: e, state: state, registry: e.suite(state)}
}

// Validate runs a single invoice in its own run.
func (e *Engine) Validate(ctx context.Context, raw any) *domain.ValidationResult {
	return e.NewRun().Validate(ctx, raw)
}

// Validate runs one raw invoice record through the whole pipeline. It never
// returns nil: intake failures yield a REJECTED result.
func (r *Run) Validate(ctx context.Context, raw any) *domain.ValidationResult {
	e := r.engine
	start := time.Now()
	runID := uuid.New().String()

	result, sellerGSTIN := r.evaluate(WithRunID(ctx, runID), raw)
	result.RunID = runID
	result.ProcessingTimeMS = time.Since(start).Milliseconds()

	e.logger.Info("validator.Engine: invoice validated",
		zap.String("run_id", runID),
		zap.String("invoice_id", result.InvoiceID),
		zap.String("status", string(result.OverallStatus)),
		zap.Int("checks", result.TotalChecks),
		zap.Int("failed", result.FailedChecks),
		zap.Bool("escalated", result.Escalated),
		zap.Int64("ms", result.ProcessingTimeMS),
	)

	e.afterValidation(ctx, sellerGSTIN, result)
	return result
}

// ValidateInvoice runs an already-normalized invoice, skipping intake.
func (r *Run) ValidateInvoice(ctx context.Context, inv *domain.Invoice) *domain.ValidationResult {
	start := time.Now()
	runID := uuid.New().String()
	result := r.engine.aggregator.Aggregate(inv.InvoiceNumber, inv.TotalAmount, r.runCategories(WithRunID(ctx, runID), inv))
	result.RunID = runID
	result.ProcessingTimeMS = time.Since(start).Milliseconds()
	r.engine.afterValidation(ctx, inv.Seller.GSTIN, result)
	return result
}

func (r *Run) evaluate(ctx context.Context, raw any) (*domain.ValidationResult, string) {
	e := r.engine
	id := intake.InvoiceID(raw)
	total := intake.TotalAmount(raw)

	if ok, errs := e.intake.Validate(raw); !ok {
		e.logger.Warn("validator.Engine: intake rejected invoice",
			zap.String("invoice_id", id), zap.Strings("errors", errs))
		return e.aggregator.Rejected(id, total, errs), ""
	}

	m, _ := raw.(map[string]any)
	inv, err := intake.Normalize(m)
	if err != nil {
		return e.aggregator.Rejected(id, total, []string{err.Error()}), ""
	}

	categories := r.runCategories(ctx, inv)
	return e.aggregator.Aggregate(inv.InvoiceNumber, inv.TotalAmount, categories), inv.Seller.GSTIN
}

// runCategories executes every category concurrently. A panicking category
// becomes a single critical failure notice; the other categories still run.
func (r *Run) runCategories(ctx context.Context, inv *domain.Invoice) map[string]*domain.CategoryResult {
	validators := r.registry.All()
	out := make(map[string]*domain.CategoryResult, len(validators))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, v := range validators {
		wg.Add(1)
		go func(v Validator) {
			defer wg.Done()
			cr := r.runCategory(ctx, v, inv)
			mu.Lock()
			out[v.Category()] = cr
			mu.Unlock()
		}(v)
	}
	wg.Wait()
	return out
}

func (r *Run) runCategory(ctx context.Context, v Validator, inv *domain.Invoice) (cr *domain.CategoryResult) {
	defer func() {
		if p := recover(); p != nil {
			r.engine.logger.Error("validator.Engine: category validator panicked",
				zap.String("category", v.Category()),
				zap.String("invoice_id", inv.InvoiceNumber),
				zap.Any("panic", p),
			)
			cr = domain.NewCategoryResult(v.Category(), []domain.CheckResult{CrashedCheck(v.Category(), p)})
		}
	}()
	return domain.NewCategoryResult(v.Category(), v.Validate(ctx, inv))
}

// CrashedCheck is the notice recorded for a category that could not complete.
// It counts as a critical failure so the invoice can never pass without it.
func CrashedCheck(category string, cause any) domain.CheckResult {
	return Fail(category+domain.CategoryErrorSuffix, "Category Validator Error", domain.SeverityCritical, 0,
		fmt.Sprintf("category validator crashed: %v", cause)).Review()
}

// afterValidation persists the run and notifies reviewers. Both are
// best-effort and never change the result.
func (e *Engine) afterValidation(ctx context.Context, sellerGSTIN string, result *domain.ValidationResult) {
	if e.runs != nil {
		if err := e.runs.Save(ctx, sellerGSTIN, result); err != nil {
			e.logger.Error("validator.Engine: failed to persist run",
				zap.String("run_id", result.RunID), zap.Error(err))
		}
	}
	if e.notifier != nil && result.Escalated {
		if err := e.notifier.NotifyEscalation(ctx, result); err != nil {
			e.logger.Warn("validator.Engine: escalation notification failed",
				zap.String("run_id", result.RunID), zap.Error(err))
		}
	}
}
