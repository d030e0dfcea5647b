package validator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"finguard/internal/domain"
	"finguard/internal/intake"
)

// DefaultConcurrency bounds in-flight invoices when the caller passes 0.
const DefaultConcurrency = 4

// BatchSummary rolls up the results of a batch run.
type BatchSummary struct {
	TotalInvoices         int                          `json:"total_invoices"`
	Successful            int                          `json:"successful"`
	Rejected              int                          `json:"rejected"`
	Escalated             int                          `json:"escalated"`
	TotalChecks           int                          `json:"total_checks"`
	PassedChecks          int                          `json:"passed_checks"`
	AverageConfidence     float64                      `json:"average_confidence"`
	AverageProcessingTime float64                      `json:"average_processing_time_ms"`
	StatusCounts          map[domain.OverallStatus]int `json:"status_counts"`
	Results               []*domain.ValidationResult   `json:"results"`
}

// ValidateBatch validates invoices with at most concurrency in flight. All
// invoices share one run, so duplicates and vendor aggregates are detected
// across the batch. Results keep input order.
func (e *Engine) ValidateBatch(ctx context.Context, raws []any, concurrency int) (*BatchSummary, error) {
	if len(raws) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	run := e.NewRun()
	results := make([]*domain.ValidationResult, len(raws))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	e.logger.Info("validator.Engine: batch started",
		zap.Int("invoices", len(raws)), zap.Int("concurrency", concurrency))
	start := time.Now()

	cancelled := 0
	for i := range raws {
		if ctx.Err() == nil {
			select {
			case sem <- struct{}{}: // acquire
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer func() { <-sem }() // release
					results[i] = run.Validate(ctx, raws[i])
				}(i)
				continue
			case <-ctx.Done():
			}
		}
		results[i] = e.cancelledResult(raws[i], ctx.Err())
		cancelled++
	}
	wg.Wait()
	if cancelled > 0 {
		e.logger.Warn("validator.Engine: batch cancelled before all invoices were dispatched",
			zap.Int("skipped", cancelled), zap.Error(ctx.Err()))
	}

	summary := Summarize(results)
	e.logger.Info("validator.Engine: batch complete",
		zap.Int("invoices", summary.TotalInvoices),
		zap.Int("escalated", summary.Escalated),
		zap.Int("rejected", summary.Rejected),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}

// cancelledResult stands in for an invoice the batch never dispatched.
func (e *Engine) cancelledResult(raw any, cause error) *domain.ValidationResult {
	res := e.aggregator.Rejected(intake.InvoiceID(raw), intake.TotalAmount(raw),
		[]string{"not validated: " + cause.Error()})
	res.EscalationReasons = []string{"batch cancelled before validation"}
	return res
}

// Summarize builds batch statistics from per-invoice results. Averages cover
// invoices that reached the category validators.
func Summarize(results []*domain.ValidationResult) *BatchSummary {
	s := &BatchSummary{
		TotalInvoices: len(results),
		StatusCounts:  make(map[domain.OverallStatus]int),
		Results:       results,
	}
	var confSum, timeSum float64
	for _, r := range results {
		if r == nil {
			continue
		}
		s.StatusCounts[r.OverallStatus]++
		if r.Escalated {
			s.Escalated++
		}
		timeSum += float64(r.ProcessingTimeMS)
		if r.OverallStatus == domain.OverallRejected {
			s.Rejected++
			continue
		}
		s.Successful++
		s.TotalChecks += r.TotalChecks
		s.PassedChecks += r.PassedChecks
		confSum += r.AverageConfidence
	}
	if s.Successful > 0 {
		s.AverageConfidence = confSum / float64(s.Successful)
	}
	if s.TotalInvoices > 0 {
		s.AverageProcessingTime = timeSum / float64(s.TotalInvoices)
	}
	return s
}
