package validator_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finguard/internal/aggregate"
	"finguard/internal/domain"
	"finguard/internal/history"
	"finguard/internal/intake"
	"finguard/internal/port"
	"finguard/internal/validator"
	"finguard/mocks"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type stubValidator struct {
	category string
	panics   bool
}

func (s stubValidator) Category() string { return s.category }
func (s stubValidator) Name() string     { return "stub " + s.category }

func (s stubValidator) Validate(ctx context.Context, _ *domain.Invoice) []domain.CheckResult {
	if s.panics {
		panic("boom")
	}
	c := validator.Pass(s.category+"1", "stub", domain.SeverityLow, 1.0, validator.RunIDFrom(ctx))
	return []domain.CheckResult{c}
}

func stubSuite(panicking ...string) validator.Suite {
	return func(*history.RunState) *validator.Registry {
		r := validator.NewRegistry()
		for _, id := range domain.CategoryOrder {
			s := stubValidator{category: id}
			for _, p := range panicking {
				if p == id {
					s.panics = true
				}
			}
			r.Register(s)
		}
		return r
	}
}

func record(number string) map[string]any {
	doc := fmt.Sprintf(`{
		"invoice_number": %q,
		"invoice_date": "2025-05-20",
		"vendor": {"name": "Acme Supplies Pvt Ltd", "gstin": "27AABCA1234B1Z5"},
		"buyer": {"name": "Buyer Industries Ltd", "gstin": "27AABCU9603R1ZM"},
		"line_items": [{"description": "Office chairs", "hsn_code": "9401", "quantity": 10, "rate": 5000, "amount": 50000}],
		"subtotal": 50000,
		"cgst_amount": 4500,
		"sgst_amount": 4500,
		"total_tax": 9000,
		"total_amount": 59000
	}`, number)
	var m map[string]any
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		panic(err)
	}
	return m
}

func newEngine(suite validator.Suite, notifier port.EscalationNotifier, runs port.ValidationRunRepository) *validator.Engine {
	return validator.NewEngine(
		intake.NewValidator(func() time.Time { return fixedNow }),
		suite,
		aggregate.New(aggregate.DefaultThresholds()),
		notifier, runs, nil,
	)
}

func TestEngine_Validate(t *testing.T) {
	runs := new(mocks.MockValidationRunRepository)
	runs.On("Save", mock.Anything, "27AABCA1234B1Z5", mock.AnythingOfType("*domain.ValidationResult")).Return(nil)
	notifier := new(mocks.MockEscalationNotifier)

	res := newEngine(stubSuite(), notifier, runs).Validate(context.Background(), record("INV-1"))

	require.NotNil(t, res)
	assert.Equal(t, "INV-1", res.InvoiceID)
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.CategoryResults, 6)
	assert.Equal(t, 6, res.TotalChecks)
	assert.Equal(t, domain.OverallPass, res.OverallStatus)
	assert.False(t, res.Escalated)
	assert.Equal(t, res.RunID, res.CategoryResults[domain.CategoryGST].Checks[0].Reasoning, "run id reaches validators")

	runs.AssertExpectations(t)
	notifier.AssertNotCalled(t, "NotifyEscalation", mock.Anything, mock.Anything)
}

func TestEngine_RejectedAtIntake(t *testing.T) {
	runs := new(mocks.MockValidationRunRepository)
	runs.On("Save", mock.Anything, "", mock.Anything).Return(nil)
	notifier := new(mocks.MockEscalationNotifier)
	notifier.On("NotifyEscalation", mock.Anything, mock.Anything).Return(errors.New("ses down"))

	raw := record("INV-BAD")
	raw["line_items"] = []any{}
	res := newEngine(stubSuite(), notifier, runs).Validate(context.Background(), raw)

	assert.Equal(t, domain.OverallRejected, res.OverallStatus)
	assert.Equal(t, "INV-BAD", res.InvoiceID)
	assert.Empty(t, res.CategoryResults)
	assert.NotEmpty(t, res.IntakeErrors)
	assert.True(t, res.Escalated, "notifier failure does not change the result")
	notifier.AssertExpectations(t)
	runs.AssertExpectations(t)
}

func TestEngine_NonObjectInput(t *testing.T) {
	res := newEngine(stubSuite(), nil, nil).Validate(context.Background(), []any{"not", "an", "invoice"})
	assert.Equal(t, domain.OverallRejected, res.OverallStatus)
	assert.Empty(t, res.InvoiceID)
}

func TestEngine_PanickingCategory(t *testing.T) {
	res := newEngine(stubSuite(domain.CategoryTDS), nil, nil).Validate(context.Background(), record("INV-2"))

	require.Len(t, res.CategoryResults, 6)
	tds := res.CategoryResults[domain.CategoryTDS]
	require.Len(t, tds.Checks, 1)
	c := tds.Checks[0]
	assert.Equal(t, "D.ERR", c.CheckID)
	assert.Equal(t, domain.CheckFail, c.Status)
	assert.Equal(t, domain.SeverityCritical, c.Severity)
	assert.Equal(t, 0.0, c.Confidence)
	assert.True(t, c.RequiresReview)
	assert.True(t, c.IsCategoryError())
	assert.Equal(t, "category validator crashed: boom", c.Reasoning)

	assert.Equal(t, domain.CheckPass, res.CategoryResults[domain.CategoryGST].Checks[0].Status)
	assert.True(t, res.RequiresReview)
	assert.Equal(t, domain.OverallFail, res.OverallStatus)
	assert.Equal(t, 1, res.FailedChecks)
	assert.True(t, res.Escalated)
	assert.Contains(t, res.EscalationReasons, "1 category validator(s) did not complete")

	t.Run("crash in GST on a clean record", func(t *testing.T) {
		res := newEngine(stubSuite(domain.CategoryGST), nil, nil).Validate(context.Background(), record("INV-3"))
		assert.NotEqual(t, domain.OverallPass, res.OverallStatus)
		assert.Equal(t, domain.CheckFail, res.CategoryResults[domain.CategoryGST].Checks[0].Status)
	})
}

func TestEngine_SameInvoiceNumberDifferentData(t *testing.T) {
	e := newEngine(stubSuite(), nil, nil)
	ctx := context.Background()

	valid := e.Validate(ctx, record("INV-SAME"))

	tampered := record("INV-SAME")
	tampered["subtotal"] = "not a number"
	broken := e.Validate(ctx, tampered)

	assert.Equal(t, valid.InvoiceID, broken.InvoiceID)
	assert.Equal(t, domain.OverallPass, valid.OverallStatus)
	assert.Equal(t, domain.OverallRejected, broken.OverallStatus)
	assert.NotEqual(t, valid.TotalChecks, broken.TotalChecks)
}

func TestEngine_ValidateBatch(t *testing.T) {
	e := newEngine(stubSuite(), nil, nil)

	t.Run("empty batch", func(t *testing.T) {
		_, err := e.ValidateBatch(context.Background(), nil, 2)
		assert.ErrorIs(t, err, domain.ErrEmptyBatch)
	})

	t.Run("results keep input order", func(t *testing.T) {
		raws := make([]any, 0, 12)
		for i := 0; i < 12; i++ {
			raws = append(raws, record(fmt.Sprintf("INV-%02d", i)))
		}
		bad := record("INV-BAD")
		delete(bad, "buyer")
		raws = append(raws, bad)

		summary, err := e.ValidateBatch(context.Background(), raws, 3)
		require.NoError(t, err)
		require.Len(t, summary.Results, 13)
		for i := 0; i < 12; i++ {
			assert.Equal(t, fmt.Sprintf("INV-%02d", i), summary.Results[i].InvoiceID)
		}
		assert.Equal(t, 13, summary.TotalInvoices)
		assert.Equal(t, 12, summary.Successful)
		assert.Equal(t, 1, summary.Rejected)
		assert.Equal(t, 72, summary.TotalChecks)
		assert.Equal(t, 12, summary.StatusCounts[domain.OverallPass])

		ids := map[string]bool{}
		for _, r := range summary.Results {
			ids[r.RunID] = true
		}
		assert.Len(t, ids, 13, "every invoice gets its own run id")
	})

	t.Run("cancelled batch still reports every invoice", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		raws := []any{record("INV-A"), record("INV-B"), record("INV-C")}
		summary, err := e.ValidateBatch(ctx, raws, 1)
		require.NoError(t, err)
		require.Len(t, summary.Results, 3)
		assert.Equal(t, 3, summary.Rejected)
		for i, res := range summary.Results {
			require.NotNil(t, res)
			assert.Equal(t, fmt.Sprintf("INV-%c", 'A'+i), res.InvoiceID)
			assert.Equal(t, domain.OverallRejected, res.OverallStatus)
			assert.Equal(t, []string{"batch cancelled before validation"}, res.EscalationReasons)
			assert.Empty(t, res.CategoryResults)
		}
	})
}
