package suite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finguard/internal/aggregate"
	"finguard/internal/domain"
	"finguard/internal/domain/domaintest"
	"finguard/internal/intake"
	"finguard/internal/refdata"
	"finguard/internal/validator"
	"finguard/internal/validator/suite"
)

func newEngine() *validator.Engine {
	acme := domain.Vendor{
		VendorID: "V-001", GSTIN: domaintest.SellerGSTIN, LegalName: "Acme Supplies Pvt Ltd",
		PAN: "AABCA1234B", State: "Maharashtra", Status: domain.VendorActive,
	}
	store := refdata.NewStore(nil, nil, nil, []domain.Vendor{acme}, nil)
	s := suite.New(suite.Config{Store: store, CompanyGSTIN: domaintest.CompanyGSTIN, Clock: domaintest.Clock})
	return validator.NewEngine(intake.NewValidator(domaintest.Clock), s, aggregate.New(aggregate.DefaultThresholds()), nil, nil, nil)
}

func find(res *domain.ValidationResult, category, id string) *domain.CheckResult {
	cr, ok := res.CategoryResults[category]
	if !ok {
		return nil
	}
	return domaintest.Find(cr.Checks, id)
}

func TestSuite_AllCategoriesRun(t *testing.T) {
	res := newEngine().NewRun().ValidateInvoice(context.Background(), domaintest.Invoice())

	require.Len(t, res.CategoryResults, 6)
	for _, id := range domain.CategoryOrder {
		cr := res.CategoryResults[id]
		require.NotNil(t, cr, id)
		assert.NotEmpty(t, cr.Checks, id)
		assert.Equal(t, domain.CategoryNames[id], cr.CategoryName)
	}
	assert.Len(t, res.CategoryResults[domain.CategoryDocument].Checks, 8)
	assert.Len(t, res.CategoryResults[domain.CategoryArithmetic].Checks, 4)
	assert.Len(t, res.CategoryResults[domain.CategoryTDS].Checks, 12)
	assert.Len(t, res.CategoryResults[domain.CategoryPolicy].Checks, 6)
	assert.Len(t, res.CategoryResults[domain.CategoryVendor].Checks, 4)
	assert.Equal(t, res.TotalChecks, len(res.AllChecks()))
}

func TestSuite_DuplicateWithinRun(t *testing.T) {
	run := newEngine().NewRun()
	ctx := context.Background()

	first := run.ValidateInvoice(ctx, domaintest.Invoice())
	assert.Equal(t, domain.CheckPass, find(first, domain.CategoryDocument, "A2").Status)
	assert.Equal(t, domain.CheckPass, find(first, domain.CategoryPolicy, "E5").Status, "own record is not a duplicate")

	second := run.ValidateInvoice(ctx, domaintest.Invoice())
	assert.Equal(t, domain.CheckFail, find(second, domain.CategoryDocument, "A2").Status)
	e5 := find(second, domain.CategoryPolicy, "E5")
	assert.Equal(t, domain.CheckFail, e5.Status)
	assert.Equal(t, first.RunID, e5.Details["previous_run_id"])
	assert.True(t, second.Escalated)
	assert.NotEmpty(t, second.CriticalIssues())
}

func TestSuite_RunsAreIsolated(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	e.NewRun().ValidateInvoice(ctx, domaintest.Invoice())
	res := e.NewRun().ValidateInvoice(ctx, domaintest.Invoice())
	assert.Equal(t, domain.CheckPass, find(res, domain.CategoryDocument, "A2").Status)
}

func TestSuite_SameInvoiceNumberDifferentData(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	valid := e.NewRun().ValidateInvoice(ctx, domaintest.Invoice())

	tampered := domaintest.Invoice()
	tampered.SGSTAmount = 8000
	tampered.TotalTax = 17000
	tampered.TotalAmount = 117000
	altered := e.NewRun().ValidateInvoice(ctx, tampered)

	require.Equal(t, valid.InvoiceID, altered.InvoiceID)
	assert.Equal(t, domain.CheckPass, find(valid, domain.CategoryGST, "B7.3").Status)
	assert.Equal(t, domain.CheckFail, find(altered, domain.CategoryGST, "B7.3").Status)
	assert.Greater(t, altered.FailedChecks, valid.FailedChecks)
	assert.Equal(t, domain.OverallFail, altered.OverallStatus)
}
