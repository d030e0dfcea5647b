package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finguard/internal/domain"
)

func TestNewCategoryResult_Name(t *testing.T) {
	assert.Equal(t, "GST Compliance", domain.NewCategoryResult(domain.CategoryGST, nil).CategoryName)
	assert.Equal(t, "Z", domain.NewCategoryResult("Z", nil).CategoryName)
}

func TestValidationResult_Categories(t *testing.T) {
	res := &domain.ValidationResult{CategoryResults: map[string]*domain.CategoryResult{
		"Z":                       domain.NewCategoryResult("Z", nil),
		domain.CategoryVendor:     domain.NewCategoryResult(domain.CategoryVendor, nil),
		domain.CategoryDocument:   domain.NewCategoryResult(domain.CategoryDocument, nil),
		domain.CategoryArithmetic: domain.NewCategoryResult(domain.CategoryArithmetic, nil),
	}}

	var ids []string
	for _, cr := range res.Categories() {
		ids = append(ids, cr.Category)
	}
	assert.Equal(t, []string{"A", "C", "F", "Z"}, ids)
}

func TestCategoryResult_JSON(t *testing.T) {
	cr := domain.NewCategoryResult(domain.CategoryArithmetic, []domain.CheckResult{
		{CheckID: "C1", Status: domain.CheckPass, Confidence: 1.0},
		{CheckID: "C2", Status: domain.CheckFail, Confidence: 0.5},
		{CheckID: "C3", Status: domain.CheckWarning, Confidence: 0.9},
	})

	data, err := json.Marshal(cr)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 1.0, raw["passed"])
	assert.Equal(t, 1.0, raw["failed"])
	assert.Equal(t, 1.0, raw["warnings"])
	assert.InDelta(t, 0.8, raw["average_confidence"], 1e-9)

	t.Run("derived fields are recomputed on decode", func(t *testing.T) {
		tampered := []byte(`{"category":"C","category_name":"Arithmetic & Calculation","passed":9,` +
			`"checks":[{"check_id":"C1","status":"FAIL","confidence":0.4}]}`)
		var back domain.CategoryResult
		require.NoError(t, json.Unmarshal(tampered, &back))
		assert.Equal(t, 0, back.Passed())
		assert.Equal(t, 1, back.Failed())
		assert.InDelta(t, 0.4, back.AverageConfidence(), 1e-9)
	})
}

func TestValidationResult_CriticalIssuesAndConflicts(t *testing.T) {
	critical := domain.CheckResult{CheckID: "A5", Status: domain.CheckFail, Severity: domain.SeverityCritical}
	res := &domain.ValidationResult{
		CategoryResults: map[string]*domain.CategoryResult{
			domain.CategoryDocument: domain.NewCategoryResult(domain.CategoryDocument, []domain.CheckResult{
				critical,
				{CheckID: "A1", Status: domain.CheckPass, Severity: domain.SeverityCritical},
			}),
		},
		PassedChecks: 1,
		FailedChecks: 1,
	}

	issues := res.CriticalIssues()
	require.Len(t, issues, 1)
	assert.Equal(t, "A5", issues[0].CheckID)
	assert.True(t, res.HasConflicts())
}

func TestCheckResult_CopyHelpers(t *testing.T) {
	c := domain.CheckResult{CheckID: "B1"}
	reviewed := c.Review().WithDetails(map[string]any{"gstin": "27AABCU9603R1ZM"})

	assert.False(t, c.RequiresReview)
	assert.Nil(t, c.Details)
	assert.True(t, reviewed.RequiresReview)
	assert.Equal(t, "27AABCU9603R1ZM", reviewed.Details["gstin"])
}
