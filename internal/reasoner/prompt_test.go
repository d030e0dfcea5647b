package reasoner_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finguard/internal/domain"
	"finguard/internal/port"
	"finguard/internal/reasoner"
)

func TestBuildPrompt(t *testing.T) {
	t.Run("with regulations", func(t *testing.T) {
		p := reasoner.BuildPrompt(port.ReasonInput{
			InvoiceSummary: "Invoice INV-1",
			RegulationText: "Section 9(3)",
			Question:       "Is reverse charge applicable?",
		})
		assert.Contains(t, p, "INVOICE:\nInvoice INV-1")
		assert.Contains(t, p, "RELEVANT REGULATIONS:\nSection 9(3)")
		assert.Contains(t, p, "QUESTION:\nIs reverse charge applicable?")
	})

	t.Run("without regulations", func(t *testing.T) {
		p := reasoner.BuildPrompt(port.ReasonInput{InvoiceSummary: "x", Question: "y"})
		assert.NotContains(t, p, "RELEVANT REGULATIONS")
	})
}

func TestParseJudgment(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		j, err := reasoner.ParseJudgment(`{"status":"FAIL","confidence":0.82,"reasoning":" RCM not declared. "}`, "m1")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckFail, j.Status)
		assert.InDelta(t, 0.82, j.Confidence, 1e-9)
		assert.Equal(t, "RCM not declared.", j.Reasoning)
		assert.Equal(t, "m1", j.ModelUsed)
	})

	t.Run("fenced json and lowercase status", func(t *testing.T) {
		j, err := reasoner.ParseJudgment("```json\n{\"status\":\"warning\",\"confidence\":1.4,\"reasoning\":\"unclear\"}\n```", "m1")
		require.NoError(t, err)
		assert.Equal(t, domain.CheckWarning, j.Status)
		assert.Equal(t, 1.0, j.Confidence)
	})

	t.Run("free text is rejected", func(t *testing.T) {
		_, err := reasoner.ParseJudgment("The invoice looks COMPLIANT to me.", "m1")
		assert.True(t, errors.Is(err, reasoner.ErrMalformedJudgment))
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := reasoner.ParseJudgment(`{"status":"MAYBE","confidence":0.5}`, "m1")
		assert.True(t, errors.Is(err, reasoner.ErrMalformedJudgment))
	})

	t.Run("missing confidence", func(t *testing.T) {
		_, err := reasoner.ParseJudgment(`{"status":"PASS","reasoning":"ok"}`, "m1")
		assert.True(t, errors.Is(err, reasoner.ErrMalformedJudgment))
	})
}
