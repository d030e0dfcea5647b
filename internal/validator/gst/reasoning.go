package gst

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"finguard/internal/domain"
	"finguard/internal/money"
	"finguard/internal/port"
	"finguard/internal/validator"
)

const (
	reasonerCheckID   = "B19"
	reasonerCheckName = "Complex GST Compliance Analysis"
	// maxReasonerConfidence keeps model verdicts below rule-based certainty.
	maxReasonerConfidence = 0.85
	unavailableConfidence = 0.5
	maxReasoningRunes     = 500
	maxLineItemsNoReason  = 3
)

var compositeKeywords = []string{"transport", "warehouse", "packing", "composite", "bundle"}

const reasonerQuestion = `Please analyze:
1. Is the HSN/SAC classification appropriate?
2. Is this a composite supply requiring special treatment?
3. Should Reverse Charge Mechanism apply?
4. Are there any GST compliance concerns?`

// NeedsReasoning reports whether the invoice is ambiguous enough to consult
// the reasoner: more than three lines, reverse charge, or a composite-supply
// keyword in any description.
func NeedsReasoning(inv *domain.Invoice) bool {
	if len(inv.LineItems) > maxLineItemsNoReason || inv.ReverseCharge {
		return true
	}
	for i := range inv.LineItems {
		desc := strings.ToLower(inv.LineItems[i].Description)
		for _, kw := range compositeKeywords {
			if strings.Contains(desc, kw) {
				return true
			}
		}
	}
	return false
}

// checkWithReasoner asks the reasoner for a verdict. The result is always
// flagged for review; an unavailable reasoner degrades to WARNING.
func (v *Validator) checkWithReasoner(ctx context.Context, inv *domain.Invoice) domain.CheckResult {
	if v.reasoner == nil {
		return unavailable("no reasoner configured")
	}

	regulations := v.regulationContext(ctx, inv)
	judgment, err := v.reasoner.Reason(ctx, port.ReasonInput{
		InvoiceSummary: InvoiceSummary(inv),
		RegulationText: regulations,
		Question:       reasonerQuestion,
	})
	if err != nil {
		v.logger.Warn("gst.Validator: reasoner failed",
			zap.String("invoice_id", inv.InvoiceNumber), zap.Error(err))
		return unavailable(err.Error())
	}
	if judgment == nil {
		return unavailable("empty judgment")
	}

	status := judgment.Status
	switch status {
	case domain.CheckPass, domain.CheckFail, domain.CheckWarning:
	default:
		status = domain.CheckWarning
	}
	confidence := judgment.Confidence
	if confidence > maxReasonerConfidence {
		confidence = maxReasonerConfidence
	}
	if confidence < 0 {
		confidence = 0
	}

	details := map[string]any{"model": judgment.ModelUsed}
	if regulations != "" {
		details["regulation_context"] = truncate(regulations, maxReasoningRunes)
	}
	return validator.NewCheck(reasonerCheckID, reasonerCheckName, status, domain.SeverityHigh, confidence,
		truncate(judgment.Reasoning, maxReasoningRunes)).Review().WithDetails(details)
}

func unavailable(cause string) domain.CheckResult {
	return validator.Warn(reasonerCheckID, reasonerCheckName, domain.SeverityHigh, unavailableConfidence,
		"reasoner unavailable: "+cause).Review()
}

func (v *Validator) regulationContext(ctx context.Context, inv *domain.Invoice) string {
	if v.retriever == nil {
		return ""
	}
	descs := make([]string, 0, len(inv.LineItems))
	for i := range inv.LineItems {
		descs = append(descs, inv.LineItems[i].Description)
	}
	text, err := v.retriever.Retrieve(ctx, "GST compliance for invoice with items: "+strings.Join(descs, ", "))
	if err != nil {
		v.logger.Warn("gst.Validator: regulation retrieval failed", zap.Error(err))
		return ""
	}
	return text
}

// InvoiceSummary renders the invoice facts the reasoner needs.
func InvoiceSummary(inv *domain.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice Details:\n")
	fmt.Fprintf(&b, "- Invoice Number: %s\n", inv.InvoiceNumber)
	fmt.Fprintf(&b, "- Seller GSTIN: %s\n", inv.Seller.GSTIN)
	fmt.Fprintf(&b, "- Buyer GSTIN: %s\n", inv.Buyer.GSTIN)
	fmt.Fprintf(&b, "- Invoice Date: %s\n", inv.InvoiceDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Total Amount: %s\n", money.Format(inv.TotalAmount))
	fmt.Fprintf(&b, "- Reverse Charge: %t\n\nLine Items:\n", inv.ReverseCharge)
	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		fmt.Fprintf(&b, "%d. %s - HSN/SAC: %s - Amount: %s\n", i+1, item.Description, item.HSNSAC, money.Format(item.Amount))
	}
	fmt.Fprintf(&b, "\nTax Applied:\n- CGST: %s\n- SGST: %s\n- IGST: %s\n",
		money.Format(inv.CGSTAmount), money.Format(inv.SGSTAmount), money.Format(inv.IGSTAmount))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
