package reasoner

import (
	"encoding/json"
	"fmt"
	"strings"

	"finguard/internal/domain"
	"finguard/internal/port"
)

// SystemPrompt fixes the role and the output contract for every provider.
const SystemPrompt = `You are an Indian GST compliance reviewer. You judge whether an invoice complies with GST law using only the invoice and the regulation excerpts you are given.

Return ONLY a JSON object with no markdown formatting and no code fences:
{"status": "PASS" | "FAIL" | "WARNING", "confidence": <number between 0 and 1>, "reasoning": "<at most three sentences>"}

Use WARNING when the excerpts do not settle the question.`

// BuildPrompt renders the user message for one reasoning request.
func BuildPrompt(in port.ReasonInput) string {
	var b strings.Builder
	b.WriteString("INVOICE:\n")
	b.WriteString(in.InvoiceSummary)
	b.WriteString("\n\n")
	if in.RegulationText != "" {
		b.WriteString("RELEVANT REGULATIONS:\n")
		b.WriteString(in.RegulationText)
		b.WriteString("\n\n")
	}
	b.WriteString("QUESTION:\n")
	b.WriteString(in.Question)
	return b.String()
}

type judgmentJSON struct {
	Status     string   `json:"status"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// ParseJudgment decodes a provider's text output into a judgment. Code fences
// are tolerated; an unknown status or a missing confidence is an error.
func ParseJudgment(text, model string) (*port.Judgment, error) {
	text = stripFences(text)

	var raw judgmentJSON
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v (raw: %s)", ErrMalformedJudgment, err, truncate(text, 500))
	}

	var status domain.CheckStatus
	switch strings.ToUpper(strings.TrimSpace(raw.Status)) {
	case "PASS", "COMPLIANT":
		status = domain.CheckPass
	case "FAIL", "NON_COMPLIANT":
		status = domain.CheckFail
	case "WARNING", "WARN", "UNCLEAR":
		status = domain.CheckWarning
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrMalformedJudgment, raw.Status)
	}
	if raw.Confidence == nil {
		return nil, fmt.Errorf("%w: missing confidence", ErrMalformedJudgment)
	}

	conf := *raw.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return &port.Judgment{
		Status:     status,
		Confidence: conf,
		Reasoning:  strings.TrimSpace(raw.Reasoning),
		ModelUsed:  model,
	}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
