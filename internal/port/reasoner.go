package port

import (
	"context"

	"finguard/internal/domain"
)

// ReasonInput is the prompt context handed to the ambiguous-case reasoner.
type ReasonInput struct {
	InvoiceSummary string
	RegulationText string
	Question       string
}

// Judgment is the structured verdict returned by a reasoner.
type Judgment struct {
	Status     domain.CheckStatus `json:"status"`
	Confidence float64            `json:"confidence"`
	Reasoning  string             `json:"reasoning"`
	ModelUsed  string             `json:"-"`
}

// Reasoner judges invoices the rule checks cannot settle on their own.
type Reasoner interface {
	Reason(ctx context.Context, input ReasonInput) (*Judgment, error)
}

// RegulationRetriever returns regulation text relevant to a query.
type RegulationRetriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}
