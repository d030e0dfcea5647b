package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finguard/internal/port"
)

// MockReasoner is a mock implementation of port.Reasoner.
type MockReasoner struct {
	mock.Mock
}

func (m *MockReasoner) Reason(ctx context.Context, input port.ReasonInput) (*port.Judgment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.Judgment), args.Error(1)
}

// MockRegulationRetriever is a mock implementation of port.RegulationRetriever.
type MockRegulationRetriever struct {
	mock.Mock
}

func (m *MockRegulationRetriever) Retrieve(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}
