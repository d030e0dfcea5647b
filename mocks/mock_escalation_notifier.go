package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finguard/internal/domain"
)

// MockEscalationNotifier is a mock implementation of port.EscalationNotifier.
type MockEscalationNotifier struct {
	mock.Mock
}

func (m *MockEscalationNotifier) NotifyEscalation(ctx context.Context, result *domain.ValidationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}
