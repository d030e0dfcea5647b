package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finguard/internal/domain"
	"finguard/internal/port"
)

// MockValidationRunRepository is a mock implementation of port.ValidationRunRepository.
type MockValidationRunRepository struct {
	mock.Mock
}

func (m *MockValidationRunRepository) Save(ctx context.Context, sellerGSTIN string, result *domain.ValidationResult) error {
	args := m.Called(ctx, sellerGSTIN, result)
	return args.Error(0)
}

func (m *MockValidationRunRepository) GetByRunID(ctx context.Context, runID string) (*domain.ValidationResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationResult), args.Error(1)
}

func (m *MockValidationRunRepository) ListRecent(ctx context.Context, offset, limit int) ([]domain.ValidationResult, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ValidationResult), args.Int(1), args.Error(2)
}

// MockDuplicateInvoiceFinder is a mock implementation of port.DuplicateInvoiceFinder.
type MockDuplicateInvoiceFinder struct {
	mock.Mock
}

func (m *MockDuplicateInvoiceFinder) FindPrior(ctx context.Context, sellerGSTIN, invoiceNumber string) ([]port.DuplicateMatch, error) {
	args := m.Called(ctx, sellerGSTIN, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.DuplicateMatch), args.Error(1)
}
