package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finguard/internal/domain"
	"finguard/internal/report"
	"finguard/internal/service"
	"finguard/internal/validator"
)

// MockValidationService is a mock implementation of service.ValidationService.
type MockValidationService struct {
	mock.Mock
}

func (m *MockValidationService) Validate(ctx context.Context, raw any) *domain.ValidationResult {
	args := m.Called(ctx, raw)
	return args.Get(0).(*domain.ValidationResult)
}

func (m *MockValidationService) ValidateBatch(ctx context.Context, raws []any) (*validator.BatchSummary, error) {
	args := m.Called(ctx, raws)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validator.BatchSummary), args.Error(1)
}

func (m *MockValidationService) ValidateObject(ctx context.Context, uri string) (*validator.BatchSummary, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validator.BatchSummary), args.Error(1)
}

func (m *MockValidationService) GetRun(ctx context.Context, runID string) (*domain.ValidationResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationResult), args.Error(1)
}

func (m *MockValidationService) ListRuns(ctx context.Context, offset, limit int) ([]domain.ValidationResult, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ValidationResult), args.Int(1), args.Error(2)
}

func (m *MockValidationService) PublishReport(ctx context.Context, summary *validator.BatchSummary, format report.Format) (*service.ReportLocation, error) {
	args := m.Called(ctx, summary, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReportLocation), args.Error(1)
}
