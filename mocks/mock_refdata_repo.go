package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finguard/internal/domain"
)

// MockReferenceDataRepository is a mock implementation of port.ReferenceDataRepository.
type MockReferenceDataRepository struct {
	mock.Mock
}

func (m *MockReferenceDataRepository) LoadRates(ctx context.Context) ([]domain.RateEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RateEntry), args.Error(1)
}

func (m *MockReferenceDataRepository) LoadHSN(ctx context.Context) ([]domain.HSNEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HSNEntry), args.Error(1)
}

func (m *MockReferenceDataRepository) LoadVendors(ctx context.Context) ([]domain.Vendor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Vendor), args.Error(1)
}

func (m *MockReferenceDataRepository) UpsertRates(ctx context.Context, entries []domain.RateEntry) (int, error) {
	args := m.Called(ctx, entries)
	return args.Int(0), args.Error(1)
}

func (m *MockReferenceDataRepository) UpsertHSN(ctx context.Context, entries []domain.HSNEntry) (int, error) {
	args := m.Called(ctx, entries)
	return args.Int(0), args.Error(1)
}
