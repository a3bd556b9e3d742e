package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicevault/internal/domain"
	"invoicevault/internal/service"
)

// MockIngestService is a mock implementation of service.IngestService.
type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) IngestSummary(ctx context.Context, data []byte, category domain.Category, opts service.IngestOptions) (*domain.RunReport, error) {
	args := m.Called(ctx, data, category, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunReport), args.Error(1)
}

func (m *MockIngestService) IngestFiles(ctx context.Context, paths []string, category domain.Category, opts service.IngestOptions) ([]*domain.RunReport, error) {
	args := m.Called(ctx, paths, category, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RunReport), args.Error(1)
}
