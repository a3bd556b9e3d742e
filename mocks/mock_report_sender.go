package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicevault/internal/domain"
)

// MockReportSender is a mock implementation of port.ReportSender.
type MockReportSender struct {
	mock.Mock
}

func (m *MockReportSender) SendRunReport(ctx context.Context, to []string, report *domain.RunReport) error {
	args := m.Called(ctx, to, report)
	return args.Error(0)
}
