package port

import (
	"context"

	"invoicevault/internal/domain"
)

// ReportSender delivers the outcome of an ingest run.
type ReportSender interface {
	SendRunReport(ctx context.Context, to []string, report *domain.RunReport) error
}
