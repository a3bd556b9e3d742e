package noop

import (
	"context"
	"strings"

	"invoicevault/internal/domain"
	"invoicevault/internal/logger"
	"invoicevault/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a ReportSender that only logs the report it would
// have sent.
func NewNoopSender() port.ReportSender {
	return &noopSender{}
}

func (s *noopSender) SendRunReport(_ context.Context, to []string, report *domain.RunReport) error {
	log := logger.WithComponent("email")
	log.Info().
		Str("to", strings.Join(to, ",")).
		Str("run_id", report.RunID.String()).
		Str("category", string(report.Category)).
		Int("loaded", report.Loaded).
		Int("failed", report.Failed).
		Msg("[NOOP EMAIL] run report")
	return nil
}
