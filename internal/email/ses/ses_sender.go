package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"invoicevault/internal/domain"
	"invoicevault/internal/port"
)

// EmailAPI is the subset of the SES v2 client used to send mail.
type EmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesSender struct {
	client      EmailAPI
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed ReportSender.
func NewSESSender(region, fromAddress, fromName string) (port.ReportSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return NewSESSenderWith(sesv2.NewFromConfig(cfg), fromAddress, fromName), nil
}

// NewSESSenderWith creates a ReportSender over an existing client.
func NewSESSenderWith(client EmailAPI, fromAddress, fromName string) port.ReportSender {
	return &sesSender{client: client, fromAddress: fromAddress, fromName: fromName}
}

func (s *sesSender) SendRunReport(ctx context.Context, to []string, report *domain.RunReport) error {
	if len(to) == 0 {
		return nil
	}

	subject := Subject(report)
	htmlBody := buildReportHTML(report)
	textBody := buildReportText(report)

	from := s.fromAddress
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

// Subject is the mail subject for a run.
func Subject(r *domain.RunReport) string {
	status := "ok"
	if r.Failed > 0 {
		status = fmt.Sprintf("%d failed", r.Failed)
	}
	dry := ""
	if r.DryRun {
		dry = " (dry run)"
	}
	return fmt.Sprintf("[invoicevault] %s ingest%s: %d/%d loaded, %s", r.Category, dry, r.Loaded, r.Declared, status)
}

func buildReportText(r *domain.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", r.RunID)
	fmt.Fprintf(&b, "Summary: %s\nCustomer: %s\n\n", r.SummaryRef, r.CustomerEmail)
	fmt.Fprintf(&b, "Declared %d, extracted %d, validated %d, loaded %d, failed %d\n",
		r.Declared, r.Extracted, r.Validated, r.Loaded, r.Failed)
	fmt.Fprintf(&b, "%d downloaded, %d cached\n", r.FetchedRemote, r.FetchedCached)
	if len(r.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "  %d [%s] %s\n", f.OrderID, f.Stage, f.Error)
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}
	return b.String()
}

func buildReportHTML(r *domain.RunReport) string {
	var rows strings.Builder
	for _, f := range r.Failures {
		fmt.Fprintf(&rows, `
      <tr><td>%d</td><td>%s</td><td>%s</td></tr>`, f.OrderID, html.EscapeString(string(f.Stage)), html.EscapeString(f.Error))
	}
	failures := ""
	if rows.Len() > 0 {
		failures = fmt.Sprintf(`
  <h3 style="color: #b91c1c;">Failures</h3>
  <table style="border-collapse: collapse; width: 100%%;" border="1" cellpadding="6">
    <thead><tr><th>Order ID</th><th>Stage</th><th>Error</th></tr></thead>
    <tbody>%s
    </tbody>
  </table>`, rows.String())
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 700px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">%s ingest run</h2>
  <p style="color: #666;">Run %s<br>Summary: %s<br>Customer: %s</p>
  <table style="border-collapse: collapse;" cellpadding="4">
    <tr><td>Declared</td><td>%d</td></tr>
    <tr><td>Extracted</td><td>%d</td></tr>
    <tr><td>Validated</td><td>%d</td></tr>
    <tr><td>Loaded</td><td>%d</td></tr>
    <tr><td>Failed</td><td>%d</td></tr>
    <tr><td>Downloaded / cached</td><td>%d / %d</td></tr>
  </table>%s
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">invoicevault</p>
</body>
</html>`,
		html.EscapeString(string(r.Category)), r.RunID,
		html.EscapeString(r.SummaryRef), html.EscapeString(r.CustomerEmail),
		r.Declared, r.Extracted, r.Validated, r.Loaded, r.Failed,
		r.FetchedRemote, r.FetchedCached, failures)
}
