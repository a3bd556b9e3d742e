// Package report exports ingest run reports as CSV, XLSX, YAML or JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"invoicevault/internal/domain"
)

// Format is an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name, case-insensitively. "yml" is YAML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, xlsx, yaml or json)", s)
	}
}

// BOM is written ahead of CSV output so spreadsheet tools detect UTF-8.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// runColumns is the header of the run table.
var runColumns = []string{
	"Run ID",
	"Category",
	"Summary",
	"Customer Email",
	"Started At",
	"Finished At",
	"Dry Run",
	"Declared",
	"Extracted",
	"Validated",
	"Loaded",
	"Failed",
	"Downloaded",
	"Cached",
	"Warnings",
}

var failureColumns = []string{"Run ID", "Order ID", "Stage", "Error"}

const (
	runsSheet     = "Runs"
	failuresSheet = "Failures"
)

// Export writes reports to w in the given format.
func Export(w io.Writer, format Format, reports []*domain.RunReport) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, reports)
	case FormatXLSX:
		return WriteXLSX(w, reports)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteCSV writes one row per run, preceded by the BOM and a header row.
func WriteCSV(w io.Writer, reports []*domain.RunReport) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(runColumns); err != nil {
		return err
	}
	for _, r := range reports {
		if err := cw.Write(runToRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a Runs sheet and a Failures sheet listing
// every rejected order.
func WriteXLSX(w io.Writer, reports []*domain.RunReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), runsSheet); err != nil {
		return fmt.Errorf("naming runs sheet: %w", err)
	}
	if _, err := f.NewSheet(failuresSheet); err != nil {
		return fmt.Errorf("creating failures sheet: %w", err)
	}

	runRows := make([][]string, 0, len(reports)+1)
	runRows = append(runRows, runColumns)
	failureRows := [][]string{failureColumns}
	for _, r := range reports {
		runRows = append(runRows, runToRow(r))
		for _, fl := range r.Failures {
			failureRows = append(failureRows, []string{
				r.RunID.String(),
				strconv.FormatInt(fl.OrderID, 10),
				string(fl.Stage),
				fl.Error,
			})
		}
	}

	if err := writeSheet(f, runsSheet, runRows); err != nil {
		return err
	}
	if err := writeSheet(f, failuresSheet, failureRows); err != nil {
		return err
	}
	if err := f.SetPanes(runsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func runToRow(r *domain.RunReport) []string {
	return []string{
		r.RunID.String(),
		string(r.Category),
		r.SummaryRef,
		r.CustomerEmail,
		formatTime(r.StartedAt),
		formatTime(r.FinishedAt),
		formatBool(r.DryRun),
		strconv.Itoa(r.Declared),
		strconv.Itoa(r.Extracted),
		strconv.Itoa(r.Validated),
		strconv.Itoa(r.Loaded),
		strconv.Itoa(r.Failed),
		strconv.Itoa(r.FetchedRemote),
		strconv.Itoa(r.FetchedCached),
		strings.Join(r.Warnings, "; "),
	}
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// WriteFile exports reports into dir under a name built by BuildFilename and
// returns the path written.
func WriteFile(dir, label string, format Format, reports []*domain.RunReport, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(dir, BuildFilename(label, format, now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	if err := Export(f, format, reports); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing export file: %w", err)
	}
	return path, nil
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename replaces runs of unsafe characters with a single
// underscore and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {label}_{YYYYMMDD-HHMMSS}.{format}. An empty label
// becomes "run_report".
func BuildFilename(label string, format Format, now time.Time) string {
	sanitized := SanitizeFilename(label)
	if sanitized == "" {
		sanitized = "run_report"
	}
	return fmt.Sprintf("%s_%s.%s", sanitized, now.UTC().Format("20060102-150405"), format)
}
