package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"invoicevault/internal/app"
	"invoicevault/internal/domain"
	"invoicevault/internal/logger"
	"invoicevault/internal/port"
	"invoicevault/internal/report"
	"invoicevault/internal/repository/memory"
	"invoicevault/internal/repository/postgres"
	"invoicevault/internal/service"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [summary files...]",
		Short: "Ingest order summary documents and every order they list",
		Long: `Reads each summary document, fetches the detail invoice of every listed
order, checks it and loads it into the database.

With --dry-run the orders are loaded into memory only, so a run can be
checked without touching the database.`,
		Example: `  invoicevault ingest --input ./input
  invoicevault ingest order_summary_food_2025.pdf --dry-run --format xlsx
  invoicevault ingest export.txt --category instamart`,
		RunE: runIngest,
	}
	cmd.Flags().String("input", "", "directory to scan for summary files")
	cmd.Flags().String("category", "", "category for every file (food|instamart); detected from each path when omitted")
	cmd.Flags().Bool("dry-run", false, "load into memory instead of the database")
	cmd.Flags().String("format", "", "write the run reports as csv, xlsx, yaml or json")
	cmd.Flags().String("export", "", "directory for the run report file")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, closer, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	log := logger.WithComponent("cli")

	inputDir, _ := cmd.Flags().GetString("input")
	rawCategory, _ := cmd.Flags().GetString("category")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	rawFormat, _ := cmd.Flags().GetString("format")
	exportDir, _ := cmd.Flags().GetString("export")

	var category domain.Category
	if rawCategory != "" {
		if category, err = domain.ParseCategory(rawCategory); err != nil {
			return err
		}
	}
	if rawFormat == "" {
		rawFormat = cfg.Ingest.ExportFormat
	}
	var format report.Format
	if rawFormat != "" {
		if format, err = report.ParseFormat(rawFormat); err != nil {
			return err
		}
	}
	if exportDir == "" {
		exportDir = cfg.Ingest.ExportDir
	}

	paths := append([]string(nil), args...)
	if inputDir != "" {
		found, err := discoverSummaries(inputDir)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return errors.New("no summary files given; pass files or --input")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store port.OrderStore
	if dryRun {
		store = memory.NewStore()
	} else {
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer func() { _ = db.Close() }()
		store = postgres.NewOrderStore(db)
	}

	engine := app.NewEngine(&cfg.Engine)
	resolver, err := app.NewResolver(ctx, cfg)
	if err != nil {
		return err
	}
	sender, err := app.NewReportSender(&cfg.Email)
	if err != nil {
		return err
	}
	svc := app.NewIngestService(cfg, engine, resolver, store, sender)

	log.Info().Int("files", len(paths)).Bool("dry_run", dryRun).Msg("starting ingest")
	reports, runErr := svc.IngestFiles(ctx, paths, category, service.IngestOptions{DryRun: dryRun})

	printReports(cmd.OutOrStdout(), reports)

	if format != "" && len(reports) > 0 {
		label := "ingest"
		if dryRun {
			label = "ingest_dry_run"
		}
		path, err := report.WriteFile(exportDir, label, format, reports, time.Now())
		if err != nil {
			return fmt.Errorf("exporting run report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", path)
	}

	if runErr != nil {
		return runErr
	}
	for _, r := range reports {
		if r.Failed > 0 {
			return fmt.Errorf("%d of %d orders failed in %s", r.Failed, r.Declared, r.SummaryRef)
		}
	}
	return nil
}

// discoverSummaries walks dir for summary documents: .pdf or .txt files with
// "summary" in their name.
func discoverSummaries(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		ext := filepath.Ext(name)
		if strings.Contains(name, "summary") && (ext == ".pdf" || ext == ".txt") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(found)
	return found, nil
}

func printReports(w io.Writer, reports []*domain.RunReport) {
	for _, r := range reports {
		mode := ""
		if r.DryRun {
			mode = " (dry run)"
		}
		fmt.Fprintf(w, "%s [%s]%s\n", r.SummaryRef, r.Category, mode)
		fmt.Fprintf(w, "  declared %d  extracted %d  validated %d  loaded %d  failed %d\n",
			r.Declared, r.Extracted, r.Validated, r.Loaded, r.Failed)
		fmt.Fprintf(w, "  fetched %d remote, %d cached\n", r.FetchedRemote, r.FetchedCached)
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  FAIL %d %s: %s\n", f.OrderID, f.Stage, f.Error)
		}
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  WARN %s\n", warn)
		}
	}
}
