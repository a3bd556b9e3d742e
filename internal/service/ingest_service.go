package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"invoicevault/internal/domain"
	"invoicevault/internal/extract"
	"invoicevault/internal/logger"
	"invoicevault/internal/port"
	"invoicevault/internal/validator"
)

// IngestConfig holds settings for the ingest pipeline.
type IngestConfig struct {
	Concurrency int
	ReportTo    []string
}

// IngestOptions qualify one run.
type IngestOptions struct {
	// SummaryRef names the summary document in the report.
	SummaryRef string
	// DryRun is recorded on the report. The caller decides what the loader
	// writes to.
	DryRun bool
}

// IngestService drives summary documents through fetch, parse, validate and
// load.
type IngestService interface {
	// IngestSummary processes every order of one summary document. Per-order
	// failures are recorded on the report; the error is reserved for failures
	// of the summary itself.
	IngestSummary(ctx context.Context, data []byte, category domain.Category, opts IngestOptions) (*domain.RunReport, error)
	// IngestFiles ingests summary files from disk. An empty category is
	// detected from each path.
	IngestFiles(ctx context.Context, paths []string, category domain.Category, opts IngestOptions) ([]*domain.RunReport, error)
}

type ingestService struct {
	extractor *extract.Extractor
	validator *validator.Validator
	resolver  port.DocumentResolver
	loader    Loader
	sender    port.ReportSender
	cfg       IngestConfig
	log       zerolog.Logger
	now       func() time.Time
}

// NewIngestService creates a new IngestService. sender may be nil.
func NewIngestService(
	extractor *extract.Extractor,
	val *validator.Validator,
	resolver port.DocumentResolver,
	loader Loader,
	sender port.ReportSender,
	cfg IngestConfig,
) IngestService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &ingestService{
		extractor: extractor,
		validator: val,
		resolver:  resolver,
		loader:    loader,
		sender:    sender,
		cfg:       cfg,
		log:       logger.WithComponent("ingest"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// run accumulates the outcome of one summary under a mutex.
type run struct {
	mu     sync.Mutex
	report *domain.RunReport
}

func (r *run) fail(orderID int64, stage domain.FailureStage, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Failed++
	r.report.Failures = append(r.report.Failures, domain.OrderFailure{
		OrderID: orderID,
		Stage:   stage,
		Error:   err.Error(),
	})
}

func (r *run) count(fn func(rep *domain.RunReport)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.report)
}

func (s *ingestService) IngestSummary(ctx context.Context, data []byte, category domain.Category, opts IngestOptions) (*domain.RunReport, error) {
	report := &domain.RunReport{
		RunID:      uuid.New(),
		Category:   category,
		SummaryRef: opts.SummaryRef,
		StartedAt:  s.now(),
		DryRun:     opts.DryRun,
	}
	log := s.log.With().Str("run_id", report.RunID.String()).Str("category", string(category)).Logger()

	summary, err := s.extractor.ParseSummary(data, category)
	if err != nil {
		return nil, fmt.Errorf("parsing summary %s: %w", opts.SummaryRef, err)
	}
	report.CustomerEmail = summary.Header.CustomerEmail
	report.Declared = summary.Header.DeclaredOrderCount
	for _, w := range summary.Warnings {
		report.Warnings = append(report.Warnings, fmt.Sprintf("summary line %d skipped: %s", w.Line, w.Reason))
	}

	check := s.validator.CheckSummary(summary)
	if err := check.Err(); err != nil {
		return nil, fmt.Errorf("checking summary %s: %w", opts.SummaryRef, err)
	}
	for _, w := range check.Warnings {
		log.Warn().Msg(w)
	}
	report.Warnings = append(report.Warnings, check.Warnings...)

	log.Info().
		Str("customer", summary.Header.CustomerEmail).
		Int("declared", summary.Header.DeclaredOrderCount).
		Int("rows", len(summary.Orders)).
		Msg("summary parsed")

	stubs := summary.StubIndex()
	r := &run{report: report}

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	seen := make(map[int64]bool, len(summary.Orders))
	for _, stub := range summary.Orders {
		if seen[stub.OrderID] {
			report.Warnings = append(report.Warnings, fmt.Sprintf("order %d listed more than once; processed once", stub.OrderID))
			continue
		}
		seen[stub.OrderID] = true

		g.Go(func() error {
			s.processOrder(ctx, log, r, summary, stub, stubs)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Failures, func(i, j int) bool {
		if report.Failures[i].OrderID != report.Failures[j].OrderID {
			return report.Failures[i].OrderID < report.Failures[j].OrderID
		}
		return report.Failures[i].Stage < report.Failures[j].Stage
	})
	report.FinishedAt = s.now()

	log.Info().
		Int("extracted", report.Extracted).
		Int("validated", report.Validated).
		Int("loaded", report.Loaded).
		Int("failed", report.Failed).
		Msgf("%d downloaded, %d cached, %d failed", report.FetchedRemote, report.FetchedCached, report.Failed)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("ingest of %s interrupted: %w", opts.SummaryRef, err)
	}
	s.notify(ctx, log, report)
	return report, nil
}

func (s *ingestService) processOrder(ctx context.Context, log zerolog.Logger, r *run, summary *domain.Summary, stub domain.OrderStub, stubs map[int64]domain.OrderStub) {
	olog := log.With().Int64("order_id", stub.OrderID).Logger()
	if err := ctx.Err(); err != nil {
		r.fail(stub.OrderID, domain.StageFetch, err)
		return
	}

	res, err := s.resolver.Resolve(ctx, stub.DetailRef)
	if err != nil {
		olog.Warn().Err(err).Msg("fetching detail failed")
		r.fail(stub.OrderID, domain.StageFetch, err)
		return
	}
	r.count(func(rep *domain.RunReport) {
		if res.FromCache {
			rep.FetchedCached++
		} else {
			rep.FetchedRemote++
		}
	})

	rec, fee, err := s.extractor.ParseDetail(res.Data, summary.Category, stub.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderIDMismatch) {
			olog.Error().Err(err).Str("detail_ref", stub.DetailRef).Msg("data integrity: detail document routed to the wrong order")
		} else {
			olog.Warn().Err(err).Msg("parsing detail failed")
		}
		r.fail(stub.OrderID, domain.StageParse, err)
		return
	}
	r.count(func(rep *domain.RunReport) { rep.Extracted++ })

	rec.Customer.Email = summary.Header.CustomerEmail
	if rec.Customer.Name == "" {
		rec.Customer.Name = summary.Header.CustomerName
	}
	rec.SourceRef = stub.DetailRef

	if err := s.validator.Check(rec, fee, stubs); err != nil {
		olog.Warn().Err(err).Msg("validation failed")
		r.fail(stub.OrderID, domain.StageValidate, err)
		return
	}
	r.count(func(rep *domain.RunReport) { rep.Validated++ })

	if err := s.loader.ReconcileAndLoad(ctx, rec, fee); err != nil {
		olog.Error().Err(err).Msg("loading order failed")
		r.fail(stub.OrderID, domain.StageLoad, err)
		return
	}
	r.count(func(rep *domain.RunReport) { rep.Loaded++ })
	olog.Debug().Msg("order loaded")
}

func (s *ingestService) notify(ctx context.Context, log zerolog.Logger, report *domain.RunReport) {
	if s.sender == nil || len(s.cfg.ReportTo) == 0 {
		return
	}
	if err := s.sender.SendRunReport(ctx, s.cfg.ReportTo, report); err != nil {
		log.Warn().Err(err).Msg("sending run report failed")
	}
}

func (s *ingestService) IngestFiles(ctx context.Context, paths []string, category domain.Category, opts IngestOptions) ([]*domain.RunReport, error) {
	var (
		reports []*domain.RunReport
		errs    []error
	)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		cat, err := ResolveCategory(p, category)
		if err != nil {
			s.log.Warn().Err(err).Str("path", p).Msg("skipping summary file")
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", p, err))
			continue
		}

		fileOpts := opts
		fileOpts.SummaryRef = p
		report, err := s.IngestSummary(ctx, data, cat, fileOpts)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			s.log.Error().Err(err).Str("path", p).Msg("summary rejected")
			errs = append(errs, err)
		}
	}
	return reports, errors.Join(errs...)
}

// DetectCategory derives a category from a summary file name such as
// order_summary_food_2025.pdf and from its parent folder. A file whose name
// and folder disagree is refused.
func DetectCategory(path string) (domain.Category, error) {
	fromName := categoryIn(strings.ToLower(filepath.Base(path)))
	fromDir := categoryIn(strings.ToLower(filepath.Base(filepath.Dir(path))))

	switch {
	case fromName != "" && fromDir != "" && fromName != fromDir:
		return "", fmt.Errorf("%w: file %s is a %s summary but sits in a %s folder",
			domain.ErrCategoryMismatch, filepath.Base(path), fromName, fromDir)
	case fromName != "":
		return fromName, nil
	case fromDir != "":
		return fromDir, nil
	default:
		return "", fmt.Errorf("%w: cannot infer category of %s", domain.ErrInvalidCategory, path)
	}
}

// ResolveCategory reconciles an explicit category with the one implied by
// path. An empty explicit category means detect.
func ResolveCategory(path string, explicit domain.Category) (domain.Category, error) {
	detected, err := DetectCategory(path)
	if explicit == "" {
		return detected, err
	}
	if errors.Is(err, domain.ErrCategoryMismatch) {
		return "", err
	}
	if detected != "" && detected != explicit {
		return "", fmt.Errorf("%w: %s looks like a %s summary, not %s",
			domain.ErrCategoryMismatch, filepath.Base(path), detected, explicit)
	}
	return explicit, nil
}

// categoryIn returns the category named in s. Names that mention more than
// one category are ambiguous and yield none.
func categoryIn(s string) domain.Category {
	var found domain.Category
	for _, c := range domain.AllCategories {
		if strings.Contains(s, string(c)) {
			if found != "" {
				return ""
			}
			found = c
		}
	}
	return found
}
