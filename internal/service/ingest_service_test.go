package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicevault/internal/domain"
	"invoicevault/internal/extract"
	"invoicevault/internal/extract/extracttest"
	"invoicevault/internal/normalize"
	"invoicevault/internal/port"
	"invoicevault/internal/repository/memory"
	"invoicevault/internal/service"
	"invoicevault/internal/validator"
	"invoicevault/mocks"
)

const firstOrderID int64 = 100000000000001

type ingestFixture struct {
	svc      service.IngestService
	resolver *mocks.MockDocumentResolver
	sender   *mocks.MockReportSender
	store    *memory.Store
}

func setupIngest(reportTo ...string) *ingestFixture {
	resolver := new(mocks.MockDocumentResolver)
	sender := new(mocks.MockReportSender)
	store := memory.NewStore()
	svc := service.NewIngestService(
		extract.New(normalize.New(normalize.DefaultConfig()), extract.DefaultConfig()),
		validator.New(validator.DefaultConfig()),
		resolver,
		service.NewLoader(store),
		sender,
		service.IngestConfig{Concurrency: 3, ReportTo: reportTo},
	)
	return &ingestFixture{svc: svc, resolver: resolver, sender: sender, store: store}
}

// foodSummary lists n orders of ₹598.50, the total of extracttest.NewFood.
func foodSummary(n int) *extracttest.Summary {
	rows := make([]extracttest.SummaryRow, n)
	for i := range rows {
		id := firstOrderID + int64(i)
		rows[i] = extracttest.SummaryRow{
			Date:    "15-01-2025",
			OrderID: fmt.Sprint(id),
			Name:    "Test Kitchen",
			Amount:  "₹598.50",
			Link:    extracttest.DetailLink(id),
		}
	}
	total := normalize.New(normalize.DefaultConfig()).FormatAmount(
		decimal.RequireFromString("598.50").Mul(decimal.NewFromInt(int64(n))))
	return extracttest.NewSummary(fmt.Sprint(n), total, rows)
}

func (f *ingestFixture) serve(orderID int64, data []byte, fromCache bool) {
	f.resolver.On("Resolve", mock.Anything, extracttest.DetailLink(orderID)).
		Return(&port.FetchResult{Data: data, FromCache: fromCache}, nil)
}

// --- IngestSummary ---

func TestIngestService_IngestSummary_LoadsEveryOrder(t *testing.T) {
	f := setupIngest()
	for i := 0; i < 3; i++ {
		id := firstOrderID + int64(i)
		f.serve(id, extracttest.NewFood(id).Render(), i == 0)
	}

	report, err := f.svc.IngestSummary(context.Background(), foodSummary(3).Render(), domain.CategoryFood,
		service.IngestOptions{SummaryRef: "order_summary_food_1.pdf"})

	require.NoError(t, err)
	assert.Equal(t, 3, report.Declared)
	assert.Equal(t, 3, report.Extracted)
	assert.Equal(t, 3, report.Validated)
	assert.Equal(t, 3, report.Loaded)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 2, report.FetchedRemote)
	assert.Equal(t, 1, report.FetchedCached)
	assert.Equal(t, "dan@example.com", report.CustomerEmail)
	assert.Equal(t, "order_summary_food_1.pdf", report.SummaryRef)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	stored, err := f.store.GetOrder(context.Background(), domain.CategoryFood, firstOrderID+2)
	require.NoError(t, err)
	assert.Equal(t, "dan@example.com", stored.CustomerEmail)
	assert.Equal(t, extracttest.DetailLink(firstOrderID+2), stored.DetailRef)
	assert.Equal(t, 2, stored.ItemCount)
	assert.Equal(t, 1, f.store.PartyCount())

	f.sender.AssertNotCalled(t, "SendRunReport", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestService_IngestSummary_RecordsFailuresPerStage(t *testing.T) {
	f := setupIngest()

	fetchFailed := firstOrderID
	f.resolver.On("Resolve", mock.Anything, extracttest.DetailLink(fetchFailed)).
		Return(nil, &domain.FetchError{Ref: "x", Err: errors.New("connection refused")})

	misrouted := firstOrderID + 1
	f.serve(misrouted, extracttest.NewFood(misrouted+100).Render(), false)

	inconsistent := firstOrderID + 2
	bad := extracttest.NewFood(inconsistent)
	bad.Items[0].Net = "440.00"
	f.serve(inconsistent, bad.Render(), false)

	good := firstOrderID + 3
	f.serve(good, extracttest.NewFood(good).Render(), false)

	report, err := f.svc.IngestSummary(context.Background(), foodSummary(4).Render(), domain.CategoryFood, service.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, 2, report.Extracted)
	require.Len(t, report.Failures, 3)
	assert.Equal(t, domain.OrderFailure{OrderID: fetchFailed, Stage: domain.StageFetch, Error: report.Failures[0].Error}, report.Failures[0])
	assert.Equal(t, misrouted, report.Failures[1].OrderID)
	assert.Equal(t, domain.StageParse, report.Failures[1].Stage)
	assert.Contains(t, report.Failures[1].Error, "order id mismatch")
	assert.Equal(t, inconsistent, report.Failures[2].OrderID)
	assert.Equal(t, domain.StageValidate, report.Failures[2].Stage)
	assert.Contains(t, report.Failures[2].Error, "item.net")

	_, err = f.store.GetOrder(context.Background(), domain.CategoryFood, inconsistent)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.store.GetOrder(context.Background(), domain.CategoryFood, good)
	assert.NoError(t, err)
}

func TestIngestService_IngestSummary_LoadFailure(t *testing.T) {
	resolver := new(mocks.MockDocumentResolver)
	tx := new(mocks.MockOrderTx)
	store := &mocks.MockOrderStore{Tx: tx}
	svc := service.NewIngestService(
		extract.New(normalize.New(normalize.DefaultConfig()), extract.DefaultConfig()),
		validator.New(validator.DefaultConfig()),
		resolver,
		service.NewLoader(store),
		nil,
		service.IngestConfig{Concurrency: 1},
	)

	resolver.On("Resolve", mock.Anything, extracttest.DetailLink(firstOrderID)).
		Return(&port.FetchResult{Data: extracttest.NewFood(firstOrderID).Render()}, nil)
	store.On("WithinOrderTx", mock.Anything, domain.CategoryFood, firstOrderID).Return(nil)
	tx.On("UpsertParty", mock.Anything, mock.Anything).Return(int64(0), errors.New("deadlock detected"))

	report, err := svc.IngestSummary(context.Background(), foodSummary(1).Render(), domain.CategoryFood, service.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Validated)
	assert.Zero(t, report.Loaded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, domain.StageLoad, report.Failures[0].Stage)
	assert.Contains(t, report.Failures[0].Error, "deadlock detected")
}

func TestIngestService_IngestSummary_StrictSummaryMismatch(t *testing.T) {
	f := setupIngest()
	doc := foodSummary(3)
	doc.OrderCount = "4"

	report, err := f.svc.IngestSummary(context.Background(), doc.Render(), domain.CategoryFood, service.IngestOptions{})

	assert.Nil(t, report)
	assert.ErrorIs(t, err, domain.ErrValidation)
	f.resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestIngestService_IngestSummary_UnparseableSummary(t *testing.T) {
	f := setupIngest()

	_, err := f.svc.IngestSummary(context.Background(), []byte("hello\nworld\n"), domain.CategoryFood, service.IngestOptions{})

	assert.ErrorIs(t, err, domain.ErrSummaryParse)
}

func TestIngestService_IngestSummary_SendsReport(t *testing.T) {
	f := setupIngest("ops@example.com")
	f.serve(firstOrderID, extracttest.NewFood(firstOrderID).Render(), false)
	f.sender.On("SendRunReport", mock.Anything, []string{"ops@example.com"}, mock.AnythingOfType("*domain.RunReport")).
		Return(errors.New("ses throttled"))

	report, err := f.svc.IngestSummary(context.Background(), foodSummary(1).Render(), domain.CategoryFood,
		service.IngestOptions{DryRun: true})

	require.NoError(t, err, "a failed notification does not fail the run")
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Loaded)
	f.sender.AssertExpectations(t)
}

func TestIngestService_IngestSummary_BadEmailWarns(t *testing.T) {
	f := setupIngest()
	f.serve(firstOrderID, extracttest.NewFood(firstOrderID).Render(), false)
	doc := foodSummary(1)
	doc.Email = "not-an-address"

	report, err := f.svc.IngestSummary(context.Background(), doc.Render(), domain.CategoryFood, service.IngestOptions{})

	require.NoError(t, err)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[len(report.Warnings)-1], "not-an-address")
}

// --- IngestFiles ---

func TestIngestService_IngestFiles(t *testing.T) {
	f := setupIngest()
	f.serve(firstOrderID, extracttest.NewFood(firstOrderID).Render(), false)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "food"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "instamart"), 0o755))
	good := filepath.Join(root, "food", "order_summary_food_2025.txt")
	misplaced := filepath.Join(root, "instamart", "order_summary_food_2025.txt")
	require.NoError(t, os.WriteFile(good, foodSummary(1).Render(), 0o600))
	require.NoError(t, os.WriteFile(misplaced, foodSummary(1).Render(), 0o600))

	reports, err := f.svc.IngestFiles(context.Background(), []string{good, misplaced}, "", service.IngestOptions{})

	assert.ErrorIs(t, err, domain.ErrCategoryMismatch)
	require.Len(t, reports, 1)
	assert.Equal(t, good, reports[0].SummaryRef)
	assert.Equal(t, domain.CategoryFood, reports[0].Category)
	assert.Equal(t, 1, reports[0].Loaded)
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		path    string
		want    domain.Category
		wantErr error
	}{
		{"input/food/order_summary_food_1.pdf", domain.CategoryFood, nil},
		{"input/instamart/order_summary_instamart_1.pdf", domain.CategoryInstamart, nil},
		{"input/instamart/summary.pdf", domain.CategoryInstamart, nil},
		{"downloads/order_summary_food_1.pdf", domain.CategoryFood, nil},
		{"input/instamart/order_summary_food_1.pdf", "", domain.ErrCategoryMismatch},
		{"downloads/summary.pdf", "", domain.ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := service.DetectCategory(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCategory(t *testing.T) {
	got, err := service.ResolveCategory("downloads/summary.pdf", domain.CategoryInstamart)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryInstamart, got)

	_, err = service.ResolveCategory("food/order_summary_food_1.pdf", domain.CategoryInstamart)
	assert.ErrorIs(t, err, domain.ErrCategoryMismatch)
}
