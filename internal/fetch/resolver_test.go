package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicevault/internal/domain"
	"invoicevault/internal/fetch"
	"invoicevault/mocks"
)

func testConfig() fetch.Config {
	return fetch.Config{
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		Backoff:     time.Millisecond,
		MaxParallel: 2,
	}
}

func newCache(t *testing.T) *fetch.FSCache {
	t.Helper()
	cache, err := fetch.NewFSCache(t.TempDir())
	require.NoError(t, err)
	return cache
}

// --- HTTP ---

func TestResolver_DownloadsThenServesFromCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("%PDF-1.4 detail"))
	}))
	defer srv.Close()

	r := fetch.NewResolver(testConfig(), newCache(t))
	ctx := context.Background()

	first, err := r.Resolve(ctx, srv.URL+"/invoice/1")
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := r.Resolve(ctx, srv.URL+"/invoice/1")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Data, second.Data)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestResolver_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	res, err := fetch.NewResolver(testConfig(), nil).Resolve(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), res.Data)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestResolver_GivesUpAfterMaxRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := fetch.NewResolver(testConfig(), nil).Resolve(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestResolver_ClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cache := newCache(t)
	_, err := fetch.NewResolver(testConfig(), cache).Resolve(context.Background(), srv.URL)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, srv.URL, fe.Ref)
	assert.Contains(t, err.Error(), "404")
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	_, found, err := cache.Get(context.Background(), fetch.CacheKey(srv.URL))
	require.NoError(t, err)
	assert.False(t, found, "failed downloads are never cached")
}

func TestResolver_EmptyBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := fetch.NewResolver(testConfig(), nil).Resolve(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestResolver_OversizedBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBytes = 16
	_, err := fetch.NewResolver(cfg, nil).Resolve(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestResolver_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fetch.NewResolver(testConfig(), nil).Resolve(ctx, srv.URL)
	assert.ErrorIs(t, err, domain.ErrFetch)
}

// --- Files ---

func TestResolver_ReadsFilesAndFileURLs(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "detail.pdf")
	require.NoError(t, os.WriteFile(p, []byte("local bytes"), 0o600))

	r := fetch.NewResolver(testConfig(), nil)
	for _, ref := range []string{p, "file://" + p} {
		res, err := r.Resolve(context.Background(), ref)
		require.NoError(t, err, ref)
		assert.Equal(t, []byte("local bytes"), res.Data)
	}
}

func TestResolver_Rejects(t *testing.T) {
	r := fetch.NewResolver(testConfig(), nil)
	for _, ref := range []string{"", "ftp://example.com/x.pdf", filepath.Join(t.TempDir(), "missing.pdf")} {
		_, err := r.Resolve(context.Background(), ref)
		assert.ErrorIs(t, err, domain.ErrFetch, ref)
	}
}

// --- Cache interplay ---

func TestResolver_CacheReadErrorFails(t *testing.T) {
	cache := new(mocks.MockDocumentCache)
	cache.On("Get", mock.Anything, fetch.CacheKey("/x")).Return(nil, false, errors.New("disk gone"))

	_, err := fetch.NewResolver(testConfig(), cache).Resolve(context.Background(), "/x")
	assert.ErrorIs(t, err, domain.ErrFetch)
	cache.AssertExpectations(t)
}

func TestResolver_CacheWriteErrorIsTolerated(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "d.txt")
	require.NoError(t, os.WriteFile(p, []byte("abc"), 0o600))

	cache := new(mocks.MockDocumentCache)
	cache.On("Get", mock.Anything, fetch.CacheKey(p)).Return(nil, false, nil)
	cache.On("Put", mock.Anything, fetch.CacheKey(p), []byte("abc")).Return(errors.New("read-only"))

	res, err := fetch.NewResolver(testConfig(), cache).Resolve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), res.Data)
	cache.AssertExpectations(t)
}

func TestFSCache_RoundTripAndOverwrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cache, err := fetch.NewFSCache(dir)
	require.NoError(t, err)

	_, found, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Put(ctx, "k", []byte("one")))
	require.NoError(t, cache.Put(ctx, "k", []byte("two")))

	data, found, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("two"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}
