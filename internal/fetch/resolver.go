// Package fetch resolves detail-document references to bytes, caching each
// result so repeated runs read the same content.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"invoicevault/internal/domain"
	"invoicevault/internal/logger"
	"invoicevault/internal/port"
)

// Config controls downloads.
type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
	MaxParallel int
	// MaxBytes caps a single document; zero means 64 MiB.
	MaxBytes int64
}

// DefaultConfig returns conservative download settings.
func DefaultConfig() Config {
	return Config{
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		Backoff:     500 * time.Millisecond,
		MaxParallel: 4,
	}
}

const defaultMaxBytes = 64 << 20

// Resolver implements port.DocumentResolver over http(s), file:// and plain
// paths. A nil cache disables caching.
type Resolver struct {
	cfg    Config
	client *http.Client
	cache  port.DocumentCache
	sem    *semaphore.Weighted
	log    zerolog.Logger
}

var _ port.DocumentResolver = (*Resolver)(nil)

// NewResolver creates a Resolver.
func NewResolver(cfg Config, cache port.DocumentCache) *Resolver {
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	return &Resolver{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		sem:    semaphore.NewWeighted(int64(cfg.MaxParallel)),
		log:    logger.WithComponent("fetch"),
	}
}

// WithHTTPClient replaces the HTTP client.
func (r *Resolver) WithHTTPClient(c *http.Client) *Resolver {
	r.client = c
	return r
}

// CacheKey is the cache key of a reference.
func CacheKey(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:])
}

// Resolve returns the bytes behind ref, from the cache when present.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*port.FetchResult, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &domain.FetchError{Ref: ref, Err: fmt.Errorf("empty reference")}
	}

	key := CacheKey(ref)
	if r.cache != nil {
		data, found, err := r.cache.Get(ctx, key)
		if err != nil {
			return nil, &domain.FetchError{Ref: ref, Err: fmt.Errorf("reading cache: %w", err)}
		}
		if found {
			return &port.FetchResult{Data: data, FromCache: true}, nil
		}
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, &domain.FetchError{Ref: ref, Err: err}
	}
	data, err := r.load(ctx, ref)
	r.sem.Release(1)
	if err != nil {
		return nil, &domain.FetchError{Ref: ref, Err: err}
	}
	if len(data) == 0 {
		return nil, &domain.FetchError{Ref: ref, Err: domain.ErrEmptyDocument}
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, key, data); err != nil {
			// A failed cache write does not fail the fetch.
			r.log.Warn().Err(err).Str("ref", ref).Msg("caching detail document failed")
		}
	}
	return &port.FetchResult{Data: data}, nil
}

func (r *Resolver) load(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return r.readFile(ref)
	}
	switch u.Scheme {
	case "http", "https":
		return r.download(ctx, ref)
	case "file":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		return r.readFile(p)
	default:
		return nil, fmt.Errorf("unsupported reference scheme %q", u.Scheme)
	}
}

func (r *Resolver) readFile(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", p, err)
	}
	defer f.Close()
	return readLimited(f, r.cfg.MaxBytes)
}

// download retries transport errors, 429 and 5xx responses with a doubling
// backoff. Other statuses fail at once.
func (r *Resolver) download(ctx context.Context, ref string) ([]byte, error) {
	wait := r.cfg.Backoff
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			r.log.Debug().Str("ref", ref).Int("attempt", attempt).Dur("wait", wait).Err(lastErr).Msg("retrying download")
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
			wait *= 2
		}

		data, retryAfter, retryable, err := r.get(ctx, ref)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		if retryAfter > wait {
			wait = retryAfter
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}

func (r *Resolver) get(ctx context.Context, ref string) (data []byte, retryAfter time.Duration, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, 0, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf, text/plain;q=0.9, */*;q=0.5")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, ctx.Err() == nil, fmt.Errorf("requesting document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), retry,
			fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err = readLimited(resp.Body, r.cfg.MaxBytes)
	if err != nil {
		return nil, 0, false, err
	}
	return data, 0, false, nil
}

func readLimited(rd io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(rd, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("document exceeds %d bytes", limit)
	}
	return data, nil
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
