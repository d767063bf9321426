// Package fetch retrieves and parses remote HTML documents under a
// timeout, retry and user-agent rotation discipline.
package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/sig-0/cdtrates/metrics"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 5 * time.Second

	// DefaultMaxBodyBytes caps how much of a response body gets parsed
	DefaultMaxBodyBytes = 10 << 20
)

// DefaultUserAgents is the rotation used when none is configured
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// Config is the fetcher configuration
type Config struct {
	UserAgents         []string      // rotated round-robin, one per request
	Timeout            time.Duration // per attempt
	RetryDelay         time.Duration // between attempts
	HostInterval       time.Duration // minimum spacing between requests to one host
	MaxBodyBytes       int64
	RetryAttempts      int
	InsecureSkipVerify bool
}

// DefaultConfig returns the default fetcher configuration
func DefaultConfig() Config {
	return Config{
		UserAgents:    DefaultUserAgents,
		Timeout:       DefaultTimeout,
		RetryDelay:    DefaultRetryDelay,
		MaxBodyBytes:  DefaultMaxBodyBytes,
		RetryAttempts: DefaultRetryAttempts,
	}
}

// Request is a single document request. Method defaults to GET
type Request struct {
	URL         string
	Method      string
	ContentType string
	Body        []byte
}

// Fetcher fetches and parses HTML documents
type Fetcher struct {
	client  *http.Client
	limiter *hostLimiter
	logger  *slog.Logger

	cfg Config
	ua  atomic.Uint64
}

// New creates a new fetcher instance
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = DefaultUserAgents
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		tr.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Opt-in, some bank sites ship broken chains
		}
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: tr,
		},
		limiter: newHostLimiter(cfg.HostInterval),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:     cfg,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Get fetches the document at the given URL
func (f *Fetcher) Get(ctx context.Context, url string) (*goquery.Document, error) {
	return f.Fetch(ctx, Request{URL: url})
}

// Fetch fetches and parses the requested document, retrying any
// transport failure (including non-2xx statuses) up to the configured
// number of attempts. The final failure is a *FetchError
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*goquery.Document, error) {
	var lastErr *FetchError

	for attempt := 1; attempt <= f.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, f.cfg.RetryDelay); err != nil {
				lastErr.Err = errors.Join(lastErr.Err, err)

				return nil, lastErr
			}
		}

		doc, err := f.attempt(ctx, req)
		if err == nil {
			metrics.ObserveFetch(req.URL, "ok")

			return doc, nil
		}

		err.Attempts = attempt
		lastErr = err

		metrics.ObserveFetch(req.URL, string(err.Kind))

		f.logger.Warn(
			"fetch attempt failed",
			"url", req.URL,
			"attempt", attempt,
			"kind", err.Kind,
			"err", err.Err,
		)

		if ctx.Err() != nil {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// attempt performs a single request
func (f *Fetcher) attempt(ctx context.Context, r Request) (*goquery.Document, *FetchError) {
	newErr := func(kind Kind, err error) *FetchError {
		return &FetchError{
			Kind: kind,
			URL:  r.URL,
			Err:  err,
		}
	}

	if err := f.limiter.wait(ctx, r.URL); err != nil {
		return nil, newErr(classify(err), err)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader = http.NoBody
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, newErr(KindTransport, fmt.Errorf("unable to create %s request: %w", method, err))
	}

	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}

	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-CO,es;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newErr(classify(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fetchErr := newErr(KindHTTPStatus, fmt.Errorf("invalid status code received: %d", resp.StatusCode))
		fetchErr.StatusCode = resp.StatusCode

		return nil, fetchErr
	}

	// Decode legacy encodings (ISO-8859-1 is common on bank portals)
	reader, err := charset.NewReader(
		io.LimitReader(resp.Body, f.cfg.MaxBodyBytes),
		resp.Header.Get("Content-Type"),
	)
	if err != nil {
		return nil, newErr(KindTransport, fmt.Errorf("unable to decode body: %w", err))
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, newErr(classify(err), fmt.Errorf("unable to construct query doc: %w", err))
	}

	return doc, nil
}

// nextUserAgent returns the next user agent in the rotation
func (f *Fetcher) nextUserAgent() string {
	idx := f.ua.Add(1) - 1

	return f.cfg.UserAgents[idx%uint64(len(f.cfg.UserAgents))]
}

// sleep waits for the given duration, or until the context is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
