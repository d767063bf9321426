// Package verify checks that the configured source pages are reachable,
// and that the extraction heuristics still find offers in them.
package verify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/cdtrates/extract"
	"github.com/sig-0/cdtrates/fetch"
	"github.com/sig-0/cdtrates/provider/banks"
	"github.com/sig-0/cdtrates/provider/cdt"
)

const DefaultWorkers = 5

// Fetcher fetches parsed documents
type Fetcher interface {
	Get(ctx context.Context, url string) (*goquery.Document, error)
}

// Target is a single page to verify
type Target struct {
	SourceID string
	Name     string
	URL      string
}

// Report is the verification outcome of a single target
type Report struct {
	Target

	Title      string
	Error      string
	Kind       fetch.Kind // the fetch failure kind, if any
	Duration   time.Duration
	Candidates int
	Reachable  bool
}

// Verifier verifies source pages
type Verifier struct {
	fetcher   Fetcher
	extractor *extract.Extractor
	logger    *slog.Logger

	workers int
}

type Option func(v *Verifier)

// WithLogger specifies the logger for the verifier
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = l
	}
}

// WithWorkers specifies how many pages are verified concurrently
func WithWorkers(workers int) Option {
	return func(v *Verifier) {
		if workers > 0 {
			v.workers = workers
		}
	}
}

// New creates a new verifier instance
func New(fetcher Fetcher, extractor *extract.Extractor, opts ...Option) *Verifier {
	v := &Verifier{
		fetcher:   fetcher,
		extractor: extractor,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers:   DefaultWorkers,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// DefaultTargets lists every catalog bank with a product page, followed by
// the consolidator pages for the given number of months
func DefaultTargets(baseURL string, now time.Time, months int) []Target {
	targets := make([]Target, 0, len(banks.Catalog)+months)

	for _, bank := range banks.Catalog {
		if bank.URL == "" {
			continue
		}

		targets = append(targets, Target{
			SourceID: bank.ID,
			Name:     bank.Name,
			URL:      bank.URL,
		})
	}

	for _, page := range cdt.MonthPages(baseURL, now, months) {
		targets = append(targets, Target{
			SourceID: banks.MejorCDT,
			Name:     "MejorCDT " + page.Key,
			URL:      page.URL,
		})
	}

	return targets
}

// Run verifies the targets concurrently.
// Reports are returned in the target order
func (v *Verifier) Run(ctx context.Context, targets []Target) []*Report {
	var (
		reports = make([]*Report, len(targets))
		mu      sync.Mutex
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)

	for i, target := range targets {
		g.Go(func() error {
			report := v.verify(gCtx, target)

			mu.Lock()
			reports[i] = report
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // Workers never fail

	return reports
}

func (v *Verifier) verify(ctx context.Context, target Target) *Report {
	var (
		started = time.Now()
		report  = &Report{
			Target: target,
		}
	)

	doc, err := v.fetcher.Get(ctx, target.URL)

	report.Duration = time.Since(started)

	if err != nil {
		report.Error = err.Error()

		var fetchErr *fetch.FetchError
		if errors.As(err, &fetchErr) {
			report.Kind = fetchErr.Kind
		}

		v.logger.Debug(
			"source page unreachable",
			"source", target.SourceID,
			"url", target.URL,
			"err", err,
		)

		return report
	}

	report.Reachable = true
	report.Title = strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	report.Candidates = len(v.extractor.Extract(doc))

	return report
}

// Summary counts the reachable targets, and those with extracted offers
func Summary(reports []*Report) (reachable, withOffers int) {
	for _, r := range reports {
		if r.Reachable {
			reachable++
		}

		if r.Candidates > 0 {
			withOffers++
		}
	}

	return reachable, withOffers
}

// Unreachable returns the failed reports, sorted by source ID
func Unreachable(reports []*Report) []*Report {
	failed := make([]*Report, 0)

	for _, r := range reports {
		if !r.Reachable {
			failed = append(failed, r)
		}
	}

	sort.SliceStable(failed, func(i, j int) bool {
		return failed[i].SourceID < failed[j].SourceID
	})

	return failed
}
