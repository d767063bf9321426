package cdt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sig-0/cdtrates/extract"
	"github.com/sig-0/cdtrates/provider/banks"
	"github.com/sig-0/cdtrates/storage/types"
)

const (
	DefaultConsolidatorURL    = "https://mejorcdt.com"
	DefaultConsolidatorMonths = 1
	DefaultConsolidatorPause  = time.Second
)

var spanishMonths = [...]string{
	time.January:   "enero",
	time.February:  "febrero",
	time.March:     "marzo",
	time.April:     "abril",
	time.May:       "mayo",
	time.June:      "junio",
	time.July:      "julio",
	time.August:    "agosto",
	time.September: "septiembre",
	time.October:   "octubre",
	time.November:  "noviembre",
	time.December:  "diciembre",
}

// MonthPage is a single monthly consolidator page
type MonthPage struct {
	Key string // "<mes>-<yyyy>"
	URL string
}

// MonthPages returns the consolidator pages for the given number of months,
// starting from the month of now and walking back
func MonthPages(baseURL string, now time.Time, months int) []MonthPage {
	base := strings.TrimRight(baseURL, "/")
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	pages := make([]MonthPage, 0, months)

	for i := 0; i < months; i++ {
		month := first.AddDate(0, -i, 0)
		key := fmt.Sprintf("%s-%d", spanishMonths[month.Month()], month.Year())

		pages = append(pages, MonthPage{
			Key: key,
			URL: fmt.Sprintf("%s/mejores-cdt-%s", base, key),
		})
	}

	return pages
}

// MejorCDTProvider scrapes the mejorcdt.com monthly comparison pages
type MejorCDTProvider struct {
	fetcher   Fetcher
	extractor *extract.Extractor
	resolver  *banks.Resolver
	logger    *slog.Logger
	now       func() time.Time

	baseURL string
	months  int
	pause   time.Duration
}

// NewMejorCDTProvider creates a new consolidator source.
// The extractor should resolve entities through the same resolver
func NewMejorCDTProvider(
	fetcher Fetcher,
	extractor *extract.Extractor,
	resolver *banks.Resolver,
	opts ...Option,
) *MejorCDTProvider {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &MejorCDTProvider{
		fetcher:   fetcher,
		extractor: extractor,
		resolver:  resolver,
		logger:    o.logger,
		now:       o.now,
		baseURL:   o.baseURL,
		months:    o.months,
		pause:     o.pause,
	}
}

func (p *MejorCDTProvider) ID() string {
	return banks.MejorCDT
}

func (p *MejorCDTProvider) Name() string {
	return "MejorCDT"
}

func (p *MejorCDTProvider) Produce(ctx context.Context) *types.SourceResult {
	return produce(p.ID(), p.Name(), p.now, func(scrapedAt time.Time) ([]*types.RateRecord, error) {
		var (
			pages   = MonthPages(p.baseURL, scrapedAt, p.months)
			seen    = make(dedup)
			records = make([]*types.RateRecord, 0)
			errs    = make([]error, 0)
		)

		for i, page := range pages {
			if i > 0 {
				if err := sleep(ctx, p.pause); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", page.Key, err))

					break
				}
			}

			monthRecords, err := p.scrapeMonth(ctx, page, scrapedAt)
			if err != nil {
				p.logger.Warn(
					"unable to scrape month",
					"month", page.Key,
					"err", err,
				)

				errs = append(errs, fmt.Errorf("%s: %w", page.Key, err))

				continue
			}

			for _, r := range monthRecords {
				if seen.add(r) {
					records = append(records, r)
				}
			}
		}

		if len(records) == 0 {
			if len(errs) == 0 {
				return records, errNoRates
			}

			return records, errors.Join(errs...)
		}

		return records, nil
	})
}

// scrapeMonth extracts the records of a single monthly page
func (p *MejorCDTProvider) scrapeMonth(
	ctx context.Context,
	page MonthPage,
	scrapedAt time.Time,
) ([]*types.RateRecord, error) {
	doc, err := p.fetcher.Get(ctx, page.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch page: %w", err)
	}

	candidates := p.extractor.Extract(doc)
	records := make([]*types.RateRecord, 0, len(candidates))

	for _, c := range candidates {
		entity := strings.TrimSpace(c.Entity)
		if entity == "" {
			continue
		}

		id, name := p.identify(c.SourceID, entity)

		record := &types.RateRecord{
			ScrapedAt:        scrapedAt,
			MinAmount:        c.MinAmount,
			SourceID:         id,
			SourceName:       name,
			RateType:         types.RateTypeFixed,
			PaymentFrequency: types.PaymentAtMaturity,
			ProductType:      types.ProductTermDeposit,
			SourceURL:        page.URL,
			Provenance:       types.ProvenanceExtracted,
			TermDays:         c.TermDays,
			RateEA:           c.RateEA,
		}

		if record.Valid() {
			records = append(records, record)
		}
	}

	p.logger.Debug(
		"extracted consolidator rates",
		"month", page.Key,
		"candidates", len(candidates),
		"records", len(records),
	)

	if len(records) == 0 {
		return nil, errNoRates
	}

	return records, nil
}

// identify maps the entity onto its canonical ID and display name.
// Unknown entities keep their own name, under a slug ID
func (p *MejorCDTProvider) identify(resolvedID, entity string) (string, string) {
	id := resolvedID
	if id == "" {
		id = p.resolver.ResolveOrSlug(entity)
	}

	if bank, ok := banks.Lookup(id); ok {
		return id, bank.Name
	}

	return id, entity
}

// sleep waits for the duration, or until the context is done
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
