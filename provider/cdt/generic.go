package cdt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sig-0/cdtrates/extract"
	"github.com/sig-0/cdtrates/provider/banks"
	"github.com/sig-0/cdtrates/storage/types"
)

// GenericProvider extracts rates from a bank's product page
type GenericProvider struct {
	fetcher   Fetcher
	extractor *extract.Extractor
	logger    *slog.Logger
	now       func() time.Time

	bank banks.Bank
}

// NewGenericProvider creates a new extracting source for the bank
func NewGenericProvider(
	bank banks.Bank,
	fetcher Fetcher,
	extractor *extract.Extractor,
	opts ...Option,
) *GenericProvider {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &GenericProvider{
		fetcher:   fetcher,
		extractor: extractor,
		logger:    o.logger,
		now:       o.now,
		bank:      bank,
	}
}

func (p *GenericProvider) ID() string {
	return p.bank.ID
}

func (p *GenericProvider) Name() string {
	return p.bank.Name
}

func (p *GenericProvider) Produce(ctx context.Context) *types.SourceResult {
	return produce(p.bank.ID, p.bank.Name, p.now, func(scrapedAt time.Time) ([]*types.RateRecord, error) {
		doc, err := p.fetcher.Get(ctx, p.bank.URL)
		if err != nil {
			return nil, fmt.Errorf("unable to fetch page: %w", err)
		}

		var (
			candidates = p.extractor.Extract(doc)
			seen       = make(dedup)
			records    = make([]*types.RateRecord, 0, len(candidates))
		)

		for _, c := range candidates {
			// Free-text mentions may be about other banks
			if c.Strategy == extract.StrategyText && c.SourceID != p.bank.ID {
				continue
			}

			record := &types.RateRecord{
				ScrapedAt:        scrapedAt,
				MinAmount:        c.MinAmount,
				SourceID:         p.bank.ID,
				SourceName:       p.bank.Name,
				RateType:         types.RateTypeFixed,
				PaymentFrequency: types.PaymentAtMaturity,
				ProductType:      types.ProductTermDeposit,
				SourceURL:        p.bank.URL,
				Provenance:       types.ProvenanceExtracted,
				TermDays:         c.TermDays,
				RateEA:           c.RateEA,
			}

			if !record.Valid() || !seen.add(record) {
				continue
			}

			records = append(records, record)
		}

		p.logger.Debug(
			"extracted bank rates",
			"source", p.bank.ID,
			"candidates", len(candidates),
			"records", len(records),
		)

		if len(records) == 0 {
			return records, errNoRates
		}

		return records, nil
	})
}
