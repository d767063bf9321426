package cdt

import (
	"context"
	"time"

	"github.com/sig-0/cdtrates/provider/banks"
	"github.com/sig-0/cdtrates/storage/types"
)

// TermRate is a single (term, rate) pair of a static table
type TermRate struct {
	TermDays int
	RateEA   float64
}

// StaticTable is a curated rate table for a single source
type StaticTable struct {
	Product    types.ProductType
	Conditions string
	Rates      []TermRate
	MinAmount  float64
}

// StaticProvider serves a curated rate table
type StaticProvider struct {
	now   func() time.Time
	bank  banks.Bank
	table StaticTable
}

// NewStaticProvider creates a new static source for the bank
func NewStaticProvider(bank banks.Bank, table StaticTable, opts ...Option) *StaticProvider {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &StaticProvider{
		now:   o.now,
		bank:  bank,
		table: table,
	}
}

func (p *StaticProvider) ID() string {
	return p.bank.ID
}

func (p *StaticProvider) Name() string {
	return p.bank.Name
}

func (p *StaticProvider) Produce(_ context.Context) *types.SourceResult {
	return produce(p.bank.ID, p.bank.Name, p.now, func(scrapedAt time.Time) ([]*types.RateRecord, error) {
		product := p.table.Product
		if product == "" {
			product = types.ProductTermDeposit
		}

		records := make([]*types.RateRecord, 0, len(p.table.Rates))

		for _, tr := range p.table.Rates {
			minAmount := p.table.MinAmount

			records = append(records, &types.RateRecord{
				ScrapedAt:         scrapedAt,
				MinAmount:         &minAmount,
				SourceID:          p.bank.ID,
				SourceName:        p.bank.Name,
				RateType:          types.RateTypeFixed,
				PaymentFrequency:  types.PaymentAtMaturity,
				ProductType:       product,
				SpecialConditions: p.table.Conditions,
				SourceURL:         p.bank.URL,
				Provenance:        types.ProvenanceCurated,
				TermDays:          tr.TermDays,
				RateEA:            tr.RateEA,
			})
		}

		return records, nil
	})
}
