package cdt

import (
	"github.com/sig-0/cdtrates/extract"
	"github.com/sig-0/cdtrates/ingest"
	"github.com/sig-0/cdtrates/provider/banks"
)

// DefaultProviders creates the default source catalog: the curated static
// sources, an extracting source for every other bank with a product page,
// and the mejorcdt.com consolidator
func DefaultProviders(fetcher Fetcher, opts ...Option) []ingest.Provider {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var (
		resolver  = banks.DefaultResolver()
		extractor = extract.New(
			extract.WithLogger(o.logger),
			extract.WithResolver(resolver),
		)

		providers = make([]ingest.Provider, 0, len(banks.Catalog)+1)
	)

	for _, id := range StaticSources {
		bank, ok := banks.Lookup(id)
		if !ok {
			continue
		}

		providers = append(providers, NewStaticProvider(bank, StaticTables[id], opts...))
	}

	for _, bank := range banks.Catalog {
		if _, static := StaticTables[bank.ID]; static || bank.URL == "" {
			continue
		}

		providers = append(providers, NewGenericProvider(bank, fetcher, extractor, opts...))
	}

	providers = append(providers, NewMejorCDTProvider(fetcher, extractor, resolver, opts...))

	return providers
}
