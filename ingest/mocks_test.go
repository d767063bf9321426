package ingest

import (
	"context"

	"github.com/sig-0/cdtrates/storage/types"
)

type (
	idDelegate      func() string
	nameDelegate    func() string
	produceDelegate func(context.Context) *types.SourceResult
)

type mockProvider struct {
	idFn      idDelegate
	nameFn    nameDelegate
	produceFn produceDelegate
}

func (m *mockProvider) ID() string {
	if m.idFn != nil {
		return m.idFn()
	}

	return ""
}

func (m *mockProvider) Name() string {
	if m.nameFn != nil {
		return m.nameFn()
	}

	return ""
}

func (m *mockProvider) Produce(ctx context.Context) *types.SourceResult {
	if m.produceFn != nil {
		return m.produceFn(ctx)
	}

	return nil
}

// newStaticProvider creates a mock provider that always yields the given records
func newStaticProvider(id string, rates map[int]float64) *mockProvider {
	return &mockProvider{
		idFn: func() string {
			return id
		},
		nameFn: func() string {
			return "Bank " + id
		},
		produceFn: func(_ context.Context) *types.SourceResult {
			records := make([]*types.RateRecord, 0, len(rates))

			for term, rate := range rates {
				records = append(records, &types.RateRecord{
					SourceID:   id,
					SourceName: "Bank " + id,
					TermDays:   term,
					RateEA:     rate,
				})
			}

			return &types.SourceResult{
				SourceID:   id,
				SourceName: "Bank " + id,
				Records:    records,
				Success:    true,
			}
		},
	}
}

// newFailingProvider creates a mock provider that always fails
func newFailingProvider(id string) *mockProvider {
	return &mockProvider{
		idFn: func() string {
			return id
		},
		nameFn: func() string {
			return "Bank " + id
		},
		produceFn: func(_ context.Context) *types.SourceResult {
			return &types.SourceResult{
				SourceID:   id,
				SourceName: "Bank " + id,
				Error:      "connection refused",
				Records:    []*types.RateRecord{},
				Success:    false,
			}
		},
	}
}
