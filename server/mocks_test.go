package server

import (
	"context"

	"github.com/sig-0/cdtrates/storage/types"
)

type (
	getDelegate     func(context.Context) *types.Aggregate
	refreshDelegate func(context.Context) (*types.CycleReport, error)
)

type mockAggregates struct {
	getFn     getDelegate
	refreshFn refreshDelegate
}

func (m *mockAggregates) Get(ctx context.Context) *types.Aggregate {
	if m.getFn != nil {
		return m.getFn(ctx)
	}

	return nil
}

func (m *mockAggregates) Refresh(ctx context.Context) (*types.CycleReport, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx)
	}

	return nil, nil
}

// staticAggregates serves the given aggregate
func staticAggregates(agg *types.Aggregate) *mockAggregates {
	return &mockAggregates{
		getFn: func(_ context.Context) *types.Aggregate {
			return agg
		},
	}
}
