package mock

import (
	"context"

	"github.com/sig-0/cdtrates/storage/types"
)

type (
	SaveAggregateDelegate   func(context.Context, *types.Aggregate) error
	LatestAggregateDelegate func(context.Context) (*types.Aggregate, error)
	SnapshotsDelegate       func(context.Context, int) ([]*types.Aggregate, error)
)

type Storage struct {
	SaveAggregateFn   SaveAggregateDelegate
	LatestAggregateFn LatestAggregateDelegate
	SnapshotsFn       SnapshotsDelegate
}

func (m *Storage) SaveAggregate(ctx context.Context, agg *types.Aggregate) error {
	if m.SaveAggregateFn != nil {
		return m.SaveAggregateFn(ctx, agg)
	}

	return nil
}

func (m *Storage) LatestAggregate(ctx context.Context) (*types.Aggregate, error) {
	if m.LatestAggregateFn != nil {
		return m.LatestAggregateFn(ctx)
	}

	return nil, nil
}

func (m *Storage) Snapshots(ctx context.Context, limit int) ([]*types.Aggregate, error) {
	if m.SnapshotsFn != nil {
		return m.SnapshotsFn(ctx, limit)
	}

	return nil, nil
}
