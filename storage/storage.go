package storage

import (
	"context"
	"errors"

	"github.com/sig-0/cdtrates/storage/types"
)

// ErrNoSnapshot is returned when no aggregate was persisted yet
var ErrNoSnapshot = errors.New("no aggregate snapshot available")

// Storage is an abstraction over persisted rate aggregates.
// Every saved aggregate becomes the current one, and is also kept as an
// immutable historical snapshot
type Storage interface {
	// SaveAggregate saves the aggregate as the current one, and as a snapshot
	SaveAggregate(context.Context, *types.Aggregate) error

	// LatestAggregate fetches the current aggregate (ErrNoSnapshot if none)
	LatestAggregate(context.Context) (*types.Aggregate, error)

	// Snapshots lists up to limit historical aggregates, newest first
	Snapshots(context.Context, int) ([]*types.Aggregate, error)
}
