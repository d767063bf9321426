package memory

import (
	"context"
	"sync"

	"github.com/sig-0/cdtrates/storage"
	"github.com/sig-0/cdtrates/storage/types"
)

// Storage keeps every aggregate in memory, oldest first
type Storage struct {
	snapshots []*types.Aggregate

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		snapshots: make([]*types.Aggregate, 0),
	}
}

func (s *Storage) SaveAggregate(_ context.Context, agg *types.Aggregate) error {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, agg) // aggregates are never mutated
	s.mu.Unlock()

	return nil
}

func (s *Storage) LatestAggregate(_ context.Context) (*types.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return nil, storage.ErrNoSnapshot
	}

	return s.snapshots[len(s.snapshots)-1], nil
}

func (s *Storage) Snapshots(_ context.Context, limit int) ([]*types.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.snapshots)
	if limit <= 0 || limit > total {
		limit = total
	}

	out := make([]*types.Aggregate, 0, limit)

	for i := total - 1; i >= total-limit; i-- {
		out = append(out, s.snapshots[i])
	}

	return out, nil
}
