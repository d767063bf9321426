// Package cache holds the process-wide aggregate cache slot.
//
// The slot holds at most one aggregate, stamped with the instant it was
// cached. Fresh lookups are served from the slot. Stale or empty lookups
// reload the last persisted aggregate, and a manual refresh runs a full
// scrape cycle. The aggregate in the slot is never mutated, only replaced.
package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sig-0/cdtrates/metrics"
	"github.com/sig-0/cdtrates/storage"
	"github.com/sig-0/cdtrates/storage/types"
)

// DefaultTTL is the age after which a cached aggregate is stale
const DefaultTTL = 5 * time.Minute

const reloadKey = "latest"

var errNoCycler = errors.New("no scrape cycler configured")

// Loader fetches the last persisted aggregate
type Loader interface {
	LatestAggregate(context.Context) (*types.Aggregate, error)
}

// Cycler runs full scrape cycles
type Cycler interface {
	RunCycle(context.Context) (*types.CycleReport, error)
}

// Entry is the cached aggregate, with the instant it was cached
type Entry struct {
	CachedAt  time.Time
	Aggregate *types.Aggregate
}

// Cache is the single-slot aggregate cache
type Cache struct {
	loader Loader
	cycler Cycler
	logger *slog.Logger
	now    func() time.Time

	entry *Entry
	group singleflight.Group

	ttl time.Duration
	mux sync.RWMutex
}

// New creates a new cache instance over the loader and cycler.
// The cycler can be nil, in which case manual refreshes fail
func New(loader Loader, cycler Cycler, opts ...Option) *Cache {
	c := &Cache{
		loader: loader,
		cycler: cycler,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		ttl:    DefaultTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the current aggregate. A fresh cached aggregate is served
// as-is; otherwise the last persisted aggregate is reloaded and cached.
// Returns nil when there is no aggregate at all
func (c *Cache) Get(ctx context.Context) *types.Aggregate {
	if entry := c.Entry(); entry != nil && c.now().Sub(entry.CachedAt) < c.ttl {
		metrics.ObserveCacheLookup(metrics.CacheHit)

		return entry.Aggregate
	}

	// Concurrent stale lookups share a single reload
	v, err, _ := c.group.Do(reloadKey, func() (any, error) {
		agg, err := c.loader.LatestAggregate(ctx)
		if err != nil {
			return nil, err
		}

		// A newer aggregate may have been cached while reading storage
		return c.store(agg), nil
	})
	if err != nil {
		if !errors.Is(err, storage.ErrNoSnapshot) {
			c.logger.Warn(
				"unable to reload persisted aggregate",
				"err", err,
			)
		}

		metrics.ObserveCacheLookup(metrics.CacheMiss)

		return nil
	}

	agg, _ := v.(*types.Aggregate)
	if agg == nil {
		metrics.ObserveCacheLookup(metrics.CacheMiss)

		return nil
	}

	metrics.ObserveCacheLookup(metrics.CacheReload)

	return agg
}

// Entry returns the cached entry, if any, regardless of its age
func (c *Cache) Entry() *Entry {
	c.mux.RLock()
	defer c.mux.RUnlock()

	return c.entry
}

// Store replaces the cached aggregate, unless the slot
// already holds an aggregate generated after it
func (c *Cache) Store(agg *types.Aggregate) {
	c.store(agg)
}

// store caches the aggregate and returns the one left in the slot
func (c *Cache) store(agg *types.Aggregate) *types.Aggregate {
	if agg == nil {
		return nil
	}

	c.mux.Lock()
	defer c.mux.Unlock()

	if c.entry != nil && agg.GeneratedAt.Before(c.entry.Aggregate.GeneratedAt) {
		c.logger.Debug(
			"discarding outdated aggregate",
			"generated_at", agg.GeneratedAt,
			"cached_generated_at", c.entry.Aggregate.GeneratedAt,
		)

		return c.entry.Aggregate
	}

	c.entry = &Entry{
		CachedAt:  c.now(),
		Aggregate: agg,
	}

	return agg
}

// OnCycle caches the aggregate of a completed cycle
func (c *Cache) OnCycle(report *types.CycleReport) {
	if report == nil {
		return
	}

	c.Store(report.Aggregate)
}

// Refresh runs a full scrape cycle and caches its aggregate.
// On failure, the cached aggregate is left untouched
func (c *Cache) Refresh(ctx context.Context) (*types.CycleReport, error) {
	if c.cycler == nil {
		return nil, errNoCycler
	}

	report, err := c.cycler.RunCycle(ctx)
	if err != nil {
		return nil, err
	}

	c.Store(report.Aggregate)

	c.logger.Info(
		"aggregate refreshed",
		"cycle", report.ID,
		"total_rates", report.Aggregate.TotalRates,
	)

	return report, nil
}
