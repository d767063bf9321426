package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/cdtrates/metrics"
	"github.com/sig-0/cdtrates/storage"
	"github.com/sig-0/cdtrates/storage/types"
)

const (
	DefaultWorkers  = 5
	DefaultTopN     = 10
	DefaultInterval = time.Hour
)

var (
	errInvalidProvider = errors.New("invalid provider")

	// ErrCycleCanceled is returned when the cycle context ends before the
	// sources complete. Nothing is persisted for a canceled cycle
	ErrCycleCanceled = errors.New("scrape cycle canceled")
)

// State is the orchestrator's position within a scrape cycle
type State string

const (
	StateIdle        State = "idle"
	StateDispatching State = "dispatching"
	StateCollecting  State = "collecting"
	StateMerging     State = "merging"
	StateRanking     State = "ranking"
	StatePersisting  State = "persisting"
)

// CycleHook is notified of every successfully completed scheduled cycle
type CycleHook func(*types.CycleReport)

// Orchestrator runs scrape cycles over the registered providers
type Orchestrator struct {
	storage storage.Storage
	logger  *slog.Logger
	now     func() time.Time

	state atomic.Value // State

	providers []Provider
	hooks     []CycleHook

	workers  int
	topN     int
	interval time.Duration

	mux      sync.RWMutex // guards providers and hooks
	cycleMux sync.Mutex   // serializes cycles
}

// New creates a new Orchestrator instance
func New(storage storage.Storage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage:   storage,
		now:       func() time.Time { return time.Now().UTC() },
		providers: make([]Provider, 0),
		hooks:     make([]CycleHook, 0),
		workers:   DefaultWorkers,
		topN:      DefaultTopN,
		interval:  DefaultInterval,
	}

	o.state.Store(StateIdle)

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Register registers a new provider with the orchestrator.
// The provider is part of every subsequent cycle
func (o *Orchestrator) Register(p Provider) error {
	if p == nil || p.ID() == "" {
		return errInvalidProvider
	}

	o.mux.Lock()
	defer o.mux.Unlock()

	for _, registered := range o.providers {
		if registered.ID() == p.ID() {
			return fmt.Errorf("%w: duplicate source %q", errInvalidProvider, p.ID())
		}
	}

	o.providers = append(o.providers, p)

	o.logger.Info(
		"registered new provider",
		"source", p.ID(),
		"name", p.Name(),
	)

	return nil
}

// Providers returns the registered providers, in registration order
func (o *Orchestrator) Providers() []Provider {
	o.mux.RLock()
	defer o.mux.RUnlock()

	out := make([]Provider, len(o.providers))
	copy(out, o.providers)

	return out
}

// OnCycle registers a hook that receives every report of a scheduled cycle
func (o *Orchestrator) OnCycle(hook CycleHook) {
	o.mux.Lock()
	defer o.mux.Unlock()

	o.hooks = append(o.hooks, hook)
}

// State returns the current cycle state
func (o *Orchestrator) State() State {
	s, _ := o.state.Load().(State)

	return s
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(s)
}

// Start starts the scheduled cycle loop [BLOCKING].
// The first cycle runs immediately
func (o *Orchestrator) Start(ctx context.Context) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	runScheduled := func() {
		report, err := o.RunCycle(ctx)
		if errors.Is(err, ErrCycleCanceled) {
			o.logger.Info("scheduled cycle interrupted by shutdown")

			return
		}

		if err != nil {
			o.logger.Error(
				"scheduled cycle failed",
				"err", err,
			)

			return
		}

		o.mux.RLock()
		hooks := o.hooks
		o.mux.RUnlock()

		for _, hook := range hooks {
			hook(report)
		}
	}

	runScheduled()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator service shut down")

			return nil
		case <-ticker.C:
			runScheduled()
		}
	}
}

// RunCycle runs a single scrape cycle over all registered providers.
// Source failures are captured in the report. The cycle fails on a
// persistence fault, or when ctx ends before the sources complete
func (o *Orchestrator) RunCycle(ctx context.Context) (*types.CycleReport, error) {
	o.cycleMux.Lock()
	defer o.cycleMux.Unlock()

	defer o.setState(StateIdle)

	report := &types.CycleReport{
		ID:        xid.New().String(),
		StartedAt: o.now(),
	}

	o.logger.Info(
		"starting scrape cycle",
		"cycle", report.ID,
	)

	report.Results = o.dispatch(ctx, o.Providers())

	// Sources cut short by the context would persist an empty aggregate
	if err := ctx.Err(); err != nil {
		report.Duration = o.now().Sub(report.StartedAt)
		metrics.ObserveCycle(metrics.StatusFailure, report.Duration, 0)

		o.logger.Warn(
			"scrape cycle canceled",
			"cycle", report.ID,
			"err", err,
		)

		return nil, fmt.Errorf("%w: %w", ErrCycleCanceled, err)
	}

	for _, res := range report.Results {
		if res.Success {
			continue
		}

		o.logger.Warn(
			"source failed",
			"cycle", report.ID,
			"source", res.SourceID,
			"err", res.Error,
		)
	}

	o.setState(StateMerging)

	records := merge(report.Results)

	o.setState(StateRanking)

	report.Aggregate = buildAggregate(o.now(), records, report.Successful(), o.topN)

	o.setState(StatePersisting)

	if err := o.storage.SaveAggregate(ctx, report.Aggregate); err != nil {
		report.Duration = o.now().Sub(report.StartedAt)
		metrics.ObserveCycle(metrics.StatusFailure, report.Duration, report.Aggregate.TotalRates)

		return nil, fmt.Errorf("unable to persist aggregate: %w", err)
	}

	report.Duration = o.now().Sub(report.StartedAt)
	metrics.ObserveCycle(metrics.StatusSuccess, report.Duration, report.Aggregate.TotalRates)

	o.logger.Info(
		"scrape cycle complete",
		"cycle", report.ID,
		"sources", len(report.Results),
		"successful", report.Successful(),
		"total_rates", report.Aggregate.TotalRates,
		"took", report.Duration.String(),
	)

	return report, nil
}

// dispatch produces every provider on the bounded worker pool,
// and returns the results ordered by source id
func (o *Orchestrator) dispatch(ctx context.Context, providers []Provider) []*types.SourceResult {
	o.setState(StateDispatching)

	var (
		q    = iq.NewQueue[sourceOutcome]()
		qMux sync.Mutex

		group errgroup.Group
	)

	group.SetLimit(o.workers)

	for seq, p := range providers {
		group.Go(func() error {
			res := o.produce(ctx, p)

			qMux.Lock()
			q.Push(sourceOutcome{
				result:   res,
				sourceID: p.ID(),
				seq:      seq,
			})
			qMux.Unlock()

			return nil
		})
	}

	o.setState(StateCollecting)

	_ = group.Wait() // workers never error

	results := make([]*types.SourceResult, 0, len(providers))

	for q.Len() > 0 {
		results = append(results, q.PopFront().result)
	}

	return results
}
