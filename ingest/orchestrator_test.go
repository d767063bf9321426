package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/cdtrates/storage/mock"
	"github.com/sig-0/cdtrates/storage/types"
)

func TestOrchestrator_New(t *testing.T) {
	t.Parallel()

	t.Run("default orchestrator", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		require.NotNil(t, o)

		assert.NotNil(t, o.storage)
		assert.NotNil(t, o.logger)
		assert.Equal(t, DefaultWorkers, o.workers)
		assert.Equal(t, DefaultTopN, o.topN)
		assert.Equal(t, DefaultInterval, o.interval)
		assert.Equal(t, StateIdle, o.State())
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()

		o := New(
			&mock.Storage{},
			WithWorkers(2),
			WithTopN(3),
			WithInterval(time.Minute),
		)

		assert.Equal(t, 2, o.workers)
		assert.Equal(t, 3, o.topN)
		assert.Equal(t, time.Minute, o.interval)
	})

	t.Run("non-positive options are ignored", func(t *testing.T) {
		t.Parallel()

		o := New(
			&mock.Storage{},
			WithWorkers(0),
			WithTopN(-1),
			WithInterval(0),
		)

		assert.Equal(t, DefaultWorkers, o.workers)
		assert.Equal(t, DefaultTopN, o.topN)
		assert.Equal(t, DefaultInterval, o.interval)
	})
}

func TestOrchestrator_Register(t *testing.T) {
	t.Parallel()

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		assert.ErrorIs(t, o.Register(nil), errInvalidProvider)
	})

	t.Run("empty id", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		assert.ErrorIs(t, o.Register(&mockProvider{}), errInvalidProvider)
	})

	t.Run("duplicate id", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		require.NoError(t, o.Register(newStaticProvider("ban100", nil)))
		assert.ErrorIs(t, o.Register(newStaticProvider("ban100", nil)), errInvalidProvider)
	})

	t.Run("valid providers", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		require.NoError(t, o.Register(newStaticProvider("ban100", nil)))
		require.NoError(t, o.Register(newStaticProvider("bbva", nil)))

		providers := o.Providers()
		require.Len(t, providers, 2)

		assert.Equal(t, "ban100", providers[0].ID())
		assert.Equal(t, "bbva", providers[1].ID())
	})
}

func TestOrchestrator_RunCycle(t *testing.T) {
	t.Parallel()

	t.Run("partial failure", func(t *testing.T) {
		t.Parallel()

		var saved *types.Aggregate

		storage := &mock.Storage{
			SaveAggregateFn: func(_ context.Context, agg *types.Aggregate) error {
				saved = agg

				return nil
			},
		}

		o := New(storage)

		require.NoError(t, o.Register(newStaticProvider("ban100", map[int]float64{90: 10.3})))
		require.NoError(t, o.Register(newFailingProvider("bbva")))
		require.NoError(t, o.Register(newStaticProvider("pibank", map[int]float64{360: 10.0})))
		require.NoError(t, o.Register(newFailingProvider("davivienda")))
		require.NoError(t, o.Register(newFailingProvider("colpatria")))

		report, err := o.RunCycle(context.Background())
		require.NoError(t, err)

		require.Len(t, report.Results, 5)
		assert.Equal(t, 2, report.Successful())
		assert.Len(t, report.Failed(), 3)
		assert.NotEmpty(t, report.ID)

		agg := report.Aggregate
		require.NotNil(t, agg)
		assert.Same(t, agg, saved)

		assert.Equal(t, 2, agg.TotalBanks)
		assert.Equal(t, 2, agg.TotalRates)
		assert.Equal(t, StateIdle, o.State())

		for _, r := range agg.AllRates {
			assert.Contains(t, []string{"ban100", "pibank"}, r.SourceID)
		}
	})

	t.Run("results are ordered by source id", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{}, WithWorkers(3))

		ids := []string{"pichincha", "ban100", "davivienda", "bbva", "nubank"}
		for _, id := range ids {
			require.NoError(t, o.Register(newStaticProvider(id, map[int]float64{90: 9})))
		}

		report, err := o.RunCycle(context.Background())
		require.NoError(t, err)

		got := make([]string, 0, len(report.Results))
		for _, res := range report.Results {
			got = append(got, res.SourceID)
		}

		assert.Equal(t, []string{"ban100", "bbva", "davivienda", "nubank", "pichincha"}, got)

		// Equal rates keep the source-id merge order
		ranked := make([]string, 0, len(report.Aggregate.AllRates))
		for _, r := range report.Aggregate.AllRates {
			ranked = append(ranked, r.SourceID)
		}

		assert.Equal(t, got, ranked)
	})

	t.Run("worker pool is bounded", func(t *testing.T) {
		t.Parallel()

		const workers = 2

		var (
			running atomic.Int32
			peak    atomic.Int32
		)

		o := New(&mock.Storage{}, WithWorkers(workers))

		for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
			require.NoError(t, o.Register(&mockProvider{
				idFn: func() string {
					return id
				},
				produceFn: func(_ context.Context) *types.SourceResult {
					current := running.Add(1)
					defer running.Add(-1)

					for {
						p := peak.Load()
						if current <= p || peak.CompareAndSwap(p, current) {
							break
						}
					}

					time.Sleep(20 * time.Millisecond)

					return &types.SourceResult{SourceID: id, Success: true}
				},
			}))
		}

		report, err := o.RunCycle(context.Background())
		require.NoError(t, err)

		assert.Len(t, report.Results, 6)
		assert.LessOrEqual(t, peak.Load(), int32(workers))
	})

	t.Run("panicking source is captured", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		require.NoError(t, o.Register(&mockProvider{
			idFn: func() string {
				return "broken"
			},
			nameFn: func() string {
				return "Broken Bank"
			},
			produceFn: func(_ context.Context) *types.SourceResult {
				panic("unexpected layout")
			},
		}))
		require.NoError(t, o.Register(newStaticProvider("ban100", map[int]float64{90: 10.3})))

		report, err := o.RunCycle(context.Background())
		require.NoError(t, err)

		require.Len(t, report.Failed(), 1)

		failed := report.Failed()[0]
		assert.Equal(t, "broken", failed.SourceID)
		assert.Equal(t, "Broken Bank", failed.SourceName)
		assert.Contains(t, failed.Error, "unexpected layout")
		assert.Equal(t, 1, report.Aggregate.TotalBanks)
	})

	t.Run("nil result is a failure", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		require.NoError(t, o.Register(&mockProvider{
			idFn: func() string {
				return "silent"
			},
		}))

		report, err := o.RunCycle(context.Background())
		require.NoError(t, err)

		require.Len(t, report.Failed(), 1)
		assert.Equal(t, "silent", report.Failed()[0].SourceID)
	})

	t.Run("zero successful sources", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		require.NoError(t, o.Register(newFailingProvider("bbva")))

		report, err := o.RunCycle(context.Background())
		require.NoError(t, err)

		agg := report.Aggregate
		assert.Equal(t, 0, agg.TotalBanks)
		assert.Equal(t, 0, agg.TotalRates)
		assert.Empty(t, agg.AllRates)
		assert.Equal(t, types.Statistics{}, agg.Statistics)
		assert.Len(t, agg.ByTerm, len(types.StandardTerms))
	})

	t.Run("persist failure", func(t *testing.T) {
		t.Parallel()

		persistErr := errors.New("disk full")

		o := New(&mock.Storage{
			SaveAggregateFn: func(_ context.Context, _ *types.Aggregate) error {
				return persistErr
			},
		})

		require.NoError(t, o.Register(newStaticProvider("ban100", map[int]float64{90: 10.3})))

		report, err := o.RunCycle(context.Background())
		assert.ErrorIs(t, err, persistErr)
		assert.Nil(t, report)
		assert.Equal(t, StateIdle, o.State())
	})

	t.Run("canceled cycle is not persisted", func(t *testing.T) {
		t.Parallel()

		var saves atomic.Int32

		o := New(&mock.Storage{
			SaveAggregateFn: func(_ context.Context, _ *types.Aggregate) error {
				saves.Add(1)

				return nil
			},
		})

		ctx, cancel := context.WithCancel(context.Background())

		require.NoError(t, o.Register(&mockProvider{
			idFn: func() string {
				return "ban100"
			},
			produceFn: func(ctx context.Context) *types.SourceResult {
				// The caller goes away mid-cycle
				cancel()

				return &types.SourceResult{
					SourceID: "ban100",
					Error:    ctx.Err().Error(),
					Records:  []*types.RateRecord{},
				}
			},
		}))

		report, err := o.RunCycle(ctx)
		assert.ErrorIs(t, err, ErrCycleCanceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, report)

		assert.Equal(t, int32(0), saves.Load())
		assert.Equal(t, StateIdle, o.State())
	})

	t.Run("cycles are serialized", func(t *testing.T) {
		t.Parallel()

		var (
			inFlight   atomic.Int32
			overlapped atomic.Bool
		)

		o := New(&mock.Storage{})

		require.NoError(t, o.Register(&mockProvider{
			idFn: func() string {
				return "slow"
			},
			produceFn: func(_ context.Context) *types.SourceResult {
				if inFlight.Add(1) > 1 {
					overlapped.Store(true)
				}
				defer inFlight.Add(-1)

				time.Sleep(10 * time.Millisecond)

				return &types.SourceResult{SourceID: "slow", Success: true}
			},
		}))

		var wg sync.WaitGroup

		for i := 0; i < 3; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := o.RunCycle(context.Background())
				assert.NoError(t, err)
			}()
		}

		wg.Wait()

		assert.False(t, overlapped.Load())
	})
}

func TestOrchestrator_Start(t *testing.T) {
	t.Parallel()

	t.Run("ctx canceled", func(t *testing.T) {
		t.Parallel()

		var (
			o     = New(&mock.Storage{}, WithInterval(time.Millisecond*10))
			errCh = make(chan error, 1)
		)

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			errCh <- o.Start(ctx)
		}()

		cancel()

		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("orchestrator did not shut down in time")
		}
	})

	t.Run("hooks receive scheduled cycles", func(t *testing.T) {
		t.Parallel()

		var (
			cycles   atomic.Int32
			twoDone  = make(chan struct{})
			errCh    = make(chan error, 1)
			o        = New(&mock.Storage{}, WithInterval(time.Millisecond*10))
			received sync.Map
		)

		require.NoError(t, o.Register(newStaticProvider("ban100", map[int]float64{90: 10.3})))

		o.OnCycle(func(report *types.CycleReport) {
			received.Store(report.ID, report.Aggregate.TotalRates)

			if cycles.Add(1) == 2 {
				close(twoDone)
			}
		})

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			errCh <- o.Start(ctx)
		}()

		select {
		case <-twoDone:
			// Success
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for scheduled cycles")
		}

		cancel()
		require.NoError(t, <-errCh)

		received.Range(func(_, v any) bool {
			assert.Equal(t, 1, v)

			return true
		})
	})

	t.Run("failed cycles skip hooks", func(t *testing.T) {
		t.Parallel()

		var (
			saves   atomic.Int32
			hooked  atomic.Int32
			retried = make(chan struct{})
			errCh   = make(chan error, 1)
		)

		o := New(&mock.Storage{
			SaveAggregateFn: func(_ context.Context, _ *types.Aggregate) error {
				if saves.Add(1) == 2 {
					close(retried)
				}

				return errors.New("unavailable")
			},
		}, WithInterval(time.Millisecond*10))

		o.OnCycle(func(_ *types.CycleReport) {
			hooked.Add(1)
		})

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			errCh <- o.Start(ctx)
		}()

		select {
		case <-retried:
			// Success
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for the next cycle")
		}

		cancel()
		require.NoError(t, <-errCh)

		assert.Equal(t, int32(0), hooked.Load())
	})
}
