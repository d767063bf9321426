package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sig-0/cdtrates/storage/types"
)

type runCycleDelegate func(context.Context) (*types.CycleReport, error)

type mockCycler struct {
	runCycleFn runCycleDelegate
}

func (m *mockCycler) RunCycle(ctx context.Context) (*types.CycleReport, error) {
	if m.runCycleFn != nil {
		return m.runCycleFn(ctx)
	}

	return nil, nil
}

// testClock is a manually advanced time source
type testClock struct {
	now time.Time
	mux sync.Mutex
}

func newTestClock(at time.Time) *testClock {
	return &testClock{now: at}
}

func (c *testClock) Now() time.Time {
	c.mux.Lock()
	defer c.mux.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mux.Lock()
	defer c.mux.Unlock()

	c.now = c.now.Add(d)
}
