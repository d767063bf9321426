package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sig-0/cdtrates/metrics"
	"github.com/sig-0/cdtrates/storage/types"
)

// sourceOutcome is a single produced source result, waiting to be merged
type sourceOutcome struct {
	result   *types.SourceResult
	sourceID string
	seq      int // registration order
}

// Less is utilized to merge results in source-id order,
// regardless of the order in which the workers finished
func (a sourceOutcome) Less(b sourceOutcome) bool {
	if a.sourceID != b.sourceID {
		return a.sourceID < b.sourceID
	}

	return a.seq < b.seq
}

// produce runs the provider, turning panics and missing results into failures
func (o *Orchestrator) produce(ctx context.Context, p Provider) (res *types.SourceResult) {
	started := o.now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error(
				"source panicked",
				"source", p.ID(),
				"panic", r,
			)

			res = failedResult(p, started, fmt.Sprintf("source panicked: %v", r))
		}

		if res == nil {
			res = failedResult(p, started, "source produced no result")
		}

		metrics.ObserveSource(p.ID(), res.Success)
	}()

	return p.Produce(ctx)
}

func failedResult(p Provider, started time.Time, msg string) *types.SourceResult {
	return &types.SourceResult{
		ScrapedAt:  started,
		SourceID:   p.ID(),
		SourceName: p.Name(),
		Error:      msg,
		Records:    []*types.RateRecord{},
		Success:    false,
	}
}
