package cdt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/cdtrates/storage/types"
)

var errNoRates = errors.New("no rates found")

// Fetcher fetches and parses source documents
type Fetcher interface {
	Get(ctx context.Context, url string) (*goquery.Document, error)
}

// produce runs the source work and wraps it into a stamped result.
// Errors and panics are captured in the result, never propagated
func produce(
	id string,
	name string,
	now func() time.Time,
	work func(scrapedAt time.Time) ([]*types.RateRecord, error),
) (res *types.SourceResult) {
	started := now()

	res = &types.SourceResult{
		ScrapedAt:  started,
		SourceID:   id,
		SourceName: name,
		Records:    []*types.RateRecord{},
	}

	defer func() {
		if r := recover(); r != nil {
			res.Records = []*types.RateRecord{}
			res.Success = false
			res.Error = fmt.Sprintf("source panicked: %v", r)
		}

		res.Duration = now().Sub(started)
	}()

	records, err := work(started)
	if records != nil {
		res.Records = records
	}

	if err != nil {
		res.Error = err.Error()

		return res
	}

	res.Success = true

	return res
}

// recordKey identifies duplicate offers within a single source
type recordKey struct {
	sourceID string
	termDays int
	rateBps  int64
}

// dedup tracks seen offers, keeping the first of every duplicate
type dedup map[recordKey]struct{}

func (d dedup) add(r *types.RateRecord) bool {
	key := recordKey{
		sourceID: r.SourceID,
		termDays: r.TermDays,
		rateBps:  int64(math.Round(r.RateEA * 100)),
	}

	if _, ok := d[key]; ok {
		return false
	}

	d[key] = struct{}{}

	return true
}
