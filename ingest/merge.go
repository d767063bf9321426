package ingest

import (
	"math"
	"sort"
	"time"

	"github.com/sig-0/cdtrates/normalize"
	"github.com/sig-0/cdtrates/storage/types"
)

// recordKey identifies duplicate offers across sources
type recordKey struct {
	sourceID string
	termDays int
	rateBps  int64
}

func keyOf(r *types.RateRecord) recordKey {
	return recordKey{
		sourceID: r.SourceID,
		termDays: r.TermDays,
		rateBps:  int64(math.Round(r.RateEA * 100)),
	}
}

// merge flattens the records of the successful results, in result order,
// dropping invalid records and keeping the first of every duplicate
func merge(results []*types.SourceResult) []*types.RateRecord {
	var (
		seen    = make(map[recordKey]struct{})
		records = make([]*types.RateRecord, 0)
	)

	for _, res := range results {
		if !res.Success {
			continue
		}

		for _, r := range res.Records {
			if !r.Valid() {
				continue
			}

			key := keyOf(r)
			if _, ok := seen[key]; ok {
				continue
			}

			seen[key] = struct{}{}
			records = append(records, r)
		}
	}

	return records
}

// rank orders the records by rate, highest first.
// Equal rates keep their merge order
func rank(records []*types.RateRecord) []*types.RateRecord {
	ranked := make([]*types.RateRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RateEA > ranked[j].RateEA
	})

	return ranked
}

// buildAggregate builds the ranked aggregate view over the merged records
func buildAggregate(
	generatedAt time.Time,
	records []*types.RateRecord,
	successful int,
	topN int,
) *types.Aggregate {
	ranked := rank(records)

	byTerm := make(map[string][]*types.RateRecord, len(types.StandardTerms))
	for _, term := range types.StandardTerms {
		byTerm[types.TermKey(term)] = make([]*types.RateRecord, 0)
	}

	for _, r := range ranked {
		key := types.TermKey(r.TermDays)

		if ranking, ok := byTerm[key]; ok {
			byTerm[key] = append(ranking, r)
		}
	}

	top := ranked
	if len(top) > topN {
		top = top[:topN]
	}

	return &types.Aggregate{
		GeneratedAt: generatedAt,
		ByTerm:      byTerm,
		Top10:       top,
		AllRates:    ranked,
		Statistics:  statistics(ranked),
		TotalBanks:  successful,
		TotalRates:  len(ranked),
	}
}

// statistics computes the rate summary, zeroed when there are no records
func statistics(records []*types.RateRecord) types.Statistics {
	if len(records) == 0 {
		return types.Statistics{}
	}

	var (
		sum     float64
		maxRate = records[0].RateEA
		minRate = records[0].RateEA
	)

	for _, r := range records {
		sum += r.RateEA
		maxRate = math.Max(maxRate, r.RateEA)
		minRate = math.Min(minRate, r.RateEA)
	}

	return types.Statistics{
		AverageRate: normalize.Round2(sum / float64(len(records))),
		MaxRate:     normalize.Round2(maxRate),
		MinRate:     normalize.Round2(minRate),
	}
}
