package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/cdtrates/storage"
	"github.com/sig-0/cdtrates/storage/types"
)

func newAggregate(at time.Time, rate float64) *types.Aggregate {
	record := &types.RateRecord{
		ScrapedAt:  at,
		SourceID:   "bancolombia",
		SourceName: "Bancolombia",
		TermDays:   90,
		RateEA:     rate,
		Provenance: types.ProvenanceCurated,
	}

	return &types.Aggregate{
		GeneratedAt: at,
		ByTerm: map[string][]*types.RateRecord{
			"90": {record},
		},
		Top10:      []*types.RateRecord{record},
		AllRates:   []*types.RateRecord{record},
		TotalBanks: 1,
		TotalRates: 1,
		Statistics: types.Statistics{
			AverageRate: rate,
			MaxRate:     rate,
			MinRate:     rate,
		},
	}
}

func TestNewStorage(t *testing.T) {
	t.Parallel()

	t.Run("creates missing directories", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "data")

		_, err := NewStorage(dir)
		require.NoError(t, err)

		info, err := os.Stat(filepath.Join(dir, HistoryDir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		_, err = os.Stat(filepath.Join(dir, ".writable_test"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()

		_, err := NewStorage("  ")
		assert.Error(t, err)
	})

	t.Run("path is a file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "rates")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

		_, err := NewStorage(path)
		assert.ErrorIs(t, err, errNotDirectory)
	})
}

func TestStorage_Aggregates(t *testing.T) {
	t.Parallel()

	t.Run("no aggregate saved", func(t *testing.T) {
		t.Parallel()

		s, err := NewStorage(t.TempDir())
		require.NoError(t, err)

		_, err = s.LatestAggregate(context.Background())
		assert.ErrorIs(t, err, storage.ErrNoSnapshot)

		snapshots, err := s.Snapshots(context.Background(), 0)
		require.NoError(t, err)
		assert.Empty(t, snapshots)
	})

	t.Run("latest aggregate round trip", func(t *testing.T) {
		t.Parallel()

		s, err := NewStorage(t.TempDir())
		require.NoError(t, err)

		at := time.Date(2025, 12, 1, 10, 30, 0, 0, time.UTC)
		agg := newAggregate(at, 9.5)

		require.NoError(t, s.SaveAggregate(context.Background(), agg))

		latest, err := s.LatestAggregate(context.Background())
		require.NoError(t, err)

		assert.True(t, at.Equal(latest.GeneratedAt))
		assert.Equal(t, 1, latest.TotalRates)
		require.Len(t, latest.AllRates, 1)
		assert.Equal(t, 9.5, latest.AllRates[0].RateEA)
		assert.Equal(t, types.ProvenanceCurated, latest.AllRates[0].Provenance)

		ranking, ok := latest.RankingFor(90)
		require.True(t, ok)
		assert.Len(t, ranking, 1)
	})

	t.Run("snapshots are kept newest first", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()

		s, err := NewStorage(dir)
		require.NoError(t, err)

		base := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

		require.NoError(t, s.SaveAggregate(context.Background(), newAggregate(base, 8.0)))
		require.NoError(t, s.SaveAggregate(context.Background(), newAggregate(base.Add(time.Hour), 9.0)))
		require.NoError(t, s.SaveAggregate(context.Background(), newAggregate(base.Add(2*time.Hour), 10.0)))

		_, err = os.Stat(filepath.Join(dir, HistoryDir, "rates_20251201_100000.json"))
		require.NoError(t, err)

		snapshots, err := s.Snapshots(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, snapshots, 3)

		assert.Equal(t, 10.0, snapshots[0].Statistics.MaxRate)
		assert.Equal(t, 9.0, snapshots[1].Statistics.MaxRate)
		assert.Equal(t, 8.0, snapshots[2].Statistics.MaxRate)

		limited, err := s.Snapshots(context.Background(), 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, 10.0, limited[0].Statistics.MaxRate)

		latest, err := s.LatestAggregate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 10.0, latest.Statistics.MaxRate)
	})

	t.Run("same second snapshots are not overwritten", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()

		s, err := NewStorage(dir)
		require.NoError(t, err)

		at := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

		require.NoError(t, s.SaveAggregate(context.Background(), newAggregate(at, 8.0)))
		require.NoError(t, s.SaveAggregate(context.Background(), newAggregate(at, 9.0)))

		_, err = os.Stat(filepath.Join(dir, HistoryDir, "rates_20251201_100000_001.json"))
		require.NoError(t, err)

		snapshots, err := s.Snapshots(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, snapshots, 2)

		assert.Equal(t, 9.0, snapshots[0].Statistics.MaxRate)
		assert.Equal(t, 8.0, snapshots[1].Statistics.MaxRate)
	})

	t.Run("many same second snapshots stay ordered", func(t *testing.T) {
		t.Parallel()

		s, err := NewStorage(t.TempDir())
		require.NoError(t, err)

		at := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

		for i := 1; i <= 12; i++ {
			require.NoError(t, s.SaveAggregate(context.Background(), newAggregate(at, float64(i))))
		}

		snapshots, err := s.Snapshots(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, snapshots, 12)

		for i, snapshot := range snapshots {
			assert.Equal(t, float64(12-i), snapshot.Statistics.MaxRate)
		}
	})

	t.Run("foreign files are ignored", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()

		s, err := NewStorage(dir)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, HistoryDir, "notes.txt"), []byte("x"), 0o600))
		require.NoError(t, s.SaveAggregate(context.Background(), newAggregate(time.Now(), 8.0)))

		snapshots, err := s.Snapshots(context.Background(), 0)
		require.NoError(t, err)
		assert.Len(t, snapshots, 1)
	})

	t.Run("corrupt current file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()

		s, err := NewStorage(dir)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, CurrentFile), []byte("{not json"), 0o600))

		_, err = s.LatestAggregate(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrNoSnapshot)
	})
}
