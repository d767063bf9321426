package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/cdtrates/storage/types"
)

func TestSimulate(t *testing.T) {
	t.Parallel()

	t.Run("reference scenario", func(t *testing.T) {
		t.Parallel()

		sim, err := Simulate(10_000_000, 12.5, 360)
		require.NoError(t, err)

		assert.Equal(t, 1_231_863.14, sim.GrossProfit)
		assert.Equal(t, 49_274.53, sim.Withholding)
		assert.Equal(t, 1_182_588.61, sim.NetProfit)
		assert.Equal(t, 11_182_588.61, sim.Total)
		assert.Equal(t, 12.3186, sim.EffectiveRate)

		assert.Equal(t, 10_000_000.0, sim.Amount)
		assert.Equal(t, 12.5, sim.RateEA)
		assert.Equal(t, 360, sim.TermDays)
	})

	t.Run("withholding is 4% of gross", func(t *testing.T) {
		t.Parallel()

		sim, err := Simulate(5_000_000, 9.5, 90)
		require.NoError(t, err)

		assert.InDelta(t, sim.GrossProfit*WithholdingRate, sim.Withholding, 0.01)
		assert.InDelta(t, sim.GrossProfit-sim.Withholding, sim.NetProfit, 0.01)
		assert.InDelta(t, 5_000_000+sim.NetProfit, sim.Total, 0.01)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()

		testTable := []struct {
			name     string
			amount   float64
			rate     float64
			term     int
			expected error
		}{
			{"zero amount", 0, 10, 90, ErrInvalidAmount},
			{"negative amount", -1, 10, 90, ErrInvalidAmount},
			{"nan amount", math.NaN(), 10, 90, ErrInvalidAmount},
			{"zero term", 1000, 10, 0, ErrInvalidTerm},
			{"zero rate", 1000, 0, 90, ErrInvalidRate},
			{"negative rate", 1000, -2, 90, ErrInvalidRate},
		}

		for _, testCase := range testTable {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				_, err := Simulate(testCase.amount, testCase.rate, testCase.term)
				assert.ErrorIs(t, err, testCase.expected)
			})
		}
	})
}

func TestCompare(t *testing.T) {
	t.Parallel()

	records := []*types.RateRecord{
		{SourceID: "pibank", SourceName: "Pibank", TermDays: 360, RateEA: 10.0},
		{SourceID: "coltefinanciera", SourceName: "Coltefinanciera", TermDays: 360, RateEA: 12.5},
		{SourceID: "pichincha", SourceName: "Banco Pichincha", TermDays: 360, RateEA: 11.2},
		{SourceID: "ban100", SourceName: "Ban100", TermDays: 90, RateEA: 10.3},
	}

	t.Run("ordered by net profit", func(t *testing.T) {
		t.Parallel()

		comparisons, err := Compare(records, 10_000_000, 360, nil)
		require.NoError(t, err)
		require.Len(t, comparisons, 3)

		assert.Equal(t, "coltefinanciera", comparisons[0].SourceID)
		assert.Equal(t, 1_182_588.61, comparisons[0].NetProfit)
		assert.Equal(t, 0.0, comparisons[0].DifferenceFromBest)

		assert.Equal(t, "pichincha", comparisons[1].SourceID)
		assert.Equal(t, 1_103_840.50, comparisons[1].GrossProfit)
		assert.Equal(t, 1_059_686.88, comparisons[1].NetProfit)
		assert.Equal(t, 11_059_686.88, comparisons[1].Total)
		assert.Equal(t, 122_901.73, comparisons[1].DifferenceFromBest)

		assert.Equal(t, "pibank", comparisons[2].SourceID)
		assert.Equal(t, 946_221.66, comparisons[2].NetProfit)
		assert.Equal(t, 236_366.95, comparisons[2].DifferenceFromBest)
	})

	t.Run("limited to sources", func(t *testing.T) {
		t.Parallel()

		comparisons, err := Compare(records, 10_000_000, 360, []string{"pibank", "ban100"})
		require.NoError(t, err)
		require.Len(t, comparisons, 1)

		assert.Equal(t, "pibank", comparisons[0].SourceID)
		assert.Equal(t, 0.0, comparisons[0].DifferenceFromBest)
	})

	t.Run("no matching term", func(t *testing.T) {
		t.Parallel()

		comparisons, err := Compare(records, 10_000_000, 720, nil)
		require.NoError(t, err)

		assert.NotNil(t, comparisons)
		assert.Empty(t, comparisons)
	})

	t.Run("invalid amount", func(t *testing.T) {
		t.Parallel()

		_, err := Compare(records, 0, 360, nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestBestRate(t *testing.T) {
	t.Parallel()

	records := []*types.RateRecord{
		{SourceID: "bbva", TermDays: 90, RateEA: 9.0},
		{SourceID: "ban100", TermDays: 90, RateEA: 10.3},
		{SourceID: "bbva", TermDays: 90, RateEA: 9.2},
		{SourceID: "bbva", TermDays: 180, RateEA: 11.0},
	}

	best, ok := BestRate(records, 90, "")
	require.True(t, ok)
	assert.Equal(t, "ban100", best.SourceID)

	best, ok = BestRate(records, 90, "bbva")
	require.True(t, ok)
	assert.Equal(t, 9.2, best.RateEA)

	_, ok = BestRate(records, 360, "")
	assert.False(t, ok)
}
