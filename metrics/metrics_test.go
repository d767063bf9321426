package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_SanitizeHost(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		name     string
		input    string
		expected string
	}{
		{"full url", "https://WWW.Bancolombia.com/personas/cdt", "www.bancolombia.com"},
		{"missing scheme", "mejorcdt.com/mejores-cdt", "mejorcdt.com"},
		{"invalid url", "http://", "unknown"},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, SanitizeHost(testCase.input))
		})
	}
}

func TestMetrics_Observe(t *testing.T) {
	t.Parallel()

	t.Run("source results", func(t *testing.T) {
		t.Parallel()

		before := testutil.ToFloat64(sourceResultsTotal.WithLabelValues("metrics-test", StatusFailure))

		ObserveSource("metrics-test", false)

		after := testutil.ToFloat64(sourceResultsTotal.WithLabelValues("metrics-test", StatusFailure))
		assert.InDelta(t, before+1, after, 1e-9)
	})

	t.Run("fetch attempts", func(t *testing.T) {
		t.Parallel()

		before := testutil.ToFloat64(fetchAttemptsTotal.WithLabelValues("metrics.test", "ok"))

		ObserveFetch("https://metrics.test/page", "ok")

		after := testutil.ToFloat64(fetchAttemptsTotal.WithLabelValues("metrics.test", "ok"))
		assert.InDelta(t, before+1, after, 1e-9)
	})

	t.Run("cycle gauge", func(t *testing.T) {
		t.Parallel()

		ObserveCycle(StatusSuccess, time.Second, 42)

		assert.InDelta(t, 42.0, testutil.ToFloat64(aggregateRates), 1e-9)
	})
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	ObserveCacheLookup(CacheHit)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cdtrates_cache_lookups_total")
}
