package cdt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/cdtrates/provider/banks"
)

const consolidatorPage = `<html><body>
	<h1>Mejores CDT</h1>
	<table>
		<tr><th>Entidad</th><th>Plazo</th><th>Tasa E.A.</th></tr>
		<tr><td>Banco Pichincha</td><td>360 días</td><td>11,20%</td></tr>
		<tr><td>Banco Nuevo S.A.</td><td>90 días</td><td>10,50%</td></tr>
		<tr><td>Banco Pichincha</td><td>360 días</td><td>11,20%</td></tr>
	</table>
</body></html>`

func TestMonthPages(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC)

	pages := MonthPages("https://mejorcdt.com/", now, 3)

	require.Len(t, pages, 3)

	assert.Equal(t, MonthPage{
		Key: "enero-2026",
		URL: "https://mejorcdt.com/mejores-cdt-enero-2026",
	}, pages[0])
	assert.Equal(t, "diciembre-2025", pages[1].Key)
	assert.Equal(t, "https://mejorcdt.com/mejores-cdt-noviembre-2025", pages[2].URL)
}

func TestMejorCDTProvider_Produce(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, time.December, 15, 8, 0, 0, 0, time.UTC)

	newProvider := func(fetcher Fetcher, months int) *MejorCDTProvider {
		resolver := banks.DefaultResolver()

		return NewMejorCDTProvider(
			fetcher,
			newExtractor(),
			resolver,
			WithClock(fixedClock(at)),
			WithMonths(months),
			WithPause(0),
		)
	}

	t.Run("partial month failure", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockFetcher{
			getFn: func(_ context.Context, url string) (*goquery.Document, error) {
				if strings.HasSuffix(url, "diciembre-2025") {
					return newDocument(t, consolidatorPage), nil
				}

				return nil, errors.New("not found")
			},
		}

		p := newProvider(fetcher, 2)

		assert.Equal(t, banks.MejorCDT, p.ID())

		res := p.Produce(context.Background())

		require.True(t, res.Success)
		assert.Empty(t, res.Error)
		require.Len(t, res.Records, 2)

		pichincha := res.Records[0]
		assert.Equal(t, banks.Pichincha, pichincha.SourceID)
		assert.Equal(t, "Banco Pichincha", pichincha.SourceName)
		assert.Equal(t, 360, pichincha.TermDays)
		assert.Equal(t, 11.2, pichincha.RateEA)
		assert.Equal(t, "https://mejorcdt.com/mejores-cdt-diciembre-2025", pichincha.SourceURL)

		unknown := res.Records[1]
		assert.Equal(t, "banco_nuevo_s_a", unknown.SourceID)
		assert.Equal(t, "Banco Nuevo S.A.", unknown.SourceName)
		assert.Equal(t, 90, unknown.TermDays)
	})

	t.Run("duplicates across months", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockFetcher{
			getFn: func(_ context.Context, _ string) (*goquery.Document, error) {
				return newDocument(t, consolidatorPage), nil
			},
		}

		res := newProvider(fetcher, 3).Produce(context.Background())

		require.True(t, res.Success)
		assert.Len(t, res.Records, 2)
	})

	t.Run("every month fails", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockFetcher{
			getFn: func(_ context.Context, url string) (*goquery.Document, error) {
				if strings.HasSuffix(url, "noviembre-2025") {
					return newDocument(t, `<html><body><p>Sin datos</p></body></html>`), nil
				}

				return nil, errors.New("gateway timeout")
			},
		}

		res := newProvider(fetcher, 2).Produce(context.Background())

		assert.False(t, res.Success)
		assert.Empty(t, res.Records)
		assert.Contains(t, res.Error, "diciembre-2025: unable to fetch page: gateway timeout")
		assert.Contains(t, res.Error, "noviembre-2025: "+errNoRates.Error())
	})

	t.Run("canceled between months", func(t *testing.T) {
		t.Parallel()

		ctx, cancelFn := context.WithCancel(context.Background())

		fetcher := &mockFetcher{
			getFn: func(_ context.Context, _ string) (*goquery.Document, error) {
				cancelFn()

				return nil, errors.New("not found")
			},
		}

		p := NewMejorCDTProvider(
			fetcher,
			newExtractor(),
			banks.DefaultResolver(),
			WithClock(fixedClock(at)),
			WithMonths(3),
			WithPause(time.Hour),
		)

		res := p.Produce(ctx)

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, context.Canceled.Error())
	})
}
