package cdt

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

type getDelegate func(context.Context, string) (*goquery.Document, error)

type mockFetcher struct {
	getFn getDelegate
}

func (m *mockFetcher) Get(ctx context.Context, url string) (*goquery.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, url)
	}

	return nil, nil
}

func newDocument(t *testing.T, body string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)

	return doc
}
