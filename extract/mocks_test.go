package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

type resolveDelegate func(string) (string, bool)

type mockResolver struct {
	resolveFn resolveDelegate
}

func (m *mockResolver) Resolve(name string) (string, bool) {
	if m.resolveFn != nil {
		return m.resolveFn(name)
	}

	return "", false
}

// containsResolver resolves names containing any of the given keys
func containsResolver(ids map[string]string) *mockResolver {
	return &mockResolver{
		resolveFn: func(name string) (string, bool) {
			lower := strings.ToLower(name)

			for k, id := range ids {
				if strings.Contains(lower, k) {
					return id, true
				}
			}

			return "", false
		},
	}
}

func newDocument(t *testing.T, body string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)

	return doc
}
