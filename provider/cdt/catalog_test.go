package cdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/cdtrates/provider/banks"
)

func TestDefaultProviders(t *testing.T) {
	t.Parallel()

	providers := DefaultProviders(&mockFetcher{})

	require.NotEmpty(t, providers)

	var (
		ids     = make(map[string]struct{}, len(providers))
		statics int
		generic int
	)

	for _, p := range providers {
		_, dup := ids[p.ID()]
		assert.False(t, dup, p.ID())

		ids[p.ID()] = struct{}{}

		switch p.(type) {
		case *StaticProvider:
			statics++
		case *GenericProvider:
			generic++
		}
	}

	assert.Equal(t, len(StaticSources), statics)
	assert.Positive(t, generic)

	// Curated sources never fall back to extraction
	for _, id := range StaticSources {
		_, ok := ids[id]
		assert.True(t, ok, id)
	}

	// Banks without a product page are alias-only
	_, ok := ids[banks.Agrario]
	assert.False(t, ok)

	assert.Equal(t, banks.MejorCDT, providers[len(providers)-1].ID())
}
