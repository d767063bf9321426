package banks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	r := DefaultResolver()

	testTable := []struct {
		name     string
		input    string
		expected string
	}{
		{"exact alias", "Bancolombia", Bancolombia},
		{"accented alias", "Banco de Bogotá", BancoBogota},
		{"accented brand", "Itaú", Itau},
		{"alias within longer name", "CDT Banco Falabella S.A.", Falabella},
		{"scotiabank prefix", "Scotiabank Colpatria", Colpatria},
		{"short alias", "Colpatria", Colpatria},
		{"multi-word alias", "Banco Caja Social", CajaSocial},
		{"extra whitespace", "  AV   Villas ", AVVillas},
		{"digital bank", "Nu Colombia", Nubank},
		{"mixed case", "LULO BANK", Lulobank},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			id, ok := r.Resolve(testCase.input)

			require.True(t, ok)
			assert.Equal(t, testCase.expected, id)
		})
	}

	t.Run("unknown entity", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{"", "Banco Nuevo", "Cooperativa X", "Bancolombiana"} {
			_, ok := r.Resolve(input)

			assert.False(t, ok, input)
		}
	})
}

func TestResolver_ResolveOrSlug(t *testing.T) {
	t.Parallel()

	r := DefaultResolver()

	assert.Equal(t, Davivienda, r.ResolveOrSlug("Davivienda"))
	assert.Equal(t, "banco_nuevo_s_a", r.ResolveOrSlug("Banco Nuevo S.A."))
}

func TestSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "financiera_andina", Slug("Financiera Andína"))
	assert.Equal(t, "unknown", Slug("***"))
	assert.Equal(t, "unknown", Slug(""))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	b, ok := Lookup(BBVA)

	require.True(t, ok)
	assert.Equal(t, "BBVA Colombia", b.Name)

	_, ok = Lookup("missing")
	assert.False(t, ok)
}
