package banks

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sig-0/cdtrates/normalize"
)

const unknownSlug = "unknown"

var (
	wordRegex    = regexp.MustCompile(`[a-z0-9]+`)
	nonSlugRegex = regexp.MustCompile(`[^a-z0-9]+`)
)

type alias struct {
	words string // space-padded alias words (" banco de bogota ")
	id    string
}

// Resolver maps free-form entity names onto canonical source IDs.
// A name resolves when it contains a known alias as whole words;
// longer aliases are tried first, so "Banco de Occidente" never
// resolves through a shorter, looser alias
type Resolver struct {
	aliases []alias
}

// NewResolver creates a resolver over the given catalog
func NewResolver(catalog []Bank) *Resolver {
	r := &Resolver{
		aliases: make([]alias, 0, len(catalog)),
	}

	for _, b := range catalog {
		for _, a := range b.Aliases {
			r.aliases = append(r.aliases, alias{
				words: padWords(a),
				id:    b.ID,
			})
		}
	}

	sort.SliceStable(r.aliases, func(i, j int) bool {
		return len(r.aliases[i].words) > len(r.aliases[j].words)
	})

	return r
}

// DefaultResolver creates a resolver over the full catalog
func DefaultResolver() *Resolver {
	return NewResolver(Catalog)
}

// Resolve returns the canonical source ID for the name, if any alias matches
func (r *Resolver) Resolve(name string) (string, bool) {
	words := padWords(name)
	if strings.TrimSpace(words) == "" {
		return "", false
	}

	for _, a := range r.aliases {
		if strings.Contains(words, a.words) {
			return a.id, true
		}
	}

	return "", false
}

// ResolveOrSlug resolves the name, falling back to its slug
func (r *Resolver) ResolveOrSlug(name string) string {
	if id, ok := r.Resolve(name); ok {
		return id
	}

	return Slug(name)
}

// Slug derives a source ID from an unknown entity name
// ("Banco Nuevo S.A." -> "banco_nuevo_s_a")
func Slug(name string) string {
	s := nonSlugRegex.ReplaceAllString(normalize.Fold(name), "_")
	s = strings.Trim(s, "_")

	if s == "" {
		return unknownSlug
	}

	return s
}

// padWords folds the text into its space-separated alphanumeric words,
// padded with a space on both ends
func padWords(s string) string {
	return " " + strings.Join(wordRegex.FindAllString(normalize.Fold(s), -1), " ") + " "
}
