// Package extract infers (entity, term, rate, amount) tuples from arbitrary
// HTML documents, using layout and pattern heuristics instead of selectors.
//
// Three strategies run in order (tables, cards, free text) and their results
// are concatenated. Heuristic misses are expected: extraction never fails, it
// only yields fewer candidates.
package extract

import (
	"io"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/cdtrates/storage/types"
)

// Strategy identifies which heuristic produced a candidate
type Strategy string

const (
	StrategyTable Strategy = "table"
	StrategyCard  Strategy = "card"
	StrategyText  Strategy = "text"
)

// Candidate is a single extracted offer, prior to record construction
type Candidate struct {
	MinAmount *float64
	Entity    string   // the entity name, as found in the document
	SourceID  string   // the resolved canonical source ID, if any
	Strategy  Strategy // the strategy that produced the candidate
	TermDays  int
	RateEA    float64
}

// Resolver maps free-form entity names to canonical source IDs
type Resolver interface {
	// Resolve returns the canonical ID for the name, if known
	Resolve(name string) (string, bool)
}

// Extractor runs the extraction heuristics over documents
type Extractor struct {
	resolver Resolver
	logger   *slog.Logger

	fallbackTerm int
}

// New creates a new extractor instance
func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		fallbackTerm: types.DefaultTerm,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract runs all strategies (table, card, free text) over the document
func (e *Extractor) Extract(doc *goquery.Document) []Candidate {
	if doc == nil {
		return nil
	}

	var (
		tables = e.Tables(doc)
		cards  = e.Cards(doc)
		text   = e.FreeText(doc)
	)

	e.logger.Debug(
		"extracted candidates",
		"tables", len(tables),
		"cards", len(cards),
		"text", len(text),
	)

	out := make([]Candidate, 0, len(tables)+len(cards)+len(text))
	out = append(out, tables...)
	out = append(out, cards...)
	out = append(out, text...)

	return out
}

// resolve maps the entity name using the configured resolver, if any
func (e *Extractor) resolve(name string) (string, bool) {
	if e.resolver == nil || name == "" {
		return "", false
	}

	return e.resolver.Resolve(name)
}

// plausible checks the rate is within the accepted effective-annual bounds
func plausible(rate float64) bool {
	return rate > types.MinPlausibleRate && rate < types.MaxPlausibleRate
}
