package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sig-0/cdtrates/normalize"
)

const (
	cardContainers = "div, article, section, li"
	cardHeadings   = "h1, h2, h3, h4, h5, h6, strong, b"

	minEntityNameLen = 3
)

var (
	cardClassRegex = regexp.MustCompile(`(?i)bank|banco|card|entidad|entity|cdt`)
	cardRateRegex  = regexp.MustCompile(`(\d{1,2}[.,]\d{1,2})\s*%?\s*[eE]\.?\s?[aA]\.?`)
)

// Cards extracts candidates from card-like containers (class names that
// mention banks, cards or CDTs). Innermost cards win over their wrappers,
// a wrapper is only read when none of its inner cards yields an offer
func (e *Extractor) Cards(doc *goquery.Document) []Candidate {
	var (
		cards   = doc.Find(cardContainers).FilterFunction(isCard)
		covered = make(map[*html.Node]struct{})
		groups  = make([][]Candidate, 0)
	)

	// Document order lists wrappers first, walk it backwards
	for i := cards.Length() - 1; i >= 0; i-- {
		card := cards.Eq(i)
		node := card.Get(0)

		if _, ok := covered[node]; ok {
			continue
		}

		found := e.extractCard(card)
		if len(found) == 0 {
			continue
		}

		groups = append(groups, found)

		for parent := node.Parent; parent != nil; parent = parent.Parent {
			covered[parent] = struct{}{}
		}
	}

	out := make([]Candidate, 0)

	for i := len(groups) - 1; i >= 0; i-- {
		out = append(out, groups[i]...)
	}

	return out
}

func (e *Extractor) extractCard(card *goquery.Selection) []Candidate {
	name := cardEntityName(card)
	if name == "" {
		return nil
	}

	text := collapse(card.Text())

	matches := cardRateRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var (
		term        = e.cardTerm(text)
		sourceID, _ = e.resolve(name)

		out = make([]Candidate, 0, len(matches))
	)

	for _, m := range matches {
		rate, ok := normalize.ParseRate(m[1] + "%")
		if !ok || !plausible(rate) {
			continue
		}

		out = append(out, Candidate{
			Entity:   name,
			SourceID: sourceID,
			Strategy: StrategyCard,
			TermDays: term,
			RateEA:   rate,
		})
	}

	return out
}

// cardTerm returns the single term stated in the card text,
// or the fallback term when there is none (or more than one)
func (e *Extractor) cardTerm(text string) int {
	found := make(map[int]struct{})

	for _, m := range termShapeRegex.FindAllString(normalize.Fold(text), -1) {
		if days, ok := normalize.ParseTerm(m); ok {
			found[days] = struct{}{}
		}
	}

	if len(found) != 1 {
		return e.fallbackTerm
	}

	for days := range found {
		return days
	}

	return e.fallbackTerm
}

// cardEntityName returns the first heading-like text of the card
func cardEntityName(card *goquery.Selection) string {
	var name string

	card.Find(cardHeadings).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := collapse(h.Text())
		if len([]rune(text)) < minEntityNameLen || percentRegex.MatchString(normalize.Fold(text)) {
			return true
		}

		name = text

		return false
	})

	return name
}

func isCard(_ int, s *goquery.Selection) bool {
	class, ok := s.Attr("class")
	if !ok || strings.TrimSpace(class) == "" {
		return false
	}

	return cardClassRegex.MatchString(class)
}
