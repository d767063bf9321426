package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/cdtrates/normalize"
)

// freeTextRegex matches sentences like
// "Banco de Bogota ofrece una tasa del 9,5% E.A. a 180 dias"
var freeTextRegex = regexp.MustCompile(
	`(\p{Lu}[\p{L}\d]+(?:\s+(?:de\s+|del\s+)?\p{Lu}[\p{L}\d]+)*)` +
		`\s+(?:ofrece|tiene|paga|offers|has|pays)\s+` +
		`(?:(?:una\s+)?(?:tasa|rentabilidad)\s+(?:del?\s+)?|hasta\s+)?` +
		`(\d{1,2}(?:[.,]\d{1,2})?)\s*%\s*[eE]\.?\s?[aA]\.?` +
		`(?:\s+(?:a|en|por|para)\s+(\d+\s*(?:d[ií]as|meses|mes|days|months)))?`,
)

// FreeText extracts candidates from prose mentions of offers.
// Only mentions whose entity resolves to a known source are kept
func (e *Extractor) FreeText(doc *goquery.Document) []Candidate {
	if e.resolver == nil {
		return nil
	}

	var (
		text    = collapse(doc.Text())
		matches = freeTextRegex.FindAllStringSubmatch(text, -1)

		out = make([]Candidate, 0, len(matches))
	)

	for _, m := range matches {
		sourceID, ok := e.resolve(m[1])
		if !ok {
			continue
		}

		rate, ok := normalize.ParseRate(m[2] + "%")
		if !ok || !plausible(rate) {
			continue
		}

		term := e.fallbackTerm
		if m[3] != "" {
			if days, ok := normalize.ParseTerm(m[3]); ok {
				term = days
			}
		}

		out = append(out, Candidate{
			Entity:   m[1],
			SourceID: sourceID,
			Strategy: StrategyText,
			TermDays: term,
			RateEA:   rate,
		})
	}

	return out
}
