package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/cdtrates/normalize"
)

// maxContextChars caps how much of each ancestor's text is scanned for
// domain keywords
const (
	maxContextChars   = 500
	maxContextParents = 3
)

var (
	contextKeywords = []string{
		"cdt",
		"tasa",
		"plazo",
		"inversion",
		"deposito",
		"rate",
		"term",
		"deposit",
		"investment",
	}

	bankKeywords   = []string{"banco", "entidad", "institucion", "emisor", "bank"}
	rateKeywords   = []string{"tasa", "rate", "e.a", "rendimiento", "interes", "rentabilidad", "%"}
	termKeywords   = []string{"plazo", "dias", "meses", "term", "periodo", "tiempo"}
	amountKeywords = []string{"monto", "inversion", "amount", "valor", "capital", "minimo"}

	eaWordRegex    = regexp.MustCompile(`(^|[^a-z])ea([^a-z]|$)`)
	percentRegex   = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*(?:%|e\.?a\b)`)
	termShapeRegex = regexp.MustCompile(`\d+\s*(?:dias?|mes(?:es)?|anos?|days?|months?|years?)\b`)
)

// columns holds the column index of each role (-1 when absent)
type columns struct {
	bank   int
	rate   int
	term   int
	amount int
}

func newColumns() columns {
	return columns{
		bank:   -1,
		rate:   -1,
		term:   -1,
		amount: -1,
	}
}

// used checks if the column index is already assigned a role
func (c columns) used(i int) bool {
	return c.bank == i || c.rate == i || c.term == i || c.amount == i
}

// Tables extracts candidates from domain-relevant <table> elements
func (e *Extractor) Tables(doc *goquery.Document) []Candidate {
	out := make([]Candidate, 0)

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if !hasDomainContext(table) {
			return
		}

		out = append(out, e.extractTable(table)...)
	})

	return out
}

func (e *Extractor) extractTable(table *goquery.Selection) []Candidate {
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil
	}

	var (
		first  = cellTexts(rows.First())
		header = isHeaderRow(first)

		headers   []string
		dataStart = 0
	)

	if header {
		headers = first
		dataStart = 1
	}

	// Wide layout: every term is its own column ("90 dias", "180 dias", ...)
	if wide := termColumns(headers); len(wide) >= 2 {
		return e.extractWideTable(rows, dataStart, headers, wide)
	}

	cols := classifyHeaders(headers)

	// Content fallback for the roles the headers didn't reveal
	sampleIdx := dataStart
	if sampleIdx < rows.Length() {
		cols = classifyContent(cols, cellTexts(rows.Eq(sampleIdx)))
	}

	if cols.bank == -1 && !cols.used(0) {
		cols.bank = 0
	}

	// A single-term rate header ("Tasa 180 dias") carries the term for all rows
	headerTerm := 0
	if cols.term == -1 && cols.rate != -1 && cols.rate < len(headers) {
		if termShapeRegex.MatchString(headers[cols.rate]) {
			headerTerm, _ = normalize.ParseTerm(headers[cols.rate])
		}
	}

	if cols.rate == -1 || (cols.term == -1 && headerTerm == 0) {
		return nil
	}

	out := make([]Candidate, 0, rows.Length())

	rows.Slice(dataStart, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := rawCellTexts(row)

		rate, ok := parseCellRate(cells, cols.rate)
		if !ok {
			return
		}

		term := headerTerm
		if cols.term != -1 {
			if cols.term >= len(cells) {
				return
			}

			if term, ok = normalize.ParseTerm(cells[cols.term]); !ok {
				return
			}
		}

		out = append(out, e.newTableCandidate(cells, cols, term, rate))
	})

	return out
}

func (e *Extractor) extractWideTable(
	rows *goquery.Selection,
	dataStart int,
	headers []string,
	terms map[int]int,
) []Candidate {
	cols := classifyHeaders(headers)

	// Term columns can't carry any other role
	for i := range terms {
		if cols.rate == i {
			cols.rate = -1
		}

		if cols.term == i {
			cols.term = -1
		}

		if cols.amount == i {
			cols.amount = -1
		}
	}

	if cols.bank == -1 {
		if _, isTerm := terms[0]; !isTerm {
			cols.bank = 0
		}
	}

	out := make([]Candidate, 0)

	rows.Slice(dataStart, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := rawCellTexts(row)

		for i := 0; i < len(cells); i++ {
			term, isTerm := terms[i]
			if !isTerm {
				continue
			}

			rate, ok := parseCellRate(cells, i)
			if !ok {
				continue
			}

			out = append(out, e.newTableCandidate(cells, cols, term, rate))
		}
	})

	return out
}

func (e *Extractor) newTableCandidate(cells []string, cols columns, term int, rate float64) Candidate {
	c := Candidate{
		Strategy: StrategyTable,
		TermDays: term,
		RateEA:   rate,
	}

	if cols.bank != -1 && cols.bank < len(cells) {
		c.Entity = collapse(cells[cols.bank])
		c.SourceID, _ = e.resolve(c.Entity)
	}

	if cols.amount != -1 && cols.amount < len(cells) {
		if amount, ok := normalize.ParseAmount(cells[cols.amount]); ok {
			c.MinAmount = &amount
		}
	}

	return c
}

// classifyHeaders assigns roles to header cells by keyword.
// Per cell, the priority is bank, then rate, then term, then amount
func classifyHeaders(headers []string) columns {
	cols := newColumns()

	for i, h := range headers {
		switch {
		case cols.bank == -1 && containsAny(h, bankKeywords):
			cols.bank = i
		case cols.rate == -1 && isRateHeader(h):
			cols.rate = i
		case cols.term == -1 && containsAny(h, termKeywords):
			cols.term = i
		case cols.amount == -1 && containsAny(h, amountKeywords):
			cols.amount = i
		}
	}

	return cols
}

// classifyContent fills in the missing rate and term roles by sampling
// cell contents. Roles already assigned by headers are left untouched
func classifyContent(cols columns, sample []string) columns {
	for i, cell := range sample {
		if cols.used(i) {
			continue
		}

		switch {
		case cols.rate == -1 && percentRegex.MatchString(cell):
			cols.rate = i
		case cols.term == -1 && termShapeRegex.MatchString(cell):
			cols.term = i
		}
	}

	return cols
}

// termColumns returns the header cells that are term labels, keyed by index
func termColumns(headers []string) map[int]int {
	terms := make(map[int]int)

	for i, h := range headers {
		if containsAny(h, rateKeywords) && !strings.Contains(h, "%") {
			// "Tasa 90 dias" is a rate header, not a term column
			continue
		}

		if !termShapeRegex.MatchString(h) {
			continue
		}

		if days, ok := normalize.ParseTerm(h); ok {
			terms[i] = days
		}
	}

	return terms
}

// isHeaderRow decides if the first table row labels the columns.
// Rows carrying rate-shaped values are data, even when they use <th> cells
func isHeaderRow(cells []string) bool {
	for _, cell := range cells {
		if percentRegex.MatchString(cell) {
			return false
		}
	}

	return true
}

func isRateHeader(h string) bool {
	return containsAny(h, rateKeywords) || eaWordRegex.MatchString(h)
}

// hasDomainContext checks the table, or one of its closest ancestors,
// mentions deposit-related keywords
func hasDomainContext(table *goquery.Selection) bool {
	if containsAny(normalize.Fold(table.Text()), contextKeywords) {
		return true
	}

	parent := table.Parent()

	for i := 0; i < maxContextParents && parent.Length() > 0; i++ {
		text := normalize.Fold(parent.Text())
		if r := []rune(text); len(r) > maxContextChars {
			text = string(r[:maxContextChars])
		}

		if containsAny(text, contextKeywords) {
			return true
		}

		parent = parent.Parent()
	}

	return false
}

func parseCellRate(cells []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(cells) {
		return 0, false
	}

	rate, ok := normalize.ParseRate(cells[idx])
	if !ok || !plausible(rate) {
		return 0, false
	}

	return rate, true
}

// cellTexts returns the folded, whitespace-collapsed texts of the row cells
func cellTexts(row *goquery.Selection) []string {
	raw := rawCellTexts(row)

	out := make([]string, len(raw))
	for i, t := range raw {
		out[i] = normalize.Fold(t)
	}

	return out
}

// rawCellTexts returns the whitespace-collapsed texts of the direct row cells
func rawCellTexts(row *goquery.Selection) []string {
	cells := row.ChildrenFiltered("td, th")

	out := make([]string, 0, cells.Length())

	cells.Each(func(_ int, cell *goquery.Selection) {
		out = append(out, collapse(cell.Text()))
	})

	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}

	return false
}
