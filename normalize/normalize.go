// Package normalize converts free-form rate, term and amount strings
// (as found on Colombian bank websites) into canonical numeric values.
//
// Every parser is total: malformed input yields ok == false, never an error
// or a panic. All parsers are deterministic and hold no state.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	numberRegex = regexp.MustCompile(`\d[\d.,]*`)

	daysRegex   = regexp.MustCompile(`(\d+)\s*(?:dias?|days?|d)\b`)
	monthsRegex = regexp.MustCompile(`(\d+)\s*(?:mes(?:es)?|months?)\b`)
	yearsRegex  = regexp.MustCompile(`(\d+)\s*(?:anos?|years?)\b`)
	bareRegex   = regexp.MustCompile(`\d+`)

	millionRegex = regexp.MustCompile(`(\d[\d.,]*)\s*(?:millones|millon|millions?|mill|mm|m)\b`)
)

const (
	daysPerMonth = 30
	daysPerYear  = 365

	// bare integers up to this value are read as months
	maxBareMonths = 36
)

// Fold lower-cases the string and strips diacritics ("Días" -> "dias")
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}

	return strings.ToLower(out)
}

// Round2 rounds the value to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseRate parses an effective-annual rate into percent units.
// Values <= 1 without an explicit '%' are treated as fractions ("0.095" -> 9.5)
func ParseRate(text string) (float64, bool) {
	s := Fold(strings.TrimSpace(text))
	if s == "" {
		return 0, false
	}

	hasPercent := strings.Contains(s, "%")

	tok := numberRegex.FindString(s)
	if tok == "" {
		return 0, false
	}

	v, ok := parseNumber(tok, false)
	if !ok || v <= 0 {
		return 0, false
	}

	if v <= 1 && !hasPercent {
		v *= 100
	}

	return Round2(v), true
}

// ParseTerm parses a term description into days.
// Explicit days win over months, months over years. A bare integer up to 36
// is a month count, anything larger is a day count
func ParseTerm(text string) (int, bool) {
	s := Fold(strings.TrimSpace(text))
	if s == "" {
		return 0, false
	}

	var days int

	switch {
	case daysRegex.MatchString(s):
		days = atoi(daysRegex.FindStringSubmatch(s)[1])
	case monthsRegex.MatchString(s):
		days = atoi(monthsRegex.FindStringSubmatch(s)[1]) * daysPerMonth
	case yearsRegex.MatchString(s):
		days = atoi(yearsRegex.FindStringSubmatch(s)[1]) * daysPerYear
	default:
		tok := bareRegex.FindString(s)
		if tok == "" {
			return 0, false
		}

		days = atoi(tok)
		if days <= maxBareMonths {
			days *= daysPerMonth
		}
	}

	if days <= 0 {
		return 0, false
	}

	return days, true
}

// ParseAmount parses a currency amount ("$500.000", "10 millones", "COP 1,5MM")
func ParseAmount(text string) (float64, bool) {
	s := Fold(strings.TrimSpace(text))
	if s == "" {
		return 0, false
	}

	s = strings.NewReplacer("$", "", "cop", "", "pesos", "").Replace(s)
	s = strings.TrimSpace(s)

	if m := millionRegex.FindStringSubmatch(s); m != nil {
		v, ok := parseNumber(m[1], true)
		if !ok || v <= 0 {
			return 0, false
		}

		return math.Round(v * 1_000_000), true
	}

	tok := numberRegex.FindString(s)
	if tok == "" {
		return 0, false
	}

	v, ok := parseNumber(tok, true)
	if !ok || v <= 0 {
		return 0, false
	}

	return v, true
}

// FormatRate renders the rate so that ParseRate yields the same value back
func FormatRate(rate float64) string {
	return strconv.FormatFloat(Round2(rate), 'f', -1, 64) + "%"
}

// FormatTerm renders the term so that ParseTerm yields the same value back
func FormatTerm(days int) string {
	return strconv.Itoa(days) + " dias"
}

// parseNumber resolves locale separators in a numeric token.
// When both '.' and ',' are present, the last one is the decimal separator.
// A repeated separator is a thousands separator. A single separator followed
// by exactly 3 digits is a thousands separator only if thousands is set
func parseNumber(tok string, thousands bool) (float64, bool) {
	tok = strings.TrimRight(tok, ".,")
	if tok == "" {
		return 0, false
	}

	var (
		dots   = strings.Count(tok, ".")
		commas = strings.Count(tok, ",")
	)

	switch {
	case dots > 0 && commas > 0:
		lastDot := strings.LastIndex(tok, ".")
		lastComma := strings.LastIndex(tok, ",")

		if lastComma > lastDot {
			tok = strings.ReplaceAll(tok, ".", "")
			tok = strings.Replace(tok, ",", ".", 1)
		} else {
			tok = strings.ReplaceAll(tok, ",", "")
		}
	case dots > 1:
		tok = strings.ReplaceAll(tok, ".", "")
	case commas > 1:
		tok = strings.ReplaceAll(tok, ",", "")
	case dots == 1 || commas == 1:
		sep := "."
		if commas == 1 {
			sep = ","
		}

		idx := strings.Index(tok, sep)
		if thousands && len(tok)-idx-1 == 3 {
			tok = strings.Replace(tok, sep, "", 1)
		} else {
			tok = strings.Replace(tok, sep, ".", 1)
		}
	}

	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}
