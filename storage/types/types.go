package types

import (
	"strconv"
	"time"
)

// Plausible effective-annual rate bounds, in percent (exclusive)
const (
	MinPlausibleRate = 1.0
	MaxPlausibleRate = 25.0
)

// DefaultTerm is the term assigned to offers that don't state one
const DefaultTerm = 360

// StandardTerms are the term buckets (in days) that get their own ranking
var StandardTerms = []int{30, 60, 90, 180, 360, 540, 720}

type RateType string

const (
	RateTypeFixed    RateType = "fixed"
	RateTypeVariable RateType = "variable"
)

func (r RateType) String() string {
	return string(r)
}

type PaymentFrequency string

const (
	PaymentAtMaturity PaymentFrequency = "at_maturity"
	PaymentMonthly    PaymentFrequency = "monthly"
	PaymentQuarterly  PaymentFrequency = "quarterly"
)

func (p PaymentFrequency) String() string {
	return string(p)
}

type ProductType string

const (
	ProductTermDeposit     ProductType = "term_deposit"
	ProductFiduciaryRights ProductType = "fiduciary_rights"
	ProductRealEstateYield ProductType = "real_estate_yield"
	ProductSavingsAccount  ProductType = "savings_account"
)

func (p ProductType) String() string {
	return string(p)
}

// Provenance tells apart scraped offers from hand-maintained ones
type Provenance string

const (
	ProvenanceExtracted Provenance = "extracted"
	ProvenanceCurated   Provenance = "curated"
)

// RateRecord is a single normalized deposit-rate offer
type RateRecord struct {
	ScrapedAt         time.Time        `json:"scraped_at"`
	MinAmount         *float64         `json:"min_amount"`
	MaxAmount         *float64         `json:"max_amount"`
	SourceID          string           `json:"bank_code"`
	SourceName        string           `json:"bank_name"`
	RateType          RateType         `json:"rate_type"`
	PaymentFrequency  PaymentFrequency `json:"payment_frequency"`
	ProductType       ProductType      `json:"investment_type"`
	SpecialConditions string           `json:"special_conditions,omitempty"`
	SourceURL         string           `json:"source_url"`
	Provenance        Provenance       `json:"provenance"`
	TermDays          int              `json:"term_days"`
	RateEA            float64          `json:"rate_ea"`
}

// Valid reports whether the record passes the term and rate-plausibility checks
func (r *RateRecord) Valid() bool {
	return r != nil &&
		r.TermDays > 0 &&
		r.RateEA > MinPlausibleRate &&
		r.RateEA < MaxPlausibleRate
}

// SourceResult is the outcome of a single source adapter invocation
type SourceResult struct {
	ScrapedAt  time.Time     `json:"scraped_at"`
	SourceID   string        `json:"bank_code"`
	SourceName string        `json:"bank_name"`
	Error      string        `json:"error,omitempty"`
	Records    []*RateRecord `json:"rates"`
	Duration   time.Duration `json:"duration"`
	Success    bool          `json:"success"`
}

// Statistics are the summary stats over all merged records
type Statistics struct {
	AverageRate float64 `json:"average_rate"`
	MaxRate     float64 `json:"max_rate"`
	MinRate     float64 `json:"min_rate"`
}

// Aggregate is the full ranked view produced by a single scrape cycle.
// It is never mutated after construction
type Aggregate struct {
	GeneratedAt time.Time                `json:"generated_at"`
	ByTerm      map[string][]*RateRecord `json:"by_term"`
	Top10       []*RateRecord            `json:"top_10"`
	AllRates    []*RateRecord            `json:"all_rates"`
	Statistics  Statistics               `json:"statistics"`
	TotalBanks  int                      `json:"total_banks"`
	TotalRates  int                      `json:"total_rates"`
}

// RankingFor returns the ranking for the given term, if the term is a standard one
func (a *Aggregate) RankingFor(termDays int) ([]*RateRecord, bool) {
	if a == nil || a.ByTerm == nil || !IsStandardTerm(termDays) {
		return nil, false
	}

	ranking, ok := a.ByTerm[TermKey(termDays)]

	return ranking, ok
}

// TermKey is the by_term map key for the given term
func TermKey(termDays int) string {
	return strconv.Itoa(termDays)
}

// IsStandardTerm reports whether the term has its own ranking bucket
func IsStandardTerm(termDays int) bool {
	for _, t := range StandardTerms {
		if t == termDays {
			return true
		}
	}

	return false
}

// CycleReport summarizes a single scrape cycle
type CycleReport struct {
	StartedAt time.Time       `json:"started_at"`
	Aggregate *Aggregate      `json:"aggregate"`
	ID        string          `json:"id"`
	Results   []*SourceResult `json:"results"`
	Duration  time.Duration   `json:"duration"`
}

// Successful returns the number of sources that produced data
func (c *CycleReport) Successful() int {
	var n int

	for _, r := range c.Results {
		if r.Success {
			n++
		}
	}

	return n
}

// Failed returns the results of the sources that failed
func (c *CycleReport) Failed() []*SourceResult {
	failed := make([]*SourceResult, 0)

	for _, r := range c.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}

	return failed
}
