// Package calc implements the term-deposit net-yield calculators.
//
// For an amount P at an effective-annual rate R (percent) over T days:
//
//	period_rate = (1 + R/100)^(T/365) - 1
//	gross       = P * period_rate
//	withholding = gross * 0.04
//	net         = gross - withholding
//	total       = P + net
//
// Money values are rounded to 2 decimals, the effective period rate
// (percent) to 4 decimals.
package calc

import (
	"errors"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sig-0/cdtrates/storage/types"
)

// WithholdingRate is the source withholding on financial yields
const WithholdingRate = 0.04

const daysPerYear = 365

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidTerm   = errors.New("term_days must be positive")
	ErrInvalidRate   = errors.New("rate_ea must be positive")
)

// Simulation is the projected yield of a single deposit
type Simulation struct {
	Amount        float64 `json:"amount"`
	RateEA        float64 `json:"rate_ea"`
	GrossProfit   float64 `json:"gross_profit"`
	Withholding   float64 `json:"retention"`
	NetProfit     float64 `json:"net_profit"`
	Total         float64 `json:"total"`
	EffectiveRate float64 `json:"effective_rate"`
	TermDays      int     `json:"term_days"`
}

// Comparison is the projected yield of a single offer, relative to the best one
type Comparison struct {
	SourceID           string  `json:"bank_code"`
	SourceName         string  `json:"bank_name"`
	RateEA             float64 `json:"rate_ea"`
	GrossProfit        float64 `json:"gross_profit"`
	NetProfit          float64 `json:"net_profit"`
	Total              float64 `json:"total"`
	DifferenceFromBest float64 `json:"difference_from_best"`
}

// yield holds the unrounded yield figures
type yield struct {
	periodRate  float64
	gross       float64
	withholding float64
	net         float64
}

func compute(amount, rateEA float64, termDays int) yield {
	periodRate := math.Pow(1+rateEA/100, float64(termDays)/daysPerYear) - 1
	gross := amount * periodRate
	withholding := gross * WithholdingRate

	return yield{
		periodRate:  periodRate,
		gross:       gross,
		withholding: withholding,
		net:         gross - withholding,
	}
}

func validate(amount, rateEA float64, termDays int) error {
	switch {
	case !(amount > 0) || math.IsInf(amount, 0):
		return ErrInvalidAmount
	case termDays <= 0:
		return ErrInvalidTerm
	case !(rateEA > 0) || math.IsInf(rateEA, 0):
		return ErrInvalidRate
	default:
		return nil
	}
}

// Simulate projects the yield of depositing the amount at the rate, for the term
func Simulate(amount, rateEA float64, termDays int) (*Simulation, error) {
	if err := validate(amount, rateEA, termDays); err != nil {
		return nil, err
	}

	y := compute(amount, rateEA, termDays)

	return &Simulation{
		Amount:        amount,
		RateEA:        rateEA,
		TermDays:      termDays,
		GrossProfit:   roundMoney(y.gross),
		Withholding:   roundMoney(y.withholding),
		NetProfit:     roundMoney(y.net),
		Total:         roundMoney(amount + y.net),
		EffectiveRate: round(y.periodRate*100, 4),
	}, nil
}

// Compare projects the yield of every offer for the term, optionally limited
// to the given source IDs. Comparisons are ordered by net profit, best first
func Compare(
	records []*types.RateRecord,
	amount float64,
	termDays int,
	sourceIDs []string,
) ([]*Comparison, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}

	if termDays <= 0 {
		return nil, ErrInvalidTerm
	}

	allowed := make(map[string]struct{}, len(sourceIDs))
	for _, id := range sourceIDs {
		allowed[id] = struct{}{}
	}

	comparisons := make([]*Comparison, 0)

	for _, r := range records {
		if r.TermDays != termDays {
			continue
		}

		if _, ok := allowed[r.SourceID]; len(allowed) > 0 && !ok {
			continue
		}

		y := compute(amount, r.RateEA, termDays)

		comparisons = append(comparisons, &Comparison{
			SourceID:    r.SourceID,
			SourceName:  r.SourceName,
			RateEA:      r.RateEA,
			GrossProfit: roundMoney(y.gross),
			NetProfit:   roundMoney(y.net),
			Total:       roundMoney(amount + y.net),
		})
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		return comparisons[i].NetProfit > comparisons[j].NetProfit
	})

	if len(comparisons) == 0 {
		return comparisons, nil
	}

	best := decimal.NewFromFloat(comparisons[0].NetProfit)

	for _, c := range comparisons {
		c.DifferenceFromBest = best.Sub(decimal.NewFromFloat(c.NetProfit)).Round(2).InexactFloat64()
	}

	return comparisons, nil
}

// BestRate returns the highest-rate record for the term,
// optionally limited to a single source
func BestRate(records []*types.RateRecord, termDays int, sourceID string) (*types.RateRecord, bool) {
	var best *types.RateRecord

	for _, r := range records {
		if r.TermDays != termDays || (sourceID != "" && r.SourceID != sourceID) {
			continue
		}

		if best == nil || r.RateEA > best.RateEA {
			best = r
		}
	}

	return best, best != nil
}

func roundMoney(v float64) float64 {
	return round(v, 2)
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
