package server

import (
	"time"

	"github.com/sig-0/cdtrates/calc"
	"github.com/sig-0/cdtrates/storage/types"
)

// Market trend of the average rate, relative to the previous snapshot
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
)

type RatesResponse struct {
	Rates   []*types.RateRecord `json:"rates"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total"`
	Success bool                `json:"success"`
}

type RankingResponse struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Top10       []*types.RateRecord `json:"top_10"`
	Statistics  types.Statistics    `json:"statistics"`
	TotalBanks  int                 `json:"total_banks"`
	TotalRates  int                 `json:"total_rates"`
	Success     bool                `json:"success"`
}

type TermRankingResponse struct {
	Rates    []*types.RateRecord `json:"rates"`
	TermDays int                 `json:"term_days"`
	Count    int                 `json:"count"`
	Success  bool                `json:"success"`
}

// BankSummary is the per-source overview of the current offers
type BankSummary struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	TermsAvailable []int   `json:"terms_available"`
	MinRate        float64 `json:"min_rate"`
	MaxRate        float64 `json:"max_rate"`
}

type BanksResponse struct {
	Banks   []*BankSummary `json:"banks"`
	Count   int            `json:"count"`
	Success bool           `json:"success"`
}

type BankResponse struct {
	BankCode string              `json:"bank_code"`
	BankName string              `json:"bank_name"`
	Rates    []*types.RateRecord `json:"rates"`
	Count    int                 `json:"count"`
	Success  bool                `json:"success"`
}

type SimulateRequest struct {
	// Optional, the best rate for the term is used when missing
	RateEA *float64 `json:"rate_ea"`

	// Optional, limits the best-rate lookup to a single source
	BankCode string `json:"bank_code"`

	Amount   float64 `json:"amount"`
	TermDays int     `json:"term_days"`
}

type SimulateInput struct {
	Amount   float64 `json:"amount"`
	RateEA   float64 `json:"rate_ea"`
	TermDays int     `json:"term_days"`
}

type SimulateResult struct {
	GrossProfit   float64 `json:"gross_profit"`
	Retention     float64 `json:"retention"`
	NetProfit     float64 `json:"net_profit"`
	Total         float64 `json:"total"`
	EffectiveRate float64 `json:"effective_rate"`
}

type SimulateResponse struct {
	Input   SimulateInput  `json:"input"`
	Result  SimulateResult `json:"result"`
	Success bool           `json:"success"`
}

type CompareRequest struct {
	Banks    []string `json:"banks"`
	Amount   float64  `json:"amount"`
	TermDays int      `json:"term_days"`
}

type CompareInput struct {
	Amount   float64 `json:"amount"`
	TermDays int     `json:"term_days"`
}

type CompareResponse struct {
	Comparisons []*calc.Comparison `json:"comparisons"`
	Input       CompareInput       `json:"input"`
	Count       int                `json:"count"`
	Success     bool               `json:"success"`
}

type RefreshResponse struct {
	UpdatedAt  time.Time `json:"updated_at"`
	Message    string    `json:"message"`
	TotalBanks int       `json:"total_banks"`
	TotalRates int       `json:"total_rates"`
	Success    bool      `json:"success"`
}

type TermsResponse struct {
	TermsInfo map[string]string `json:"terms_info"`
	Terms     []int             `json:"terms"`
	Success   bool              `json:"success"`
}

type StatsResponse struct {
	GeneratedAt time.Time        `json:"generated_at"`
	MarketTrend string           `json:"market_trend"`
	Statistics  types.Statistics `json:"statistics"`
	TotalBanks  int              `json:"total_banks"`
	TotalRates  int              `json:"total_rates"`
	Success     bool             `json:"success"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}
