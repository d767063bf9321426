package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/cdtrates/calc"
	"github.com/sig-0/cdtrates/storage/types"
)

const (
	defaultLimit = 100
	maxLimit     = 500

	// maxBodySize bounds the calculator request bodies
	maxBodySize = 1 << 20

	defaultCompareAmount = 10_000_000

	// trendBand is the average-rate change (pp) below which the market is stable
	trendBand = 0.05
)

var (
	errNoData         = errors.New("no data available")
	errNoRatesForTerm = errors.New("no rates available for the term")

	errInvalidLimit   = errors.New("invalid limit")
	errInvalidTerm    = errors.New("invalid term")
	errInvalidMinRate = errors.New("invalid min_rate")
	errInvalidSort    = errors.New("invalid sort (rate_desc, rate_asc, term_asc, term_desc)")
	errInvalidBody    = errors.New("invalid request body")
	errMissingBody    = errors.New("request body is required")
	errMissingParams  = errors.New("amount and term_days are required")
)

// Sort orders of the rates listing
const (
	sortRateDesc = "rate_desc"
	sortRateAsc  = "rate_asc"
	sortTermAsc  = "term_asc"
	sortTermDesc = "term_desc"
)

// termLabels are the display labels of the standard terms
var termLabels = map[int]string{
	30:  "1 mes",
	60:  "2 meses",
	90:  "3 meses",
	180: "6 meses",
	360: "1 año",
	540: "18 meses",
	720: "2 años",
}

// ratesFilter is the parsed rates listing query
type ratesFilter struct {
	bank    string
	sort    string
	term    int
	limit   int
	minRate float64
}

func (s *Server) Rates(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter, err := parseRatesFilter(
		query.Get("term"),
		query.Get("bank"),
		query.Get("min_rate"),
		query.Get("limit"),
		query.Get("sort"),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	agg := s.aggregates.Get(r.Context())
	if agg == nil {
		writeError(w, http.StatusNotFound, errNoData)

		return
	}

	rates := filter.apply(agg.AllRates)
	total := len(rates)

	if len(rates) > filter.limit {
		rates = rates[:filter.limit]
	}

	writeJSON(w, http.StatusOK, &RatesResponse{
		Success: true,
		Count:   len(rates),
		Total:   total,
		Rates:   rates,
	})
}

func (s *Server) Ranking(w http.ResponseWriter, r *http.Request) {
	agg := s.aggregates.Get(r.Context())
	if agg == nil {
		writeError(w, http.StatusNotFound, errNoData)

		return
	}

	writeJSON(w, http.StatusOK, &RankingResponse{
		Success:     true,
		GeneratedAt: agg.GeneratedAt,
		Statistics:  agg.Statistics,
		TotalBanks:  agg.TotalBanks,
		TotalRates:  agg.TotalRates,
		Top10:       nonNil(agg.Top10),
	})
}

func (s *Server) TermRanking(w http.ResponseWriter, r *http.Request) {
	term, err := parsePositiveInt(chi.URLParam(r, "term"))
	if err != nil || term == 0 {
		writeError(w, http.StatusBadRequest, errInvalidTerm)

		return
	}

	agg := s.aggregates.Get(r.Context())
	if agg == nil {
		writeError(w, http.StatusNotFound, errNoData)

		return
	}

	rates, ok := agg.RankingFor(term)
	if !ok {
		// Non-standard terms are ranked on the fly
		rates = filterRecords(agg.AllRates, func(rec *types.RateRecord) bool {
			return rec.TermDays == term
		})
	}

	rates = nonNil(rates)

	writeJSON(w, http.StatusOK, &TermRankingResponse{
		Success:  true,
		TermDays: term,
		Count:    len(rates),
		Rates:    rates,
	})
}

func (s *Server) Banks(w http.ResponseWriter, r *http.Request) {
	agg := s.aggregates.Get(r.Context())
	if agg == nil {
		writeError(w, http.StatusNotFound, errNoData)

		return
	}

	banks := summarizeBanks(agg.AllRates)

	writeJSON(w, http.StatusOK, &BanksResponse{
		Success: true,
		Count:   len(banks),
		Banks:   banks,
	})
}

func (s *Server) Bank(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))

	agg := s.aggregates.Get(r.Context())
	if agg == nil {
		writeError(w, http.StatusNotFound, errNoData)

		return
	}

	rates := filterRecords(agg.AllRates, func(rec *types.RateRecord) bool {
		return strings.EqualFold(rec.SourceID, code)
	})
	if len(rates) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("bank %s not found", code))

		return
	}

	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].TermDays < rates[j].TermDays
	})

	writeJSON(w, http.StatusOK, &BankResponse{
		Success:  true,
		BankCode: rates[0].SourceID,
		BankName: rates[0].SourceName,
		Count:    len(rates),
		Rates:    rates,
	})
}

func (s *Server) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest

	if err := decodeBody(w, r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, errMissingBody)

			return
		}

		writeError(w, http.StatusBadRequest, errInvalidBody)

		return
	}

	if req.Amount == 0 || req.TermDays == 0 {
		writeError(w, http.StatusBadRequest, errMissingParams)

		return
	}

	var rate float64

	if req.RateEA != nil {
		rate = *req.RateEA
	} else {
		// Use the best available rate for the term
		agg := s.aggregates.Get(r.Context())
		if agg == nil {
			writeError(w, http.StatusNotFound, errNoData)

			return
		}

		best, ok := calc.BestRate(agg.AllRates, req.TermDays, strings.TrimSpace(req.BankCode))
		if !ok {
			writeError(w, http.StatusNotFound, errNoRatesForTerm)

			return
		}

		rate = best.RateEA
	}

	sim, err := calc.Simulate(req.Amount, rate, req.TermDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	writeJSON(w, http.StatusOK, &SimulateResponse{
		Success: true,
		Input: SimulateInput{
			Amount:   sim.Amount,
			TermDays: sim.TermDays,
			RateEA:   sim.RateEA,
		},
		Result: SimulateResult{
			GrossProfit:   sim.GrossProfit,
			Retention:     sim.Withholding,
			NetProfit:     sim.NetProfit,
			Total:         sim.Total,
			EffectiveRate: sim.EffectiveRate,
		},
	})
}

func (s *Server) Compare(w http.ResponseWriter, r *http.Request) {
	req := CompareRequest{
		Amount:   defaultCompareAmount,
		TermDays: types.DefaultTerm,
	}

	// All fields are optional, so is the body
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, errInvalidBody)

		return
	}

	agg := s.aggregates.Get(r.Context())
	if agg == nil {
		writeError(w, http.StatusNotFound, errNoData)

		return
	}

	comparisons, err := calc.Compare(agg.AllRates, req.Amount, req.TermDays, req.Banks)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)

		return
	}

	writeJSON(w, http.StatusOK, &CompareResponse{
		Success: true,
		Input: CompareInput{
			Amount:   req.Amount,
			TermDays: req.TermDays,
		},
		Count:       len(comparisons),
		Comparisons: comparisons,
	})
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	// Client timeouts must not cut the cycle short
	report, err := s.aggregates.Refresh(context.WithoutCancel(r.Context()))
	if err != nil {
		s.logger.Error(
			"unable to refresh rates",
			"err", err,
		)

		writeError(w, http.StatusInternalServerError, fmt.Errorf("unable to refresh rates: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, &RefreshResponse{
		Success:    true,
		Message:    "rates refreshed",
		TotalBanks: report.Aggregate.TotalBanks,
		TotalRates: report.Aggregate.TotalRates,
		UpdatedAt:  report.Aggregate.GeneratedAt,
	})
}

func (s *Server) Terms(w http.ResponseWriter, _ *http.Request) {
	info := make(map[string]string, len(types.StandardTerms))

	for _, term := range types.StandardTerms {
		info[types.TermKey(term)] = termLabels[term]
	}

	writeJSON(w, http.StatusOK, &TermsResponse{
		Success:   true,
		Terms:     types.StandardTerms,
		TermsInfo: info,
	})
}

func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	agg := s.aggregates.Get(r.Context())
	if agg == nil {
		writeError(w, http.StatusNotFound, errNoData)

		return
	}

	writeJSON(w, http.StatusOK, &StatsResponse{
		Success:     true,
		GeneratedAt: agg.GeneratedAt,
		Statistics:  agg.Statistics,
		TotalBanks:  agg.TotalBanks,
		TotalRates:  agg.TotalRates,
		MarketTrend: s.marketTrend(r.Context()),
	})
}

// marketTrend compares the average rate of the two newest snapshots
func (s *Server) marketTrend(ctx context.Context) string {
	if s.history == nil {
		return TrendStable
	}

	snapshots, err := s.history.Snapshots(ctx, 2)
	if err != nil {
		s.logger.Debug(
			"unable to fetch snapshots",
			"err", err,
		)

		return TrendStable
	}

	if len(snapshots) < 2 {
		return TrendStable
	}

	diff := snapshots[0].Statistics.AverageRate - snapshots[1].Statistics.AverageRate

	switch {
	case diff > trendBand:
		return TrendRising
	case diff < -trendBand:
		return TrendFalling
	default:
		return TrendStable
	}
}

func (f ratesFilter) apply(records []*types.RateRecord) []*types.RateRecord {
	rates := filterRecords(records, func(rec *types.RateRecord) bool {
		if f.term > 0 && rec.TermDays != f.term {
			return false
		}

		if f.bank != "" && !strings.EqualFold(rec.SourceID, f.bank) {
			return false
		}

		return rec.RateEA >= f.minRate
	})

	sort.SliceStable(rates, func(i, j int) bool {
		switch f.sort {
		case sortRateAsc:
			return rates[i].RateEA < rates[j].RateEA
		case sortTermAsc:
			return rates[i].TermDays < rates[j].TermDays
		case sortTermDesc:
			return rates[i].TermDays > rates[j].TermDays
		default:
			return rates[i].RateEA > rates[j].RateEA
		}
	})

	return rates
}

// summarizeBanks groups the records per source, by max rate
func summarizeBanks(records []*types.RateRecord) []*BankSummary {
	var (
		banks = make([]*BankSummary, 0)
		index = make(map[string]*BankSummary)
		terms = make(map[string]map[int]struct{})
	)

	for _, rec := range records {
		summary, ok := index[rec.SourceID]
		if !ok {
			summary = &BankSummary{
				Code:    rec.SourceID,
				Name:    rec.SourceName,
				MinRate: rec.RateEA,
				MaxRate: rec.RateEA,
			}

			index[rec.SourceID] = summary
			terms[rec.SourceID] = make(map[int]struct{})
			banks = append(banks, summary)
		}

		summary.MinRate = min(summary.MinRate, rec.RateEA)
		summary.MaxRate = max(summary.MaxRate, rec.RateEA)

		if _, seen := terms[rec.SourceID][rec.TermDays]; !seen {
			terms[rec.SourceID][rec.TermDays] = struct{}{}
			summary.TermsAvailable = append(summary.TermsAvailable, rec.TermDays)
		}
	}

	for _, summary := range banks {
		sort.Ints(summary.TermsAvailable)
	}

	sort.SliceStable(banks, func(i, j int) bool {
		return banks[i].MaxRate > banks[j].MaxRate
	})

	return banks
}

func filterRecords(records []*types.RateRecord, keep func(*types.RateRecord) bool) []*types.RateRecord {
	out := make([]*types.RateRecord, 0)

	for _, rec := range records {
		if keep(rec) {
			out = append(out, rec)
		}
	}

	return out
}

func nonNil(records []*types.RateRecord) []*types.RateRecord {
	if records == nil {
		return []*types.RateRecord{}
	}

	return records
}

func parseRatesFilter(termRaw, bankRaw, minRateRaw, limitRaw, sortRaw string) (ratesFilter, error) {
	filter := ratesFilter{
		bank:  strings.TrimSpace(bankRaw),
		sort:  sortRateDesc,
		limit: defaultLimit,
	}

	term, err := parsePositiveInt(termRaw)
	if err != nil {
		return ratesFilter{}, errInvalidTerm
	}

	filter.term = term

	if v := strings.TrimSpace(minRateRaw); v != "" {
		minRate, err := strconv.ParseFloat(v, 64)
		if err != nil || minRate < 0 {
			return ratesFilter{}, errInvalidMinRate
		}

		filter.minRate = minRate
	}

	limit, err := parsePositiveInt(limitRaw)
	if err != nil {
		return ratesFilter{}, errInvalidLimit
	}

	if limit > 0 {
		filter.limit = min(limit, maxLimit)
	}

	if v := strings.ToLower(strings.TrimSpace(sortRaw)); v != "" {
		switch v {
		case sortRateDesc, sortRateAsc, sortTermAsc, sortTermDesc:
			filter.sort = v
		default:
			return ratesFilter{}, errInvalidSort
		}
	}

	return filter, nil
}

// parsePositiveInt parses an optional non-negative integer (0 when empty)
func parsePositiveInt(raw string) (int, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}

	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}

	return n, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return io.EOF
	}

	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Success: false,
		Error:   err.Error(),
	}

	writeJSON(w, status, resp)
}
