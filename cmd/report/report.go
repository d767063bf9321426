// Package report renders command output as plain-text tables
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sig-0/cdtrates/normalize"
	"github.com/sig-0/cdtrates/storage/types"
	"github.com/sig-0/cdtrates/verify"
)

const timeLayout = "2006-01-02 15:04:05 MST"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Cycle prints the outcome of a scrape cycle, per source
func Cycle(w io.Writer, r *types.CycleReport) error {
	fmt.Fprintf(w, "Cycle %s finished in %s\n", r.ID, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Sources: %d successful, %d failed\n\n", r.Successful(), len(r.Failed()))

	tw := newTable(w)

	fmt.Fprintln(tw, "SOURCE\tSTATUS\tRATES\tDURATION\tERROR")

	for _, res := range r.Results {
		status := "ok"
		if !res.Success {
			status = "failed"
		}

		fmt.Fprintf(
			tw,
			"%s\t%s\t%d\t%s\t%s\n",
			res.SourceID,
			status,
			len(res.Records),
			res.Duration.Round(time.Millisecond),
			res.Error,
		)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Aggregate == nil {
		return nil
	}

	fmt.Fprintln(w)

	return Aggregate(w, r.Aggregate, types.DefaultTerm, 5)
}

// Aggregate prints the statistics, the overall top 10
// and the top offers for the given term
func Aggregate(w io.Writer, agg *types.Aggregate, term, top int) error {
	fmt.Fprintf(w, "Generated at: %s\n", agg.GeneratedAt.Format(timeLayout))
	fmt.Fprintf(w, "Banks: %d, rates: %d\n", agg.TotalBanks, agg.TotalRates)
	fmt.Fprintf(
		w,
		"Average: %s, max: %s, min: %s\n\n",
		normalize.FormatRate(agg.Statistics.AverageRate),
		normalize.FormatRate(agg.Statistics.MaxRate),
		normalize.FormatRate(agg.Statistics.MinRate),
	)

	fmt.Fprintln(w, "TOP 10")

	if err := ranking(w, agg.Top10); err != nil {
		return err
	}

	rates, _ := agg.RankingFor(term)
	if len(rates) > top {
		rates = rates[:top]
	}

	fmt.Fprintf(w, "\nTOP %d, %s\n", top, normalize.FormatTerm(term))

	return ranking(w, rates)
}

func ranking(w io.Writer, records []*types.RateRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "no offers")

		return nil
	}

	tw := newTable(w)

	fmt.Fprintln(tw, "#\tBANK\tTERM\tRATE E.A.\tPROVENANCE")

	for i, r := range records {
		fmt.Fprintf(
			tw,
			"%d\t%s\t%s\t%s\t%s\n",
			i+1,
			r.SourceName,
			normalize.FormatTerm(r.TermDays),
			normalize.FormatRate(r.RateEA),
			r.Provenance,
		)
	}

	return tw.Flush()
}

// Verification prints the source page verification reports
func Verification(w io.Writer, reports []*verify.Report) error {
	tw := newTable(w)

	fmt.Fprintln(tw, "SOURCE\tREACHABLE\tOFFERS\tDURATION\tTITLE / ERROR")

	for _, r := range reports {
		detail := r.Title
		if !r.Reachable {
			detail = r.Error
		}

		fmt.Fprintf(
			tw,
			"%s\t%t\t%d\t%s\t%s\n",
			r.SourceID,
			r.Reachable,
			r.Candidates,
			r.Duration.Round(time.Millisecond),
			detail,
		)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	reachable, withOffers := verify.Summary(reports)

	fmt.Fprintf(
		w,
		"\n%d/%d reachable, %d with offers\n",
		reachable,
		len(reports),
		withOffers,
	)

	return nil
}
