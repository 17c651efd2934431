package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cleared-dev/forecast/internal/daily"
	"github.com/cleared-dev/forecast/internal/model"
	"github.com/cleared-dev/forecast/internal/recorder"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func checkFormat(format string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown format %q: want text or json", format)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printForecast(w io.Writer, rep *model.ForecastReport) error {
	fmt.Fprintf(w, "Forecast as of %s (%s)\n", rep.AsOf.Format(time.DateOnly), rep.Fingerprint)
	fmt.Fprintf(w, "History: %d periods\n", len(rep.History))
	fmt.Fprintf(w, "Entries trend: %+.2f/period (R² %.2f)\n", rep.Entries.Slope, rep.EntriesR2)
	fmt.Fprintf(w, "Exits trend:   %+.2f/period (R² %.2f)\n\n", rep.Exits.Slope, rep.ExitsR2)

	tw := newTable(w)
	fmt.Fprintln(tw, "PERIOD\tSCENARIO\tENTRIES\tEXITS\tBALANCE\tCONFIDENCE")
	for _, set := range rep.Scenarios {
		for _, p := range set.Periods {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d%%\n",
				p.Label, p.Scenario, p.Entries.StringFixed(2), p.Exits.StringFixed(2), p.Balance.StringFixed(2), p.ConfidencePct)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if low, ok := daily.LowestPoint(rep.Daily); ok {
		last := rep.Daily[len(rep.Daily)-1]
		fmt.Fprintf(w, "\nDaily: %d days, lowest %s on %s, closing %s\n",
			len(rep.Daily), low.RunningBalance.StringFixed(2), low.Date.Format(time.DateOnly), last.RunningBalance.StringFixed(2))
	}
	printAlerts(w, rep.Alerts)
	return nil
}

func printRisk(w io.Writer, rep *model.RiskReport) error {
	fmt.Fprintf(w, "Risk as of %s (%s)\n\n", rep.AsOf.Format(time.DateOnly), rep.Fingerprint)

	tw := newTable(w)
	fmt.Fprintln(tw, "COUNTERPARTY\tSCORE\tDELINQUENCY\tTIER\tOPEN BALANCE")
	for _, p := range rep.Profiles {
		fmt.Fprintf(tw, "%s\t%d\t%d%%\t%s\t%s\n", p.Name, p.PredictiveScore, p.DelinquencyPct, p.Tier, p.OpenBalance.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	printFailures(w, rep.Failures)
	printAlerts(w, rep.Alerts)
	printRecommendations(w, rep.Recommendations)
	return nil
}

func printBudget(w io.Writer, rep *model.BudgetReport) error {
	fmt.Fprintf(w, "Budget %s as of %s (%s)\n\n", rep.Period, rep.AsOf.Format(time.DateOnly), rep.Fingerprint)

	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tDIRECTION\tPLANNED\tREALIZED\tVARIANCE\tSTATUS\tNEXT")
	for _, c := range rep.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%%\t%s\t%s\n",
			c.Category, c.Direction, c.Planned.StringFixed(2), c.Realized.StringFixed(2),
			c.VariancePct.StringFixed(2), c.Status, c.ProjectedNext.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	printFailures(w, rep.Failures)
	printAlerts(w, rep.Alerts)
	printRecommendations(w, rep.Recommendations)
	return nil
}

func printRuns(w io.Writer, runs []recorder.Run) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "RECORDED\tKIND\tAS OF\tALERTS\tFAILURES\tSUMMARY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.RecordedAt.Local().Format(time.DateTime), r.Kind, r.AsOf.Format(time.DateOnly), r.AlertCount, r.Failures, r.Summary)
	}
	return tw.Flush()
}

func printAlerts(w io.Writer, alerts []model.Alert) {
	if len(alerts) == 0 {
		return
	}
	fmt.Fprintln(w, "\nAlerts:")
	for _, a := range alerts {
		fmt.Fprintf(w, "  [%s] %s -> %s (impact %s)\n", a.Severity, a.Message, a.SuggestedAction, a.EstimatedImpact.StringFixed(2))
	}
}

func printRecommendations(w io.Writer, recs []model.Recommendation) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRecommendations:")
	for _, r := range recs {
		fmt.Fprintf(w, "  [%s] %s -> %s (impact %s)\n", r.Severity, r.Message, r.SuggestedAction, r.EstimatedImpact.StringFixed(2))
	}
}

func printFailures(w io.Writer, failures []model.ItemFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSkipped:")
	for _, f := range failures {
		fmt.Fprintf(w, "  %s: %v\n", f.Item, f.Err)
	}
}
