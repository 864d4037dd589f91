package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/okian/loanguard/internal/domain/features"
	"github.com/okian/loanguard/internal/domain/risk"
	"github.com/okian/loanguard/internal/evaluation"
)

// PercentageMultiplier converts ratios to percentages for display.
const PercentageMultiplier = 100

func printDecision(w io.Writer, name string, res risk.Result, verbose bool) {
	fmt.Fprintf(w, "%s %s: %s\n", res.Indicator, name, res.RiskClass)
	fmt.Fprintf(w, "  default probability: %.1f%%\n", res.DefaultProbability)
	fmt.Fprintf(w, "  recommendation:      %s\n", res.Recommendation)
	if !verbose {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  feature\tvalue")
	values := res.Features.Values()
	for i, n := range features.Names() {
		fmt.Fprintf(tw, "  %s\t%.4f\n", n, values[i])
	}
	_ = tw.Flush()
}

func printReport(w io.Writer, r evaluation.Report) {
	fmt.Fprintf(w, "Evaluation: %d samples (%d scored, %d failed) over %d months in %s\n",
		r.Samples, r.Scored, r.Failed, r.Months, r.Took)
	fmt.Fprintf(w, "Accuracy: %.2f%% (%d correct)\n", r.Accuracy*PercentageMultiplier, r.Correct)
	fmt.Fprintf(w, "ROC-AUC (ovr, weighted): %.4f\n\n", r.ROCAUC)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "expected \\ predicted\tLow\tMedium\tHigh")
	for i, row := range r.Confusion {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", risk.Class(i), row[0], row[1], row[2])
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tprecision\trecall\tf1\tsupport")
	for _, m := range r.Classes {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%d\n", m.Class, m.Precision, m.Recall, m.F1, m.Support)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "tier\tcount\tmean default %")
	for _, t := range r.Tiers {
		fmt.Fprintf(tw, "%s %s\t%d\t%.1f\n", t.Indicator, t.Class, t.Count, t.MeanDefaultProbability)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	names := make([]string, 0, len(r.Profiles))
	for n := range r.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "profile\texpected\tsamples\tscored\taccuracy")
	for _, n := range names {
		p := r.Profiles[n]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f%%\n", n, p.Expected, p.Samples, p.Scored, p.Accuracy*PercentageMultiplier)
	}
	_ = tw.Flush()
}
