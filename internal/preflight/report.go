package preflight

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
)

// FormatReport writes a tabular operator view of a pre-flight sweep,
// followed by one detail line per finding. Every problem appears; the point
// is that an operator sees the whole sweep in one pass.
func FormatReport(out io.Writer, r *Report) {
	fmt.Fprintf(out, "Pre-flight report %s (%s)\n\n", r.ID, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tDATASET\tSTRATEGY\tMANIFESTS\tFRESHNESS\tGAPS\tROW DELTAS")
	fmt.Fprintln(w, "------\t-------\t--------\t---------\t---------\t----\t----------")

	for _, d := range r.Datasets {
		manifests := fmt.Sprintf("%d ok", len(d.Manifests)-d.InvalidCount())
		if n := d.InvalidCount(); n > 0 {
			manifests += fmt.Sprintf(", %d invalid", n)
		}

		fresh := string(d.Freshness)
		if d.NoCurrent {
			fresh = "NO CURRENT"
		}
		if d.Err != "" {
			fresh = "ERROR"
		}

		gaps := "-"
		if d.Gap != nil {
			gaps = fmt.Sprintf("%d periods", len(d.Gap.MissingPeriods))
		}

		deltas := "-"
		if len(d.RowDeltas) > 0 {
			deltas = fmt.Sprintf("%d flagged", len(d.RowDeltas))
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Source, d.Dataset, d.Strategy, manifests, fresh, gaps, deltas)
	}
	w.Flush()

	for _, d := range r.Datasets {
		var lines []string
		if d.Err != "" {
			lines = append(lines, fmt.Sprintf("error: %s", d.Err))
		}
		if d.NoCurrent {
			lines = append(lines, "no current snapshot: downstream reads have nothing to select")
		}
		for _, f := range d.Manifests {
			if f.Valid() {
				continue
			}
			lines = append(lines, fmt.Sprintf("invalid manifest %s: %s", f.Path, strings.Join(f.Reasons, "; ")))
		}
		if d.Gap != nil {
			lines = append(lines, fmt.Sprintf("coverage gap: periods %v present in history but not selected", d.Gap.MissingPeriods))
		}
		for _, rd := range d.RowDeltas {
			lines = append(lines, fmt.Sprintf("row delta %s -> %s: %d -> %d rows (%s)",
				rd.From, rd.To, rd.OldRows, rd.NewRows, formatDelta(rd.Delta)))
		}

		if len(lines) > 0 {
			fmt.Fprintf(out, "\n%s/%s:\n", d.Source, d.Dataset)
			for _, l := range lines {
				fmt.Fprintf(out, "  - %s\n", l)
			}
		}
	}
}

func formatDelta(delta float64) string {
	if math.IsInf(delta, 1) {
		return "+inf%"
	}
	return fmt.Sprintf("%+.1f%%", delta*100)
}
