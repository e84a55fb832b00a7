package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/model"
)

const maxTitleCols = 40

// writeJSON pretty-prints v to out.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatOutcome writes aggregated candidates, warnings and stats to out.
func formatOutcome(out io.Writer, o *aggregate.Outcome) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tPLATFORM\tTITLE\tURL")
	_, _ = fmt.Fprintln(w, "----\t--------\t-----\t---")
	for _, s := range o.Data {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.SourceType, s.Platform, truncateRunes(s.Title, maxTitleCols), s.URL)
	}
	_ = w.Flush()

	if o.Stats != nil {
		_, _ = fmt.Fprintf(out, "\n%d candidates", o.Stats.Total)
		for _, ks := range o.Stats.ByKind {
			_, _ = fmt.Fprintf(out, "  %s=%d", ks.Kind, ks.Count)
		}
		_, _ = fmt.Fprintln(out)
		if len(o.Stats.RecommendedFor) > 0 {
			_, _ = fmt.Fprintf(out, "recommended for: %v\n", o.Stats.RecommendedFor)
		}
	}
	for _, warn := range o.Warnings {
		_, _ = fmt.Fprintf(out, "warning: %s\n", warn)
	}
}

// formatSources writes a tabular list of curated sources to out.
func formatSources(out io.Writer, sources []model.CuratedSource) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tRELIABILITY\tTITLE\tURL")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-----------\t-----\t---")
	for _, s := range sources {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
			truncateID(s.ID),
			s.Type,
			s.Status,
			s.Reliability,
			truncateRunes(s.Title, maxTitleCols),
			s.URL,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncateRunes shortens s to n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
