// Package report builds the text summary of a scored follower set.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"igaudit/pkg/models"
	"igaudit/pkg/storage"
)

// DefaultTopN is the number of highest-probability followers listed by default
const DefaultTopN = 5

// LabelCount is the share of one classification
type LabelCount struct {
	Label      models.Classification
	Count      int
	Percentage float64
}

// Summary aggregates a scored result set
type Summary struct {
	Total  int
	Labels []LabelCount
	Top    []models.ScoredFollower
}

// Count returns the number of followers with label c
func (s Summary) Count(c models.Classification) int {
	for _, lc := range s.Labels {
		if lc.Label == c {
			return lc.Count
		}
	}
	return 0
}

// Percentage returns the share of label c against the total, in percent
func (s Summary) Percentage(c models.Classification) float64 {
	for _, lc := range s.Labels {
		if lc.Label == c {
			return lc.Percentage
		}
	}
	return 0
}

// Summarize counts every classification against the full total and picks the
// topN followers by descending probability. Ties keep collection order.
func Summarize(results []models.ScoredFollower, topN int) Summary {
	s := Summary{Total: len(results)}

	counts := make(map[models.Classification]int, len(models.Classifications))
	for _, r := range results {
		counts[r.Score.Classification]++
	}

	// Highest severity first
	for i := len(models.Classifications) - 1; i >= 0; i-- {
		label := models.Classifications[i]
		lc := LabelCount{Label: label, Count: counts[label]}
		if s.Total > 0 {
			lc.Percentage = float64(lc.Count) / float64(s.Total) * 100
		}
		s.Labels = append(s.Labels, lc)
	}

	if topN > 0 {
		sorted := storage.SortForExport(results)
		s.Top = sorted[:min(topN, len(sorted))]
	}
	return s
}

// Render writes the summary as text
func Render(w io.Writer, s Summary) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Followers analyzed: %d\n\n", s.Total)
	for _, lc := range s.Labels {
		fmt.Fprintf(&b, "  %-11s %6d  (%.1f%%)\n", lc.Label, lc.Count, lc.Percentage)
	}

	if len(s.Top) > 0 {
		fmt.Fprintf(&b, "\nTop %d most likely fake:\n", len(s.Top))
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  #\tUSERNAME\tPROBABILITY\tLABEL\tREASONS")
		for i, f := range s.Top {
			fmt.Fprintf(tw, "  %d\t%s\t%.2f%%\t%s\t%s\n",
				i+1, f.Record.Username, f.Score.FakeProbability, f.Score.Classification,
				strings.Join(f.Score.Reasons, ", "))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
