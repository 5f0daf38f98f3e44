package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/drills/pkg/baseline"
	"github.com/aretw0/drills/pkg/domain"
	"github.com/aretw0/drills/pkg/episode"
	"github.com/aretw0/drills/pkg/runner"
)

// EpisodesMarkdown summarizes a training run as a markdown table.
func EpisodesMarkdown(summaries []runner.EpisodeSummary) string {
	var b strings.Builder
	b.WriteString("## Episodes\n\n")
	b.WriteString("| episode | steps | total reward | result |\n")
	b.WriteString("|---:|---:|---:|---|\n")
	for _, s := range summaries {
		result := "ok"
		if s.Err != nil {
			result = "failed: " + escape(s.Err.Error())
		}
		fmt.Fprintf(&b, "| %d | %d | %s | %s |\n", s.Episode, s.Steps, episode.FormatFloat(s.TotalReward), result)
	}
	if n := len(summaries); n > 0 {
		b.WriteString("\n")
		b.WriteString(RecordsMarkdown(summaries[n-1].Records, "", ""))
	}
	return b.String()
}

// RecordsMarkdown renders the best-known records. Empty labels default to
// "optimization" and "constraint".
func RecordsMarkdown(r domain.Records, primary, constraint string) string {
	if primary == "" {
		primary = "optimization"
	}
	if constraint == "" {
		constraint = "constraint"
	}
	var b strings.Builder
	b.WriteString("## Best known\n\n")
	fmt.Fprintf(&b, "| record | %s | %s | episode | iteration |\n", primary, constraint)
	b.WriteString("|---|---:|---:|---:|---:|\n")
	row := func(name string, rec domain.Record) {
		if rec.IsEmpty() {
			fmt.Fprintf(&b, "| %s | - | - | - | - |\n", name)
			return
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d |\n", name,
			episode.FormatFloat(rec.Optimization), episode.FormatFloat(rec.Constraint), rec.Episode, rec.Iteration)
	}
	row("meets constraint", r.MeetsConstraint)
	row("lowest "+primary, r.Primary)
	row("lowest "+constraint, r.Constraint)
	return b.String()
}

// GreedyMarkdown summarizes the winners of a greedy search.
func GreedyMarkdown(steps []baseline.Step, primary, constraint string) string {
	var b strings.Builder
	b.WriteString("## Greedy search\n\n")
	fmt.Fprintf(&b, "| iteration | winner | %s | %s | failed candidates |\n", primary, constraint)
	b.WriteString("|---:|---|---:|---:|---:|\n")
	for _, s := range steps {
		failed := 0
		for _, c := range s.Candidates {
			if c.Err != nil {
				failed++
			}
		}
		winner := "`" + s.Winner.Transformation + "`"
		if s.Stalled {
			winner += " (stalled)"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %d |\n", s.Iteration, winner,
			episode.FormatFloat(s.Winner.Metrics.Primary), episode.FormatFloat(s.Winner.Metrics.Constraint), failed)
	}
	return b.String()
}

func escape(s string) string {
	return strings.NewReplacer("|", "\\|", "\n", " ").Replace(s)
}
