package pipeline

import (
	"fmt"
	"strings"

	"github.com/lucasjlepore/trainload/fitsource"
)

// summaryWeeks is how many of the most recent weeks the summary lists.
const summaryWeeks = 8

// BuildSummary renders the report as Markdown.
func BuildSummary(r *Report, warnings []string) string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Training load report (%s)\n\n", r.Today)

	b.WriteString("## Current form\n\n")
	if r.Latest != nil && r.Status != nil {
		fmt.Fprintf(
			&b,
			"- %s: fitness %.1f | fatigue %.1f | form %+.1f (**%s**)\n",
			r.Latest.Date,
			r.Latest.Fitness,
			r.Latest.Fatigue,
			r.Latest.Form,
			r.Status.Label,
		)
		if r.Status.RiskNote != nil {
			fmt.Fprintf(&b, "- Risk: %s\n", *r.Status.RiskNote)
		} else if r.Status.Advisory != "" {
			fmt.Fprintf(&b, "- Note: %s\n", r.Status.Advisory)
		}
	} else {
		b.WriteString("- No load history on or before today.\n")
	}
	if n := len(r.Projection); n > 0 {
		last := r.Projection[n-1]
		fmt.Fprintf(&b, "- Projected %s: fitness %.1f | fatigue %.1f | form %+.1f\n", last.Date, last.Fitness, last.Fatigue, last.Form)
	}

	if len(r.Readiness) > 0 {
		b.WriteString("\n## Races\n\n")
		for _, rd := range r.Readiness {
			if rd.Point == nil || rd.Status == nil {
				fmt.Fprintf(&b, "- %s (%s, %d days): outside the projection\n", rd.Race.Name, rd.Race.Date, rd.DaysOut)
				continue
			}
			verdict := "outside"
			if rd.InWindow {
				verdict = "inside"
			}
			fmt.Fprintf(
				&b,
				"- %s (%s, %d days): form %+.1f, %s, %s the %g..%g target\n",
				rd.Race.Name,
				rd.Race.Date,
				rd.DaysOut,
				rd.Point.Form,
				rd.Status.Label,
				verdict,
				rd.Window.Min,
				rd.Window.Max,
			)
		}
	}

	if len(r.Weeks) > 0 {
		b.WriteString("\n## Weekly volume\n\n")
		b.WriteString("| Week | Load | Hours | Sessions |\n|---|---:|---:|---:|\n")
		weeks := r.Weeks
		if len(weeks) > summaryWeeks {
			weeks = weeks[len(weeks)-summaryWeeks:]
		}
		for _, w := range weeks {
			fmt.Fprintf(&b, "| %s | %.0f | %.1f | %d |\n", w.WeekStart, w.TotalLoad, w.TotalHours, w.SessionCount)
		}
	}

	b.WriteString("\n## Power zones\n\n")
	if r.Zones.HasData {
		for _, z := range r.Zones.Buckets {
			fmt.Fprintf(&b, "- %s %s: %s (%.0f%%)\n", z.ZoneID, z.Name, fitsource.FormatDuration(z.Seconds), z.PercentOfTotal)
		}
	} else {
		b.WriteString("- No zone data.\n")
	}

	b.WriteString("\n## Plan adherence\n\n")
	s := r.Adherence.Summary
	if s.Sessions == 0 {
		b.WriteString("- No planned sessions.\n")
	} else {
		fmt.Fprintf(&b, "- %d of %d planned sessions completed (%d%%)\n", s.Completed, s.Sessions, s.CompletionRate)
		if s.MeanAdherence != nil {
			fmt.Fprintf(&b, "- Mean load adherence: %.0f%%\n", *s.MeanAdherence)
		}
	}

	if len(warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return strings.TrimSpace(b.String()) + "\n"
}
