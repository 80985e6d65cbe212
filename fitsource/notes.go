package fitsource

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Notes renders a plain-text load summary of the activity: duration, power,
// the TSS it contributes and the time spent in each zone.
func (a *Activity) Notes() string {
	if a == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s (%s)\n", a.Record.Name, a.Record.Type)
	if a.Record.StartDateLocal != "" {
		fmt.Fprintf(&b, "Start (local): %s\n", strings.Replace(a.Record.StartDateLocal, "T", " ", 1))
	}
	fmt.Fprintf(
		&b,
		"Duration %s moving / %s elapsed\n",
		FormatDuration(a.MovingSeconds),
		FormatDuration(a.ElapsedSeconds),
	)
	fmt.Fprintf(
		&b,
		"Power %.0f avg / %.0f NP W | HR %.0f avg bpm\n",
		a.AvgPowerWatts,
		a.NormalizedPower,
		a.AvgHeartRate,
	)

	if a.FTPWatts > 0 {
		fmt.Fprintf(
			&b,
			"Load IF %.2f | TSS %.0f | FTP %.0f W (%s)\n",
			a.IntensityFactor,
			a.TrainingStress,
			a.FTPWatts,
			a.FTPSource,
		)
	} else {
		b.WriteString("Load IF/TSS unavailable (FTP not provided and could not be estimated)\n")
	}
	if a.Best20MinPower > 0 {
		fmt.Fprintf(&b, "Best 20 min power: %.0f W\n", a.Best20MinPower)
	}
	if a.FTPSource == FTPEstimated {
		b.WriteString("FTP note: estimated from best 20-minute power; set ftp in the athlete profile for a stable TSS.\n")
	}

	if len(a.Record.ZoneTimes) > 0 {
		total := 0.0
		for _, s := range a.Record.ZoneTimes {
			total += s
		}
		ids := make([]string, 0, len(a.Record.ZoneTimes))
		for id := range a.Record.ZoneTimes {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		b.WriteString("\nPower Zone Distribution\n")
		for _, id := range ids {
			s := a.Record.ZoneTimes[id]
			if s <= 0 {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", id, FormatDuration(s), s/total*100)
		}
	}

	return strings.TrimSpace(b.String())
}

// FormatDuration renders seconds as 1h02m03s, 4m05s or 6s.
func FormatDuration(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
