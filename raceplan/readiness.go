package raceplan

import (
	"cloud.google.com/go/civil"

	"github.com/lucasjlepore/trainload"
)

// Race is a target event.
type Race struct {
	Name string     `toml:"name" json:"name"`
	Date civil.Date `toml:"date" json:"date"`
}

// FormWindow is the form range an athlete wants to carry into a race.
type FormWindow struct {
	Min float64 `toml:"min" json:"min"`
	Max float64 `toml:"max" json:"max"`
}

// DefaultFormWindow is the 0..+15 race-day target.
func DefaultFormWindow() FormWindow {
	return FormWindow{Min: 0, Max: 15}
}

// Contains reports whether form lies inside the window, bounds included.
func (w FormWindow) Contains(form float64) bool {
	return form >= w.Min && form <= w.Max
}

// Readiness is the predicted state of the athlete on race day.
type Readiness struct {
	Race     Race                  `json:"race"`
	DaysOut  int                   `json:"days_out"`
	Point    *trainload.PMCPoint   `json:"point,omitempty"`
	Status   *trainload.FormStatus `json:"status,omitempty"`
	Window   FormWindow            `json:"target_window"`
	InWindow bool                  `json:"in_window"`
}

// Assess looks race day up in series, which may mix historical and projected
// points. Point and Status stay nil when the series does not reach race day.
func Assess(race Race, today civil.Date, series []trainload.PMCPoint, window FormWindow, c trainload.Classifier) Readiness {
	r := Readiness{
		Race:    race,
		DaysOut: race.Date.DaysSince(today),
		Window:  window,
	}
	for i := range series {
		if series[i].Date != race.Date {
			continue
		}
		p := series[i]
		status := c.Classify(p.Form)
		r.Point = &p
		r.Status = &status
		r.InWindow = window.Contains(p.Form)
		break
	}
	return r
}
