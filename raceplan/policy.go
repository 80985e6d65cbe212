// Package raceplan supplies the forecast loads the projector runs on and
// reads race-day readiness off the projected series.
package raceplan

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/lucasjlepore/trainload"
)

// Phase is a named run of days with an assumed daily load, for example a
// training camp or a travel day. Start and End are inclusive.
type Phase struct {
	Name  string     `toml:"name" json:"name"`
	Start civil.Date `toml:"start" json:"start"`
	End   civil.Date `toml:"end" json:"end"`
	Load  float64    `toml:"load" json:"load"`
}

// Covers reports whether d falls inside the phase.
func (p Phase) Covers(d civil.Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Policy turns calendar days into assumed loads. The first phase covering a
// day wins; days outside every phase get DefaultLoad.
type Policy struct {
	Phases      []Phase `toml:"phases" json:"phases"`
	DefaultLoad float64 `toml:"default_load" json:"default_load"`
}

// Validate checks that every phase has a name, a valid range and a
// non-negative load.
func (p Policy) Validate() error {
	if p.DefaultLoad < 0 {
		return fmt.Errorf("default load must be non-negative, got %v", p.DefaultLoad)
	}
	for i, ph := range p.Phases {
		if strings.TrimSpace(ph.Name) == "" {
			return fmt.Errorf("phase %d: name is required", i)
		}
		if !ph.Start.IsValid() || !ph.End.IsValid() {
			return fmt.Errorf("phase %q: start and end dates are required", ph.Name)
		}
		if ph.End.Before(ph.Start) {
			return fmt.Errorf("phase %q: end %s before start %s", ph.Name, ph.End, ph.Start)
		}
		if ph.Load < 0 {
			return fmt.Errorf("phase %q: load must be non-negative, got %v", ph.Name, ph.Load)
		}
	}
	return nil
}

// LoadOn returns the assumed load for d and the name of the phase that set it
// ("" for the default).
func (p Policy) LoadOn(d civil.Date) (float64, string) {
	for _, ph := range p.Phases {
		if ph.Covers(d) {
			return ph.Load, ph.Name
		}
	}
	return p.DefaultLoad, ""
}

// Forecast returns one ForecastDay for each of the days days starting at from.
func (p Policy) Forecast(from civil.Date, days int) []trainload.ForecastDay {
	if days <= 0 {
		return nil
	}
	out := make([]trainload.ForecastDay, 0, days)
	for i := 0; i < days; i++ {
		d := from.AddDays(i)
		load, _ := p.LoadOn(d)
		out = append(out, trainload.ForecastDay{Date: d, Load: load})
	}
	return out
}

// Until returns the forecast from the day after today through end inclusive.
func (p Policy) Until(today, end civil.Date) []trainload.ForecastDay {
	return p.Forecast(today.AddDays(1), end.DaysSince(today))
}

// Overlay replaces the load of every forecast day that has a planned load
// greater than zero. Days without a plan keep the policy load.
func Overlay(forecast []trainload.ForecastDay, planned []trainload.DailyLoadSample) []trainload.ForecastDay {
	if len(forecast) == 0 {
		return nil
	}
	byDay := make(map[civil.Date]float64, len(planned))
	for _, p := range planned {
		if p.Load > 0 {
			byDay[p.Date] += p.Load
		}
	}
	out := make([]trainload.ForecastDay, len(forecast))
	for i, f := range forecast {
		if load, ok := byDay[f.Date]; ok {
			f.Load = load
		}
		out[i] = f
	}
	return out
}
