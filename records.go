// Package trainload turns a cyclist's activity history into fitness, fatigue
// and form metrics, weekly totals, time-in-zone distributions and
// planned-versus-completed adherence.
//
// Every function in this package is pure: inputs are never mutated and
// repeated calls with equal input return equal output, so callers may run
// them concurrently or memoise them.
package trainload

import (
	"math"
	"strings"

	"cloud.google.com/go/civil"
)

// Record is one activity or calendar event as exported by the training-log
// service. Only the fields the analytics read are modelled; unknown JSON keys,
// including the service id (a string for activities, a number for events), are
// ignored on decode.
type Record struct {
	StartDateLocal string `json:"start_date_local"`
	Name           string `json:"name,omitempty"`
	Type           string `json:"type,omitempty"`
	Category       string `json:"category,omitempty"`

	TrainingLoad *float64 `json:"icu_training_load,omitempty"`
	TSS          *float64 `json:"tss,omitempty"`

	MovingTime  *float64 `json:"moving_time,omitempty"`
	ElapsedTime *float64 `json:"elapsed_time,omitempty"`

	// ZoneTimes maps a zone id to seconds spent in it. A nil map means the
	// record has no zone breakdown at all.
	ZoneTimes map[string]float64 `json:"zone_times,omitempty"`
}

// ResolveLoad returns the record's training load.
// Priority: icu_training_load, then tss, then 0. A field only counts when it
// is finite and strictly positive.
func ResolveLoad(r Record) float64 {
	if v, ok := positive(r.TrainingLoad); ok {
		return v
	}
	if v, ok := positive(r.TSS); ok {
		return v
	}
	return 0
}

// ResolveDurationSeconds returns the record's duration in seconds.
// Priority: moving_time, then elapsed_time, then 0.
func ResolveDurationSeconds(r Record) float64 {
	if v, ok := positive(r.MovingTime); ok {
		return v
	}
	if v, ok := positive(r.ElapsedTime); ok {
		return v
	}
	return 0
}

// ResolveDate extracts the calendar day from the local start timestamp,
// discarding the time of day. Both "2026-02-16" and "2026-02-16T07:30:00"
// are accepted; anything else reports false.
func ResolveDate(r Record) (civil.Date, bool) {
	return parseDay(r.StartDateLocal)
}

func parseDay(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return civil.Date{}, false
	}
	d, err := civil.ParseDate(s[:10])
	if err != nil || !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}

func positive(v *float64) (float64, bool) {
	if v == nil || !isFinite(*v) || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// roundHalfUp rounds x to the given number of decimals with ties going
// towards positive infinity, so -10.95 becomes -10.9 rather than -11.0.
func roundHalfUp(x float64, decimals int) float64 {
	if !isFinite(x) {
		return 0
	}
	scale := math.Pow(10, float64(decimals))
	return math.Floor(x*scale+0.5) / scale
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Float returns a pointer to v. It keeps test fixtures and adapters short.
func Float(v float64) *float64 {
	return &v
}
