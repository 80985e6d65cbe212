package trainload

import (
	"fmt"
	"math"
	"sort"

	"cloud.google.com/go/civil"
)

const (
	// DefaultFitnessDays is the time constant of the chronic (fitness) average.
	DefaultFitnessDays = 42
	// DefaultFatigueDays is the time constant of the acute (fatigue) average.
	DefaultFatigueDays = 7
)

// GapPolicy decides what happens to calendar days that have no sample.
type GapPolicy int

const (
	// GapSkip advances the recurrence once per present sample. A gap of
	// several days is folded as if no time had passed, so fitness and fatigue
	// do not decay across it.
	GapSkip GapPolicy = iota
	// GapZeroFill folds every missing day between two samples as a zero-load
	// day and emits a point for it.
	GapZeroFill
)

func (g GapPolicy) String() string {
	switch g {
	case GapSkip:
		return "skip"
	case GapZeroFill:
		return "zero_fill"
	default:
		return fmt.Sprintf("GapPolicy(%d)", int(g))
	}
}

// ParseGapPolicy maps "skip" or "zero_fill" to a GapPolicy.
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch s {
	case "", "skip":
		return GapSkip, nil
	case "zero_fill", "zero-fill", "zerofill":
		return GapZeroFill, nil
	default:
		return GapSkip, fmt.Errorf("unknown gap policy %q (expected skip|zero_fill)", s)
	}
}

// Config holds the performance-management constants.
type Config struct {
	FitnessDays float64
	FatigueDays float64
	Gaps        GapPolicy
}

// DefaultConfig returns the 42/7-day model with gaps skipped.
func DefaultConfig() Config {
	return Config{
		FitnessDays: DefaultFitnessDays,
		FatigueDays: DefaultFatigueDays,
		Gaps:        GapSkip,
	}
}

// PMCPoint is one day of the performance-management chart.
type PMCPoint struct {
	Date      civil.Date `json:"date"`
	Load      float64    `json:"load"`
	Fitness   float64    `json:"fitness"`
	Fatigue   float64    `json:"fatigue"`
	Form      float64    `json:"form"`
	Projected bool       `json:"projected"`
}

// ForecastDay is an assumed future load supplied by a planning policy.
type ForecastDay struct {
	Date civil.Date `json:"date"`
	Load float64    `json:"load"`
}

// Engine folds daily loads through the fitness/fatigue recurrence.
// The zero value is not usable; build one with NewEngine.
type Engine struct {
	cfg      Config
	kFitness float64
	kFatigue float64
}

// NewEngine returns an Engine for cfg. Non-positive windows fall back to the
// 42/7-day defaults.
func NewEngine(cfg Config) *Engine {
	if !isFinite(cfg.FitnessDays) || cfg.FitnessDays <= 0 {
		cfg.FitnessDays = DefaultFitnessDays
	}
	if !isFinite(cfg.FatigueDays) || cfg.FatigueDays <= 0 {
		cfg.FatigueDays = DefaultFatigueDays
	}
	return &Engine{
		cfg:      cfg,
		kFitness: decayFactor(cfg.FitnessDays),
		kFatigue: decayFactor(cfg.FatigueDays),
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Factors returns the per-step smoothing factors for fitness and fatigue.
func (e *Engine) Factors() (kFitness, kFatigue float64) {
	return e.kFitness, e.kFatigue
}

func decayFactor(days float64) float64 {
	return 1 - math.Exp(-1/days)
}

// ComputeSeries sorts samples by date and folds them from zero fitness and
// fatigue. Samples sharing a date are summed into one step in their input
// order. Empty input returns nil.
func (e *Engine) ComputeSeries(samples []DailyLoadSample) []PMCPoint {
	days := mergeDays(samples)
	if len(days) == 0 {
		return nil
	}

	st := state{}
	out := make([]PMCPoint, 0, len(days))
	for i, d := range days {
		if i > 0 && e.cfg.Gaps == GapZeroFill {
			for gap := days[i-1].Date.AddDays(1); gap.Before(d.Date); gap = gap.AddDays(1) {
				out = append(out, e.step(&st, gap, 0, false))
			}
		}
		out = append(out, e.step(&st, d.Date, d.Load, false))
	}
	return out
}

// Project continues the recurrence from last's fitness and fatigue over the
// forecast, marking every emitted point as projected. Forecast days on or
// before last.Date are ignored. last is never modified and never re-emitted.
func (e *Engine) Project(last PMCPoint, forecast []ForecastDay) []PMCPoint {
	asSamples := make([]DailyLoadSample, 0, len(forecast))
	for _, f := range forecast {
		if last.Date != (civil.Date{}) && !f.Date.After(last.Date) {
			continue
		}
		asSamples = append(asSamples, DailyLoadSample(f))
	}
	days := mergeDays(asSamples)
	if len(days) == 0 {
		return nil
	}

	st := state{fitness: last.Fitness, fatigue: last.Fatigue}
	out := make([]PMCPoint, 0, len(days))
	prev := last.Date
	for _, d := range days {
		if e.cfg.Gaps == GapZeroFill && prev != (civil.Date{}) {
			for gap := prev.AddDays(1); gap.Before(d.Date); gap = gap.AddDays(1) {
				out = append(out, e.step(&st, gap, 0, true))
			}
		}
		out = append(out, e.step(&st, d.Date, d.Load, true))
		prev = d.Date
	}
	return out
}

type state struct {
	fitness float64
	fatigue float64
}

func (e *Engine) step(st *state, day civil.Date, load float64, projected bool) PMCPoint {
	st.fitness += e.kFitness * (load - st.fitness)
	st.fatigue += e.kFatigue * (load - st.fatigue)
	return PMCPoint{
		Date:      day,
		Load:      roundHalfUp(load, 0),
		Fitness:   roundHalfUp(st.fitness, 1),
		Fatigue:   roundHalfUp(st.fatigue, 1),
		Form:      roundHalfUp(st.fitness-st.fatigue, 1),
		Projected: projected,
	}
}

// mergeDays stable-sorts a copy of samples by date and sums samples that share
// a date. Negative or non-finite loads count as zero.
func mergeDays(samples []DailyLoadSample) []DailyLoadSample {
	if len(samples) == 0 {
		return nil
	}
	sorted := make([]DailyLoadSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]DailyLoadSample, 0, len(sorted))
	for _, s := range sorted {
		load := s.Load
		if !isFinite(load) || load < 0 {
			load = 0
		}
		if n := len(out); n > 0 && out[n-1].Date == s.Date {
			out[n-1].Load += load
			continue
		}
		out = append(out, DailyLoadSample{Date: s.Date, Load: load})
	}
	return out
}

// LatestOnOrBefore returns the last historical point dated on or before day.
func LatestOnOrBefore(series []PMCPoint, day civil.Date) (PMCPoint, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		p := series[i]
		if p.Projected || p.Date.After(day) {
			continue
		}
		return p, true
	}
	return PMCPoint{}, false
}
