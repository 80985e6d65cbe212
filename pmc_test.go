package trainload

import (
	"math"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEngineFactors(t *testing.T) {
	e := NewEngine(DefaultConfig())
	kFit, kFat := e.Factors()
	assert.InDelta(t, 0.02353, kFit, 1e-5)
	assert.InDelta(t, 0.13312, kFat, 1e-5)
}

func TestComputeSeriesSingleDay(t *testing.T) {
	e := NewEngine(DefaultConfig())
	got := e.ComputeSeries([]DailyLoadSample{{Date: day("2026-01-01"), Load: 100}})

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, day("2026-01-01"), p.Date)
	assert.Equal(t, 100.0, p.Load)
	// 100 * 0.023528 = 2.35 before rounding
	assert.Equal(t, 2.4, p.Fitness)
	assert.Equal(t, 13.3, p.Fatigue)
	assert.Equal(t, -11.0, p.Form)
	assert.False(t, p.Projected)
}

func TestComputeSeriesEmpty(t *testing.T) {
	e := NewEngine(DefaultConfig())
	assert.Empty(t, e.ComputeSeries(nil))
	assert.Empty(t, e.ComputeSeries([]DailyLoadSample{}))
}

func TestComputeSeriesConvergesToConstantLoad(t *testing.T) {
	e := NewEngine(DefaultConfig())
	start := day("2025-01-01")
	samples := make([]DailyLoadSample, 0, 600)
	for i := 0; i < 600; i++ {
		samples = append(samples, DailyLoadSample{Date: start.AddDays(i), Load: 80})
	}

	got := e.ComputeSeries(samples)
	require.Len(t, got, len(samples))
	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, got[i].Fitness, got[i-1].Fitness, "fitness must not drop at %s", got[i].Date)
		require.GreaterOrEqual(t, got[i].Fatigue, got[i-1].Fatigue, "fatigue must not drop at %s", got[i].Date)
	}
	last := got[len(got)-1]
	assert.Equal(t, 80.0, last.Fitness)
	assert.Equal(t, 80.0, last.Fatigue)
	assert.Equal(t, 0.0, math.Abs(last.Form))
}

func TestComputeSeriesIgnoresInputOrder(t *testing.T) {
	e := NewEngine(DefaultConfig())
	ordered := []DailyLoadSample{
		{Date: day("2026-01-01"), Load: 60},
		{Date: day("2026-01-02"), Load: 0},
		{Date: day("2026-01-03"), Load: 120},
		{Date: day("2026-01-05"), Load: 45},
	}
	shuffled := []DailyLoadSample{ordered[2], ordered[0], ordered[3], ordered[1]}

	want := e.ComputeSeries(ordered)
	got := e.ComputeSeries(shuffled)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("series differs by input order (-want +got):\n%s", diff)
	}
	assert.Equal(t, day("2026-01-03"), shuffled[0].Date, "input must not be reordered in place")
}

func TestComputeSeriesMergesDuplicateDates(t *testing.T) {
	e := NewEngine(DefaultConfig())
	got := e.ComputeSeries([]DailyLoadSample{
		{Date: day("2026-01-01"), Load: 40},
		{Date: day("2026-01-01"), Load: 60},
	})
	want := e.ComputeSeries([]DailyLoadSample{{Date: day("2026-01-01"), Load: 100}})
	assert.Equal(t, want, got)
}

func TestComputeSeriesClampsNegativeLoad(t *testing.T) {
	e := NewEngine(DefaultConfig())
	got := e.ComputeSeries([]DailyLoadSample{{Date: day("2026-01-01"), Load: -50}})
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].Load)
	assert.Equal(t, 0.0, got[0].Fitness)
}

func TestComputeSeriesGapPolicies(t *testing.T) {
	samples := []DailyLoadSample{
		{Date: day("2026-01-01"), Load: 100},
		{Date: day("2026-01-11"), Load: 0},
	}

	skip := NewEngine(DefaultConfig()).ComputeSeries(samples)
	require.Len(t, skip, 2)
	// one step of decay only: 13.31 * (1 - 0.13312)
	assert.Equal(t, 11.5, skip[1].Fatigue)

	cfg := DefaultConfig()
	cfg.Gaps = GapZeroFill
	filled := NewEngine(cfg).ComputeSeries(samples)
	require.Len(t, filled, 11)
	for i, p := range filled {
		assert.Equal(t, day("2026-01-01").AddDays(i), p.Date)
	}
	assert.Equal(t, 0.0, filled[5].Load)
	assert.Less(t, filled[10].Fatigue, skip[1].Fatigue)
	assert.Equal(t, 3.2, filled[10].Fatigue)
}

func TestNewEngineFallsBackOnInvalidWindows(t *testing.T) {
	e := NewEngine(Config{FitnessDays: 0, FatigueDays: math.NaN()})
	cfg := e.Config()
	assert.Equal(t, float64(DefaultFitnessDays), cfg.FitnessDays)
	assert.Equal(t, float64(DefaultFatigueDays), cfg.FatigueDays)
}

func TestProjectContinuesFromLastPoint(t *testing.T) {
	e := NewEngine(DefaultConfig())
	last := PMCPoint{Date: day("2026-01-10"), Load: 90, Fitness: 50, Fatigue: 60, Form: -10}

	got := e.Project(last, []ForecastDay{
		{Date: day("2026-01-09"), Load: 500},
		{Date: day("2026-01-11"), Load: 100},
	})

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, day("2026-01-11"), p.Date)
	assert.True(t, p.Projected)
	assert.Equal(t, 51.2, p.Fitness)
	assert.Equal(t, 65.3, p.Fatigue)
	assert.Equal(t, -14.1, p.Form)
	assert.Equal(t, 50.0, last.Fitness)
}

func TestProjectEmptyForecast(t *testing.T) {
	e := NewEngine(DefaultConfig())
	last := PMCPoint{Date: day("2026-01-10"), Fitness: 50, Fatigue: 60, Form: -10}
	before := last

	assert.Empty(t, e.Project(last, nil))
	assert.Empty(t, e.Project(last, []ForecastDay{}))
	assert.Equal(t, before, last)
}

func TestProjectMatchesContinuousSeries(t *testing.T) {
	e := NewEngine(DefaultConfig())
	hist := e.ComputeSeries([]DailyLoadSample{{Date: day("2026-02-01"), Load: 0}})
	require.Len(t, hist, 1)

	projected := e.Project(hist[0], []ForecastDay{
		{Date: day("2026-02-02"), Load: 100},
		{Date: day("2026-02-03"), Load: 100},
	})
	full := e.ComputeSeries([]DailyLoadSample{
		{Date: day("2026-02-01"), Load: 0},
		{Date: day("2026-02-02"), Load: 100},
		{Date: day("2026-02-03"), Load: 100},
	})

	require.Len(t, projected, 2)
	for i, p := range projected {
		assert.True(t, p.Projected)
		assert.Equal(t, full[i+1].Fitness, p.Fitness)
		assert.Equal(t, full[i+1].Fatigue, p.Fatigue)
	}
}

func TestProjectZeroFillsGapAfterLastPoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gaps = GapZeroFill
	e := NewEngine(cfg)
	last := PMCPoint{Date: day("2026-01-10"), Fitness: 50, Fatigue: 60}

	got := e.Project(last, []ForecastDay{{Date: day("2026-01-13"), Load: 100}})
	require.Len(t, got, 3)
	assert.Equal(t, day("2026-01-11"), got[0].Date)
	assert.Equal(t, 0.0, got[0].Load)
	assert.Equal(t, day("2026-01-13"), got[2].Date)
	assert.Equal(t, 100.0, got[2].Load)
}

func TestLatestOnOrBefore(t *testing.T) {
	series := []PMCPoint{
		{Date: day("2026-01-01"), Fitness: 1},
		{Date: day("2026-01-03"), Fitness: 2},
		{Date: day("2026-01-04"), Fitness: 3, Projected: true},
	}

	p, ok := LatestOnOrBefore(series, day("2026-01-05"))
	require.True(t, ok)
	assert.Equal(t, 2.0, p.Fitness)

	p, ok = LatestOnOrBefore(series, day("2026-01-02"))
	require.True(t, ok)
	assert.Equal(t, 1.0, p.Fitness)

	_, ok = LatestOnOrBefore(series, day("2025-12-31"))
	assert.False(t, ok)
}

func TestParseGapPolicy(t *testing.T) {
	g, err := ParseGapPolicy("zero_fill")
	require.NoError(t, err)
	assert.Equal(t, GapZeroFill, g)
	assert.Equal(t, "zero_fill", g.String())

	g, err = ParseGapPolicy("")
	require.NoError(t, err)
	assert.Equal(t, GapSkip, g)

	_, err = ParseGapPolicy("interpolate")
	assert.Error(t, err)
}
