package raceplan

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/trainload"
)

func date(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return d
}

func campPolicy(t *testing.T) Policy {
	return Policy{
		DefaultLoad: 50,
		Phases: []Phase{
			{Name: "camp", Start: date(t, "2026-02-20"), End: date(t, "2026-02-26"), Load: 150},
			{Name: "travel", Start: date(t, "2026-02-26"), End: date(t, "2026-02-27"), Load: 0},
		},
	}
}

func TestPolicyLoadOn(t *testing.T) {
	p := campPolicy(t)

	load, phase := p.LoadOn(date(t, "2026-02-19"))
	assert.Equal(t, 50.0, load)
	assert.Empty(t, phase)

	load, phase = p.LoadOn(date(t, "2026-02-20"))
	assert.Equal(t, 150.0, load)
	assert.Equal(t, "camp", phase)

	// Overlapping phases resolve to the first one listed.
	load, phase = p.LoadOn(date(t, "2026-02-26"))
	assert.Equal(t, 150.0, load)
	assert.Equal(t, "camp", phase)

	load, phase = p.LoadOn(date(t, "2026-02-27"))
	assert.Equal(t, 0.0, load)
	assert.Equal(t, "travel", phase)
}

func TestPolicyForecast(t *testing.T) {
	p := campPolicy(t)

	got := p.Forecast(date(t, "2026-02-18"), 4)
	require.Len(t, got, 4)
	assert.Equal(t, date(t, "2026-02-18"), got[0].Date)
	assert.Equal(t, date(t, "2026-02-21"), got[3].Date)
	assert.Equal(t, []float64{50, 50, 150, 150}, []float64{got[0].Load, got[1].Load, got[2].Load, got[3].Load})

	assert.Nil(t, p.Forecast(date(t, "2026-02-18"), 0))

	until := p.Until(date(t, "2026-02-25"), date(t, "2026-02-28"))
	require.Len(t, until, 3)
	assert.Equal(t, date(t, "2026-02-26"), until[0].Date)
	assert.Equal(t, date(t, "2026-02-28"), until[2].Date)
	assert.Equal(t, 50.0, until[2].Load)
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, campPolicy(t).Validate())

	bad := campPolicy(t)
	bad.Phases[0].End = date(t, "2026-02-01")
	assert.ErrorContains(t, bad.Validate(), "before start")

	bad = campPolicy(t)
	bad.Phases[1].Name = " "
	assert.ErrorContains(t, bad.Validate(), "name is required")

	bad = campPolicy(t)
	bad.Phases[1].Start = civil.Date{}
	assert.ErrorContains(t, bad.Validate(), "dates are required")

	bad = campPolicy(t)
	bad.DefaultLoad = -1
	assert.Error(t, bad.Validate())
}

func TestAssess(t *testing.T) {
	today := date(t, "2026-02-15")
	race := Race{Name: "Opener", Date: date(t, "2026-02-20")}
	series := []trainload.PMCPoint{
		{Date: date(t, "2026-02-19"), Form: -3, Projected: true},
		{Date: date(t, "2026-02-20"), Fitness: 60, Fatigue: 52.5, Form: 7.5, Projected: true},
	}
	c := trainload.NewClassifier(trainload.DefaultFormThresholds())

	r := Assess(race, today, series, DefaultFormWindow(), c)
	assert.Equal(t, 5, r.DaysOut)
	require.NotNil(t, r.Point)
	assert.Equal(t, 7.5, r.Point.Form)
	require.NotNil(t, r.Status)
	assert.Equal(t, "fresh", r.Status.Key)
	assert.True(t, r.InWindow)

	r = Assess(race, today, series, FormWindow{Min: 10, Max: 20}, c)
	assert.False(t, r.InWindow)

	r = Assess(Race{Name: "Later", Date: date(t, "2026-04-01")}, today, series, DefaultFormWindow(), c)
	assert.Nil(t, r.Point)
	assert.Nil(t, r.Status)
	assert.False(t, r.InWindow)
}

func TestOverlay(t *testing.T) {
	forecast := campPolicy(t).Forecast(date(t, "2026-02-18"), 3)
	planned := []trainload.DailyLoadSample{
		{Date: date(t, "2026-02-19"), Load: 90},
		{Date: date(t, "2026-02-20"), Load: 0},
		{Date: date(t, "2026-03-01"), Load: 70},
	}

	got := Overlay(forecast, planned)
	require.Len(t, got, 3)
	assert.Equal(t, 50.0, got[0].Load)
	assert.Equal(t, 90.0, got[1].Load)
	assert.Equal(t, 150.0, got[2].Load, "zero planned load keeps the phase load")
	assert.Equal(t, 50.0, forecast[1].Load, "input must be left untouched")

	assert.Nil(t, Overlay(nil, planned))
}
