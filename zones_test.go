package trainload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testZones = []ZoneDef{
	{ID: "z1", Name: "Active Recovery", MinWatts: 0, MaxWatts: 144},
	{ID: "z2", Name: "Endurance", MinWatts: 144, MaxWatts: 192},
	{ID: "z3", Name: "Tempo", MinWatts: 192, MaxWatts: 216},
}

func TestDistributeZones(t *testing.T) {
	got, ok := DistributeZones([]Record{
		{ZoneTimes: map[string]float64{"z1": 600, "z2": 1800}},
		{TrainingLoad: Float(40)},
		{ZoneTimes: map[string]float64{"z1": 600, "z9": 100}},
	}, testZones)

	require.True(t, ok)
	require.Len(t, got, 3)

	assert.Equal(t, "z1", got[0].ZoneID)
	assert.Equal(t, "Active Recovery", got[0].Name)
	assert.Equal(t, 1200.0, got[0].Seconds)
	assert.Equal(t, 20.0, got[0].Minutes)
	assert.Equal(t, 40.0, got[0].PercentOfTotal)

	assert.Equal(t, 1800.0, got[1].Seconds)
	assert.Equal(t, 30.0, got[1].Minutes)
	assert.Equal(t, 60.0, got[1].PercentOfTotal)

	assert.Equal(t, 0.0, got[2].Seconds)
	assert.Equal(t, 0.0, got[2].PercentOfTotal)
}

func TestDistributeZonesNoData(t *testing.T) {
	got, ok := DistributeZones([]Record{{TrainingLoad: Float(40)}, {}}, testZones)
	assert.False(t, ok)
	assert.Empty(t, got)

	got, ok = DistributeZones(nil, testZones)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestDistributeZonesZeroTimeIsStillData(t *testing.T) {
	got, ok := DistributeZones([]Record{{ZoneTimes: map[string]float64{}}}, testZones)
	assert.True(t, ok)
	require.Len(t, got, len(testZones))
	for _, b := range got {
		assert.Zero(t, b.PercentOfTotal)
	}
}

func TestDistributeZonesPercentSumWithinRounding(t *testing.T) {
	got, ok := DistributeZones([]Record{
		{ZoneTimes: map[string]float64{"z1": 100, "z2": 100, "z3": 100}},
	}, testZones)
	require.True(t, ok)

	sum := 0.0
	for _, b := range got {
		sum += b.PercentOfTotal
	}
	assert.InDelta(t, 100, sum, float64(len(testZones)))
}

func TestZoneDefContains(t *testing.T) {
	z := testZones[1]
	assert.True(t, z.Contains(144))
	assert.True(t, z.Contains(191.9))
	assert.False(t, z.Contains(192))
}
