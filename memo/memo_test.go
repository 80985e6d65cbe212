package memo

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/trainload"
)

func samples() []trainload.DailyLoadSample {
	return []trainload.DailyLoadSample{
		{Date: civil.Date{Year: 2026, Month: 2, Day: 1}, Load: 80},
		{Date: civil.Date{Year: 2026, Month: 2, Day: 2}, Load: 0},
		{Date: civil.Date{Year: 2026, Month: 2, Day: 4}, Load: 120},
	}
}

func newCache(t *testing.T, cfg trainload.Config, reg prometheus.Registerer) *SeriesCache {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	c, err := New(trainload.NewEngine(cfg), Options{Registerer: reg, Logger: logger})
	require.NoError(t, err)
	return c
}

func TestSeriesCacheHitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newCache(t, trainload.DefaultConfig(), reg)

	want := trainload.NewEngine(trainload.DefaultConfig()).ComputeSeries(samples())

	first := c.Series(samples())
	second := c.Series(samples())
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.misses))
	assert.EqualValues(t, 1, c.Len())

	changed := samples()
	changed[2].Load = 121
	c.Series(changed)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.misses))
	assert.EqualValues(t, 2, c.Len())

	c.Reset()
	assert.EqualValues(t, 0, c.Len())
}

func TestSeriesCacheKeyIncludesConfig(t *testing.T) {
	skip := newCache(t, trainload.DefaultConfig(), nil)
	zeroFill := trainload.DefaultConfig()
	zeroFill.Gaps = trainload.GapZeroFill
	fill := newCache(t, zeroFill, nil)

	assert.NotEqual(t, skip.key(samples()), fill.key(samples()))
	assert.Equal(t, skip.key(samples()), skip.key(samples()))
	assert.Len(t, skip.Series(samples()), 3)
	assert.Len(t, fill.Series(samples()), 4)
}

func TestNewRegistersCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = newCache(t, trainload.DefaultConfig(), reg)

	// A second cache on the same registry reuses the name without failing.
	_, err := New(trainload.NewEngine(trainload.DefaultConfig()), Options{Registerer: reg, Logger: logrus.New()})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "trainload_pmc_cache_hits_total", "trainload_pmc_cache_misses_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSeriesCacheRecomputesOnKeyCollision(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newCache(t, trainload.DefaultConfig(), reg)

	other := samples()
	other[0].Load = 300
	c.Series(other)

	// Store the other input's entry under this input's key.
	raw, err := c.cache.Get(c.key(other))
	require.NoError(t, err)
	require.NoError(t, c.cache.Set(c.key(samples()), raw, 0))

	want := trainload.NewEngine(trainload.DefaultConfig()).ComputeSeries(samples())
	assert.Equal(t, want, c.Series(samples()))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.hits))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.misses))

	// The recomputed entry replaced the colliding one.
	assert.Equal(t, want, c.Series(samples()))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.hits))
}

func TestCounterValuesSumsSharedCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newCache(t, trainload.DefaultConfig(), reg)
	zeroFill := trainload.DefaultConfig()
	zeroFill.Gaps = trainload.GapZeroFill
	b := newCache(t, zeroFill, reg)

	a.Series(samples())
	a.Series(samples())
	b.Series(samples())

	values, err := CounterValues(reg)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"trainload_pmc_cache_hits_total":   1,
		"trainload_pmc_cache_misses_total": 2,
	}, values)
}

func TestSeriesCacheEmptyInput(t *testing.T) {
	c := newCache(t, trainload.DefaultConfig(), nil)
	assert.Empty(t, c.Series(nil))
	assert.Empty(t, c.Series(nil))
}
