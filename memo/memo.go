// Package memo caches computed PMC series so repeated requests for the same
// history, as the browser build issues on every redraw, skip the recurrence.
package memo

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/coocood/freecache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/lucasjlepore/trainload"
)

const (
	megabyte         = 1024 * 1024
	defaultCacheSize = 8 * megabyte
	defaultTTL       = time.Hour
)

// Options configures a SeriesCache. Zero values pick sensible defaults; a nil
// Registerer leaves the counters unregistered.
type Options struct {
	SizeBytes  int
	TTL        time.Duration
	Registerer prometheus.Registerer
	Logger     logrus.FieldLogger
}

// SeriesCache wraps an Engine with a byte-bounded cache keyed by the engine
// configuration and the exact sample sequence.
type SeriesCache struct {
	engine *trainload.Engine
	cache  *freecache.Cache
	ttl    int
	log    logrus.FieldLogger

	hits   prometheus.Counter
	misses prometheus.Counter
}

// New returns a SeriesCache in front of engine.
func New(engine *trainload.Engine, opts Options) (*SeriesCache, error) {
	size := opts.SizeBytes
	if size <= 0 {
		size = defaultCacheSize
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	c := &SeriesCache{
		engine: engine,
		cache:  freecache.NewCache(size),
		ttl:    int(ttl / time.Second),
		log:    logger.WithField("component", "pmc_cache"),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trainload",
			Subsystem: "pmc_cache",
			Name:      "hits_total",
			Help:      "Number of PMC series served from the cache.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trainload",
			Subsystem: "pmc_cache",
			Name:      "misses_total",
			Help:      "Number of PMC series computed because they were not cached.",
		}),
	}
	if opts.Registerer != nil {
		var err error
		if c.hits, err = register(opts.Registerer, c.hits); err != nil {
			return nil, err
		}
		if c.misses, err = register(opts.Registerer, c.misses); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// register adds counter to reg, or returns the counter already registered
// under the same name so several caches share one metric.
func register(reg prometheus.Registerer, counter prometheus.Counter) (prometheus.Counter, error) {
	err := reg.Register(counter)
	if err == nil {
		return counter, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(prometheus.Counter); ok {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("register cache metrics: %w", err)
}

// CounterValues gathers g and returns each counter family summed over its
// series, keyed by full metric name such as trainload_pmc_cache_hits_total.
func CounterValues(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather cache metrics: %w", err)
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		total := 0.0
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		out[mf.GetName()] = total
	}
	return out, nil
}

// Engine returns the wrapped engine.
func (c *SeriesCache) Engine() *trainload.Engine {
	return c.engine
}

// entry is what the cache stores. Samples is checked on every hit because
// the key is only a 64-bit hash of them.
type entry struct {
	Samples []trainload.DailyLoadSample `json:"samples"`
	Series  []trainload.PMCPoint        `json:"series"`
}

// Series returns engine.ComputeSeries(samples), from the cache when the same
// samples were seen before under the same configuration.
func (c *SeriesCache) Series(samples []trainload.DailyLoadSample) []trainload.PMCPoint {
	key := c.key(samples)
	if raw, err := c.cache.Get(key); err == nil {
		var e entry
		err = json.Unmarshal(raw, &e)
		switch {
		case err != nil:
			c.log.WithError(err).Warn("dropping unreadable cache entry")
			c.cache.Del(key)
		case !sameSamples(e.Samples, samples):
			c.log.Warn("cache key collision, recomputing series")
		default:
			c.hits.Inc()
			return e.Series
		}
	}
	c.misses.Inc()

	series := c.engine.ComputeSeries(samples)
	raw, err := json.Marshal(entry{Samples: samples, Series: series})
	if err != nil {
		c.log.WithError(err).Warn("failed to encode series for cache")
		return series
	}
	if err := c.cache.Set(key, raw, c.ttl); err != nil {
		c.log.WithError(err).WithField("bytes", len(raw)).Debug("series not cached")
	}
	return series
}

func sameSamples(a, b []trainload.DailyLoadSample) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Len returns the number of cached series.
func (c *SeriesCache) Len() int64 {
	return c.cache.EntryCount()
}

// Reset empties the cache.
func (c *SeriesCache) Reset() {
	c.cache.Clear()
}

func (c *SeriesCache) key(samples []trainload.DailyLoadSample) []byte {
	cfg := c.engine.Config()
	h := xxhash.New()
	var buf [8]byte
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	writeFloat(cfg.FitnessDays)
	writeFloat(cfg.FatigueDays)
	writeFloat(float64(cfg.Gaps))
	for _, s := range samples {
		_, _ = h.WriteString(s.Date.String())
		writeFloat(s.Load)
	}
	binary.LittleEndian.PutUint64(buf[:], h.Sum64())
	return append([]byte("pmc::"), buf[:]...)
}
