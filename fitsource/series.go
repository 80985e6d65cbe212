package fitsource

import (
	"math"
	"sort"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/trainload"
)

const (
	npWindowSeconds = 30
	// Power gaps up to this long are back-filled with the last sample so the
	// 1 Hz stream stays aligned with wall time.
	maxFillSeconds = 30
)

// sampleStream is the 1 Hz view of a FIT record list.
type sampleStream struct {
	start       time.Time
	end         time.Time
	durationSec float64

	// power holds one sample per second, gaps of up to maxFillSeconds filled.
	power []float64
	hr    []float64
}

func buildSampleStream(records []*fit.RecordMsg) sampleStream {
	var ss sampleStream
	if len(records) == 0 {
		return ss
	}

	ordered := make([]*fit.RecordMsg, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			ordered = append(ordered, rec)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var (
		lastTS      time.Time
		lastPower   float64
		havePrevPwr bool
	)
	for _, rec := range ordered {
		ts := validTimeOrZero(rec.Timestamp)
		if !ts.IsZero() {
			if ss.start.IsZero() {
				ss.start = ts
			}
			ss.end = ts
		}

		if hr, ok := heartRate(rec); ok {
			ss.hr = append(ss.hr, hr)
		}

		p, ok := power(rec)
		if ok {
			if havePrevPwr && !ts.IsZero() && !lastTS.IsZero() && ts.After(lastTS) {
				missing := int(math.Round(ts.Sub(lastTS).Seconds())) - 1
				if missing > 0 && missing <= maxFillSeconds {
					for i := 0; i < missing; i++ {
						ss.power = append(ss.power, lastPower)
					}
				}
			}
			ss.power = append(ss.power, p)
			lastPower = p
			havePrevPwr = true
		}
		if !ts.IsZero() {
			lastTS = ts
		}
	}

	if !ss.start.IsZero() && ss.end.After(ss.start) {
		ss.durationSec = ss.end.Sub(ss.start).Seconds()
	}
	return ss
}

// zoneSeconds counts one second per power sample against zones. Samples that
// fall in no zone are not counted. It returns nil when there is no power or
// no zone table.
func zoneSeconds(power []float64, zones []trainload.ZoneDef) map[string]float64 {
	if len(power) == 0 || len(zones) == 0 {
		return nil
	}
	out := make(map[string]float64, len(zones))
	for _, z := range zones {
		out[z.ID] = 0
	}
	for _, p := range power {
		for _, z := range zones {
			if z.Contains(p) {
				out[z.ID]++
				break
			}
		}
	}
	return out
}

// normalizedPower is the fourth-power mean of the 30 s rolling average.
// Streams shorter than the window fall back to the plain mean.
func normalizedPower(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	if len(samples) < npWindowSeconds {
		return average(samples)
	}

	sum := 0.0
	for _, p := range samples[:npWindowSeconds] {
		sum += p
	}
	total := 0.0
	count := 0
	for i := npWindowSeconds - 1; i < len(samples); i++ {
		if i >= npWindowSeconds {
			sum += samples[i] - samples[i-npWindowSeconds]
		}
		total += math.Pow(sum/npWindowSeconds, 4)
		count++
	}
	return math.Pow(total/float64(count), 0.25)
}

// estimateFTP is 95% of the best 20 minute power.
func estimateFTP(samples []float64) float64 {
	return bestRollingPower(samples, 20*60) * 0.95
}

func bestRollingPower(samples []float64, seconds int) float64 {
	if len(samples) == 0 || seconds <= 0 {
		return 0
	}
	if len(samples) < seconds {
		return average(samples)
	}

	sum := 0.0
	for _, p := range samples[:seconds] {
		sum += p
	}
	best := sum / float64(seconds)
	for i := seconds; i < len(samples); i++ {
		sum += samples[i] - samples[i-seconds]
		if cur := sum / float64(seconds); cur > best {
			best = cur
		}
	}
	return best
}

func power(rec *fit.RecordMsg) (float64, bool) {
	if rec.Power == math.MaxUint16 {
		return 0, false
	}
	return float64(rec.Power), true
}

func heartRate(rec *fit.RecordMsg) (float64, bool) {
	if rec.HeartRate == math.MaxUint8 || rec.HeartRate == 0 {
		return 0, false
	}
	return float64(rec.HeartRate), true
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint8(v uint8) uint8 {
	if v == math.MaxUint8 {
		return 0
	}
	return v
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}

func average(values []float64) float64 {
	total := 0.0
	count := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func safePositive(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}
