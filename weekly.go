package trainload

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

const secondsPerHour = 3600.0

// WeekBucket totals one Monday-anchored week.
type WeekBucket struct {
	WeekStart    civil.Date `json:"week_start"`
	TotalLoad    float64    `json:"total_load"`
	TotalHours   float64    `json:"total_hours"`
	SessionCount int        `json:"session_count"`
}

// WeekStart returns the Monday on or before d.
func WeekStart(d civil.Date) civil.Date {
	offset := (int(d.In(time.UTC).Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// AggregateWeeks buckets records by ISO week start. Load and duration use the
// same resolution rules as the rest of the package; every dated record counts
// as one session. Records without a parseable date are dropped.
func AggregateWeeks(records []Record) []WeekBucket {
	if len(records) == 0 {
		return nil
	}

	type acc struct {
		load    float64
		seconds float64
		count   int
	}
	weeks := make(map[civil.Date]*acc)
	for _, r := range records {
		day, ok := ResolveDate(r)
		if !ok {
			continue
		}
		key := WeekStart(day)
		a, ok := weeks[key]
		if !ok {
			a = &acc{}
			weeks[key] = a
		}
		a.load += ResolveLoad(r)
		a.seconds += ResolveDurationSeconds(r)
		a.count++
	}

	out := make([]WeekBucket, 0, len(weeks))
	for key, a := range weeks {
		out = append(out, WeekBucket{
			WeekStart:    key,
			TotalLoad:    roundHalfUp(a.load, 0),
			TotalHours:   roundHalfUp(a.seconds/secondsPerHour, 1),
			SessionCount: a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WeekStart.Before(out[j].WeekStart)
	})
	return out
}
