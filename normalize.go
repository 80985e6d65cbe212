package trainload

import (
	"sort"

	"cloud.google.com/go/civil"
)

// DailyLoadSample is the summed load of one calendar day.
type DailyLoadSample struct {
	Date civil.Date `json:"date"`
	Load float64    `json:"load"`
}

// NormalizeDaily collapses records into one sample per calendar day present in
// the input, summing the resolved load of every record on that day. Records
// without a parseable date are dropped. Days with no records get no sample.
func NormalizeDaily(records []Record) []DailyLoadSample {
	if len(records) == 0 {
		return nil
	}

	byDay := make(map[civil.Date]float64, len(records))
	for _, r := range records {
		day, ok := ResolveDate(r)
		if !ok {
			continue
		}
		byDay[day] += ResolveLoad(r)
	}

	out := make([]DailyLoadSample, 0, len(byDay))
	for day, load := range byDay {
		out = append(out, DailyLoadSample{Date: day, Load: load})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
