package trainload

import (
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
)

// TiePolicy decides which completed activity represents a day when several
// were recorded on it.
type TiePolicy int

const (
	// TieLast keeps the last activity encountered in input order.
	TieLast TiePolicy = iota
	// TieSum merges all activities of the day: loads are added and the names
	// joined with " + ".
	TieSum
	// TieHighestLoad keeps the activity with the largest resolved load; equal
	// loads keep the earlier one.
	TieHighestLoad
)

func (p TiePolicy) String() string {
	switch p {
	case TieLast:
		return "last"
	case TieSum:
		return "sum"
	case TieHighestLoad:
		return "highest_load"
	default:
		return fmt.Sprintf("TiePolicy(%d)", int(p))
	}
}

// ParseTiePolicy maps "last", "sum" or "highest_load" to a TiePolicy.
func ParseTiePolicy(s string) (TiePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last":
		return TieLast, nil
	case "sum":
		return TieSum, nil
	case "highest_load", "highest-load", "highest":
		return TieHighestLoad, nil
	default:
		return TieLast, fmt.Errorf("unknown tie policy %q (expected last|sum|highest_load)", s)
	}
}

// DefaultPlannedTypes lists the event types treated as planned rides.
var DefaultPlannedTypes = []string{"Ride", "VirtualRide", "GravelRide", "MountainBikeRide", "Workout"}

// AdherenceOptions tunes MatchAdherence.
type AdherenceOptions struct {
	Ties TiePolicy
	// PlannedTypes overrides DefaultPlannedTypes when non-empty. Events in
	// the WORKOUT category always qualify.
	PlannedTypes []string
}

// AdherenceRecord compares one planned session with what was done that day.
type AdherenceRecord struct {
	Date        civil.Date `json:"date"`
	PlannedName string     `json:"planned_name"`
	ActualName  *string    `json:"actual_name,omitempty"`
	PlannedLoad float64    `json:"planned_load"`
	ActualLoad  float64    `json:"actual_load"`
	Completed   bool       `json:"completed"`
	// AdherencePercent is nil exactly when PlannedLoad is zero.
	AdherencePercent *float64 `json:"adherence_percent"`
}

type dayActual struct {
	name string
	load float64
}

// MatchAdherence pairs each qualifying planned event with the completed
// activity on the same calendar day. The result follows planned-event input
// order; sorting and truncation for display are left to SortAdherence and
// LimitAdherence.
func MatchAdherence(planned, actual []Record, opts AdherenceOptions) []AdherenceRecord {
	types := opts.PlannedTypes
	if len(types) == 0 {
		types = DefaultPlannedTypes
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[strings.ToLower(t)] = struct{}{}
	}

	byDay := indexActuals(actual, opts.Ties)

	out := make([]AdherenceRecord, 0, len(planned))
	for _, p := range planned {
		if !isPlannedRide(p, allowed) {
			continue
		}
		day, ok := ResolveDate(p)
		if !ok {
			continue
		}
		rec := AdherenceRecord{
			Date:        day,
			PlannedName: p.Name,
			PlannedLoad: ResolveLoad(p),
		}
		if a, found := byDay[day]; found {
			name := a.name
			rec.ActualName = &name
			rec.ActualLoad = a.load
			rec.Completed = true
		}
		if rec.PlannedLoad > 0 {
			pct := roundHalfUp(100*rec.ActualLoad/rec.PlannedLoad, 0)
			rec.AdherencePercent = &pct
		}
		out = append(out, rec)
	}
	return out
}

func indexActuals(actual []Record, ties TiePolicy) map[civil.Date]dayActual {
	byDay := make(map[civil.Date]dayActual, len(actual))
	for _, a := range actual {
		day, ok := ResolveDate(a)
		if !ok {
			continue
		}
		cur := dayActual{name: a.Name, load: ResolveLoad(a)}
		prev, seen := byDay[day]
		if !seen {
			byDay[day] = cur
			continue
		}
		switch ties {
		case TieSum:
			byDay[day] = dayActual{name: joinNames(prev.name, cur.name), load: prev.load + cur.load}
		case TieHighestLoad:
			if cur.load > prev.load {
				byDay[day] = cur
			}
		default:
			byDay[day] = cur
		}
	}
	return byDay
}

func joinNames(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " + " + b
	}
}

func isPlannedRide(r Record, allowed map[string]struct{}) bool {
	if strings.EqualFold(r.Category, "WORKOUT") {
		return true
	}
	_, ok := allowed[strings.ToLower(r.Type)]
	return ok
}

// SortAdherence returns a copy of records ordered by date. Records on the same
// day keep their relative order.
func SortAdherence(records []AdherenceRecord, descending bool) []AdherenceRecord {
	out := make([]AdherenceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// LimitAdherence returns at most n leading records. n <= 0 means no limit.
func LimitAdherence(records []AdherenceRecord, n int) []AdherenceRecord {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[:n]
}

// AdherenceSummary condenses a listing into headline numbers.
type AdherenceSummary struct {
	Sessions       int `json:"sessions"`
	Completed      int `json:"completed"`
	CompletionRate int `json:"completion_rate_percent"`
	// MeanAdherence averages the non-nil adherence percentages; nil when
	// there are none.
	MeanAdherence *float64 `json:"mean_adherence_percent"`
}

// SummarizeAdherence computes completion rate and mean adherence.
func SummarizeAdherence(records []AdherenceRecord) AdherenceSummary {
	s := AdherenceSummary{Sessions: len(records)}
	sum := 0.0
	n := 0
	for _, r := range records {
		if r.Completed {
			s.Completed++
		}
		if r.AdherencePercent != nil {
			sum += *r.AdherencePercent
			n++
		}
	}
	if s.Sessions > 0 {
		s.CompletionRate = int(roundHalfUp(100*float64(s.Completed)/float64(s.Sessions), 0))
	}
	if n > 0 {
		mean := roundHalfUp(sum/float64(n), 0)
		s.MeanAdherence = &mean
	}
	return s
}
