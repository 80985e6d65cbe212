package trainload

import (
	"sort"

	"cloud.google.com/go/civil"
)

// WellnessRecord is one day of the training-log wellness feed. The service
// keys rows by date in the id field.
type WellnessRecord struct {
	ID        string   `json:"id"`
	RestingHR *float64 `json:"restingHR,omitempty"`
	HRVSDNN   *float64 `json:"hrvSDNN,omitempty"`
	HRV       *float64 `json:"hrv,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
}

// WellnessSample holds the usable values of one wellness day.
type WellnessSample struct {
	Date      civil.Date `json:"date"`
	RestingHR *float64   `json:"rhr"`
	HRV       *float64   `json:"hrv"`
	WeightKG  *float64   `json:"weight"`
}

// NormalizeWellness maps wellness rows to samples sorted by date. HRV prefers
// hrvSDNN over hrv. Rows with an unparseable date, or with none of the three
// values, are dropped.
func NormalizeWellness(records []WellnessRecord) []WellnessSample {
	out := make([]WellnessSample, 0, len(records))
	for _, r := range records {
		day, ok := parseDay(r.ID)
		if !ok {
			continue
		}
		s := WellnessSample{Date: day}
		if v, ok := positive(r.RestingHR); ok {
			s.RestingHR = Float(v)
		}
		if v, ok := positive(r.HRVSDNN); ok {
			s.HRV = Float(v)
		} else if v, ok := positive(r.HRV); ok {
			s.HRV = Float(v)
		}
		if v, ok := positive(r.Weight); ok {
			s.WeightKG = Float(v)
		}
		if s.RestingHR == nil && s.HRV == nil && s.WeightKG == nil {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
