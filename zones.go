package trainload

// ZoneDef describes one power zone. Definitions come from the athlete
// profile; MaxWatts is exclusive.
type ZoneDef struct {
	ID       string  `toml:"id" json:"id"`
	Name     string  `toml:"name" json:"name"`
	MinWatts float64 `toml:"min" json:"min_watts"`
	MaxWatts float64 `toml:"max" json:"max_watts"`
	Color    string  `toml:"color" json:"color,omitempty"`
}

// Contains reports whether watts falls inside [MinWatts, MaxWatts).
func (z ZoneDef) Contains(watts float64) bool {
	return watts >= z.MinWatts && watts < z.MaxWatts
}

// ZoneBucket is the accumulated time in one zone.
type ZoneBucket struct {
	ZoneID         string  `json:"zone_id"`
	Name           string  `json:"name"`
	MinWatts       float64 `json:"min_watts"`
	MaxWatts       float64 `json:"max_watts"`
	Color          string  `json:"color,omitempty"`
	Seconds        float64 `json:"seconds"`
	Minutes        float64 `json:"minutes"`
	PercentOfTotal float64 `json:"percent_of_total"`
}

// DistributeZones sums time in each configured zone across every record that
// carries a zone breakdown. Records without one are skipped entirely, and zone
// ids not in zones are ignored.
//
// When no record carried a breakdown it returns nil and false, which is
// distinct from a breakdown of zero time in every zone.
func DistributeZones(records []Record, zones []ZoneDef) ([]ZoneBucket, bool) {
	seconds := make([]float64, len(zones))
	index := make(map[string]int, len(zones))
	for i, z := range zones {
		if _, dup := index[z.ID]; !dup {
			index[z.ID] = i
		}
	}

	hasData := false
	for _, r := range records {
		if r.ZoneTimes == nil {
			continue
		}
		hasData = true
		for id, secs := range r.ZoneTimes {
			i, ok := index[id]
			if !ok || !isFinite(secs) || secs <= 0 {
				continue
			}
			seconds[i] += secs
		}
	}

	if !hasData {
		return nil, false
	}

	total := 0.0
	for _, s := range seconds {
		total += s
	}

	out := make([]ZoneBucket, len(zones))
	for i, z := range zones {
		b := ZoneBucket{
			ZoneID:   z.ID,
			Name:     z.Name,
			MinWatts: z.MinWatts,
			MaxWatts: z.MaxWatts,
			Color:    z.Color,
			Seconds:  seconds[i],
			Minutes:  roundHalfUp(seconds[i]/60, 0),
		}
		if total > 0 {
			b.PercentOfTotal = roundHalfUp(100*seconds[i]/total, 0)
		}
		out[i] = b
	}
	return out, true
}
