// Package athlete loads the per-athlete configuration that parameterises the
// analytics: power zones, PMC windows, form bands, matching policies and the
// race timeline.
package athlete

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"

	"github.com/lucasjlepore/trainload"
	"github.com/lucasjlepore/trainload/raceplan"
)

// ErrInvalidProfile wraps every validation failure returned by Validate.
var ErrInvalidProfile = errors.New("invalid athlete profile")

// Profile is the on-disk athlete configuration.
type Profile struct {
	Name     string  `toml:"name" json:"name"`
	FTPWatts float64 `toml:"ftp" json:"ftp_watts"`
	// CPWatts only documents where the zone table came from.
	CPWatts  float64 `toml:"cp" json:"cp_watts,omitempty"`
	Timezone string  `toml:"timezone" json:"timezone"`

	Zones     []trainload.ZoneDef      `toml:"zones" json:"zones"`
	PMC       PMCSettings              `toml:"pmc" json:"pmc"`
	Form      trainload.FormThresholds `toml:"form" json:"form"`
	Adherence AdherenceSettings        `toml:"adherence" json:"adherence"`
	Timeline  Timeline                 `toml:"timeline" json:"timeline"`
}

// PMCSettings configures the fitness/fatigue engine.
type PMCSettings struct {
	FitnessDays float64 `toml:"fitness_days" json:"fitness_days"`
	FatigueDays float64 `toml:"fatigue_days" json:"fatigue_days"`
	Gaps        string  `toml:"gaps" json:"gaps"`
}

// AdherenceSettings configures plan matching.
type AdherenceSettings struct {
	Ties         string   `toml:"ties" json:"ties"`
	PlannedTypes []string `toml:"planned_types" json:"planned_types,omitempty"`
	// Window is how many of the newest sessions to report. Zero keeps all.
	Window int `toml:"window" json:"window"`
}

// Timeline holds the race calendar and the phases the forecast is built from.
type Timeline struct {
	Races        []raceplan.Race     `toml:"races" json:"races,omitempty"`
	Phases       []raceplan.Phase    `toml:"phases" json:"phases,omitempty"`
	DefaultLoad  float64             `toml:"default_load" json:"default_load"`
	ForecastDays int                 `toml:"forecast_days" json:"forecast_days"`
	TargetForm   raceplan.FormWindow `toml:"target_form" json:"target_form"`
}

// Default returns a profile with a CP 240 zone table, the standard PMC
// windows and form bands, and an empty timeline.
func Default() *Profile {
	return &Profile{
		Name:     "athlete",
		FTPWatts: 250,
		CPWatts:  240,
		Timezone: "UTC",
		Zones:    defaultZones(),
		PMC: PMCSettings{
			FitnessDays: trainload.DefaultFitnessDays,
			FatigueDays: trainload.DefaultFatigueDays,
			Gaps:        trainload.GapSkip.String(),
		},
		Form: trainload.DefaultFormThresholds(),
		Adherence: AdherenceSettings{
			Ties:   trainload.TieLast.String(),
			Window: 14,
		},
		Timeline: Timeline{
			ForecastDays: 20,
			TargetForm:   raceplan.DefaultFormWindow(),
		},
	}
}

func defaultZones() []trainload.ZoneDef {
	return []trainload.ZoneDef{
		{ID: "z1", Name: "Active Recovery", MinWatts: 0, MaxWatts: 144, Color: "#4a9eff"},
		{ID: "z2", Name: "Endurance", MinWatts: 144, MaxWatts: 192, Color: "#00c896"},
		{ID: "z3", Name: "Tempo", MinWatts: 192, MaxWatts: 216, Color: "#f5c400"},
		{ID: "z4", Name: "Sweet Spot", MinWatts: 216, MaxWatts: 240, Color: "#ff7a00"},
		{ID: "z5", Name: "VO2max", MinWatts: 240, MaxWatts: 288, Color: "#ff3b3b"},
		{ID: "z6", Name: "Anaerobic", MinWatts: 288, MaxWatts: 999, Color: "#cc00ff"},
	}
}

// Load reads a TOML profile from path. Keys missing from the file keep the
// values from Default. A file without a zone table gets zones derived from
// its ftp, or the default table when ftp is not set either.
func Load(path string) (*Profile, error) {
	p := blank()
	md, err := toml.DecodeFile(path, p)
	if err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	return finish(p, md)
}

// Parse is Load for an in-memory document.
func Parse(data string) (*Profile, error) {
	p := blank()
	md, err := toml.Decode(data, p)
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return finish(p, md)
}

// blank is Default without zones, so a decoded zone table replaces the
// defaults instead of being merged into them element by element.
func blank() *Profile {
	p := Default()
	p.Zones = nil
	return p
}

func finish(p *Profile, md toml.MetaData) (*Profile, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidProfile, strings.Join(keys, ", "))
	}
	if len(p.Zones) == 0 {
		if md.IsDefined("ftp") && p.FTPWatts > 0 {
			p.Zones = ZonesFromFTP(p.FTPWatts)
		} else {
			p.Zones = defaultZones()
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports every problem with the profile at once.
func (p *Profile) Validate() error {
	var err error
	if p.FTPWatts < 0 {
		err = multierr.Append(err, fmt.Errorf("ftp must be non-negative, got %v", p.FTPWatts))
	}
	if _, locErr := p.Location(); locErr != nil {
		err = multierr.Append(err, locErr)
	}
	err = multierr.Append(err, validateZones(p.Zones))
	if p.PMC.FitnessDays <= 0 || p.PMC.FatigueDays <= 0 {
		err = multierr.Append(err, fmt.Errorf("pmc windows must be positive, got %v/%v", p.PMC.FitnessDays, p.PMC.FatigueDays))
	}
	if _, gapErr := trainload.ParseGapPolicy(p.PMC.Gaps); gapErr != nil {
		err = multierr.Append(err, gapErr)
	}
	if _, tieErr := trainload.ParseTiePolicy(p.Adherence.Ties); tieErr != nil {
		err = multierr.Append(err, tieErr)
	}
	if p.Adherence.Window < 0 {
		err = multierr.Append(err, fmt.Errorf("adherence window must be non-negative, got %d", p.Adherence.Window))
	}
	f := p.Form
	if !(f.VeryFresh > f.Fresh && f.Fresh > f.Optimal && f.Optimal > f.Tired && f.Tired > f.VeryTired) {
		err = multierr.Append(err, fmt.Errorf("form thresholds must be strictly descending, got %+v", f))
	}
	err = multierr.Append(err, p.Policy().Validate())
	for i, r := range p.Timeline.Races {
		if !r.Date.IsValid() {
			err = multierr.Append(err, fmt.Errorf("race %d (%q): date is required", i, r.Name))
		}
	}
	if p.Timeline.ForecastDays < 0 {
		err = multierr.Append(err, fmt.Errorf("forecast_days must be non-negative, got %d", p.Timeline.ForecastDays))
	}
	if w := p.Timeline.TargetForm; w.Min > w.Max {
		err = multierr.Append(err, fmt.Errorf("target form window %v..%v is empty", w.Min, w.Max))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return nil
}

func validateZones(zones []trainload.ZoneDef) error {
	var err error
	seen := make(map[string]bool, len(zones))
	for i, z := range zones {
		if z.ID == "" {
			err = multierr.Append(err, fmt.Errorf("zone %d: id is required", i))
			continue
		}
		if seen[z.ID] {
			err = multierr.Append(err, fmt.Errorf("zone %q: duplicate id", z.ID))
		}
		seen[z.ID] = true
		if z.MinWatts < 0 || z.MaxWatts <= z.MinWatts {
			err = multierr.Append(err, fmt.Errorf("zone %q: invalid range %v..%v", z.ID, z.MinWatts, z.MaxWatts))
		}
	}
	sorted := append([]trainload.ZoneDef(nil), zones...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinWatts < sorted[j].MinWatts })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].MinWatts < sorted[i-1].MaxWatts {
			err = multierr.Append(err, fmt.Errorf("zones %q and %q overlap", sorted[i-1].ID, sorted[i].ID))
		}
	}
	return err
}

// Location resolves the profile timezone. An empty name means UTC.
func (p *Profile) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// EngineConfig returns the PMC engine settings.
func (p *Profile) EngineConfig() (trainload.Config, error) {
	gaps, err := trainload.ParseGapPolicy(p.PMC.Gaps)
	if err != nil {
		return trainload.Config{}, err
	}
	return trainload.Config{
		FitnessDays: p.PMC.FitnessDays,
		FatigueDays: p.PMC.FatigueDays,
		Gaps:        gaps,
	}, nil
}

// Classifier returns a form classifier using the profile bands.
func (p *Profile) Classifier() trainload.Classifier {
	return trainload.NewClassifier(p.Form)
}

// AdherenceOptions returns the plan matching options.
func (p *Profile) AdherenceOptions() (trainload.AdherenceOptions, error) {
	ties, err := trainload.ParseTiePolicy(p.Adherence.Ties)
	if err != nil {
		return trainload.AdherenceOptions{}, err
	}
	return trainload.AdherenceOptions{Ties: ties, PlannedTypes: p.Adherence.PlannedTypes}, nil
}

// Policy returns the forecast policy built from the timeline.
func (p *Profile) Policy() raceplan.Policy {
	return raceplan.Policy{Phases: p.Timeline.Phases, DefaultLoad: p.Timeline.DefaultLoad}
}
