package pipeline

import (
	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"

	"github.com/lucasjlepore/trainload"
	"github.com/lucasjlepore/trainload/athlete"
	"github.com/lucasjlepore/trainload/memo"
	"github.com/lucasjlepore/trainload/raceplan"
)

// Options configures a report run against files on disk. At least one of
// ActivitiesPath and FitDir is required.
type Options struct {
	// ActivitiesPath is a JSON array of completed activities.
	ActivitiesPath string
	// FitDir is scanned for .fit files, each becoming one activity.
	FitDir string
	// EventsPath is a JSON array of planned calendar events.
	EventsPath string
	// WellnessPath is a JSON array of daily wellness rows.
	WellnessPath string
	// ProfilePath is the athlete TOML profile. Defaults apply when empty.
	ProfilePath string

	OutDir    string
	Format    string // parquet|csv
	Overwrite bool

	Today           civil.Date
	AdherenceWindow int
	ForecastDays    int

	Logger logrus.FieldLogger
}

// BytesOptions is Options for in-memory inputs, as the browser build has.
type BytesOptions struct {
	Activities []byte
	// FitFiles maps a file name to its FIT bytes.
	FitFiles map[string][]byte
	Events   []byte
	Wellness []byte
	// Profile defaults to athlete.Default when nil.
	Profile *athlete.Profile

	Format string

	// Today anchors the latest snapshot, the forecast and adherence. The
	// zero value means the current date in the profile timezone.
	Today civil.Date
	// AdherenceWindow is how many of the newest planned sessions to report.
	// Zero uses the profile value; negative keeps all.
	AdherenceWindow int
	// ForecastDays is the projection horizon after Today. Zero uses the
	// profile value.
	ForecastDays int

	// Cache, when set, serves the historical series. It must wrap an engine
	// built from the same profile.
	Cache  *memo.SeriesCache
	Logger logrus.FieldLogger
}

// Result lists the artifacts Run wrote.
type Result struct {
	OutputDir string            `json:"output_dir"`
	Paths     map[string]string `json:"paths"`
	Warnings  []string          `json:"warnings,omitempty"`
	Report    *Report           `json:"-"`
}

// BytesResult holds the artifacts RunBytes produced, keyed by file name.
type BytesResult struct {
	Files    map[string][]byte
	Warnings []string
	Report   *Report
}

// Report is everything the analytics core produced for one run.
type Report struct {
	Today       civil.Date                 `json:"today"`
	Latest      *trainload.PMCPoint        `json:"latest,omitempty"`
	Status      *trainload.FormStatus      `json:"status,omitempty"`
	Series      []trainload.PMCPoint       `json:"series"`
	Projection  []trainload.PMCPoint       `json:"projection"`
	Weeks       []trainload.WeekBucket     `json:"-"`
	Zones       ZonesFile                  `json:"-"`
	Adherence   AdherenceFile              `json:"-"`
	Wellness    []trainload.WellnessSample `json:"-"`
	Readiness   []raceplan.Readiness       `json:"-"`
	Thresholds  trainload.FormThresholds   `json:"thresholds"`
	RecordCount int                        `json:"record_count"`
	Skipped     int                        `json:"skipped_records"`
}

// ZonesFile is the zones.json artifact.
type ZonesFile struct {
	HasData bool                   `json:"has_data"`
	Buckets []trainload.ZoneBucket `json:"buckets"`
}

// AdherenceFile is the adherence.json artifact.
type AdherenceFile struct {
	Summary  trainload.AdherenceSummary  `json:"summary"`
	Sessions []trainload.AdherenceRecord `json:"sessions"`
}
