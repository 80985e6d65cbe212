// Package pipeline runs the analytics core over a training-log export and
// writes the report artifacts: the PMC series and projection, weekly volume,
// zone distribution, plan adherence, wellness, race readiness and a
// Markdown summary.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/lucasjlepore/trainload"
	"github.com/lucasjlepore/trainload/athlete"
	"github.com/lucasjlepore/trainload/fitsource"
	"github.com/lucasjlepore/trainload/raceplan"
)

// Artifact names.
const (
	PMCJSONName   = "pmc.json"
	WeeklyName    = "weekly.json"
	ZonesName     = "zones.json"
	AdherenceName = "adherence.json"
	WellnessName  = "wellness.json"
	ReadinessName = "readiness.json"
	SummaryName   = "summary.md"
)

// Formats of the tabular PMC artifact.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// PMCTableName returns the file name of the tabular series for format.
func PMCTableName(format string) string {
	return "pmc." + format
}

// Run reads the inputs named in opts, builds the report and writes every
// artifact into opts.OutDir.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if strings.TrimSpace(opts.ActivitiesPath) == "" && strings.TrimSpace(opts.FitDir) == "" {
		return nil, fmt.Errorf("activities path or FIT directory is required")
	}
	log := loggerOrDefault(opts.Logger)

	profile := athlete.Default()
	if opts.ProfilePath != "" {
		p, err := athlete.Load(opts.ProfilePath)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	bopts := BytesOptions{
		Profile:         profile,
		Format:          opts.Format,
		Today:           opts.Today,
		AdherenceWindow: opts.AdherenceWindow,
		ForecastDays:    opts.ForecastDays,
		Logger:          log,
	}
	var err error
	if bopts.Activities, err = readOptional(opts.ActivitiesPath); err != nil {
		return nil, fmt.Errorf("read activities: %w", err)
	}
	if bopts.Events, err = readOptional(opts.EventsPath); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	if bopts.Wellness, err = readOptional(opts.WellnessPath); err != nil {
		return nil, fmt.Errorf("read wellness: %w", err)
	}

	var fitRecords []trainload.Record
	var fitWarnings []string
	if opts.FitDir != "" {
		loc, err := profile.Location()
		if err != nil {
			return nil, err
		}
		res, err := fitsource.LoadDir(context.Background(), opts.FitDir, fitConfig(profile, loc), log)
		if err != nil {
			return nil, err
		}
		fitRecords = res.Records()
		for _, e := range multierr.Errors(res.Skipped) {
			fitWarnings = append(fitWarnings, "skipped FIT file "+e.Error())
		}
	}

	out, err := build(bopts, fitRecords, fitWarnings)
	if err != nil {
		return nil, err
	}

	if err := prepareOutDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}
	paths := make(map[string]string, len(out.Files))
	for _, name := range sortedNames(out.Files) {
		path := filepath.Join(opts.OutDir, name)
		if err := os.WriteFile(path, out.Files[name], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		paths[name] = path
	}
	log.WithFields(logrus.Fields{"dir": opts.OutDir, "artifacts": len(paths)}).Info("report written")

	return &Result{
		OutputDir: opts.OutDir,
		Paths:     paths,
		Warnings:  out.Warnings,
		Report:    out.Report,
	}, nil
}

// RunBytes builds the report from in-memory inputs without touching disk.
func RunBytes(opts BytesOptions) (*BytesResult, error) {
	if len(opts.Activities) == 0 && len(opts.FitFiles) == 0 {
		return nil, fmt.Errorf("activities or FIT files are required")
	}
	profile := opts.Profile
	if profile == nil {
		profile = athlete.Default()
		opts.Profile = profile
	}
	loc, err := profile.Location()
	if err != nil {
		return nil, err
	}

	var fitRecords []trainload.Record
	var warnings []string
	cfg := fitConfig(profile, loc)
	for _, name := range sortedNames(opts.FitFiles) {
		a, err := fitsource.AnalyzeBytes(opts.FitFiles[name], name, cfg)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped FIT file %s: %v", name, err))
			continue
		}
		fitRecords = append(fitRecords, a.Record)
	}

	return build(opts, fitRecords, warnings)
}

// build runs the core over the decoded inputs plus extra records from FIT
// files. warnings seeds the warning list of the result.
func build(opts BytesOptions, extra []trainload.Record, warnings []string) (*BytesResult, error) {
	log := loggerOrDefault(opts.Logger)
	profile := opts.Profile
	if profile == nil {
		profile = athlete.Default()
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = FormatParquet
	}
	if format != FormatParquet && format != FormatCSV {
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}

	cfg, err := profile.EngineConfig()
	if err != nil {
		return nil, err
	}
	adherenceOpts, err := profile.AdherenceOptions()
	if err != nil {
		return nil, err
	}
	loc, err := profile.Location()
	if err != nil {
		return nil, err
	}

	activities, err := decodeRecords(opts.Activities, "activities")
	if err != nil {
		return nil, err
	}
	activities = append(activities, extra...)
	events, err := decodeRecords(opts.Events, "events")
	if err != nil {
		return nil, err
	}
	var wellnessRows []trainload.WellnessRecord
	if len(opts.Wellness) > 0 {
		if err := json.Unmarshal(opts.Wellness, &wellnessRows); err != nil {
			return nil, fmt.Errorf("decode wellness: %w", err)
		}
	}

	today := opts.Today
	if !today.IsValid() {
		today = civil.DateOf(time.Now().In(loc))
	}

	skipped := countUndated(activities)
	if skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d activities without a usable start_date_local were ignored", skipped))
	}

	// Historical series.
	samples := trainload.NormalizeDaily(activities)
	engine := trainload.NewEngine(cfg)
	var series []trainload.PMCPoint
	if opts.Cache != nil {
		series = opts.Cache.Series(samples)
	} else {
		series = engine.ComputeSeries(samples)
	}
	if kept := throughDay(series, today); len(kept) < len(series) {
		warnings = append(warnings, fmt.Sprintf("%d load days after %s were left out of the series", len(series)-len(kept), today))
		series = kept
	}
	classifier := profile.Classifier()

	report := &Report{
		Today:       today,
		Series:      series,
		Thresholds:  classifier.Thresholds(),
		RecordCount: len(activities),
		Skipped:     skipped,
	}
	if latest, ok := trainload.LatestOnOrBefore(series, today); ok {
		status := classifier.Classify(latest.Form)
		report.Latest = &latest
		report.Status = &status
	}

	// Projection.
	forecastDays := opts.ForecastDays
	if forecastDays == 0 {
		forecastDays = profile.Timeline.ForecastDays
	}
	horizon := today.AddDays(forecastDays)
	for _, race := range profile.Timeline.Races {
		if race.Date.After(horizon) {
			horizon = race.Date
		}
	}
	if report.Latest != nil && forecastDays > 0 {
		plannedLoads := trainload.NormalizeDaily(futureEvents(events, today))
		forecast := raceplan.Overlay(profile.Policy().Until(today, horizon), plannedLoads)
		report.Projection = engine.Project(*report.Latest, forecast)
	}

	// Readiness.
	full := append(append([]trainload.PMCPoint(nil), series...), report.Projection...)
	for _, race := range profile.Timeline.Races {
		if race.Date.Before(today) {
			continue
		}
		report.Readiness = append(report.Readiness, raceplan.Assess(race, today, full, profile.Timeline.TargetForm, classifier))
	}

	// Volume and intensity.
	report.Weeks = trainload.AggregateWeeks(activities)
	buckets, hasData := trainload.DistributeZones(activities, profile.Zones)
	if !hasData {
		buckets = emptyZoneBuckets(profile.Zones)
	}
	report.Zones = ZonesFile{HasData: hasData, Buckets: buckets}

	// Adherence over planned sessions up to today.
	window := opts.AdherenceWindow
	if window == 0 {
		window = profile.Adherence.Window
	}
	matched := trainload.MatchAdherence(pastEvents(events, today), activities, adherenceOpts)
	matched = trainload.LimitAdherence(trainload.SortAdherence(matched, true), window)
	report.Adherence = AdherenceFile{
		Summary:  trainload.SummarizeAdherence(matched),
		Sessions: matched,
	}

	report.Wellness = trainload.NormalizeWellness(wellnessRows)

	files, err := renderArtifacts(report, format, len(wellnessRows) > 0, warnings)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"activities": len(activities),
		"events":     len(events),
		"days":       len(series),
		"projected":  len(report.Projection),
		"today":      today.String(),
	}).Info("report built")

	return &BytesResult{Files: files, Warnings: warnings, Report: report}, nil
}

func renderArtifacts(r *Report, format string, withWellness bool, warnings []string) (map[string][]byte, error) {
	files := make(map[string][]byte, 8)
	add := func(name string, v any) error {
		data, err := marshalJSON(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		files[name] = data
		return nil
	}

	pmc := *r
	pmc.Series = nonNil(pmc.Series)
	pmc.Projection = nonNil(pmc.Projection)
	if err := add(PMCJSONName, pmc); err != nil {
		return nil, err
	}
	if err := add(WeeklyName, nonNil(r.Weeks)); err != nil {
		return nil, err
	}
	if err := add(ZonesName, r.Zones); err != nil {
		return nil, err
	}
	adherence := r.Adherence
	adherence.Sessions = nonNil(adherence.Sessions)
	if err := add(AdherenceName, adherence); err != nil {
		return nil, err
	}
	if withWellness {
		if err := add(WellnessName, nonNil(r.Wellness)); err != nil {
			return nil, err
		}
	}
	if len(r.Readiness) > 0 {
		if err := add(ReadinessName, r.Readiness); err != nil {
			return nil, err
		}
	}

	rows := pmcRows(r)
	var (
		table []byte
		err   error
	)
	switch format {
	case FormatCSV:
		table, err = marshalPMCCSV(rows)
	case FormatParquet:
		table, err = marshalPMCParquet(rows)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", PMCTableName(format), err)
	}
	files[PMCTableName(format)] = table

	files[SummaryName] = []byte(BuildSummary(r, warnings))
	return files, nil
}

// throughDay returns the prefix of the date-ordered series dated on or before
// day. The projection starts after day, so later history would repeat dates.
func throughDay(series []trainload.PMCPoint, day civil.Date) []trainload.PMCPoint {
	n := sort.Search(len(series), func(i int) bool { return series[i].Date.After(day) })
	return series[:n]
}

// emptyZoneBuckets lists the profile zones with no time, so zones.json keeps
// the zone metadata when no activity carried a breakdown.
func emptyZoneBuckets(zones []trainload.ZoneDef) []trainload.ZoneBucket {
	out := make([]trainload.ZoneBucket, len(zones))
	for i, z := range zones {
		out[i] = trainload.ZoneBucket{
			ZoneID:   z.ID,
			Name:     z.Name,
			MinWatts: z.MinWatts,
			MaxWatts: z.MaxWatts,
			Color:    z.Color,
		}
	}
	return out
}

func decodeRecords(data []byte, what string) ([]trainload.Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var out []trainload.Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return out, nil
}

func countUndated(records []trainload.Record) int {
	n := 0
	for _, r := range records {
		if _, ok := trainload.ResolveDate(r); !ok {
			n++
		}
	}
	return n
}

func pastEvents(events []trainload.Record, today civil.Date) []trainload.Record {
	var out []trainload.Record
	for _, e := range events {
		if d, ok := trainload.ResolveDate(e); ok && !d.After(today) {
			out = append(out, e)
		}
	}
	return out
}

func futureEvents(events []trainload.Record, today civil.Date) []trainload.Record {
	var out []trainload.Record
	for _, e := range events {
		if d, ok := trainload.ResolveDate(e); ok && d.After(today) {
			out = append(out, e)
		}
	}
	return out
}

func fitConfig(p *athlete.Profile, loc *time.Location) fitsource.Config {
	return fitsource.Config{FTPWatts: p.FTPWatts, Zones: p.Zones, Location: loc}
}

func readOptional(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func prepareOutDir(dir string, overwrite bool) error {
	entries, err := os.ReadDir(dir)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(dir, 0o755)
	case err != nil:
		return fmt.Errorf("read output directory: %w", err)
	case len(entries) > 0 && !overwrite:
		return fmt.Errorf("output directory %s is not empty (use overwrite)", dir)
	}
	return nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func loggerOrDefault(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}
