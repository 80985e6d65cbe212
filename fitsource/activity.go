// Package fitsource turns FIT activity files into trainload records: the
// local start date, a TSS load from normalized power, moving and elapsed
// time, and seconds spent in each of the athlete's power zones.
package fitsource

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/trainload"
)

const (
	secondsPerHour = 3600.0
	localLayout    = "2006-01-02T15:04:05"
)

// FTP sources reported on Activity.
const (
	FTPFromInput   = "input"
	FTPEstimated   = "estimated"
	FTPUnavailable = "unavailable"
)

const (
	defaultActivity  = "Activity"
	defaultRideName  = "Ride"
	defaultOtherType = "Workout"
)

// Config carries the athlete inputs the conversion needs.
type Config struct {
	// FTPWatts scales normalized power into TSS. When zero, FTP is
	// estimated from the best 20 minutes of the file.
	FTPWatts float64
	// Zones are the watt bands zone seconds are counted against.
	Zones []trainload.ZoneDef
	// Location turns the UTC start time into the local calendar date.
	// Nil means UTC.
	Location *time.Location
}

// Activity is the decoded summary of one FIT file.
type Activity struct {
	FilePath        string    `json:"file_path"`
	Sport           string    `json:"sport"`
	SubSport        string    `json:"sub_sport"`
	StartTime       time.Time `json:"start_time"`
	ElapsedSeconds  float64   `json:"elapsed_seconds"`
	MovingSeconds   float64   `json:"moving_seconds"`
	AvgPowerWatts   float64   `json:"avg_power_watts"`
	NormalizedPower float64   `json:"normalized_power_watts"`
	AvgHeartRate    float64   `json:"avg_heart_rate_bpm"`
	Best20MinPower  float64   `json:"best_20min_power_watts"`
	FTPWatts        float64   `json:"ftp_watts"`
	FTPSource       string    `json:"ftp_source"`
	IntensityFactor float64   `json:"intensity_factor"`
	TrainingStress  float64   `json:"training_stress_score"`

	// Record is the activity in the form the analytics core consumes.
	Record trainload.Record `json:"record"`
}

// AnalyzeFile decodes the FIT file at path.
func AnalyzeFile(path string, cfg Config) (*Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()

	return Analyze(f, path, cfg)
}

// AnalyzeBytes decodes an in-memory FIT file. name labels the activity.
func AnalyzeBytes(data []byte, name string, cfg Config) (*Activity, error) {
	return Analyze(bytes.NewReader(data), name, cfg)
}

// Analyze decodes a FIT activity from r. Files without a session message
// are accepted; their totals come from the record stream.
func Analyze(r io.Reader, name string, cfg Config) (*Activity, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	stream := buildSampleStream(activity.Records)
	var session *fit.SessionMsg
	if len(activity.Sessions) > 0 {
		session = activity.Sessions[0]
	}
	if session == nil && len(stream.power) == 0 && stream.start.IsZero() {
		return nil, fmt.Errorf("activity file has no session and no records")
	}

	a := &Activity{FilePath: name, StartTime: stream.start}
	if session != nil {
		a.Sport = fmt.Sprint(session.Sport)
		a.SubSport = fmt.Sprint(session.SubSport)
		if start := validTimeOrZero(session.StartTime); !start.IsZero() {
			a.StartTime = start
		}
		a.ElapsedSeconds = safePositive(session.GetTotalElapsedTimeScaled())
		if a.ElapsedSeconds == 0 {
			a.ElapsedSeconds = safePositive(session.GetTotalTimerTimeScaled())
		}
		a.MovingSeconds = safePositive(session.GetTotalMovingTimeScaled())
		if a.MovingSeconds == 0 {
			a.MovingSeconds = safePositive(session.GetTotalTimerTimeScaled())
		}
		a.AvgPowerWatts = float64(validUint16(session.AvgPower))
		a.NormalizedPower = float64(validUint16(session.NormalizedPower))
		a.AvgHeartRate = float64(validUint8(session.AvgHeartRate))
	}
	if a.ElapsedSeconds == 0 {
		a.ElapsedSeconds = stream.durationSec
	}
	if a.MovingSeconds == 0 {
		a.MovingSeconds = a.ElapsedSeconds
	}
	if a.AvgPowerWatts == 0 {
		a.AvgPowerWatts = average(stream.power)
	}
	if a.NormalizedPower == 0 {
		a.NormalizedPower = normalizedPower(stream.power)
	}
	if a.AvgHeartRate == 0 {
		a.AvgHeartRate = average(stream.hr)
	}

	a.Best20MinPower = bestRollingPower(stream.power, 20*60)
	a.FTPWatts = safePositive(cfg.FTPWatts)
	switch {
	case a.FTPWatts > 0:
		a.FTPSource = FTPFromInput
	case estimateFTP(stream.power) > 0:
		a.FTPWatts = estimateFTP(stream.power)
		a.FTPSource = FTPEstimated
	default:
		a.FTPSource = FTPUnavailable
	}
	if a.FTPWatts > 0 && a.NormalizedPower > 0 {
		a.IntensityFactor = a.NormalizedPower / a.FTPWatts
	}
	if a.MovingSeconds > 0 && a.IntensityFactor > 0 {
		a.TrainingStress = (a.MovingSeconds / secondsPerHour) * a.IntensityFactor * a.IntensityFactor * 100.0
	}

	a.Record = a.toRecord(session, stream, cfg)
	return a, nil
}

func (a *Activity) toRecord(session *fit.SessionMsg, stream sampleStream, cfg Config) trainload.Record {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	rec := trainload.Record{
		Name:      activityName(a.FilePath),
		Type:      activityType(session),
		ZoneTimes: zoneSeconds(stream.power, cfg.Zones),
	}
	if !a.StartTime.IsZero() {
		rec.StartDateLocal = a.StartTime.In(loc).Format(localLayout)
	}
	if a.TrainingStress > 0 {
		rec.TSS = trainload.Float(a.TrainingStress)
	}
	if a.MovingSeconds > 0 {
		rec.MovingTime = trainload.Float(a.MovingSeconds)
	}
	if a.ElapsedSeconds > 0 {
		rec.ElapsedTime = trainload.Float(a.ElapsedSeconds)
	}
	return rec
}

func activityName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return defaultActivity
	}
	return name
}

// activityType maps the FIT sport onto the training-log type names used by
// planned events.
func activityType(session *fit.SessionMsg) string {
	if session == nil {
		return defaultRideName
	}
	switch session.Sport {
	case fit.SportCycling:
		switch session.SubSport {
		case fit.SubSportVirtualActivity, fit.SubSportIndoorCycling:
			return "VirtualRide"
		case fit.SubSportMountain:
			return "MountainBikeRide"
		}
		return defaultRideName
	case fit.SportRunning:
		return "Run"
	}
	return defaultOtherType
}
