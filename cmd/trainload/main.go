package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/lucasjlepore/trainload/internal/logging"
	"github.com/lucasjlepore/trainload/pipeline"
)

func main() {
	var (
		activities      = flag.String("activities", "", "Path to a JSON array of completed activities")
		fitDir          = flag.String("fit-dir", "", "Directory of .fit files to add as activities")
		events          = flag.String("events", "", "Path to a JSON array of planned calendar events")
		wellness        = flag.String("wellness", "", "Path to a JSON array of daily wellness rows")
		profile         = flag.String("profile", "", "Athlete profile TOML (defaults apply when omitted)")
		outDir          = flag.String("out", "", "Output directory")
		format          = flag.String("format", pipeline.FormatParquet, "PMC table format: parquet|csv")
		today           = flag.String("today", "", "Report date YYYY-MM-DD (default: today in the profile timezone)")
		adherenceWindow = flag.Int("adherence-window", 0, "Newest planned sessions to report (0: profile value, -1: all)")
		forecastDays    = flag.Int("forecast-days", 0, "Projection horizon in days (0: profile value)")
		overwrite       = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
		logLevel        = flag.String("log-level", "info", "Log level: trace|debug|info|warn|error")
		logJSON         = flag.Bool("log-json", false, "Write logs as JSON")
		logFile         = flag.String("log-file", "", "Write rotated logs to this file instead of stderr")
		logConsole      = flag.Bool("log-console", false, "With --log-file, keep writing logs to stderr too")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --activities activities.json [--fit-dir rides/] --out outdir [--events events.json] [--profile athlete.toml] [--format parquet|csv]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if (strings.TrimSpace(*activities) == "" && strings.TrimSpace(*fitDir) == "") || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	var day civil.Date
	if *today != "" {
		d, err := civil.ParseDate(*today)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --today %q: %v\n", *today, err)
			os.Exit(2)
		}
		day = d
	}

	log := logging.Setup(logging.SetupParams{
		LogFileName:   *logFile,
		LogToConsole:  *logConsole,
		LogLevel:      *logLevel,
		LogFormatJSON: *logJSON,
	})

	result, err := pipeline.Run(pipeline.Options{
		ActivitiesPath:  *activities,
		FitDir:          *fitDir,
		EventsPath:      *events,
		WellnessPath:    *wellness,
		ProfilePath:     *profile,
		OutDir:          *outDir,
		Format:          *format,
		Overwrite:       *overwrite,
		Today:           day,
		AdherenceWindow: *adherenceWindow,
		ForecastDays:    *forecastDays,
		Logger:          log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "trainload failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("trainload complete\n")
	fmt.Printf("Output dir:  %s\n", result.OutputDir)
	for _, name := range sortedKeys(result.Paths) {
		fmt.Printf("%-12s %s\n", name+":", result.Paths[name])
	}
	if r := result.Report; r != nil && r.Latest != nil && r.Status != nil {
		fmt.Printf("Form %s:  %+.1f (%s)\n", r.Latest.Date, r.Latest.Form, r.Status.Label)
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning:     %s\n", w)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
