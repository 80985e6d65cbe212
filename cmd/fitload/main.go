package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/lucasjlepore/trainload/athlete"
	"github.com/lucasjlepore/trainload/fitsource"
)

func main() {
	var (
		profilePath = flag.String("profile", "", "Athlete profile TOML supplying FTP, zones and timezone")
		ftp         = flag.Float64("ftp", 0, "FTP in watts (overrides the profile; if neither is set FTP is estimated from best 20-minute power)")
		jsonOut     = flag.Bool("json", false, "Emit the activity and its training record as JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-fit-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	profile := athlete.Default()
	profile.FTPWatts = 0
	if *profilePath != "" {
		p, err := athlete.Load(*profilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load profile: %v\n", err)
			os.Exit(1)
		}
		profile = p
	}
	loc, err := profile.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load profile: %v\n", err)
		os.Exit(1)
	}

	cfg := fitsource.Config{FTPWatts: profile.FTPWatts, Zones: profile.Zones, Location: loc}
	if *ftp > 0 {
		cfg.FTPWatts = *ftp
	}

	activity, err := fitsource.AnalyzeFile(flag.Arg(0), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(activity); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(activity.Notes())
}
