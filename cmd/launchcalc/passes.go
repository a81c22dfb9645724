package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/tle"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/visibility"
)

var passesCmd = &cobra.Command{
	Use:     "passes",
	Short:   "Predict passes of one satellite over an observer",
	Example: "  launchcalc passes --norad 25544 --lat 39.7392 --lon -104.9903 --alt 1609 --hours 72",
	RunE:    runPasses,
}

func init() {
	passesCmd.Flags().Int("norad", 0, "NORAD catalogue number (required)")
	passesCmd.Flags().Float64("lat", 0, "observer geodetic latitude in degrees")
	passesCmd.Flags().Float64("lon", 0, "observer longitude in degrees")
	passesCmd.Flags().Float64("alt", 0, "observer altitude in metres")
	passesCmd.Flags().Float64("hours", 24, "prediction window in hours")
	passesCmd.Flags().Float64("min-elevation", 10, "elevation mask in degrees")
	passesCmd.Flags().Int("max-passes", 10, "stop after this many passes")
	passesCmd.Flags().String("start", "", "window start, RFC 3339 (default now)")
	passesCmd.Flags().String("tle-file", "", "TLE file (default tle.file)")
	_ = passesCmd.MarkFlagRequired("norad")

	rootCmd.AddCommand(passesCmd)
}

func runPasses(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	norad, _ := flags.GetInt("norad")
	lat, _ := flags.GetFloat64("lat")
	lon, _ := flags.GetFloat64("lon")
	alt, _ := flags.GetFloat64("alt")
	hours, _ := flags.GetFloat64("hours")
	minEl, _ := flags.GetFloat64("min-elevation")
	maxPasses, _ := flags.GetInt("max-passes")

	if hours <= 0 {
		return fmt.Errorf("--hours must be positive, got %g", hours)
	}
	start := time.Now().UTC()
	if s, _ := flags.GetString("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		start = t.UTC()
	}
	obs, err := visibility.NewObserver(lat, lon, alt)
	if err != nil {
		return err
	}

	path, _ := flags.GetString("tle-file")
	if path == "" {
		path = viper.GetString("tle.file")
	}
	if path == "" {
		return fmt.Errorf("no TLE file: pass --tle-file or set tle.file")
	}

	logger, err := newLogger(cmd.ErrOrStderr(), logLevelOr("warn"))
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	entries, err := tle.Parse(f, logger)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	entry, ok := tle.NewDataset(path, time.Now(), entries).Lookup(norad)
	if !ok {
		return fmt.Errorf("satellite %d not found in %s", norad, path)
	}

	passes, err := visibility.NewFinder(1, logger).Passes(cmd.Context(), entry, obs, visibility.PassQuery{
		Start:        start,
		Window:       time.Duration(hours * float64(time.Hour)),
		MinElevation: minEl,
		MaxPasses:    maxPasses,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (NORAD %d) epoch %s\n", entry.Name, entry.NORADID, entry.Epoch.Format(time.RFC3339))
	for i, p := range passes {
		fmt.Fprintf(out, "pass %d: rise=%s az=%.0f max=%.1f° at %s set=%s az=%.0f dur=%.0fs\n",
			i+1,
			p.Rise.Format(time.RFC3339), p.RiseAzimuth,
			p.MaxElevation, p.Culmination.Format(time.RFC3339),
			p.Set.Format(time.RFC3339), p.SetAzimuth,
			p.DurationSeconds,
		)
	}
	fmt.Fprintf(out, "%d passes in %.0f h\n", len(passes), hours)
	return nil
}
