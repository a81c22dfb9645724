package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/config"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/engine"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/orbit"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Derive everything possible from the given quantities",
	Example: "  launchcalc solve --r 7000,0,0 --v 0,7.5,0\n" +
		"  launchcalc solve --a 7000 --e 0.1 --format json\n" +
		"  launchcalc solve --input knowns.toml --format toml",
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().String("r", "", "position vector x,y,z in km")
	solveCmd.Flags().String("v", "", "velocity vector x,y,z in km/s")
	solveCmd.Flags().Float64("mu", orbit.EarthMu, "gravitational parameter in km^3/s^2")
	solveCmd.Flags().Float64("a", 0, "semi-major axis in km")
	solveCmd.Flags().Float64("e", 0, "eccentricity")
	solveCmd.Flags().String("input", "", "TOML file of known quantities by name")
	solveCmd.Flags().String("format", "text", "output format: text, json, toml")

	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" && format != "toml" {
		return fmt.Errorf("unknown format %q (want text, json or toml)", format)
	}

	knowns := make(map[string]any)
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		fromFile, err := readKnowns(path)
		if err != nil {
			return err
		}
		for k, v := range fromFile {
			knowns[k] = v
		}
	}
	if err := flagKnowns(cmd, knowns); err != nil {
		return err
	}
	if len(knowns) == 0 {
		return fmt.Errorf("nothing to solve: pass --r/--v, --a/--e or --input")
	}

	mu := viper.GetFloat64("mu")
	if mu == 0 {
		mu = orbit.EarthMu
	}
	if err := orbit.GravitationalParameter(mu); err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), logLevelOr("warn"))
	if err != nil {
		return err
	}
	solver := engine.NewSolver(orbit.Catalogue(),
		engine.WithDefaults(map[string]any{orbit.Mu: mu}),
		engine.WithLogger(logger),
	)
	return writeResult(cmd.OutOrStdout(), solver.Solve(knowns), format)
}

// flagKnowns adds the quantities given on the command line. Flags win over
// the --input file.
func flagKnowns(cmd *cobra.Command, knowns map[string]any) error {
	for flag, name := range map[string]string{"r": orbit.R, "v": orbit.V} {
		s, _ := cmd.Flags().GetString(flag)
		if s == "" {
			continue
		}
		vec, err := parseVector(s)
		if err != nil {
			return fmt.Errorf("--%s: %w", flag, err)
		}
		knowns[name] = vec
	}

	if cmd.Flags().Changed("mu") {
		mu, _ := cmd.Flags().GetFloat64("mu")
		if err := orbit.GravitationalParameter(mu); err != nil {
			return fmt.Errorf("--mu: %w", err)
		}
		knowns[orbit.Mu] = mu
	}
	if cmd.Flags().Changed("a") {
		a, _ := cmd.Flags().GetFloat64("a")
		knowns[orbit.SemiMajorAxis] = a
	}
	if cmd.Flags().Changed("e") {
		e, _ := cmd.Flags().GetFloat64("e")
		if e < 0 {
			return fmt.Errorf("--e must be non-negative, got %g", e)
		}
		knowns[orbit.Eccentricity] = e
	}
	return nil
}

// parseVector parses "x,y,z" into a finite 3-vector.
func parseVector(s string) (r3.Vec, error) {
	parts := strings.Split(s, ",")
	c := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("component %d: %w", i, err)
		}
		c[i] = f
	}
	return orbit.Vector(c)
}

// readKnowns decodes a flat TOML table of quantity names to numbers or
// three-element arrays.
func readKnowns(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	knowns := make(map[string]any, len(raw))
	for name, v := range raw {
		q, err := orbit.Quantity(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, name, err)
		}
		knowns[name] = q
	}
	return knowns, nil
}

// writeResult prints the solved store. TOML has no null, so undefined
// quantities are listed by name under "undefined" instead.
func writeResult(w io.Writer, st *engine.Store, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st.Export())
	case "toml":
		out := make(map[string]any)
		var undefined []string
		for name, v := range st.Export() {
			if v == nil {
				undefined = append(undefined, name)
				continue
			}
			out[name] = v
		}
		if len(undefined) > 0 {
			sort.Strings(undefined)
			out["undefined"] = undefined
		}
		return toml.NewEncoder(w).Encode(out)
	default:
		_, err := fmt.Fprintln(w, st.Explain())
		return err
	}
}

func logLevelOr(def string) string {
	if lvl := viper.GetString("log_level"); lvl != "" {
		if _, err := config.ParseLevel(lvl); err == nil {
			return lvl
		}
	}
	return def
}
