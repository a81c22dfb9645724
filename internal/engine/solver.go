package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/metrics"
)

// Solver applies a fixed, ordered rule catalogue to a Store until fixpoint.
// A Solver is immutable after construction and safe for concurrent Solve calls.
type Solver struct {
	rules     []Rule
	defaults  map[string]any
	maxSweeps int
	logger    *slog.Logger
}

// Option configures a Solver.
type Option func(*Solver)

// WithDefaults seeds the given quantities into every solve after the caller's
// knowns, so a caller-supplied value always takes precedence.
func WithDefaults(defaults map[string]any) Option {
	return func(s *Solver) {
		for k, v := range defaults {
			s.defaults[k] = v
		}
	}
}

// WithLogger sets the logger used for rule failures and solve summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

// WithMaxSweeps overrides the sweep bound. Values below 1 are ignored.
func WithMaxSweeps(n int) Option {
	return func(s *Solver) {
		if n >= 1 {
			s.maxSweeps = n
		}
	}
}

// NewSolver creates a Solver over a copy of rules.
//
// Every firing records all of a rule's outputs, so a rule fires at most once per
// solve. The default sweep bound of len(rules)+1 (every rule firing in its own
// sweep, plus the quiet sweep that detects the fixpoint) is therefore never hit.
func NewSolver(rules []Rule, opts ...Option) *Solver {
	s := &Solver{
		rules:     append([]Rule(nil), rules...),
		defaults:  make(map[string]any),
		maxSweeps: len(rules) + 1,
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns a copy of the solver's catalogue.
func (s *Solver) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Stats describes one solve.
type Stats struct {
	// Sweeps counts full sweeps, including the final sweep that fired nothing.
	Sweeps   int
	Firings  int
	Duration time.Duration
}

// Solve runs Run and discards the stats.
func (s *Solver) Solve(knowns map[string]any) *Store {
	st, _ := s.Run(knowns)
	return st
}

// Run seeds a new Store with knowns (derivation "provided") and the solver's
// defaults (derivation "default"), then sweeps the catalogue in order. Within a
// sweep a rule fires when all of its inputs are present and defined and at
// least one of its outputs is absent. Run stops after the first sweep that
// fires nothing.
//
// Run never fails: inputs that cannot be derived are simply absent, and rules
// that cannot produce a value record Undefined.
func (s *Solver) Run(knowns map[string]any) (*Store, Stats) {
	start := time.Now()
	st := NewStore()
	var stats Stats

	for _, name := range sortedKeys(knowns) {
		st.Set(name, knowns[name], Provided)
	}
	for _, name := range sortedKeys(s.defaults) {
		st.Set(name, s.defaults[name], Default)
	}

	for sweep := 1; sweep <= s.maxSweeps; sweep++ {
		stats.Sweeps = sweep
		fired := 0
		for _, r := range s.rules {
			if !r.Ready(st) || !r.Pending(st) {
				continue
			}
			s.fire(r, st, sweep)
			fired++
		}
		stats.Firings += fired
		if fired == 0 {
			break
		}
		if sweep == s.maxSweeps {
			s.logger.Warn("solve stopped at sweep bound", "component", "engine", "max_sweeps", s.maxSweeps)
		}
	}

	stats.Duration = time.Since(start)
	metrics.RecordSolve(stats.Duration, stats.Sweeps, stats.Firings)
	s.logger.Debug("solve complete",
		"component", "engine",
		"knowns", len(knowns),
		"quantities", st.Len(),
		"sweeps", stats.Sweeps,
		"firings", stats.Firings,
		"duration_us", stats.Duration.Microseconds(),
	)
	return st, stats
}

// fire evaluates r against st and records its outputs. A returned error or a
// panic records every output as Undefined.
func (s *Solver) fire(r Rule, st *Store, sweep int) {
	metrics.IncRuleFiring(r.Label)

	args := make([]any, len(r.Inputs))
	for i, name := range r.Inputs {
		args[i], _ = st.Get(name)
	}

	out, err := call(r, args)
	if err == nil && len(out) != len(r.Outputs) {
		err = fmt.Errorf("returned %d values for %d outputs", len(out), len(r.Outputs))
	}
	derivation := r.Derivation()
	if err != nil {
		s.logger.Warn("rule failed",
			"component", "engine",
			"rule", r.Label,
			"inputs", r.Inputs,
			"error", err,
		)
		for _, name := range r.Outputs {
			st.record(name, Undefined{Reason: err.Error()}, derivation, sweep)
		}
		return
	}

	for i, name := range r.Outputs {
		st.record(name, out[i], derivation, sweep)
	}
}

func call(r Rule, args []any) (out []any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rule %s panicked: %v", r.Label, p)
		}
	}()
	return r.Func(args)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
