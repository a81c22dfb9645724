package engine

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// add returns a rule producing out = sum(inputs).
func add(out string, inputs ...string) Rule {
	return NewRule("add", inputs, []string{out}, func(in []any) ([]any, error) {
		var sum float64
		for _, v := range in {
			sum += v.(float64)
		}
		return []any{sum}, nil
	})
}

// chain is a -> b -> c -> d, listed back to front.
func chain() []Rule {
	return []Rule{
		add("d", "c"),
		add("c", "b"),
		add("b", "a"),
	}
}

func TestStoreSetIsWriteOnce(t *testing.T) {
	s := NewStore()
	if !s.Set("x", 1.0, Provided) {
		t.Fatal("first Set should record")
	}
	if s.Set("x", 2.0, "other") {
		t.Error("second Set should be a no-op")
	}

	got, ok := s.Get("x")
	if !ok || got != 1.0 {
		t.Errorf("Get(x) = %v, %v; want 1, true", got, ok)
	}
	if d := s.Derivation("x"); d != Provided {
		t.Errorf("Derivation(x) = %q, want %q", d, Provided)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestStoreGetAbsent(t *testing.T) {
	s := NewStore()
	if s.Has("missing") {
		t.Error("Has(missing) = true")
	}
	if v, ok := s.Get("missing"); ok || v != nil {
		t.Errorf("Get(missing) = %v, %v; want nil, false", v, ok)
	}
	if d := s.Derivation("missing"); d != "" {
		t.Errorf("Derivation(missing) = %q, want empty", d)
	}
}

func TestStoreExport(t *testing.T) {
	s := NewStore()
	s.Set("vec", r3.Vec{X: 1, Y: 2, Z: 3}, Provided)
	s.Set("arr", [3]float64{4, 5, 6}, Provided)
	s.Set("scalar", 7.5, Provided)
	s.Set("int", 3, Provided)
	s.Set("label", "elliptical", Provided)
	s.Set("undef", Undefined{Reason: "open orbit"}, "apsides")
	s.Set("nan", math.NaN(), "bad")
	s.Set("inf", math.Inf(1), "bad")

	want := map[string]any{
		"vec":    []float64{1, 2, 3},
		"arr":    []float64{4, 5, 6},
		"scalar": 7.5,
		"int":    3.0,
		"label":  "elliptical",
		"undef":  nil,
		"nan":    nil,
		"inf":    nil,
	}
	if diff := cmp.Diff(want, s.Export()); diff != "" {
		t.Errorf("Export mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreExplain(t *testing.T) {
	s := NewStore()
	s.Set("r", r3.Vec{X: 7000}, Provided)
	s.Set("r_mag", 7000.0, "norm from r")
	s.Set("apoapsis", Undefined{Reason: "orbit is not bound"}, "apsides from a, e")

	want := strings.Join([]string{
		"r: [7000, 0, 0] (provided)",
		"r_mag: 7000 (norm from r)",
		"apoapsis: undefined (orbit is not bound) (apsides from a, e)",
	}, "\n")
	if got := s.Explain(); got != want {
		t.Errorf("Explain =\n%s\nwant\n%s", got, want)
	}
}

func TestRuleDerivation(t *testing.T) {
	r := NewRule("vis_viva_energy", []string{"v_mag", "r_mag", "mu"}, []string{"specific_energy"}, nil)
	if got, want := r.Derivation(), "vis_viva_energy from v_mag, r_mag, mu"; got != want {
		t.Errorf("Derivation = %q, want %q", got, want)
	}
}

func TestNewRuleCopiesNames(t *testing.T) {
	inputs := []string{"a"}
	r := NewRule("add", inputs, []string{"b"}, nil)
	inputs[0] = "changed"
	if r.Inputs[0] != "a" {
		t.Errorf("rule inputs aliased caller slice: %v", r.Inputs)
	}
}

func TestSolveChain(t *testing.T) {
	s := NewSolver(chain(), WithLogger(testLogger()))
	st, stats := s.Run(map[string]any{"a": 1.0})

	for _, name := range []string{"a", "b", "c", "d"} {
		v, ok := st.Get(name)
		if !ok || v != 1.0 {
			t.Errorf("%s = %v, %v; want 1, true", name, v, ok)
		}
	}
	if d := st.Derivation("d"); d != "add from c" {
		t.Errorf("Derivation(d) = %q", d)
	}
	// Back-to-front catalogue: one productive sweep per link plus the quiet sweep.
	if stats.Sweeps != 4 {
		t.Errorf("Sweeps = %d, want 4", stats.Sweeps)
	}
	if stats.Firings != 3 {
		t.Errorf("Firings = %d, want 3", stats.Firings)
	}
}

func TestSolveMonotonic(t *testing.T) {
	s := NewSolver(chain(), WithLogger(testLogger()))
	st := s.Solve(map[string]any{"a": 1.0})

	prev := -1
	for _, name := range st.Names() {
		sweep, ok := st.SweepOf(name)
		if !ok {
			t.Fatalf("SweepOf(%s) missing", name)
		}
		if sweep < prev {
			t.Errorf("%s recorded in sweep %d after a quantity from sweep %d", name, sweep, prev)
		}
		prev = sweep
	}
	if sweep, _ := st.SweepOf("a"); sweep != 0 {
		t.Errorf("seeded quantity sweep = %d, want 0", sweep)
	}
	if sweep, _ := st.SweepOf("d"); sweep != 3 {
		t.Errorf("SweepOf(d) = %d, want 3", sweep)
	}
}

func TestSolveOrderIndependent(t *testing.T) {
	rules := []Rule{
		add("b", "a"),
		add("c", "a", "b"),
		add("d", "c"),
		add("e", "b", "d"),
		add("f", "x"), // never fires
		NewRule("split", []string{"e"}, []string{"g", "h"}, func(in []any) ([]any, error) {
			e := in[0].(float64)
			return []any{e / 2, e * 2}, nil
		}),
	}
	knowns := map[string]any{"a": 2.0}
	want := NewSolver(rules).Solve(knowns).Export()

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]Rule(nil), rules...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		st, stats := NewSolver(shuffled).Run(knowns)
		if diff := cmp.Diff(want, st.Export()); diff != "" {
			t.Fatalf("permutation %d changed the fixpoint (-want +got):\n%s", i, diff)
		}
		if stats.Sweeps > len(rules)+1 {
			t.Errorf("permutation %d took %d sweeps, bound is %d", i, stats.Sweeps, len(rules)+1)
		}
	}
	if _, ok := want["f"]; ok {
		t.Error("f should be absent: its input is never known")
	}
}

func TestSolveCycleWithoutSeedTerminates(t *testing.T) {
	rules := []Rule{add("p", "q"), add("q", "p")}
	st, stats := NewSolver(rules).Run(nil)
	if st.Len() != 0 {
		t.Errorf("Len = %d, want 0", st.Len())
	}
	if stats.Sweeps != 1 {
		t.Errorf("Sweeps = %d, want 1", stats.Sweeps)
	}

	st = NewSolver(rules).Solve(map[string]any{"q": 4.0})
	if v, _ := st.Get("p"); v != 4.0 {
		t.Errorf("p = %v, want 4", v)
	}
}

func TestSolveMultiOutputPartiallyKnown(t *testing.T) {
	calls := 0
	rules := []Rule{
		NewRule("pair", []string{"a"}, []string{"x", "y"}, func(in []any) ([]any, error) {
			calls++
			return []any{10.0, 20.0}, nil
		}),
	}
	st := NewSolver(rules).Solve(map[string]any{"a": 1.0, "x": 99.0})

	if v, _ := st.Get("x"); v != 99.0 {
		t.Errorf("x = %v, want caller value 99", v)
	}
	if v, _ := st.Get("y"); v != 20.0 {
		t.Errorf("y = %v, want 20", v)
	}
	if d := st.Derivation("x"); d != Provided {
		t.Errorf("Derivation(x) = %q, want provided", d)
	}
	if calls != 1 {
		t.Errorf("rule called %d times, want 1", calls)
	}

	// Every output known: the rule must not fire at all.
	calls = 0
	NewSolver(rules).Solve(map[string]any{"a": 1.0, "x": 1.0, "y": 2.0})
	if calls != 0 {
		t.Errorf("rule called %d times with all outputs known, want 0", calls)
	}
}

func TestSolveDefaultsYieldToKnowns(t *testing.T) {
	s := NewSolver(nil, WithDefaults(map[string]any{"mu": 1.0, "g": 9.8}))

	st := s.Solve(map[string]any{"mu": 2.0})
	if v, _ := st.Get("mu"); v != 2.0 {
		t.Errorf("mu = %v, want 2", v)
	}
	if d := st.Derivation("g"); d != Default {
		t.Errorf("Derivation(g) = %q, want %q", d, Default)
	}
}

func TestSolveUndefinedInputBlocksRule(t *testing.T) {
	called := false
	rules := []Rule{
		NewRule("half", []string{"a"}, []string{"b"}, func(in []any) ([]any, error) {
			called = true
			return []any{in[0].(float64) / 2}, nil
		}),
	}
	st, stats := NewSolver(rules).Run(map[string]any{"a": Undefined{Reason: "zero energy"}})

	if st.Has("b") {
		t.Errorf("b recorded as %v, want absent", st.Export()["b"])
	}
	if called {
		t.Error("rule function should not run on an undefined input")
	}
	if stats.Firings != 0 {
		t.Errorf("Firings = %d, want 0", stats.Firings)
	}
	if _, ok := st.Export()["a"]; !ok {
		t.Error("undefined known should still export as null")
	}
}

func TestSolveUndefinedInputLeavesOutputToOtherProducer(t *testing.T) {
	// p has two producers; the first is fed an undefined value.
	rules := []Rule{
		NewRule("from_a", []string{"a", "e"}, []string{"p"}, func(in []any) ([]any, error) {
			return []any{-1.0}, nil
		}),
		NewRule("infinite", []string{"x"}, []string{"a"}, func(in []any) ([]any, error) {
			return []any{Undefined{Reason: "zero energy"}}, nil
		}),
		NewRule("from_h", []string{"h"}, []string{"p"}, func(in []any) ([]any, error) {
			return []any{in[0].(float64) * in[0].(float64)}, nil
		}),
	}
	knowns := map[string]any{"x": 0.0, "e": 1.0, "h": 2.0}

	for _, order := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}} {
		ordered := make([]Rule, len(order))
		for i, j := range order {
			ordered[i] = rules[j]
		}
		st := NewSolver(ordered).Solve(knowns)
		if v, _ := st.Get("p"); v != 4.0 {
			t.Errorf("order %v: p = %v, want 4 from h", order, v)
		}
		if d := st.Derivation("p"); d != "from_h from h" {
			t.Errorf("order %v: Derivation(p) = %q", order, d)
		}
	}
}

func TestSolveRuleFailureRecordsUndefined(t *testing.T) {
	rules := []Rule{
		NewRule("fails", []string{"a"}, []string{"b"}, func(in []any) ([]any, error) {
			return nil, errors.New("boom")
		}),
		NewRule("short", []string{"a"}, []string{"c", "d"}, func(in []any) ([]any, error) {
			return []any{1.0}, nil
		}),
		NewRule("panics", []string{"a"}, []string{"e"}, func(in []any) ([]any, error) {
			panic("bad input")
		}),
		add("f", "a"),
	}
	st := NewSolver(rules, WithLogger(testLogger())).Solve(map[string]any{"a": 1.0})

	for _, name := range []string{"b", "c", "d", "e"} {
		v, ok := st.Get(name)
		if !ok || !IsUndefined(v) {
			t.Errorf("%s = %v, %v; want Undefined", name, v, ok)
		}
	}
	if v, _ := st.Get("b"); v.(Undefined).Reason != "boom" {
		t.Errorf("b reason = %q, want boom", v.(Undefined).Reason)
	}
	if v, _ := st.Get("f"); v != 1.0 {
		t.Errorf("f = %v, want 1: later rules must still run", v)
	}
}

func TestSolveMaxSweeps(t *testing.T) {
	s := NewSolver(chain(), WithMaxSweeps(1), WithLogger(testLogger()))
	st, stats := s.Run(map[string]any{"a": 1.0})
	if stats.Sweeps != 1 {
		t.Errorf("Sweeps = %d, want 1", stats.Sweeps)
	}
	if st.Has("d") {
		t.Error("d should not be reachable in a single back-to-front sweep")
	}
}

func TestSolveConcurrent(t *testing.T) {
	s := NewSolver(chain(), WithLogger(testLogger()))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st := s.Solve(map[string]any{"a": float64(i)})
			if v, _ := st.Get("d"); v != float64(i) {
				t.Errorf("solve %d: d = %v", i, v)
			}
		}(i)
	}
	wg.Wait()
}
