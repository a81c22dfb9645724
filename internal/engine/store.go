// Package engine implements a small forward-chaining calculation engine.
//
// A Store holds named quantities together with a derivation label describing how
// each value was obtained. Rules declare the quantities they require and the
// quantities they produce. The Solver sweeps its rules over a Store until a full
// sweep fires nothing (the fixpoint).
//
// The Store is write-once: the first value recorded under a name is permanent for
// the lifetime of the Store, and entries are never removed. Because a rule's
// preconditions stay satisfied once met, the final Store does not depend on the
// order rules are tried in, only the sweep in which each quantity appears does.
// Rules never fire on an Undefined input, so a degenerate value cannot shadow a
// second producer of the same quantity.
package engine

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Derivation labels for quantities that were not produced by a rule.
const (
	Provided = "provided"
	Default  = "default"
)

// Undefined marks a quantity whose value is mathematically undefined for the
// given inputs (zero orbital energy, apoapsis of an open orbit, ...). It is
// stored like any other value, so the producing rule does not fire again, and
// it exports as null.
type Undefined struct {
	Reason string
}

func (u Undefined) String() string {
	if u.Reason == "" {
		return "undefined"
	}
	return "undefined (" + u.Reason + ")"
}

// IsUndefined reports whether v is an Undefined marker.
func IsUndefined(v any) bool {
	_, ok := v.(Undefined)
	return ok
}

type entry struct {
	value      any
	derivation string
	sweep      int
}

// Store is a write-once mapping from quantity name to value and derivation.
// A Store is not safe for concurrent mutation; each Solve call owns its own.
type Store struct {
	entries map[string]entry
	order   []string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Has reports whether a value has been recorded for name.
func (s *Store) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Get returns the value recorded for name.
func (s *Store) Get(name string) (any, bool) {
	e, ok := s.entries[name]
	return e.value, ok
}

// Set records value under name unless name is already present, in which case
// the call is a no-op. It reports whether the value was recorded.
func (s *Store) Set(name string, value any, derivation string) bool {
	return s.record(name, value, derivation, 0)
}

// record is Set stamped with the sweep that produced the value.
func (s *Store) record(name string, value any, derivation string, sweep int) bool {
	if _, ok := s.entries[name]; ok {
		return false
	}
	s.entries[name] = entry{value: value, derivation: derivation, sweep: sweep}
	s.order = append(s.order, name)
	return true
}

// Derivation returns the derivation label recorded for name, or "" if absent.
func (s *Store) Derivation(name string) string {
	return s.entries[name].derivation
}

// Derivations returns a copy of every derivation label keyed by name.
func (s *Store) Derivations() map[string]string {
	out := make(map[string]string, len(s.entries))
	for name, e := range s.entries {
		out[name] = e.derivation
	}
	return out
}

// SweepOf returns the sweep in which name was recorded. Seeded quantities
// report 0. The second result is false if name is absent.
func (s *Store) SweepOf(name string) (int, bool) {
	e, ok := s.entries[name]
	return e.sweep, ok
}

// Names returns the recorded names in insertion order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of recorded quantities.
func (s *Store) Len() int {
	return len(s.entries)
}

// Export converts the Store into plain, JSON-friendly values. Vectors become
// []float64, numeric scalars become float64, named string kinds become string,
// and Undefined or non-finite numbers become nil. Derivations are not included.
func (s *Store) Export() map[string]any {
	out := make(map[string]any, len(s.entries))
	for name, e := range s.entries {
		out[name] = plain(e.value)
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case nil, Undefined:
		return nil
	case r3.Vec:
		return finiteSlice([]float64{x.X, x.Y, x.Z})
	case [3]float64:
		return finiteSlice(x[:])
	case []float64:
		return finiteSlice(x)
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string, bool:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// finiteSlice copies in, returning nil if any component is not finite.
func finiteSlice(in []float64) any {
	out := make([]float64, len(in))
	for i, f := range in {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		out[i] = f
	}
	return out
}

// Explain renders one "name: value (derivation)" line per quantity in the order
// the quantities were recorded.
func (s *Store) Explain() string {
	var b strings.Builder
	for i, name := range s.order {
		if i > 0 {
			b.WriteByte('\n')
		}
		e := s.entries[name]
		fmt.Fprintf(&b, "%s: %s (%s)", name, format(e.value), e.derivation)
	}
	return b.String()
}

func format(v any) string {
	switch x := v.(type) {
	case r3.Vec:
		return fmt.Sprintf("[%g, %g, %g]", x.X, x.Y, x.Z)
	case float64:
		return fmt.Sprintf("%g", x)
	case Undefined:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
