package engine

import "strings"

// Func computes a rule's outputs from its inputs. in holds the input values in
// the rule's declared order; the returned slice must hold exactly one value per
// declared output, in order.
type Func func(in []any) ([]any, error)

// Rule is an immutable calculation: it requires Inputs and produces Outputs.
type Rule struct {
	Label   string
	Inputs  []string
	Outputs []string
	Func    Func
}

// NewRule builds a Rule, copying the name lists so later edits by the caller
// cannot change it.
func NewRule(label string, inputs, outputs []string, fn Func) Rule {
	return Rule{
		Label:   label,
		Inputs:  append([]string(nil), inputs...),
		Outputs: append([]string(nil), outputs...),
		Func:    fn,
	}
}

// Ready reports whether every input of r is present in s with a defined
// value. A rule fed an Undefined input never fires, which leaves its outputs
// open for another producer.
func (r Rule) Ready(s *Store) bool {
	for _, name := range r.Inputs {
		v, ok := s.Get(name)
		if !ok || IsUndefined(v) {
			return false
		}
	}
	return true
}

// Pending reports whether at least one output of r is still absent from s.
func (r Rule) Pending(s *Store) bool {
	for _, name := range r.Outputs {
		if !s.Has(name) {
			return true
		}
	}
	return false
}

// Derivation returns the label recorded on quantities r produces.
func (r Rule) Derivation() string {
	if len(r.Inputs) == 0 {
		return r.Label
	}
	return r.Label + " from " + strings.Join(r.Inputs, ", ")
}
