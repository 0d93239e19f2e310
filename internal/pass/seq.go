package pass

import "flux/internal/form"

// Seq composes an ordered list of sub-passes into a single pass with one
// form contract. Sub-passes run through Run, so each applies its own
// form check and annotation reconciliation; sub-passes may declare
// tighter requirements than the composite does. The composite's own
// wrapper then forces the declared output form on the result.
type Seq struct {
	name   string
	input  form.Form
	output form.Form
	subs   []Pass
}

// NewSeq builds a composite pass from sub-passes in execution order.
func NewSeq(name string, input, output form.Form, subs ...Pass) *Seq {
	return &Seq{name: name, input: input, output: output, subs: subs}
}

func (s *Seq) Name() string          { return s.name }
func (s *Seq) InputForm() form.Form  { return s.input }
func (s *Seq) OutputForm() form.Form { return s.output }

// RunRaw folds the sub-passes over the state.
func (s *Seq) RunRaw(st State) (State, error) {
	return s.fold(st, nil)
}

func (s *Seq) fold(st State, hook Hook) (State, error) {
	cur := st
	for _, sub := range s.subs {
		next, err := Run(sub, cur, hook)
		if err != nil {
			return State{}, err
		}
		cur = next
	}
	cur.Form = s.output
	return cur, nil
}

// Subs returns the composed passes in execution order.
func (s *Seq) Subs() []Pass { return s.subs }
