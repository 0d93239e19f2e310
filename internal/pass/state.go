// Package pass defines the compiler state snapshot, the pass contract,
// and the wrapper that reconciles annotations around every pass run.
package pass

import (
	"errors"

	"flux/internal/anno"
	"flux/internal/circuit"
	"flux/internal/form"
)

// ErrNoEmittedArtifact is returned when a state is asked for emitter
// output it does not carry.
var ErrNoEmittedArtifact = errors.New("no emitted artifact in state")

// State is one immutable compiler snapshot: a circuit, the form it is
// known to satisfy, its annotations, and the renames performed by the
// pass that produced it. Passes never mutate a state in place; every
// run yields a new one. Renames describe only the producing pass, never
// accumulated history.
type State struct {
	Circuit *circuit.Circuit
	Form    form.Form
	Annos   anno.Store
	Renames anno.RenameMap
}

// New builds the initial state for a circuit at a form. Annotations and
// renames start empty.
func New(c *circuit.Circuit, f form.Form) State {
	return State{Circuit: c, Form: f}
}

// WithAnnos returns a copy of the state carrying the extra annotations
// appended to its store. The receiver's store is left untouched.
func (s State) WithAnnos(extra ...anno.Annotation) State {
	if len(extra) == 0 {
		return s
	}
	annos := make(anno.Store, 0, len(s.Annos)+len(extra))
	annos = append(annos, s.Annos...)
	annos = append(annos, extra...)
	s.Annos = annos
	return s
}

// EmittedArtifact returns the whole-circuit artifact attached by the
// emitter. This is the sanctioned way to retrieve emitter output from a
// state; absence is ErrNoEmittedArtifact.
func (s State) EmittedArtifact() (anno.EmittedCircuit, error) {
	for _, a := range s.Annos {
		if ec, ok := a.(anno.EmittedCircuit); ok {
			return ec, nil
		}
	}
	return anno.EmittedCircuit{}, ErrNoEmittedArtifact
}
