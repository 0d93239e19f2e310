// Package pipeline assembles form-validated pass schedules, splices
// custom passes into canonical lowering chains, and runs the result
// over compiler states.
package pipeline

import (
	"errors"
	"fmt"

	"flux/internal/anno"
	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// ErrIllegalPipeline is returned when two adjacent scheduled passes have
// incompatible forms.
var ErrIllegalPipeline = errors.New("adjacent passes have incompatible forms")

// LegalityError reports the first incompatible adjacent pair. It unwraps
// to ErrIllegalPipeline.
type LegalityError struct {
	Prev    string
	Next    string
	PrevOut form.Form
	NextIn  form.Form
}

func (e *LegalityError) Error() string {
	return fmt.Sprintf("pass %s declares input form %s but follows %s producing %s: %v",
		e.Next, e.NextIn, e.Prev, e.PrevOut, ErrIllegalPipeline)
}

func (e *LegalityError) Unwrap() error { return ErrIllegalPipeline }

// Pipeline is an ordered list of passes plus a terminal emission pass.
// Construction validates the schedule once; a malformed pipeline is
// rejected before any circuit is touched.
type Pipeline struct {
	passes  []pass.Pass
	emitter pass.Pass
}

// New builds a pipeline and eagerly checks that every adjacent pair,
// including the terminal emitter, is form-compatible. A nil emitter is
// allowed; the pipeline then ends with its last pass.
func New(passes []pass.Pass, emitter pass.Pass) (*Pipeline, error) {
	pl := &Pipeline{passes: passes, emitter: emitter}
	full, err := pl.Schedule(nil)
	if err != nil {
		return nil, err
	}
	if err := validate(full); err != nil {
		return nil, err
	}
	return pl, nil
}

// Passes returns the scheduled passes without the terminal emitter.
func (pl *Pipeline) Passes() []pass.Pass {
	out := make([]pass.Pass, len(pl.passes))
	copy(out, pl.passes)
	return out
}

// Schedule returns the effective pass list for a run with the given
// extra passes merged in and the terminal emitter appended. A schedule
// with extras is re-validated: merging can only repair monotonicity by
// inserting canonical lowering after a custom pass, so a custom pass
// that lowers beyond its insertion point still yields an illegal list.
func (pl *Pipeline) Schedule(extra []pass.Pass) ([]pass.Pass, error) {
	passes := pl.passes
	if len(extra) > 0 {
		merged, err := Merge(passes, extra)
		if err != nil {
			return nil, err
		}
		passes = merged
	}
	full := make([]pass.Pass, 0, len(passes)+1)
	full = append(full, passes...)
	if pl.emitter != nil {
		full = append(full, pl.emitter)
	}
	if len(extra) > 0 {
		if err := validate(full); err != nil {
			return nil, err
		}
	}
	return full, nil
}

// Run merges the extra passes into the schedule and folds pass.Run over
// the result. The hook observes every pass, the emitter included.
func (pl *Pipeline) Run(st pass.State, extra []pass.Pass, hook pass.Hook) (pass.State, error) {
	full, err := pl.Schedule(extra)
	if err != nil {
		return pass.State{}, err
	}
	cur := st
	for _, p := range full {
		next, err := pass.Run(p, cur, hook)
		if err != nil {
			return pass.State{}, err
		}
		cur = next
	}
	return cur, nil
}

// EmitCircuit requests whole-circuit emission, runs the pipeline, and
// extracts the artifact from the final state.
func (pl *Pipeline) EmitCircuit(st pass.State, extra []pass.Pass, hook pass.Hook) (anno.EmittedCircuit, error) {
	var name string
	if st.Circuit != nil {
		name = st.Circuit.Name
	}
	out, err := pl.Run(st.WithAnnos(anno.EmitRequest{Ref: circuit.CircuitRef(name)}), extra, hook)
	if err != nil {
		return anno.EmittedCircuit{}, err
	}
	return out.EmittedArtifact()
}

// validate checks every adjacent pair (p, n) for n accepting what p
// produces.
func validate(passes []pass.Pass) error {
	for i := 0; i+1 < len(passes); i++ {
		p, n := passes[i], passes[i+1]
		ok, err := form.AtLeastAsStrict(n.InputForm(), p.OutputForm())
		if err != nil {
			return fmt.Errorf("pass %s after %s: %w", n.Name(), p.Name(), err)
		}
		if !ok {
			return &LegalityError{
				Prev:    p.Name(),
				Next:    n.Name(),
				PrevOut: p.OutputForm(),
				NextIn:  n.InputForm(),
			}
		}
	}
	return nil
}
