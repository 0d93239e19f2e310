package pass

import (
	"errors"
	"fmt"
	"time"

	"flux/internal/anno"
	"flux/internal/form"
)

// ErrInputFormTooStrict is returned when a pass receives a state whose
// form is strictly stricter than the pass declares. The pass would run
// on a circuit shaped by guarantees it does not understand, so the
// pipeline was assembled wrong.
var ErrInputFormTooStrict = errors.New("state form too strict for pass")

// Pass is the unit of compilation work: one circuit-to-circuit rewrite
// with a declared form contract.
type Pass interface {
	// Name identifies the pass in errors, provenance records, and
	// timing reports.
	Name() string
	// InputForm is the form the pass is designed for. A state at that
	// form or any looser form is acceptable.
	InputForm() form.Form
	// OutputForm is the form the pass guarantees on its output.
	OutputForm() form.Form
	// RunRaw performs the rewrite. It must be a pure function of the
	// state plus the pass's own configuration. Callers go through Run,
	// never RunRaw directly.
	RunRaw(st State) (State, error)
}

// FormError reports the pass and forms involved in an input form
// violation. It unwraps to ErrInputFormTooStrict.
type FormError struct {
	Pass     string
	Declared form.Form
	Got      form.Form
}

func (e *FormError) Error() string {
	return fmt.Sprintf("pass %s declares input form %s but got %s: %v",
		e.Pass, e.Declared, e.Got, ErrInputFormTooStrict)
}

func (e *FormError) Unwrap() error { return ErrInputFormTooStrict }

// Run executes p over st with the standard wrapper, which is never
// overridden by a pass: it checks the input form, invokes RunRaw,
// reconciles annotations against the pass's rename map, and returns a
// state whose form is forced to the declared output form with the
// rename map consumed. hook may be nil.
func Run(p Pass, st State, hook Hook) (State, error) {
	ok, err := form.AtLeastAsStrict(p.InputForm(), st.Form)
	if err != nil {
		return State{}, fmt.Errorf("pass %s: %w", p.Name(), err)
	}
	if !ok {
		return State{}, &FormError{Pass: p.Name(), Declared: p.InputForm(), Got: st.Form}
	}

	start := time.Now()
	emit(hook, Event{Pass: p.Name(), Status: StatusStart, Form: st.Form})

	raw, err := runRaw(p, st, hook)
	if err != nil {
		emit(hook, Event{Pass: p.Name(), Status: StatusError, Form: st.Form, Err: err, Elapsed: time.Since(start)})
		return State{}, fmt.Errorf("pass %s: %w", p.Name(), err)
	}

	out := raw
	out.Annos = reconcile(p.Name(), st.Annos, raw.Annos, raw.Renames)
	out.Form = p.OutputForm()
	out.Renames = anno.RenameMap{}
	emit(hook, Event{Pass: p.Name(), Status: StatusDone, Form: out.Form, Elapsed: time.Since(start)})
	return out, nil
}

// runRaw dispatches to the composite fold for a Seq so the hook reaches
// its sub-passes, and to RunRaw for everything else.
func runRaw(p Pass, st State, hook Hook) (State, error) {
	if seq, ok := p.(*Seq); ok {
		return seq.fold(st, hook)
	}
	return p.RunRaw(st)
}
