package pipeline

import (
	"errors"
	"fmt"

	"flux/internal/form"
	"flux/internal/lower"
	"flux/internal/pass"
)

// ErrInternal marks an invariant violation in the lowering-sequence
// generator. It is never expected in normal operation.
var ErrInternal = errors.New("internal error")

// ErrUnmergeablePass is returned when a custom pass's input form is not
// produced anywhere in the schedule and is not the source form, so there
// is no point the pass could be inserted at.
var ErrUnmergeablePass = errors.New("custom pass cannot be merged into schedule")

// MergeError reports the pass that could not be placed. It unwraps to
// ErrUnmergeablePass.
type MergeError struct {
	Pass  string
	Input form.Form
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("pass %s declares input form %s, which no scheduled pass produces: %v",
		e.Pass, e.Input, ErrUnmergeablePass)
}

func (e *MergeError) Unwrap() error { return ErrUnmergeablePass }

// CanonicalLowering returns the fixed chain of lowering passes taking a
// circuit from one form to a stricter one, one canonical pass per single
// form step. The chain is empty when to is not stricter than from.
func CanonicalLowering(from, to form.Form) ([]pass.Pass, error) {
	c, err := form.Compare(to, from)
	if err != nil {
		return nil, err
	}
	if c <= 0 {
		return nil, nil
	}
	step, ok := canonicalStep(from)
	if !ok {
		return nil, fmt.Errorf("no lowering step below form %s: %w", from, ErrInternal)
	}
	next, _ := form.Stricter(from)
	rest, err := CanonicalLowering(next, to)
	if err != nil {
		return nil, err
	}
	return append([]pass.Pass{step}, rest...), nil
}

// canonicalStep builds the canonical pass lowering f by one form.
func canonicalStep(f form.Form) (pass.Pass, bool) {
	switch f {
	case form.Source:
		return lower.SourceToHigh(), true
	case form.High:
		return lower.HighToMid(), true
	case form.Mid:
		return lower.MidToLow(), true
	default:
		return nil, false
	}
}

// Merge folds custom passes left to right into an existing schedule.
// Each custom pass is inserted after the last scheduled pass whose
// output form equals the custom's input form, followed by whatever
// canonical lowering is needed to bring the custom's output back down
// to its insertion form. A custom pass whose input form appears nowhere
// must require the source form, in which case it is prepended and its
// re-lowering is empty. Custom passes keep their relative order.
func Merge(existing, custom []pass.Pass) ([]pass.Pass, error) {
	out := make([]pass.Pass, len(existing))
	copy(out, existing)

	for _, x := range custom {
		last := -1
		for i, p := range out {
			if p.OutputForm() == x.InputForm() {
				last = i
			}
		}
		insertAt := last + 1
		if last < 0 && x.InputForm() != form.Source {
			return nil, &MergeError{Pass: x.Name(), Input: x.InputForm()}
		}

		relower, err := CanonicalLowering(x.OutputForm(), x.InputForm())
		if err != nil {
			return nil, err
		}

		merged := make([]pass.Pass, 0, len(out)+1+len(relower))
		merged = append(merged, out[:insertAt]...)
		merged = append(merged, x)
		merged = append(merged, relower...)
		merged = append(merged, out[insertAt:]...)
		out = merged
	}
	return out, nil
}
