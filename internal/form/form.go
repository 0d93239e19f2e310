// Package form defines the ordered hierarchy of circuit representation
// strictness levels and the legality rule connecting them.
//
// A form is a contract: a circuit in a stricter form satisfies additional
// structural guarantees on top of everything the looser forms promise.
// Passes declare the loosest form they understand and the form they
// produce; the pipeline uses the order to decide whether two passes may
// run back to back.
package form

import (
	"errors"
	"fmt"
)

// Form is a circuit strictness level. The zero value is Unknown, the
// sentinel for "no known form yet": it can never be compared, so an
// uninitialized form fails fast instead of silently ordering somewhere.
type Form uint8

const (
	// Unknown is the sentinel form. Comparing it is an error.
	Unknown Form = iota
	// Source is the loosest form: the circuit as parsed, with memory
	// sugar and unresolved widths still present.
	Source
	// High has memories desugared and instances resolved; conditional
	// blocks and aggregate types are still allowed.
	High
	// Mid has conditionals expanded into muxes and every width known.
	Mid
	// Low is the strictest form: ground types only, ready to emit.
	Low
)

// ErrIllegalComparison is returned when a comparison involves Unknown.
var ErrIllegalComparison = errors.New("illegal comparison against unknown form")

// String returns the lowercase name of the form.
func (f Form) String() string {
	switch f {
	case Source:
		return "source"
	case High:
		return "high"
	case Mid:
		return "mid"
	case Low:
		return "low"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("form(%d)", uint8(f))
	}
}

// Parse converts a string to a known Form.
func Parse(s string) (Form, error) {
	switch s {
	case "source":
		return Source, nil
	case "high":
		return High, nil
	case "mid":
		return Mid, nil
	case "low":
		return Low, nil
	default:
		return Unknown, fmt.Errorf("invalid form: %q (expected: source|high|mid|low)", s)
	}
}

// Known reports whether f is one of the ordered forms.
func (f Form) Known() bool {
	return f >= Source && f <= Low
}

// Compare orders two known forms by strictness: -1 when a is looser than
// b, 0 when equal, +1 when a is stricter than b. Either operand being
// Unknown (or out of range) is an ErrIllegalComparison: the caller holds
// a circuit whose form was never established, which is a pipeline
// construction bug, not an ordering question.
func Compare(a, b Form) (int, error) {
	if !a.Known() || !b.Known() {
		return 0, fmt.Errorf("cannot order %s against %s: %w", a, b, ErrIllegalComparison)
	}
	switch {
	case a < b:
		return -1, nil
	case a > b:
		return 1, nil
	default:
		return 0, nil
	}
}

// AtLeastAsStrict reports whether a is at least as strict as b.
func AtLeastAsStrict(a, b Form) (bool, error) {
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}

// Stricter returns the next stricter form after f, or false when f is
// already the strictest known form (or not a known form at all).
func Stricter(f Form) (Form, bool) {
	switch f {
	case Source:
		return High, true
	case High:
		return Mid, true
	case Mid:
		return Low, true
	default:
		return Unknown, false
	}
}
