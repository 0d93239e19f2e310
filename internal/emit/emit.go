// Package emit renders emission artifacts from a circuit. The emitter
// is itself a pass: it consumes EmitRequest annotations from the state
// and replaces them with emitted artifacts, so fulfilled requests show
// up as deletions in the pass's provenance.
package emit

import (
	"fmt"

	"flux/internal/anno"
	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// Emitter returns the emission pass for the given target form. The pass
// neither raises nor lowers; schedules place it after the lowering
// chain that reaches the target.
func Emitter(target form.Form) pass.Pass { return emitter{target: target} }

type emitter struct {
	target form.Form
}

func (emitter) Name() string            { return "emit" }
func (e emitter) InputForm() form.Form  { return e.target }
func (e emitter) OutputForm() form.Form { return e.target }

func (e emitter) RunRaw(st pass.State) (pass.State, error) {
	kept := make(anno.Store, 0, len(st.Annos))
	var artifacts []anno.Annotation

	for _, a := range st.Annos {
		req, ok := a.(anno.EmitRequest)
		if !ok {
			kept = append(kept, a)
			continue
		}
		art, err := render(st.Circuit, req.Ref)
		if err != nil {
			return pass.State{}, err
		}
		artifacts = append(artifacts, art)
	}

	st.Annos = append(kept, artifacts...)
	return st, nil
}

func render(c *circuit.Circuit, ref circuit.Ref) (anno.Annotation, error) {
	switch {
	case ref.IsCircuit():
		if ref.Circuit != c.Name {
			return nil, fmt.Errorf("emit request for circuit %s, compiling %s", ref.Circuit, c.Name)
		}
		return anno.EmittedCircuit{Name: c.Name, Text: c.String()}, nil
	case ref.IsModule():
		m, ok := c.FindModule(ref.Module)
		if !ok {
			return nil, fmt.Errorf("emit request for unknown module %s", ref.Module)
		}
		return anno.EmittedModule{Circuit: c.Name, Name: m.Name, Text: m.String()}, nil
	default:
		return nil, fmt.Errorf("emit request for component %s, want a circuit or module", ref)
	}
}
