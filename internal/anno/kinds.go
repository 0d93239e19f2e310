package anno

import "flux/internal/circuit"

// Owners of the built-in annotation kinds.
const (
	// OwnerEmit marks emission requests and emitted artifacts.
	OwnerEmit = "emit"
	// OwnerDeadCode marks removal-protection annotations.
	OwnerDeadCode = "dead-code"
)

// DontTouch protects an entity from removal by optimizing passes.
type DontTouch struct {
	Ref circuit.Ref
}

func (a DontTouch) Target() circuit.Ref { return a.Ref }
func (a DontTouch) Owner() string       { return OwnerDeadCode }

// Update keeps one protection per successor entity.
func (a DontTouch) Update(targets []circuit.Ref) []Annotation {
	out := make([]Annotation, 0, len(targets))
	for _, t := range targets {
		out = append(out, DontTouch{Ref: t})
	}
	return out
}

// EmitRequest asks the emitter to render an artifact. A circuit-level
// target requests the whole circuit; a module-level target requests that
// one module.
type EmitRequest struct {
	Ref circuit.Ref
}

func (a EmitRequest) Target() circuit.Ref { return a.Ref }
func (a EmitRequest) Owner() string       { return OwnerEmit }

func (a EmitRequest) Update(targets []circuit.Ref) []Annotation {
	out := make([]Annotation, 0, len(targets))
	for _, t := range targets {
		out = append(out, EmitRequest{Ref: t})
	}
	return out
}

// EmittedCircuit is the whole-circuit emission artifact.
type EmittedCircuit struct {
	Name string
	Text string
}

func (a EmittedCircuit) Target() circuit.Ref { return circuit.CircuitRef(a.Name) }
func (a EmittedCircuit) Owner() string       { return OwnerEmit }

func (a EmittedCircuit) Update(targets []circuit.Ref) []Annotation {
	out := make([]Annotation, 0, len(targets))
	for _, t := range targets {
		out = append(out, EmittedCircuit{Name: t.Circuit, Text: a.Text})
	}
	return out
}

// EmittedModule is a single-module emission artifact.
type EmittedModule struct {
	Circuit string
	Name    string
	Text    string
}

func (a EmittedModule) Target() circuit.Ref { return circuit.ModuleRef(a.Circuit, a.Name) }
func (a EmittedModule) Owner() string       { return OwnerEmit }

func (a EmittedModule) Update(targets []circuit.Ref) []Annotation {
	out := make([]Annotation, 0, len(targets))
	for _, t := range targets {
		out = append(out, EmittedModule{Circuit: t.Circuit, Name: t.Module, Text: a.Text})
	}
	return out
}
