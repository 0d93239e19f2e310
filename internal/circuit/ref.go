package circuit

// Ref identifies a named entity inside a circuit: the circuit itself, one
// of its modules, or a named component (port, wire, reg, node, mem,
// instance) inside a module. Refs are small comparable values and are used
// as map keys by the annotation and rename machinery.
type Ref struct {
	Circuit string
	Module  string
	Name    string
}

// CircuitRef returns a circuit-level reference.
func CircuitRef(c string) Ref {
	return Ref{Circuit: c}
}

// ModuleRef returns a module-level reference.
func ModuleRef(c, m string) Ref {
	return Ref{Circuit: c, Module: m}
}

// ComponentRef returns a component-level reference.
func ComponentRef(c, m, name string) Ref {
	return Ref{Circuit: c, Module: m, Name: name}
}

// IsCircuit reports whether the ref points at a whole circuit.
func (r Ref) IsCircuit() bool { return r.Module == "" && r.Name == "" }

// IsModule reports whether the ref points at a module.
func (r Ref) IsModule() bool { return r.Module != "" && r.Name == "" }

// IsComponent reports whether the ref points at a named component.
func (r Ref) IsComponent() bool { return r.Name != "" }

// String renders the ref as a dotted path.
func (r Ref) String() string {
	switch {
	case r.IsComponent():
		return r.Circuit + "." + r.Module + "." + r.Name
	case r.IsModule():
		return r.Circuit + "." + r.Module
	default:
		return r.Circuit
	}
}
