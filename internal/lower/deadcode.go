package lower

import (
	"flux/internal/anno"
	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// DeadCode removes wires, nodes, and regs that nothing live reads.
// Liveness starts at output ports, instances, mems, and anything under
// a DontTouch annotation, and flows backwards through connects, node
// values, and reg clocks. A reg driven only by itself is dead. Every
// removed declaration is recorded as a deletion rename, so annotations
// on it vanish with it.
func DeadCode() pass.Pass { return deadCode{} }

type deadCode struct{}

func (deadCode) Name() string          { return "dead-code" }
func (deadCode) InputForm() form.Form  { return form.Low }
func (deadCode) OutputForm() form.Form { return form.Low }

func (deadCode) RunRaw(st pass.State) (pass.State, error) {
	c := st.Circuit.Clone()
	protected := make(map[circuit.Ref]bool)
	for _, a := range st.Annos {
		if dt, ok := a.(anno.DontTouch); ok {
			protected[dt.Ref] = true
		}
	}

	var renames anno.RenameMap
	for i := range c.Modules {
		m := &c.Modules[i]
		if m.Ext {
			continue
		}
		sweepModule(c.Name, m, protected, &renames)
	}
	st.Circuit = c
	st.Renames = renames
	return st, nil
}

func sweepModule(circName string, m *circuit.Module, protected map[circuit.Ref]bool, renames *anno.RenameMap) {
	removable := make(map[string]bool)
	deps := make(map[string]map[string]bool)
	addDeps := func(name string, e circuit.Expr) {
		set := deps[name]
		if set == nil {
			set = make(map[string]bool)
			deps[name] = set
		}
		rootRefs(e, set)
	}

	live := make(map[string]bool)
	var queue []string
	markLive := func(name string) {
		if !live[name] {
			live[name] = true
			queue = append(queue, name)
		}
	}

	for j := range m.Body {
		s := &m.Body[j]
		switch s.Kind {
		case circuit.StmtWire:
			removable[s.Wire.Name] = true
		case circuit.StmtNode:
			removable[s.Node.Name] = true
			addDeps(s.Node.Name, s.Node.Value)
		case circuit.StmtReg:
			removable[s.Reg.Name] = true
			addDeps(s.Reg.Name, s.Reg.Clock)
		case circuit.StmtInst:
			markLive(s.Inst.Name)
		case circuit.StmtMem:
			markLive(s.Mem.Name)
		case circuit.StmtConnect:
			if root, ok := s.Connect.Loc.RootRef(); ok {
				addDeps(root, s.Connect.Value)
			}
		}
	}

	for _, p := range m.Ports {
		if p.Dir == circuit.Output {
			markLive(p.Name)
		}
	}
	for j := range m.Body {
		name := m.Body[j].DeclaredName()
		if name != "" && protected[circuit.ComponentRef(circName, m.Name, name)] {
			markLive(name)
		}
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for d := range deps[n] {
			markLive(d)
		}
	}

	body := make([]circuit.Stmt, 0, len(m.Body))
	for j := range m.Body {
		s := m.Body[j]
		switch s.Kind {
		case circuit.StmtWire, circuit.StmtNode, circuit.StmtReg:
			name := s.DeclaredName()
			if !live[name] {
				renames.Delete(circuit.ComponentRef(circName, m.Name, name))
				continue
			}
		case circuit.StmtConnect:
			if root, ok := s.Connect.Loc.RootRef(); ok && removable[root] && !live[root] {
				continue
			}
		}
		body = append(body, s)
	}
	m.Body = body
}
