package lower

import (
	"fmt"

	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// HighToMid is the canonical step from high to mid form: conditional
// blocks become muxes and every width is inferred.
func HighToMid() pass.Pass {
	return pass.NewSeq("high-to-mid", form.High, form.Mid,
		ExpandWhens(), InferWidths())
}

// InferWidths fills in the unknown widths of wires and regs from the
// expressions that drive them, to a fixed point. Port widths must be
// declared; only module-internal declarations are inferred. Literals
// without a width get their minimal width. A width still unknown after
// the fixed point is an error.
func InferWidths() pass.Pass { return inferWidths{} }

type inferWidths struct{}

func (inferWidths) Name() string          { return "infer-widths" }
func (inferWidths) InputForm() form.Form  { return form.High }
func (inferWidths) OutputForm() form.Form { return form.High }

func (inferWidths) RunRaw(st pass.State) (pass.State, error) {
	c := st.Circuit.Clone()
	for i := range c.Modules {
		if err := inferModuleWidths(c, &c.Modules[i]); err != nil {
			return pass.State{}, fmt.Errorf("module %s: %w", c.Modules[i].Name, err)
		}
	}
	st.Circuit = c
	return st, nil
}

func inferModuleWidths(c *circuit.Circuit, m *circuit.Module) error {
	for _, p := range m.Ports {
		if !p.Type.Sized() {
			return fmt.Errorf("port %s: width must be declared", p.Name)
		}
	}
	if m.Ext {
		return nil
	}

	e, err := buildEnv(c, m)
	if err != nil {
		return err
	}
	nodes := nodeValues(m)

	for {
		changed, err := propagateWidths(e, m, nodes)
		if err != nil {
			return err
		}
		if !changed {
			break
		}
	}
	return finishWidths(e, m, nodes)
}

// propagateWidths runs one round of driving unsized declarations from
// the connects that target them. Widths only move from unknown to
// known, so repeated rounds reach a fixed point.
func propagateWidths(e *env, m *circuit.Module, nodes map[string]circuit.Expr) (bool, error) {
	changed := false
	var werr error
	m.WalkStmts(func(s *circuit.Stmt) {
		if werr != nil || s.Kind != circuit.StmtConnect {
			return
		}
		// only a whole-declaration connect can size the declaration
		if s.Connect.Loc.Kind != circuit.ExprRef {
			return
		}
		name := s.Connect.Loc.Ref
		declT, ok := e.types[name]
		if !ok || declT.Sized() {
			return
		}
		srcT, err := e.exprType(s.Connect.Value, nodes)
		if err != nil {
			werr = err
			return
		}
		newT, ch, err := unifyWidths(declT, srcT)
		if err != nil {
			werr = fmt.Errorf("connect %s: %w", s.Connect.Loc, err)
			return
		}
		if ch {
			e.types[name] = newT
			changed = true
		}
	})
	return changed, werr
}

// finishWidths writes inferred types back into declarations, sizes
// literals, and rejects anything still unknown.
func finishWidths(e *env, m *circuit.Module, nodes map[string]circuit.Expr) error {
	var werr error
	m.WalkStmts(func(s *circuit.Stmt) {
		if werr != nil {
			return
		}
		switch s.Kind {
		case circuit.StmtWire:
			s.Wire.Type = e.types[s.Wire.Name]
			if !s.Wire.Type.Sized() {
				werr = fmt.Errorf("cannot infer width of wire %s", s.Wire.Name)
			}
		case circuit.StmtReg:
			s.Reg.Type = e.types[s.Reg.Name]
			if !s.Reg.Type.Sized() {
				werr = fmt.Errorf("cannot infer width of reg %s", s.Reg.Name)
			}
			sizeLits(&s.Reg.Clock)
		case circuit.StmtMem:
			if !s.Mem.Elem.Sized() {
				werr = fmt.Errorf("cannot infer element width of mem %s", s.Mem.Name)
			}
		case circuit.StmtNode:
			t, err := e.exprType(s.Node.Value, nodes)
			if err != nil {
				werr = err
				return
			}
			if !t.Sized() {
				werr = fmt.Errorf("cannot infer width of node %s", s.Node.Name)
				return
			}
			sizeLits(&s.Node.Value)
		case circuit.StmtConnect:
			sizeLits(&s.Connect.Loc)
			sizeLits(&s.Connect.Value)
		case circuit.StmtWhen:
			sizeLits(&s.When.Cond)
		}
	})
	return werr
}

// sizeLits sets the minimal width on every unsized literal in an
// expression tree.
func sizeLits(x *circuit.Expr) {
	switch x.Kind {
	case circuit.ExprLit:
		if x.Lit.Width == 0 {
			x.Lit.Width = minWidth(x.Lit)
		}
	case circuit.ExprSubField, circuit.ExprSubIndex:
		sizeLits(x.Sub)
	case circuit.ExprPrim:
		for i := range x.Args {
			sizeLits(&x.Args[i])
		}
	}
}

// unifyWidths fills unknown widths in decl from src. Kinds and shapes
// must agree; known widths are left alone even when they differ, since
// a connect may truncate or extend.
func unifyWidths(decl, src circuit.Type) (circuit.Type, bool, error) {
	switch decl.Kind {
	case circuit.TypeUInt, circuit.TypeSInt:
		if src.Kind != decl.Kind {
			return decl, false, fmt.Errorf("cannot drive %s from %s", decl, src)
		}
		if decl.Width == 0 && src.Width != 0 {
			decl.Width = src.Width
			return decl, true, nil
		}
		return decl, false, nil
	case circuit.TypeClock:
		if src.Kind != circuit.TypeClock {
			return decl, false, fmt.Errorf("cannot drive clock from %s", src)
		}
		return decl, false, nil
	case circuit.TypeVector:
		if src.Kind != circuit.TypeVector || src.Len != decl.Len {
			return decl, false, fmt.Errorf("cannot drive %s from %s", decl, src)
		}
		elem, ch, err := unifyWidths(*decl.Elem, *src.Elem)
		if err != nil || !ch {
			return decl, ch, err
		}
		out := decl
		out.Elem = &elem
		return out, true, nil
	case circuit.TypeBundle:
		if src.Kind != circuit.TypeBundle || len(src.Fields) != len(decl.Fields) {
			return decl, false, fmt.Errorf("cannot drive %s from %s", decl, src)
		}
		changed := false
		fields := make([]circuit.Field, len(decl.Fields))
		copy(fields, decl.Fields)
		for i := range fields {
			if fields[i].Name != src.Fields[i].Name {
				return decl, false, fmt.Errorf("cannot drive %s from %s", decl, src)
			}
			ft, ch, err := unifyWidths(fields[i].Type, src.Fields[i].Type)
			if err != nil {
				return decl, false, err
			}
			if ch {
				fields[i].Type = ft
				changed = true
			}
		}
		if !changed {
			return decl, false, nil
		}
		out := decl
		out.Fields = fields
		return out, true, nil
	default:
		return decl, false, fmt.Errorf("cannot infer width of %s", decl)
	}
}
