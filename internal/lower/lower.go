// Package lower holds the concrete circuit passes: the canonical
// lowering chain between forms plus the optional rewriting passes that
// can be scheduled by name.
package lower

import (
	"fmt"

	"flux/internal/circuit"
)

// env maps component names of one module to their types. Ports, wires,
// regs, nodes, mems, and instances all share the module namespace.
type env struct {
	circ  *circuit.Circuit
	mod   *circuit.Module
	types map[string]circuit.Type
	mems  map[string]circuit.MemStmt
	insts map[string]string // instance name -> module name
}

// buildEnv resolves the types of every name declared in a module,
// including port bundles of instantiated modules and canonical mem
// ports. Node types are left out; they follow from their values and are
// resolved on demand by exprType.
func buildEnv(c *circuit.Circuit, m *circuit.Module) (*env, error) {
	e := &env{
		circ:  c,
		mod:   m,
		types: make(map[string]circuit.Type),
		mems:  make(map[string]circuit.MemStmt),
		insts: make(map[string]string),
	}
	for _, p := range m.Ports {
		e.types[p.Name] = p.Type
	}
	var err error
	m.WalkStmts(func(s *circuit.Stmt) {
		if err != nil {
			return
		}
		switch s.Kind {
		case circuit.StmtWire:
			e.types[s.Wire.Name] = s.Wire.Type
		case circuit.StmtReg:
			e.types[s.Reg.Name] = s.Reg.Type
		case circuit.StmtMem:
			e.mems[s.Mem.Name] = s.Mem
		case circuit.StmtInst:
			if _, ok := c.FindModule(s.Inst.Module); !ok {
				err = fmt.Errorf("instance %s of undefined module %s", s.Inst.Name, s.Inst.Module)
				return
			}
			e.insts[s.Inst.Name] = s.Inst.Module
		case circuit.StmtNode:
			// resolved lazily
		}
	})
	return e, err
}

// nodeValues collects the value expression of every node in the module.
func nodeValues(m *circuit.Module) map[string]circuit.Expr {
	out := make(map[string]circuit.Expr)
	m.WalkStmts(func(s *circuit.Stmt) {
		if s.Kind == circuit.StmtNode {
			out[s.Node.Name] = s.Node.Value
		}
	})
	return out
}

// exprType resolves the type of an expression against an environment.
// nodes maps node names to their values for lazy resolution.
func (e *env) exprType(x circuit.Expr, nodes map[string]circuit.Expr) (circuit.Type, error) {
	switch x.Kind {
	case circuit.ExprRef:
		if t, ok := e.types[x.Ref]; ok {
			return t, nil
		}
		if v, ok := nodes[x.Ref]; ok {
			return e.exprType(v, nodes)
		}
		if mod, ok := e.insts[x.Ref]; ok {
			return circuit.Type{}, fmt.Errorf("instance %s of %s used without a port selection", x.Ref, mod)
		}
		if _, ok := e.mems[x.Ref]; ok {
			return circuit.Type{}, fmt.Errorf("mem %s used without a port selection", x.Ref)
		}
		return circuit.Type{}, fmt.Errorf("undefined reference %s in module %s", x.Ref, e.mod.Name)
	case circuit.ExprSubField:
		return e.subFieldType(x, nodes)
	case circuit.ExprSubIndex:
		sub, err := e.exprType(*x.Sub, nodes)
		if err != nil {
			return circuit.Type{}, err
		}
		if sub.Kind != circuit.TypeVector {
			return circuit.Type{}, fmt.Errorf("index into non-vector expression %s", x.Sub)
		}
		if x.Index >= sub.Len {
			return circuit.Type{}, fmt.Errorf("index %d out of range for %s", x.Index, sub)
		}
		return *sub.Elem, nil
	case circuit.ExprLit:
		w := x.Lit.Width
		if w == 0 {
			w = minWidth(x.Lit)
		}
		if x.Lit.Signed {
			return circuit.SInt(w), nil
		}
		return circuit.UInt(w), nil
	case circuit.ExprPrim:
		return e.primType(x, nodes)
	default:
		return circuit.Type{}, fmt.Errorf("unknown expression kind %d", x.Kind)
	}
}

// subFieldType handles bundle fields, mem ports, and instance ports.
func (e *env) subFieldType(x circuit.Expr, nodes map[string]circuit.Expr) (circuit.Type, error) {
	if x.Sub.Kind == circuit.ExprRef {
		name := x.Sub.Ref
		if mem, ok := e.mems[name]; ok {
			port, ok := mem.MemPortType(x.Field, circuit.AddrWidth(mem.Depth))
			if !ok {
				return circuit.Type{}, fmt.Errorf("mem %s has no port %s", name, x.Field)
			}
			return port, nil
		}
		if modName, ok := e.insts[name]; ok {
			mod, _ := e.circ.FindModule(modName)
			t, ok := mod.PortType(x.Field)
			if !ok {
				return circuit.Type{}, fmt.Errorf("module %s has no port %s", modName, x.Field)
			}
			return t, nil
		}
	}
	sub, err := e.exprType(*x.Sub, nodes)
	if err != nil {
		return circuit.Type{}, err
	}
	if sub.Kind != circuit.TypeBundle {
		return circuit.Type{}, fmt.Errorf("field %s selected from non-bundle expression %s", x.Field, x.Sub)
	}
	for _, f := range sub.Fields {
		if f.Name == x.Field {
			return f.Type, nil
		}
	}
	return circuit.Type{}, fmt.Errorf("bundle %s has no field %s", sub, x.Field)
}

// primType computes the result type of a primitive operation.
func (e *env) primType(x circuit.Expr, nodes map[string]circuit.Expr) (circuit.Type, error) {
	if len(x.Args) != x.Op.Arity() {
		return circuit.Type{}, fmt.Errorf("%s expects %d operands, got %d", x.Op, x.Op.Arity(), len(x.Args))
	}
	args := make([]circuit.Type, len(x.Args))
	for i, a := range x.Args {
		t, err := e.exprType(a, nodes)
		if err != nil {
			return circuit.Type{}, err
		}
		if !t.Ground() && x.Op != circuit.OpMux {
			return circuit.Type{}, fmt.Errorf("aggregate operand %s in %s", a, x.Op)
		}
		args[i] = t
	}
	switch x.Op {
	case circuit.OpAdd, circuit.OpSub:
		return withWidth(args[0], maxWidth(args[0], args[1])+carry(args[0], args[1])), nil
	case circuit.OpAnd, circuit.OpOr, circuit.OpXor:
		return circuit.UInt(maxWidth(args[0], args[1])), nil
	case circuit.OpNot:
		return circuit.UInt(args[0].Width), nil
	case circuit.OpEq:
		return circuit.UInt(1), nil
	case circuit.OpMux:
		if args[1].Kind == circuit.TypeBundle || args[1].Kind == circuit.TypeVector {
			return circuit.Type{}, fmt.Errorf("aggregate operand %s in mux", x.Args[1])
		}
		return withWidth(args[1], maxWidth(args[1], args[2])), nil
	case circuit.OpCat:
		return circuit.UInt(args[0].Width + args[1].Width), nil
	default:
		return circuit.Type{}, fmt.Errorf("unknown primitive op %d", x.Op)
	}
}

// carry is 1 when both operand widths are known, so the add/sub result
// grows, and 0 when the result width is still unknown.
func carry(a, b circuit.Type) uint32 {
	if a.Width == 0 || b.Width == 0 {
		return 0
	}
	return 1
}

func maxWidth(a, b circuit.Type) uint32 {
	if a.Width == 0 || b.Width == 0 {
		return 0
	}
	if a.Width > b.Width {
		return a.Width
	}
	return b.Width
}

func withWidth(t circuit.Type, w uint32) circuit.Type {
	if t.Kind == circuit.TypeSInt {
		return circuit.SInt(w)
	}
	return circuit.UInt(w)
}

// minWidth is the fewest bits that can hold a literal's value.
func minWidth(l circuit.Lit) uint32 {
	v := l.Value
	if v < 0 {
		v = -v - 1
	}
	var w uint32
	for n := v; n > 0; n >>= 1 {
		w++
	}
	if w == 0 {
		w = 1
	}
	if l.Signed {
		w++
	}
	return w
}

// rootRefs collects the root component names an expression reads.
func rootRefs(x circuit.Expr, out map[string]bool) {
	switch x.Kind {
	case circuit.ExprRef:
		out[x.Ref] = true
	case circuit.ExprSubField, circuit.ExprSubIndex:
		rootRefs(*x.Sub, out)
	case circuit.ExprPrim:
		for _, a := range x.Args {
			rootRefs(a, out)
		}
	}
}
