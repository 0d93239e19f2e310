package lower

import (
	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// ConstProp folds literals forward through a lowered module: a node
// whose value reduces to an unsigned literal is inlined into its
// readers, primitive ops over unsigned literals collapse, and a mux
// with a literal condition selects its branch. Nodes left unread by the
// folding are dead-code work, not this pass's. Signed literals and
// results wider than 62 bits are left alone.
func ConstProp() pass.Pass { return constProp{} }

type constProp struct{}

func (constProp) Name() string          { return "const-prop" }
func (constProp) InputForm() form.Form  { return form.Low }
func (constProp) OutputForm() form.Form { return form.Low }

func (constProp) RunRaw(st pass.State) (pass.State, error) {
	c := st.Circuit.Clone()
	for i := range c.Modules {
		m := &c.Modules[i]
		if m.Ext {
			continue
		}
		consts := make(map[string]circuit.Lit)
		for j := range m.Body {
			s := &m.Body[j]
			switch s.Kind {
			case circuit.StmtNode:
				s.Node.Value = foldExpr(s.Node.Value, consts)
				if v := s.Node.Value; v.Kind == circuit.ExprLit && !v.Lit.Signed {
					consts[s.Node.Name] = v.Lit
				}
			case circuit.StmtConnect:
				s.Connect.Value = foldExpr(s.Connect.Value, consts)
			}
		}
	}
	st.Circuit = c
	return st, nil
}

func foldExpr(x circuit.Expr, consts map[string]circuit.Lit) circuit.Expr {
	switch x.Kind {
	case circuit.ExprRef:
		if l, ok := consts[x.Ref]; ok {
			return circuit.Expr{Kind: circuit.ExprLit, Lit: l}
		}
		return x
	case circuit.ExprPrim:
		args := make([]circuit.Expr, len(x.Args))
		allLit := true
		for i, a := range x.Args {
			args[i] = foldExpr(a, consts)
			if args[i].Kind != circuit.ExprLit || args[i].Lit.Signed {
				allLit = false
			}
		}
		if x.Op == circuit.OpMux && args[0].Kind == circuit.ExprLit && !args[0].Lit.Signed {
			if args[0].Lit.Value != 0 {
				return args[1]
			}
			return args[2]
		}
		if allLit {
			if lit, ok := foldPrim(x.Op, args); ok {
				return lit
			}
		}
		return circuit.Prim(x.Op, args...)
	default:
		// selections into mems and instances never fold
		return x
	}
}

// foldPrim evaluates op over unsigned literal operands. It refuses
// results wider than 62 bits to keep the arithmetic inside int64.
func foldPrim(op circuit.PrimOp, args []circuit.Expr) (circuit.Expr, bool) {
	a := args[0].Lit
	var b circuit.Lit
	if len(args) > 1 {
		b = args[1].Lit
	}
	wmax := a.Width
	if b.Width > wmax {
		wmax = b.Width
	}

	switch op {
	case circuit.OpAdd, circuit.OpSub:
		w := wmax + 1
		if w > 62 {
			return circuit.Expr{}, false
		}
		v := a.Value + b.Value
		if op == circuit.OpSub {
			v = a.Value - b.Value
		}
		return circuit.UIntLit(maskTo(v, w), w), true
	case circuit.OpAnd, circuit.OpOr, circuit.OpXor:
		if wmax > 62 {
			return circuit.Expr{}, false
		}
		var v int64
		switch op {
		case circuit.OpAnd:
			v = a.Value & b.Value
		case circuit.OpOr:
			v = a.Value | b.Value
		default:
			v = a.Value ^ b.Value
		}
		return circuit.UIntLit(maskTo(v, wmax), wmax), true
	case circuit.OpNot:
		if a.Width > 62 {
			return circuit.Expr{}, false
		}
		return circuit.UIntLit(maskTo(^a.Value, a.Width), a.Width), true
	case circuit.OpEq:
		var v int64
		if a.Value == b.Value {
			v = 1
		}
		return circuit.UIntLit(v, 1), true
	case circuit.OpMux:
		if a.Value != 0 {
			return args[1], true
		}
		return args[2], true
	case circuit.OpCat:
		w := a.Width + b.Width
		if w > 62 {
			return circuit.Expr{}, false
		}
		return circuit.UIntLit(a.Value<<b.Width|maskTo(b.Value, b.Width), w), true
	default:
		return circuit.Expr{}, false
	}
}

// maskTo truncates a value to w bits, w below 63.
func maskTo(v int64, w uint32) int64 {
	return v & int64(uint64(1)<<w-1)
}
