package lower

import (
	"fmt"

	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// ExpandWhens rewrites conditional blocks into mux-driven connects.
// Connects are last-connect-wins: a later connect to the same sink
// overrides an earlier one, and a connect under a condition folds into
// mux(cond, new, previous). Registers default to themselves, so a reg
// not driven on some path keeps its value. Declarations nested in when
// blocks are hoisted to the module body in walk order.
//
// A ground sink driven only conditionally, or an output port or ground
// wire never driven at all, is an error: there is no value for the
// uncovered paths. Aggregate sinks are checked per driven path only.
func ExpandWhens() pass.Pass { return expandWhens{} }

type expandWhens struct{}

func (expandWhens) Name() string          { return "expand-whens" }
func (expandWhens) InputForm() form.Form  { return form.High }
func (expandWhens) OutputForm() form.Form { return form.High }

func (expandWhens) RunRaw(st pass.State) (pass.State, error) {
	c := st.Circuit.Clone()
	for i := range c.Modules {
		m := &c.Modules[i]
		if m.Ext {
			continue
		}
		if err := expandModuleWhens(m); err != nil {
			return pass.State{}, fmt.Errorf("module %s: %w", m.Name, err)
		}
	}
	st.Circuit = c
	return st, nil
}

// sinkState is the accumulated driver of one connect target.
type sinkState struct {
	loc    circuit.Expr
	expr   circuit.Expr
	driven bool // has an unconditional base driver
}

type whenExpander struct {
	decls []circuit.Stmt
	order []string
	sinks map[string]*sinkState
}

func expandModuleWhens(m *circuit.Module) error {
	x := &whenExpander{sinks: make(map[string]*sinkState)}
	if err := x.walk(m.Body, nil); err != nil {
		return err
	}

	for _, p := range m.Ports {
		if p.Dir == circuit.Output {
			if err := x.checkDriven(p.Name, p.Type); err != nil {
				return err
			}
		}
	}
	for _, d := range x.decls {
		if d.Kind == circuit.StmtWire {
			if err := x.checkDriven(d.Wire.Name, d.Wire.Type); err != nil {
				return err
			}
		}
	}

	body := make([]circuit.Stmt, 0, len(x.decls)+len(x.order))
	body = append(body, x.decls...)
	for _, key := range x.order {
		d := x.sinks[key]
		body = append(body, circuit.Stmt{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{
			Loc:   d.loc,
			Value: d.expr,
		}})
	}
	m.Body = body
	return nil
}

func (x *whenExpander) walk(body []circuit.Stmt, cond *circuit.Expr) error {
	for i := range body {
		s := body[i]
		switch s.Kind {
		case circuit.StmtWire, circuit.StmtNode, circuit.StmtMem, circuit.StmtInst:
			x.decls = append(x.decls, s)
		case circuit.StmtReg:
			x.decls = append(x.decls, s)
			name := s.Reg.Name
			x.order = append(x.order, name)
			x.sinks[name] = &sinkState{
				loc:    circuit.RefExpr(name),
				expr:   circuit.RefExpr(name),
				driven: true,
			}
		case circuit.StmtSMem, circuit.StmtCMem:
			return fmt.Errorf("unexpanded memory sugar %s", s.DeclaredName())
		case circuit.StmtConnect:
			if err := x.connect(s.Connect, cond); err != nil {
				return err
			}
		case circuit.StmtWhen:
			thenCond := conjoin(cond, s.When.Cond)
			if err := x.walk(s.When.Then, &thenCond); err != nil {
				return err
			}
			if len(s.When.Else) > 0 {
				elseCond := conjoin(cond, circuit.Prim(circuit.OpNot, s.When.Cond))
				if err := x.walk(s.When.Else, &elseCond); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (x *whenExpander) connect(cn circuit.ConnectStmt, cond *circuit.Expr) error {
	key := cn.Loc.String()
	d, ok := x.sinks[key]
	if !ok {
		d = &sinkState{loc: cn.Loc}
		x.sinks[key] = d
		x.order = append(x.order, key)
	}
	if cond == nil {
		d.expr = cn.Value
		d.driven = true
		return nil
	}
	if !d.driven {
		return fmt.Errorf("sink %s is conditionally driven without an unconditional default", key)
	}
	d.expr = circuit.Mux(*cond, cn.Value, d.expr)
	return nil
}

func (x *whenExpander) checkDriven(name string, t circuit.Type) error {
	if !t.Ground() {
		return nil
	}
	d, ok := x.sinks[name]
	if !ok || !d.driven {
		return fmt.Errorf("sink %s is never driven", name)
	}
	return nil
}

func conjoin(cond *circuit.Expr, c circuit.Expr) circuit.Expr {
	if cond == nil {
		return c
	}
	return circuit.Prim(circuit.OpAnd, *cond, c)
}
