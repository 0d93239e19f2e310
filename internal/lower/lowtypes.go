package lower

import (
	"fmt"
	"strconv"

	"flux/internal/anno"
	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// MidToLow is the canonical step from mid to low form: aggregate ports,
// wires, regs, and nodes are flattened into ground declarations with
// underscore-joined names, and connects of aggregates are expanded
// leafwise. Mems and instances keep their port structure; reference
// chains through them collapse past the first selection, so inst.io.a
// becomes inst.io_a. Every flattened declaration is recorded as a
// rename from the old name to its leaf names.
func MidToLow() pass.Pass { return lowerTypes{} }

type lowerTypes struct{}

func (lowerTypes) Name() string          { return "mid-to-low" }
func (lowerTypes) InputForm() form.Form  { return form.Mid }
func (lowerTypes) OutputForm() form.Form { return form.Low }

func (lowerTypes) RunRaw(st pass.State) (pass.State, error) {
	orig := st.Circuit
	c := orig.Clone()
	var renames anno.RenameMap

	for i := range orig.Modules {
		e, err := buildEnv(orig, &orig.Modules[i])
		if err != nil {
			return pass.State{}, err
		}
		lm := &typeLowerer{env: e, nodes: nodeValues(&orig.Modules[i]), circ: orig.Name, renames: &renames}
		if err := lm.lowerModule(&orig.Modules[i], &c.Modules[i]); err != nil {
			return pass.State{}, fmt.Errorf("module %s: %w", orig.Modules[i].Name, err)
		}
	}

	st.Circuit = c
	st.Renames = renames
	return st, nil
}

// typeLowerer flattens one module, reading the original definitions and
// writing the lowered ports and body into the clone.
type typeLowerer struct {
	env     *env
	nodes   map[string]circuit.Expr
	circ    string
	renames *anno.RenameMap
}

// leaf is one ground component of a flattened aggregate.
type leaf struct {
	name string
	typ  circuit.Type
}

func (l *typeLowerer) lowerModule(src, dst *circuit.Module) error {
	ports := make([]circuit.Port, 0, len(src.Ports))
	for _, p := range src.Ports {
		ls := leaves(p.Name, p.Type)
		for _, lf := range ls {
			ports = append(ports, circuit.Port{Name: lf.name, Dir: p.Dir, Type: lf.typ})
		}
		l.recordSplit(src.Name, p.Name, ls)
	}
	dst.Ports = ports
	if src.Ext {
		return nil
	}

	body := make([]circuit.Stmt, 0, len(src.Body))
	for i := range src.Body {
		s := &src.Body[i]
		switch s.Kind {
		case circuit.StmtWire:
			ls := leaves(s.Wire.Name, s.Wire.Type)
			for _, lf := range ls {
				body = append(body, circuit.Stmt{Kind: circuit.StmtWire, Wire: circuit.WireStmt{Name: lf.name, Type: lf.typ}})
			}
			l.recordSplit(src.Name, s.Wire.Name, ls)
		case circuit.StmtReg:
			clk, err := l.flattenExpr(s.Reg.Clock)
			if err != nil {
				return err
			}
			ls := leaves(s.Reg.Name, s.Reg.Type)
			for _, lf := range ls {
				body = append(body, circuit.Stmt{Kind: circuit.StmtReg, Reg: circuit.RegStmt{Name: lf.name, Type: lf.typ, Clock: clk}})
			}
			l.recordSplit(src.Name, s.Reg.Name, ls)
		case circuit.StmtNode:
			stmts, err := l.lowerNode(src.Name, s.Node)
			if err != nil {
				return err
			}
			body = append(body, stmts...)
		case circuit.StmtConnect:
			stmts, err := l.lowerConnect(s.Connect)
			if err != nil {
				return err
			}
			body = append(body, stmts...)
		case circuit.StmtMem, circuit.StmtInst:
			body = append(body, *s)
		case circuit.StmtWhen:
			return fmt.Errorf("conditional block in mid form")
		case circuit.StmtSMem, circuit.StmtCMem:
			return fmt.Errorf("unexpanded memory sugar %s", s.DeclaredName())
		}
	}
	dst.Body = body
	return nil
}

func (l *typeLowerer) lowerNode(modName string, n circuit.NodeStmt) ([]circuit.Stmt, error) {
	t, err := l.env.exprType(n.Value, l.nodes)
	if err != nil {
		return nil, err
	}
	if t.Ground() {
		v, err := l.flattenExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return []circuit.Stmt{{Kind: circuit.StmtNode, Node: circuit.NodeStmt{Name: n.Name, Value: v}}}, nil
	}
	var out []circuit.Stmt
	ls := leaves(n.Name, t)
	err = walkLeafPaths(n.Value, t, func(chain circuit.Expr, i int) error {
		v, err := l.flattenExpr(chain)
		if err != nil {
			return err
		}
		out = append(out, circuit.Stmt{Kind: circuit.StmtNode, Node: circuit.NodeStmt{Name: ls[i].name, Value: v}})
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.recordSplit(modName, n.Name, ls)
	return out, nil
}

func (l *typeLowerer) lowerConnect(cn circuit.ConnectStmt) ([]circuit.Stmt, error) {
	t, err := l.env.exprType(cn.Loc, l.nodes)
	if err != nil {
		return nil, err
	}
	var out []circuit.Stmt
	if t.Ground() {
		loc, err := l.flattenExpr(cn.Loc)
		if err != nil {
			return nil, err
		}
		v, err := l.flattenExpr(cn.Value)
		if err != nil {
			return nil, err
		}
		return []circuit.Stmt{{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{Loc: loc, Value: v}}}, nil
	}
	locs := make([]circuit.Expr, 0, 4)
	err = walkLeafPaths(cn.Loc, t, func(chain circuit.Expr, i int) error {
		lc, err := l.flattenExpr(chain)
		if err != nil {
			return err
		}
		locs = append(locs, lc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = walkLeafPaths(cn.Value, t, func(chain circuit.Expr, i int) error {
		v, err := l.flattenExpr(chain)
		if err != nil {
			return err
		}
		out = append(out, circuit.Stmt{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{Loc: locs[i], Value: v}})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// recordSplit records the rename of an aggregate onto its leaves. A
// ground declaration keeps its name and gets no record.
func (l *typeLowerer) recordSplit(modName, name string, ls []leaf) {
	if len(ls) == 1 && ls[0].name == name {
		return
	}
	refs := make([]circuit.Ref, len(ls))
	for i, lf := range ls {
		refs[i] = circuit.ComponentRef(l.circ, modName, lf.name)
	}
	l.renames.Rename(circuit.ComponentRef(l.circ, modName, name), refs...)
}

// flattenExpr rewrites reference chains onto the flattened namespace.
// Chains rooted at a mem keep their port selections; chains rooted at an
// instance join everything past the instance into one port name.
func (l *typeLowerer) flattenExpr(x circuit.Expr) (circuit.Expr, error) {
	switch x.Kind {
	case circuit.ExprRef, circuit.ExprLit:
		return x, nil
	case circuit.ExprSubField, circuit.ExprSubIndex:
		root, path, ok := chainParts(x)
		if !ok {
			return circuit.Expr{}, fmt.Errorf("cannot lower selection %s", x)
		}
		if _, isMem := l.env.mems[root]; isMem {
			return x, nil
		}
		if _, isInst := l.env.insts[root]; isInst {
			return circuit.SubField(circuit.RefExpr(root), joinPath(path)), nil
		}
		return circuit.RefExpr(root + "_" + joinPath(path)), nil
	case circuit.ExprPrim:
		args := make([]circuit.Expr, len(x.Args))
		for i, a := range x.Args {
			fa, err := l.flattenExpr(a)
			if err != nil {
				return circuit.Expr{}, err
			}
			args[i] = fa
		}
		return circuit.Prim(x.Op, args...), nil
	default:
		return circuit.Expr{}, fmt.Errorf("cannot lower expression %s", x)
	}
}

// walkLeafPaths applies every leaf path of an aggregate type to a base
// expression, visiting the resulting chains in leaf order.
func walkLeafPaths(base circuit.Expr, t circuit.Type, fn func(circuit.Expr, int) error) error {
	i := 0
	var walk func(e circuit.Expr, t circuit.Type) error
	walk = func(e circuit.Expr, t circuit.Type) error {
		switch t.Kind {
		case circuit.TypeBundle:
			for _, f := range t.Fields {
				if err := walk(circuit.SubField(e, f.Name), f.Type); err != nil {
					return err
				}
			}
			return nil
		case circuit.TypeVector:
			for n := uint32(0); n < t.Len; n++ {
				if err := walk(circuit.SubIndex(e, n), *t.Elem); err != nil {
					return err
				}
			}
			return nil
		default:
			err := fn(e, i)
			i++
			return err
		}
	}
	return walk(base, t)
}

// leaves flattens a type into its ground components with joined names.
func leaves(prefix string, t circuit.Type) []leaf {
	switch t.Kind {
	case circuit.TypeBundle:
		var out []leaf
		for _, f := range t.Fields {
			out = append(out, leaves(prefix+"_"+f.Name, f.Type)...)
		}
		return out
	case circuit.TypeVector:
		var out []leaf
		for i := uint32(0); i < t.Len; i++ {
			out = append(out, leaves(prefix+"_"+strconv.FormatUint(uint64(i), 10), *t.Elem)...)
		}
		return out
	default:
		return []leaf{{name: prefix, typ: t}}
	}
}

// chainParts splits a reference chain into its root name and the path
// segments past it.
func chainParts(x circuit.Expr) (root string, path []string, ok bool) {
	switch x.Kind {
	case circuit.ExprRef:
		return x.Ref, nil, true
	case circuit.ExprSubField:
		root, path, ok = chainParts(*x.Sub)
		return root, append(path, x.Field), ok
	case circuit.ExprSubIndex:
		root, path, ok = chainParts(*x.Sub)
		return root, append(path, strconv.FormatUint(uint64(x.Index), 10)), ok
	default:
		return "", nil, false
	}
}

func joinPath(path []string) string {
	out := path[0]
	for _, p := range path[1:] {
		out += "_" + p
	}
	return out
}
