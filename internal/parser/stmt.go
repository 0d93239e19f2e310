package parser

import "flux/internal/circuit"

func (p *Parser) parseStmt(l line) (circuit.Stmt, error) {
	switch l.head() {
	case "wire":
		return p.parseWire(l)
	case "reg":
		return p.parseReg(l)
	case "node":
		return p.parseNode(l)
	case "when":
		return p.parseWhen(l)
	case "else":
		return circuit.Stmt{}, p.errf(l.num, "else without a preceding when")
	case "smem":
		return p.parseSugarMem(l, circuit.StmtSMem)
	case "cmem":
		return p.parseSugarMem(l, circuit.StmtCMem)
	case "mem":
		return p.parseMem(l)
	case "inst":
		return p.parseInst(l)
	case "input", "output":
		return circuit.Stmt{}, p.errf(l.num, "ports must precede statements")
	case "circuit", "module", "extmodule":
		return circuit.Stmt{}, p.errf(l.num, "%s is not allowed inside a module body", l.head())
	default:
		return p.parseConnect(l)
	}
}

// parseWire parses `wire <name> : <type>`.
func (p *Parser) parseWire(l line) (circuit.Stmt, error) {
	cur := newCursor(p.path, l)
	cur.mustIdent()
	name, err := cur.ident()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.expect(':'); err != nil {
		return circuit.Stmt{}, err
	}
	t, err := cur.parseType()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.end(); err != nil {
		return circuit.Stmt{}, err
	}
	return circuit.Stmt{Kind: circuit.StmtWire, Wire: circuit.WireStmt{Name: name, Type: t}}, nil
}

// parseReg parses `reg <name> : <type>, <clock>`.
func (p *Parser) parseReg(l line) (circuit.Stmt, error) {
	cur := newCursor(p.path, l)
	cur.mustIdent()
	name, err := cur.ident()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.expect(':'); err != nil {
		return circuit.Stmt{}, err
	}
	t, err := cur.parseType()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.expect(','); err != nil {
		return circuit.Stmt{}, err
	}
	clock, err := cur.parseExpr()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.end(); err != nil {
		return circuit.Stmt{}, err
	}
	return circuit.Stmt{Kind: circuit.StmtReg, Reg: circuit.RegStmt{Name: name, Type: t, Clock: clock}}, nil
}

// parseNode parses `node <name> = <expr>`.
func (p *Parser) parseNode(l line) (circuit.Stmt, error) {
	cur := newCursor(p.path, l)
	cur.mustIdent()
	name, err := cur.ident()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.expect('='); err != nil {
		return circuit.Stmt{}, err
	}
	value, err := cur.parseExpr()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.end(); err != nil {
		return circuit.Stmt{}, err
	}
	return circuit.Stmt{Kind: circuit.StmtNode, Node: circuit.NodeStmt{Name: name, Value: value}}, nil
}

// parseWhen parses `when <cond> :`, its indented block, and an optional
// `else :` block at the same indent as the when.
func (p *Parser) parseWhen(l line) (circuit.Stmt, error) {
	cur := newCursor(p.path, l)
	cur.mustIdent()
	cond, err := cur.parseExpr()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.expect(':'); err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.end(); err != nil {
		return circuit.Stmt{}, err
	}
	then, err := p.parseBlock(l.indent, -1)
	if err != nil {
		return circuit.Stmt{}, err
	}
	w := &circuit.WhenStmt{Cond: cond, Then: then}
	if el, ok := p.peek(); ok && el.indent == l.indent && el.head() == "else" {
		p.next()
		ec := newCursor(p.path, el)
		ec.mustIdent()
		if err := ec.expect(':'); err != nil {
			return circuit.Stmt{}, err
		}
		if err := ec.end(); err != nil {
			return circuit.Stmt{}, err
		}
		w.Else, err = p.parseBlock(el.indent, -1)
		if err != nil {
			return circuit.Stmt{}, err
		}
	}
	return circuit.Stmt{Kind: circuit.StmtWhen, When: w}, nil
}

// parseSugarMem parses `smem <name> : <elem>[depth]` (and cmem).
func (p *Parser) parseSugarMem(l line, kind circuit.StmtKind) (circuit.Stmt, error) {
	cur := newCursor(p.path, l)
	cur.mustIdent()
	name, elem, depth, err := p.parseMemShape(cur)
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.end(); err != nil {
		return circuit.Stmt{}, err
	}
	sm := circuit.SugarMemStmt{Name: name, Elem: elem, Depth: depth}
	if kind == circuit.StmtSMem {
		return circuit.Stmt{Kind: kind, SMem: sm}, nil
	}
	return circuit.Stmt{Kind: kind, CMem: sm}, nil
}

// parseMem parses `mem <name> : <elem>[depth] read-under-write => old|new`.
func (p *Parser) parseMem(l line) (circuit.Stmt, error) {
	cur := newCursor(p.path, l)
	cur.mustIdent()
	name, elem, depth, err := p.parseMemShape(cur)
	if err != nil {
		return circuit.Stmt{}, err
	}
	if !cur.eatLit("read-under-write") || !cur.eatLit("=>") {
		return circuit.Stmt{}, cur.errf("expected read-under-write => old|new, found %s", cur.rest())
	}
	ruw, err := cur.ident()
	if err != nil {
		return circuit.Stmt{}, err
	}
	var seq bool
	switch ruw {
	case "new":
		seq = true
	case "old":
		seq = false
	default:
		return circuit.Stmt{}, cur.errf("read-under-write must be old or new, found %q", ruw)
	}
	if err := cur.end(); err != nil {
		return circuit.Stmt{}, err
	}
	return circuit.Stmt{Kind: circuit.StmtMem, Mem: circuit.MemStmt{Name: name, Elem: elem, Depth: depth, Seq: seq}}, nil
}

// parseMemShape parses the `<name> : <elem>[depth]` part shared by the
// three memory forms. The depth rides on the type as its outermost vector
// suffix and is split back off here.
func (p *Parser) parseMemShape(cur *cursor) (string, circuit.Type, uint32, error) {
	name, err := cur.ident()
	if err != nil {
		return "", circuit.Type{}, 0, err
	}
	if err := cur.expect(':'); err != nil {
		return "", circuit.Type{}, 0, err
	}
	t, err := cur.parseType()
	if err != nil {
		return "", circuit.Type{}, 0, err
	}
	if t.Kind != circuit.TypeVector {
		return "", circuit.Type{}, 0, cur.errf("memory %s needs a depth suffix, like UInt<8>[16]", name)
	}
	return name, *t.Elem, t.Len, nil
}

// parseInst parses `inst <name> of <module>`.
func (p *Parser) parseInst(l line) (circuit.Stmt, error) {
	cur := newCursor(p.path, l)
	cur.mustIdent()
	name, err := cur.ident()
	if err != nil {
		return circuit.Stmt{}, err
	}
	of, err := cur.ident()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if of != "of" {
		return circuit.Stmt{}, cur.errf("expected of, found %q", of)
	}
	target, err := cur.ident()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.end(); err != nil {
		return circuit.Stmt{}, err
	}
	return circuit.Stmt{Kind: circuit.StmtInst, Inst: circuit.InstStmt{Name: name, Module: target}}, nil
}

// parseConnect parses `<loc> <= <expr>`.
func (p *Parser) parseConnect(l line) (circuit.Stmt, error) {
	cur := newCursor(p.path, l)
	loc, err := cur.parseExpr()
	if err != nil {
		return circuit.Stmt{}, err
	}
	switch loc.Kind {
	case circuit.ExprRef, circuit.ExprSubField, circuit.ExprSubIndex:
	default:
		return circuit.Stmt{}, cur.errf("left side of <= must be a reference")
	}
	if !cur.eatLit("<=") {
		return circuit.Stmt{}, cur.errf("expected <=, found %s", cur.rest())
	}
	value, err := cur.parseExpr()
	if err != nil {
		return circuit.Stmt{}, err
	}
	if err := cur.end(); err != nil {
		return circuit.Stmt{}, err
	}
	return circuit.Stmt{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{Loc: loc, Value: value}}, nil
}
