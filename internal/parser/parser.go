// Package parser reads .flx circuit text into the circuit IR.
//
// The format is line-oriented and indentation-structured, one circuit per
// file, matching what circuit.Dump prints:
//
//	circuit Top :
//	  module Top :
//	    input clk : Clock
//	    output out : UInt<8>
//	    reg r : UInt<8>, clk
//	    out <= r
//
// Parsing stops at the first error; errors carry the file:line position.
package parser

import (
	"fmt"
	"os"

	"flux/internal/circuit"
)

// Options configures a parse.
type Options struct {
	// Path names the input in error messages. Empty means "<input>".
	Path string
}

// Parser — состояние разбора одного файла.
type Parser struct {
	path  string
	lines []line
	pos   int
}

// Parse parses .flx source text into a circuit.
func Parse(src []byte, opts Options) (*circuit.Circuit, error) {
	path := opts.Path
	if path == "" {
		path = "<input>"
	}
	lines, err := splitLines(path, src)
	if err != nil {
		return nil, err
	}
	p := &Parser{path: path, lines: lines}
	return p.parseCircuit()
}

// ParseFile reads one .flx file and parses it.
func ParseFile(path string) (*circuit.Circuit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(src, Options{Path: path})
}

func (p *Parser) peek() (line, bool) {
	if p.pos >= len(p.lines) {
		return line{}, false
	}
	return p.lines[p.pos], true
}

func (p *Parser) next() (line, bool) {
	l, ok := p.peek()
	if ok {
		p.pos++
	}
	return l, ok
}

func (p *Parser) errf(num int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.path, num, fmt.Sprintf(format, args...))
}

func (p *Parser) parseCircuit() (*circuit.Circuit, error) {
	hdr, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("%s: empty input", p.path)
	}
	if hdr.indent != 0 {
		return nil, p.errf(hdr.num, "circuit header must start at column one")
	}
	cur := newCursor(p.path, hdr)
	kw, err := cur.ident()
	if err != nil {
		return nil, err
	}
	if kw != "circuit" {
		return nil, p.errf(hdr.num, "expected circuit header, found %q", hdr.head())
	}
	name, err := cur.ident()
	if err != nil {
		return nil, err
	}
	if err := cur.expect(':'); err != nil {
		return nil, err
	}
	if err := cur.end(); err != nil {
		return nil, err
	}

	c := &circuit.Circuit{Name: name}
	seen := make(map[string]int)
	modIndent := -1
	for {
		l, ok := p.peek()
		if !ok {
			break
		}
		if l.indent == 0 {
			return nil, p.errf(l.num, "unexpected top-level line; a file holds one circuit")
		}
		if modIndent == -1 {
			modIndent = l.indent
		} else if l.indent != modIndent {
			return nil, p.errf(l.num, "inconsistent indentation: module headers start at column %d", modIndent+1)
		}
		m, err := p.parseModule()
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[m.Name]; dup {
			return nil, p.errf(l.num, "duplicate module %q (first defined on line %d)", m.Name, prev)
		}
		seen[m.Name] = l.num
		c.Modules = append(c.Modules, m)
	}
	if len(c.Modules) == 0 {
		return nil, p.errf(hdr.num, "circuit %s has no modules", name)
	}
	return c, nil
}

func (p *Parser) parseModule() (circuit.Module, error) {
	hdr, _ := p.next()
	cur := newCursor(p.path, hdr)
	kw, err := cur.ident()
	if err != nil {
		return circuit.Module{}, err
	}
	if kw != "module" && kw != "extmodule" {
		return circuit.Module{}, p.errf(hdr.num, "expected module or extmodule, found %q", hdr.head())
	}
	name, err := cur.ident()
	if err != nil {
		return circuit.Module{}, err
	}
	if err := cur.expect(':'); err != nil {
		return circuit.Module{}, err
	}
	if err := cur.end(); err != nil {
		return circuit.Module{}, err
	}

	m := circuit.Module{Name: name, Ext: kw == "extmodule"}

	// Порты идут первыми, затем — тело на том же уровне отступа.
	bodyIndent := -1
	for {
		l, ok := p.peek()
		if !ok || l.indent <= hdr.indent {
			break
		}
		h := l.head()
		if h != "input" && h != "output" {
			break
		}
		if bodyIndent == -1 {
			bodyIndent = l.indent
		} else if l.indent != bodyIndent {
			return circuit.Module{}, p.errf(l.num, "inconsistent indentation: expected column %d", bodyIndent+1)
		}
		p.next()
		port, err := p.parsePort(l)
		if err != nil {
			return circuit.Module{}, err
		}
		m.Ports = append(m.Ports, port)
	}

	body, err := p.parseBlock(hdr.indent, bodyIndent)
	if err != nil {
		return circuit.Module{}, err
	}
	if m.Ext && len(body) > 0 {
		return circuit.Module{}, p.errf(hdr.num, "extmodule %s has a body; extmodules declare ports only", name)
	}
	m.Body = body
	return m, nil
}

func (p *Parser) parsePort(l line) (circuit.Port, error) {
	cur := newCursor(p.path, l)
	kw, err := cur.ident()
	if err != nil {
		return circuit.Port{}, err
	}
	dir := circuit.Input
	if kw == "output" {
		dir = circuit.Output
	}
	name, err := cur.ident()
	if err != nil {
		return circuit.Port{}, err
	}
	if err := cur.expect(':'); err != nil {
		return circuit.Port{}, err
	}
	t, err := cur.parseType()
	if err != nil {
		return circuit.Port{}, err
	}
	if err := cur.end(); err != nil {
		return circuit.Port{}, err
	}
	return circuit.Port{Name: name, Dir: dir, Type: t}, nil
}

// parseBlock parses the statements indented under parentIndent. The first
// line fixes the block's indent level when want is -1; every following
// sibling must match it.
func (p *Parser) parseBlock(parentIndent, want int) ([]circuit.Stmt, error) {
	var out []circuit.Stmt
	for {
		l, ok := p.peek()
		if !ok || l.indent <= parentIndent {
			return out, nil
		}
		if want == -1 {
			want = l.indent
		} else if l.indent != want {
			return nil, p.errf(l.num, "inconsistent indentation: expected column %d", want+1)
		}
		p.next()
		s, err := p.parseStmt(l)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}
