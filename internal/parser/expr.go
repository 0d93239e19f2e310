package parser

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"flux/internal/circuit"
)

// cursor scans within one logical line. Every error it produces carries
// the file:line prefix so callers can return it as-is.
type cursor struct {
	path string
	num  int
	s    string
	pos  int
}

func newCursor(path string, l line) *cursor {
	return &cursor{path: path, num: l.num, s: l.text}
}

func (c *cursor) errf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", c.path, c.num, fmt.Sprintf(format, args...))
}

func (c *cursor) skipSpace() {
	for c.pos < len(c.s) && c.s[c.pos] == ' ' {
		c.pos++
	}
}

func (c *cursor) eof() bool {
	c.skipSpace()
	return c.pos >= len(c.s)
}

func (c *cursor) peek() byte {
	c.skipSpace()
	if c.pos >= len(c.s) {
		return 0
	}
	return c.s[c.pos]
}

// eat consumes b when it is the next significant byte.
func (c *cursor) eat(b byte) bool {
	if c.peek() != b {
		return false
	}
	c.pos++
	return true
}

func (c *cursor) expect(b byte) error {
	if !c.eat(b) {
		return c.errf("expected %q, found %s", string(b), c.rest())
	}
	return nil
}

// end asserts the line has no trailing content.
func (c *cursor) end() error {
	if !c.eof() {
		return c.errf("unexpected trailing %s", c.rest())
	}
	return nil
}

// rest quotes what remains of the line for error messages.
func (c *cursor) rest() string {
	c.skipSpace()
	if c.pos >= len(c.s) {
		return "end of line"
	}
	return strconv.Quote(c.s[c.pos:])
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// mustIdent consumes the keyword the statement dispatcher already matched
// against the line head.
func (c *cursor) mustIdent() {
	_, _ = c.ident()
}

// eatLit consumes lit when it is the next significant text.
func (c *cursor) eatLit(lit string) bool {
	c.skipSpace()
	if strings.HasPrefix(c.s[c.pos:], lit) {
		c.pos += len(lit)
		return true
	}
	return false
}

// ident consumes an identifier: a letter or underscore followed by
// letters, digits and underscores.
func (c *cursor) ident() (string, error) {
	c.skipSpace()
	start := c.pos
	if start >= len(c.s) || !isIdentStart(c.s[start]) {
		return "", c.errf("expected identifier, found %s", c.rest())
	}
	for c.pos < len(c.s) && isIdentByte(c.s[c.pos]) {
		c.pos++
	}
	return c.s[start:c.pos], nil
}

// number consumes a decimal integer, optionally negative.
func (c *cursor) number() (int64, error) {
	c.skipSpace()
	start := c.pos
	if c.pos < len(c.s) && c.s[c.pos] == '-' {
		c.pos++
	}
	for c.pos < len(c.s) && c.s[c.pos] >= '0' && c.s[c.pos] <= '9' {
		c.pos++
	}
	if c.pos == start || c.s[start:c.pos] == "-" {
		c.pos = start
		return 0, c.errf("expected number, found %s", c.rest())
	}
	v, err := strconv.ParseInt(c.s[start:c.pos], 10, 64)
	if err != nil {
		return 0, c.errf("bad number %q: %v", c.s[start:c.pos], err)
	}
	return v, nil
}

// size consumes a non-negative decimal and narrows it to uint32. Widths,
// vector lengths, memory depths and indices all go through here.
func (c *cursor) size() (uint32, error) {
	v, err := c.number()
	if err != nil {
		return 0, err
	}
	n, err := safecast.Conv[uint32](v)
	if err != nil {
		return 0, c.errf("size %d out of range", v)
	}
	return n, nil
}

// parseExpr parses one expression: a literal `UInt<8>(5)`, a primitive
// application `add(a, b)`, or a reference chain `io.out[2]`.
func (c *cursor) parseExpr() (circuit.Expr, error) {
	name, err := c.ident()
	if err != nil {
		return circuit.Expr{}, err
	}
	var e circuit.Expr
	switch {
	case (name == "UInt" || name == "SInt") && (c.peek() == '<' || c.peek() == '('):
		e, err = c.parseLit(name == "SInt")
	default:
		if op, ok := circuit.ParsePrimOp(name); ok && c.peek() == '(' {
			e, err = c.parsePrim(op)
		} else {
			e = circuit.RefExpr(name)
		}
	}
	if err != nil {
		return circuit.Expr{}, err
	}
	return c.parsePostfix(e)
}

// parsePostfix applies `.field` and `[index]` selections.
func (c *cursor) parsePostfix(e circuit.Expr) (circuit.Expr, error) {
	for {
		switch {
		case c.eat('.'):
			field, err := c.ident()
			if err != nil {
				return circuit.Expr{}, err
			}
			e = circuit.SubField(e, field)
		case c.eat('['):
			idx, err := c.size()
			if err != nil {
				return circuit.Expr{}, err
			}
			if err := c.expect(']'); err != nil {
				return circuit.Expr{}, err
			}
			e = circuit.SubIndex(e, idx)
		default:
			return e, nil
		}
	}
}

// parseLit parses the tail of `UInt<8>(5)` / `SInt(-3)`; the keyword is
// already consumed.
func (c *cursor) parseLit(signed bool) (circuit.Expr, error) {
	var width uint32
	if c.eat('<') {
		w, err := c.size()
		if err != nil {
			return circuit.Expr{}, err
		}
		if err := c.expect('>'); err != nil {
			return circuit.Expr{}, err
		}
		width = w
	}
	if err := c.expect('('); err != nil {
		return circuit.Expr{}, err
	}
	value, err := c.number()
	if err != nil {
		return circuit.Expr{}, err
	}
	if err := c.expect(')'); err != nil {
		return circuit.Expr{}, err
	}
	if !signed && value < 0 {
		return circuit.Expr{}, c.errf("UInt literal cannot be negative")
	}
	if signed {
		return circuit.SIntLit(value, width), nil
	}
	return circuit.UIntLit(value, width), nil
}

// parsePrim parses the argument list of a primitive application; the op
// name is already consumed.
func (c *cursor) parsePrim(op circuit.PrimOp) (circuit.Expr, error) {
	if err := c.expect('('); err != nil {
		return circuit.Expr{}, err
	}
	var args []circuit.Expr
	if !c.eat(')') {
		for {
			arg, err := c.parseExpr()
			if err != nil {
				return circuit.Expr{}, err
			}
			args = append(args, arg)
			if c.eat(')') {
				break
			}
			if err := c.expect(','); err != nil {
				return circuit.Expr{}, err
			}
		}
	}
	if len(args) != op.Arity() {
		return circuit.Expr{}, c.errf("%s takes %d operands, got %d", op, op.Arity(), len(args))
	}
	return circuit.Prim(op, args...), nil
}
