package parser

import "flux/internal/circuit"

// parseType parses a type: UInt, UInt<8>, SInt<4>, Clock, a bundle
// `{ a : UInt<8>, b : Clock }`, or any of those with vector suffixes
// `[n]`. Suffixes nest left to right: `UInt<8>[4][2]` is two vectors of
// four bytes.
func (c *cursor) parseType() (circuit.Type, error) {
	t, err := c.parseBaseType()
	if err != nil {
		return circuit.Type{}, err
	}
	for c.eat('[') {
		n, err := c.size()
		if err != nil {
			return circuit.Type{}, err
		}
		if err := c.expect(']'); err != nil {
			return circuit.Type{}, err
		}
		t = circuit.Vector(t, n)
	}
	return t, nil
}

func (c *cursor) parseBaseType() (circuit.Type, error) {
	if c.eat('{') {
		return c.parseBundle()
	}
	name, err := c.ident()
	if err != nil {
		return circuit.Type{}, err
	}
	switch name {
	case "Clock":
		return circuit.Clock(), nil
	case "UInt", "SInt":
		var width uint32
		if c.eat('<') {
			w, err := c.size()
			if err != nil {
				return circuit.Type{}, err
			}
			if err := c.expect('>'); err != nil {
				return circuit.Type{}, err
			}
			if w == 0 {
				return circuit.Type{}, c.errf("zero width; omit <0> to leave the width unknown")
			}
			width = w
		}
		if name == "SInt" {
			return circuit.SInt(width), nil
		}
		return circuit.UInt(width), nil
	default:
		return circuit.Type{}, c.errf("unknown type %q", name)
	}
}

// parseBundle parses bundle fields after the opening brace.
func (c *cursor) parseBundle() (circuit.Type, error) {
	var fields []circuit.Field
	if !c.eat('}') {
		for {
			name, err := c.ident()
			if err != nil {
				return circuit.Type{}, err
			}
			if err := c.expect(':'); err != nil {
				return circuit.Type{}, err
			}
			ft, err := c.parseType()
			if err != nil {
				return circuit.Type{}, err
			}
			fields = append(fields, circuit.Field{Name: name, Type: ft})
			if c.eat('}') {
				break
			}
			if err := c.expect(','); err != nil {
				return circuit.Type{}, err
			}
		}
	}
	if len(fields) == 0 {
		return circuit.Type{}, c.errf("empty bundle")
	}
	return circuit.Bundle(fields...), nil
}
