package circuit

import (
	"fmt"
	"strings"
)

// TypeKind enumerates circuit type kinds.
type TypeKind uint8

const (
	// TypeUInt is an unsigned integer wire type.
	TypeUInt TypeKind = iota
	// TypeSInt is a signed integer wire type.
	TypeSInt
	// TypeClock is the clock type.
	TypeClock
	// TypeVector is a fixed-length vector of elements.
	TypeVector
	// TypeBundle is a named grouping of fields.
	TypeBundle
)

// Type describes the shape of a circuit value. UInt/SInt widths of zero
// mean "unknown, to be inferred"; width inference replaces them before the
// circuit reaches mid form.
type Type struct {
	Kind   TypeKind
	Width  uint32  // UInt, SInt; 0 = unknown
	Elem   *Type   // Vector
	Len    uint32  // Vector
	Fields []Field // Bundle
}

// Field is one named slot of a bundle type.
type Field struct {
	Name string
	Type Type
}

// UInt returns an unsigned type of the given width (0 = unknown).
func UInt(width uint32) Type { return Type{Kind: TypeUInt, Width: width} }

// SInt returns a signed type of the given width (0 = unknown).
func SInt(width uint32) Type { return Type{Kind: TypeSInt, Width: width} }

// Clock returns the clock type.
func Clock() Type { return Type{Kind: TypeClock} }

// Vector returns a vector type of n elements.
func Vector(elem Type, n uint32) Type {
	return Type{Kind: TypeVector, Elem: &elem, Len: n}
}

// Bundle returns a bundle type over the given fields.
func Bundle(fields ...Field) Type {
	return Type{Kind: TypeBundle, Fields: fields}
}

// Ground reports whether the type is a leaf wire type (no aggregates).
func (t Type) Ground() bool {
	switch t.Kind {
	case TypeUInt, TypeSInt, TypeClock:
		return true
	default:
		return false
	}
}

// Sized reports whether every width in the type is known.
func (t Type) Sized() bool {
	switch t.Kind {
	case TypeUInt, TypeSInt:
		return t.Width > 0
	case TypeClock:
		return true
	case TypeVector:
		return t.Elem.Sized()
	case TypeBundle:
		for _, f := range t.Fields {
			if !f.Type.Sized() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Equal reports structural equality of two types.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeUInt, TypeSInt:
		return t.Width == o.Width
	case TypeClock:
		return true
	case TypeVector:
		return t.Len == o.Len && t.Elem.Equal(*o.Elem)
	case TypeBundle:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the type in source syntax.
func (t Type) String() string {
	switch t.Kind {
	case TypeUInt:
		if t.Width == 0 {
			return "UInt"
		}
		return fmt.Sprintf("UInt<%d>", t.Width)
	case TypeSInt:
		if t.Width == 0 {
			return "SInt"
		}
		return fmt.Sprintf("SInt<%d>", t.Width)
	case TypeClock:
		return "Clock"
	case TypeVector:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Len)
	case TypeBundle:
		var b strings.Builder
		b.WriteString("{ ")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(" : ")
			b.WriteString(f.Type.String())
		}
		b.WriteString(" }")
		return b.String()
	default:
		return fmt.Sprintf("type(%d)", uint8(t.Kind))
	}
}
