package circuit

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	// ExprRef names a component of the enclosing module.
	ExprRef ExprKind = iota
	// ExprSubField selects a bundle field or mem port field.
	ExprSubField
	// ExprSubIndex selects a vector element by constant index.
	ExprSubIndex
	// ExprLit is an integer literal.
	ExprLit
	// ExprPrim applies a primitive operation.
	ExprPrim
)

// PrimOp enumerates primitive operations.
type PrimOp uint8

const (
	// OpAdd is addition (result one bit wider than the widest operand).
	OpAdd PrimOp = iota
	// OpSub is subtraction.
	OpSub
	// OpAnd is bitwise and.
	OpAnd
	// OpOr is bitwise or.
	OpOr
	// OpXor is bitwise xor.
	OpXor
	// OpNot is bitwise complement.
	OpNot
	// OpEq is equality (1-bit result).
	OpEq
	// OpMux selects between its second and third operand.
	OpMux
	// OpCat concatenates bit vectors.
	OpCat
)

// String returns the source-level operator name.
func (op PrimOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpNot:
		return "not"
	case OpEq:
		return "eq"
	case OpMux:
		return "mux"
	case OpCat:
		return "cat"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// ParsePrimOp converts a source operator name to a PrimOp.
func ParsePrimOp(s string) (PrimOp, bool) {
	switch s {
	case "add":
		return OpAdd, true
	case "sub":
		return OpSub, true
	case "and":
		return OpAnd, true
	case "or":
		return OpOr, true
	case "xor":
		return OpXor, true
	case "not":
		return OpNot, true
	case "eq":
		return OpEq, true
	case "mux":
		return OpMux, true
	case "cat":
		return OpCat, true
	default:
		return 0, false
	}
}

// Arity returns the operand count the op expects.
func (op PrimOp) Arity() int {
	switch op {
	case OpNot:
		return 1
	case OpMux:
		return 3
	default:
		return 2
	}
}

// Lit is an integer literal with an explicit signedness and width
// (width 0 = unknown, minimal width is inferred).
type Lit struct {
	Signed bool
	Value  int64
	Width  uint32
}

// Expr is one expression node, a tagged union over ExprKind.
type Expr struct {
	Kind ExprKind

	Ref   string // ExprRef
	Sub   *Expr  // ExprSubField, ExprSubIndex
	Field string // ExprSubField
	Index uint32 // ExprSubIndex
	Lit   Lit    // ExprLit
	Op    PrimOp // ExprPrim
	Args  []Expr // ExprPrim
}

// RefExpr builds a component reference expression.
func RefExpr(name string) Expr { return Expr{Kind: ExprRef, Ref: name} }

// SubField builds a field selection expression.
func SubField(sub Expr, field string) Expr {
	return Expr{Kind: ExprSubField, Sub: &sub, Field: field}
}

// SubIndex builds a constant index selection expression.
func SubIndex(sub Expr, index uint32) Expr {
	return Expr{Kind: ExprSubIndex, Sub: &sub, Index: index}
}

// UIntLit builds an unsigned literal expression.
func UIntLit(value int64, width uint32) Expr {
	return Expr{Kind: ExprLit, Lit: Lit{Value: value, Width: width}}
}

// SIntLit builds a signed literal expression.
func SIntLit(value int64, width uint32) Expr {
	return Expr{Kind: ExprLit, Lit: Lit{Signed: true, Value: value, Width: width}}
}

// Prim builds a primitive operation expression.
func Prim(op PrimOp, args ...Expr) Expr {
	return Expr{Kind: ExprPrim, Op: op, Args: args}
}

// Mux builds mux(cond, high, low).
func Mux(cond, high, low Expr) Expr { return Prim(OpMux, cond, high, low) }

// RootRef returns the component name at the root of a reference chain
// (a, a.b, a[0].c all root at "a") and false for non-reference exprs.
func (e Expr) RootRef() (string, bool) {
	switch e.Kind {
	case ExprRef:
		return e.Ref, true
	case ExprSubField, ExprSubIndex:
		return e.Sub.RootRef()
	default:
		return "", false
	}
}

// Equal reports structural equality of two expressions.
func (e Expr) Equal(o Expr) bool {
	if e.Kind != o.Kind {
		return false
	}
	switch e.Kind {
	case ExprRef:
		return e.Ref == o.Ref
	case ExprSubField:
		return e.Field == o.Field && e.Sub.Equal(*o.Sub)
	case ExprSubIndex:
		return e.Index == o.Index && e.Sub.Equal(*o.Sub)
	case ExprLit:
		return e.Lit == o.Lit
	case ExprPrim:
		if e.Op != o.Op || len(e.Args) != len(o.Args) {
			return false
		}
		for i := range e.Args {
			if !e.Args[i].Equal(o.Args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the expression in source syntax.
func (e Expr) String() string {
	switch e.Kind {
	case ExprRef:
		return e.Ref
	case ExprSubField:
		return e.Sub.String() + "." + e.Field
	case ExprSubIndex:
		return e.Sub.String() + "[" + strconv.FormatUint(uint64(e.Index), 10) + "]"
	case ExprLit:
		name := "UInt"
		if e.Lit.Signed {
			name = "SInt"
		}
		if e.Lit.Width == 0 {
			return fmt.Sprintf("%s(%d)", name, e.Lit.Value)
		}
		return fmt.Sprintf("%s<%d>(%d)", name, e.Lit.Width, e.Lit.Value)
	case ExprPrim:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = a.String()
		}
		return e.Op.String() + "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprintf("expr(%d)", uint8(e.Kind))
	}
}
