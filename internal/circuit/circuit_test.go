package circuit_test

import (
	"strings"
	"testing"

	"flux/internal/circuit"
)

// buildAdder returns a small two-module circuit used across tests.
func buildAdder() *circuit.Circuit {
	inner := circuit.Module{
		Name: "Add",
		Ports: []circuit.Port{
			{Name: "x", Dir: circuit.Input, Type: circuit.UInt(8)},
			{Name: "y", Dir: circuit.Input, Type: circuit.UInt(8)},
			{Name: "z", Dir: circuit.Output, Type: circuit.UInt(8)},
		},
		Body: []circuit.Stmt{
			{Kind: circuit.StmtNode, Node: circuit.NodeStmt{
				Name:  "sum",
				Value: circuit.Prim(circuit.OpAdd, circuit.RefExpr("x"), circuit.RefExpr("y")),
			}},
			{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{
				Loc:   circuit.RefExpr("z"),
				Value: circuit.RefExpr("sum"),
			}},
		},
	}
	top := circuit.Module{
		Name: "Top",
		Ports: []circuit.Port{
			{Name: "clk", Dir: circuit.Input, Type: circuit.Clock()},
			{Name: "a", Dir: circuit.Input, Type: circuit.UInt(8)},
			{Name: "out", Dir: circuit.Output, Type: circuit.UInt(8)},
		},
		Body: []circuit.Stmt{
			{Kind: circuit.StmtInst, Inst: circuit.InstStmt{Name: "add", Module: "Add"}},
			{Kind: circuit.StmtWire, Wire: circuit.WireStmt{Name: "tmp", Type: circuit.UInt(8)}},
			{Kind: circuit.StmtWhen, When: &circuit.WhenStmt{
				Cond: circuit.RefExpr("a"),
				Then: []circuit.Stmt{
					{Kind: circuit.StmtNode, Node: circuit.NodeStmt{Name: "inner", Value: circuit.RefExpr("tmp")}},
				},
			}},
			{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{
				Loc:   circuit.RefExpr("out"),
				Value: circuit.RefExpr("tmp"),
			}},
		},
	}
	return &circuit.Circuit{Name: "Top", Modules: []circuit.Module{top, inner}}
}

// TestTypeString checks the rendered forms of ground and aggregate types.
func TestTypeString(t *testing.T) {
	cases := []struct {
		ty   circuit.Type
		want string
	}{
		{circuit.UInt(8), "UInt<8>"},
		{circuit.SInt(16), "SInt<16>"},
		{circuit.UInt(0), "UInt"},
		{circuit.Clock(), "Clock"},
		{circuit.Vector(circuit.UInt(4), 3), "UInt<4>[3]"},
		{circuit.Bundle(
			circuit.Field{Name: "a", Type: circuit.UInt(1)},
			circuit.Field{Name: "b", Type: circuit.SInt(2)},
		), "{ a : UInt<1>, b : SInt<2> }"},
	}
	for _, tc := range cases {
		if got := tc.ty.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

// TestTypeEqual distinguishes widths, kinds, and aggregate shapes.
func TestTypeEqual(t *testing.T) {
	if !circuit.UInt(8).Equal(circuit.UInt(8)) {
		t.Fatalf("identical ground types must be equal")
	}
	if circuit.UInt(8).Equal(circuit.UInt(9)) {
		t.Fatalf("widths must distinguish types")
	}
	if circuit.UInt(8).Equal(circuit.SInt(8)) {
		t.Fatalf("signedness must distinguish types")
	}
	v1 := circuit.Vector(circuit.UInt(4), 3)
	v2 := circuit.Vector(circuit.UInt(4), 3)
	if !v1.Equal(v2) {
		t.Fatalf("identical vectors must be equal")
	}
	if v1.Equal(circuit.Vector(circuit.UInt(4), 4)) {
		t.Fatalf("vector lengths must distinguish types")
	}
	b1 := circuit.Bundle(circuit.Field{Name: "a", Type: circuit.UInt(1)})
	b2 := circuit.Bundle(circuit.Field{Name: "b", Type: circuit.UInt(1)})
	if b1.Equal(b2) {
		t.Fatalf("field names must distinguish bundles")
	}
}

// TestExprString renders the common expression shapes.
func TestExprString(t *testing.T) {
	e := circuit.Prim(circuit.OpAdd,
		circuit.SubField(circuit.RefExpr("io"), "a"),
		circuit.SubIndex(circuit.RefExpr("v"), 2),
	)
	if got := e.String(); got != "add(io.a, v[2])" {
		t.Errorf("String() = %q", got)
	}
	if got := circuit.UIntLit(42, 8).String(); got != `UInt<8>(42)` {
		t.Errorf("lit String() = %q", got)
	}
	m := circuit.Mux(circuit.RefExpr("sel"), circuit.RefExpr("a"), circuit.RefExpr("b"))
	if got := m.String(); got != "mux(sel, a, b)" {
		t.Errorf("mux String() = %q", got)
	}
}

// TestExprRootRef finds the base reference under field and index chains.
func TestExprRootRef(t *testing.T) {
	e := circuit.SubIndex(circuit.SubField(circuit.RefExpr("io"), "vec"), 1)
	root, ok := e.RootRef()
	if !ok || root != "io" {
		t.Fatalf("RootRef() = %q, %v; want io, true", root, ok)
	}
	if _, ok := circuit.UIntLit(1, 1).RootRef(); ok {
		t.Fatalf("literals have no root reference")
	}
}

// TestDeclaredNames walks into when blocks.
func TestDeclaredNames(t *testing.T) {
	c := buildAdder()
	top, ok := c.Top()
	if !ok {
		t.Fatalf("top module missing")
	}
	got := top.DeclaredNames()
	want := []string{"add", "tmp", "inner"}
	if len(got) != len(want) {
		t.Fatalf("DeclaredNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DeclaredNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestCloneIsDeep mutating a clone must not leak into the source.
func TestCloneIsDeep(t *testing.T) {
	c := buildAdder()
	cl := c.Clone()
	top, _ := cl.Top()
	top.Body[0].Inst.Name = "renamed"
	top.WalkStmts(func(s *circuit.Stmt) {
		if s.Kind == circuit.StmtNode {
			s.Node.Name = "mutated"
		}
	})

	origTop, _ := c.Top()
	if origTop.Body[0].Inst.Name != "add" {
		t.Fatalf("clone shares instance storage with source")
	}
	var names []string
	origTop.WalkStmts(func(s *circuit.Stmt) {
		if s.Kind == circuit.StmtNode {
			names = append(names, s.Node.Name)
		}
	})
	for _, n := range names {
		if n == "mutated" {
			t.Fatalf("clone shares when-block storage with source")
		}
	}
}

// TestDump emits source syntax with module and statement nesting.
func TestDump(t *testing.T) {
	c := buildAdder()
	out := c.String()
	for _, frag := range []string{
		"circuit Top :",
		"module Top :",
		"module Add :",
		"input a : UInt<8>",
		"inst add of Add",
		"when a :",
		"node sum = add(x, y)",
		"z <= sum",
	} {
		if !strings.Contains(out, frag) {
			t.Errorf("dump missing %q in:\n%s", frag, out)
		}
	}
}

// TestAddrWidth covers the depth-to-bits edge cases.
func TestAddrWidth(t *testing.T) {
	cases := []struct {
		depth uint32
		want  uint32
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{16, 4},
		{17, 5},
	}
	for _, tc := range cases {
		if got := circuit.AddrWidth(tc.depth); got != tc.want {
			t.Errorf("AddrWidth(%d) = %d, want %d", tc.depth, got, tc.want)
		}
	}
}

// TestRefString formats the three reference shapes.
func TestRefString(t *testing.T) {
	if got := circuit.CircuitRef("Top").String(); got != "Top" {
		t.Errorf("circuit ref = %q", got)
	}
	if got := circuit.ModuleRef("Top", "Add").String(); got != "Top.Add" {
		t.Errorf("module ref = %q", got)
	}
	if got := circuit.ComponentRef("Top", "Add", "sum").String(); got != "Top.Add.sum" {
		t.Errorf("component ref = %q", got)
	}
	r := circuit.ComponentRef("Top", "Add", "sum")
	if !r.IsComponent() || r.IsModule() || r.IsCircuit() {
		t.Errorf("ref kind predicates wrong for %v", r)
	}
}
