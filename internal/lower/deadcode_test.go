package lower_test

import (
	"testing"

	"flux/internal/anno"
	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/lower"
)

// TestDeadCodeRemovesUnreadWire an unread wire and the connect driving
// it both go, with a deletion recorded.
func TestDeadCodeRemovesUnreadWire(t *testing.T) {
	c := lowCircuit(
		wire("dead", circuit.UInt(8)),
		connect(circuit.RefExpr("dead"), circuit.RefExpr("a")),
		connect(circuit.RefExpr("out"), circuit.RefExpr("a")),
	)
	st := runRaw(t, lower.DeadCode(), stateAt(c, form.Low))

	top := mustModule(t, st.Circuit, "Top")
	wantStrings(t, stmtNames(top), nil)
	wantStrings(t, connects(top), []string{"out <= a"})

	succ, ok := st.Renames.Get(circuit.ComponentRef("Top", "Top", "dead"))
	if !ok || len(succ) != 0 {
		t.Fatalf("deletion record = %v %v, want empty successors", succ, ok)
	}
}

// TestDeadCodeKeepsLiveChain everything an output transitively reads
// stays.
func TestDeadCodeKeepsLiveChain(t *testing.T) {
	c := lowCircuit(
		node("t", circuit.Prim(circuit.OpAdd, circuit.RefExpr("a"), circuit.RefExpr("a"))),
		wire("w", circuit.UInt(9)),
		connect(circuit.RefExpr("w"), circuit.RefExpr("t")),
		connect(circuit.RefExpr("out"), circuit.RefExpr("w")),
	)
	st := runRaw(t, lower.DeadCode(), stateAt(c, form.Low))

	top := mustModule(t, st.Circuit, "Top")
	wantStrings(t, stmtNames(top), []string{"t", "w"})
	if !st.Renames.Empty() {
		t.Fatalf("live-only module recorded deletions")
	}
}

// TestDeadCodeSelfDrivenReg a reg read only by its own connect is
// dead.
func TestDeadCodeSelfDrivenReg(t *testing.T) {
	c := lowCircuit(
		circuit.Stmt{Kind: circuit.StmtReg, Reg: circuit.RegStmt{
			Name: "r", Type: circuit.UInt(8), Clock: circuit.RefExpr("a"),
		}},
		connect(circuit.RefExpr("r"), circuit.RefExpr("r")),
		connect(circuit.RefExpr("out"), circuit.RefExpr("a")),
	)
	st := runRaw(t, lower.DeadCode(), stateAt(c, form.Low))

	top := mustModule(t, st.Circuit, "Top")
	wantStrings(t, stmtNames(top), nil)
	if _, ok := st.Renames.Get(circuit.ComponentRef("Top", "Top", "r")); !ok {
		t.Fatalf("self-driven reg not recorded as deleted")
	}
}

// TestDeadCodeDontTouchProtects a DontTouch annotation keeps an
// otherwise dead wire and its driver.
func TestDeadCodeDontTouchProtects(t *testing.T) {
	c := lowCircuit(
		wire("keep", circuit.UInt(8)),
		connect(circuit.RefExpr("keep"), circuit.RefExpr("a")),
		connect(circuit.RefExpr("out"), circuit.RefExpr("a")),
	)
	st := stateAt(c, form.Low).WithAnnos(anno.DontTouch{Ref: circuit.ComponentRef("Top", "Top", "keep")})
	got := runRaw(t, lower.DeadCode(), st)

	top := mustModule(t, got.Circuit, "Top")
	wantStrings(t, stmtNames(top), []string{"keep"})
	wantStrings(t, connects(top), []string{"keep <= a", "out <= a"})
}

// TestDeadCodeAnnotationVanishes an annotation on a deleted component
// disappears after reconciliation, with no deletion record.
func TestDeadCodeAnnotationVanishes(t *testing.T) {
	c := lowCircuit(
		wire("dead", circuit.UInt(8)),
		connect(circuit.RefExpr("dead"), circuit.RefExpr("a")),
		connect(circuit.RefExpr("out"), circuit.RefExpr("a")),
	)
	mark := lower.SeqMemReplaced{Ref: circuit.ComponentRef("Top", "Top", "dead")}
	st := stateAt(c, form.Low).WithAnnos(mark)

	got := run(t, lower.DeadCode(), st)
	if len(got.Annos) != 0 {
		t.Fatalf("annotations after deletion = %v, want none", got.Annos)
	}
}

// TestDeadCodeInstancesAndMemsLive instances and mems are liveness
// roots even when nothing reads them.
func TestDeadCodeInstancesAndMemsLive(t *testing.T) {
	c := &circuit.Circuit{Name: "Top", Modules: []circuit.Module{
		{
			Name: "Top",
			Body: []circuit.Stmt{
				instOf("u", "Leaf"),
				mem("tbl", 32, true),
			},
		},
		{Name: "Leaf"},
	}}
	st := runRaw(t, lower.DeadCode(), stateAt(c, form.Low))
	top := mustModule(t, st.Circuit, "Top")
	wantStrings(t, stmtNames(top), []string{"u", "tbl"})
}
