package anno_test

import (
	"testing"

	"flux/internal/anno"
	"flux/internal/circuit"
)

// TestStoreByOwnerAllMatches owner lookup must return every match, not
// just the first.
func TestStoreByOwnerAllMatches(t *testing.T) {
	s := anno.Store{
		anno.DontTouch{Ref: circuit.ComponentRef("Top", "Top", "a")},
		anno.EmitRequest{Ref: circuit.CircuitRef("Top")},
		anno.DontTouch{Ref: circuit.ComponentRef("Top", "Top", "b")},
	}
	got := s.ByOwner(anno.OwnerDeadCode)
	if len(got) != 2 {
		t.Fatalf("ByOwner returned %d annotations, want 2", len(got))
	}
	if len(s.ByOwner(anno.OwnerEmit)) != 1 {
		t.Fatalf("emit owner lookup failed")
	}
	if len(s.ByOwner("nobody")) != 0 {
		t.Fatalf("unknown owner must match nothing")
	}
}

// TestStoreByTargetAllMatches target lookup must return every match.
func TestStoreByTargetAllMatches(t *testing.T) {
	ref := circuit.ComponentRef("Top", "Top", "x")
	s := anno.Store{
		anno.DontTouch{Ref: ref},
		anno.EmitRequest{Ref: circuit.CircuitRef("Top")},
		anno.DontTouch{Ref: ref},
	}
	if got := s.ByTarget(ref); len(got) != 2 {
		t.Fatalf("ByTarget returned %d annotations, want 2", len(got))
	}
}

// TestRenameMapAbsentMeansUnchanged entities without a record map to
// themselves.
func TestRenameMapAbsentMeansUnchanged(t *testing.T) {
	var m anno.RenameMap
	if !m.Empty() {
		t.Fatalf("zero value must be empty")
	}
	if _, ok := m.Get(circuit.ComponentRef("Top", "Top", "x")); ok {
		t.Fatalf("absent entity must report no record")
	}
}

// TestRenameMapCardinality zero successors is deletion, several is a
// split, and a later record replaces an earlier one.
func TestRenameMapCardinality(t *testing.T) {
	x := circuit.ComponentRef("Top", "Top", "x")
	y := circuit.ComponentRef("Top", "Top", "y")
	a := circuit.ComponentRef("Top", "Top", "x_a")
	b := circuit.ComponentRef("Top", "Top", "x_b")

	var m anno.RenameMap
	m.Rename(x, a, b)
	m.Delete(y)

	succ, ok := m.Get(x)
	if !ok || len(succ) != 2 || succ[0] != a || succ[1] != b {
		t.Fatalf("split record = %v, %v", succ, ok)
	}
	succ, ok = m.Get(y)
	if !ok || len(succ) != 0 {
		t.Fatalf("deletion must be recorded with zero successors, got %v, %v", succ, ok)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	m.Rename(x, a)
	if succ, _ := m.Get(x); len(succ) != 1 || succ[0] != a {
		t.Fatalf("re-recording must replace, got %v", succ)
	}
}

// TestDeletedChainOrder nested deletions list deleters earliest first.
func TestDeletedChainOrder(t *testing.T) {
	orig := anno.DontTouch{Ref: circuit.ComponentRef("Top", "Top", "x")}
	first := anno.Deleted{By: "const-prop", Orig: orig}
	second := anno.Deleted{By: "dead-code", Orig: first}

	chain := second.Chain()
	if len(chain) != 2 || chain[0] != "const-prop" || chain[1] != "dead-code" {
		t.Fatalf("Chain() = %v, want [const-prop dead-code]", chain)
	}
	if second.Original() != orig {
		t.Fatalf("Original() must unwrap every layer")
	}
	if second.Target() != orig.Target() {
		t.Fatalf("Target() must delegate to the wrapped annotation")
	}
	if second.Owner() != orig.Owner() {
		t.Fatalf("Owner() must delegate to the wrapped annotation")
	}
}

// TestDeletedUpdateRewraps renames applied to a deleted record keep the
// deletion provenance on every successor.
func TestDeletedUpdateRewraps(t *testing.T) {
	x := circuit.ComponentRef("Top", "Top", "x")
	a := circuit.ComponentRef("Top", "Top", "x_a")
	b := circuit.ComponentRef("Top", "Top", "x_b")
	d := anno.Deleted{By: "dead-code", Orig: anno.DontTouch{Ref: x}}

	out := d.Update([]circuit.Ref{a, b})
	if len(out) != 2 {
		t.Fatalf("Update fan-out = %d annotations, want 2", len(out))
	}
	for i, want := range []circuit.Ref{a, b} {
		dd, ok := out[i].(anno.Deleted)
		if !ok {
			t.Fatalf("successor %d lost its deletion record: %T", i, out[i])
		}
		if dd.By != "dead-code" || dd.Target() != want {
			t.Fatalf("successor %d = %+v, want target %v", i, dd, want)
		}
	}
}

// TestKindUpdateMirrorsCardinality built-in kinds follow the rename
// cardinality: vanish on deletion, fan out on split.
func TestKindUpdateMirrorsCardinality(t *testing.T) {
	x := circuit.ComponentRef("Top", "Top", "x")
	dt := anno.DontTouch{Ref: x}

	if out := dt.Update(nil); len(out) != 0 {
		t.Fatalf("deletion must drop the annotation, got %v", out)
	}
	out := dt.Update([]circuit.Ref{
		circuit.ComponentRef("Top", "Top", "x_a"),
		circuit.ComponentRef("Top", "Top", "x_b"),
	})
	if len(out) != 2 {
		t.Fatalf("split must fan out, got %d", len(out))
	}
	for _, a := range out {
		if _, ok := a.(anno.DontTouch); !ok {
			t.Fatalf("fan-out changed the annotation kind: %T", a)
		}
	}
}

// TestEmittedArtifactTargets artifacts target the circuit and module
// they were rendered from.
func TestEmittedArtifactTargets(t *testing.T) {
	ec := anno.EmittedCircuit{Name: "Top", Text: "circuit Top :\n"}
	if ec.Target() != circuit.CircuitRef("Top") {
		t.Fatalf("EmittedCircuit target = %v", ec.Target())
	}
	em := anno.EmittedModule{Circuit: "Top", Name: "Add", Text: "module Add :\n"}
	if em.Target() != circuit.ModuleRef("Top", "Add") {
		t.Fatalf("EmittedModule target = %v", em.Target())
	}
	if ec.Owner() != anno.OwnerEmit || em.Owner() != anno.OwnerEmit {
		t.Fatalf("artifacts must be owned by the emitter")
	}
}
