package lower_test

import (
	"testing"

	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/lower"
)

func mem(name string, depth uint32, seq bool) circuit.Stmt {
	return circuit.Stmt{Kind: circuit.StmtMem, Mem: circuit.MemStmt{
		Name: name, Elem: circuit.UInt(8), Depth: depth, Seq: seq,
	}}
}

// TestReplaceSeqMemsExtracts a deep sequential mem becomes an instance
// of a generated external module with the same port bundles.
func TestReplaceSeqMemsExtracts(t *testing.T) {
	c := &circuit.Circuit{Name: "Top", Modules: []circuit.Module{{
		Name: "Top",
		Body: []circuit.Stmt{mem("tbl", 64, true)},
	}}}
	st := run(t, lower.ReplaceSeqMems(lower.DefaultSeqMemDepth), stateAt(c, form.Mid))

	top := mustModule(t, st.Circuit, "Top")
	if top.Body[0].Kind != circuit.StmtInst {
		t.Fatalf("mem not replaced: %+v", top.Body[0])
	}
	inst := top.Body[0].Inst
	if inst.Name != "tbl" || inst.Module != "Top_tbl_ext" {
		t.Fatalf("instance = %+v", inst)
	}

	ext := mustModule(t, st.Circuit, "Top_tbl_ext")
	if !ext.Ext {
		t.Fatalf("generated module is not external")
	}
	rT, _ := circuit.MemStmt{Elem: circuit.UInt(8), Depth: 64}.MemPortType("r", circuit.AddrWidth(64))
	if got, ok := ext.PortType("r"); !ok || !got.Equal(rT) {
		t.Fatalf("r port = %s, want %s", got, rT)
	}
}

// TestReplaceSeqMemsThreshold shallow seq mems and combinational mems
// of any depth stay put.
func TestReplaceSeqMemsThreshold(t *testing.T) {
	c := &circuit.Circuit{Name: "Top", Modules: []circuit.Module{{
		Name: "Top",
		Body: []circuit.Stmt{
			mem("small", 8, true),
			mem("comb", 1024, false),
			mem("big", 16, true),
		},
	}}}
	st := run(t, lower.ReplaceSeqMems(16), stateAt(c, form.Mid))

	top := mustModule(t, st.Circuit, "Top")
	if top.Body[0].Kind != circuit.StmtMem {
		t.Errorf("seq mem below threshold was replaced")
	}
	if top.Body[1].Kind != circuit.StmtMem {
		t.Errorf("combinational mem was replaced")
	}
	if top.Body[2].Kind != circuit.StmtInst {
		t.Errorf("seq mem at threshold was not replaced")
	}
}

// TestReplaceSeqMemsAnnotates each replacement carries a SeqMemReplaced
// annotation pointing at the instance.
func TestReplaceSeqMemsAnnotates(t *testing.T) {
	c := &circuit.Circuit{Name: "Top", Modules: []circuit.Module{{
		Name: "Top",
		Body: []circuit.Stmt{mem("tbl", 32, true)},
	}}}
	st := run(t, lower.ReplaceSeqMems(16), stateAt(c, form.Mid))

	got := st.Annos.ByOwner("replace-seq-mems")
	if len(got) != 1 {
		t.Fatalf("annotations = %d, want 1", len(got))
	}
	a, ok := got[0].(lower.SeqMemReplaced)
	if !ok {
		t.Fatalf("annotation type = %T", got[0])
	}
	if a.Ref != circuit.ComponentRef("Top", "Top", "tbl") || a.Module != "Top_tbl_ext" || a.Depth != 32 {
		t.Fatalf("annotation = %+v", a)
	}
}

// TestReplaceSeqMemsNameCollision a taken module name gets a numeric
// suffix.
func TestReplaceSeqMemsNameCollision(t *testing.T) {
	c := &circuit.Circuit{Name: "Top", Modules: []circuit.Module{
		{
			Name: "Top",
			Body: []circuit.Stmt{mem("tbl", 32, true)},
		},
		{Name: "Top_tbl_ext"},
	}}
	st := run(t, lower.ReplaceSeqMems(16), stateAt(c, form.Mid))

	top := mustModule(t, st.Circuit, "Top")
	if got := top.Body[0].Inst.Module; got != "Top_tbl_ext2" {
		t.Fatalf("instance module = %s, want Top_tbl_ext2", got)
	}
	if _, ok := st.Circuit.FindModule("Top_tbl_ext2"); !ok {
		t.Fatalf("suffixed external module missing")
	}
}

// TestReplaceSeqMemsNoSeqMems a circuit without qualifying mems passes
// through with no new modules or annotations.
func TestReplaceSeqMemsNoSeqMems(t *testing.T) {
	c := &circuit.Circuit{Name: "Top", Modules: []circuit.Module{{
		Name: "Top",
		Body: []circuit.Stmt{mem("comb", 64, false)},
	}}}
	st := run(t, lower.ReplaceSeqMems(16), stateAt(c, form.Mid))
	if len(st.Circuit.Modules) != 1 {
		t.Fatalf("modules = %d, want 1", len(st.Circuit.Modules))
	}
	if len(st.Annos) != 0 {
		t.Fatalf("annotations = %d, want 0", len(st.Annos))
	}
}
