package pipeline_test

import (
	"errors"
	"strings"
	"testing"

	"flux/internal/circuit"
	"flux/internal/emit"
	"flux/internal/form"
	"flux/internal/lower"
	"flux/internal/pass"
	"flux/internal/pipeline"
)

// sourceCircuit is a small circuit in source form: one conditional
// override and one width left to inference.
func sourceCircuit() *circuit.Circuit {
	ref := circuit.RefExpr
	return &circuit.Circuit{Name: "Top", Modules: []circuit.Module{{
		Name: "Top",
		Ports: []circuit.Port{
			{Name: "a", Dir: circuit.Input, Type: circuit.UInt(8)},
			{Name: "b", Dir: circuit.Input, Type: circuit.UInt(8)},
			{Name: "sel", Dir: circuit.Input, Type: circuit.UInt(1)},
			{Name: "out", Dir: circuit.Output, Type: circuit.UInt(8)},
		},
		Body: []circuit.Stmt{
			{Kind: circuit.StmtWire, Wire: circuit.WireStmt{Name: "w", Type: circuit.UInt(0)}},
			{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{Loc: ref("w"), Value: ref("a")}},
			{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{Loc: ref("out"), Value: ref("b")}},
			{Kind: circuit.StmtWhen, When: &circuit.WhenStmt{
				Cond: ref("sel"),
				Then: []circuit.Stmt{
					{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{Loc: ref("out"), Value: ref("w")}},
				},
			}},
		},
	}}}
}

func fullLowering(t *testing.T) []pass.Pass {
	t.Helper()
	passes, err := pipeline.CanonicalLowering(form.Source, form.Low)
	if err != nil {
		t.Fatalf("canonical lowering: %v", err)
	}
	return passes
}

// TestNewRejectsIllegalAdjacency a pass expecting a looser form than
// its predecessor produces fails construction.
func TestNewRejectsIllegalAdjacency(t *testing.T) {
	_, err := pipeline.New([]pass.Pass{
		fakePass{"a", form.High, form.Mid},
		fakePass{"c", form.High, form.High},
	}, nil)
	if !errors.Is(err, pipeline.ErrIllegalPipeline) {
		t.Fatalf("illegal adjacency: got %v", err)
	}
	var le *pipeline.LegalityError
	if !errors.As(err, &le) || le.Prev != "a" || le.Next != "c" {
		t.Fatalf("legality error = %+v", le)
	}
}

// TestNewAcceptsLegalSchedule equal and stricter-input adjacencies both
// construct.
func TestNewAcceptsLegalSchedule(t *testing.T) {
	_, err := pipeline.New([]pass.Pass{
		fakePass{"a", form.High, form.Mid},
		fakePass{"b", form.Mid, form.Mid},
		fakePass{"c", form.Low, form.Low}, // input stricter than produced mid is fine
	}, nil)
	if err != nil {
		t.Fatalf("legal schedule rejected: %v", err)
	}
}

// TestNewChecksEmitter the terminal emitter participates in the
// adjacency check.
func TestNewChecksEmitter(t *testing.T) {
	passes := []pass.Pass{fakePass{"a", form.High, form.Mid}}
	if _, err := pipeline.New(passes, emit.Emitter(form.High)); !errors.Is(err, pipeline.ErrIllegalPipeline) {
		t.Fatalf("emitter above produced form: got %v", err)
	}
	if _, err := pipeline.New(passes, emit.Emitter(form.Mid)); err != nil {
		t.Fatalf("matching emitter rejected: %v", err)
	}
}

// TestScheduleAppendsEmitter the emitter is last in the effective list.
func TestScheduleAppendsEmitter(t *testing.T) {
	pl, err := pipeline.New(fullLowering(t), emit.Emitter(form.Low))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	full, err := pl.Schedule(nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	wantNames(t, full, []string{"source-to-high", "high-to-mid", "mid-to-low", "emit"})
}

// TestScheduleRevalidatesExtras merge only repairs raised forms, so a
// custom pass lowering beyond its insertion point leaves an illegal
// pair that scheduling must catch.
func TestScheduleRevalidatesExtras(t *testing.T) {
	pl, err := pipeline.New([]pass.Pass{
		fakePass{"a", form.High, form.Mid},
		fakePass{"b", form.Mid, form.Low},
	}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// x inserts after a, producing low where b expects mid
	_, err = pl.Schedule([]pass.Pass{fakePass{"x", form.Mid, form.Low}})
	if !errors.Is(err, pipeline.ErrIllegalPipeline) {
		t.Fatalf("illegal merged schedule: got %v", err)
	}
}

// TestPipelineRunLowersToLow the canonical chain takes a source
// circuit to low form with whens gone and widths filled.
func TestPipelineRunLowersToLow(t *testing.T) {
	pl, err := pipeline.New(fullLowering(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	st, err := pl.Run(pass.New(sourceCircuit(), form.Source), nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Form != form.Low {
		t.Fatalf("final form = %s, want %s", st.Form, form.Low)
	}

	top, ok := st.Circuit.FindModule("Top")
	if !ok {
		t.Fatalf("top module missing")
	}
	text := top.String()
	if !strings.Contains(text, "out <= mux(sel, w, b)") {
		t.Errorf("when not folded into mux:\n%s", text)
	}
	if !strings.Contains(text, "wire w : UInt<8>") {
		t.Errorf("wire width not inferred:\n%s", text)
	}
}

// TestPipelineRunRejectsWrongStart a pipeline expecting source form
// rejects a snapshot already lowered.
func TestPipelineRunRejectsWrongStart(t *testing.T) {
	pl, err := pipeline.New(fullLowering(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = pl.Run(pass.New(sourceCircuit(), form.Low), nil, nil)
	if !errors.Is(err, pass.ErrInputFormTooStrict) {
		t.Fatalf("lowered snapshot into source pipeline: got %v", err)
	}
}

// TestPipelineRunWithExtras an extra dedup merges in after the first
// canonical step and collapses duplicate leaves.
func TestPipelineRunWithExtras(t *testing.T) {
	leaf := func(name string) circuit.Module {
		return circuit.Module{
			Name: name,
			Ports: []circuit.Port{
				{Name: "x", Dir: circuit.Input, Type: circuit.UInt(8)},
				{Name: "y", Dir: circuit.Output, Type: circuit.UInt(8)},
			},
			Body: []circuit.Stmt{
				{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{
					Loc: circuit.RefExpr("y"), Value: circuit.RefExpr("x"),
				}},
			},
		}
	}
	ref := circuit.RefExpr
	sel := func(inst, port string) circuit.Expr { return circuit.SubField(ref(inst), port) }
	c := &circuit.Circuit{Name: "Top", Modules: []circuit.Module{
		{
			Name: "Top",
			Ports: []circuit.Port{
				{Name: "a", Dir: circuit.Input, Type: circuit.UInt(8)},
				{Name: "out", Dir: circuit.Output, Type: circuit.UInt(8)},
			},
			Body: []circuit.Stmt{
				{Kind: circuit.StmtInst, Inst: circuit.InstStmt{Name: "u0", Module: "LeafA"}},
				{Kind: circuit.StmtInst, Inst: circuit.InstStmt{Name: "u1", Module: "LeafB"}},
				{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{Loc: sel("u0", "x"), Value: ref("a")}},
				{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{Loc: sel("u1", "x"), Value: ref("a")}},
				{Kind: circuit.StmtConnect, Connect: circuit.ConnectStmt{
					Loc: ref("out"), Value: circuit.Prim(circuit.OpAnd, sel("u0", "y"), sel("u1", "y")),
				}},
			},
		},
		leaf("LeafA"),
		leaf("LeafB"),
	}}

	pl, err := pipeline.New(fullLowering(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	st, err := pl.Run(pass.New(c, form.Source), []pass.Pass{lower.Dedup()}, nil)
	if err != nil {
		t.Fatalf("run with dedup: %v", err)
	}

	if len(st.Circuit.Modules) != 2 {
		t.Fatalf("modules after dedup run = %d, want 2", len(st.Circuit.Modules))
	}
	if _, ok := st.Circuit.FindModule("LeafB"); ok {
		t.Fatalf("duplicate module survived the merged schedule")
	}
}

// TestPipelineHookSeesEmitter the hook observes the emitter as the
// final completed pass.
func TestPipelineHookSeesEmitter(t *testing.T) {
	pl, err := pipeline.New(fullLowering(t), emit.Emitter(form.Low))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var events []pass.Event
	hook := func(ev pass.Event) { events = append(events, ev) }
	if _, err := pl.Run(pass.New(sourceCircuit(), form.Source), nil, hook); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("hook saw no events")
	}
	last := events[len(events)-1]
	if last.Pass != "emit" || last.Status != pass.StatusDone {
		t.Fatalf("last event = %s %s, want emit done", last.Pass, last.Status)
	}
}

// TestEmitCircuit the convenience wrapper requests emission and hands
// back the artifact.
func TestEmitCircuit(t *testing.T) {
	pl, err := pipeline.New(fullLowering(t), emit.Emitter(form.Low))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	art, err := pl.EmitCircuit(pass.New(sourceCircuit(), form.Source), nil, nil)
	if err != nil {
		t.Fatalf("emit circuit: %v", err)
	}
	if art.Name != "Top" {
		t.Errorf("artifact name = %s, want Top", art.Name)
	}
	if !strings.HasPrefix(art.Text, "circuit Top :\n") {
		t.Errorf("artifact text starts %q", art.Text)
	}
	if !strings.Contains(art.Text, "out <= mux(sel, w, b)") {
		t.Errorf("artifact text missing lowered connect:\n%s", art.Text)
	}
}

// TestEmitCircuitWithoutEmitter no emitter, no artifact.
func TestEmitCircuitWithoutEmitter(t *testing.T) {
	pl, err := pipeline.New(fullLowering(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = pl.EmitCircuit(pass.New(sourceCircuit(), form.Source), nil, nil)
	if !errors.Is(err, pass.ErrNoEmittedArtifact) {
		t.Fatalf("missing emitter: got %v", err)
	}
}

// TestPassesCopies the accessor hands back a copy, not the backing
// slice.
func TestPassesCopies(t *testing.T) {
	pl, err := pipeline.New(fullLowering(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got := pl.Passes()
	got[0] = fakePass{"evil", form.Source, form.Source}
	again := pl.Passes()
	if again[0].Name() != "source-to-high" {
		t.Fatalf("Passes exposes internal slice")
	}
}
