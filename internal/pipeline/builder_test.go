package pipeline_test

import (
	"errors"
	"testing"

	"flux/internal/form"
	"flux/internal/pass"
	"flux/internal/pipeline"
)

// fakePass carries just a form contract; its rewrite is identity.
type fakePass struct {
	name string
	in   form.Form
	out  form.Form
}

func (p fakePass) Name() string          { return p.name }
func (p fakePass) InputForm() form.Form  { return p.in }
func (p fakePass) OutputForm() form.Form { return p.out }

func (p fakePass) RunRaw(st pass.State) (pass.State, error) { return st, nil }

func names(passes []pass.Pass) []string {
	out := make([]string, len(passes))
	for i, p := range passes {
		out[i] = p.Name()
	}
	return out
}

func wantNames(t *testing.T, got []pass.Pass, want []string) {
	t.Helper()
	gn := names(got)
	if len(gn) != len(want) {
		t.Fatalf("schedule = %v, want %v", gn, want)
	}
	for i := range want {
		if gn[i] != want[i] {
			t.Errorf("schedule[%d] = %s, want %s", i, gn[i], want[i])
		}
	}
}

// canonical is the high-to-low tail of the lowering chain, the two-pass
// sequence the merge scenarios are written against.
func canonical(t *testing.T) []pass.Pass {
	t.Helper()
	passes, err := pipeline.CanonicalLowering(form.High, form.Low)
	if err != nil {
		t.Fatalf("canonical lowering: %v", err)
	}
	return passes
}

// TestCanonicalLoweringFullChain source to low is exactly the three
// canonical steps in strictness-increasing order.
func TestCanonicalLoweringFullChain(t *testing.T) {
	passes, err := pipeline.CanonicalLowering(form.Source, form.Low)
	if err != nil {
		t.Fatalf("canonical lowering: %v", err)
	}
	wantNames(t, passes, []string{"source-to-high", "high-to-mid", "mid-to-low"})

	cur := form.Source
	for _, p := range passes {
		if p.InputForm() != cur {
			t.Errorf("%s input form = %s, want %s", p.Name(), p.InputForm(), cur)
		}
		cur = p.OutputForm()
	}
	if cur != form.Low {
		t.Errorf("chain ends at %s, want %s", cur, form.Low)
	}
}

// TestCanonicalLoweringNotStricter a target at or above the start form
// yields an empty chain.
func TestCanonicalLoweringNotStricter(t *testing.T) {
	for _, tc := range []struct{ from, to form.Form }{
		{form.Low, form.Low},
		{form.Mid, form.High},
		{form.Low, form.Source},
	} {
		passes, err := pipeline.CanonicalLowering(tc.from, tc.to)
		if err != nil {
			t.Errorf("(%s, %s): %v", tc.from, tc.to, err)
		}
		if len(passes) != 0 {
			t.Errorf("(%s, %s) = %v, want empty", tc.from, tc.to, names(passes))
		}
	}
}

// TestCanonicalLoweringSentinel the unknown form cannot anchor a chain.
func TestCanonicalLoweringSentinel(t *testing.T) {
	if _, err := pipeline.CanonicalLowering(form.Unknown, form.Low); !errors.Is(err, form.ErrIllegalComparison) {
		t.Errorf("unknown start: got %v", err)
	}
	if _, err := pipeline.CanonicalLowering(form.Source, form.Unknown); !errors.Is(err, form.ErrIllegalComparison) {
		t.Errorf("unknown target: got %v", err)
	}
}

// TestMergeNoCustoms merging nothing returns the schedule unchanged.
func TestMergeNoCustoms(t *testing.T) {
	existing := canonical(t)
	merged, err := pipeline.Merge(existing, nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	wantNames(t, merged, []string{"high-to-mid", "mid-to-low"})
}

// TestMergeMidCustom a mid-to-mid custom pass lands between the two
// canonical steps.
func TestMergeMidCustom(t *testing.T) {
	merged, err := pipeline.Merge(canonical(t), []pass.Pass{fakePass{"x", form.Mid, form.Mid}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	wantNames(t, merged, []string{"high-to-mid", "x", "mid-to-low"})
}

// TestMergeRaisingCustom a pass that raises the form back to high gets
// the canonical chain replayed after it.
func TestMergeRaisingCustom(t *testing.T) {
	merged, err := pipeline.Merge(canonical(t), []pass.Pass{fakePass{"e", form.Low, form.High}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	wantNames(t, merged, []string{
		"high-to-mid", "mid-to-low", "e", "high-to-mid", "mid-to-low",
	})
}

// TestMergeSourceCustomPrepends a pass requiring the source form has no
// producer and goes first.
func TestMergeSourceCustomPrepends(t *testing.T) {
	merged, err := pipeline.Merge(canonical(t), []pass.Pass{fakePass{"s", form.Source, form.Source}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	wantNames(t, merged, []string{"s", "high-to-mid", "mid-to-low"})
}

// TestMergeUnmergeable an input form produced nowhere, and not source,
// has no legal insertion point.
func TestMergeUnmergeable(t *testing.T) {
	existing := []pass.Pass{fakePass{"a", form.High, form.Mid}}
	_, err := pipeline.Merge(existing, []pass.Pass{fakePass{"x", form.Low, form.Low}})
	if !errors.Is(err, pipeline.ErrUnmergeablePass) {
		t.Fatalf("unmergeable: got %v", err)
	}
	var me *pipeline.MergeError
	if !errors.As(err, &me) || me.Pass != "x" || me.Input != form.Low {
		t.Fatalf("merge error = %+v", me)
	}
}

// TestMergeKeepsCustomOrder two customs with the same input form stay
// in supplied order, the second after the first.
func TestMergeKeepsCustomOrder(t *testing.T) {
	merged, err := pipeline.Merge(canonical(t), []pass.Pass{
		fakePass{"x1", form.Mid, form.Mid},
		fakePass{"x2", form.Mid, form.Mid},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	wantNames(t, merged, []string{"high-to-mid", "x1", "x2", "mid-to-low"})
}

// TestMergeLastProducerWins insertion is after the last pass producing
// the input form, not the first.
func TestMergeLastProducerWins(t *testing.T) {
	existing := []pass.Pass{
		fakePass{"a", form.High, form.Mid},
		fakePass{"b", form.Mid, form.Mid},
		fakePass{"c", form.Mid, form.Low},
	}
	merged, err := pipeline.Merge(existing, []pass.Pass{fakePass{"x", form.Mid, form.Mid}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	wantNames(t, merged, []string{"a", "b", "x", "c"})
}

// TestMergeDoesNotMutateInput the existing schedule slice is copied,
// not spliced in place.
func TestMergeDoesNotMutateInput(t *testing.T) {
	existing := []pass.Pass{
		fakePass{"a", form.High, form.Mid},
		fakePass{"b", form.Mid, form.Low},
	}
	if _, err := pipeline.Merge(existing, []pass.Pass{fakePass{"x", form.Mid, form.Mid}}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	wantNames(t, existing, []string{"a", "b"})
}
