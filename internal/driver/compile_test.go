package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"flux/internal/driver"
	"flux/internal/form"
	"flux/internal/observ"
)

const adderSrc = `circuit Adder :
  module Adder :
    input a : UInt<4>
    input b : UInt<4>
    output s : UInt<5>
    s <= add(a, b)
`

// recordSink collects events; directory builds call it concurrently.
type recordSink struct {
	mu     sync.Mutex
	events []driver.Event
}

func (s *recordSink) OnEvent(evt driver.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func (s *recordSink) all() []driver.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]driver.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordSink) has(stage driver.Stage, status driver.Status, pass string) bool {
	for _, evt := range s.all() {
		if evt.Stage == stage && evt.Status == status && evt.Pass == pass {
			return true
		}
	}
	return false
}

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// TestCompile_EndToEnd lowers a small adder to low form and checks the
// emitted artifact and the progress events.
func TestCompile_EndToEnd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "adder.flx", adderSrc)
	sink := &recordSink{}
	timer := observ.NewTimer()

	res, err := driver.Compile(context.Background(), driver.CompileRequest{
		Path:  path,
		Sink:  sink,
		Timer: timer,
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if res.Cached {
		t.Errorf("first compile reported cached")
	}
	if res.Artifact.Name != "Adder" {
		t.Errorf("artifact name = %q, want %q", res.Artifact.Name, "Adder")
	}
	if !strings.HasPrefix(res.Artifact.Text, "circuit Adder :\n") {
		t.Errorf("artifact text does not start with the circuit header:\n%s", res.Artifact.Text)
	}
	if res.State.Form != form.Low {
		t.Errorf("final form = %s, want %s", res.State.Form, form.Low)
	}
	if res.Circuit == nil || res.Circuit.Name != "Adder" {
		t.Errorf("parse result missing from compile result")
	}

	for _, stage := range []driver.Stage{driver.StageParse, driver.StageSchedule} {
		if !res.Timings.Has(stage) {
			t.Errorf("no timing recorded for stage %s", stage)
		}
	}
	if !sink.has(driver.StageParse, driver.StatusDone, "") {
		t.Errorf("no parse done event")
	}
	if !sink.has(driver.StageLower, driver.StatusDone, "source-to-high") {
		t.Errorf("no done event for source-to-high")
	}
	if !sink.has(driver.StageEmit, driver.StatusDone, "emit") {
		t.Errorf("no done event for the emit pass")
	}

	// One timer phase per top-level scheduled pass: three canonical
	// lowering steps plus the emitter.
	if got := len(timer.Report().Phases); got != 4 {
		t.Errorf("timer recorded %d phases, want 4", got)
	}
}

// TestCompile_PreloadedSource compiles from memory without touching disk.
func TestCompile_PreloadedSource(t *testing.T) {
	res, err := driver.Compile(context.Background(), driver.CompileRequest{
		Path:   "mem.flx",
		Source: []byte(adderSrc),
		Target: form.Mid,
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if res.State.Form != form.Mid {
		t.Errorf("final form = %s, want %s", res.State.Form, form.Mid)
	}
}

// TestCompile_ParseError surfaces parser errors with their position and
// reports them to the sink.
func TestCompile_ParseError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.flx", "circuit X :\n  module X :\n    wire w : Bool\n")
	sink := &recordSink{}

	_, err := driver.Compile(context.Background(), driver.CompileRequest{Path: path, Sink: sink})
	if err == nil {
		t.Fatalf("expected parse error, got nil")
	}
	if !strings.Contains(err.Error(), "bad.flx:3") {
		t.Errorf("error = %q, want it to carry bad.flx:3", err)
	}
	if !sink.has(driver.StageParse, driver.StatusError, "") {
		t.Errorf("no parse error event")
	}
}

// TestCompile_MissingFile reports read failures as parse-stage errors.
func TestCompile_MissingFile(t *testing.T) {
	_, err := driver.Compile(context.Background(), driver.CompileRequest{
		Path: filepath.Join(t.TempDir(), "absent.flx"),
	})
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// TestCompile_ExtraPasses merges named optimization passes into the
// canonical schedule.
func TestCompile_ExtraPasses(t *testing.T) {
	extra, err := driver.DefaultRegistry().LookupAll([]string{"const-prop", "dead-code"})
	if err != nil {
		t.Fatalf("registry lookup: %v", err)
	}
	sink := &recordSink{}
	res, err := driver.Compile(context.Background(), driver.CompileRequest{
		Path:   "mem.flx",
		Source: []byte(adderSrc),
		Extra:  extra,
		Sink:   sink,
	})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if res.State.Form != form.Low {
		t.Errorf("final form = %s, want %s", res.State.Form, form.Low)
	}
	if !sink.has(driver.StageLower, driver.StatusDone, "const-prop") {
		t.Errorf("const-prop never ran")
	}
	if !sink.has(driver.StageLower, driver.StatusDone, "dead-code") {
		t.Errorf("dead-code never ran")
	}
}

// TestCompile_CacheHit reruns an identical compile and gets the artifact
// without running the pipeline.
func TestCompile_CacheHit(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := driver.OpenArtifactCache("flux-test")
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	path := writeFile(t, t.TempDir(), "adder.flx", adderSrc)

	first, err := driver.Compile(context.Background(), driver.CompileRequest{Path: path, Cache: cache})
	if err != nil {
		t.Fatalf("first compile: %v", err)
	}
	if first.Cached {
		t.Fatalf("first compile cannot be a cache hit")
	}

	second, err := driver.Compile(context.Background(), driver.CompileRequest{Path: path, Cache: cache})
	if err != nil {
		t.Fatalf("second compile: %v", err)
	}
	if !second.Cached {
		t.Errorf("second compile missed the cache")
	}
	if second.Artifact != first.Artifact {
		t.Errorf("cached artifact differs:\n%s\nvs\n%s", second.Artifact.Text, first.Artifact.Text)
	}

	// A different target form must not reuse the artifact.
	mid, err := driver.Compile(context.Background(), driver.CompileRequest{Path: path, Cache: cache, Target: form.Mid})
	if err != nil {
		t.Fatalf("mid compile: %v", err)
	}
	if mid.Cached {
		t.Errorf("target change still hit the cache")
	}
}

// TestCompile_Cancelled respects an already-cancelled context.
func TestCompile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := driver.Compile(ctx, driver.CompileRequest{Path: "mem.flx", Source: []byte(adderSrc)})
	if err == nil {
		t.Fatalf("expected context error")
	}
}

// TestDefaultRegistry_Names keeps the schedulable pass set stable.
func TestDefaultRegistry_Names(t *testing.T) {
	got := driver.DefaultRegistry().Names()
	want := []string{"dedup", "replace-seq-mems", "const-prop", "dead-code"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}
