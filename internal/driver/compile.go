// Package driver orchestrates whole compiles: parse, schedule
// construction, the pass pipeline, emission, artifact caching and
// parallel directory builds. It is the layer the CLI talks to.
package driver

import (
	"context"
	"fmt"
	"os"
	"time"

	"flux/internal/anno"
	"flux/internal/circuit"
	"flux/internal/emit"
	"flux/internal/form"
	"flux/internal/observ"
	"flux/internal/parser"
	"flux/internal/pass"
	"flux/internal/pipeline"
	"flux/internal/trace"
)

// emitPassName is the name the terminal emission pass reports; the
// progress bridge uses it to split the lower and emit stages.
const emitPassName = "emit"

// CompileRequest describes one .flx compile.
type CompileRequest struct {
	// Path names the input file. It is read unless Source is set.
	Path string
	// Source optionally carries preloaded source text.
	Source []byte
	// Target is the form to lower to. Unknown means low form.
	Target form.Form
	// Extra passes are merged into the canonical schedule.
	Extra []pass.Pass
	// Cache, when set, is probed before the pipeline runs and fed after.
	Cache *ArtifactCache
	// Sink, when set, receives progress events.
	Sink ProgressSink
	// Timer, when set, records one phase per scheduled pass.
	Timer *observ.Timer
}

// CompileResult is the outcome of a successful compile.
type CompileResult struct {
	// Circuit is the parse result, before any pass ran.
	Circuit *circuit.Circuit
	// State is the final pipeline state. Unset on cache hits.
	State pass.State
	// Artifact is the emitted circuit text.
	Artifact anno.EmittedCircuit
	// Cached reports that the artifact came from the cache and the
	// pipeline never ran.
	Cached bool
	// Timings holds stage durations.
	Timings Timings
}

// Compile runs one file through parse, schedule and the pass pipeline.
// The tracer, if any, travels in ctx.
func Compile(ctx context.Context, req CompileRequest) (*CompileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tracer := trace.FromContext(ctx)
	target := req.Target
	if target == form.Unknown {
		target = form.Low
	}

	root := trace.Begin(tracer, trace.ScopePipeline, req.Path, 0)
	detail := ""
	defer func() { root.End(detail) }()

	res := &CompileResult{}

	// Parse.
	emitEvent(req.Sink, Event{Stage: StageParse, Status: StatusWorking})
	start := time.Now()
	src := req.Source
	if src == nil {
		b, err := os.ReadFile(req.Path)
		if err != nil {
			detail = "error"
			emitEvent(req.Sink, Event{Stage: StageParse, Status: StatusError, Err: err})
			return nil, err
		}
		src = b
	}
	c, err := parser.Parse(src, parser.Options{Path: req.Path})
	res.Timings.Set(StageParse, time.Since(start))
	if err != nil {
		detail = "error"
		emitEvent(req.Sink, Event{Stage: StageParse, Status: StatusError, Err: err})
		return nil, err
	}
	res.Circuit = c
	emitEvent(req.Sink, Event{Stage: StageParse, Status: StatusDone, Elapsed: res.Timings.Duration(StageParse)})

	// Schedule: canonical lowering to the target plus the merged extras.
	emitEvent(req.Sink, Event{Stage: StageSchedule, Status: StatusWorking})
	start = time.Now()
	canon, err := pipeline.CanonicalLowering(form.Source, target)
	if err != nil {
		detail = "error"
		emitEvent(req.Sink, Event{Stage: StageSchedule, Status: StatusError, Err: err})
		return nil, fmt.Errorf("schedule: %w", err)
	}
	pl, err := pipeline.New(canon, emit.Emitter(target))
	if err != nil {
		detail = "error"
		emitEvent(req.Sink, Event{Stage: StageSchedule, Status: StatusError, Err: err})
		return nil, fmt.Errorf("schedule: %w", err)
	}
	schedule, err := pl.Schedule(req.Extra)
	res.Timings.Set(StageSchedule, time.Since(start))
	if err != nil {
		detail = "error"
		emitEvent(req.Sink, Event{Stage: StageSchedule, Status: StatusError, Err: err})
		return nil, fmt.Errorf("schedule: %w", err)
	}
	emitEvent(req.Sink, Event{Stage: StageSchedule, Status: StatusDone, Elapsed: res.Timings.Duration(StageSchedule)})
	for _, p := range schedule {
		emitEvent(req.Sink, Event{Pass: p.Name(), Stage: stageFor(p.Name()), Status: StatusQueued})
	}

	// Cache probe. The digest covers source, schedule and target, so a
	// schedule change invalidates by construction.
	digest := SourceDigest(src, scheduleNames(schedule), target)
	if req.Cache != nil {
		var payload ArtifactPayload
		if hit, err := req.Cache.Get(digest, &payload); err == nil && hit && payload.Schema == artifactSchemaVersion {
			res.Artifact = anno.EmittedCircuit{Name: payload.Circuit, Text: payload.Text}
			res.Cached = true
			detail = "cached"
			for _, p := range schedule {
				emitEvent(req.Sink, Event{Pass: p.Name(), Stage: stageFor(p.Name()), Status: StatusDone})
			}
			return res, nil
		}
	}

	if err := ctx.Err(); err != nil {
		detail = "error"
		return nil, err
	}

	// Run the pipeline with a whole-circuit emission request attached.
	st := pass.New(c, form.Source).WithAnnos(anno.EmitRequest{Ref: circuit.CircuitRef(c.Name)})
	hook := runHook(req.Sink, req.Timer, tracer, root.ID(), &res.Timings)
	out, err := pl.Run(st, req.Extra, hook)
	if err != nil {
		detail = "error"
		return nil, err
	}
	art, err := out.EmittedArtifact()
	if err != nil {
		detail = "error"
		return nil, err
	}
	res.State = out
	res.Artifact = art

	if req.Cache != nil {
		// Cache writes are best effort.
		_ = req.Cache.Put(digest, &ArtifactPayload{
			Schema:  artifactSchemaVersion,
			Circuit: art.Name,
			Target:  uint8(target),
			Text:    art.Text,
		})
	}
	return res, nil
}

// runHook bridges pass events to the progress sink, the phase timer and
// the tracer. Only top-level scheduled passes reach the sink and the
// stage timings; sub-passes of a composite still get their own trace
// spans. A compile runs its passes on one goroutine, so the closure
// state needs no lock.
func runHook(sink ProgressSink, timer *observ.Timer, tracer trace.Tracer, rootSpan uint64, tm *Timings) pass.Hook {
	depth := 0
	var spans []*trace.Span
	var lowerTotal time.Duration
	var timerHook pass.Hook
	if timer != nil {
		timerHook = observ.PassHook(timer)
	}
	return func(ev pass.Event) {
		if timerHook != nil {
			timerHook(ev)
		}
		switch ev.Status {
		case pass.StatusStart:
			depth++
			parent := rootSpan
			if n := len(spans); n > 0 {
				parent = spans[n-1].ID()
			}
			spans = append(spans, trace.Begin(tracer, trace.ScopePass, ev.Pass, parent))
			if depth == 1 {
				emitEvent(sink, Event{Pass: ev.Pass, Stage: stageFor(ev.Pass), Status: StatusWorking})
			}
		case pass.StatusDone, pass.StatusError:
			if n := len(spans); n > 0 {
				d := ""
				if ev.Status == pass.StatusError && ev.Err != nil {
					d = "error: " + ev.Err.Error()
				} else if ev.Status == pass.StatusDone {
					d = ev.Form.String()
				}
				spans[n-1].End(d)
				spans = spans[:n-1]
			}
			if depth == 1 {
				stage := stageFor(ev.Pass)
				if ev.Status == pass.StatusError {
					emitEvent(sink, Event{Pass: ev.Pass, Stage: stage, Status: StatusError, Err: ev.Err, Elapsed: ev.Elapsed})
				} else {
					emitEvent(sink, Event{Pass: ev.Pass, Stage: stage, Status: StatusDone, Elapsed: ev.Elapsed})
					if stage == StageEmit {
						tm.Set(StageEmit, ev.Elapsed)
					} else {
						lowerTotal += ev.Elapsed
						tm.Set(StageLower, lowerTotal)
					}
				}
			}
			if depth > 0 {
				depth--
			}
		}
	}
}

func stageFor(passName string) Stage {
	if passName == emitPassName {
		return StageEmit
	}
	return StageLower
}

func scheduleNames(passes []pass.Pass) []string {
	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.Name()
	}
	return names
}

func emitEvent(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
