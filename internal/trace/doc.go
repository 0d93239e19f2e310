// Package trace provides a tracing subsystem for the flux compiler.
//
// The trace package enables tracking of pipeline runs, individual pass
// executions, and per-module work to help diagnose slow or misbehaving
// schedules.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	flux build --trace=- --trace-level=phase main.flx
//
// # Architecture
//
// The package provides two tracer implementations:
//
//   - NopTracer: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelError: Only crash dumps
//   - LevelPhase: Pipeline and pass boundaries
//   - LevelDetail: Module-level events
//   - LevelDebug: Everything
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopePipeline: One pipeline run over a circuit
//   - ScopePass: A single pass execution
//   - ScopeModule: Per-module processing inside a pass
//
// # Context Propagation
//
// Tracers are propagated through the compilation pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "mid-to-low", parentID)
//	defer span.End("")
package trace
