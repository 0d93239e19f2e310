// Package prof wraps the runtime profilers behind start/stop pairs so the
// CLI can flip them on from flags without touching runtime/pprof directly.
package prof

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// StartCPU enables CPU profiling and writes samples to the provided path.
// The returned stop function ends the profile and closes the file; it is
// safe to call more than once.
func StartCPU(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close() //nolint:errcheck
		return nil, fmt.Errorf("cpu profile: %w", err)
	}
	stopped := false
	return func() {
		if stopped {
			return
		}
		stopped = true
		pprof.StopCPUProfile()
		_ = f.Close() //nolint:errcheck
	}, nil
}

// StartTrace writes runtime execution trace data to the provided path.
// The returned stop function ends the trace and closes the file; it is
// safe to call more than once.
func StartTrace(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("runtime trace: %w", err)
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close() //nolint:errcheck
		return nil, fmt.Errorf("runtime trace: %w", err)
	}
	stopped := false
	return func() {
		if stopped {
			return
		}
		stopped = true
		trace.Stop()
		_ = f.Close() //nolint:errcheck
	}, nil
}

// WriteMem captures a heap profile to the supplied path. A GC runs first
// so the snapshot reflects live objects rather than garbage.
func WriteMem(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close() //nolint:errcheck
		return fmt.Errorf("heap profile: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	return nil
}
