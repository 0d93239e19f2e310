package main

import (
	"fmt"
	"io"
	"time"

	"flux/internal/driver"
)

func printStageTimings(out io.Writer, timings driver.Timings) {
	if out == nil {
		return
	}
	if timings.Has(driver.StageParse) {
		fmt.Fprintf(out, "parsed %.1f ms\n", toMillis(timings.Duration(driver.StageParse)))
	}
	if timings.Has(driver.StageSchedule) {
		fmt.Fprintf(out, "scheduled %.1f ms\n", toMillis(timings.Duration(driver.StageSchedule)))
	}
	if timings.Has(driver.StageLower) {
		fmt.Fprintf(out, "lowered %.1f ms\n", toMillis(timings.Duration(driver.StageLower)))
	}
	if timings.Has(driver.StageEmit) {
		fmt.Fprintf(out, "emitted %.1f ms\n", toMillis(timings.Duration(driver.StageEmit)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
