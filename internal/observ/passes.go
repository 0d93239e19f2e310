package observ

import "flux/internal/pass"

// PassHook returns a pass observer that records every scheduled pass as
// a timer phase. Sub-passes of a composite are folded into their
// composite's phase rather than reported separately, so the report
// total matches the wall time of the run.
func PassHook(t *Timer) pass.Hook {
	depth := 0
	idx := -1
	return func(ev pass.Event) {
		switch ev.Status {
		case pass.StatusStart:
			depth++
			if depth == 1 {
				idx = t.Begin(ev.Pass)
			}
		case pass.StatusDone, pass.StatusError:
			if depth == 0 {
				return
			}
			depth--
			if depth > 0 {
				return
			}
			note := ""
			if ev.Status == pass.StatusError && ev.Err != nil {
				note = "error: " + ev.Err.Error()
			}
			t.End(idx, note)
		}
	}
}
