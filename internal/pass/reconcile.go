package pass

import (
	"flux/internal/anno"
	"flux/internal/circuit"
)

// reconcile derives the annotation store of a pass's output from the
// store it received, the store its raw run returned, and its rename map.
//
// The stores are diffed as sets. Annotations present before but not
// after were dropped by the pass without a rename; they are kept as
// deletion records naming the pass, chaining onto any existing record.
// Candidates are ordered deleted, created, unchanged, and each is
// rewritten through the rename map by its own Update capability, so an
// annotation follows its entity through renames, splits, and deletions.
// Every annotation in the result is therefore traceable either to one
// the pass left alone or to one the pass explicitly renamed or dropped.
func reconcile(passName string, before, after anno.Store, renames anno.RenameMap) anno.Store {
	before = dedupe(before)
	after = dedupe(after)

	beforeSet := make(map[anno.Annotation]struct{}, len(before))
	for _, a := range before {
		beforeSet[a] = struct{}{}
	}
	afterSet := make(map[anno.Annotation]struct{}, len(after))
	for _, a := range after {
		afterSet[a] = struct{}{}
	}

	candidates := make([]anno.Annotation, 0, len(before)+len(after))
	for _, a := range before {
		if _, ok := afterSet[a]; !ok {
			candidates = append(candidates, anno.Deleted{By: passName, Orig: a})
		}
	}
	for _, a := range after {
		if _, ok := beforeSet[a]; !ok {
			candidates = append(candidates, a)
		}
	}
	for _, a := range after {
		if _, ok := beforeSet[a]; ok {
			candidates = append(candidates, a)
		}
	}

	var out anno.Store
	for _, c := range candidates {
		succ, ok := renames.Get(c.Target())
		if !ok {
			succ = []circuit.Ref{c.Target()}
		}
		out = append(out, c.Update(succ)...)
	}
	return out
}

// dedupe drops repeated annotation values, keeping first occurrences in
// order, so the diff behaves as a set operation.
func dedupe(s anno.Store) anno.Store {
	if len(s) < 2 {
		return s
	}
	seen := make(map[anno.Annotation]struct{}, len(s))
	out := make(anno.Store, 0, len(s))
	for _, a := range s {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
