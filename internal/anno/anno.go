// Package anno carries per-entity metadata across compiler passes:
// annotations attached to circuit entities, the per-pass rename map, and
// the provenance wrapper recording which pass deleted an annotation.
package anno

import "flux/internal/circuit"

// Annotation is one piece of metadata attached to a named circuit
// entity. Implementations must be comparable value types: annotations
// are used as map keys when a pass's output store is diffed against its
// input store, and a changed annotation is a different annotation.
type Annotation interface {
	// Target is the entity this annotation applies to.
	Target() circuit.Ref
	// Owner names the pass that produced or consumes this annotation.
	// It is a coarse query key, not a behavioral contract.
	Owner() string
	// Update rewrites the annotation for the given successor targets
	// after a rename. It may return zero results (the annotation
	// vanishes with its entity), one, or several (mirroring a split).
	Update(targets []circuit.Ref) []Annotation
}
