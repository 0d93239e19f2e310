package anno

import "flux/internal/circuit"

// Deleted wraps an annotation that a pass dropped from the store without
// renaming its target. Repeated deletions nest, so the full chain of
// deleting passes stays available for diagnosis.
type Deleted struct {
	// By names the pass that performed this deletion.
	By string
	// Orig is the annotation as it stood before this deletion. It may
	// itself be a Deleted from an earlier pass.
	Orig Annotation
}

// Target delegates to the wrapped annotation.
func (d Deleted) Target() circuit.Ref { return d.Orig.Target() }

// Owner delegates to the wrapped annotation, so owner queries keep
// finding deleted records.
func (d Deleted) Owner() string { return d.Orig.Owner() }

// Update applies the rename to the wrapped annotation and re-wraps every
// result, preserving the deletion record across target rewrites.
func (d Deleted) Update(targets []circuit.Ref) []Annotation {
	inner := d.Orig.Update(targets)
	out := make([]Annotation, 0, len(inner))
	for _, a := range inner {
		out = append(out, Deleted{By: d.By, Orig: a})
	}
	return out
}

// Chain lists the deleting passes in the order the deletions happened,
// earliest first.
func (d Deleted) Chain() []string {
	if inner, ok := d.Orig.(Deleted); ok {
		return append(inner.Chain(), d.By)
	}
	return []string{d.By}
}

// Original unwraps every deletion layer and returns the annotation that
// was first deleted.
func (d Deleted) Original() Annotation {
	if inner, ok := d.Orig.(Deleted); ok {
		return inner.Original()
	}
	return d.Orig
}
