package anno

import "flux/internal/circuit"

// Store is an ordered collection of annotations. Order is insertion
// order; it carries no meaning beyond stable iteration. The zero value
// is an empty store.
type Store []Annotation

// ByOwner returns every annotation owned by the named pass.
func (s Store) ByOwner(owner string) []Annotation {
	var out []Annotation
	for _, a := range s {
		if a.Owner() == owner {
			out = append(out, a)
		}
	}
	return out
}

// ByTarget returns every annotation attached to the given entity.
func (s Store) ByTarget(ref circuit.Ref) []Annotation {
	var out []Annotation
	for _, a := range s {
		if a.Target() == ref {
			out = append(out, a)
		}
	}
	return out
}

// Empty reports whether the store holds no annotations.
func (s Store) Empty() bool { return len(s) == 0 }
