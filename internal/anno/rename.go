package anno

import "flux/internal/circuit"

// RenameMap records how a single pass renamed, split, or deleted named
// entities. Zero successors means the entity was deleted; more than one
// means it was split. Any entity not present is unchanged. Each pass
// builds its map fresh; maps are never merged across passes.
type RenameMap struct {
	entries map[circuit.Ref][]circuit.Ref
}

func (m *RenameMap) ensure() {
	if m.entries == nil {
		m.entries = make(map[circuit.Ref][]circuit.Ref)
	}
}

// Rename records that from now refers to the given successors. Calling
// with no successors records a deletion. A later call for the same
// entity replaces the earlier record.
func (m *RenameMap) Rename(from circuit.Ref, to ...circuit.Ref) {
	m.ensure()
	succ := make([]circuit.Ref, len(to))
	copy(succ, to)
	m.entries[from] = succ
}

// Delete records that the entity was removed.
func (m *RenameMap) Delete(from circuit.Ref) {
	m.Rename(from)
}

// Get returns the successors recorded for ref. ok is false when the
// entity has no record, meaning it is unchanged.
func (m RenameMap) Get(ref circuit.Ref) (succ []circuit.Ref, ok bool) {
	succ, ok = m.entries[ref]
	return succ, ok
}

// Empty reports whether the map records no renames.
func (m RenameMap) Empty() bool { return len(m.entries) == 0 }

// Len returns the number of recorded entities.
func (m RenameMap) Len() int { return len(m.entries) }
