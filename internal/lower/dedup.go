package lower

import (
	"flux/internal/anno"
	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// Dedup merges structurally identical modules, keeping one and pointing
// every instance of the duplicates at it. Rounds repeat until no two
// modules match, so parents whose children collapsed onto each other can
// collapse in a later round. The top module is always the keeper of its
// group. Dropped modules and their components are renamed onto the
// kept module.
func Dedup() pass.Pass { return dedup{} }

type dedup struct{}

func (dedup) Name() string          { return "dedup" }
func (dedup) InputForm() form.Form  { return form.High }
func (dedup) OutputForm() form.Form { return form.High }

func (dedup) RunRaw(st pass.State) (pass.State, error) {
	orig := st.Circuit
	c := orig.Clone()
	replaced := make(map[string]string)

	for {
		round := dedupRound(c)
		if len(round) == 0 {
			break
		}
		for from, to := range round {
			replaced[from] = to
		}
	}
	if len(replaced) == 0 {
		return st, nil
	}

	var renames anno.RenameMap
	for i := range orig.Modules {
		name := orig.Modules[i].Name
		final, moved := resolveReplacement(replaced, name)
		if !moved {
			continue
		}
		renames.Rename(circuit.ModuleRef(orig.Name, name), circuit.ModuleRef(orig.Name, final))
		for _, p := range orig.Modules[i].Ports {
			renames.Rename(circuit.ComponentRef(orig.Name, name, p.Name),
				circuit.ComponentRef(orig.Name, final, p.Name))
		}
		for _, n := range orig.Modules[i].DeclaredNames() {
			renames.Rename(circuit.ComponentRef(orig.Name, name, n),
				circuit.ComponentRef(orig.Name, final, n))
		}
	}

	st.Circuit = c
	st.Renames = renames
	return st, nil
}

// dedupRound collapses one generation of duplicates and returns the
// dropped-to-kept mapping, empty when the circuit is already unique.
func dedupRound(c *circuit.Circuit) map[string]string {
	bySig := make(map[string]int)
	dropTo := make(map[string]string)

	// seed the top module so duplicates collapse onto it, never the
	// other way around
	topIdx := -1
	for i := range c.Modules {
		if c.Modules[i].Name == c.Name {
			topIdx = i
			bySig[moduleSignature(&c.Modules[i])] = i
			break
		}
	}
	for i := range c.Modules {
		if i == topIdx {
			continue
		}
		sig := moduleSignature(&c.Modules[i])
		if j, ok := bySig[sig]; ok {
			dropTo[c.Modules[i].Name] = c.Modules[j].Name
			continue
		}
		bySig[sig] = i
	}
	if len(dropTo) == 0 {
		return nil
	}

	kept := make([]circuit.Module, 0, len(c.Modules)-len(dropTo))
	for i := range c.Modules {
		if _, gone := dropTo[c.Modules[i].Name]; gone {
			continue
		}
		kept = append(kept, c.Modules[i])
	}
	c.Modules = kept

	for i := range c.Modules {
		c.Modules[i].WalkStmts(func(s *circuit.Stmt) {
			if s.Kind == circuit.StmtInst {
				if to, ok := dropTo[s.Inst.Module]; ok {
					s.Inst.Module = to
				}
			}
		})
	}
	return dropTo
}

// moduleSignature is a module's structural identity: its printed text
// with the module name blanked, so identically shaped modules compare
// equal regardless of what they are called.
func moduleSignature(m *circuit.Module) string {
	tmp := *m
	tmp.Name = ""
	return tmp.String()
}

func resolveReplacement(replaced map[string]string, name string) (string, bool) {
	moved := false
	for {
		to, ok := replaced[name]
		if !ok {
			return name, moved
		}
		name = to
		moved = true
	}
}
