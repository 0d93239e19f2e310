package lower

import (
	"fmt"

	"flux/internal/anno"
	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// DefaultSeqMemDepth is the depth at or above which ReplaceSeqMems
// extracts a sequential mem into an external module.
const DefaultSeqMemDepth = 16

// SeqMemReplaced marks a sequential mem that was replaced by an
// instance of a generated external memory module.
type SeqMemReplaced struct {
	Ref    circuit.Ref
	Module string
	Depth  uint32
}

func (a SeqMemReplaced) Target() circuit.Ref { return a.Ref }
func (a SeqMemReplaced) Owner() string       { return "replace-seq-mems" }

func (a SeqMemReplaced) Update(targets []circuit.Ref) []anno.Annotation {
	out := make([]anno.Annotation, 0, len(targets))
	for _, t := range targets {
		out = append(out, SeqMemReplaced{Ref: t, Module: a.Module, Depth: a.Depth})
	}
	return out
}

// ReplaceSeqMems extracts sequential mems with at least minDepth entries
// into external memory modules and instantiates them under the mem's
// name. The instance presents the same r and w port bundles the mem did,
// so no expression in the enclosing module changes. Each replacement is
// marked with a SeqMemReplaced annotation.
func ReplaceSeqMems(minDepth uint32) pass.Pass { return replaceSeqMems{minDepth: minDepth} }

type replaceSeqMems struct {
	minDepth uint32
}

func (replaceSeqMems) Name() string          { return "replace-seq-mems" }
func (replaceSeqMems) InputForm() form.Form  { return form.Mid }
func (replaceSeqMems) OutputForm() form.Form { return form.Mid }

func (p replaceSeqMems) RunRaw(st pass.State) (pass.State, error) {
	c := st.Circuit.Clone()
	var created []anno.Annotation
	var extMods []circuit.Module

	for i := range c.Modules {
		m := &c.Modules[i]
		m.WalkStmts(func(s *circuit.Stmt) {
			if s.Kind != circuit.StmtMem || !s.Mem.Seq || s.Mem.Depth < p.minDepth {
				return
			}
			mem := s.Mem
			extName := uniqueModuleName(c, extMods, m.Name+"_"+mem.Name+"_ext")
			addr := circuit.AddrWidth(mem.Depth)
			rT, _ := mem.MemPortType("r", addr)
			wT, _ := mem.MemPortType("w", addr)
			extMods = append(extMods, circuit.Module{
				Name: extName,
				Ext:  true,
				Ports: []circuit.Port{
					{Name: "r", Dir: circuit.Input, Type: rT},
					{Name: "w", Dir: circuit.Input, Type: wT},
				},
			})
			*s = circuit.Stmt{Kind: circuit.StmtInst, Inst: circuit.InstStmt{Name: mem.Name, Module: extName}}
			created = append(created, SeqMemReplaced{
				Ref:    circuit.ComponentRef(c.Name, m.Name, mem.Name),
				Module: extName,
				Depth:  mem.Depth,
			})
		})
	}
	if len(extMods) == 0 {
		return st, nil
	}

	c.Modules = append(c.Modules, extMods...)
	out := st
	out.Circuit = c
	return out.WithAnnos(created...), nil
}

// uniqueModuleName suffixes base until it collides with neither the
// circuit's modules nor the pending ones.
func uniqueModuleName(c *circuit.Circuit, pending []circuit.Module, base string) string {
	used := func(name string) bool {
		if _, ok := c.FindModule(name); ok {
			return true
		}
		for i := range pending {
			if pending[i].Name == name {
				return true
			}
		}
		return false
	}
	name := base
	for i := 2; used(name); i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	return name
}
