package lower

import (
	"fmt"

	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// SourceToHigh is the canonical step from source to high form: memory
// sugar becomes explicit mems and every instance target must resolve.
func SourceToHigh() pass.Pass {
	return pass.NewSeq("source-to-high", form.Source, form.High,
		ExpandMems(), ResolveInstances())
}

// ExpandMems rewrites smem/cmem sugar into explicit mems with canonical
// read and write ports. Names are kept, so no renames are recorded.
func ExpandMems() pass.Pass { return expandMems{} }

type expandMems struct{}

func (expandMems) Name() string          { return "expand-mems" }
func (expandMems) InputForm() form.Form  { return form.Source }
func (expandMems) OutputForm() form.Form { return form.Source }

func (expandMems) RunRaw(st pass.State) (pass.State, error) {
	c := st.Circuit.Clone()
	var err error
	for i := range c.Modules {
		m := &c.Modules[i]
		m.WalkStmts(func(s *circuit.Stmt) {
			if err != nil {
				return
			}
			var sugar circuit.SugarMemStmt
			var seq bool
			switch s.Kind {
			case circuit.StmtSMem:
				sugar, seq = s.SMem, true
			case circuit.StmtCMem:
				sugar, seq = s.CMem, false
			default:
				return
			}
			if !sugar.Elem.Ground() {
				err = fmt.Errorf("mem %s.%s: element type %s is not ground", m.Name, sugar.Name, sugar.Elem)
				return
			}
			if sugar.Depth == 0 {
				err = fmt.Errorf("mem %s.%s: depth must be positive", m.Name, sugar.Name)
				return
			}
			*s = circuit.Stmt{Kind: circuit.StmtMem, Mem: circuit.MemStmt{
				Name:  sugar.Name,
				Elem:  sugar.Elem,
				Depth: sugar.Depth,
				Seq:   seq,
			}}
		})
	}
	if err != nil {
		return pass.State{}, err
	}
	st.Circuit = c
	return st, nil
}

// ResolveInstances checks that every instance names a module defined in
// the circuit. It rewrites nothing.
func ResolveInstances() pass.Pass { return resolveInstances{} }

type resolveInstances struct{}

func (resolveInstances) Name() string          { return "resolve-instances" }
func (resolveInstances) InputForm() form.Form  { return form.Source }
func (resolveInstances) OutputForm() form.Form { return form.Source }

func (resolveInstances) RunRaw(st pass.State) (pass.State, error) {
	c := st.Circuit
	if _, ok := c.Top(); !ok {
		return pass.State{}, fmt.Errorf("circuit %s has no top module", c.Name)
	}
	for i := range c.Modules {
		m := &c.Modules[i]
		for _, inst := range m.Instances() {
			target, ok := c.FindModule(inst.Module)
			if !ok {
				return pass.State{}, fmt.Errorf("module %s: instance %s of undefined module %s",
					m.Name, inst.Name, inst.Module)
			}
			if target.Name == m.Name {
				return pass.State{}, fmt.Errorf("module %s instantiates itself as %s", m.Name, inst.Name)
			}
		}
	}
	return st, nil
}
