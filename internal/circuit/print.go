package circuit

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the circuit in source syntax.
func Dump(w io.Writer, c *Circuit) error {
	if c == nil {
		_, err := io.WriteString(w, "<nil circuit>\n")
		return err
	}
	if _, err := fmt.Fprintf(w, "circuit %s :\n", c.Name); err != nil {
		return err
	}
	for i := range c.Modules {
		if err := dumpModule(w, &c.Modules[i]); err != nil {
			return err
		}
	}
	return nil
}

// String renders the circuit with Dump.
func (c *Circuit) String() string {
	var sb strings.Builder
	_ = Dump(&sb, c)
	return sb.String()
}

// String renders one module in source syntax.
func (m *Module) String() string {
	var sb strings.Builder
	_ = dumpModule(&sb, m)
	return sb.String()
}

func dumpModule(w io.Writer, m *Module) error {
	kw := "module"
	if m.Ext {
		kw = "extmodule"
	}
	if _, err := fmt.Fprintf(w, "  %s %s :\n", kw, m.Name); err != nil {
		return err
	}
	for _, p := range m.Ports {
		if _, err := fmt.Fprintf(w, "    %s %s : %s\n", p.Dir, p.Name, p.Type); err != nil {
			return err
		}
	}
	if err := dumpStmts(w, m.Body, 2); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func dumpStmts(w io.Writer, body []Stmt, depth int) error {
	pad := strings.Repeat("  ", depth)
	for i := range body {
		if err := dumpStmt(w, &body[i], pad, depth); err != nil {
			return err
		}
	}
	return nil
}

func dumpStmt(w io.Writer, s *Stmt, pad string, depth int) error {
	switch s.Kind {
	case StmtWire:
		_, err := fmt.Fprintf(w, "%swire %s : %s\n", pad, s.Wire.Name, s.Wire.Type)
		return err
	case StmtReg:
		_, err := fmt.Fprintf(w, "%sreg %s : %s, %s\n", pad, s.Reg.Name, s.Reg.Type, s.Reg.Clock.String())
		return err
	case StmtNode:
		_, err := fmt.Fprintf(w, "%snode %s = %s\n", pad, s.Node.Name, s.Node.Value.String())
		return err
	case StmtConnect:
		_, err := fmt.Fprintf(w, "%s%s <= %s\n", pad, s.Connect.Loc.String(), s.Connect.Value.String())
		return err
	case StmtWhen:
		if _, err := fmt.Fprintf(w, "%swhen %s :\n", pad, s.When.Cond.String()); err != nil {
			return err
		}
		if err := dumpStmts(w, s.When.Then, depth+1); err != nil {
			return err
		}
		if len(s.When.Else) > 0 {
			if _, err := fmt.Fprintf(w, "%selse :\n", pad); err != nil {
				return err
			}
			if err := dumpStmts(w, s.When.Else, depth+1); err != nil {
				return err
			}
		}
		return nil
	case StmtSMem:
		_, err := fmt.Fprintf(w, "%ssmem %s : %s[%d]\n", pad, s.SMem.Name, s.SMem.Elem, s.SMem.Depth)
		return err
	case StmtCMem:
		_, err := fmt.Fprintf(w, "%scmem %s : %s[%d]\n", pad, s.CMem.Name, s.CMem.Elem, s.CMem.Depth)
		return err
	case StmtMem:
		seq := "old"
		if s.Mem.Seq {
			seq = "new"
		}
		_, err := fmt.Fprintf(w, "%smem %s : %s[%d] read-under-write => %s\n", pad, s.Mem.Name, s.Mem.Elem, s.Mem.Depth, seq)
		return err
	case StmtInst:
		_, err := fmt.Fprintf(w, "%sinst %s of %s\n", pad, s.Inst.Name, s.Inst.Module)
		return err
	default:
		_, err := fmt.Fprintf(w, "%s<stmt kind %d>\n", pad, s.Kind)
		return err
	}
}
