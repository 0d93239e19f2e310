package lower_test

import (
	"testing"

	"flux/internal/circuit"
	"flux/internal/form"
	"flux/internal/pass"
)

// run executes a pass through the standard wrapper and fails the test on
// error.
func run(t *testing.T, p pass.Pass, st pass.State) pass.State {
	t.Helper()
	out, err := pass.Run(p, st, nil)
	if err != nil {
		t.Fatalf("%s: %v", p.Name(), err)
	}
	return out
}

// runRaw executes a pass without the wrapper, for inspecting the rename
// map before the wrapper consumes it.
func runRaw(t *testing.T, p pass.Pass, st pass.State) pass.State {
	t.Helper()
	out, err := p.RunRaw(st)
	if err != nil {
		t.Fatalf("%s raw: %v", p.Name(), err)
	}
	return out
}

func stateAt(c *circuit.Circuit, f form.Form) pass.State {
	return pass.New(c, f)
}

// connects renders every connect of a module as "loc <= value".
func connects(m *circuit.Module) []string {
	var out []string
	m.WalkStmts(func(s *circuit.Stmt) {
		if s.Kind == circuit.StmtConnect {
			out = append(out, s.Connect.Loc.String()+" <= "+s.Connect.Value.String())
		}
	})
	return out
}

// stmtNames lists declared names of a module body in order.
func stmtNames(m *circuit.Module) []string {
	var out []string
	m.WalkStmts(func(s *circuit.Stmt) {
		if n := s.DeclaredName(); n != "" {
			out = append(out, n)
		}
	})
	return out
}

func wantStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func mustModule(t *testing.T, c *circuit.Circuit, name string) *circuit.Module {
	t.Helper()
	m, ok := c.FindModule(name)
	if !ok {
		t.Fatalf("module %s missing from circuit %s", name, c.Name)
	}
	return m
}
