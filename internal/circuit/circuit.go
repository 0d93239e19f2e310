package circuit

// Direction of a module port.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Port is a named, directed, typed module boundary.
type Port struct {
	Name string
	Dir  Direction
	Type Type
}

// Module is one module definition. Ext marks an external module: it has
// ports but no body and is never transformed.
type Module struct {
	Name  string
	Ext   bool
	Ports []Port
	Body  []Stmt
}

// Circuit is the root of the IR: a named list of modules. The module
// whose name matches the circuit name is the top module.
type Circuit struct {
	Name    string
	Modules []Module
}

// Top returns the top module, if present.
func (c *Circuit) Top() (*Module, bool) {
	return c.FindModule(c.Name)
}

// FindModule returns the module with the given name.
func (c *Circuit) FindModule(name string) (*Module, bool) {
	for i := range c.Modules {
		if c.Modules[i].Name == name {
			return &c.Modules[i], true
		}
	}
	return nil, false
}

// Clone deep-copies the circuit so passes can rewrite without aliasing
// the input snapshot.
func (c *Circuit) Clone() *Circuit {
	if c == nil {
		return nil
	}
	out := &Circuit{Name: c.Name, Modules: make([]Module, len(c.Modules))}
	for i := range c.Modules {
		out.Modules[i] = cloneModule(c.Modules[i])
	}
	return out
}

func cloneModule(m Module) Module {
	out := Module{Name: m.Name, Ext: m.Ext}
	if len(m.Ports) > 0 {
		out.Ports = make([]Port, len(m.Ports))
		copy(out.Ports, m.Ports)
	}
	out.Body = cloneStmts(m.Body)
	return out
}

func cloneStmts(body []Stmt) []Stmt {
	if body == nil {
		return nil
	}
	out := make([]Stmt, len(body))
	for i, s := range body {
		out[i] = s
		if s.Kind == StmtWhen && s.When != nil {
			out[i].When = &WhenStmt{
				Cond: s.When.Cond,
				Then: cloneStmts(s.When.Then),
				Else: cloneStmts(s.When.Else),
			}
		}
	}
	return out
}

// DeclaredNames collects every name declared in a module body, including
// inside when blocks, in declaration order.
func (m *Module) DeclaredNames() []string {
	var names []string
	walkStmts(m.Body, func(s *Stmt) {
		if n := s.DeclaredName(); n != "" {
			names = append(names, n)
		}
	})
	return names
}

// walkStmts visits every statement in body, descending into when blocks.
func walkStmts(body []Stmt, fn func(*Stmt)) {
	for i := range body {
		fn(&body[i])
		if body[i].Kind == StmtWhen && body[i].When != nil {
			walkStmts(body[i].When.Then, fn)
			walkStmts(body[i].When.Else, fn)
		}
	}
}

// WalkStmts visits every statement in the module body, descending into
// when blocks. The visitor may mutate the statement in place.
func (m *Module) WalkStmts(fn func(*Stmt)) {
	walkStmts(m.Body, fn)
}

// PortType returns the type of a named port.
func (m *Module) PortType(name string) (Type, bool) {
	for _, p := range m.Ports {
		if p.Name == name {
			return p.Type, true
		}
	}
	return Type{}, false
}

// Instances lists the instance statements of a module body, including
// those nested under whens.
func (m *Module) Instances() []InstStmt {
	var out []InstStmt
	walkStmts(m.Body, func(s *Stmt) {
		if s.Kind == StmtInst {
			out = append(out, s.Inst)
		}
	})
	return out
}
