package circuit

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	// StmtWire declares a wire.
	StmtWire StmtKind = iota
	// StmtReg declares a clocked register.
	StmtReg
	// StmtNode binds a name to an expression.
	StmtNode
	// StmtConnect drives a sink from an expression.
	StmtConnect
	// StmtWhen is a conditional block (high form and looser).
	StmtWhen
	// StmtSMem declares sequential memory sugar (source form only).
	StmtSMem
	// StmtCMem declares combinational memory sugar (source form only).
	StmtCMem
	// StmtMem declares an explicit memory with canonical ports.
	StmtMem
	// StmtInst instantiates another module.
	StmtInst
)

// Stmt is one statement, a tagged union over StmtKind.
type Stmt struct {
	Kind StmtKind

	Wire    WireStmt
	Reg     RegStmt
	Node    NodeStmt
	Connect ConnectStmt
	When    *WhenStmt // pointer: recursive
	SMem    SugarMemStmt
	CMem    SugarMemStmt
	Mem     MemStmt
	Inst    InstStmt
}

// WireStmt declares a wire.
type WireStmt struct {
	Name string
	Type Type
}

// RegStmt declares a register driven by a clock.
type RegStmt struct {
	Name  string
	Type  Type
	Clock Expr
}

// NodeStmt binds a name to the value of an expression.
type NodeStmt struct {
	Name  string
	Value Expr
}

// ConnectStmt drives Loc (a reference chain) from Value.
type ConnectStmt struct {
	Loc   Expr
	Value Expr
}

// WhenStmt guards Then statements by Cond, with an optional Else.
type WhenStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// SugarMemStmt is the source-form memory declaration before desugaring.
type SugarMemStmt struct {
	Name  string
	Elem  Type
	Depth uint32
}

// MemStmt is an explicit memory. It exposes one read port r and one write
// port w as bundle-shaped fields: r.addr, r.en, r.data, w.addr, w.en,
// w.data, w.clk. Elem must be a ground type.
type MemStmt struct {
	Name  string
	Elem  Type
	Depth uint32
	Seq   bool // sequential (registered read) vs combinational
}

// InstStmt instantiates the module named Module under the name Name.
type InstStmt struct {
	Name   string
	Module string
}

// DeclaredName returns the name a statement declares, or "" for
// statements that declare nothing (connects, whens).
func (s Stmt) DeclaredName() string {
	switch s.Kind {
	case StmtWire:
		return s.Wire.Name
	case StmtReg:
		return s.Reg.Name
	case StmtNode:
		return s.Node.Name
	case StmtSMem:
		return s.SMem.Name
	case StmtCMem:
		return s.CMem.Name
	case StmtMem:
		return s.Mem.Name
	case StmtInst:
		return s.Inst.Name
	default:
		return ""
	}
}

// MemPortType returns the bundle type a mem presents for one of its
// canonical ports, given the address width.
func (m MemStmt) MemPortType(port string, addrWidth uint32) (Type, bool) {
	switch port {
	case "r":
		return Bundle(
			Field{Name: "addr", Type: UInt(addrWidth)},
			Field{Name: "en", Type: UInt(1)},
			Field{Name: "data", Type: m.Elem},
		), true
	case "w":
		return Bundle(
			Field{Name: "addr", Type: UInt(addrWidth)},
			Field{Name: "en", Type: UInt(1)},
			Field{Name: "data", Type: m.Elem},
			Field{Name: "clk", Type: Clock()},
		), true
	default:
		return Type{}, false
	}
}

// AddrWidth returns the number of address bits needed for a depth.
func AddrWidth(depth uint32) uint32 {
	if depth <= 1 {
		return 1
	}
	var w uint32
	for n := depth - 1; n > 0; n >>= 1 {
		w++
	}
	return w
}
