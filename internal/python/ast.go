package python

// --- Statements ---

// Stmt is a Python statement. The set of implementations is closed.
type Stmt interface {
	stmt()
	Line() int
}

// pos carries the 1-based source line of a node.
type pos struct{ line int }

func (p pos) Line() int { return p.line }

type (
	// Assign is `a = b = value`.
	Assign struct {
		pos
		Targets []Expr
		Value   Expr
	}

	// AugAssign is `target op= value`.
	AugAssign struct {
		pos
		Target Expr
		Op     Op
		Value  Expr
	}

	// AnnAssign is `target: annotation [= value]`.
	AnnAssign struct {
		pos
		Target     Expr
		Annotation Expr
		Value      Expr // nil when absent
	}

	// ExprStmt is an expression evaluated for its effect.
	ExprStmt struct {
		pos
		Value Expr
	}

	// If holds an if statement; elif chains nest in Orelse.
	If struct {
		pos
		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}

	While struct {
		pos
		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}

	For struct {
		pos
		Target Expr
		Iter   Expr
		Body   []Stmt
		Orelse []Stmt
		Async  bool
	}

	Try struct {
		pos
		Body       []Stmt
		Handlers   []ExceptHandler
		Orelse     []Stmt
		Finally    []Stmt
		HasFinally bool
	}

	// With is a with statement; Header is the rendered item list.
	With struct {
		pos
		Header string
		Body   []Stmt
		Async  bool
	}

	Match struct {
		pos
		Subject Expr
		Cases   []MatchCase
	}

	Return struct {
		pos
		Value Expr // nil for a bare return
	}

	Raise struct {
		pos
		Exc Expr // nil for a bare raise
	}

	Break    struct{ pos }
	Continue struct{ pos }
	Pass     struct{ pos }

	FunctionDef struct {
		pos
		Name       string
		Params     []string
		Body       []Stmt
		Decorators []string
		Async      bool
	}

	ClassDef struct {
		pos
		Name  string
		Bases []Expr
		Body  []Stmt
	}

	// Import covers import, from-import, global and nonlocal: statements
	// that do not change control flow.
	Import struct {
		pos
		Text string
	}

	// Other is any remaining simple statement, drawn with its source text.
	Other struct {
		pos
		Text string
	}
)

// ExceptHandler is one except clause. Type is the raw clause text after
// `except`, empty for a bare except.
type ExceptHandler struct {
	Type string
	Body []Stmt
}

// MatchCase is one case clause of a match statement.
type MatchCase struct {
	Patterns []string
	Guard    Expr // nil when absent
	Body     []Stmt
}

// Wildcard reports whether the case matches anything (`case _:`).
func (c MatchCase) Wildcard() bool {
	return c.Guard == nil && len(c.Patterns) == 1 && c.Patterns[0] == "_"
}

func (*Assign) stmt()      {}
func (*AugAssign) stmt()   {}
func (*AnnAssign) stmt()   {}
func (*ExprStmt) stmt()    {}
func (*If) stmt()          {}
func (*While) stmt()       {}
func (*For) stmt()         {}
func (*Try) stmt()         {}
func (*With) stmt()        {}
func (*Match) stmt()       {}
func (*Return) stmt()      {}
func (*Raise) stmt()       {}
func (*Break) stmt()       {}
func (*Continue) stmt()    {}
func (*Pass) stmt()        {}
func (*FunctionDef) stmt() {}
func (*ClassDef) stmt()    {}
func (*Import) stmt()      {}
func (*Other) stmt()       {}

// --- Expressions ---

// Expr is a Python expression. The set of implementations is closed.
type Expr interface {
	expr()
}

type (
	Name struct{ ID string }

	// Num keeps the literal as written.
	Num struct{ Text string }

	// Str is a string literal; Value excludes prefix and quotes.
	Str struct {
		Prefix string
		Value  string
	}

	// Const is True, False, None or `...`.
	Const struct{ Value string }

	BinOp struct {
		Left  Expr
		Op    Op
		Right Expr
	}

	UnaryOp struct {
		Op      Op
		Operand Expr
	}

	// BoolOp joins two or more values with one of and/or.
	BoolOp struct {
		Op     Op
		Values []Expr
	}

	// Compare is a chained comparison: Left Ops[0] Comparators[0] ...
	Compare struct {
		Left        Expr
		Ops         []Op
		Comparators []Expr
	}

	Call struct {
		Func Expr
		Args []Expr
	}

	// Keyword is a keyword argument `name=value`.
	Keyword struct {
		Name  string
		Value Expr
	}

	// Starred is `*value`, or `**value` when Double is set.
	Starred struct {
		Value  Expr
		Double bool
	}

	List struct{ Elts []Expr }

	// Tuple renders bare when it was written without parentheses.
	Tuple struct {
		Elts []Expr
		Bare bool
	}

	Set struct{ Elts []Expr }

	Dict struct{ Items []DictItem }

	Attribute struct {
		Value Expr
		Attr  string
	}

	Subscript struct {
		Value Expr
		Index []Expr
	}

	// Slice is lower:upper[:step]; any part may be nil.
	Slice struct {
		Lower, Upper, Step Expr
		HasStep            bool
	}

	IfExp struct {
		Test, Body, Orelse Expr
	}

	Comprehension struct{ Kind CompKind }

	Lambda struct {
		Params []string
		Body   Expr
	}

	Await struct{ Value Expr }

	// Yield is `yield value` or `yield from value`.
	Yield struct {
		Value Expr
		From  bool
	}

	// NamedExpr is the walrus `target := value`.
	NamedExpr struct {
		Target string
		Value  Expr
	}

	Paren struct{ Inner Expr }

	// Unknown is any shape the renderer has no rule for.
	Unknown struct{}
)

// DictItem is `key: value`, or `**value` when Key is nil.
type DictItem struct {
	Key   Expr
	Value Expr
}

// CompKind distinguishes comprehension forms.
type CompKind uint8

const (
	CompList CompKind = iota
	CompSet
	CompDict
	CompGenerator
)

func (*Name) expr()          {}
func (*Num) expr()           {}
func (*Str) expr()           {}
func (*Const) expr()         {}
func (*BinOp) expr()         {}
func (*UnaryOp) expr()       {}
func (*BoolOp) expr()        {}
func (*Compare) expr()       {}
func (*Call) expr()          {}
func (*Keyword) expr()       {}
func (*Starred) expr()       {}
func (*List) expr()          {}
func (*Tuple) expr()         {}
func (*Set) expr()           {}
func (*Dict) expr()          {}
func (*Attribute) expr()     {}
func (*Subscript) expr()     {}
func (*Slice) expr()         {}
func (*IfExp) expr()         {}
func (*Comprehension) expr() {}
func (*Lambda) expr()        {}
func (*Await) expr()         {}
func (*Yield) expr()         {}
func (*NamedExpr) expr()     {}
func (*Paren) expr()         {}
func (*Unknown) expr()       {}

// --- Operators ---

// Op is a Python operator.
type Op uint8

const (
	OpInvalid Op = iota
	OpAdd
	OpSub
	OpMul
	OpMatMul
	OpDiv
	OpMod
	OpPow
	OpFloorDiv
	OpLShift
	OpRShift
	OpBitOr
	OpBitXor
	OpBitAnd
	OpEq
	OpNotEq
	OpLt
	OpLtE
	OpGt
	OpGtE
	OpIn
	OpNotIn
	OpIs
	OpIsNot
	OpAnd
	OpOr
	OpNot
	OpUAdd
	OpUSub
	OpInvert
)

// binaryOps maps source tokens of binary, comparison and boolean
// operators to their Op.
var binaryOps = map[string]Op{
	"+": OpAdd, "-": OpSub, "*": OpMul, "@": OpMatMul, "/": OpDiv, "%": OpMod,
	"**": OpPow, "//": OpFloorDiv, "<<": OpLShift, ">>": OpRShift,
	"|": OpBitOr, "^": OpBitXor, "&": OpBitAnd,
	"==": OpEq, "!=": OpNotEq, "<>": OpNotEq, "<": OpLt, "<=": OpLtE, ">": OpGt, ">=": OpGtE,
	"in": OpIn, "not in": OpNotIn, "is": OpIs, "is not": OpIsNot,
	"and": OpAnd, "or": OpOr,
}

var unaryOps = map[string]Op{
	"not": OpNot, "+": OpUAdd, "-": OpUSub, "~": OpInvert,
}

// opSymbols is the operator -> rendered symbol table.
var opSymbols = map[Op]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpMatMul: "@", OpDiv: "/", OpMod: "%",
	OpPow: "**", OpFloorDiv: "//", OpLShift: "<<", OpRShift: ">>",
	OpBitOr: "|", OpBitXor: "^", OpBitAnd: "&",
	OpEq: "==", OpNotEq: "!=", OpLt: "<", OpLtE: "<=", OpGt: ">", OpGtE: ">=",
	OpIn: "in", OpNotIn: "not in", OpIs: "is", OpIsNot: "is not",
	OpAnd: "and", OpOr: "or",
	OpNot: "not ", OpUAdd: "+", OpUSub: "-", OpInvert: "~",
}

// Symbol returns the rendered form of op, or "?" for operators outside the table.
func (op Op) Symbol() string {
	if s, ok := opSymbols[op]; ok {
		return s
	}
	return "?"
}

// Module is a parsed source file.
type Module struct {
	Body []Stmt
}
