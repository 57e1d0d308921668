package clike

// Stmt is a C-family statement. Expressions stay as token runs; the
// renderer turns them into label text.
type Stmt interface {
	stmt()
	Line() int
}

type pos struct{ line int }

func (p pos) Line() int { return p.line }

type (
	Block struct {
		pos
		Stmts []Stmt
	}

	// ExprStmt is any simple statement: declarations, assignments, calls.
	ExprStmt struct {
		pos
		Toks []Token
	}

	If struct {
		pos
		Cond []Token
		Then Stmt
		Else Stmt // nil without an else branch
	}

	While struct {
		pos
		Cond []Token
		Body Stmt
	}

	// DoWhile has no condition when the trailing while is missing.
	DoWhile struct {
		pos
		Body    Stmt
		Cond    []Token
		HasCond bool
	}

	// For covers for, for-in/of, for await and foreach; Keyword holds
	// the leading keywords as written.
	For struct {
		pos
		Keyword string
		Header  []Token
		Body    Stmt
	}

	Switch struct {
		pos
		Subject []Token
		Cases   []SwitchCase
	}

	Try struct {
		pos
		Body    *Block
		Catches []Catch
		Finally *Block // nil without a finally clause
	}

	Return struct {
		pos
		Value []Token
	}

	Throw struct {
		pos
		Value []Token
	}

	Break struct {
		pos
		Label string
	}

	Continue struct {
		pos
		Label string
	}

	// Using is a header statement guarding a body: using (...), lock (...),
	// fixed (...) and with (...).
	Using struct {
		pos
		Keyword string
		Header  []Token
		Body    Stmt
	}

	// FuncDecl is a named function: a JavaScript function declaration or a
	// C# local function.
	FuncDecl struct {
		pos
		Name   string
		Params []string
		Body   []Stmt
		Async  bool
	}

	// Decl is a skipped nested type declaration.
	Decl struct {
		pos
		Keyword string
		Name    string
	}

	Empty struct{ pos }
)

// SwitchCase is one group of case labels with its statements.
type SwitchCase struct {
	Values  [][]Token
	Default bool
	Body    []Stmt
}

// Catch is one catch clause. Param and Filter are empty when absent.
type Catch struct {
	Param  []Token
	Filter []Token
	Body   *Block
}

func (*Block) stmt()    {}
func (*ExprStmt) stmt() {}
func (*If) stmt()       {}
func (*While) stmt()    {}
func (*DoWhile) stmt()  {}
func (*For) stmt()      {}
func (*Switch) stmt()   {}
func (*Try) stmt()      {}
func (*Return) stmt()   {}
func (*Throw) stmt()    {}
func (*Break) stmt()    {}
func (*Continue) stmt() {}
func (*Using) stmt()    {}
func (*FuncDecl) stmt() {}
func (*Decl) stmt()     {}
func (*Empty) stmt()    {}

// NestedFunctions returns the function declarations found anywhere in
// stmts, outermost first, without descending into the functions themselves.
func NestedFunctions(stmts []Stmt) []*FuncDecl {
	var out []*FuncDecl
	var walk func(s Stmt)
	walk = func(s Stmt) {
		switch x := s.(type) {
		case *FuncDecl:
			out = append(out, x)
		case *Block:
			if x == nil {
				return
			}
			for _, c := range x.Stmts {
				walk(c)
			}
		case *If:
			walk(x.Then)
			walk(x.Else)
		case *While:
			walk(x.Body)
		case *DoWhile:
			walk(x.Body)
		case *For:
			walk(x.Body)
		case *Using:
			walk(x.Body)
		case *Switch:
			for _, c := range x.Cases {
				for _, b := range c.Body {
					walk(b)
				}
			}
		case *Try:
			walk(x.Body)
			for _, c := range x.Catches {
				walk(c.Body)
			}
			walk(x.Finally)
		}
	}
	for _, s := range stmts {
		walk(s)
	}
	return out
}
