package clike

import (
	"github.com/dusk-indust/flowchart/internal/flow"
)

// Parser is a tolerant recursive statement parser over a token slice.
// It never reports syntax errors: unknown constructs become ExprStmts and
// unterminated ones run to the end of input. The only error is exceeding
// the nesting limit.
type Parser struct {
	toks     []Token
	pos      int
	d        *Dialect
	maxDepth int
	depth    int
	err      error
}

// NewParser returns a Parser over toks, which must end with TokEOF as
// produced by Lex.
func NewParser(toks []Token, d *Dialect, maxDepth int) *Parser {
	if maxDepth <= 0 {
		maxDepth = flow.DefaultMaxDepth
	}
	if len(toks) == 0 || toks[len(toks)-1].Kind != TokEOF {
		toks = append(toks, Token{Kind: TokEOF})
	}
	return &Parser{toks: toks, d: d, maxDepth: maxDepth}
}

// Err returns the DepthError that stopped parsing, if any.
func (p *Parser) Err() error { return p.err }

func (p *Parser) Peek() Token { return p.toks[p.pos] }

// PeekAt returns the token k positions ahead, or EOF.
func (p *Parser) PeekAt(k int) Token {
	if i := p.pos + k; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

// Next consumes and returns the current token. EOF is never consumed.
func (p *Parser) Next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokEOF {
		p.pos++
	}
	return t
}

func (p *Parser) AtEOF() bool { return p.toks[p.pos].Kind == TokEOF }

// Accept consumes the current token when it is the punctuator or keyword text.
func (p *Parser) Accept(text string) bool {
	if p.Peek().Is(text) {
		p.Next()
		return true
	}
	return false
}

// Mark and Reset save and restore the position for backtracking.
func (p *Parser) Mark() int     { return p.pos }
func (p *Parser) Reset(mark int) { p.pos = mark }

// Since returns the tokens consumed after mark.
func (p *Parser) Since(mark int) []Token { return p.toks[mark:p.pos] }

func (p *Parser) enter(line int) bool {
	if p.err != nil {
		return false
	}
	if p.depth >= p.maxDepth {
		p.err = &flow.DepthError{Line: line, Limit: p.maxDepth}
		p.pos = len(p.toks) - 1
		return false
	}
	p.depth++
	return true
}

func (p *Parser) leave() { p.depth-- }

// Balanced consumes a bracketed group starting at the current opener and
// returns the tokens strictly inside it.
func (p *Parser) Balanced() []Token {
	p.Next()
	start := p.pos
	depth := 1
	for !p.AtEOF() {
		t := p.Peek()
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			depth--
			if depth == 0 {
				inner := p.toks[start:p.pos]
				p.Next()
				return inner
			}
		}
		p.Next()
	}
	return p.toks[start:p.pos]
}

// SkipUntil consumes tokens up to, not including, the first top-level
// token matching one of texts, and returns them.
func (p *Parser) SkipUntil(texts ...string) []Token {
	start := p.pos
	depth := 0
	for !p.AtEOF() {
		t := p.Peek()
		if depth == 0 {
			for _, text := range texts {
				if t.Is(text) {
					return p.toks[start:p.pos]
				}
			}
		}
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			if depth == 0 {
				return p.toks[start:p.pos]
			}
			depth--
		}
		p.Next()
	}
	return p.toks[start:p.pos]
}

// ParseStatements parses statements until end of input. Stray closing
// braces are skipped.
func (p *Parser) ParseStatements() []Stmt {
	var out []Stmt
	for !p.AtEOF() {
		if p.Peek().Is("}") {
			p.Next()
			continue
		}
		if s := p.ParseStatement(); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// ParseBlock parses `{ ... }` starting at the current brace.
func (p *Parser) ParseBlock() *Block {
	open := p.Next()
	b := &Block{pos: pos{open.Line}}
	for {
		t := p.Peek()
		if t.Kind == TokEOF {
			return b
		}
		if t.Is("}") {
			p.Next()
			return b
		}
		if s := p.ParseStatement(); s != nil {
			b.Stmts = append(b.Stmts, s)
		}
	}
}

// ParseStatement parses one statement. At a closing brace it returns an
// Empty statement without consuming it; at EOF it returns nil.
func (p *Parser) ParseStatement() Stmt {
	t := p.Peek()
	at := pos{t.Line}
	switch {
	case t.Kind == TokEOF:
		return nil
	case t.Is("}"):
		return &Empty{pos: at}
	case t.Is(";"):
		p.Next()
		return &Empty{pos: at}
	case t.Is("{"):
		if !p.enter(t.Line) {
			return &Empty{pos: at}
		}
		defer p.leave()
		return p.ParseBlock()
	case t.Kind == TokKeyword:
		if s, ok := p.keywordStatement(t); ok {
			return s
		}
	case t.Kind == TokIdent && p.d.ASI && p.PeekAt(1).Is(":"):
		// labeled statement
		p.Next()
		p.Next()
		return p.parseBody()
	}

	if p.d.LocalFunctions {
		if fn := p.localFunction(); fn != nil {
			return fn
		}
	}

	toks := p.SkipStatement()
	if len(toks) == 0 {
		return &Empty{pos: at}
	}
	return &ExprStmt{pos: at, Toks: toks}
}

func (p *Parser) keywordStatement(t Token) (Stmt, bool) {
	at := pos{t.Line}
	switch t.Text {
	case "if":
		return p.parseIf(), true
	case "while":
		return p.parseWhile(), true
	case "do":
		return p.parseDo(), true
	case "for", "foreach":
		return p.parseFor(), true
	case "switch":
		if p.PeekAt(1).Is("(") {
			return p.parseSwitch(), true
		}
	case "try":
		return p.parseTry(), true
	case "return":
		p.Next()
		return &Return{pos: at, Value: p.value()}, true
	case "throw":
		p.Next()
		return &Throw{pos: at, Value: p.value()}, true
	case "break":
		p.Next()
		return &Break{pos: at, Label: p.jumpLabel()}, true
	case "continue":
		p.Next()
		return &Continue{pos: at, Label: p.jumpLabel()}, true
	case "function":
		return p.ParseFunction(), true
	case "async":
		if p.PeekAt(1).Is("function") {
			return p.ParseFunction(), true
		}
	case "await":
		if next := p.PeekAt(1); next.Is("foreach") || next.Is("using") {
			p.Next()
			s, ok := p.keywordStatement(p.Peek())
			switch x := s.(type) {
			case *For:
				x.Keyword = "await " + x.Keyword
			case *Using:
				x.Keyword = "await " + x.Keyword
			}
			return s, ok
		}
	case "class", "interface", "struct", "enum", "record":
		if p.PeekAt(1).Kind == TokIdent {
			return p.skipDecl(), true
		}
	case "using", "lock", "fixed":
		if p.PeekAt(1).Is("(") {
			return p.parseUsing(), true
		}
	case "with":
		if p.PeekAt(1).Is("(") {
			return p.parseUsing(), true
		}
	case "checked", "unchecked", "unsafe":
		if p.PeekAt(1).Is("{") {
			p.Next()
			return p.ParseStatement(), true
		}
	case "else":
		p.Next()
		return p.parseBody(), true
	}
	return nil, false
}

// parseBody parses the body of a compound statement: a block or a single
// statement.
func (p *Parser) parseBody() Stmt {
	t := p.Peek()
	if t.Kind == TokEOF || t.Is("}") {
		return &Empty{pos: pos{t.Line}}
	}
	if t.Is("{") {
		return p.ParseBlock()
	}
	return p.ParseStatement()
}

// condition reads a parenthesized condition, or for malformed input the
// tokens up to the next brace, semicolon or line break.
func (p *Parser) condition() []Token {
	if p.Peek().Is("(") {
		return p.Balanced()
	}
	start := p.pos
	for !p.AtEOF() {
		t := p.Peek()
		if t.Is("{") || t.Is(";") || t.Is("}") || (p.pos > start && t.Newline) {
			break
		}
		p.Next()
	}
	return p.toks[start:p.pos]
}

func (p *Parser) parseIf() Stmt {
	t := p.Next()
	if !p.enter(t.Line) {
		return &Empty{pos: pos{t.Line}}
	}
	defer p.leave()

	s := &If{pos: pos{t.Line}, Cond: p.condition()}
	s.Then = p.parseBody()
	if p.Accept("else") {
		s.Else = p.parseBody()
	}
	return s
}

func (p *Parser) parseWhile() Stmt {
	t := p.Next()
	if !p.enter(t.Line) {
		return &Empty{pos: pos{t.Line}}
	}
	defer p.leave()

	s := &While{pos: pos{t.Line}, Cond: p.condition()}
	s.Body = p.parseBody()
	return s
}

func (p *Parser) parseDo() Stmt {
	t := p.Next()
	if !p.enter(t.Line) {
		return &Empty{pos: pos{t.Line}}
	}
	defer p.leave()

	s := &DoWhile{pos: pos{t.Line}, Body: p.parseBody()}
	if p.Accept("while") {
		s.Cond = p.condition()
		s.HasCond = true
		p.Accept(";")
	}
	return s
}

func (p *Parser) parseFor() Stmt {
	t := p.Next()
	if !p.enter(t.Line) {
		return &Empty{pos: pos{t.Line}}
	}
	defer p.leave()

	s := &For{pos: pos{t.Line}, Keyword: t.Text}
	if p.Accept("await") {
		s.Keyword += " await"
	}
	s.Header = p.condition()
	s.Body = p.parseBody()
	return s
}

func (p *Parser) parseSwitch() Stmt {
	t := p.Next()
	if !p.enter(t.Line) {
		return &Empty{pos: pos{t.Line}}
	}
	defer p.leave()

	s := &Switch{pos: pos{t.Line}, Subject: p.condition()}
	if !p.Accept("{") {
		return s
	}

	var cur *SwitchCase
	startCase := func() *SwitchCase {
		// consecutive labels without statements share one case
		if cur != nil && len(cur.Body) == 0 {
			return cur
		}
		s.Cases = append(s.Cases, SwitchCase{})
		cur = &s.Cases[len(s.Cases)-1]
		return cur
	}

	for !p.AtEOF() {
		tok := p.Peek()
		switch {
		case tok.Is("}"):
			p.Next()
			return s
		case tok.Is("case"):
			p.Next()
			value := p.caseValue()
			c := startCase()
			c.Values = append(c.Values, value)
		case tok.Is("default") && p.PeekAt(1).Is(":"):
			p.Next()
			p.Next()
			c := startCase()
			c.Default = true
		default:
			stmt := p.ParseStatement()
			if stmt == nil {
				return s
			}
			if cur != nil {
				cur.Body = append(cur.Body, stmt)
			}
		}
	}
	return s
}

// caseValue reads a case label up to its colon. Colons of a nested
// conditional expression are kept.
func (p *Parser) caseValue() []Token {
	start := p.pos
	depth, ternary := 0, 0
	for !p.AtEOF() {
		t := p.Peek()
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			if depth == 0 {
				return p.toks[start:p.pos]
			}
			depth--
		case t.Is("?") && depth == 0:
			ternary++
		case t.Is(":") && depth == 0:
			if ternary == 0 {
				value := p.toks[start:p.pos]
				p.Next()
				return value
			}
			ternary--
		}
		p.Next()
	}
	return p.toks[start:p.pos]
}

func (p *Parser) parseTry() Stmt {
	t := p.Next()
	if !p.enter(t.Line) {
		return &Empty{pos: pos{t.Line}}
	}
	defer p.leave()

	s := &Try{pos: pos{t.Line}, Body: p.blockOrEmpty()}
	for {
		switch {
		case p.Accept("catch"):
			var c Catch
			if p.Peek().Is("(") {
				c.Param = p.Balanced()
			}
			if p.Accept("when") && p.Peek().Is("(") {
				c.Filter = p.Balanced()
			}
			c.Body = p.blockOrEmpty()
			s.Catches = append(s.Catches, c)
		case p.Accept("finally"):
			s.Finally = p.blockOrEmpty()
			return s
		default:
			return s
		}
	}
}

func (p *Parser) blockOrEmpty() *Block {
	if p.Peek().Is("{") {
		return p.ParseBlock()
	}
	return &Block{pos: pos{p.Peek().Line}}
}

func (p *Parser) parseUsing() Stmt {
	t := p.Next()
	if !p.enter(t.Line) {
		return &Empty{pos: pos{t.Line}}
	}
	defer p.leave()

	s := &Using{pos: pos{t.Line}, Keyword: t.Text, Header: p.Balanced()}
	s.Body = p.parseBody()
	return s
}

// value reads the operand of return or throw. Under ASI a line break
// right after the keyword ends the statement.
func (p *Parser) value() []Token {
	t := p.Peek()
	if p.d.ASI && t.Newline {
		return nil
	}
	return p.SkipStatement()
}

func (p *Parser) jumpLabel() string {
	var label string
	if t := p.Peek(); t.Kind == TokIdent && !t.Newline {
		label = p.Next().Text
	}
	p.Accept(";")
	return label
}

// skipDecl consumes a nested type declaration including its body.
func (p *Parser) skipDecl() Stmt {
	kw := p.Next()
	d := &Decl{pos: pos{kw.Line}, Keyword: kw.Text, Name: p.Next().Text}
	p.SkipUntil("{", ";")
	if p.Peek().Is("{") {
		p.Balanced()
	} else {
		p.Accept(";")
	}
	return d
}

// ParseFunction parses `[async] function [*] [name] (params) { body }`.
func (p *Parser) ParseFunction() *FuncDecl {
	fn := &FuncDecl{pos: pos{p.Peek().Line}}
	if p.Accept("async") {
		fn.Async = true
	}
	p.Accept("function")
	p.Accept("*")
	if t := p.Peek(); t.Kind == TokIdent {
		fn.Name = p.Next().Text
	}
	if p.Peek().Is("(") {
		fn.Params = ParamNames(p.Balanced())
	}
	fn.Body = p.FunctionBody()
	return fn
}

// FunctionBody parses a `{ ... }` function body one nesting level deeper.
// Without a brace it returns nil and consumes nothing.
func (p *Parser) FunctionBody() []Stmt {
	t := p.Peek()
	if !t.Is("{") {
		return nil
	}
	if !p.enter(t.Line) {
		return nil
	}
	defer p.leave()
	return p.ParseBlock().Stmts
}

// FunctionValue parses a function-valued expression at the current
// position: `function (...) {...}`, `(a, b) => ...` or `x => ...`, any of
// them optionally async. An expression body becomes a single return. When
// no function value starts here the position is restored.
func (p *Parser) FunctionValue() (*FuncDecl, bool) {
	mark := p.Mark()
	fn := &FuncDecl{pos: pos{p.Peek().Line}}
	if p.Peek().Is("async") && !p.PeekAt(1).Newline {
		fn.Async = true
		p.Next()
	}

	t := p.Peek()
	switch {
	case t.Is("function"):
		f := p.ParseFunction()
		f.Async = f.Async || fn.Async
		return f, true
	case t.Is("("):
		params := p.Balanced()
		if !p.Peek().Is("=>") {
			p.Reset(mark)
			return nil, false
		}
		p.Next()
		fn.Params = ParamNames(params)
	case t.Kind == TokIdent && p.PeekAt(1).Is("=>"):
		fn.Params = []string{t.Text}
		p.Next()
		p.Next()
	default:
		p.Reset(mark)
		return nil, false
	}

	if p.Peek().Is("{") {
		fn.Body = p.FunctionBody()
		return fn, true
	}
	line := p.Peek().Line
	start := p.Mark()
	value := p.SkipStatement()
	if i := indexTop(value, ","); i >= 0 {
		// the body ends at a declarator comma: `f = x => x, g = 1`
		p.Reset(start + i)
		value = value[:i]
	}
	fn.Body = []Stmt{&Return{pos: pos{line}, Value: value}}
	return fn, true
}

// ExpressionBody parses the expression after `=>` as a function body: a
// single return, or a plain statement when the function returns nothing.
func (p *Parser) ExpressionBody(void bool) []Stmt {
	line := p.Peek().Line
	expr := p.SkipStatement()
	if void {
		return []Stmt{&ExprStmt{pos: pos{line}, Toks: expr}}
	}
	return []Stmt{&Return{pos: pos{line}, Value: expr}}
}

// SkipStatement consumes one simple statement and returns its tokens
// without the terminating semicolon. It stops before a top-level closing
// brace, after a brace block that directly follows a parenthesized list,
// and under ASI at a line break the next token cannot continue.
func (p *Parser) SkipStatement() []Token {
	start := p.pos
	depth := 0
	var afterParen []bool

	for !p.AtEOF() {
		t := p.Peek()
		if depth == 0 {
			if t.Is(";") {
				toks := p.toks[start:p.pos]
				p.Next()
				return toks
			}
			if t.Is("}") {
				break
			}
			if p.d.ASI && p.pos > start && t.Newline && endsStatement(p.toks[p.pos-1]) && !continuesStatement(t) {
				break
			}
		}

		switch {
		case t.Is("{"):
			afterParen = append(afterParen, depth == 0 && p.pos > start && p.toks[p.pos-1].Is(")"))
			depth++
		case t.Is("(") || t.Is("["):
			depth++
		case t.Is("}"):
			depth--
			closed := false
			if n := len(afterParen); n > 0 {
				closed = afterParen[n-1]
				afterParen = afterParen[:n-1]
			}
			if depth == 0 && closed {
				p.Next()
				return p.toks[start:p.pos]
			}
		case t.Is(")") || t.Is("]"):
			depth = max(depth-1, 0)
		}
		p.Next()
	}
	return p.toks[start:p.pos]
}

var (
	endKeywords = set("this", "null", "true", "false", "undefined", "super", "break", "continue")

	continuePuncts = set(
		".", "?.", ",", "=", "+", "-", "*", "/", "%", "**", "&&", "||", "??",
		"==", "===", "!=", "!==", "<", ">", "<=", ">=", "?", ":", "=>", "(", "[",
		"&", "|", "^", "<<", ">>", ">>>",
	)
)

func endsStatement(t Token) bool {
	switch t.Kind {
	case TokIdent, TokNumber, TokString, TokRegex:
		return true
	case TokKeyword:
		return endKeywords[t.Text]
	case TokPunct:
		switch t.Text {
		case ")", "]", "}", "++", "--":
			return true
		}
	}
	return false
}

func continuesStatement(t Token) bool {
	switch t.Kind {
	case TokPunct:
		return continuePuncts[t.Text] || assignOps[t.Text]
	case TokKeyword:
		return t.Text == "instanceof" || t.Text == "in" || t.Text == "of"
	}
	return false
}

// notLocalStart lists words that cannot begin a local function declaration.
var notLocalStart = set(
	"new", "return", "await", "throw", "yield", "case", "goto", "else", "typeof",
	"nameof", "sizeof", "default", "using", "lock", "var",
)

// localFunction recognizes a C# local function `[mods] Type Name(params)`
// followed by a body or `=>`. It consumes nothing when the shape does not
// match.
func (p *Parser) localFunction() Stmt {
	t := p.Peek()
	if notLocalStart[t.Text] {
		return nil
	}

	paren, words, isVoid, isAsync := p.scanDeclHead(p.pos)
	if paren < 0 || words < 2 || p.toks[paren-1].Kind != TokIdent {
		return nil
	}
	closeAt := p.matchIndex(paren)
	after := p.toks[min(closeAt+1, len(p.toks)-1)]
	if !after.Is("{") && !after.Is("=>") && after.Text != "where" {
		return nil
	}

	fn := &FuncDecl{pos: pos{t.Line}, Name: p.toks[paren-1].Text, Async: isAsync}
	p.pos = paren
	fn.Params = ParamNames(p.Balanced())
	p.SkipUntil("{", "=>", ";")
	switch {
	case p.Peek().Is("{"):
		fn.Body = p.FunctionBody()
	case p.Accept("=>"):
		fn.Body = p.ExpressionBody(isVoid)
	default:
		p.Accept(";")
	}
	return fn
}

// scanDeclHead walks a declaration head (modifiers, a possibly generic or
// array type, a name) from i and returns the index of the opening
// parenthesis, or -1 when another token interrupts the head.
func (p *Parser) scanDeclHead(i int) (paren, words int, isVoid, isAsync bool) {
	angle := 0
	for ; i < len(p.toks); i++ {
		t := p.toks[i]
		switch {
		case t.Kind == TokIdent || t.Kind == TokKeyword:
			words++
			isVoid = isVoid || t.Text == "void"
			isAsync = isAsync || t.Text == "async"
		case t.Is("<"):
			angle++
		case t.Is(">"):
			angle--
		case t.Is(">>"):
			angle -= 2
		case t.Is("[") || t.Is("]") || t.Is("?") || t.Is("."):
		case t.Is(",") && angle > 0:
		case t.Is("(") && angle == 0:
			return i, words, isVoid, isAsync
		default:
			return -1, 0, false, false
		}
	}
	return -1, 0, false, false
}

// matchIndex returns the index of the bracket closing the opener at i,
// or the EOF index.
func (p *Parser) matchIndex(i int) int {
	depth := 0
	for j := i; j < len(p.toks); j++ {
		switch {
		case isOpen(p.toks[j]):
			depth++
		case isClose(p.toks[j]):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(p.toks) - 1
}
