// Package javascript translates JavaScript source into flowcharts. The
// front end is tolerant: it never reports syntax errors, and constructs it
// does not recognize are drawn as Process nodes with their raw text.
package javascript

import (
	"context"

	"github.com/dusk-indust/flowchart/internal/clike"
	"github.com/dusk-indust/flowchart/internal/flow"
)

// Frontend translates JavaScript source.
type Frontend struct {
	maxDepth int
}

// New returns a JavaScript Frontend. A non-positive maxDepth selects
// flow.DefaultMaxDepth.
func New(maxDepth int) *Frontend {
	if maxDepth <= 0 {
		maxDepth = flow.DefaultMaxDepth
	}
	return &Frontend{maxDepth: maxDepth}
}

// Language reports flow.LangJavaScript.
func (f *Frontend) Language() flow.Language { return flow.LangJavaScript }

// Translate scans the top level of source for functions, classes and
// function-valued bindings; everything else goes into the main diagram.
func (f *Frontend) Translate(ctx context.Context, source []byte) (*flow.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := clike.NewParser(clike.Lex(string(source), clike.JavaScript), clike.JavaScript, f.maxDepth)
	m := &module{}
	for !p.AtEOF() {
		if p.Peek().Is("}") {
			p.Next()
			continue
		}
		f.topLevel(p, m)
		if err := p.Err(); err != nil {
			return nil, err
		}
	}

	res := flow.NewResult()
	main := mainStatements(m.main)
	if len(main) > 0 {
		d, err := clike.Unit("start", nil, main, clike.JavaScript, f.maxDepth)
		if err != nil {
			return nil, err
		}
		res.Main = d
	}

	for _, fn := range m.functions {
		if err := f.function(res, fn, ""); err != nil {
			return nil, err
		}
	}
	// functions declared inside top-level blocks
	for _, fn := range clike.NestedFunctions(m.main) {
		if err := f.function(res, fn, ""); err != nil {
			return nil, err
		}
	}
	for _, c := range m.classes {
		if err := f.class(res, c); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// module collects the top-level declarations of one source file.
type module struct {
	main      []clike.Stmt
	functions []*clike.FuncDecl
	classes   []*classDecl
}

func (f *Frontend) topLevel(p *clike.Parser, m *module) {
	t := p.Peek()
	switch {
	case t.Is("import") && !p.PeekAt(1).Is("(") && !p.PeekAt(1).Is("."):
		p.SkipStatement()

	case t.Is("export"):
		p.Next()
		switch {
		case p.Accept("default"):
			f.declaration(p, m, true)
		case p.Peek().Is("{") || p.Peek().Is("*"):
			p.SkipStatement()
		default:
			f.declaration(p, m, false)
		}

	default:
		f.declaration(p, m, false)
	}
}

// declaration handles a function, class or binding at the current
// position. Any other statement goes to main, except after export default
// where a bare expression draws nothing.
func (f *Frontend) declaration(p *clike.Parser, m *module, exportDefault bool) {
	t := p.Peek()
	switch {
	case t.Is("function") || (t.Is("async") && p.PeekAt(1).Is("function")):
		fn := p.ParseFunction()
		if fn.Name == "" {
			fn.Name = "default"
		}
		m.functions = append(m.functions, fn)
		return

	case t.Is("class"):
		m.classes = append(m.classes, parseClass(p))
		return

	case t.Is("const") || t.Is("let") || t.Is("var"):
		if fn, ok := functionBinding(p); ok {
			m.functions = append(m.functions, fn)
			return
		}
	}

	if exportDefault {
		p.SkipStatement()
		return
	}
	if s := p.ParseStatement(); s != nil {
		m.main = append(m.main, s)
	}
}

// functionBinding recognizes `const name = <function value>`. The parser
// is left untouched when the binding is anything else.
func functionBinding(p *clike.Parser) (*clike.FuncDecl, bool) {
	mark := p.Mark()
	p.Next()
	name := p.Next()
	if name.Kind != clike.TokIdent || !p.Accept("=") {
		p.Reset(mark)
		return nil, false
	}
	fn, ok := p.FunctionValue()
	if !ok || !endOfBinding(p) {
		p.Reset(mark)
		return nil, false
	}
	p.Accept(";")
	if fn.Name == "" {
		fn.Name = name.Text
	}
	return fn, true
}

// endOfBinding reports whether the declaration ends after the function
// value, so `const f = () => 1, g = 2` stays a statement.
func endOfBinding(p *clike.Parser) bool {
	t := p.Peek()
	return t.Kind == clike.TokEOF || t.Is(";") || t.Is("}") || t.Newline
}

// mainStatements drops what draws nothing at module level.
func mainStatements(stmts []clike.Stmt) []clike.Stmt {
	var out []clike.Stmt
	for _, s := range stmts {
		switch x := s.(type) {
		case *clike.Empty, *clike.FuncDecl, *clike.Decl:
			continue
		case *clike.ExprStmt:
			if len(x.Toks) == 1 && x.Toks[0].Kind == clike.TokString {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func (f *Frontend) function(res *flow.Result, fn *clike.FuncDecl, prefix string) error {
	name := prefix + fn.Name
	d, err := clike.Unit(title(name, fn.Async), fn.Params, fn.Body, clike.JavaScript, f.maxDepth)
	if err != nil {
		return err
	}
	res.Functions = append(res.Functions, flow.Unit{Name: name, Kind: flow.UnitFunction, Diagram: d})
	return f.nested(res, fn.Body, name)
}

// nested adds a unit for every function declared inside body.
func (f *Frontend) nested(res *flow.Result, body []clike.Stmt, outer string) error {
	for _, inner := range clike.NestedFunctions(body) {
		if err := f.function(res, inner, outer+"."); err != nil {
			return err
		}
	}
	return nil
}

func title(name string, async bool) string {
	if async {
		return "async " + name
	}
	return name
}
