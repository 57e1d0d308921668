// Package csharp translates C# source into flowcharts. Like the JavaScript
// front end it is tolerant: malformed input yields approximate diagrams,
// never a syntax error.
package csharp

import (
	"context"

	"github.com/dusk-indust/flowchart/internal/clike"
	"github.com/dusk-indust/flowchart/internal/flow"
)

// Frontend translates C# source.
type Frontend struct {
	maxDepth int
}

// New returns a C# Frontend. A non-positive maxDepth selects
// flow.DefaultMaxDepth.
func New(maxDepth int) *Frontend {
	if maxDepth <= 0 {
		maxDepth = flow.DefaultMaxDepth
	}
	return &Frontend{maxDepth: maxDepth}
}

// Language reports flow.LangCSharp.
func (f *Frontend) Language() flow.Language { return flow.LangCSharp }

// Translate draws every type declared in source, its members, and the
// program's top-level statements.
func (f *Frontend) Translate(ctx context.Context, source []byte) (*flow.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := clike.NewParser(clike.Lex(string(source), clike.CSharp), clike.CSharp, f.maxDepth)
	res := flow.NewResult()
	var main []clike.Stmt

	for !p.AtEOF() {
		t := p.Peek()
		switch {
		case t.Is("}") || t.Is(";"):
			p.Next()
		case t.Is("["):
			// assembly attribute
			p.Balanced()
		case usingDirective(p):
			p.SkipStatement()
		case t.Is("namespace"):
			p.Next()
			p.SkipUntil("{", ";")
			p.Next()
		case typeAhead(p):
			if err := f.typeDecl(p, res, ""); err != nil {
				return nil, err
			}
		default:
			if s := p.ParseStatement(); s != nil {
				main = append(main, s)
			}
		}
		if err := p.Err(); err != nil {
			return nil, err
		}
	}

	if body := mainStatements(main); len(body) > 0 {
		d, err := clike.Unit("start", nil, body, clike.CSharp, f.maxDepth)
		if err != nil {
			return nil, err
		}
		res.Main = d
	}
	for _, fn := range clike.NestedFunctions(main) {
		if err := f.localFunction(res, fn, ""); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// usingDirective reports whether the parser is at `using X;`,
// `using static X;`, `using A = B;` or `global using X;`, as opposed to a
// using statement.
func usingDirective(p *clike.Parser) bool {
	i := 0
	if t := p.Peek(); t.Kind == clike.TokIdent && t.Text == "global" {
		i = 1
	}
	if !p.PeekAt(i).Is("using") {
		return false
	}
	next := p.PeekAt(i + 1)
	return !next.Is("(") && !next.Is("var") && !next.Is("await")
}

// mainStatements drops what draws nothing among top-level statements.
func mainStatements(stmts []clike.Stmt) []clike.Stmt {
	var out []clike.Stmt
	for _, s := range stmts {
		switch s.(type) {
		case *clike.Empty, *clike.FuncDecl, *clike.Decl:
			continue
		}
		out = append(out, s)
	}
	return out
}

// localFunction adds a unit for fn and for the local functions nested in
// it. prefix qualifies the name.
func (f *Frontend) localFunction(res *flow.Result, fn *clike.FuncDecl, prefix string) error {
	name := prefix + fn.Name
	d, err := clike.Unit(title(name, fn.Async), fn.Params, fn.Body, clike.CSharp, f.maxDepth)
	if err != nil {
		return err
	}
	res.Functions = append(res.Functions, flow.Unit{Name: name, Kind: flow.UnitFunction, Diagram: d})
	return f.nested(res, fn.Body, name)
}

func (f *Frontend) nested(res *flow.Result, body []clike.Stmt, outer string) error {
	for _, fn := range clike.NestedFunctions(body) {
		if err := f.localFunction(res, fn, outer+"."); err != nil {
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
