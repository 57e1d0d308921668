package clike

import (
	"strings"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// Translator draws C-family statements into one Builder. The dialect
// supplies the input and output call tables.
type Translator struct {
	b *flow.Builder
	d *Dialect
}

// NewTranslator returns a Translator drawing into b.
func NewTranslator(b *flow.Builder, d *Dialect) *Translator {
	return &Translator{b: b, d: d}
}

// Block returns the BlockFunc translating stmts in order.
func (t *Translator) Block(stmts []Stmt) flow.BlockFunc {
	return func(entry []flow.Exit) ([]flow.Exit, error) {
		return flow.Sequence(stmts, entry, t.stmt)
	}
}

// body flattens a statement body into a block.
func (t *Translator) body(s Stmt) flow.BlockFunc {
	return t.Block(flatten(s))
}

func flatten(s Stmt) []Stmt {
	switch x := s.(type) {
	case nil:
		return nil
	case *Block:
		if x == nil {
			return nil
		}
		return x.Stmts
	}
	return []Stmt{s}
}

func (t *Translator) nest(line int, fn func() ([]flow.Exit, error)) ([]flow.Exit, error) {
	if err := t.b.Enter(line); err != nil {
		return nil, err
	}
	defer t.b.Leave()
	return fn()
}

func (t *Translator) stmt(s Stmt, live []flow.Exit) ([]flow.Exit, error) {
	switch x := s.(type) {
	case *ExprStmt:
		return t.exprStmt(x, live), nil

	case *Block:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			return t.Block(x.Stmts)(live)
		})

	case *If:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			var otherwise flow.BlockFunc
			if x.Else != nil {
				otherwise = t.body(x.Else)
			}
			return t.b.If(live, Render(x.Cond), t.body(x.Then), otherwise)
		})

	case *While:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			return t.b.Loop(live, "while ("+Render(x.Cond)+")", t.body(x.Body))
		})

	case *For:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			return t.b.Loop(live, x.Keyword+" ("+Render(x.Header)+")", t.body(x.Body))
		})

	case *DoWhile:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			if !x.HasCond {
				return t.body(x.Body)(live)
			}
			return t.b.DoWhile(live, t.body(x.Body), Render(x.Cond))
		})

	case *Switch:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			return t.switchStmt(x, live)
		})

	case *Try:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			return t.b.Try(live, t.tryParts(x))
		})

	case *Return:
		text := "return"
		if len(x.Value) > 0 {
			text += " " + Render(x.Value)
		}
		return t.b.Terminal(live, flow.KindOutput, text), nil

	case *Throw:
		text := "throw"
		if len(x.Value) > 0 {
			text += " " + Render(x.Value)
		}
		return t.b.Terminal(live, flow.KindProcess, text), nil

	case *Break:
		return t.b.DeadEnd(live, jumpText("break", x.Label)), nil

	case *Continue:
		return t.b.DeadEnd(live, jumpText("continue", x.Label)), nil

	case *Using:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			head := t.b.Step(live, flow.KindProcess, x.Keyword+" ("+Render(x.Header)+")")
			return t.body(x.Body)(head)
		})

	case *FuncDecl, *Decl, *Empty:
		return live, nil
	}
	return t.b.Step(live, flow.KindProcess, "statement"), nil
}

func jumpText(kw, label string) string {
	if label == "" {
		return kw
	}
	return kw + " " + label
}

func (t *Translator) exprStmt(x *ExprStmt, live []flow.Exit) []flow.Exit {
	toks := x.Toks
	if len(toks) == 0 {
		return live
	}
	// a lone string is a directive such as "use strict"
	if len(toks) == 1 && toks[0].Kind == TokString {
		return live
	}

	text := Render(toks)
	if _, _, _, ok := SplitAssignment(toks); ok {
		return t.b.Step(live, flow.KindProcess, text)
	}
	if callee, ok := CallShape(toks); ok {
		return t.b.Step(live, t.d.CallKind(callee), text)
	}
	return t.b.Step(live, flow.KindProcess, text)
}

func (t *Translator) switchStmt(s *Switch, live []flow.Exit) ([]flow.Exit, error) {
	subject := Render(s.Subject)
	var (
		cases     []flow.Case
		otherwise flow.BlockFunc
	)
	for _, c := range s.Cases {
		body := t.Block(caseBody(c.Body))
		if c.Default {
			otherwise = body
			continue
		}
		tests := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			tests = append(tests, subject+" == "+Render(v))
		}
		cases = append(cases, flow.Case{Test: strings.Join(tests, " || "), Body: body})
	}
	return t.b.Switch(live, cases, otherwise)
}

// caseBody cuts a case body at its first top-level unlabeled break.
func caseBody(stmts []Stmt) []Stmt {
	for i, s := range stmts {
		if br, ok := s.(*Break); ok && br.Label == "" {
			return stmts[:i]
		}
	}
	return stmts
}

func (t *Translator) tryParts(x *Try) flow.TryParts {
	parts := flow.TryParts{Body: t.Block(x.Body.Stmts)}
	for _, c := range x.Catches {
		label := "catch"
		if len(c.Param) > 0 {
			label += " (" + Render(c.Param) + ")"
		}
		if len(c.Filter) > 0 {
			label += " when (" + Render(c.Filter) + ")"
		}
		parts.Handlers = append(parts.Handlers, flow.Handler{Label: label, Body: t.Block(c.Body.Stmts)})
	}
	if x.Finally != nil {
		parts.Finally = t.Block(x.Finally.Stmts)
	}
	return parts
}

// Unit draws one function-like unit: Start titled title, the params
// Input node, body, and End.
func Unit(title string, params []string, body []Stmt, d *Dialect, maxDepth int) (*flow.Diagram, error) {
	b := flow.NewBuilder(maxDepth)
	t := NewTranslator(b, d)
	if err := b.Function(title, params, t.Block(body)); err != nil {
		return nil, err
	}
	return b.Diagram(), nil
}
