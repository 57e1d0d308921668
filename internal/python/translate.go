package python

import (
	"strings"

	"github.com/dusk-indust/flowchart/internal/flow"
)

var (
	inputCalls  = map[string]bool{"input": true, "raw_input": true, "sys.stdin.readline": true}
	outputCalls = map[string]bool{
		"print": true, "output": true, "pprint": true, "pprint.pprint": true,
		"sys.stdout.write": true, "sys.stderr.write": true,
	}
)

// callKind classifies a call statement by its callee.
func callKind(call *Call) flow.NodeKind {
	name := CalleeName(call.Func)
	switch {
	case inputCalls[name]:
		return flow.KindInput
	case outputCalls[name]:
		return flow.KindOutput
	}
	return flow.KindProcess
}

// translator draws Python statements into one Builder.
type translator struct {
	b *flow.Builder
}

func (t *translator) block(stmts []Stmt) flow.BlockFunc {
	return func(entry []flow.Exit) ([]flow.Exit, error) {
		return flow.Sequence(stmts, entry, t.stmt)
	}
}

// optional returns nil for an empty block so the combinators treat the
// branch as absent.
func (t *translator) optional(stmts []Stmt) flow.BlockFunc {
	if len(stmts) == 0 {
		return nil
	}
	return t.block(stmts)
}

func (t *translator) nest(line int, fn func() ([]flow.Exit, error)) ([]flow.Exit, error) {
	if err := t.b.Enter(line); err != nil {
		return nil, err
	}
	defer t.b.Leave()
	return fn()
}

func (t *translator) stmt(s Stmt, live []flow.Exit) ([]flow.Exit, error) {
	switch x := s.(type) {
	case *Assign:
		return t.b.Step(live, flow.KindProcess, RenderTargets(x.Targets)+" = "+RenderExpr(x.Value)), nil

	case *AugAssign:
		return t.b.Step(live, flow.KindProcess, RenderExpr(x.Target)+" "+x.Op.Symbol()+"= "+RenderExpr(x.Value)), nil

	case *AnnAssign:
		if x.Value == nil {
			return t.b.Step(live, flow.KindProcess, RenderExpr(x.Target)+": "+RenderExpr(x.Annotation)), nil
		}
		return t.b.Step(live, flow.KindProcess, RenderExpr(x.Target)+" = "+RenderExpr(x.Value)), nil

	case *ExprStmt:
		return t.exprStmt(x, live), nil

	case *If:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			return t.b.If(live, RenderExpr(x.Test), t.block(x.Body), t.optional(x.Orelse))
		})

	case *While:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			exits, err := t.b.Loop(live, "while "+RenderExpr(x.Test), t.block(x.Body))
			if err != nil {
				return nil, err
			}
			return t.loopElse(exits, x.Orelse)
		})

	case *For:
		header := "for " + RenderExpr(x.Target) + " in " + RenderExpr(x.Iter)
		if x.Async {
			header = "async " + header
		}
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			exits, err := t.b.Loop(live, header, t.block(x.Body))
			if err != nil {
				return nil, err
			}
			return t.loopElse(exits, x.Orelse)
		})

	case *Try:
		parts := flow.TryParts{Body: t.block(x.Body), Else: t.optional(x.Orelse)}
		for _, h := range x.Handlers {
			label := "except"
			if h.Type != "" {
				label += " " + h.Type
			}
			parts.Handlers = append(parts.Handlers, flow.Handler{Label: label, Body: t.block(h.Body)})
		}
		if x.HasFinally {
			parts.Finally = t.block(x.Finally)
		}
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			return t.b.Try(live, parts)
		})

	case *With:
		header := "with " + x.Header
		if x.Async {
			header = "async " + header
		}
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			return t.block(x.Body)(t.b.Step(live, flow.KindProcess, header))
		})

	case *Match:
		return t.nest(x.Line(), func() ([]flow.Exit, error) {
			return t.match(x, live)
		})

	case *Return:
		text := "return"
		if x.Value != nil {
			text += " " + RenderExpr(x.Value)
		}
		return t.b.Terminal(live, flow.KindOutput, text), nil

	case *Raise:
		text := "raise"
		if x.Exc != nil {
			text += " " + RenderExpr(x.Exc)
		}
		return t.b.Terminal(live, flow.KindProcess, text), nil

	case *Break:
		return t.b.DeadEnd(live, "break"), nil

	case *Continue:
		return t.b.DeadEnd(live, "continue"), nil

	case *Pass, *Import, *FunctionDef, *ClassDef:
		return live, nil

	case *Other:
		return t.b.Step(live, flow.KindProcess, x.Text), nil
	}
	return t.b.Step(live, flow.KindProcess, "statement"), nil
}

func (t *translator) exprStmt(x *ExprStmt, live []flow.Exit) []flow.Exit {
	value := x.Value
	if aw, ok := value.(*Await); ok {
		value = aw.Value
	}
	switch v := value.(type) {
	case *Str:
		// docstrings and other bare string literals draw nothing
		return live
	case *Call:
		return t.b.Step(live, callKind(v), RenderExpr(x.Value))
	}
	return t.b.Step(live, flow.KindProcess, RenderExpr(x.Value))
}

// loopElse runs a loop's else block once the loop finishes normally.
func (t *translator) loopElse(exits []flow.Exit, orelse []Stmt) ([]flow.Exit, error) {
	if len(orelse) == 0 {
		return exits, nil
	}
	live, returns := flow.Partition(exits)
	out, err := t.block(orelse)(live)
	if err != nil {
		return nil, err
	}
	return append(out, returns...), nil
}

func (t *translator) match(m *Match, live []flow.Exit) ([]flow.Exit, error) {
	subject := RenderExpr(m.Subject)
	var (
		cases     []flow.Case
		otherwise flow.BlockFunc
	)
	for _, c := range m.Cases {
		if c.Wildcard() {
			otherwise = t.block(c.Body)
			continue
		}
		test := subject + " == " + strings.Join(c.Patterns, " | ")
		if c.Guard != nil {
			test += " if " + RenderExpr(c.Guard)
		}
		cases = append(cases, flow.Case{Test: test, Body: t.block(c.Body)})
	}
	return t.b.Switch(live, cases, otherwise)
}
