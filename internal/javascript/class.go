package javascript

import (
	"github.com/dusk-indust/flowchart/internal/clike"
	"github.com/dusk-indust/flowchart/internal/flow"
)

type classDecl struct {
	name    string
	members []member
}

type memberKind uint8

const (
	memberMethod memberKind = iota
	memberGetter
	memberSetter
	memberField
)

type member struct {
	kind memberKind
	name string
	fn   *clike.FuncDecl // nil for fields
}

// parseClass parses `class Name [extends Base] { ... }` at the current
// position.
func parseClass(p *clike.Parser) *classDecl {
	p.Next()
	c := &classDecl{name: "default"}
	if t := p.Peek(); t.Kind == clike.TokIdent {
		c.name = p.Next().Text
	}
	if p.Accept("extends") {
		p.SkipUntil("{")
	}
	if !p.Accept("{") {
		return c
	}

	for !p.AtEOF() {
		if p.Accept("}") {
			return c
		}
		if p.Accept(";") {
			continue
		}
		if m, ok := parseMember(p); ok {
			c.members = append(c.members, m)
		}
		if err := p.Err(); err != nil {
			return c
		}
	}
	return c
}

func parseMember(p *clike.Parser) (member, bool) {
	var m member
	if p.Peek().Is("static") {
		if p.PeekAt(1).Is("{") {
			// static initialization block
			p.Next()
			p.Balanced()
			return m, false
		}
		if !isMemberEnd(p.PeekAt(1)) {
			p.Next()
		}
	}

	async := false
	if p.Peek().Is("async") && !isMemberEnd(p.PeekAt(1)) && !p.PeekAt(1).Newline {
		p.Next()
		async = true
	}
	p.Accept("*")

	if t := p.Peek(); t.Kind == clike.TokIdent && (t.Text == "get" || t.Text == "set") && !isMemberEnd(p.PeekAt(1)) {
		p.Next()
		if t.Text == "get" {
			m.kind = memberGetter
		} else {
			m.kind = memberSetter
		}
	}

	start := p.Mark()
	m.name = memberName(p)
	if p.Mark() == start {
		// not a member name; drop the token so the loop makes progress
		p.Next()
		return m, false
	}

	if p.Peek().Is("(") {
		fn := &clike.FuncDecl{Name: m.name, Async: async}
		fn.Params = clike.ParamNames(p.Balanced())
		fn.Body = p.FunctionBody()
		m.fn = fn
		return m, true
	}

	m.kind = memberField
	if p.Accept("=") {
		p.SkipStatement()
	} else {
		p.Accept(";")
	}
	return m, true
}

// isMemberEnd reports whether t ends a member name, meaning the word before
// it is itself the name (a method called get, a field called static).
func isMemberEnd(t clike.Token) bool {
	return t.Is("(") || t.Is("=") || t.Is(";") || t.Is("}") || t.Kind == clike.TokEOF
}

func memberName(p *clike.Parser) string {
	t := p.Peek()
	switch {
	case t.Kind == clike.TokIdent || t.Kind == clike.TokKeyword:
		return p.Next().Text
	case t.Kind == clike.TokString:
		p.Next()
		return t.Value
	case t.Kind == clike.TokNumber:
		return p.Next().Text
	case t.Is("["):
		return "[" + clike.Render(p.Balanced()) + "]"
	}
	return ""
}

func (f *Frontend) class(res *flow.Result, c *classDecl) error {
	var (
		fields     = newNameSet()
		properties = newNameSet()
		methods    []string
	)

	for _, m := range c.members {
		name := c.name + "." + m.name
		switch m.kind {
		case memberField:
			fields.add(m.name)

		case memberGetter, memberSetter:
			properties.add(m.name)
			accessor := "get"
			if m.kind == memberSetter {
				accessor = "set"
			}
			name += "." + accessor
			d, err := clike.Unit(name, m.fn.Params, m.fn.Body, clike.JavaScript, f.maxDepth)
			if err != nil {
				return err
			}
			res.Functions = append(res.Functions, flow.Unit{Name: name, Kind: flow.UnitProperty, Diagram: d})

		case memberMethod:
			methods = append(methods, m.name)
			d, err := clike.Unit(title(name, m.fn.Async), m.fn.Params, m.fn.Body, clike.JavaScript, f.maxDepth)
			if err != nil {
				return err
			}
			res.Functions = append(res.Functions, flow.Unit{Name: name, Kind: flow.UnitMethod, Diagram: d})
			if m.name == "constructor" {
				thisFields(m.fn.Body, fields)
			}
			if err := f.nested(res, m.fn.Body, name); err != nil {
				return err
			}
		}
	}

	res.Classes = append(res.Classes, flow.Unit{
		Name:    c.name,
		Kind:    flow.UnitClass,
		Diagram: flow.BuildClass(c.name, fields.list, properties.list, methods),
	})
	return nil
}

// thisFields records every `this.x = ...` assigned in a constructor body.
func thisFields(body []clike.Stmt, fields *nameSet) {
	var walk func(stmts []clike.Stmt)
	walk = func(stmts []clike.Stmt) {
		for _, s := range stmts {
			switch x := s.(type) {
			case *clike.ExprStmt:
				target, _, _, ok := clike.SplitAssignment(x.Toks)
				if ok && len(target) == 3 && target[0].Is("this") && target[1].Is(".") {
					fields.add(target[2].Text)
				}
			case *clike.Block:
				walk(x.Stmts)
			case *clike.If:
				walk(blockOf(x.Then))
				walk(blockOf(x.Else))
			}
		}
	}
	walk(body)
}

func blockOf(s clike.Stmt) []clike.Stmt {
	switch x := s.(type) {
	case nil:
		return nil
	case *clike.Block:
		return x.Stmts
	}
	return []clike.Stmt{s}
}

// nameSet keeps first-seen order.
type nameSet struct {
	seen map[string]bool
	list []string
}

func newNameSet() *nameSet { return &nameSet{seen: map[string]bool{}} }

func (s *nameSet) add(name string) {
	if name == "" || s.seen[name] {
		return
	}
	s.seen[name] = true
	s.list = append(s.list, name)
}
