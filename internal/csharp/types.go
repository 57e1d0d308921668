package csharp

import (
	"github.com/dusk-indust/flowchart/internal/clike"
	"github.com/dusk-indust/flowchart/internal/flow"
)

var modifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true, "static": true,
	"sealed": true, "abstract": true, "partial": true, "readonly": true, "unsafe": true,
	"new": true, "virtual": true, "override": true, "extern": true, "async": true,
	"const": true, "volatile": true, "file": true, "required": true, "event": true,
	"ref": true, "implicit": true, "explicit": true,
}

var typeKeywords = map[string]bool{
	"class": true, "struct": true, "interface": true, "record": true, "enum": true, "delegate": true,
}

func isModifier(t clike.Token) bool {
	return (t.Kind == clike.TokKeyword || t.Kind == clike.TokIdent) && modifiers[t.Text]
}

// typeAhead reports whether a type declaration starts at the current
// position, possibly after attributes and modifiers.
func typeAhead(p *clike.Parser) bool {
	i := 0
	for isModifier(p.PeekAt(i)) {
		i++
	}
	t := p.PeekAt(i)
	return typeKeywords[t.Text] && (t.Kind == clike.TokKeyword || t.Kind == clike.TokIdent)
}

// skipModifiers consumes attributes and modifiers and reports whether
// async was among them.
func skipModifiers(p *clike.Parser) (async bool) {
	for {
		t := p.Peek()
		switch {
		case t.Is("["):
			p.Balanced()
		case isModifier(t):
			async = async || t.Text == "async"
			p.Next()
		default:
			return async
		}
	}
}

// skipAngles consumes a generic argument or parameter list.
func skipAngles(p *clike.Parser) {
	depth := 0
	for !p.AtEOF() {
		t := p.Peek()
		switch {
		case t.Is("<"):
			depth++
		case t.Is(">"):
			depth--
		case t.Is(">>"):
			depth -= 2
		case t.Is("(") || t.Is("["):
			p.Balanced()
			continue
		case t.Is(";") || t.Is("{") || t.Is("}"):
			return
		}
		p.Next()
		if depth <= 0 {
			return
		}
	}
}

// typeBody accumulates one class, struct, record or interface.
type typeBody struct {
	name       string // simple name
	qual       string // qualified name, Outer.Inner
	fields     *nameSet
	properties *nameSet
	methods    []string
	// methods are emitted before accessors
	methodUnits   []flow.Unit
	accessorUnits []flow.Unit
}

// typeDecl parses a type declaration at the current position and adds its
// units to res. outer qualifies nested type names.
func (f *Frontend) typeDecl(p *clike.Parser, res *flow.Result, outer string) error {
	skipModifiers(p)
	kw := p.Next().Text
	if kw == "record" && (p.Peek().Is("struct") || p.Peek().Is("class")) {
		p.Next()
	}

	var name string
	if t := p.Peek(); t.Kind == clike.TokIdent {
		name = p.Next().Text
	}

	switch kw {
	case "enum":
		p.SkipUntil("{", ";")
		if p.Peek().Is("{") {
			p.Balanced()
		}
		p.Accept(";")
		return nil
	case "delegate":
		p.SkipStatement()
		return nil
	}
	if name == "" {
		p.SkipUntil("{", ";")
		if p.Peek().Is("{") {
			p.Balanced()
		}
		return nil
	}

	tb := &typeBody{
		name:       name,
		qual:       outer + name,
		fields:     newNameSet(),
		properties: newNameSet(),
	}
	if p.Peek().Is("<") {
		skipAngles(p)
	}
	if p.Peek().Is("(") {
		// primary constructor parameters become fields
		for _, param := range clike.ParamNames(p.Balanced()) {
			tb.fields.add(param)
		}
	}
	p.SkipUntil("{", ";")

	if p.Accept("{") {
		for !p.AtEOF() {
			if p.Accept("}") {
				break
			}
			if err := f.member(p, res, tb); err != nil {
				return err
			}
			if err := p.Err(); err != nil {
				return err
			}
		}
	} else {
		p.Accept(";")
	}

	res.Functions = append(res.Functions, tb.methodUnits...)
	res.Functions = append(res.Functions, tb.accessorUnits...)
	res.Classes = append(res.Classes, flow.Unit{
		Name:    tb.qual,
		Kind:    flow.UnitClass,
		Diagram: flow.BuildClass(tb.qual, tb.fields.list, tb.properties.list, tb.methods),
	})
	return nil
}

// member parses one member declaration of tb.
func (f *Frontend) member(p *clike.Parser, res *flow.Result, tb *typeBody) error {
	if p.Accept(";") {
		return nil
	}
	async := skipModifiers(p)
	if typeAhead(p) {
		return f.typeDecl(p, res, tb.qual+".")
	}

	start := p.Mark()
	destructor := p.Accept("~")
	if p.Peek().Is("(") {
		// tuple return type
		p.Balanced()
	}
	for !p.AtEOF() {
		t := p.Peek()
		if t.Is("(") || t.Is("{") || t.Is("=>") || t.Is("=") || t.Is(";") || t.Is("}") || t.Is(",") {
			break
		}
		if prev := p.Since(start); len(prev) > 0 && prev[len(prev)-1].Is("operator") {
			// the operator symbol itself
			p.Next()
			continue
		}
		switch {
		case t.Is("["):
			p.Balanced()
		case t.Is("<"):
			skipAngles(p)
		default:
			p.Next()
		}
	}
	head := p.Since(start)
	name := memberName(head)
	if destructor {
		name = "~" + name
	}

	t := p.Peek()
	switch {
	case t.Is("("):
		return f.method(p, tb, head, name, async)

	case t.Is("{"):
		if name == "" {
			// stray block
			p.Balanced()
			return nil
		}
		if err := f.accessors(p, tb, name); err != nil {
			return err
		}
		if p.Accept("=") {
			p.SkipStatement()
		}

	case t.Is("=>"):
		p.Next()
		tb.properties.add(propertyLabel(name))
		return f.accessorUnit(tb, name, "get", p.ExpressionBody(false))

	case t.Is("=") || t.Is(";") || t.Is(","):
		rest := p.SkipStatement()
		all := append(append([]clike.Token{}, head...), rest...)
		for _, field := range clike.ParamNames(all) {
			tb.fields.add(field)
		}

	default:
		if len(head) == 0 && !t.Is("}") {
			p.Next()
		}
	}
	return nil
}

// memberName returns the declared name at the end of a member head,
// skipping generic parameter lists and indexer brackets. Operators are
// named by their symbol, indexers `this`.
func memberName(head []clike.Token) string {
	for i, t := range head {
		if t.Is("operator") {
			return clike.Render(head[i:])
		}
	}
	depth := 0
	for i := len(head) - 1; i >= 0; i-- {
		t := head[i]
		switch {
		case t.Is("]") || t.Is(">"):
			depth++
		case t.Is(">>"):
			depth += 2
		case t.Is("[") || t.Is("<"):
			depth--
		case depth == 0 && (t.Kind == clike.TokIdent || t.Is("this")):
			return t.Text
		}
	}
	return ""
}

func (f *Frontend) method(p *clike.Parser, tb *typeBody, head []clike.Token, name string, async bool) error {
	params := clike.ParamNames(p.Balanced())
	// constructor initializers, generic constraints
	p.SkipUntil("{", "=>", ";")

	ctor := name == tb.name
	void := ctor || hasToken(head, "void")
	var body []clike.Stmt
	switch {
	case p.Peek().Is("{"):
		body = p.FunctionBody()
	case p.Accept("=>"):
		body = p.ExpressionBody(void)
	default:
		p.Accept(";")
	}
	if name == "" {
		return nil
	}

	qual := tb.qual + "." + name
	d, err := clike.Unit(title(qual, async), params, body, clike.CSharp, f.maxDepth)
	if err != nil {
		return err
	}
	tb.methods = append(tb.methods, name)
	tb.methodUnits = append(tb.methodUnits, flow.Unit{Name: qual, Kind: flow.UnitMethod, Diagram: d})
	if ctor {
		thisFields(body, tb.fields)
	}

	// local functions come after their method
	for _, fn := range clike.NestedFunctions(body) {
		inner := &flow.Result{}
		if err := f.localFunction(inner, fn, qual+"."); err != nil {
			return err
		}
		tb.methodUnits = append(tb.methodUnits, inner.Functions...)
	}
	return nil
}

// accessors parses a property accessor list `{ get; set { ... } }`.
// Accessors with a body become property units; setters receive value.
func (f *Frontend) accessors(p *clike.Parser, tb *typeBody, name string) error {
	tb.properties.add(propertyLabel(name))
	p.Next()
	for !p.AtEOF() {
		skipModifiers(p)
		if p.Accept("}") {
			return nil
		}
		t := p.Next()
		if t.Kind != clike.TokIdent {
			continue
		}
		accessor := t.Text
		switch {
		case p.Accept(";"):
		case p.Peek().Is("{"):
			if err := f.accessorUnit(tb, name, accessor, p.FunctionBody()); err != nil {
				return err
			}
		case p.Accept("=>"):
			if err := f.accessorUnit(tb, name, accessor, p.ExpressionBody(accessor != "get")); err != nil {
				return err
			}
		}
		if err := p.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (f *Frontend) accessorUnit(tb *typeBody, prop, accessor string, body []clike.Stmt) error {
	var params []string
	if accessor != "get" {
		params = []string{"value"}
	}
	qual := tb.qual + "." + prop + "." + accessor
	d, err := clike.Unit(qual, params, body, clike.CSharp, f.maxDepth)
	if err != nil {
		return err
	}
	tb.accessorUnits = append(tb.accessorUnits, flow.Unit{Name: qual, Kind: flow.UnitProperty, Diagram: d})
	return nil
}

func hasToken(toks []clike.Token, text string) bool {
	for _, t := range toks {
		if t.Is(text) || t.Text == text {
			return true
		}
	}
	return false
}

// thisFields records the fields a constructor assigns through this.
func thisFields(body []clike.Stmt, fields *nameSet) {
	for _, s := range body {
		switch x := s.(type) {
		case *clike.ExprStmt:
			target, _, _, ok := clike.SplitAssignment(x.Toks)
			if ok && len(target) == 3 && target[0].Is("this") && target[1].Is(".") {
				fields.add(target[2].Text)
			}
		case *clike.Block:
			thisFields(x.Stmts, fields)
		}
	}
}

// nameSet keeps first-seen order.
// propertyLabel is the name a property shows in the class skeleton.
// Indexers are listed as this[].
func propertyLabel(name string) string {
	if name == "this" {
		return "this[]"
	}
	return name
}

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
