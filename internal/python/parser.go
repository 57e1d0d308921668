package python

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// exprDepthFactor scales the statement nesting limit into the limit for
// nested expressions, which legitimately run deeper (long operator chains).
const exprDepthFactor = 5

var language = tree_sitter.NewLanguage(tree_sitter_python.Language())

// Parse parses source into a Module. Any ERROR or MISSING node in the
// tree fails the whole parse with a *flow.SyntaxError.
func Parse(source []byte, maxDepth int) (*Module, error) {
	if maxDepth <= 0 {
		maxDepth = flow.DefaultMaxDepth
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("set language python: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root, source)
	}

	c := &converter{src: source, maxDepth: maxDepth}
	body, err := c.block(root)
	if err != nil {
		return nil, err
	}
	return &Module{Body: body}, nil
}

// firstError locates the earliest ERROR or MISSING node below root.
func firstError(root *tree_sitter.Node, source []byte) *flow.SyntaxError {
	stack := []*tree_sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		line := int(n.StartPosition().Row) + 1
		switch {
		case n.IsMissing():
			return &flow.SyntaxError{Line: line, Message: "missing " + strings.Trim(n.Kind(), `"`)}
		case n.IsError():
			msg := "invalid syntax"
			if tok := firstLine(n.Utf8Text(source)); tok != "" {
				msg = fmt.Sprintf("invalid syntax near %q", flow.Truncate(tok))
			}
			return &flow.SyntaxError{Line: line, Message: msg}
		}

		// push in reverse so the leftmost child is examined first
		for i := n.ChildCount(); i > 0; i-- {
			child := n.Child(i - 1)
			if child != nil && (child.HasError() || child.IsMissing()) {
				stack = append(stack, child)
			}
		}
	}
	return &flow.SyntaxError{Line: 1, Message: "invalid syntax"}
}

// converter turns tree-sitter nodes into the statement and expression
// sum types.
type converter struct {
	src       []byte
	maxDepth  int
	depth     int
	exprDepth int
}

func (c *converter) text(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(c.src)
}

func lineOf(n *tree_sitter.Node) pos {
	return pos{line: int(n.StartPosition().Row) + 1}
}

// named returns the named children of n, skipping comments.
func named(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*tree_sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// childrenOfKind returns the direct children of n with the given kind.
func childrenOfKind(n *tree_sitter.Node, kind string) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.Kind() == kind {
			out = append(out, child)
		}
	}
	return out
}

func hasToken(n *tree_sitter.Node, kind string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == kind {
			return true
		}
	}
	return false
}

// --- Statements ---

// block converts the statements below a module or block node.
func (c *converter) block(n *tree_sitter.Node) ([]Stmt, error) {
	var out []Stmt
	for _, child := range named(n) {
		s, err := c.stmt(child)
		if err != nil {
			return nil, err
		}
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

// nested converts the block of a compound statement one level deeper.
func (c *converter) nested(n *tree_sitter.Node) ([]Stmt, error) {
	if n == nil {
		return nil, nil
	}
	if c.depth >= c.maxDepth {
		return nil, &flow.DepthError{Line: lineOf(n).line, Limit: c.maxDepth}
	}
	c.depth++
	defer func() { c.depth-- }()
	return c.block(n)
}

func (c *converter) stmt(n *tree_sitter.Node) (Stmt, error) {
	p := lineOf(n)
	switch n.Kind() {
	case "expression_statement":
		return c.exprStatement(n)

	case "if_statement":
		return c.ifStatement(n)

	case "while_statement":
		test, err := c.expr(n.ChildByFieldName("condition"))
		if err != nil {
			return nil, err
		}
		body, err := c.nested(n.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		orelse, err := c.elseBody(n.ChildByFieldName("alternative"))
		if err != nil {
			return nil, err
		}
		return &While{pos: p, Test: test, Body: body, Orelse: orelse}, nil

	case "for_statement":
		target, err := c.expr(n.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}
		iter, err := c.expr(n.ChildByFieldName("right"))
		if err != nil {
			return nil, err
		}
		body, err := c.nested(n.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		orelse, err := c.elseBody(n.ChildByFieldName("alternative"))
		if err != nil {
			return nil, err
		}
		return &For{pos: p, Target: target, Iter: iter, Body: body, Orelse: orelse, Async: hasToken(n, "async")}, nil

	case "try_statement":
		return c.tryStatement(n)

	case "with_statement":
		body, err := c.nested(n.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		var header string
		if clauses := childrenOfKind(n, "with_clause"); len(clauses) > 0 {
			header = squash(c.text(clauses[0]))
		}
		return &With{pos: p, Header: header, Body: body, Async: hasToken(n, "async")}, nil

	case "match_statement":
		return c.matchStatement(n)

	case "return_statement":
		var value Expr
		if kids := named(n); len(kids) > 0 {
			v, err := c.expr(kids[0])
			if err != nil {
				return nil, err
			}
			value = v
		}
		return &Return{pos: p, Value: value}, nil

	case "raise_statement":
		var exc Expr
		if kids := named(n); len(kids) > 0 {
			v, err := c.expr(kids[0])
			if err != nil {
				return nil, err
			}
			exc = v
		}
		return &Raise{pos: p, Exc: exc}, nil

	case "pass_statement":
		return &Pass{pos: p}, nil
	case "break_statement":
		return &Break{pos: p}, nil
	case "continue_statement":
		return &Continue{pos: p}, nil

	case "function_definition":
		return c.functionDef(n, nil)

	case "class_definition":
		return c.classDef(n)

	case "decorated_definition":
		var decorators []string
		for _, d := range childrenOfKind(n, "decorator") {
			decorators = append(decorators, strings.TrimSpace(strings.TrimPrefix(c.text(d), "@")))
		}
		def := n.ChildByFieldName("definition")
		if def == nil {
			return &Other{pos: p, Text: firstLine(c.text(n))}, nil
		}
		if def.Kind() == "function_definition" {
			return c.functionDef(def, decorators)
		}
		return c.stmt(def)

	case "import_statement", "import_from_statement", "future_import_statement",
		"global_statement", "nonlocal_statement":
		return &Import{pos: p, Text: squash(c.text(n))}, nil

	default:
		return &Other{pos: p, Text: squash(firstLine(c.text(n)))}, nil
	}
}

func (c *converter) exprStatement(n *tree_sitter.Node) (Stmt, error) {
	p := lineOf(n)
	kids := named(n)
	if len(kids) == 0 {
		return &Pass{pos: p}, nil
	}
	if len(kids) > 1 {
		elts, err := c.exprs(kids)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{pos: p, Value: &Tuple{Elts: elts, Bare: true}}, nil
	}

	inner := kids[0]
	switch inner.Kind() {
	case "assignment":
		return c.assignment(inner)
	case "augmented_assignment":
		target, err := c.expr(inner.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}
		value, err := c.expr(inner.ChildByFieldName("right"))
		if err != nil {
			return nil, err
		}
		opText := strings.TrimSuffix(c.text(inner.ChildByFieldName("operator")), "=")
		return &AugAssign{pos: p, Target: target, Op: binaryOps[opText], Value: value}, nil
	}

	value, err := c.expr(inner)
	if err != nil {
		return nil, err
	}
	return &ExprStmt{pos: p, Value: value}, nil
}

// assignment flattens `a = b = value` into one Assign with every target.
func (c *converter) assignment(n *tree_sitter.Node) (Stmt, error) {
	p := lineOf(n)
	var targets []Expr
	cur := n
	for {
		target, err := c.expr(cur.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}

		if typ := cur.ChildByFieldName("type"); typ != nil && len(targets) == 0 {
			ann, err := c.expr(typ)
			if err != nil {
				return nil, err
			}
			var value Expr
			if right := cur.ChildByFieldName("right"); right != nil {
				if value, err = c.expr(right); err != nil {
					return nil, err
				}
			}
			return &AnnAssign{pos: p, Target: target, Annotation: ann, Value: value}, nil
		}

		targets = append(targets, target)
		right := cur.ChildByFieldName("right")
		if right == nil {
			return &ExprStmt{pos: p, Value: targets[0]}, nil
		}
		if right.Kind() == "assignment" {
			cur = right
			continue
		}
		value, err := c.expr(right)
		if err != nil {
			return nil, err
		}
		return &Assign{pos: p, Targets: targets, Value: value}, nil
	}
}

func (c *converter) ifStatement(n *tree_sitter.Node) (Stmt, error) {
	test, err := c.expr(n.ChildByFieldName("condition"))
	if err != nil {
		return nil, err
	}
	body, err := c.nested(n.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}

	// elif clauses chain right to left into nested Ifs.
	var alternatives []*tree_sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && (child.Kind() == "elif_clause" || child.Kind() == "else_clause") {
			alternatives = append(alternatives, child)
		}
	}

	var orelse []Stmt
	for i := len(alternatives) - 1; i >= 0; i-- {
		alt := alternatives[i]
		if alt.Kind() == "else_clause" {
			if orelse, err = c.nested(alt.ChildByFieldName("body")); err != nil {
				return nil, err
			}
			continue
		}
		elifTest, err := c.expr(alt.ChildByFieldName("condition"))
		if err != nil {
			return nil, err
		}
		elifBody, err := c.nested(alt.ChildByFieldName("consequence"))
		if err != nil {
			return nil, err
		}
		orelse = []Stmt{&If{pos: lineOf(alt), Test: elifTest, Body: elifBody, Orelse: orelse}}
	}

	return &If{pos: lineOf(n), Test: test, Body: body, Orelse: orelse}, nil
}

func (c *converter) elseBody(alt *tree_sitter.Node) ([]Stmt, error) {
	if alt == nil {
		return nil, nil
	}
	return c.nested(alt.ChildByFieldName("body"))
}

func (c *converter) tryStatement(n *tree_sitter.Node) (Stmt, error) {
	body, err := c.nested(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	t := &Try{pos: lineOf(n), Body: body}

	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "except_clause", "except_group_clause":
			h, err := c.exceptClause(child)
			if err != nil {
				return nil, err
			}
			t.Handlers = append(t.Handlers, h)
		case "else_clause":
			if t.Orelse, err = c.nested(child.ChildByFieldName("body")); err != nil {
				return nil, err
			}
		case "finally_clause":
			t.HasFinally = true
			for _, kid := range named(child) {
				if kid.Kind() == "block" {
					if t.Finally, err = c.nested(kid); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return t, nil
}

// exceptClause keeps the clause header between `except` and the colon as
// raw text: `ValueError as e`, `*TypeError`, or empty for a bare except.
func (c *converter) exceptClause(n *tree_sitter.Node) (ExceptHandler, error) {
	var (
		h          ExceptHandler
		start, end uint
		seen       bool
	)
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		if child.Kind() == "block" {
			body, err := c.nested(child)
			if err != nil {
				return h, err
			}
			h.Body = body
			continue
		}
		if i == 0 || child.Kind() == ":" {
			continue
		}
		if !seen {
			start = child.StartByte()
			seen = true
		}
		end = child.EndByte()
	}
	if seen {
		h.Type = squash(string(c.src[start:end]))
	}
	return h, nil
}

func (c *converter) matchStatement(n *tree_sitter.Node) (Stmt, error) {
	p := lineOf(n)
	var subjects []Expr
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !child.IsNamed() || child.Kind() == "block" || child.Kind() == "comment" {
			continue
		}
		e, err := c.expr(child)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, e)
	}
	m := &Match{pos: p}
	switch len(subjects) {
	case 0:
		m.Subject = &Unknown{}
	case 1:
		m.Subject = subjects[0]
	default:
		m.Subject = &Tuple{Elts: subjects, Bare: true}
	}

	body := n.ChildByFieldName("body")
	for _, clause := range named(body) {
		if clause.Kind() != "case_clause" {
			continue
		}
		mc := MatchCase{}
		for _, kid := range named(clause) {
			switch kid.Kind() {
			case "case_pattern":
				mc.Patterns = append(mc.Patterns, squash(c.text(kid)))
			case "if_clause":
				if g := named(kid); len(g) > 0 {
					guard, err := c.expr(g[0])
					if err != nil {
						return nil, err
					}
					mc.Guard = guard
				}
			case "block":
				stmts, err := c.nested(kid)
				if err != nil {
					return nil, err
				}
				mc.Body = stmts
			}
		}
		m.Cases = append(m.Cases, mc)
	}
	return m, nil
}

func (c *converter) functionDef(n *tree_sitter.Node, decorators []string) (Stmt, error) {
	body, err := c.nested(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	return &FunctionDef{
		pos:        lineOf(n),
		Name:       c.text(n.ChildByFieldName("name")),
		Params:     c.params(n.ChildByFieldName("parameters")),
		Body:       body,
		Decorators: decorators,
		Async:      hasToken(n, "async"),
	}, nil
}

func (c *converter) classDef(n *tree_sitter.Node) (Stmt, error) {
	var bases []Expr
	if sup := n.ChildByFieldName("superclasses"); sup != nil {
		var err error
		if bases, err = c.exprs(named(sup)); err != nil {
			return nil, err
		}
	}
	body, err := c.nested(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	return &ClassDef{pos: lineOf(n), Name: c.text(n.ChildByFieldName("name")), Bases: bases, Body: body}, nil
}

// params lists parameter names; splats keep their stars and separators
// (`*`, `/`) are dropped.
func (c *converter) params(n *tree_sitter.Node) []string {
	var out []string
	for _, p := range named(n) {
		if name := c.paramName(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (c *converter) paramName(n *tree_sitter.Node) string {
	switch n.Kind() {
	case "identifier", "list_splat_pattern", "dictionary_splat_pattern":
		return c.text(n)
	case "default_parameter", "typed_default_parameter":
		return c.text(n.ChildByFieldName("name"))
	case "typed_parameter":
		if kids := named(n); len(kids) > 0 {
			return c.paramName(kids[0])
		}
	}
	return ""
}

// --- Expressions ---

func (c *converter) exprs(ns []*tree_sitter.Node) ([]Expr, error) {
	out := make([]Expr, 0, len(ns))
	for _, n := range ns {
		e, err := c.expr(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *converter) expr(n *tree_sitter.Node) (Expr, error) {
	if n == nil {
		return &Unknown{}, nil
	}
	limit := c.maxDepth * exprDepthFactor
	if c.exprDepth >= limit {
		return nil, &flow.DepthError{Line: lineOf(n).line, Limit: limit}
	}
	c.exprDepth++
	defer func() { c.exprDepth-- }()

	switch n.Kind() {
	case "identifier", "keyword_identifier":
		return &Name{ID: c.text(n)}, nil
	case "integer", "float":
		return &Num{Text: c.text(n)}, nil
	case "true", "false", "none", "ellipsis":
		return &Const{Value: c.text(n)}, nil
	case "string":
		return parseString(c.text(n)), nil
	case "concatenated_string":
		s := &Str{}
		for i, part := range named(n) {
			ps := parseString(c.text(part))
			if i == 0 {
				s.Prefix = ps.Prefix
			}
			s.Value += ps.Value
		}
		return s, nil

	case "binary_operator":
		left, right, err := c.pair(n.ChildByFieldName("left"), n.ChildByFieldName("right"))
		if err != nil {
			return nil, err
		}
		return &BinOp{Left: left, Op: binaryOps[c.text(n.ChildByFieldName("operator"))], Right: right}, nil

	case "unary_operator":
		operand, err := c.expr(n.ChildByFieldName("argument"))
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: unaryOps[c.text(n.ChildByFieldName("operator"))], Operand: operand}, nil

	case "not_operator":
		operand, err := c.expr(n.ChildByFieldName("argument"))
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: OpNot, Operand: operand}, nil

	case "boolean_operator":
		return c.boolOp(n)

	case "comparison_operator":
		return c.compare(n)

	case "call":
		fn, err := c.expr(n.ChildByFieldName("function"))
		if err != nil {
			return nil, err
		}
		call := &Call{Func: fn}
		args := n.ChildByFieldName("arguments")
		if args != nil && args.Kind() == "generator_expression" {
			call.Args = []Expr{&Comprehension{Kind: CompGenerator}}
		} else if call.Args, err = c.exprs(named(args)); err != nil {
			return nil, err
		}
		return call, nil

	case "keyword_argument":
		value, err := c.expr(n.ChildByFieldName("value"))
		if err != nil {
			return nil, err
		}
		return &Keyword{Name: c.text(n.ChildByFieldName("name")), Value: value}, nil

	case "list_splat", "dictionary_splat", "list_splat_pattern", "dictionary_splat_pattern":
		var value Expr = &Unknown{}
		if kids := named(n); len(kids) > 0 {
			v, err := c.expr(kids[0])
			if err != nil {
				return nil, err
			}
			value = v
		}
		return &Starred{Value: value, Double: strings.HasPrefix(n.Kind(), "dictionary")}, nil

	case "list", "list_pattern":
		elts, err := c.exprs(named(n))
		if err != nil {
			return nil, err
		}
		return &List{Elts: elts}, nil
	case "tuple", "tuple_pattern":
		elts, err := c.exprs(named(n))
		if err != nil {
			return nil, err
		}
		return &Tuple{Elts: elts}, nil
	case "expression_list", "pattern_list":
		elts, err := c.exprs(named(n))
		if err != nil {
			return nil, err
		}
		return &Tuple{Elts: elts, Bare: true}, nil
	case "set":
		elts, err := c.exprs(named(n))
		if err != nil {
			return nil, err
		}
		return &Set{Elts: elts}, nil
	case "dictionary":
		return c.dict(n)

	case "attribute":
		obj, err := c.expr(n.ChildByFieldName("object"))
		if err != nil {
			return nil, err
		}
		return &Attribute{Value: obj, Attr: c.text(n.ChildByFieldName("attribute"))}, nil

	case "subscript":
		kids := named(n)
		if len(kids) == 0 {
			return &Unknown{}, nil
		}
		value, err := c.expr(kids[0])
		if err != nil {
			return nil, err
		}
		index, err := c.exprs(kids[1:])
		if err != nil {
			return nil, err
		}
		return &Subscript{Value: value, Index: index}, nil

	case "slice":
		return c.slice(n)

	case "conditional_expression":
		kids := named(n)
		if len(kids) < 3 {
			return &Unknown{}, nil
		}
		parts, err := c.exprs(kids[:3])
		if err != nil {
			return nil, err
		}
		return &IfExp{Body: parts[0], Test: parts[1], Orelse: parts[2]}, nil

	case "list_comprehension":
		return &Comprehension{Kind: CompList}, nil
	case "set_comprehension":
		return &Comprehension{Kind: CompSet}, nil
	case "dictionary_comprehension":
		return &Comprehension{Kind: CompDict}, nil
	case "generator_expression":
		return &Comprehension{Kind: CompGenerator}, nil

	case "lambda":
		body, err := c.expr(n.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		return &Lambda{Params: c.params(n.ChildByFieldName("parameters")), Body: body}, nil

	case "await":
		kids := named(n)
		if len(kids) == 0 {
			return &Unknown{}, nil
		}
		value, err := c.expr(kids[0])
		if err != nil {
			return nil, err
		}
		return &Await{Value: value}, nil

	case "yield":
		y := &Yield{From: hasToken(n, "from")}
		if kids := named(n); len(kids) > 0 {
			value, err := c.expr(kids[0])
			if err != nil {
				return nil, err
			}
			y.Value = value
		}
		return y, nil

	case "named_expression":
		value, err := c.expr(n.ChildByFieldName("value"))
		if err != nil {
			return nil, err
		}
		return &NamedExpr{Target: c.text(n.ChildByFieldName("name")), Value: value}, nil

	case "parenthesized_expression":
		kids := named(n)
		if len(kids) == 0 {
			return &Unknown{}, nil
		}
		inner, err := c.expr(kids[0])
		if err != nil {
			return nil, err
		}
		return &Paren{Inner: inner}, nil

	case "type", "as_pattern_target":
		if kids := named(n); len(kids) == 1 {
			return c.expr(kids[0])
		}
		return &Name{ID: squash(c.text(n))}, nil
	}
	return &Unknown{}, nil
}

func (c *converter) pair(a, b *tree_sitter.Node) (Expr, Expr, error) {
	left, err := c.expr(a)
	if err != nil {
		return nil, nil, err
	}
	right, err := c.expr(b)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// boolOp flattens left-nested chains of the same operator.
func (c *converter) boolOp(n *tree_sitter.Node) (Expr, error) {
	op := binaryOps[c.text(n.ChildByFieldName("operator"))]
	left, right, err := c.pair(n.ChildByFieldName("left"), n.ChildByFieldName("right"))
	if err != nil {
		return nil, err
	}
	var values []Expr
	if inner, ok := left.(*BoolOp); ok && inner.Op == op {
		values = append(values, inner.Values...)
	} else {
		values = append(values, left)
	}
	values = append(values, right)
	return &BoolOp{Op: op, Values: values}, nil
}

// compare walks operands and operator tokens in source order; `not in`
// and `is not` may arrive as one token or two.
func (c *converter) compare(n *tree_sitter.Node) (Expr, error) {
	var (
		operands []Expr
		ops      []Op
		pending  []string
	)
	flush := func() {
		if len(pending) > 0 {
			ops = append(ops, binaryOps[strings.Join(pending, " ")])
			pending = pending[:0]
		}
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		if !child.IsNamed() {
			pending = append(pending, c.text(child))
			continue
		}
		flush()
		e, err := c.expr(child)
		if err != nil {
			return nil, err
		}
		operands = append(operands, e)
	}
	flush()
	if len(operands) == 0 {
		return &Unknown{}, nil
	}
	return &Compare{Left: operands[0], Ops: ops, Comparators: operands[1:]}, nil
}

func (c *converter) dict(n *tree_sitter.Node) (Expr, error) {
	d := &Dict{}
	for _, kid := range named(n) {
		switch kid.Kind() {
		case "pair":
			k, v, err := c.pair(kid.ChildByFieldName("key"), kid.ChildByFieldName("value"))
			if err != nil {
				return nil, err
			}
			d.Items = append(d.Items, DictItem{Key: k, Value: v})
		case "dictionary_splat":
			var value Expr = &Unknown{}
			if inner := named(kid); len(inner) > 0 {
				v, err := c.expr(inner[0])
				if err != nil {
					return nil, err
				}
				value = v
			}
			d.Items = append(d.Items, DictItem{Value: value})
		}
	}
	return d, nil
}

func (c *converter) slice(n *tree_sitter.Node) (Expr, error) {
	s := &Slice{}
	colons := 0
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		if child.Kind() == ":" {
			colons++
			if colons == 2 {
				s.HasStep = true
			}
			continue
		}
		e, err := c.expr(child)
		if err != nil {
			return nil, err
		}
		switch colons {
		case 0:
			s.Lower = e
		case 1:
			s.Upper = e
		default:
			s.Step = e
		}
	}
	return s, nil
}

// parseString splits a literal such as rb'''x''' into prefix and content.
func parseString(raw string) *Str {
	i := strings.IndexAny(raw, `'"`)
	if i < 0 {
		return &Str{Value: raw}
	}
	prefix, body := raw[:i], raw[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(body, q) && strings.HasSuffix(body, q) && len(body) >= 2*len(q) {
			body = body[len(q) : len(body)-len(q)]
			break
		}
	}
	return &Str{Prefix: prefix, Value: body}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// squash collapses whitespace runs, including newlines, to single spaces.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
