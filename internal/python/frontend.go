// Package python translates Python source into flowcharts. Parsing uses the
// tree-sitter Python grammar and is strict: any syntax error fails the
// whole translation.
package python

import (
	"context"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// Frontend translates Python source.
type Frontend struct {
	maxDepth int
}

// New returns a Python Frontend. A non-positive maxDepth selects
// flow.DefaultMaxDepth.
func New(maxDepth int) *Frontend {
	if maxDepth <= 0 {
		maxDepth = flow.DefaultMaxDepth
	}
	return &Frontend{maxDepth: maxDepth}
}

// Language reports flow.LangPython.
func (f *Frontend) Language() flow.Language { return flow.LangPython }

// Translate parses source and draws one diagram per unit.
func (f *Frontend) Translate(ctx context.Context, source []byte) (*flow.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mod, err := Parse(source, f.maxDepth)
	if err != nil {
		return nil, err
	}

	res := flow.NewResult()
	if main := topLevel(mod.Body); len(main) > 0 {
		if res.Main, err = f.diagram("start", nil, main); err != nil {
			return nil, err
		}
	}
	if err := f.collect(res, mod.Body, ""); err != nil {
		return nil, err
	}
	return res, nil
}

// topLevel drops definitions and imports, which draw nothing at module level.
func topLevel(body []Stmt) []Stmt {
	var out []Stmt
	for _, s := range body {
		switch x := s.(type) {
		case *FunctionDef, *ClassDef, *Import, *Pass:
			continue
		case *ExprStmt:
			if _, doc := x.Value.(*Str); doc {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func (f *Frontend) diagram(title string, params []string, body []Stmt) (*flow.Diagram, error) {
	b := flow.NewBuilder(f.maxDepth)
	t := &translator{b: b}
	if err := b.Function(title, params, t.block(body)); err != nil {
		return nil, err
	}
	return b.Diagram(), nil
}

// collect adds a unit for every function and class defined in stmts,
// searching nested blocks. prefix qualifies nested names.
func (f *Frontend) collect(res *flow.Result, stmts []Stmt, prefix string) error {
	for _, s := range stmts {
		switch x := s.(type) {
		case *FunctionDef:
			name := prefix + x.Name
			title := name
			if x.Async {
				title = "async " + name
			}
			d, err := f.diagram(title, x.Params, x.Body)
			if err != nil {
				return err
			}
			res.Functions = append(res.Functions, flow.Unit{Name: name, Kind: flow.UnitFunction, Diagram: d})
			if err := f.collect(res, x.Body, name+"."); err != nil {
				return err
			}
		case *ClassDef:
			if err := f.class(res, x, prefix+x.Name); err != nil {
				return err
			}
		default:
			for _, body := range childBlocks(s) {
				if err := f.collect(res, body, prefix); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// childBlocks returns the statement blocks nested in a compound statement.
func childBlocks(s Stmt) [][]Stmt {
	switch x := s.(type) {
	case *If:
		return [][]Stmt{x.Body, x.Orelse}
	case *While:
		return [][]Stmt{x.Body, x.Orelse}
	case *For:
		return [][]Stmt{x.Body, x.Orelse}
	case *With:
		return [][]Stmt{x.Body}
	case *Try:
		out := [][]Stmt{x.Body, x.Orelse, x.Finally}
		for _, h := range x.Handlers {
			out = append(out, h.Body)
		}
		return out
	case *Match:
		var out [][]Stmt
		for _, c := range x.Cases {
			out = append(out, c.Body)
		}
		return out
	}
	return nil
}

func (f *Frontend) class(res *flow.Result, cd *ClassDef, qual string) error {
	var (
		fields     = newNameSet()
		properties = newNameSet()
		methods    []string
	)

	for _, s := range cd.Body {
		switch x := s.(type) {
		case *FunctionDef:
			params := x.Params
			if len(params) > 0 && (params[0] == "self" || params[0] == "cls") {
				params = params[1:]
			}

			if prop, accessor, ok := accessorOf(x); ok {
				properties.add(prop)
				name := qual + "." + prop + "." + accessor
				d, err := f.diagram(name, params, x.Body)
				if err != nil {
					return err
				}
				res.Functions = append(res.Functions, flow.Unit{Name: name, Kind: flow.UnitProperty, Diagram: d})
				continue
			}

			methods = append(methods, x.Name)
			name := qual + "." + x.Name
			title := name
			if x.Async {
				title = "async " + name
			}
			d, err := f.diagram(title, params, x.Body)
			if err != nil {
				return err
			}
			res.Functions = append(res.Functions, flow.Unit{Name: name, Kind: flow.UnitMethod, Diagram: d})
			if x.Name == "__init__" {
				selfFields(x.Body, fields)
			}
			if err := f.collect(res, x.Body, name+"."); err != nil {
				return err
			}

		case *ClassDef:
			if err := f.class(res, x, qual+"."+x.Name); err != nil {
				return err
			}

		case *Assign:
			for _, target := range x.Targets {
				targetNames(target, fields)
			}
		case *AnnAssign:
			targetNames(x.Target, fields)
		}
	}

	res.Classes = append(res.Classes, flow.Unit{
		Name:    qual,
		Kind:    flow.UnitClass,
		Diagram: flow.BuildClass(qual, fields.list, properties.list, methods),
	})
	return nil
}

// accessorOf recognizes @property, @x.setter and @x.deleter methods.
func accessorOf(fn *FunctionDef) (prop, accessor string, ok bool) {
	for _, d := range fn.Decorators {
		switch d {
		case "property", "functools.cached_property", "cached_property":
			return fn.Name, "get", true
		case fn.Name + ".getter":
			return fn.Name, "get", true
		case fn.Name + ".setter":
			return fn.Name, "set", true
		case fn.Name + ".deleter":
			return fn.Name, "del", true
		}
	}
	return "", "", false
}

// selfFields records every `self.x` assigned anywhere in body.
func selfFields(body []Stmt, fields *nameSet) {
	for _, s := range body {
		switch x := s.(type) {
		case *Assign:
			for _, target := range x.Targets {
				selfTargets(target, fields)
			}
		case *AugAssign:
			selfTargets(x.Target, fields)
		case *AnnAssign:
			selfTargets(x.Target, fields)
		case *FunctionDef, *ClassDef:
			continue
		}
		for _, nested := range childBlocks(s) {
			selfFields(nested, fields)
		}
	}
}

func selfTargets(e Expr, fields *nameSet) {
	switch x := e.(type) {
	case *Attribute:
		if n, ok := x.Value.(*Name); ok && n.ID == "self" {
			fields.add(x.Attr)
		}
	case *Tuple:
		for _, el := range x.Elts {
			selfTargets(el, fields)
		}
	case *List:
		for _, el := range x.Elts {
			selfTargets(el, fields)
		}
	}
}

func targetNames(e Expr, fields *nameSet) {
	switch x := e.(type) {
	case *Name:
		fields.add(x.ID)
	case *Tuple:
		for _, el := range x.Elts {
			targetNames(el, fields)
		}
	case *List:
		for _, el := range x.Elts {
			targetNames(el, fields)
		}
	}
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
