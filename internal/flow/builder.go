package flow

import "strings"

// BlockFunc translates a statement block whose control enters through
// entry and returns the block's pending exits.
type BlockFunc func(entry []Exit) ([]Exit, error)

// Builder grows one Diagram with the control-flow combinators shared by
// every front end. A Builder is owned by a single translation.
type Builder struct {
	d        *Diagram
	maxDepth int
	depth    int
}

// NewBuilder returns a Builder over a fresh Diagram. A non-positive
// maxDepth selects DefaultMaxDepth.
func NewBuilder(maxDepth int) *Builder {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Builder{d: NewDiagram(), maxDepth: maxDepth}
}

// Diagram returns the diagram under construction.
func (b *Builder) Diagram() *Diagram { return b.d }

// Enter records one more level of nesting at line. It fails with a
// DepthError once the limit is exceeded; callers pair a successful Enter
// with Leave.
func (b *Builder) Enter(line int) error {
	if b.depth >= b.maxDepth {
		return &DepthError{Line: line, Limit: b.maxDepth}
	}
	b.depth++
	return nil
}

// Leave undoes one Enter.
func (b *Builder) Leave() { b.depth-- }

// Connect draws an edge from every live exit to to, styled per exit kind.
// Return exits are skipped.
func (b *Builder) Connect(exits []Exit, to int) {
	for _, e := range exits {
		label, branch, ok := e.Style()
		if !ok {
			continue
		}
		b.d.AddEdge(e.Node, to, label, branch)
	}
}

// Step adds a node reached from entry and returns it as the only exit.
func (b *Builder) Step(entry []Exit, kind NodeKind, text string) []Exit {
	id := b.d.AddNode(kind, text)
	b.Connect(entry, id)
	return []Exit{Direct(id)}
}

// Terminal adds a node that leaves the function (return, raise, throw).
func (b *Builder) Terminal(entry []Exit, kind NodeKind, text string) []Exit {
	id := b.d.AddNode(kind, text)
	b.Connect(entry, id)
	return []Exit{ReturnExit(id)}
}

// DeadEnd adds a Process node with no exits. break and continue use it,
// so statements after them in the same block are not drawn.
func (b *Builder) DeadEnd(entry []Exit, text string) []Exit {
	id := b.d.AddNode(KindProcess, text)
	b.Connect(entry, id)
	return []Exit{}
}

// If draws a condition with a true branch and an optional false branch.
// A nil otherwise leaves the condition through an EmptyElse exit.
func (b *Builder) If(entry []Exit, test string, then, otherwise BlockFunc) ([]Exit, error) {
	cond := b.d.AddNode(KindCondition, test)
	b.Connect(entry, cond)

	since := b.d.EdgeCount()
	yes, err := then([]Exit{Direct(cond)})
	if err != nil {
		return nil, err
	}
	b.d.LabelFirstUnlabeled(cond, since, "yes", BranchYes)

	out := append([]Exit{}, yes...)
	if otherwise == nil {
		return append(out, EmptyElse(cond)), nil
	}

	since = b.d.EdgeCount()
	nodes := len(b.d.Nodes)
	no, err := otherwise([]Exit{Direct(cond)})
	if err != nil {
		return nil, err
	}
	b.d.LabelFirstUnlabeled(cond, since, "no", BranchNo)

	created := len(b.d.Nodes) > nodes
	for _, e := range no {
		switch {
		case e.Kind == ExitDirect && e.Node == cond:
			out = append(out, EmptyElse(cond))
		case e.Kind == ExitDirect && created:
			out = append(out, DeferredNo(e.Node))
		default:
			out = append(out, e)
		}
	}
	return out, nil
}

// Loop draws a pre-tested loop. Every live exit of the body returns to the
// loop node; the loop is left through a single LoopExit.
func (b *Builder) Loop(entry []Exit, header string, body BlockFunc) ([]Exit, error) {
	loop := b.d.AddNode(KindLoop, header)
	b.Connect(entry, loop)

	since := b.d.EdgeCount()
	out, err := body([]Exit{Direct(loop)})
	if err != nil {
		return nil, err
	}
	b.d.LabelFirstUnlabeled(loop, since, "", BranchLoopBody)

	live, returns := Partition(out)
	for _, e := range live {
		if e.Node == loop && e.Kind == ExitDirect {
			continue
		}
		label, _, _ := e.Style()
		b.d.AddEdge(e.Node, loop, label, BranchLoopBack)
	}
	return append([]Exit{LoopExit(loop)}, returns...), nil
}

// DoWhile draws a post-tested loop: the body runs first, then the
// condition, whose yes edge returns to the first node the body created.
func (b *Builder) DoWhile(entry []Exit, body BlockFunc, test string) ([]Exit, error) {
	first := len(b.d.Nodes)
	out, err := body(entry)
	if err != nil {
		return nil, err
	}
	live, returns := Partition(out)

	cond := b.d.AddNode(KindCondition, test)
	b.Connect(live, cond)
	if first < cond {
		b.d.AddEdge(cond, first, "yes", BranchYes)
	}
	return append([]Exit{EmptyElse(cond)}, returns...), nil
}

// Case is one arm of a multi-way branch.
type Case struct {
	Test string
	Body BlockFunc
}

// Switch draws a chain of conditions, each tested when the previous one
// fails. A nil otherwise lets the last failure fall through; the otherwise
// block leaves like the false branch of If.
func (b *Builder) Switch(entry []Exit, cases []Case, otherwise BlockFunc) ([]Exit, error) {
	var out []Exit
	next := entry
	for _, c := range cases {
		cond := b.d.AddNode(KindCondition, c.Test)
		b.Connect(next, cond)

		since := b.d.EdgeCount()
		yes, err := c.Body([]Exit{Direct(cond)})
		if err != nil {
			return nil, err
		}
		b.d.LabelFirstUnlabeled(cond, since, "yes", BranchYes)
		out = append(out, yes...)
		next = []Exit{EmptyElse(cond)}
	}
	if otherwise == nil {
		return append(out, next...), nil
	}
	nodes := len(b.d.Nodes)
	rest, err := otherwise(next)
	if err != nil {
		return nil, err
	}
	for _, e := range rest {
		if e.Kind == ExitDirect && e.Node >= nodes {
			e = DeferredNo(e.Node)
		}
		out = append(out, e)
	}
	return out, nil
}

// Handler is one exception handler of a try statement.
type Handler struct {
	Label string
	Body  BlockFunc
}

// TryParts describes a try statement. Else and Finally may be nil.
type TryParts struct {
	Body     BlockFunc
	Handlers []Handler
	Else     BlockFunc
	Finally  BlockFunc
}

// Try draws a try statement. Handlers hang off the TryStart node with
// exception edges. A finally block collects every exit of the body and the
// handlers, returns included; when only returns reach it, the finally
// body's exits stay terminal.
func (b *Builder) Try(entry []Exit, t TryParts) ([]Exit, error) {
	try := b.d.AddNode(KindTryStart, "try")
	b.Connect(entry, try)

	out, err := t.Body([]Exit{Direct(try)})
	if err != nil {
		return nil, err
	}

	if t.Else != nil {
		live, returns := Partition(out)
		if len(live) > 0 {
			rest, err := t.Else(live)
			if err != nil {
				return nil, err
			}
			out = append(rest, returns...)
		}
	}

	for _, h := range t.Handlers {
		id := b.d.AddNode(KindExceptionHandler, h.Label)
		b.d.AddEdge(try, id, "exception", BranchException)
		hout, err := h.Body([]Exit{Direct(id)})
		if err != nil {
			return nil, err
		}
		out = append(out, hout...)
	}

	if t.Finally == nil {
		return out, nil
	}
	fin := b.d.AddNode(KindFinally, "finally")
	for _, e := range out {
		b.d.AddEdge(e.Node, fin, "", BranchPlain)
	}
	fout, err := t.Finally([]Exit{Direct(fin)})
	if err != nil {
		return nil, err
	}
	if live, _ := Partition(out); len(live) > 0 || len(out) == 0 {
		return fout, nil
	}
	terminal := make([]Exit, 0, len(fout))
	for _, e := range fout {
		terminal = append(terminal, ReturnExit(e.Node))
	}
	return terminal, nil
}

// Function draws a whole function: Start, an Input node listing params
// when there are any, the body, and a single End that every exit reaches.
func (b *Builder) Function(title string, params []string, body BlockFunc) error {
	start := b.d.AddNode(KindStart, title)
	entry := []Exit{Direct(start)}
	if len(params) > 0 {
		entry = b.Step(entry, KindInput, "params: "+strings.Join(params, ", "))
	}

	out, err := body(entry)
	if err != nil {
		return err
	}

	end := b.d.AddNode(KindEnd, "end")
	for _, e := range out {
		if e.Kind == ExitReturn {
			b.d.AddEdge(e.Node, end, "", BranchPlain)
			continue
		}
		b.Connect([]Exit{e}, end)
	}
	return nil
}

// Sequence translates stmts one after another. Return exits are carried
// past each statement; once no live exit remains, the rest of the block is
// unreachable and is not translated.
func Sequence[S any](stmts []S, entry []Exit, each func(S, []Exit) ([]Exit, error)) ([]Exit, error) {
	exits := entry
	for _, s := range stmts {
		live, returns := Partition(exits)
		if len(live) == 0 {
			return exits, nil
		}
		next, err := each(s, live)
		if err != nil {
			return nil, err
		}
		exits = append(next, returns...)
	}
	return exits, nil
}

// BuildClass draws a class skeleton: the class node, its fields and
// properties, and one method node per method reached through fan-out edges.
func BuildClass(name string, fields, properties, methods []string) *Diagram {
	d := NewDiagram()
	src := d.AddNode(KindClassStart, name)
	if len(fields) > 0 {
		id := d.AddNode(KindInput, "fields: "+strings.Join(fields, ", "))
		d.AddEdge(src, id, "", BranchPlain)
		src = id
	}
	if len(properties) > 0 {
		id := d.AddNode(KindProperty, "properties: "+strings.Join(properties, ", "))
		d.AddEdge(src, id, "", BranchPlain)
		src = id
	}
	for i, m := range methods {
		id := d.AddNode(KindMethod, m+"()")
		d.AddEdge(src, id, "", FanOut(i))
	}
	return d
}
