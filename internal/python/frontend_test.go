package python

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func translate(t *testing.T, src string) *flow.Result {
	t.Helper()
	res, err := New(0).Translate(context.Background(), []byte(src))
	require.NoError(t, err)
	return res
}

func unit(t *testing.T, res *flow.Result, name string) *flow.Diagram {
	t.Helper()
	d, ok := res.Lookup(name)
	require.True(t, ok, "unit %q not found in %v", name, res.UnitNames())
	return d
}

func node(t *testing.T, d *flow.Diagram, text string) flow.Node {
	t.Helper()
	for _, n := range d.Nodes {
		if n.Text == text {
			return n
		}
	}
	t.Fatalf("no node %q", text)
	return flow.Node{}
}

func edgeBetween(t *testing.T, d *flow.Diagram, from, to string) flow.Edge {
	t.Helper()
	e, ok := d.FindEdge(node(t, d, from).ID, node(t, d, to).ID)
	require.True(t, ok, "expected edge %q -> %q", from, to)
	return e
}

func hasText(d *flow.Diagram, text string) bool {
	for _, n := range d.Nodes {
		if n.Text == text {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

func TestTranslate_CalculatorFixture(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", "calculator.py"))
	require.NoError(t, err)
	res, err := New(0).Translate(context.Background(), src)
	require.NoError(t, err)

	var names []string
	for _, u := range res.Functions {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{
		"Calculator.__init__",
		"Calculator.add",
		"Calculator.divide",
		"Calculator.last.get",
		"Calculator.last.set",
		"find_max",
		"safe_divide",
		"factorial",
	}, names)
	assert.Equal(t, flow.UnitMethod, res.Functions[0].Kind)
	assert.Equal(t, flow.UnitProperty, res.Functions[3].Kind)
	assert.Equal(t, flow.UnitFunction, res.Functions[5].Kind)

	require.Len(t, res.Classes, 1)
	cls := res.Classes[0].Diagram
	assert.Equal(t, flow.Node{ID: 0, Kind: flow.KindClassStart, Text: "Calculator"}, cls.Nodes[0])
	assert.Equal(t, "fields: precision, name, history", cls.Nodes[1].Text)
	assert.Equal(t, "properties: last", cls.Nodes[2].Text)
	assert.Equal(t, flow.FanOut(2), edgeBetween(t, cls, "properties: last", "divide()").Branch)

	main := res.Main
	assert.Equal(t, "start", main.Nodes[0].Text)
	assert.Len(t, main.NodesOfKind(flow.KindOutput), 2)
	assert.Equal(t, flow.KindProcess, node(t, main, `name = input("name? ")`).Kind)
	assert.Equal(t, flow.KindOutput, node(t, main, `print("numbers:", numbers)`).Kind)
}

func TestTranslate_MethodParamsDropSelf(t *testing.T) {
	res := translate(t, "class A:\n    def run(self, n):\n        return n\n")
	d := unit(t, res, "A.run")
	assert.Equal(t, "A.run", d.Nodes[0].Text)
	assert.Equal(t, flow.Node{ID: 1, Kind: flow.KindInput, Text: "params: n"}, d.Nodes[1])
}

func TestTranslate_SetterParams(t *testing.T) {
	src := `
class A:
    @property
    def v(self):
        return self._v

    @v.setter
    def v(self, value):
        self._v = value
`
	res := translate(t, src)
	assert.Equal(t, "params: value", unit(t, res, "A.v.set").Nodes[1].Text)
	assert.Equal(t, "return self._v", unit(t, res, "A.v.get").Nodes[1].Text)
}

func TestTranslate_FindMaxShape(t *testing.T) {
	src := `
def find_max(numbers):
    if not numbers:
        return None
    best = numbers[0]
    for num in numbers:
        if num > best:
            best = num
    return best
`
	d := unit(t, translate(t, src), "find_max")

	guard := edgeBetween(t, d, "not numbers", "best = numbers[0]")
	assert.Equal(t, "no", guard.Label)
	assert.Equal(t, "yes", edgeBetween(t, d, "not numbers", "return None").Label)

	assert.Equal(t, flow.BranchLoopBody, edgeBetween(t, d, "for num in numbers", "num > best").Branch)
	assert.Equal(t, flow.BranchLoopBack, edgeBetween(t, d, "best = num", "for num in numbers").Branch)
	back := edgeBetween(t, d, "num > best", "for num in numbers")
	assert.Equal(t, "no", back.Label)
	assert.Equal(t, flow.BranchLoopBack, back.Branch)
	assert.Equal(t, flow.BranchLoopExit, edgeBetween(t, d, "for num in numbers", "return best").Branch)

	end := d.NodesOfKind(flow.KindEnd)
	require.Len(t, end, 1)
	assert.Len(t, d.Incoming(end[0].ID), 2)
}

func TestTranslate_TryFinally(t *testing.T) {
	src := `
def safe(a, b):
    try:
        r = a / b
    except ZeroDivisionError as e:
        print("zero")
        return None
    finally:
        print("done")
    return r
`
	d := unit(t, translate(t, src), "safe")

	exc := edgeBetween(t, d, "try", "except ZeroDivisionError as e")
	assert.Equal(t, "exception", exc.Label)
	assert.Equal(t, flow.BranchException, exc.Branch)

	assert.Equal(t, flow.BranchPlain, edgeBetween(t, d, "r = a / b", "finally").Branch)
	edgeBetween(t, d, "return None", "finally")
	_, ok := d.FindEdge(node(t, d, "return None").ID, node(t, d, "end").ID)
	assert.False(t, ok)
	edgeBetween(t, d, `print("done")`, "return r")
}

func TestTranslate_FinallyAfterReturnInLoop(t *testing.T) {
	src := `
def first():
    for i in range(3):
        try:
            return i
        finally:
            print(i)
`
	d := unit(t, translate(t, src), "first")
	edgeBetween(t, d, "return i", "finally")
	edgeBetween(t, d, "print(i)", "end")
	_, ok := d.FindEdge(node(t, d, "print(i)").ID, node(t, d, "for i in range(3)").ID)
	assert.False(t, ok)
}

func TestTranslate_DeadCodeAfterReturn(t *testing.T) {
	d := unit(t, translate(t, "def f():\n    return 1\n    x = 2\n"), "f")
	assert.False(t, hasText(d, "x = 2"))
	assert.Len(t, d.Nodes, 3)
}

// break does not reconnect to the loop exit: it is drawn as a dead end.
func TestTranslate_BreakDeadEnd(t *testing.T) {
	src := `
def f(xs):
    for x in xs:
        if x:
            break
        y = x
`
	d := unit(t, translate(t, src), "f")
	brk := node(t, d, "break")
	assert.Empty(t, d.Outgoing(brk.ID))
	assert.Equal(t, "no", edgeBetween(t, d, "x", "y = x").Label)
}

func TestTranslate_WhileElseAndAugAssign(t *testing.T) {
	src := `
def f(n):
    while n > 0:
        n -= 1
    else:
        print("finished")
`
	d := unit(t, translate(t, src), "f")
	assert.Equal(t, flow.KindLoop, node(t, d, "while n > 0").Kind)
	edgeBetween(t, d, "n -= 1", "while n > 0")
	assert.Equal(t, flow.BranchLoopExit, edgeBetween(t, d, "while n > 0", `print("finished")`).Branch)
}

func TestTranslate_IOCalls(t *testing.T) {
	d := translate(t, "input()\nprint(1)\nsys.stdout.write('x')\nrun()\n").Main
	assert.Equal(t, flow.KindInput, node(t, d, "input()").Kind)
	assert.Equal(t, flow.KindOutput, node(t, d, "print(1)").Kind)
	assert.Equal(t, flow.KindOutput, node(t, d, `sys.stdout.write("x")`).Kind)
	assert.Equal(t, flow.KindProcess, node(t, d, "run()").Kind)
}

func TestTranslate_RaiseIsTerminal(t *testing.T) {
	d := unit(t, translate(t, "def f(x):\n    if x:\n        raise ValueError(x)\n    return x\n"), "f")
	edgeBetween(t, d, "raise ValueError(x)", "end")
	_, ok := d.FindEdge(node(t, d, "raise ValueError(x)").ID, node(t, d, "return x").ID)
	assert.False(t, ok)
}

func TestTranslate_Match(t *testing.T) {
	src := `
match cmd:
    case "go" | "run":
        move()
    case _:
        stop()
`
	d := translate(t, src).Main
	cond := node(t, d, `cmd == "go" | "run"`)
	assert.Equal(t, flow.KindCondition, cond.Kind)
	assert.Equal(t, "yes", edgeBetween(t, d, cond.Text, "move()").Label)
	assert.Equal(t, "no", edgeBetween(t, d, cond.Text, "stop()").Label)
}

func TestTranslate_WithStatement(t *testing.T) {
	d := translate(t, "with open(p) as fh:\n    data = fh.read()\n").Main
	edgeBetween(t, d, "with open(p) as fh", "data = fh.read()")
}

func TestTranslate_NestedUnits(t *testing.T) {
	src := `
def outer():
    def inner():
        return 1
    return inner()

class Outer:
    class Inner:
        def go(self):
            pass
`
	res := translate(t, src)
	unit(t, res, "outer.inner")
	unit(t, res, "Outer.Inner.go")
	unit(t, res, "Outer.Inner")
	assert.False(t, hasText(unit(t, res, "outer"), "inner"))
}

func TestTranslate_DocstringOnly(t *testing.T) {
	res := translate(t, "\"\"\"module doc\"\"\"\n\ndef f():\n    \"\"\"doc\"\"\"\n")
	assert.Empty(t, res.Main.Nodes)
	d := unit(t, res, "f")
	assert.Len(t, d.Nodes, 2)
	assert.Len(t, d.Edges, 1)
}

func TestTranslate_AsyncFunction(t *testing.T) {
	res := translate(t, "async def fetch(url):\n    data = await get(url)\n    return data\n")
	d := unit(t, res, "fetch")
	assert.Equal(t, "async fetch", d.Nodes[0].Text)
	assert.True(t, hasText(d, "data = await get(url)"))
}

func TestTranslate_SyntaxErrorHasNoResult(t *testing.T) {
	res, err := New(0).Translate(context.Background(), []byte("def broken(:\n"))
	assert.Nil(t, res)
	var syn *flow.SyntaxError
	assert.ErrorAs(t, err, &syn)
}

func TestTranslate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(0).Translate(ctx, []byte("x = 1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslate_EdgesUnique(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", "calculator.py"))
	require.NoError(t, err)
	res, err := New(0).Translate(context.Background(), src)
	require.NoError(t, err)
	for _, name := range res.UnitNames() {
		d, _ := res.Lookup(name)
		seen := map[[2]int]bool{}
		for _, e := range d.Edges {
			key := [2]int{e.From, e.To}
			assert.False(t, seen[key], "%s: duplicate edge %v", name, key)
			seen[key] = true
		}
		for i, n := range d.Nodes {
			assert.Equal(t, i, n.ID, "%s: ids follow creation order", name)
		}
	}
}
