package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// stmt is a tiny statement language used to drive the combinators.
type stmt struct {
	kind string // "do", "ret", "brk"
	text string
}

func do(text string) stmt { return stmt{kind: "do", text: text} }
func ret(text string) stmt { return stmt{kind: "ret", text: text} }

func block(b *Builder, stmts ...stmt) BlockFunc {
	return func(entry []Exit) ([]Exit, error) {
		return Sequence(stmts, entry, func(s stmt, live []Exit) ([]Exit, error) {
			switch s.kind {
			case "ret":
				return b.Terminal(live, KindOutput, s.text), nil
			case "brk":
				return b.DeadEnd(live, s.text), nil
			default:
				return b.Step(live, KindProcess, s.text), nil
			}
		})
	}
}

func nodeID(t *testing.T, d *Diagram, text string) int {
	t.Helper()
	for _, n := range d.Nodes {
		if n.Text == text {
			return n.ID
		}
	}
	t.Fatalf("no node with text %q", text)
	return -1
}

func edge(t *testing.T, d *Diagram, from, to string) Edge {
	t.Helper()
	e, ok := d.FindEdge(nodeID(t, d, from), nodeID(t, d, to))
	require.True(t, ok, "expected edge %s -> %s", from, to)
	return e
}

func assertUniqueEdges(t *testing.T, d *Diagram) {
	t.Helper()
	seen := map[[2]int]bool{}
	for _, e := range d.Edges {
		key := [2]int{e.From, e.To}
		assert.False(t, seen[key], "duplicate edge %d -> %d", e.From, e.To)
		seen[key] = true
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestFunction_StraightLine(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.Function("f", []string{"a", "b"}, block(b, do("x = a + b"))))
	d := b.Diagram()

	require.Len(t, d.Nodes, 4)
	assert.Equal(t, KindStart, d.Nodes[0].Kind)
	assert.Equal(t, "f", d.Nodes[0].Text)
	assert.Equal(t, Node{ID: 1, Kind: KindInput, Text: "params: a, b"}, d.Nodes[1])
	assert.Equal(t, KindEnd, d.Nodes[3].Kind)
	assert.Len(t, d.Edges, 3)
}

func TestIf_WithoutElse(t *testing.T) {
	b := NewBuilder(0)
	var after []Exit
	require.NoError(t, b.Function("f", nil, func(entry []Exit) ([]Exit, error) {
		exits, err := b.If(entry, "c", block(b, do("a")), nil)
		if err != nil {
			return nil, err
		}
		after = b.Step(exits, KindProcess, "after")
		return after, nil
	}))
	d := b.Diagram()

	yes := edge(t, d, "c", "a")
	assert.Equal(t, "yes", yes.Label)
	assert.Equal(t, BranchYes, yes.Branch)

	no := edge(t, d, "c", "after")
	assert.Equal(t, "no", no.Label)
	assert.Equal(t, BranchNo, no.Branch)

	assert.Equal(t, BranchPlain, edge(t, d, "a", "after").Branch)
	assertUniqueEdges(t, d)
}

func TestIf_ElseRetagsDeferredNo(t *testing.T) {
	b := NewBuilder(0)
	exits, err := b.If([]Exit{Direct(b.Diagram().AddNode(KindStart, "s"))}, "c",
		block(b, do("a")), block(b, do("b")))
	require.NoError(t, err)

	d := b.Diagram()
	assert.Equal(t, []Exit{Direct(nodeID(t, d, "a")), DeferredNo(nodeID(t, d, "b"))}, exits)
	no := edge(t, d, "c", "b")
	assert.Equal(t, "no", no.Label)
	assert.Equal(t, BranchNo, no.Branch)

	join := b.Step(exits, KindProcess, "join")
	require.Len(t, join, 1)
	assert.Equal(t, BranchFromNo, edge(t, d, "b", "join").Branch)
}

func TestIf_EmptyElseBranch(t *testing.T) {
	b := NewBuilder(0)
	start := b.Diagram().AddNode(KindStart, "s")
	exits, err := b.If([]Exit{Direct(start)}, "c", block(b, do("a")), block(b))
	require.NoError(t, err)

	cond := nodeID(t, b.Diagram(), "c")
	assert.Contains(t, exits, EmptyElse(cond))
}

func TestLoop_BackEdge(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.Function("f", nil, func(entry []Exit) ([]Exit, error) {
		return b.Loop(entry, "while i < 3", block(b, do("i += 1")))
	}))
	d := b.Diagram()

	body := edge(t, d, "while i < 3", "i += 1")
	assert.Equal(t, BranchLoopBody, body.Branch)

	back := edge(t, d, "i += 1", "while i < 3")
	assert.Equal(t, BranchLoopBack, back.Branch)

	exit := edge(t, d, "while i < 3", "end")
	assert.Equal(t, BranchLoopExit, exit.Branch)
	assertUniqueEdges(t, d)
}

func TestLoop_EmptyElseKeepsNoLabel(t *testing.T) {
	b := NewBuilder(0)
	start := b.Diagram().AddNode(KindStart, "s")
	_, err := b.Loop([]Exit{Direct(start)}, "loop", func(entry []Exit) ([]Exit, error) {
		return b.If(entry, "c", block(b, do("a")), nil)
	})
	require.NoError(t, err)

	back := edge(t, b.Diagram(), "c", "loop")
	assert.Equal(t, "no", back.Label)
	assert.Equal(t, BranchLoopBack, back.Branch)
}

func TestLoop_ReturnsPassThrough(t *testing.T) {
	b := NewBuilder(0)
	start := b.Diagram().AddNode(KindStart, "s")
	exits, err := b.Loop([]Exit{Direct(start)}, "loop", block(b, ret("return 1")))
	require.NoError(t, err)

	loop := nodeID(t, b.Diagram(), "loop")
	r := nodeID(t, b.Diagram(), "return 1")
	assert.Equal(t, []Exit{LoopExit(loop), ReturnExit(r)}, exits)
	_, back := b.Diagram().FindEdge(r, loop)
	assert.False(t, back, "return exits never loop back")
}

func TestDoWhile(t *testing.T) {
	b := NewBuilder(0)
	start := b.Diagram().AddNode(KindStart, "s")
	exits, err := b.DoWhile([]Exit{Direct(start)}, block(b, do("first"), do("second")), "i < 3")
	require.NoError(t, err)

	d := b.Diagram()
	assert.Equal(t, []Exit{EmptyElse(nodeID(t, d, "i < 3"))}, exits)
	yes := edge(t, d, "i < 3", "first")
	assert.Equal(t, "yes", yes.Label)
	assert.Equal(t, BranchPlain, edge(t, d, "s", "first").Branch)
	assert.Equal(t, BranchPlain, edge(t, d, "second", "i < 3").Branch)
}

func TestSwitch_ChainAndDefault(t *testing.T) {
	b := NewBuilder(0)
	start := b.Diagram().AddNode(KindStart, "s")
	exits, err := b.Switch([]Exit{Direct(start)}, []Case{
		{Test: "x == 1", Body: block(b, do("one"))},
		{Test: "x == 2", Body: block(b, do("two"))},
	}, block(b, do("other")))
	require.NoError(t, err)

	d := b.Diagram()
	assert.Equal(t, "yes", edge(t, d, "x == 1", "one").Label)
	assert.Equal(t, "no", edge(t, d, "x == 1", "x == 2").Label)
	assert.Equal(t, "no", edge(t, d, "x == 2", "other").Label)
	assert.Equal(t, []Exit{
		Direct(nodeID(t, d, "one")),
		Direct(nodeID(t, d, "two")),
		DeferredNo(nodeID(t, d, "other")),
	}, exits)

	// the default arm merges like an else branch
	b.Step(exits, KindProcess, "after")
	assert.Equal(t, BranchFromNo, edge(t, d, "other", "after").Branch)
	assert.Equal(t, BranchPlain, edge(t, d, "one", "after").Branch)
}

func TestSwitch_EmptyDefaultKeepsNoExit(t *testing.T) {
	b := NewBuilder(0)
	start := b.Diagram().AddNode(KindStart, "s")
	exits, err := b.Switch([]Exit{Direct(start)}, []Case{
		{Test: "x == 1", Body: block(b, do("one"))},
	}, block(b))
	require.NoError(t, err)

	d := b.Diagram()
	assert.Equal(t, []Exit{Direct(nodeID(t, d, "one")), EmptyElse(nodeID(t, d, "x == 1"))}, exits)
}

func TestTry_FinallyUnion(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.Function("f", nil, func(entry []Exit) ([]Exit, error) {
		return b.Try(entry, TryParts{
			Body: block(b, do("risky"), ret("return 1")),
			Handlers: []Handler{
				{Label: "except ValueError", Body: block(b, do("handle"))},
			},
			Finally: block(b, do("cleanup")),
		})
	}))
	d := b.Diagram()

	exc := edge(t, d, "try", "except ValueError")
	assert.Equal(t, "exception", exc.Label)
	assert.Equal(t, BranchException, exc.Branch)

	// every path runs the finally block, returns included
	assert.Equal(t, BranchPlain, edge(t, d, "handle", "finally").Branch)
	assert.Equal(t, BranchPlain, edge(t, d, "return 1", "finally").Branch)
	_, ok := d.FindEdge(nodeID(t, d, "return 1"), nodeID(t, d, "end"))
	assert.False(t, ok)
	_, ok = d.FindEdge(nodeID(t, d, "handle"), nodeID(t, d, "end"))
	assert.False(t, ok)
	edge(t, d, "cleanup", "end")
	assertUniqueEdges(t, d)
}

func TestTry_FinallyReachedOnlyByReturns(t *testing.T) {
	b := NewBuilder(0)
	start := b.Diagram().AddNode(KindStart, "s")
	exits, err := b.Try([]Exit{Direct(start)}, TryParts{
		Body: block(b, ret("return 1")),
		Handlers: []Handler{
			{Label: "except E", Body: block(b, ret("raise"))},
		},
		Finally: block(b, do("cleanup()")),
	})
	require.NoError(t, err)

	d := b.Diagram()
	fin := nodeID(t, d, "finally")
	assert.Len(t, d.Incoming(fin), 2)
	edge(t, d, "return 1", "finally")
	edge(t, d, "raise", "finally")
	assert.Equal(t, []Exit{ReturnExit(nodeID(t, d, "cleanup()"))}, exits)
}

// A finally reached only by returns stays terminal: it never loops back
// and statements after the loop are not fed from it.
func TestTry_FinallyOfReturnInLoop(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.Function("f", nil, func(entry []Exit) ([]Exit, error) {
		return b.Loop(entry, "for i in range(3)", func(entry []Exit) ([]Exit, error) {
			return b.Try(entry, TryParts{
				Body:    block(b, ret("return i")),
				Finally: block(b, do("print(i)")),
			})
		})
	}))
	d := b.Diagram()

	edge(t, d, "return i", "finally")
	edge(t, d, "print(i)", "end")
	_, ok := d.FindEdge(nodeID(t, d, "print(i)"), nodeID(t, d, "for i in range(3)"))
	assert.False(t, ok)
	assert.Equal(t, BranchLoopExit, edge(t, d, "for i in range(3)", "end").Branch)
}

func TestTry_ElseRunsAfterBody(t *testing.T) {
	b := NewBuilder(0)
	start := b.Diagram().AddNode(KindStart, "s")
	_, err := b.Try([]Exit{Direct(start)}, TryParts{
		Body:     block(b, do("risky")),
		Handlers: []Handler{{Label: "except", Body: block(b)}},
		Else:     block(b, do("ok")),
	})
	require.NoError(t, err)
	edge(t, b.Diagram(), "risky", "ok")
}

// if C { return X } else { Y }: X leaves through a return exit that only
// function assembly connects, Y merges into the next statement.
func TestIf_ReturnBypass(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.Function("f", nil, func(entry []Exit) ([]Exit, error) {
		exits, err := b.If(entry, "c", block(b, ret("return x")), block(b, do("y")))
		if err != nil {
			return nil, err
		}
		d := b.Diagram()
		assert.Equal(t, []Exit{ReturnExit(nodeID(t, d, "return x")), DeferredNo(nodeID(t, d, "y"))}, exits)
		return Sequence([]stmt{do("next")}, exits, func(s stmt, live []Exit) ([]Exit, error) {
			return b.Step(live, KindProcess, s.text), nil
		})
	}))
	d := b.Diagram()

	x := nodeID(t, d, "return x")
	assert.Equal(t, []Edge{{From: x, To: nodeID(t, d, "end"), Branch: BranchPlain}}, d.Outgoing(x))
	_, ok := d.FindEdge(x, nodeID(t, d, "next"))
	assert.False(t, ok)
	assert.Equal(t, BranchFromNo, edge(t, d, "y", "next").Branch)
	edge(t, d, "next", "end")
}

func TestSequence_DeadCodeAfterReturn(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.Function("f", nil, block(b, ret("return 1"), do("unreachable"))))
	for _, n := range b.Diagram().Nodes {
		assert.NotEqual(t, "unreachable", n.Text)
	}
	edge(t, b.Diagram(), "return 1", "end")
}

// break leaves a dead end: nothing after it is drawn and the Process node
// has no outgoing edge.
func TestSequence_BreakIsDeadEnd(t *testing.T) {
	b := NewBuilder(0)
	start := b.Diagram().AddNode(KindStart, "s")
	exits, err := block(b, stmt{kind: "brk", text: "break"}, do("after"))([]Exit{Direct(start)})
	require.NoError(t, err)
	assert.Empty(t, exits)
	d := b.Diagram()
	assert.Empty(t, d.Outgoing(nodeID(t, d, "break")))
	assert.Len(t, d.Nodes, 2)
}

func TestEnter_DepthLimit(t *testing.T) {
	b := NewBuilder(2)
	require.NoError(t, b.Enter(1))
	require.NoError(t, b.Enter(2))
	err := b.Enter(3)
	var depthErr *DepthError
	require.True(t, errors.As(err, &depthErr))
	assert.Equal(t, 3, depthErr.Line)
	assert.Equal(t, 2, depthErr.Limit)

	b.Leave()
	assert.NoError(t, b.Enter(4))
}

func TestBuildClass(t *testing.T) {
	d := BuildClass("Account", []string{"balance"}, []string{"Owner"}, []string{"deposit", "withdraw"})

	require.Len(t, d.Nodes, 5)
	assert.Equal(t, Node{ID: 0, Kind: KindClassStart, Text: "Account"}, d.Nodes[0])
	assert.Equal(t, "fields: balance", d.Nodes[1].Text)
	assert.Equal(t, Node{ID: 2, Kind: KindProperty, Text: "properties: Owner"}, d.Nodes[2])
	assert.Equal(t, FanOut(0), edge(t, d, "properties: Owner", "deposit()").Branch)
	assert.Equal(t, FanOut(1), edge(t, d, "properties: Owner", "withdraw()").Branch)
}

func TestBuildClass_NoMembers(t *testing.T) {
	d := BuildClass("Empty", nil, nil, nil)
	assert.Len(t, d.Nodes, 1)
	assert.Empty(t, d.Edges)
}

func TestExitStyle(t *testing.T) {
	tests := []struct {
		exit   Exit
		label  string
		branch Branch
		ok     bool
	}{
		{Direct(1), "", BranchPlain, true},
		{EmptyElse(1), "no", BranchNo, true},
		{DeferredNo(1), "", BranchFromNo, true},
		{LoopExit(1), "", BranchLoopExit, true},
		{ReturnExit(1), "", BranchPlain, false},
	}
	for _, tt := range tests {
		t.Run(tt.exit.Kind.String(), func(t *testing.T) {
			label, branch, ok := tt.exit.Style()
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.branch, branch)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
