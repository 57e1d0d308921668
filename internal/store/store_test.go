package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// sampleResult builds a Result with a main diagram, one function, one
// method and one class skeleton.
func sampleResult() *flow.Result {
	res := flow.NewResult()

	main := flow.NewDiagram()
	s := main.AddNode(flow.KindStart, "start")
	p := main.AddNode(flow.KindOutput, `print("hi")`)
	e := main.AddNode(flow.KindEnd, "end")
	main.AddEdge(s, p, "", flow.BranchPlain)
	main.AddEdge(p, e, "", flow.BranchPlain)
	res.Main = main

	fn := flow.NewDiagram()
	start := fn.AddNode(flow.KindStart, "f")
	cond := fn.AddNode(flow.KindCondition, "x > 0")
	ret := fn.AddNode(flow.KindOutput, "return x")
	end := fn.AddNode(flow.KindEnd, "end")
	fn.AddEdge(start, cond, "", flow.BranchPlain)
	fn.AddEdge(cond, ret, "yes", flow.BranchYes)
	fn.AddEdge(cond, end, "no", flow.BranchNo)
	fn.AddEdge(ret, end, "", flow.BranchPlain)
	res.Functions = append(res.Functions,
		flow.Unit{Name: "f", Kind: flow.UnitFunction, Diagram: fn},
		flow.Unit{Name: "A.m", Kind: flow.UnitMethod, Diagram: flow.NewDiagram()},
	)

	res.Classes = append(res.Classes, flow.Unit{
		Name:    "A",
		Kind:    flow.UnitClass,
		Diagram: flow.BuildClass("A", []string{"x"}, nil, []string{"m"}),
	})
	return res
}

// testStore runs the behavior every Store implementation shares.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := sampleResult()
		require.NoError(t, s.SaveResult(ctx, "calc.py", flow.LangPython, want))

		got, err := s.LoadResult(ctx, "calc.py")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.Main.Nodes, got.Main.Nodes)
		assert.Equal(t, want.Main.Edges, got.Main.Edges)
		require.Len(t, got.Functions, 2)
		assert.Equal(t, "f", got.Functions[0].Name)
		assert.Equal(t, flow.UnitMethod, got.Functions[1].Kind)
		assert.Equal(t, want.Functions[0].Diagram.Edges, got.Functions[0].Diagram.Edges)
		assert.Empty(t, got.Functions[1].Diagram.Nodes)
		require.Len(t, got.Classes, 1)
		assert.Equal(t, want.Classes[0].Diagram.Edges, got.Classes[0].Diagram.Edges)
	})

	t.Run("GetDiagram", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveResult(ctx, "calc.py", flow.LangPython, sampleResult()))

		d, err := s.GetDiagram(ctx, "calc.py", "f")
		require.NoError(t, err)
		require.NotNil(t, d)
		e, ok := d.FindEdge(1, 2)
		require.True(t, ok)
		assert.Equal(t, "yes", e.Label)

		main, err := s.GetDiagram(ctx, "calc.py", "")
		require.NoError(t, err)
		require.NotNil(t, main)
		assert.Equal(t, "start", main.Nodes[0].Text)

		missing, err := s.GetDiagram(ctx, "calc.py", "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)

		missing, err = s.GetDiagram(ctx, "other.py", "f")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ListUnitsAndSources", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveResult(ctx, "b.js", flow.LangJavaScript, flow.NewResult()))
		require.NoError(t, s.SaveResult(ctx, "a.py", flow.LangPython, sampleResult()))

		units, err := s.ListUnits(ctx, "a.py")
		require.NoError(t, err)
		require.Len(t, units, 4)
		assert.Equal(t, UnitInfo{Name: MainUnit, Kind: UnitKindMain, Nodes: 3, Edges: 2}, units[0])
		assert.Equal(t, UnitInfo{Name: "f", Kind: flow.UnitFunction, Nodes: 4, Edges: 4}, units[1])
		assert.Equal(t, "A", units[3].Name)

		sources, err := s.ListSources(ctx)
		require.NoError(t, err)
		assert.Equal(t, []SourceInfo{
			{Source: "a.py", Language: flow.LangPython, Units: 4},
			{Source: "b.js", Language: flow.LangJavaScript, Units: 1},
		}, sources)

		info, err := s.GetSource(ctx, "b.js")
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, flow.LangJavaScript, info.Language)

		info, err = s.GetSource(ctx, "zzz")
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveResult(ctx, "a.py", flow.LangPython, sampleResult()))
		require.NoError(t, s.SaveResult(ctx, "a.py", flow.LangPython, flow.NewResult()))

		units, err := s.ListUnits(ctx, "a.py")
		require.NoError(t, err)
		assert.Len(t, units, 1)

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, &Stats{Sources: 1, Diagrams: 1}, st)
	})

	t.Run("DeleteSource", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveResult(ctx, "a.py", flow.LangPython, sampleResult()))
		require.NoError(t, s.DeleteSource(ctx, "a.py"))
		require.NoError(t, s.DeleteSource(ctx, "never-stored.py"))

		res, err := s.LoadResult(ctx, "a.py")
		require.NoError(t, err)
		assert.Nil(t, res)

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, &Stats{}, st)
	})

	t.Run("Stats", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveResult(ctx, "a.py", flow.LangPython, sampleResult()))

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		// main 3/2, f 4/4, A.m 0/0, class A: ClassStart, fields, m() 3/2
		assert.Equal(t, &Stats{Sources: 1, Diagrams: 4, Nodes: 10, Edges: 8}, st)
	})
}

func TestMemStore(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		return NewMemStore()
	})
}

func TestMemStore_CopiesDiagrams(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	res := sampleResult()
	require.NoError(t, s.SaveResult(ctx, "a.py", flow.LangPython, res))

	res.Main.AddNode(flow.KindProcess, "mutated")
	d, err := s.GetDiagram(ctx, "a.py", MainUnit)
	require.NoError(t, err)
	assert.Len(t, d.Nodes, 3)

	d.AddNode(flow.KindProcess, "mutated")
	again, err := s.GetDiagram(ctx, "a.py", MainUnit)
	require.NoError(t, err)
	assert.Len(t, again.Nodes, 3)
}

func TestMemStore_ConcurrentSave(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	var wg sync.WaitGroup
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			assert.NoError(t, s.SaveResult(ctx, name, flow.LangPython, sampleResult()))
			_, err := s.ListSources(ctx)
			assert.NoError(t, err)
		}(name)
	}
	wg.Wait()

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Sources)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), "")
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &MemStore{}, s)
}
