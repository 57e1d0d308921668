//go:build cgo

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// newTestKuzuStore creates a fresh in-memory KuzuStore with an initialized
// schema and closes it when the test finishes.
func newTestKuzuStore(t *testing.T) *KuzuStore {
	t.Helper()
	s, err := NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitSchema(context.Background()), "InitSchema should not fail")
	return s
}

func TestKuzuStore(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		return newTestKuzuStore(t)
	})
}

func TestKuzuStore_InitSchemaIdempotent(t *testing.T) {
	s := newTestKuzuStore(t)
	require.NoError(t, s.InitSchema(context.Background()))
}

func TestKuzuStore_TextWithQuotes(t *testing.T) {
	s := newTestKuzuStore(t)
	ctx := context.Background()

	res := flow.NewResult()
	res.Main.AddNode(flow.KindOutput, `console.log("it's {x}")`)
	require.NoError(t, s.SaveResult(ctx, "q.js", flow.LangJavaScript, res))

	d, err := s.GetDiagram(ctx, "q.js", MainUnit)
	require.NoError(t, err)
	require.Len(t, d.Nodes, 1)
	assert.Equal(t, `console.log("it's {x}")`, d.Nodes[0].Text)
}

func TestKuzuStore_FilePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "flowchart.kuzu")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveResult(ctx, "calc.py", flow.LangPython, sampleResult()))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	units, err := reopened.ListUnits(ctx, "calc.py")
	require.NoError(t, err)
	assert.Len(t, units, 4)
}

func TestKuzuStore_CanceledSaveRollsBack(t *testing.T) {
	s := newTestKuzuStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.SaveResult(ctx, "a.py", flow.LangPython, sampleResult())
	assert.ErrorIs(t, err, context.Canceled)

	info, err := s.GetSource(context.Background(), "a.py")
	require.NoError(t, err)
	assert.Nil(t, info)
}
