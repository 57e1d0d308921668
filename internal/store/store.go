// Package store persists translated flowcharts so they can be listed and
// fetched again without re-translating the source.
package store

import (
	"context"
	"errors"
	"io"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// Store is the interface for diagram persistence.
// Implementations: KuzuStore (production, cgo), MemStore (testing, no cgo).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// SaveResult stores every diagram of res under source, replacing what
	// was stored for source before.
	SaveResult(ctx context.Context, source string, lang flow.Language, res *flow.Result) error
	DeleteSource(ctx context.Context, source string) error

	// Read operations. Missing entries yield nil without an error.
	GetSource(ctx context.Context, source string) (*SourceInfo, error)
	GetDiagram(ctx context.Context, source, unit string) (*flow.Diagram, error)
	LoadResult(ctx context.Context, source string) (*flow.Result, error)
	ListUnits(ctx context.Context, source string) ([]UnitInfo, error)
	ListSources(ctx context.Context) ([]SourceInfo, error)

	Stats(ctx context.Context) (*Stats, error)
}

// MainUnit names the diagram of a source's top-level statements.
const MainUnit = "main"

// UnitKindMain tags the main diagram among stored units.
const UnitKindMain flow.UnitKind = "main"

// ErrKuzuUnavailable is returned by Open for a store path when the binary
// was built without cgo.
var ErrKuzuUnavailable = errors.New("kuzu store requires cgo")

// SourceInfo describes one stored source.
type SourceInfo struct {
	Source   string        `json:"source"`
	Language flow.Language `json:"language"`
	Units    int           `json:"units"`
}

// UnitInfo describes one stored diagram.
type UnitInfo struct {
	Name  string        `json:"name"`
	Kind  flow.UnitKind `json:"type"`
	Nodes int           `json:"nodes"`
	Edges int           `json:"edges"`
}

// Stats summarizes a store.
type Stats struct {
	Sources  int `json:"sources"`
	Diagrams int `json:"diagrams"`
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
}

// Open returns a MemStore when path is empty and a file-backed KuzuStore
// otherwise. The returned store has its schema initialized.
func Open(ctx context.Context, path string) (Store, error) {
	var s Store
	if path == "" {
		s = NewMemStore()
	} else {
		ks, err := openKuzu(path)
		if err != nil {
			return nil, err
		}
		s = ks
	}
	if err := s.InitSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// unit is one diagram of a Result flattened for storage.
type unit struct {
	name    string
	kind    flow.UnitKind
	diagram *flow.Diagram
}

// flatten lists the diagrams of res in result order, main first.
func flatten(res *flow.Result) []unit {
	main := res.Main
	if main == nil {
		main = flow.NewDiagram()
	}
	out := make([]unit, 0, 1+len(res.Functions)+len(res.Classes))
	out = append(out, unit{name: MainUnit, kind: UnitKindMain, diagram: main})
	for _, u := range res.Functions {
		out = append(out, unit{name: u.Name, kind: u.Kind, diagram: u.Diagram})
	}
	for _, u := range res.Classes {
		out = append(out, unit{name: u.Name, kind: u.Kind, diagram: u.Diagram})
	}
	return out
}

// assemble is the inverse of flatten.
func assemble(units []unit) *flow.Result {
	res := flow.NewResult()
	for _, u := range units {
		switch u.kind {
		case UnitKindMain:
			res.Main = u.diagram
		case flow.UnitClass:
			res.Classes = append(res.Classes, flow.Unit{Name: u.name, Kind: u.kind, Diagram: u.diagram})
		default:
			res.Functions = append(res.Functions, flow.Unit{Name: u.name, Kind: u.kind, Diagram: u.diagram})
		}
	}
	return res
}

// rebuild constructs a diagram from stored nodes, ordered by id, and edges
// in insertion order.
func rebuild(nodes []flow.Node, edges []flow.Edge) *flow.Diagram {
	d := flow.NewDiagram()
	for _, n := range nodes {
		d.AddNode(n.Kind, n.Text)
	}
	for _, e := range edges {
		d.AddEdge(e.From, e.To, e.Label, e.Branch)
	}
	return d
}

func unitName(name string) string {
	if name == "" {
		return MainUnit
	}
	return name
}
