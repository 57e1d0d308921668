package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
// Diagrams are copied on the way in and out.
type MemStore struct {
	mu      sync.RWMutex
	sources map[string]memSource
}

type memSource struct {
	lang  flow.Language
	units []unit
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{sources: make(map[string]memSource)}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// SaveResult replaces the diagrams stored for source.
func (m *MemStore) SaveResult(_ context.Context, source string, lang flow.Language, res *flow.Result) error {
	units := flatten(res)
	for i := range units {
		units[i].diagram = clone(units[i].diagram)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[source] = memSource{lang: lang, units: units}
	return nil
}

// DeleteSource removes source and its diagrams. Unknown sources are ignored.
func (m *MemStore) DeleteSource(_ context.Context, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sources, source)
	return nil
}

// GetSource returns the summary of source, or nil if not found.
func (m *MemStore) GetSource(_ context.Context, source string) (*SourceInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sources[source]
	if !ok {
		return nil, nil
	}
	return &SourceInfo{Source: source, Language: s.lang, Units: len(s.units)}, nil
}

// GetDiagram returns a copy of the named diagram, or nil if not found.
// An empty unit name selects the main diagram.
func (m *MemStore) GetDiagram(_ context.Context, source, name string) (*flow.Diagram, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = unitName(name)
	for _, u := range m.sources[source].units {
		if u.name == name {
			return clone(u.diagram), nil
		}
	}
	return nil, nil
}

// LoadResult reassembles the Result stored for source, or nil if not found.
func (m *MemStore) LoadResult(_ context.Context, source string) (*flow.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sources[source]
	if !ok {
		return nil, nil
	}
	units := make([]unit, len(s.units))
	for i, u := range s.units {
		units[i] = unit{name: u.name, kind: u.kind, diagram: clone(u.diagram)}
	}
	return assemble(units), nil
}

// ListUnits returns the diagrams stored for source in result order.
func (m *MemStore) ListUnits(_ context.Context, source string) ([]UnitInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []UnitInfo
	for _, u := range m.sources[source].units {
		out = append(out, UnitInfo{
			Name:  u.name,
			Kind:  u.kind,
			Nodes: len(u.diagram.Nodes),
			Edges: len(u.diagram.Edges),
		})
	}
	return out, nil
}

// ListSources returns every stored source sorted by name.
func (m *MemStore) ListSources(_ context.Context) ([]SourceInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SourceInfo, 0, len(m.sources))
	for name, s := range m.sources {
		out = append(out, SourceInfo{Source: name, Language: s.lang, Units: len(s.units)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}

// Stats counts sources, diagrams, nodes and edges.
func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &Stats{Sources: len(m.sources)}
	for _, s := range m.sources {
		st.Diagrams += len(s.units)
		for _, u := range s.units {
			st.Nodes += len(u.diagram.Nodes)
			st.Edges += len(u.diagram.Edges)
		}
	}
	return st, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

func clone(d *flow.Diagram) *flow.Diagram {
	if d == nil {
		return flow.NewDiagram()
	}
	return rebuild(d.Nodes, d.Edges)
}
