//go:build cgo

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// KuzuStore implements the Store interface using KuzuDB. Sources own
// diagrams, diagrams contain flow nodes, and flow nodes are joined by
// FLOWS_TO relationships carrying the edge label and branch.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	mu   sync.Mutex
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openDatabase(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path. KuzuDB creates the leaf itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openDatabase(dbPath)
}

func openDatabase(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

func openKuzu(path string) (Store, error) {
	return NewKuzuFileStore(path)
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Source(
		path STRING,
		language STRING,
		units INT64,
		PRIMARY KEY(path)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Diagram(
		id STRING,
		source STRING,
		name STRING,
		kind STRING,
		ord INT64,
		nodes INT64,
		edges INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS FlowNode(
		id STRING,
		source STRING,
		diagram STRING,
		node_id INT64,
		kind STRING,
		text STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_DIAGRAM(FROM Source TO Diagram)`,
	`CREATE REL TABLE IF NOT EXISTS CONTAINS(FROM Diagram TO FlowNode)`,
	`CREATE REL TABLE IF NOT EXISTS FLOWS_TO(FROM FlowNode TO FlowNode, label STRING, branch STRING, ord INT64)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// SaveResult replaces everything stored for source inside one transaction.
func (s *KuzuStore) SaveResult(ctx context.Context, source string, lang flow.Language, res *flow.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.run("BEGIN TRANSACTION"); err != nil {
		return err
	}
	if err := s.save(ctx, source, lang, res); err != nil {
		_ = s.run("ROLLBACK")
		return err
	}
	return s.run("COMMIT")
}

func (s *KuzuStore) save(ctx context.Context, source string, lang flow.Language, res *flow.Result) error {
	if err := s.deleteSource(source); err != nil {
		return err
	}
	units := flatten(res)
	if err := s.exec(
		"CREATE (:Source {path: $src, language: $lang, units: $units})",
		map[string]any{"src": source, "lang": string(lang), "units": int64(len(units))},
	); err != nil {
		return err
	}

	for i, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.saveDiagram(source, i, u); err != nil {
			return fmt.Errorf("save %s: %w", u.name, err)
		}
	}
	return nil
}

func (s *KuzuStore) saveDiagram(source string, ord int, u unit) error {
	id := diagramID(source, u.name)
	d := u.diagram
	if d == nil {
		d = flow.NewDiagram()
	}
	if err := s.exec(
		`CREATE (:Diagram {id: $id, source: $src, name: $name, kind: $kind, ord: $ord, nodes: $nodes, edges: $edges})`,
		map[string]any{
			"id":    id,
			"src":   source,
			"name":  u.name,
			"kind":  string(u.kind),
			"ord":   int64(ord),
			"nodes": int64(len(d.Nodes)),
			"edges": int64(len(d.Edges)),
		},
	); err != nil {
		return err
	}
	if err := s.exec(
		`MATCH (a:Source {path: $src}), (b:Diagram {id: $id}) CREATE (a)-[:HAS_DIAGRAM]->(b)`,
		map[string]any{"src": source, "id": id},
	); err != nil {
		return err
	}

	for _, n := range d.Nodes {
		if err := s.exec(
			`MATCH (d:Diagram {id: $diagram})
			 CREATE (d)-[:CONTAINS]->(:FlowNode {id: $id, source: $src, diagram: $diagram, node_id: $node, kind: $kind, text: $text})`,
			map[string]any{
				"id":      flowNodeID(id, n.ID),
				"src":     source,
				"diagram": id,
				"node":    int64(n.ID),
				"kind":    string(n.Kind),
				"text":    n.Text,
			},
		); err != nil {
			return err
		}
	}

	for i, e := range d.Edges {
		if err := s.exec(
			`MATCH (a:FlowNode {id: $from}), (b:FlowNode {id: $to})
			 CREATE (a)-[:FLOWS_TO {label: $label, branch: $branch, ord: $ord}]->(b)`,
			map[string]any{
				"from":   flowNodeID(id, e.From),
				"to":     flowNodeID(id, e.To),
				"label":  e.Label,
				"branch": string(e.Branch),
				"ord":    int64(i),
			},
		); err != nil {
			return err
		}
	}
	return nil
}

// DeleteSource removes source with its diagrams and flow nodes.
func (s *KuzuStore) DeleteSource(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteSource(source)
}

func (s *KuzuStore) deleteSource(source string) error {
	params := map[string]any{"src": source}
	for _, cypher := range []string{
		"MATCH (n:FlowNode) WHERE n.source = $src DETACH DELETE n",
		"MATCH (d:Diagram) WHERE d.source = $src DETACH DELETE d",
		"MATCH (s:Source) WHERE s.path = $src DETACH DELETE s",
	} {
		if err := s.exec(cypher, params); err != nil {
			return err
		}
	}
	return nil
}

// ---------- Read operations ----------

// GetSource returns the summary of source, or nil if not found.
func (s *KuzuStore) GetSource(_ context.Context, source string) (*SourceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(
		"MATCH (s:Source {path: $src}) RETURN s.path, s.language, s.units",
		map[string]any{"src": source},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToSource(rows[0]), nil
}

// GetDiagram rebuilds the named diagram, or returns nil if not found.
// An empty unit name selects the main diagram.
func (s *KuzuStore) GetDiagram(_ context.Context, source, name string) (*flow.Diagram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diagram(diagramID(source, unitName(name)))
}

func (s *KuzuStore) diagram(id string) (*flow.Diagram, error) {
	rows, err := s.query("MATCH (d:Diagram {id: $id}) RETURN d.name", map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	nodeRows, err := s.query(
		`MATCH (d:Diagram {id: $id})-[:CONTAINS]->(n:FlowNode)
		 RETURN n.node_id, n.kind, n.text ORDER BY n.node_id`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	nodes := make([]flow.Node, 0, len(nodeRows))
	for _, r := range nodeRows {
		nodes = append(nodes, flow.Node{ID: toInt(r[0]), Kind: flow.NodeKind(toString(r[1])), Text: toString(r[2])})
	}

	edgeRows, err := s.query(
		`MATCH (a:FlowNode)-[r:FLOWS_TO]->(b:FlowNode) WHERE a.diagram = $id
		 RETURN a.node_id, b.node_id, r.label, r.branch ORDER BY r.ord`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	edges := make([]flow.Edge, 0, len(edgeRows))
	for _, r := range edgeRows {
		edges = append(edges, flow.Edge{
			From:   toInt(r[0]),
			To:     toInt(r[1]),
			Label:  toString(r[2]),
			Branch: flow.Branch(toString(r[3])),
		})
	}
	return rebuild(nodes, edges), nil
}

// LoadResult reassembles the Result stored for source, or nil if not found.
func (s *KuzuStore) LoadResult(_ context.Context, source string) (*flow.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos, err := s.units(source)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, nil
	}
	units := make([]unit, 0, len(infos))
	for _, info := range infos {
		d, err := s.diagram(diagramID(source, info.Name))
		if err != nil {
			return nil, err
		}
		units = append(units, unit{name: info.Name, kind: info.Kind, diagram: d})
	}
	return assemble(units), nil
}

// ListUnits returns the diagrams stored for source in result order.
func (s *KuzuStore) ListUnits(_ context.Context, source string) ([]UnitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.units(source)
}

func (s *KuzuStore) units(source string) ([]UnitInfo, error) {
	rows, err := s.query(
		`MATCH (d:Diagram) WHERE d.source = $src
		 RETURN d.name, d.kind, d.nodes, d.edges ORDER BY d.ord`,
		map[string]any{"src": source},
	)
	if err != nil {
		return nil, err
	}
	var out []UnitInfo
	for _, r := range rows {
		out = append(out, UnitInfo{
			Name:  toString(r[0]),
			Kind:  flow.UnitKind(toString(r[1])),
			Nodes: toInt(r[2]),
			Edges: toInt(r[3]),
		})
	}
	return out, nil
}

// ListSources returns every stored source sorted by path.
func (s *KuzuStore) ListSources(_ context.Context) ([]SourceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (s:Source) RETURN s.path, s.language, s.units ORDER BY s.path", nil)
	if err != nil {
		return nil, err
	}
	out := make([]SourceInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToSource(r))
	}
	return out, nil
}

// Stats counts sources, diagrams, flow nodes and FLOWS_TO edges.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &Stats{}
	var err error
	if st.Sources, err = s.count("MATCH (n:Source) RETURN count(n)"); err != nil {
		return nil, err
	}
	if st.Diagrams, err = s.count("MATCH (n:Diagram) RETURN count(n)"); err != nil {
		return nil, err
	}
	if st.Nodes, err = s.count("MATCH (n:FlowNode) RETURN count(n)"); err != nil {
		return nil, err
	}
	if st.Edges, err = s.count("MATCH ()-[r:FLOWS_TO]->() RETURN count(r)"); err != nil {
		return nil, err
	}
	return st, nil
}

// ---------- Query helpers ----------

// run executes an unparameterized statement.
func (s *KuzuStore) run(cypher string) error {
	res, err := s.conn.Query(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: %s: %w", cypher, err)
	}
	res.Close()
	return nil
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// diagramID produces a deterministic identifier for a stored diagram.
func diagramID(source, name string) string {
	return source + "#" + name
}

func flowNodeID(diagram string, id int) string {
	return diagram + "#" + strconv.Itoa(id)
}

// rowToSource converts a path, language, units row into a SourceInfo.
func rowToSource(r []any) *SourceInfo {
	return &SourceInfo{
		Source:   toString(r[0]),
		Language: flow.Language(toString(r[1])),
		Units:    toInt(r[2]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
