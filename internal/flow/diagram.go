package flow

import "fmt"

// Diagram is a single flowchart: its nodes in creation order and the
// edges between them. Node ids are the creation index, so they start at 0
// and are never reused.
type Diagram struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	// index maps (from, to) to the position of the edge in Edges.
	index map[[2]int]int
}

// NewDiagram returns an empty diagram that serializes its lists as [].
func NewDiagram() *Diagram {
	return &Diagram{Nodes: []Node{}, Edges: []Edge{}}
}

// AddNode appends a node and returns its id.
func (d *Diagram) AddNode(kind NodeKind, text string) int {
	id := len(d.Nodes)
	d.Nodes = append(d.Nodes, Node{ID: id, Kind: kind, Text: text})
	return id
}

// Node returns the node with the given id. It panics on unknown ids.
func (d *Diagram) Node(id int) Node {
	d.mustHave(id)
	return d.Nodes[id]
}

// AddEdge connects from to to. A diagram holds at most one edge per
// ordered pair; repeated insertions merge into the stored edge:
//
//   - an unlabeled stored edge adopts a non-empty label together with its branch,
//   - an unlabeled Plain stored edge adopts a non-Plain branch,
//   - otherwise the first insertion wins.
//
// The stored edge is returned.
func (d *Diagram) AddEdge(from, to int, label string, branch Branch) *Edge {
	d.mustHave(from)
	d.mustHave(to)
	d.reindex()

	key := [2]int{from, to}
	if i, ok := d.index[key]; ok {
		e := &d.Edges[i]
		switch {
		case e.Label == "" && label != "":
			e.Label = label
			e.Branch = branch
		case e.Label == "" && e.Branch == BranchPlain && branch != BranchPlain:
			e.Branch = branch
		}
		return e
	}

	d.Edges = append(d.Edges, Edge{From: from, To: to, Label: label, Branch: branch})
	d.index[key] = len(d.Edges) - 1
	return &d.Edges[len(d.Edges)-1]
}

// LabelFirstUnlabeled finds the first edge at position >= since whose
// source is from and which carries neither a label nor a branch, and sets
// both. It reports whether an edge was labeled.
func (d *Diagram) LabelFirstUnlabeled(from, since int, label string, branch Branch) bool {
	for i := max(since, 0); i < len(d.Edges); i++ {
		e := &d.Edges[i]
		if e.From == from && e.Label == "" && e.Branch == BranchPlain {
			e.Label = label
			e.Branch = branch
			return true
		}
	}
	return false
}

// EdgeCount returns the number of edges; used as a "since" marker.
func (d *Diagram) EdgeCount() int {
	return len(d.Edges)
}

// FindEdge returns the edge from -> to, if any.
func (d *Diagram) FindEdge(from, to int) (Edge, bool) {
	d.reindex()
	i, ok := d.index[[2]int{from, to}]
	if !ok {
		return Edge{}, false
	}
	return d.Edges[i], true
}

// Outgoing returns the edges leaving id in insertion order.
func (d *Diagram) Outgoing(id int) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges entering id in insertion order.
func (d *Diagram) Incoming(id int) []Edge {
	var in []Edge
	for _, e := range d.Edges {
		if e.To == id {
			in = append(in, e)
		}
	}
	return in
}

// NodesOfKind returns the nodes of the given kind in creation order.
func (d *Diagram) NodesOfKind(kind NodeKind) []Node {
	var out []Node
	for _, n := range d.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// reindex rebuilds the edge index when Edges was populated without
// AddEdge, e.g. by json.Unmarshal or a store.
func (d *Diagram) reindex() {
	if d.index != nil && len(d.index) == len(d.Edges) {
		return
	}
	d.index = make(map[[2]int]int, len(d.Edges))
	for i, e := range d.Edges {
		if _, dup := d.index[[2]int{e.From, e.To}]; !dup {
			d.index[[2]int{e.From, e.To}] = i
		}
	}
}

func (d *Diagram) mustHave(id int) {
	if id < 0 || id >= len(d.Nodes) {
		panic(fmt.Sprintf("flow: node %d does not exist (diagram has %d nodes)", id, len(d.Nodes)))
	}
}
