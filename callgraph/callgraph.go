// Package callgraph records the caller/callee relationships of a generated
// module and serializes them as a Graphviz digraph.
package callgraph

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// Node is one function in the graph.
type Node struct {
	ID       uint32
	Exported bool
}

// Edge is a deduplicated caller to callee relationship.
type Edge struct {
	Caller uint32
	Callee uint32
}

// Adjacency maps each function index to the functions it directly calls,
// in first-call order.
type Adjacency map[uint32][]uint32

// Graph is an insertion-ordered node and edge set.
// The zero value is not usable; call New.
type Graph struct {
	nodes []Node
	index map[uint32]int
	edges []Edge
	adj   Adjacency
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[uint32]int),
		adj:   make(Adjacency),
	}
}

// AddNode adds a function node, or updates its exported flag if present.
func (g *Graph) AddNode(id uint32, exported bool) {
	if i, ok := g.index[id]; ok {
		g.nodes[i].Exported = exported
		return
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, Node{ID: id, Exported: exported})
}

// AddEdge records caller -> callee. Repeated calls between the same pair
// collapse into one edge.
func (g *Graph) AddEdge(caller, callee uint32) {
	before := len(g.adj[caller])
	g.adj[caller] = appendUnique(g.adj[caller], callee)
	if len(g.adj[caller]) != before {
		g.edges = append(g.edges, Edge{Caller: caller, Callee: callee})
	}
}

// HasEdge reports whether caller -> callee was recorded.
func (g *Graph) HasEdge(caller, callee uint32) bool {
	for _, c := range g.adj[caller] {
		if c == callee {
			return true
		}
	}
	return false
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Callees returns the direct callees of id.
func (g *Graph) Callees(id uint32) []uint32 {
	return g.adj[id]
}

// Reachable returns every function transitively called from the given
// roots, the roots included, in ascending order.
func (g *Graph) Reachable(roots ...uint32) []uint32 {
	sources := make(map[uint32]bool, len(roots))
	for _, r := range roots {
		sources[r] = true
	}
	set := g.adj.TransitiveCallees(sources)

	out := make([]uint32, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TransitiveCallees finds all functions that are transitively called by any
// of the sources, by fixed-point expansion.
func (a Adjacency) TransitiveCallees(sources map[uint32]bool) map[uint32]bool {
	result := make(map[uint32]bool)
	for s := range sources {
		result[s] = true
	}

	changed := true
	for changed {
		changed = false
		for caller := range result {
			for _, callee := range a[caller] {
				if !result[callee] {
					result[callee] = true
					changed = true
				}
			}
		}
	}

	return result
}

// WriteDOT writes the graph as a Graphviz digraph named name. Nodes are
// labelled nodeN; the exported node is filled gray.
func (g *Graph) WriteDOT(w io.Writer, name string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {\n", name)
	for _, n := range g.nodes {
		if n.Exported {
			fmt.Fprintf(&buf, "  node%d [label=\"node%d\" style=\"filled\" color=\"gray\"];\n", n.ID, n.ID)
		} else {
			fmt.Fprintf(&buf, "  node%d [label=\"node%d\"];\n", n.ID, n.ID)
		}
	}
	for _, e := range g.edges {
		fmt.Fprintf(&buf, "  node%d -> node%d;\n", e.Caller, e.Callee)
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// DOT returns the digraph document as a string.
func (g *Graph) DOT(name string) string {
	var buf bytes.Buffer
	_ = g.WriteDOT(&buf, name)
	return buf.String()
}

func appendUnique(slice []uint32, val uint32) []uint32 {
	for _, v := range slice {
		if v == val {
			return slice
		}
	}
	return append(slice, val)
}
