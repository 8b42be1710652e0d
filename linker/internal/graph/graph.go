// Package graph computes symbol reachability for the organizer.
//
// Nodes are dense symbol handles. An edge from A to B means some instruction
// owned by A references B (or a symbol nested in B). Mark walks the graph
// from a root set with a work list; the result does not depend on visit
// order, and marking from a marked set yields the same set again.
package graph

// Graph is a directed graph over node indices 0..Len()-1.
type Graph struct {
	edges [][]uint32
}

// New creates a graph with room for n nodes. AddEdge grows it as needed.
func New(n int) *Graph {
	return &Graph{edges: make([][]uint32, n)}
}

// Len returns the number of nodes the graph holds.
func (g *Graph) Len() int {
	return len(g.edges)
}

// AddEdge records that from references to. Self edges are dropped.
func (g *Graph) AddEdge(from, to uint32) {
	if from == to {
		return
	}
	if need := int(max(from, to)) + 1; need > len(g.edges) {
		grown := make([][]uint32, need)
		copy(grown, g.edges)
		g.edges = grown
	}
	g.edges[from] = append(g.edges[from], to)
}

// Successors returns the nodes referenced by n.
func (g *Graph) Successors(n uint32) []uint32 {
	if int(n) >= len(g.edges) {
		return nil
	}
	return g.edges[n]
}

// Mark returns every node reachable from roots, roots included.
func (g *Graph) Mark(roots []uint32) *BitSet {
	seen := NewBitSet(len(g.edges))
	work := make([]uint32, 0, len(roots))
	for _, r := range roots {
		if !seen.Has(r) {
			seen.Set(r)
			work = append(work, r)
		}
	}
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]
		for _, s := range g.Successors(n) {
			if !seen.Has(s) {
				seen.Set(s)
				work = append(work, s)
			}
		}
	}
	return seen
}
