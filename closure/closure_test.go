package closure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraph_ConjunctRequiresAllInputs(t *testing.T) {
	g := NewGraph[string]()
	g.AddConjunct("base")       // zero inputs, active from the start
	g.AddConjunct("needs-both") // active only once both "base" and "other" are active
	g.AddDisjunct("other")      // a disjunct with no inputs never becomes active
	g.AddEdge("needs-both", "base")
	g.AddEdge("needs-both", "other")

	active := g.Solve()
	assert.True(t, active["base"])
	assert.False(t, active["other"])
	assert.False(t, active["needs-both"])
}

func TestGraph_DisjunctNeedsOnlyOneInput(t *testing.T) {
	g := NewGraph[string]()
	g.AddConjunct("base")
	g.AddConjunct("dead-end")
	g.AddDisjunct("either")
	g.AddEdge("either", "base")
	g.AddEdge("either", "dead-end")
	g.AddEdge("dead-end", "unreachable") // dead-end needs an input that never fires

	active := g.Solve()
	assert.True(t, active["base"])
	assert.True(t, active["either"])
	assert.False(t, active["dead-end"])
}

func TestGraph_PropagatesTransitively(t *testing.T) {
	g := NewGraph[string]()
	g.AddConjunct("a")
	g.AddConjunct("b")
	g.AddConjunct("c")
	g.AddEdge("b", "a")
	g.AddEdge("c", "b")

	active := g.Solve()
	assert.True(t, active["a"])
	assert.True(t, active["b"])
	assert.True(t, active["c"])
}

func TestGraph_NoCycleInfiniteLoop(t *testing.T) {
	g := NewGraph[string]()
	g.AddDisjunct("x")
	g.AddDisjunct("y")
	g.AddEdge("x", "y")
	g.AddEdge("y", "x")

	active := g.Solve()
	assert.False(t, active["x"])
	assert.False(t, active["y"])
}
