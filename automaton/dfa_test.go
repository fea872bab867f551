package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func smallNFA() NFA[string] {
	nfa := NFA[string]{Start: "0"}
	nfa.AddState("0", false)
	nfa.AddState("1", false)
	nfa.AddState("2", true)
	nfa.SetValue("0", "0")
	nfa.SetValue("1", "1")
	nfa.SetValue("2", "2")
	nfa.AddTransition("0", "a", "1")
	nfa.AddTransition("1", "b", "2")
	return nfa
}

func TestNFA_EpsilonClosure_NoEpsilons(t *testing.T) {
	nfa := smallNFA()
	closure := nfa.EpsilonClosure("0")
	assert.Equal(t, 1, closure.Len())
	assert.True(t, closure.Has("0"))
}

func TestNFA_EpsilonClosure_FollowsEpsilonMoves(t *testing.T) {
	nfa := NFA[string]{Start: "0"}
	nfa.AddState("0", false)
	nfa.AddState("1", false)
	nfa.AddState("2", true)
	nfa.AddTransition("0", "", "1")
	nfa.AddTransition("1", "", "2")

	closure := nfa.EpsilonClosure("0")
	assert.True(t, closure.Has("0"))
	assert.True(t, closure.Has("1"))
	assert.True(t, closure.Has("2"))
}

func TestNFA_ToDFA_IsDeterministic(t *testing.T) {
	nfa := smallNFA()
	dfa := nfa.ToDFA()

	assert.NotEmpty(t, dfa.Start)
	next := dfa.Next(dfa.Start, "a")
	assert.NotEmpty(t, next)
	assert.False(t, dfa.IsAccepting(dfa.Start))
	final := dfa.Next(next, "b")
	assert.True(t, dfa.IsAccepting(final))
}

func TestDFA_NumberStates(t *testing.T) {
	nfa := smallNFA()
	dfa := nfa.ToDFA()
	dfa.NumberStates()

	assert.Equal(t, "0", dfa.Start)
	assert.NotEmpty(t, dfa.Next("0", "a"))
}

func TestDFA_Minimize_MergesEquivalentStates(t *testing.T) {
	// a(b|c) — states reached by b and by c are both immediately
	// accepting with no further transitions, so they're equivalent.
	dfa := DFA[int]{}
	dfa.AddState("s0", false)
	dfa.AddState("s1", false)
	dfa.AddState("s2b", true)
	dfa.AddState("s2c", true)
	dfa.Start = "s0"
	dfa.AddTransition("s0", "a", "s1")
	dfa.AddTransition("s1", "b", "s2b")
	dfa.AddTransition("s1", "c", "s2c")

	min := dfa.Minimize(
		func(v int) string { return "" },
		func(states []string, values []int) int { return values[0] },
	)
	assert.Equal(t, 3, min.States().Len())
}

func TestDFA_Minimize_NeverMergesDifferentAcceptLabels(t *testing.T) {
	// Same shape as above (a(b|c), both branches dead-end immediately
	// after accepting) but the two accept states carry distinct payloads
	// (e.g. two different token identities) — acceptKey must keep them
	// in separate blocks even though their future transitions coincide.
	dfa := DFA[string]{}
	dfa.AddState("s0", false)
	dfa.AddState("s1", false)
	dfa.AddState("s2b", true)
	dfa.AddState("s2c", true)
	dfa.SetValue("s2b", "TOKEN_B")
	dfa.SetValue("s2c", "TOKEN_C")
	dfa.Start = "s0"
	dfa.AddTransition("s0", "a", "s1")
	dfa.AddTransition("s1", "b", "s2b")
	dfa.AddTransition("s1", "c", "s2c")

	min := dfa.Minimize(
		func(v string) string { return v },
		func(states []string, values []string) string { return values[0] },
	)
	assert.Equal(t, 4, min.States().Len())

	bState := min.Next(min.Next(min.Start, "a"), "b")
	cState := min.Next(min.Next(min.Start, "a"), "c")
	assert.NotEqual(t, bState, cState)
	assert.Equal(t, "TOKEN_B", min.GetValue(bState))
	assert.Equal(t, "TOKEN_C", min.GetValue(cState))
}

func TestDFA_AllTransitionsTo(t *testing.T) {
	dfa := DFA[int]{}
	dfa.AddState("s0", false)
	dfa.AddState("s1", true)
	dfa.Start = "s0"
	dfa.AddTransition("s0", "a", "s1")

	to := dfa.AllTransitionsTo("s1")
	assert.Len(t, to, 1)
	assert.Equal(t, [2]string{"s0", "a"}, to[0])
}
