package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_StableAndDistinguishes(t *testing.T) {
	a := Fingerprint([]string{"x", "y"})
	b := Fingerprint([]string{"x", "y"})
	c := Fingerprint([]string{"x", "z"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestNFA_MOVE(t *testing.T) {
	nfa := smallNFA()
	moved := nfa.MOVE(nfa.EpsilonClosure("0"), "a")
	assert.True(t, moved.Has("1"))
	assert.False(t, moved.Has("2"))
}

func TestNFA_InputSymbols(t *testing.T) {
	nfa := smallNFA()
	syms := nfa.InputSymbols()
	assert.True(t, syms.Has("a"))
	assert.True(t, syms.Has("b"))
	assert.False(t, syms.Has(""))
}
