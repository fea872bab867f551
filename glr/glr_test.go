package glr

import (
	"testing"

	"github.com/lennartw/pelican/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// palindromeGrammar is spec's non-deterministic example: P -> ε | a | b |
// aPa | bPb. No fixed amount of lookahead can decide, on seeing an 'a',
// whether it is the whole palindrome or the first half of a longer one, so
// the table this builds necessarily carries shift/reduce alternatives a
// deterministic driver would have to pick one of — exactly what Parser
// forks over instead.
func palindromeGrammar() *grammar.Grammar {
	g := grammar.New()
	g.AddTerm("a", "a")
	g.AddTerm("b", "b")

	g.AddRule("P", grammar.Production{})
	g.AddRule("P", grammar.Production{"a"})
	g.AddRule("P", grammar.Production{"b"})
	aRule := g.AddRule("P", grammar.Production{"a", "P", "a"})
	aRule.CaptureMask = []bool{false, true, false}
	bRule := g.AddRule("P", grammar.Production{"b", "P", "b"})
	bRule.CaptureMask = []bool{false, true, false}

	g.SetNonDeterministic()
	g.AddStart("P")
	return g
}

func feedAll(t *testing.T, r *Run, symbols []string) error {
	t.Helper()
	for _, s := range symbols {
		if err := r.Feed(s, s, Span{Text: s}); err != nil {
			return err
		}
	}
	return nil
}

func TestGSSParser_Palindrome(t *testing.T) {
	table, _, err := GenerateTable(palindromeGrammar())
	require.NoError(t, err)
	p := NewParser(table, nil)

	accepts := [][]string{
		{},
		{"a"},
		{"a", "b", "a"},
		{"b", "a", "a", "b"},
	}
	for _, input := range accepts {
		r := p.NewRun()
		err := feedAll(t, r, input)
		if err == nil {
			_, err = r.Finish()
		}
		assert.NoError(t, err, "input %v should accept", input)
	}

	rejects := [][]string{
		{"a", "b"},
	}
	for _, input := range rejects {
		r := p.NewRun()
		err := feedAll(t, r, input)
		if err == nil {
			_, err = r.Finish()
		}
		assert.Error(t, err, "input %v should reject", input)
	}
}

func TestCactusParser_Palindrome(t *testing.T) {
	table, _, err := GenerateTable(palindromeGrammar())
	require.NoError(t, err)
	p := NewParser(table, nil)
	p.Strategy = StrategyCactus

	r := p.NewCactusRun()
	require.NoError(t, feedAll(t, r, []string{"a", "b", "a"}))
	_, err = r.Finish()
	assert.NoError(t, err)
}

// hiddenLeftRecursionGrammar is spec's scenario 4: S -> E S a | b; E -> ε.
// E is nullable and sits in S's leftmost position, so any algorithm that
// tries to expand S top-down before consuming a token re-derives E -> ε
// forever. The GSS survives this because the reduce-closure's fixpoint
// merges the repeated E-reduction back into the same graph node instead of
// growing a new stack frame each time; the brute-force cactus stack, which
// has no such merging, is documented to give up past its closure budget
// instead of looping forever.
func hiddenLeftRecursionGrammar() *grammar.Grammar {
	g := grammar.New()
	g.AddTerm("a", "a")
	g.AddTerm("b", "b")

	sRule := g.AddRule("S", grammar.Production{"E", "S", "a"})
	sRule.CaptureMask = []bool{false, true, false}
	g.AddRule("S", grammar.Production{"b"})
	g.AddRule("E", grammar.Production{})

	g.SetNonDeterministic()
	g.AddStart("S")
	return g
}

func TestGSSParser_HiddenLeftRecursion(t *testing.T) {
	table, _, err := GenerateTable(hiddenLeftRecursionGrammar())
	require.NoError(t, err)
	p := NewParser(table, nil)

	for _, input := range [][]string{
		{"b", "a", "a"},
		{"b", "a"},
		{"b"},
	} {
		r := p.NewRun()
		err := feedAll(t, r, input)
		if err == nil {
			_, err = r.Finish()
		}
		assert.NoError(t, err, "input %v should accept", input)
	}

	r := p.NewRun()
	err = feedAll(t, r, []string{"b", "a", "a", "b"})
	if err == nil {
		_, err = r.Finish()
	}
	assert.Error(t, err, "baab should reject")
}

func TestGSSParser_NonDeterministicGrammarRequired(t *testing.T) {
	g := grammar.New()
	g.AddTerm("a", "a")
	g.AddRule("S", grammar.Production{"a"})
	g.AddStart("S")

	_, _, err := GenerateTable(g)
	assert.Error(t, err)
}
