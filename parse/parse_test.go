package parse

import (
	"testing"

	"github.com/lennartw/pelican/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exprGrammar is the purple dragon book's running example:
//
//	E -> E + T | T
//	T -> T * F | F
//	F -> ( E ) | id
func exprGrammar() *grammar.Grammar {
	g := grammar.New()
	for _, t := range []string{"+", "*", "(", ")", "id"} {
		g.AddTerm(t, t)
	}
	g.AddRule("E", grammar.Production{"E", "+", "T"})
	g.AddRule("E", grammar.Production{"T"})
	g.AddRule("T", grammar.Production{"T", "*", "F"})
	g.AddRule("T", grammar.Production{"F"})
	g.AddRule("F", grammar.Production{"(", "E", ")"})
	g.AddRule("F", grammar.Production{"id"})
	g.AddStart("E")
	return g
}

// ahoGrammar is the textbook example of a grammar that is LR(1) but not
// LALR(1): merging the two LR(1) states that both reduce "c" (one under
// A -> c with lookahead d, the other under B -> c with lookahead e, from
// different S alternatives) into a shared LR(0) core creates a genuine
// reduce/reduce conflict that neither original state had on its own.
func ahoGrammar() *grammar.Grammar {
	g := grammar.New()
	for _, t := range []string{"a", "b", "c", "d", "e"} {
		g.AddTerm(t, t)
	}
	g.AddRule("S", grammar.Production{"a", "A", "d"})
	g.AddRule("S", grammar.Production{"b", "B", "d"})
	g.AddRule("S", grammar.Production{"a", "B", "e"})
	g.AddRule("S", grammar.Production{"b", "A", "e"})
	g.AddRule("A", grammar.Production{"c"})
	g.AddRule("B", grammar.Production{"c"})
	g.AddStart("S")
	return g
}

// calcGrammar is an ambiguous expression grammar resolved entirely through
// precedence/associativity declarations (no unit-production rewriting):
//
//	E -> E + E | E * E | ( E ) | id
//
// with * binding tighter than +, and both left-associative.
func calcGrammar() *grammar.Grammar {
	g := grammar.New()
	for _, t := range []string{"+", "*", "(", ")", "id"} {
		g.AddTerm(t, t)
	}
	g.AddPrecedence(grammar.AssocLeft, "+")
	g.AddPrecedence(grammar.AssocLeft, "*")
	g.AddRule("E", grammar.Production{"E", "+", "E"})
	g.AddRule("E", grammar.Production{"E", "*", "E"})
	g.AddRule("E", grammar.Production{"(", "E", ")"})
	g.AddRule("E", grammar.Production{"id"})
	g.AddStart("E")
	return g
}

// driveTokens runs t's shift-reduce loop (purple dragon book algorithm
// 4.44's core, the same shape parse's rt package driver implements) over
// tokens, returning whether the input was accepted.
func driveTokens(t *Table, tokens []string) bool {
	stateStack := []int{t.Initial()}
	i := 0
	nextTok := func() string {
		if i < len(tokens) {
			return tokens[i]
		}
		return grammar.EndOfInput
	}

	for steps := 0; steps < 100000; steps++ {
		state := stateStack[len(stateStack)-1]
		tok := nextTok()
		act := t.Action(state, tok)

		switch act.Type {
		case LRShift:
			stateStack = append(stateStack, act.State)
			i++
		case LRShiftReduce:
			// shift then immediately reduce without leaving the shifted
			// state on the stack for longer than the reduce needs it.
			stateStack = append(stateStack, state)
			i++
			n := len(act.Production)
			stateStack = stateStack[:len(stateStack)-n]
			top := stateStack[len(stateStack)-1]
			g, err := t.Goto(top, act.Symbol)
			if err != nil {
				return false
			}
			stateStack = append(stateStack, g)
		case LRReduce:
			n := len(act.Production)
			stateStack = stateStack[:len(stateStack)-n]
			top := stateStack[len(stateStack)-1]
			g, err := t.Goto(top, act.Symbol)
			if err != nil {
				return false
			}
			stateStack = append(stateStack, g)
		case LRAccept:
			return true
		default:
			return false
		}
	}
	return false
}

func TestSLR1_ExprGrammar_AcceptsValidRejectsInvalid(t *testing.T) {
	table, warns, err := GenerateSLR1Parser(exprGrammar(), false)
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.Greater(t, table.NumStates, 0)

	assert.True(t, driveTokens(table, []string{"id", "+", "id", "*", "id"}))
	assert.True(t, driveTokens(table, []string{"(", "id", "+", "id", ")", "*", "id"}))
	assert.False(t, driveTokens(table, []string{"id", "+"}))
	assert.False(t, driveTokens(table, []string{"+", "id"}))
}

func TestLALR1_ExprGrammar_AcceptsSameLanguageAsSLR1(t *testing.T) {
	table, _, err := GenerateLALR1Parser(exprGrammar(), false)
	require.NoError(t, err)

	assert.True(t, driveTokens(table, []string{"id", "+", "id", "*", "id"}))
	assert.False(t, driveTokens(table, []string{"id", "id"}))
}

func TestCollapseShiftReduce_ExprGrammar_StillAcceptsSameLanguage(t *testing.T) {
	table, _, err := GenerateLALR1Parser(exprGrammar(), false)
	require.NoError(t, err)

	// Collapsing must never change which sentences are accepted, whether
	// or not any state in this particular grammar actually qualifies.
	CollapseShiftReduce(table)

	assert.True(t, driveTokens(table, []string{"id", "+", "id", "*", "id"}))
	assert.True(t, driveTokens(table, []string{"(", "id", "+", "id", ")", "*", "id"}))
	assert.False(t, driveTokens(table, []string{"id", "+"}))
	assert.False(t, driveTokens(table, []string{"+", "id"}))
}

// singleRuleGrammar (S -> id) is the simplest possible shift-reduce
// collapse candidate: "id" is shiftable from exactly one state, so the
// handle-origin check in CollapseShiftReduce has only one predecessor to
// satisfy and is guaranteed to agree with itself.
func singleRuleGrammar() *grammar.Grammar {
	g := grammar.New()
	g.AddTerm("id", "id")
	g.AddRule("S", grammar.Production{"id"})
	g.AddStart("S")
	return g
}

func TestCollapseShiftReduce_CollapsesSoleReduceState(t *testing.T) {
	table, _, err := GenerateLALR1Parser(singleRuleGrammar(), false)
	require.NoError(t, err)

	start := table.Initial()
	require.Equal(t, LRShift, table.Action(start, "id").Type)

	collapsed := CollapseShiftReduce(table)
	assert.Equal(t, 1, collapsed)
	assert.Equal(t, LRShiftReduce, table.Action(start, "id").Type)

	assert.True(t, driveTokens(table, []string{"id"}))
	assert.False(t, driveTokens(table, []string{"id", "id"}))
	assert.False(t, driveTokens(table, []string{}))
}

func TestLR0_ExprGrammar_BuildsWithoutPanicking(t *testing.T) {
	table, _, err := GenerateLR0Parser(exprGrammar(), true)
	require.NoError(t, err)
	assert.Greater(t, table.NumStates, 0)
}

func TestCLR1_ExprGrammar_Accepts(t *testing.T) {
	table, _, err := GenerateCLR1Parser(exprGrammar(), false)
	require.NoError(t, err)
	assert.True(t, driveTokens(table, []string{"id", "+", "id", "*", "id"}))
}

func TestLALR1_AhoGrammar_ReportsConflict(t *testing.T) {
	_, warns, err := GenerateLALR1Parser(ahoGrammar(), false)
	require.Error(t, err)
	assert.NotEmpty(t, warns)
}

func TestCLR1_AhoGrammar_HasNoConflictWhereLALRDoes(t *testing.T) {
	table, warns, err := GenerateCLR1Parser(ahoGrammar(), false)
	require.NoError(t, err)
	assert.Empty(t, warns)

	assert.True(t, driveTokens(table, []string{"a", "c", "d"}))
	assert.True(t, driveTokens(table, []string{"a", "c", "e"}))
	assert.True(t, driveTokens(table, []string{"b", "c", "d"}))
	assert.True(t, driveTokens(table, []string{"b", "c", "e"}))
}

func TestMinimalLR1_AhoGrammar_SplitsOnlyWhereNeeded(t *testing.T) {
	minimal, warns, err := GenerateMinimalLR1Parser(ahoGrammar(), false)
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.True(t, driveTokens(minimal, []string{"a", "c", "d"}))
	assert.True(t, driveTokens(minimal, []string{"b", "c", "e"}))

	canonical, _, err := GenerateCLR1Parser(ahoGrammar(), false)
	require.NoError(t, err)
	assert.LessOrEqual(t, minimal.NumStates, canonical.NumStates)
}

func TestMinimalLR1_ExprGrammar_NoLargerThanCanonical(t *testing.T) {
	minimal, _, err := GenerateMinimalLR1Parser(exprGrammar(), false)
	require.NoError(t, err)
	canonical, _, err := GenerateCLR1Parser(exprGrammar(), false)
	require.NoError(t, err)
	assert.LessOrEqual(t, minimal.NumStates, canonical.NumStates)
	assert.True(t, driveTokens(minimal, []string{"id", "+", "id", "*", "id"}))
}

func TestPrecedence_ResolvesAmbiguousCalculatorGrammar(t *testing.T) {
	table, warns, err := GenerateLALR1Parser(calcGrammar(), true)
	require.NoError(t, err)
	assert.Empty(t, warns) // precedence settles every conflict, so none is recorded

	assert.True(t, driveTokens(table, []string{"id", "+", "id", "*", "id"}))
	assert.True(t, driveTokens(table, []string{"(", "id", "+", "id", ")", "*", "id"}))
}

func TestCompress_PreservesParseBehavior(t *testing.T) {
	table, _, err := GenerateSLR1Parser(exprGrammar(), false)
	require.NoError(t, err)

	ct := Compress(table)
	assert.LessOrEqual(t, ct.NumRowClasses, table.NumStates)

	accepted := driveCompressed(t, ct, []string{"id", "+", "id", "*", "id"})
	assert.True(t, accepted)
	assert.False(t, driveCompressed(t, ct, []string{"id", "+"}))
}

func driveCompressed(t *testing.T, ct *CompressedTable, tokens []string) bool {
	t.Helper()
	stateStack := []int{ct.Start}
	i := 0
	nextTok := func() string {
		if i < len(tokens) {
			return tokens[i]
		}
		return grammar.EndOfInput
	}

	for steps := 0; steps < 100000; steps++ {
		state := stateStack[len(stateStack)-1]
		tok := nextTok()
		act := ct.Action(state, tok)

		switch act.Type {
		case LRShift:
			stateStack = append(stateStack, act.State)
			i++
		case LRReduce, LRShiftReduce:
			if act.Type == LRShiftReduce {
				stateStack = append(stateStack, state)
				i++
			}
			n := len(act.Production)
			stateStack = stateStack[:len(stateStack)-n]
			top := stateStack[len(stateStack)-1]
			g, err := ct.Goto(top, act.Symbol)
			if err != nil {
				return false
			}
			stateStack = append(stateStack, g)
		case LRAccept:
			return true
		default:
			return false
		}
	}
	return false
}
