package rt

import (
	"testing"

	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stmtListGrammar is a small statement-list language used to exercise both
// the ordinary drive loop and $error$-production recovery:
//
//	Program   -> StmtList
//	StmtList  -> StmtList ';' Stmt | Stmt
//	Stmt      -> id | $error$
func stmtListGrammar() *grammar.Grammar {
	g := grammar.New()
	g.AddTerm("id", "identifier")
	g.AddTerm(";", "semicolon")
	g.AddTerm(grammar.ErrorSymbol, "error")

	g.AddRule("Program", grammar.Production{"StmtList"})
	listRule := g.AddRule("StmtList", grammar.Production{"StmtList", ";", "Stmt"})
	listRule.CaptureMask = []bool{true, false, true}
	g.AddRule("StmtList", grammar.Production{"Stmt"})
	g.AddRule("Stmt", grammar.Production{"id"})
	g.AddRule("Stmt", grammar.Production{grammar.ErrorSymbol})

	g.AddStart("Program")
	return g
}

func newStmtListDriver(t *testing.T) *Driver {
	t.Helper()
	table, warns, err := parse.GenerateLALR1Parser(stmtListGrammar(), false)
	require.NoError(t, err)
	assert.Empty(t, warns)
	return NewDriver(table, nil)
}

func TestDriver_ParsesValidProgram(t *testing.T) {
	d := newStmtListDriver(t)

	require.NoError(t, d.Feed("id", "a", Span{Text: "a"}))
	require.NoError(t, d.Feed(";", ";", Span{Text: ";"}))
	require.NoError(t, d.Feed("id", "b", Span{Text: "b"}))
	require.NoError(t, d.Feed(";", ";", Span{Text: ";"}))
	require.NoError(t, d.Feed("id", "c", Span{Text: "c"}))

	val, err := d.Finish()
	require.NoError(t, err)
	assert.NotNil(t, val)
}

func TestDriver_RecoversFromUnexpectedTokenViaErrorProduction(t *testing.T) {
	d := newStmtListDriver(t)

	var errs []error
	recovered := 0
	d.OnError = func(err error) { errs = append(errs, err) }
	d.OnRecovered = func() { recovered++ }

	require.NoError(t, d.Feed("id", "a", Span{Text: "a"}))
	require.NoError(t, d.Feed(";", ";", Span{Text: ";"}))
	// "+" was never a legal token here; triggers recovery.
	require.NoError(t, d.Feed("+", "+", Span{Text: "+"}))
	// not admissible either (discarded while scanning for a recovery point)
	require.NoError(t, d.Feed("id", "bad", Span{Text: "bad"}))
	// admissible: completes the errored Stmt and resumes the list
	require.NoError(t, d.Feed(";", ";", Span{Text: ";"}))
	require.NoError(t, d.Feed("id", "c", Span{Text: "c"}))

	val, err := d.Finish()
	require.NoError(t, err)
	assert.NotNil(t, val)

	assert.Len(t, errs, 1)
	assert.Equal(t, 1, recovered)
}

func TestDriver_FatalWhenNoRecoverableState(t *testing.T) {
	// A grammar with no $error$ production anywhere has no recoverable
	// state, so a bad token is a hard failure.
	g := grammar.New()
	g.AddTerm("id", "identifier")
	g.AddRule("Program", grammar.Production{"id"})
	g.AddStart("Program")

	table, _, err := parse.GenerateLALR1Parser(g, false)
	require.NoError(t, err)
	d := NewDriver(table, nil)

	err = d.Feed("+", "+", Span{Text: "+"})
	assert.Error(t, err)
}
