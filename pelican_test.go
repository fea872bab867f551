package pelican

import (
	"testing"

	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sumGrammar builds a+b+c... into a running integer total, exercising the
// whole deterministic path: scan -> rt.Driver -> constructed value.
func sumGrammar() *grammar.Grammar {
	g := grammar.New()
	g.AddTerm("num", "number")
	g.AddTerm("+", "+")

	passthrough := g.AddRule("E", grammar.Production{"T"})
	passthrough.Constructor = grammar.ConstructorKey{Kind: grammar.ConstructOffset, Offset: 0}
	plus := g.AddRule("E", grammar.Production{"E", "+", "T"})
	plus.CaptureMask = []bool{true, false, true}
	plus.Constructor = grammar.ConstructorKey{Kind: grammar.ConstructMessage, Name: "add"}
	num := g.AddRule("T", grammar.Production{"num"})
	num.Constructor = grammar.ConstructorKey{Kind: grammar.ConstructMessage, Name: "toInt"}
	g.AddStart("E")
	return g
}

func sumScanner() *scan.Builder {
	b := scan.NewBuilder()
	b.AddClass(scan.NewTokenClass("num", "number"))
	b.AddClass(scan.NewTokenClass("+", "plus"))
	_ = b.AddRule("[0-9]+", scan.LexAs("num"), 1)
	_ = b.AddRule(`\+`, scan.LexAs("+"), 2)
	_ = b.AddRule("[ \t]+", scan.Discard(), 3)
	return b
}

func sumConstructors() Constructors {
	return Constructors{
		"add": func(args []any, span Span) (any, error) {
			return args[0].(int) + args[1].(int), nil
		},
	}
}

func TestFrontend_DeterministicSum(t *testing.T) {
	g := sumGrammar()
	ctors := sumConstructors()
	ctors["toInt"] = func(args []any, span Span) (any, error) {
		n := 0
		for _, c := range span.Text {
			n = n*10 + int(c-'0')
		}
		return n, nil
	}

	fe, err := Generate(sumScanner(), g, Options{Constructors: ctors})
	require.NoError(t, err)

	val, err := fe.AnalyzeString("1 + 2 + 3")
	require.NoError(t, err)
	assert.Equal(t, 6, val)
}

func TestFrontend_DeterministicSimpleProgram(t *testing.T) {
	g := grammar.New()
	g.AddTerm("id", "identifier")
	g.AddTerm(";", "semicolon")
	g.AddRule("Program", grammar.Production{"StmtList"})
	list := g.AddRule("StmtList", grammar.Production{"StmtList", ";", "Stmt"})
	list.CaptureMask = []bool{true, false, true}
	g.AddRule("StmtList", grammar.Production{"Stmt"})
	g.AddRule("Stmt", grammar.Production{"id"})
	g.AddStart("Program")

	b := scan.NewBuilder()
	b.AddClass(scan.NewTokenClass("id", "identifier"))
	b.AddClass(scan.NewTokenClass(";", "semicolon"))
	require.NoError(t, b.AddRule("[a-z]+", scan.LexAs("id"), 1))
	require.NoError(t, b.AddRule(";", scan.LexAs(";"), 2))
	require.NoError(t, b.AddRule("[ \t\n]+", scan.Discard(), 3))

	fe, err := Generate(b, g, Options{})
	require.NoError(t, err)

	val, err := fe.AnalyzeString("a; b; c")
	require.NoError(t, err)
	assert.NotNil(t, val)
}

func TestFrontend_GeneralizedPalindrome(t *testing.T) {
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

	b := scan.NewBuilder()
	b.AddClass(scan.NewTokenClass("A", "a"))
	b.AddClass(scan.NewTokenClass("B", "b"))
	require.NoError(t, b.AddRule("a", scan.LexAs("a"), 1))
	require.NoError(t, b.AddRule("b", scan.LexAs("b"), 2))

	fe, err := Generate(b, g, Options{})
	require.NoError(t, err)

	val, err := fe.AnalyzeString("aba")
	require.NoError(t, err)
	assert.NotNil(t, val)

	_, err = fe.AnalyzeString("ab")
	assert.Error(t, err)
}

// calcPrecedenceGrammar is an ambiguous calculator grammar resolved
// entirely through precedence/associativity declarations, the same shape
// parse/parse_test.go's calcGrammar uses: * binds tighter than + because
// it is declared second (precedence levels are lowest-declared-first).
func calcPrecedenceGrammar() *grammar.Grammar {
	g := grammar.New()
	for _, term := range []string{"+", "*", "(", ")", "num"} {
		g.AddTerm(term, term)
	}
	g.AddPrecedence(grammar.AssocLeft, "+")
	g.AddPrecedence(grammar.AssocLeft, "*")

	plus := g.AddRule("E", grammar.Production{"E", "+", "E"})
	plus.CaptureMask = []bool{true, false, true}
	plus.Constructor = grammar.ConstructorKey{Kind: grammar.ConstructMessage, Name: "add"}

	times := g.AddRule("E", grammar.Production{"E", "*", "E"})
	times.CaptureMask = []bool{true, false, true}
	times.Constructor = grammar.ConstructorKey{Kind: grammar.ConstructMessage, Name: "mul"}

	paren := g.AddRule("E", grammar.Production{"(", "E", ")"})
	paren.CaptureMask = []bool{false, true, false}
	paren.Constructor = grammar.ConstructorKey{Kind: grammar.ConstructOffset, Offset: 0}

	num := g.AddRule("E", grammar.Production{"num"})
	num.Constructor = grammar.ConstructorKey{Kind: grammar.ConstructMessage, Name: "toInt"}

	g.AddStart("E")
	return g
}

func calcPrecedenceScanner() *scan.Builder {
	b := scan.NewBuilder()
	b.AddClass(scan.NewTokenClass("num", "number"))
	b.AddClass(scan.NewTokenClass("+", "plus"))
	b.AddClass(scan.NewTokenClass("*", "times"))
	b.AddClass(scan.NewTokenClass("(", "lparen"))
	b.AddClass(scan.NewTokenClass(")", "rparen"))
	_ = b.AddRule("[0-9]+", scan.LexAs("num"), 1)
	_ = b.AddRule(`\+`, scan.LexAs("+"), 2)
	_ = b.AddRule(`\*`, scan.LexAs("*"), 3)
	_ = b.AddRule(`\(`, scan.LexAs("("), 4)
	_ = b.AddRule(`\)`, scan.LexAs(")"), 5)
	_ = b.AddRule("[ \t]+", scan.Discard(), 6)
	return b
}

func calcPrecedenceConstructors() Constructors {
	toInt := func(args []any, span Span) (any, error) {
		n := 0
		for _, c := range span.Text {
			n = n*10 + int(c-'0')
		}
		return n, nil
	}
	return Constructors{
		"toInt": toInt,
		"add": func(args []any, span Span) (any, error) {
			return args[0].(int) + args[1].(int), nil
		},
		"mul": func(args []any, span Span) (any, error) {
			return args[0].(int) * args[1].(int), nil
		},
	}
}

func TestFrontend_CalculatorPrecedence(t *testing.T) {
	fe, err := Generate(calcPrecedenceScanner(), calcPrecedenceGrammar(), Options{
		Constructors:   calcPrecedenceConstructors(),
		AllowAmbiguous: true,
	})
	require.NoError(t, err)

	val, err := fe.AnalyzeString("2 + 3 * 4")
	require.NoError(t, err)
	assert.Equal(t, 14, val, "* must bind tighter than + with no parentheses")

	val, err = fe.AnalyzeString("(2 + 3) * 4")
	require.NoError(t, err)
	assert.Equal(t, 20, val, "parentheses override precedence")
}

// errorRecoveryGrammar mirrors rt/driver_test.go's stmtListGrammar: a
// statement list where a Stmt can also reduce directly from $error$, giving
// the driver a recovery point for an unexpected token.
func errorRecoveryGrammar() *grammar.Grammar {
	g := grammar.New()
	g.AddTerm("id", "identifier")
	g.AddTerm(";", "semicolon")
	g.AddTerm(grammar.ErrorSymbol, "error")

	g.AddRule("Program", grammar.Production{"StmtList"})
	list := g.AddRule("StmtList", grammar.Production{"StmtList", ";", "Stmt"})
	list.CaptureMask = []bool{true, false, true}
	g.AddRule("StmtList", grammar.Production{"Stmt"})
	g.AddRule("Stmt", grammar.Production{"id"})
	g.AddRule("Stmt", grammar.Production{grammar.ErrorSymbol})

	g.AddStart("Program")
	return g
}

func errorRecoveryScanner() *scan.Builder {
	b := scan.NewBuilder()
	b.AddClass(scan.NewTokenClass("id", "identifier"))
	b.AddClass(scan.NewTokenClass(";", "semicolon"))
	b.AddClass(scan.NewTokenClass("+", "plus"))
	_ = b.AddRule("[a-z]+", scan.LexAs("id"), 1)
	_ = b.AddRule(";", scan.LexAs(";"), 2)
	_ = b.AddRule(`\+`, scan.LexAs("+"), 3)
	_ = b.AddRule("[ \t\n]+", scan.Discard(), 4)
	return b
}

func TestFrontend_ErrorRecoveryThroughFacade(t *testing.T) {
	fe, err := Generate(errorRecoveryScanner(), errorRecoveryGrammar(), Options{})
	require.NoError(t, err)

	// "+" is never a legal token in this grammar; the $error$ production
	// lets the driver discard it (and the inadmissible "bad" that follows)
	// and resume parsing once the next semicolon arrives, instead of
	// failing the whole parse.
	val, err := fe.AnalyzeString("a; + bad; c")
	require.NoError(t, err)
	assert.NotNil(t, val)
}

// TestFrontend_ScannerRankTiebreak exercises scan's rank-based tie-break (a
// dedicated "if" rule beating the generic identifier rule) end to end
// through the façade rather than just inside the scan package. The input
// has no separator between "if" and the following identifier, so the
// generic "[a-z]+" rule would greedily consume all of "ifcond" if rank
// were ignored; the higher-ranked "if" rule must still stop the match at
// "if", leaving "cond" to tokenize separately as an identifier.
func TestFrontend_ScannerRankTiebreak(t *testing.T) {
	g := grammar.New()
	g.AddTerm("if", "if")
	g.AddTerm("id", "identifier")
	g.AddRule("S", grammar.Production{"if", "id"})
	g.AddStart("S")

	b := scan.NewBuilder()
	b.AddClass(scan.NewTokenClass("if", "if"))
	b.AddClass(scan.NewTokenClass("id", "identifier"))
	require.NoError(t, b.AddRule("if", scan.LexAs("if"), 2))
	require.NoError(t, b.AddRule("[a-z]+", scan.LexAs("id"), 1))
	require.NoError(t, b.AddRule("[ \t]+", scan.Discard(), 3))

	fe, err := Generate(b, g, Options{})
	require.NoError(t, err)

	val, err := fe.AnalyzeString("ifcond")
	require.NoError(t, err)
	assert.NotNil(t, val)
}

func TestFrontend_MultipleStartSymbols(t *testing.T) {
	g := grammar.New()
	g.AddTerm("id", "identifier")
	g.AddRule("E", grammar.Production{"id"})
	g.AddRule("T", grammar.Production{"id"})
	g.AddStart("E")
	g.AddStart("T")

	byT, err := g.WithPrimaryStart("T")
	require.NoError(t, err)
	assert.Equal(t, "T", byT.StartSymbol())
}
