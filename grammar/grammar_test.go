package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func exprGrammar() *Grammar {
	g := New()
	g.AddTerm("+", "+")
	g.AddTerm("id", "identifier")
	g.AddTerm("(", "(")
	g.AddTerm(")", ")")

	g.AddRule("E", Production{"E", "+", "T"})
	g.AddRule("E", Production{"T"})
	g.AddRule("T", Production{"(", "E", ")"})
	g.AddRule("T", Production{"id"})
	g.AddStart("E")
	return g
}

func TestGrammar_AddRuleAssignsContiguousIndices(t *testing.T) {
	g := exprGrammar()
	for i, r := range g.Rules() {
		assert.Equal(t, i, r.Index)
	}
}

func TestGrammar_RulesFor(t *testing.T) {
	g := exprGrammar()
	rs := g.RulesFor("T")
	assert.Len(t, rs, 2)
	assert.Equal(t, Production{"(", "E", ")"}, rs[0].Production)
	assert.Equal(t, Production{"id"}, rs[1].Production)
}

func TestGrammar_IsTerminal(t *testing.T) {
	g := exprGrammar()
	assert.True(t, g.IsTerminal("id"))
	assert.True(t, g.IsTerminal(EndOfInput))
	assert.True(t, g.IsTerminal(ErrorSymbol))
	assert.False(t, g.IsTerminal("E"))
	assert.False(t, g.IsTerminal("T"))
}

func TestGrammar_Validate_OK(t *testing.T) {
	g := exprGrammar()
	assert.NoError(t, g.Validate())
}

func TestGrammar_Validate_UndefinedNonTerminal(t *testing.T) {
	g := New()
	g.AddTerm("a", "a")
	g.AddRule("S", Production{"A"})
	g.AddStart("S")
	err := g.Validate()
	assert.Error(t, err)
}

func TestGrammar_WithPrimaryStart(t *testing.T) {
	g := exprGrammar()
	g.AddStart("T")

	byT, err := g.WithPrimaryStart("T")
	assert.NoError(t, err)
	assert.Equal(t, "T", byT.StartSymbol())
	assert.Equal(t, []string{"T", "E"}, byT.StartSymbols())

	// original is untouched
	assert.Equal(t, "E", g.StartSymbol())

	_, err = g.WithPrimaryStart("nope")
	assert.Error(t, err)
}

func TestGrammar_Augmented(t *testing.T) {
	g := exprGrammar()
	aug := g.Augmented("E")
	assert.Equal(t, "E'", aug.StartSymbol())
	rs := aug.RulesFor("E'")
	assert.Len(t, rs, 1)
	assert.Equal(t, Production{"E"}, rs[0].Production)
	// original grammar must be untouched
	assert.Empty(t, g.RulesFor("E'"))
}

func TestGrammar_LR0Closure(t *testing.T) {
	g := exprGrammar()
	aug := g.Augmented("E")
	start := LR0Item{NonTerminal: "E'", Right: Production{"E"}, RuleIndex: aug.RulesFor("E'")[0].Index}
	closure := aug.LR0Closure([]LR0Item{start})

	// closure of E' -> . E should include E -> . E + T, E -> . T,
	// T -> . ( E ), T -> . id
	var foundEPlusT, foundT, foundParen, foundID bool
	for _, it := range closure {
		switch {
		case it.NonTerminal == "E" && it.Production().Equal(Production{"E", "+", "T"}) && len(it.Left) == 0:
			foundEPlusT = true
		case it.NonTerminal == "E" && it.Production().Equal(Production{"T"}) && len(it.Left) == 0:
			foundT = true
		case it.NonTerminal == "T" && it.Production().Equal(Production{"(", "E", ")"}) && len(it.Left) == 0:
			foundParen = true
		case it.NonTerminal == "T" && it.Production().Equal(Production{"id"}) && len(it.Left) == 0:
			foundID = true
		}
	}
	assert.True(t, foundEPlusT)
	assert.True(t, foundT)
	assert.True(t, foundParen)
	assert.True(t, foundID)
}

func TestGrammar_LR0Goto(t *testing.T) {
	g := exprGrammar()
	aug := g.Augmented("E")
	start := LR0Item{NonTerminal: "E'", Right: Production{"E"}, RuleIndex: aug.RulesFor("E'")[0].Index}
	i0 := aug.LR0Closure([]LR0Item{start})

	i1 := aug.LR0Goto(i0, "E")
	assert.NotEmpty(t, i1)
	var foundAccept bool
	for _, it := range i1 {
		if it.NonTerminal == "E'" && it.AtEnd() {
			foundAccept = true
		}
	}
	assert.True(t, foundAccept)
}

func TestGrammar_Nullable(t *testing.T) {
	g := New()
	g.AddTerm("a", "a")
	g.AddRule("A", Production{})
	g.AddRule("B", Production{"A", "A"})
	g.AddRule("C", Production{"a"})
	g.AddStart("B")

	nullable := g.Nullable()
	assert.True(t, nullable.Has("A"))
	assert.True(t, nullable.Has("B"))
	assert.False(t, nullable.Has("C"))
}

func TestGrammar_WellFounded_DetectsInfiniteRecursion(t *testing.T) {
	g := New()
	g.AddTerm("a", "a")
	g.AddRule("Bad", Production{"Bad", "a"}) // only ever recurses, no base case
	g.AddStart("Bad")

	wf := g.WellFounded()
	assert.False(t, wf.Has("Bad"))
}

func TestGrammar_FirstSets(t *testing.T) {
	g := exprGrammar()
	first := g.FirstSets()
	assert.True(t, first["E"].Has("id"))
	assert.True(t, first["E"].Has("("))
	assert.False(t, first["E"].Has("+"))
}

func TestGrammar_RemoveUnitProductions(t *testing.T) {
	g := New()
	g.AddTerm("a", "a")
	r1 := g.AddRule("S", Production{"A"})
	r1.Constructor = ConstructorKey{Kind: ConstructOffset, Offset: 0}
	g.AddRule("A", Production{"a"})
	g.AddStart("S")

	out, eliminated := g.RemoveUnitProductions()
	assert.Equal(t, 1, eliminated.Len())
	for _, r := range out.Rules() {
		assert.NotEqual(t, Production{"A"}, r.Production)
	}
}

func TestGrammar_ExpandMacros(t *testing.T) {
	g := New()
	g.AddTerm("a", "a")
	g.AddTerm("b", "b")
	g.DefineMacro("ab", []Production{{"a"}, {"b"}})
	g.AddRule("S", Production{macroRefString("ab")})
	g.AddStart("S")

	err := g.ExpandMacros()
	assert.NoError(t, err)
	rs := g.RulesFor("S")
	assert.Len(t, rs, 2)
}

func TestGrammar_ExpandMacros_DetectsCycle(t *testing.T) {
	g := New()
	g.DefineMacro("x", []Production{{macroRefString("y")}})
	g.DefineMacro("y", []Production{{macroRefString("x")}})
	g.AddRule("S", Production{macroRefString("x")})
	g.AddStart("S")

	err := g.ExpandMacros()
	assert.Error(t, err)
}
