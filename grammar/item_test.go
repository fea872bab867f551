package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLR0Item_AdvanceAndAtEnd(t *testing.T) {
	it := LR0Item{NonTerminal: "E", Right: Production{"E", "+", "T"}, RuleIndex: 0}
	assert.False(t, it.AtEnd())
	assert.Equal(t, "E", it.NextSymbol())

	it = it.Advance()
	assert.Equal(t, Production{"E"}, Production(it.Left))
	assert.Equal(t, "+", it.NextSymbol())

	it = it.Advance()
	it = it.Advance()
	assert.True(t, it.AtEnd())
	assert.Equal(t, "", it.NextSymbol())
}

func TestLR0Item_AdvancePanicsAtEnd(t *testing.T) {
	it := LR0Item{NonTerminal: "E", RuleIndex: 0}
	assert.Panics(t, func() { it.Advance() })
}

func TestLR0Item_Equal_IgnoresRuleIndex(t *testing.T) {
	a := LR0Item{NonTerminal: "E", Right: Production{"T"}, RuleIndex: 1}
	b := LR0Item{NonTerminal: "E", Right: Production{"T"}, RuleIndex: 99}
	assert.True(t, a.Equal(b))
}

func TestLR0Item_String(t *testing.T) {
	it := LR0Item{NonTerminal: "E", Left: []string{"E", "+"}, Right: []string{"T"}}
	assert.Equal(t, "E -> E + . T", it.String())
}

func TestLR1Item_Equal(t *testing.T) {
	a := LR1Item{LR0Item: LR0Item{NonTerminal: "E", Right: Production{"T"}}, Lookahead: "$"}
	b := LR1Item{LR0Item: LR0Item{NonTerminal: "E", Right: Production{"T"}}, Lookahead: "$"}
	c := LR1Item{LR0Item: LR0Item{NonTerminal: "E", Right: Production{"T"}}, Lookahead: "+"}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
