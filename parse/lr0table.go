package parse

import (
	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/internal/util"
)

// GenerateLR0Parser builds a pure LR(0) table for g: every reduce item
// fires unconditionally on any lookahead, since LR(0) carries no lookahead
// information at all. This only produces a usable (conflict-free) table
// for very small grammars; kept for completeness of the shared scaffolding
// and as the base case the other four modes specialize.
func GenerateLR0Parser(g *grammar.Grammar, allowAmbig bool) (*Table, []string, error) {
	start := g.StartSymbol()
	aug := g.Augmented(start)
	automaton := BuildLR0Automaton(aug, start)

	allTerms := util.StringSetOf(append(aug.Terminals(), grammar.EndOfInput))

	states := make([]genericState, len(automaton.States))
	for i, s := range automaton.States {
		items := make([]stateItem, len(s.Items))
		for k, it := range s.Items {
			items[k] = stateItem{Item: it, Lookaheads: allTerms}
		}
		states[i] = genericState{Items: items, Goto: s.Goto}
	}

	table, err := buildTableFromStates(aug, g, automaton, states, automaton.Start, MethodLR0, options{AllowAmbiguous: allowAmbig})
	if table != nil {
		return table, table.Conflicts(), err
	}
	return nil, nil, err
}
