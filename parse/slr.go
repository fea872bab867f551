package parse

import (
	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/internal/util"
)

// GenerateSLR1Parser builds an SLR(1) table for g (purple dragon book
// algorithm 4.46): a reduce item [A -> alpha.] fires for every lookahead in
// FOLLOW(A), computed once over the whole grammar rather than per state —
// the distinguishing simplification (and limitation) of SLR(1) relative to
// LALR(1)/canonical LR(1), which track a separate lookahead set per state.
//
// allowAmbig permits shift/reduce ambiguity, preferring shift and
// recording a warning instead of failing construction; reduce/reduce
// conflicts are never silently resolved, only broken by lowest rule index
// and always recorded as a conflict.
func GenerateSLR1Parser(g *grammar.Grammar, allowAmbig bool) (*Table, []string, error) {
	start := g.StartSymbol()
	aug := g.Augmented(start)
	automaton := BuildLR0Automaton(aug, start)
	follow := aug.FollowSets()

	states := make([]genericState, len(automaton.States))
	for i, s := range automaton.States {
		items := make([]stateItem, len(s.Items))
		for k, it := range s.Items {
			var la util.StringSet
			if automaton.IsAcceptItem(it) {
				la = util.StringSetOf([]string{grammar.EndOfInput})
			} else {
				la = follow[it.NonTerminal]
			}
			items[k] = stateItem{Item: it, Lookaheads: la}
		}
		states[i] = genericState{Items: items, Goto: s.Goto}
	}

	table, err := buildTableFromStates(aug, g, automaton, states, automaton.Start, MethodSLR1, options{AllowAmbiguous: allowAmbig})
	if table != nil {
		return table, table.Conflicts(), err
	}
	return nil, nil, err
}
