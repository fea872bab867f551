package parse

import (
	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/internal/util"
)

// lalrSentinelLookahead is the placeholder lookahead used while probing
// the closure for propagated (as opposed to spontaneously generated)
// lookaheads, per purple dragon book algorithm 4.62. It cannot collide
// with a real grammar symbol since it is never registered as a terminal.
const lalrSentinelLookahead = "\x00#lalr-sentinel#"

type lalrEdge struct {
	fromState int
	fromItem  string
	toState   int
	toItem    string
}

// discoverLALRLookaheads runs algorithm 4.62 ("Determining lookaheads")
// and the propagation pass of algorithm 4.63 over automaton's states,
// returning the final lookahead set for every kernel item of every state.
// For each kernel item A -> alpha.beta in state I, and each transition
// I --X--> J, the closure of {[A -> alpha.beta, #]} is taken and every
// resulting item with the dot before X inspected: a lookahead of # means
// the corresponding shifted item in J received that lookahead by
// propagation from (I, this item); any other lookahead was generated
// spontaneously at (J, shifted item).
func discoverLALRLookaheads(aug *grammar.Grammar, automaton *LR0Automaton) map[int]map[string]util.StringSet {
	lookaheads := map[int]map[string]util.StringSet{}
	ensure := func(state int, item string) util.StringSet {
		if lookaheads[state] == nil {
			lookaheads[state] = map[string]util.StringSet{}
		}
		if lookaheads[state][item] == nil {
			lookaheads[state][item] = util.NewStringSet()
		}
		return lookaheads[state][item]
	}

	var edges []lalrEdge

	for i, state := range automaton.States {
		kernel := automaton.KernelItems(state.Items)
		for X, j := range state.Goto {
			for _, item := range kernel {
				if item.AtEnd() || item.NextSymbol() != X {
					continue
				}
				seed := grammar.LR1Item{LR0Item: item, Lookahead: lalrSentinelLookahead}
				closure := aug.LR1Closure([]grammar.LR1Item{seed})
				gotoItems := aug.LR1Goto(closure, X)
				for _, gi := range gotoItems {
					target := FindCore(automaton.States[j].Items, gi.LR0Item)
					if target == "" {
						continue
					}
					if gi.Lookahead == lalrSentinelLookahead {
						edges = append(edges, lalrEdge{fromState: i, fromItem: item.String(), toState: j, toItem: target})
					} else {
						ensure(j, target).Add(gi.Lookahead)
					}
				}
			}
		}
	}

	for _, item := range automaton.KernelItems(automaton.States[automaton.Start].Items) {
		ensure(automaton.Start, item.String()).Add(grammar.EndOfInput)
	}

	changed := true
	for changed {
		changed = false
		for _, e := range edges {
			src := ensure(e.fromState, e.fromItem)
			dst := ensure(e.toState, e.toItem)
			before := dst.Len()
			dst.AddAll(src)
			if dst.Len() != before {
				changed = true
			}
		}
	}
	return lookaheads
}

// GenerateLALR1Parser builds an LALR(1) table for g: the LR(0) automaton's
// states, each carrying the lookahead sets discover-then-propagate found
// for its kernel items, re-expanded over the item-set closure so
// non-kernel (closure-added) items also carry the correct derived
// lookahead.
func GenerateLALR1Parser(g *grammar.Grammar, allowAmbig bool) (*Table, []string, error) {
	start := g.StartSymbol()
	aug := g.Augmented(start)
	automaton := BuildLR0Automaton(aug, start)
	discovered := discoverLALRLookaheads(aug, automaton)

	states := make([]genericState, len(automaton.States))
	for i, s := range automaton.States {
		kernel := automaton.KernelItems(s.Items)
		var seeds []grammar.LR1Item
		for _, item := range kernel {
			las := discovered[i][item.String()]
			for la := range las {
				seeds = append(seeds, grammar.LR1Item{LR0Item: item, Lookahead: la})
			}
		}
		closed := aug.LR1Closure(seeds)
		states[i] = genericState{Items: mergeByCore(closed), Goto: s.Goto}
	}

	table, err := buildTableFromStates(aug, g, automaton, states, automaton.Start, MethodLALR1, options{AllowAmbiguous: allowAmbig})
	if table != nil {
		return table, table.Conflicts(), err
	}
	return nil, nil, err
}
