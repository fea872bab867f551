package parse

import (
	"sort"
	"strings"

	"github.com/lennartw/pelican/grammar"
)

// clr1Automaton is the canonical-LR(1) sibling of LR0Automaton: states are
// full sets of (core, lookahead) item pairs rather than bare cores, so two
// states can share an LR(0) core yet remain distinct because their
// per-item lookaheads differ.
type clr1Automaton struct {
	States []clr1State
	Start  int
}

type clr1State struct {
	Items []grammar.LR1Item
	Goto  map[string]int
}

func lr1SetKey(items []grammar.LR1Item) string {
	strs := make([]string, len(items))
	for i, it := range items {
		strs[i] = it.String()
	}
	sort.Strings(strs)
	return strings.Join(strs, "|")
}

func lr1NextSymbols(items []grammar.LR1Item) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		if it.AtEnd() {
			continue
		}
		sym := it.NextSymbol()
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

// buildCLR1Automaton constructs the canonical collection of sets of LR(1)
// items for the augmented grammar aug (purple dragon book algorithm 4.56's
// first phase), with the seed item's lookahead fixed at EndOfInput.
func buildCLR1Automaton(aug *grammar.Grammar) *clr1Automaton {
	startRule := aug.RulesFor(aug.StartSymbol())[0]
	seed := grammar.LR1Item{
		LR0Item: grammar.LR0Item{
			NonTerminal: aug.StartSymbol(),
			Right:       append([]string(nil), startRule.Production...),
			RuleIndex:   startRule.Index,
		},
		Lookahead: grammar.EndOfInput,
	}
	startItems := aug.LR1Closure([]grammar.LR1Item{seed})

	a := &clr1Automaton{}
	index := map[string]int{}
	addState := func(items []grammar.LR1Item) int {
		k := lr1SetKey(items)
		if idx, ok := index[k]; ok {
			return idx
		}
		idx := len(a.States)
		index[k] = idx
		a.States = append(a.States, clr1State{Items: items, Goto: map[string]int{}})
		return idx
	}

	a.Start = addState(startItems)

	processed := map[int]bool{}
	worklist := []int{a.Start}
	for len(worklist) > 0 {
		cur := worklist[0]
		worklist = worklist[1:]
		if processed[cur] {
			continue
		}
		processed[cur] = true

		for _, X := range lr1NextSymbols(a.States[cur].Items) {
			moved := aug.LR1Goto(a.States[cur].Items, X)
			if len(moved) == 0 {
				continue
			}
			nIdx := addState(moved)
			a.States[cur].Goto[X] = nIdx
			if !processed[nIdx] {
				worklist = append(worklist, nIdx)
			}
		}
	}

	return a
}

// coreAutomatonView builds the LR0Automaton "shape" view of a CLR1
// automaton: same state count and transitions, but exposing only the
// core (dot-position) identity of each state's items, for callers (accept
// detection, minimal-LR(1)'s grouping) that need to reason about cores
// without caring about per-item lookaheads.
func (a *clr1Automaton) coreAutomatonView(augStart, origStart string) *LR0Automaton {
	core := &LR0Automaton{AugStart: augStart, OrigStart: origStart, Predecessors: map[int][]Predecessor{}}
	core.States = make([]LR0State, len(a.States))
	for i, s := range a.States {
		items := make([]grammar.LR0Item, len(s.Items))
		for k, it := range s.Items {
			items[k] = it.LR0Item
		}
		core.States[i] = LR0State{Items: items, Goto: s.Goto}
	}
	core.Start = a.Start
	for to, st := range a.States {
		for sym, dst := range st.Goto {
			core.Predecessors[dst] = append(core.Predecessors[dst], Predecessor{State: to, Symbol: sym})
		}
	}
	return core
}

// GenerateCLR1Parser builds the canonical-LR(1) table for g (purple dragon
// book algorithm 4.56): every state carries the full set of (core,
// lookahead) pairs reachable from the seed item, so a reduce item's
// triggering lookaheads are read directly off the item rather than derived
// from a grammar-wide FOLLOW or a discover/propagate pass. This produces
// the largest automaton of the four lookahead-aware modes but never
// reports a spurious conflict LALR(1) wouldn't otherwise avoid.
func GenerateCLR1Parser(g *grammar.Grammar, allowAmbig bool) (*Table, []string, error) {
	start := g.StartSymbol()
	aug := g.Augmented(start)
	clr1 := buildCLR1Automaton(aug)
	core := clr1.coreAutomatonView(aug.StartSymbol(), start)

	states := make([]genericState, len(clr1.States))
	for i, s := range clr1.States {
		states[i] = genericState{Items: mergeByCore(s.Items), Goto: s.Goto}
	}

	table, err := buildTableFromStates(aug, g, core, states, clr1.Start, MethodCLR1, options{AllowAmbiguous: allowAmbig})
	if table != nil {
		return table, table.Conflicts(), err
	}
	return nil, nil, err
}
