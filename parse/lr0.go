// Package parse builds LR-family parse tables over an augmented grammar:
// LR(0), SLR(1), LALR(1), canonical LR(1), and minimal-LR(1), all sharing
// the LR(0) viable-prefix scaffolding in this file, differing only in how
// each one decides a reduce item's set of triggering lookaheads.
package parse

import (
	"sort"
	"strings"

	"github.com/lennartw/pelican/grammar"
)

// Predecessor names the (state, symbol) edge that reaches some state.
type Predecessor struct {
	State  int
	Symbol string
}

// LR0State is one state of the LR(0) viable-prefix automaton: its full
// closure item set and its GOTO transitions.
type LR0State struct {
	Items []grammar.LR0Item
	Goto  map[string]int
}

// LR0Automaton is the shared scaffolding every construction mode builds
// on: states are LR(0) core item sets (no splitting by lookahead), reached
// by a deterministic GOTO function built directly from the grammar's
// closure/goto operations rather than via the generic NFA-subset-
// construction machinery in package automaton — grammar.LR0Goto already
// performs closure internally, so there is no non-deterministic
// intermediate automaton to collapse.
type LR0Automaton struct {
	States       []LR0State
	Start        int
	Predecessors map[int][]Predecessor

	// AugStart and OrigStart are the augmented and original start symbols,
	// kept alongside the automaton since several constructions (kernel
	// classification, accept-item detection) need to recognize the seed
	// item specifically.
	AugStart  string
	OrigStart string
}

func itemSetKey(items []grammar.LR0Item) string {
	strs := make([]string, len(items))
	for i, it := range items {
		strs[i] = it.String()
	}
	sort.Strings(strs)
	return strings.Join(strs, "|")
}

func nextSymbols(items []grammar.LR0Item) []string {
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

// BuildLR0Automaton constructs the LR(0) viable-prefix automaton for the
// already-augmented grammar aug, whose sole start symbol is the augmenting
// symbol S' and whose single S' rule is S' -> origStart.
func BuildLR0Automaton(aug *grammar.Grammar, origStart string) *LR0Automaton {
	startRule := aug.RulesFor(aug.StartSymbol())[0]
	seed := grammar.LR0Item{
		NonTerminal: aug.StartSymbol(),
		Right:       append([]string(nil), startRule.Production...),
		RuleIndex:   startRule.Index,
	}
	startItems := aug.LR0Closure([]grammar.LR0Item{seed})

	a := &LR0Automaton{
		AugStart:     aug.StartSymbol(),
		OrigStart:    origStart,
		Predecessors: map[int][]Predecessor{},
	}
	index := map[string]int{}

	addState := func(items []grammar.LR0Item) int {
		k := itemSetKey(items)
		if idx, ok := index[k]; ok {
			return idx
		}
		idx := len(a.States)
		index[k] = idx
		a.States = append(a.States, LR0State{Items: items, Goto: map[string]int{}})
		return idx
	}

	a.Start = addState(startItems)

	processed := make(map[int]bool)
	worklist := []int{a.Start}
	for len(worklist) > 0 {
		cur := worklist[0]
		worklist = worklist[1:]
		if processed[cur] {
			continue
		}
		processed[cur] = true

		for _, X := range nextSymbols(a.States[cur].Items) {
			moved := aug.LR0Goto(a.States[cur].Items, X)
			if len(moved) == 0 {
				continue
			}
			nIdx := addState(moved)
			a.States[cur].Goto[X] = nIdx
			a.Predecessors[nIdx] = append(a.Predecessors[nIdx], Predecessor{State: cur, Symbol: X})
			if !processed[nIdx] {
				worklist = append(worklist, nIdx)
			}
		}
	}

	return a
}

// IsSeedItem reports whether item is the augmented grammar's seed item
// S' -> . origStart — the one kernel item a start state carries despite
// having an empty Left.
func (a *LR0Automaton) IsSeedItem(item grammar.LR0Item) bool {
	return item.NonTerminal == a.AugStart && len(item.Right) == 1 && item.Right[0] == a.OrigStart && len(item.Left) == 0
}

// IsAcceptItem reports whether item is the augmented grammar's accept item
// S' -> origStart . .
func (a *LR0Automaton) IsAcceptItem(item grammar.LR0Item) bool {
	return item.NonTerminal == a.AugStart && item.AtEnd() && len(item.Left) == 1 && item.Left[0] == a.OrigStart
}

// KernelItems returns the kernel (non-closure-generated) items of a state's
// item list: every item with a non-empty Left, plus the seed item itself.
func (a *LR0Automaton) KernelItems(items []grammar.LR0Item) []grammar.LR0Item {
	var out []grammar.LR0Item
	for _, it := range items {
		if len(it.Left) > 0 || a.IsSeedItem(it) {
			out = append(out, it)
		}
	}
	return out
}

// FindCore returns the String() key of the item in items whose core
// matches target, or "" if none is present.
func FindCore(items []grammar.LR0Item, target grammar.LR0Item) string {
	for _, it := range items {
		if it.Equal(target) {
			return it.String()
		}
	}
	return ""
}
