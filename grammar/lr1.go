package grammar

import "github.com/lennartw/pelican/internal/util"

// LR1Closure computes the closure of a set of LR(1) items: purple dragon
// book algorithm 4.40, "Sets-of-LR(1)-items construction". For each item
// [A -> α.Bβ, a], adds [B -> .γ, b] for every rule headed by B and every b
// in FIRST(βa) — computed via the grammar's FirstSets rather than by
// re-deriving FIRST(βa) per item, since FIRST(βa) is just FIRST(β) with ε
// (if present) replaced by a.
func (g *Grammar) LR1Closure(items []LR1Item) []LR1Item {
	first := g.FirstSets()
	seen := util.NewStringSet()
	var out []LR1Item
	var worklist []LR1Item

	add := func(it LR1Item) {
		key := it.String()
		if !seen.Has(key) {
			seen.Add(key)
			out = append(out, it)
			worklist = append(worklist, it)
		}
	}
	for _, it := range items {
		add(it)
	}

	for len(worklist) > 0 {
		it := worklist[0]
		worklist = worklist[1:]
		if it.AtEnd() {
			continue
		}
		B := it.NextSymbol()
		if g.IsTerminal(B) {
			continue
		}
		beta := it.Right[1:]
		lookaheads := firstOfSequence(first, beta, it.Lookahead)
		for _, idx := range g.ntIndex[B] {
			r := g.rules[idx]
			for la := range lookaheads {
				add(LR1Item{
					LR0Item:   LR0Item{NonTerminal: B, Right: append([]string(nil), r.Production...), RuleIndex: r.Index},
					Lookahead: la,
				})
			}
		}
	}
	return out
}

// firstOfSequence computes FIRST(beta a): FIRST(beta) with epsilon (if
// present) replaced by the single lookahead a.
func firstOfSequence(first map[string]util.StringSet, beta []string, a string) util.StringSet {
	out := util.NewStringSet()
	allNullable := true
	for _, sym := range beta {
		for t := range first[sym] {
			if t != "" {
				out.Add(t)
			}
		}
		if !first[sym].Has("") {
			allNullable = false
			break
		}
	}
	if allNullable {
		out.Add(a)
	}
	return out
}

// LR1Goto computes GOTO(items, X) for a set of LR(1) items: the closure of
// every item whose dot can advance over X, preserving each item's
// lookahead (the GOTO half of algorithm 4.40).
func (g *Grammar) LR1Goto(items []LR1Item, X string) []LR1Item {
	var moved []LR1Item
	for _, it := range items {
		if !it.AtEnd() && it.NextSymbol() == X {
			adv := it.LR0Item.Advance()
			moved = append(moved, LR1Item{LR0Item: adv, Lookahead: it.Lookahead})
		}
	}
	if len(moved) == 0 {
		return nil
	}
	return g.LR1Closure(moved)
}
