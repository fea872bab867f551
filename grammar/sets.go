package grammar

import (
	"strconv"

	"github.com/lennartw/pelican/closure"
	"github.com/lennartw/pelican/internal/util"
)

// Nullable returns the set of non-terminals that can derive the empty
// string, computed via the bipartite closure engine: each rule is a
// conjunct over its RHS symbols (every symbol in the RHS must itself be
// nullable for the rule to witness nullability of its LHS), and each
// non-terminal is a disjunct over the rules it heads (any one nullable rule
// makes the non-terminal nullable). Terminals are never nullable: each one
// is wired in as a disjunct with no inputs, which never becomes active.
func (g *Grammar) Nullable() util.StringSet {
	graph := closure.NewGraph[string]()

	nts := g.NonTerminals()
	for _, nt := range nts {
		graph.AddDisjunct(symbolKey(nt))
	}
	for _, r := range g.rules {
		key := ruleKey(r.Index)
		graph.AddConjunct(key)
		for _, sym := range r.Production {
			if g.IsTerminal(sym) {
				// A terminal can only be vacuously satisfied if it is
				// never actually required, which never happens for a
				// non-epsilon RHS symbol; a rule containing a terminal is
				// never nullable through that position, so wire it to a
				// disjunct with no inputs (permanently inactive).
				graph.AddDisjunct(symbolKey(sym))
			}
			graph.AddEdge(key, symbolKey(sym))
		}
		graph.AddEdge(symbolKey(r.NonTerminal), key)
	}

	active := graph.Solve()
	out := util.NewStringSet()
	for _, nt := range nts {
		if active[symbolKey(nt)] {
			out.Add(nt)
		}
	}
	return out
}

// WellFounded returns the set of non-terminals that can derive at least one
// finite string of terminals (i.e. are not trapped in infinite recursion
// with no base case). A non-terminal is well-founded if some rule it heads
// has every RHS non-terminal well-founded (terminals are trivially
// well-founded); this is the same conjunct/disjunct shape as Nullable but
// seeded with terminals active instead of gated on them being absent.
func (g *Grammar) WellFounded() util.StringSet {
	graph := closure.NewGraph[string]()

	terms, nts := g.Symbols()
	for _, t := range terms {
		graph.AddConjunct(symbolKey(t)) // zero inputs: trivially active
	}
	for _, nt := range nts {
		graph.AddDisjunct(symbolKey(nt))
	}
	for _, r := range g.rules {
		key := ruleKey(r.Index)
		graph.AddConjunct(key)
		for _, sym := range r.Production {
			graph.AddEdge(key, symbolKey(sym))
		}
		graph.AddEdge(symbolKey(r.NonTerminal), key)
	}

	active := graph.Solve()
	out := util.NewStringSet()
	for _, nt := range nts {
		if active[symbolKey(nt)] {
			out.Add(nt)
		}
	}
	return out
}

// Reachable returns every symbol reachable from start by repeatedly
// expanding non-terminals via their rules (a plain graph traversal, not a
// closure instance — reachability has no AND-gated component).
func (g *Grammar) Reachable(start string) util.StringSet {
	out := util.NewStringSet()
	var visit func(sym string)
	visit = func(sym string) {
		if out.Has(sym) {
			return
		}
		out.Add(sym)
		if g.IsTerminal(sym) {
			return
		}
		for _, idx := range g.ntIndex[sym] {
			for _, rhsSym := range g.rules[idx].Production {
				visit(rhsSym)
			}
		}
	}
	visit(start)
	return out
}

// FirstSets computes FIRST(X) for every terminal and non-terminal X: the
// set of terminals (and possibly epsilon, represented by the empty string
// "") that can begin some string derived from X. Built on the same
// nullable set rather than on the closure engine directly, since FIRST
// propagation needs ordered prefix truncation at the first non-nullable
// RHS symbol — a shape the generic AND/OR graph doesn't capture directly.
func (g *Grammar) FirstSets() map[string]util.StringSet {
	nullable := g.Nullable()
	terms, nts := g.Symbols()

	first := map[string]util.StringSet{}
	for _, t := range terms {
		first[t] = util.StringSetOf([]string{t})
	}
	for _, nt := range nts {
		first[nt] = util.NewStringSet()
	}

	changed := true
	for changed {
		changed = false
		for _, r := range g.rules {
			target := first[r.NonTerminal]
			before := target.Len()

			allNullable := true
			for _, sym := range r.Production {
				for _, t := range first[sym].Elements() {
					if t != "" {
						target.Add(t)
					}
				}
				if g.IsTerminal(sym) || !nullable.Has(sym) {
					allNullable = false
					break
				}
			}
			if allNullable {
				target.Add("")
			}
			if target.Len() != before {
				changed = true
			}
		}
	}
	return first
}

// FollowSets computes FOLLOW(A) for every non-terminal A: the set of
// terminals (including EndOfInput, for every start symbol) that can
// immediately follow A in some derivation. Standard fixpoint formulation
// built on FirstSets and Nullable rather than the closure engine, since
// propagation here truncates at the first non-nullable trailing symbol
// rather than being a pure AND/OR gate.
func (g *Grammar) FollowSets() map[string]util.StringSet {
	first := g.FirstSets()
	nullable := g.Nullable()
	_, nts := g.Symbols()

	follow := map[string]util.StringSet{}
	for _, nt := range nts {
		follow[nt] = util.NewStringSet()
	}
	for _, s := range g.startSymbols {
		if _, ok := follow[s]; ok {
			follow[s].Add(EndOfInput)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, r := range g.rules {
			for i, sym := range r.Production {
				if g.IsTerminal(sym) {
					continue
				}
				target := follow[sym]
				before := target.Len()

				allNullableRest := true
				for _, next := range r.Production[i+1:] {
					target.AddAll(first[next])
					target.Remove("")
					if g.IsTerminal(next) || !nullable.Has(next) {
						allNullableRest = false
						break
					}
				}
				if allNullableRest {
					target.AddAll(follow[r.NonTerminal])
				}
				if target.Len() != before {
					changed = true
				}
			}
		}
	}
	return follow
}

func symbolKey(sym string) string { return "sym:" + sym }
func ruleKey(idx int) string      { return "rule:" + strconv.Itoa(idx) }
