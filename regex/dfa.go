package regex

import (
	"github.com/lennartw/pelican/automaton"
	"github.com/lennartw/pelican/internal/util"
)

// Pattern is one lexical rule contributing to a combined scanner DFA:
// Source is its regex text, Rank is tie-break priority (higher Rank wins,
// then the longer match; between equal-rank patterns the lexically-first
// Name wins, and declaration order is not consulted), and TrailingLen, when >= 0, says the rule is a trailing-context
// rule (`r1 / r2`) whose r2 has this fixed length — so the scanner runtime
// can push back exactly TrailingLen runes after a match to leave the input
// position at the end of r1.
type Pattern struct {
	Name        string
	Source      string
	Rank        int
	TrailingLen int // -1 if not a trailing-context pattern
}

// Match describes what a DFA accept state, reached at the end of a lexeme,
// actually recognized: which pattern rank won (highest Rank among every
// pattern whose accept state is in this DFA state's underlying NFA-state
// set — "longest match" is handled by the scanner runtime continuing to
// advance the DFA as long as some transition exists, but only as the
// tie-break *after* rank: a later, longer accept only replaces an earlier
// one of equal or higher rank, never a strictly lower one, however much
// more it would have matched. DFA state accepting-ness alone only resolves
// the *rank* tie-break among same-length candidates packed into one state).
type Match struct {
	Rank        int
	Name        string
	TrailingLen int
}

// CompiledSet is a DFA whose accepting states carry a Match (or, in the
// rare case two patterns of the same rank are literally ambiguous at the
// same accept state — a caller error, not a grammar property — the highest
// Rank, then lexically-first Name, deterministically).
type CompiledSet struct {
	DFA automaton.DFA[*Match]
}

// CompileSet parses and Thompson-constructs every pattern, unions them into
// one NFA whose accept states are tagged with their originating Pattern,
// determinizes via subset construction, and resolves each resulting DFA
// accept state (which may pack together several patterns' NFA accept
// states) down to the single highest-priority Match. The DFA is then
// minimized, with a merge function that keeps the minimized state's Match
// consistent (partition refinement only merges states whose transition
// signature and accept-status already agree, so every original state in a
// merged block must carry the same resolved Match already).
func CompileSet(patterns []Pattern) (*CompiledSet, error) {
	type tagged struct {
		pattern Pattern
		ast     *Node
	}
	var parsed []tagged
	for _, p := range patterns {
		ast, err := Parse(p.Source)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, tagged{p, ast})
	}

	combined := automaton.NFA[Pattern]{}
	start := "root"
	combined.AddState(start, false)
	combined.Start = start

	c := &compiler{}
	for _, t := range parsed {
		frag := c.compileNode(t.ast)
		frag.nfa.Start = frag.start
		mapping := combined.Merge(frag.nfa, "pat")
		combined.AddTransition(start, "", mapping[frag.start])
		combined.SetValue(mapping[frag.accept], t.pattern)
	}

	dfa := combined.ToDFA()

	resolved := automaton.DFA[*Match]{Start: dfa.Start}
	for _, name := range dfa.States().Elements() {
		resolved.AddState(name, dfa.IsAccepting(name))
	}
	for _, name := range dfa.States().Elements() {
		values := dfa.GetValue(name)
		resolved.SetValue(name, bestMatch(values, combined))
		for sym, dest := range dfa.Transitions(name) {
			resolved.AddTransition(name, sym, dest)
		}
	}

	min := resolved.Minimize(
		func(m *Match) string {
			if m == nil {
				return ""
			}
			return m.Name
		},
		func(states []string, values []*Match) *Match {
			return bestOfMatches(values)
		},
	)
	return &CompiledSet{DFA: min}, nil
}

// bestMatch picks the winning Match among every NFA accept state packed
// into one SVSet[Pattern] DFA-state value (nil states simply never
// contributed a pattern and are ignored).
func bestMatch(values util.SVSet[Pattern], nfa automaton.NFA[Pattern]) *Match {
	var candidates []*Match
	for stateName := range values {
		if !nfa.IsAccepting(stateName) {
			continue
		}
		p := values[stateName]
		candidates = append(candidates, &Match{Rank: p.Rank, Name: p.Name, TrailingLen: p.TrailingLen})
	}
	return bestOfMatches(candidates)
}

func bestOfMatches(candidates []*Match) *Match {
	var best *Match
	for _, m := range candidates {
		if m == nil {
			continue
		}
		if best == nil || m.Rank > best.Rank || (m.Rank == best.Rank && m.Name < best.Name) {
			best = m
		}
	}
	return best
}

// Run determinizes the DFA for input and returns the end position and
// Match that would win across every accepting position reached — highest
// rank first, then longest (leftmost-longest within the same rank) — used
// mostly by tests; the real scanner in package scan drives the same DFA
// directly so it can interleave with start-condition/pushback bookkeeping.
func (cs *CompiledSet) Run(input []rune) (matchEnd int, m *Match) {
	state := cs.DFA.Start
	bestEnd := -1
	var best *Match
	for i, r := range input {
		next := cs.DFA.Next(state, string(r))
		if next == "" {
			break
		}
		state = next
		if cs.DFA.IsAccepting(state) {
			candidate := cs.DFA.GetValue(state)
			if best == nil || candidate.Rank >= best.Rank {
				bestEnd = i + 1
				best = candidate
			}
		}
	}
	return bestEnd, best
}
