package parse

import "github.com/lennartw/pelican/grammar"

// CollapseShiftReduce rewrites every shift action that targets a state whose
// only actions all reduce a single rule X into one combined LRShiftReduce
// instruction, wherever doing so is safe: for a shift landing in state Q,
// reducing X pops len(X.Production) states off the stack, the last of which
// is Q itself; the state uncovered below the handle is some predecessor B
// reached by walking back len(X.Production)-1 more transitions from every
// state that shifts into Q, and R = GOTO(B, X's left-hand side) is where
// parsing actually continues once the combined instruction skips ever
// representing Q explicitly. The rewrite only fires when R's error
// behavior (which terminals are undefined there) is identical to Q's for
// every such B - otherwise skipping Q would change which inputs are
// reported as a syntax error versus silently accepted further down a
// different path. Returns the number of shift entries collapsed.
func CollapseShiftReduce(t *Table) int {
	reverse := buildReverseEdges(t)
	collapsed := 0

	for q := 0; q < t.NumStates; q++ {
		rule, ok := soleReduceRule(t, q)
		if !ok {
			continue
		}

		predecessors := shiftPredecessors(t, q)
		if len(predecessors) == 0 {
			continue
		}

		handleLen := len(rule.Production)
		origins := predecessors
		if handleLen > 1 {
			origins = walkBackReverse(reverse, predecessors, handleLen-1)
		}
		if len(origins) == 0 {
			continue
		}

		qErrors := errorTerminalSet(t, q)
		if !originsAgree(t, origins, rule.Symbol, qErrors) {
			continue
		}

		act := LRAction{
			Type:       LRShiftReduce,
			Production: rule.Production,
			Symbol:     rule.Symbol,
			RuleIndex:  rule.RuleIndex,
		}
		for p := range predecessors {
			collapsed += rewriteShiftsTo(t, p, q, act)
		}
	}

	return collapsed
}

// soleReduceRule reports whether every non-error action at state has the
// same Type (LRReduce) and RuleIndex, returning that action. A state with
// no actions at all, or with a mix of actions (shift, accept, or more than
// one distinct reduce rule) is not a candidate.
func soleReduceRule(t *Table, state int) (LRAction, bool) {
	var found LRAction
	seen := false
	for _, act := range t.action[state] {
		if act.Type != LRReduce {
			return LRAction{}, false
		}
		if !seen {
			found = act
			seen = true
			continue
		}
		if act.RuleIndex != found.RuleIndex {
			return LRAction{}, false
		}
	}
	return found, seen
}

// shiftPredecessors returns every state with a shift action landing in to.
func shiftPredecessors(t *Table, to int) map[int]bool {
	out := map[int]bool{}
	for from := 0; from < t.NumStates; from++ {
		for _, act := range t.action[from] {
			if act.Type == LRShift && act.State == to {
				out[from] = true
			}
		}
	}
	return out
}

type reverseEdge struct {
	from int
	to   int
}

// buildReverseEdges indexes every shift and goto transition in the table by
// destination state, regardless of the symbol that caused it - walking a
// handle back through the automaton only needs to know which states
// precede a given one, not which symbol each step consumed.
func buildReverseEdges(t *Table) map[int][]reverseEdge {
	rev := map[int][]reverseEdge{}
	for from := 0; from < t.NumStates; from++ {
		for _, act := range t.action[from] {
			if act.Type == LRShift {
				rev[act.State] = append(rev[act.State], reverseEdge{from: from, to: act.State})
			}
		}
		for _, to := range t.goTo[from] {
			rev[to] = append(rev[to], reverseEdge{from: from, to: to})
		}
	}
	return rev
}

// walkBackReverse follows reverse edges steps hops back from every state in
// front, collecting the set of states reached. A handle can be produced
// along more than one automaton path, so this fans out rather than
// requiring a single unique predecessor at each hop.
func walkBackReverse(reverse map[int][]reverseEdge, front map[int]bool, steps int) map[int]bool {
	current := front
	for i := 0; i < steps; i++ {
		next := map[int]bool{}
		for state := range current {
			for _, e := range reverse[state] {
				next[e.from] = true
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// errorTerminalSet returns the set of terminals (including end-of-input)
// with no defined action at state.
func errorTerminalSet(t *Table, state int) map[string]bool {
	out := map[string]bool{}
	for _, term := range t.Grammar.Terminals() {
		if t.Action(state, term).Type == LRError {
			out[term] = true
		}
	}
	if t.Action(state, grammar.EndOfInput).Type == LRError {
		out[grammar.EndOfInput] = true
	}
	return out
}

func sameErrorSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// originsAgree checks, for every handle-origin state, that GOTO(origin,
// lhs) is defined and has the same error terminal set as qErrors.
func originsAgree(t *Table, origins map[int]bool, lhs string, qErrors map[string]bool) bool {
	for origin := range origins {
		r, err := t.Goto(origin, lhs)
		if err != nil {
			return false
		}
		if !sameErrorSet(errorTerminalSet(t, r), qErrors) {
			return false
		}
	}
	return true
}

// rewriteShiftsTo replaces every shift-to-target action at state from with
// act, in both the resolved action table and the recorded alternatives.
func rewriteShiftsTo(t *Table, from, target int, act LRAction) int {
	count := 0
	for term, existing := range t.action[from] {
		if existing.Type == LRShift && existing.State == target {
			t.action[from][term] = act
			count++
		}
	}
	for term, alts := range t.alternatives[from] {
		for i, a := range alts {
			if a.Type == LRShift && a.State == target {
				alts[i] = act
			}
		}
		t.alternatives[from][term] = alts
	}
	return count
}
