package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lennartw/pelican/internal/util"
)

// fingerprintOf returns the content-addressed name subset construction uses
// for a DFA state built from set of NFA states X: the elements are sorted
// first so two StringSets with the same members always fingerprint the
// same regardless of map iteration order.
func fingerprintOf(X util.StringSet) string {
	elems := X.Elements()
	sort.Strings(elems)
	return Fingerprint(elems)
}

// NFA is a non-deterministic finite automaton whose states each carry a
// value of type E.
type NFA[E any] struct {
	states map[string]NFAState[E]
	order  uint64
	Start  string
}

// AddState adds a new, initially transition-less state. A no-op if state
// already exists.
func (nfa *NFA[E]) AddState(state string, accepting bool) {
	if _, ok := nfa.states[state]; ok {
		return
	}
	if nfa.states == nil {
		nfa.states = map[string]NFAState[E]{}
	}
	nfa.states[state] = NFAState[E]{
		name:        state,
		ordering:    nfa.order,
		transitions: make(map[string][]FATransition),
		accepting:   accepting,
	}
	nfa.order++
}

// SetValue attaches v to state. Panics if state does not exist.
func (nfa *NFA[E]) SetValue(state string, v E) {
	s, ok := nfa.states[state]
	if !ok {
		panic(fmt.Sprintf("automaton: set value on non-existent state %q", state))
	}
	s.value = v
	nfa.states[state] = s
}

// GetValue returns the value attached to state. Panics if state does not exist.
func (nfa NFA[E]) GetValue(state string) E {
	s, ok := nfa.states[state]
	if !ok {
		panic(fmt.Sprintf("automaton: get value on non-existent state %q", state))
	}
	return s.value
}

// SetAccepting changes whether state is an accepting state. Panics if state
// does not exist. Used by Thompson construction to demote a sub-fragment's
// accept state back to non-accepting once it has been spliced into a larger
// fragment with its own, single accept state.
func (nfa *NFA[E]) SetAccepting(state string, accepting bool) {
	s, ok := nfa.states[state]
	if !ok {
		panic(fmt.Sprintf("automaton: set accepting on non-existent state %q", state))
	}
	s.accepting = accepting
	nfa.states[state] = s
}

// IsAccepting reports whether state is an accepting state. Returns false if
// state does not exist.
func (nfa NFA[E]) IsAccepting(state string) bool {
	s, ok := nfa.states[state]
	return ok && s.accepting
}

// AcceptingStates returns the set of every accepting state name.
func (nfa NFA[E]) AcceptingStates() util.StringSet {
	out := util.NewStringSet()
	for name, st := range nfa.states {
		if st.accepting {
			out.Add(name)
		}
	}
	return out
}

// Merge copies every state and transition of other into nfa, renaming each
// of other's states by prefixing it with prefix + ":" to avoid colliding
// with nfa's existing names, and returns the old-name-to-new-name mapping
// so the caller can wire fresh transitions between the two fragments (the
// standard building block for Thompson construction's concatenation,
// alternation, and Kleene-star combinators — replacing the teacher's
// pointer-receiver Join, which this module's fragments never call directly
// since Thompson construction only ever needs "splice other's states in,
// then connect the two start/accept points").
func (nfa *NFA[E]) Merge(other NFA[E], prefix string) map[string]string {
	mapping := make(map[string]string, len(other.states))
	names := orderedKeys(other.states)
	for _, name := range names {
		mapping[name] = prefix + ":" + name
	}
	for _, name := range names {
		st := other.states[name]
		nfa.AddState(mapping[name], st.accepting)
		nfa.SetValue(mapping[name], st.value)
	}
	for _, name := range names {
		st := other.states[name]
		newFrom := mapping[name]
		for sym, transList := range st.transitions {
			for _, t := range transList {
				nfa.AddTransition(newFrom, sym, mapping[t.Next])
			}
		}
	}
	return mapping
}

// AddTransition adds an edge from fromState to toState on input (empty
// input means an epsilon move). Both states must already exist.
func (nfa *NFA[E]) AddTransition(fromState, input, toState string) {
	from, ok := nfa.states[fromState]
	if !ok {
		panic(fmt.Sprintf("automaton: transition from non-existent state %q", fromState))
	}
	if _, ok := nfa.states[toState]; !ok {
		panic(fmt.Sprintf("automaton: transition to non-existent state %q", toState))
	}
	from.transitions[input] = append(from.transitions[input], FATransition{Input: input, Next: toState})
	nfa.states[fromState] = from
}

// States returns every state name in the NFA.
func (nfa NFA[E]) States() util.StringSet {
	out := util.NewStringSet()
	for k := range nfa.states {
		out.Add(k)
	}
	return out
}

// InputSymbols returns every non-epsilon input symbol used by some
// transition in the NFA.
func (nfa NFA[E]) InputSymbols() util.StringSet {
	out := util.NewStringSet()
	for _, st := range nfa.states {
		for a := range st.transitions {
			if a != "" {
				out.Add(a)
			}
		}
	}
	return out
}

// MOVE returns the set of states reachable from some state in X via one
// transition on input a (purple dragon book's MOVE(T, a), algorithm 3.20).
func (nfa NFA[E]) MOVE(X util.StringSet, a string) util.StringSet {
	out := util.NewStringSet()
	for s := range X {
		st, ok := nfa.states[s]
		if !ok {
			continue
		}
		for _, t := range st.transitions[a] {
			out.Add(t.Next)
		}
	}
	return out
}

// EpsilonClosure returns every state reachable from s via zero or more
// epsilon moves (including s itself).
func (nfa NFA[E]) EpsilonClosure(s string) util.StringSet {
	start, ok := nfa.states[s]
	if !ok {
		return util.NewStringSet()
	}

	closure := util.NewStringSet()
	stack := util.Stack[NFAState[E]]{}
	stack.Push(start)

	for !stack.Empty() {
		cur := stack.Pop()
		if closure.Has(cur.name) {
			continue
		}
		closure.Add(cur.name)
		for _, move := range cur.transitions[""] {
			next, ok := nfa.states[move.Next]
			if !ok {
				panic(fmt.Sprintf("automaton: epsilon move to non-existent state %q", move.Next))
			}
			stack.Push(next)
		}
	}
	return closure
}

// EpsilonClosureOfSet returns the union of EpsilonClosure over every state in X.
func (nfa NFA[E]) EpsilonClosureOfSet(X util.StringSet) util.StringSet {
	out := util.NewStringSet()
	for s := range X {
		out.AddAll(nfa.EpsilonClosure(s))
	}
	return out
}

// ToDFA performs subset construction (purple dragon book algorithm 3.20):
// each DFA state is named by the Fingerprint of the set of underlying NFA
// states it packs together, and carries an SVSet of those states as its
// value so callers (regex DFA construction) can recover which NFA states
// are live in a given DFA state.
func (nfa NFA[E]) ToDFA() DFA[util.SVSet[E]] {
	inputSymbols := nfa.InputSymbols()

	dStart := nfa.EpsilonClosure(nfa.Start)
	dStates := map[string]util.StringSet{fingerprintOf(dStart): dStart}
	marked := util.NewStringSet()

	type pendingTrans struct{ from, input, to string }
	var allTrans []pendingTrans
	accepting := map[string]bool{}
	values := map[string]util.SVSet[E]{}

	for {
		names := util.NewStringSet()
		for k := range dStates {
			names.Add(k)
		}
		unmarked := names.Difference(marked)
		if unmarked.Empty() {
			break
		}

		for tName := range unmarked {
			T := dStates[tName]
			marked.Add(tName)

			tValues := util.NewSVSet[E]()
			tAccepting := false
			for stateName := range T {
				tValues.Set(stateName, nfa.GetValue(stateName))
				if nfa.states[stateName].accepting {
					tAccepting = true
				}
			}
			values[tName] = tValues
			accepting[tName] = tAccepting

			for a := range inputSymbols {
				U := nfa.EpsilonClosureOfSet(nfa.MOVE(T, a))
				if U.Empty() {
					continue
				}
				uName := fingerprintOf(U)
				if _, ok := dStates[uName]; !ok {
					dStates[uName] = U
				}
				allTrans = append(allTrans, pendingTrans{tName, a, uName})
			}
		}
	}

	// every state is now known; add them all before wiring transitions so
	// that forward references (a transition discovered before its target
	// state was processed) always resolve.
	var dfa DFA[util.SVSet[E]]
	for name := range dStates {
		dfa.AddState(name, accepting[name])
		dfa.SetValue(name, values[name])
	}
	dfa.Start = fingerprintOf(dStart)
	for _, t := range allTrans {
		dfa.AddTransition(t.from, t.input, t.to)
	}
	return dfa
}

func (nfa NFA[E]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<START: %q, STATES:", nfa.Start)
	names := orderedKeys(nfa.states)
	for i, name := range names {
		sb.WriteString("\n\t")
		sb.WriteString(nfa.states[name].String())
		if i+1 < len(names) {
			sb.WriteRune(',')
		} else {
			sb.WriteRune('\n')
		}
	}
	sb.WriteRune('>')
	return sb.String()
}
