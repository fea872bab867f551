package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lennartw/pelican/internal/util"
)

// DFA is a deterministic finite automaton whose states each carry a value
// of type E.
type DFA[E any] struct {
	states map[string]DFAState[E]
	order  uint64
	Start  string
}

// AddState adds a new, initially transition-less state. A no-op if state
// already exists.
func (dfa *DFA[E]) AddState(state string, accepting bool) {
	if _, ok := dfa.states[state]; ok {
		return
	}
	if dfa.states == nil {
		dfa.states = map[string]DFAState[E]{}
	}
	dfa.states[state] = DFAState[E]{
		name:        state,
		ordering:    dfa.order,
		transitions: make(map[string]FATransition),
		accepting:   accepting,
	}
	dfa.order++
}

// SetValue attaches v to state. Panics if state does not exist.
func (dfa *DFA[E]) SetValue(state string, v E) {
	s, ok := dfa.states[state]
	if !ok {
		panic(fmt.Sprintf("automaton: set value on non-existent state %q", state))
	}
	s.value = v
	dfa.states[state] = s
}

// GetValue returns the value attached to state. Panics if state does not exist.
func (dfa DFA[E]) GetValue(state string) E {
	s, ok := dfa.states[state]
	if !ok {
		panic(fmt.Sprintf("automaton: get value on non-existent state %q", state))
	}
	return s.value
}

// IsAccepting reports whether state is an accepting state. Returns false if
// state does not exist.
func (dfa DFA[E]) IsAccepting(state string) bool {
	s, ok := dfa.states[state]
	return ok && s.accepting
}

// AddTransition adds the (deterministic) edge from fromState to toState on
// input. Both states must already exist; adding a second transition for the
// same (fromState, input) pair replaces the first.
func (dfa *DFA[E]) AddTransition(fromState, input, toState string) {
	from, ok := dfa.states[fromState]
	if !ok {
		panic(fmt.Sprintf("automaton: transition from non-existent state %q", fromState))
	}
	if _, ok := dfa.states[toState]; !ok {
		panic(fmt.Sprintf("automaton: transition to non-existent state %q", toState))
	}
	from.transitions[input] = FATransition{Input: input, Next: toState}
	dfa.states[fromState] = from
}

// Next returns the destination of the transition from fromState on input,
// or "" if none exists.
func (dfa DFA[E]) Next(fromState, input string) string {
	st, ok := dfa.states[fromState]
	if !ok {
		return ""
	}
	return st.transitions[input].Next
}

// States returns every state name in the DFA.
func (dfa DFA[E]) States() util.StringSet {
	out := util.NewStringSet()
	for k := range dfa.states {
		out.Add(k)
	}
	return out
}

// Transitions returns a copy of state's transition function, input symbol
// to destination state name.
func (dfa DFA[E]) Transitions(state string) map[string]string {
	st, ok := dfa.states[state]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(st.transitions))
	for sym, t := range st.transitions {
		out[sym] = t.Next
	}
	return out
}

// Copy returns a duplicate DFA with independent state/transition storage.
func (dfa DFA[E]) Copy() DFA[E] {
	cp := DFA[E]{Start: dfa.Start, order: dfa.order, states: make(map[string]DFAState[E], len(dfa.states))}
	for k, v := range dfa.states {
		cp.states[k] = v.Copy()
	}
	return cp
}

// AllTransitionsTo returns every (fromState, input) pair with a transition
// into toState.
func (dfa DFA[E]) AllTransitionsTo(toState string) [][2]string {
	var out [][2]string
	for name, st := range dfa.states {
		for sym, t := range st.transitions {
			if t.Next == toState {
				out = append(out, [2]string{name, sym})
			}
		}
	}
	return out
}

// NumberStates renames every state to a small integer string, starting
// state first, the rest in alphabetical order of their prior name — used
// once a DFA's construction is finished and its state identities (which
// during construction are long Fingerprint keys, or the "minN" block names
// Minimize assigns) need to become compact table indices.
func (dfa *DFA[E]) NumberStates() {
	if _, ok := dfa.states[dfa.Start]; !ok {
		panic("automaton: cannot number states of a DFA with no start state")
	}
	names := orderedKeys(dfa.states)
	startIdx := -1
	for i, n := range names {
		if n == dfa.Start {
			startIdx = i
			break
		}
	}
	names = append(names[:startIdx], names[startIdx+1:]...)
	names = append([]string{dfa.Start}, names...)

	mapping := make(map[string]string, len(names))
	for i, n := range names {
		mapping[n] = fmt.Sprintf("%d", i)
	}

	next := DFA[E]{states: make(map[string]DFAState[E], len(names)), Start: mapping[dfa.Start]}
	for _, n := range names {
		old := dfa.states[n]
		newName := mapping[n]
		next.AddState(newName, old.accepting)
		next.SetValue(newName, old.value)
	}
	for _, n := range names {
		old := dfa.states[n]
		from := mapping[n]
		for sym, t := range old.transitions {
			next.AddTransition(from, sym, mapping[t.Next])
		}
	}
	dfa.states = next.states
	dfa.Start = next.Start
}

// Minimize collapses equivalent states via Hopcroft-style partition
// refinement: states start split into blocks by (accepting-ness,
// acceptKey(value)) — two accepting states with different acceptKey
// results (e.g. they recognize different tokens) can never merge even if
// their future transitions turn out identical — then any block whose
// members transition differently (to different blocks) for some input
// symbol is split, repeating until a fixpoint. acceptKey is only ever
// called on accepting states' values (non-accepting states carry no
// output distinction, so they all start in one block together). merge is
// called once per resulting block with every original state value in that
// block, and must return the single value the merged state should carry —
// callers that need to know which original rule/NFA-state "won" pass a
// merge function that applies their own tie-break (this module's regex
// DFA minimization passes a merge that keeps the highest-ranked accept
// action; the teacher's own DFA type never implemented minimization since
// its only subset-constructed DFA was the LALR(1) merge pass, which uses a
// different, core-based merge criterion in NewLALR1ViablePrefixDFA).
func (dfa DFA[E]) Minimize(acceptKey func(E) string, merge func(states []string, values []E) E) DFA[E] {
	alphabet := util.NewStringSet()
	for _, st := range dfa.states {
		for sym := range st.transitions {
			alphabet.Add(sym)
		}
	}

	partition := initialPartition(dfa, acceptKey)
	for {
		refined, changed := refinePartition(dfa, partition, alphabet)
		partition = refined
		if !changed {
			break
		}
	}

	blockOf := map[string]int{}
	for i, block := range partition {
		for _, s := range block {
			blockOf[s] = i
		}
	}
	blockName := func(i int) string { return fmt.Sprintf("min%d", i) }

	out := DFA[E]{}
	for i, block := range partition {
		values := make([]E, len(block))
		accepting := false
		for j, s := range block {
			values[j] = dfa.states[s].value
			if dfa.states[s].accepting {
				accepting = true
			}
		}
		sort.Strings(block)
		out.AddState(blockName(i), accepting)
		out.SetValue(blockName(i), merge(block, values))
	}
	for i, block := range partition {
		rep := block[0]
		for sym, t := range dfa.states[rep].transitions {
			destBlock := blockOf[t.Next]
			out.AddTransition(blockName(i), sym, blockName(destBlock))
		}
	}
	out.Start = blockName(blockOf[dfa.Start])
	return out
}

func initialPartition[E any](dfa DFA[E], acceptKey func(E) string) [][]string {
	acceptGroups := map[string][]string{}
	var rejecting []string
	for name, st := range dfa.states {
		if st.accepting {
			key := acceptKey(st.value)
			acceptGroups[key] = append(acceptGroups[key], name)
		} else {
			rejecting = append(rejecting, name)
		}
	}

	var out [][]string
	for _, key := range orderedKeys(acceptGroups) {
		out = append(out, acceptGroups[key])
	}
	if len(rejecting) > 0 {
		out = append(out, rejecting)
	}
	return out
}

func refinePartition[E any](dfa DFA[E], partition [][]string, alphabet util.StringSet) ([][]string, bool) {
	blockOf := map[string]int{}
	for i, block := range partition {
		for _, s := range block {
			blockOf[s] = i
		}
	}

	var next [][]string
	changed := false
	for _, block := range partition {
		groups := map[string][]string{}
		for _, s := range block {
			var sig strings.Builder
			for _, sym := range alphabet.Elements() {
				dest := dfa.states[s].transitions[sym].Next
				if dest == "" {
					sig.WriteString("∅;")
					continue
				}
				fmt.Fprintf(&sig, "%d;", blockOf[dest])
			}
			key := sig.String()
			groups[key] = append(groups[key], s)
		}
		if len(groups) > 1 {
			changed = true
		}
		for _, g := range groups {
			next = append(next, g)
		}
	}
	return next, changed
}

func (dfa DFA[E]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<START: %q, STATES:", dfa.Start)
	names := orderedKeys(dfa.states)
	for i, name := range names {
		sb.WriteString("\n\t")
		sb.WriteString(dfa.states[name].String())
		if i+1 < len(names) {
			sb.WriteRune(',')
		} else {
			sb.WriteRune('\n')
		}
	}
	sb.WriteRune('>')
	return sb.String()
}

// DFAToNFA converts dfa into an equivalent NFA, as a starting point for
// transformations (like LALR(1) state merging) that only make sense in
// terms of a non-deterministic transition function (a state can gain a
// second transition on the same input mid-merge, which DFA's AddTransition
// would silently overwrite instead of flagging).
func DFAToNFA[E any](dfa DFA[E]) NFA[E] {
	nfa := NFA[E]{Start: dfa.Start, order: dfa.order, states: map[string]NFAState[E]{}}
	for name, st := range dfa.states {
		ns := NFAState[E]{
			name: st.name, ordering: st.ordering, value: st.value,
			transitions: map[string][]FATransition{}, accepting: st.accepting,
		}
		for sym, t := range st.transitions {
			ns.transitions[sym] = []FATransition{t}
		}
		nfa.states[name] = ns
	}
	return nfa
}
