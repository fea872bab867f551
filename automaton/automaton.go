// Package automaton provides generic finite-automaton containers — NFA[E]
// and DFA[E], each state carrying an arbitrary value of type E — along with
// subset construction, state minimization, and renumbering. It underlies
// the regex→DFA scanner pipeline; package parse builds its LR
// viable-prefix automata itself and does not use it.
//
// Adapted from the teacher's internal/ictiobus/automaton package: the same
// FATransition/NFA[E]/DFA[E] shape, generalized with a structhash-backed
// Fingerprint() identity (replacing the teacher's StringOrdered() string-
// concatenation keys) and extended with DFA minimization, which the teacher
// never needed since its only DFA consumer was the LALR(1) merge pass.
package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cnf/structhash"
)

// FATransition is one edge of a finite automaton: the input symbol that
// triggers it (empty string means an epsilon move) and the destination
// state's name.
type FATransition struct {
	Input string
	Next  string
}

func (t FATransition) String() string {
	inp := t.Input
	if inp == "" {
		inp = "ε"
	}
	return fmt.Sprintf("=(%s)=> %s", inp, t.Next)
}

// DFAState is one state of a DFA[E]: a unique name, an attached value, its
// deterministic transition function, and whether it accepts.
type DFAState[E any] struct {
	name        string
	ordering    uint64
	value       E
	transitions map[string]FATransition
	accepting   bool
}

// Copy returns a duplicate of ns with its own transition map.
func (ns DFAState[E]) Copy() DFAState[E] {
	cp := ns
	cp.transitions = make(map[string]FATransition, len(ns.transitions))
	for k, v := range ns.transitions {
		cp.transitions[k] = v
	}
	return cp
}

func (ns DFAState[E]) String() string {
	var moves strings.Builder
	inputs := orderedKeys(ns.transitions)
	for i, input := range inputs {
		moves.WriteString(ns.transitions[input].String())
		if i+1 < len(inputs) {
			moves.WriteString(", ")
		}
	}
	str := fmt.Sprintf("(%s [%s])", ns.name, moves.String())
	if ns.accepting {
		str = "(" + str + ")"
	}
	return str
}

// NFAState is one state of an NFA[E]: like DFAState but each input symbol
// may fan out to several transitions (including, under the empty-string
// input, epsilon moves).
type NFAState[E any] struct {
	name        string
	ordering    uint64
	value       E
	transitions map[string][]FATransition
	accepting   bool
}

func (ns NFAState[E]) String() string {
	var moves strings.Builder
	inputs := orderedKeys(ns.transitions)
	for i, input := range inputs {
		for j, t := range ns.transitions[input] {
			moves.WriteString(t.String())
			if j+1 < len(ns.transitions[input]) || i+1 < len(inputs) {
				moves.WriteString(", ")
			}
		}
	}
	str := fmt.Sprintf("(%s [%s])", ns.name, moves.String())
	if ns.accepting {
		str = "(" + str + ")"
	}
	return str
}

// Fingerprint returns a short, content-addressed identity for any
// structhash-compatible value — used by ToDFA to name each DFA state built
// from subset construction's packed set of underlying NFA states, in place
// of the teacher's StringOrdered() string-concatenation keys, which grow
// linearly with state-set size and get unwieldy for large grammars.
func Fingerprint(v any) string {
	h, err := structhash.Hash(v, 1)
	if err != nil {
		// structhash only fails on unexported-field-only structs or
		// channels/funcs in the value; every value fingerprinted by this
		// package is a plain exported-field struct or built-in, so this
		// is unreachable in practice.
		panic(fmt.Sprintf("automaton: cannot fingerprint value: %v", err))
	}
	return h
}

func orderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
