// Package util contains small generic container helpers shared by the
// grammar, automaton, parse, and regex packages. It intentionally stays close
// to what those callers actually need rather than growing into a general
// collections library.
package util

import (
	"fmt"
	"sort"
	"strings"
)

// StringSet is a set of strings, the workhorse item-set representation used
// throughout grammar/automaton/parse (symbol sets, item-set cores,
// terminal-lookahead sets).
type StringSet map[string]struct{}

// NewStringSet returns an empty StringSet.
func NewStringSet() StringSet {
	return StringSet{}
}

// StringSetOf returns a StringSet containing exactly the given elements.
func StringSetOf(elems []string) StringSet {
	s := NewStringSet()
	for _, e := range elems {
		s.Add(e)
	}
	return s
}

// Add adds element to the set.
func (s StringSet) Add(element string) { s[element] = struct{}{} }

// AddAll adds every element of other to s.
func (s StringSet) AddAll(other StringSet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Remove removes element from the set, if present.
func (s StringSet) Remove(element string) { delete(s, element) }

// Has returns whether element is in the set.
func (s StringSet) Has(element string) bool {
	_, ok := s[element]
	return ok
}

// Len returns the number of elements in the set.
func (s StringSet) Len() int { return len(s) }

// Empty returns whether the set has no elements.
func (s StringSet) Empty() bool { return len(s) == 0 }

// Copy returns a shallow duplicate of the set.
func (s StringSet) Copy() StringSet {
	cp := make(StringSet, len(s))
	for k := range s {
		cp[k] = struct{}{}
	}
	return cp
}

// Elements returns the set's members in unspecified order.
func (s StringSet) Elements() []string {
	elems := make([]string, 0, len(s))
	for k := range s {
		elems = append(elems, k)
	}
	return elems
}

// Union returns a new set containing every element of s or other.
func (s StringSet) Union(other StringSet) StringSet {
	u := s.Copy()
	u.AddAll(other)
	return u
}

// Intersection returns a new set containing only elements present in both.
func (s StringSet) Intersection(other StringSet) StringSet {
	i := NewStringSet()
	small, big := s, other
	if len(other) < len(s) {
		small, big = other, s
	}
	for k := range small {
		if big.Has(k) {
			i.Add(k)
		}
	}
	return i
}

// Difference returns a new set with the elements of s that are not in other.
func (s StringSet) Difference(other StringSet) StringSet {
	d := NewStringSet()
	for k := range s {
		if !other.Has(k) {
			d.Add(k)
		}
	}
	return d
}

// DisjointWith returns whether s and other share no elements.
func (s StringSet) DisjointWith(other StringSet) bool {
	return s.Intersection(other).Empty()
}

// Any returns whether any element of s satisfies predicate.
func (s StringSet) Any(predicate func(v string) bool) bool {
	for k := range s {
		if predicate(k) {
			return true
		}
	}
	return false
}

// Equal returns whether s and o contain the same elements. o may be a
// StringSet or a *StringSet.
func (s StringSet) Equal(o any) bool {
	other, ok := o.(StringSet)
	if !ok {
		otherPtr, ok := o.(*StringSet)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// StringOrdered returns a deterministic string rendering of the set's
// members, sorted alphabetically. Two sets with the same elements always
// produce the same StringOrdered() output; useful for snapshot-style
// debugging and logging where a stable, human-readable set rendering
// matters (automaton state identity itself is content-addressed via
// automaton.Fingerprint, not this).
func (s StringSet) StringOrdered() string {
	elems := s.Elements()
	sort.Strings(elems)
	return "{" + strings.Join(elems, ", ") + "}"
}

func (s StringSet) String() string {
	return "{" + strings.Join(s.Elements(), ", ") + "}"
}

// OrderedKeys returns the keys of m, sorted alphabetically.
func OrderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SVSet is a set of strings each carrying an associated value, keyed by a
// string identity (e.g. the canonical String() of an LR item). It mirrors
// the teacher's util.SVSet[V] but is trimmed to the operations this module
// actually calls.
type SVSet[V any] map[string]V

// NewSVSet returns an empty SVSet, optionally seeded from existing maps.
func NewSVSet[V any](of ...map[string]V) SVSet[V] {
	s := SVSet[V]{}
	for _, m := range of {
		for k, v := range m {
			s[k] = v
		}
	}
	return s
}

// Set assigns the value for idx, adding it if not already present.
func (s SVSet[V]) Set(idx string, val V) { s[idx] = val }

// Get retrieves the value for idx, or the zero value if absent.
func (s SVSet[V]) Get(idx string) V { return s[idx] }

// Has returns whether idx is a member.
func (s SVSet[V]) Has(idx string) bool {
	_, ok := s[idx]
	return ok
}

// Remove deletes idx from the set.
func (s SVSet[V]) Remove(idx string) { delete(s, idx) }

// Len returns the number of members.
func (s SVSet[V]) Len() int { return len(s) }

// Elements returns the set's keys in unspecified order.
func (s SVSet[V]) Elements() []string {
	elems := make([]string, 0, len(s))
	for k := range s {
		elems = append(elems, k)
	}
	return elems
}

// Copy returns a shallow duplicate.
func (s SVSet[V]) Copy() SVSet[V] {
	return NewSVSet(map[string]V(s))
}

// StringOrdered renders the set's keys, sorted, ignoring values. Two sets
// with the same keys (regardless of values) produce the same output;
// useful for debugging/logging a packed DFA-state value.
func (s SVSet[V]) StringOrdered() string {
	keys := OrderedKeys(map[string]V(s))
	return "{" + strings.Join(keys, ", ") + "}"
}

// Equal returns whether s and o have the same set of keys (values are not
// compared, matching the teacher's SVSet.Equal semantics for item-set
// identity purposes).
func (s SVSet[V]) Equal(o any) bool {
	other, ok := o.(SVSet[V])
	if !ok {
		return false
	}
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// Stack is a simple generic LIFO, used by the NFA epsilon-closure worklist
// in package automaton.
type Stack[T any] struct {
	Of []T
}

// Push adds v to the top of the stack.
func (s *Stack[T]) Push(v T) { s.Of = append(s.Of, v) }

// Pop removes and returns the top of the stack. Panics if empty, matching
// the teacher's util.Stack behavior (a pop on an empty stack is always a
// programming error in a table-driven parser, never expected input).
func (s *Stack[T]) Pop() T {
	if len(s.Of) == 0 {
		panic("pop of empty stack")
	}
	v := s.Of[len(s.Of)-1]
	s.Of = s.Of[:len(s.Of)-1]
	return v
}

// Peek returns the top of the stack without removing it.
func (s *Stack[T]) Peek() T {
	if len(s.Of) == 0 {
		panic("peek of empty stack")
	}
	return s.Of[len(s.Of)-1]
}

// Len returns the number of elements on the stack.
func (s *Stack[T]) Len() int { return len(s.Of) }

// Empty returns whether the stack has no elements.
func (s *Stack[T]) Empty() bool { return len(s.Of) == 0 }

// ArticleFor returns "a" or "an" as appropriate for the given word, for use
// in human-readable expected-token messages ("expected an identifier").
func ArticleFor(s string, capital bool) string {
	article := "a"
	if len(s) > 0 {
		switch s[0] {
		case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
			article = "an"
		}
	}
	if capital {
		return strings.ToUpper(article[:1]) + article[1:]
	}
	return article
}

// Must panics with a formatted message if err is non-nil, otherwise returns
// v. Used sparingly at construction-time call sites where an error would
// indicate a programming error, not bad input.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}
