package grammar

import (
	"fmt"
	"strings"
)

// LR0Item is a production with a dot position: NonTerminal -> Left . Right.
// Adapted from the teacher's grammar.LR0Item (internal/ictiobus/grammar/item.go),
// extended with a RuleIndex back-reference so callers don't need to
// re-parse the symbol strings to recover which Rule an item came from.
type LR0Item struct {
	NonTerminal string
	Left        []string
	Right       []string

	// RuleIndex is the originating Rule's Index; the augmented start item's
	// is that of the real S' -> start rule Grammar.Augmented adds.
	RuleIndex int
}

// AtEnd reports whether the dot is at the end of the production (a
// reducing item).
func (lr0 LR0Item) AtEnd() bool { return len(lr0.Right) == 0 }

// NextSymbol returns the symbol immediately after the dot, or "" if AtEnd.
func (lr0 LR0Item) NextSymbol() string {
	if lr0.AtEnd() {
		return ""
	}
	return lr0.Right[0]
}

// Advance returns the item with the dot moved one position to the right
// over NextSymbol(). Panics if AtEnd.
func (lr0 LR0Item) Advance() LR0Item {
	if lr0.AtEnd() {
		panic("cannot advance item with dot already at end")
	}
	adv := LR0Item{
		NonTerminal: lr0.NonTerminal,
		Left:        make([]string, len(lr0.Left)+1),
		Right:       make([]string, len(lr0.Right)-1),
		RuleIndex:   lr0.RuleIndex,
	}
	copy(adv.Left, lr0.Left)
	adv.Left[len(lr0.Left)] = lr0.Right[0]
	copy(adv.Right, lr0.Right[1:])
	return adv
}

// Production returns Left followed by Right — the item's full RHS with the
// dot removed.
func (lr0 LR0Item) Production() Production {
	full := make(Production, 0, len(lr0.Left)+len(lr0.Right))
	full = append(full, lr0.Left...)
	full = append(full, lr0.Right...)
	return full
}

func (lr0 LR0Item) String() string {
	var sb strings.Builder
	sb.WriteString(lr0.NonTerminal)
	sb.WriteString(" -> ")
	sb.WriteString(strings.Join(lr0.Left, " "))
	if len(lr0.Left) > 0 {
		sb.WriteRune(' ')
	}
	sb.WriteRune('.')
	if len(lr0.Right) > 0 {
		sb.WriteRune(' ')
		sb.WriteString(strings.Join(lr0.Right, " "))
	}
	return sb.String()
}

// Equal reports structural equality with another LR0Item (RuleIndex is not
// compared; two items with the same dotted production are the same item
// regardless of which rule produced them, matching the teacher's
// LR0Item.Equal semantics).
func (lr0 LR0Item) Equal(o any) bool {
	other, ok := o.(LR0Item)
	if !ok {
		otherPtr, ok := o.(*LR0Item)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}
	if lr0.NonTerminal != other.NonTerminal {
		return false
	}
	if len(lr0.Left) != len(other.Left) || len(lr0.Right) != len(other.Right) {
		return false
	}
	for i := range lr0.Left {
		if lr0.Left[i] != other.Left[i] {
			return false
		}
	}
	for i := range lr0.Right {
		if lr0.Right[i] != other.Right[i] {
			return false
		}
	}
	return true
}

// Copy returns a duplicate of lr0 safe for independent mutation.
func (lr0 LR0Item) Copy() LR0Item {
	cp := LR0Item{NonTerminal: lr0.NonTerminal, RuleIndex: lr0.RuleIndex}
	cp.Left = append([]string(nil), lr0.Left...)
	cp.Right = append([]string(nil), lr0.Right...)
	return cp
}

// LR1Item is an LR0Item paired with a single lookahead terminal. A full
// LR(1)/LALR(1) state associates a set of these with one core; canonical
// LR(1) additionally distinguishes states by lookahead, per spec §3.
type LR1Item struct {
	LR0Item
	Lookahead string
}

func (lr1 LR1Item) String() string {
	return fmt.Sprintf("%s, %s", lr1.LR0Item.String(), lr1.Lookahead)
}

// Equal reports equality of both the core item and the lookahead.
func (lr1 LR1Item) Equal(o any) bool {
	other, ok := o.(LR1Item)
	if !ok {
		otherPtr, ok := o.(*LR1Item)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}
	return lr1.LR0Item.Equal(other.LR0Item) && lr1.Lookahead == other.Lookahead
}

// Copy returns a duplicate of lr1.
func (lr1 LR1Item) Copy() LR1Item {
	return LR1Item{LR0Item: lr1.LR0Item.Copy(), Lookahead: lr1.Lookahead}
}
