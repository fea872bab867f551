package grammar

import "strings"

// Production is the ordered sequence of RHS symbol names of a rule. An
// empty Production is an epsilon rule.
type Production []string

// String renders the production space-separated, or "ε" when empty.
func (p Production) String() string {
	if len(p) == 0 {
		return "ε"
	}
	return strings.Join(p, " ")
}

// Equal reports whether p and o name the same symbols in the same order.
func (p Production) Equal(o any) bool {
	other, ok := o.(Production)
	if !ok {
		return false
	}
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Copy returns a duplicate of p.
func (p Production) Copy() Production {
	cp := make(Production, len(p))
	copy(cp, p)
	return cp
}

// ConstructorKind distinguishes the three forms a rule's constructor key can
// take, per spec §3: a semantic message name, a single-position passthrough
// (renaming), or an automatically built tuple of every captured position.
type ConstructorKind int

const (
	// ConstructDefaultTuple builds a tuple of every captured RHS position's
	// value as the rule's message argument list. This is the default for a
	// rule with no explicit constructor.
	ConstructDefaultTuple ConstructorKind = iota
	// ConstructMessage invokes a named semantic action with the captured
	// argument list.
	ConstructMessage
	// ConstructOffset passes through the value of a single captured RHS
	// position unchanged; used for renaming/unit-rule detection (spec
	// §4.3: "a single captured position that is B itself").
	ConstructOffset
)

// ConstructorKey names how a rule's reduction builds its message value.
type ConstructorKey struct {
	Kind   ConstructorKind
	Name   string // valid when Kind == ConstructMessage
	Offset int    // valid when Kind == ConstructOffset; index into captured positions
}

// IsRenaming reports whether this key describes a pure renaming: a
// single-offset passthrough with no other semantic content. Combined with a
// production of length 1 whose sole symbol is a non-terminal, this
// identifies a "renaming" rule eligible for elimination per spec §4.3/§4.5.
func (k ConstructorKey) IsRenaming() bool {
	return k.Kind == ConstructOffset
}

// Rule is one production alternative: an immutable(-by-convention) record of
// LHS, RHS, capture mask, constructor key, optional rule-level precedence
// symbol, and source line, assigned a contiguous index in definition order
// (spec §3). Each alternative of a `LHS -> a | b | c` declaration becomes
// its own Rule, all sharing NonTerminal.
type Rule struct {
	// Index is this rule's position in the grammar's definition-order rule
	// list. Assigned by Grammar.AddRule; zero until added.
	Index int

	NonTerminal string
	Production  Production

	// CaptureMask has one entry per RHS position; true marks a
	// semantically-significant ("dotted") position. Must either be nil
	// (meaning "capture every position", the convention CapturedPositions
	// applies) or have the same length as Production.
	CaptureMask []bool

	Constructor ConstructorKey

	// Precedence, if non-empty, names the terminal whose precedence level
	// governs this rule in a shift/reduce conflict (the `%prec` form).
	// Empty means "use the rightmost terminal of the RHS", per spec §4.5.
	Precedence string

	Line int
}

// Copy returns a deep-enough duplicate of r for safe independent mutation.
func (r Rule) Copy() Rule {
	cp := r
	cp.Production = r.Production.Copy()
	if r.CaptureMask != nil {
		cp.CaptureMask = make([]bool, len(r.CaptureMask))
		copy(cp.CaptureMask, r.CaptureMask)
	}
	return cp
}

// CapturedPositions returns the RHS indices marked captured by CaptureMask,
// or every position if CaptureMask is nil (the "capture everything, default
// tuple" convention used for rules that never set an explicit mask).
func (r Rule) CapturedPositions() []int {
	if r.CaptureMask == nil {
		pos := make([]int, len(r.Production))
		for i := range pos {
			pos[i] = i
		}
		return pos
	}
	var pos []int
	for i, captured := range r.CaptureMask {
		if captured {
			pos = append(pos, i)
		}
	}
	return pos
}

// IsEpsilon reports whether this rule's production is empty.
func (r Rule) IsEpsilon() bool {
	return len(r.Production) == 0
}

// HasErrorSymbol reports whether $error$ appears anywhere in the RHS.
func (r Rule) HasErrorSymbol() bool {
	for _, sym := range r.Production {
		if sym == ErrorSymbol {
			return true
		}
	}
	return false
}

func (r Rule) String() string {
	return r.NonTerminal + " -> " + r.Production.String()
}

// Associativity is the resolution strategy for a precedence level, per
// spec §3/§4.5.
type Associativity int

const (
	AssocNone Associativity = iota
	AssocLeft
	AssocRight
	AssocNonAssoc
	// AssocBogus marks a level that never matches a real token (spec §4.5:
	// "%bogus never matches a real token"); used to reserve a precedence
	// slot between two declared levels without binding any terminal to it.
	AssocBogus
)

// PrecedenceLevel groups terminals that share one precedence/associativity.
// Levels are ordered by declaration order; Grammar.PrecedenceOf resolves a
// terminal to its 1-based level (higher means tighter-binding), matching
// spec §3's "ordered low→high or high→low depending on declaration order".
type PrecedenceLevel struct {
	Assoc     Associativity
	Terminals []string
}
