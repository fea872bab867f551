package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lennartw/pelican/internal/icterrors"
	"github.com/lennartw/pelican/internal/util"
)

// termInfo is what Grammar remembers about a registered terminal beyond its
// name: a human-readable label for diagnostics (spec §4.6 "expected-token
// reporting") and its optional precedence level.
type termInfo struct {
	human string
	level int // 1-based index into precLevels, 0 = unassigned
}

// Grammar is an ordered sequence of rules plus the declarations that govern
// how they are interpreted: one or more start symbols, a precedence table,
// and a non-deterministic flag (spec §3).
type Grammar struct {
	rules []Rule

	// ntIndex maps a non-terminal name to the indices in rules with that
	// NonTerminal, in definition order.
	ntIndex map[string][]int

	terms     map[string]termInfo
	termOrder []string

	startSymbols []string

	precLevels []PrecedenceLevel

	nondeterministic     bool
	nondetAllowedNTs     util.StringSet
	voidSymbols          util.StringSet
	uniqueTerminalSerial int

	macros map[string]*Macro
}

// New returns an empty Grammar ready for AddTerm/AddRule calls.
func New() *Grammar {
	return &Grammar{
		ntIndex:          map[string][]int{},
		terms:            map[string]termInfo{},
		nondetAllowedNTs: util.NewStringSet(),
		voidSymbols:      util.NewStringSet(),
		macros:           map[string]*Macro{},
	}
}

// AddTerm registers a terminal symbol with a human-readable display name
// used in diagnostics. Registering the same id twice replaces the human
// name of the first registration.
func (g *Grammar) AddTerm(id string, human string) {
	if _, ok := g.terms[id]; !ok {
		g.termOrder = append(g.termOrder, id)
	}
	info := g.terms[id]
	info.human = human
	g.terms[id] = info
}

// Term returns the human-readable name registered for terminal id, or id
// itself if none was registered.
func (g *Grammar) Term(id string) string {
	if info, ok := g.terms[id]; ok && info.human != "" {
		return info.human
	}
	return id
}

// Terminals returns every registered terminal name, in registration order.
func (g *Grammar) Terminals() []string {
	out := make([]string, len(g.termOrder))
	copy(out, g.termOrder)
	return out
}

// IsTerminal reports whether name is a known terminal: either explicitly
// registered via AddTerm, the end-of-input sentinel, the error metatoken,
// or — for names never seen as an LHS and not registered as a terminal —
// falls back to the lowercase-name convention (spec's examples write
// terminals lowercase and non-terminals uppercase throughout).
func (g *Grammar) IsTerminal(name string) bool {
	if _, ok := g.terms[name]; ok {
		return true
	}
	if name == EndOfInput || name == ErrorSymbol {
		return true
	}
	if _, ok := g.ntIndex[name]; ok {
		return false
	}
	return isTerminalByConvention(name)
}

// NonTerminals returns every non-terminal that appears as some rule's LHS,
// in first-definition order.
func (g *Grammar) NonTerminals() []string {
	seen := util.NewStringSet()
	var out []string
	for _, r := range g.rules {
		if !seen.Has(r.NonTerminal) {
			seen.Add(r.NonTerminal)
			out = append(out, r.NonTerminal)
		}
	}
	return out
}

// AddRule adds one production alternative for nonTerminal and returns a
// pointer into the grammar's rule slice so the caller can set CaptureMask /
// Constructor / Precedence / Line before table construction. The returned
// Rule's Index is assigned immediately, in definition order.
func (g *Grammar) AddRule(nonTerminal string, prod Production) *Rule {
	idx := len(g.rules)
	g.rules = append(g.rules, Rule{
		Index:       idx,
		NonTerminal: nonTerminal,
		Production:  prod.Copy(),
	})
	g.ntIndex[nonTerminal] = append(g.ntIndex[nonTerminal], idx)
	return &g.rules[idx]
}

// Rules returns every rule in definition order. The returned slice shares
// storage with the grammar and must not be mutated by index assignment.
func (g *Grammar) Rules() []Rule {
	return g.rules
}

// Rule returns the rule with the given index.
func (g *Grammar) Rule(index int) Rule {
	return g.rules[index]
}

// RulesFor returns every rule whose LHS is nonTerminal, in definition order.
func (g *Grammar) RulesFor(nonTerminal string) []Rule {
	idxs := g.ntIndex[nonTerminal]
	out := make([]Rule, len(idxs))
	for i, idx := range idxs {
		out[i] = g.rules[idx]
	}
	return out
}

// AddStart registers name as a start symbol (spec §3: "one or more entry
// non-terminals — each gets its own initial parser state").
func (g *Grammar) AddStart(name string) {
	for _, s := range g.startSymbols {
		if s == name {
			return
		}
	}
	g.startSymbols = append(g.startSymbols, name)
}

// StartSymbols returns every declared start symbol, in declaration order.
func (g *Grammar) StartSymbols() []string {
	out := make([]string, len(g.startSymbols))
	copy(out, g.startSymbols)
	return out
}

// StartSymbol returns the first declared start symbol, for callers (most
// table-construction entry points) that build one automaton per start
// symbol and iterate StartSymbols() themselves only when multiple entries
// are needed.
func (g *Grammar) StartSymbol() string {
	if len(g.startSymbols) == 0 {
		return ""
	}
	return g.startSymbols[0]
}

// WithPrimaryStart returns a copy of g whose StartSymbol is name, by moving
// it to the front of the declared start symbols; every other declared start
// stays present, just no longer first. This is how a caller builds one
// parse.Table per entry non-terminal (spec §3: "one or more entry
// non-terminals — each gets its own initial parser state") without
// table-construction code itself needing to know about multiple starts.
func (g *Grammar) WithPrimaryStart(name string) (*Grammar, error) {
	found := false
	for _, s := range g.startSymbols {
		if s == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("grammar: %q is not a declared start symbol", name)
	}
	cp := g.Copy()
	reordered := []string{name}
	for _, s := range g.startSymbols {
		if s != name {
			reordered = append(reordered, s)
		}
	}
	cp.startSymbols = reordered
	return cp, nil
}

// AddPrecedence appends a new precedence level (lowest-declared-first, per
// spec's "ordered low→high ... depending on declaration order" — this
// module fixes the convention as low-to-high in declaration order) and
// assigns every terminal in it to that level. assoc governs resolution of
// shift/reduce conflicts at that level (spec §4.5).
func (g *Grammar) AddPrecedence(assoc Associativity, terminals ...string) {
	g.precLevels = append(g.precLevels, PrecedenceLevel{Assoc: assoc, Terminals: terminals})
	level := len(g.precLevels)
	for _, t := range terminals {
		info := g.terms[t]
		info.level = level
		if _, ok := g.terms[t]; !ok {
			g.termOrder = append(g.termOrder, t)
		}
		g.terms[t] = info
	}
}

// PrecedenceOf returns the 1-based precedence level of terminal t and
// whether one was assigned.
func (g *Grammar) PrecedenceOf(t string) (level int, assoc Associativity, ok bool) {
	info, known := g.terms[t]
	if !known || info.level == 0 {
		return 0, AssocNone, false
	}
	return info.level, g.precLevels[info.level-1].Assoc, true
}

// SetNonDeterministic marks the grammar as permitting ambiguity, optionally
// scoped to specific non-terminals (spec §3: "optionally qualified by a set
// of non-terminals that are permitted to be ambiguous"). Calling with no
// arguments permits ambiguity anywhere in the grammar.
func (g *Grammar) SetNonDeterministic(allowedNonTerminals ...string) {
	g.nondeterministic = true
	for _, nt := range allowedNonTerminals {
		g.nondetAllowedNTs.Add(nt)
	}
}

// NonDeterministic reports whether the grammar was declared non-deterministic.
func (g *Grammar) NonDeterministic() bool { return g.nondeterministic }

// AmbiguityAllowedFor reports whether nt is permitted to be ambiguous: true
// if the grammar's non-deterministic declaration had no restricting
// arguments, or if nt was named explicitly.
func (g *Grammar) AmbiguityAllowedFor(nt string) bool {
	if !g.nondeterministic {
		return false
	}
	if g.nondetAllowedNTs.Empty() {
		return true
	}
	return g.nondetAllowedNTs.Has(nt)
}

// MarkVoid records that symbol carries no semantic value (the `%void`
// declaration); CaptureMask construction skips void symbols by default.
func (g *Grammar) MarkVoid(symbol string) { g.voidSymbols.Add(symbol) }

// IsVoid reports whether symbol was marked void.
func (g *Grammar) IsVoid(symbol string) bool { return g.voidSymbols.Has(symbol) }

// GenerateUniqueTerminal returns a terminal name guaranteed not to collide
// with any registered symbol, for use by internal rewrites (augmentation,
// mid-rule action lifting) that need a synthetic marker.
func (g *Grammar) GenerateUniqueTerminal(prefix string) string {
	for {
		g.uniqueTerminalSerial++
		candidate := fmt.Sprintf("%s$%d", prefix, g.uniqueTerminalSerial)
		if !g.IsTerminal(candidate) {
			if _, isNT := g.ntIndex[candidate]; !isNT {
				return candidate
			}
		}
	}
}

// Copy returns a deep-enough duplicate of g for independent mutation (used
// before destructive normalization passes like RemoveUnitProductions).
func (g *Grammar) Copy() *Grammar {
	cp := New()
	cp.rules = make([]Rule, len(g.rules))
	for i, r := range g.rules {
		cp.rules[i] = r.Copy()
	}
	cp.ntIndex = map[string][]int{}
	for k, v := range g.ntIndex {
		cp.ntIndex[k] = append([]int(nil), v...)
	}
	cp.terms = map[string]termInfo{}
	for k, v := range g.terms {
		cp.terms[k] = v
	}
	cp.termOrder = append([]string(nil), g.termOrder...)
	cp.startSymbols = append([]string(nil), g.startSymbols...)
	cp.precLevels = append([]PrecedenceLevel(nil), g.precLevels...)
	cp.nondeterministic = g.nondeterministic
	cp.nondetAllowedNTs = g.nondetAllowedNTs.Copy()
	cp.voidSymbols = g.voidSymbols.Copy()
	cp.uniqueTerminalSerial = g.uniqueTerminalSerial
	return cp
}

// Augmented returns a copy of g with a fresh start rule S' -> start added
// and S' registered as the sole start symbol, for the construction
// convenience of building one augmented grammar per declared start symbol
// (spec §4.5: "Start state per designated start symbol: item S' -> . S $").
func (g *Grammar) Augmented(start string) *Grammar {
	aug := g.Copy()
	primed := start + "'"
	for aug.IsTerminal(primed) || aug.ntIndex[primed] != nil {
		primed += "'"
	}
	r := aug.AddRule(primed, Production{start})
	r.Constructor = ConstructorKey{Kind: ConstructOffset, Offset: 0}
	aug.startSymbols = []string{primed}
	return aug
}

// LR0Items returns every LR0Item obtainable by placing a dot at every
// position (0..len(RHS)) of every rule in the grammar, i.e. the full item
// set before closure/goto computation (spec §3 "LR item").
func (g *Grammar) LR0Items() []LR0Item {
	var items []LR0Item
	for _, r := range g.rules {
		for dot := 0; dot <= len(r.Production); dot++ {
			items = append(items, LR0Item{
				NonTerminal: r.NonTerminal,
				Left:        append([]string(nil), r.Production[:dot]...),
				Right:       append([]string(nil), r.Production[dot:]...),
				RuleIndex:   r.Index,
			})
		}
	}
	return items
}

// LR0Closure computes the closure of a set of LR0 items: for every item
// with the dot immediately before some non-terminal B, add the initial
// item (dot at position 0) of every rule headed by B, iterating to a
// fixpoint (spec §4.5 "Closure").
func (g *Grammar) LR0Closure(items []LR0Item) []LR0Item {
	seen := util.NewStringSet()
	var out []LR0Item
	var worklist []LR0Item

	add := func(it LR0Item) {
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
		for _, idx := range g.ntIndex[B] {
			r := g.rules[idx]
			add(LR0Item{NonTerminal: B, Right: append([]string(nil), r.Production...), RuleIndex: r.Index})
		}
	}
	return out
}

// LR0Goto computes GOTO(items, X): the closure of every item in items whose
// dot can advance over X.
func (g *Grammar) LR0Goto(items []LR0Item, X string) []LR0Item {
	var moved []LR0Item
	for _, it := range items {
		if !it.AtEnd() && it.NextSymbol() == X {
			moved = append(moved, it.Advance())
		}
	}
	if len(moved) == 0 {
		return nil
	}
	return g.LR0Closure(moved)
}

// Symbols returns every terminal and non-terminal mentioned anywhere in the
// grammar (LHS or RHS), terminals first then non-terminals, each in
// first-seen order. Useful for iterating a fixed symbol universe.
func (g *Grammar) Symbols() (terminals, nonTerminals []string) {
	termSeen := util.NewStringSet()
	ntSeen := util.NewStringSet()
	record := func(sym string) {
		if sym == "" {
			return
		}
		if g.IsTerminal(sym) {
			if !termSeen.Has(sym) {
				termSeen.Add(sym)
				terminals = append(terminals, sym)
			}
		} else {
			if !ntSeen.Has(sym) {
				ntSeen.Add(sym)
				nonTerminals = append(nonTerminals, sym)
			}
		}
	}
	for _, r := range g.rules {
		record(r.NonTerminal)
		for _, sym := range r.Production {
			record(sym)
		}
	}
	return terminals, nonTerminals
}

// Validate checks the grammar invariants from spec §3 that do not require
// the bipartite closure (well-foundedness and reachability are checked
// separately by ValidateClosureInvariants in normalize.go, since they need
// the closure package). Validate checks:
//   - at least one terminal and one rule exist
//   - every non-terminal that appears in some RHS also appears as some LHS
//   - $error$ never appears inside an unexpanded macro call (trivially true
//     here since macro expansion has already happened by the time a Grammar
//     exists; macro-call syntax is a front-end concern out of scope)
//   - every start symbol is a non-terminal
func (g *Grammar) Validate() error {
	var errs icterrors.DefinitionErrors

	if len(g.termOrder) == 0 {
		errs.Addf("grammar has no terminals")
	}
	if len(g.rules) == 0 {
		errs.Addf("grammar has no rules")
	}

	_, nonTerminals := g.Symbols()
	definedNTs := util.NewStringSet()
	for nt := range g.ntIndex {
		definedNTs.Add(nt)
	}
	for _, nt := range nonTerminals {
		if !definedNTs.Has(nt) {
			errs.Addf("non-terminal %q is used but never defined (no rule has it as LHS)", nt)
		}
	}

	for _, s := range g.startSymbols {
		if g.IsTerminal(s) {
			errs.Addf("start symbol %q must be a non-terminal", s)
		}
		if !definedNTs.Has(s) {
			errs.Addf("start symbol %q has no rules", s)
		}
	}

	return errs.ToError()
}

func (g *Grammar) String() string {
	var sb strings.Builder
	names := make([]string, 0, len(g.ntIndex))
	for nt := range g.ntIndex {
		names = append(names, nt)
	}
	sort.Strings(names)
	for _, nt := range names {
		rs := g.RulesFor(nt)
		prods := make([]string, len(rs))
		for i, r := range rs {
			prods[i] = r.Production.String()
		}
		fmt.Fprintf(&sb, "%s -> %s\n", nt, strings.Join(prods, " | "))
	}
	return sb.String()
}
