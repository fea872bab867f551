package parse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/internal/util"
)

// Method names the LR-family construction mode used to build a Table.
type Method int

// MethodLALR1 is the zero value: the LR-family flagship and the right
// default when a caller hasn't picked a specific construction mode.
const (
	MethodLALR1 Method = iota
	MethodLR0
	MethodSLR1
	MethodCLR1
	MethodMinimalLR1
)

func (m Method) String() string {
	switch m {
	case MethodLR0:
		return "LR(0)"
	case MethodSLR1:
		return "SLR(1)"
	case MethodLALR1:
		return "LALR(1)"
	case MethodCLR1:
		return "canonical LR(1)"
	case MethodMinimalLR1:
		return "minimal LR(1)"
	default:
		return "unknown"
	}
}

// RuleInfo is one entry of a table's rule metadata array, keyed by
// Rule.Index: everything a reducer needs to build the reduction's value
// without re-consulting the grammar.
type RuleInfo struct {
	LHS            string
	RHSLen         int
	Constructor    grammar.ConstructorKey
	CaptureOffsets []int
	HasErrorSymbol bool
}

// Table is the output of LR-family construction: an ACTION/GOTO pair of
// matrices over integer states, plus the rule metadata array and any
// conflict/ambiguity diagnostics accumulated during construction.
type Table struct {
	Method    Method
	Grammar   *grammar.Grammar // the original, non-augmented grammar
	NumStates int
	Start     int
	Rules     []RuleInfo

	action []map[string]LRAction
	goTo   []map[string]int

	// alternatives[s][term] holds every candidate action deriveStateActions
	// saw for (s, term) before conflict resolution picked a winner for
	// action[s][term] — a deterministic Table only ever consults Action, but
	// glr.Parser forks over every entry here instead of the resolved one.
	alternatives []map[string][]LRAction

	// Breadcrumb[s] is the grammar symbol whose shift/goto reached state s
	// from its predecessor in the construction BFS; the start state's is
	// "".
	Breadcrumb []string

	conflicts []string
}

// Conflicts returns every conflict/ambiguity warning recorded while
// building the table, in the order they were found.
func (t *Table) Conflicts() []string { return t.conflicts }

// Action returns the ACTION table entry for (state, terminal), or an
// LRError action if none is defined.
func (t *Table) Action(state int, terminal string) LRAction {
	if state < 0 || state >= len(t.action) {
		return LRAction{Type: LRError}
	}
	if act, ok := t.action[state][terminal]; ok {
		return act
	}
	return LRAction{Type: LRError}
}

// Goto returns the GOTO table entry for (state, nonTerminal).
func (t *Table) Goto(state int, symbol string) (int, error) {
	if state < 0 || state >= len(t.goTo) {
		return 0, fmt.Errorf("GOTO[%d, %q]: state out of range", state, symbol)
	}
	if s, ok := t.goTo[state][symbol]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("GOTO[%d, %q] is an error entry", state, symbol)
}

// Initial returns the start state.
func (t *Table) Initial() int { return t.Start }

// Alternatives returns every candidate action deriveStateActions found for
// (state, terminal) before conflict resolution collapsed them to the single
// winner Action returns — for a cell with no conflict this is exactly one
// action (or none). A generalized parser forks a stack once per entry here
// instead of trusting Action's resolved pick.
func (t *Table) Alternatives(state int, terminal string) []LRAction {
	if state < 0 || state >= len(t.alternatives) {
		return nil
	}
	return t.alternatives[state][terminal]
}

// ExpectedTerminals returns every terminal (and EndOfInput) with a
// non-error ACTION entry at state, for expected-token diagnostics.
func (t *Table) ExpectedTerminals(state int) []string {
	var out []string
	for _, term := range t.Grammar.Terminals() {
		if t.Action(state, term).Type != LRError {
			out = append(out, term)
		}
	}
	if t.Action(state, grammar.EndOfInput).Type != LRError {
		out = append(out, grammar.EndOfInput)
	}
	return out
}

func (t *Table) String() string {
	allTerms := append(append([]string(nil), t.Grammar.Terminals()...), grammar.EndOfInput)
	_, nonTerms := t.Grammar.Symbols()

	data := [][]string{}
	headers := []string{"S", "|"}
	for _, term := range allTerms {
		headers = append(headers, "A:"+term)
	}
	headers = append(headers, "|")
	for _, nt := range nonTerms {
		headers = append(headers, "G:"+nt)
	}
	data = append(data, headers)

	for s := 0; s < t.NumStates; s++ {
		row := []string{fmt.Sprintf("%d", s), "|"}
		for _, term := range allTerms {
			act := t.Action(s, term)
			cell := ""
			switch act.Type {
			case LRAccept:
				cell = "acc"
			case LRReduce:
				cell = fmt.Sprintf("r%s -> %s", act.Symbol, act.Production.String())
			case LRShiftReduce:
				cell = fmt.Sprintf("sr%s -> %s", act.Symbol, act.Production.String())
			case LRShift:
				cell = fmt.Sprintf("s%d", act.State)
			case LRError:
				// blank
			}
			row = append(row, cell)
		}
		row = append(row, "|")
		for _, nt := range nonTerms {
			cell := ""
			if g, err := t.Goto(s, nt); err == nil {
				cell = fmt.Sprintf("%d", g)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

// stateItem is one item of a generic construction-mode state, carrying its
// own explicit lookahead set (for LR(0)/SLR(1) this is the same set for
// every item sharing a head non-terminal; for LALR(1)/CLR(1)/minimal-LR(1)
// it is whatever that mode's construction discovered for this exact item
// in this exact state).
type stateItem struct {
	Item       grammar.LR0Item
	Lookaheads util.StringSet
}

// genericState is the representation every construction mode converges on
// before table-building: a set of stateItems plus a GOTO map, independent
// of how the state's identity or item set was derived.
type genericState struct {
	Items []stateItem
	Goto  map[string]int
}

// options configures the shared table builder.
type options struct {
	AllowAmbiguous bool
}

// buildTableFromStates runs the shared ACTION/GOTO derivation (handle
// detection, precedence-based shift/reduce resolution, reduce/reduce
// tie-break) over a mode-specific state list. aug is the augmented
// grammar; orig is the grammar the caller actually wants rules/metadata
// from.
func buildTableFromStates(aug, orig *grammar.Grammar, automaton *LR0Automaton, states []genericState, start int, method Method, opts options) (*Table, error) {
	t := &Table{
		Method:    method,
		Grammar:   orig,
		NumStates: len(states),
		Start:     start,
		action:       make([]map[string]LRAction, len(states)),
		goTo:         make([]map[string]int, len(states)),
		alternatives: make([]map[string][]LRAction, len(states)),
	}
	t.Rules = make([]RuleInfo, len(orig.Rules()))
	for _, r := range orig.Rules() {
		t.Rules[r.Index] = RuleInfo{
			LHS:            r.NonTerminal,
			RHSLen:         len(r.Production),
			Constructor:    r.Constructor,
			CaptureOffsets: r.CapturedPositions(),
			HasErrorSymbol: r.HasErrorSymbol(),
		}
	}

	t.Breadcrumb = make([]string, len(states))
	for _, st := range states {
		for sym, to := range st.Goto {
			if t.Breadcrumb[to] == "" && to != start {
				t.Breadcrumb[to] = sym
			}
		}
	}

	for i, st := range states {
		actions, gotos, alts, conflicts := deriveStateActions(orig, automaton, st)
		t.action[i] = actions
		t.goTo[i] = gotos
		t.alternatives[i] = alts
		t.conflicts = append(t.conflicts, conflicts...)
	}

	if !opts.AllowAmbiguous && len(t.conflicts) > 0 {
		return t, fmt.Errorf("grammar is not %s: %s", method, strings.Join(t.conflicts, "; "))
	}
	return t, nil
}

// deriveStateActions computes the ACTION/GOTO entries for a single state:
// shift entries straight from Goto over terminals, non-terminal Goto
// passed through unchanged, reduce/accept entries from every AtEnd item
// gated by its Lookaheads, with shift/reduce conflicts resolved by
// precedence and reduce/reduce conflicts broken by lowest rule index. Used
// both by buildTableFromStates (building the final table) and by the
// minimal-LR(1) construction's merge-safety probe (counting conflicts a
// prospective merge would introduce without committing to it).
func deriveStateActions(orig *grammar.Grammar, automaton *LR0Automaton, st genericState) (map[string]LRAction, map[string]int, map[string][]LRAction, []string) {
	action := map[string]LRAction{}
	gotos := map[string]int{}
	alts := map[string][]LRAction{}
	var conflicts []string

	shiftActs := map[string]LRAction{}
	for X, j := range st.Goto {
		if orig.IsTerminal(X) {
			shiftActs[X] = LRAction{Type: LRShift, State: j}
		} else {
			gotos[X] = j
		}
	}

	reduceActs := map[string][]LRAction{}
	for _, si := range st.Items {
		if !si.Item.AtEnd() {
			continue
		}
		if automaton.IsAcceptItem(si.Item) {
			if si.Lookaheads.Has(grammar.EndOfInput) {
				if existing, ok := action[grammar.EndOfInput]; ok && !existing.Equal(LRAction{Type: LRAccept}) {
					conflicts = append(conflicts, makeLRConflictError(existing, LRAction{Type: LRAccept}, grammar.EndOfInput).Error())
				} else {
					action[grammar.EndOfInput] = LRAction{Type: LRAccept}
				}
			}
			continue
		}
		act := LRAction{
			Type:       LRReduce,
			Symbol:     si.Item.NonTerminal,
			Production: si.Item.Production(),
			RuleIndex:  si.Item.RuleIndex,
		}
		for la := range si.Lookaheads {
			reduceActs[la] = append(reduceActs[la], act)
		}
	}

	for term, sAct := range shiftActs {
		rActs := reduceActs[term]
		if len(rActs) == 0 {
			action[term] = sAct
			continue
		}
		action[term] = resolveShiftReduceGroup(orig, sAct, rActs, term, options{}, &conflicts)
	}
	for term, rActs := range reduceActs {
		if _, hasShift := shiftActs[term]; hasShift {
			continue
		}
		best := rActs[0]
		for _, r := range rActs[1:] {
			conflicts = append(conflicts, makeLRConflictError(best, r, term).Error())
			if r.RuleIndex < best.RuleIndex {
				best = r
			}
		}
		action[term] = best
	}

	for term, sAct := range shiftActs {
		alts[term] = append(alts[term], sAct)
	}
	for term, rActs := range reduceActs {
		alts[term] = append(alts[term], rActs...)
	}
	if acc, ok := action[grammar.EndOfInput]; ok && acc.Type == LRAccept {
		alts[grammar.EndOfInput] = append(alts[grammar.EndOfInput], acc)
	}

	return action, gotos, alts, conflicts
}

func resolveShiftReduceGroup(g *grammar.Grammar, shift LRAction, reduces []LRAction, term string, opts options, conflicts *[]string) LRAction {
	best := reduces[0]
	for _, r := range reduces[1:] {
		*conflicts = append(*conflicts, makeLRConflictError(best, r, term).Error())
		if r.RuleIndex < best.RuleIndex {
			best = r
		}
	}

	rule := g.Rule(best.RuleIndex)
	switch resolvePrecedence(g, rule, term) {
	case verdictShift:
		return shift
	case verdictReduce:
		return best
	case verdictError:
		*conflicts = append(*conflicts, fmt.Sprintf("nonassociative operator %q: shift/reduce conflict resolved as error", term))
		return LRAction{Type: LRError}
	default:
		*conflicts = append(*conflicts, makeLRConflictError(shift, best, term).Error())
		return shift
	}
}

// mergeByCore groups LR1 items sharing the same core into stateItems,
// unioning their lookaheads.
func mergeByCore(items []grammar.LR1Item) []stateItem {
	order := []string{}
	byCore := map[string]*stateItem{}
	for _, it := range items {
		key := it.LR0Item.String()
		si, ok := byCore[key]
		if !ok {
			si = &stateItem{Item: it.LR0Item, Lookaheads: util.NewStringSet()}
			byCore[key] = si
			order = append(order, key)
		}
		si.Lookaheads.Add(it.Lookahead)
	}
	sort.Strings(order)
	out := make([]stateItem, len(order))
	for i, k := range order {
		out[i] = *byCore[k]
	}
	return out
}
