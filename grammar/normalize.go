package grammar

import (
	"strconv"

	"github.com/lennartw/pelican/internal/icterrors"
	"github.com/lennartw/pelican/internal/util"
)

// ValidateClosureInvariants checks the invariants that require the
// nullability/well-foundedness/reachability closures from sets.go, kept
// separate from Validate so construction code can choose to run the cheap
// structural checks before paying for a closure pass:
//   - every non-terminal is well-founded (can derive some finite string);
//     a non-well-founded non-terminal means every derivation from it is
//     infinite, which no finite input could ever satisfy (spec §3)
//   - every rule is reachable from some start symbol; an unreachable rule
//     is reported as a warning, not a fatal error, since it is harmless to
//     table construction (it simply never participates in any state)
func (g *Grammar) ValidateClosureInvariants() error {
	var errs icterrors.DefinitionErrors

	wf := g.WellFounded()
	for _, nt := range g.NonTerminals() {
		if !wf.Has(nt) {
			errs.Addf("non-terminal %q has no finite derivation (every expansion recurses forever)", nt)
		}
	}

	reachable := util.NewStringSet()
	for _, s := range g.startSymbols {
		reachable = reachable.Union(g.Reachable(s))
	}
	for _, r := range g.rules {
		if !reachable.Has(r.NonTerminal) {
			errs.Warnf("rule %q is unreachable from any start symbol", r.String())
		}
	}

	return errs.ToError()
}

// LiftMidRuleActions rewrites the rule at ruleIndex into an equivalent
// rule in which each "mid-rule action" (spec §3: a semantic action
// attached to an interior RHS position, not just the end) listed in
// midRule is extracted to a fresh epsilon non-terminal inserted right
// after that RHS position. This is the standard mid-rule
// action transformation: `A -> x { act } y` becomes `A -> x M y` with
// `M -> ε { act }` a new rule, so every remaining rule's semantic action
// fires only at full-reduction time (the shape every table-construction
// step and runtime driver in this module assumes).
//
// midRule identifies which RHS positions of r carry a mid-rule action;
// callers (the front-end that built the Grammar) are expected to have
// recorded these out of band, since CaptureMask alone cannot distinguish
// "capture this value for the end action" from "run an action right here".
func (g *Grammar) LiftMidRuleActions(ruleIndex int, midRule map[int]ConstructorKey) *Grammar {
	if len(midRule) == 0 {
		return g
	}
	r := g.rules[ruleIndex]
	newProd := make(Production, 0, len(r.Production)+len(midRule))
	newMask := make([]bool, 0, cap(newProd))
	origMask := r.CaptureMask

	for i, sym := range r.Production {
		if origMask == nil {
			newMask = append(newMask, true)
		} else {
			newMask = append(newMask, origMask[i])
		}
		newProd = append(newProd, sym)

		if ctor, ok := midRule[i]; ok {
			fresh := g.GenerateUniqueTerminal("mra")
			fresh = "$" + fresh + "$" // mark as a synthetic non-terminal name
			epsilonRule := g.AddRule(fresh, Production{})
			epsilonRule.Constructor = ctor
			epsilonRule.Line = r.Line
			newProd = append(newProd, fresh)
			newMask = append(newMask, false)
		}
	}

	r.Production = newProd
	r.CaptureMask = newMask
	g.rules[ruleIndex] = r
	return g
}

// RemoveUnitProductions eliminates renaming rules — rules of the form
// `A -> B` (single non-terminal RHS) whose constructor is a pure
// passthrough (ConstructorKey.IsRenaming()) — by bypassing them in the
// GOTO graph sense: every other rule that could be reached only by first
// reducing through A is rewritten to go directly to B's alternatives,
// following each renaming chain to its end so transitive chains
// (A -> B -> C) collapse in one pass (spec §4.3/§4.5: "renaming rules are
// removed before table construction by substituting the target
// non-terminal's own alternatives wherever the renaming rule appears").
//
// Returns the rewritten grammar and the set of rule indices (into the
// original numbering) that were eliminated, so callers needing to map
// table-construction output back to original rule identity can do so.
func (g *Grammar) RemoveUnitProductions() (*Grammar, util.StringSet) {
	renaming := map[string]string{} // A -> B for every pure-renaming A: B
	for _, r := range g.rules {
		if len(r.Production) == 1 && !g.IsTerminal(r.Production[0]) && r.Constructor.IsRenaming() {
			renaming[r.NonTerminal] = r.Production[0]
		}
	}
	if len(renaming) == 0 {
		return g, util.NewStringSet()
	}

	resolve := func(nt string) string {
		target := nt
		seen := util.NewStringSet()
		for {
			next, ok := renaming[target]
			if !ok {
				return target
			}
			if seen.Has(next) {
				return target // cycle of pure renamings; leave as-is
			}
			seen.Add(next)
			target = next
		}
	}

	out := g.Copy()
	var newRules []Rule
	eliminated := util.NewStringSet()
	for _, r := range out.rules {
		if _, isRenaming := renaming[r.NonTerminal]; isRenaming && len(r.Production) == 1 && r.Constructor.IsRenaming() {
			eliminated.Add(strconv.Itoa(r.Index))
			continue
		}
		replaced := make(Production, len(r.Production))
		for i, sym := range r.Production {
			if target, isRename := renaming[sym]; isRename {
				replaced[i] = resolve(target)
			} else {
				replaced[i] = sym
			}
		}
		r.Production = replaced
		newRules = append(newRules, r)
	}

	out.rules = nil
	out.ntIndex = map[string][]int{}
	for _, r := range newRules {
		idx := len(out.rules)
		r.Index = idx
		out.rules = append(out.rules, r)
		out.ntIndex[r.NonTerminal] = append(out.ntIndex[r.NonTerminal], idx)
	}

	for i := range out.startSymbols {
		out.startSymbols[i] = resolve(out.startSymbols[i])
	}

	return out, eliminated
}
