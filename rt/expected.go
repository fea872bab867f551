package rt

import (
	"sort"

	"github.com/lennartw/pelican/parse"
)

// maxExpectedDepth bounds the epsilon-chain simulation in expectedTerminals
// so a pathological grammar can't recurse forever; real grammars bottom out
// in a handful of steps.
const maxExpectedDepth = 64

// expectedTerminals returns every terminal that could legally come next
// from state: those directly shiftable, plus (per spec's "recursive
// simulation with care around epsilon rules") those reachable by first
// simulating zero or more epsilon reduces out of state. A non-epsilon
// reduce is not simulated here since it needs entries already on the real
// stack that this static, single-state view doesn't have; expectedTerminals
// is therefore a slight underapproximation for errors that would only
// clear after popping real stack entries, which Table.ExpectedTerminals
// alone already covers for the direct (depth-0) case.
func (d *Driver) expectedTerminals(state int) []string {
	seen := map[int]bool{}
	found := map[string]bool{}

	var visit func(state, depth int)
	visit = func(state int, depth int) {
		if seen[state] || depth > maxExpectedDepth {
			return
		}
		seen[state] = true

		for _, term := range d.Table.Grammar.Terminals() {
			act := d.Table.Action(state, term)
			if act.Type == parse.LRError {
				continue
			}
			// Any non-error action — shift, shift-reduce, reduce, or
			// accept — makes term a legal next token from state, even
			// though a reduce doesn't shift term itself until after the
			// goto chain settles.
			found[term] = true

			if act.Type == parse.LRReduce && d.Table.Rules[act.RuleIndex].RHSLen == 0 {
				if g, err := d.Table.Goto(state, act.Symbol); err == nil {
					visit(g, depth+1)
				}
			}
		}
	}
	visit(state, 0)

	out := make([]string, 0, len(found))
	for t := range found {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
