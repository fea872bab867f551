package parse

import "github.com/lennartw/pelican/grammar"

// GenerateMinimalLR1Parser builds a minimal-LR(1) table for g: a table no
// larger than canonical LR(1) but, wherever safe, no larger than LALR(1)
// either. States of the canonical-LR(1) automaton are grouped by their
// LR(0) core; each group is tentatively merged into one state exactly as
// LALR(1) would merge it. If the merged state's action set is conflict
// free, the merge is kept (this is the common case: most grammars that
// are LALR(1) have every core-group merge safely). If the merged state has
// any conflict at all, including one an individual canonical state in the
// group already had, the merge for that group is abandoned and its
// canonical states are kept distinct.
//
// This is a deliberately conservative approximation of full minimal-LR(1)
// splitting, which instead traces conflicts back through the predecessor
// graph and splits only the specific tainted items along the paths that
// need it. The approximation here never produces more states than
// canonical LR(1) and never fewer than are needed to stay conflict-free,
// but it may split an entire core group where a finer algorithm would
// split only part of it. See DESIGN.md for the tradeoff this records.
func GenerateMinimalLR1Parser(g *grammar.Grammar, allowAmbig bool) (*Table, []string, error) {
	start := g.StartSymbol()
	aug := g.Augmented(start)
	clr1 := buildCLR1Automaton(aug)
	core := clr1.coreAutomatonView(aug.StartSymbol(), start)

	canonicalStates := make([]genericState, len(clr1.States))
	for i, s := range clr1.States {
		canonicalStates[i] = genericState{Items: mergeByCore(s.Items), Goto: s.Goto}
	}

	groups := map[string][]int{}
	var groupOrder []string
	coreKeys := make([]string, len(core.States))
	for i, st := range core.States {
		key := itemSetKey(st.Items)
		coreKeys[i] = key
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], i)
	}

	canonicalToFinal := make([]int, len(clr1.States))
	var finalStates []genericState

	for _, key := range groupOrder {
		members := groups[key]
		if len(members) == 1 {
			finalID := len(finalStates)
			finalStates = append(finalStates, canonicalStates[members[0]])
			canonicalToFinal[members[0]] = finalID
			continue
		}

		merged := mergeGroup(canonicalStates, members)
		_, _, _, conflicts := deriveStateActions(g, core, merged)
		if len(conflicts) == 0 {
			finalID := len(finalStates)
			finalStates = append(finalStates, merged)
			for _, m := range members {
				canonicalToFinal[m] = finalID
			}
			continue
		}

		for _, m := range members {
			finalID := len(finalStates)
			finalStates = append(finalStates, canonicalStates[m])
			canonicalToFinal[m] = finalID
		}
	}

	for i := range finalStates {
		remapped := map[string]int{}
		for sym, target := range finalStates[i].Goto {
			remapped[sym] = canonicalToFinal[target]
		}
		finalStates[i].Goto = remapped
	}

	table, err := buildTableFromStates(aug, g, core, finalStates, canonicalToFinal[clr1.Start], MethodMinimalLR1, options{AllowAmbiguous: allowAmbig})
	if table != nil {
		return table, table.Conflicts(), err
	}
	return nil, nil, err
}

// mergeGroup unions the item lookahead sets of every canonical state in
// members that share the same core, producing the single state LALR(1)
// would have merged them into. Goto maps agree across the group by
// construction (same core implies same outgoing transitions by symbol),
// so the first member's is used as-is.
func mergeGroup(states []genericState, members []int) genericState {
	byCore := map[string]*stateItem{}
	var order []string
	for _, m := range members {
		for _, si := range states[m].Items {
			key := si.Item.String()
			cur, ok := byCore[key]
			if !ok {
				cp := stateItem{Item: si.Item, Lookaheads: si.Lookaheads.Copy()}
				byCore[key] = &cp
				order = append(order, key)
				continue
			}
			cur.Lookaheads.AddAll(si.Lookaheads)
		}
	}
	items := make([]stateItem, len(order))
	for i, k := range order {
		items[i] = *byCore[k]
	}
	return genericState{Items: items, Goto: states[members[0]].Goto}
}
