package glr

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/parse"
)

// Run is one in-progress generalized parse: the mutable state (arena,
// frontier, dead flag) a Parser's read-only table is driven through. A
// Parser is safely shared across any number of concurrent Runs, per spec's
// "no shared mutable state across parses" — each gets its own arena, so
// nothing about one Run's graph is visible to another's.
type Run struct {
	id     uuid.UUID
	parser *Parser

	arena    *arena
	frontier map[int]int // state -> node index, at the current input position
	dead     bool
}

// ID identifies this run for trace correlation; it has no meaning beyond
// this process and is never persisted or compared across runs.
func (r *Run) ID() uuid.UUID { return r.id }

// NewRun starts a fresh generalized parse over p's table.
func (p *Parser) NewRun() *Run {
	a := newArena()
	start := a.newNode(p.Table.Initial())
	return &Run{
		id:       uuid.New(),
		parser:   p,
		arena:    a,
		frontier: map[int]int{p.Table.Initial(): start},
	}
}

// Feed advances every active derivation by one terminal: first the
// reduce-closure settles every reduction reachable at the current position,
// then every settled node shifts (or shift-reduces) the terminal to build
// the next position's frontier. Feed reports an error only when every
// derivation dies (no node has any legal action on terminal) — spec's
// "all tips dead -> parse fails".
func (r *Run) Feed(terminal string, value any, span Span) error {
	if r.dead {
		return fmt.Errorf("glr: run already dead, cannot feed %q", terminal)
	}

	r.reduceClosure(terminal, span)

	next := map[int]int{}

	for _, idx := range r.frontier {
		state := r.arena.nodes[idx].state
		for _, act := range r.parser.Table.Alternatives(state, terminal) {
			switch act.Type {
			case parse.LRShift:
				r.mergeShift(next, act.State, idx, leafDerivation(value, span), fmt.Sprintf("shift:%d", idx))
			case parse.LRShiftReduce:
				rule := &r.parser.Table.Rules[act.RuleIndex]
				for _, path := range r.arena.walkBack(idx, rule.RHSLen-1) {
					originState := r.arena.nodes[path.origin].state
					newState, err := r.parser.Table.Goto(originState, act.Symbol)
					if err != nil {
						continue
					}
					args := append(append([]*derivation(nil), path.args...), leafDerivation(value, span))
					d := reduceDerivation(rule, args, combineSpans(args, span))
					r.mergeShift(next, newState, path.origin, d, fmt.Sprintf("shiftreduce:%d:%d", path.origin, act.RuleIndex))
				}
			}
		}
	}

	if len(next) == 0 {
		r.dead = true
		return fmt.Errorf("glr: no live derivation accepts %q", terminal)
	}
	r.frontier = next
	r.parser.notify("fed %q: %d active node(s)", terminal, len(next))
	return nil
}

// mergeShift creates (or merges into) the node for newState in next,
// recording an edge back to fromIdx carrying d.
func (r *Run) mergeShift(next map[int]int, newState, fromIdx int, d *derivation, dedupKey string) {
	idx, ok := next[newState]
	if !ok {
		idx = r.arena.newNode(newState)
		next[newState] = idx
	}
	r.arena.addEdge(idx, fromIdx, d, dedupKey)
}

// reduceClosure runs every reduce action reachable from the current
// frontier to a fixpoint: a full sweep that adds no new edge to any node
// ends the closure. This is a blunter instrument than Farshi's refinement
// (which re-triggers only the specific nodes a new edge could newly
// enable), but it is correct for the same reason a reachability fixpoint
// always is, and every grammar spec exercises this parser against is small
// enough that the extra sweeps are not a practical concern.
func (r *Run) reduceClosure(terminal string, lookahead Span) {
	for {
		changed := false
		ids := make([]int, 0, len(r.frontier))
		for _, idx := range r.frontier {
			ids = append(ids, idx)
		}
		for _, idx := range ids {
			state := r.arena.nodes[idx].state
			for _, act := range r.parser.Table.Alternatives(state, terminal) {
				if act.Type != parse.LRReduce {
					continue
				}
				rule := &r.parser.Table.Rules[act.RuleIndex]
				for _, path := range r.arena.walkBack(idx, rule.RHSLen) {
					originState := r.arena.nodes[path.origin].state
					newState, err := r.parser.Table.Goto(originState, act.Symbol)
					if err != nil {
						continue
					}
					span := combineSpans(path.args, lookahead)
					d := reduceDerivation(rule, path.args, span)
					dedupKey := fmt.Sprintf("%d:%d", path.origin, act.RuleIndex)

					target, ok := r.frontier[newState]
					if !ok {
						target = r.arena.newNode(newState)
						r.frontier[newState] = target
					}
					if r.arena.addEdge(target, path.origin, d, dedupKey) {
						changed = true
					}
				}
			}
		}
		if !changed {
			return
		}
	}
}

// Finish signals end-of-input: it runs one last reduce-closure on
// grammar.EndOfInput and collects every accepting derivation, i.e. every
// edge value feeding into a node whose action on EndOfInput is accept. Zero
// results means every derivation failed to reach accept; more than one
// means the input was genuinely ambiguous, resolved per spec's semantic
// action disciplines: merged through Parser.Ambiguity if set, else
// returned as-is for the caller to choose among.
func (r *Run) Finish() ([]any, error) {
	if r.dead {
		return nil, fmt.Errorf("glr: run already dead at end of input")
	}
	r.reduceClosure(grammar.EndOfInput, Span{})

	var derivations []*derivation
	for _, idx := range r.frontier {
		state := r.arena.nodes[idx].state
		for _, act := range r.parser.Table.Alternatives(state, grammar.EndOfInput) {
			if act.Type != parse.LRAccept {
				continue
			}
			for _, raw := range r.arena.nodes[idx].edges.Values() {
				derivations = append(derivations, raw.(gssEdge).value)
			}
		}
	}
	if len(derivations) == 0 {
		return nil, fmt.Errorf("glr: no derivation reached accept at end of input")
	}

	memo := map[*derivation]any{}
	values := make([]any, 0, len(derivations))
	for _, d := range derivations {
		v, err := instantiate(d, r.parser.Constructors, memo)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	if len(values) > 1 && r.parser.Ambiguity != nil {
		merged, err := r.parser.Ambiguity(values)
		if err != nil {
			return nil, err
		}
		return []any{merged}, nil
	}
	return values, nil
}
