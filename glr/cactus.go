package glr

import (
	"fmt"

	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/parse"
)

// cactusNode is one frame of a brute-force tip's private stack: unlike the
// GSS, nothing here is ever shared between tips, so a reduce just walks
// straight up the parent chain and a reduction's value can be built
// immediately — this is what gives the cactus-stack strategy spec's
// "purity" discipline for free, at the cost of duplicating whatever work
// two tips have in common.
type cactusNode struct {
	state  int
	value  any
	span   Span
	parent *cactusNode
}

// cactusClosureBudget bounds how many non-consuming reduce steps a single
// tip may take while closing over one input position. A grammar with
// hidden left recursion (an epsilon-derivable non-terminal feeding its own
// left-recursive production) drives this unbounded, so exceeding the
// budget is treated as that cycle having been detected; a real grammar
// never approaches it. This is a cheaper stand-in for pre-analyzing the
// grammar for epsilon-producible non-terminals in left-recursive position,
// which is the case the cactus stack fundamentally cannot handle (spec
// says to use the GSS strategy there instead).
const cactusClosureBudget = 4096

// CactusRun is one brute-force generalized parse: a set of independent
// tips, each its own linked stack, cloned per alternative on every
// non-deterministic cell.
type CactusRun struct {
	parser *Parser
	tips   []*cactusNode
	dead   bool
}

// NewCactusRun starts a fresh brute-force parse over p's table.
func (p *Parser) NewCactusRun() *CactusRun {
	return &CactusRun{parser: p, tips: []*cactusNode{{state: p.Table.Initial()}}}
}

// Feed closes every tip over its reduce actions (forking a clone per
// alternative reduce, per spec's "clone the current tip per alternative"),
// then shifts the terminal into each survivor (again forking on multiple
// shift alternatives). A tip with no legal action simply does not survive
// into the next generation; Feed fails only once every tip has died.
func (cr *CactusRun) Feed(terminal string, value any, span Span) error {
	if cr.dead {
		return fmt.Errorf("glr: cactus run already dead, cannot feed %q", terminal)
	}

	closed, err := cr.closure(terminal, span)
	if err != nil {
		return err
	}

	var next []*cactusNode
	for _, tip := range closed {
		for _, act := range cr.parser.Table.Alternatives(tip.state, terminal) {
			switch act.Type {
			case parse.LRShift:
				next = append(next, &cactusNode{state: act.State, value: value, span: span, parent: tip})
			case parse.LRShiftReduce:
				leaf := &cactusNode{value: value, span: span, parent: tip}
				rule := &cr.parser.Table.Rules[act.RuleIndex]
				base, popped, ok := reduceFrom(leaf, rule.RHSLen)
				if !ok {
					continue
				}
				newState, gerr := cr.parser.Table.Goto(base.state, act.Symbol)
				if gerr != nil {
					continue
				}
				resultSpan := combineCactusSpans(popped, span)
				v, cerr := construct(rule.Constructor, cactusArgs(popped, rule), resultSpan, cr.parser.Constructors)
				if cerr != nil {
					return cerr
				}
				next = append(next, &cactusNode{state: newState, value: v, span: resultSpan, parent: base})
			}
		}
	}

	if len(next) == 0 {
		cr.dead = true
		return fmt.Errorf("glr: no live tip accepts %q", terminal)
	}
	cr.tips = next
	return nil
}

// reduceFrom walks back rhsLen frames from top, the way a plain stack pop
// would: top itself is the rightmost popped frame. base is the frame
// goto is computed from; ok is false if top's chain is shorter than
// rhsLen, which never happens for a table built from a sound grammar but
// is checked defensively since cactus nodes are built by hand here.
func reduceFrom(top *cactusNode, rhsLen int) (base *cactusNode, popped []*cactusNode, ok bool) {
	popped = make([]*cactusNode, rhsLen)
	chain := top
	for i := rhsLen - 1; i >= 0; i-- {
		if chain == nil {
			return nil, nil, false
		}
		popped[i] = chain
		chain = chain.parent
	}
	base = top
	if rhsLen > 0 {
		base = popped[0].parent
	}
	return base, popped, true
}

// closure repeatedly reduces every tip until only shift/accept/error
// actions remain, forking a clone per alternative action along the way.
func (cr *CactusRun) closure(terminal string, lookahead Span) ([]*cactusNode, error) {
	work := append([]*cactusNode(nil), cr.tips...)
	var settled []*cactusNode
	steps := 0

	for len(work) > 0 {
		tip := work[0]
		work = work[1:]

		hasReduce := false
		hasOtherAction := false
		for _, act := range cr.parser.Table.Alternatives(tip.state, terminal) {
			if act.Type != parse.LRReduce {
				if act.Type != parse.LRError {
					hasOtherAction = true
				}
				continue
			}
			hasReduce = true
			steps++
			if steps > cactusClosureBudget {
				return nil, fmt.Errorf("glr: cactus stack exceeded its closure budget (likely hidden left recursion); use the GSS strategy for this grammar")
			}

			rule := &cr.parser.Table.Rules[act.RuleIndex]
			base, popped, ok := reduceFrom(tip, rule.RHSLen)
			if !ok {
				continue
			}
			newState, gerr := cr.parser.Table.Goto(base.state, act.Symbol)
			if gerr != nil {
				continue
			}
			resultSpan := combineCactusSpans(popped, lookahead)
			v, cerr := construct(rule.Constructor, cactusArgs(popped, rule), resultSpan, cr.parser.Constructors)
			if cerr != nil {
				return nil, cerr
			}
			work = append(work, &cactusNode{state: newState, value: v, span: resultSpan, parent: base})
		}
		if !hasReduce || hasOtherAction {
			settled = append(settled, tip)
		}
	}
	return settled, nil
}

// Finish signals end-of-input: close over EndOfInput, then every settled
// tip whose action there is accept contributes its value to the result.
func (cr *CactusRun) Finish() ([]any, error) {
	if cr.dead {
		return nil, fmt.Errorf("glr: cactus run already dead at end of input")
	}
	settled, err := cr.closure(grammar.EndOfInput, Span{})
	if err != nil {
		return nil, err
	}

	var values []any
	for _, tip := range settled {
		for _, act := range cr.parser.Table.Alternatives(tip.state, grammar.EndOfInput) {
			if act.Type == parse.LRAccept {
				values = append(values, tip.value)
			}
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("glr: no tip reached accept at end of input")
	}
	if len(values) > 1 && cr.parser.Ambiguity != nil {
		merged, err := cr.parser.Ambiguity(values)
		if err != nil {
			return nil, err
		}
		return []any{merged}, nil
	}
	return values, nil
}

func cactusArgs(popped []*cactusNode, rule *parse.RuleInfo) []any {
	args := make([]any, 0, len(rule.CaptureOffsets))
	for _, off := range rule.CaptureOffsets {
		if off >= 0 && off < len(popped) {
			args = append(args, popped[off].value)
		}
	}
	return args
}

func combineCactusSpans(popped []*cactusNode, fallback Span) Span {
	if len(popped) == 0 {
		return fallback
	}
	first := popped[0].span
	text := first.Text
	for _, n := range popped[1:] {
		if n.span.Text == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += n.span.Text
	}
	return Span{SrcLine: first.SrcLine, SrcCol: first.SrcCol, Text: text, Full: first.Full}
}
