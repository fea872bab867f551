package glr

import (
	"fmt"

	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/parse"
)

// derivation is one node of the (potentially shared) derivation forest a
// generalized parse builds up: either a leaf (a shifted terminal's value) or
// an internal node recording which rule reduced which child derivations,
// with construction deferred until a derivation is chosen as part of an
// accepted parse. This is what lets glr honor spec's "deferred" semantic
// action discipline: nothing calls a Constructor until a run's Finish walks
// the winning derivation(s).
type derivation struct {
	span Span

	// leaf holds a shifted terminal's value directly; rule is nil for a leaf.
	leaf    any
	isLeaf  bool
	rule    *parse.RuleInfo
	args    []*derivation
}

func leafDerivation(value any, span Span) *derivation {
	return &derivation{leaf: value, isLeaf: true, span: span}
}

func reduceDerivation(rule *parse.RuleInfo, args []*derivation, span Span) *derivation {
	return &derivation{rule: rule, args: args, span: span}
}

// instantiate runs constructors bottom-up over d, memoizing by pointer
// identity so a derivation shared by more than one path is only built once.
func instantiate(d *derivation, ctors Constructors, memo map[*derivation]any) (any, error) {
	if v, ok := memo[d]; ok {
		return v, nil
	}
	if d.isLeaf {
		memo[d] = d.leaf
		return d.leaf, nil
	}

	args := make([]any, len(d.args))
	for i, child := range d.args {
		v, err := instantiate(child, ctors, memo)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	v, err := construct(d.rule.Constructor, args, d.span, ctors)
	if err != nil {
		return nil, err
	}
	memo[d] = v
	return v, nil
}

// construct dispatches a rule's constructor key exactly as rt.Driver's
// unexported twin does; kept separate because glr's callers run it lazily
// (possibly never, for a derivation that loses out to a sibling) instead of
// inline with every reduce.
func construct(key grammar.ConstructorKey, args []any, span Span, ctors Constructors) (any, error) {
	switch key.Kind {
	case grammar.ConstructOffset:
		if key.Offset < 0 || key.Offset >= len(args) {
			return nil, fmt.Errorf("glr: constructor offset %d out of range for %d captured argument(s)", key.Offset, len(args))
		}
		return args[key.Offset], nil
	case grammar.ConstructMessage:
		fn, ok := ctors[key.Name]
		if !ok {
			return nil, fmt.Errorf("glr: no constructor registered for %q", key.Name)
		}
		return fn(args, span)
	default: // grammar.ConstructDefaultTuple
		return args, nil
	}
}

// combineSpans mirrors rt's: the first popped entry's position, every
// non-empty entry text space-joined; an epsilon reduction has nothing to combine,
// so it inherits the lookahead token's span.
func combineSpans(popped []*derivation, fallback Span) Span {
	if len(popped) == 0 {
		return fallback
	}
	first := popped[0].span
	text := first.Text
	for _, d := range popped[1:] {
		if d.span.Text == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += d.span.Text
	}
	return Span{SrcLine: first.SrcLine, SrcCol: first.SrcCol, Text: text, Full: first.Full}
}
