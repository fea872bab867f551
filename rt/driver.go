// Package rt is the push-mode runtime for a parse.Table: a deterministic
// shift-reduce driver with structured $error$-production recovery (trial
// parse, discard/admit, quiescence window), and expected-token diagnostics.
//
// It is the push-mode sibling of the teacher's lrParser.Parse — the same
// Algorithm 4.44 loop, restructured around feed/finish instead of a single
// blocking Parse(stream) call, with the recovery routine actually
// implemented (the teacher's own driver stops at a TODO and reports every
// syntax error as fatal).
package rt

import (
	"fmt"
	"sort"

	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/internal/icterrors"
	"github.com/lennartw/pelican/parse"
)

// Constructor builds a reduction's semantic value from its captured
// argument list and the reduction's combined span.
type Constructor func(args []any, span Span) (any, error)

// Constructors maps a rule's named constructor (grammar.ConstructorKey's
// Name, for Kind == grammar.ConstructMessage) to the function that builds
// its value.
type Constructors map[string]Constructor

type entry struct {
	state int
	value any
	span  Span
}

type recoveryMode int

const (
	modeNormal recoveryMode = iota
	modeDiscarding
	modeTrialParsing
)

type fedInput struct {
	terminal string
	value    any
	span     Span
}

// Driver runs a parse.Table in push mode: callers feed it one terminal at
// a time and it drives shifts, reduces, and $error$-recovery internally.
type Driver struct {
	Table        *parse.Table
	Constructors Constructors

	// OnError is called, at most once per distinct syntax error (suppressed
	// during the post-commit quiescence window), with a diagnostic
	// describing the unexpected input.
	OnError func(err error)
	// OnRecovered is called once a trial parse commits successfully.
	OnRecovered func()

	trace func(string)

	stack []entry

	mode         recoveryMode
	admissible   map[string]bool
	recoverDepth int
	errorSpan    Span

	trialStack  []entry
	trialBuffer []fedInput
	trialStreak int

	quiescence int
}

// NewDriver builds a Driver ready to parse against table, dispatching named
// constructors through ctors.
func NewDriver(table *parse.Table, ctors Constructors) *Driver {
	return &Driver{
		Table:        table,
		Constructors: ctors,
		stack:        []entry{{state: table.Initial()}},
	}
}

// SetTraceListener registers f to receive a line of trace output for every
// internal step (peek, shift, reduce, goto), mirroring lrParser's
// RegisterTraceListener.
func (d *Driver) SetTraceListener(f func(string)) { d.trace = f }

func (d *Driver) notify(format string, args ...any) {
	if d.trace != nil {
		d.trace(fmt.Sprintf(format, args...))
	}
}

// Feed advances the parse by one terminal. value is the terminal's
// semantic value (often the lexeme itself); span anchors it in the source.
func (d *Driver) Feed(terminal string, value any, span Span) error {
	switch d.mode {
	case modeDiscarding:
		return d.feedDiscarding(terminal, value, span)
	case modeTrialParsing:
		return d.feedTrial(terminal, value, span)
	default:
		return d.feedNormal(terminal, value, span)
	}
}

// Finish signals end-of-input and returns the parse's final value.
func (d *Driver) Finish() (any, error) {
	if d.mode == modeTrialParsing {
		if err := d.commitTrial(); err != nil {
			return nil, err
		}
	}
	if d.mode == modeDiscarding {
		return nil, fmt.Errorf("rt: unexpected end of input while recovering from a syntax error (expected %s)", d.describeAdmissible())
	}

	newStack, accepted, err := d.runStep(d.stack, grammar.EndOfInput, nil, Span{}, false)
	if err != nil {
		return nil, err
	}
	d.stack = newStack
	if !accepted {
		return nil, fmt.Errorf("rt: parse did not reach an accept state at end of input")
	}
	return d.stack[len(d.stack)-1].value, nil
}

func (d *Driver) feedNormal(terminal string, value any, span Span) error {
	newStack, _, err := d.runStep(d.stack, terminal, value, span, false)
	if err != nil {
		return d.enterRecovery(terminal, value, span)
	}
	d.stack = newStack
	if d.quiescence > 0 {
		d.quiescence--
	}
	return nil
}

// runStep drives stack forward on one input terminal: every reduce that
// fires along the way doesn't consume it, so the loop continues with the
// same terminal until a shift, a combined shift-reduce, an accept, or an
// error is reached. suppressConstructors skips invoking Constructors
// (trial-parse mode, per spec's "simulate ... without running semantic
// actions").
func (d *Driver) runStep(stack []entry, terminal string, value any, span Span, suppressConstructors bool) ([]entry, bool, error) {
	for {
		top := stack[len(stack)-1]
		act := d.Table.Action(top.state, terminal)
		d.notify("state %d, terminal %q -> %s", top.state, terminal, act.Type)

		switch act.Type {
		case parse.LRShift:
			stack = append(stack, entry{state: act.State, value: value, span: span})
			return stack, false, nil
		case parse.LRShiftReduce:
			shifted := append(append([]entry(nil), stack...), entry{state: top.state, value: value, span: span})
			var err error
			stack, err = d.doReduce(shifted, act, span, suppressConstructors)
			if err != nil {
				return stack, false, err
			}
			return stack, false, nil
		case parse.LRReduce:
			var err error
			stack, err = d.doReduce(stack, act, span, suppressConstructors)
			if err != nil {
				return stack, false, err
			}
			continue
		case parse.LRAccept:
			return stack, true, nil
		default:
			return stack, false, fmt.Errorf("rt: no action for %q in state %d", terminal, top.state)
		}
	}
}

func (d *Driver) doReduce(stack []entry, act parse.LRAction, lookahead Span, suppressConstructors bool) ([]entry, error) {
	rule := d.Table.Rules[act.RuleIndex]
	n := rule.RHSLen
	popped := stack[len(stack)-n:]
	stack = stack[:len(stack)-n]

	top := stack[len(stack)-1]
	g, err := d.Table.Goto(top.state, act.Symbol)
	if err != nil {
		return stack, fmt.Errorf("rt: no goto from state %d on %q: %w", top.state, act.Symbol, err)
	}

	resultSpan := combineSpans(popped, lookahead)

	var value any
	if !suppressConstructors {
		args := make([]any, 0, len(rule.CaptureOffsets))
		for _, off := range rule.CaptureOffsets {
			args = append(args, popped[off].value)
		}
		value, err = d.construct(rule.Constructor, args, resultSpan)
		if err != nil {
			return stack, err
		}
	}

	return append(stack, entry{state: g, value: value, span: resultSpan}), nil
}

func (d *Driver) construct(key grammar.ConstructorKey, args []any, span Span) (any, error) {
	switch key.Kind {
	case grammar.ConstructOffset:
		if key.Offset < 0 || key.Offset >= len(args) {
			return nil, fmt.Errorf("rt: constructor offset %d out of range for %d captured argument(s)", key.Offset, len(args))
		}
		return args[key.Offset], nil
	case grammar.ConstructMessage:
		fn, ok := d.Constructors[key.Name]
		if !ok {
			return nil, fmt.Errorf("rt: no constructor registered for %q", key.Name)
		}
		return fn(args, span)
	default: // grammar.ConstructDefaultTuple
		return args, nil
	}
}

func (d *Driver) describeAdmissible() string {
	var terms []string
	for t := range d.admissible {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return "nothing (no recoverable state)"
	}
	return fmt.Sprintf("one of %v", terms)
}

// syntaxError builds a diagnostic anchored at span, in the teacher's
// icterrors.SyntaxError shape.
func (d *Driver) syntaxError(msg string, span Span) error {
	return icterrors.NewSyntaxErrorFromToken(msg, span)
}
