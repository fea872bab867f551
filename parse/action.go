package parse

import (
	"fmt"

	"github.com/lennartw/pelican/grammar"
)

// LRActionType distinguishes the four kinds of table entry plus the
// combined shift-reduce instruction (spec's "single combined instruction,
// shared by states whose only reachable reduce is rule X").
type LRActionType int

const (
	LRShift LRActionType = iota
	LRReduce
	LRAccept
	LRError
	// LRShiftReduce performs a shift immediately followed by the reduce of
	// Production, without actually pushing an intermediate state — written
	// by CollapseShiftReduce in place of a shift into a state whose only
	// actions reduce that one rule, when every state the reduce can return
	// to has a GOTO state with the same error terminals as the shift target.
	LRShiftReduce
)

func (t LRActionType) String() string {
	switch t {
	case LRShift:
		return "shift"
	case LRReduce:
		return "reduce"
	case LRAccept:
		return "accept"
	case LRShiftReduce:
		return "shift-reduce"
	default:
		return "error"
	}
}

// LRAction is one entry of a parse table's ACTION function.
type LRAction struct {
	Type LRActionType

	// Production and Symbol are used when Type is LRReduce or
	// LRShiftReduce: Symbol is the A of A -> β being reduced to, Production
	// is β.
	Production grammar.Production
	Symbol     string

	// RuleIndex is the originating Rule's Index, used to recover the
	// constructor/capture metadata at reduce time.
	RuleIndex int

	// State is the destination state, used only when Type is LRShift.
	State int
}

func (act LRAction) String() string {
	switch act.Type {
	case LRAccept:
		return "ACTION<accept>"
	case LRError:
		return "ACTION<error>"
	case LRReduce:
		return fmt.Sprintf("ACTION<reduce %s -> %s>", act.Symbol, act.Production.String())
	case LRShiftReduce:
		return fmt.Sprintf("ACTION<shift-reduce %s -> %s>", act.Symbol, act.Production.String())
	case LRShift:
		return fmt.Sprintf("ACTION<shift %d>", act.State)
	default:
		return "ACTION<unknown>"
	}
}

func (act LRAction) Equal(o any) bool {
	other, ok := o.(LRAction)
	if !ok {
		return false
	}
	return act.Type == other.Type &&
		act.Production.Equal(other.Production) &&
		act.State == other.State &&
		act.Symbol == other.Symbol
}

func isShiftReduceConflict(act1, act2 LRAction) (isSR bool, shiftAct LRAction) {
	if act1.Type == LRReduce && act2.Type == LRShift {
		return true, act2
	}
	if act2.Type == LRReduce && act1.Type == LRShift {
		return true, act1
	}
	return false, act1
}

// makeLRConflictError renders a human-readable description of a conflict
// between two candidate actions on the same lookahead terminal.
func makeLRConflictError(act1, act2 LRAction, onInput string) error {
	switch {
	case act1.Type == LRReduce && act2.Type == LRShift || act1.Type == LRShift && act2.Type == LRReduce:
		reduceRule := act1
		if act1.Type != LRReduce {
			reduceRule = act2
		}
		return fmt.Errorf("shift/reduce conflict detected on terminal %q (shift or reduce %s -> %s)",
			onInput, reduceRule.Symbol, reduceRule.Production.String())
	case act1.Type == LRReduce && act2.Type == LRReduce:
		return fmt.Errorf("reduce/reduce conflict detected on terminal %q (reduce %s -> %s or reduce %s -> %s)",
			onInput, act1.Symbol, act1.Production.String(), act2.Symbol, act2.Production.String())
	case act1.Type == LRAccept || act2.Type == LRAccept:
		nonAccept := act2
		if act2.Type == LRAccept {
			nonAccept = act1
		}
		if nonAccept.Type == LRShift {
			return fmt.Errorf("accept/shift conflict detected on terminal %q", onInput)
		}
		if nonAccept.Type == LRReduce {
			return fmt.Errorf("accept/reduce conflict detected on terminal %q (accept or reduce %s -> %s)",
				onInput, nonAccept.Symbol, nonAccept.Production.String())
		}
	case act1.Type == LRShift && act2.Type == LRShift:
		return fmt.Errorf("(!) shift/shift conflict on terminal %q", onInput)
	}
	return fmt.Errorf("LR action conflict on terminal %q (%s or %s)", onInput, act1.String(), act2.String())
}
