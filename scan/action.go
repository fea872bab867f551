package scan

// ActionType distinguishes what a matched pattern does to the scanner:
// emit a token, change the scan-condition stack, both, or neither.
// Generalizes the teacher's ActionNone/ActionScan/ActionState/
// ActionScanAndState (internal/ictiobus/lex/action.go) with the push/pop
// scan-condition stack discipline spec.md §4.2 requires on top of plain
// swapping, plus a named-handler escape hatch for anything the built-in
// shapes can't express.
type ActionType int

const (
	// ActionNone discards the lexeme and keeps lexing.
	ActionNone ActionType = iota
	// ActionScan emits a token of ClassID and keeps the condition stack as is.
	ActionScan
	// ActionEnter replaces the top of the condition stack with State.
	ActionEnter
	// ActionPush pushes State onto the condition stack.
	ActionPush
	// ActionPop pops the condition stack.
	ActionPop
	// ActionScanAndEnter emits a token, then replaces the top condition.
	ActionScanAndEnter
	// ActionScanAndPush emits a token, then pushes a new condition.
	ActionScanAndPush
	// ActionScanAndPop emits a token, then pops the condition stack.
	ActionScanAndPop
	// ActionExec calls a named handler registered on the Builder, which
	// decides dynamically (it may call less/enter/push/pop/token itself via
	// the Lexer passed to it) — the "name -> handler mapping supplied by the
	// driver" spec.md §4.2 calls for beyond the fixed action shapes above.
	ActionExec
)

// Action is what happens when a pattern matches: some combination of
// emitting a token (with the class named by ClassID) and adjusting the
// scan-condition stack (to State), or a named handler for custom logic.
type Action struct {
	Type    ActionType
	ClassID string
	State   string
	Handler string
}

// Discard drops the matched lexeme and continues lexing in the same condition.
func Discard() Action { return Action{Type: ActionNone} }

// LexAs emits a token of the given class.
func LexAs(classID string) Action { return Action{Type: ActionScan, ClassID: classID} }

// Enter replaces the top of the scan-condition stack with toState.
func Enter(toState string) Action { return Action{Type: ActionEnter, State: toState} }

// Push pushes toState onto the scan-condition stack.
func Push(toState string) Action { return Action{Type: ActionPush, State: toState} }

// Pop pops the scan-condition stack.
func Pop() Action { return Action{Type: ActionPop} }

// LexAndEnter emits a token then replaces the top scan condition.
func LexAndEnter(classID, toState string) Action {
	return Action{Type: ActionScanAndEnter, ClassID: classID, State: toState}
}

// LexAndPush emits a token then pushes a new scan condition.
func LexAndPush(classID, toState string) Action {
	return Action{Type: ActionScanAndPush, ClassID: classID, State: toState}
}

// LexAndPop emits a token then pops the scan-condition stack.
func LexAndPop(classID string) Action {
	return Action{Type: ActionScanAndPop, ClassID: classID}
}

// Exec dispatches to a named handler registered via Builder.AddHandler.
func Exec(name string) Action { return Action{Type: ActionExec, Handler: name} }

// Handler is a caller-supplied named action body: given the lexer (so it
// may call Less/Enter/PushCondition/PopCondition/MatchedText) and the raw matched text, it
// returns the Action to actually perform (typically Discard() or LexAs(...)).
type Handler func(lx *Lexer, lexeme string) Action
