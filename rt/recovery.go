package rt

import (
	"fmt"

	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/parse"
)

// recoveryQuiescence is the number of tokens, after a trial-parse commit,
// during which a further syntax error is still recovered from but not
// reported through OnError — spec's "quiescence window" damping error
// cascades immediately following a recovery.
const recoveryQuiescence = 3

// trialCommitStreak is how many consecutive tokens a trial parse must
// consume successfully before it is trusted and committed.
const trialCommitStreak = 3

// enterRecovery implements spec's "smart" $error$-recovery mechanism: scan
// the stack top to bottom for every state with a non-error $error$ action
// (a "recoverable state"), collect the union of terminals acceptable once
// $error$ has been shifted out of each one, and unwind to the deepest
// (closest to the stack's bottom) recoverable state found. terminal/value/
// span are the input that triggered the error; they're immediately offered
// to the admission test, since the erroring token is also the first
// candidate to admit or discard.
//
// A candidate terminal's admissibility is judged against the state
// $error$'s shift leads to, not the recoverable state itself: trial parse
// begins by feeding the admitted terminal into exactly that post-shift
// state, so admissibility has to mean "the parse can actually continue
// from there," not just "this recoverable state happens to also shift
// this terminal directly" (which would make the recovery a no-op $error$
// insertion immediately invalidated by its own first input). When several
// recoverable states are stacked, a terminal admissible via a shallower
// one can still fail trial parse after unwinding to the deepest one —
// that failure is handled the same as any other trial failure, by
// resuming discard, so this is a safe (if occasionally pessimistic)
// simplification rather than a correctness hazard.
func (d *Driver) enterRecovery(terminal string, value any, span Span) error {
	recoverDepth := -1
	admissible := map[string]bool{}

	for i := len(d.stack) - 1; i >= 0; i-- {
		state := d.stack[i].state
		errAct := d.Table.Action(state, grammar.ErrorSymbol)
		if errAct.Type == parse.LRError {
			continue
		}
		recoverDepth = i
		for _, t := range d.expectedTerminals(errAct.State) {
			if t == grammar.ErrorSymbol {
				continue
			}
			admissible[t] = true
		}
	}

	notify := d.quiescence == 0
	if d.quiescence > 0 {
		d.quiescence--
	}
	if notify && d.OnError != nil {
		d.OnError(d.syntaxError(fmt.Sprintf("unexpected %q", terminal), span))
	}

	if recoverDepth < 0 {
		return d.syntaxError(fmt.Sprintf("unexpected %q; no recoverable state on the stack", terminal), span)
	}

	d.mode = modeDiscarding
	d.recoverDepth = recoverDepth
	d.admissible = admissible
	d.errorSpan = span

	return d.feedDiscarding(terminal, value, span)
}

// feedDiscarding is the discard phase: terminals not in d.admissible are
// silently dropped until one arrives that some recoverable state accepts,
// at which point the stack unwinds to the recoverable state, $error$ is
// shifted, and trial parsing begins with terminal itself as its first
// input.
func (d *Driver) feedDiscarding(terminal string, value any, span Span) error {
	if !d.admissible[terminal] {
		d.notify("discarding %q while recovering", terminal)
		return nil
	}

	d.stack = append([]entry(nil), d.stack[:d.recoverDepth+1]...)
	top := d.stack[len(d.stack)-1]
	act := d.Table.Action(top.state, grammar.ErrorSymbol)
	d.stack = append(d.stack, entry{state: act.State, value: nil, span: d.errorSpan})

	d.mode = modeTrialParsing
	d.trialStack = append([]entry(nil), d.stack...)
	d.trialBuffer = nil
	d.trialStreak = 0

	return d.feedTrial(terminal, value, span)
}

// feedTrial advances the shadow stack without running constructors. A
// failed step abandons the buffered trial and resumes discarding from the
// next terminal (the one that just failed is not re-offered); a successful
// streak of trialCommitStreak tokens, or reaching accept, commits the
// trial by replaying its buffered input for real.
func (d *Driver) feedTrial(terminal string, value any, span Span) error {
	newStack, accepted, err := d.runStep(d.trialStack, terminal, value, span, true)
	if err != nil {
		d.notify("trial parse failed on %q, resuming discard", terminal)
		d.mode = modeDiscarding
		d.trialStack = nil
		d.trialBuffer = nil
		d.trialStreak = 0
		return nil
	}

	d.trialStack = newStack
	d.trialBuffer = append(d.trialBuffer, fedInput{terminal: terminal, value: value, span: span})
	d.trialStreak++

	if accepted || d.trialStreak >= trialCommitStreak {
		return d.commitTrial()
	}
	return nil
}

// commitTrial replays the trial's buffered input on the real stack, this
// time running constructors for real, then returns to normal parsing under
// a quiescence window.
func (d *Driver) commitTrial() error {
	buffer := d.trialBuffer
	d.mode = modeNormal
	d.trialStack = nil
	d.trialBuffer = nil
	d.trialStreak = 0
	d.quiescence = recoveryQuiescence

	for _, in := range buffer {
		newStack, accepted, err := d.runStep(d.stack, in.terminal, in.value, in.span, false)
		if err != nil {
			return fmt.Errorf("rt: recovery commit replay failed unexpectedly: %w", err)
		}
		d.stack = newStack
		if accepted {
			break
		}
	}

	if d.OnRecovered != nil {
		d.OnRecovered()
	}
	return nil
}
