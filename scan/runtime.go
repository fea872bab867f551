package scan

import (
	"fmt"
	"io"
	"sort"

	"github.com/lennartw/pelican/regex"
)

// Lexer drives a Table over an in-memory source buffer, implementing the
// per-lexeme loop of spec.md §4.2: advance the appropriate condition's DFA
// rune by rune, remember the last accepting state reached (leftmost-
// longest), rewind for trailing context, and recover from a stuck cursor
// by discarding one code point and continuing. Grounded on the teacher's
// lazyLex (internal/ictiobus/lex/lazy.go): its Next()/Peek()/panicMode
// shape is kept, generalized from a single regexp-driven "state" string to
// a scan-condition stack (push/pop) driving per-condition automaton.DFAs
// built by the regex package instead of stdlib regexp.
type Lexer struct {
	table      *Table
	runes      []rune
	lineStarts []int
	cursor     int
	conditions []string
	done       bool

	lexemeStart int
	lastLexeme  string

	diagnostics []string
	trace       func(string)
}

// NewLexer reads all of input into memory (spec.md §4.2: the scanner
// "maintains ... current source buffer") and returns a Lexer starting in
// the table's initial scan-condition.
func NewLexer(table *Table, input io.Reader) (*Lexer, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	runes := []rune(string(data))

	starts := []int{0}
	for i, r := range runes {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &Lexer{
		table:      table,
		runes:      runes,
		lineStarts: starts,
		conditions: []string{table.initial},
	}, nil
}

// SetTraceListener registers a sink for progress notifications (match
// found, stuck recovery, condition changes) mirroring
// lrParser.RegisterTraceListener's notifyTrace style in the teacher's
// parse/lr.go.
func (lx *Lexer) SetTraceListener(f func(string)) { lx.trace = f }

func (lx *Lexer) notify(msg string) {
	if lx.trace != nil {
		lx.trace(msg)
	}
}

// Diagnostics returns every stuck-recovery message emitted so far.
func (lx *Lexer) Diagnostics() []string { return lx.diagnostics }

// MatchedText returns the text of the most recently matched (or
// discarded) lexeme — the `matched_text()` driver operation of spec.md §4.2.
func (lx *Lexer) MatchedText() string { return lx.lastLexeme }

// Enter replaces the top of the scan-condition stack — the `enter(c)`
// driver operation.
func (lx *Lexer) Enter(condition string) {
	lx.conditions[len(lx.conditions)-1] = condition
}

// PushCondition pushes a scan-condition — the `push(c)` driver operation.
func (lx *Lexer) PushCondition(condition string) {
	lx.conditions = append(lx.conditions, condition)
}

// PopCondition pops the scan-condition stack — the `pop()` driver
// operation. A no-op if only the initial condition remains.
func (lx *Lexer) PopCondition() {
	if len(lx.conditions) > 1 {
		lx.conditions = lx.conditions[:len(lx.conditions)-1]
	}
}

func (lx *Lexer) currentCondition() string {
	return lx.conditions[len(lx.conditions)-1]
}

// Less pushes back every matched rune after the first k, rewinding the
// cursor — the `less(k)` driver operation.
func (lx *Lexer) Less(k int) {
	lx.cursor = lx.lexemeStart + k
	lx.lastLexeme = string(lx.runes[lx.lexemeStart:lx.cursor])
}

func (lx *Lexer) lineInfo(pos int) (line, col int, fullLine string) {
	idx := sort.SearchInts(lx.lineStarts, pos+1) - 1
	if idx < 0 {
		idx = 0
	}
	start := lx.lineStarts[idx]
	end := len(lx.runes)
	if idx+1 < len(lx.lineStarts) {
		end = lx.lineStarts[idx+1] - 1
		if end < start {
			end = start
		}
	}
	return idx + 1, pos - start + 1, string(lx.runes[start:end])
}

func (lx *Lexer) makeToken(class TokenClass, lexeme string, at int) Token {
	line, col, full := lx.lineInfo(at)
	return Token{class: class, lexeme: lexeme, line: line, linePos: col, full: full}
}

func (lx *Lexer) makeEOT() Token {
	return lx.makeToken(TokenEndOfText, "", len(lx.runes))
}

// HasNext reports whether the stream has any additional tokens.
func (lx *Lexer) HasNext() bool { return !lx.done }

// Peek returns the next token without advancing the stream, by saving and
// restoring every piece of state Next() can mutate — mirrors the
// teacher's lazyLex.Peek (internal/ictiobus/lex/lazy.go).
func (lx *Lexer) Peek() Token {
	savedCursor := lx.cursor
	savedConditions := append([]string(nil), lx.conditions...)
	savedDone := lx.done
	savedLexemeStart := lx.lexemeStart
	savedLastLexeme := lx.lastLexeme

	tok := lx.Next()

	lx.cursor = savedCursor
	lx.conditions = savedConditions
	lx.done = savedDone
	lx.lexemeStart = savedLexemeStart
	lx.lastLexeme = savedLastLexeme

	return tok
}

// Next returns the next token and advances the stream. Once input is
// exhausted, every subsequent call returns a TokenEndOfText token.
func (lx *Lexer) Next() Token {
	if lx.done {
		return lx.makeEOT()
	}

	for {
		if lx.cursor >= len(lx.runes) {
			lx.done = true
			return lx.makeEOT()
		}

		ct := lx.table.conditions[lx.currentCondition()]
		if ct == nil || ct.compiled == nil {
			lx.done = true
			return lx.makeEOT()
		}

		start := lx.cursor
		lx.lexemeStart = start
		end, match := lx.runDFA(ct, start)

		if match == nil {
			// stuck: no accept reached from start. Discard one code point
			// and retry (spec.md §4.2 step 5).
			line, col, _ := lx.lineInfo(start)
			lx.diagnostics = append(lx.diagnostics, fmt.Sprintf("unrecognized input at %d:%d", line, col))
			lx.notify(fmt.Sprintf("scan: stuck at %d:%d, discarding one code point", line, col))
			lx.cursor = start + 1
			lx.lastLexeme = string(lx.runes[start:lx.cursor])
			continue
		}

		if match.TrailingLen > 0 {
			end -= match.TrailingLen
		}
		lexeme := string(lx.runes[start:end])
		lx.cursor = end
		lx.lastLexeme = lexeme

		action := ct.actions[match.Name]
		tok, emit := lx.applyAction(action, lexeme, start)
		if emit {
			return tok
		}
	}
}

// runDFA advances ct's DFA from start as far as any transition exists, and
// returns the end index and winning Match among every accepting position
// reached along the way. The winner is chosen by highest rank first, and
// only falls back to longest match (leftmost-longest, within the same
// condition and rank) as a tie-break between positions of equal rank —
// a shorter, higher-rank accept reached earlier in the walk beats a
// longer, lower-rank accept reached later. Returns (start, nil) if no
// accept was ever reached.
func (lx *Lexer) runDFA(ct *conditionTable, start int) (end int, match *regex.Match) {
	dfa := ct.compiled.DFA
	state := dfa.Start
	pos := start
	bestEnd := -1
	var best *regex.Match

	for pos < len(lx.runes) {
		next := dfa.Next(state, string(lx.runes[pos]))
		if next == "" {
			break
		}
		state = next
		pos++
		if dfa.IsAccepting(state) {
			candidate := dfa.GetValue(state)
			if best == nil || candidate.Rank >= best.Rank {
				bestEnd = pos
				best = candidate
			}
		}
	}
	if best == nil {
		return start, nil
	}
	return bestEnd, best
}

func (lx *Lexer) applyAction(action Action, lexeme string, at int) (Token, bool) {
	switch action.Type {
	case ActionNone:
		return Token{}, false
	case ActionScan:
		return lx.makeToken(lx.classOf(action.ClassID), lexeme, at), true
	case ActionEnter:
		lx.Enter(action.State)
		return Token{}, false
	case ActionPush:
		lx.PushCondition(action.State)
		return Token{}, false
	case ActionPop:
		lx.PopCondition()
		return Token{}, false
	case ActionScanAndEnter:
		tok := lx.makeToken(lx.classOf(action.ClassID), lexeme, at)
		lx.Enter(action.State)
		return tok, true
	case ActionScanAndPush:
		tok := lx.makeToken(lx.classOf(action.ClassID), lexeme, at)
		lx.PushCondition(action.State)
		return tok, true
	case ActionScanAndPop:
		tok := lx.makeToken(lx.classOf(action.ClassID), lexeme, at)
		lx.PopCondition()
		return tok, true
	case ActionExec:
		h := lx.table.handlers[action.Handler]
		resolved := h(lx, lexeme)
		if resolved.Type == ActionExec {
			return Token{}, false // refuse to chain Exec -> Exec
		}
		return lx.applyAction(resolved, lx.lastLexeme, lx.lexemeStart)
	default:
		return Token{}, false
	}
}

func (lx *Lexer) classOf(id string) TokenClass {
	if cl, ok := lx.table.classes[id]; ok {
		return cl
	}
	return simpleTokenClass(id)
}
