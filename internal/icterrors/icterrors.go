// Package icterrors holds the error types shared by the scan/parse/rt/glr
// packages. The name continues the teacher's own (vendored-but-unretrieved)
// icterrors package, reconstructed here from its call sites rather than its
// source: every syntax error in this module is anchored to the token that
// provoked it so that a caller can render a source-location-aware message.
package icterrors

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"
)

// Tok is the minimal token surface a SyntaxError needs in order to describe
// where a problem occurred. scan.Token and any other token type satisfy it.
type Tok interface {
	Lexeme() string
	Line() int
	LinePos() int
	FullLine() string
}

// SyntaxError is returned by the scanner and parser when input cannot be
// recognized. It carries both a short message and enough source-location
// context to render a full diagnostic.
type SyntaxError struct {
	msg     string
	line    int
	linePos int
	srcLine string
	lexeme  string
}

// NewSyntaxErrorFromToken builds a SyntaxError describing msg at the
// location of tok.
func NewSyntaxErrorFromToken(msg string, tok Tok) *SyntaxError {
	return &SyntaxError{
		msg:     msg,
		line:    tok.Line(),
		linePos: tok.LinePos(),
		srcLine: tok.FullLine(),
		lexeme:  tok.Lexeme(),
	}
}

// NewSyntaxErrorFromPosition builds a SyntaxError describing msg at an
// explicit line/column, for cases (end-of-input, stuck scanner) where no
// token exists to anchor to.
func NewSyntaxErrorFromPosition(msg string, line, linePos int, srcLine string) *SyntaxError {
	return &SyntaxError{msg: msg, line: line, linePos: linePos, srcLine: srcLine}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.line, e.linePos, e.msg)
}

// Line returns the 1-indexed source line the error occurred on.
func (e *SyntaxError) Line() int { return e.line }

// LinePos returns the 1-indexed column the error occurred at.
func (e *SyntaxError) LinePos() int { return e.linePos }

// FullMessage renders a multi-line diagnostic: the error message, the
// offending source line, and a caret pointing at the offending column.
func (e *SyntaxError) FullMessage() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "syntax error at line %d: %s\n", e.line, e.msg)
	if e.srcLine != "" {
		sb.WriteString(e.srcLine)
		sb.WriteRune('\n')
		col := e.linePos - 1
		if col < 0 {
			col = 0
		}
		sb.WriteString(strings.Repeat(" ", col))
		sb.WriteString("^\n")
	}
	return sb.String()
}

// DefinitionErrors accumulates the non-fatal-until-flush errors gathered
// while building a grammar or a scanner definition (spec §7: "definition
// errors accumulate and are reported collectively at the end of
// construction"). A nil *DefinitionErrors is a valid, empty error set.
type DefinitionErrors struct {
	Errors   []string
	Warnings []string
}

// Addf appends a formatted fatal definition error.
func (d *DefinitionErrors) Addf(format string, args ...any) {
	d.Errors = append(d.Errors, fmt.Sprintf(format, args...))
}

// Warnf appends a formatted non-fatal warning (e.g. unreachable rule).
func (d *DefinitionErrors) Warnf(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns whether any fatal error was recorded.
func (d *DefinitionErrors) HasErrors() bool {
	return d != nil && len(d.Errors) > 0
}

// ToError returns nil if there are no fatal errors, or an error whose
// message lists every fatal error and warning collected, formatted as a
// table via rosed the same way the teacher formats its parse-table dumps.
func (d *DefinitionErrors) ToError() error {
	if !d.HasErrors() {
		return nil
	}
	data := make([][]string, 0, len(d.Errors)+len(d.Warnings))
	for _, e := range d.Errors {
		data = append(data, []string{"ERROR", e})
	}
	for _, w := range d.Warnings {
		data = append(data, []string{"warning", w})
	}
	body := rosed.
		Edit("").
		InsertTableOpts(0, data, 100, rosed.Options{
			TableHeaders:             false,
			NoTrailingLineSeparators: true,
		}).
		String()
	return fmt.Errorf("grammar definition has %d error(s):\n%s", len(d.Errors), body)
}
