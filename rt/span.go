package rt

// Span is the source-location/text metadata carried alongside every value
// on the driver's stack. It satisfies icterrors.Tok, so a Span can anchor a
// SyntaxError the same way a scan.Token does.
type Span struct {
	SrcLine int
	SrcCol  int
	Text    string
	Full    string
}

func (s Span) Lexeme() string   { return s.Text }
func (s Span) Line() int        { return s.SrcLine }
func (s Span) LinePos() int     { return s.SrcCol }
func (s Span) FullLine() string { return s.Full }

// combineSpans builds the span of a reduction's result from the spans of
// the entries it popped, per spec's "combined-span" rule: the reduction's
// span starts where its first popped symbol started, and its text is
// every popped symbol's non-empty text joined with a space. An epsilon reduction (no
// popped entries) has no span of its own, so it inherits fallback — the
// span of the lookahead token that triggered the reduce.
func combineSpans(popped []entry, fallback Span) Span {
	if len(popped) == 0 {
		return fallback
	}
	first := popped[0].span
	text := first.Text
	for _, e := range popped[1:] {
		if e.span.Text == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += e.span.Text
	}
	return Span{SrcLine: first.SrcLine, SrcCol: first.SrcCol, Text: text, Full: first.Full}
}
