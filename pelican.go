// Package pelican ties the scan, grammar, parse, rt and glr packages into a
// single input-to-value compiler front end: Generate builds a scanner table
// and a parser table from a grammar and a set of lexical rules, and the
// resulting Frontend's Analyze/AnalyzeString methods drive text through both
// to produce a semantic value.
//
// A grammar declared %nondeterministic is routed through glr.Parser (the
// graph-structured stack strategy by default); every other grammar goes
// through rt.Driver's deterministic shift-reduce loop with $error$-recovery.
// Both are push-mode drivers fed one token at a time rather than pulled from
// a stream, so Analyze's loop plays the role the teacher's Frontend.Analyze
// gave to a single Parser.Parse(stream) call.
package pelican

import (
	"fmt"
	"io"
	"strings"

	"github.com/lennartw/pelican/glr"
	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/parse"
	"github.com/lennartw/pelican/rt"
	"github.com/lennartw/pelican/scan"
)

// Span is the source-location metadata threaded from scan.Token through to
// a constructor call.
type Span = rt.Span

// Constructor and Constructors are shared between the deterministic and
// generalized runtimes: a grammar's semantic actions do not change
// depending on which driver ends up running them.
type Constructor = rt.Constructor
type Constructors = rt.Constructors

// Ambiguity merges the candidate values of a genuinely ambiguous parse; see
// glr.Ambiguity. It has no effect on a deterministic grammar, which by
// construction never has more than one candidate.
type Ambiguity = glr.Ambiguity

// Frontend is a complete lexer+parser pair for one grammar's start symbol.
type Frontend struct {
	scanTable  *scan.Table
	parseTable *parse.Table
	ctors      Constructors
	ambiguity  Ambiguity
	strategy   glr.Strategy
	nondet     bool

	traceScan  func(string)
	traceParse func(string)
}

// Options configures Generate beyond the grammar and scan rules themselves.
type Options struct {
	// Constructors dispatches grammar.ConstructMessage rules by name.
	Constructors Constructors
	// Ambiguity resolves a non-deterministic grammar's multiple surviving
	// parses into one value; when it is nil, Analyze returns the first of
	// them.
	Ambiguity Ambiguity
	// Strategy selects the generalized-parsing algorithm for a grammar
	// declared %nondeterministic. Ignored for a deterministic grammar.
	Strategy glr.Strategy
	// Method selects the LR-family table-construction algorithm for a
	// deterministic grammar; the zero value is parse.MethodLALR1. Ignored
	// for a grammar declared %nondeterministic, which always builds
	// LALR(1) (see glr.GenerateTable).
	Method parse.Method
	// AllowAmbiguous lets a deterministic grammar build even when a
	// conflict remains that precedence/associativity does not settle (it
	// is then resolved by shift preference or lowest rule index); the
	// resolution happens either way, this only controls whether Generate
	// treats such a conflict as fatal. A shift/reduce conflict that
	// precedence settles is not recorded and needs no flag. Ignored for a
	// grammar declared
	// %nondeterministic, which is never conflict-free by definition.
	AllowAmbiguous bool
}

// Generate builds a Frontend from a scanner definition and a grammar. The
// grammar's StartSymbol is the entry non-terminal this Frontend parses; use
// grammar.Grammar.WithPrimaryStart to build a second Frontend over the same
// rules for a different declared start symbol (spec's "one or more entry
// non-terminals, each with its own initial parser state").
func Generate(sb *scan.Builder, g *grammar.Grammar, opts Options) (*Frontend, error) {
	scanTable, err := sb.Build()
	if err != nil {
		return nil, fmt.Errorf("pelican: building scanner: %w", err)
	}

	fe := &Frontend{
		scanTable: scanTable,
		ctors:     opts.Constructors,
		ambiguity: opts.Ambiguity,
		strategy:  opts.Strategy,
		nondet:    g.NonDeterministic(),
	}

	if fe.nondet {
		table, conflicts, err := glr.GenerateTable(g)
		if err != nil {
			return nil, fmt.Errorf("pelican: building generalized parser: %w", err)
		}
		fe.parseTable = table
		_ = conflicts // conflicts are expected and resolved by forking, not an error
		return fe, nil
	}

	var table *parse.Table
	var conflicts []string
	switch opts.Method {
	case parse.MethodLR0:
		table, conflicts, err = parse.GenerateLR0Parser(g, opts.AllowAmbiguous)
	case parse.MethodSLR1:
		table, conflicts, err = parse.GenerateSLR1Parser(g, opts.AllowAmbiguous)
	case parse.MethodCLR1:
		table, conflicts, err = parse.GenerateCLR1Parser(g, opts.AllowAmbiguous)
	case parse.MethodMinimalLR1:
		table, conflicts, err = parse.GenerateMinimalLR1Parser(g, opts.AllowAmbiguous)
	default:
		// parse.MethodLALR1 is the zero value of Options.Method, so an
		// Options{} literal with no Method set lands here too.
		table, conflicts, err = parse.GenerateLALR1Parser(g, opts.AllowAmbiguous)
	}
	if err != nil {
		return nil, fmt.Errorf("pelican: building %s parser: %w", opts.Method, err)
	}
	if len(conflicts) > 0 && !opts.AllowAmbiguous {
		return nil, fmt.Errorf("pelican: grammar has unresolved conflicts under %s: %s", opts.Method, strings.Join(conflicts, "; "))
	}
	parse.CollapseShiftReduce(table)
	fe.parseTable = table
	return fe, nil
}

// SetTraceListeners registers sinks for the scanner's and parser's
// step-by-step trace output, mirroring scan.Lexer.SetTraceListener and
// rt.Driver/glr.Parser's SetTraceListener.
func (fe *Frontend) SetTraceListeners(scanTrace, parseTrace func(string)) {
	fe.traceScan = scanTrace
	fe.traceParse = parseTrace
}

// AnalyzeString is Analyze over a string, for convenience.
func (fe *Frontend) AnalyzeString(s string) (any, error) {
	return fe.Analyze(strings.NewReader(s))
}

// Analyze lexes r completely, then drives every resulting token through the
// parser, returning the constructed value at the root of the parse (the
// single accepted derivation for a deterministic grammar, or the merged/
// first surviving one for a generalized parse, depending on Options.Ambiguity).
func (fe *Frontend) Analyze(r io.Reader) (any, error) {
	lx, err := scan.NewLexer(fe.scanTable, r)
	if err != nil {
		return nil, fmt.Errorf("pelican: %w", err)
	}
	if fe.traceScan != nil {
		lx.SetTraceListener(fe.traceScan)
	}

	if fe.nondet {
		return fe.analyzeGeneralized(lx)
	}
	return fe.analyzeDeterministic(lx)
}

func (fe *Frontend) analyzeDeterministic(lx *scan.Lexer) (any, error) {
	d := rt.NewDriver(fe.parseTable, fe.ctors)
	if fe.traceParse != nil {
		d.SetTraceListener(fe.traceParse)
	}

	for lx.HasNext() {
		tok := lx.Next()
		if tok.Class().ID() == "$" {
			break
		}
		span := Span{SrcLine: tok.Line(), SrcCol: tok.LinePos(), Text: tok.Lexeme(), Full: tok.FullLine()}
		if err := d.Feed(tok.Class().ID(), tok.Lexeme(), span); err != nil {
			return nil, err
		}
	}
	return d.Finish()
}

func (fe *Frontend) analyzeGeneralized(lx *scan.Lexer) (any, error) {
	p := glr.NewParser(fe.parseTable, fe.ctors)
	p.Ambiguity = fe.ambiguity
	p.Strategy = fe.strategy
	if fe.traceParse != nil {
		p.SetTraceListener(fe.traceParse)
	}

	if p.Strategy == glr.StrategyCactus {
		run := p.NewCactusRun()
		if err := feedTokensCactus(lx, run); err != nil {
			return nil, err
		}
		values, err := run.Finish()
		if err != nil {
			return nil, err
		}
		return values[0], nil
	}

	run := p.NewRun()
	if err := feedTokensGSS(lx, run); err != nil {
		return nil, err
	}
	values, err := run.Finish()
	if err != nil {
		return nil, err
	}
	return values[0], nil
}

func feedTokensGSS(lx *scan.Lexer, run *glr.Run) error {
	for lx.HasNext() {
		tok := lx.Next()
		if tok.Class().ID() == "$" {
			break
		}
		span := Span{SrcLine: tok.Line(), SrcCol: tok.LinePos(), Text: tok.Lexeme(), Full: tok.FullLine()}
		if err := run.Feed(tok.Class().ID(), tok.Lexeme(), span); err != nil {
			return err
		}
	}
	return nil
}

func feedTokensCactus(lx *scan.Lexer, run *glr.CactusRun) error {
	for lx.HasNext() {
		tok := lx.Next()
		if tok.Class().ID() == "$" {
			break
		}
		span := Span{SrcLine: tok.Line(), SrcCol: tok.LinePos(), Text: tok.Lexeme(), Full: tok.FullLine()}
		if err := run.Feed(tok.Class().ID(), tok.Lexeme(), span); err != nil {
			return err
		}
	}
	return nil
}
