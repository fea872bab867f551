// Package glr is the generalized, non-deterministic sibling of rt: where
// rt.Driver assumes the table has exactly one action per (state, terminal)
// cell, glr.Parser is built for tables a grammar's %nondeterministic
// declaration allows to carry more than one. It offers the two strategies
// spec describes: a Tomita-style graph-structured stack (the default, and
// the only one that survives hidden left recursion) and a brute-force
// cactus stack that clones a linked tip per alternative and gives up with a
// diagnostic the moment it detects an epsilon cycle.
package glr

import (
	"fmt"

	"github.com/lennartw/pelican/grammar"
	"github.com/lennartw/pelican/parse"
	"github.com/lennartw/pelican/rt"
)

// Span is an alias of rt.Span: both runtimes carry the same source-location
// metadata, and a caller bridging scan output into one or the other shouldn't
// have to convert between two identical types.
type Span = rt.Span

// Constructor and Constructors mirror rt's: a constructor turns a reduction's
// captured arguments (and combined span) into a semantic value.
type Constructor = rt.Constructor
type Constructors = rt.Constructors

// Ambiguity merges the semantic values of several accepted parses of the
// whole input into one. Run.Finish and CactusRun.Finish consult it only
// when more than one accepted value exists; a nil Ambiguity leaves every
// one of them in Finish's result slice for the caller to pick from.
type Ambiguity func(candidates []any) (any, error)

// Strategy selects which of spec's two generalized-parsing algorithms a
// Parser runs.
type Strategy int

const (
	// StrategyGSS is the Tomita graph-structured-stack algorithm: at most
	// one live node per (level, state), merged derivations share edges,
	// and hidden left recursion is handled correctly because a merge never
	// re-walks an edge it has already completed for a given rule.
	StrategyGSS Strategy = iota
	// StrategyCactus is the brute-force linked-tip algorithm: simpler, but
	// it diverges on hidden left recursion, so Parser reports that case as
	// an error rather than looping forever.
	StrategyCactus
)

// Parser drives a parse.Table whose grammar was declared non-deterministic.
type Parser struct {
	Table        *parse.Table
	Constructors Constructors
	Ambiguity    Ambiguity
	Strategy     Strategy

	trace func(string)
}

// NewParser builds a Parser over table, dispatching named constructors
// through ctors. The default strategy is StrategyGSS.
func NewParser(table *parse.Table, ctors Constructors) *Parser {
	return &Parser{Table: table, Constructors: ctors, Strategy: StrategyGSS}
}

// SetTraceListener registers f to receive trace output: Run.Feed sends one
// line per token, naming the token and the number of active nodes left
// after it; CactusRun sends none.
func (p *Parser) SetTraceListener(f func(string)) { p.trace = f }

func (p *Parser) notify(format string, args ...any) {
	if p.trace != nil {
		p.trace(fmt.Sprintf(format, args...))
	}
}

// GenerateTable builds the table a Parser runs against. Per spec's design
// note that generating non-deterministic tables historically forces LALR
// as the base method, this always goes through GenerateLALR1Parser with
// ambiguity allowed; a grammar that was never declared %nondeterministic is
// rejected outright, since a deterministic grammar has no business paying
// for the generalized parser's bookkeeping.
func GenerateTable(g *grammar.Grammar) (*parse.Table, []string, error) {
	if !g.NonDeterministic() {
		return nil, nil, fmt.Errorf("glr: grammar was not declared non-deterministic")
	}
	return parse.GenerateLALR1Parser(g, true)
}
