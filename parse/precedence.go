package parse

import "github.com/lennartw/pelican/grammar"

// precedenceVerdict is the outcome of comparing a reduce rule's precedence
// against a shift terminal's, per the rule's declared or inferred
// precedence symbol and the terminal's associativity.
type precedenceVerdict int

const (
	// verdictUnresolved means precedence cannot decide: the rule has no
	// precedence terminal, the rule or the lookahead terminal has no
	// precedence level, or their shared level is neither left, right nor
	// nonassoc; the caller falls back to reporting the conflict and
	// defaulting to shift.
	verdictUnresolved precedenceVerdict = iota
	verdictShift
	verdictReduce
	// verdictError means the conflict involves a nonassociative operator
	// used against itself — this must become an explicit error action,
	// not a silent default.
	verdictError
)

// resolvePrecedence compares rule's precedence (its explicit %prec symbol,
// or else the rightmost terminal of its RHS) against lookahead's
// precedence level, resolving a shift/reduce conflict the way yacc-family
// tools do: higher level wins; equal level defers to the lookahead
// terminal's associativity.
func resolvePrecedence(g *grammar.Grammar, rule grammar.Rule, lookahead string) precedenceVerdict {
	ruleTerm := rule.Precedence
	if ruleTerm == "" {
		ruleTerm = rightmostTerminal(g, rule.Production)
	}
	if ruleTerm == "" {
		return verdictUnresolved
	}
	ruleLevel, _, ruleHas := g.PrecedenceOf(ruleTerm)
	tokLevel, assoc, tokHas := g.PrecedenceOf(lookahead)
	if !ruleHas || !tokHas {
		return verdictUnresolved
	}

	switch {
	case ruleLevel > tokLevel:
		return verdictReduce
	case tokLevel > ruleLevel:
		return verdictShift
	default:
		switch assoc {
		case grammar.AssocLeft:
			return verdictReduce
		case grammar.AssocRight:
			return verdictShift
		case grammar.AssocNonAssoc:
			return verdictError
		default: // AssocBogus, AssocNone: this level never decides a real conflict
			return verdictUnresolved
		}
	}
}

func rightmostTerminal(g *grammar.Grammar, prod grammar.Production) string {
	for i := len(prod) - 1; i >= 0; i-- {
		if g.IsTerminal(prod[i]) {
			return prod[i]
		}
	}
	return ""
}
