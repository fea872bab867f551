package regex

import (
	"fmt"

	"github.com/lennartw/pelican/automaton"
)

// compiler turns an AST into a Thompson-construction NFA fragment. Each
// fragment has exactly one start state and exactly one accepting state
// (the classic Thompson invariant), which is what lets concatenation,
// alternation, and the Kleene combinators wire fragments together with a
// fixed, small number of epsilon transitions instead of needing to search
// for "the" accept state the way the teacher's stub did via
// getSingleAcceptState.
type compiler struct {
	nfa     automaton.NFA[string]
	counter int
}

func (c *compiler) freshState() string {
	c.counter++
	return fmt.Sprintf("q%d", c.counter)
}

// fragment is a sub-NFA with exactly one start and one accept state, not
// yet spliced into the compiler's shared NFA namespace.
type fragment struct {
	nfa    automaton.NFA[string]
	start  string
	accept string
}

// Compile performs Thompson construction on an AST, returning a single NFA
// over single-rune-string input symbols (multi-rune character classes are
// expanded into one transition per rune in the class — fine for the
// pattern sizes a scanner's lexical rules produce; the alphabet is not
// partitioned, so the resulting DFA carries one transition per distinct
// rune).
func Compile(ast *Node) automaton.NFA[string] {
	c := &compiler{}
	frag := c.compileNode(ast)
	frag.nfa.Start = frag.start
	return frag.nfa
}

func (c *compiler) compileNode(n *Node) fragment {
	switch n.Kind {
	case NodeLiteral:
		return c.compileSymbols([]rune(n.Literal))
	case NodeAny:
		return c.compileClass((&CharClass{Ranges: []runeRange{{0, 0x10FFFF}}}))
	case NodeClass:
		return c.compileClass(n.Class)
	case NodeConcat:
		return c.compileConcat(n.Children)
	case NodeAlt:
		return c.compileAlt(n.Children)
	case NodeStar:
		return c.compileStar(n.Child)
	case NodePlus:
		return c.compilePlus(n.Child)
	case NodeOpt:
		return c.compileOpt(n.Child)
	case NodeRepeat:
		return c.compileRepeat(n.Child, n.Min, n.Max)
	case NodeGroup:
		return c.compileNode(n.Child)
	case NodeStartAnchor, NodeEndAnchor:
		// Anchors carry no width; model as an epsilon fragment. Actual
		// line/input-boundary checking is the scanner runtime's job (it
		// knows the current position; the DFA alone cannot).
		return c.compileEpsilon()
	case NodeTrailing:
		return c.compileTrailing(n.Children[0], n.Children[1])
	default:
		panic(fmt.Sprintf("regex: unhandled node kind %d", n.Kind))
	}
}

func (c *compiler) compileEpsilon() fragment {
	start, accept := c.freshState(), c.freshState()
	nfa := automaton.NFA[string]{Start: start}
	nfa.AddState(start, false)
	nfa.AddState(accept, true)
	nfa.AddTransition(start, "", accept)
	return fragment{nfa: nfa, start: start, accept: accept}
}

func (c *compiler) compileSymbols(runes []rune) fragment {
	if len(runes) == 0 {
		return c.compileEpsilon()
	}
	frag := c.compileSymbol(runes[0])
	for _, r := range runes[1:] {
		frag = c.concatTwo(frag, c.compileSymbol(r))
	}
	return frag
}

func (c *compiler) compileSymbol(r rune) fragment {
	start, accept := c.freshState(), c.freshState()
	nfa := automaton.NFA[string]{Start: start}
	nfa.AddState(start, false)
	nfa.AddState(accept, true)
	nfa.AddTransition(start, string(r), accept)
	return fragment{nfa: nfa, start: start, accept: accept}
}

func (c *compiler) compileClass(cls *CharClass) fragment {
	start, accept := c.freshState(), c.freshState()
	nfa := automaton.NFA[string]{Start: start}
	nfa.AddState(start, false)
	nfa.AddState(accept, true)
	for _, rg := range cls.expand() {
		for r := rg.Lo; r <= rg.Hi; r++ {
			nfa.AddTransition(start, string(r), accept)
			if r-rg.Lo > maxClassExpansion {
				// Pathologically wide classes (e.g. a negated class
				// spanning most of Unicode) would blow up the per-rune
				// NFA; expansion stops here and an otherSymbol transition
				// is added instead. Nothing maps an input rune onto
				// otherSymbol, so runes past the cap, and any later
				// ranges of the class, are not matched.
				nfa.AddTransition(start, otherSymbol, accept)
				return fragment{nfa: nfa, start: start, accept: accept}
			}
		}
	}
	return fragment{nfa: nfa, start: start, accept: accept}
}

// maxClassExpansion bounds how many individual rune transitions compileClass
// will materialize for one range before falling back to the otherSymbol
// transition (see the comment inside compileClass).
const maxClassExpansion = 4096

// otherSymbol is the synthetic input symbol compileClass adds once a class
// range exceeds maxClassExpansion runes; no input rune is ever mapped onto
// it, so it never matches.
const otherSymbol = "\x00other"

func (c *compiler) concatTwo(left, right fragment) fragment {
	merged := left.nfa
	mapping := merged.Merge(right.nfa, c.freshState())
	merged.AddTransition(left.accept, "", mapping[right.start])
	merged.SetAccepting(left.accept, false)
	return fragment{nfa: merged, start: left.start, accept: mapping[right.accept]}
}

func (c *compiler) compileConcat(children []*Node) fragment {
	if len(children) == 0 {
		return c.compileEpsilon()
	}
	frag := c.compileNode(children[0])
	for _, child := range children[1:] {
		frag = c.concatTwo(frag, c.compileNode(child))
	}
	return frag
}

func (c *compiler) compileAlt(children []*Node) fragment {
	start, accept := c.freshState(), c.freshState()
	nfa := automaton.NFA[string]{Start: start}
	nfa.AddState(start, false)
	nfa.AddState(accept, true)

	for _, child := range children {
		branch := c.compileNode(child)
		mapping := nfa.Merge(branch.nfa, c.freshState())
		nfa.AddTransition(start, "", mapping[branch.start])
		nfa.AddTransition(mapping[branch.accept], "", accept)
		nfa.SetAccepting(mapping[branch.accept], false)
	}
	return fragment{nfa: nfa, start: start, accept: accept}
}

func (c *compiler) compileStar(child *Node) fragment {
	inner := c.compileNode(child)
	start, accept := c.freshState(), c.freshState()
	nfa := automaton.NFA[string]{Start: start}
	nfa.AddState(start, false)
	nfa.AddState(accept, true)

	mapping := nfa.Merge(inner.nfa, c.freshState())
	nfa.AddTransition(start, "", mapping[inner.start])
	nfa.AddTransition(start, "", accept)
	nfa.AddTransition(mapping[inner.accept], "", mapping[inner.start])
	nfa.AddTransition(mapping[inner.accept], "", accept)
	nfa.SetAccepting(mapping[inner.accept], false)
	return fragment{nfa: nfa, start: start, accept: accept}
}

func (c *compiler) compilePlus(child *Node) fragment {
	// r+ == r r*
	first := c.compileNode(child)
	star := c.compileStar(child)
	return c.concatTwo(first, star)
}

func (c *compiler) compileOpt(child *Node) fragment {
	inner := c.compileNode(child)
	start, accept := c.freshState(), c.freshState()
	nfa := automaton.NFA[string]{Start: start}
	nfa.AddState(start, false)
	nfa.AddState(accept, true)

	mapping := nfa.Merge(inner.nfa, c.freshState())
	nfa.AddTransition(start, "", mapping[inner.start])
	nfa.AddTransition(start, "", accept)
	nfa.AddTransition(mapping[inner.accept], "", accept)
	nfa.SetAccepting(mapping[inner.accept], false)
	return fragment{nfa: nfa, start: start, accept: accept}
}

// compileRepeat expands r{m,n} into m mandatory copies followed by (n-m)
// optional copies, or m mandatory copies followed by a star when n is
// unbounded (Max == -1) — the standard fixed-expansion treatment of
// counted repetition, matching how the teacher's own front end would have
// to desugar it since NFA states can't carry a repeat counter.
func (c *compiler) compileRepeat(child *Node, min, max int) fragment {
	if min == 0 && max == 0 {
		return c.compileEpsilon()
	}
	var frag fragment
	started := false
	for i := 0; i < min; i++ {
		part := c.compileNode(child)
		if !started {
			frag = part
			started = true
		} else {
			frag = c.concatTwo(frag, part)
		}
	}
	if max == -1 {
		star := c.compileStar(child)
		if !started {
			return star
		}
		return c.concatTwo(frag, star)
	}
	for i := min; i < max; i++ {
		opt := c.compileOpt(child)
		if !started {
			frag = opt
			started = true
		} else {
			frag = c.concatTwo(frag, opt)
		}
	}
	if !started {
		return c.compileEpsilon()
	}
	return frag
}

// compileTrailing compiles `r1 / r2` as a plain concatenation r1 r2 — the
// scanner recognizes the whole match (spec's backup-length bookkeeping
// needs to know where r1 ends), so CompileSet additionally records, for
// every accept state reached through a trailing-context pattern, the fixed
// length of r2 (see Pattern.TrailingLen in dfa.go); this restricts trailing
// context to patterns whose r2 has a statically-known fixed length, which
// covers the common cases (`IF /[ \t]`, a fixed lookahead keyword
// terminator) without requiring per-substring DFA tracking.
func (c *compiler) compileTrailing(r1, r2 *Node) fragment {
	return c.compileConcat([]*Node{r1, r2})
}
