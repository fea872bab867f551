package scan

import (
	"fmt"
	"unicode/utf8"

	"github.com/lennartw/pelican/regex"
)

// Rule is one lexical rule: a pattern, what to do when it matches, a
// rank for breaking ties against other rules matching the same lexeme
// (spec.md §3 Pattern: "rank (integer, default zero)"), the set of
// scan-conditions it is active in, and a source line for diagnostics.
type Rule struct {
	Pattern    string
	Action     Action
	Rank       int
	Conditions []string
	Line       int
}

// Builder accumulates token classes, named handlers, scan-condition
// inclusion relationships, and rules, then compiles them into an
// immutable Table. Grounded on the teacher's lexerTemplate
// (internal/ictiobus/lex/lex.go: AddClass/AddPattern accumulate into
// per-state slices before Lex() snapshots them), generalized here to
// scan-condition inclusion and named handlers per spec.md §4.1/§4.2.
type Builder struct {
	classes  map[string]TokenClass
	handlers map[string]Handler
	rules    []Rule
	includes map[string][]string
	initial  string
}

// NewBuilder returns an empty Builder whose initial condition is
// "INITIAL" unless SetInitial overrides it.
func NewBuilder() *Builder {
	return &Builder{
		classes:  map[string]TokenClass{},
		handlers: map[string]Handler{},
		includes: map[string][]string{},
		initial:  "INITIAL",
	}
}

// SetInitial overrides the scan-condition the Lexer starts in.
func (b *Builder) SetInitial(condition string) { b.initial = condition }

// AddClass registers a token class so AddRule's ActionScan* variants may
// reference it by ID.
func (b *Builder) AddClass(cl TokenClass) { b.classes[cl.ID()] = cl }

// AddHandler registers a named handler for use with Exec(name) actions.
func (b *Builder) AddHandler(name string, h Handler) { b.handlers[name] = h }

// Include declares that condition, while active, also considers every
// rule active in included (transitively) — spec.md §4.1: "Each condition
// may declare inclusion of another group."
func (b *Builder) Include(condition, included string) {
	b.includes[condition] = append(b.includes[condition], included)
}

// AddRule registers a lexical rule active in every listed condition (or
// just the initial condition if none are given).
func (b *Builder) AddRule(pattern string, action Action, line int, conditions ...string) error {
	if len(conditions) == 0 {
		conditions = []string{b.initial}
	}
	if action.Type == ActionScan || action.Type == ActionScanAndEnter ||
		action.Type == ActionScanAndPush || action.Type == ActionScanAndPop {
		if _, ok := b.classes[action.ClassID]; !ok {
			return fmt.Errorf("scan: rule %q (line %d): class %q not defined; call AddClass first", pattern, line, action.ClassID)
		}
	}
	if action.Type == ActionEnter || action.Type == ActionPush ||
		action.Type == ActionScanAndEnter || action.Type == ActionScanAndPush {
		if action.State == "" {
			return fmt.Errorf("scan: rule %q (line %d): action requires a target scan-condition", pattern, line)
		}
	}
	if action.Type == ActionExec {
		if _, ok := b.handlers[action.Handler]; !ok {
			return fmt.Errorf("scan: rule %q (line %d): handler %q not registered; call AddHandler first", pattern, line, action.Handler)
		}
	}

	b.rules = append(b.rules, Rule{Pattern: pattern, Action: action, Conditions: conditions, Line: line})
	return nil
}

// Table is the immutable, compiled output of a Builder: one DFA per
// scan-condition plus the action/class/handler bindings needed to drive
// matches. Tables are built once and never mutated, matching spec.md §3's
// "grammars and tables are constructed once and immutable thereafter."
type Table struct {
	conditions map[string]*conditionTable
	classes    map[string]TokenClass
	handlers   map[string]Handler
	initial    string
}

type conditionTable struct {
	compiled *regex.CompiledSet
	actions  map[string]Action // keyed by regex.Match.Name
}

// Build compiles every condition's effective rule set (own rules plus
// transitively included conditions') into a regex.CompiledSet and returns
// the resulting Table.
func (b *Builder) Build() (*Table, error) {
	conditionNames := map[string]bool{b.initial: true}
	for _, r := range b.rules {
		for _, c := range r.Conditions {
			conditionNames[c] = true
		}
	}
	for c, included := range b.includes {
		conditionNames[c] = true
		for _, inc := range included {
			conditionNames[inc] = true
		}
	}

	table := &Table{
		conditions: map[string]*conditionTable{},
		classes:    b.classes,
		handlers:   b.handlers,
		initial:    b.initial,
	}

	for cond := range conditionNames {
		effective, err := b.effectiveRules(cond, map[string]bool{})
		if err != nil {
			return nil, err
		}
		ct, err := b.compileCondition(effective)
		if err != nil {
			return nil, fmt.Errorf("scan: condition %q: %w", cond, err)
		}
		table.conditions[cond] = ct
	}
	return table, nil
}

// effectiveRules gathers every rule active in cond, including rules
// pulled in transitively via Include, detecting inclusion cycles
// defensively (spec.md's macro-cycle language applies equally well here:
// inclusion should never cycle by construction, but a malformed grammar
// document could ask for it).
func (b *Builder) effectiveRules(cond string, visiting map[string]bool) ([]Rule, error) {
	if visiting[cond] {
		return nil, fmt.Errorf("scan-condition inclusion cycle at %q", cond)
	}
	visiting[cond] = true

	var out []Rule
	for _, r := range b.rules {
		for _, c := range r.Conditions {
			if c == cond {
				out = append(out, r)
				break
			}
		}
	}
	for _, inc := range b.includes[cond] {
		more, err := b.effectiveRules(inc, visiting)
		if err != nil {
			return nil, err
		}
		out = append(out, more...)
	}
	return out, nil
}

func (b *Builder) compileCondition(rules []Rule) (*conditionTable, error) {
	if len(rules) == 0 {
		return &conditionTable{compiled: nil, actions: map[string]Action{}}, nil
	}

	patterns := make([]regex.Pattern, len(rules))
	actions := make(map[string]Action, len(rules))
	for i, r := range rules {
		name := fmt.Sprintf("rule%d", i)
		trailing := -1
		ast, err := regex.Parse(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q (line %d): %w", r.Pattern, r.Line, err)
		}
		if ast.Kind == regex.NodeTrailing {
			width, ok := fixedWidth(ast.Children[1])
			if !ok {
				return nil, fmt.Errorf("pattern %q (line %d): trailing context requires a fixed-length right side", r.Pattern, r.Line)
			}
			trailing = width
		}
		patterns[i] = regex.Pattern{Name: name, Source: r.Pattern, Rank: r.Rank, TrailingLen: trailing}
		actions[name] = r.Action
	}

	compiled, err := regex.CompileSet(patterns)
	if err != nil {
		return nil, err
	}
	return &conditionTable{compiled: compiled, actions: actions}, nil
}

// fixedWidth reports the exact rune width n always matches, if that width
// is statically known (any star, plus, optional, anchor, alternation, or
// repeat whose Min differs from its Max makes it unknown) — used to validate trailing-context right-hand
// sides, which this module restricts to fixed length (see regex package's
// compileTrailing doc comment).
func fixedWidth(n *regex.Node) (int, bool) {
	switch n.Kind {
	case regex.NodeLiteral:
		return utf8.RuneCountInString(n.Literal), true
	case regex.NodeAny, regex.NodeClass:
		return 1, true
	case regex.NodeGroup:
		return fixedWidth(n.Child)
	case regex.NodeConcat:
		total := 0
		for _, child := range n.Children {
			w, ok := fixedWidth(child)
			if !ok {
				return 0, false
			}
			total += w
		}
		return total, true
	case regex.NodeRepeat:
		if n.Min != n.Max {
			return 0, false
		}
		w, ok := fixedWidth(n.Child)
		if !ok {
			return 0, false
		}
		return w * n.Min, true
	default:
		return 0, false
	}
}
