package grammar

import (
	"fmt"
	"strings"

	"github.com/lennartw/pelican/internal/icterrors"
	"github.com/lennartw/pelican/internal/util"
)

// Macro is a named, parameterized production fragment: {ident1|ident2|...}
// style grammar macros that expand to a small family of rules before table
// construction ever sees them (spec §3: "macros expand to a finite set of
// concrete rules, to a fixpoint, prior to any further construction step").
//
// A Macro's Body is itself a list of Productions that may reference other
// macros by name (wrapped as a symbol of the form "%name"); expansion
// substitutes each such reference with every one of the referenced macro's
// already-expanded alternatives, so the number of concrete rules produced
// can grow multiplicatively with macro nesting depth.
type Macro struct {
	Name string
	Body []Production
}

// DefineMacro registers a macro body under name, to be expanded into
// concrete rules by ExpandMacros. Defining the same name twice replaces the
// previous definition.
func (g *Grammar) DefineMacro(name string, body []Production) {
	g.macros[name] = &Macro{Name: name, Body: body}
}

// isMacroRef reports whether sym names a macro invocation ("%name" form).
func isMacroRef(sym string) (name string, ok bool) {
	if strings.HasPrefix(sym, "%") && len(sym) > 1 {
		return sym[1:], true
	}
	return "", false
}

// ExpandMacros rewrites every rule whose production references a macro into
// one rule per combination of referenced alternatives, to a fixpoint, then
// clears the macro table. Cycles (a macro that, directly or through other
// macros, references itself) are reported as a definition error rather than
// looping forever.
func (g *Grammar) ExpandMacros() error {
	if len(g.macros) == 0 {
		return nil
	}

	var errs icterrors.DefinitionErrors

	resolved := map[string][]Production{}
	resolving := util.NewStringSet()

	var resolve func(name string) []Production
	resolve = func(name string) []Production {
		if alts, ok := resolved[name]; ok {
			return alts
		}
		if resolving.Has(name) {
			errs.Addf("macro %q is defined in terms of itself (cycle)", name)
			return nil
		}
		m, ok := g.macros[name]
		if !ok {
			errs.Addf("reference to undefined macro %q", name)
			return nil
		}
		resolving.Add(name)
		var out []Production
		for _, body := range m.Body {
			out = append(out, expandProduction(body, resolve)...)
		}
		resolving.Remove(name)
		resolved[name] = out
		return out
	}

	for name := range g.macros {
		resolve(name)
	}
	if errs.HasErrors() {
		return errs.ToError()
	}

	var newRules []Rule
	for _, r := range g.rules {
		hasMacro := false
		for _, sym := range r.Production {
			if _, ok := isMacroRef(sym); ok {
				hasMacro = true
				break
			}
		}
		if !hasMacro {
			newRules = append(newRules, r)
			continue
		}
		for _, alt := range expandProduction(r.Production, resolve) {
			nr := r.Copy()
			nr.Production = alt
			nr.CaptureMask = nil // positions shifted; caller must re-derive
			newRules = append(newRules, nr)
		}
	}

	g.rules = nil
	g.ntIndex = map[string][]int{}
	for _, r := range newRules {
		idx := len(g.rules)
		r.Index = idx
		g.rules = append(g.rules, r)
		g.ntIndex[r.NonTerminal] = append(g.ntIndex[r.NonTerminal], idx)
	}
	g.macros = map[string]*Macro{}
	return nil
}

// expandProduction returns every concrete production obtainable by
// substituting each macro reference in prod with one alternative from
// resolve(name), taking the cross product across multiple references in the
// same production (spec: "a production with N macro references of A1..AN
// alternatives each expands to the product of alternative counts").
func expandProduction(prod Production, resolve func(string) []Production) []Production {
	combos := []Production{{}}
	for _, sym := range prod {
		name, isMacro := isMacroRef(sym)
		if !isMacro {
			for i := range combos {
				combos[i] = append(combos[i], sym)
			}
			continue
		}
		alts := resolve(name)
		if len(alts) == 0 {
			alts = []Production{{}}
		}
		var next []Production
		for _, c := range combos {
			for _, alt := range alts {
				merged := make(Production, 0, len(c)+len(alt))
				merged = append(merged, c...)
				merged = append(merged, alt...)
				next = append(next, merged)
			}
		}
		combos = next
	}
	return combos
}

func macroRefString(name string) string {
	return fmt.Sprintf("%%%s", name)
}
