package composes

import (
	"errors"
	"slices"
	"strings"

	"icssc/css"
	"icssc/icss"
)

// DefaultProperties are the declaration names treated as composition.
var DefaultProperties = []string{"composes", "compose-with"}

// match is a composition declaration detached from its rule.
type match struct {
	rule    *css.Rule
	parents []*css.AtRule
	decl    css.Declaration
}

// conditional returns the innermost enclosing conditional at-rule, if any.
func (m *match) conditional() *css.AtRule {
	for i := len(m.parents) - 1; i >= 0; i-- {
		if m.parents[i].IsConditional() {
			return m.parents[i]
		}
	}
	return nil
}

var errStop = errors.New("stop walking")

// hasCompositions reports whether any rule of the sheet declares composition.
func hasCompositions(sheet *css.Stylesheet, props []string) bool {
	err := sheet.WalkRules(func(rule *css.Rule, _ []*css.AtRule) error {
		if icss.IsICSS(rule.Selector) {
			return nil
		}
		if slices.ContainsFunc(rule.Declarations, func(d css.Declaration) bool { return isComposition(d, props) }) {
			return errStop
		}
		return nil
	})
	return errors.Is(err, errStop)
}

func isComposition(d css.Declaration, props []string) bool {
	return slices.Contains(props, strings.ToLower(d.Property))
}

// scan detaches composition declarations from all rules of the sheet and
// returns them in document order.
func scan(sheet *css.Stylesheet, props []string) []match {
	var matches []match
	sheet.WalkRules(func(rule *css.Rule, parents []*css.AtRule) error { //nolint:errcheck
		if icss.IsICSS(rule.Selector) {
			return nil
		}
		kept := rule.Declarations[:0]
		for _, d := range rule.Declarations {
			if isComposition(d, props) {
				matches = append(matches, match{rule: rule, parents: parents, decl: d})
				continue
			}
			kept = append(kept, d)
		}
		rule.Declarations = kept
		return nil
	})
	return matches
}
