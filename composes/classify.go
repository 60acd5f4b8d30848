package composes

import (
	"icssc/selector"
)

// Classify returns the class name denoted by sel when sel is a single class
// reference, either bare or wrapped in :local(...). Any other shape yields a
// NotSingleClassError carrying the selector text.
func Classify(sel *selector.Selector) (string, error) {
	if name, ok := singleClass(sel); ok {
		return name, nil
	}
	return "", &NotSingleClassError{Selector: selector.String(sel)}
}

func singleClass(sel *selector.Selector) (string, bool) {
	if len(sel.Nodes) != 1 {
		return "", false
	}
	switch n := sel.Nodes[0].(type) {
	case *selector.Class:
		return n.Name, true
	case *selector.Local:
		if len(n.List.Selectors) != 1 {
			return "", false
		}
		inner := n.List.Selectors[0]
		if len(inner.Nodes) != 1 {
			return "", false
		}
		if c, ok := inner.Nodes[0].(*selector.Class); ok {
			return c.Name, true
		}
	}
	return "", false
}

// ClassifyRule classifies every selector of a rule prelude independently.
// Qualifying selectors contribute their class name, every other selector
// contributes one error. A prelude which cannot be parsed fails as a whole.
func ClassifyRule(prelude string) ([]string, []*NotSingleClassError) {
	list, err := selector.Parse(prelude)
	if err != nil {
		return nil, []*NotSingleClassError{{Selector: prelude}}
	}

	var (
		names []string
		errs  []*NotSingleClassError
	)
	for _, sel := range list.Selectors {
		if name, ok := singleClass(sel); ok {
			names = append(names, name)
			continue
		}
		errs = append(errs, &NotSingleClassError{Selector: selector.String(sel)})
	}
	return names, errs
}
