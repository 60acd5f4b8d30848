package css

import (
	"fmt"
	"io"
	"strings"
)

// Declaration is a single property declaration inside a rule or an at-rule
// declaration block.
type Declaration struct {
	Property string // lowercased property name
	Value    string // normalized value text, without trailing semicolon
}

// String returns the CSS text of the declaration without trailing semicolon.
func (d Declaration) String() string {
	return d.Property + ": " + d.Value
}

// Rule represents a qualified rule: a selector prelude and an ordered list of
// declarations.
type Rule struct {
	Selector     string        // selector text as written (whitespace normalized)
	Declarations []Declaration // in source order
}

// Property returns the last declaration for the property name, or false.
func (r *Rule) Property(name string) (Declaration, bool) {
	for i := len(r.Declarations) - 1; i >= 0; i-- {
		if r.Declarations[i].Property == name {
			return r.Declarations[i], true
		}
	}
	return Declaration{}, false
}

// AtRuleKind describes what follows the at-rule prelude.
type AtRuleKind int

const (
	AtStatement    AtRuleKind = iota // no block, e.g. @import url(x);
	AtRuleList                       // block of nested rules, e.g. @media
	AtDeclarations                   // block of declarations, e.g. @font-face
	AtRaw                            // block kept verbatim
)

// AtRule represents an @-rule. Depending on Kind the body is kept in Items,
// Declarations or Raw.
type AtRule struct {
	Name         string // lowercased, including '@'
	Params       string // prelude text
	Kind         AtRuleKind
	Items        []StylesheetItem
	Declarations []Declaration
	Raw          string
}

// BaseName returns the at-rule name without '@' and vendor prefix.
func (a *AtRule) BaseName() string {
	name := strings.TrimPrefix(a.Name, "@")
	if strings.HasPrefix(name, "-") {
		if i := strings.IndexByte(name[1:], '-'); i != -1 {
			name = name[i+2:]
		}
	}
	return name
}

// IsConditional returns true for at-rules whose nested rules apply only when a
// condition holds.
func (a *AtRule) IsConditional() bool {
	switch a.BaseName() {
	case "media", "supports", "document", "container":
		return true
	}
	return false
}

// Header returns the at-rule name followed by its prelude.
func (a *AtRule) Header() string {
	if a.Params == "" {
		return a.Name
	}
	return a.Name + " " + a.Params
}

// StylesheetItem is a single item in a stylesheet or at-rule block.
// Exactly one of Rule, AtRule or Comment is non-nil.
type StylesheetItem struct {
	Rule    *Rule
	AtRule  *AtRule
	Comment *string
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Recoverable parse problems
}

// Prepend inserts items at the beginning of the stylesheet.
func (s *Stylesheet) Prepend(items ...StylesheetItem) {
	s.Items = append(append(make([]StylesheetItem, 0, len(items)+len(s.Items)), items...), s.Items...)
}

// Append adds items at the end of the stylesheet.
func (s *Stylesheet) Append(items ...StylesheetItem) {
	s.Items = append(s.Items, items...)
}

// RemoveFunc removes top-level items for which fn returns true and returns
// them in source order.
func (s *Stylesheet) RemoveFunc(fn func(StylesheetItem) bool) []StylesheetItem {
	var removed []StylesheetItem
	kept := s.Items[:0]
	for _, item := range s.Items {
		if fn(item) {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	clear(s.Items[len(kept):])
	s.Items = kept
	return removed
}

// WalkFunc is called for every rule visited by WalkRules. parents holds the
// enclosing at-rules, outermost first. Returning an error stops the walk.
type WalkFunc func(rule *Rule, parents []*AtRule) error

// WalkRules visits all rules of the stylesheet in source order including rules
// nested in at-rule blocks. Rules inside keyframes are not visited since their
// preludes are keyframe selectors, not selectors.
func (s *Stylesheet) WalkRules(fn WalkFunc) error {
	return walkItems(s.Items, nil, fn)
}

func walkItems(items []StylesheetItem, parents []*AtRule, fn WalkFunc) error {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			if err := fn(item.Rule, parents); err != nil {
				return err
			}
		case item.AtRule != nil && item.AtRule.Kind == AtRuleList:
			if item.AtRule.BaseName() == "keyframes" {
				continue
			}
			if err := walkItems(item.AtRule.Items, append(parents[:len(parents):len(parents)], item.AtRule), fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	ew := &errWriter{w: w}
	writeItems(ew, s.Items, "")
	return ew.n, ew.err
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// errWriter remembers the first error so writing code does not have to check
// every call.
type errWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	n, err := fmt.Fprintf(ew.w, format, args...)
	ew.n += int64(n)
	ew.err = err
}

func writeItems(ew *errWriter, items []StylesheetItem, indent string) {
	for i, item := range items {
		switch {
		case item.Comment != nil:
			ew.printf("%s%s\n", indent, *item.Comment)
		case item.Rule != nil:
			writeRule(ew, item.Rule, indent)
		case item.AtRule != nil:
			writeAtRule(ew, item.AtRule, indent)
		}
		// Add blank line between items (except after last)
		if i < len(items)-1 {
			ew.printf("\n")
		}
	}
}

func writeRule(ew *errWriter, rule *Rule, indent string) {
	ew.printf("%s%s {\n", indent, rule.Selector)
	writeDeclarations(ew, rule.Declarations, indent+"  ")
	ew.printf("%s}\n", indent)
}

func writeDeclarations(ew *errWriter, decls []Declaration, indent string) {
	for _, d := range decls {
		ew.printf("%s%s;\n", indent, d)
	}
}

func writeAtRule(ew *errWriter, at *AtRule, indent string) {
	switch at.Kind {
	case AtStatement:
		ew.printf("%s%s;\n", indent, at.Header())
	case AtRuleList:
		ew.printf("%s%s {\n", indent, at.Header())
		writeItems(ew, at.Items, indent+"  ")
		ew.printf("%s}\n", indent)
	case AtDeclarations:
		ew.printf("%s%s {\n", indent, at.Header())
		writeDeclarations(ew, at.Declarations, indent+"  ")
		ew.printf("%s}\n", indent)
	case AtRaw:
		ew.printf("%s%s {%s}\n", indent, at.Header(), at.Raw)
	}
}
