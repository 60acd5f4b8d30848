// Package icss reads and writes Interoperable CSS blocks: ":import(source)"
// rules binding local aliases to names exported by another stylesheet and the
// ":export" rule publishing names of this one.
package icss

import (
	"iter"
	"strings"

	"icssc/css"
)

const (
	exportSelector = ":export"
	importPrefix   = ":import("
)

// Pair is a single declaration of an ICSS block. For imports Name is the local
// alias and Value the imported name, for exports Name is the exported key.
type Pair struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Import is one ":import(source)" block.
type Import struct {
	Source string // as written, possibly quoted
	Pairs  []Pair
}

// Path returns the unquoted source.
func (i *Import) Path() string {
	return css.Unquote(i.Source)
}

// Alias returns the local alias bound to an imported name.
func (i *Import) Alias(name string) (string, bool) {
	for _, p := range i.Pairs {
		if p.Value == name {
			return p.Name, true
		}
	}
	return "", false
}

// Exports is an insertion ordered name to value table.
type Exports struct {
	names  []string
	values map[string]string
}

// NewExports returns an empty table.
func NewExports() *Exports {
	return &Exports{values: make(map[string]string)}
}

// Set stores value for name. Existing names keep their position.
func (e *Exports) Set(name, value string) {
	if _, ok := e.values[name]; !ok {
		e.names = append(e.names, name)
	}
	e.values[name] = value
}

func (e *Exports) Get(name string) (string, bool) {
	v, ok := e.values[name]
	return v, ok
}

func (e *Exports) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Names returns exported names in insertion order.
func (e *Exports) Names() []string {
	return append([]string(nil), e.names...)
}

func (e *Exports) Len() int {
	return len(e.names)
}

// All iterates over the table in insertion order.
func (e *Exports) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, name := range e.names {
			if !yield(name, e.values[name]) {
				return
			}
		}
	}
}

// IsICSS reports whether a rule selector denotes an ICSS block.
func IsICSS(selector string) bool {
	_, ok := importSource(selector)
	return ok || selector == exportSelector
}

func importSource(selector string) (string, bool) {
	if !strings.HasPrefix(selector, importPrefix) || !strings.HasSuffix(selector, ")") {
		return "", false
	}
	source := strings.TrimSpace(selector[len(importPrefix) : len(selector)-1])
	return source, source != ""
}

// Extract removes top-level ICSS blocks from the stylesheet and returns their
// content. Import blocks for the same path are merged keeping the quoting of
// the first one, repeated export names keep the last value.
func Extract(sheet *css.Stylesheet) ([]*Import, *Exports) {
	var (
		imports []*Import
		byPath  = make(map[string]*Import)
		exports = NewExports()
	)

	removed := sheet.RemoveFunc(func(item css.StylesheetItem) bool {
		return item.Rule != nil && IsICSS(item.Rule.Selector)
	})

	for _, item := range removed {
		rule := item.Rule
		if rule.Selector == exportSelector {
			for _, d := range rule.Declarations {
				exports.Set(d.Property, d.Value)
			}
			continue
		}

		source, _ := importSource(rule.Selector)
		imp, ok := byPath[css.Unquote(source)]
		if !ok {
			imp = &Import{Source: source}
			byPath[imp.Path()] = imp
			imports = append(imports, imp)
		}
		for _, d := range rule.Declarations {
			imp.Pairs = append(imp.Pairs, Pair{Name: d.Property, Value: d.Value})
		}
	}
	return imports, exports
}

// Rules renders import blocks followed by a single export block. Empty blocks
// are skipped.
func Rules(imports []*Import, exports *Exports) []css.StylesheetItem {
	items := make([]css.StylesheetItem, 0, len(imports)+1)
	for _, imp := range imports {
		if len(imp.Pairs) == 0 {
			continue
		}
		rule := &css.Rule{Selector: importPrefix + imp.Source + ")"}
		for _, p := range imp.Pairs {
			rule.Declarations = append(rule.Declarations, css.Declaration{Property: p.Name, Value: p.Value})
		}
		items = append(items, css.StylesheetItem{Rule: rule})
	}

	if exports != nil && exports.Len() > 0 {
		rule := &css.Rule{Selector: exportSelector}
		for name, value := range exports.All() {
			rule.Declarations = append(rule.Declarations, css.Declaration{Property: name, Value: value})
		}
		items = append(items, css.StylesheetItem{Rule: rule})
	}
	return items
}
