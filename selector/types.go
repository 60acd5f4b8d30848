// Package selector provides a small tagged-union representation of CSS
// selectors sufficient for CSS Modules processing: class, id and tag
// references, combinators, pseudo-classes and the :local(...)/:global(...)
// wrappers.
//
// Trees are treated as immutable values. Rewriting is done with Rebuild which
// returns a fresh copy of every node it visits.
package selector

// Node is one of *List, *Selector, *Class, *ID, *Tag, *Local, *Global,
// *Pseudo, *Attribute or *Combinator.
type Node interface {
	node()
}

// List is a comma separated selector list.
type List struct {
	Selectors []*Selector
}

// Selector is a single complex selector: a flat sequence of simple selectors
// and combinators in source order.
type Selector struct {
	Nodes []Node
}

// Class is a class reference without the leading dot.
type Class struct {
	Name string
}

// ID is an id reference without the leading hash.
type ID struct {
	Name string
}

// Tag is a type selector, universal selector ("*") or nesting selector ("&").
type Tag struct {
	Name string
}

// Local is the explicit-local wrapper :local(...).
type Local struct {
	List *List
}

// Global is the explicit-global wrapper :global(...).
type Global struct {
	List *List
}

// Pseudo is any other pseudo-class or pseudo-element. Name keeps its leading
// colons. For functional pseudo-classes taking selectors (:not, :is, :where,
// :has, :matches) List holds the parsed argument, otherwise Arg holds the raw
// argument text.
type Pseudo struct {
	Name   string
	Arg    string
	List   *List
	HasArg bool
}

// Attribute is an attribute selector, Raw is the text between the brackets.
type Attribute struct {
	Raw string
}

// Combinator is one of " ", ">", "+", "~" or "||".
type Combinator struct {
	Value string
}

func (*List) node()       {}
func (*Selector) node()   {}
func (*Class) node()      {}
func (*ID) node()         {}
func (*Tag) node()        {}
func (*Local) node()      {}
func (*Global) node()     {}
func (*Pseudo) node()     {}
func (*Attribute) node()  {}
func (*Combinator) node() {}

// Descendant is the whitespace combinator value.
const Descendant = " "
