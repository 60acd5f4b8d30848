package selector

import "strings"

// String returns the textual form of n.
func String(n Node) string {
	var sb strings.Builder
	write(&sb, n)
	return sb.String()
}

func write(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *List:
		for i, s := range n.Selectors {
			if i > 0 {
				sb.WriteString(", ")
			}
			write(sb, s)
		}
	case *Selector:
		for _, c := range n.Nodes {
			write(sb, c)
		}
	case *Class:
		sb.WriteByte('.')
		sb.WriteString(n.Name)
	case *ID:
		sb.WriteByte('#')
		sb.WriteString(n.Name)
	case *Tag:
		sb.WriteString(n.Name)
	case *Local:
		sb.WriteString(":local(")
		write(sb, n.List)
		sb.WriteByte(')')
	case *Global:
		sb.WriteString(":global(")
		write(sb, n.List)
		sb.WriteByte(')')
	case *Pseudo:
		sb.WriteString(n.Name)
		if n.HasArg {
			sb.WriteByte('(')
			if n.List != nil {
				write(sb, n.List)
			} else {
				sb.WriteString(n.Arg)
			}
			sb.WriteByte(')')
		}
	case *Attribute:
		sb.WriteByte('[')
		sb.WriteString(n.Raw)
		sb.WriteByte(']')
	case *Combinator:
		if n.Value == Descendant {
			sb.WriteString(Descendant)
		} else {
			sb.WriteString(" " + n.Value + " ")
		}
	}
}

// Rebuild returns a deep copy of n. fn is called for every node top-down
// before its children are copied; when it reports true the returned node is
// used in place of n and n's children are not visited. A nil fn just copies
// the tree. A selector replaced by nil is dropped from its list, any other
// node kind returned for a selector is wrapped into a new selector. A selector
// returned in place of a node inside another selector is spliced into it.
func Rebuild(n Node, fn func(Node) (Node, bool)) Node {
	if fn != nil {
		if r, ok := fn(n); ok {
			return r
		}
	}

	switch n := n.(type) {
	case *List:
		return rebuildList(n, fn)
	case *Selector:
		out := &Selector{Nodes: make([]Node, 0, len(n.Nodes))}
		for _, c := range n.Nodes {
			switch r := Rebuild(c, fn).(type) {
			case nil:
			case *Selector:
				out.Nodes = append(out.Nodes, r.Nodes...)
			default:
				out.Nodes = append(out.Nodes, r)
			}
		}
		return out
	case *Local:
		return &Local{List: rebuildList(n.List, fn)}
	case *Global:
		return &Global{List: rebuildList(n.List, fn)}
	case *Pseudo:
		c := *n
		if n.List != nil {
			c.List = rebuildList(n.List, fn)
		}
		return &c
	case *Class:
		c := *n
		return &c
	case *ID:
		c := *n
		return &c
	case *Tag:
		c := *n
		return &c
	case *Attribute:
		c := *n
		return &c
	case *Combinator:
		c := *n
		return &c
	}
	return nil
}

func rebuildList(l *List, fn func(Node) (Node, bool)) *List {
	out := &List{Selectors: make([]*Selector, 0, len(l.Selectors))}
	for _, s := range l.Selectors {
		switch r := Rebuild(s, fn).(type) {
		case nil:
		case *Selector:
			out.Selectors = append(out.Selectors, r)
		default:
			out.Selectors = append(out.Selectors, &Selector{Nodes: []Node{r}})
		}
	}
	return out
}

// Walk visits n and its descendants in document order. Children of a node are
// skipped when fn returns false for it.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *List:
		for _, s := range n.Selectors {
			Walk(s, fn)
		}
	case *Selector:
		for _, c := range n.Nodes {
			Walk(c, fn)
		}
	case *Local:
		Walk(n.List, fn)
	case *Global:
		Walk(n.List, fn)
	case *Pseudo:
		if n.List != nil {
			Walk(n.List, fn)
		}
	}
}

// Classes returns class names referenced by n outside of :global(...)
// wrappers, in document order and without duplicates.
func Classes(n Node) []string {
	var (
		names []string
		seen  = make(map[string]bool)
	)
	Walk(n, func(n Node) bool {
		switch n := n.(type) {
		case *Global:
			return false
		case *Class:
			if !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		}
		return true
	})
	return names
}
