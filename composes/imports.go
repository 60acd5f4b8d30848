package composes

import (
	"fmt"
	"strconv"
	"strings"

	"icssc/css"
	"icssc/icss"
)

type importKey struct {
	path string
	name string
}

// importTable allocates placeholders for names imported from other files.
// Blocks already present in the stylesheet come first and are extended.
type importTable struct {
	blocks  []*icss.Import
	byPath  map[string]*icss.Import
	byKey   map[importKey]string
	taken   func(string) bool
	counter int
}

func newImportTable(existing []*icss.Import, taken func(string) bool) *importTable {
	t := &importTable{
		byPath: make(map[string]*icss.Import),
		byKey:  make(map[importKey]string),
		taken:  taken,
	}
	for _, imp := range existing {
		t.blocks = append(t.blocks, imp)
		t.byPath[imp.Path()] = imp
		for _, p := range imp.Pairs {
			key := importKey{path: imp.Path(), name: p.Value}
			if _, ok := t.byKey[key]; !ok {
				t.byKey[key] = p.Name
			}
			if n, ok := placeholderIndex(p.Name); ok && n >= t.counter {
				t.counter = n + 1
			}
		}
	}
	return t
}

const placeholderPrefix = "__composed__"

func placeholder(name string, n int) string {
	return fmt.Sprintf("%s%s__%d", placeholderPrefix, name, n)
}

// placeholderIndex extracts the counter from a placeholder made by an earlier
// pass.
func placeholderIndex(id string) (int, bool) {
	if !strings.HasPrefix(id, placeholderPrefix) {
		return 0, false
	}
	i := strings.LastIndex(id, "__")
	if i < len(placeholderPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(id[i+2:])
	return n, err == nil && n >= 0
}

// aliases returns every local alias bound by the table.
func (t *importTable) aliases() map[string]bool {
	m := make(map[string]bool)
	for _, imp := range t.blocks {
		for _, p := range imp.Pairs {
			m[p.Name] = true
		}
	}
	return m
}

func (t *importTable) inUse(id string) bool {
	for _, imp := range t.blocks {
		for _, p := range imp.Pairs {
			if p.Name == id {
				return true
			}
		}
	}
	return t.taken != nil && t.taken(id)
}

// allocate returns the placeholder for name imported from source, creating it
// on first use. Sources are compared by unquoted path.
func (t *importTable) allocate(source, name string) string {
	key := importKey{path: css.Unquote(source), name: name}
	if id, ok := t.byKey[key]; ok {
		return id
	}

	var id string
	for {
		id = placeholder(name, t.counter)
		t.counter++
		if !t.inUse(id) {
			break
		}
	}

	imp, ok := t.byPath[key.path]
	if !ok {
		imp = &icss.Import{Source: source}
		t.byPath[key.path] = imp
		t.blocks = append(t.blocks, imp)
	}
	imp.Pairs = append(imp.Pairs, icss.Pair{Name: id, Value: name})
	t.byKey[key] = id
	return id
}
