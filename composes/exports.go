package composes

import (
	"slices"
	"strings"

	"icssc/icss"
)

// exportTable accumulates ordered, deduplicated values per local class.
type exportTable struct {
	order   []string
	entries map[string][]string
	seed    func(string) []string
}

// newExportTable starts from entries an earlier stage exported. seed provides
// the identity of classes recorded for the first time.
func newExportTable(existing *icss.Exports, seed func(string) []string) *exportTable {
	t := &exportTable{
		entries: make(map[string][]string),
		seed:    seed,
	}
	for name, value := range existing.All() {
		t.order = append(t.order, name)
		t.entries[name] = strings.Fields(value)
	}
	return t
}

// record appends value to the entry of name unless already present and
// reports whether it did.
func (t *exportTable) record(name, value string) bool {
	values, ok := t.entries[name]
	if !ok {
		values = slices.Clone(t.seed(name))
		t.order = append(t.order, name)
	}
	if slices.Contains(values, value) {
		t.entries[name] = values
		return false
	}
	t.entries[name] = append(values, value)
	return true
}

// ensure creates the entry of name if it does not exist yet.
func (t *exportTable) ensure(name string) {
	if _, ok := t.entries[name]; !ok {
		t.entries[name] = slices.Clone(t.seed(name))
		t.order = append(t.order, name)
	}
}

func (t *exportTable) values(name string) []string {
	return t.entries[name]
}

// finalize serializes entries in first seen order.
func (t *exportTable) finalize() *icss.Exports {
	out := icss.NewExports()
	for _, name := range t.order {
		out.Set(name, strings.Join(t.entries[name], " "))
	}
	return out
}
