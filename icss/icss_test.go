package icss_test

import (
	"slices"
	"testing"

	"go.uber.org/zap"

	"icssc/css"
	"icssc/icss"
)

func TestExtract(t *testing.T) {
	sheet, err := css.NewParser(zap.NewNop()).Parse([]byte(`
:import("./a.css") { i_x: x; }
.keep { color: red; }
:export { a: a_1; b: b_1; }
:import('./a.css') { i_y: y; }
:import(./b.css) { i_z: z; }
:export { a: a_2; }
@media print { :export { ignored: yes; } }
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	imports, exports := icss.Extract(sheet)

	if len(sheet.Items) != 2 {
		t.Fatalf("expected 2 remaining items, got %d", len(sheet.Items))
	}
	if r := sheet.Items[0].Rule; r == nil || r.Selector != ".keep" {
		t.Errorf("unexpected first item %+v", sheet.Items[0])
	}

	if len(imports) != 2 {
		t.Fatalf("expected 2 merged import blocks, got %d", len(imports))
	}
	if imports[0].Source != `"./a.css"` || imports[0].Path() != "./a.css" {
		t.Errorf("first import source = %q", imports[0].Source)
	}
	want := []icss.Pair{{Name: "i_x", Value: "x"}, {Name: "i_y", Value: "y"}}
	if !slices.Equal(imports[0].Pairs, want) {
		t.Errorf("merged pairs = %v, want %v", imports[0].Pairs, want)
	}
	if imports[1].Path() != "./b.css" {
		t.Errorf("second import path = %q", imports[1].Path())
	}
	if alias, ok := imports[0].Alias("y"); !ok || alias != "i_y" {
		t.Errorf("Alias(y) = %q, %v", alias, ok)
	}
	if _, ok := imports[0].Alias("z"); ok {
		t.Error("z is not imported from ./a.css")
	}

	if got := exports.Names(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("export names = %v", got)
	}
	if v, _ := exports.Get("a"); v != "a_2" {
		t.Errorf("a = %q, want last value", v)
	}
}

func TestIsICSS(t *testing.T) {
	tests := map[string]bool{
		":export":         true,
		":import('x')":    true,
		`:import("x")`:    true,
		":import()":       false,
		":exports":        false,
		".a":              false,
		":import('x') .a": false,
	}
	for sel, want := range tests {
		if got := icss.IsICSS(sel); got != want {
			t.Errorf("IsICSS(%q) = %v, want %v", sel, got, want)
		}
	}
}

func TestRules(t *testing.T) {
	exports := icss.NewExports()
	exports.Set("a", "a __composed__b__0")
	exports.Set("c", "c")
	exports.Set("a", "a b")

	items := icss.Rules([]*icss.Import{
		{Source: "'p'", Pairs: []icss.Pair{{Name: "__composed__b__0", Value: "b"}}},
		{Source: "'empty'"},
	}, exports)

	sheet := &css.Stylesheet{Items: items}
	want := `:import('p') {
  __composed__b__0: b;
}

:export {
  a: a b;
  c: c;
}
`
	if got := sheet.String(); got != want {
		t.Errorf("Rules() rendered\n%s\nwant\n%s", got, want)
	}

	if items := icss.Rules(nil, icss.NewExports()); len(items) != 0 {
		t.Errorf("expected no items for empty tables, got %d", len(items))
	}
}

func TestExports_All(t *testing.T) {
	e := icss.NewExports()
	e.Set("x", "1")
	e.Set("y", "2")
	e.Set("z", "3")

	var names []string
	for name := range e.All() {
		names = append(names, name)
		if name == "y" {
			break
		}
	}
	if !slices.Equal(names, []string{"x", "y"}) {
		t.Errorf("iteration = %v", names)
	}
	if e.Len() != 3 || !e.Has("z") || e.Has("w") {
		t.Errorf("unexpected table state %v", e.Names())
	}
}
