package css_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"icssc/css"
)

// allRules collects all top-level rules from a stylesheet's Items.
// It does NOT descend into @media blocks.
func allRules(sheet *css.Stylesheet) []*css.Rule {
	var rules []*css.Rule
	for _, item := range sheet.Items {
		if item.Rule != nil {
			rules = append(rules, item.Rule)
		}
	}
	return rules
}

func mustParse(t *testing.T, input string) *css.Stylesheet {
	t.Helper()
	sheet, err := css.NewParser(zaptest.NewLogger(t)).Parse([]byte(input), "test.css")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return sheet
}

func TestParser_Selectors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"class", `.epigraph { font-style: italic; }`, ".epigraph"},
		{"element", `p { text-indent: 1em; }`, "p"},
		{"compound", `p.has-dropcap { text-indent: 0; }`, "p.has-dropcap"},
		{"descendant", `.a   .b { color: red; }`, ".a .b"},
		{"child", `.a > .b { color: red; }`, ".a>.b"},
		{"grouped", `h2, h3 ,h4 { font-size: 120%; }`, "h2,h3,h4"},
		{"local", `:local(.a) { color: red; }`, ":local(.a)"},
		{"pseudo", `.a:hover { color: red; }`, ".a:hover"},
		{"import", `:import('./x.css') { a: b; }`, ":import('./x.css')"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := allRules(mustParse(t, tt.input))
			if len(rules) != 1 {
				t.Fatalf("expected 1 rule, got %d", len(rules))
			}
			if rules[0].Selector != tt.want {
				t.Errorf("selector = %q, want %q", rules[0].Selector, tt.want)
			}
		})
	}
}

func TestParser_Declarations(t *testing.T) {
	sheet := mustParse(t, `.a {
		color: red;
		COMPOSES: b c from './x.css';
		margin: 0 auto !important;
		font-family: "Times New Roman", serif;
		--gap: 1px 2px;
	}`)

	rules := allRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}

	want := []css.Declaration{
		{Property: "color", Value: "red"},
		{Property: "composes", Value: "b c from './x.css'"},
		{Property: "margin", Value: "0 auto !important"},
		{Property: "font-family", Value: `"Times New Roman",serif`},
		{Property: "--gap", Value: "1px 2px"},
	}
	got := rules[0].Declarations
	if len(got) != len(want) {
		t.Fatalf("expected %d declarations, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("declaration %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	d, ok := rules[0].Property("composes")
	if !ok || d.Value != "b c from './x.css'" {
		t.Errorf("Property(composes) = %+v, %v", d, ok)
	}
	if _, ok := rules[0].Property("padding"); ok {
		t.Error("unexpected padding property")
	}
}

func TestParser_AtRules(t *testing.T) {
	sheet := mustParse(t, `
@charset "utf-8";
@import url("base.css");
@media screen and (min-width: 100px) {
	.a { color: red; }
	@supports (display: grid) {
		.b { display: grid; }
	}
}
@font-face {
	font-family: "Foo";
	src: url(foo.woff);
}
@keyframes spin {
	from { transform: rotate(0deg); }
	to { transform: rotate(360deg); }
}
@container sidebar (min-width: 400px) {
	.c { color: blue; }
}
`)

	if len(sheet.Items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(sheet.Items))
	}

	kinds := []css.AtRuleKind{css.AtStatement, css.AtStatement, css.AtRuleList, css.AtDeclarations, css.AtRuleList, css.AtRaw}
	for i, k := range kinds {
		at := sheet.Items[i].AtRule
		if at == nil {
			t.Fatalf("item %d is not an at-rule", i)
		}
		if at.Kind != k {
			t.Errorf("item %d (%s) kind = %d, want %d", i, at.Name, at.Kind, k)
		}
	}

	if got := sheet.Items[1].AtRule.Header(); got != `@import url("base.css")` {
		t.Errorf("import header = %q", got)
	}
	media := sheet.Items[2].AtRule
	if media.Params != "screen and (min-width:100px)" {
		t.Errorf("media params = %q", media.Params)
	}
	if len(media.Items) != 2 || media.Items[1].AtRule == nil || media.Items[1].AtRule.BaseName() != "supports" {
		t.Fatalf("unexpected media body: %+v", media.Items)
	}
	if fontFace := sheet.Items[3].AtRule; len(fontFace.Declarations) != 2 {
		t.Errorf("font-face declarations = %v", fontFace.Declarations)
	}
	if raw := sheet.Items[5].AtRule.Raw; !strings.Contains(raw, ".c { color: blue; }") {
		t.Errorf("container raw body = %q", raw)
	}
}

func TestAtRule_BaseName(t *testing.T) {
	tests := map[string]string{
		"@media":             "media",
		"@-webkit-keyframes": "keyframes",
		"@-moz-document":     "document",
		"@font-face":         "font-face",
	}
	for name, want := range tests {
		at := &css.AtRule{Name: name}
		if got := at.BaseName(); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", name, got, want)
		}
	}

	if !(&css.AtRule{Name: "@media"}).IsConditional() {
		t.Error("@media must be conditional")
	}
	if (&css.AtRule{Name: "@keyframes"}).IsConditional() {
		t.Error("@keyframes must not be conditional")
	}
}

func TestParser_Comments(t *testing.T) {
	sheet := mustParse(t, `/* header */
.a { /* inner */ color: red; }`)

	if len(sheet.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(sheet.Items))
	}
	if c := sheet.Items[0].Comment; c == nil || *c != "/* header */" {
		t.Errorf("unexpected comment item: %+v", sheet.Items[0])
	}
	if decls := sheet.Items[1].Rule.Declarations; len(decls) != 1 {
		t.Errorf("inner comment must be skipped, got %v", decls)
	}
}

func TestParser_RecoverableErrors(t *testing.T) {
	sheet := mustParse(t, `.a { color red; } .b { color: blue; }`)

	if len(sheet.Warnings) == 0 {
		t.Fatal("expected a warning for missing colon")
	}
	rules := allRules(sheet)
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules after recovery, got %d", len(rules))
	}
	if len(rules[0].Declarations) != 0 {
		t.Errorf("broken declaration must be dropped, got %v", rules[0].Declarations)
	}
	if d, ok := rules[1].Property("color"); !ok || d.Value != "blue" {
		t.Errorf("second rule color = %+v, %v", d, ok)
	}
}

func TestParser_Empty(t *testing.T) {
	sheet, err := css.NewParser(nil).Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(sheet.Items) != 0 || len(sheet.Warnings) != 0 {
		t.Errorf("expected empty stylesheet, got %+v", sheet)
	}
}

func TestStylesheet_WalkRules(t *testing.T) {
	sheet := mustParse(t, `
.a { color: red; }
@media print {
	.b { color: black; }
	@supports (display: grid) { .c { display: grid; } }
}
@keyframes spin { from { opacity: 0; } }
`)

	var (
		selectors []string
		depths    []int
	)
	err := sheet.WalkRules(func(rule *css.Rule, parents []*css.AtRule) error {
		selectors = append(selectors, rule.Selector)
		depths = append(depths, len(parents))
		return nil
	})
	if err != nil {
		t.Fatalf("WalkRules() error: %v", err)
	}

	if got := strings.Join(selectors, " "); got != ".a .b .c" {
		t.Errorf("visited %q", got)
	}
	if depths[0] != 0 || depths[1] != 1 || depths[2] != 2 {
		t.Errorf("parent depths = %v", depths)
	}
}

func TestStylesheet_RemovePrepend(t *testing.T) {
	sheet := mustParse(t, `.a { x: 1; } .b { x: 2; } .c { x: 3; }`)

	removed := sheet.RemoveFunc(func(item css.StylesheetItem) bool {
		return item.Rule != nil && item.Rule.Selector == ".b"
	})
	if len(removed) != 1 || removed[0].Rule.Selector != ".b" {
		t.Fatalf("removed = %+v", removed)
	}

	sheet.Prepend(removed...)
	sheet.Append(css.StylesheetItem{Rule: &css.Rule{Selector: ".d"}})

	var got []string
	for _, r := range allRules(sheet) {
		got = append(got, r.Selector)
	}
	if strings.Join(got, " ") != ".b .a .c .d" {
		t.Errorf("order after edit = %v", got)
	}
}

func TestStylesheet_WriteTo(t *testing.T) {
	log := zap.NewNop()
	sheet, err := css.NewParser(log).Parse([]byte(`/* c */
.a{color:red;margin:0 !important}
@media print{.b{color:black}}
@import "x.css";
.e{}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	want := `/* c */

.a {
  color: red;
  margin: 0 !important;
}

@media print {
  .b {
    color: black;
  }
}

@import "x.css";

.e {
}
`
	var sb strings.Builder
	n, err := sheet.WriteTo(&sb)
	if err != nil {
		t.Fatalf("WriteTo() error: %v", err)
	}
	if sb.String() != want {
		t.Errorf("WriteTo() =\n%s\nwant\n%s", sb.String(), want)
	}
	if int(n) != len(want) {
		t.Errorf("WriteTo() reported %d bytes, want %d", n, len(want))
	}
	if sheet.String() != want {
		t.Error("String() differs from WriteTo()")
	}

	// printed output parses back to the same text
	again, err := css.NewParser(log).Parse([]byte(sheet.String()))
	if err != nil {
		t.Fatalf("reparse error: %v", err)
	}
	if again.String() != want {
		t.Errorf("round trip =\n%s", again.String())
	}
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`"a.css"`:   "a.css",
		`'a.css'`:   "a.css",
		` 'a.css' `: "a.css",
		`a.css`:     "a.css",
		`"a.css'`:   `"a.css'`,
		`'`:         `'`,
	}
	for in, want := range tests {
		if got := css.Unquote(in); got != want {
			t.Errorf("Unquote(%q) = %q, want %q", in, got, want)
		}
	}
}
