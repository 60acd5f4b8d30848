package scope_test

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"icssc/common"
	"icssc/composes"
	"icssc/css"
	"icssc/scope"
)

func parse(t *testing.T, input string) *css.Stylesheet {
	t.Helper()
	sheet, err := css.NewParser(zaptest.NewLogger(t)).Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return sheet
}

func selectors(sheet *css.Stylesheet) []string {
	var out []string
	sheet.WalkRules(func(rule *css.Rule, _ []*css.AtRule) error { //nolint:errcheck
		out = append(out, rule.Selector)
		return nil
	})
	return out
}

func TestPrepare_Modes(t *testing.T) {
	input := `
.a {}
.b .a:hover {}
:global(.g) .c {}
:local(.l) {}
@media print { .d {} }
#id, p {}
@keyframes k { from { opacity: 0; } }
`
	tests := []struct {
		mode common.ScopeMode
		want []string
	}{
		{common.ScopeModeLocal, []string{"a", "b", "c", "l", "d"}},
		{common.ScopeModeGlobal, []string{"l"}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			plan, err := scope.Prepare(parse(t, input), scope.Options{Mode: tt.mode, Pattern: "s_{{ .Name }}", Logger: zaptest.NewLogger(t)})
			if err != nil {
				t.Fatalf("Prepare() error: %v", err)
			}
			var got []string
			for _, m := range plan.Records() {
				if m.Type != composes.TypeScoped || m.Value != "s_"+m.Name {
					t.Errorf("unexpected record %+v", m)
				}
				got = append(got, m.Name)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("scoped = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrepare_DefaultPattern(t *testing.T) {
	plan, err := scope.Prepare(parse(t, `.title {}`), scope.Options{Mode: common.ScopeModeLocal, File: "src/button.css"})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	sum := sha256.Sum256([]byte("src/button.css"))
	want := "title__button-css_" + hex.EncodeToString(sum[:])[:5]
	if got, ok := plan.Name("title"); !ok || got != want {
		t.Errorf("Name(title) = %q, want %q", got, want)
	}
}

func TestPrepare_BadPattern(t *testing.T) {
	for _, pattern := range []string{"{{ .Name", "{{ .Name }} x", "1{{ .Name }}", "{{ .Missing }}"} {
		if _, err := scope.Prepare(parse(t, `.a {}`), scope.Options{Mode: common.ScopeModeLocal, Pattern: pattern}); err == nil {
			t.Errorf("pattern %q: expected error", pattern)
		}
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		mode  common.ScopeMode
		input string
		want  string
	}{
		{common.ScopeModeLocal, `.a > .b {}`, ".s_a > .s_b"},
		{common.ScopeModeLocal, `:global(.g) :local(.c) {}`, ".g .s_c"},
		{common.ScopeModeLocal, `:global(.g .h) .c {}`, ".g .h .s_c"},
		{common.ScopeModeLocal, `:local(.a, .b) .c {}`, ":is(.s_a, .s_b) .s_c"},
		{common.ScopeModeLocal, `.a:not(.b) {}`, ".s_a:not(.s_b)"},
		{common.ScopeModeLocal, `#id>p {}`, "#id>p"},
		{common.ScopeModeGlobal, `.a :local(.b) {}`, ".a .s_b"},
		{common.ScopeModeGlobal, `.a>.b {}`, ".a>.b"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sheet := parse(t, tt.input)
			plan, err := scope.Prepare(sheet, scope.Options{Mode: tt.mode, Pattern: "s_{{ .Name }}"})
			if err != nil {
				t.Fatalf("Prepare() error: %v", err)
			}
			if err := plan.Apply(sheet); err != nil {
				t.Fatalf("Apply() error: %v", err)
			}
			got := selectors(sheet)
			if got[len(got)-1] != tt.want {
				t.Errorf("selector = %q, want %q", got[len(got)-1], tt.want)
			}
		})
	}
}

func TestScopeThenCompose(t *testing.T) {
	log := zaptest.NewLogger(t)
	sheet := parse(t, `.a { composes: b; color: red; } .b { color: blue; }`)

	plan, err := scope.Prepare(sheet, scope.Options{Mode: common.ScopeModeLocal, Pattern: "s_{{ .Name }}", Logger: log})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if name, ok := plan.Name("b"); !ok || name != "s_b" {
		t.Errorf("Name(b) = %q, %v", name, ok)
	}
	if _, ok := plan.Name("missing"); ok {
		t.Error("Name() must not know classes absent from the sheet")
	}
	if _, err := composes.Process(sheet, composes.Options{Scoped: plan.Records(), Logger: log}); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if err := plan.Apply(sheet); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	want := `:export {
  a: s_a s_b;
  b: s_b;
}

.s_a {
  color: red;
}

.s_b {
  color: blue;
}
`
	if got := sheet.String(); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}
