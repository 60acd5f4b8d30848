// Package scope implements local scoping of class names: every local class of
// a stylesheet gets a unique name produced from a template, selectors are
// rewritten to use it and the mapping is exported with ICSS.
package scope

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	parse "github.com/tdewolff/parse/v2"
	tdcss "github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"icssc/common"
	"icssc/composes"
	"icssc/css"
	"icssc/icss"
	"icssc/selector"
)

const (
	PluginName = "icssc-scope"

	// DefaultPattern produces names like "title__button-css_1b2c3".
	DefaultPattern = `{{ .Name }}__{{ .File | base | slug }}_{{ sha256sum .File | trunc 5 }}`
)

// Options controls scoping of a single stylesheet.
type Options struct {
	Mode    common.ScopeMode
	Pattern string // text/template, DefaultPattern when empty
	File    string
	Logger  *zap.Logger
}

// NameData is passed to the name template.
type NameData struct {
	Name string
	File string
}

// Plan holds scoped names computed for one stylesheet.
type Plan struct {
	mode     common.ScopeMode
	log      *zap.Logger
	order    []string
	names    map[string]string
	Warnings []string
}

// Prepare collects local classes of the sheet and computes their scoped names.
// The sheet is not modified.
func Prepare(sheet *css.Stylesheet, opts Options) (*Plan, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scope")

	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	tmpl, err := NewTemplate(pattern)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		mode:  opts.Mode,
		log:   log,
		names: make(map[string]string),
	}

	err = sheet.WalkRules(func(rule *css.Rule, _ []*css.AtRule) error {
		if icss.IsICSS(rule.Selector) {
			return nil
		}
		list, err := selector.Parse(rule.Selector)
		if err != nil {
			p.Warnings = append(p.Warnings, fmt.Sprintf("selector left unscoped: %v", err))
			return nil
		}
		for _, name := range p.localClasses(list) {
			if _, ok := p.names[name]; ok {
				continue
			}
			scoped, err := render(tmpl, NameData{Name: name, File: opts.File})
			if err != nil {
				return fmt.Errorf("unable to scope class '%s': %w", name, err)
			}
			p.names[name] = scoped
			p.order = append(p.order, name)
			log.Debug("Scoped class", zap.String("class", name), zap.String("scoped", scoped))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// localClasses returns classes which are local in the plan mode, in document
// order.
func (p *Plan) localClasses(list *selector.List) []string {
	var (
		names []string
		seen  = make(map[string]bool)
	)
	var collect func(n selector.Node, local bool)
	collect = func(n selector.Node, local bool) {
		selector.Walk(n, func(n selector.Node) bool {
			switch n := n.(type) {
			case *selector.Local:
				collect(n.List, true)
				return false
			case *selector.Global:
				collect(n.List, false)
				return false
			case *selector.Class:
				if local && !seen[n.Name] {
					seen[n.Name] = true
					names = append(names, n.Name)
				}
			}
			return true
		})
	}
	collect(list, p.mode == common.ScopeModeLocal)
	return names
}

// Name returns the scoped name of a local class.
func (p *Plan) Name(class string) (string, bool) {
	name, ok := p.names[class]
	return name, ok
}

// Records returns "scoped" messages for the composition pass.
func (p *Plan) Records() []composes.Message {
	records := make([]composes.Message, 0, len(p.order))
	for _, name := range p.order {
		records = append(records, composes.Message{
			Plugin: PluginName,
			Type:   composes.TypeScoped,
			Name:   name,
			Value:  p.names[name],
		})
	}
	return records
}

// Apply rewrites selectors of the sheet: local classes get scoped names and
// :local(...)/:global(...) wrappers are removed. Every local class missing
// from the ":export" block is added to it.
func (p *Plan) Apply(sheet *css.Stylesheet) error {
	imports, exports := icss.Extract(sheet)

	err := sheet.WalkRules(func(rule *css.Rule, _ []*css.AtRule) error {
		list, err := selector.Parse(rule.Selector)
		if err != nil {
			return nil
		}
		if out, changed := p.rewrite(list, p.mode == common.ScopeModeLocal); changed {
			p.log.Debug("Rewrote selector", zap.String("from", rule.Selector), zap.String("to", selector.String(out)))
			rule.Selector = selector.String(out)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range p.order {
		if !exports.Has(name) {
			exports.Set(name, p.names[name])
		}
	}
	sheet.Prepend(icss.Rules(imports, exports)...)
	return nil
}

func (p *Plan) rewrite(n selector.Node, local bool) (selector.Node, bool) {
	changed := false
	out := selector.Rebuild(n, func(n selector.Node) (selector.Node, bool) {
		switch n := n.(type) {
		case *selector.Local:
			changed = true
			inner, _ := p.rewrite(n.List, true)
			return unwrap(inner.(*selector.List)), true
		case *selector.Global:
			changed = true
			inner, _ := p.rewrite(n.List, false)
			return unwrap(inner.(*selector.List)), true
		case *selector.Class:
			if !local {
				return nil, false
			}
			if name, ok := p.names[n.Name]; ok {
				changed = true
				return &selector.Class{Name: name}, true
			}
		}
		return nil, false
	})
	return out, changed
}

// unwrap turns the content of a wrapper into something which can take its
// place: a single selector is spliced, a list becomes :is(...).
func unwrap(list *selector.List) selector.Node {
	if len(list.Selectors) == 1 {
		return list.Selectors[0]
	}
	return &selector.Pseudo{Name: ":is", List: list, HasArg: true}
}

// NewTemplate parses a name pattern. Besides sprig functions "slug" is
// available.
func NewTemplate(pattern string) (*template.Template, error) {
	funcs := sprig.FuncMap()
	funcs["slug"] = slug.Make
	tmpl, err := template.New("name").Funcs(funcs).Option("missingkey=error").Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("unable to parse name pattern: %w", err)
	}
	return tmpl, nil
}

func render(tmpl *template.Template, data NameData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	name := strings.TrimSpace(buf.String())
	if !isIdent(name) {
		return "", fmt.Errorf("'%s' is not a valid class name", name)
	}
	return name, nil
}

// isIdent reports whether s lexes as exactly one CSS identifier.
func isIdent(s string) bool {
	l := tdcss.NewLexer(parse.NewInputString(s))
	tt, _ := l.Next()
	if tt != tdcss.IdentToken {
		return false
	}
	tt, _ = l.Next()
	return tt == tdcss.ErrorToken && errors.Is(l.Err(), io.EOF)
}
