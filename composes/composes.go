package composes

import (
	"fmt"

	"go.uber.org/zap"

	"icssc/common"
	"icssc/css"
	"icssc/icss"
	"icssc/utils/debug"
)

const (
	PluginName = "icssc-composes"

	TypeScoped   = "scoped"
	TypeComposed = "composed"
)

// Message is a record passed between pipeline stages.
type Message struct {
	Plugin string `yaml:"plugin,omitempty"`
	Type   string `yaml:"type"`
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
}

// Warning is a non fatal diagnostic.
type Warning struct {
	Text     string
	Selector string
	Property string
}

func (w Warning) String() string {
	if w.Selector == "" {
		return w.Text
	}
	return fmt.Sprintf("%s: %s", w.Selector, w.Text)
}

// Options controls a single pass.
type Options struct {
	Strictness common.Strictness
	// File names the stylesheet in diagnostics.
	File string
	// Scoped holds records of an earlier scoping stage, only "scoped" records
	// are used.
	Scoped []Message
	// Properties overrides DefaultProperties.
	Properties []string
	Logger     *zap.Logger
}

// Result of a pass.
type Result struct {
	Records  []Message
	Warnings []Warning
	Imports  []*icss.Import
	Exports  *icss.Exports
	// Changed is false when the stylesheet had no composition and was left
	// untouched.
	Changed bool
}

// Process resolves composition declarations of the sheet in place. Composition
// declarations are removed, ":import" blocks for referenced files and a single
// ":export" block with the flattened class lists are put in front of the
// sheet. ICSS blocks already present are merged into the new ones. On error
// the sheet may be partially rewritten and should be discarded.
func Process(sheet *css.Stylesheet, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("composes")
	if opts.File != "" {
		log = log.With(zap.String("file", opts.File))
	}

	props := opts.Properties
	if len(props) == 0 {
		props = DefaultProperties
	}

	if !hasCompositions(sheet, props) {
		log.Debug("No composition found")
		return &Result{Exports: icss.NewExports()}, nil
	}

	imports, exports := icss.Extract(sheet)
	matches := scan(sheet, props)
	log.Debug("Composition declarations found", zap.Int("count", len(matches)))

	s := newState(&opts, log)
	s.load(sheet, imports, exports)

	for _, m := range matches {
		prop := m.decl.Property
		if at := m.conditional(); at != nil {
			s.warn(Warning{
				Text:     fmt.Sprintf("composition cannot be conditional (in '%s')", at.Header()),
				Selector: m.rule.Selector,
				Property: prop,
			})
		}

		names, errs := ClassifyRule(m.rule.Selector)
		for _, e := range errs {
			e.File, e.Property = s.file, prop
			if s.strict {
				return nil, e
			}
			s.warn(Warning{Text: e.message(), Selector: e.Selector, Property: prop})
		}
		if len(names) == 0 {
			continue
		}

		refs, err := ParseReferences(m.decl.Value)
		if err != nil {
			return nil, &SyntaxError{File: s.file, Property: prop, Value: m.decl.Value, Reason: err.Error()}
		}
		s.link(names, prop, refs)
	}

	if err := s.resolveAll(); err != nil {
		return nil, err
	}

	res := &Result{
		Records:  s.records,
		Warnings: s.warnings,
		Imports:  s.imports.blocks,
		Exports:  s.exports.finalize(),
		Changed:  true,
	}
	sheet.Prepend(icss.Rules(res.Imports, res.Exports)...)
	return res, nil
}

// String dumps the result for debugging.
func (r *Result) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Result: changed=%t", r.Changed)
	if tw.Section(1, "Imports", len(r.Imports)) {
		for _, imp := range r.Imports {
			tw.Line(2, "from %s", imp.Source)
			for _, p := range imp.Pairs {
				tw.TextBlock(3, p.Name, p.Value)
			}
		}
	}
	if r.Exports != nil && tw.Section(1, "Exports", r.Exports.Len()) {
		for name, value := range r.Exports.All() {
			tw.TextBlock(2, name, value)
		}
	}
	if tw.Section(1, "Records", len(r.Records)) {
		for _, m := range r.Records {
			tw.Line(2, "%s %s -> %s", m.Type, m.Name, m.Value)
		}
	}
	if tw.Section(1, "Warnings", len(r.Warnings)) {
		for _, w := range r.Warnings {
			tw.TextBlock(2, "warning", w.String())
		}
	}
	return tw.String()
}
