package composes

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"icssc/css"
	"icssc/icss"
	"icssc/selector"
)

// edge is one reference of a local class, kept with the property it came from
// for diagnostics. placeholder is set for imports.
type edge struct {
	ref         Reference
	property    string
	placeholder string
}

// state is everything one pass over a stylesheet accumulates.
type state struct {
	file   string
	strict bool
	log    *zap.Logger

	scoped   map[string]string // class -> scoped name
	unscoped map[string]string // scoped name -> class
	preset   *icss.Exports     // export block found in the stylesheet
	locals   map[string]bool
	aliases  map[string]bool // names bound by pre-existing :import blocks

	imports *importTable
	exports *exportTable

	owners []string
	edges  map[string][]edge
	flat   map[string][]string
	path   []string
	cycles map[string]bool
	cuts   int // back edges cut so far

	records  []Message
	warnings []Warning
}

func newState(opts *Options, log *zap.Logger) *state {
	s := &state{
		file:     opts.File,
		strict:   opts.Strictness.Strict(),
		log:      log,
		scoped:   make(map[string]string),
		unscoped: make(map[string]string),
		locals:   make(map[string]bool),
		edges:    make(map[string][]edge),
		flat:     make(map[string][]string),
		cycles:   make(map[string]bool),
	}
	for _, m := range opts.Scoped {
		if m.Type != TypeScoped || m.Name == "" || m.Value == "" {
			continue
		}
		s.scoped[m.Name] = m.Value
		s.unscoped[m.Value] = m.Name
	}
	return s
}

// load takes over ICSS blocks extracted from the sheet and collects every
// known local class.
func (s *state) load(sheet *css.Stylesheet, imports []*icss.Import, exports *icss.Exports) {
	s.preset = exports

	for name := range s.scoped {
		s.locals[name] = true
	}
	for name := range exports.All() {
		s.locals[name] = true
	}
	sheet.WalkRules(func(rule *css.Rule, _ []*css.AtRule) error { //nolint:errcheck
		list, err := selector.Parse(rule.Selector)
		if err != nil {
			s.log.Debug("Ignoring unparsable selector", zap.String("selector", rule.Selector), zap.Error(err))
			return nil
		}
		for _, name := range selector.Classes(list) {
			s.locals[s.className(name)] = true
		}
		return nil
	})

	s.imports = newImportTable(imports, func(id string) bool {
		return s.locals[id] || exports.Has(id)
	})
	s.aliases = s.imports.aliases()
	s.exports = newExportTable(exports, s.identity)
}

// className maps a scoped name back to the class it was produced for, so
// sheets already rewritten by the scoping stage compose the same way.
func (s *state) className(name string) string {
	if class, ok := s.unscoped[name]; ok {
		return class
	}
	return name
}

// identity is the first value exported for a class: what an earlier stage
// exported, else its scoped name, else the name itself.
func (s *state) identity(name string) []string {
	if v, ok := s.preset.Get(name); ok {
		if values := strings.Fields(v); len(values) > 0 {
			return values
		}
	}
	if v, ok := s.scoped[name]; ok {
		return []string{v}
	}
	return []string{name}
}

func (s *state) warn(w Warning) {
	s.log.Debug("Composition warning", zap.String("warning", w.Text), zap.String("selector", w.Selector))
	s.warnings = append(s.warnings, w)
}

// link records the references of one declaration for every owning class.
// Import placeholders are allocated here so numbering follows document order.
func (s *state) link(owners []string, property string, refs []Reference) {
	edges := make([]edge, 0, len(refs))
	for _, ref := range refs {
		e := edge{ref: ref, property: property}
		if ref.Kind == RefImport {
			e.placeholder = s.imports.allocate(ref.Source, ref.Name)
		}
		edges = append(edges, e)
	}

	for _, name := range owners {
		owner := s.className(name)
		if _, ok := s.edges[owner]; !ok {
			s.owners = append(s.owners, owner)
		}
		s.edges[owner] = append(s.edges[owner], edges...)
	}
}

// flatten returns the identity of name followed by everything it composes,
// transitively, without duplicates.
func (s *state) flatten(name string) ([]string, error) {
	if values, ok := s.flat[name]; ok {
		return values, nil
	}

	s.path = append(s.path, name)
	defer func() { s.path = s.path[:len(s.path)-1] }()

	cuts := s.cuts
	values := slices.Clone(s.identity(name))
	for _, e := range s.edges[name] {
		resolved, err := s.resolve(name, e)
		if err != nil {
			return nil, err
		}
		for _, v := range resolved {
			if !slices.Contains(values, v) {
				values = append(values, v)
			}
		}
	}
	// a list shortened by a cut below is only valid for the current root
	if s.cuts == cuts {
		s.flat[name] = values
	}
	return values, nil
}

// resolve applies lookup priority: global, explicit import, pre-existing
// import alias, local class.
func (s *state) resolve(owner string, e edge) ([]string, error) {
	switch e.ref.Kind {
	case RefGlobal:
		return []string{e.ref.Name}, nil
	case RefImport:
		return []string{e.placeholder}, nil
	}

	name := e.ref.Name
	if s.aliases[name] {
		return []string{name}, nil
	}

	name = s.className(name)
	if !s.locals[name] {
		return nil, &UndefinedClassError{File: s.file, Property: e.property, Class: owner, Name: e.ref.Name}
	}

	if i := slices.Index(s.path, name); i >= 0 {
		cerr := &CycleError{File: s.file, Property: e.property, Chain: append(slices.Clone(s.path[i:]), name)}
		if s.strict {
			return nil, cerr
		}
		s.cuts++
		if key := cycleKey(cerr.Chain); !s.cycles[key] {
			s.cycles[key] = true
			s.warn(Warning{Text: cerr.message(), Property: e.property})
		}
		return nil, nil
	}
	return s.flatten(name)
}

// cycleKey identifies a cycle regardless of the class it was entered from.
func cycleKey(chain []string) string {
	members := chain[:len(chain)-1]
	first := slices.Index(members, slices.Min(members))
	return strings.Join(append(slices.Clone(members[first:]), members[:first]...), " ")
}

// resolveAll flattens every owner and records newly exported values.
func (s *state) resolveAll() error {
	for _, owner := range s.owners {
		values, err := s.flatten(owner)
		if err != nil {
			return err
		}
		s.exports.ensure(owner)
		for _, v := range values {
			if s.exports.record(owner, v) {
				s.records = append(s.records, Message{Plugin: PluginName, Type: TypeComposed, Name: owner, Value: v})
			}
		}
		s.log.Debug("Resolved composition", zap.String("class", owner), zap.Strings("values", s.exports.values(owner)))
	}
	return nil
}
