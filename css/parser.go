package css

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Recoverable syntax problems are
// collected in Stylesheet.Warnings, only read errors are returned.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	log := p.log
	if len(source) > 0 && source[0] != "" {
		log = log.With(zap.String("source", source[0]))
	}
	log.Debug("Parsing CSS", zap.Int("bytes", len(data)))

	st := &parseState{
		parser:  css.NewParser(parse.NewInputBytes(data), false),
		sheet:   sheet,
		log:     log,
		lastErr: -1,
	}
	items, err := st.items(false)
	sheet.Items = items
	if err != nil {
		return nil, fmt.Errorf("unable to parse stylesheet: %w", err)
	}
	return sheet, nil
}

type parseState struct {
	parser  *css.Parser
	sheet   *Stylesheet
	log     *zap.Logger
	lastErr int
}

// recover handles ErrorGrammar. It returns true when parsing must stop.
func (s *parseState) recover() (bool, error) {
	err := s.parser.Err()
	if !s.parser.HasParseError() {
		if err == nil || errors.Is(err, io.EOF) {
			return true, nil
		}
		return true, err
	}
	s.sheet.Warnings = append(s.sheet.Warnings, err.Error())
	s.log.Debug("CSS parse error", zap.Error(err))

	// the parser always moves forward after a parse error, guard against
	// the rare case when it does not
	offset := s.parser.Offset()
	if offset == s.lastErr {
		return true, nil
	}
	s.lastErr = offset
	return false, nil
}

// items parses a rule list until the end of input or, when nested, the end of
// the enclosing at-rule block.
func (s *parseState) items(nested bool) ([]StylesheetItem, error) {
	items := make([]StylesheetItem, 0)
	for {
		gt, _, data := s.parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if stop, err := s.recover(); stop {
				return items, err
			}

		case css.CommentGrammar:
			comment := string(data)
			items = append(items, StylesheetItem{Comment: &comment})

		case css.AtRuleGrammar:
			// Simple @-rule without block (e.g., @import)
			items = append(items, StylesheetItem{AtRule: &AtRule{
				Name:   string(data),
				Params: joinTokens(s.parser.Values()),
				Kind:   AtStatement,
			}})

		case css.BeginAtRuleGrammar:
			at := &AtRule{Name: string(data), Params: joinTokens(s.parser.Values())}
			var err error
			switch at.BaseName() {
			case "media", "supports", "document", "layer", "keyframes":
				at.Kind = AtRuleList
				at.Items, err = s.items(true)
			case "font-face", "page":
				at.Kind = AtDeclarations
				at.Declarations, err = s.declarations()
			default:
				at.Kind = AtRaw
				at.Raw, err = s.raw()
			}
			if err != nil {
				return items, err
			}
			s.log.Debug("Parsed @-rule", zap.String("rule", at.Name), zap.String("params", at.Params))
			items = append(items, StylesheetItem{AtRule: at})

		case css.BeginRulesetGrammar:
			rule := &Rule{Selector: joinTokens(s.parser.Values())}
			decls, err := s.declarations()
			if err != nil {
				return items, err
			}
			rule.Declarations = decls
			items = append(items, StylesheetItem{Rule: rule})

		case css.EndAtRuleGrammar:
			if nested {
				return items, nil
			}
		}
	}
}

// declarations parses property declarations until the end of the current
// block.
func (s *parseState) declarations() ([]Declaration, error) {
	decls := make([]Declaration, 0)
	for {
		gt, _, data := s.parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if stop, err := s.recover(); stop {
				return decls, err
			}

		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			return decls, nil

		case css.DeclarationGrammar:
			decls = append(decls, Declaration{
				Property: string(data),
				Value:    joinTokens(s.parser.Values()),
			})

		case css.CustomPropertyGrammar:
			var value string
			if values := s.parser.Values(); len(values) > 0 {
				value = strings.TrimSpace(string(values[0].Data))
			}
			decls = append(decls, Declaration{Property: string(data), Value: value})

		case css.BeginAtRuleGrammar:
			s.sheet.Warnings = append(s.sheet.Warnings, "nested @-rule dropped: "+string(data))
			s.log.Debug("Skipping nested @-rule", zap.ByteString("rule", data))
			s.skipAtRuleBlock()
		}
	}
}

// raw collects the body of an unknown @-rule block verbatim.
func (s *parseState) raw() (string, error) {
	var sb strings.Builder
	for {
		gt, _, data := s.parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if stop, err := s.recover(); stop {
				return sb.String(), err
			}
		case css.EndAtRuleGrammar:
			return sb.String(), nil
		default:
			sb.Write(data)
		}
	}
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (s *parseState) skipAtRuleBlock() {
	depth := 1
	for depth > 0 {
		gt, _, _ := s.parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if stop, _ := s.recover(); stop {
				return
			}
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// joinTokens builds text from grammar values. The grammar parser already
// normalizes whitespace, only "!important" needs a separating space back.
func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 && t.TokenType == css.DelimToken && len(t.Data) == 1 && t.Data[0] == '!' {
			sb.WriteByte(' ')
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// Unquote removes surrounding quotes from a string.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
