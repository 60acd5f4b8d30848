package selector

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ErrSyntax is wrapped by all errors returned from Parse.
var ErrSyntax = errors.New("invalid selector")

type token struct {
	tt   css.TokenType
	data string
}

type parser struct {
	text string
	toks []token
	pos  int
}

// Parse parses selector text (as found in a rule prelude) into a List.
func Parse(text string) (*List, error) {
	p := &parser{text: text}
	if err := p.lex(); err != nil {
		return nil, err
	}
	if len(p.toks) == 0 {
		return nil, p.errorf("empty selector")
	}
	list, err := p.list(false)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package level variables.
func MustParse(text string) *List {
	l, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return l
}

func (p *parser) lex() error {
	l := css.NewLexer(parse.NewInputString(p.text))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("%w '%s': %w", ErrSyntax, p.text, err)
			}
			// trim trailing whitespace so it never turns into a combinator
			for len(p.toks) > 0 && p.toks[len(p.toks)-1].tt == css.WhitespaceToken {
				p.toks = p.toks[:len(p.toks)-1]
			}
			return nil
		case css.CommentToken:
			tt, data = css.WhitespaceToken, []byte(" ")
		}
		p.toks = append(p.toks, token{tt: tt, data: string(data)})
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w '%s': %s", ErrSyntax, p.text, fmt.Sprintf(format, args...))
}

func (p *parser) peek() (token, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return token{}, false
}

// list parses a comma separated list. When nested the list must be closed by
// a right parenthesis which is consumed.
func (p *parser) list(nested bool) (*List, error) {
	l := &List{}
	for {
		sel, err := p.selector()
		if err != nil {
			return nil, err
		}
		if len(sel.Nodes) == 0 {
			return nil, p.errorf("empty selector")
		}
		l.Selectors = append(l.Selectors, sel)

		t, ok := p.peek()
		if !ok {
			if nested {
				return nil, p.errorf("missing ')'")
			}
			return l, nil
		}
		p.pos++
		switch t.tt {
		case css.CommaToken:
		case css.RightParenthesisToken:
			if !nested {
				return nil, p.errorf("unexpected ')'")
			}
			return l, nil
		}
	}
}

func (p *parser) selector() (*Selector, error) {
	sel := &Selector{}
	space := false

	last := func() Node {
		if len(sel.Nodes) == 0 {
			return nil
		}
		return sel.Nodes[len(sel.Nodes)-1]
	}

	for {
		t, ok := p.peek()
		if !ok || t.tt == css.CommaToken || t.tt == css.RightParenthesisToken {
			break
		}
		if t.tt == css.WhitespaceToken {
			space = true
			p.pos++
			continue
		}
		if value, ok := combinator(t); ok {
			p.pos++
			if _, prev := last().(*Combinator); prev || last() == nil {
				return nil, p.errorf("unexpected combinator '%s'", value)
			}
			sel.Nodes = append(sel.Nodes, &Combinator{Value: value})
			space = false
			continue
		}

		n, err := p.simple()
		if err != nil {
			return nil, err
		}
		if _, prev := last().(*Combinator); space && last() != nil && !prev {
			sel.Nodes = append(sel.Nodes, &Combinator{Value: Descendant})
		}
		space = false
		sel.Nodes = append(sel.Nodes, n)
	}

	if _, dangling := last().(*Combinator); dangling {
		return nil, p.errorf("dangling combinator")
	}
	return sel, nil
}

func combinator(t token) (string, bool) {
	switch {
	case t.tt == css.DelimToken && (t.data == ">" || t.data == "+" || t.data == "~"):
		return t.data, true
	case t.tt == css.ColumnToken:
		return t.data, true
	}
	return "", false
}

func (p *parser) simple() (Node, error) {
	t := p.toks[p.pos]
	p.pos++

	switch t.tt {
	case css.DelimToken:
		switch t.data {
		case ".":
			n, ok := p.peek()
			if !ok || n.tt != css.IdentToken {
				return nil, p.errorf("expected class name after '.'")
			}
			p.pos++
			return &Class{Name: n.data}, nil
		case "*", "&":
			return &Tag{Name: t.data}, nil
		}
	case css.HashToken:
		return &ID{Name: t.data[1:]}, nil
	case css.IdentToken:
		return &Tag{Name: t.data}, nil
	case css.ColonToken:
		return p.pseudo()
	case css.LeftBracketToken:
		raw, err := p.raw(css.RightBracketToken)
		if err != nil {
			return nil, err
		}
		return &Attribute{Raw: raw}, nil
	}
	return nil, p.errorf("unexpected '%s'", t.data)
}

func (p *parser) pseudo() (Node, error) {
	prefix := ":"
	if t, ok := p.peek(); ok && t.tt == css.ColonToken {
		prefix = "::"
		p.pos++
	}

	t, ok := p.peek()
	if !ok {
		return nil, p.errorf("expected pseudo-class name")
	}
	p.pos++

	switch t.tt {
	case css.IdentToken:
		return &Pseudo{Name: prefix + t.data}, nil
	case css.FunctionToken:
		name := strings.TrimSuffix(t.data, "(")
		if prefix == ":" {
			switch strings.ToLower(name) {
			case "local":
				l, err := p.list(true)
				if err != nil {
					return nil, err
				}
				return &Local{List: l}, nil
			case "global":
				l, err := p.list(true)
				if err != nil {
					return nil, err
				}
				return &Global{List: l}, nil
			case "not", "is", "where", "matches":
				l, err := p.list(true)
				if err != nil {
					return nil, err
				}
				return &Pseudo{Name: prefix + name, List: l, HasArg: true}, nil
			}
		}
		raw, err := p.raw(css.RightParenthesisToken)
		if err != nil {
			return nil, err
		}
		return &Pseudo{Name: prefix + name, Arg: raw, HasArg: true}, nil
	}
	return nil, p.errorf("unexpected '%s' after '%s'", t.data, prefix)
}

// raw collects token text up to the matching closing token, which is
// consumed.
func (p *parser) raw(closing css.TokenType) (string, error) {
	var sb strings.Builder
	depth := 0
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		p.pos++
		switch t.tt {
		case css.LeftParenthesisToken, css.LeftBracketToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth == 0 {
				if t.tt != closing {
					return "", p.errorf("unbalanced '%s'", t.data)
				}
				return strings.TrimSpace(sb.String()), nil
			}
			depth--
		}
		sb.WriteString(t.data)
	}
	return "", p.errorf("unterminated argument")
}
