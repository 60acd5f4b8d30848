package composes

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// RefKind tells which namespace a composed name belongs to.
type RefKind int

const (
	RefLocal  RefKind = iota // bare name, local class or imported alias
	RefGlobal                // global(name) or "from global"
	RefImport                // name from "source"
)

func (k RefKind) String() string {
	switch k {
	case RefLocal:
		return "local"
	case RefGlobal:
		return "global"
	case RefImport:
		return "import"
	}
	return "unknown"
}

// Reference is a single name listed in a composition declaration.
type Reference struct {
	Kind   RefKind
	Name   string
	Source string // raw source text for RefImport
}

type valueToken struct {
	tt   css.TokenType
	data string
}

func lexValue(value string) ([]valueToken, error) {
	var toks []valueToken
	l := css.NewLexer(parse.NewInputString(value))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return toks, nil
		case css.WhitespaceToken, css.CommentToken:
			continue
		}
		toks = append(toks, valueToken{tt: tt, data: string(data)})
	}
}

// ParseReferences parses a composition value. Accepted forms are a list of
// names and global(name) wrappers, or a list of names followed by
// "from <source>" where source is a quoted path or the keyword global.
// Errors are reason strings, the caller wraps them into a SyntaxError.
func ParseReferences(value string) ([]Reference, error) {
	toks, err := lexValue(value)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, errors.New("no class names")
	}

	if from := fromIndex(toks); from >= 0 {
		return parseFrom(toks, from)
	}

	refs := make([]Reference, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.tt == css.IdentToken:
			refs = append(refs, Reference{Kind: RefLocal, Name: t.data})
		case t.tt == css.FunctionToken && strings.EqualFold(t.data, "global("):
			if i+2 >= len(toks) || toks[i+1].tt != css.IdentToken || toks[i+2].tt != css.RightParenthesisToken {
				return nil, errors.New("global() takes exactly one class name")
			}
			refs = append(refs, Reference{Kind: RefGlobal, Name: toks[i+1].data})
			i += 2
		default:
			return nil, errors.New("unexpected '" + t.data + "'")
		}
	}
	return refs, nil
}

func fromIndex(toks []valueToken) int {
	for i, t := range toks {
		if t.tt == css.IdentToken && t.data == "from" {
			return i
		}
	}
	return -1
}

func parseFrom(toks []valueToken, from int) ([]Reference, error) {
	if from == 0 {
		return nil, errors.New("no class names before 'from'")
	}
	if from != len(toks)-2 {
		if from == len(toks)-1 {
			return nil, errors.New("missing source after 'from'")
		}
		return nil, errors.New("unexpected '" + toks[from+2].data + "' after source")
	}

	src := toks[from+1]
	kind := RefImport
	switch {
	case src.tt == css.StringToken:
		if len(src.data) <= 2 {
			return nil, errors.New("empty source")
		}
	case src.tt == css.IdentToken && src.data == "global":
		kind = RefGlobal
	default:
		return nil, errors.New("source must be quoted")
	}

	refs := make([]Reference, 0, from)
	for _, t := range toks[:from] {
		if t.tt != css.IdentToken {
			return nil, errors.New("only class names may be imported, got '" + t.data + "'")
		}
		ref := Reference{Kind: kind, Name: t.data}
		if kind == RefImport {
			ref.Source = src.data
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
