package scrubber

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var ErrInvalidSelector = errors.New("invalid selector")

// ValueKind is the JSON kind of the node being matched.
type ValueKind string

const (
	KindString  ValueKind = "string"
	KindNumber  ValueKind = "number"
	KindBoolean ValueKind = "boolean"
	KindObject  ValueKind = "object"
	KindArray   ValueKind = "array"
	KindNull    ValueKind = "null"
)

// Selector decides whether a node at path with the given kind is in scope
// of a rule.
type Selector interface {
	Match(path []string, kind ValueKind) bool
	String() string
}

type andSelector struct{ left, right Selector }

func (s andSelector) Match(path []string, kind ValueKind) bool {
	return s.left.Match(path, kind) && s.right.Match(path, kind)
}

func (s andSelector) String() string {
	return "(" + s.left.String() + " && " + s.right.String() + ")"
}

type orSelector struct{ left, right Selector }

func (s orSelector) Match(path []string, kind ValueKind) bool {
	return s.left.Match(path, kind) || s.right.Match(path, kind)
}

func (s orSelector) String() string {
	return "(" + s.left.String() + " || " + s.right.String() + ")"
}

type notSelector struct{ inner Selector }

func (s notSelector) Match(path []string, kind ValueKind) bool {
	return !s.inner.Match(path, kind)
}

func (s notSelector) String() string {
	return "!" + s.inner.String()
}

type anySelector struct{}

func (anySelector) Match([]string, ValueKind) bool { return true }
func (anySelector) String() string                 { return "**" }

type kindSelector struct{ kind ValueKind }

func (s kindSelector) Match(_ []string, kind ValueKind) bool {
	return s.kind == kind
}

func (s kindSelector) String() string {
	return "$" + string(s.kind)
}

// pathSelector matches the trailing segments of a path, one glob per
// dot-separated segment. Matching is case-insensitive.
type pathSelector struct {
	raw      string
	segments []glob.Glob
}

func (s pathSelector) Match(path []string, _ ValueKind) bool {
	if len(path) < len(s.segments) {
		return false
	}
	tail := path[len(path)-len(s.segments):]
	for i, g := range s.segments {
		if !g.Match(strings.ToLower(tail[i])) {
			return false
		}
	}
	return true
}

func (s pathSelector) String() string {
	return s.raw
}

// ParseSelector parses expressions such as `api_key && !$object` or
// `(password || secret) && $string`. Precedence is ! over && over ||.
func ParseSelector(expr string) (Selector, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidSelector)
	}

	p := &parser{tokens: tokens}
	sel, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidSelector, p.tokens[p.pos])
	}
	return sel, nil
}

func tokenize(expr string) ([]string, error) {
	var tokens []string
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(' || c == ')' || c == '!':
			tokens = append(tokens, string(c))
			i++
		case strings.HasPrefix(expr[i:], "&&"), strings.HasPrefix(expr[i:], "||"):
			tokens = append(tokens, expr[i:i+2])
			i += 2
		case c == '&' || c == '|':
			return nil, fmt.Errorf("%w: lone %q at offset %d", ErrInvalidSelector, c, i)
		default:
			start := i
			for i < len(expr) && !strings.ContainsRune(" \t\n()!&|", rune(expr[i])) {
				i++
			}
			tokens = append(tokens, expr[start:i])
		}
	}
	return tokens, nil
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *parser) parseOr() (Selector, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == "||" {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orSelector{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Selector, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek() == "&&" {
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andSelector{left, right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Selector, error) {
	switch tok := p.peek(); tok {
	case "":
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrInvalidSelector)
	case "!":
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notSelector{inner}, nil
	case "(":
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("%w: missing closing parenthesis", ErrInvalidSelector)
		}
		p.pos++
		return inner, nil
	case ")", "&&", "||":
		return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidSelector, tok)
	default:
		p.pos++
		return parseAtom(tok)
	}
}

func parseAtom(tok string) (Selector, error) {
	if tok == "**" {
		return anySelector{}, nil
	}

	if strings.HasPrefix(tok, "$") {
		kind := ValueKind(strings.TrimPrefix(tok, "$"))
		switch kind {
		case KindString, KindNumber, KindBoolean, KindObject, KindArray, KindNull:
			return kindSelector{kind}, nil
		}
		return nil, fmt.Errorf("%w: unknown value type %q", ErrInvalidSelector, tok)
	}

	parts := strings.Split(strings.ToLower(tok), ".")
	segments := make([]glob.Glob, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: empty path segment in %q", ErrInvalidSelector, tok)
		}
		g, err := glob.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, tok, err)
		}
		segments = append(segments, g)
	}
	return pathSelector{raw: tok, segments: segments}, nil
}
