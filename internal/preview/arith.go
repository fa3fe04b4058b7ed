package preview

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode"
)

var errSyntax = errors.New("invalid expression")

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	value float64
}

func tokenize(s string) ([]token, error) {
	var tokens []token
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			continue
		case r >= '0' && r <= '9':
			j := i
			for j < len(rs) && rs[j] >= '0' && rs[j] <= '9' {
				j++
			}
			v, err := strconv.ParseFloat(string(rs[i:j]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", errSyntax, err)
			}
			tokens = append(tokens, token{kind: tokNumber, value: v})
			i = j - 1
		case r == '+':
			tokens = append(tokens, token{kind: tokPlus})
		case r == '-':
			tokens = append(tokens, token{kind: tokMinus})
		case r == '*':
			if i+1 < len(rs) && rs[i+1] == '*' {
				tokens = append(tokens, token{kind: tokPow})
				i++
				continue
			}
			tokens = append(tokens, token{kind: tokStar})
		case r == '/':
			// "//" and "/*" would start a comment
			if i+1 < len(rs) && (rs[i+1] == '/' || rs[i+1] == '*') {
				return nil, errSyntax
			}
			tokens = append(tokens, token{kind: tokSlash})
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen})
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen})
		default:
			return nil, fmt.Errorf("%w: unexpected %q", errSyntax, r)
		}
	}
	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) accept(kind tokenKind) bool {
	if t, ok := p.peek(); ok && t.kind == kind {
		p.pos++
		return true
	}
	return false
}

// evalArithmetic evaluates an integer arithmetic expression with + - * / **
// and parentheses. Division is floating point.
func evalArithmetic(expr string) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	p := &parser{tokens: tokens}
	v, err := p.expression()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, fmt.Errorf("%w: trailing input", errSyntax)
	}
	return v, nil
}

func (p *parser) expression() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.accept(tokPlus):
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left += right
		case p.accept(tokMinus):
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.power()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.accept(tokStar):
			right, err := p.power()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.accept(tokSlash):
			right, err := p.power()
			if err != nil {
				return 0, err
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *parser) power() (float64, error) {
	signed := false
	if t, ok := p.peek(); ok && (t.kind == tokPlus || t.kind == tokMinus) {
		signed = true
	}
	base, err := p.unary()
	if err != nil {
		return 0, err
	}
	if !p.accept(tokPow) {
		return base, nil
	}
	// -2 ** 2 is ambiguous and rejected
	if signed {
		return 0, fmt.Errorf("%w: unary operator before **", errSyntax)
	}
	exp, err := p.power()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

func (p *parser) unary() (float64, error) {
	switch {
	case p.accept(tokMinus):
		v, err := p.unary()
		return -v, err
	case p.accept(tokPlus):
		return p.unary()
	}
	return p.primary()
}

func (p *parser) primary() (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("%w: unexpected end", errSyntax)
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		return t.value, nil
	case tokLParen:
		p.pos++
		v, err := p.expression()
		if err != nil {
			return 0, err
		}
		if !p.accept(tokRParen) {
			return 0, fmt.Errorf("%w: missing )", errSyntax)
		}
		return v, nil
	}
	return 0, fmt.Errorf("%w: unexpected token", errSyntax)
}
