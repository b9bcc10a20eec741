// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package mathtool

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jllopis/agentcore/pkg/errors"
)

// Evaluate parses and evaluates expr using the restricted grammar
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = { "+" | "-" } factor
//	factor = number | "(" expr ")"
//
// No identifiers or calls are accepted.
func Evaluate(expr string) (float64, error) {
	p := &parser{src: expr}
	p.next()
	if p.tok.kind == tokEOF {
		return 0, invalid(expr, "empty expression")
	}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.tok.kind != tokEOF {
		return 0, invalid(expr, fmt.Sprintf("unexpected %s at offset %d", p.tok, p.tok.pos))
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, invalid(expr, "result is not a finite number")
	}
	return v, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokOp
	tokLParen
	tokRParen
	tokIllegal
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return "number " + t.text
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

type parser struct {
	src string
	off int
	tok token
	err error
}

func (p *parser) next() {
	for p.off < len(p.src) && isSpace(p.src[p.off]) {
		p.off++
	}
	if p.off >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: p.off}
		return
	}
	start := p.off
	c := p.src[p.off]
	switch {
	case isDigit(c) || c == '.':
		for p.off < len(p.src) && (isDigit(p.src[p.off]) || p.src[p.off] == '.') {
			p.off++
		}
		text := p.src[start:p.off]
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.tok = token{kind: tokIllegal, text: text, pos: start}
			return
		}
		p.tok = token{kind: tokNumber, text: text, num: n, pos: start}
	case c == '+' || c == '-' || c == '*' || c == '/':
		p.off++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	case c == '(':
		p.off++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.off++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	default:
		p.off++
		p.tok = token{kind: tokIllegal, text: string(c), pos: start}
	}
}

func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text
		p.next()
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
	return left, nil
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/") {
		op := p.tok.text
		p.next()
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == "*" {
			left *= right
			continue
		}
		if right == 0 {
			return 0, errors.Newf(errors.CodeDivisionByZero, "division by zero in %q", p.src).
				WithContext("expression", p.src)
		}
		left /= right
	}
	return left, nil
}

func (p *parser) unary() (float64, error) {
	if p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		neg := p.tok.text == "-"
		p.next()
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		if neg {
			return -v, nil
		}
		return v, nil
	}
	return p.factor()
}

func (p *parser) factor() (float64, error) {
	switch p.tok.kind {
	case tokNumber:
		v := p.tok.num
		p.next()
		return v, nil
	case tokLParen:
		p.next()
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.tok.kind != tokRParen {
			return 0, invalid(p.src, fmt.Sprintf("expected \")\" but found %s", p.tok))
		}
		p.next()
		return v, nil
	default:
		return 0, invalid(p.src, fmt.Sprintf("unexpected %s at offset %d", p.tok, p.tok.pos))
	}
}

func invalid(expr, reason string) error {
	return errors.Newf(errors.CodeInvalidExpression, "invalid expression %q: %s", expr, reason).
		WithContext("expression", expr)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
