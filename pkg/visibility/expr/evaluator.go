package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formcond/pkg/visibility"
)

// Evaluator is a small, dependency-free rule evaluator for hide options.
//
// Supported syntax:
//   - boolean checks: `featured`, `!parent.enabled`
//   - comparisons: `kind == "promo"`, `parent.count >= 3`, `extras.role != "admin"`
//   - composition: `a == true && (b || !c)`
//
// Identifiers are value paths rooted at one of:
//   - `document.` (also the default for unprefixed identifiers)
//   - `parent.` the nearest ancestor of the field
//   - `parents.N.` the N-th ancestor, nearest first
//   - `extras.` caller supplied context
//
// Keyed references work inside identifiers: `sections[_key=="intro"].title`.
type Evaluator struct{}

func New() *Evaluator { return &Evaluator{} }

var _ visibility.Evaluator = (*Evaluator)(nil)

// Eval reports whether rule matches. Empty rules never match.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	node, err := Compile(rule)
	if err != nil {
		return false, fmt.Errorf("visibility/expr: %s: %w", fieldPath, err)
	}
	if node == nil {
		return false, nil
	}
	matched, err := node.eval(ctx)
	if err != nil {
		return false, fmt.Errorf("visibility/expr: %s: %w", fieldPath, err)
	}
	return matched, nil
}

// Expression is a compiled rule.
type Expression struct {
	root exprNode
}

// Compile parses rule once so it can be evaluated repeatedly. A blank rule
// compiles to nil.
func Compile(rule string) (*Expression, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}
	tokens, err := newLexer(trimmed).tokens()
	if err != nil {
		return nil, err
	}
	root, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}
	return &Expression{root: root}, nil
}

func (x *Expression) eval(ctx visibility.Context) (bool, error) {
	if x == nil || x.root == nil {
		return false, nil
	}
	return x.root.eval(ctx)
}

// Match evaluates a compiled expression.
func (x *Expression) Match(ctx visibility.Context) (bool, error) {
	return x.eval(ctx)
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

type lexer struct {
	input string
	pos   int
	out   []token
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) emit(kind tokenKind, raw string) {
	l.out = append(l.out, token{kind: kind, raw: raw})
}

// pair emits double when the next byte is second, single otherwise. A zero
// single kind means the lone character is invalid.
func (l *lexer) pair(second byte, double tokenKind, single *tokenKind) error {
	first := l.input[l.pos]
	l.pos++
	if l.peek() == second {
		l.pos++
		l.emit(double, string([]byte{first, second}))
		return nil
	}
	if single == nil {
		return fmt.Errorf("visibility/expr: unexpected %q; use %q", first, string([]byte{first, second}))
	}
	l.emit(*single, string(first))
	return nil
}

func (l *lexer) tokens() ([]token, error) {
	not, lt, gt := tokenNot, tokenLt, tokenGt
	for l.pos < len(l.input) {
		ch := l.peek()
		var err error
		switch {
		case isSpace(ch):
			l.pos++
		case ch == '(':
			l.pos++
			l.emit(tokenLParen, "(")
		case ch == ')':
			l.pos++
			l.emit(tokenRParen, ")")
		case ch == '!':
			err = l.pair('=', tokenNeq, &not)
		case ch == '=':
			err = l.pair('=', tokenEq, nil)
		case ch == '&':
			err = l.pair('&', tokenAnd, nil)
		case ch == '|':
			err = l.pair('|', tokenOr, nil)
		case ch == '<':
			err = l.pair('=', tokenLte, &lt)
		case ch == '>':
			err = l.pair('=', tokenGte, &gt)
		case ch == '"' || ch == '\'':
			err = l.quoted()
		default:
			err = l.word()
		}
		if err != nil {
			return nil, err
		}
	}
	return l.out, nil
}

func (l *lexer) quoted() error {
	quote := l.input[l.pos]
	start := l.pos
	l.pos++
	escaped := false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		l.pos++
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == quote:
			body := l.input[start+1 : l.pos-1]
			if quote == '\'' {
				body = strings.ReplaceAll(body, `"`, `\"`)
				body = strings.ReplaceAll(body, `\'`, `'`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return fmt.Errorf("visibility/expr: invalid string literal: %w", err)
			}
			l.emit(tokenString, value)
			return nil
		}
	}
	return errors.New("visibility/expr: unterminated string literal")
}

// word scans identifiers, numbers and keywords. Bracketed keyed references
// are consumed whole so their quotes and '==' stay part of the identifier.
func (l *lexer) word() error {
	start := l.pos
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '[' {
			end := strings.IndexByte(l.input[l.pos:], ']')
			if end < 0 {
				return errors.New("visibility/expr: unterminated keyed reference")
			}
			l.pos += end + 1
			continue
		}
		if isSpace(c) || strings.IndexByte("()!=&|<>\"'", c) >= 0 {
			break
		}
		l.pos++
	}
	raw := l.input[start:l.pos]
	if raw == "" {
		return fmt.Errorf("visibility/expr: unexpected %q", l.input[l.pos])
	}
	switch strings.ToLower(raw) {
	case "true", "false":
		l.emit(tokenBool, strings.ToLower(raw))
	case "null", "nil":
		l.emit(tokenNull, "null")
	default:
		if looksLikeNumber(raw) {
			l.emit(tokenNumber, raw)
		} else {
			l.emit(tokenIdentifier, raw)
		}
	}
	return nil
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+'
}
