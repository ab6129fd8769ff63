// Package formula implements a small, safe arithmetic expression evaluator
// for custom revenue and expense models. It supports the four basic
// operators, unary minus, parentheses, numeric literals and named variables.
// There are no functions, comparisons or side effects.
package formula

import (
	"fmt"
	"math"
	"strconv"
	"unicode"

	"openmuni/fiscalcast/internal/calcerror"
)

// Expr is a parsed, reusable expression. Parsing happens once at the
// validation boundary; evaluation is a pure walk over the tree.
type Expr struct {
	source string
	root   node
	vars   map[string]struct{}
}

// Parse compiles an expression string. Malformed input yields a
// *calcerror.FormulaError with the offending position.
func Parse(source string) (*Expr, error) {
	p := &parser{source: source, vars: make(map[string]struct{})}
	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.source) {
		return nil, p.errorf("unexpected character '%c'", p.source[p.pos])
	}
	return &Expr{source: source, root: root, vars: p.vars}, nil
}

// Eval evaluates the expression against the supplied variables. Every
// variable referenced by the expression must be present.
func (e *Expr) Eval(vars map[string]float64) (float64, error) {
	for name := range e.vars {
		if _, ok := vars[name]; !ok {
			return 0, &calcerror.FormulaError{
				Expression: e.source,
				Reason:     fmt.Sprintf("undefined variable '%s'", name),
			}
		}
	}
	result, err := e.root.eval(vars)
	if err != nil {
		return 0, err
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, &calcerror.FormulaError{
			Expression: e.source,
			Reason:     "evaluation produced a non-finite result",
		}
	}
	return result, nil
}

// References reports whether the expression uses the named variable.
func (e *Expr) References(name string) bool {
	_, ok := e.vars[name]
	return ok
}

// Variables returns the set of variable names the expression references.
func (e *Expr) Variables() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	return names
}

// ---------------------------------------------------------------------------
// AST
// ---------------------------------------------------------------------------

type node interface {
	eval(vars map[string]float64) (float64, error)
}

type literal struct {
	value float64
}

func (n literal) eval(map[string]float64) (float64, error) {
	return n.value, nil
}

type variable struct {
	name string
}

func (n variable) eval(vars map[string]float64) (float64, error) {
	return vars[n.name], nil
}

type unary struct {
	operand node
}

func (n unary) eval(vars map[string]float64) (float64, error) {
	v, err := n.operand.eval(vars)
	return -v, err
}

type binary struct {
	op          byte
	left, right node
	source      string
	pos         int
}

func (n binary) eval(vars map[string]float64) (float64, error) {
	left, err := n.left.eval(vars)
	if err != nil {
		return 0, err
	}
	right, err := n.right.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return left + right, nil
	case '-':
		return left - right, nil
	case '*':
		return left * right, nil
	default:
		if right == 0 {
			return 0, &calcerror.FormulaError{
				Expression: n.source,
				Position:   n.pos,
				Reason:     "division by zero",
			}
		}
		return left / right, nil
	}
}

// ---------------------------------------------------------------------------
// Recursive descent parser
// ---------------------------------------------------------------------------

type parser struct {
	source string
	pos    int
	vars   map[string]struct{}
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &calcerror.FormulaError{
		Expression: p.source,
		Position:   p.pos,
		Reason:     fmt.Sprintf(format, args...),
	}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.source) && p.source[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.source) {
		return 0
	}
	return p.source[p.pos]
}

// parseExpression handles addition and subtraction.
func (p *parser) parseExpression() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		opPos := p.pos
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right, source: p.source, pos: opPos}
	}
}

// parseTerm handles multiplication and division.
func (p *parser) parseTerm() (node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		opPos := p.pos
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right, source: p.source, pos: opPos}
	}
}

// parseFactor handles literals, variables, parentheses and unary minus.
func (p *parser) parseFactor() (node, error) {
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf("unexpected end of expression")

	case c == '-':
		p.pos++
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return unary{operand: operand}, nil

	case c == '(':
		p.pos++
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil

	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()

	case isIdentStart(rune(c)):
		return p.parseVariable(), nil

	default:
		return nil, p.errorf("unexpected character '%c'", c)
	}
}

func (p *parser) parseNumber() (node, error) {
	start := p.pos
	for p.pos < len(p.source) &&
		(p.source[p.pos] >= '0' && p.source[p.pos] <= '9' || p.source[p.pos] == '.') {
		p.pos++
	}
	text := p.source[start:p.pos]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("invalid number '%s'", text)
	}
	return literal{value: value}, nil
}

func (p *parser) parseVariable() node {
	start := p.pos
	for p.pos < len(p.source) && isIdentPart(rune(p.source[p.pos])) {
		p.pos++
	}
	name := p.source[start:p.pos]
	p.vars[name] = struct{}{}
	return variable{name: name}
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentPart(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}
