package expr

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
)

// ErrSyntax is returned by Parse for malformed input.
var ErrSyntax = errors.New("syntax error")

// Expr is a parsed infix expression with concrete operands. A leaf has nil
// children and carries Value; an internal node carries Op.
type Expr struct {
	Op          Operator
	Left, Right *Expr
	Value       int64
}

// Parse reads an infix expression over non-negative integer literals and
// + - * / with the usual precedence and left associativity. Parentheses are
// optional; the rendered form of any assignment parses back to the same tree.
func Parse(s string) (*Expr, error) {
	p := &parser{src: s}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, p.src[p.pos], p.pos)
	}
	return e, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) parseSum() (*Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		var op Operator
		switch p.peek() {
		case '+':
			op = OpAdd
		case '-':
			op = OpSub
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = &Expr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseProduct() (*Expr, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		var op Operator
		switch p.peek() {
		case '*':
			op = OpMul
		case '/':
			op = OpDiv
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = &Expr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAtom() (*Expr, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("%w: missing ')' at offset %d", ErrSyntax, p.pos)
		}
		p.pos++
		return e, nil

	case c >= '0' && c <= '9':
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		v, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return &Expr{Value: v}, nil

	case c == 0:
		return nil, fmt.Errorf("%w: unexpected end of input", ErrSyntax)

	default:
		return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, c, p.pos)
	}
}

// IsLeaf reports whether e is a bare operand.
func (e *Expr) IsLeaf() bool { return e.Left == nil }

// Size returns the number of operands.
func (e *Expr) Size() int {
	if e.IsLeaf() {
		return 1
	}
	return e.Left.Size() + e.Right.Size()
}

// Assignment splits e into its shape and in-order leaf and operator slots,
// the form consumed by Evaluate and Render.
func (e *Expr) Assignment() (*Node, []int64, []Operator) {
	var leaves []int64
	var ops []Operator
	shape := e.collect(&leaves, &ops)
	return shape, leaves, ops
}

func (e *Expr) collect(leaves *[]int64, ops *[]Operator) *Node {
	if e.IsLeaf() {
		*leaves = append(*leaves, e.Value)
		return leafNode
	}
	l := e.Left.collect(leaves, ops)
	*ops = append(*ops, e.Op)
	r := e.Right.collect(leaves, ops)
	return Join(l, r)
}

// String renders e fully parenthesized.
func (e *Expr) String() string {
	shape, leaves, ops := e.Assignment()
	return Render(shape, leaves, ops)
}

// Rat evaluates e under exact rational arithmetic, without the integer
// restrictions of Evaluate. Only division by zero fails.
func (e *Expr) Rat() (*big.Rat, error) {
	if e.IsLeaf() {
		return new(big.Rat).SetInt64(e.Value), nil
	}
	l, err := e.Left.Rat()
	if err != nil {
		return nil, err
	}
	r, err := e.Right.Rat()
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case OpAdd:
		return l.Add(l, r), nil
	case OpSub:
		return l.Sub(l, r), nil
	case OpMul:
		return l.Mul(l, r), nil
	case OpDiv:
		if r.Sign() == 0 {
			return nil, errors.New("division by zero")
		}
		return l.Quo(l, r), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperator, int(e.Op))
	}
}
