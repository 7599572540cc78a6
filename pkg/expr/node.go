package expr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOperator is returned when an operator symbol is not one of + - * /.
var ErrUnknownOperator = errors.New("unknown operator")

// Operator identifies a binary operation a factory can apply.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
)

var operatorSymbols = map[Operator]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
}

func (o Operator) String() string {
	if s, ok := operatorSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// AllOperators returns the full operator set in canonical order.
func AllOperators() []Operator {
	return []Operator{OpAdd, OpSub, OpMul, OpDiv}
}

// ParseOperator converts a single symbol to an Operator.
func ParseOperator(s string) (Operator, error) {
	for op, sym := range operatorSymbols {
		if sym == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (allowed: +,-,*,/)", ErrUnknownOperator, s)
}

// ParseOperators parses a comma-separated operator list such as "+,*".
// The order of the list is kept; it fixes the enumeration order of operator
// assignments. Duplicates, empty items and empty lists are rejected.
func ParseOperators(s string) ([]Operator, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty operator list", ErrUnknownOperator)
	}
	parts := strings.Split(s, ",")
	ops := make([]Operator, 0, len(parts))
	seen := make(map[Operator]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("%w: empty item in %q", ErrUnknownOperator, s)
		}
		op, err := ParseOperator(p)
		if err != nil {
			return nil, err
		}
		if seen[op] {
			return nil, fmt.Errorf("duplicate operator %q in %q", p, s)
		}
		seen[op] = true
		ops = append(ops, op)
	}
	return ops, nil
}

// FormatOperators is the inverse of ParseOperators.
func FormatOperators(ops []Operator) string {
	syms := make([]string, len(ops))
	for i, op := range ops {
		syms[i] = op.String()
	}
	return strings.Join(syms, ",")
}

// Node is an expression shape: a full binary tree whose leaves and internal
// nodes are unlabeled slots. Values and operators are supplied by position
// when a shape is evaluated or rendered.
//
// Slots are numbered in-order. Leaf j is the j-th leaf from the left; the
// operator of an internal node sits in the gap between the last leaf of its
// left subtree and the first leaf of its right subtree. Shapes are immutable
// and share subtrees freely.
type Node struct {
	Left, Right *Node
	leaves      int
}

var leafNode = &Node{leaves: 1}

// Leaf returns the single-leaf shape.
func Leaf() *Node { return leafNode }

// Join combines two shapes under one operator slot.
func Join(left, right *Node) *Node {
	return &Node{Left: left, Right: right, leaves: left.leaves + right.leaves}
}

// IsLeaf reports whether n is a bare operand.
func (n *Node) IsLeaf() bool { return n.Left == nil }

// Leaves returns the number of operand slots, which is the expression size.
func (n *Node) Leaves() int { return n.leaves }

// Template renders the shape with '#' for operands and '?' for operators,
// e.g. "((#?#)?#)". Used in logs and tests.
func (n *Node) Template() string {
	if n.IsLeaf() {
		return "#"
	}
	return "(" + n.Left.Template() + "?" + n.Right.Template() + ")"
}
