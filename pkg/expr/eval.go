package expr

import (
	"fmt"
	"math"
)

// Reason classifies the outcome of evaluating one assignment.
type Reason int

const (
	Accepted Reason = iota
	DivisionFailure // divisor zero or remainder non-zero
	Overflow        // int64 range exceeded
	NonPositive     // final value <= 0
)

var reasonNames = map[Reason]string{
	Accepted:        "accepted",
	DivisionFailure: "division",
	Overflow:        "overflow",
	NonPositive:     "nonpositive",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Reasons lists every Reason in declaration order.
func Reasons() []Reason {
	return []Reason{Accepted, DivisionFailure, Overflow, NonPositive}
}

// Outcome is the result of Evaluate. Value is meaningful only when
// Reason == Accepted.
type Outcome struct {
	Value  int64
	Reason Reason
}

// OK reports whether the assignment produced a usable hub value.
func (o Outcome) OK() bool { return o.Reason == Accepted }

// Evaluate computes the value of shape with leaves[j] in leaf slot j and
// ops[j] in operator slot j. Intermediate results may be negative; only the
// final value must be positive.
//
// It panics if the slice lengths do not match the shape.
func Evaluate(shape *Node, leaves []int64, ops []Operator) Outcome {
	if len(leaves) != shape.leaves || len(ops) != shape.leaves-1 {
		panic(fmt.Sprintf("expr: shape of size %d evaluated with %d leaves and %d operators",
			shape.leaves, len(leaves), len(ops)))
	}
	v, r := evalAt(shape, leaves, ops, 0)
	if r != Accepted {
		return Outcome{Reason: r}
	}
	if v <= 0 {
		return Outcome{Value: v, Reason: NonPositive}
	}
	return Outcome{Value: v}
}

func evalAt(n *Node, leaves []int64, ops []Operator, offset int) (int64, Reason) {
	if n.IsLeaf() {
		return leaves[offset], Accepted
	}
	left, r := evalAt(n.Left, leaves, ops, offset)
	if r != Accepted {
		return 0, r
	}
	split := offset + n.Left.leaves
	right, r := evalAt(n.Right, leaves, ops, split)
	if r != Accepted {
		return 0, r
	}
	return Apply(ops[split-1], left, right)
}

// Apply performs one checked int64 operation. Division must be exact.
func Apply(op Operator, a, b int64) (int64, Reason) {
	switch op {
	case OpAdd:
		if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
			return 0, Overflow
		}
		return a + b, Accepted

	case OpSub:
		if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
			return 0, Overflow
		}
		return a - b, Accepted

	case OpMul:
		if a == 0 || b == 0 {
			return 0, Accepted
		}
		if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return 0, Overflow
		}
		c := a * b
		if c/b != a {
			return 0, Overflow
		}
		return c, Accepted

	case OpDiv:
		if b == 0 {
			return 0, DivisionFailure
		}
		if a == math.MinInt64 && b == -1 {
			return 0, Overflow
		}
		if a%b != 0 {
			return 0, DivisionFailure
		}
		return a / b, Accepted

	default:
		panic(fmt.Sprintf("expr: unknown operator %d", int(op)))
	}
}
