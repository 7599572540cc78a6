package expr

import "strconv"

// Render writes the fully parenthesized infix form of an assignment:
// leaves as bare decimals, internal nodes as "(<left><op><right>)" with no
// whitespace, e.g. "((6/2)+1)".
func Render(shape *Node, leaves []int64, ops []Operator) string {
	return string(AppendRender(make([]byte, 0, 6*shape.leaves), shape, leaves, ops))
}

// AppendRender is Render into a caller-owned buffer.
func AppendRender(dst []byte, shape *Node, leaves []int64, ops []Operator) []byte {
	return appendAt(dst, shape, leaves, ops, 0)
}

func appendAt(dst []byte, n *Node, leaves []int64, ops []Operator, offset int) []byte {
	if n.IsLeaf() {
		return strconv.AppendInt(dst, leaves[offset], 10)
	}
	split := offset + n.Left.leaves
	dst = append(dst, '(')
	dst = appendAt(dst, n.Left, leaves, ops, offset)
	dst = append(dst, operatorSymbols[ops[split-1]]...)
	dst = appendAt(dst, n.Right, leaves, ops, split)
	return append(dst, ')')
}
