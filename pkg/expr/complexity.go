package expr

// Depth returns the number of levels in the shape; a leaf has depth 1.
func (n *Node) Depth() int {
	if n.IsLeaf() {
		return 1
	}
	ld := n.Left.Depth()
	rd := n.Right.Depth()
	if ld > rd {
		return 1 + ld
	}
	return 1 + rd
}

// NodeCount counts leaves and operator nodes together.
func (n *Node) NodeCount() int { return 2*n.leaves - 1 }

// Operators returns the number of operator slots in the shape.
func (n *Node) Operators() int { return n.leaves - 1 }
