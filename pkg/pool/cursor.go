package pool

import "github.com/wildfunctions/factory_numbers/pkg/expr"

// Cursor lazily walks assignments of one size as a mixed-radix counter. Only
// the lowest leafFree leaf slots and opFree operator slots count; the rest
// stay at their initial values, which is how a Job pins its segment.
//
// A Cursor holds O(size) state and can be rewound with Reset. The slices
// returned by Leaves and Ops are reused across calls to Next.
type Cursor struct {
	pool     Pool
	size     int
	leafFree int
	opFree   int

	initLeaves []int64
	initOps    []int

	leaves []int64
	opIdx  []int
	ops    []expr.Operator

	started bool
	done    bool
}

func newCursor(p Pool, size int) *Cursor {
	if size < 0 {
		size = 0
	}
	nops := 0
	if size > 0 {
		nops = size - 1
	}
	c := &Cursor{
		pool:       p,
		size:       size,
		initLeaves: make([]int64, size),
		initOps:    make([]int, nops),
		leaves:     make([]int64, size),
		opIdx:      make([]int, nops),
		ops:        make([]expr.Operator, nops),
	}
	for i := range c.initLeaves {
		c.initLeaves[i] = 1
	}
	return c
}

// Reset rewinds the cursor to before its first assignment.
func (c *Cursor) Reset() {
	copy(c.leaves, c.initLeaves)
	copy(c.opIdx, c.initOps)
	for i, idx := range c.opIdx {
		c.ops[i] = c.pool.Operators[idx]
	}
	c.started = false
	c.done = c.size == 0
}

// Next advances to the next assignment and reports whether there is one.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	if !c.started {
		c.started = true
		return true
	}
	for i := 0; i < c.leafFree; i++ {
		if c.leaves[i] < c.pool.MaxNumber {
			c.leaves[i]++
			return true
		}
		c.leaves[i] = 1
	}
	for i := 0; i < c.opFree; i++ {
		if c.opIdx[i]+1 < len(c.pool.Operators) {
			c.opIdx[i]++
			c.ops[i] = c.pool.Operators[c.opIdx[i]]
			return true
		}
		c.opIdx[i] = 0
		c.ops[i] = c.pool.Operators[0]
	}
	c.done = true
	return false
}

// Leaves returns the current leaf values, one per leaf slot.
func (c *Cursor) Leaves() []int64 { return c.leaves }

// Ops returns the current operators, one per operator slot.
func (c *Cursor) Ops() []expr.Operator { return c.ops }

// Size returns the expression size the cursor enumerates.
func (c *Cursor) Size() int { return c.size }
