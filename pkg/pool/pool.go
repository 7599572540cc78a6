package pool

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/wildfunctions/factory_numbers/pkg/expr"
)

// Pool is the alphabet assignments are drawn from: operands 1..MaxNumber
// and an ordered operator set.
type Pool struct {
	MaxNumber int64
	Operators []expr.Operator
}

// New validates and returns a pool.
func New(maxNumber int64, ops []expr.Operator) (Pool, error) {
	if maxNumber < 1 {
		return Pool{}, fmt.Errorf("max number must be >= 1, was %d", maxNumber)
	}
	if len(ops) == 0 {
		return Pool{}, errors.New("operator set is empty")
	}
	return Pool{MaxNumber: maxNumber, Operators: append([]expr.Operator(nil), ops...)}, nil
}

// Count returns the number of assignments for one shape of the given size,
// MaxNumber^size * |Operators|^(size-1). ok is false on uint64 overflow.
func (p Pool) Count(size int) (n uint64, ok bool) {
	if size < 1 {
		return 0, true
	}
	n, ok = pow(uint64(p.MaxNumber), size)
	if !ok {
		return 0, false
	}
	o, ok := pow(uint64(len(p.Operators)), size-1)
	if !ok {
		return 0, false
	}
	return mul(n, o)
}

// Cursor returns a cursor over every assignment of the given size, in serial
// order: operator combinations outermost, leaf combinations inside, both
// counting little-endian.
func (p Pool) Cursor(size int) *Cursor {
	c := newCursor(p, size)
	c.leafFree = size
	c.opFree = size - 1
	c.Reset()
	return c
}

func pow(base uint64, exp int) (uint64, bool) {
	r := uint64(1)
	for i := 0; i < exp; i++ {
		var ok bool
		if r, ok = mul(r, base); !ok {
			return 0, false
		}
	}
	return r, true
}

func mul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}
