package pool

import "github.com/wildfunctions/factory_numbers/pkg/expr"

// Job is one contiguous segment of the serial assignment order for a size:
// a fixed operator combination and a fixed value for the last (most
// significant) leaf. Jobs in ascending Index order concatenate to exactly the
// sequence produced by Pool.Cursor.
type Job struct {
	Index uint64
	Size  int
	Ops   []expr.Operator
	Last  int64
}

// JobCount returns MaxNumber * |Operators|^(size-1). ok is false on overflow.
func (p Pool) JobCount(size int) (n uint64, ok bool) {
	if size < 1 {
		return 0, true
	}
	o, ok := pow(uint64(len(p.Operators)), size-1)
	if !ok {
		return 0, false
	}
	return mul(o, uint64(p.MaxNumber))
}

// Job decodes job i of the given size. i must be below JobCount(size).
func (p Pool) Job(size int, i uint64) Job {
	max := uint64(p.MaxNumber)
	j := Job{
		Index: i,
		Size:  size,
		Ops:   make([]expr.Operator, size-1),
		Last:  int64(i%max) + 1,
	}
	combo := i / max
	radix := uint64(len(p.Operators))
	for s := range j.Ops {
		j.Ops[s] = p.Operators[combo%radix]
		combo /= radix
	}
	return j
}

// JobCursor returns a cursor over the assignments of one job. Each job covers
// MaxNumber^(size-1) assignments.
func (p Pool) JobCursor(j Job) *Cursor {
	c := newCursor(p, j.Size)
	c.leafFree = j.Size - 1
	c.initLeaves[j.Size-1] = j.Last
	radix := len(p.Operators)
	for s, op := range j.Ops {
		for idx := 0; idx < radix; idx++ {
			if p.Operators[idx] == op {
				c.initOps[s] = idx
				break
			}
		}
	}
	c.Reset()
	return c
}
