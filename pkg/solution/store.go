package solution

import "sort"

// Solution is one row of the result table: every representation reaching
// Value with the minimal number of operands Size.
type Solution struct {
	Value           int64    `json:"value"`
	Size            int      `json:"size"`
	Representations []string `json:"representations"`
}

type entry struct {
	size  int
	reprs []string
}

// Store keeps, per value, the smallest size seen and the representations of
// that size in discovery order. A Store is not safe for concurrent mutation;
// concurrent searches give each worker its own Store and Merge them.
type Store struct {
	entries  map[int64]*entry
	maxValue int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

// Accepts reports whether Record(value, size, ...) would keep the
// representation. Callers use it to skip rendering strings that would be
// discarded. Safe for concurrent use while nothing mutates the store.
func (s *Store) Accepts(value int64, size int) bool {
	e, ok := s.entries[value]
	return !ok || size <= e.size
}

// Record applies the store policy: a new value is inserted, a strictly
// smaller size replaces the list, an equal size appends, a larger size is
// dropped.
func (s *Store) Record(value int64, size int, repr string) {
	e, ok := s.entries[value]
	switch {
	case !ok:
		s.entries[value] = &entry{size: size, reprs: []string{repr}}
		if value > s.maxValue {
			s.maxValue = value
		}
	case size < e.size:
		e.size = size
		e.reprs = append(e.reprs[:0:0], repr)
	case size == e.size:
		e.reprs = append(e.reprs, repr)
	}
}

// Merge folds other into s with the Record policy. On equal sizes the
// representations of other are appended after those of s, so merging
// per-job stores in ascending job order reproduces serial discovery order.
// other must not be used afterwards.
func (s *Store) Merge(other *Store) {
	for v, oe := range other.entries {
		e, ok := s.entries[v]
		switch {
		case !ok:
			s.entries[v] = oe
			if v > s.maxValue {
				s.maxValue = v
			}
		case oe.size < e.size:
			s.entries[v] = oe
		case oe.size == e.size:
			e.reprs = append(e.reprs, oe.reprs...)
		}
	}
}

// Lookup returns a copy of the row for value.
func (s *Store) Lookup(value int64) (Solution, bool) {
	e, ok := s.entries[value]
	if !ok {
		return Solution{}, false
	}
	return Solution{Value: value, Size: e.size, Representations: append([]string(nil), e.reprs...)}, true
}

// Snapshot returns a deep copy of every row, ascending by value.
func (s *Store) Snapshot() []Solution {
	out := make([]Solution, 0, len(s.entries))
	for v, e := range s.entries {
		out = append(out, Solution{Value: v, Size: e.size, Representations: append([]string(nil), e.reprs...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Len returns the number of distinct values recorded.
func (s *Store) Len() int { return len(s.entries) }

// MaxValue returns the largest value recorded, or 0 for an empty store.
func (s *Store) MaxValue() int64 { return s.maxValue }
