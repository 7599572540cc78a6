package expr

import "sync"

// Memoized shape arena, indexed by size, grown on demand.
var shapeCache = &shapeArena{bySize: [][]*Node{nil, {leafNode}}}

type shapeArena struct {
	mu     sync.RWMutex
	bySize [][]*Node
}

func (a *shapeArena) get(size int) ([]*Node, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if size < len(a.bySize) {
		return a.bySize[size], true
	}
	return nil, false
}

// Shapes returns every distinct full binary tree with the given number of
// leaves, Catalan(size-1) of them. The order is fixed: split points ascend,
// and for each split every left shape is paired with every right shape.
//
// The returned slice is shared and must not be modified. Sizes below 1
// yield nil.
func Shapes(size int) []*Node {
	if size < 1 {
		return nil
	}
	if s, ok := shapeCache.get(size); ok {
		return s
	}

	shapeCache.mu.Lock()
	defer shapeCache.mu.Unlock()
	// Re-check after acquiring write lock
	for k := len(shapeCache.bySize); k <= size; k++ {
		shapeCache.bySize = append(shapeCache.bySize, buildShapes(k, shapeCache.bySize))
	}
	return shapeCache.bySize[size]
}

// buildShapes assembles size k from the already cached smaller sizes.
func buildShapes(k int, smaller [][]*Node) []*Node {
	out := make([]*Node, 0, Catalan(k-1))
	for i := 1; i < k; i++ {
		for _, l := range smaller[i] {
			for _, r := range smaller[k-i] {
				out = append(out, Join(l, r))
			}
		}
	}
	return out
}

// Catalan returns the n-th Catalan number, the count of distinct shapes with
// n+1 leaves. Intermediate products overflow uint64 past n=30, far beyond
// any size that can be enumerated.
func Catalan(n int) uint64 {
	if n < 0 {
		return 0
	}
	c := uint64(1)
	for i := 0; i < n; i++ {
		// C(i+1) = C(i) * 2(2i+1) / (i+2), exact at every step
		c = c * uint64(2*(2*i+1)) / uint64(i+2)
	}
	return c
}
