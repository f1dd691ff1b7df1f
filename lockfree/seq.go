package lockfree

import "vecann/internal/gatomic"

// All returns the in-order sequence of (key, value) pairs visible at
// the epoch current as of the call, for use with range-over-func.
// Like Find and Inc, it is wait-free and unaffected by inserts that
// race with the traversal.
func (t *Tree[K, V]) All() func(yield func(K, V) bool) {
	return func(yield func(K, V) bool) {
		epoch := gatomic.LoadUint64(&t.epoch)
		first := t.firstAt(epoch)
		if first.Empty() {
			return
		}
		it := first
		for {
			key, val, err := it.Pair()
			if err != nil || !yield(key, val) {
				return
			}
			it = it.Inc()
			if it.node == first.node {
				return
			}
		}
	}
}

// firstAt returns the iterator at the minimum key visible at epoch.
func (t *Tree[K, V]) firstAt(epoch uint64) Iterator[K, V] {
	cur := t.loadRoot()
	if isNull(cur, epoch) {
		return Iterator[K, V]{}
	}
	for {
		left := cur.loadLeft()
		if isNull(left, epoch) {
			return Iterator[K, V]{node: cur, epoch: epoch, tree: t}
		}
		cur = left
	}
}
