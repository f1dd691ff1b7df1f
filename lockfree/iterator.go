package lockfree

import "cmp"

// Iterator is a snapshot position within a Tree: a node pointer
// together with the epoch that bounds which of its neighbors are
// visible. Iterators are wait-free to advance and treat the tree as
// cyclic: stepping past the maximum wraps to the minimum and vice
// versa.
//
// The zero Iterator is empty; Pair reports ErrEmptyIterator on it.
type Iterator[K cmp.Ordered, V any] struct {
	node  *Node[K, V]
	epoch uint64
	tree  *Tree[K, V]
}

// Empty reports whether it refers to no node, as happens when Find is
// called on an empty tree.
func (it Iterator[K, V]) Empty() bool {
	return it.node == nil
}

// Equal reports whether it and o refer to the same node.
func (it Iterator[K, V]) Equal(o Iterator[K, V]) bool {
	return it.node == o.node
}

// Pair returns the key and value at it. It returns ErrEmptyIterator
// if it is empty.
func (it Iterator[K, V]) Pair() (K, V, error) {
	if it.node == nil {
		var zk K
		var zv V
		return zk, zv, ErrEmptyIterator
	}
	return it.node.key, it.node.val, nil
}

// Inc returns the in-order successor of it, wrapping around to the
// minimum visible node if it is the maximum.
func (it Iterator[K, V]) Inc() Iterator[K, V] {
	return it.walk(childRight[K, V], childLeft[K, V])
}

// Dec returns the in-order predecessor of it, wrapping around to the
// maximum visible node if it is the minimum.
func (it Iterator[K, V]) Dec() Iterator[K, V] {
	return it.walk(childLeft[K, V], childRight[K, V])
}

func childLeft[K cmp.Ordered, V any](n *Node[K, V]) *Node[K, V]  { return n.loadLeft() }
func childRight[K cmp.Ordered, V any](n *Node[K, V]) *Node[K, V] { return n.loadRight() }

// walk implements Pfaff's non-recursive, non-threaded in-order
// traversal: near is the subtree to check first (right for a
// successor, left for a predecessor) and far is the direction to
// descend within it to find the extreme node. The same far direction
// also gives the wrap-around target when it has no near-side
// neighbor: the opposite extreme of the whole tree.
func (it Iterator[K, V]) walk(near, far func(*Node[K, V]) *Node[K, V]) Iterator[K, V] {
	n := it.node
	if n == nil {
		return it
	}
	epoch := it.epoch

	if side := near(n); !isNull(side, epoch) {
		cur := side
		for {
			next := far(cur)
			if isNull(next, epoch) {
				break
			}
			cur = next
		}
		return Iterator[K, V]{node: cur, epoch: epoch, tree: it.tree}
	}

	cur := n
	for {
		p := cur.parent
		if p == nil {
			// cur was the extreme visible node in the near direction;
			// wrap to the opposite extreme of the whole tree.
			root := it.tree.loadRoot()
			if isNull(root, epoch) {
				return Iterator[K, V]{epoch: epoch, tree: it.tree}
			}
			w := root
			for {
				next := far(w)
				if isNull(next, epoch) {
					break
				}
				w = next
			}
			return Iterator[K, V]{node: w, epoch: epoch, tree: it.tree}
		}
		if near(p) == cur {
			cur = p
			continue
		}
		return Iterator[K, V]{node: p, epoch: epoch, tree: it.tree}
	}
}
