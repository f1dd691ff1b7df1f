/*
Package lockfree implements an epoch-versioned, lock-free ordered
search tree. Insertion is a CAS loop over append-only child links;
find, and the iteration built on top of it, are wait-free and see a
consistent snapshot of the tree as of the epoch at which they began,
regardless of inserts that race with them.

The design is adapted from the concurrent, lock-free trie in
Workiva's ctrie (linearization point = a successful CAS on a node's
main pointer) generalized from a hash trie to an ordered binary
search tree keyed by an ordered type, and from the epoch/generation
mechanism ctrie's clones use to give a reader a stable view without
blocking writers.

No node is ever unlinked or freed while the tree is reachable:
readers need no hazard pointers or other reclamation scheme. Deletion
is not supported.
*/
package lockfree

import (
	"cmp"

	"vecann/internal/gatomic"
)

// MaxEpoch treats every currently-linked node as visible. Writers use
// it to see the "real" tree structure when finding an insertion slot.
const MaxEpoch = ^uint64(0)

// Node is a single key/value pair in the tree. Its key and value
// never change once constructed. Its parent and epoch are set only
// during the insertion that publishes it; each child link changes at
// most once, when a later insertion links a child into that empty slot.
type Node[K cmp.Ordered, V any] struct {
	key    K
	val    V
	parent *Node[K, V]
	left   *Node[K, V]
	right  *Node[K, V]
	epoch  uint64
}

func (n *Node[K, V]) loadLeft() *Node[K, V]  { return gatomic.LoadPointer(&n.left) }
func (n *Node[K, V]) loadRight() *Node[K, V] { return gatomic.LoadPointer(&n.right) }

// isNull reports whether p should be treated as absent by a reader
// pinned at epoch e: either there is no node there, or the node was
// inserted after the reader's snapshot was taken. A node is visible
// at epoch e iff its epoch is <= e.
func isNull[K cmp.Ordered, V any](p *Node[K, V], e uint64) bool {
	return p == nil || gatomic.LoadUint64(&p.epoch) > e
}

// Tree is an insert-only ordered index keyed by K. The zero value is
// an empty tree ready to use.
type Tree[K cmp.Ordered, V any] struct {
	root  *Node[K, V]
	epoch uint64
}

// New returns an empty Tree.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return &Tree[K, V]{}
}

func (t *Tree[K, V]) loadRoot() *Node[K, V] { return gatomic.LoadPointer(&t.root) }

// Find descends from a snapshot of the root comparing target against
// each node's key, stopping at an exact match or at the last node on
// the search path whose child in the required direction is absent at
// the snapshot epoch. The returned iterator is wait-free and pinned
// to that epoch, so every node reachable from it was linked before
// Find was called.
func (t *Tree[K, V]) Find(target K) Iterator[K, V] {
	epoch := gatomic.LoadUint64(&t.epoch)
	return t.findAt(target, t.loadRoot(), epoch)
}

func (t *Tree[K, V]) findAt(target K, root *Node[K, V], epoch uint64) Iterator[K, V] {
	var prev *Node[K, V]
	cur := root
	for !isNull(cur, epoch) {
		prev = cur
		switch {
		case cur.key == target:
			return Iterator[K, V]{node: prev, epoch: epoch, tree: t}
		case cur.key > target:
			cur = cur.loadLeft()
		default:
			cur = cur.loadRight()
		}
	}
	return Iterator[K, V]{node: prev, epoch: epoch, tree: t}
}

// Insert links a new node for key/val into the tree. It is lock-free:
// among any set of threads racing to insert, at least one always
// finishes in a bounded number of steps. It fails with
// ErrDuplicateKey, without disturbing the tree, if key is already
// present.
//
// The returned iterator is the insertion-point search result, not
// epoch-bound; it is informational only and should not be used for
// further traversal.
func (t *Tree[K, V]) Insert(key K, val V) (Iterator[K, V], error) {
	node := &Node[K, V]{key: key, val: val}

	for {
		root := t.loadRoot()
		loc := t.findAt(key, root, MaxEpoch)
		parent := loc.node

		var edge **Node[K, V]
		var old *Node[K, V]

		if parent == nil {
			edge, old = &t.root, root
		} else {
			if parent.key == key {
				return Iterator[K, V]{}, ErrDuplicateKey
			}
			if key < parent.key {
				edge = &parent.left
			} else {
				edge = &parent.right
			}
			old = gatomic.LoadPointer(edge)
		}

		node.parent = parent
		node.epoch = gatomic.AddUint64(&t.epoch, 1)

		if gatomic.CompareAndSwapPointer(edge, old, node) {
			return loc, nil
		}
	}
}
