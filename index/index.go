// Package index implements the lock-free, epoch-versioned
// nearest-neighbor index: vectors are linearized to an angle and
// stored in a lockfree.Tree keyed by that angle, so that cosine
// nearest-neighbor search reduces to a 1-D wrap-around walk.
package index

import (
	"errors"

	"vecann/internal/topk"
	"vecann/lockfree"
	"vecann/vec2"
)

// ErrEmptyTree is returned by Nearest when no vectors are indexed.
var ErrEmptyTree = errors.New("index: tree is empty")

// ErrDuplicateKey is returned by Insert when a vector's linearized
// angle collides with an already-indexed vector's.
var ErrDuplicateKey = lockfree.ErrDuplicateKey

// Index is the concurrent nearest-neighbor index. The zero value is
// ready to use.
type Index struct {
	tree lockfree.Tree[float64, vec2.Vec2]
}

// New returns an empty Index.
func New() *Index {
	return &Index{}
}

// Insert links v into the index at its linearized angle. It is
// lock-free and safe for concurrent use with Query, Contains, Nearest
// and other calls to Insert.
func (idx *Index) Insert(v vec2.Vec2) error {
	key, err := vec2.Linearize(v)
	if err != nil {
		return err
	}
	_, err = idx.tree.Insert(key, v)
	return err
}

// Preprocess bulk-loads vectors by inserting each in turn. It is not
// safe to call concurrently with other writers, though readers may
// run concurrently with it.
func (idx *Index) Preprocess(vectors []vec2.Vec2) error {
	for _, v := range vectors {
		if err := idx.Insert(v); err != nil {
			return err
		}
	}
	return nil
}

// Contains reports whether q's exact angle is indexed. An empty tree
// or a search-path that terminates short of an exact match both
// report false; find's iterator is never dereferenced blindly.
func (idx *Index) Contains(q vec2.Vec2) bool {
	lq, err := vec2.Linearize(q)
	if err != nil {
		return false
	}
	it := idx.tree.Find(lq)
	if it.Empty() {
		return false
	}
	key, _, err := it.Pair()
	if err != nil {
		return false
	}
	return key == lq
}

// Nearest returns the single closest indexed vector to q. It returns
// ErrEmptyTree if the index holds no vectors.
func (idx *Index) Nearest(q vec2.Vec2) (vec2.Vec2, error) {
	results, err := idx.Query(q, 1)
	if err != nil {
		return vec2.Vec2{}, err
	}
	if len(results) == 0 {
		return vec2.Vec2{}, ErrEmptyTree
	}
	return results[0].Value, nil
}

// Query returns up to k vectors angularly closest to q, seeded by the
// linearized search key and expanded symmetrically in both directions
// of the cyclic in-order walk. The Score field is the negated circular
// distance between the angles of q and the value (not a cosine
// similarity); tests should compare only the Value set.
func (idx *Index) Query(q vec2.Vec2, k int) ([]topk.Pair[vec2.Vec2], error) {
	if k <= 0 {
		return nil, nil
	}
	lq, err := vec2.Linearize(q)
	if err != nil {
		return nil, err
	}
	it := idx.tree.Find(lq)
	if it.Empty() {
		return nil, nil
	}

	it = correctSeed(it, lq)

	key, val, err := it.Pair()
	if err != nil {
		return nil, err
	}
	results := []topk.Pair[vec2.Vec2]{{Score: -vec2.CircularDistance(lq, key), Value: val}}
	if len(results) == k {
		return results, nil
	}

	left := it.Inc()
	right := it.Dec()
	for len(results) < k {
		// The walkers close in on each other around the circle; once
		// the successor walker is back at the seed the snapshot held a
		// single node, and once the walkers coincide a single
		// unvisited node remains between them.
		if left.Equal(it) {
			break
		}
		lKey, lVal, err := left.Pair()
		if err != nil {
			break
		}
		if left.Equal(right) {
			results = append(results, topk.Pair[vec2.Vec2]{Score: -vec2.CircularDistance(lq, lKey), Value: lVal})
			break
		}
		rKey, rVal, err := right.Pair()
		if err != nil {
			break
		}
		dl := vec2.CircularDistance(lKey, lq)
		dr := vec2.CircularDistance(rKey, lq)
		if dl < dr {
			results = append(results, topk.Pair[vec2.Vec2]{Score: -dl, Value: lVal})
			left = left.Inc()
		} else {
			results = append(results, topk.Pair[vec2.Vec2]{Score: -dr, Value: rVal})
			right = right.Dec()
		}
	}
	return results, nil
}

// correctSeed replaces it with whichever of {it, inc(it), dec(it)} is
// angularly closest to lq, per the seed-correction step of the k-NN
// algorithm: find's search-path termination node is only guaranteed
// to be one of these three candidates.
func correctSeed(it lockfree.Iterator[float64, vec2.Vec2], lq float64) lockfree.Iterator[float64, vec2.Vec2] {
	best := it
	bestKey, _, err := it.Pair()
	if err != nil {
		return it
	}
	bestDist := vec2.CircularDistance(lq, bestKey)

	next := it.Inc()
	if key, _, err := next.Pair(); err == nil {
		if d := vec2.CircularDistance(lq, key); d < bestDist {
			best, bestDist = next, d
		}
	}
	prev := it.Dec()
	if key, _, err := prev.Pair(); err == nil {
		if d := vec2.CircularDistance(lq, key); d < bestDist {
			best, bestDist = prev, d
		}
	}
	return best
}
