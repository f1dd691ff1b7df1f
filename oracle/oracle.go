// Package oracle is the reference, brute-force nearest-neighbor
// index used as a test oracle for the lock-free index: it answers
// queries by scoring every stored vector by cosine similarity and
// keeping the top k. It is deliberately simple and not safe for
// concurrent use; it exists to check the lock-free index's answers,
// not to compete with it.
package oracle

import (
	"errors"

	"vecann/internal/topk"
	"vecann/vec2"
)

// ErrUnderflow is returned by Query when asked for more neighbors
// than are indexed.
var ErrUnderflow = errors.New("oracle: k exceeds the number of indexed vectors")

// Index is a brute-force Algorithm implementation over a fixed set of
// vectors.
type Index struct {
	vectors []vec2.Vec2
}

// New returns an Index over a copy of vectors.
func New(vectors []vec2.Vec2) *Index {
	return &Index{vectors: append([]vec2.Vec2(nil), vectors...)}
}

// Preprocess replaces the indexed set with a copy of vectors.
func (idx *Index) Preprocess(vectors []vec2.Vec2) {
	idx.vectors = append([]vec2.Vec2(nil), vectors...)
}

// Len reports the number of indexed vectors.
func (idx *Index) Len() int { return len(idx.vectors) }

// Query returns the k vectors closest to q by cosine similarity,
// sorted by descending score. It returns ErrUnderflow if k exceeds
// the number of indexed vectors.
func (idx *Index) Query(q vec2.Vec2, k int) ([]topk.Pair[vec2.Vec2], error) {
	if k > len(idx.vectors) {
		return nil, ErrUnderflow
	}
	if k == 0 {
		return nil, nil
	}
	uq, err := vec2.Normalize(q)
	if err != nil {
		return nil, err
	}
	cands := make([]topk.Pair[vec2.Vec2], len(idx.vectors))
	for i, v := range idx.vectors {
		cands[i] = topk.Pair[vec2.Vec2]{
			Score: vec2.CosineNormed(uq, v),
			Value: v,
		}
	}
	return topk.Select(cands, k), nil
}
