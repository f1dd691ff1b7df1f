// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package topk selects the k highest-scored values from a stream of
// candidates, using a bounded min-heap so the working set never
// exceeds k elements regardless of how many candidates are offered.
// It is used by the brute-force oracle to turn a full cosine-score
// scan into a top-k result without a full sort.
package topk

import "sort"

// Pair associates a value with its score.
type Pair[V any] struct {
	Score float64
	Value V
}

// heap is a binary min-heap on Items, adapted from the standard
// library's container/heap for a fixed less function over Pair.Score.
type heap[V any] struct {
	items []Pair[V]
}

func (h *heap[V]) Len() int { return len(h.items) }

func (h *heap[V]) push(x Pair[V]) {
	h.items = append(h.items, x)
	h.up(len(h.items) - 1)
}

func (h *heap[V]) pop() Pair[V] {
	n := len(h.items) - 1
	h.swap(0, n)
	h.down(0, n)
	x := h.items[n]
	h.items = h.items[:n]
	return x
}

func (h *heap[V]) swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *heap[V]) less(i, j int) bool { return h.items[i].Score < h.items[j].Score }

func (h *heap[V]) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.less(j, i) {
			break
		}
		h.swap(i, j)
		j = i
	}
}

func (h *heap[V]) down(i0, n int) {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.less(j2, j1) {
			j = j2
		}
		if !h.less(j, i) {
			break
		}
		h.swap(i, j)
		i = j
	}
}

// Select returns the k Pairs from candidates with the highest Score,
// sorted descending by Score. Ties are broken arbitrarily. If fewer
// than k candidates are offered, Select returns all of them.
func Select[V any](candidates []Pair[V], k int) []Pair[V] {
	if k <= 0 {
		return nil
	}
	h := &heap[V]{items: make([]Pair[V], 0, k)}
	for _, cand := range candidates {
		switch {
		case h.Len() < k:
			h.push(cand)
		case cand.Score > h.items[0].Score:
			h.pop()
			h.push(cand)
		}
	}
	out := h.items
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
