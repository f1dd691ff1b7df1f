package lockfree

import (
	"fmt"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFindEmptyTree(t *testing.T) {
	c := qt.New(t)
	tr := New[int, string]()
	it := tr.Find(5)
	c.Assert(it.Empty(), qt.IsTrue)
	_, _, err := it.Pair()
	c.Assert(err, qt.Equals, ErrEmptyIterator)
}

func TestInsertAndFind(t *testing.T) {
	c := qt.New(t)
	tr := New[int, string]()
	_, err := tr.Insert(5, "five")
	c.Assert(err, qt.IsNil)
	_, err = tr.Insert(3, "three")
	c.Assert(err, qt.IsNil)
	_, err = tr.Insert(8, "eight")
	c.Assert(err, qt.IsNil)

	k, v, err := tr.Find(3).Pair()
	c.Assert(err, qt.IsNil)
	c.Assert(k, qt.Equals, 3)
	c.Assert(v, qt.Equals, "three")

	it := tr.Find(100)
	k, _, err = it.Pair()
	c.Assert(err, qt.IsNil)
	c.Assert(k, qt.Equals, 8, qt.Commentf("find on a missing key lands on the last node visited on the search path"))
}

func TestDuplicateKeyRejected(t *testing.T) {
	c := qt.New(t)
	tr := New[int, string]()
	_, err := tr.Insert(1, "a")
	c.Assert(err, qt.IsNil)
	_, err = tr.Insert(1, "b")
	c.Assert(err, qt.Equals, ErrDuplicateKey)

	// the failed insert must not have disturbed the existing value.
	_, v, err := tr.Find(1).Pair()
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, "a")
}

func TestBSTOrder(t *testing.T) {
	c := qt.New(t)
	tr := New[int, int]()
	for _, k := range []int{50, 30, 70, 20, 40, 60, 80} {
		_, err := tr.Insert(k, k)
		c.Assert(err, qt.IsNil)
	}
	var walk func(n *Node[int, int], lo, hi int)
	walk = func(n *Node[int, int], lo, hi int) {
		if n == nil {
			return
		}
		c.Assert(n.key > lo && n.key < hi, qt.IsTrue)
		walk(n.loadLeft(), lo, n.key)
		walk(n.loadRight(), n.key, hi)
	}
	walk(tr.loadRoot(), -1<<30, 1<<30)
}

// TestInOrderClosure checks that starting from any node and applying
// Inc exactly n times returns to the start.
func TestInOrderClosure(t *testing.T) {
	c := qt.New(t)
	tr := New[int, int]()
	keys := []int{5, 1, 9, 3, 7, 0, 4, 6, 8, 2}
	for _, k := range keys {
		_, err := tr.Insert(k, k*k)
		c.Assert(err, qt.IsNil)
	}
	start := tr.Find(4)
	it := start
	for range keys {
		it = it.Inc()
	}
	k0, _, _ := start.Pair()
	k1, _, _ := it.Pair()
	c.Assert(k1, qt.Equals, k0)
}

func TestIncVisitsSortedOrder(t *testing.T) {
	c := qt.New(t)
	tr := New[int, int]()
	keys := []int{5, 1, 9, 3, 7, 0, 4, 6, 8, 2}
	for _, k := range keys {
		_, err := tr.Insert(k, 0)
		c.Assert(err, qt.IsNil)
	}
	it := tr.Find(0)
	var got []int
	for i := 0; i < len(keys); i++ {
		k, _, err := it.Pair()
		c.Assert(err, qt.IsNil)
		got = append(got, k)
		it = it.Inc()
	}
	c.Assert(got, qt.DeepEquals, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
}

func TestDecIsReverseOfInc(t *testing.T) {
	c := qt.New(t)
	tr := New[int, int]()
	for _, k := range []int{5, 1, 9, 3, 7} {
		_, err := tr.Insert(k, 0)
		c.Assert(err, qt.IsNil)
	}
	it := tr.Find(3)
	next := it.Inc()
	back := next.Dec()
	k0, _, _ := it.Pair()
	k1, _, _ := back.Pair()
	c.Assert(k1, qt.Equals, k0)
}

func TestWrapAround(t *testing.T) {
	c := qt.New(t)
	tr := New[float64, string]()
	for _, k := range []float64{0.01, 0.05, 6.20, 6.27} {
		_, err := tr.Insert(k, fmt.Sprint(k))
		c.Assert(err, qt.IsNil)
	}
	max := tr.Find(6.27)
	k, _, _ := max.Inc().Pair()
	c.Assert(k, qt.Equals, 0.01, qt.Commentf("Inc past the maximum must wrap to the minimum"))

	min := tr.Find(0.01)
	k, _, _ = min.Dec().Pair()
	c.Assert(k, qt.Equals, 6.27, qt.Commentf("Dec past the minimum must wrap to the maximum"))
}

func TestEpochMonotone(t *testing.T) {
	c := qt.New(t)
	tr := New[int, int]()
	var epochs []uint64
	for i := 0; i < 20; i++ {
		_, err := tr.Insert(i, 0)
		c.Assert(err, qt.IsNil)
		epochs = append(epochs, tr.Find(i).node.epoch)
	}
	for i := 1; i < len(epochs); i++ {
		c.Assert(epochs[i] > epochs[i-1], qt.IsTrue, qt.Commentf("epoch must be strictly increasing in insertion order"))
	}
}

// TestFindHidesLaterInserts checks that a reader's snapshot epoch hides
// nodes inserted after Find was called, even though they're linked
// into the tree by the time the reader finishes walking it.
func TestFindHidesLaterInserts(t *testing.T) {
	c := qt.New(t)
	tr := New[int, int]()
	for _, k := range []int{10, 5, 15} {
		_, err := tr.Insert(k, 0)
		c.Assert(err, qt.IsNil)
	}
	it := tr.Find(5)
	_, err := tr.Insert(7, 0)
	c.Assert(err, qt.IsNil)

	// it was pinned before 7 was inserted, so walking forward from it
	// must not see 7.
	var got []int
	cur := it
	for i := 0; i < 3; i++ {
		k, _, err := cur.Pair()
		c.Assert(err, qt.IsNil)
		got = append(got, k)
		cur = cur.Inc()
	}
	c.Assert(got, qt.DeepEquals, []int{5, 10, 15})
}

// TestConcurrentInsertFind is a smoke test for wait-free reads racing
// with lock-free inserts: a single writer inserts distinct
// keys while readers continuously look them up, and every read must
// either see nothing (the insert hasn't linearized yet) or the
// correct value, never a torn or wrong one.
func TestConcurrentInsertFind(t *testing.T) {
	c := qt.New(t)
	tr := New[int, int]()
	const n = 2000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, err := tr.Insert(i, i*i)
			c.Check(err, qt.IsNil)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				it := tr.Find(i)
				k, v, err := it.Pair()
				if err != nil {
					continue // not inserted yet, or tree still empty
				}
				if k == i {
					c.Check(v, qt.Equals, i*i)
				}
			}
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		_, v, err := tr.Find(i).Pair()
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, i*i)
	}
}
