// Package gatomic provides small generic wrappers around sync/atomic
// for the pointer and counter operations the lock-free index needs:
// atomic child-link loads/stores/CAS on *Node[K, V], and a monotonic
// uint64 epoch counter.
package gatomic

import (
	"sync/atomic"
	"unsafe"
)

// LoadPointer atomically loads *addr.
func LoadPointer[T any](addr **T) *T {
	return (*T)(atomic.LoadPointer((*unsafe.Pointer)(unsafe.Pointer(addr))))
}

// StorePointer atomically stores val into *addr.
func StorePointer[T any](addr **T, val *T) {
	atomic.StorePointer((*unsafe.Pointer)(unsafe.Pointer(addr)), unsafe.Pointer(val))
}

// CompareAndSwapPointer atomically compares *addr to old and, if they
// match, swaps in new. It reports whether the swap happened.
func CompareAndSwapPointer[T any](addr **T, old, new *T) (swapped bool) {
	return atomic.CompareAndSwapPointer(
		(*unsafe.Pointer)(unsafe.Pointer(addr)),
		unsafe.Pointer(old),
		unsafe.Pointer(new),
	)
}

// LoadUint64 atomically loads *addr.
func LoadUint64(addr *uint64) uint64 {
	return atomic.LoadUint64(addr)
}

// StoreUint64 atomically stores val into *addr.
func StoreUint64(addr *uint64, val uint64) {
	atomic.StoreUint64(addr, val)
}

// AddUint64 atomically adds delta to *addr and returns the new value.
func AddUint64(addr *uint64, delta uint64) uint64 {
	return atomic.AddUint64(addr, delta)
}
