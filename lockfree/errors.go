package lockfree

import "errors"

// ErrDuplicateKey is returned by Tree.Insert when a node with an
// identical key is already present in the tree.
var ErrDuplicateKey = errors.New("lockfree: duplicate key")

// ErrEmptyIterator is returned when dereferencing an iterator whose
// position does not refer to any node, such as one returned by Find
// on an empty tree.
var ErrEmptyIterator = errors.New("lockfree: empty iterator")
