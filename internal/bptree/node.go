package bptree

import "cmp"

// Ordered is the key constraint: any type with the built-in ordering
// operators. Byte-string keys should be passed as string.
type Ordered = cmp.Ordered

// node is the tagged-union representation of a B+ tree node: one shape
// carries leaf payload fields (keys/vals/sibling links), the other
// carries internal routing fields (separators/children). leaf
// discriminates which half is meaningful; we deliberately do not model
// this as two types behind an interface; see DESIGN.md.
type node[K Ordered, V any] struct {
	leaf bool

	// Leaf fields. keys and vals are parallel, kept in ascending key
	// order. prev/next are non-owning links to sibling leaves.
	keys []K
	vals []V
	prev *node[K, V]
	next *node[K, V]

	// Internal fields. len(kids) == len(seps)+1. All keys reachable
	// through kids[i] are < seps[i]; all keys reachable through
	// kids[i+1] are >= seps[i].
	seps []K
	kids []*node[K, V]
}

func newLeaf[K Ordered, V any]() *node[K, V] {
	return &node[K, V]{leaf: true}
}

// firstKey returns the smallest key reachable under n, descending the
// leftmost spine. n must be non-nil and non-empty.
func firstKey[K Ordered, V any](n *node[K, V]) K {
	for !n.leaf {
		n = n.kids[0]
	}
	return n.keys[0]
}

// childIndex returns the index of the child that would hold key,
// descending an internal node using strict-greater-than on separators:
// key == seps[i] routes into kids[i+1], matching the leaf separator
// discipline (§3 of SPEC_FULL.md).
func childIndex[K Ordered, V any](n *node[K, V], key K) int {
	lo, hi := 0, len(n.seps)
	for lo < hi {
		mid := (lo + hi) / 2
		if key < n.seps[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// leafSearch returns the index of the first key >= target in a leaf's
// key slice, and whether that key equals target exactly.
func leafSearch[K Ordered, V any](n *node[K, V], target K) (idx int, exact bool) {
	lo, hi := 0, len(n.keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if n.keys[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < len(n.keys) && n.keys[lo] == target
}

func insertKeyAt[T any](s []T, idx int, v T) []T {
	s = append(s, v)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func removeAt[T any](s []T, idx int) []T {
	copy(s[idx:], s[idx+1:])
	return s[:len(s)-1]
}

func prependKey[T any](s []T, v T) []T {
	return insertKeyAt(s, 0, v)
}

func prependChild[K Ordered, V any](s []*node[K, V], v *node[K, V]) []*node[K, V] {
	return insertKeyAt(s, 0, v)
}
