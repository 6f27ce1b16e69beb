// Package kvstore implements the durable key/value service core: a
// B+ tree index backed by a write-ahead log, recovered by replay at
// startup. Per SPEC_FULL.md §3's KV container resolution, the tree
// itself is the map — there is no separate in-memory map shadowing it.
package kvstore

import (
	"fmt"
	"sync"

	"github.com/duraq/duraq/internal/bptree"
	"github.com/duraq/duraq/internal/wal"
)

// Store is a durable ordered map from string keys to int64 values.
type Store struct {
	mu   sync.Mutex
	wal  *wal.WAL
	tree *bptree.Tree[string, int64]
}

// Open opens the WAL at the given paths and replays it into a fresh
// B+ tree of the given degree. Recovery completes before Open returns.
func Open(walPath, metaPath string, degree int) (*Store, error) {
	w, err := wal.Open(walPath, metaPath)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open wal: %w", err)
	}

	s := &Store{wal: w, tree: bptree.New[string, int64](degree)}
	if err := s.recover(); err != nil {
		w.Close()
		return nil, fmt.Errorf("kvstore: recover: %w", err)
	}
	return s, nil
}

func (s *Store) recover() error {
	n := s.wal.Count()
	for i := uint64(0); i < n; i++ {
		rec, err := s.wal.Read(i)
		if err != nil {
			return err
		}
		op, key, value, ok := decodeRecord(rec)
		if !ok {
			return fmt.Errorf("kvstore: malformed record at index %d", i)
		}
		switch op {
		case opSet:
			s.tree.Insert(key, value)
		case opDelete:
			s.tree.Delete(key)
		}
	}
	return nil
}

// Set journals the write, then inserts or overwrites key in the tree.
// Duplicate-key insert is resolved as overwrite (SPEC_FULL.md §4.2).
func (s *Store) Set(key string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wal.Append(encodeSet(key, value)); err != nil {
		return fmt.Errorf("kvstore: set: %w", err)
	}
	s.tree.Insert(key, value)
	return nil
}

// Get returns the value stored for key, if present. It takes only the
// in-memory lock and never touches the WAL, per spec.md §5.
func (s *Store) Get(key string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Get(key)
}

// Delete removes key from the tree, journaling the deletion first. It
// reports whether the key was present. Per spec.md §4.3, WAL discipline
// matches Set only "when mutation is observed": a delete of an absent
// key journals nothing, so recovery never replays a no-op.
func (s *Store) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tree.Get(key); !ok {
		return false, nil
	}

	if err := s.wal.Append(encodeDelete(key)); err != nil {
		return false, fmt.Errorf("kvstore: delete: %w", err)
	}
	s.tree.Delete(key)
	return true, nil
}

// Range returns every live pair with start <= key < end, in ascending
// order, via the tree's leaf-sibling cursor.
func (s *Store) Range(start, end string) []bptree.Pair[string, int64] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Range(start, end)
}

// Close closes the underlying WAL.
func (s *Store) Close() error {
	return s.wal.Close()
}
