// Package queue implements the durable FIFO message queue core: an
// ordered in-memory sequence of opaque messages backed by a
// write-ahead log, recovered by replay at startup.
package queue

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/duraq/duraq/internal/wal"
)

// Entry is one queued message: a server-generated id paired with its
// opaque payload.
type Entry struct {
	ID      string
	Payload []byte
}

// Queue composes a WAL with an ordered in-memory sequence. Every
// mutation is journaled before the in-memory sequence changes, per
// SPEC_FULL.md §4.3; dequeue journals an OpDequeue record carrying the
// count actually popped, closing the durability gap named in spec.md §9.
type Queue struct {
	mu       sync.Mutex
	wal      *wal.WAL
	sequence []Entry
}

// Open opens the WAL at the given paths and replays it to rebuild the
// in-memory sequence. Recovery completes before Open returns.
func Open(walPath, metaPath string) (*Queue, error) {
	w, err := wal.Open(walPath, metaPath)
	if err != nil {
		return nil, fmt.Errorf("queue: open wal: %w", err)
	}

	q := &Queue{wal: w}
	if err := q.recover(); err != nil {
		w.Close()
		return nil, fmt.Errorf("queue: recover: %w", err)
	}
	return q, nil
}

// recover replays every WAL record from index 0 in order, rebuilding
// the in-memory sequence exactly as spec.md §4.3's startup recovery
// describes.
func (q *Queue) recover() error {
	n := q.wal.Count()
	for i := uint64(0); i < n; i++ {
		rec, err := q.wal.Read(i)
		if err != nil {
			return err
		}
		op, id, payload, count, ok := decodeRecord(rec)
		if !ok {
			return fmt.Errorf("queue: malformed record at index %d", i)
		}
		switch op {
		case opEnqueue:
			q.sequence = append(q.sequence, Entry{ID: id, Payload: payload})
		case opDequeue:
			if count > len(q.sequence) {
				count = len(q.sequence)
			}
			q.sequence = q.sequence[count:]
		}
	}
	return nil
}

// Enqueue allocates a fresh message id, journals the enqueue, then
// appends the entry to the tail of the sequence.
func (q *Queue) Enqueue(payload []byte) (string, error) {
	id := uuid.NewString()

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.wal.Append(encodeEnqueue(id, payload)); err != nil {
		return "", fmt.Errorf("queue: enqueue: %w", err)
	}
	q.sequence = append(q.sequence, Entry{ID: id, Payload: payload})
	return id, nil
}

// Dequeue pops up to n entries from the head of the sequence, in
// order, returning what was actually popped. The count popped is
// journaled before the sequence is mutated.
func (q *Queue) Dequeue(n int) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.sequence) {
		n = len(q.sequence)
	}
	if n <= 0 {
		return nil, nil
	}

	if err := q.wal.Append(encodeDequeue(n)); err != nil {
		return nil, fmt.Errorf("queue: dequeue: %w", err)
	}

	popped := append([]Entry(nil), q.sequence[:n]...)
	q.sequence = q.sequence[n:]
	return popped, nil
}

// Size returns the current sequence length.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.sequence)
}

// Close closes the underlying WAL.
func (q *Queue) Close() error {
	return q.wal.Close()
}
