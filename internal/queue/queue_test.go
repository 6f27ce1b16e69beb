package queue

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(t *testing.T) (walPath, metaPath string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "wal.bin"), filepath.Join(dir, "wal.meta")
}

// TestEnqueueSizeDequeue is scenario S5 from spec.md §8.
func TestEnqueueSizeDequeue(t *testing.T) {
	walPath, metaPath := paths(t)

	q, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer q.Close()

	_, err = q.Enqueue([]byte("a"))
	require.NoError(t, err)
	_, err = q.Enqueue([]byte("b"))
	require.NoError(t, err)

	assert.Equal(t, 2, q.Size())

	popped, err := q.Dequeue(1)
	require.NoError(t, err)
	require.Len(t, popped, 1)
	assert.Equal(t, "a", string(popped[0].Payload))
	assert.Equal(t, 1, q.Size())
}

func TestEnqueueAssignsUniqueIDs(t *testing.T) {
	walPath, metaPath := paths(t)

	q, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer q.Close()

	id1, err := q.Enqueue([]byte("x"))
	require.NoError(t, err)
	id2, err := q.Enqueue([]byte("y"))
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEmpty(t, id2)
	assert.NotEqual(t, id1, id2)
}

func TestDequeueMoreThanAvailable(t *testing.T) {
	walPath, metaPath := paths(t)

	q, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer q.Close()

	_, err = q.Enqueue([]byte("only"))
	require.NoError(t, err)

	popped, err := q.Dequeue(5)
	require.NoError(t, err)
	assert.Len(t, popped, 1)
	assert.Equal(t, 0, q.Size())
}

func TestDequeueOnEmptyQueueIsNoop(t *testing.T) {
	walPath, metaPath := paths(t)

	q, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer q.Close()

	popped, err := q.Dequeue(3)
	require.NoError(t, err)
	assert.Nil(t, popped)
}

// TestRecoveryReplaysEnqueuesAndDequeues covers testable property 8
// (recovery equivalence): a fresh Queue opened against the same WAL
// files reconstructs the exact sequence left by the prior process,
// including the effect of dequeues journaled via OpDequeue.
func TestRecoveryReplaysEnqueuesAndDequeues(t *testing.T) {
	walPath, metaPath := paths(t)

	q, err := Open(walPath, metaPath)
	require.NoError(t, err)
	_, err = q.Enqueue([]byte("a"))
	require.NoError(t, err)
	_, err = q.Enqueue([]byte("b"))
	require.NoError(t, err)
	_, err = q.Enqueue([]byte("c"))
	require.NoError(t, err)
	_, err = q.Dequeue(1)
	require.NoError(t, err)
	require.NoError(t, q.Close())

	q2, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer q2.Close()

	assert.Equal(t, 2, q2.Size())
	popped, err := q2.Dequeue(2)
	require.NoError(t, err)
	require.Len(t, popped, 2)
	assert.Equal(t, "b", string(popped[0].Payload))
	assert.Equal(t, "c", string(popped[1].Payload))
}

func TestFIFOOrderPreservedAcrossInterleaving(t *testing.T) {
	walPath, metaPath := paths(t)

	q, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer q.Close()

	for _, p := range []string{"1", "2", "3"} {
		_, err := q.Enqueue([]byte(p))
		require.NoError(t, err)
	}

	first, err := q.Dequeue(2)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), first[0].Payload)
	assert.Equal(t, []byte("2"), first[1].Payload)

	_, err = q.Enqueue([]byte("4"))
	require.NoError(t, err)

	rest, err := q.Dequeue(2)
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), rest[0].Payload)
	assert.Equal(t, []byte("4"), rest[1].Payload)
}
