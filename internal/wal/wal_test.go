package wal

import (
	"os"
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

func TestWAL_OpenAndClose(t *testing.T) {
	walPath, metaPath := paths(t)

	w, err := Open(walPath, metaPath)
	require.NoError(t, err)
	require.NotNil(t, w)

	require.NoError(t, w.Close())

	_, err = os.Stat(walPath)
	assert.NoError(t, err)
}

// TestWAL_RoundTrip covers spec property 1: read(i) returns r_i for every
// appended record, in order.
func TestWAL_RoundTrip(t *testing.T) {
	walPath, metaPath := paths(t)

	w, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer w.Close()

	records := [][]byte{
		[]byte("first entry"),
		[]byte("second entry"),
		[]byte(""),
		[]byte("fourth entry with more bytes in it"),
	}

	for _, rec := range records {
		require.NoError(t, w.Append(rec))
	}

	require.Equal(t, uint64(len(records)), w.Count())
	for i, want := range records {
		got, err := w.Read(uint64(i))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

// TestWAL_TwoRecords is scenario S3 from spec.md §8.
func TestWAL_TwoRecords(t *testing.T) {
	walPath, metaPath := paths(t)

	w, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append([]byte("first entry")))
	require.NoError(t, w.Append([]byte("second entry")))

	assert.Equal(t, uint64(2), w.Count())

	first, err := w.Read(0)
	require.NoError(t, err)
	assert.Equal(t, "first entry", string(first))

	second, err := w.Read(1)
	require.NoError(t, err)
	assert.Equal(t, "second entry", string(second))

	wantOffset := uint64((headerSize + len("first entry")) + (headerSize + len("second entry")))
	assert.Equal(t, wantOffset, w.offset)
}

// TestWAL_Recovery is scenario S4: reopening against the same two files
// restores count and payloads without a fresh process ever rescanning.
func TestWAL_Recovery(t *testing.T) {
	walPath, metaPath := paths(t)

	w, err := Open(walPath, metaPath)
	require.NoError(t, err)
	require.NoError(t, w.Append([]byte("first entry")))
	require.NoError(t, w.Append([]byte("second entry")))
	require.NoError(t, w.Close())

	w2, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer w2.Close()

	assert.Equal(t, uint64(2), w2.Count())

	got0, err := w2.Read(0)
	require.NoError(t, err)
	assert.Equal(t, "first entry", string(got0))

	got1, err := w2.Read(1)
	require.NoError(t, err)
	assert.Equal(t, "second entry", string(got1))
}

func TestWAL_ReadOutOfRange(t *testing.T) {
	walPath, metaPath := paths(t)

	w, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append([]byte("only record")))

	_, err = w.Read(1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

// TestWAL_CorruptionDetection covers spec property 3: flipping a payload
// bit is detected as Corruption.
func TestWAL_CorruptionDetection(t *testing.T) {
	walPath, metaPath := paths(t)

	w, err := Open(walPath, metaPath)
	require.NoError(t, err)
	require.NoError(t, w.Append([]byte("intact payload")))
	require.NoError(t, w.Close())

	f, err := os.OpenFile(walPath, os.O_RDWR, 0o644)
	require.NoError(t, err)
	// Flip one bit inside the payload region, just past the header.
	buf := make([]byte, 1)
	_, err = f.ReadAt(buf, headerSize)
	require.NoError(t, err)
	buf[0] ^= 0x01
	_, err = f.WriteAt(buf, headerSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w2, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer w2.Close()

	_, err = w2.Read(0)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestWAL_TruncatePrefixNotImplemented(t *testing.T) {
	walPath, metaPath := paths(t)

	w, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer w.Close()

	err = w.TruncatePrefix(0)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestWAL_AppendBatch(t *testing.T) {
	walPath, metaPath := paths(t)

	w, err := Open(walPath, metaPath)
	require.NoError(t, err)
	defer w.Close()

	batch := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}
	require.NoError(t, w.AppendBatch(batch))

	assert.Equal(t, uint64(3), w.Count())
	for i, want := range batch {
		got, err := w.Read(uint64(i))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
