// Package wal provides a crash-safe, append-only write-ahead log.
//
// Records are opaque, length-prefixed, checksum-guarded byte payloads
// (see record.go for the on-disk layout). The log persists its own
// offset/count sidecar so a fresh process can restore the logical end of
// the log without rescanning every payload on restart.
package wal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// WAL is a single-writer, append-only byte log backed by two files: the
// payload file (opened append-only for writes, reopened read-only for
// random access) and a metadata sidecar rewritten in full on every flush.
//
// All exported methods are safe for concurrent use; every access to the
// in-memory offset/count state and every write to either file happens
// under mu, matching the single-exclusive-lock-per-component model the
// rest of this repository uses.
type WAL struct {
	mu sync.Mutex

	walPath  string
	metaPath string

	file *os.File // append-mode handle; only ever written to

	offset uint64 // byte length of the WAL file as of the last flush
	count  uint64 // number of records ever appended and not truncated
}

// Open opens or creates the WAL at walPath, with its metadata sidecar at
// metaPath. If metaPath holds two machine words, offset and count are
// restored from them; otherwise both start at zero. The payload file is
// never rescanned: restart-time bookkeeping depends entirely on the
// sidecar being written durably by the last flush before the previous
// process exited.
func Open(walPath, metaPath string) (*WAL, error) {
	file, err := os.OpenFile(walPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", walPath, err)
	}

	offset, count, err := readMeta(metaPath)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("wal: read metadata %s: %w", metaPath, err)
	}

	return &WAL{
		walPath:  walPath,
		metaPath: metaPath,
		file:     file,
		offset:   offset,
		count:    count,
	}, nil
}

func readMeta(metaPath string) (offset, count uint64, err error) {
	buf, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	offset, count, ok := decodeMeta(buf)
	if !ok {
		return 0, 0, nil
	}
	return offset, count, nil
}

// Append writes one record. It returns after the record and the updated
// metadata sidecar are both durable: append is never reordered ahead of
// the caller observing success.
func (w *WAL) Append(payload []byte) error {
	return w.AppendBatch([][]byte{payload})
}

// AppendBatch writes multiple records as a single flush. This is the
// permitted batching enhancement from the WAL section of spec.md: the
// durability guarantee still holds at the point AppendBatch returns, it
// simply amortizes one flush across many records instead of one.
func (w *WAL) AppendBatch(payloads [][]byte) error {
	if len(payloads) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var buf bytes.Buffer
	for _, p := range payloads {
		buf.Write(encodeRecord(p))
	}

	if _, err := w.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("wal: write: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("wal: sync: %w", err)
	}

	w.offset += uint64(buf.Len())
	w.count += uint64(len(payloads))

	if err := w.flushMeta(); err != nil {
		return err
	}
	return nil
}

// flushMeta rewrites the metadata sidecar in full and forces it to disk.
// Caller must hold mu.
func (w *WAL) flushMeta() error {
	metaFile, err := os.OpenFile(w.metaPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("wal: open metadata: %w", err)
	}
	defer metaFile.Close()

	if _, err := metaFile.Write(encodeMeta(w.offset, w.count)); err != nil {
		return fmt.Errorf("wal: write metadata: %w", err)
	}
	if err := metaFile.Sync(); err != nil {
		return fmt.Errorf("wal: sync metadata: %w", err)
	}
	return nil
}

// Count returns the number of records currently in the log.
func (w *WAL) Count() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Read returns the payload of the record at zero-based position index.
//
// It clones the file handle (opens a fresh read-only descriptor against
// the same path) and walks the log from the start, which keeps random
// access linear in index but independent of the append-mode write
// handle's offset.
func (w *WAL) Read(index uint64) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index >= w.count {
		return nil, ErrOutOfRange
	}

	reader, err := os.Open(w.walPath)
	if err != nil {
		return nil, fmt.Errorf("wal: open for read: %w", err)
	}
	defer reader.Close()

	header := make([]byte, headerSize)
	for i := uint64(0); i <= index; i++ {
		if _, err := io.ReadFull(reader, header); err != nil {
			return nil, ErrCorruption
		}
		payloadLen, wantChecksum := decodeHeader(header)

		if i < index {
			if _, err := reader.Seek(int64(payloadLen), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("wal: seek: %w", err)
			}
			continue
		}

		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return nil, ErrCorruption
		}
		if checksum(payload) != wantChecksum {
			return nil, ErrCorruption
		}
		return payload, nil
	}

	// Unreachable: the loop always returns on i == index.
	return nil, ErrOutOfRange
}

// TruncatePrefix is declared by the WAL contract but not implemented.
// Reclaiming WAL space below byteOffset requires rewriting live records
// forward of the cut point and is left as a documented placeholder.
func (w *WAL) TruncatePrefix(byteOffset uint64) error {
	return ErrNotImplemented
}

// Close flushes and closes the payload file handle. It does not remove
// any on-disk state.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("wal: sync on close: %w", err)
	}
	return w.file.Close()
}
