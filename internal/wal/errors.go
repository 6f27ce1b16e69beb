package wal

import "errors"

var (
	// ErrOutOfRange is returned by Read when the requested index is at or
	// beyond Count().
	ErrOutOfRange = errors.New("wal: index out of range")

	// ErrCorruption is returned by Read when the stored checksum does not
	// match the recomputed checksum for a record's payload.
	ErrCorruption = errors.New("wal: checksum mismatch")

	// ErrNotImplemented is returned by TruncatePrefix. Reclaiming the WAL
	// tail is declared in the on-disk contract but has no implementation
	// yet; callers must not depend on it succeeding.
	ErrNotImplemented = errors.New("wal: truncate_prefix not implemented")
)
