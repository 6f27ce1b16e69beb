package wal

import "encoding/binary"

// headerSize is two machine words: payload_length then checksum, both in
// the host's native byte order. This is a documented portability hazard
// (see the WAL section of SPEC_FULL.md) inherited on purpose rather than
// fixed with a format-version byte.
const headerSize = 16

// encodeRecord lays out one WAL record: [payload_length][checksum][payload].
func encodeRecord(payload []byte) []byte {
	buf := make([]byte, headerSize+len(payload))
	binary.NativeEndian.PutUint64(buf[0:8], uint64(len(payload)))
	binary.NativeEndian.PutUint64(buf[8:16], checksum(payload))
	copy(buf[headerSize:], payload)
	return buf
}

// checksum is an XOR fold of the payload bytes into a single byte,
// zero-extended into a machine word. It catches accidental single-bit
// flips but is not cryptographically meaningful; CRC32C would need a
// format-version byte to introduce safely (see spec open question 3).
func checksum(payload []byte) uint64 {
	var sum byte
	for _, b := range payload {
		sum ^= b
	}
	return uint64(sum)
}

// decodeHeader splits a headerSize-byte header into its two fields.
func decodeHeader(header []byte) (payloadLen uint64, wantChecksum uint64) {
	payloadLen = binary.NativeEndian.Uint64(header[0:8])
	wantChecksum = binary.NativeEndian.Uint64(header[8:16])
	return
}

// encodeMeta lays out the metadata sidecar: [offset][count], native order.
func encodeMeta(offset, count uint64) []byte {
	buf := make([]byte, 16)
	binary.NativeEndian.PutUint64(buf[0:8], offset)
	binary.NativeEndian.PutUint64(buf[8:16], count)
	return buf
}

// decodeMeta parses the metadata sidecar. ok is false when buf isn't
// exactly two machine words, in which case the caller restores zeros.
func decodeMeta(buf []byte) (offset, count uint64, ok bool) {
	if len(buf) != 16 {
		return 0, 0, false
	}
	offset = binary.NativeEndian.Uint64(buf[0:8])
	count = binary.NativeEndian.Uint64(buf[8:16])
	return offset, count, true
}
