package queue

import "encoding/binary"

// Record op codes. Each WAL record for a queue is one byte of op code
// followed by an op-specific body, all in the host's native byte order
// to match the WAL's own encoding (see SPEC_FULL.md §4.1).
const (
	opEnqueue byte = 1
	opDequeue byte = 2
)

// encodeEnqueue lays out an OpEnqueue record: [op][id_len][id][payload].
func encodeEnqueue(id string, payload []byte) []byte {
	idBytes := []byte(id)
	buf := make([]byte, 1+8+len(idBytes)+len(payload))
	buf[0] = opEnqueue
	binary.NativeEndian.PutUint64(buf[1:9], uint64(len(idBytes)))
	n := copy(buf[9:], idBytes)
	copy(buf[9+n:], payload)
	return buf
}

// encodeDequeue lays out an OpDequeue record: [op][count]. count is the
// number of entries actually popped, per the dequeue-durability
// resolution in SPEC_FULL.md §4.3.
func encodeDequeue(count int) []byte {
	buf := make([]byte, 1+8)
	buf[0] = opDequeue
	binary.NativeEndian.PutUint64(buf[1:9], uint64(count))
	return buf
}

// decodeRecord parses one journaled record back into an op.
func decodeRecord(rec []byte) (op byte, id string, payload []byte, count int, ok bool) {
	if len(rec) < 1 {
		return 0, "", nil, 0, false
	}
	op = rec[0]
	switch op {
	case opEnqueue:
		if len(rec) < 9 {
			return 0, "", nil, 0, false
		}
		idLen := binary.NativeEndian.Uint64(rec[1:9])
		if uint64(len(rec)-9) < idLen {
			return 0, "", nil, 0, false
		}
		id = string(rec[9 : 9+idLen])
		payload = rec[9+idLen:]
		return op, id, payload, 0, true
	case opDequeue:
		if len(rec) < 9 {
			return 0, "", nil, 0, false
		}
		count = int(binary.NativeEndian.Uint64(rec[1:9]))
		return op, "", nil, count, true
	default:
		return 0, "", nil, 0, false
	}
}
