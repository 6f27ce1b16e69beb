package transport

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duraq/duraq/internal/admission"
	"github.com/duraq/duraq/internal/config"
	"github.com/duraq/duraq/internal/kvstore"
	"github.com/duraq/duraq/internal/metrics"
	"github.com/duraq/duraq/internal/queue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newQueueServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	q, err := queue.Open(filepath.Join(dir, "wal.bin"), filepath.Join(dir, "wal.meta"))
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return New(":0", config.ModeQueue, q, nil, admission.New(0), metrics.New(), testLogger())
}

func newKVServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	s, err := kvstore.Open(filepath.Join(dir, "wal.bin"), filepath.Join(dir, "wal.meta"), 3)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(":0", config.ModeKV, nil, s, admission.New(0), metrics.New(), testLogger())
}

func TestDispatchEnqueueDequeueSize(t *testing.T) {
	srv := newQueueServer(t)

	replies := srv.dispatch("ENQUEUE " + encodePayload([]byte("hello")))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "OK ")

	sizeReplies := srv.dispatch("SIZE")
	assert.Equal(t, []string{"OK 1"}, sizeReplies)

	deqReplies := srv.dispatch("DEQUEUE 1")
	require.Len(t, deqReplies, 2)
	assert.Equal(t, "OK 1", deqReplies[0])
}

func TestDispatchSetGetDel(t *testing.T) {
	srv := newKVServer(t)

	assert.Equal(t, []string{"OK"}, srv.dispatch("SET k 7"))
	assert.Equal(t, []string{"OK 7"}, srv.dispatch("GET k"))
	assert.Equal(t, []string{"OK 1"}, srv.dispatch("DEL k"))
	assert.Equal(t, []string{"NOTFOUND"}, srv.dispatch("GET k"))
}

func TestDispatchReplicateIsUnimplemented(t *testing.T) {
	srv := newQueueServer(t)
	replies := srv.dispatch("REPLICATE")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "not implemented")
}

func TestDispatchRejectsWrongModeCommand(t *testing.T) {
	srv := newQueueServer(t)
	replies := srv.dispatch("SET k 1")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "queue mode")
}

func TestDispatchUnknownCommand(t *testing.T) {
	srv := newQueueServer(t)
	replies := srv.dispatch("NOPE")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "unknown command")
}
