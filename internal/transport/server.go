package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/duraq/duraq/internal/admission"
	"github.com/duraq/duraq/internal/config"
	"github.com/duraq/duraq/internal/kvstore"
	"github.com/duraq/duraq/internal/metrics"
	"github.com/duraq/duraq/internal/queue"
)

// errReplicateUnimplemented backs the REPLICATE command, standing in
// for spec.md §6's declared-but-unimplemented Queue.ReplicateData.
var errReplicateUnimplemented = errors.New("not implemented")

// Server is the line-oriented TCP front end for the queue/KV core. It
// calls the admission gate before touching the WAL or state lock, per
// spec.md §5's pre-lock cancellation policy.
type Server struct {
	addr string
	mode config.Mode

	q  *queue.Queue
	kv *kvstore.Store

	gate    *admission.Gate
	metrics *metrics.Registry
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	wg       sync.WaitGroup
}

// New builds a Server for either mode. Exactly one of q/kv is used,
// selected by mode.
func New(addr string, mode config.Mode, q *queue.Queue, kv *kvstore.Store, gate *admission.Gate, m *metrics.Registry, logger *slog.Logger) *Server {
	return &Server{addr: addr, mode: mode, q: q, kv: kv, gate: gate, metrics: m, logger: logger}
}

// Start listens and serves until ctx is cancelled or Close is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("transport: listen: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("transport listening", "addr", s.addr, "mode", s.mode)

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

// Close stops accepting new connections and waits for in-flight ones
// to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listener := s.listener
	s.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := s.gate.Allow(); err != nil {
			s.metrics.Rejected.Inc()
			fmt.Fprintln(conn, replyErr(err))
			continue
		}

		for _, reply := range s.dispatch(line) {
			if _, err := fmt.Fprintln(conn, reply); err != nil {
				return
			}
		}
	}
}

// dispatch executes one request line and returns the reply lines to
// write back, in order.
func (s *Server) dispatch(line string) []string {
	cmd, err := parseLine(line)
	if err != nil {
		return []string{replyErr(err)}
	}

	switch cmd.verb {
	case "ENQUEUE", "DEQUEUE", "SIZE":
		if s.mode != config.ModeQueue {
			return []string{replyErr(fmt.Errorf("%s: server is running in %s mode", cmd.verb, s.mode))}
		}
	case "SET", "GET", "DEL":
		if s.mode != config.ModeKV {
			return []string{replyErr(fmt.Errorf("%s: server is running in %s mode", cmd.verb, s.mode))}
		}
	}

	switch cmd.verb {
	case "ENQUEUE":
		return s.doEnqueue(cmd.args)
	case "DEQUEUE":
		return s.doDequeue(cmd.args)
	case "SIZE":
		return s.doSize()
	case "SET":
		return s.doSet(cmd.args)
	case "GET":
		return s.doGet(cmd.args)
	case "DEL":
		return s.doDel(cmd.args)
	case "REPLICATE":
		return []string{replyErr(errReplicateUnimplemented)}
	default:
		return []string{replyErr(fmt.Errorf("unknown command %q", cmd.verb))}
	}
}

func (s *Server) doEnqueue(args []string) []string {
	if len(args) != 1 {
		return []string{replyErr(errMalformedLine)}
	}
	payload, err := decodePayload(args[0])
	if err != nil {
		return []string{replyErr(err)}
	}
	id, err := s.q.Enqueue(payload)
	if err != nil {
		s.logger.Error("enqueue failed", "error", err)
		return []string{replyErr(err)}
	}
	s.metrics.Completed.WithLabelValues("enqueue").Inc()
	s.metrics.QueueSize.Set(float64(s.q.Size()))
	return []string{replyOK(id)}
}

func (s *Server) doDequeue(args []string) []string {
	if len(args) != 1 {
		return []string{replyErr(errMalformedLine)}
	}
	n, err := parseInt(args[0])
	if err != nil {
		return []string{replyErr(err)}
	}
	entries, err := s.q.Dequeue(n)
	if err != nil {
		s.logger.Error("dequeue failed", "error", err)
		return []string{replyErr(err)}
	}
	s.metrics.Completed.WithLabelValues("dequeue").Inc()
	s.metrics.QueueSize.Set(float64(s.q.Size()))

	out := make([]string, 0, len(entries)+1)
	out = append(out, replyOK(fmt.Sprint(len(entries))))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s %s", e.ID, encodePayload(e.Payload)))
	}
	return out
}

func (s *Server) doSize() []string {
	return []string{replyOK(fmt.Sprint(s.q.Size()))}
}

func (s *Server) doSet(args []string) []string {
	if len(args) != 2 {
		return []string{replyErr(errMalformedLine)}
	}
	value, err := parseInt64(args[1])
	if err != nil {
		return []string{replyErr(err)}
	}
	if err := s.kv.Set(args[0], value); err != nil {
		s.logger.Error("set failed", "error", err)
		return []string{replyErr(err)}
	}
	s.metrics.Completed.WithLabelValues("set").Inc()
	return []string{replyOK()}
}

func (s *Server) doGet(args []string) []string {
	if len(args) != 1 {
		return []string{replyErr(errMalformedLine)}
	}
	v, ok := s.kv.Get(args[0])
	if !ok {
		return []string{"NOTFOUND"}
	}
	s.metrics.Completed.WithLabelValues("get").Inc()
	return []string{replyOK(fmt.Sprint(v))}
}

func (s *Server) doDel(args []string) []string {
	if len(args) != 1 {
		return []string{replyErr(errMalformedLine)}
	}
	wasPresent, err := s.kv.Delete(args[0])
	if err != nil {
		s.logger.Error("delete failed", "error", err)
		return []string{replyErr(err)}
	}
	s.metrics.Completed.WithLabelValues("delete").Inc()
	if wasPresent {
		return []string{replyOK("1")}
	}
	return []string{replyOK("0")}
}
