package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duraq/duraq/internal/metrics"
)

// AdminServer exposes /healthz and /metrics only. It never touches the
// WAL or state locks directly, matching spec.md §5's ownership rule
// that only the WAL component opens its files and only the service
// component mutates the in-memory container.
type AdminServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewAdminServer builds the HTTP admin server, routed with gorilla/mux
// the way cc-backend routes its own HTTP surface.
func NewAdminServer(addr string, m *metrics.Registry, logger *slog.Logger) *AdminServer {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(m.Registerer(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return &AdminServer{
		server: &http.Server{Addr: addr, Handler: r},
		logger: logger,
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Start runs the admin HTTP server until ctx is cancelled.
func (a *AdminServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		a.server.Shutdown(context.Background())
	}()

	a.logger.Info("admin server listening", "addr", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts the admin server down.
func (a *AdminServer) Close() error {
	return a.server.Shutdown(context.Background())
}
