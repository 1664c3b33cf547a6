// Package diag is an optional HTTP mirror of the running RobotStatus
// (SPEC_FULL.md's "Diagnostics HTTP mirror" supplemented feature): a
// snapshot route plus a live push feed, for an operator's browser
// alongside the MQTT transport a robot-side client actually uses.
// Grounded on http_server/http_server.go for the go-chi/chi router and
// graceful-shutdown shape, and http_server/http_events/*.go for the
// per-client subscribe/push pattern — narrowed from that package's
// full robot CRUD + SSE fan-out down to one status snapshot and one
// websocket feed fed by eventbus instead of a bespoke SafeQueue.
package diag

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rimoserver/eventbus"
	"rimoserver/logx"
	"rimoserver/types"
)

// StatusSource returns the most recently published RobotStatus. Machine
// satisfies this with a method returning its own robotStatus pointer;
// callers must treat the result as read-only.
type StatusSource func() *types.RobotStatus

// Server serves a status snapshot and a websocket push feed over HTTP.
// It never blocks Machine's control loop: StatusSource is a plain
// getter, and the push feed is driven entirely by eventbus.
type Server struct {
	addr   string
	status StatusSource
	bus    eventbus.Bus

	router *chi.Mux
	srv    *http.Server
	log    *logx.Logger
}

// New builds a Server listening on addr ("host:port"), serving
// snapshots from status and pushing events observed on bus.
func New(addr string, status StatusSource, bus eventbus.Bus) *Server {
	s := &Server{
		addr:   addr,
		status: status,
		bus:    bus,
		router: chi.NewRouter(),
		log:    logx.New("transport.diag"),
	}
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/status/ws", s.handleWS)
	return s
}

// Run starts the server and blocks until ctx is cancelled, at which
// point it shuts down gracefully and returns.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.router}

	serverErr := make(chan error, 1)
	go func() {
		s.log.Info("diagnostics HTTP server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("diagnostics HTTP server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down diagnostics HTTP server")
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status()); err != nil {
		s.log.Error(err, "encoding status snapshot")
	}
}
