package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// NewRouter routes the feed endpoints to hub
func NewRouter(hub *Hub) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/ws", hub).Methods(http.MethodGet)
	r.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(hub.Snapshot()); err != nil {
			logging.Debug("Failed to write snapshot", zap.Error(err))
		}
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, "OK clients=%d\n", hub.Clients())
	}).Methods(http.MethodGet)
	return r
}

// Server serves a hub over HTTP
type Server struct {
	Addr string

	hub      *Hub
	http     *http.Server
	listener net.Listener
}

// NewServer creates a server for hub on addr (host:port)
func NewServer(addr string, hub *Hub) *Server {
	return &Server{
		Addr: addr,
		hub:  hub,
		http: &http.Server{
			Handler:           NewRouter(hub),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Listen binds the address. Run calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}
	s.listener = l
	s.Addr = l.Addr().String()
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	logging.Info("Feed listening", zap.String("addr", s.Addr))

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.http.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("feed server failed: %w", err)
	}
}

// Shutdown disconnects clients and stops the listener
func (s *Server) Shutdown() error {
	logging.Info("Shutting down feed...")
	s.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		logging.Warn("Feed shutdown timeout, forcing close", zap.Error(err))
		return s.http.Close()
	}
	return nil
}
