package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/service/gateway"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Collector is the on-demand collection entry point.
type Collector interface {
	Collect(ctx context.Context, channels []string, hours int) ([]gateway.Post, error)
}

type Server struct {
	addr      string
	collector Collector
	log       pkg.Logger
	now       func() time.Time

	listener net.Listener
	server   *http.Server
}

func NewServer(addr string, collector Collector, log pkg.Logger) *Server {
	return &Server{addr: addr, collector: collector, log: log, now: time.Now}
}

// Handler returns the routed handler wrapped in logging and recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /collect", s.handleCollect)
	return s.logRequests(s.recoverPanics(mux))
}

// Run serves until ctx is cancelled, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.log.Info("HTTP server starting", "addr", s.listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("HTTP server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

type collectRequest struct {
	Channels []string `json:"channels"`
	Hours    int      `json:"hours"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	var req collectRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.log.Warn("Failed to parse collect request", "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Hours <= 0 {
		req.Hours = gateway.DefaultHours
	}

	posts, err := s.collector.Collect(r.Context(), req.Channels, req.Hours)
	if err != nil {
		s.log.Error("On-demand collection failed", "channels", req.Channels, "hours", req.Hours, "err", err)
		writeError(w, http.StatusInternalServerError, "collect failed")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
