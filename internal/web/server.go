// Package web provides an HTTP status server for the drive-timer daemon.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/drive-timer/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	logger     zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts a Prometheus handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.httpServer.Handler.(*http.ServeMux).Handle("/metrics", h)
	}
}

// WithLogger sets the logger used for request errors.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger.With().Str("component", "web").Logger()
	}
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker, opts ...Option) *Server {
	s := &Server{tracker: tracker, logger: zerolog.Nop()}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves in the background on ln, or on the configured address when
// ln is nil. Errors other than a clean shutdown are logged.
func (s *Server) Start(ln net.Listener) {
	go func() {
		var err error
		if ln != nil {
			s.logger.Info().Str("addr", ln.Addr().String()).Msg("serving on activated socket")
			err = s.httpServer.Serve(ln)
		} else {
			s.logger.Info().Str("addr", s.httpServer.Addr).Msg("listening")
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("server stopped")
		}
	}()
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		s.logger.Warn().Err(err).Msg("render index")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(status.FormatJSON(snap)); err != nil {
		s.logger.Debug().Err(err).Msg("write index.json")
	}
}
