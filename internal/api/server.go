// Package api serves the REST and WebSocket surface of the oracle.
package api

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"slotguard/internal/config"
	"slotguard/internal/events"
	"slotguard/internal/monitor"
	"slotguard/internal/verify"
)

// Verifier is the slice of the pipeline the handlers need.
type Verifier interface {
	Verify(ctx context.Context, signature string) (*verify.Result, error)
	VerifyBatch(ctx context.Context, signatures []string) []verify.Outcome
}

// HealthSource reports the monitor's current view of the network.
type HealthSource interface {
	Health() monitor.NetworkHealth
	Observations() map[string]monitor.SlotObservation
}

type requestIDKey struct{}

// Options wire the server's collaborators.
type Options struct {
	Config   config.APIConfig
	Verifier Verifier
	Health   HealthSource
	Hub      *events.Hub
	Metrics  http.Handler
	Network  string
}

// Server hosts the HTTP listener.
type Server struct {
	router *mux.Router
	server *http.Server
	opts   Options
	logger zerolog.Logger
}

// NewServer builds the router and the underlying http.Server.
func NewServer(opts Options, logger zerolog.Logger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		opts:   opts,
		logger: logger.With().Str("component", "api").Logger(),
	}
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", opts.Config.Host, opts.Config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  opts.Config.ReadTimeout,
		WriteTimeout: opts.Config.WriteTimeout,
		IdleTimeout:  opts.Config.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	// The WebSocket route stays outside the JSON subrouter; a hijacked
	// connection must not inherit the request timeout.
	s.router.HandleFunc("/ws/events", s.handleEvents).Methods(http.MethodGet)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.timeoutMiddleware)
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/verify", s.handleVerify).Methods(http.MethodPost)
	api.HandleFunc("/verify/batch", s.handleVerifyBatch).Methods(http.MethodPost)
	api.HandleFunc("/verify/{signature}", s.handleVerifySignature).Methods(http.MethodGet)
	if s.opts.Metrics != nil {
		s.router.Handle("/metrics", s.opts.Metrics).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		requestID, _ := r.Context().Value(requestIDKey{}).(string)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request handled")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	timeout := s.opts.Config.WriteTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start blocks serving requests until the listener fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting API server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down API server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack keeps the WebSocket upgrade working through the logging wrapper.
func (rw *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying writer does not support hijacking")
	}
	return hijacker.Hijack()
}
