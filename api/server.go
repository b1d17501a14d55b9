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
	"github.com/rs/cors"

	"ai-market-coach/coach"
	models "ai-market-coach/database/models_pkg"
	"ai-market-coach/logging"
)

// ServiceName is reported by the root endpoint
const ServiceName = "ai-market-coach"

// CoachService is the analysis pipeline the handlers call
type CoachService interface {
	Analyze(ctx context.Context, req coach.Request) (*coach.Result, error)
	Chart(ctx context.Context, req coach.Request) ([]byte, error)
	Session(ctx context.Context, id string) (*models.Session, error)
	Sessions(ctx context.Context, opts models.ListOptions) ([]models.Session, error)
	Ping(ctx context.Context) error
	ProviderName() string
}

// Server handles HTTP API requests
type Server struct {
	svc            CoachService
	events         http.Handler
	ws             http.Handler
	allowedOrigins []string
	version        string
	logger         *logging.Logger
	httpServer     *http.Server
}

// Option configures the server
type Option func(*Server)

// WithEventStreams mounts the SSE and WebSocket handlers
func WithEventStreams(sse, ws http.Handler) Option {
	return func(s *Server) {
		s.events = sse
		s.ws = ws
	}
}

// WithAllowedOrigins sets the CORS allow list; "*" allows any origin
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithVersion sets the version reported by the root endpoint
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a new API server instance
func NewServer(svc CoachService, logger *logging.Logger, opts ...Option) *Server {
	s := &Server{
		svc:            svc,
		allowedOrigins: []string{"*"},
		version:        "dev",
		logger:         logger.Component("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the routed, CORS-wrapped handler
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	router.HandleFunc("/api/analyze", s.handleAnalyze).Methods(http.MethodPost)
	router.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)

	router.HandleFunc("/api/sessions", s.handleListSessions).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	router.HandleFunc("/api/chart", s.handleChart).Methods(http.MethodGet)

	if s.events != nil {
		router.Handle("/api/events", s.events).Methods(http.MethodGet)
	}
	if s.ws != nil {
		router.Handle("/api/ws", s.ws).Methods(http.MethodGet)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "not_found", "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "validation", "method not allowed")
	})

	router.Use(s.requestIDMiddleware, s.loggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
	})
	return c.Handler(router)
}

// Start serves on port until Shutdown is called
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("API server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// Middleware
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		id, _ := r.Context().Value(requestIDKey).(string)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("request_id", id).
			Msg("request")
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the WebSocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap exposes the underlying writer to http.ResponseController
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
