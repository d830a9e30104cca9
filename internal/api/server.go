// Package api exposes the credit score engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"credit-risk-engine/internal/domain"
	"credit-risk-engine/internal/engine"
	"credit-risk-engine/internal/observability"
)

// DefaultRequestTimeout bounds a whole request, including the engine's retry.
const DefaultRequestTimeout = 30 * time.Second

// ScoreService is the engine surface the API depends on.
type ScoreService interface {
	Read(ctx context.Context, borrowerID string, recalculate bool) (*engine.ReadResult, error)
	Submit(ctx context.Context, borrowerID string, sub engine.Submission) (*domain.ScoreRecord, error)
	History(ctx context.Context, borrowerID string, limit int) ([]*domain.ScoreRecord, error)
}

// Server routes HTTP requests to the score service.
type Server struct {
	scores         ScoreService
	auth           *Authenticator
	logger         zerolog.Logger
	requestTimeout time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new Server.
func NewServer(scores ScoreService, auth *Authenticator, opts ...ServerOption) *Server {
	s := &Server{
		scores:         scores,
		auth:           auth,
		logger:         zerolog.Nop(),
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", observability.Handler())

	r.Route("/v1/credit-score", func(r chi.Router) {
		r.Use(middleware.Timeout(s.requestTimeout))
		r.Use(s.auth.Middleware)

		r.Get("/", s.handleRead)
		r.Post("/", s.handleSubmit)
		r.Get("/history", s.handleHistory)
	})

	return r
}

// instrument counts requests by route pattern and status, and logs them.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		observability.RecordHTTPRequest(route, status)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
