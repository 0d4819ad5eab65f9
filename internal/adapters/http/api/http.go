// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/wordstat-proxy/internal/domain/types"
	"github.com/okian/wordstat-proxy/pkg/logger"
)

// Dispatcher routes a decoded query to an upstream adapter.
type Dispatcher interface {
	Dispatch(ctx context.Context, req types.Request) (types.Envelope, error)
}

// Decoder validates and decodes a raw request body.
type Decoder interface {
	Decode(body []byte) (types.Request, error)
}

// Server wires HTTP routes for the proxy.
type Server struct {
	healthHandler   *HealthHandler
	dispatchHandler *DispatchHandler
	logger          logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(dispatcher Dispatcher, decoder Decoder, opts ...DispatchOption) *Server {
	l := logger.Get().Named("api")
	return &Server{
		healthHandler:   NewHealthHandler(),
		dispatchHandler: NewDispatchHandler(dispatcher, decoder, append([]DispatchOption{WithDispatchLogger(l)}, opts...)...),
		logger:          l,
	}
}

// Router builds a chi router with the proxy's middleware and routes.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(RecoverMiddleware(s.logger))
	s.Register(ctx, r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Post("/", MetricsMiddleware(s.dispatchHandler.ServeHTTP, "dispatch"))
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
}

type healthResponse struct {
	Status string `json:"status"`
}

// writeJSON encodes v without escaping non-ASCII or HTML characters.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"status":"error","message":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError writes a 4xx/5xx error envelope.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	writeJSON(w, status, types.Failure(msg))
}

// opOf returns the operation recorded on an *Error, if any.
func opOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
