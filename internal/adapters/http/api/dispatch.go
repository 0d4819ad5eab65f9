// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/wordstat-proxy/pkg/logger"
)

const defaultMaxBodyBytes = 1 << 20

// DispatchOption configures a DispatchHandler.
type DispatchOption func(*DispatchHandler)

// WithMaxBodyBytes caps the accepted body size. Zero disables the cap.
func WithMaxBodyBytes(n int64) DispatchOption {
	return func(h *DispatchHandler) {
		if n >= 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithDispatchLogger sets the handler logger.
func WithDispatchLogger(l logger.Logger) DispatchOption {
	return func(h *DispatchHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// DispatchHandler serves POST queries: decode, dispatch, write the envelope.
type DispatchHandler struct {
	dispatcher   Dispatcher
	decoder      Decoder
	maxBodyBytes int64
	logger       logger.Logger
}

// NewDispatchHandler creates a dispatch handler.
func NewDispatchHandler(dispatcher Dispatcher, decoder Decoder, opts ...DispatchOption) *DispatchHandler {
	h := &DispatchHandler{
		dispatcher:   dispatcher,
		decoder:      decoder,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("api")
	}
	return h
}

// ServeHTTP handles one query. The envelope returned by the dispatcher is
// written with 200; anything that prevents dispatching is written as a 400
// error envelope.
func (h *DispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "api.dispatch"
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil)
		return
	}

	body, err := h.readBody(r)
	if err != nil {
		h.badRequest(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	req, err := h.decoder.Decode(body)
	if err != nil {
		h.badRequest(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	env, err := h.dispatcher.Dispatch(ctx, req)
	if err != nil {
		h.badRequest(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *DispatchHandler) readBody(r *http.Request) ([]byte, error) {
	if r.ContentLength < 0 {
		return nil, errors.New("Content-Length header is required")
	}
	if h.maxBodyBytes > 0 && r.ContentLength > h.maxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", h.maxBodyBytes)
	}

	reader := io.Reader(r.Body)
	if h.maxBodyBytes > 0 {
		reader = io.LimitReader(r.Body, h.maxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

func (h *DispatchHandler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Info(r.Context(), "rejected request",
		logger.String("op", opOf(err)),
		logger.Error(err),
	)
	writeError(w, http.StatusBadRequest, err)
}
