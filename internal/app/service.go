// Package service provides the request dispatcher that routes a query to
// the matching upstream adapter.
package service

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/okian/wordstat-proxy/internal/config"
	"github.com/okian/wordstat-proxy/internal/domain/types"
	"github.com/okian/wordstat-proxy/pkg/logger"
	"github.com/okian/wordstat-proxy/pkg/metrics"
)

// Upstream is implemented by the keyword statistics adapter.
type Upstream interface {
	TopRequests(ctx context.Context, token, phrase string, numPhrases json.RawMessage) types.Envelope
	Dynamics(ctx context.Context, token, phrase string) types.Envelope
}

// Service dispatches inbound queries. It holds no per-request state.
type Service struct {
	upstream Upstream

	tokenEnv          string
	lookupEnv         func(string) string
	defaultNumPhrases int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTokenEnv names the environment variable that holds the bearer token.
func WithTokenEnv(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.tokenEnv = name
		}
	}
}

// WithEnvLookup replaces os.Getenv for token lookup.
func WithEnvLookup(fn func(string) string) Option {
	return func(s *Service) {
		if fn != nil {
			s.lookupEnv = fn
		}
	}
}

// WithDefaultNumPhrases sets the count used when num_keywords is omitted.
func WithDefaultNumPhrases(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultNumPhrases = n
		}
	}
}

// New constructs a Service around the given upstream adapter.
func New(upstream Upstream, opts ...Option) *Service {
	s := &Service{
		upstream:          upstream,
		tokenEnv:          config.DefaultTokenEnv,
		lookupEnv:         os.Getenv,
		defaultNumPhrases: config.DefaultNumPhrases,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("dispatcher")
	}
	return s
}

// Dispatch validates req and routes it to the selected adapter. Checks run
// in order (token, params, keyword, action) and each short-circuits before
// any upstream call. A non-nil error means the request itself is unusable.
func (s *Service) Dispatch(ctx context.Context, req types.Request) (types.Envelope, error) {
	env, err := s.dispatch(ctx, req)
	if err == nil {
		metrics.RecordDispatch(actionLabel(req.ActionType), env.Status)
	}
	return env, err
}

func (s *Service) dispatch(ctx context.Context, req types.Request) (types.Envelope, error) {
	// The token is read per request so rotating it needs no restart.
	token := s.lookupEnv(s.tokenEnv)
	if token == "" {
		s.logger.Warn(ctx, "bearer token is not configured", logger.String("env", s.tokenEnv))
		return types.TokenMissing(s.tokenEnv), nil
	}

	// Absent, null and non-object params all land here.
	if req.Params == nil {
		return types.Envelope{}, ErrMissingParams
	}

	keyword := req.Params.Keyword
	if keyword == "" {
		return types.Failure(types.MsgKeywordRequired), nil
	}

	s.logger.Debug(ctx, "dispatching query",
		logger.String("action", req.Action()),
		logger.String("keyword", keyword),
	)

	switch req.ActionType {
	case types.ActionSEOKeywords:
		num := req.Params.NumKeywords
		if len(num) == 0 {
			num = json.RawMessage(strconv.Itoa(s.defaultNumPhrases))
		}
		return s.upstream.TopRequests(ctx, token, keyword, num), nil
	case types.ActionSeasonality:
		return s.upstream.Dynamics(ctx, token, keyword), nil
	default:
		return types.UnknownAction(req.Action()), nil
	}
}

// actionLabel bounds metric label cardinality to known actions.
func actionLabel(a types.ActionType) string {
	switch a {
	case types.ActionSEOKeywords, types.ActionSeasonality:
		return string(a)
	default:
		return "unknown"
	}
}
