// Package bootstrap assembles the proxy's collaborators from a Config.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/wordstat-proxy/internal/adapters/http/api"
	"github.com/okian/wordstat-proxy/internal/adapters/http/swagger"
	"github.com/okian/wordstat-proxy/internal/adapters/wordstat"
	service "github.com/okian/wordstat-proxy/internal/app"
	"github.com/okian/wordstat-proxy/internal/config"
	"github.com/okian/wordstat-proxy/internal/domain/validation"
	"github.com/okian/wordstat-proxy/pkg/logger"
	"github.com/okian/wordstat-proxy/pkg/metrics"
)

// Proxy holds the wired components.
type Proxy struct {
	Config    *config.Config
	Service   *service.Service
	Validator *validation.Validator
}

// Logging initializes the global logger from cfg. An invalid level falls
// back to info and is reported once the logger is up.
func Logging(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// Metrics rebuilds the global metrics registry from cfg.Metrics.
func Metrics(cfg *config.Config) {
	m := cfg.Metrics
	metrics.Init(
		metrics.WithMetricsEnabled(m.Enabled),
		metrics.WithNamespace(m.Namespace),
		metrics.WithSubsystem(m.Subsystem),
		metrics.WithMetricPrefix(m.Prefix),
		metrics.WithRefreshInterval(m.RefreshInterval()),
		metrics.WithLatencyBuckets(m.LatencyBucketsMS),
		metrics.WithConstLabels(m.Labels),
	)
}

// New wires metrics, the upstream client, dispatcher and request validator.
// The logger must already be initialized.
func New(_ context.Context, cfg *config.Config) (*Proxy, error) {
	Metrics(cfg)

	client, err := wordstat.New(cfg.APIBaseURL,
		wordstat.WithTimeout(cfg.UpstreamTimeout()),
		wordstat.WithLogger(logger.Named("wordstat")),
	)
	if err != nil {
		return nil, fmt.Errorf("create upstream client: %w", err)
	}

	svc := service.New(client,
		service.WithTokenEnv(cfg.TokenEnv),
		service.WithDefaultNumPhrases(cfg.DefaultNumPhrases),
		service.WithLogger(logger.Named("service")),
	)

	validator, err := validation.New()
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}

	return &Proxy{Config: cfg, Service: svc, Validator: validator}, nil
}

// DispatchHandler returns the POST handler without routing, so it answers
// on any path. Request ids and panic recovery still apply.
func (p *Proxy) DispatchHandler() http.Handler {
	l := logger.Named("api")
	h := api.NewDispatchHandler(p.Service, p.Validator,
		api.WithMaxBodyBytes(p.Config.MaxBodyBytes),
		api.WithDispatchLogger(l),
	)
	return api.RequestIDMiddleware(api.RecoverMiddleware(l)(h))
}

// Router returns the full HTTP surface: dispatch, health, metrics and docs.
func (p *Proxy) Router(ctx context.Context) chi.Router {
	r := api.NewServer(p.Service, p.Validator, api.WithMaxBodyBytes(p.Config.MaxBodyBytes)).Router(ctx)
	swagger.Register(ctx, r)
	return r
}
