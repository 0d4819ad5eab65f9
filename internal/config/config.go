// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Secrets are never stored here; the upstream token is read from the
//   environment variable named by TokenEnv on every request.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Default values.
const (
	DefaultAddr         = ":9080"
	DefaultAPIBaseURL   = "https://api.wordstat.yandex.net/v1"
	DefaultTokenEnv     = "YANDEX_TOKEN"
	DefaultNumPhrases   = 20
	defaultTimeoutMS    = 30_000
	defaultMaxBodyBytes = 1 << 20
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"

	DefaultMetricsNamespace = "wordstat"
	DefaultMetricsSubsystem = "proxy"
	defaultMetricsRefreshMS = 10_000
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// APIBaseURL is the keyword statistics API root, without a trailing slash.
	APIBaseURL string `koanf:"api_base_url"`

	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `koanf:"token_env"`

	// UpstreamTimeoutMS bounds a single upstream call. Zero disables the limit.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// MaxBodyBytes caps inbound request bodies. Zero disables the limit.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// DefaultNumPhrases is used when seo_keywords omits num_keywords.
	DefaultNumPhrases int `koanf:"default_num_phrases"`

	// Metrics controls the Prometheus collectors served on /metrics.
	Metrics MetricsConfig `koanf:"metrics"`
}

// MetricsConfig names and paces the exported metrics.
type MetricsConfig struct {
	// Enabled turns recording on. Collectors stay registered either way.
	Enabled bool `koanf:"enabled"`

	// Namespace and Subsystem prefix every metric name.
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`

	// Prefix is inserted between the subsystem and the metric name.
	Prefix string `koanf:"prefix"`

	// RefreshMS is the process gauge refresh period.
	RefreshMS int `koanf:"refresh_ms"`

	// LatencyBucketsMS overrides the latency histogram buckets.
	LatencyBucketsMS []float64 `koanf:"latency_buckets_ms"`

	// Labels are constant labels added to every series, e.g. env: prod.
	Labels map[string]string `koanf:"labels"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          defaultLogLevel,
		LogFormat:         defaultLogFormat,
		Addr:              DefaultAddr,
		APIBaseURL:        DefaultAPIBaseURL,
		TokenEnv:          DefaultTokenEnv,
		UpstreamTimeoutMS: defaultTimeoutMS,
		MaxBodyBytes:      defaultMaxBodyBytes,
		DefaultNumPhrases: DefaultNumPhrases,
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
			Subsystem: DefaultMetricsSubsystem,
			RefreshMS: defaultMetricsRefreshMS,
		},
	}
}

// RefreshInterval returns Metrics.RefreshMS as a duration.
func (m MetricsConfig) RefreshInterval() time.Duration {
	return time.Duration(m.RefreshMS) * time.Millisecond
}

// UpstreamTimeout returns UpstreamTimeoutMS as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.APIBaseURL) == "":
		return fmt.Errorf("%w: api_base_url must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.TokenEnv) == "":
		return fmt.Errorf("%w: token_env must not be empty", ErrInvalidConfig)
	case c.UpstreamTimeoutMS < 0:
		return fmt.Errorf("%w: upstream_timeout_ms must be >= 0", ErrInvalidConfig)
	case c.MaxBodyBytes < 0:
		return fmt.Errorf("%w: max_body_bytes must be >= 0", ErrInvalidConfig)
	case c.DefaultNumPhrases <= 0:
		return fmt.Errorf("%w: default_num_phrases must be > 0", ErrInvalidConfig)
	case strings.TrimSpace(c.Metrics.Namespace) == "":
		return fmt.Errorf("%w: metrics.namespace must not be empty", ErrInvalidConfig)
	case c.Metrics.RefreshMS <= 0:
		return fmt.Errorf("%w: metrics.refresh_ms must be > 0", ErrInvalidConfig)
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api_base_url must be an absolute URL", ErrInvalidConfig)
	}
	return nil
}
