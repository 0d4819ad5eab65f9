package cliclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/okian/wordstat-proxy/internal/domain/types"
	"github.com/okian/wordstat-proxy/pkg/logger"
)

// Process exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Run posts the query described by cfg and prints the reply to stdout.
// It returns the process exit code.
func Run(ctx context.Context, cfg *Config, stdout io.Writer) int {
	log := logger.Named("cli")

	res, err := NewHTTPClient(cfg.BaseURL, cfg.Timeout).Post(ctx, cfg.Request())
	if err != nil {
		log.Error(ctx, "query failed", logger.String("url", cfg.BaseURL), logger.Error(err))
		return ExitError
	}
	log.Debug(ctx, "query answered",
		logger.Int("http_status", res.StatusCode),
		logger.String("status", res.Envelope.Status),
	)

	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(res.Raw), "", "  "); err != nil {
		out.Reset()
		out.Write(res.Raw)
	}
	out.WriteByte('\n')
	if _, err := stdout.Write(out.Bytes()); err != nil {
		log.Error(ctx, "failed to write output", logger.Error(err))
		return ExitError
	}

	if res.Envelope.Status != types.StatusSuccess {
		return ExitError
	}
	return ExitOK
}

// ShowHelp prints usage information for the CLI.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Wordstat Proxy CLI
==================

Posts one keyword query to a running proxy and prints the response envelope.

Usage:
  wordstat-cli -keyword <phrase> [options]

Options:
  -action string
        seo_keywords or seasonality (default "seo_keywords")
  -keyword string
        Keyword to query (required)
  -num int
        Number of related phrases for seo_keywords (default: proxy decides)
  -url string
        Base URL of the proxy (default "http://localhost:9080")
  -timeout duration
        HTTP request timeout (default 30s)
  -help
        Show this help message

Exit codes:
  0  success envelope
  1  error envelope or transport failure
  2  usage error

Examples:
  wordstat-cli -keyword "купить кофе" -num 10
  wordstat-cli -action seasonality -keyword снегокат -url http://localhost:8080
`)
}
