package cliclient

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/wordstat-proxy/internal/domain/types"
)

// Defaults for command-line flags.
const (
	DefaultURL     = "http://localhost:9080"
	DefaultTimeout = 30 * time.Second
)

// ErrUsage marks invalid command-line input.
var ErrUsage = errors.New("usage error")

// Config holds one CLI invocation.
type Config struct {
	BaseURL     string        // proxy root URL
	Action      string        // action_type sent as is
	Keyword     string        // params.keyword
	NumKeywords *int          // params.num_keywords, omitted when nil
	Timeout     time.Duration // whole-request timeout
	Help        bool
}

// Parse reads flags from args. Flag errors are returned wrapped in
// ErrUsage; -h yields an error matching flag.ErrHelp.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("wordstat-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &Config{}
	num := fs.Int("num", 0, "Number of related phrases for seo_keywords (0 lets the proxy decide)")
	fs.StringVar(&cfg.BaseURL, "url", DefaultURL, "Base URL of the proxy")
	fs.StringVar(&cfg.Action, "action", string(types.ActionSEOKeywords), "Action: seo_keywords or seasonality")
	fs.StringVar(&cfg.Keyword, "keyword", "", "Keyword to query")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "HTTP request timeout")
	fs.BoolVar(&cfg.Help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if *num > 0 {
		cfg.NumKeywords = num
	}
	if cfg.Help {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the flags that can be checked without the proxy.
// Unknown actions are passed through; the proxy answers them.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Keyword) == "" {
		return fmt.Errorf("%w: -keyword is required", ErrUsage)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: -url must be an absolute URL", ErrUsage)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: -timeout must not be negative", ErrUsage)
	}
	return nil
}

// Request builds the inbound body for the proxy.
func (c *Config) Request() types.Request {
	return types.Request{
		ActionType: types.ActionType(c.Action),
		Params:     &types.Params{Keyword: c.Keyword, NumKeywords: numKeywords(c.NumKeywords)},
	}
}

func numKeywords(n *int) json.RawMessage {
	if n == nil {
		return nil
	}
	return json.RawMessage(strconv.Itoa(*n))
}
