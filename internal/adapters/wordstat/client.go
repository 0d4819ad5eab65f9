// Package wordstat adapts the keyword statistics API: it builds one POST per
// query and flattens the response into an envelope.
package wordstat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/wordstat-proxy/internal/domain/types"
	"github.com/okian/wordstat-proxy/pkg/logger"
	"github.com/okian/wordstat-proxy/pkg/metrics"
)

// Upstream API constants.
const (
	// RegionRussia is the only region queried, in the upstream region taxonomy.
	RegionRussia = 225

	opTopRequests = "topRequests"
	opDynamics    = "dynamics"

	periodMonth     = "month"
	dateLayout      = "2006-01-02"
	seasonalityDays = 365

	maxResponseBytes = 16 << 20
)

// Client calls the keyword statistics API.
type Client struct {
	baseURL string
	http    Doer
	timeout time.Duration
	now     func() time.Time
	logger  logger.Logger
}

// New creates a client rooted at baseURL (e.g. https://api.wordstat.yandex.net/v1).
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL must not be empty")
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("wordstat")
	}
	return c, nil
}

type topRequestsPayload struct {
	Phrase     string          `json:"phrase"`
	NumPhrases json.RawMessage `json:"numPhrases"`
	Regions    []int           `json:"regions"`
}

type topRequestsResponse struct {
	TopRequests []struct {
		Phrase json.RawMessage `json:"phrase"`
		Count  json.RawMessage `json:"count"`
	} `json:"topRequests"`
}

type dynamicsPayload struct {
	Phrase   string `json:"phrase"`
	Period   string `json:"period"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
	Regions  []int  `json:"regions"`
}

type dynamicsResponse struct {
	Dynamics json.RawMessage `json:"dynamics"`
}

// TopRequests returns the phrases most often searched together with phrase,
// in upstream order, as {keyword, searches} pairs. numPhrases is sent
// verbatim, so the upstream API judges its type.
func (c *Client) TopRequests(ctx context.Context, token, phrase string, numPhrases json.RawMessage) types.Envelope {
	payload := topRequestsPayload{
		Phrase:     phrase,
		NumPhrases: numPhrases,
		Regions:    []int{RegionRussia},
	}

	body, err := c.post(ctx, opTopRequests, token, payload)
	if err != nil {
		return c.failure(ctx, opTopRequests, err)
	}

	var resp topRequestsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return c.failure(ctx, opTopRequests, &decodeError{body: body, err: err})
	}

	keywords := make([]types.KeywordStat, 0, len(resp.TopRequests))
	for _, r := range resp.TopRequests {
		keywords = append(keywords, types.KeywordStat{Keyword: r.Phrase, Searches: r.Count})
	}
	return types.Success(keywords)
}

// Dynamics returns the monthly search counts for phrase over the trailing
// 365 days, passed through unmodified.
func (c *Client) Dynamics(ctx context.Context, token, phrase string) types.Envelope {
	from, to := c.window()
	payload := dynamicsPayload{
		Phrase:   phrase,
		Period:   periodMonth,
		FromDate: from,
		ToDate:   to,
		Regions:  []int{RegionRussia},
	}

	body, err := c.post(ctx, opDynamics, token, payload)
	if err != nil {
		return c.failure(ctx, opDynamics, err)
	}

	var resp dynamicsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return c.failure(ctx, opDynamics, &decodeError{body: body, err: err})
	}
	if resp.Dynamics == nil {
		return types.Success([]any{})
	}
	return types.Success(resp.Dynamics)
}

// window returns the [now-365d, now] date range in local process time.
func (c *Client) window() (from, to string) {
	end := c.now()
	start := end.AddDate(0, 0, -seasonalityDays)
	return start.Format(dateLayout), end.Format(dateLayout)
}

// post sends one JSON POST to baseURL/op and returns the body of a 2xx response.
func (c *Client) post(ctx context.Context, op, token string, payload any) ([]byte, error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.RecordUpstreamRequest(op, outcome, float64(time.Since(start).Milliseconds()))
	}()

	raw, err := json.Marshal(payload)
	if err != nil {
		outcome = "encode_error"
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(raw))
	if err != nil {
		outcome = "encode_error"
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = authHeaders(token)

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "transport_error"
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		outcome = "transport_error"
		return nil, fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		outcome = "status_error"
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

// authHeaders builds the headers sent with every upstream call.
func authHeaders(token string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}

type decodeError struct {
	body []byte
	err  error
}

func (e *decodeError) Error() string { return fmt.Sprintf("%s: %s", ErrDecode, e.err) }
func (e *decodeError) Unwrap() error { return ErrDecode }

// failure converts an upstream error into the error envelope.
func (c *Client) failure(ctx context.Context, op string, err error) types.Envelope {
	var (
		statusErr *StatusError
		decErr    *decodeError
		details   string
		fields    = []logger.Field{logger.String("operation", op), logger.Error(err)}
	)
	switch {
	case errors.As(err, &statusErr):
		details = string(statusErr.Body)
		fields = append(fields, logger.Int("status", statusErr.StatusCode))
	case errors.As(err, &decErr):
		details = string(decErr.body)
	}
	c.logger.Warn(ctx, "upstream request failed", fields...)
	return types.UpstreamFailure(details)
}
