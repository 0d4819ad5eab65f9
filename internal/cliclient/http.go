package cliclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/wordstat-proxy/internal/domain/types"
)

// maxResponseBytes caps how much of a proxy reply is read.
const maxResponseBytes = 16 << 20

// HTTPClient posts queries to a running proxy.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client with the given timeout. Zero disables it.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/") + "/",
	}
}

// Result is a decoded proxy reply.
type Result struct {
	StatusCode int
	Envelope   types.Envelope
	Raw        []byte
}

// Post sends req and decodes the envelope. Any HTTP status is accepted as
// long as the body is an envelope.
func (c *HTTPClient) Post(ctx context.Context, req types.Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	res := &Result{StatusCode: resp.StatusCode, Raw: raw}
	if err := json.Unmarshal(raw, &res.Envelope); err != nil || res.Envelope.Status == "" {
		return nil, fmt.Errorf("unexpected response (HTTP %d): %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	return res, nil
}
