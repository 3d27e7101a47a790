package challenge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnsupportedType means the solving service rejected the attempted
	// challenge type; the caller should advance to the next candidate.
	ErrUnsupportedType = errors.New("challenge: unsupported challenge type")

	// ErrRateLimited means the solving service asked us to slow down.
	ErrRateLimited = errors.New("challenge: solver rate limited")

	// ErrNotReady means an outstanding ticket has no answer yet.
	ErrNotReady = errors.New("challenge: solve result not ready")
)

// maxResponseBody bounds solver response reads. Answers are small JSON
// documents; anything larger is broken.
const maxResponseBody = 1 << 20

// TaskResponse is the solving service's answer to a solve request. It
// carries either an immediate token or a ticket to poll under one of three
// field names, depending on the service build.
type TaskResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Data  string `json:"data"`
	Task  string `json:"task"`
}

// Ticket returns the poll identifier, first non-empty of id, data, task.
// Empty means the response carried neither token nor ticket.
func (r *TaskResponse) Ticket() string {
	for _, v := range []string{r.ID, r.Data, r.Task} {
		if v != "" {
			return v
		}
	}
	return ""
}

// pollResponse is one poll answer. The token travels under whichever of
// these fields the service build uses.
type pollResponse struct {
	Token    string `json:"token"`
	Solution string `json:"solution"`
	Data     string `json:"data"`
}

// Client talks to the external challenge-solving service.
type Client struct {
	// httpc performs the requests. Default has a 30s timeout.
	httpc *http.Client

	// baseURL is the service root, no trailing slash.
	baseURL string

	// key is the account credential sent with every request.
	key string

	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client used for solver requests.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithClientLogger sets the logger for solver request events.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a solving-service client.
func NewClient(baseURL, key string, opts ...ClientOption) *Client {
	c := &Client{
		httpc:   &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// tokenRequest is the solve request body.
type tokenRequest struct {
	Key     string `json:"key"`
	Type    string `json:"type"`
	Sitekey string `json:"sitekey"`
	URL     string `json:"url"`
	Data    string `json:"data,omitempty"`
}

// Submit asks the service to solve one challenge type. The data parameter
// carries type-specific extras, the v3 action for instance, and may be
// empty. The response holds either an immediate token or a ticket.
func (c *Client) Submit(ctx context.Context, typ, sitekey, pageURL, data string) (*TaskResponse, error) {
	body, err := json.Marshal(tokenRequest{
		Key:     c.key,
		Type:    typ,
		Sitekey: sitekey,
		URL:     pageURL,
		Data:    data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode solve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create solve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solve request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read solve response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if strings.Contains(strings.ToLower(string(raw)), "invalid type") {
			return nil, ErrUnsupportedType
		}
		return nil, fmt.Errorf("solve request: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var task TaskResponse
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("decode solve response: %w", err)
	}
	c.logger.Debug("solve request accepted", "type", typ, "immediate", task.Token != "")
	return &task, nil
}

// Poll fetches the result for an outstanding ticket. Returns ErrNotReady
// while the service has no answer.
func (c *Client) Poll(ctx context.Context, ticket string) (string, error) {
	q := url.Values{}
	q.Set("key", c.key)
	q.Set("id", ticket)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create poll request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("poll request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read poll response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("poll request: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var pr pollResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return "", fmt.Errorf("decode poll response: %w", err)
	}
	for _, v := range []string{pr.Token, pr.Solution, pr.Data} {
		if v != "" {
			return v, nil
		}
	}
	return "", ErrNotReady
}

// truncate shortens s for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
