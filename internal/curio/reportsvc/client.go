// Package reportsvc is the HTTP client for the museum's report-generation
// and event-listing services.
//
// Every call carries the trace ID from the context in X-Trace-ID, a fresh
// X-Request-ID, and a bearer token when one is configured. Generate is sent
// once; ListEvents is read-only and retried with backoff.
package reportsvc

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

	"github.com/google/uuid"

	"github.com/museumops/curio/common/redact"
	"github.com/museumops/curio/common/retry"
	"github.com/museumops/curio/common/spec/report"
	"github.com/museumops/curio/common/trace"
	"github.com/museumops/curio/common/version"
)

const (
	generatePath = "/reports/generate"
	eventsPath   = "/events"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 16 << 20
)

// ErrStatus is wrapped by errors for non-2xx replies that carry no
// generation result.
var ErrStatus = errors.New("unexpected status")

// Options configures a Client.
type Options struct {
	// Token is sent as "Authorization: Bearer <token>" when non-empty.
	Token string
	// HTTPClient overrides the default client. Its timeout should exceed
	// the generation timeout, which is enforced through the context.
	HTTPClient *http.Client
	// Retry controls ListEvents retries. Zero value selects retry.DefaultConfig.
	Retry retry.Config
}

// Client talks to one report service base URL.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      retry.Config
}

// New creates a client for baseURL, e.g. "http://reports.museum.internal/api".
func New(baseURL string, opts ...Options) *Client {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry = retry.DefaultConfig
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      o.Token,
		httpClient: o.HTTPClient,
		retry:      o.Retry,
	}
}

// ErrorResponse is the generic error body returned by the services.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Generate sends req to the generation service. A success=false reply is
// returned as a response, not an error, even when it arrives with a non-2xx
// status, so callers can recognize empty results.
func (c *Client) Generate(ctx context.Context, req report.Request) (*report.GenerateResponse, error) {
	body, err := json.Marshal(req.Wire())
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}
	httpReq, err := c.newRequest(ctx, http.MethodPost, generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	status, respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	resp, decodeErr := report.DecodeGenerateResponse(respBody)
	if status >= 300 {
		if decodeErr == nil && !resp.Success {
			return resp, nil
		}
		return nil, c.statusError(httpReq, status, respBody)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("generate: %w", decodeErr)
	}
	return resp, nil
}

// ListEvents fetches the events offered for participant reports.
func (c *Client) ListEvents(ctx context.Context) ([]report.Event, error) {
	var list report.EventList
	err := retry.Do(ctx, c.retry, func() error {
		httpReq, err := c.newRequest(ctx, http.MethodGet, eventsPath, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		status, body, err := c.do(httpReq)
		if err != nil {
			return err
		}
		if status >= 300 {
			err := c.statusError(httpReq, status, body)
			if status < 500 && status != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}
		if err := json.Unmarshal(body, &list); err != nil {
			return retry.Permanent(fmt.Errorf("decode events: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return list.Events, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", uuid.NewString())
	trace.Inject(ctx, req)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) statusError(req *http.Request, status int, body []byte) error {
	var e ErrorResponse
	if json.Unmarshal(body, &e) == nil {
		msg := e.Error
		if msg == "" {
			msg = e.Message
		}
		if msg != "" {
			return fmt.Errorf("%w: %s %s → %d: %s", ErrStatus, req.Method, req.URL.Path, status, redact.String(msg, c.token))
		}
	}
	return fmt.Errorf("%w: %s %s → %d", ErrStatus, req.Method, req.URL.Path, status)
}
