// Package upstream performs the proxied REST calls behind GraphQL fields.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrUpstream is matched by every error returned from Client.Call.
var ErrUpstream = errors.New("upstream call failed")

// maxErrorBody bounds how much of a failed response is kept on StatusError.
const maxErrorBody = 2048

// Request is one proxied call.
type Request struct {
	Method        string // lower or upper case verb
	URL           string
	Authorization string // forwarded as-is when non-empty
	Body          any
	HasBody       bool
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("upstream %s %s: http %d", e.Method, e.URL, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Is(target error) bool { return target == ErrUpstream }

type transportError struct {
	method string
	url    string
	err    error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("upstream %s %s: %v", e.method, e.url, e.err)
}
func (e *transportError) Unwrap() error        { return e.err }
func (e *transportError) Is(target error) bool { return target == ErrUpstream }

type Options struct {
	// Timeout bounds each call. Zero means no timeout beyond the caller's context.
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client issues exactly one HTTP request per Call; it never retries.
type Client struct {
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		userAgent: strings.TrimSpace(opts.UserAgent),
		logger:    logger,
	}
}

// Call performs req and returns the decoded JSON payload. An empty body
// decodes to nil.
func (c *Client) Call(ctx context.Context, req Request) (any, error) {
	method := strings.ToUpper(req.Method)

	var body io.Reader
	if req.HasBody {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &transportError{method: method, url: req.URL, err: fmt.Errorf("encode body: %w", err)}
		}
		body = bytes.NewReader(buf)
	}

	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, &transportError{method: method, url: req.URL, err: err}
	}
	hreq.Header.Set("Accept", "application/json")
	if req.HasBody {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if req.Authorization != "" {
		hreq.Header.Set("Authorization", req.Authorization)
	}
	if c.userAgent != "" {
		hreq.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(hreq)
	if err != nil {
		c.logger.DebugContext(ctx, "upstream call failed",
			slog.String("method", method),
			slog.String("url", req.URL),
			slog.Bool("authorization", req.Authorization != ""),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)
		return nil, &transportError{method: method, url: req.URL, err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{method: method, url: req.URL, err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.DebugContext(ctx, "upstream call",
		slog.String("method", method),
		slog.String("url", req.URL),
		slog.Bool("authorization", req.Authorization != ""),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(raw)),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := raw
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, URL: req.URL, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &transportError{method: method, url: req.URL, err: fmt.Errorf("decode json: %w", err)}
	}
	return out, nil
}
