// Package source queries the remote record source over HTTP.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/roach88/pagesweep/internal/engine"
	"github.com/roach88/pagesweep/internal/record"
)

const (
	// Query parameter names understood by the source.
	paramStart = "startDate"
	paramEnd   = "endDate"

	// maxErrorBody caps how much of a failed response is kept in the error.
	maxErrorBody = 512
)

// Options configures a Client.
type Options struct {
	// Endpoint is the full URL of the records resource.
	Endpoint string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// UserAgent is sent with every request. Empty means "pagesweep/<version>".
	UserAgent string

	// Logger receives per-request debug output. Nil means slog.Default().
	Logger *slog.Logger
}

// Client fetches pages of records for a window.
// It implements engine.Fetcher. Requests are never retried.
type Client struct {
	client   *resty.Client
	endpoint string
	logger   *slog.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, fmt.Errorf("source endpoint is required")
	}

	if opts.Timeout < 0 {
		return nil, fmt.Errorf("source timeout must not be negative")
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = record.ToolName + "/" + record.ToolVersion
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	return &Client{client: client, endpoint: opts.Endpoint, logger: logger}, nil
}

// Endpoint returns the URL the client queries.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch requests the records of w.
//
// Transport failures and undecodable bodies are returned as network errors,
// non-2xx answers as server errors.
func (c *Client) Fetch(ctx context.Context, w record.Window) (record.Page, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam(paramStart, w.Start).
		SetQueryParam(paramEnd, w.End).
		Get(c.endpoint)
	if err != nil {
		return nil, engine.NewNetworkError(w, err)
	}

	c.logger.Debug("source responded",
		"status", resp.StatusCode(),
		"bytes", len(resp.Body()),
		"elapsed", resp.Time(),
	)

	if err := classifyResponse(w, resp); err != nil {
		return nil, err
	}

	page, err := record.DecodePage(resp.Body())
	if err != nil {
		return nil, engine.NewNetworkError(w, err)
	}
	return page, nil
}

func classifyResponse(w record.Window, resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}

	body := strings.TrimSpace(resp.String())
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return engine.NewServerError(w, code, body)
}
