// Package anvato talks to the Anvato MCP XML API: it signs list requests,
// detects vendor-reported failures and decodes result nodes into display items.
package anvato

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_anvato/internal/engine"
)

const maxResponseBytes = 8 << 20

// Client issues signed requests. It holds no credentials: they are passed per call.
type Client struct {
	http        *http.Client
	retry       engine.RetryConfig
	limiter     *rate.Limiter
	maxBody     int64
	now         func() time.Time
	argsFilter  func(RequestType, SearchParams) SearchParams
	credsFilter func(Credentials, SearchParams) Credentials
	afterSearch func(RequestType, *Result, error)
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the timestamp source used for signing.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithArgsFilter transforms search params before the request is built.
func WithArgsFilter(fn func(RequestType, SearchParams) SearchParams) Option {
	return func(c *Client) { c.argsFilter = fn }
}

// WithCredentialsFilter swaps the keys used for a given search, e.g. per-station keys.
func WithCredentialsFilter(fn func(Credentials, SearchParams) Credentials) Option {
	return func(c *Client) { c.credsFilter = fn }
}

// WithAfterSearch registers a callback fired after every search, successful or not.
func WithAfterSearch(fn func(RequestType, *Result, error)) Option {
	return func(c *Client) { c.afterSearch = fn }
}

// New builds a Client from the engine config.
func New(cfg engine.Config, opts ...Option) *Client {
	c := &Client{
		http:  cfg.Client(),
		retry:   cfg.Retry,
		now:     time.Now,
		maxBody: maxResponseBytes,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.RequestBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Search runs one signed list request and decodes the node-set for t.
// Every failure is an *Error; see ErrorKind.
func (c *Client) Search(ctx context.Context, creds Credentials, t RequestType, p SearchParams) (*Result, error) {
	if c.argsFilter != nil {
		p = c.argsFilter(t, p)
	}
	if c.credsFilter != nil {
		creds = c.credsFilter(creds, p)
	}

	res, err := c.search(ctx, creds, t, p)
	if err != nil {
		countError(err)
		slog.Warn("anvato: search failed",
			slog.String("type", string(t)),
			slog.String("kind", KindOf(err).String()),
			slog.Any("error", err))
	} else {
		slog.Debug("anvato: search ok", slog.String("type", string(t)), slog.Int("nodes", res.Len()))
	}
	if c.afterSearch != nil {
		c.afterSearch(t, res, err)
	}
	return res, err
}

func (c *Client) search(ctx context.Context, creds Credentials, t RequestType, p SearchParams) (*Result, error) {
	if !creds.Complete() {
		return nil, ErrMissingSettings
	}

	ts := c.now().Unix()
	u, err := BuildURL(creds, t, p, ts)
	if err != nil {
		return nil, err
	}

	body := RequestBody(t)
	engine.IncrAPIRequests()
	resp, err := engine.RetryHTTP(ctx, c.retry, c.http, func() (*http.Request, error) {
		// Every attempt, retries included, goes through the limiter.
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "text/xml; charset=utf-8")
		req.Header.Set("Accept", "application/xml, text/xml")
		req.Header.Set("User-Agent", engine.UserAgent)
		return req, nil
	})
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, transportError(fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, transportError(fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > c.maxBody {
		return nil, transportError(fmt.Errorf("response exceeds %d bytes", c.maxBody))
	}
	res, err := parseResponse(t, data)
	if err != nil {
		slog.Debug("anvato: rejected response", slog.String("body", engine.TruncateRunes(string(data), 300, "...")))
	}
	return res, err
}

func countError(err error) {
	switch KindOf(err) {
	case KindMissingSettings:
		engine.IncrMissingSettings()
	case KindTransport:
		engine.IncrTransportErrors()
	case KindAPI:
		engine.IncrAPIErrors()
	case KindParse:
		engine.IncrParseErrors()
	}
}
