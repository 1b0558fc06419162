// Package graphite fetches time series from a Graphite-compatible render
// endpoint.
//
// A Client issues exactly one GET per Fetch against <base>/render, asking
// for JSON output, and decodes the body into a list of Series. Any non-200
// response, transport error or undecodable body is reported as a
// *FetchError. Nothing is retried.
package graphite

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds the whole render request.
	DefaultTimeout = 10 * time.Second

	// DefaultUntil is the end of the time window when none is given.
	DefaultUntil = "now"

	// DefaultUserAgent is sent with every render request.
	DefaultUserAgent = "check_graphite"

	renderPath = "/render"
)

// Query describes one render request.
type Query struct {
	// Targets are the series expressions, one "target" parameter each.
	Targets []string

	// From is the start of the window: an absolute timestamp, a relative
	// offset such as "-1h", or "now".
	From string

	// Until is the end of the window. Empty means DefaultUntil.
	Until string
}

// FetchError is returned for any failed render request.
type FetchError struct {
	URL        string
	StatusCode int // zero unless the backend answered with a non-200 status
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("render %s: unexpected status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DialFunc matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Client fetches series from one Graphite base URL.
type Client struct {
	baseURL    string
	timeout    time.Duration
	skipVerify bool
	userAgent  string
	dial       DialFunc
	client     *http.Client
	logger     *logrus.Logger
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithTimeout sets the render request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		c.timeout = d
		return nil
	}
}

// WithSkipVerify sets whether to skip TLS certificate verification.
func WithSkipVerify(skip bool) Option {
	return func(c *Client) error {
		c.skipVerify = skip
		return nil
	}
}

// WithDialer replaces the dialer of the default transport.
// Ignored when WithHTTPClient is also given.
func WithDialer(dial DialFunc) Option {
	return func(c *Client) error {
		if dial == nil {
			return fmt.Errorf("dialer must not be nil")
		}
		c.dial = dial
		return nil
	}
}

// WithHTTPClient uses the given http.Client instead of building one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithUserAgent sets the User-Agent header of render requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) error {
		if l == nil {
			return fmt.Errorf("logger must not be nil")
		}
		c.logger = l
		return nil
	}
}

// New creates a Client for the Graphite instance at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("graphite: base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("graphite: invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("graphite: base URL %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL:   base,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("graphite: %w", err)
		}
	}

	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetOutput(io.Discard)
	}

	if c.client == nil {
		transport := &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: c.skipVerify},
		}
		if c.dial != nil {
			transport.DialContext = c.dial
		}
		c.client = &http.Client{
			Timeout:   c.timeout,
			Transport: transport,
		}
	}

	return c, nil
}

// RenderURL builds the render URL for q.
func (c *Client) RenderURL(q Query) string {
	params := url.Values{}
	for _, t := range q.Targets {
		params.Add("target", t)
	}
	params.Set("from", q.From)
	until := q.Until
	if until == "" {
		until = DefaultUntil
	}
	params.Set("until", until)
	params.Set("format", "json")

	return c.baseURL + renderPath + "?" + params.Encode()
}

// Fetch performs the render request for q and decodes the returned series.
func (c *Client) Fetch(ctx context.Context, q Query) ([]Series, error) {
	if len(q.Targets) == 0 {
		return nil, fmt.Errorf("graphite: at least one target is required")
	}
	if q.From == "" {
		return nil, fmt.Errorf("graphite: from is required")
	}

	renderURL := c.RenderURL(q)
	c.logger.Debugf("Initiating render request to %s", renderURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, renderURL, nil)
	if err != nil {
		return nil, &FetchError{URL: renderURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: renderURL, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	c.logger.Debugf("Render request answered %d in %v", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: renderURL, StatusCode: resp.StatusCode}
	}

	var series []Series
	if err := json.NewDecoder(resp.Body).Decode(&series); err != nil {
		return nil, &FetchError{URL: renderURL, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.logger.Debugf("Render request returned %d series", len(series))
	return series, nil
}
