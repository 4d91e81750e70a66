package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// BrowserHeaders are sent with every request unless the request sets them.
var BrowserHeaders = http.Header{
	"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"},
	"Accept-Language": {"en-US,en;q=0.5"},
}

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	// Transport overrides the default, e.g. for uTLS fingerprinting.
	Transport http.RoundTripper
	// UserAgent, if set, supplies the User-Agent of each request.
	UserAgent func() string
	// Headers are added to requests that do not already carry them.
	// Nil means BrowserHeaders.
	Headers http.Header
}

// Client wraps a standard http.Client with timeouts, a redirect policy,
// cookie management and browser-like default headers.
type Client struct {
	*http.Client
	userAgent func() string
	headers   http.Header
}

// New creates a new HTTP client based on the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &http.Client{
		Timeout: cfg.Timeout,
	}

	if cfg.MaxRedirects >= 0 {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("httpclient: stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		}
	} else {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	// Scholar sets consent and session cookies on the first response; keeping
	// them makes the following years look like the same browser.
	if cfg.UseCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("httpclient: %w", err)
		}
		c.Jar = jar
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	headers := cfg.Headers
	if headers == nil {
		headers = BrowserHeaders
	}

	return &Client{Client: c, userAgent: cfg.UserAgent, headers: headers.Clone()}, nil
}

// Do executes an HTTP request. ctx controls cancellation independently of
// the client timeout.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("httpclient: context cannot be nil")
	}

	reqWithCtx := req.Clone(ctx)
	for k, vals := range c.headers {
		if reqWithCtx.Header.Get(k) == "" {
			reqWithCtx.Header[k] = append([]string(nil), vals...)
		}
	}
	if c.userAgent != nil && reqWithCtx.Header.Get("User-Agent") == "" {
		reqWithCtx.Header.Set("User-Agent", c.userAgent())
	}

	resp, err := c.Client.Do(reqWithCtx)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	return resp, nil
}

// Close releases idle keep-alive connections.
func (c *Client) Close() error {
	c.Client.CloseIdleConnections()
	return nil
}
