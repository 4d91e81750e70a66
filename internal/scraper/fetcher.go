package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/FranksOps/scholartrend/internal/fingerprint"
	"github.com/FranksOps/scholartrend/internal/trend"
	"github.com/FranksOps/scholartrend/pkg/httpclient"
	"github.com/FranksOps/scholartrend/pkg/useragent"
	"github.com/google/uuid"
)

// maxBodyBytes caps how much of a response is kept. Result pages are ~300KB.
const maxBodyBytes = 8 << 20

var (
	// ErrStatus wraps non-2xx responses.
	ErrStatus = errors.New("unexpected status")
	// ErrDisallowed is returned when robots.txt forbids the URL.
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// FetchConfig configures the HTTP fetcher.
type FetchConfig struct {
	Timeout time.Duration
	// MaxRedirects caps followed redirects; 0 means 10 and -1 disables them.
	MaxRedirects int
	UseCookieJar bool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	// RespectRobots checks robots.txt before every fetch.
	RespectRobots bool
	// RobotsAgent is the User-Agent token matched against robots.txt groups.
	RobotsAgent string
	Logger      *slog.Logger
}

// Fetcher retrieves pages with a direct HTTP GET that presents a browser
// User-Agent and TLS fingerprint. One client, and so one cookie jar and
// connection pool, is reused for the lifetime of the Fetcher.
type Fetcher struct {
	config  FetchConfig
	client  *httpclient.Client
	auditor *RobotsTxtAuditor
	logger  *slog.Logger
}

var _ trend.PageFetcher = (*Fetcher)(nil)

// NewFetcher initializes a new Fetcher with the given configuration.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = 10
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil, useragent.Sticky)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.RobotsAgent == "" {
		cfg.RobotsAgent = "*"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
		UserAgent:    cfg.UAPool.Next,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	f := &Fetcher{
		config: cfg,
		client: client,
		logger: cfg.Logger,
	}
	if cfg.RespectRobots {
		f.auditor = NewRobotsTxtAuditor(f, cfg.Logger)
	}
	return f, nil
}

// Fetch executes a GET request to the target URL. Transport errors,
// timeouts, robots.txt refusals and non-2xx statuses are all returned as
// *trend.FetchError; for non-2xx the received page is attached.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*trend.Page, error) {
	if f.auditor != nil {
		allowed, err := f.auditor.IsAllowed(ctx, targetURL, f.config.RobotsAgent)
		if err != nil {
			return nil, &trend.FetchError{URL: targetURL, Err: err}
		}
		if !allowed {
			return nil, &trend.FetchError{URL: targetURL, Err: ErrDisallowed}
		}
	}

	page, err := f.get(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return nil, &trend.FetchError{
			URL:  targetURL,
			Page: page,
			Err:  fmt.Errorf("%w %d", ErrStatus, page.StatusCode),
		}
	}
	return page, nil
}

// get performs the request without robots.txt checks or status policy.
func (f *Fetcher) get(ctx context.Context, targetURL string) (*trend.Page, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, &trend.FetchError{URL: targetURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		return nil, &trend.FetchError{URL: targetURL, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &trend.FetchError{URL: targetURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	page := &trend.Page{
		ID:         uuid.New().String(),
		URL:        targetURL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		FetchedAt:  start.UTC(),
		Duration:   time.Since(start),
	}
	f.logger.Debug("fetched", "url", targetURL, "status", page.StatusCode, "bytes", len(body), "duration", page.Duration)
	return page, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	return f.client.Close()
}
