package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/FranksOps/scholartrend/internal/trend"
	"github.com/FranksOps/scholartrend/pkg/useragent"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// DefaultResultsSelector is the Scholar results container.
const DefaultResultsSelector = "#gs_res_ccl_mid"

// BrowserConfig configures the headless browser fetcher.
type BrowserConfig struct {
	// WaitSelector must appear before the document is returned.
	WaitSelector string
	// WaitTimeout bounds navigation plus the wait for WaitSelector.
	WaitTimeout time.Duration
	// ShowWindow runs Chrome with a visible window.
	ShowWindow bool
	// ExecPath overrides Chrome discovery.
	ExecPath string
	UAPool   *useragent.Pool
	Logger   *slog.Logger
}

// Browser fetches pages through one headless Chrome tab, reused for every
// fetch until Close.
type Browser struct {
	cfg         BrowserConfig
	logger      *slog.Logger
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
	closeErr    error
}

var _ trend.PageFetcher = (*Browser)(nil)

// NewBrowser starts Chrome. A browser that cannot start is returned as an
// error here rather than as per-year fetch failures later.
func NewBrowser(ctx context.Context, cfg BrowserConfig) (*Browser, error) {
	if cfg.WaitSelector == "" {
		cfg.WaitSelector = DefaultResultsSelector
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 10 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil, useragent.Sticky)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !cfg.ShowWindow),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(cfg.UAPool.Next()),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
		}),
	)

	// The first Run allocates the browser. It must not carry a timeout or
	// the whole browser is torn down when the timeout fires.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Browser{
		cfg:         cfg,
		logger:      logger,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}, nil
}

// Fetch navigates to targetURL and waits for the results container.
func (b *Browser) Fetch(ctx context.Context, targetURL string) (*trend.Page, error) {
	return b.FetchWaiting(ctx, targetURL, b.cfg.WaitSelector)
}

// FetchWaiting navigates to targetURL and returns the rendered document
// once selector is present. On a non-2xx navigation or a wait timeout the
// error carries whatever document was rendered, so challenge pages can
// still be recognised.
func (b *Browser) FetchWaiting(ctx context.Context, targetURL, selector string) (*trend.Page, error) {
	tctx, cancel := context.WithTimeout(b.tabCtx, b.cfg.WaitTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	page := &trend.Page{
		ID:        uuid.New().String(),
		URL:       targetURL,
		FetchedAt: start.UTC(),
	}

	resp, err := chromedp.RunResponse(tctx, chromedp.Navigate(targetURL))
	if err != nil {
		return nil, &trend.FetchError{URL: targetURL, Err: fmt.Errorf("navigate: %w", err)}
	}
	if resp != nil {
		page.StatusCode = int(resp.Status)
		page.Headers = make(map[string][]string, len(resp.Headers))
		for k, v := range resp.Headers {
			page.Headers[k] = []string{fmt.Sprint(v)}
		}
	}

	if page.StatusCode != 0 && (page.StatusCode < 200 || page.StatusCode > 299) {
		page.Body = b.snapshot()
		page.Duration = time.Since(start)
		return nil, &trend.FetchError{URL: targetURL, Page: page, Err: fmt.Errorf("%w %d", ErrStatus, page.StatusCode)}
	}

	var html string
	err = chromedp.Run(tctx,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		page.Body = b.snapshot()
		page.Duration = time.Since(start)
		return nil, &trend.FetchError{URL: targetURL, Page: page, Err: fmt.Errorf("wait for %s: %w", selector, err)}
	}

	page.Body = []byte(html)
	page.Duration = time.Since(start)
	b.logger.Debug("rendered", "url", targetURL, "status", page.StatusCode, "bytes", len(page.Body), "duration", page.Duration)
	return page, nil
}

// snapshot grabs the current document with a short budget of its own,
// since the fetch context may already be expired.
func (b *Browser) snapshot() []byte {
	ctx, cancel := context.WithTimeout(b.tabCtx, 2*time.Second)
	defer cancel()

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil
	}
	return []byte(html)
}

// Close shuts the tab and the browser process. It is safe to call twice.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.tabCtx)
		b.tabCancel()
		b.allocCancel()
	})
	return b.closeErr
}
