package cli

import (
	"context"
	"fmt"

	"github.com/FranksOps/scholartrend/internal/config"
	"github.com/FranksOps/scholartrend/internal/fingerprint"
	"github.com/FranksOps/scholartrend/internal/scraper"
	"github.com/FranksOps/scholartrend/internal/trend"
	"github.com/FranksOps/scholartrend/pkg/useragent"
)

// sessionFetcher is a PageFetcher holding a session that must be released.
type sessionFetcher interface {
	trend.PageFetcher
	Close() error
}

// newFetcher builds the configured fetcher. Start-up failures, such as a
// missing Chrome, are returned here and abort the run.
func (a *app) newFetcher(ctx context.Context) (sessionFetcher, error) {
	strategy, err := useragent.ParseStrategy(a.cfg.UAStrategy)
	if err != nil {
		return nil, err
	}
	pool := useragent.NewPool(nil, strategy)

	switch a.cfg.Fetcher {
	case config.FetcherBrowser:
		b, err := scraper.NewBrowser(ctx, scraper.BrowserConfig{
			WaitSelector: a.cfg.WaitSelector,
			WaitTimeout:  a.cfg.Timeout,
			ShowWindow:   a.cfg.ShowBrowser,
			ExecPath:     a.cfg.ChromePath,
			UAPool:       pool,
			Logger:       a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("browser fetcher: %w", err)
		}
		return b, nil

	default:
		profile, err := fingerprint.ParseProfile(a.cfg.Fingerprint)
		if err != nil {
			return nil, err
		}
		f, err := scraper.NewFetcher(scraper.FetchConfig{
			Timeout:       a.cfg.Timeout,
			UseCookieJar:  a.cfg.Cookies,
			UAPool:        pool,
			Fingerprint:   profile,
			RespectRobots: a.cfg.RespectRobots,
			Logger:        a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("http fetcher: %w", err)
		}
		return f, nil
	}
}
