// Package probe checks that the provider is reachable and that its result
// pages still parse, without counting a whole year range.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/scholartrend/internal/bypass"
	"github.com/FranksOps/scholartrend/internal/parser"
	"github.com/FranksOps/scholartrend/internal/query"
	"github.com/FranksOps/scholartrend/internal/trend"
	"github.com/PuerkitoBio/goquery"
)

// DefaultKeyword is searched when none is given.
const DefaultKeyword = "Tungsten"

// HomeSelector is the search input of the landing page. The home step only
// succeeds when it is present.
const HomeSelector = "#gs_hdr_tsi"

// WaitingFetcher is implemented by fetchers that can wait for a specific
// element, such as the headless browser.
type WaitingFetcher interface {
	FetchWaiting(ctx context.Context, url, selector string) (*trend.Page, error)
}

// Step is the outcome of one request of the check.
type Step struct {
	URL        string
	Reachable  bool
	StatusCode int
	Kind       trend.Kind
	Err        error
	Duration   time.Duration
}

// Result is the outcome of a full check.
type Result struct {
	Home   Step
	Search Step
	// Count is the result count of the search page, when it parsed.
	Count  int
	Titles []string
}

// OK reports whether both pages were fetched and the search page parsed.
func (r Result) OK() bool {
	return r.Home.Err == nil && r.Search.Err == nil
}

// Config wires the check.
type Config struct {
	Fetcher  trend.PageFetcher
	Provider query.Provider
	// Parser classifies the search page. Defaults to parser.New with no entries.
	Parser trend.ResultParser
	Logger *slog.Logger
}

// Run fetches the provider home page and a plain search for keyword.
// Failures are reported in the Result; the returned error is only set for
// an invalid keyword or a cancelled context.
func Run(ctx context.Context, cfg Config, keyword string) (Result, error) {
	if cfg.Fetcher == nil {
		return Result{}, errors.New("probe: fetcher is required")
	}
	if cfg.Parser == nil {
		cfg.Parser = parser.New(parser.Config{})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	q := query.New([]string{keyword}, query.And)
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	var res Result

	homePage, home := fetch(ctx, cfg, cfg.Provider.HomeURL(), true)
	if home.Err == nil {
		if kind, err := checkHome(homePage); err != nil {
			home.Kind = kind
			home.Err = err
		}
	}
	res.Home = home
	if err := ctx.Err(); err != nil {
		return res, err
	}
	cfg.Logger.Info("home page checked", "url", home.URL, "reachable", home.Reachable, "status", home.StatusCode, "err", home.Err)

	searchPage, search := fetch(ctx, cfg, cfg.Provider.SearchURL(q), false)
	if err := ctx.Err(); err != nil {
		res.Search = search
		return res, err
	}

	if search.Err == nil {
		ext, err := cfg.Parser.Parse(searchPage)
		if err != nil {
			search.Err = err
			search.Kind = classify(err)
		} else {
			res.Count = ext.TotalCount
		}

		titles, err := parser.Titles(searchPage.Body)
		if err != nil {
			cfg.Logger.Warn("titles not parsed", "err", err)
		}
		res.Titles = titles
	}
	res.Search = search
	cfg.Logger.Info("search page checked", "url", search.URL, "reachable", search.Reachable, "titles", len(res.Titles), "kind", search.Kind, "err", search.Err)

	return res, nil
}

func fetch(ctx context.Context, cfg Config, url string, home bool) (*trend.Page, Step) {
	step := Step{URL: url}
	start := time.Now()

	var (
		page *trend.Page
		err  error
	)
	if wf, ok := cfg.Fetcher.(WaitingFetcher); ok && home {
		page, err = wf.FetchWaiting(ctx, url, HomeSelector)
	} else {
		page, err = cfg.Fetcher.Fetch(ctx, url)
	}
	step.Duration = time.Since(start)

	if err != nil {
		step.Err = err
		step.Kind = trend.KindFetch

		var fe *trend.FetchError
		if errors.As(err, &fe) && fe.Page != nil {
			step.Reachable = true
			step.StatusCode = fe.Page.StatusCode
			if _, perr := cfg.Parser.Parse(fe.Page); errors.Is(perr, trend.ErrRateLimited) {
				step.Kind = trend.KindRateLimited
				step.Err = fmt.Errorf("%w: %w", perr, err)
			}
		}
		return nil, step
	}

	step.Reachable = true
	step.StatusCode = page.StatusCode
	return page, step
}

// checkHome fails a landing page that is a bot wall or lacks the search
// input.
func checkHome(page *trend.Page) (trend.Kind, error) {
	if detected, src := bypass.Analyze(page, bypass.DefaultDetectors()); detected {
		return trend.KindRateLimited, fmt.Errorf("%w: %s anti-automation page", trend.ErrRateLimited, src)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return trend.KindParse, fmt.Errorf("%w: %v", trend.ErrParseFailure, err)
	}
	if doc.Find(HomeSelector).Length() == 0 {
		return trend.KindParse, fmt.Errorf("%w: search input %s not found", trend.ErrParseFailure, HomeSelector)
	}
	return "", nil
}

func classify(err error) trend.Kind {
	switch {
	case errors.Is(err, trend.ErrRateLimited):
		return trend.KindRateLimited
	case errors.Is(err, trend.ErrParseFailure):
		return trend.KindParse
	default:
		return trend.KindFetch
	}
}
