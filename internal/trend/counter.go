package trend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/scholartrend/internal/query"
)

// URLBuilder turns a query and a single year into a request URL.
type URLBuilder interface {
	YearURL(q query.Query, year int) string
}

// Config wires the capabilities a Counter depends on.
type Config struct {
	Fetcher PageFetcher
	Parser  ResultParser
	URLs    URLBuilder
	// Pacer runs between years. Nil means no delay.
	Pacer  Pacer
	Logger *slog.Logger
	// OnYear, if set, is called after each year is appended.
	OnYear func(YearResult)
}

// Counter samples the result count of a query for every year of a range.
type Counter struct {
	cfg    Config
	logger *slog.Logger
}

// NewCounter returns a Counter. Fetcher, Parser and URLs are required.
func NewCounter(cfg Config) (*Counter, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("counter: fetcher is nil")
	}
	if cfg.Parser == nil {
		return nil, errors.New("counter: parser is nil")
	}
	if cfg.URLs == nil {
		return nil, errors.New("counter: url builder is nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Counter{cfg: cfg, logger: logger}, nil
}

// Count fetches and parses one page per year, sequentially and in
// ascending order. Per-year failures degrade to a zero record and never
// abort the range. Invalid input fails before anything is fetched; a
// cancelled context aborts the run and discards partial results.
func (c *Counter) Count(ctx context.Context, q query.Query, r query.YearRange) (ResultSet, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	results := make(ResultSet, 0, r.Len())
	for year := r.Since; year <= r.To; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := c.countYear(ctx, q, year)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
		if c.cfg.OnYear != nil {
			c.cfg.OnYear(res)
		}

		if year < r.To && c.cfg.Pacer != nil {
			if err := c.cfg.Pacer.Wait(ctx); err != nil {
				return nil, fmt.Errorf("pacing after %d: %w", year, err)
			}
		}
	}
	return results, nil
}

// countYear returns an error only when ctx was cancelled.
func (c *Counter) countYear(ctx context.Context, q query.Query, year int) (YearResult, error) {
	target := c.cfg.URLs.YearURL(q, year)
	start := time.Now()

	page, err := c.cfg.Fetcher.Fetch(ctx, target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return YearResult{}, ctxErr
		}
		kind := KindFetch
		var fe *FetchError
		if errors.As(err, &fe) && fe.Page != nil {
			if _, perr := c.cfg.Parser.Parse(fe.Page); errors.Is(perr, ErrRateLimited) {
				kind = KindRateLimited
				err = fmt.Errorf("%w (%v)", perr, err)
			}
		}
		return c.degrade(year, target, kind, err, time.Since(start)), nil
	}

	ext, err := c.cfg.Parser.Parse(page)
	if err != nil {
		kind := KindParse
		if errors.Is(err, ErrRateLimited) {
			kind = KindRateLimited
		}
		return c.degrade(year, target, kind, err, time.Since(start)), nil
	}

	entries := ext.Entries
	if entries == nil {
		entries = []string{}
	}
	elapsed := time.Since(start)
	c.logger.Info("year counted", "year", year, "total", ext.TotalCount, "entries", len(entries), "elapsed", elapsed)
	return YearResult{Year: year, TotalCount: ext.TotalCount, Entries: entries, Elapsed: elapsed}, nil
}

func (c *Counter) degrade(year int, target string, kind Kind, cause error, elapsed time.Duration) YearResult {
	ye := &YearError{Year: year, Kind: kind, URL: target, Err: cause}
	c.logger.Warn("year degraded", "year", year, "kind", string(kind), "url", target, "err", cause, "hint", kind.Hint())
	return YearResult{Year: year, Entries: []string{}, Err: ye, Elapsed: elapsed}
}
