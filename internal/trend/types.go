package trend

import (
	"context"
	"errors"
	"time"
)

// Page is the raw content returned by a PageFetcher.
type Page struct {
	ID         string
	URL        string
	StatusCode int
	Headers    map[string][]string
	Body       []byte
	FetchedAt  time.Time
	Duration   time.Duration
}

// Extraction is what a ResultParser pulls out of a page.
type Extraction struct {
	TotalCount int
	Entries    []string
}

// PageFetcher retrieves raw page content for a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// ResultParser extracts the result count and optional entries from a page.
// It returns an error wrapping ErrParseFailure or ErrRateLimited when no
// count is present.
type ResultParser interface {
	Parse(page *Page) (Extraction, error)
}

// Pacer blocks between consecutive years.
type Pacer interface {
	Wait(ctx context.Context) error
}

// YearResult is one row of a ResultSet.
type YearResult struct {
	Year       int
	TotalCount int
	Entries    []string
	// Err is nil for a healthy year, otherwise a *YearError.
	Err     error
	Elapsed time.Duration
}

// Degraded reports whether the year failed and carries zero/empty values.
func (r YearResult) Degraded() bool { return r.Err != nil }

// Kind returns the failure kind, or "" for a healthy year.
func (r YearResult) Kind() Kind {
	var ye *YearError
	if errors.As(r.Err, &ye) {
		return ye.Kind
	}
	return ""
}

// ResultSet holds one YearResult per year in ascending year order.
type ResultSet []YearResult

func (rs ResultSet) Years() []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.Year
	}
	return out
}

func (rs ResultSet) Counts() []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.TotalCount
	}
	return out
}

// Failures counts degraded years per kind.
func (rs ResultSet) Failures() map[Kind]int {
	out := make(map[Kind]int)
	for _, r := range rs {
		if k := r.Kind(); k != "" {
			out[k]++
		}
	}
	return out
}

// Degraded returns the degraded years in order.
func (rs ResultSet) Degraded() []YearResult {
	var out []YearResult
	for _, r := range rs {
		if r.Degraded() {
			out = append(out, r)
		}
	}
	return out
}

// HasEntries reports whether any year carries scraped entries.
func (rs ResultSet) HasEntries() bool {
	for _, r := range rs {
		if len(r.Entries) > 0 {
			return true
		}
	}
	return false
}
