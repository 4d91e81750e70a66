package trend

import (
	"errors"
	"fmt"

	"github.com/FranksOps/scholartrend/internal/query"
)

var (
	// ErrInvalidInput is returned before any fetch for an empty query or bad range.
	ErrInvalidInput = query.ErrInvalid
	// ErrFetchFailure covers network errors, timeouts, driver errors and non-2xx responses.
	ErrFetchFailure = errors.New("fetch failure")
	// ErrParseFailure means the page arrived but carried no result count.
	ErrParseFailure = errors.New("parse failure")
	// ErrRateLimited means the provider answered with an anti-automation page.
	ErrRateLimited = errors.New("rate limited")
)

// Kind classifies a degraded year.
type Kind string

const (
	KindFetch       Kind = "fetch_failure"
	KindParse       Kind = "parse_failure"
	KindRateLimited Kind = "rate_limited"
)

func (k Kind) sentinel() error {
	switch k {
	case KindParse:
		return ErrParseFailure
	case KindRateLimited:
		return ErrRateLimited
	default:
		return ErrFetchFailure
	}
}

// Hint is the remediation shown next to a diagnostic of this kind.
func (k Kind) Hint() string {
	switch k {
	case KindRateLimited:
		return "the provider is throttling this client; increase the delay or change network identity"
	case KindParse:
		return "no result count on the page; the provider markup may have changed"
	default:
		return "check connectivity and the fetch timeout"
	}
}

// YearError is the typed failure recorded for a degraded year. It matches
// its kind sentinel and its cause with errors.Is.
type YearError struct {
	Year int
	Kind Kind
	URL  string
	Err  error
}

func (e *YearError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("year %d: %s", e.Year, e.Kind)
	}
	return fmt.Sprintf("year %d: %s: %v", e.Year, e.Kind, e.Err)
}

func (e *YearError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// FetchError is returned by fetchers when a request failed. Page is set
// when a response was received anyway (non-2xx status, or a browser wait
// that timed out on some other document) so it can still be classified.
type FetchError struct {
	URL  string
	Page *Page
	Err  error
}

func (e *FetchError) Error() string {
	if e.Page != nil && e.Page.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Page.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
