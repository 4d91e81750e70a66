package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the Google Scholar front end.
const DefaultBaseURL = "https://scholar.google.com"

// Provider builds request URLs for a Scholar-compatible front end.
//
// A single year Y is always requested as the closed interval [Y, Y]
// (as_ylo=Y&as_yhi=Y), so adjacent years never overlap.
type Provider struct {
	BaseURL string
	// Language is sent as the hl parameter when set. The count pattern
	// expects English result headers.
	Language string
}

// NewProvider validates baseURL and strips any trailing slash.
func NewProvider(baseURL string) (Provider, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return Provider{}, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Provider{}, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	return Provider{BaseURL: strings.TrimRight(baseURL, "/"), Language: "en"}, nil
}

// HomeURL is the provider landing page.
func (p Provider) HomeURL() string {
	return p.base() + "/"
}

// SearchURL is a plain keyword search without a year filter.
func (p Provider) SearchURL(q Query) string {
	v := url.Values{}
	v.Set("q", q.Expression())
	p.lang(v)
	return p.base() + "/scholar?" + v.Encode()
}

// YearURL is the search restricted to publications from year.
func (p Provider) YearURL(q Query, year int) string {
	y := strconv.Itoa(year)
	v := url.Values{}
	v.Set("q", q.Expression())
	v.Set("as_ylo", y)
	v.Set("as_yhi", y)
	p.lang(v)
	return p.base() + "/scholar?" + v.Encode()
}

func (p Provider) base() string {
	if p.BaseURL == "" {
		return DefaultBaseURL
	}
	return p.BaseURL
}

func (p Provider) lang(v url.Values) {
	if p.Language != "" {
		v.Set("hl", p.Language)
	}
}
