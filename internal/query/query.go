package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned for an empty query or a malformed year range.
var ErrInvalid = errors.New("invalid input")

// Combinator decides how multiple keyword terms are joined.
type Combinator string

const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// ParseCombinator accepts "AND" or "OR" in any case.
func ParseCombinator(s string) (Combinator, error) {
	switch Combinator(strings.ToUpper(strings.TrimSpace(s))) {
	case And, "":
		return And, nil
	case Or:
		return Or, nil
	}
	return "", fmt.Errorf("%w: unknown combinator %q (want AND or OR)", ErrInvalid, s)
}

// Query is an immutable list of keyword terms and the combinator joining them.
type Query struct {
	terms      []string
	combinator Combinator
}

// New builds a Query. Blank terms are dropped; Validate reports an empty result.
func New(terms []string, c Combinator) Query {
	kept := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	if c == "" {
		c = And
	}
	return Query{terms: kept, combinator: c}
}

// Terms returns a copy of the keyword terms.
func (q Query) Terms() []string {
	out := make([]string, len(q.terms))
	copy(out, q.terms)
	return out
}

func (q Query) Combinator() Combinator { return q.combinator }

// Validate fails when the query has no terms or an unknown combinator.
func (q Query) Validate() error {
	if len(q.terms) == 0 {
		return fmt.Errorf("%w: at least one keyword is required", ErrInvalid)
	}
	if q.combinator != And && q.combinator != Or {
		return fmt.Errorf("%w: unknown combinator %q", ErrInvalid, q.combinator)
	}
	return nil
}

// Expression renders the terms in the provider's query syntax. AND is the
// provider's implicit behaviour, so terms are simply space separated.
func (q Query) Expression() string {
	if q.combinator == Or {
		return strings.Join(q.terms, " OR ")
	}
	return strings.Join(q.terms, " ")
}

// String is the human readable form used in titles and logs.
func (q Query) String() string {
	return strings.Join(q.terms, " ")
}

// YearRange is the inclusive span [Since, To].
type YearRange struct {
	Since int
	To    int
}

// Validate enforces Since <= To with both years positive.
func (r YearRange) Validate() error {
	if r.Since <= 0 || r.To <= 0 {
		return fmt.Errorf("%w: years must be positive, got %d-%d", ErrInvalid, r.Since, r.To)
	}
	if r.Since > r.To {
		return fmt.Errorf("%w: start year %d is after end year %d", ErrInvalid, r.Since, r.To)
	}
	return nil
}

// Len is the number of years in the range, or 0 if the range is invalid.
func (r YearRange) Len() int {
	if r.Since > r.To {
		return 0
	}
	return r.To - r.Since + 1
}

// Years lists every year in ascending order.
func (r YearRange) Years() []int {
	years := make([]int, 0, r.Len())
	for y := r.Since; y <= r.To; y++ {
		years = append(years, y)
	}
	return years
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.Since, r.To)
}
