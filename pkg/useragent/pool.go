package useragent

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
)

// DefaultPool holds current desktop browser User-Agents. Scholar serves the
// full results page only to browsers it recognises.
var DefaultPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.7; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
}

// Strategy decides how Next walks the pool.
type Strategy string

const (
	// Sticky always returns the same User-Agent, picked once at random.
	// One run then looks like one browser across all years.
	Sticky     Strategy = "sticky"
	Sequential Strategy = "sequential"
	Random     Strategy = "random"
)

// ParseStrategy accepts the names above; "" means Sticky.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return Sticky, nil
	case Sticky, Sequential, Random:
		return st, nil
	}
	return "", fmt.Errorf("useragent: unknown strategy %q", s)
}

// Pool is a set of User-Agents handed out according to a Strategy.
// It is safe for concurrent use.
type Pool struct {
	uas      []string
	strategy Strategy
	counter  atomic.Uint64
	sticky   string
}

// NewPool creates a pool. An empty slice falls back to DefaultPool and an
// empty strategy to Sticky.
func NewPool(uas []string, strategy Strategy) *Pool {
	if len(uas) == 0 {
		uas = DefaultPool
	}
	copied := make([]string, len(uas))
	copy(copied, uas)
	if strategy == "" {
		strategy = Sticky
	}
	p := &Pool{uas: copied, strategy: strategy}
	if strategy == Sticky {
		p.sticky = p.GetRandom()
	}
	return p
}

// Next returns a User-Agent according to the pool's strategy.
func (p *Pool) Next() string {
	switch p.strategy {
	case Sequential:
		return p.GetSequential()
	case Random:
		return p.GetRandom()
	default:
		return p.sticky
	}
}

// GetSequential returns the next User-Agent in round-robin order.
func (p *Pool) GetSequential() string {
	if len(p.uas) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// GetRandom returns a random User-Agent using crypto/rand.
func (p *Pool) GetRandom() string {
	if len(p.uas) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.uas))))
	if err != nil {
		return p.GetSequential()
	}
	return p.uas[n.Int64()]
}

// GetAll returns a copy of the pool.
func (p *Pool) GetAll() []string {
	copied := make([]string, len(p.uas))
	copy(copied, p.uas)
	return copied
}
