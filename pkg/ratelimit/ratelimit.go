package ratelimit

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Delay sleeps between consecutive requests. With Max <= Min it is a fixed
// sleep of Min; otherwise each wait is drawn uniformly from [Min, Max].
// The zero value does not block.
type Delay struct {
	Min time.Duration
	Max time.Duration

	// rand returns a value in [0, n). Tests replace it.
	rand func(n int64) int64
	// sleep blocks for d or until ctx is done. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// Fixed returns a Delay that always waits d.
func Fixed(d time.Duration) *Delay {
	return &Delay{Min: d, Max: d}
}

// Uniform returns a Delay drawing each wait from [min, max].
func Uniform(min, max time.Duration) (*Delay, error) {
	if min < 0 || max < 0 {
		return nil, fmt.Errorf("ratelimit: negative delay %v-%v", min, max)
	}
	if max < min {
		return nil, fmt.Errorf("ratelimit: max delay %v is below min %v", max, min)
	}
	return &Delay{Min: min, Max: max}, nil
}

// Next returns the duration of the next wait.
func (d *Delay) Next() time.Duration {
	if d == nil || d.Min <= 0 && d.Max <= 0 {
		return 0
	}
	if d.Max <= d.Min {
		return d.Min
	}
	// Inclusive of Max unless that would overflow int64.
	span := int64(d.Max - d.Min)
	if span < math.MaxInt64 {
		span++
	}
	r := d.rand
	if r == nil {
		r = rand.Int64N
	}
	return d.Min + time.Duration(r(span))
}

// Wait blocks for Next() or until the context is cancelled.
func (d *Delay) Wait(ctx context.Context) error {
	wait := d.Next()
	if wait <= 0 {
		return ctx.Err()
	}
	if d.sleep != nil {
		return d.sleep(ctx, wait)
	}
	return sleep(ctx, wait)
}

func (d *Delay) String() string {
	if d == nil || d.Max <= d.Min {
		return fmt.Sprintf("fixed %v", d.Next())
	}
	return fmt.Sprintf("uniform %v-%v", d.Min, d.Max)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
