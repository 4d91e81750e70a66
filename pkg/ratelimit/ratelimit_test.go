package ratelimit

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestDelay_ZeroDoesNotBlock(t *testing.T) {
	var d Delay

	start := time.Now()
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("zero delay should not block")
	}
}

func TestDelay_Fixed(t *testing.T) {
	d := Fixed(time.Second)
	for i := 0; i < 5; i++ {
		if got := d.Next(); got != time.Second {
			t.Fatalf("expected 1s, got %v", got)
		}
	}
}

func TestDelay_UniformBounds(t *testing.T) {
	d, err := Uniform(100*time.Millisecond, 300*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 1000; i++ {
		got := d.Next()
		if got < d.Min || got > d.Max {
			t.Fatalf("draw %v outside [%v, %v]", got, d.Min, d.Max)
		}
	}
}

func TestDelay_UniformEdges(t *testing.T) {
	d, _ := Uniform(time.Second, 2*time.Second)

	d.rand = func(n int64) int64 { return 0 }
	if got := d.Next(); got != time.Second {
		t.Errorf("expected min, got %v", got)
	}

	d.rand = func(n int64) int64 { return n - 1 }
	if got := d.Next(); got != 2*time.Second {
		t.Errorf("expected max, got %v", got)
	}
}

func TestDelay_FullRangeSpan(t *testing.T) {
	d, err := Uniform(0, time.Duration(math.MaxInt64))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var span int64
	d.rand = func(n int64) int64 {
		span = n
		return n - 1
	}
	if got := d.Next(); got != time.Duration(math.MaxInt64-1) {
		t.Errorf("expected max-1, got %v", got)
	}
	if span != math.MaxInt64 {
		t.Errorf("expected span clamped to MaxInt64, got %d", span)
	}

	d.rand = nil
	if got := d.Next(); got < 0 {
		t.Errorf("expected non-negative draw, got %v", got)
	}
}

func TestUniform_Rejects(t *testing.T) {
	if _, err := Uniform(2*time.Second, time.Second); err == nil {
		t.Errorf("expected error for max < min")
	}
	if _, err := Uniform(-time.Second, time.Second); err == nil {
		t.Errorf("expected error for negative min")
	}
}

func TestDelay_WaitUsesDraw(t *testing.T) {
	var slept time.Duration
	d := &Delay{
		Min:  time.Second,
		Max:  3 * time.Second,
		rand: func(n int64) int64 { return int64(time.Second) },
		sleep: func(ctx context.Context, dur time.Duration) error {
			slept = dur
			return nil
		},
	}
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != 2*time.Second {
		t.Errorf("expected 2s sleep, got %v", slept)
	}
}

func TestDelay_Wait(t *testing.T) {
	d := Fixed(50 * time.Millisecond)

	start := time.Now()
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if took := time.Since(start); took < 40*time.Millisecond || took > 500*time.Millisecond {
		t.Errorf("expected wait around 50ms, took %v", took)
	}
}

func TestDelay_ContextCancellation(t *testing.T) {
	d := Fixed(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Wait(ctx); err == nil {
		t.Fatalf("expected context canceled error")
	}
}
