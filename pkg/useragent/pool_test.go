package useragent

import (
	"sync"
	"testing"
)

func TestPool_Sequential(t *testing.T) {
	p := NewPool([]string{"A", "B", "C"}, Sequential)

	for _, want := range []string{"A", "B", "C", "A"} {
		if got := p.Next(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestPool_StickyIsStable(t *testing.T) {
	p := NewPool([]string{"A", "B", "C"}, "")

	first := p.Next()
	if first == "" {
		t.Fatalf("expected a user agent")
	}
	for i := 0; i < 20; i++ {
		if got := p.Next(); got != first {
			t.Fatalf("sticky pool changed from %s to %s", first, got)
		}
	}
}

func TestPool_Default(t *testing.T) {
	p := NewPool(nil, Sequential)
	if len(p.GetAll()) != len(DefaultPool) {
		t.Errorf("expected pool length %d, got %d", len(DefaultPool), len(p.GetAll()))
	}
	if got := p.Next(); got != DefaultPool[0] {
		t.Errorf("expected %s, got %s", DefaultPool[0], got)
	}
}

func TestPool_Random(t *testing.T) {
	p := NewPool([]string{"A", "B"}, Random)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		got := p.Next()
		if got != "A" && got != "B" {
			t.Fatalf("unexpected UA: %s", got)
		}
		seen[got] = true
	}
	if !seen["A"] || !seen["B"] {
		t.Errorf("expected to see both A and B, got %v", seen)
	}
}

func TestPool_ConcurrentSequential(t *testing.T) {
	uas := []string{"X", "Y", "Z"}
	p := NewPool(uas, Sequential)

	var wg sync.WaitGroup
	const routines = 50
	const iterations = 300

	results := make(chan string, routines*iterations)
	for i := 0; i < routines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				results <- p.Next()
			}
		}()
	}
	wg.Wait()
	close(results)

	counts := map[string]int{}
	for r := range results {
		counts[r]++
	}
	want := routines * iterations / len(uas)
	for _, ua := range uas {
		if counts[ua] != want {
			t.Errorf("expected %d hits for %s, got %d", want, ua, counts[ua])
		}
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy("RANDOM"); err != nil || s != Random {
		t.Errorf("expected random, got %q %v", s, err)
	}
	if s, err := ParseStrategy(""); err != nil || s != Sticky {
		t.Errorf("expected sticky default, got %q %v", s, err)
	}
	if _, err := ParseStrategy("rotate-everything"); err == nil {
		t.Errorf("expected error for unknown strategy")
	}
}

func TestPool_Empty(t *testing.T) {
	p := &Pool{uas: []string{}, strategy: Random}

	if got := p.GetSequential(); got != "" {
		t.Errorf("expected empty string on empty sequential, got %s", got)
	}
	if got := p.Next(); got != "" {
		t.Errorf("expected empty string on empty random, got %s", got)
	}
}
