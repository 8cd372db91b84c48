package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock returns a bucket driven by a manually advanced clock.
func fakeClock(rate float64, burst int) (*Bucket, func(time.Duration)) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(rate, burst, func() time.Time { return now })
	return b, func(d time.Duration) { now = now.Add(d) }
}

func TestBucket_Burst(t *testing.T) {
	b, _ := fakeClock(1.0, 3)
	for i := 0; i < 3; i++ {
		if !b.Allow() {
			t.Errorf("request %d should be allowed (within burst)", i+1)
		}
	}
	if b.Allow() {
		t.Error("request after burst exhaustion should be rejected")
	}
}

func TestBucket_Refill(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		burst   int
		used    int
		advance time.Duration
		allowed int
	}{
		{"full refill", 10, 2, 2, 200 * time.Millisecond, 2},
		{"partial refill", 2, 5, 5, 250 * time.Millisecond, 0},
		{"one token back", 2, 5, 5, 500 * time.Millisecond, 1},
		{"capped at burst", 100, 3, 3, 10 * time.Second, 3},
		{"zero rate never refills", 0, 2, 2, time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, advance := fakeClock(tt.rate, tt.burst)
			for i := 0; i < tt.used; i++ {
				b.Allow()
			}
			advance(tt.advance)

			got := 0
			for b.Allow() {
				got++
			}
			if got != tt.allowed {
				t.Errorf("allowed %d after refill, want %d", got, tt.allowed)
			}
		})
	}
}

func TestBucket_AllowN(t *testing.T) {
	b, _ := fakeClock(0, 5)
	if !b.AllowN(3) {
		t.Error("cost 3 of 5 should be allowed")
	}
	if b.AllowN(3) {
		t.Error("cost 3 of remaining 2 should be rejected")
	}
	if !b.AllowN(2) {
		t.Error("cost 2 of remaining 2 should be allowed")
	}
	if NewBucket(1, 2).AllowN(3) {
		t.Error("cost above burst should never be allowed")
	}
}

func TestBucket_ConcurrentAccess(t *testing.T) {
	b, _ := fakeClock(0, 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 100 {
		t.Errorf("allowed %d requests, want exactly 100 with a frozen clock", allowed)
	}
}

func TestNewTools(t *testing.T) {
	tools := NewTools()
	for _, name := range []string{"bionet_elect", "bionet_runs", "bionet_run", "bionet_delete_run"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing rate limiter for tool: %s", name)
		}
	}
}

func TestTools_Check(t *testing.T) {
	b, _ := fakeClock(0, 1)
	tools := Tools{"bionet_elect": b}

	if err := tools.Check("bionet_elect"); err != nil {
		t.Fatalf("first call rejected: %v", err)
	}
	err := tools.Check("bionet_elect")
	var limitErr *LimitError
	if !errors.As(err, &limitErr) || limitErr.Tool != "bionet_elect" {
		t.Fatalf("expected LimitError for bionet_elect, got %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := tools.Check("unlimited_tool"); err != nil {
			t.Errorf("tool without a bucket should be unlimited, got %v", err)
		}
	}
}

func TestTools_CheckN(t *testing.T) {
	b, _ := fakeClock(0, 5)
	tools := Tools{"bionet_elect": b}
	if err := tools.CheckN("bionet_elect", 4); err != nil {
		t.Fatalf("cost 4 rejected: %v", err)
	}
	if err := tools.CheckN("bionet_elect", 2); err == nil {
		t.Error("cost 2 with 1 token left should be rejected")
	}
}
