// Package ratelimit provides token bucket rate limiting for MCP tools.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Bucket is a token bucket. It starts full and refills continuously at
// rate tokens per second up to burst. It is safe for concurrent use.
type Bucket struct {
	mu      sync.Mutex
	rate    float64
	burst   float64
	tokens  float64
	last    time.Time
	nowFunc func() time.Time
}

// NewBucket creates a full bucket.
func NewBucket(rate float64, burst int) *Bucket {
	return newBucket(rate, burst, time.Now)
}

func newBucket(rate float64, burst int, now func() time.Time) *Bucket {
	return &Bucket{
		rate:    rate,
		burst:   float64(burst),
		tokens:  float64(burst),
		last:    now(),
		nowFunc: now,
	}
}

// Allow takes one token if available.
func (b *Bucket) Allow() bool { return b.AllowN(1) }

// AllowN takes n tokens if at least n are available. A cost larger than the
// burst is never allowed.
func (b *Bucket) AllowN(n float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.burst, b.tokens+b.rate*elapsed)
		b.last = now
	}

	if b.tokens < n {
		return false
	}
	b.tokens -= n
	return true
}

// LimitError reports a rejected tool call.
type LimitError struct {
	Tool string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, please try again shortly", e.Tool)
}

// Tools maps tool names to their buckets. Tools without a bucket are
// unlimited.
type Tools map[string]*Bucket

// NewTools creates the default per-tool limits. Elections are the only
// expensive call; journal reads are cheap.
func NewTools() Tools {
	return Tools{
		"bionet_elect":      NewBucket(30.0/60.0, 5), // 30/minute, burst 5
		"bionet_runs":       NewBucket(1.0, 10),      // 60/minute, burst 10
		"bionet_run":        NewBucket(1.0, 10),      // 60/minute, burst 10
		"bionet_delete_run": NewBucket(10.0/60.0, 3), // 10/minute, burst 3
	}
}

// Check charges one token to tool.
func (t Tools) Check(tool string) error { return t.CheckN(tool, 1) }

// CheckN charges cost tokens to tool and returns a *LimitError if the
// bucket cannot cover it.
func (t Tools) CheckN(tool string, cost float64) error {
	b, ok := t[tool]
	if !ok {
		return nil
	}
	if !b.AllowN(cost) {
		return &LimitError{Tool: tool}
	}
	return nil
}
