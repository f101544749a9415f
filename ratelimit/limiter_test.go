package ratelimit

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestSecondRequestInWindowIsBlocked(t *testing.T) {
	clock := newClock()
	l := newWithClock(Config{MaxRequests: 1, Window: time.Second, Block: 2 * time.Second}, clock.Now)

	if d := l.Allow(7); !d.Allowed {
		t.Fatalf("expected first request to be allowed")
	}
	clock.Advance(100 * time.Millisecond)
	d := l.Allow(7)
	if d.Allowed {
		t.Fatalf("expected second request to be blocked")
	}
	if d.RetryAfter != 2*time.Second {
		t.Fatalf("expected retry after 2s, got %v", d.RetryAfter)
	}
}

func TestBlockHoldsUntilExpiry(t *testing.T) {
	clock := newClock()
	l := newWithClock(Config{MaxRequests: 1, Window: time.Second, Block: 2 * time.Second}, clock.Now)

	l.Allow(7)
	l.Allow(7)

	clock.Advance(1500 * time.Millisecond)
	d := l.Allow(7)
	if d.Allowed {
		t.Fatalf("expected request during block to be refused")
	}
	if d.RetryAfter != 500*time.Millisecond {
		t.Fatalf("expected 500ms remaining, got %v", d.RetryAfter)
	}

	clock.Advance(500 * time.Millisecond)
	if d := l.Allow(7); !d.Allowed {
		t.Fatalf("expected request after block to be allowed")
	}
}

func TestWindowSlides(t *testing.T) {
	clock := newClock()
	l := newWithClock(Config{MaxRequests: 2, Window: time.Second, Block: time.Second}, clock.Now)

	l.Allow(1)
	clock.Advance(600 * time.Millisecond)
	if !l.Allow(1).Allowed {
		t.Fatalf("expected second request within limit")
	}
	clock.Advance(500 * time.Millisecond)
	if !l.Allow(1).Allowed {
		t.Fatalf("expected first timestamp to have slid out of the window")
	}
}

func TestUsersAreIndependent(t *testing.T) {
	clock := newClock()
	l := newWithClock(Config{}, clock.Now)

	if !l.Allow(1).Allowed || !l.Allow(2).Allowed {
		t.Fatalf("expected distinct users to be allowed")
	}
	if l.Allow(1).Allowed {
		t.Fatalf("expected user 1 to be blocked")
	}
}

func TestInvalidConfigFallsBackToDefaults(t *testing.T) {
	l := New(Config{MaxRequests: -3, Window: 0})
	cfg := l.Config()
	if cfg.MaxRequests != DefaultMaxRequests || cfg.Window != DefaultWindow || cfg.Block != DefaultBlock {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestReset(t *testing.T) {
	clock := newClock()
	l := newWithClock(Config{}, clock.Now)
	l.Allow(1)
	l.Allow(1)
	l.Reset()
	if !l.Allow(1).Allowed {
		t.Fatalf("expected reset to clear blocks")
	}
}

func TestConcurrentAllowAdmitsExactlyLimit(t *testing.T) {
	clock := newClock()
	l := newWithClock(Config{MaxRequests: 3, Window: time.Minute, Block: time.Minute}, clock.Now)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(9).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 3 {
		t.Fatalf("expected 3 admitted requests, got %d", allowed)
	}
}
