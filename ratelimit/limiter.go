// Package ratelimit gates inbound command invocations per user with a sliding
// window and a cooldown block.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults used when a configured value is missing or not positive.
const (
	DefaultMaxRequests = 1
	DefaultWindow      = 1000 * time.Millisecond
	DefaultBlock       = 2000 * time.Millisecond
)

// Config holds the limiter tunables.
type Config struct {
	MaxRequests int
	Window      time.Duration
	Block       time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Block <= 0 {
		c.Block = DefaultBlock
	}
	return c
}

// Decision is the outcome of one Allow call. RetryAfter is set when the
// request was refused.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type userState struct {
	requests     []time.Time
	blockedUntil time.Time
}

// Limiter is an in-memory, single-process limiter keyed by user id. State
// lives for the lifetime of the Limiter.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu    sync.Mutex
	users map[int64]*userState
}

// New creates a limiter using the real clock.
func New(cfg Config) *Limiter {
	return newWithClock(cfg, time.Now)
}

func newWithClock(cfg Config, now func() time.Time) *Limiter {
	return &Limiter{
		cfg:   cfg.withDefaults(),
		now:   now,
		users: make(map[int64]*userState),
	}
}

// Config returns the effective configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Allow records a request from user and reports whether it may proceed.
// Reading and updating the user's state happen under one lock.
func (l *Limiter) Allow(user int64) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.users[user]
	if !ok {
		st = &userState{}
		l.users[user] = st
	}

	if st.blockedUntil.After(now) {
		return Decision{RetryAfter: st.blockedUntil.Sub(now)}
	}

	cutoff := now.Add(-l.cfg.Window)
	kept := st.requests[:0]
	for _, ts := range st.requests {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	st.requests = kept

	if len(st.requests) >= l.cfg.MaxRequests {
		st.blockedUntil = now.Add(l.cfg.Block)
		return Decision{RetryAfter: l.cfg.Block}
	}

	st.requests = append(st.requests, now)
	return Decision{Allowed: true}
}

// Reset forgets all per-user state.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.users = make(map[int64]*userState)
	l.mu.Unlock()
}
