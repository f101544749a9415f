package session

import (
	"context"
	"sync"
	"time"
)

// Reason records why a session ended.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonTimeout
	ReasonMessageDeleted
	ReasonRemoved
	ReasonStopped
)

func (r Reason) String() string {
	switch r {
	case ReasonTimeout:
		return "timeout"
	case ReasonMessageDeleted:
		return "message deleted"
	case ReasonRemoved:
		return "question removed"
	case ReasonStopped:
		return "stopped"
	default:
		return "none"
	}
}

// Lifecycle is the single teardown point of a session. Terminate may be
// called any number of times from any goroutine; cleanup runs once.
type Lifecycle struct {
	once    sync.Once
	done    chan struct{}
	cleanup func(Reason)

	mu     sync.Mutex
	reason Reason
}

// NewLifecycle returns a live lifecycle that runs cleanup on termination.
func NewLifecycle(cleanup func(Reason)) *Lifecycle {
	return &Lifecycle{done: make(chan struct{}), cleanup: cleanup}
}

// Terminate ends the lifecycle. It reports whether this call was the one
// that ended it.
func (l *Lifecycle) Terminate(reason Reason) bool {
	first := false
	l.once.Do(func() {
		first = true
		l.mu.Lock()
		l.reason = reason
		l.mu.Unlock()
		close(l.done)
		if l.cleanup != nil {
			l.cleanup(reason)
		}
	})
	return first
}

// Done is closed once the lifecycle has ended.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}

// Terminated reports whether Terminate has been called.
func (l *Lifecycle) Terminated() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Reason returns why the lifecycle ended, or ReasonNone while it is live.
func (l *Lifecycle) Reason() Reason {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reason
}

// WaitResult says how a Wait call finished.
type WaitResult int

const (
	Received WaitResult = iota
	TimedOut
	Cancelled
)

// Wait blocks until a value arrives on ch, timeout elapses, or done or ctx
// is closed, whichever happens first.
func Wait[T any](ctx context.Context, done <-chan struct{}, ch <-chan T, timeout time.Duration) (T, WaitResult) {
	var zero T
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v, Received
	case <-timer.C:
		return zero, TimedOut
	case <-done:
		return zero, Cancelled
	case <-ctx.Done():
		return zero, Cancelled
	}
}
