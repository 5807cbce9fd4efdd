// Package ratelimit spaces out calls to each named provider.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter remembers when each provider was last allowed through and makes
// the next caller wait out the rest of that provider's minimum delay.
// Callers for the same name are admitted one at a time; different names
// never wait on each other.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	slot chan struct{}
	last time.Time
}

func New() *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (l *Limiter) entry(name string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[name]
	if !ok {
		e = &entry{slot: make(chan struct{}, 1)}
		l.entries[name] = e
	}
	return e
}

// Wait blocks until name may be invoked again given delay, then records the
// invocation. It returns the context error if ctx ends first, in which case
// nothing is recorded.
func (l *Limiter) Wait(ctx context.Context, name string, delay time.Duration) error {
	e := l.entry(name)

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.slot }()

	if last := l.lastOf(e); !last.IsZero() && delay > 0 {
		if remaining := delay - l.now().Sub(last); remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	l.stamp(e)
	return nil
}

// Last returns the time name was last let through; zero if never.
func (l *Limiter) Last(name string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[name]; ok {
		return e.last
	}
	return time.Time{}
}

func (l *Limiter) lastOf(e *entry) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return e.last
}

func (l *Limiter) stamp(e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.last = l.now()
}
