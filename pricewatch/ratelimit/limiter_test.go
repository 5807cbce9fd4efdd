package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLimiterSpacesCallsToSameProvider(t *testing.T) {
	l := New()
	delay := 80 * time.Millisecond
	ctx := context.Background()

	if err := l.Wait(ctx, "sample", delay); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}
	first := l.Last("sample")

	if err := l.Wait(ctx, "sample", delay); err != nil {
		t.Fatalf("second Wait() error = %v", err)
	}
	second := l.Last("sample")

	if gap := second.Sub(first); gap < delay {
		t.Errorf("second call started %v after the first, want >= %v", gap, delay)
	}
}

func TestLimiterConcurrentCallersDoNotPassTogether(t *testing.T) {
	l := New()
	delay := 50 * time.Millisecond
	ctx := context.Background()

	var mu sync.Mutex
	var starts []time.Time
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(ctx, "shop", delay); err != nil {
				t.Errorf("Wait() error = %v", err)
				return
			}
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(starts) != 3 {
		t.Fatalf("got %d starts, want 3", len(starts))
	}
	earliest, latest := starts[0], starts[0]
	for _, s := range starts[1:] {
		if s.Before(earliest) {
			earliest = s
		}
		if s.After(latest) {
			latest = s
		}
	}
	if spread := latest.Sub(earliest); spread < 2*delay {
		t.Errorf("three calls spread over %v, want >= %v", spread, 2*delay)
	}
}

func TestLimiterDifferentProvidersDoNotBlock(t *testing.T) {
	l := New()
	ctx := context.Background()

	if err := l.Wait(ctx, "a", time.Hour); err != nil {
		t.Fatalf("Wait(a) error = %v", err)
	}

	start := time.Now()
	if err := l.Wait(ctx, "b", time.Hour); err != nil {
		t.Fatalf("Wait(b) error = %v", err)
	}
	if took := time.Since(start); took > 50*time.Millisecond {
		t.Errorf("unrelated provider waited %v", took)
	}
}

func TestLimiterUnknownProviderProceedsImmediately(t *testing.T) {
	l := New()

	start := time.Now()
	if err := l.Wait(context.Background(), "new", time.Hour); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if took := time.Since(start); took > 50*time.Millisecond {
		t.Errorf("first call waited %v", took)
	}
	if l.Last("never-seen").IsZero() == false {
		t.Errorf("Last() of unseen provider should be zero")
	}
}

func TestLimiterHonorsContext(t *testing.T) {
	l := New()
	if err := l.Wait(context.Background(), "slow", time.Hour); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	before := l.Last("slow")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "slow", time.Hour)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want deadline exceeded", err)
	}
	if !l.Last("slow").Equal(before) {
		t.Errorf("cancelled Wait() must not record an invocation")
	}
}
